package daemon

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"git.home.luguber.info/inful/smartcart/internal/logfields"
)

// WorkerGroup runs the daemon's long-lived goroutines under names. After
// StopAndWait it refuses new workers until Reset.
type WorkerGroup struct {
	logger *slog.Logger

	mu      sync.Mutex
	wg      sync.WaitGroup
	closed  bool
	running map[string]int
}

// Reset reopens a stopped group. All workers must have exited.
func (g *WorkerGroup) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = false
	g.running = nil
}

// Go runs fn as worker name and reports whether it was started. A panic in
// fn is logged and ends only that worker.
func (g *WorkerGroup) Go(name string, fn func()) bool {
	if fn == nil {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false
	}
	if g.running == nil {
		g.running = map[string]int{}
	}
	g.running[name]++
	g.wg.Add(1)
	go g.run(name, fn)
	return true
}

func (g *WorkerGroup) run(name string, fn func()) {
	log := g.log().With(slog.String("worker", name))
	defer g.wg.Done()
	defer g.exited(name)
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("Worker panicked", slog.Any("panic", rec))
		}
	}()
	log.Debug("Worker started")
	fn()
	log.Debug("Worker stopped")
}

func (g *WorkerGroup) exited(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		return
	}
	if g.running[name]--; g.running[name] <= 0 {
		delete(g.running, name)
	}
}

// Running lists the names of live workers.
func (g *WorkerGroup) Running() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	names := make([]string, 0, len(g.running))
	for name := range g.running {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StopAndWait closes the group and waits for its workers until ctx is done.
func (g *WorkerGroup) StopAndWait(ctx context.Context) error {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		g.log().Warn("Workers still running at shutdown deadline",
			slog.Any("workers", g.Running()), logfields.Error(ctx.Err()))
		return ctx.Err()
	}
}

func (g *WorkerGroup) log() *slog.Logger {
	if g.logger == nil {
		return slog.Default()
	}
	return g.logger
}
