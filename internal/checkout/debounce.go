package checkout

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Debouncer accepts an edge only when the previous accepted edge is at least
// window old. Rejected edges do not extend the window.
type Debouncer struct {
	clock clockwork.Clock

	mu     sync.Mutex
	window time.Duration
	last   time.Time
	primed bool
}

func NewDebouncer(clock clockwork.Clock, window time.Duration) *Debouncer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Debouncer{clock: clock, window: window}
}

// Accept reports whether an edge arriving now should be handled.
func (d *Debouncer) Accept() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	if d.primed && now.Sub(d.last) < d.window {
		return false
	}
	d.last = now
	d.primed = true
	return true
}

func (d *Debouncer) SetWindow(w time.Duration) {
	d.mu.Lock()
	d.window = w
	d.mu.Unlock()
}
