// Package daemon runs the cart controller: the scheduled detection tick, the
// checkout coordinator fed by the trigger, the config watcher and the admin
// HTTP server.
package daemon

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/smartcart/internal/cart"
	"git.home.luguber.info/inful/smartcart/internal/checkout"
	"git.home.luguber.info/inful/smartcart/internal/config"
	"git.home.luguber.info/inful/smartcart/internal/daemon/events"
	"git.home.luguber.info/inful/smartcart/internal/detection"
	"git.home.luguber.info/inful/smartcart/internal/eventstore"
	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
	"git.home.luguber.info/inful/smartcart/internal/hardware"
	"git.home.luguber.info/inful/smartcart/internal/logfields"
	"git.home.luguber.info/inful/smartcart/internal/metrics"
	"git.home.luguber.info/inful/smartcart/internal/publish"
	"git.home.luguber.info/inful/smartcart/internal/retry"
	"git.home.luguber.info/inful/smartcart/internal/session"
	"git.home.luguber.info/inful/smartcart/internal/version"
)

// Status is the daemon lifecycle state.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusError    Status = "error"
)

// Backend is the catalog and purchase service.
type Backend interface {
	FetchProducts(ctx context.Context) ([]cart.Product, error)
	checkout.Submitter
}

// Deps are the collaborators built by the caller. Devices, Source and
// Backend are required; the rest have working defaults.
type Deps struct {
	Devices   *hardware.Devices
	Source    detection.Source
	Backend   Backend
	Journal   eventstore.Store
	Publisher publish.Publisher
	Registry  *prometheus.Registry
	Clock     clockwork.Clock
	Logger    *slog.Logger
}

// Daemon owns every long-running component of one cart.
type Daemon struct {
	configPath string
	status     atomic.Value // Status
	mu         sync.Mutex   // serializes Start and Stop

	cfgMu     sync.RWMutex
	cfg       *config.Config
	startTime time.Time

	logger    *slog.Logger
	clock     clockwork.Clock
	devices   *hardware.Devices
	source    detection.Source
	backend   Backend
	journal   eventstore.Store
	publisher publish.Publisher
	registry  *prometheus.Registry
	recorder  metrics.Recorder

	state       *session.State
	coordinator *checkout.Coordinator
	projection  *eventstore.CheckoutProjection
	scheduler   *Scheduler
	watcher     *ConfigWatcher
	admin       *AdminServer
	bus         *events.Bus
	workers     WorkerGroup
	cancel      context.CancelFunc

	ticks        atomic.Uint64
	lastTick     atomic.Int64 // unix nanos of the last applied tick
	lastCheckout atomic.Pointer[events.CheckoutCompleted]
}

// New wires a daemon. configPath enables hot reload when non-empty.
func New(cfg *config.Config, configPath string, deps Deps) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.ValidationError("configuration is required").Build()
	}
	if deps.Devices == nil || deps.Devices.Display == nil || deps.Devices.Buzzer == nil || deps.Devices.Trigger == nil {
		return nil, errors.ValidationError("display, buzzer and trigger are required").Build()
	}
	if deps.Source == nil || deps.Backend == nil {
		return nil, errors.ValidationError("detection source and backend are required").Build()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Publisher == nil {
		deps.Publisher = publish.NoopPublisher{}
	}
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}

	d := &Daemon{
		configPath: configPath,
		cfg:        cfg,
		logger:     deps.Logger.With(logfields.CartNumber(cfg.Cart.Number)),
		clock:      deps.Clock,
		devices:    deps.Devices,
		source:     deps.Source,
		backend:    deps.Backend,
		journal:    deps.Journal,
		publisher:  deps.Publisher,
		registry:   deps.Registry,
		recorder:   metrics.NewPrometheusRecorder(deps.Registry),
	}
	d.workers.logger = d.logger
	d.status.Store(StatusStopped)
	d.state = session.New(nil, cart.Reconciler{RemovalGrace: cfg.Detection.RemovalGraceTicks})
	if d.journal != nil {
		d.projection = eventstore.NewCheckoutProjection(d.journal)
	}

	var err error
	d.coordinator, err = checkout.New(checkout.Options{
		State:      d.state,
		Display:    d.devices.Display,
		Submitter:  d.backend,
		Journal:    d.journal,
		Projection: d.projection,
		Publisher:  d.publisher,
		Metrics:    d.recorder,
		Clock:      d.clock,
		Logger:     d.logger,
		CartNumber: cfg.Cart.Number,
		Timings:    cfg.Checkout,
		Retry:      retry.FromConfig(cfg.Backend.Retry),
	})
	if err != nil {
		return nil, err
	}

	d.scheduler, err = NewScheduler(d.clock, d.logger)
	if err != nil {
		return nil, err
	}
	if cfg.Daemon.AdminAddr != "" {
		d.admin = NewAdminServer(cfg.Daemon.AdminAddr, d, d.logger)
	}
	if configPath != "" {
		d.watcher, err = NewConfigWatcher(configPath, d.logger)
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Start launches every component and returns once they are running.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if s := d.GetStatus(); s != StatusStopped {
		return errors.DaemonError("daemon is not stopped").WithContext("status", string(s)).Build()
	}
	d.status.Store(StatusStarting)
	d.cfgMu.Lock()
	d.startTime = d.clock.Now()
	d.cfgMu.Unlock()
	d.logger.Info("Starting smartcart daemon", slog.String("version", version.Version))

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.bus = events.NewBus()
	d.workers.Reset()

	if d.projection != nil {
		if err := d.projection.Rebuild(runCtx); err != nil {
			d.logger.Warn("Failed to rebuild checkout history", logfields.Error(err))
		} else if n := len(d.projection.Pending()); n > 0 {
			d.logger.Warn("Undelivered purchases in journal, run replay", slog.Int("pending", n))
		}
	}
	d.RefreshCatalog(runCtx)

	d.startWorkers(runCtx)

	if err := d.scheduler.ScheduleTick(d.cfg.Detection.Interval, func() { d.Tick(runCtx) }); err != nil {
		return d.failStart(err)
	}
	d.scheduler.Start()

	if d.watcher != nil {
		if err := d.watcher.Start(runCtx, d.bus); err != nil {
			d.logger.Error("Failed to start config watcher", logfields.Error(err))
		}
	}
	if d.admin != nil {
		if err := d.admin.Start(runCtx); err != nil {
			return d.failStart(err)
		}
	}

	d.status.Store(StatusRunning)
	d.logger.Info("Smartcart daemon started",
		slog.Duration("interval", d.cfg.Detection.Interval),
		slog.String("admin_addr", d.cfg.Daemon.AdminAddr),
		slog.Int("catalog_size", d.state.CatalogSize()))
	return nil
}

func (d *Daemon) failStart(err error) error {
	d.cancel()
	_ = d.scheduler.Stop()
	d.bus.Close()
	_ = d.workers.StopAndWait(context.Background())
	d.status.Store(StatusError)
	return err
}

func (d *Daemon) startWorkers(ctx context.Context) {
	carts, unsubCarts := events.Subscribe[events.CartUpdated](d.bus, 16)
	checkouts, unsubCheckouts := events.Subscribe[events.CheckoutCompleted](d.bus, 4)
	reloads, unsubReloads := events.Subscribe[events.ConfigReloaded](d.bus, 1)

	d.workers.Go("coordinator", func() {
		if err := d.coordinator.Run(ctx); err != nil {
			d.logger.Error("Checkout coordinator stopped", logfields.Error(err))
		}
	})
	d.workers.Go("trigger", func() {
		if err := d.devices.Trigger.OnEdge(ctx, d.onTrigger); err != nil && ctx.Err() == nil {
			d.logger.Error("Trigger source failed", logfields.Error(err))
		}
	})
	d.workers.Go("outcomes", func() {
		for {
			select {
			case <-ctx.Done():
				return
			case out := <-d.coordinator.Outcomes():
				if err := events.Publish(ctx, d.bus, events.CheckoutCompleted{Outcome: out, At: d.clock.Now()}); err != nil && ctx.Err() == nil {
					d.logger.Warn("Failed to publish checkout outcome", logfields.Error(err))
				}
			}
		}
	})
	d.workers.Go("cart-fanout", func() {
		defer unsubCarts()
		for evt := range carts {
			d.forwardCart(ctx, evt)
		}
	})
	d.workers.Go("checkout-status", func() {
		defer unsubCheckouts()
		for evt := range checkouts {
			d.lastCheckout.Store(&evt)
		}
	})
	d.workers.Go("reload", func() {
		defer unsubReloads()
		for evt := range reloads {
			if err := d.ApplyReload(evt.Settings); err != nil {
				d.logger.Error("Failed to apply configuration", logfields.Path(evt.Path), logfields.Error(err))
			}
		}
	})
}

func (d *Daemon) onTrigger() {
	if d.coordinator.Trigger() {
		d.logger.Info("Checkout requested")
	}
}

// RequestCheckout injects a trigger as if the button was pressed.
func (d *Daemon) RequestCheckout() bool { return d.coordinator.Trigger() }

// Stop shuts every component down; a checkout in progress is aborted.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.GetStatus() != StatusRunning {
		return nil
	}
	d.status.Store(StatusStopping)
	d.logger.Info("Stopping smartcart daemon")

	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}
	if d.admin != nil {
		keep(d.admin.Stop(ctx))
	}
	if d.watcher != nil {
		keep(d.watcher.Stop())
	}
	d.cancel()
	keep(d.scheduler.Stop())
	d.bus.Close()
	keep(d.workers.StopAndWait(ctx))
	d.state.Abort()

	d.status.Store(StatusStopped)
	d.logger.Info("Smartcart daemon stopped")
	return first
}

// Run starts the daemon, blocks until ctx is done and stops it.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return d.Stop(stopCtx)
}

func (d *Daemon) GetStatus() Status {
	if s, ok := d.status.Load().(Status); ok {
		return s
	}
	return StatusError
}

func (d *Daemon) GetStartTime() time.Time {
	d.cfgMu.RLock()
	defer d.cfgMu.RUnlock()
	return d.startTime
}

// GetConfig returns the active configuration.
func (d *Daemon) GetConfig() *config.Config {
	d.cfgMu.RLock()
	defer d.cfgMu.RUnlock()
	return d.cfg
}

func (d *Daemon) State() *session.State                      { return d.state }
func (d *Daemon) Projection() *eventstore.CheckoutProjection { return d.projection }
func (d *Daemon) Registry() *prometheus.Registry             { return d.registry }

// RefreshCatalog fetches the product list. On failure the current catalog
// (empty at startup) stays in place.
func (d *Daemon) RefreshCatalog(ctx context.Context) {
	products, err := d.backend.FetchProducts(ctx)
	if err != nil {
		d.logger.Warn("Failed to fetch product catalog, keeping current one",
			slog.Int("catalog_size", d.state.CatalogSize()), logfields.Error(err))
		return
	}
	catalog := cart.NewCatalog(products)
	d.state.SetCatalog(catalog)
	d.logger.Info("Product catalog loaded", slog.Int("catalog_size", catalog.Len()))
}
