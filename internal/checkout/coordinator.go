// Package checkout runs the checkout state machine: show the total, submit
// the purchase, clear the cart and greet the next customer.
package checkout

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"git.home.luguber.info/inful/smartcart/internal/backend"
	"git.home.luguber.info/inful/smartcart/internal/cart"
	"git.home.luguber.info/inful/smartcart/internal/config"
	"git.home.luguber.info/inful/smartcart/internal/eventstore"
	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
	"git.home.luguber.info/inful/smartcart/internal/hardware"
	"git.home.luguber.info/inful/smartcart/internal/logfields"
	"git.home.luguber.info/inful/smartcart/internal/metrics"
	"git.home.luguber.info/inful/smartcart/internal/publish"
	"git.home.luguber.info/inful/smartcart/internal/retry"
	"git.home.luguber.info/inful/smartcart/internal/session"
)

// Display texts.
const (
	MessageNewCustomer  = "New customer..."
	MessagePaymentError = "Payment error"
)

// Published message kinds.
const (
	KindCheckoutStarted  = "checkout_started"
	KindCheckoutFinished = "checkout_finished"
)

// Submitter delivers a purchase to the backend.
type Submitter interface {
	SubmitPurchase(ctx context.Context, p backend.Purchase) error
}

// Options wires a Coordinator. State, Display and Submitter are required.
type Options struct {
	State      *session.State
	Display    hardware.Display
	Submitter  Submitter
	Journal    eventstore.Store
	Projection *eventstore.CheckoutProjection
	Publisher  publish.Publisher
	Metrics    metrics.Recorder
	Clock      clockwork.Clock
	Logger     *slog.Logger
	CartNumber int
	Timings    config.CheckoutConfig
	Retry      retry.Policy
	NewID      func() string
}

// Outcome describes one finished (or ignored) checkout.
type Outcome struct {
	CheckoutID string
	Purchase   backend.Purchase
	Total      decimal.Decimal
	Attempts   int
	Err        error // submission error; the cart is cleared regardless
	Ignored    bool  // cart was empty
}

// Coordinator consumes triggers and owns the cart while a checkout runs.
type Coordinator struct {
	state      *session.State
	display    hardware.Display
	submitter  Submitter
	journal    eventstore.Store
	projection *eventstore.CheckoutProjection
	publisher  publish.Publisher
	metrics    metrics.Recorder
	clock      clockwork.Clock
	logger     *slog.Logger
	cartNumber int
	policy     retry.Policy
	newID      func() string

	debouncer *Debouncer
	triggers  chan struct{}
	outcomes  chan Outcome

	mu      sync.RWMutex
	timings config.CheckoutConfig
}

func New(opts Options) (*Coordinator, error) {
	if opts.State == nil {
		return nil, errors.ValidationError("session state is required").Build()
	}
	if opts.Display == nil {
		return nil, errors.ValidationError("display is required").Build()
	}
	if opts.Submitter == nil {
		return nil, errors.ValidationError("submitter is required").Build()
	}
	if opts.Publisher == nil {
		opts.Publisher = publish.NoopPublisher{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoopRecorder{}
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Retry == (retry.Policy{}) {
		opts.Retry = retry.DefaultPolicy()
	}

	return &Coordinator{
		state:      opts.State,
		display:    opts.Display,
		submitter:  opts.Submitter,
		journal:    opts.Journal,
		projection: opts.Projection,
		publisher:  opts.Publisher,
		metrics:    opts.Metrics,
		clock:      opts.Clock,
		logger:     opts.Logger,
		cartNumber: opts.CartNumber,
		policy:     opts.Retry,
		newID:      opts.NewID,
		debouncer:  NewDebouncer(opts.Clock, opts.Timings.Debounce),
		triggers:   make(chan struct{}, 1),
		outcomes:   make(chan Outcome, 8),
		timings:    opts.Timings,
	}, nil
}

// Trigger is the edge handler. It never blocks. Edges inside the debounce
// window, edges during a running checkout and edges while one is already
// queued are dropped. It reports whether the edge was queued.
func (c *Coordinator) Trigger() bool {
	if !c.debouncer.Accept() {
		c.metrics.IncCheckout(metrics.CheckoutDebounced)
		c.logger.Debug("Checkout trigger debounced")
		return false
	}
	if c.state.Phase().Busy() {
		c.logger.Debug("Checkout trigger ignored, checkout in progress")
		return false
	}
	select {
	case c.triggers <- struct{}{}:
		return true
	default:
		return false
	}
}

// Outcomes delivers finished checkouts. Sends are dropped when nobody reads.
func (c *Coordinator) Outcomes() <-chan Outcome { return c.outcomes }

// SetTimings replaces the checkout timings; a running checkout keeps its own.
func (c *Coordinator) SetTimings(t config.CheckoutConfig) {
	c.mu.Lock()
	c.timings = t
	c.mu.Unlock()
	c.debouncer.SetWindow(t.Debounce)
}

func (c *Coordinator) Timings() config.CheckoutConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.timings
}

// Run handles queued triggers until ctx is done.
func (c *Coordinator) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.triggers:
			out, err := c.Checkout(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				c.logger.Warn("Checkout failed", logfields.Error(err))
				continue
			}
			select {
			case c.outcomes <- out:
			default:
			}
		}
	}
}

// Checkout runs one complete checkout synchronously. Submission failures are
// reported in Outcome.Err; the returned error covers state machine problems
// and cancellation, in which case the state is aborted back to idle.
func (c *Coordinator) Checkout(ctx context.Context) (Outcome, error) {
	checkedOut, started, err := c.state.BeginCheckout()
	if err != nil {
		return Outcome{}, err
	}
	if !started {
		c.metrics.IncCheckout(metrics.CheckoutIgnored)
		c.logger.Info("Checkout ignored, cart is empty")
		return Outcome{Ignored: true}, nil
	}

	t := c.Timings()
	out := Outcome{
		CheckoutID: c.newID(),
		Purchase:   backend.NewPurchase(c.cartNumber, checkedOut),
		Total:      checkedOut.Total(),
	}
	log := c.logger.With(logfields.CheckoutID(out.CheckoutID))
	log.Info("Checkout started", logfields.Total(cart.FormatMoney(out.Total)), slog.Int("lines", checkedOut.Len()))

	if err := c.wait(ctx, t.Settle); err != nil {
		return c.abort(out, err)
	}
	c.show(log, c.display.ShowTotal(out.Total))
	if err := c.wait(ctx, t.Dwell); err != nil {
		return c.abort(out, err)
	}

	if _, err := c.state.Advance(session.PhaseDisplaying); err != nil {
		return c.abort(out, err)
	}
	c.record(ctx, log, func() (eventstore.Event, error) {
		return eventstore.NewCheckoutStarted(out.CheckoutID, out.Purchase, cart.FormatMoney(out.Total))
	})
	c.announce(ctx, log, KindCheckoutStarted, out, nil)

	out.Attempts, out.Err = c.submit(ctx, log, out.Purchase)
	if out.Err != nil {
		c.metrics.IncCheckout(metrics.CheckoutFailed)
		log.Error("Purchase submission failed, keeping dead letter", logfields.Attempt(out.Attempts), logfields.Error(out.Err))
		c.record(ctx, log, func() (eventstore.Event, error) {
			return eventstore.NewPurchaseFailed(out.CheckoutID, out.Purchase, out.Err, out.Attempts)
		})
		c.show(log, c.display.ShowMessage(MessagePaymentError))
	} else {
		c.metrics.IncCheckout(metrics.CheckoutSubmitted)
		log.Info("Purchase submitted", logfields.Attempt(out.Attempts))
		c.record(ctx, log, func() (eventstore.Event, error) {
			return eventstore.NewPurchaseSubmitted(out.CheckoutID, out.Attempts)
		})
	}
	c.announce(ctx, log, KindCheckoutFinished, out, out.Err)

	if _, err := c.state.Advance(session.PhaseSubmitting); err != nil {
		return c.abort(out, err)
	}
	if err := c.state.ClearCart(); err != nil {
		return c.abort(out, err)
	}
	c.metrics.SetCart(0, 0)
	c.show(log, c.display.ShowMessage(MessageNewCustomer))
	if err := c.wait(ctx, t.ResetPause); err != nil {
		return c.abort(out, err)
	}
	c.dropQueued()
	if err := c.state.FinishCheckout(); err != nil {
		return c.abort(out, err)
	}
	log.Info("Checkout finished")
	return out, nil
}

func (c *Coordinator) submit(ctx context.Context, log *slog.Logger, p backend.Purchase) (int, error) {
	attempts := 0
	err := retry.Do(ctx, c.clock, c.policy, func(ctx context.Context) error {
		attempts++
		start := c.clock.Now()
		err := c.submitter.SubmitPurchase(ctx, p)
		c.metrics.ObserveSubmissionDuration(c.clock.Since(start), err == nil)
		return err
	}, func(n int, delay time.Duration, err error) {
		c.metrics.IncSubmissionRetry()
		log.Warn("Retrying purchase submission", logfields.Attempt(n), logfields.Duration(delay), logfields.Error(err))
	})
	return attempts, err
}

// wait blocks for d on the coordinator clock.
func (c *Coordinator) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.clock.After(d):
		return nil
	}
}

// dropQueued discards a trigger that was queued after its edge passed the
// busy check but before the checkout began. It must run while the state is
// still busy so later edges keep being refused.
func (c *Coordinator) dropQueued() {
	select {
	case <-c.triggers:
		c.logger.Debug("Dropped checkout trigger queued during checkout")
	default:
	}
}

func (c *Coordinator) abort(out Outcome, err error) (Outcome, error) {
	c.dropQueued()
	c.state.Abort()
	c.logger.Warn("Checkout aborted", logfields.CheckoutID(out.CheckoutID), logfields.Error(err))
	return out, err
}

func (c *Coordinator) show(log *slog.Logger, err error) {
	if err != nil {
		log.Warn("Display update failed", logfields.Error(err))
	}
}

// record appends a journal event. Journal failures are logged only; a
// checkout never stalls on the audit trail.
func (c *Coordinator) record(ctx context.Context, log *slog.Logger, build func() (eventstore.Event, error)) {
	if c.journal == nil {
		return
	}
	e, err := build()
	if err == nil {
		err = eventstore.AppendEvent(context.WithoutCancel(ctx), c.journal, e)
	}
	if err != nil {
		log.Warn("Failed to journal checkout event", logfields.Error(err))
		return
	}
	if c.projection != nil {
		c.projection.Apply(e)
	}
}

func (c *Coordinator) announce(ctx context.Context, log *slog.Logger, kind string, out Outcome, submitErr error) {
	data := map[string]any{
		"total":    cart.FormatMoney(out.Total),
		"purchase": out.Purchase,
	}
	if kind == KindCheckoutFinished {
		data["attempts"] = out.Attempts
		data["submitted"] = submitErr == nil
		if submitErr != nil {
			data["error"] = submitErr.Error()
		}
	}
	err := c.publisher.Publish(context.WithoutCancel(ctx), publish.Message{
		Kind:       kind,
		CartNumber: c.cartNumber,
		CheckoutID: out.CheckoutID,
		Timestamp:  c.clock.Now().UTC(),
		Data:       data,
	})
	if err != nil {
		log.Warn("Failed to publish checkout event", logfields.EventKind(kind), logfields.Error(err))
	}
}
