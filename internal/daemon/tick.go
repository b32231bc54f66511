package daemon

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/smartcart/internal/cart"
	"git.home.luguber.info/inful/smartcart/internal/daemon/events"
	"git.home.luguber.info/inful/smartcart/internal/eventstore"
	"git.home.luguber.info/inful/smartcart/internal/logfields"
	"git.home.luguber.info/inful/smartcart/internal/metrics"
	"git.home.luguber.info/inful/smartcart/internal/publish"
)

// KindCartChanged is the published message kind of a cart update.
const KindCartChanged = "cart_changed"

// TickResult reports what one detection tick did.
type TickResult struct {
	Tick    uint64
	Outcome metrics.TickOutcome
	Result  cart.Result
	Err     error
}

// Tick beeps, samples the detection source and reconciles the snapshot into
// the cart. Every tick beeps. While a checkout owns the cart nothing else
// happens; a failed sample skips the tick and leaves the cart untouched.
func (d *Daemon) Tick(ctx context.Context) TickResult {
	n := d.ticks.Add(1)
	log := d.logger.With(logfields.Tick(n))
	res := TickResult{Tick: n}

	if err := d.devices.Buzzer.Beep(d.GetConfig().Hardware.Beep); err != nil {
		log.Warn("Buzzer failed", logfields.Error(err))
	}

	if p := d.state.Phase(); p.Busy() {
		res.Outcome = metrics.TickSkipped
		d.recorder.IncTick(res.Outcome)
		log.Debug("Tick skipped, checkout in progress", logfields.Phase(p.String()))
		return res
	}

	start := d.clock.Now()
	snapshot, err := d.source.Sample(ctx)
	d.recorder.ObserveDetectionDuration(d.clock.Since(start))
	if err != nil {
		res.Outcome, res.Err = metrics.TickDetectFailed, err
		d.recorder.IncTick(res.Outcome)
		log.Warn("Detection failed, tick skipped", logfields.Error(err))
		return res
	}

	var applied bool
	res.Result, applied = d.state.ApplyDetection(snapshot, d.clock.Now())
	if !applied {
		// a checkout began while sampling
		res.Outcome = metrics.TickSkipped
		d.recorder.IncTick(res.Outcome)
		log.Debug("Snapshot discarded, checkout started during detection")
		return res
	}
	res.Outcome = metrics.TickApplied
	d.recorder.IncTick(res.Outcome)
	d.lastTick.Store(d.clock.Now().UnixNano())
	d.recorder.SetCart(res.Result.Cart.Len(), res.Result.Cart.Total().InexactFloat64())

	log.Debug("Snapshot applied", slog.Int("classes", snapshot.Count()), slog.Int("changes", len(res.Result.Events)))
	if !res.Result.Changed() {
		return res
	}

	for _, ev := range res.Result.Events {
		d.recorder.IncCartEvent(string(ev.Kind))
		d.showEvent(log, ev)
	}
	total := cart.FormatMoney(res.Result.Cart.Total())
	log.Info("Cart updated", logfields.Total(total), slog.Int("lines", res.Result.Cart.Len()))

	if d.journal != nil {
		e, err := eventstore.NewCartChanged(res.Result.Events, total)
		if err == nil {
			err = eventstore.AppendEvent(ctx, d.journal, e)
		}
		if err != nil {
			log.Warn("Failed to journal cart change", logfields.Error(err))
		}
	}

	evt := events.CartUpdated{
		Tick:     n,
		Changes:  res.Result.Events,
		Lines:    res.Result.Cart.Len(),
		Total:    res.Result.Cart.Total(),
		Revision: d.state.Snapshot().Revision,
		At:       d.clock.Now(),
	}
	if d.bus == nil {
		return res
	}
	if err := events.Publish(ctx, d.bus, evt); err != nil && ctx.Err() == nil {
		log.Warn("Failed to hand off cart update", logfields.Error(err))
	}
	return res
}

func (d *Daemon) showEvent(log *slog.Logger, ev cart.Event) {
	var err error
	switch ev.Kind {
	case cart.EventAdded, cart.EventQuantityChanged:
		log.Info("Cart line changed",
			logfields.EventKind(string(ev.Kind)),
			logfields.ProductID(ev.ProductID),
			logfields.Product(ev.Name),
			logfields.Quantity(ev.NewQuantity))
		err = d.devices.Display.ShowLine(ev.Name, ev.UnitPrice, ev.NewQuantity)
	case cart.EventRemoved:
		log.Info("Cart line removed", logfields.ProductID(ev.ProductID), logfields.Product(ev.Name))
		err = d.devices.Display.ShowMessage(fmt.Sprintf("Removed:\n%s", ev.Name))
	}
	if err != nil {
		log.Warn("Display update failed", logfields.Error(err))
	}
}

// forwardCart publishes a cart update to NATS subscribers.
func (d *Daemon) forwardCart(ctx context.Context, evt events.CartUpdated) {
	err := d.publisher.Publish(ctx, publish.Message{
		Kind:       KindCartChanged,
		CartNumber: d.GetConfig().Cart.Number,
		Timestamp:  evt.At.UTC(),
		Data: map[string]any{
			"tick":     evt.Tick,
			"changes":  evt.Changes,
			"lines":    evt.Lines,
			"total":    cart.FormatMoney(evt.Total),
			"revision": evt.Revision,
		},
	})
	if err != nil && ctx.Err() == nil {
		d.logger.Warn("Failed to publish cart update", logfields.Tick(evt.Tick), logfields.Error(err))
	}
}
