package checkout

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/smartcart/internal/eventstore"
	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
	"git.home.luguber.info/inful/smartcart/internal/logfields"
)

// ReplayResult lists what a replay delivered and what is still pending.
type ReplayResult struct {
	Delivered []string
	Failed    map[string]error
}

// Replayer resubmits dead-lettered purchases from the journal.
type Replayer struct {
	Store      eventstore.Store
	Projection *eventstore.CheckoutProjection
	Submitter  Submitter
	Logger     *slog.Logger
}

// Replay resubmits the given checkouts, or every pending one when ids is empty.
// Each purchase gets a single attempt; a success is journaled as replayed.
func (r *Replayer) Replay(ctx context.Context, ids ...string) (ReplayResult, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if r.Store == nil || r.Submitter == nil {
		return ReplayResult{}, errors.ValidationError("replay needs a journal and a submitter").Build()
	}
	if r.Projection == nil {
		r.Projection = eventstore.NewCheckoutProjection(r.Store)
	}
	if err := r.Projection.Rebuild(ctx); err != nil {
		return ReplayResult{}, err
	}

	targets := r.Projection.Pending()
	if len(ids) > 0 {
		targets = targets[:0:0]
		for _, id := range ids {
			s, ok := r.Projection.Get(id)
			if !ok {
				return ReplayResult{}, errors.WrapError(eventstore.ErrUnknownCheckout, errors.CategoryNotFound, "unknown checkout").
					WithContext("checkout_id", id).
					Build()
			}
			if !s.Pending() {
				logger.Info("Checkout is not pending, skipping", logfields.CheckoutID(id), slog.String("status", s.Status))
				continue
			}
			targets = append(targets, s)
		}
	}

	res := ReplayResult{Failed: map[string]error{}}
	for _, s := range targets {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		log := logger.With(logfields.CheckoutID(s.CheckoutID))
		if err := r.Submitter.SubmitPurchase(ctx, s.Purchase); err != nil {
			log.Warn("Replay failed", logfields.Error(err))
			res.Failed[s.CheckoutID] = err
			continue
		}
		e, err := eventstore.NewPurchaseReplayed(s.CheckoutID)
		if err == nil {
			err = eventstore.AppendEvent(ctx, r.Store, e)
		}
		if err != nil {
			return res, err
		}
		r.Projection.Apply(e)
		res.Delivered = append(res.Delivered, s.CheckoutID)
		log.Info("Purchase replayed")
	}
	return res, nil
}
