package eventstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"git.home.luguber.info/inful/smartcart/internal/backend"
)

// Checkout status values of the history projection.
const (
	StatusStarted   = "started"
	StatusSubmitted = "submitted"
	StatusFailed    = "failed"
	StatusReplayed  = "replayed"
)

// CheckoutSummary is the read model of one checkout.
type CheckoutSummary struct {
	CheckoutID string           `json:"checkout_id"`
	Status     string           `json:"status"`
	StartedAt  time.Time        `json:"started_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	Total      string           `json:"total"`
	Purchase   backend.Purchase `json:"purchase"`
	Error      string           `json:"error,omitempty"`
	Attempts   int              `json:"attempts"`
}

// Pending reports whether the purchase still awaits delivery.
func (c CheckoutSummary) Pending() bool { return c.Status == StatusFailed }

// CheckoutProjection rebuilds checkout history from the journal.
type CheckoutProjection struct {
	mu        sync.RWMutex
	store     Store
	checkouts map[string]*CheckoutSummary
}

func NewCheckoutProjection(store Store) *CheckoutProjection {
	return &CheckoutProjection{store: store, checkouts: map[string]*CheckoutSummary{}}
}

// Rebuild reconstructs the projection from every event in the store.
func (p *CheckoutProjection) Rebuild(ctx context.Context) error {
	records, err := p.store.Since(ctx, time.Time{})
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkouts = map[string]*CheckoutSummary{}
	for _, r := range records {
		p.applyLocked(r)
	}
	return nil
}

// Apply folds one event into the projection.
func (p *CheckoutProjection) Apply(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyLocked(e.Envelope())
}

func (p *CheckoutProjection) applyLocked(e Record) {
	if e.Stream == "" || e.Stream == CartStream {
		return
	}
	s, ok := p.checkouts[e.Stream]
	if !ok {
		s = &CheckoutSummary{CheckoutID: e.Stream, Status: StatusStarted, StartedAt: e.At}
		p.checkouts[e.Stream] = s
	}
	s.UpdatedAt = e.At

	switch e.Kind {
	case TypeCheckoutStarted:
		var body struct {
			Purchase backend.Purchase `json:"purchase"`
			Total    string           `json:"total"`
		}
		if err := json.Unmarshal(e.Body, &body); err == nil {
			s.Purchase, s.Total = body.Purchase, body.Total
		}
		s.StartedAt = e.At
	case TypePurchaseSubmitted:
		s.Status = StatusSubmitted
		var body struct {
			Attempts int `json:"attempts"`
		}
		if err := json.Unmarshal(e.Body, &body); err == nil {
			s.Attempts = body.Attempts
		}
	case TypePurchaseFailed:
		s.Status = StatusFailed
		var body struct {
			Purchase backend.Purchase `json:"purchase"`
			Error    string           `json:"error"`
			Attempts int              `json:"attempts"`
		}
		if err := json.Unmarshal(e.Body, &body); err == nil {
			s.Purchase, s.Error, s.Attempts = body.Purchase, body.Error, body.Attempts
		}
	case TypePurchaseReplayed:
		s.Status = StatusReplayed
		s.Error = ""
	}
}

// History returns all checkouts, newest first.
func (p *CheckoutProjection) History() []CheckoutSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]CheckoutSummary, 0, len(p.checkouts))
	for _, s := range p.checkouts {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].CheckoutID > out[j].CheckoutID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

// Pending returns undelivered purchases, oldest first.
func (p *CheckoutProjection) Pending() []CheckoutSummary {
	h := p.History()
	out := make([]CheckoutSummary, 0)
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].Pending() {
			out = append(out, h[i])
		}
	}
	return out
}

// Get returns one checkout summary.
func (p *CheckoutProjection) Get(checkoutID string) (CheckoutSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.checkouts[checkoutID]
	if !ok {
		return CheckoutSummary{}, false
	}
	return *s, true
}
