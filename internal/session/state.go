// Package session owns the shared cart ledger and the checkout phase behind a
// single mutex. The detection loop and the checkout coordinator only touch the
// cart through these methods.
package session

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"git.home.luguber.info/inful/smartcart/internal/cart"
	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
)

// State is safe for concurrent use.
type State struct {
	mu         sync.Mutex
	cart       *cart.Cart
	catalog    *cart.Catalog
	reconciler cart.Reconciler
	phase      Phase
	lastApply  time.Time
	revision   uint64
}

// New creates an idle state with an empty cart.
func New(catalog *cart.Catalog, r cart.Reconciler) *State {
	if catalog == nil {
		catalog = cart.NewCatalog(nil)
	}
	return &State{cart: cart.New(), catalog: catalog, reconciler: r, phase: PhaseIdle}
}

// View is an immutable copy of the state for display and status reporting.
type View struct {
	Phase     Phase
	Lines     []cart.Line
	Total     decimal.Decimal
	LastApply time.Time
	Revision  uint64
}

// ApplyDetection reconciles snapshot into the cart only while idle. When a
// checkout is in progress the snapshot is discarded and applied is false.
func (s *State) ApplyDetection(snapshot cart.Snapshot, now time.Time) (res cart.Result, applied bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseIdle {
		return cart.Result{Cart: s.cart.Clone(), Delta: decimal.Zero}, false
	}
	res = s.reconciler.Reconcile(s.cart, snapshot, s.catalog)
	s.cart = res.Cart
	s.lastApply = now
	if res.Changed() {
		s.revision++
	}
	return res, true
}

// BeginCheckout moves Idle to Displaying when the cart is non-empty and returns
// a copy of the cart being checked out. An empty cart is not an error and
// yields started == false; a running checkout is a CategoryCheckout error.
func (s *State) BeginCheckout() (checkedOut *cart.Cart, started bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseIdle {
		return nil, false, errors.CheckoutError("checkout already in progress").
			WithContext("phase", string(s.phase)).
			Build()
	}
	if s.cart.IsEmpty() {
		return nil, false, nil
	}
	s.phase = PhaseDisplaying
	return s.cart.Clone(), true, nil
}

// Advance performs the single legal transition out of the current non-idle
// phase and returns the new phase. Returning to idle goes through FinishCheckout.
func (s *State) Advance(from Phase) (Phase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	to, ok := next[from]
	if !ok || s.phase != from || to == PhaseIdle {
		return s.phase, errors.CheckoutError("illegal phase transition").
			WithContext("from", string(from)).
			WithContext("current", string(s.phase)).
			Build()
	}
	s.phase = to
	return to, nil
}

// ClearCart empties the ledger. It is only legal while resetting.
func (s *State) ClearCart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseResetting {
		return errors.CheckoutError("cart can only be cleared while resetting").
			WithContext("phase", string(s.phase)).
			Build()
	}
	s.cart = cart.New()
	s.revision++
	return nil
}

// FinishCheckout returns a resetting state to idle.
func (s *State) FinishCheckout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseResetting {
		return errors.CheckoutError("checkout can only finish from resetting").
			WithContext("phase", string(s.phase)).
			Build()
	}
	s.phase = PhaseIdle
	return nil
}

// Abort forces the state back to idle after clearing the cart. Used on
// shutdown so a half-finished checkout never leaves the state owned.
func (s *State) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseIdle {
		return
	}
	s.cart = cart.New()
	s.phase = PhaseIdle
	s.revision++
}

func (s *State) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Snapshot returns a consistent view of cart and phase.
func (s *State) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		Phase:     s.phase,
		Lines:     s.cart.Lines(),
		Total:     s.cart.Total(),
		LastApply: s.lastApply,
		Revision:  s.revision,
	}
}

// SetCatalog swaps the catalog used by later reconciliations.
func (s *State) SetCatalog(c *cart.Catalog) {
	if c == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = c
}

// CatalogSize is used by health checks.
func (s *State) CatalogSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Len()
}

// SetRemovalGrace updates the grace used by later reconciliations.
func (s *State) SetRemovalGrace(n int) {
	if n < 0 {
		n = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconciler.RemovalGrace = n
}
