package session

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/smartcart/internal/cart"
	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
)

func newState() *State {
	return New(cart.NewCatalog([]cart.Product{
		{ID: "1", Name: "apple", UnitPrice: decimal.RequireFromString("1.00")},
		{ID: "2", Name: "milk", UnitPrice: decimal.RequireFromString("0.89")},
	}), cart.Reconciler{})
}

func TestApplyDetectionWhileIdle(t *testing.T) {
	s := newState()
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

	res, applied := s.ApplyDetection(cart.Snapshot{"apple": 2}, now)
	require.True(t, applied)
	require.Len(t, res.Events, 1)

	v := s.Snapshot()
	assert.Equal(t, PhaseIdle, v.Phase)
	assert.Equal(t, "2.00", cart.FormatMoney(v.Total))
	assert.Equal(t, now, v.LastApply)
	assert.Equal(t, uint64(1), v.Revision)
}

// A tick that differs from the cart must be discarded while a checkout owns it.
func TestDetectionDiscardedDuringCheckout(t *testing.T) {
	for _, phase := range []Phase{PhaseDisplaying, PhaseSubmitting, PhaseResetting} {
		t.Run(string(phase), func(t *testing.T) {
			s := newState()
			_, applied := s.ApplyDetection(cart.Snapshot{"apple": 1}, time.Now())
			require.True(t, applied)

			_, started, err := s.BeginCheckout()
			require.NoError(t, err)
			require.True(t, started)
			for cur := PhaseDisplaying; cur != phase; {
				cur, err = s.Advance(cur)
				require.NoError(t, err)
			}
			require.Equal(t, phase, s.Phase())

			before := s.Snapshot()
			_, applied = s.ApplyDetection(cart.Snapshot{"apple": 5, "milk": 3}, time.Now())
			assert.False(t, applied)
			after := s.Snapshot()
			assert.Equal(t, before.Lines, after.Lines)
			assert.True(t, before.Total.Equal(after.Total))
		})
	}
}

func TestCheckoutLifecycle(t *testing.T) {
	s := newState()
	s.ApplyDetection(cart.Snapshot{"apple": 1}, time.Now())

	checkedOut, started, err := s.BeginCheckout()
	require.NoError(t, err)
	require.True(t, started)
	assert.Equal(t, 1, checkedOut.Len())

	_, started, err = s.BeginCheckout()
	assert.False(t, started)
	assert.True(t, errors.HasCategory(err, errors.CategoryCheckout))

	require.Error(t, s.ClearCart(), "clearing before resetting is illegal")
	require.Error(t, s.FinishCheckout())

	p, err := s.Advance(PhaseDisplaying)
	require.NoError(t, err)
	assert.Equal(t, PhaseSubmitting, p)

	_, err = s.Advance(PhaseDisplaying)
	require.Error(t, err, "stale from-phase is rejected")

	p, err = s.Advance(PhaseSubmitting)
	require.NoError(t, err)
	assert.Equal(t, PhaseResetting, p)

	_, err = s.Advance(PhaseResetting)
	require.Error(t, err, "returning to idle goes through FinishCheckout")

	require.NoError(t, s.ClearCart())
	require.NoError(t, s.FinishCheckout())

	v := s.Snapshot()
	assert.Equal(t, PhaseIdle, v.Phase)
	assert.Empty(t, v.Lines)
	assert.True(t, v.Total.IsZero())
	assert.Equal(t, 1, checkedOut.Len(), "checked-out copy is independent")
}

func TestBeginCheckoutOnEmptyCart(t *testing.T) {
	s := newState()
	_, started, err := s.BeginCheckout()
	require.NoError(t, err)
	assert.False(t, started)
	assert.Equal(t, PhaseIdle, s.Phase())
}

func TestAbortReturnsToIdle(t *testing.T) {
	s := newState()
	s.ApplyDetection(cart.Snapshot{"milk": 1}, time.Now())
	_, _, err := s.BeginCheckout()
	require.NoError(t, err)

	s.Abort()
	assert.Equal(t, PhaseIdle, s.Phase())
	assert.Empty(t, s.Snapshot().Lines)
}

func TestSettersAndCatalog(t *testing.T) {
	s := New(nil, cart.Reconciler{})
	assert.Equal(t, 0, s.CatalogSize())

	s.SetCatalog(cart.NewCatalog([]cart.Product{{ID: "1", Name: "apple", UnitPrice: decimal.NewFromInt(1)}}))
	s.SetCatalog(nil)
	assert.Equal(t, 1, s.CatalogSize())

	s.SetRemovalGrace(1)
	s.ApplyDetection(cart.Snapshot{"apple": 1}, time.Now())
	_, applied := s.ApplyDetection(cart.Snapshot{}, time.Now())
	assert.True(t, applied)
	assert.Len(t, s.Snapshot().Lines, 1, "grace keeps the line for one missed tick")
}

func TestConcurrentAccess(t *testing.T) {
	s := newState()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			s.ApplyDetection(cart.Snapshot{"apple": n%3 + 1, "milk": n % 2}, time.Now())
		}(i)
		go func() {
			defer wg.Done()
			v := s.Snapshot()
			sum := decimal.Zero
			for _, l := range v.Lines {
				sum = sum.Add(l.Subtotal())
			}
			assert.True(t, sum.Equal(v.Total))
		}()
	}
	wg.Wait()
}

func TestCatalogRefreshKeepsDetectedLines(t *testing.T) {
	s := newState()
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	_, applied := s.ApplyDetection(cart.Snapshot{"apple": 2}, now)
	require.True(t, applied)

	s.SetCatalog(cart.NewCatalog([]cart.Product{{ID: "9", Name: "pear", UnitPrice: decimal.RequireFromString("0.80")}}))
	res, applied := s.ApplyDetection(cart.Snapshot{"apple": 2}, now.Add(time.Minute))
	require.True(t, applied)
	assert.Empty(t, res.Events)
	assert.Len(t, s.Snapshot().Lines, 1)
}
