package eventstore

import (
	"context"
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/smartcart/internal/backend"
	"git.home.luguber.info/inful/smartcart/internal/cart"
	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
)

// Journal event types.
const (
	TypeCartChanged       = "CartChanged"
	TypeCheckoutStarted   = "CheckoutStarted"
	TypePurchaseSubmitted = "PurchaseSubmitted"
	TypePurchaseFailed    = "PurchaseFailed"
	TypePurchaseReplayed  = "PurchaseReplayed"
)

// CartStream is the stream id used for ledger changes outside any checkout.
const CartStream = "cart"

func newRecord(stream, kind string, body any) (Record, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return Record{}, errors.EventStoreError("failed to marshal "+kind+" body").
			WithCause(err).
			WithContext("stream", stream).
			Build()
	}
	return Record{Stream: stream, Kind: kind, At: time.Now(), Body: raw}, nil
}

// CartChanged records the ledger changes of one applied detection tick.
type CartChanged struct {
	Record
	Changes []cart.Event `json:"changes"`
	Total   string       `json:"total"`
}

func NewCartChanged(changes []cart.Event, total string) (*CartChanged, error) {
	e := &CartChanged{Changes: changes, Total: total}
	base, err := newRecord(CartStream, TypeCartChanged, map[string]any{"changes": changes, "total": total})
	if err != nil {
		return nil, err
	}
	e.Record = base
	return e, nil
}

// CheckoutStarted records the purchase that a checkout is about to submit.
type CheckoutStarted struct {
	Record
	Purchase backend.Purchase `json:"purchase"`
	Total    string           `json:"total"`
}

func NewCheckoutStarted(checkoutID string, p backend.Purchase, total string) (*CheckoutStarted, error) {
	base, err := newRecord(checkoutID, TypeCheckoutStarted, map[string]any{"purchase": p, "total": total})
	if err != nil {
		return nil, err
	}
	return &CheckoutStarted{Record: base, Purchase: p, Total: total}, nil
}

// PurchaseSubmitted records a purchase the backend accepted.
type PurchaseSubmitted struct {
	Record
	Attempts int `json:"attempts"`
}

func NewPurchaseSubmitted(checkoutID string, attempts int) (*PurchaseSubmitted, error) {
	base, err := newRecord(checkoutID, TypePurchaseSubmitted, map[string]any{"attempts": attempts})
	if err != nil {
		return nil, err
	}
	return &PurchaseSubmitted{Record: base, Attempts: attempts}, nil
}

// PurchaseFailed is a dead letter: the purchase was not delivered and the cart was cleared anyway.
type PurchaseFailed struct {
	Record
	Purchase backend.Purchase `json:"purchase"`
	Error    string           `json:"error"`
	Attempts int              `json:"attempts"`
}

func NewPurchaseFailed(checkoutID string, p backend.Purchase, cause error, attempts int) (*PurchaseFailed, error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	base, err := newRecord(checkoutID, TypePurchaseFailed, map[string]any{"purchase": p, "error": msg, "attempts": attempts})
	if err != nil {
		return nil, err
	}
	return &PurchaseFailed{Record: base, Purchase: p, Error: msg, Attempts: attempts}, nil
}

// PurchaseReplayed marks a dead letter as delivered by a later replay.
type PurchaseReplayed struct {
	Record
}

func NewPurchaseReplayed(checkoutID string) (*PurchaseReplayed, error) {
	base, err := newRecord(checkoutID, TypePurchaseReplayed, map[string]any{})
	if err != nil {
		return nil, err
	}
	return &PurchaseReplayed{Record: base}, nil
}

// AppendEvent stores e through s.
func AppendEvent(ctx context.Context, s Store, e Event) error {
	_, err := s.Append(ctx, e.Envelope())
	return err
}
