package cart

import "github.com/shopspring/decimal"

// EventKind classifies a cart change.
type EventKind string

const (
	EventAdded           EventKind = "added"
	EventQuantityChanged EventKind = "quantity_changed"
	EventRemoved         EventKind = "removed"
)

// Event describes one line change produced by Reconcile.
type Event struct {
	Kind        EventKind       `json:"kind"`
	ProductID   string          `json:"productId"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	OldQuantity int             `json:"oldQuantity"`
	NewQuantity int             `json:"newQuantity"`
}
