// Package responses defines the JSON bodies of the admin HTTP API.
package responses

import "time"

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Status       string         `json:"status"`
	Phase        string         `json:"phase"`
	CartNumber   int            `json:"cart_number"`
	Lines        []CartLine     `json:"lines"`
	Total        string         `json:"total"`
	Currency     string         `json:"currency"`
	CatalogSize  int            `json:"catalog_size"`
	Ticks        uint64         `json:"ticks"`
	LastTick     *time.Time     `json:"last_tick,omitempty"`
	NextTick     *time.Time     `json:"next_tick,omitempty"`
	LastCheckout *CheckoutBrief `json:"last_checkout,omitempty"`
	StartTime    time.Time      `json:"start_time"`
	Uptime       float64        `json:"uptime"`
	Workers      []string       `json:"workers,omitempty"`
}

type CartLine struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

// CheckoutBrief summarizes the most recent checkout.
type CheckoutBrief struct {
	CheckoutID string    `json:"checkout_id"`
	Total      string    `json:"total"`
	Submitted  bool      `json:"submitted"`
	Attempts   int       `json:"attempts"`
	Error      string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// TriggerResponse is the body of POST /checkout.
type TriggerResponse struct {
	Status string `json:"status"` // queued or ignored
	Phase  string `json:"phase"`
}
