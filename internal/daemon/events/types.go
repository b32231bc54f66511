package events

import (
	"time"

	"github.com/shopspring/decimal"

	"git.home.luguber.info/inful/smartcart/internal/cart"
	"git.home.luguber.info/inful/smartcart/internal/checkout"
	"git.home.luguber.info/inful/smartcart/internal/config"
)

// CartUpdated follows a detection tick that changed the cart.
type CartUpdated struct {
	Tick     uint64
	Changes  []cart.Event
	Lines    int
	Total    decimal.Decimal
	Revision uint64
	At       time.Time
}

// CheckoutCompleted carries the outcome of a finished checkout.
type CheckoutCompleted struct {
	Outcome checkout.Outcome
	At      time.Time
}

// ConfigReloaded is published when the config file changed and parsed cleanly.
type ConfigReloaded struct {
	Path     string
	Settings config.Reloadable
}
