package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyCheckoutID = "checkout_id"
	KeyCartNumber = "cart_number"
	KeyProductID  = "product_id"
	KeyProduct    = "product"
	KeyQuantity   = "quantity"
	KeyTotal      = "total"
	KeyPhase      = "phase"
	KeyTick       = "tick"
	KeyEventKind  = "event_kind"
	KeyAttempt    = "attempt"
	KeyDurationMS = "duration_ms"
	KeySource     = "source"
	KeyPin        = "pin"
	KeyURL        = "url"
	KeyPath       = "path"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func CheckoutID(id string) slog.Attr { return slog.String(KeyCheckoutID, id) }
func CartNumber(n int) slog.Attr     { return slog.Int(KeyCartNumber, n) }
func ProductID(id string) slog.Attr  { return slog.String(KeyProductID, id) }
func Product(name string) slog.Attr  { return slog.String(KeyProduct, name) }
func Quantity(q int) slog.Attr       { return slog.Int(KeyQuantity, q) }
func Total(amount string) slog.Attr  { return slog.String(KeyTotal, amount) }
func Phase(p string) slog.Attr       { return slog.String(KeyPhase, p) }
func Tick(n uint64) slog.Attr        { return slog.Uint64(KeyTick, n) }
func EventKind(k string) slog.Attr   { return slog.String(KeyEventKind, k) }
func Attempt(n int) slog.Attr        { return slog.Int(KeyAttempt, n) }
func Source(name string) slog.Attr   { return slog.String(KeySource, name) }
func Pin(name string) slog.Attr      { return slog.String(KeyPin, name) }
func URL(u string) slog.Attr         { return slog.String(KeyURL, u) }
func Path(p string) slog.Attr        { return slog.String(KeyPath, p) }
func Method(m string) slog.Attr      { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr      { return slog.Int(KeyStatus, code) }

// Duration reports d in fractional milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
