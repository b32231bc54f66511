package metrics

import "time"

// TickOutcome labels the result of one detection tick.
type TickOutcome string

const (
	TickApplied      TickOutcome = "applied"
	TickSkipped      TickOutcome = "skipped" // checkout in progress
	TickDetectFailed TickOutcome = "detect_failed"
)

// CheckoutOutcome labels how a checkout ended.
type CheckoutOutcome string

const (
	CheckoutSubmitted CheckoutOutcome = "submitted"
	CheckoutFailed    CheckoutOutcome = "failed"
	CheckoutIgnored   CheckoutOutcome = "ignored" // trigger on an empty cart
	CheckoutDebounced CheckoutOutcome = "debounced"
)

// Recorder defines observability hooks for the detection loop and checkout.
type Recorder interface {
	IncTick(outcome TickOutcome)
	IncCartEvent(kind string)
	IncCheckout(outcome CheckoutOutcome)
	IncSubmissionRetry()
	SetCart(lines int, total float64)
	ObserveDetectionDuration(d time.Duration)
	ObserveSubmissionDuration(d time.Duration, success bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncTick(TickOutcome)                           {}
func (NoopRecorder) IncCartEvent(string)                           {}
func (NoopRecorder) IncCheckout(CheckoutOutcome)                   {}
func (NoopRecorder) IncSubmissionRetry()                           {}
func (NoopRecorder) SetCart(int, float64)                          {}
func (NoopRecorder) ObserveDetectionDuration(time.Duration)        {}
func (NoopRecorder) ObserveSubmissionDuration(time.Duration, bool) {}
