package session

// Phase is the checkout coordinator state.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseDisplaying Phase = "displaying"
	PhaseSubmitting Phase = "submitting"
	PhaseResetting  Phase = "resetting"
)

// next lists the only legal forward transition from each non-idle phase.
var next = map[Phase]Phase{
	PhaseDisplaying: PhaseSubmitting,
	PhaseSubmitting: PhaseResetting,
	PhaseResetting:  PhaseIdle,
}

func (p Phase) String() string { return string(p) }

// Busy reports whether a checkout owns the cart.
func (p Phase) Busy() bool { return p != PhaseIdle }
