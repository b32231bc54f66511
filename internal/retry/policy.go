// Package retry runs backend calls under a bounded backoff policy.
package retry

import (
	"time"

	"git.home.luguber.info/inful/smartcart/internal/config"
)

// Policy bounds how often and how patiently a purchase submission is retried.
type Policy struct {
	Mode       config.RetryBackoffMode
	Initial    time.Duration
	Max        time.Duration
	MaxRetries int // retries after the first attempt
}

// DefaultPolicy makes three attempts in total, one and two seconds apart.
func DefaultPolicy() Policy {
	return Policy{Mode: config.RetryBackoffLinear, Initial: time.Second, Max: 5 * time.Second, MaxRetries: 2}
}

// FromConfig builds a policy from the backend retry section. Missing or
// unknown values keep their defaults and Initial never exceeds Max.
func FromConfig(rc config.RetryConfig) Policy {
	p := DefaultPolicy()
	if rc.MaxRetries >= 0 {
		p.MaxRetries = rc.MaxRetries
	}
	if rc.Initial > 0 {
		p.Initial = rc.Initial
	}
	if rc.Max > 0 {
		p.Max = rc.Max
	}
	if mode := config.NormalizeRetryBackoff(string(rc.Mode)); mode != "" {
		p.Mode = mode
	}
	p.Initial = min(p.Initial, p.Max)
	return p
}

// Attempts is the total number of calls the policy allows.
func (p Policy) Attempts() int { return p.MaxRetries + 1 }

// Delay is the wait before retry n (the first retry is n=1), capped at Max.
func (p Policy) Delay(n int) time.Duration {
	if n < 1 {
		return 0
	}
	var d time.Duration
	switch p.Mode {
	case config.RetryBackoffFixed:
		d = p.Initial
	case config.RetryBackoffExponential:
		if n > 31 {
			return p.Max
		}
		d = p.Initial << (n - 1)
	default:
		d = p.Initial * time.Duration(n)
	}
	if d <= 0 || d > p.Max {
		return p.Max
	}
	return d
}
