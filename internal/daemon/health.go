package daemon

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/smartcart/internal/version"
)

// HealthStatus is the outcome of one check or of all of them.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

type HealthCheck struct {
	Name     string        `json:"name"`
	Status   HealthStatus  `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

type HealthResponse struct {
	Status    HealthStatus  `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Version   string        `json:"version"`
	Checks    []HealthCheck `json:"checks"`
}

type pinger interface {
	Ping(ctx context.Context) error
}

// PerformHealthChecks runs every check. A stopped daemon is unhealthy; an
// empty catalog or an unreachable journal only degrades it.
func (d *Daemon) PerformHealthChecks(ctx context.Context) *HealthResponse {
	checks := []HealthCheck{
		d.timed("daemon_status", func() (HealthStatus, string) {
			s := d.GetStatus()
			if s == StatusRunning {
				return HealthStatusHealthy, ""
			}
			return HealthStatusUnhealthy, "daemon is " + string(s)
		}),
		d.timed("scheduler", func() (HealthStatus, string) {
			next, ok := d.scheduler.NextRun()
			if !ok {
				return HealthStatusDegraded, "no detection tick scheduled"
			}
			return HealthStatusHealthy, "next tick " + next.UTC().Format(time.RFC3339)
		}),
		d.timed("catalog", func() (HealthStatus, string) {
			n := d.state.CatalogSize()
			if n == 0 {
				return HealthStatusDegraded, "catalog is empty, detections will not match"
			}
			return HealthStatusHealthy, fmt.Sprintf("%d products", n)
		}),
		d.timed("journal", func() (HealthStatus, string) {
			p, ok := d.journal.(pinger)
			if d.journal == nil || !ok {
				return HealthStatusHealthy, "disabled"
			}
			if err := p.Ping(ctx); err != nil {
				return HealthStatusDegraded, err.Error()
			}
			if d.projection != nil {
				if n := len(d.projection.Pending()); n > 0 {
					return HealthStatusDegraded, fmt.Sprintf("%d undelivered purchases", n)
				}
			}
			return HealthStatusHealthy, ""
		}),
	}

	overall := HealthStatusHealthy
	for _, c := range checks {
		switch {
		case c.Status == HealthStatusUnhealthy:
			overall = HealthStatusUnhealthy
		case c.Status == HealthStatusDegraded && overall == HealthStatusHealthy:
			overall = HealthStatusDegraded
		}
	}
	return &HealthResponse{
		Status:    overall,
		Timestamp: d.clock.Now(),
		Version:   version.Version,
		Checks:    checks,
	}
}

func (d *Daemon) timed(name string, fn func() (HealthStatus, string)) HealthCheck {
	start := time.Now()
	status, msg := fn()
	return HealthCheck{Name: name, Status: status, Message: msg, Duration: time.Since(start)}
}
