package daemon

import (
	"log/slog"

	"git.home.luguber.info/inful/smartcart/internal/config"
)

type thresholdSetter interface {
	SetThresholds(confidence, overlap int)
}

// ApplyReload hot-applies the reloadable settings. Everything else in the
// file needs a restart.
func (d *Daemon) ApplyReload(r config.Reloadable) error {
	if err := d.scheduler.Reschedule(r.Interval); err != nil {
		return err
	}
	if ts, ok := d.source.(thresholdSetter); ok {
		ts.SetThresholds(r.Confidence, r.Overlap)
	}
	d.state.SetRemovalGrace(r.RemovalGrace)
	d.coordinator.SetTimings(r.Checkout)

	d.cfgMu.Lock()
	next := *d.cfg
	next.Detection.Interval = r.Interval
	next.Detection.Confidence = r.Confidence
	next.Detection.Overlap = r.Overlap
	next.Detection.RemovalGraceTicks = r.RemovalGrace
	next.Checkout = r.Checkout
	d.cfg = &next
	d.cfgMu.Unlock()

	d.logger.Info("Configuration applied",
		slog.Duration("interval", r.Interval),
		slog.Int("confidence", r.Confidence),
		slog.Int("overlap", r.Overlap),
		slog.Int("removal_grace_ticks", r.RemovalGrace))
	return nil
}
