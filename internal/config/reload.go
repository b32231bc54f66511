package config

import (
	"path/filepath"
	"time"
)

// Reloadable is the subset of settings the daemon hot-applies when the file changes.
// Everything else requires a restart.
type Reloadable struct {
	Interval     time.Duration
	Confidence   int
	Overlap      int
	RemovalGrace int
	Checkout     CheckoutConfig
}

func (c *Config) Reloadable() Reloadable {
	return Reloadable{
		Interval:     c.Detection.Interval,
		Confidence:   c.Detection.Confidence,
		Overlap:      c.Detection.Overlap,
		RemovalGrace: c.Detection.RemovalGraceTicks,
		Checkout:     c.Checkout,
	}
}

// JournalPath is the sqlite file backing the purchase journal.
func (c *Config) JournalPath() string {
	if c.Daemon.Journal == ":memory:" || filepath.IsAbs(c.Daemon.Journal) {
		return c.Daemon.Journal
	}
	return filepath.Join(c.Daemon.DataDir, c.Daemon.Journal)
}
