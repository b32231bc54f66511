// Package eventstore is the purchase journal: an append-only log of checkout
// events kept in SQLite, with projections for history and undelivered purchases.
package eventstore

import (
	"context"
	"time"
)

// Store persists journal records in append order.
type Store interface {
	// Append writes r and returns its sequence number. A zero r.At is
	// stamped with the store clock.
	Append(ctx context.Context, r Record) (int64, error)

	// Stream returns the records of one stream, oldest first.
	Stream(ctx context.Context, stream string) ([]Record, error)

	// Since returns every record at or after from, oldest first.
	Since(ctx context.Context, from time.Time) ([]Record, error)

	Close() error
}
