package eventstore

import (
	"encoding/json"
	"time"
)

// Record is one row of the journal. Seq is assigned by the store.
type Record struct {
	Seq    int64             `json:"seq,omitempty"`
	Stream string            `json:"stream"` // checkout id, or CartStream
	Kind   string            `json:"kind"`
	At     time.Time         `json:"at"`
	Body   json.RawMessage   `json:"body"`
	Meta   map[string]string `json:"meta,omitempty"`
}

// Envelope returns the record itself so typed events embedding it satisfy Event.
func (r Record) Envelope() Record { return r }

// Event is anything that can be written to the journal.
type Event interface {
	Envelope() Record
}
