// Package cart holds the cart ledger and the reconciliation of detection
// snapshots against it.
//
// Reconcile is pure: it never mutates its inputs and returns the next cart
// together with the total delta and the ordered list of changes. Callers own
// synchronization; see package session.
package cart
