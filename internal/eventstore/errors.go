package eventstore

import (
	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
)

var (
	// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
	ErrDatabaseOpenFailed = errors.EventStoreError("could not open journal database").Build()

	// ErrInitializeSchemaFailed indicates the database schema could not be initialized.
	ErrInitializeSchemaFailed = errors.EventStoreError("failed to initialize journal schema").Build()

	ErrEventAppendFailed = errors.EventStoreError("failed to append event to journal").Build()
	ErrEventQueryFailed  = errors.EventStoreError("failed to query journal").Build()
	ErrEventScanFailed   = errors.EventStoreError("failed to scan journal rows").Build()

	// ErrUnknownCheckout is returned when a replay names a checkout that has no pending dead letter.
	ErrUnknownCheckout = errors.NotFoundError("no pending purchase for checkout").Build()
)

func wrap(sentinel *errors.ClassifiedError, cause error) error {
	return errors.WrapError(cause, sentinel.Category(), sentinel.Message()).Build()
}
