package errors

import "maps"

// ErrorCategory is the broad classification of an error.
type ErrorCategory string

const (
	// User-facing configuration and input errors.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"

	// External collaborators.
	CategoryNetwork    ErrorCategory = "network"
	CategoryCatalog    ErrorCategory = "catalog"
	CategoryDetection  ErrorCategory = "detection"
	CategorySubmission ErrorCategory = "submission"
	CategoryHardware   ErrorCategory = "hardware"
	CategoryEventStore ErrorCategory = "eventstore"

	// Process runtime.
	CategoryCheckout ErrorCategory = "checkout"
	CategoryDaemon   ErrorCategory = "daemon"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // process must stop
	SeverityError   ErrorSeverity = "error"   // current operation failed
	SeverityWarning ErrorSeverity = "warning" // degraded, continuing
	SeverityInfo    ErrorSeverity = "info"
)

// RetryStrategy tells the caller whether the operation may be attempted again.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"
	RetryImmediate  RetryStrategy = "immediate"
	RetryBackoff    RetryStrategy = "backoff"
	RetryUserAction RetryStrategy = "user"
)

// ErrorContext carries structured key/value details attached to an error.
type ErrorContext map[string]any

// Set adds or updates a value, allocating the map when needed.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Get retrieves a value.
func (c ErrorContext) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c[key]
	return v, ok
}

// GetString retrieves a string value.
func (c ErrorContext) GetString(key string) (string, bool) {
	v, ok := c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Merge returns a new context with other taking precedence.
func (c ErrorContext) Merge(other ErrorContext) ErrorContext {
	if c == nil {
		return other
	}
	if other == nil {
		return c
	}
	out := make(ErrorContext, len(c)+len(other))
	maps.Copy(out, c)
	maps.Copy(out, other)
	return out
}
