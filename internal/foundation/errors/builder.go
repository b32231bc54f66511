package errors

import "maps"

// ErrorBuilder is the fluent constructor for ClassifiedError.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts a builder with error severity and no retry.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: SeverityError,
		retry:    RetryNever,
		message:  message,
	}}
}

// WrapError starts a builder around an existing cause.
func WrapError(cause error, category ErrorCategory, message string) *ErrorBuilder {
	b := NewError(category, message)
	b.err.cause = cause
	return b
}

func (b *ErrorBuilder) WithSeverity(s ErrorSeverity) *ErrorBuilder { b.err.severity = s; return b }
func (b *ErrorBuilder) WithRetry(r RetryStrategy) *ErrorBuilder    { b.err.retry = r; return b }

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.Set(key, value)
	return b
}

// WithCause attaches the underlying error.
func (b *ErrorBuilder) WithCause(cause error) *ErrorBuilder { b.err.cause = cause; return b }

func (b *ErrorBuilder) Fatal() *ErrorBuilder     { return b.WithSeverity(SeverityFatal) }
func (b *ErrorBuilder) Warning() *ErrorBuilder   { return b.WithSeverity(SeverityWarning) }
func (b *ErrorBuilder) Retryable() *ErrorBuilder { return b.WithRetry(RetryBackoff) }
func (b *ErrorBuilder) Permanent() *ErrorBuilder { return b.WithRetry(RetryNever) }

// Build returns the finished error. The builder may be reused; each Build copies.
func (b *ErrorBuilder) Build() *ClassifiedError {
	out := b.err
	out.context = maps.Clone(b.err.context)
	return &out
}

func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal()
}

func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).Fatal()
}

func NotFoundError(message string) *ErrorBuilder {
	return NewError(CategoryNotFound, message)
}

func NetworkError(message string) *ErrorBuilder {
	return NewError(CategoryNetwork, message).Retryable()
}

// CatalogError marks a catalog fetch failure. The controller keeps running with an empty catalog.
func CatalogError(message string) *ErrorBuilder {
	return NewError(CategoryCatalog, message).Warning().Retryable()
}

// DetectionError marks a failed capture or inference; the tick is skipped.
func DetectionError(message string) *ErrorBuilder {
	return NewError(CategoryDetection, message).Warning().Retryable()
}

// SubmissionError marks a failed purchase submission. Retryable unless marked Permanent.
func SubmissionError(message string) *ErrorBuilder {
	return NewError(CategorySubmission, message).Retryable()
}

// HardwareError marks peripheral initialization failures. These are fatal at startup.
func HardwareError(message string) *ErrorBuilder {
	return NewError(CategoryHardware, message).Fatal()
}

func EventStoreError(message string) *ErrorBuilder {
	return NewError(CategoryEventStore, message)
}

func CheckoutError(message string) *ErrorBuilder {
	return NewError(CategoryCheckout, message)
}

func DaemonError(message string) *ErrorBuilder {
	return NewError(CategoryDaemon, message).Fatal()
}

func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}
