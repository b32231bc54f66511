// Package errors provides the classified error primitives used across the cart controller.
//
// Every failure that crosses a component boundary is a *ClassifiedError carrying
// a category (what failed), a severity (how bad) and a retry strategy (what the
// caller may do about it). The daemon uses the retry strategy to decide whether a
// purchase submission is attempted again, and the CLI adapter maps categories to
// process exit codes.
//
//	err := errors.SubmissionError("purchase rejected").
//		WithContext("status", resp.StatusCode).
//		Build()
package errors
