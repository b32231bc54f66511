package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// CLIErrorAdapter turns errors into exit codes and user-facing messages.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter creates an adapter writing to stderr and exiting the process.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger, out: os.Stderr, exit: os.Exit}
}

// exitCodes maps categories to process exit codes; anything else exits 1.
var exitCodes = map[ErrorCategory]int{
	CategoryValidation: 2,
	CategoryNotFound:   4,
	CategoryConfig:     7,
	CategoryNetwork:    8,
	CategoryCatalog:    8,
	CategorySubmission: 8,
	CategoryHardware:   9,
	CategoryInternal:   10,
	CategoryDetection:  11,
	CategoryEventStore: 11,
	CategoryDaemon:     12,
	CategoryCheckout:   12,
}

func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	c, ok := AsClassified(err)
	if !ok {
		return 1
	}
	if code, ok := exitCodes[c.Category()]; ok {
		return code
	}
	return 1
}

// FormatError renders the message shown on stderr.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	c, ok := AsClassified(err)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}
	if a.verbose {
		return c.Error()
	}
	return fmt.Sprintf("Error: %s", c.Message())
}

// HandleError logs the error, prints it, and terminates with the mapped exit code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	if c, ok := AsClassified(err); ok {
		attrs := []slog.Attr{slog.String("category", string(c.Category()))}
		if c.CanRetry() {
			attrs = append(attrs, slog.Bool("retryable", true))
		}
		if c.Unwrap() != nil {
			attrs = append(attrs, slog.String("cause", c.Unwrap().Error()))
		}
		a.logger.LogAttrs(context.Background(), levelFor(c.Severity()), c.Message(), attrs...)
	} else {
		a.logger.Error("Unclassified error", "error", err)
	}
	_, _ = fmt.Fprintln(a.out, a.FormatError(err))
	a.exit(a.ExitCodeFor(err))
}

func levelFor(s ErrorSeverity) slog.Level {
	switch s {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
