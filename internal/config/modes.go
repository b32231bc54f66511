package config

import "git.home.luguber.info/inful/smartcart/internal/foundation"

// RetryBackoffMode enumerates supported backoff strategies for retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffNormalizer = foundation.NewNormalizer(map[string]RetryBackoffMode{
	"fixed":       RetryBackoffFixed,
	"linear":      RetryBackoffLinear,
	"exponential": RetryBackoffExponential,
}, "")

// NormalizeRetryBackoff returns "" for unknown input.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	return retryBackoffNormalizer.Normalize(raw)
}

// DetectionMode selects how snapshots are produced.
type DetectionMode string

const (
	// DetectionHTTP captures an image locally and sends it to a hosted model.
	DetectionHTTP DetectionMode = "http"
	// DetectionFile reads a snapshot document from disk on every tick.
	DetectionFile DetectionMode = "file"
)

var detectionModeNormalizer = foundation.NewNormalizer(map[string]DetectionMode{
	"http":   DetectionHTTP,
	"camera": DetectionHTTP,
	"file":   DetectionFile,
}, "")

func NormalizeDetectionMode(raw string) DetectionMode {
	return detectionModeNormalizer.Normalize(raw)
}

// HardwareMode selects real GPIO devices or console stand-ins.
type HardwareMode string

const (
	HardwareGPIO    HardwareMode = "gpio"
	HardwareConsole HardwareMode = "console"
)

var hardwareModeNormalizer = foundation.NewNormalizer(map[string]HardwareMode{
	"gpio":    HardwareGPIO,
	"pi":      HardwareGPIO,
	"console": HardwareConsole,
}, "")

func NormalizeHardwareMode(raw string) HardwareMode {
	return hardwareModeNormalizer.Normalize(raw)
}

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevelNormalizer = foundation.NewNormalizer(map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
}, LogLevelInfo)

func NormalizeLogLevel(raw string) LogLevel {
	return logLevelNormalizer.Normalize(raw)
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormatNormalizer = foundation.NewNormalizer(map[string]LogFormat{
	"json": LogFormatJSON,
	"text": LogFormatText,
}, LogFormatText)

func NormalizeLogFormat(raw string) LogFormat {
	return logFormatNormalizer.Normalize(raw)
}

// DisplayKind selects the status display.
type DisplayKind string

const (
	// DisplayLCD drives an HD44780 character LCD over four data lines.
	DisplayLCD DisplayKind = "lcd"
	// DisplayText renders frames to stdout or DisplayDevice.
	DisplayText DisplayKind = "text"
)

var displayKindNormalizer = foundation.NewNormalizer(map[string]DisplayKind{
	"lcd":     DisplayLCD,
	"hd44780": DisplayLCD,
	"text":    DisplayText,
}, "")

func NormalizeDisplayKind(raw string) DisplayKind {
	return displayKindNormalizer.Normalize(raw)
}
