package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
)

// Validate checks a defaulted configuration and returns a classified config error.
func Validate(cfg *Config) error {
	v := &validator{cfg: cfg}
	checks := []func() error{
		v.validateBackend,
		v.validateDetection,
		v.validateCheckout,
		v.validateHardware,
		v.validateNATS,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

type validator struct {
	cfg *Config
}

func invalid(field, format string, args ...any) error {
	return errors.ConfigError(fmt.Sprintf(format, args...)).
		WithContext("field", field).
		Build()
}

func (v *validator) validateBackend() error {
	b := v.cfg.Backend
	u, err := url.Parse(b.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("backend.base_url", "backend base_url must be an absolute URL, got %q", b.BaseURL)
	}
	for field, p := range map[string]string{"backend.products_path": b.ProductsPath, "backend.purchases_path": b.PurchasesPath} {
		if !strings.HasPrefix(p, "/") {
			return invalid(field, "%s must start with '/', got %q", field, p)
		}
	}
	if b.Retry.MaxRetries < 0 {
		return invalid("backend.retry.max_retries", "max_retries cannot be negative")
	}
	if b.Retry.Initial > b.Retry.Max {
		return invalid("backend.retry.initial", "retry initial delay %s exceeds max %s", b.Retry.Initial, b.Retry.Max)
	}
	return nil
}

func (v *validator) validateDetection() error {
	d := v.cfg.Detection
	if d.Interval < time.Second {
		return invalid("detection.interval", "detection interval must be at least 1s, got %s", d.Interval)
	}
	if d.Confidence > 100 || d.Overlap > 100 {
		return invalid("detection.confidence", "confidence and overlap are percentages (0-100)")
	}
	switch d.Mode {
	case DetectionFile:
		if d.SnapshotFile == "" {
			return invalid("detection.snapshot_file", "file detection mode requires snapshot_file")
		}
	case DetectionHTTP:
		if _, err := url.ParseRequestURI(d.InferenceURL); err != nil {
			return invalid("detection.inference_url", "invalid inference_url %q", d.InferenceURL)
		}
		if len(d.CaptureCommand) == 0 || strings.TrimSpace(d.CaptureCommand[0]) == "" {
			return invalid("detection.capture_command", "capture_command cannot be empty")
		}
	default:
		return invalid("detection.mode", "unsupported detection mode %q", d.Mode)
	}
	return nil
}

func (v *validator) validateCheckout() error {
	c := v.cfg.Checkout
	if c.Debounce >= c.Dwell {
		return invalid("checkout.debounce", "debounce %s must be shorter than dwell %s", c.Debounce, c.Dwell)
	}
	return nil
}

func (v *validator) validateHardware() error {
	h := v.cfg.Hardware
	if h.Mode != HardwareGPIO && h.Mode != HardwareConsole {
		return invalid("hardware.mode", "unsupported hardware mode %q", h.Mode)
	}
	if h.Mode == HardwareGPIO && h.BuzzerPin == h.ButtonPin {
		return invalid("hardware.buzzer_pin", "buzzer and button cannot share pin %s", h.ButtonPin)
	}
	if h.Display != DisplayLCD {
		return nil
	}
	if h.Mode != HardwareGPIO {
		return invalid("hardware.display", "the lcd display requires gpio hardware mode")
	}
	if len(h.LCDDataPins) != 4 {
		return invalid("hardware.lcd_data_pins", "lcd needs 4 data pins (D4-D7), got %d", len(h.LCDDataPins))
	}
	used := map[string]string{h.BuzzerPin: "buzzer", h.ButtonPin: "button"}
	lcdPins := append([]string{h.LCDRSPin, h.LCDEnablePin}, h.LCDDataPins...)
	for _, pin := range lcdPins {
		if owner, ok := used[pin]; ok {
			return invalid("hardware.lcd_data_pins", "lcd pin %s is already used by the %s", pin, owner)
		}
		used[pin] = "lcd"
	}
	return nil
}

func (v *validator) validateNATS() error {
	n := v.cfg.NATS
	if !n.Enabled {
		return nil
	}
	if strings.TrimSpace(n.Subject) == "" || strings.ContainsAny(n.Subject, " \t") {
		return invalid("nats.subject", "invalid NATS subject %q", n.Subject)
	}
	return nil
}
