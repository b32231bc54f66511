package config

import "time"

// Defaults used when the file leaves a field empty.
const (
	DefaultBaseURL       = "https://computer-vision-caddie-ai.onrender.com"
	DefaultProductsPath  = "/products/products"
	DefaultPurchasesPath = "/purchases/adds"
	DefaultInferenceURL  = "https://detect.roboflow.com/shopp-cart/1"
	ImagePlaceholder     = "{image}" // replaced by ImagePath in CaptureCommand
	DefaultNATSURL       = "nats://127.0.0.1:4222"
	DefaultNATSSubject   = "smartcart.events"
	DefaultAdminAddr     = ":8090"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

type cartDefaults struct{}

func (cartDefaults) Domain() string { return "cart" }

func (cartDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Cart.Number <= 0 {
		cfg.Cart.Number = 2
	}
	if cfg.Cart.Currency == "" {
		cfg.Cart.Currency = "EUR"
	}
	return nil
}

type backendDefaults struct{}

func (backendDefaults) Domain() string { return "backend" }

func (backendDefaults) ApplyDefaults(cfg *Config) error {
	b := &cfg.Backend
	if b.BaseURL == "" {
		b.BaseURL = DefaultBaseURL
	}
	if b.ProductsPath == "" {
		b.ProductsPath = DefaultProductsPath
	}
	if b.PurchasesPath == "" {
		b.PurchasesPath = DefaultPurchasesPath
	}
	if b.Timeout <= 0 {
		b.Timeout = 10 * time.Second
	}
	if m := NormalizeRetryBackoff(string(b.Retry.Mode)); m != "" {
		b.Retry.Mode = m
	} else {
		b.Retry.Mode = RetryBackoffLinear
	}
	if b.Retry.Initial <= 0 {
		b.Retry.Initial = time.Second
	}
	if b.Retry.Max <= 0 {
		b.Retry.Max = 5 * time.Second
	}
	// An explicit 0 disables retries; only an omitted field gets the default.
	if !b.Retry.maxRetriesSpecified && b.Retry.MaxRetries == 0 {
		b.Retry.MaxRetries = 2
	}
	return nil
}

type detectionDefaults struct{}

func (detectionDefaults) Domain() string { return "detection" }

func (detectionDefaults) ApplyDefaults(cfg *Config) error {
	d := &cfg.Detection
	if d.Interval <= 0 {
		d.Interval = 30 * time.Second
	}
	if m := NormalizeDetectionMode(string(d.Mode)); m != "" {
		d.Mode = m
	} else if d.SnapshotFile != "" {
		d.Mode = DetectionFile
	} else {
		d.Mode = DetectionHTTP
	}
	if d.ImagePath == "" {
		d.ImagePath = "temp_image.jpg"
	}
	if len(d.CaptureCommand) == 0 {
		d.CaptureCommand = []string{"libcamera-still", "-o", ImagePlaceholder}
	}
	if d.InferenceURL == "" {
		d.InferenceURL = DefaultInferenceURL
	}
	if d.Confidence <= 0 {
		d.Confidence = 40
	}
	if d.Overlap <= 0 {
		d.Overlap = 30
	}
	if d.RemovalGraceTicks < 0 {
		d.RemovalGraceTicks = 0
	}
	if d.Timeout <= 0 {
		d.Timeout = 20 * time.Second
	}
	return nil
}

type checkoutDefaults struct{}

func (checkoutDefaults) Domain() string { return "checkout" }

func (checkoutDefaults) ApplyDefaults(cfg *Config) error {
	c := &cfg.Checkout
	if c.Debounce <= 0 {
		c.Debounce = 300 * time.Millisecond
	}
	if c.Settle <= 0 {
		c.Settle = 2 * time.Second
	}
	if c.Dwell <= 0 {
		c.Dwell = 5 * time.Second
	}
	if c.ResetPause <= 0 {
		c.ResetPause = 2 * time.Second
	}
	return nil
}

type hardwareDefaults struct{}

func (hardwareDefaults) Domain() string { return "hardware" }

func (hardwareDefaults) ApplyDefaults(cfg *Config) error {
	h := &cfg.Hardware
	if m := NormalizeHardwareMode(string(h.Mode)); m != "" {
		h.Mode = m
	} else {
		h.Mode = HardwareGPIO
	}
	if h.BuzzerPin == "" {
		h.BuzzerPin = "GPIO12"
	}
	if h.ButtonPin == "" {
		h.ButtonPin = "GPIO17"
	}
	if h.Beep <= 0 {
		h.Beep = 200 * time.Millisecond
	}
	switch k := NormalizeDisplayKind(string(h.Display)); {
	case k != "":
		h.Display = k
	case h.Mode == HardwareGPIO:
		h.Display = DisplayLCD
	default:
		h.Display = DisplayText
	}
	if h.Display == DisplayLCD {
		if h.LCDRSPin == "" {
			h.LCDRSPin = "GPIO26"
		}
		if h.LCDEnablePin == "" {
			h.LCDEnablePin = "GPIO19"
		}
		if len(h.LCDDataPins) == 0 {
			h.LCDDataPins = []string{"GPIO11", "GPIO16", "GPIO20", "GPIO21"}
		}
	}
	return nil
}

type daemonDefaults struct{}

func (daemonDefaults) Domain() string { return "daemon" }

func (daemonDefaults) ApplyDefaults(cfg *Config) error {
	d := &cfg.Daemon
	// Explicit empty admin_addr disables the admin server.
	if !d.adminAddrSpecified && d.AdminAddr == "" {
		d.AdminAddr = DefaultAdminAddr
	}
	if d.DataDir == "" {
		d.DataDir = "./data"
	}
	if d.Journal == "" {
		d.Journal = "journal.db"
	}
	return nil
}

type natsDefaults struct{}

func (natsDefaults) Domain() string { return "nats" }

func (natsDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.NATS.URL == "" {
		cfg.NATS.URL = DefaultNATSURL
	}
	if cfg.NATS.Subject == "" {
		cfg.NATS.Subject = DefaultNATSSubject
	}
	return nil
}

type loggingDefaults struct{}

func (loggingDefaults) Domain() string { return "logging" }

func (loggingDefaults) ApplyDefaults(cfg *Config) error {
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	return nil
}

func appliers() []DefaultApplier {
	return []DefaultApplier{
		cartDefaults{},
		backendDefaults{},
		detectionDefaults{},
		checkoutDefaults{},
		hardwareDefaults{},
		daemonDefaults{},
		natsDefaults{},
		loggingDefaults{},
	}
}

// ApplyDefaults fills every unset field.
func ApplyDefaults(cfg *Config) error {
	for _, a := range appliers() {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

// Default returns a fully defaulted configuration, as if loaded from an empty file.
func Default() *Config {
	cfg := &Config{}
	_ = ApplyDefaults(cfg)
	return cfg
}
