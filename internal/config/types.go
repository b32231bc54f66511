package config

import "time"

// Config is the complete smartcart daemon configuration.
type Config struct {
	Cart      CartConfig      `yaml:"cart"`
	Backend   BackendConfig   `yaml:"backend"`
	Detection DetectionConfig `yaml:"detection"`
	Checkout  CheckoutConfig  `yaml:"checkout"`
	Hardware  HardwareConfig  `yaml:"hardware"`
	Daemon    DaemonConfig    `yaml:"daemon"`
	NATS      NATSConfig      `yaml:"nats"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// CartConfig identifies the physical cart.
type CartConfig struct {
	Number   int    `yaml:"number"`
	Currency string `yaml:"currency,omitempty"` // display suffix, e.g. EUR
}

// BackendConfig points at the catalog/purchase REST service.
type BackendConfig struct {
	BaseURL       string        `yaml:"base_url"`
	ProductsPath  string        `yaml:"products_path,omitempty"`
	PurchasesPath string        `yaml:"purchases_path,omitempty"`
	Timeout       time.Duration `yaml:"timeout,omitempty"`
	Retry         RetryConfig   `yaml:"retry"`
}

// RetryConfig controls purchase submission retries.
type RetryConfig struct {
	Mode       RetryBackoffMode `yaml:"mode,omitempty"`
	Initial    time.Duration    `yaml:"initial,omitempty"`
	Max        time.Duration    `yaml:"max,omitempty"`
	MaxRetries int              `yaml:"max_retries"`

	maxRetriesSpecified bool
}

// DetectionConfig selects and tunes the detection source.
type DetectionConfig struct {
	Interval          time.Duration `yaml:"interval,omitempty"`
	Mode              DetectionMode `yaml:"mode,omitempty"`
	CaptureCommand    []string      `yaml:"capture_command,omitempty"`
	ImagePath         string        `yaml:"image_path,omitempty"`
	InferenceURL      string        `yaml:"inference_url,omitempty"`
	APIKey            string        `yaml:"api_key,omitempty"`
	Confidence        int           `yaml:"confidence,omitempty"`
	Overlap           int           `yaml:"overlap,omitempty"`
	RemovalGraceTicks int           `yaml:"removal_grace_ticks,omitempty"`
	SnapshotFile      string        `yaml:"snapshot_file,omitempty"`
	Timeout           time.Duration `yaml:"timeout,omitempty"`
}

// CheckoutConfig holds the checkout state machine timings.
type CheckoutConfig struct {
	Debounce   time.Duration `yaml:"debounce,omitempty"`
	Settle     time.Duration `yaml:"settle,omitempty"`
	Dwell      time.Duration `yaml:"dwell,omitempty"`
	ResetPause time.Duration `yaml:"reset_pause,omitempty"`
}

// HardwareConfig selects GPIO or console devices.
type HardwareConfig struct {
	Mode          HardwareMode  `yaml:"mode,omitempty"`
	BuzzerPin     string        `yaml:"buzzer_pin,omitempty"`
	ButtonPin     string        `yaml:"button_pin,omitempty"`
	Beep          time.Duration `yaml:"beep,omitempty"`
	DisplayDevice string        `yaml:"display_device,omitempty"` // empty = stdout

	// Display selects the 16x2 HD44780 panel (gpio mode only) or a text display.
	Display      DisplayKind `yaml:"display,omitempty"`
	LCDRSPin     string      `yaml:"lcd_rs_pin,omitempty"`
	LCDEnablePin string      `yaml:"lcd_e_pin,omitempty"`
	LCDDataPins  []string    `yaml:"lcd_data_pins,omitempty"` // D4..D7
}

// DaemonConfig configures the admin surface and the local journal.
type DaemonConfig struct {
	AdminAddr string `yaml:"admin_addr"`
	DataDir   string `yaml:"data_dir,omitempty"`
	Journal   string `yaml:"journal,omitempty"` // sqlite file name inside DataDir

	adminAddrSpecified bool
}

// NATSConfig enables cart event fan-out.
type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}
