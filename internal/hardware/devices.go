package hardware

import (
	"io"
	"log/slog"
	"os"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"git.home.luguber.info/inful/smartcart/internal/config"
	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
	"git.home.luguber.info/inful/smartcart/internal/logfields"
)

// Devices bundles the peripherals of one cart. Close releases everything
// that was acquired, in reverse order, and is safe to call more than once.
type Devices struct {
	Display Display
	Buzzer  Buzzer
	Trigger TriggerSource

	closers []io.Closer
	closed  bool
}

func (d *Devices) own(c io.Closer) { d.closers = append(d.closers, c) }

func (d *Devices) Close() error {
	if d == nil || d.closed {
		return nil
	}
	d.closed = true
	var first error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// pinLookup resolves a pin name; replaced in tests.
var pinLookup = func(name string) gpio.PinIO { return gpioreg.ByName(name) }

// hostInit loads the periph drivers; replaced in tests.
var hostInit = func() error {
	_, err := host.Init()
	return err
}

// Open acquires the devices described by cfg. On failure every device that
// was already acquired is released before the error is returned.
func Open(cfg config.HardwareConfig, currency string, logger *slog.Logger) (_ *Devices, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	devs := &Devices{}
	defer func() {
		if err != nil {
			_ = devs.Close()
		}
	}()

	if err = openDisplay(devs, cfg, currency, logger); err != nil {
		return nil, err
	}

	switch cfg.Mode {
	case config.HardwareConsole:
		devs.Buzzer = LogBuzzer{Logger: logger}
		devs.Trigger = NewConsoleTrigger(os.Stdin)
		logger.Info("Using console hardware; press Enter to check out")
		return devs, nil
	case config.HardwareGPIO:
	default:
		return nil, errors.HardwareError("unsupported hardware mode").WithContext("mode", string(cfg.Mode)).Build()
	}

	if err = hostInit(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryHardware, "failed to initialize GPIO host").Fatal().Build()
	}

	buzzerPin, err := lookup(cfg.BuzzerPin)
	if err != nil {
		return nil, err
	}
	buzzer, err := NewGPIOBuzzer(buzzerPin)
	if err != nil {
		return nil, err
	}
	devs.own(buzzer)
	devs.Buzzer = buzzer

	buttonPin, err := lookup(cfg.ButtonPin)
	if err != nil {
		return nil, err
	}
	button, err := NewGPIOButton(buttonPin)
	if err != nil {
		return nil, err
	}
	devs.own(button)
	devs.Trigger = button

	if cfg.Display == config.DisplayLCD {
		if err = openLCD(devs, cfg, currency, logger); err != nil {
			return nil, err
		}
	}

	logger.Info("GPIO devices ready", logfields.Pin(cfg.BuzzerPin), slog.String("button_pin", cfg.ButtonPin))
	return devs, nil
}

func lookup(name string) (gpio.PinIO, error) {
	p := pinLookup(name)
	if p == nil {
		return nil, errors.HardwareError("GPIO pin not found").WithContext("pin", name).Build()
	}
	return p, nil
}

func openDisplay(devs *Devices, cfg config.HardwareConfig, currency string, logger *slog.Logger) error {
	if cfg.DisplayDevice == "" {
		devs.Display = NewTextDisplay(os.Stdout, currency, true)
		return nil
	}
	f, err := os.OpenFile(cfg.DisplayDevice, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return errors.WrapError(err, errors.CategoryHardware, "failed to open display device").
			WithContext("device", cfg.DisplayDevice).
			Fatal().
			Build()
	}
	text := NewTextDisplay(f, currency, false)
	devs.own(text)
	devs.Display = MultiDisplay{text, NewLogDisplay(logger, currency)}
	return nil
}

// openLCD puts the panel in front of the display chosen by openDisplay.
func openLCD(devs *Devices, cfg config.HardwareConfig, currency string, logger *slog.Logger) error {
	data := make([]gpio.PinOut, 0, len(cfg.LCDDataPins))
	for _, name := range cfg.LCDDataPins {
		p, err := lookup(name)
		if err != nil {
			return err
		}
		data = append(data, p)
	}
	rs, err := lookup(cfg.LCDRSPin)
	if err != nil {
		return err
	}
	e, err := lookup(cfg.LCDEnablePin)
	if err != nil {
		return err
	}
	panel, err := NewLCDDisplay(data, rs, e, currency)
	if err != nil {
		return err
	}
	devs.own(panel)
	devs.Display = MultiDisplay{panel, devs.Display}
	logger.Info("LCD ready", slog.String("rs_pin", cfg.LCDRSPin), slog.String("e_pin", cfg.LCDEnablePin),
		slog.Any("data_pins", cfg.LCDDataPins))
	return nil
}
