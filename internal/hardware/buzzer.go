package hardware

import (
	"log/slog"
	"time"

	"periph.io/x/conn/v3/gpio"

	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
	"git.home.luguber.info/inful/smartcart/internal/logfields"
)

// Buzzer signals a detection cycle.
type Buzzer interface {
	Beep(d time.Duration) error
}

// GPIOBuzzer drives an active buzzer on a GPIO output.
type GPIOBuzzer struct {
	pin   gpio.PinIO
	sleep func(time.Duration)
}

// NewGPIOBuzzer sets pin low and returns a buzzer on it.
func NewGPIOBuzzer(pin gpio.PinIO) (*GPIOBuzzer, error) {
	if err := pin.Out(gpio.Low); err != nil {
		return nil, errors.WrapError(err, errors.CategoryHardware, "failed to configure buzzer pin").
			WithContext("pin", pin.Name()).
			Fatal().
			Build()
	}
	return &GPIOBuzzer{pin: pin, sleep: time.Sleep}, nil
}

func (b *GPIOBuzzer) Beep(d time.Duration) error {
	if err := b.pin.Out(gpio.High); err != nil {
		return errors.WrapError(err, errors.CategoryHardware, "buzzer on").Build()
	}
	b.sleep(d)
	if err := b.pin.Out(gpio.Low); err != nil {
		return errors.WrapError(err, errors.CategoryHardware, "buzzer off").Build()
	}
	return nil
}

func (b *GPIOBuzzer) Close() error {
	_ = b.pin.Out(gpio.Low)
	return b.pin.Halt()
}

// LogBuzzer logs beeps at debug level.
type LogBuzzer struct {
	Logger *slog.Logger
}

func (b LogBuzzer) Beep(d time.Duration) error {
	l := b.Logger
	if l == nil {
		l = slog.Default()
	}
	l.Debug("Beep", logfields.Duration(d))
	return nil
}
