package hardware

import (
	"bufio"
	"context"
	"io"
	"time"

	"periph.io/x/conn/v3/gpio"

	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
)

// TriggerSource reports checkout button presses. OnEdge blocks until ctx is
// done and calls handler once per press; handler must not block.
type TriggerSource interface {
	OnEdge(ctx context.Context, handler func()) error
}

// edgePoll bounds how long a WaitForEdge call may delay shutdown.
const edgePoll = 250 * time.Millisecond

// GPIOButton watches a pulled-up input for falling edges.
type GPIOButton struct {
	pin gpio.PinIO
}

func NewGPIOButton(pin gpio.PinIO) (*GPIOButton, error) {
	if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return nil, errors.WrapError(err, errors.CategoryHardware, "failed to configure button pin").
			WithContext("pin", pin.Name()).
			Fatal().
			Build()
	}
	return &GPIOButton{pin: pin}, nil
}

func (b *GPIOButton) OnEdge(ctx context.Context, handler func()) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		if b.pin.WaitForEdge(edgePoll) {
			handler()
		}
	}
}

func (b *GPIOButton) Close() error { return b.pin.Halt() }

// ConsoleTrigger treats every line read from r (the Enter key on a terminal) as a press.
type ConsoleTrigger struct {
	r io.Reader
}

func NewConsoleTrigger(r io.Reader) *ConsoleTrigger { return &ConsoleTrigger{r: r} }

func (c *ConsoleTrigger) OnEdge(ctx context.Context, handler func()) error {
	lines := make(chan struct{})
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(c.r)
		for sc.Scan() {
			select {
			case lines <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-lines:
			handler()
		case err := <-errc:
			if err != nil {
				return errors.WrapError(err, errors.CategoryHardware, "console trigger read failed").Build()
			}
			// EOF: no more presses, wait for shutdown.
			<-ctx.Done()
			return nil
		}
	}
}

// ChannelTrigger forwards values from a channel; the admin server and tests use it.
type ChannelTrigger <-chan struct{}

func (c ChannelTrigger) OnEdge(ctx context.Context, handler func()) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-c:
			if !ok {
				<-ctx.Done()
				return nil
			}
			handler()
		}
	}
}
