package hardware

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"git.home.luguber.info/inful/smartcart/internal/config"
	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
)

func fakePins(t *testing.T, pins map[string]*gpiotest.Pin) {
	t.Helper()
	origLookup, origInit := pinLookup, hostInit
	t.Cleanup(func() { pinLookup, hostInit = origLookup, origInit })
	hostInit = func() error { return nil }
	pinLookup = func(name string) gpio.PinIO {
		if p, ok := pins[name]; ok {
			return p
		}
		return nil
	}
}

func TestGPIOBuzzerBeep(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO12"}
	b, err := NewGPIOBuzzer(pin)
	require.NoError(t, err)

	var levelDuringSleep gpio.Level
	b.sleep = func(time.Duration) { levelDuringSleep = pin.Read() }
	require.NoError(t, b.Beep(200*time.Millisecond))

	assert.Equal(t, gpio.High, levelDuringSleep)
	assert.Equal(t, gpio.Low, pin.Read())
}

func TestGPIOButtonOnEdge(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO17", EdgesChan: make(chan gpio.Level, 2)}
	b, err := NewGPIOButton(pin)
	require.NoError(t, err)
	pin.EdgesChan <- gpio.Low
	pin.EdgesChan <- gpio.Low

	ctx, cancel := context.WithCancel(context.Background())
	var presses atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- b.OnEdge(ctx, func() {
			if presses.Add(1) == 2 {
				cancel()
			}
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("OnEdge did not return after cancellation")
	}
	assert.Equal(t, int32(2), presses.Load())
}

func TestConsoleTrigger(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var presses atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- NewConsoleTrigger(bytes.NewBufferString("\n\n\n")).OnEdge(ctx, func() { presses.Add(1) })
	}()

	require.Eventually(t, func() bool { return presses.Load() == 3 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestChannelTrigger(t *testing.T) {
	ch := make(chan struct{}, 1)
	ch <- struct{}{}
	ctx, cancel := context.WithCancel(context.Background())
	err := ChannelTrigger(ch).OnEdge(ctx, cancel)
	require.NoError(t, err)
}

func TestOpenGPIOReleasesOnMissingPin(t *testing.T) {
	buzzer := &gpiotest.Pin{N: "GPIO12"}
	fakePins(t, map[string]*gpiotest.Pin{"GPIO12": buzzer})

	cfg := config.HardwareConfig{Mode: config.HardwareGPIO, BuzzerPin: "GPIO12", ButtonPin: "GPIO99"}
	devs, err := Open(cfg, "EUR", nil)
	require.Error(t, err)
	assert.Nil(t, devs)
	assert.True(t, errors.HasCategory(err, errors.CategoryHardware))
	assert.Equal(t, gpio.Low, buzzer.Read(), "acquired buzzer is released low")
}

func TestOpenGPIO(t *testing.T) {
	fakePins(t, map[string]*gpiotest.Pin{
		"GPIO12": {N: "GPIO12"},
		"GPIO17": {N: "GPIO17", EdgesChan: make(chan gpio.Level, 1)},
	})
	device := filepath.Join(t.TempDir(), "lcd")
	cfg := config.HardwareConfig{Mode: config.HardwareGPIO, BuzzerPin: "GPIO12", ButtonPin: "GPIO17", DisplayDevice: device}

	devs, err := Open(cfg, "EUR", nil)
	require.NoError(t, err)
	assert.IsType(t, &GPIOBuzzer{}, devs.Buzzer)
	assert.IsType(t, &GPIOButton{}, devs.Trigger)
	assert.IsType(t, MultiDisplay{}, devs.Display)
	require.NoError(t, devs.Close())
	require.NoError(t, devs.Close(), "second close is a no-op")
}

func TestOpenConsole(t *testing.T) {
	devs, err := Open(config.HardwareConfig{Mode: config.HardwareConsole}, "EUR", nil)
	require.NoError(t, err)
	assert.IsType(t, LogBuzzer{}, devs.Buzzer)
	assert.IsType(t, &ConsoleTrigger{}, devs.Trigger)
	assert.Implements(t, (*io.Closer)(nil), devs)
	require.NoError(t, devs.Close())
}
