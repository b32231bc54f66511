package hardware

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"git.home.luguber.info/inful/smartcart/internal/config"
	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
)

type recordingLCD struct {
	ops    []string
	halted bool
}

func (r *recordingLCD) SetCursor(line, column uint8) error {
	r.ops = append(r.ops, fmt.Sprintf("cursor %d,%d", line, column))
	return nil
}

func (r *recordingLCD) Print(data string) error {
	r.ops = append(r.ops, "print "+data)
	return nil
}

func (r *recordingLCD) Halt() error {
	r.halted = true
	return nil
}

func lcdPins() (data []gpio.PinOut, rs, e *gpiotest.Pin) {
	for _, n := range []string{"GPIO11", "GPIO16", "GPIO20", "GPIO21"} {
		data = append(data, &gpiotest.Pin{N: n})
	}
	return data, &gpiotest.Pin{N: "GPIO26"}, &gpiotest.Pin{N: "GPIO19"}
}

func TestLCDDisplayWritesBothRows(t *testing.T) {
	dev := &recordingLCD{}
	d := newLCDDisplay(dev, "EUR")

	require.NoError(t, d.ShowLine("apple", decimal.RequireFromString("1.25"), 2))
	assert.Equal(t, []string{
		"cursor 0,0", "print 2 x apple       ",
		"cursor 1,0", "print Price: 2.50 EUR ",
	}, dev.ops)
	assert.Equal(t, Frame{"2 x apple", "Price: 2.50 EUR"}, d.Last())

	require.NoError(t, d.Close())
	assert.True(t, dev.halted, "close clears the panel")
	assert.Equal(t, Frame{}, d.Last())
}

func TestLCDDisplayASCIIOnly(t *testing.T) {
	dev := &recordingLCD{}
	d := newLCDDisplay(dev, "EUR")

	require.NoError(t, d.ShowMessage("Crème brûlée\n€ 3"))
	assert.Equal(t, Frame{"Creme brulee", "? 3"}, d.Last())
}

func TestNewLCDDisplayOnGPIOPins(t *testing.T) {
	data, rs, e := lcdPins()
	d, err := NewLCDDisplay(data, rs, e, "EUR")
	require.NoError(t, err)

	require.NoError(t, d.ShowTotal(decimal.NewFromInt(4)))
	assert.Equal(t, Frame{"Total to pay:", "4.00 EUR"}, d.Last())
	assert.Equal(t, gpio.Low, e.Read(), "enable line idles low after a strobe")
	require.NoError(t, d.Close())
}

func TestNewLCDDisplayNeedsFourDataPins(t *testing.T) {
	data, rs, e := lcdPins()
	_, err := NewLCDDisplay(data[:2], rs, e, "EUR")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryHardware))
}

func TestOpenGPIOWithLCD(t *testing.T) {
	pins := map[string]*gpiotest.Pin{
		"GPIO12": {N: "GPIO12"},
		"GPIO17": {N: "GPIO17", EdgesChan: make(chan gpio.Level, 1)},
	}
	for _, n := range []string{"GPIO26", "GPIO19", "GPIO11", "GPIO16", "GPIO20", "GPIO21"} {
		pins[n] = &gpiotest.Pin{N: n}
	}
	fakePins(t, pins)
	cfg := config.HardwareConfig{
		Mode:         config.HardwareGPIO,
		BuzzerPin:    "GPIO12",
		ButtonPin:    "GPIO17",
		Display:      config.DisplayLCD,
		LCDRSPin:     "GPIO26",
		LCDEnablePin: "GPIO19",
		LCDDataPins:  []string{"GPIO11", "GPIO16", "GPIO20", "GPIO21"},
	}

	devs, err := Open(cfg, "EUR", nil)
	require.NoError(t, err)
	multi, ok := devs.Display.(MultiDisplay)
	require.True(t, ok)
	require.Len(t, multi, 2)
	panel, ok := multi[0].(*LCDDisplay)
	require.True(t, ok)

	require.NoError(t, devs.Display.ShowMessage("New customer..."))
	assert.Equal(t, Frame{"New customer...", ""}, panel.Last())
	require.NoError(t, devs.Close())
	assert.Equal(t, Frame{}, panel.Last(), "close halts the panel")
}

func TestOpenGPIOWithLCDMissingPin(t *testing.T) {
	buzzer := &gpiotest.Pin{N: "GPIO12"}
	fakePins(t, map[string]*gpiotest.Pin{
		"GPIO12": buzzer,
		"GPIO17": {N: "GPIO17", EdgesChan: make(chan gpio.Level, 1)},
	})
	cfg := config.HardwareConfig{
		Mode:         config.HardwareGPIO,
		BuzzerPin:    "GPIO12",
		ButtonPin:    "GPIO17",
		Display:      config.DisplayLCD,
		LCDRSPin:     "GPIO26",
		LCDEnablePin: "GPIO19",
		LCDDataPins:  []string{"GPIO11", "GPIO16", "GPIO20", "GPIO21"},
	}

	devs, err := Open(cfg, "EUR", nil)
	require.Error(t, err)
	assert.Nil(t, devs)
	assert.True(t, errors.HasCategory(err, errors.CategoryHardware))
}
