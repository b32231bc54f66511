package hardware

import (
	"strings"
	"sync"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/devices/v3/hd44780"

	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
)

// lcd is the part of *hd44780.Dev used by LCDDisplay.
type lcd interface {
	SetCursor(line, column uint8) error
	Print(data string) error
	Halt() error
}

// LCDDisplay draws frames on a 16x2 HD44780 panel wired in 4-bit mode.
type LCDDisplay struct {
	mu    sync.Mutex
	dev   lcd
	texts Texts
	last  Frame
}

// NewLCDDisplay resets the controller on the given pins. data is D4..D7.
func NewLCDDisplay(data []gpio.PinOut, rs, e gpio.PinOut, currency string) (*LCDDisplay, error) {
	dev, err := hd44780.New(data, rs, e)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryHardware, "failed to initialize LCD").
			WithContext("data_pins", len(data)).
			Fatal().
			Build()
	}
	return newLCDDisplay(dev, currency), nil
}

func newLCDDisplay(dev lcd, currency string) *LCDDisplay {
	return &LCDDisplay{dev: dev, texts: Texts{Currency: currency}}
}

func (d *LCDDisplay) ShowLine(name string, unitPrice decimal.Decimal, qty int) error {
	return d.render(d.texts.Line(name, unitPrice, qty))
}

func (d *LCDDisplay) ShowTotal(total decimal.Decimal) error {
	return d.render(d.texts.Total(total))
}

func (d *LCDDisplay) ShowMessage(text string) error {
	return d.render(d.texts.Message(text))
}

// Last returns the most recently drawn frame.
func (d *LCDDisplay) Last() Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

func (d *LCDDisplay) render(f Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for row, text := range f {
		text = fit(lcdText(text))
		if err := d.dev.SetCursor(uint8(row), 0); err != nil {
			return errors.WrapError(err, errors.CategoryHardware, "LCD cursor").Build()
		}
		if err := d.dev.Print(text); err != nil {
			return errors.WrapError(err, errors.CategoryHardware, "LCD write").Build()
		}
		d.last[row] = strings.TrimRight(text, " ")
	}
	return nil
}

// Close clears the panel.
func (d *LCDDisplay) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = Frame{}
	return d.dev.Halt()
}

// lcdText maps s onto the controller's ASCII range. Accents are dropped and
// anything else outside printable ASCII becomes '?'.
func lcdText(s string) string {
	// A chained Transformer keeps state, so one is built per call.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if plain, _, err := transform.String(stripMarks, s); err == nil {
		s = plain
	}
	return strings.Map(func(r rune) rune {
		if r < ' ' || r > '~' {
			return '?'
		}
		return r
	}, s)
}
