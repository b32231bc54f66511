package hardware

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Columns of the character display.
const Columns = 16

// Display is the two-line status display.
type Display interface {
	ShowLine(name string, unitPrice decimal.Decimal, qty int) error
	ShowTotal(total decimal.Decimal) error
	ShowMessage(text string) error
}

// Frame is the content of both display rows.
type Frame [2]string

// Texts renders the frames shown by every adapter.
type Texts struct {
	Currency string
}

func (t Texts) Line(name string, unitPrice decimal.Decimal, qty int) Frame {
	sub := unitPrice.Mul(decimal.NewFromInt(int64(qty)))
	return Frame{fmt.Sprintf("%d x %s", qty, name), fmt.Sprintf("Price: %s %s", sub.StringFixed(2), t.Currency)}
}

func (t Texts) Total(total decimal.Decimal) Frame {
	return Frame{"Total to pay:", fmt.Sprintf("%s %s", total.StringFixed(2), t.Currency)}
}

// Message puts text on the first row; a newline moves the rest to the second.
func (Texts) Message(text string) Frame {
	first, second, _ := strings.Cut(text, "\n")
	return Frame{first, second}
}

func fit(s string) string {
	if utf8.RuneCountInString(s) > Columns {
		r := []rune(s)
		s = string(r[:Columns])
	}
	return s + strings.Repeat(" ", Columns-utf8.RuneCountInString(s))
}

// TextDisplay writes each frame to w, either boxed (terminal) or as two raw
// padded rows (serial character LCD backpacks).
type TextDisplay struct {
	mu     sync.Mutex
	w      io.Writer
	texts  Texts
	boxed  bool
	last   Frame
	closer io.Closer
}

// NewTextDisplay renders boxed frames for a terminal when boxed is set.
func NewTextDisplay(w io.Writer, currency string, boxed bool) *TextDisplay {
	d := &TextDisplay{w: w, texts: Texts{Currency: currency}, boxed: boxed}
	if c, ok := w.(io.Closer); ok {
		d.closer = c
	}
	return d
}

func (d *TextDisplay) ShowLine(name string, unitPrice decimal.Decimal, qty int) error {
	return d.render(d.texts.Line(name, unitPrice, qty))
}

func (d *TextDisplay) ShowTotal(total decimal.Decimal) error {
	return d.render(d.texts.Total(total))
}

func (d *TextDisplay) ShowMessage(text string) error {
	return d.render(d.texts.Message(text))
}

// Last returns the most recently rendered frame.
func (d *TextDisplay) Last() Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

func (d *TextDisplay) render(f Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = Frame{strings.TrimRight(fit(f[0]), " "), strings.TrimRight(fit(f[1]), " ")}

	var b strings.Builder
	if d.boxed {
		border := "+" + strings.Repeat("-", Columns) + "+\n"
		b.WriteString(border)
		fmt.Fprintf(&b, "|%s|\n|%s|\n", fit(f[0]), fit(f[1]))
		b.WriteString(border)
	} else {
		fmt.Fprintf(&b, "%s\n%s\n", fit(f[0]), fit(f[1]))
	}
	_, err := io.WriteString(d.w, b.String())
	return err
}

// Close clears the screen and releases an underlying device.
func (d *TextDisplay) Close() error {
	err := d.render(Frame{})
	if d.closer != nil {
		if cerr := d.closer.Close(); cerr != nil {
			return cerr
		}
	}
	return err
}

// LogDisplay logs frames instead of drawing them.
type LogDisplay struct {
	logger *slog.Logger
	texts  Texts
}

func NewLogDisplay(logger *slog.Logger, currency string) *LogDisplay {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDisplay{logger: logger, texts: Texts{Currency: currency}}
}

func (d *LogDisplay) log(f Frame) error {
	d.logger.Info("Display", slog.String("row1", f[0]), slog.String("row2", f[1]))
	return nil
}

func (d *LogDisplay) ShowLine(name string, unitPrice decimal.Decimal, qty int) error {
	return d.log(d.texts.Line(name, unitPrice, qty))
}

func (d *LogDisplay) ShowTotal(total decimal.Decimal) error { return d.log(d.texts.Total(total)) }

func (d *LogDisplay) ShowMessage(text string) error { return d.log(d.texts.Message(text)) }

// MultiDisplay fans each call out to all displays and returns the first error.
type MultiDisplay []Display

func (m MultiDisplay) each(fn func(Display) error) error {
	var first error
	for _, d := range m {
		if err := fn(d); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m MultiDisplay) ShowLine(name string, unitPrice decimal.Decimal, qty int) error {
	return m.each(func(d Display) error { return d.ShowLine(name, unitPrice, qty) })
}

func (m MultiDisplay) ShowTotal(total decimal.Decimal) error {
	return m.each(func(d Display) error { return d.ShowTotal(total) })
}

func (m MultiDisplay) ShowMessage(text string) error {
	return m.each(func(d Display) error { return d.ShowMessage(text) })
}
