package hardware

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextDisplayFrames(t *testing.T) {
	var buf bytes.Buffer
	d := NewTextDisplay(&buf, "EUR", false)

	require.NoError(t, d.ShowLine("apple", decimal.RequireFromString("1.25"), 2))
	assert.Equal(t, Frame{"2 x apple", "Price: 2.50 EUR"}, d.Last())
	assert.Equal(t, "2 x apple       \nPrice: 2.50 EUR \n", buf.String())

	require.NoError(t, d.ShowTotal(decimal.RequireFromString("12.5")))
	assert.Equal(t, Frame{"Total to pay:", "12.50 EUR"}, d.Last())

	require.NoError(t, d.ShowMessage("New customer..."))
	assert.Equal(t, Frame{"New customer...", ""}, d.Last())

	require.NoError(t, d.ShowMessage("Payment error\nretry later"))
	assert.Equal(t, Frame{"Payment error", "retry later"}, d.Last())
}

func TestTextDisplayTruncatesToColumns(t *testing.T) {
	var buf bytes.Buffer
	d := NewTextDisplay(&buf, "EUR", true)
	require.NoError(t, d.ShowLine("extra long product name", decimal.NewFromInt(1), 1))

	assert.Equal(t, "1 x extra long p", d.Last()[0])
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	for _, l := range lines {
		assert.Equal(t, Columns+2, len([]rune(l)))
	}
}

type failingDisplay struct{ calls int }

func (f *failingDisplay) fail() error {
	f.calls++
	return errors.New("boom")
}

func (f *failingDisplay) ShowLine(string, decimal.Decimal, int) error { return f.fail() }
func (f *failingDisplay) ShowTotal(decimal.Decimal) error             { return f.fail() }
func (f *failingDisplay) ShowMessage(string) error                    { return f.fail() }

func TestMultiDisplayReachesEveryDisplay(t *testing.T) {
	var buf bytes.Buffer
	text := NewTextDisplay(&buf, "EUR", false)
	bad := &failingDisplay{}
	var logs bytes.Buffer
	m := MultiDisplay{bad, text, NewLogDisplay(slog.New(slog.NewTextHandler(&logs, nil)), "EUR")}

	err := m.ShowTotal(decimal.NewFromInt(3))
	require.Error(t, err)
	assert.Equal(t, 1, bad.calls)
	assert.Equal(t, Frame{"Total to pay:", "3.00 EUR"}, text.Last())
	assert.Contains(t, logs.String(), "row1=\"Total to pay:\"")
}
