package cart

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Line is one product in the cart. Quantity is always positive; Missed counts
// consecutive snapshots in which the product was absent.
type Line struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Missed    int             `json:"-"`
}

// Subtotal is UnitPrice * Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the ledger of products believed to be in the physical cart.
// The zero value is an empty cart. Total is maintained incrementally.
type Cart struct {
	lines map[string]Line
	total decimal.Decimal
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{lines: map[string]Line{}}
}

func (c *Cart) Total() decimal.Decimal {
	if c == nil {
		return decimal.Zero
	}
	return c.total
}

func (c *Cart) Len() int {
	if c == nil {
		return 0
	}
	return len(c.lines)
}

func (c *Cart) IsEmpty() bool { return c.Len() == 0 }

// Line returns the line for a product id.
func (c *Cart) Line(productID string) (Line, bool) {
	if c == nil {
		return Line{}, false
	}
	l, ok := c.lines[productID]
	return l, ok
}

// Lines returns all lines ordered by product id.
func (c *Cart) Lines() []Line {
	if c == nil {
		return nil
	}
	out := make([]Line, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// Clone returns an independent copy.
func (c *Cart) Clone() *Cart {
	n := New()
	if c == nil {
		return n
	}
	for id, l := range c.lines {
		n.lines[id] = l
	}
	n.total = c.total
	return n
}

// Consistent recomputes the total from the lines and compares it with the
// running total. Only used as a check.
func (c *Cart) Consistent() bool {
	sum := decimal.Zero
	for _, l := range c.Lines() {
		if l.Quantity <= 0 {
			return false
		}
		sum = sum.Add(l.Subtotal())
	}
	return sum.Equal(c.Total())
}

// put inserts or replaces a line, adjusting the total by the quantity delta.
func (c *Cart) put(l Line) decimal.Decimal {
	if c.lines == nil {
		c.lines = map[string]Line{}
	}
	old := 0
	if prev, ok := c.lines[l.ProductID]; ok {
		old = prev.Quantity
	}
	c.lines[l.ProductID] = l
	delta := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity - old)))
	c.total = c.total.Add(delta)
	return delta
}

func (c *Cart) remove(productID string) decimal.Decimal {
	l, ok := c.lines[productID]
	if !ok {
		return decimal.Zero
	}
	delete(c.lines, productID)
	delta := l.Subtotal().Neg()
	c.total = c.total.Add(delta)
	return delta
}

// FormatMoney renders an amount with exactly two decimals.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
