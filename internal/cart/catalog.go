package cart

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// Product is a catalog entry. Values are immutable once the catalog is built.
type Product struct {
	ID        string          `json:"_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
}

// Catalog indexes products by case-folded name. When several products fold to
// the same name the first one in fetch order wins.
type Catalog struct {
	products []Product
	byName   map[string]int
}

// FoldName is the key used for every name comparison.
func FoldName(name string) string {
	// A Caser keeps state, so one is built per call.
	return cases.Fold().String(strings.TrimSpace(name))
}

// NewCatalog builds a catalog; products with an empty id or name are dropped.
func NewCatalog(products []Product) *Catalog {
	c := &Catalog{byName: make(map[string]int, len(products))}
	for _, p := range products {
		if p.ID == "" || strings.TrimSpace(p.Name) == "" {
			continue
		}
		key := FoldName(p.Name)
		if _, dup := c.byName[key]; dup {
			// keep first match, still list the product
			c.products = append(c.products, p)
			continue
		}
		c.byName[key] = len(c.products)
		c.products = append(c.products, p)
	}
	return c
}

// Lookup finds the product a detection class refers to.
func (c *Catalog) Lookup(class string) (Product, bool) {
	if c == nil {
		return Product{}, false
	}
	i, ok := c.byName[FoldName(class)]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// Len is the number of products, including shadowed duplicates.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.products)
}

// Products returns a copy in fetch order.
func (c *Catalog) Products() []Product {
	if c == nil {
		return nil
	}
	return append([]Product(nil), c.products...)
}
