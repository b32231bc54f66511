package cart

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Result is the outcome of reconciling one snapshot.
type Result struct {
	Cart   *Cart
	Delta  decimal.Decimal
	Events []Event
}

// Changed reports whether any line changed.
func (r Result) Changed() bool { return len(r.Events) > 0 }

// Reconciler applies snapshots to carts. RemovalGrace is the number of
// consecutive missed snapshots a line tolerates before it is removed; zero
// removes a line on the first snapshot that lacks it.
type Reconciler struct {
	RemovalGrace int
}

// Reconcile applies snapshot to cart with immediate removal.
func Reconcile(c *Cart, snapshot Snapshot, catalog *Catalog) Result {
	return Reconciler{}.Reconcile(c, snapshot, catalog)
}

// Reconcile returns the cart implied by snapshot. Inputs are not modified.
// Added and changed events come first in class order, removals follow in
// product id order.
func (r Reconciler) Reconcile(c *Cart, snapshot Snapshot, catalog *Catalog) Result {
	next := c.Clone()
	res := Result{Cart: next, Delta: decimal.Zero}

	counts := snapshot.Normalize()

	for _, class := range counts.Classes() {
		count := counts[class]
		p, ok := catalog.Lookup(class)
		if !ok {
			continue
		}

		prev, exists := next.lines[p.ID]
		switch {
		case !exists:
			res.Delta = res.Delta.Add(next.put(Line{ProductID: p.ID, Name: p.Name, UnitPrice: p.UnitPrice, Quantity: count}))
			res.Events = append(res.Events, Event{
				Kind: EventAdded, ProductID: p.ID, Name: p.Name, UnitPrice: p.UnitPrice, NewQuantity: count,
			})
		case prev.Quantity != count:
			line := prev
			line.Quantity = count
			line.Missed = 0
			res.Delta = res.Delta.Add(next.put(line))
			res.Events = append(res.Events, Event{
				Kind: EventQuantityChanged, ProductID: p.ID, Name: prev.Name, UnitPrice: prev.UnitPrice,
				OldQuantity: prev.Quantity, NewQuantity: count,
			})
		}
	}

	// A line stays while its name is detected, even if the catalog that
	// matched it has since been replaced.
	var missing []string
	for id, line := range next.lines {
		if counts[FoldName(line.Name)] > 0 {
			if line.Missed != 0 {
				line.Missed = 0
				next.lines[id] = line
			}
			continue
		}
		missing = append(missing, id)
	}
	sort.Strings(missing)
	for _, id := range missing {
		line := next.lines[id]
		line.Missed++
		if line.Missed <= r.RemovalGrace {
			next.lines[id] = line
			continue
		}
		res.Delta = res.Delta.Add(next.remove(id))
		res.Events = append(res.Events, Event{
			Kind: EventRemoved, ProductID: id, Name: line.Name, UnitPrice: line.UnitPrice,
			OldQuantity: line.Quantity,
		})
	}
	return res
}
