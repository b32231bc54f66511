package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"git.home.luguber.info/inful/smartcart/internal/cart"
	"git.home.luguber.info/inful/smartcart/internal/detection"
)

// DetectCmd implements the 'detect' command. With --match the snapshot is
// reconciled against the live catalog into an empty cart.
type DetectCmd struct {
	Match bool `help:"Match detected classes against the product catalog"`
}

func (d *DetectCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.load(g)
	if err != nil {
		return err
	}
	source, err := detection.New(cfg.Detection)
	if err != nil {
		return err
	}
	ctx := context.Background()
	snapshot, err := source.Sample(ctx)
	if err != nil {
		return err
	}

	var catalog *cart.Catalog
	if d.Match {
		products, err := newBackend(cfg).FetchProducts(ctx)
		if err != nil {
			return err
		}
		catalog = cart.NewCatalog(products)
	}
	printDetection(os.Stdout, snapshot, catalog)
	return nil
}

func printDetection(w io.Writer, snapshot cart.Snapshot, catalog *cart.Catalog) {
	for _, class := range snapshot.Classes() {
		fmt.Fprintf(w, "%-20s %d\n", class, snapshot[class])
	}
	if catalog == nil {
		return
	}
	res := cart.Reconcile(cart.New(), snapshot, catalog)
	for _, l := range res.Cart.Lines() {
		fmt.Fprintf(w, "matched %s (%s) x %d = %s\n", l.Name, l.ProductID, l.Quantity, cart.FormatMoney(l.Subtotal()))
	}
	fmt.Fprintf(w, "total %s\n", cart.FormatMoney(res.Cart.Total()))
}
