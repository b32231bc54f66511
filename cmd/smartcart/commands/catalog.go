package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"git.home.luguber.info/inful/smartcart/internal/cart"
)

// CatalogCmd implements the 'catalog' command.
type CatalogCmd struct{}

func (c *CatalogCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.load(g)
	if err != nil {
		return err
	}
	products, err := newBackend(cfg).FetchProducts(context.Background())
	if err != nil {
		return err
	}
	printCatalog(os.Stdout, cart.NewCatalog(products), cfg.Cart.Currency)
	return nil
}

func printCatalog(w io.Writer, catalog *cart.Catalog, currency string) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE")
	for _, p := range catalog.Products() {
		fmt.Fprintf(tw, "%s\t%s\t%s %s\n", p.ID, p.Name, cart.FormatMoney(p.UnitPrice), currency)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%d products\n", catalog.Len())
}
