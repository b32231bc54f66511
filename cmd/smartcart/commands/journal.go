package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/smartcart/internal/eventstore"
)

// JournalCmd implements the 'journal' command.
type JournalCmd struct {
	Pending bool `help:"Only list undelivered purchases"`
}

func (j *JournalCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.load(g)
	if err != nil {
		return err
	}
	store, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	p := eventstore.NewCheckoutProjection(store)
	if err := p.Rebuild(context.Background()); err != nil {
		return err
	}
	list := p.History()
	if j.Pending {
		list = p.Pending()
	}
	printJournal(os.Stdout, list)
	return nil
}

func printJournal(w io.Writer, list []eventstore.CheckoutSummary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHECKOUT\tSTARTED\tSTATUS\tTOTAL\tATTEMPTS\tERROR")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			s.CheckoutID, s.StartedAt.Local().Format(time.DateTime), s.Status, s.Total, s.Attempts, s.Error)
	}
	_ = tw.Flush()
}
