package commands

import (
	"context"
	"fmt"
	"sort"

	"git.home.luguber.info/inful/smartcart/internal/checkout"
	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
)

// ReplayCmd implements the 'replay' command.
type ReplayCmd struct {
	IDs []string `arg:"" optional:"" name:"checkout-id" help:"Checkouts to replay (default: all pending)"`
}

func (r *ReplayCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.load(g)
	if err != nil {
		return err
	}
	store, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	replayer := &checkout.Replayer{Store: store, Submitter: newBackend(cfg), Logger: g.Logger}
	res, err := replayer.Replay(context.Background(), r.IDs...)
	if err != nil {
		return err
	}
	for _, id := range res.Delivered {
		fmt.Printf("delivered %s\n", id)
	}
	if len(res.Failed) == 0 {
		return nil
	}
	failed := make([]string, 0, len(res.Failed))
	for id := range res.Failed {
		failed = append(failed, id)
	}
	sort.Strings(failed)
	for _, id := range failed {
		fmt.Printf("failed %s: %v\n", id, res.Failed[id])
	}
	return errors.SubmissionError(fmt.Sprintf("%d purchases still undelivered", len(failed))).Build()
}
