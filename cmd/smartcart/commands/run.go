package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/smartcart/internal/daemon"
	"git.home.luguber.info/inful/smartcart/internal/detection"
	"git.home.luguber.info/inful/smartcart/internal/hardware"
	"git.home.luguber.info/inful/smartcart/internal/logfields"
	"git.home.luguber.info/inful/smartcart/internal/publish"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	NoWatch bool `help:"Do not reload the configuration file when it changes"`
}

func (r *RunCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.load(g)
	if err != nil {
		return err
	}

	devs, err := hardware.Open(cfg.Hardware, cfg.Cart.Currency, g.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := devs.Close(); err != nil {
			g.Logger.Warn("Failed to release devices", logfields.Error(err))
		}
	}()

	source, err := detection.New(cfg.Detection)
	if err != nil {
		return err
	}
	journal, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = journal.Close() }()

	var publisher publish.Publisher = publish.NoopPublisher{}
	if cfg.NATS.Enabled {
		nc, err := publish.Connect(cfg.NATS, g.Logger)
		if err != nil {
			// fan-out is optional; the cart works without it
			g.Logger.Warn("NATS unavailable, events will not be published", logfields.Error(err))
		} else {
			publisher = nc
		}
	}
	defer func() { _ = publisher.Close() }()

	configPath := root.Config
	if r.NoWatch {
		configPath = ""
	}
	d, err := daemon.New(cfg, configPath, daemon.Deps{
		Devices:   devs,
		Source:    source,
		Backend:   newBackend(cfg),
		Journal:   journal,
		Publisher: publisher,
		Logger:    g.Logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return d.Run(ctx)
}
