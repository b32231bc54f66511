// Package commands implements the smartcart CLI subcommands.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/smartcart/internal/backend"
	"git.home.luguber.info/inful/smartcart/internal/config"
	"git.home.luguber.info/inful/smartcart/internal/eventstore"
)

// Global is shared state handed to every command.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command line model.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"smartcart.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable debug logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run     RunCmd     `cmd:"" default:"withargs" help:"Run the cart controller"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	Catalog CatalogCmd `cmd:"" help:"Fetch and print the product catalog"`
	Detect  DetectCmd  `cmd:"" help:"Sample the detection source once and print the snapshot"`
	Journal JournalCmd `cmd:"" help:"List journaled checkouts"`
	Replay  ReplayCmd  `cmd:"" help:"Resubmit undelivered purchases"`
}

// AfterApply runs after flag parsing and installs the default logger.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(newLogger(os.Stderr, config.LoggingConfig{}, c.Verbose))
	return nil
}

// load reads the configuration and switches logging to its settings.
func (c *CLI) load(g *Global) (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	g.Logger = newLogger(os.Stderr, cfg.Logging, c.Verbose)
	slog.SetDefault(g.Logger)
	return cfg, nil
}

func newLogger(w io.Writer, cfg config.LoggingConfig, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case config.LogLevelDebug:
		level = slog.LevelDebug
	case config.LogLevelWarn:
		level = slog.LevelWarn
	case config.LogLevelError:
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func openJournal(cfg *config.Config) (*eventstore.SQLiteStore, error) {
	return eventstore.NewSQLiteStore(cfg.JournalPath())
}

func newBackend(cfg *config.Config) *backend.Client {
	return backend.NewClient(cfg.Backend, nil)
}
