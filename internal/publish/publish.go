// Package publish fans cart and checkout events out to NATS subscribers
// (store dashboards, stock tracking).
package publish

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/smartcart/internal/config"
	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
	"git.home.luguber.info/inful/smartcart/internal/logfields"
)

// Message is the envelope of every published event.
type Message struct {
	Kind       string    `json:"kind"`
	CartNumber int       `json:"cartNumber"`
	CheckoutID string    `json:"checkoutId,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Data       any       `json:"data,omitempty"`
}

// Publisher delivers messages; failures are reported but never block the cart.
type Publisher interface {
	Publish(ctx context.Context, m Message) error
	Close() error
}

// NoopPublisher drops every message (NATS disabled).
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Message) error { return nil }
func (NoopPublisher) Close() error                           { return nil }

// conn is the subset of *nats.Conn used here.
type conn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

// NATSPublisher publishes each message on "<subject>.<kind>".
type NATSPublisher struct {
	conn    conn
	subject string
	logger  *slog.Logger
}

// Connect dials NATS, reconnecting forever in the background.
func Connect(cfg config.NATSConfig, logger *slog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	nc, err := nats.Connect(cfg.URL,
		nats.Name("smartcart"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", logfields.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", logfields.URL(c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to connect to NATS").
			WithContext("url", cfg.URL).
			Build()
	}
	logger.Info("NATS publisher connected", logfields.URL(cfg.URL), slog.String("subject", cfg.Subject))
	return newNATSPublisher(nc, cfg.Subject, logger), nil
}

func newNATSPublisher(c conn, subject string, logger *slog.Logger) *NATSPublisher {
	return &NATSPublisher{conn: c, subject: subject, logger: logger}
}

// Subject returns the subject a message kind is published on.
func (p *NATSPublisher) Subject(kind string) string { return p.subject + "." + kind }

func (p *NATSPublisher) Publish(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(m)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal event").Build()
	}
	if err := p.conn.Publish(p.Subject(m.Kind), data); err != nil {
		return errors.WrapError(err, errors.CategoryNetwork, "failed to publish event").
			WithContext("subject", p.Subject(m.Kind)).
			Build()
	}
	p.logger.Debug("Published event", logfields.EventKind(m.Kind), logfields.CheckoutID(m.CheckoutID))
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
