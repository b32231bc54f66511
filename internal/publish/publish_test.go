package publish

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/smartcart/internal/config"
	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
	drained  bool
}

func (f *fakeConn) Publish(subj string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subj)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakeConn) Drain() error { f.drained = true; return nil }

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNATSPublisherEnvelope(t *testing.T) {
	fc := &fakeConn{}
	p := newNATSPublisher(fc, "smartcart.events", discard())

	ts := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	require.NoError(t, p.Publish(context.Background(), Message{
		Kind: "checkout_finished", CartNumber: 2, CheckoutID: "abc", Timestamp: ts,
		Data: map[string]string{"outcome": "submitted"},
	}))

	require.Equal(t, []string{"smartcart.events.checkout_finished"}, fc.subjects)
	var got map[string]any
	require.NoError(t, json.Unmarshal(fc.payloads[0], &got))
	assert.Equal(t, "checkout_finished", got["kind"])
	assert.EqualValues(t, 2, got["cartNumber"])
	assert.Equal(t, "abc", got["checkoutId"])
	assert.Equal(t, "2026-10-14T10:00:00Z", got["timestamp"])

	require.NoError(t, p.Close())
	assert.True(t, fc.drained)
}

func TestNATSPublisherErrors(t *testing.T) {
	fc := &fakeConn{err: stderrors.New("nats: connection closed")}
	p := newNATSPublisher(fc, "smartcart.events", discard())

	err := p.Publish(context.Background(), Message{Kind: "cart_changed"})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNetwork))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, p.Publish(ctx, Message{Kind: "cart_changed"}), context.Canceled)
}

func TestConnectFailsFast(t *testing.T) {
	_, err := Connect(config.NATSConfig{URL: "nats://127.0.0.1:1", Subject: "x"}, discard())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNetwork))
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	require.NoError(t, p.Publish(context.Background(), Message{Kind: "x"}))
	require.NoError(t, p.Close())
}
