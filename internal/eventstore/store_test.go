package eventstore

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
)

const testCheckoutID = "4f7c2b9e-checkout"

func newMemoryStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAndReadStream(t *testing.T) {
	store := newMemoryStore(t)
	ctx := t.Context()

	seq, err := store.Append(ctx, Record{
		Stream: testCheckoutID,
		Kind:   TypeCheckoutStarted,
		Body:   json.RawMessage(`{"total":"3.00"}`),
		Meta:   map[string]string{"cart": "2"},
	})
	require.NoError(t, err)
	assert.Positive(t, seq)
	_, err = store.Append(ctx, Record{Stream: CartStream, Kind: TypeCartChanged})
	require.NoError(t, err)

	records, err := store.Stream(ctx, testCheckoutID)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, seq, r.Seq)
	assert.Equal(t, TypeCheckoutStarted, r.Kind)
	assert.JSONEq(t, `{"total":"3.00"}`, string(r.Body))
	assert.Equal(t, "2", r.Meta["cart"])
	assert.False(t, r.At.IsZero())

	cartRecords, err := store.Stream(ctx, CartStream)
	require.NoError(t, err)
	require.Len(t, cartRecords, 1)
	assert.JSONEq(t, `{}`, string(cartRecords[0].Body), "empty bodies are stored as an empty object")
	assert.Nil(t, cartRecords[0].Meta)
}

func TestSinceFiltersByTime(t *testing.T) {
	store := newMemoryStore(t)
	ctx := t.Context()

	base := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	for i, stream := range []string{"a", "b", "c"} {
		ts := base.Add(time.Duration(i) * time.Minute)
		store.now = func() time.Time { return ts }
		_, err := store.Append(ctx, Record{Stream: stream, Kind: TypeCheckoutStarted})
		require.NoError(t, err)
	}

	records, err := store.Since(ctx, base.Add(30*time.Second))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b", records[0].Stream)
	assert.Equal(t, "c", records[1].Stream)

	all, err := store.Since(ctx, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestExplicitTimestampIsKept(t *testing.T) {
	store := newMemoryStore(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	_, err := store.Append(t.Context(), Record{Stream: "x", Kind: TypePurchaseReplayed, At: at})
	require.NoError(t, err)

	records, err := store.Stream(t.Context(), "x")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, at.Equal(records[0].At))
}

func TestJournalPersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	_, err = store.Append(t.Context(), Record{Stream: "x", Kind: TypeCheckoutStarted})
	require.NoError(t, err)
	require.NoError(t, store.Ping(t.Context()))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	records, err := reopened.Stream(t.Context(), "x")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestStoreErrorsAreClassified(t *testing.T) {
	store := newMemoryStore(t)
	require.NoError(t, store.Close())

	_, err := store.Append(t.Context(), Record{Stream: "x", Kind: TypeCheckoutStarted})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryEventStore))
}
