package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/smartcart/internal/cart"
	"git.home.luguber.info/inful/smartcart/internal/server/responses"
)

func serve(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestAdminStatus(t *testing.T) {
	hs := newHarness(t, testConfig())
	hs.daemon.RefreshCatalog(t.Context())
	hs.source.set(cart.Snapshot{"apple": 2}, nil)
	hs.daemon.Tick(t.Context())
	h := NewAdminServer(":0", hs.daemon, nil).Handler()

	rec := serve(t, h, http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var body responses.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "idle", body.Phase)
	assert.Equal(t, "2.00", body.Total)
	assert.Equal(t, 2, body.CatalogSize)
	require.Len(t, body.Lines, 1)
	assert.Equal(t, responses.CartLine{ProductID: "1", Name: "apple", UnitPrice: "1.00", Quantity: 2, Subtotal: "2.00"}, body.Lines[0])
	assert.NotNil(t, body.LastTick)
}

func TestAdminHealthUnhealthyWhenStopped(t *testing.T) {
	hs := newHarness(t, testConfig())
	h := NewAdminServer(":0", hs.daemon, nil).Handler()

	rec := serve(t, h, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, HealthStatusUnhealthy, body.Status)
	assert.Len(t, body.Checks, 4)
}

func TestAdminCheckoutTrigger(t *testing.T) {
	hs := newHarness(t, testConfig())
	h := NewAdminServer(":0", hs.daemon, nil).Handler()

	rec := serve(t, h, http.MethodPost, "/checkout")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	var body responses.TriggerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "queued", body.Status)

	rec = serve(t, h, http.MethodGet, "/checkout")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAdminMetricsAndHistory(t *testing.T) {
	hs := newHarness(t, testConfig())
	hs.daemon.RefreshCatalog(t.Context())
	hs.source.set(cart.Snapshot{"apple": 1}, nil)
	hs.daemon.Tick(t.Context())
	h := NewAdminServer(":0", hs.daemon, nil).Handler()

	rec := serve(t, h, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "smartcart_detection_ticks_total"))

	rec = serve(t, h, http.MethodGet, "/checkouts?pending=true")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestAdminServerListens(t *testing.T) {
	hs := newHarness(t, testConfig())
	s := NewAdminServer("127.0.0.1:0", hs.daemon, nil)
	require.NoError(t, s.Start(t.Context()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	resp, err := http.Get("http://" + s.Addr() + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
