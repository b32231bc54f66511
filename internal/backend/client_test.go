package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/smartcart/internal/cart"
	"git.home.luguber.info/inful/smartcart/internal/config"
	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := config.Default().Backend
	cfg.BaseURL = srv.URL + "/api"
	return NewClient(cfg, srv.Client())
}

func TestFetchProducts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/products/products", r.URL.Path)
		_, _ = w.Write([]byte(`[{"_id":"64a1","name":"apple","price":1.2},{"_id":"64a2","name":"milk","price":"0.89"}]`))
	})

	products, err := c.FetchProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "64a1", products[0].ID)
	assert.Equal(t, "1.20", cart.FormatMoney(products[0].UnitPrice))
	assert.True(t, products[1].UnitPrice.Equal(decimal.RequireFromString("0.89")))
}

func TestFetchProductsFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})
	_, err := c.FetchProducts(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryCatalog))
	assert.True(t, errors.IsRetryable(err))
}

func TestSubmitPurchase(t *testing.T) {
	var got Purchase
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/purchases/adds", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	catalog := cart.NewCatalog([]cart.Product{{ID: "1", Name: "apple", UnitPrice: decimal.RequireFromString("1.00")}})
	ledger := cart.Reconcile(cart.New(), cart.Snapshot{"apple": 1}, catalog).Cart

	p := NewPurchase(2, ledger)
	require.NoError(t, c.SubmitPurchase(context.Background(), p))
	assert.Equal(t, Purchase{CartNumber: 2, Products: []PurchaseItem{{ProductID: "1", Quantity: 1}}}, got)
}

func TestSubmitPurchaseClassification(t *testing.T) {
	cases := []struct {
		status    int
		retryable bool
	}{
		{http.StatusCreated, false},
		{http.StatusBadRequest, false},
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			})
			err := c.SubmitPurchase(context.Background(), Purchase{CartNumber: 1})
			require.Error(t, err, "only 200 is success")
			assert.True(t, errors.HasCategory(err, errors.CategorySubmission))
			assert.Equal(t, tc.retryable, errors.IsRetryable(err))
		})
	}
}

func TestSubmitPurchaseUnreachable(t *testing.T) {
	cfg := config.Default().Backend
	cfg.BaseURL = "http://127.0.0.1:1"
	err := NewClient(cfg, nil).SubmitPurchase(context.Background(), Purchase{})
	require.Error(t, err)
	assert.True(t, errors.IsRetryable(err))
}

func TestNewPurchaseEmptyCart(t *testing.T) {
	data, err := json.Marshal(NewPurchase(3, cart.New()))
	require.NoError(t, err)
	assert.JSONEq(t, `{"cartNumber":3,"products":[]}`, string(data))
}
