// Package backend is the REST client for the catalog and purchase service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"git.home.luguber.info/inful/smartcart/internal/cart"
	"git.home.luguber.info/inful/smartcart/internal/config"
	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
	"git.home.luguber.info/inful/smartcart/internal/version"
)

// PurchaseItem is one product line of a submitted purchase.
type PurchaseItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Purchase is the body of a purchase submission.
type Purchase struct {
	CartNumber int            `json:"cartNumber"`
	Products   []PurchaseItem `json:"products"`
}

// NewPurchase lists every cart line in product id order.
func NewPurchase(cartNumber int, c *cart.Cart) Purchase {
	p := Purchase{CartNumber: cartNumber, Products: []PurchaseItem{}}
	for _, l := range c.Lines() {
		p.Products = append(p.Products, PurchaseItem{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return p
}

// Client talks to the backend over HTTP.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	productsPath  string
	purchasesPath string
}

// NewClient builds a client from the backend config; httpClient may be nil.
func NewClient(cfg config.BackendConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		httpClient:    httpClient,
		baseURL:       cfg.BaseURL,
		productsPath:  cfg.ProductsPath,
		purchasesPath: cfg.PurchasesPath,
	}
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body any) (*http.Request, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, errors.ConfigError("failed to parse backend URL").
			WithCause(err).
			WithContext("base_url", c.baseURL).
			Build()
	}
	u.Path = path.Join(strings.TrimSuffix(u.Path, "/"), endpoint)

	reader := io.Reader(http.NoBody)
	if body != nil {
		data, merr := json.Marshal(body)
		if merr != nil {
			return nil, errors.InternalError("failed to marshal request body").WithCause(merr).Build()
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, errors.InternalError("failed to create request").
			WithCause(err).
			WithContext("method", method).
			WithContext("url", u.String()).
			Build()
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "smartcart/"+version.Version)
	return req, nil
}

// do executes req; category classifies HTTP failures. 5xx and transport
// errors are retryable, 4xx are not.
func (c *Client) do(req *http.Request, category errors.ErrorCategory, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewError(category, "backend request failed").
			WithCause(err).
			WithContext("method", req.Method).
			WithContext("url", req.URL.String()).
			Retryable().
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		limited, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		b := errors.NewError(category, fmt.Sprintf("backend returned %s", resp.Status)).
			WithContext("code", resp.StatusCode).
			WithContext("url", req.URL.String()).
			WithContext("response", strings.ReplaceAll(string(limited), "\n", " "))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			b = b.Retryable()
		} else {
			b = b.Permanent()
		}
		return b.Build()
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return errors.NewError(category, "failed to decode backend response").WithCause(err).Build()
		}
	}
	return nil
}

// FetchProducts downloads the catalog.
func (c *Client) FetchProducts(ctx context.Context) ([]cart.Product, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.productsPath, nil)
	if err != nil {
		return nil, err
	}
	var products []cart.Product
	if err := c.do(req, errors.CategoryCatalog, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// SubmitPurchase posts one purchase. Only a 200 response counts as success.
func (c *Client) SubmitPurchase(ctx context.Context, p Purchase) error {
	req, err := c.newRequest(ctx, http.MethodPost, c.purchasesPath, p)
	if err != nil {
		return err
	}
	return c.do(req, errors.CategorySubmission, nil)
}
