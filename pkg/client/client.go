// Package client is a typed Go client for the OmniPizza API, meant for
// test suites that drive the fixture server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gsanchezm/OmniPizza/pkg/api"
)

// APIError is returned when the API responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Kind       string
	Message    string
	Field      string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("omnipizza api %d: %s (%s, field %s)", e.StatusCode, e.Message, e.Kind, e.Field)
	}
	return fmt.Sprintf("omnipizza api %d: %s (%s)", e.StatusCode, e.Message, e.Kind)
}

// IsKind reports whether err is an *APIError of the given kind.
func IsKind(err error, kind string) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Kind == kind
}

type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets the bearer token up front instead of calling Login.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout sets the request timeout on a copy of the HTTP client, so a
// client passed to WithHTTPClient is left untouched.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) do(ctx context.Context, method, path string, header http.Header, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var e api.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Kind: e.Error, Message: e.Message, Field: e.Field}
		}
		return &APIError{StatusCode: resp.StatusCode, Kind: "Internal", Message: http.StatusText(resp.StatusCode)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

// Login authenticates and keeps the issued token for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (*api.LoginResponse, error) {
	var out api.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, api.LoginRequest{Username: username, Password: password}, &out); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.token = out.AccessToken
	c.mu.Unlock()
	return &out, nil
}

func (c *Client) Users(ctx context.Context) ([]api.UserProfile, error) {
	var out []api.UserProfile
	err := c.do(ctx, http.MethodGet, "/api/auth/users", nil, nil, &out)
	return out, err
}

func (c *Client) Profile(ctx context.Context) (*api.UserProfile, error) {
	var out api.UserProfile
	if err := c.do(ctx, http.MethodGet, "/api/auth/profile", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Countries(ctx context.Context) ([]api.CountryInfo, error) {
	var out []api.CountryInfo
	err := c.do(ctx, http.MethodGet, "/api/countries", nil, nil, &out)
	return out, err
}

func (c *Client) Country(ctx context.Context, code string) (*api.CountryInfo, error) {
	var out api.CountryInfo
	if err := c.do(ctx, http.MethodGet, "/api/countries/"+url.PathEscape(code), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Pizzas fetches the catalog for a country. An empty lang lets the server
// pick the country's default language.
func (c *Client) Pizzas(ctx context.Context, country, lang string) (*api.PizzaResponse, error) {
	path := "/api/pizzas"
	if lang != "" {
		path += "?lang=" + url.QueryEscape(lang)
	}
	h := http.Header{}
	h.Set("X-Country-Code", country)

	var out api.PizzaResponse
	if err := c.do(ctx, http.MethodGet, path, h, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Quote(ctx context.Context, req api.QuoteRequest) (*api.QuoteResponse, error) {
	var out api.QuoteResponse
	if err := c.do(ctx, http.MethodPost, "/api/cart/quote", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Checkout(ctx context.Context, req api.CheckoutRequest) (*api.OrderSummary, error) {
	var out api.OrderSummary
	if err := c.do(ctx, http.MethodPost, "/api/checkout", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Orders(ctx context.Context) ([]api.Order, error) {
	var out api.OrdersResponse
	if err := c.do(ctx, http.MethodGet, "/api/orders", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

func (c *Client) Order(ctx context.Context, id string) (*api.Order, error) {
	var out api.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var out api.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
