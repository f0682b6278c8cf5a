package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gsanchezm/OmniPizza/internal/domain"
	"github.com/gsanchezm/OmniPizza/internal/infrastructure"
	"github.com/gsanchezm/OmniPizza/internal/infrastructure/clock"
	"github.com/gsanchezm/OmniPizza/internal/infrastructure/jsonlogic"
	"github.com/gsanchezm/OmniPizza/internal/infrastructure/memstore"
	"github.com/gsanchezm/OmniPizza/internal/infrastructure/metrics"
	"github.com/gsanchezm/OmniPizza/internal/infrastructure/token"
	fixtures "github.com/gsanchezm/OmniPizza/internal/infrastructure/yaml"
	"github.com/gsanchezm/OmniPizza/internal/usecase"
	"github.com/gsanchezm/OmniPizza/pkg/api"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

type recordingSleeper struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.calls = append(r.calls, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *recordingSleeper) Calls() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.calls...)
}

type fixedRandom float64

func (f fixedRandom) Float64() float64 { return float64(f) }

type testServer struct {
	*Server
	sleeper *recordingSleeper
}

type serverOption func(*usecase.Deps, *Options)

func withRandom(v float64) serverOption {
	return func(d *usecase.Deps, o *Options) {
		d.Random = fixedRandom(v)
		o.Random = fixedRandom(v)
	}
}

func withLoginRateLimit(n float64) serverOption {
	return func(_ *usecase.Deps, o *Options) { o.LoginRateLimit = n }
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	fx, err := fixtures.LoadEmbedded()
	require.NoError(t, err)
	tokens, err := token.NewJWTIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	sleeper := &recordingSleeper{}
	deps := usecase.Deps{
		Store:      memstore.NewOrderStore(),
		Clock:      clock.Fixed{T: testNow},
		Random:     fixedRandom(0.99),
		Sleeper:    sleeper,
		Tokens:     tokens,
		Guards:     jsonlogic.NewGuardExecutor(),
		Patcher:    infrastructure.NewMergePatcher(),
		BcryptCost: bcrypt.MinCost,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	o := Options{
		Logger:      deps.Logger,
		Metrics:     metrics.NewServerMetrics("api"),
		Environment: "test",
		Clock:       deps.Clock,
		Random:      fixedRandom(0),
		Sleeper:     sleeper,
	}
	for _, opt := range opts {
		opt(&deps, &o)
	}
	svc, err := usecase.New(fx, deps)
	require.NoError(t, err)
	return &testServer{Server: New(svc, o), sleeper: sleeper}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, username string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/login", api.LoginRequest{Username: username, Password: "pizza123"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res api.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res.AccessToken
}

func auth(token string, extra ...string) map[string]string {
	h := map[string]string{"Authorization": "Bearer " + token}
	for i := 0; i+1 < len(extra); i += 2 {
		h[extra[i]] = extra[i+1]
	}
	return h
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, kind string) api.ErrorResponse {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	body := decode[api.ErrorResponse](t, rec)
	assert.Equal(t, kind, body.Error)
	assert.Equal(t, status, body.StatusCode)
	assert.Equal(t, testNow, body.Timestamp)
	assert.NotEmpty(t, body.Message)
	return body
}

func mexicoCheckout() api.CheckoutRequest {
	return api.CheckoutRequest{
		CountryCode: "MX",
		Items:       []api.CartItem{{PizzaID: "1", Quantity: 2}},
		Name:        "Ada Lovelace",
		Address:     "Calle Falsa 123",
		Phone:       "5512345678",
		Colonia:     "Roma Norte",
	}
}

func TestRootAndHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, AppName, decode[api.ServiceInfo](t, rec).Message)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = s.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	h := decode[api.HealthResponse](t, rec)
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, "test", h.Environment)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	t.Run("standard user", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/auth/login", api.LoginRequest{Username: "problem_user", Password: "pizza123"}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		res := decode[api.LoginResponse](t, rec)
		assert.Equal(t, "bearer", res.TokenType)
		assert.Equal(t, "degraded_content", res.Behavior)
		assert.NotEmpty(t, res.AccessToken)
	})

	t.Run("locked out", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/auth/login", api.LoginRequest{Username: "locked_out_user", Password: "pizza123"}, nil)
		body := requireError(t, rec, http.StatusForbidden, "AccountLocked")
		assert.Equal(t, "Sorry, this user has been locked out.", body.Message)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/auth/login", api.LoginRequest{Username: "standard_user", Password: "wrong"}, nil)
		requireError(t, rec, http.StatusUnauthorized, "Unauthenticated")
		assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	})

	t.Run("unknown user", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/auth/login", api.LoginRequest{Username: "mallory", Password: "pizza123"}, nil)
		requireError(t, rec, http.StatusUnauthorized, "UnknownIdentity")
	})

	t.Run("missing username", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/auth/login", api.LoginRequest{Password: "pizza123"}, nil)
		body := requireError(t, rec, http.StatusBadRequest, "MissingRequiredField")
		assert.Equal(t, "username", body.Field)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/auth/login", `{"username":`, nil)
		requireError(t, rec, http.StatusBadRequest, "InvalidFieldFormat")
	})
}

func TestLogin_RateLimited(t *testing.T) {
	s := newTestServer(t, withLoginRateLimit(1))
	body := api.LoginRequest{Username: "standard_user", Password: "pizza123"}

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/auth/login", body, nil).Code)
	rec := s.do(t, http.MethodPost, "/api/auth/login", body, nil)
	requireError(t, rec, http.StatusTooManyRequests, "RateLimited")
}

func TestUsersAndProfile(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/auth/users", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]api.UserProfile](t, rec), 5)

	requireError(t, s.do(t, http.MethodGet, "/api/auth/profile", nil, nil), http.StatusUnauthorized, "Unauthenticated")
	requireError(t, s.do(t, http.MethodGet, "/api/auth/profile", nil, auth("garbage")), http.StatusUnauthorized, "Unauthenticated")

	tok := s.login(t, "error_user")
	rec = s.do(t, http.MethodGet, "/api/auth/profile", nil, auth(tok))
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[api.UserProfile](t, rec)
	assert.Equal(t, "error_user", p.Username)
	assert.Equal(t, "flaky", p.Behavior)
}

func TestCountries(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/countries", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]api.CountryInfo](t, rec)
	require.Len(t, list, 4)
	assert.Equal(t, "MX", list[0].Code)

	rec = s.do(t, http.MethodGet, "/api/countries/jp", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	jp := decode[api.CountryInfo](t, rec)
	assert.Equal(t, int32(0), jp.DecimalPlaces)
	assert.Equal(t, []string{"prefectura"}, jp.RequiredFields)

	rec = s.do(t, http.MethodGet, "/api/countries/US", nil, nil)
	assert.Contains(t, rec.Body.String(), `"tax_rate":0.08`)

	requireError(t, s.do(t, http.MethodGet, "/api/countries/BR", nil, nil), http.StatusNotFound, "NotFound")
}

func TestPizzas(t *testing.T) {
	s := newTestServer(t)
	tok := s.login(t, "standard_user")

	t.Run("requires country", func(t *testing.T) {
		body := requireError(t, s.do(t, http.MethodGet, "/api/pizzas", nil, auth(tok)), http.StatusBadRequest, "MissingRequiredField")
		assert.Equal(t, HeaderCountryCode, body.Field)
	})

	t.Run("rejects unknown country", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/pizzas", nil, auth(tok, HeaderCountryCode, "BR"))
		requireError(t, rec, http.StatusBadRequest, "UnknownCountry")
	})

	t.Run("requires session", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/pizzas", nil, map[string]string{HeaderCountryCode: "MX"})
		requireError(t, rec, http.StatusUnauthorized, "Unauthenticated")
	})

	t.Run("mexico", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/pizzas", nil, auth(tok, HeaderCountryCode, "mx"))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"price":227.32`)
		res := decode[api.PizzaResponse](t, rec)
		assert.Equal(t, "MX", res.CountryCode)
		assert.Equal(t, "MXN", res.Currency)
		assert.Equal(t, "es", res.Language)
		require.Len(t, res.Pizzas, 6)
		assert.Equal(t, "Hawaiana", res.Pizzas[2].Name)
	})

	t.Run("japan has whole yen and honours lang", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/pizzas?lang=en-US", nil, auth(tok, HeaderCountryCode, "JP"))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"price":1936,`)
		res := decode[api.PizzaResponse](t, rec)
		assert.Equal(t, "Margherita", res.Pizzas[0].Name)
		assert.Equal(t, "en", res.Language)
	})

	t.Run("accept-language header", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/pizzas", nil, auth(tok, HeaderCountryCode, "CH", "Accept-Language", "fr-CH,fr;q=0.9"))
		require.Equal(t, http.StatusOK, rec.Code)
		res := decode[api.PizzaResponse](t, rec)
		assert.Equal(t, "Quatre Fromages", res.Pizzas[3].Name)
	})
}

func TestPizzas_ProblemUserSeesDegradedCatalog(t *testing.T) {
	s := newTestServer(t)
	tok := s.login(t, "problem_user")

	rec := s.do(t, http.MethodGet, "/api/pizzas", nil, auth(tok, HeaderCountryCode, "US"))
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[api.PizzaResponse](t, rec)
	require.Len(t, res.Pizzas, 6)
	for _, p := range res.Pizzas {
		assert.True(t, p.Price.Value.IsZero(), "pizza %s", p.ID)
		assert.Equal(t, "https://broken-image-url.com/404.jpg", p.Image)
	}
}

func TestPizzas_SlowUserIsDelayed(t *testing.T) {
	s := newTestServer(t)
	tok := s.login(t, "performance_glitch_user")

	rec := s.do(t, http.MethodGet, "/api/pizzas", nil, auth(tok, HeaderCountryCode, "MX"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []time.Duration{3 * time.Second}, s.sleeper.Calls())
}

func TestQuote(t *testing.T) {
	s := newTestServer(t)
	tok := s.login(t, "standard_user")

	rec := s.do(t, http.MethodPost, "/api/cart/quote", api.QuoteRequest{
		CountryCode: "US",
		Items:       []api.CartItem{{PizzaID: "1", Quantity: 1}},
	}, auth(tok))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"tax":1.04`)
	q := decode[api.QuoteResponse](t, rec)
	assert.Equal(t, "14.03", q.Total.String())

	rec = s.do(t, http.MethodPost, "/api/cart/quote", api.QuoteRequest{
		CountryCode: "US",
		Items:       []api.CartItem{{PizzaID: "nope", Quantity: 1}},
	}, auth(tok))
	requireError(t, rec, http.StatusBadRequest, "UnknownItem")

	rec = s.do(t, http.MethodPost, "/api/cart/quote",
		`{"country_code":"US","items":[{"pizza_id":"1","quantity":1}],"tip":1e20000000}`, auth(tok))
	body := requireError(t, rec, http.StatusBadRequest, "InvalidFieldFormat")
	assert.Equal(t, "tip", body.Field)
}

func TestCheckout_MexicoEndToEnd(t *testing.T) {
	s := newTestServer(t)
	tok := s.login(t, "standard_user")

	rec := s.do(t, http.MethodPost, "/api/checkout", mexicoCheckout(), auth(tok))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.String()
	assert.Contains(t, body, `"subtotal":454.65`)
	assert.Contains(t, body, `"tax":0.00`)
	assert.Contains(t, body, `"total":454.65`)

	sum := decode[api.OrderSummary](t, rec)
	assert.Regexp(t, `^ORDER-[0-9A-F]{8}$`, sum.OrderID)
	assert.Equal(t, "MXN", sum.Currency)
	assert.Equal(t, testNow, sum.Timestamp)
	assert.Equal(t, []api.CartItem{{PizzaID: "1", Quantity: 2}}, sum.Items)

	rec = s.do(t, http.MethodGet, "/api/orders/"+sum.OrderID, nil, auth(tok))
	require.Equal(t, http.StatusOK, rec.Code)
	o := decode[api.Order](t, rec)
	assert.Equal(t, sum.Total.String(), o.Total.String())
	assert.Equal(t, "Roma Norte", o.CustomerInfo["colonia"])
	assert.Equal(t, "pending", o.Status)
}

func TestCheckout_ValidationErrors(t *testing.T) {
	s := newTestServer(t)
	tok := s.login(t, "standard_user")

	us := mexicoCheckout()
	us.CountryCode = "US"
	us.Colonia = ""
	us.ZipCode = "1234"
	body := requireError(t, s.do(t, http.MethodPost, "/api/checkout", us, auth(tok)), http.StatusBadRequest, "InvalidFieldFormat")
	assert.Equal(t, "zip_code", body.Field)

	mx := mexicoCheckout()
	mx.Colonia = ""
	body = requireError(t, s.do(t, http.MethodPost, "/api/checkout", mx, auth(tok)), http.StatusBadRequest, "MissingRequiredField")
	assert.Equal(t, "colonia", body.Field)

	rec := s.do(t, http.MethodGet, "/api/orders", nil, auth(tok))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[api.OrdersResponse](t, rec).Orders)
}

func TestCheckout_ErrorUserGetsInjectedFault(t *testing.T) {
	s := newTestServer(t, withRandom(0.1))
	tok := s.login(t, "error_user")

	rec := s.do(t, http.MethodPost, "/api/checkout", mexicoCheckout(), auth(tok))
	requireError(t, rec, http.StatusInternalServerError, "InjectedFault")

	rec = s.do(t, http.MethodGet, "/api/orders", nil, auth(tok))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[api.OrdersResponse](t, rec).Orders)

	rec = s.do(t, http.MethodGet, "/api/debug/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `omnipizza_api_injected_faults_total{behavior="flaky"} 1`)
}

func TestOrders_ScopedToCaller(t *testing.T) {
	s := newTestServer(t)
	owner := s.login(t, "standard_user")
	other := s.login(t, "problem_user")

	rec := s.do(t, http.MethodPost, "/api/checkout", mexicoCheckout(), auth(owner))
	require.Equal(t, http.StatusOK, rec.Code)
	id := decode[api.OrderSummary](t, rec).OrderID

	requireError(t, s.do(t, http.MethodGet, "/api/orders/"+id, nil, auth(other)), http.StatusForbidden, "AccessDenied")
	requireError(t, s.do(t, http.MethodGet, "/api/orders/ORDER-00000000", nil, auth(owner)), http.StatusNotFound, "NotFound")

	rec = s.do(t, http.MethodGet, "/api/orders", nil, auth(owner))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[api.OrdersResponse](t, rec).Orders, 1)

	rec = s.do(t, http.MethodGet, "/api/orders", nil, auth(other))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[api.OrdersResponse](t, rec).Orders)
}

func TestDebugEndpoints(t *testing.T) {
	s := newTestServer(t)
	tok := s.login(t, "standard_user")
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/checkout", mexicoCheckout(), auth(tok)).Code)

	rec := s.do(t, http.MethodGet, "/api/debug/info", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	info := decode[api.DebugInfo](t, rec)
	assert.Equal(t, 1, info.TotalOrders)
	assert.Equal(t, []string{"MX", "US", "CH", "JP"}, info.SupportedCountries)
	assert.Len(t, info.TestUsers, 5)

	rec = s.do(t, http.MethodGet, "/api/debug/latency-spike", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	spike := decode[api.LatencySpike](t, rec)
	assert.InDelta(t, 0.5, spike.DelaySeconds, 1e-9)
	assert.Equal(t, []time.Duration{500 * time.Millisecond}, s.sleeper.Calls())

	rec = s.do(t, http.MethodGet, "/api/debug/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `omnipizza_api_orders_created_total{country="MX"} 1`)
	assert.Contains(t, rec.Body.String(), `omnipizza_api_http_requests_total{method="POST",route="/api/checkout",status="200"} 1`)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	requireError(t, s.do(t, http.MethodGet, "/api/nothing-here", nil, nil), http.StatusNotFound, "NotFound")
}

func TestBearerToken(t *testing.T) {
	tok, ok := bearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	tok, ok = bearerToken("bearer   xyz ")
	assert.True(t, ok)
	assert.Equal(t, "xyz", tok)

	for _, h := range []string{"", "Bearer", "Basic abc", "Bearer "} {
		_, ok := bearerToken(h)
		assert.False(t, ok, "header %q", h)
	}
}

func TestHandleError_HidesInternalDetails(t *testing.T) {
	s := newTestServer(t)
	s.echo.GET("/boom", func(c echo.Context) error {
		return assert.AnError
	})
	rec := s.do(t, http.MethodGet, "/boom", nil, nil)
	body := requireError(t, rec, http.StatusInternalServerError, string(domain.KindInternal))
	assert.Equal(t, "Internal server error", body.Message)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}
