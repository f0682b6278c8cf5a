package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gsanchezm/OmniPizza/internal/domain"
	"github.com/gsanchezm/OmniPizza/internal/infrastructure"
	"github.com/gsanchezm/OmniPizza/internal/infrastructure/clock"
	"github.com/gsanchezm/OmniPizza/internal/infrastructure/jsonlogic"
	"github.com/gsanchezm/OmniPizza/internal/infrastructure/memstore"
	"github.com/gsanchezm/OmniPizza/internal/infrastructure/token"
	fixtures "github.com/gsanchezm/OmniPizza/internal/infrastructure/yaml"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

// recordingSleeper returns immediately and remembers what it was asked to wait.
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

type harness struct {
	svc     *Services
	store   *memstore.OrderStore
	sleeper *recordingSleeper
	tokens  *token.JWTIssuer
}

func newHarness(t *testing.T, mutate ...func(*Deps)) *harness {
	t.Helper()
	fx, err := fixtures.LoadEmbedded()
	require.NoError(t, err)

	tokens, err := token.NewJWTIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	h := &harness{
		store:   memstore.NewOrderStore(),
		sleeper: &recordingSleeper{},
		tokens:  tokens,
	}
	deps := Deps{
		Store:      h.store,
		Clock:      clock.Fixed{T: testNow},
		Random:     fixedRandom(0.99),
		Sleeper:    h.sleeper,
		Tokens:     tokens,
		Guards:     jsonlogic.NewGuardExecutor(),
		Patcher:    infrastructure.NewMergePatcher(),
		BcryptCost: bcrypt.MinCost,
	}
	for _, m := range mutate {
		m(&deps)
	}
	h.svc, err = New(fx, deps)
	require.NoError(t, err)
	return h
}

func (h *harness) orderCount(t *testing.T) int {
	t.Helper()
	n, err := h.store.Count(context.Background())
	require.NoError(t, err)
	return n
}

func session(username string, b domain.Behavior) domain.Session {
	return domain.Session{Username: username, Behavior: b}
}

func standardSession() domain.Session {
	return session("standard_user", domain.BehaviorStandard)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func checkoutRequest(country domain.CountryCode) domain.CheckoutRequest {
	req := domain.CheckoutRequest{
		Country: string(country),
		Items:   []domain.LineItem{{ItemID: "1", Quantity: 2}},
		Customer: domain.CustomerInfo{
			Name:    "Ada Lovelace",
			Address: "Calle Falsa 123",
			Phone:   "5512345678",
		},
		Fields: map[string]string{},
	}
	switch country {
	case domain.CountryMX:
		req.Fields["colonia"] = "Roma Norte"
	case domain.CountryUS:
		req.Fields["zip_code"] = "94107"
	case domain.CountryCH:
		req.Fields["plz"] = "8001"
	case domain.CountryJP:
		req.Fields["prefectura"] = "Tokyo"
	}
	return req
}

func requireKind(t *testing.T, err error, kind domain.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, domain.KindOf(err), "error: %v", err)
}
