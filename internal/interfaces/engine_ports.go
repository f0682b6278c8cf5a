package interfaces

import (
	"context"
	"time"

	"github.com/gsanchezm/OmniPizza/internal/domain"
)

// FixtureLoader loads the immutable fixture set (from disk, embedded data, etc.).
type FixtureLoader interface {
	Load(ctx context.Context) (*domain.Fixtures, error)
}

// OrderStore is the volatile keyed storage for created orders.
// Implementations must be safe for concurrent use.
type OrderStore interface {
	// Put stores a new order. It fails with domain.ErrDuplicateOrderID if the id is taken.
	Put(ctx context.Context, order domain.Order) error
	Get(ctx context.Context, orderID string) (domain.Order, bool, error)
	ListByIdentity(ctx context.Context, username string) ([]domain.Order, error)
	Count(ctx context.Context) (int, error)
}

// Clock is the wall time source for timestamps.
type Clock interface {
	Now() time.Time
}

// RandomSource samples uniformly from [0,1).
type RandomSource interface {
	Float64() float64
}

// Sleeper suspends the calling goroutine only. It returns early with the
// context error if ctx is done first.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// TokenIssuer encodes a session into a bearer credential and back.
type TokenIssuer interface {
	Issue(session domain.Session) (token string, expiresAt time.Time, err error)
	Parse(token string) (domain.Session, error)
}

// GuardEvaluator runs a JsonLogic guard against checkout data.
type GuardEvaluator interface {
	Evaluate(ctx context.Context, logic map[string]any, data map[string]any) (bool, error)
}

// CatalogPatcher applies a behavior's merge patch to a priced entry.
type CatalogPatcher interface {
	Apply(entry domain.PricedCatalogEntry, patch []byte) (domain.PricedCatalogEntry, error)
}
