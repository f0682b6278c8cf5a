package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/gsanchezm/OmniPizza/internal/domain"
	"github.com/gsanchezm/OmniPizza/internal/interfaces"
)

// Deps are the collaborators the services are built from.
type Deps struct {
	Store      interfaces.OrderStore
	Clock      interfaces.Clock
	Random     interfaces.RandomSource
	Sleeper    interfaces.Sleeper
	Tokens     interfaces.TokenIssuer
	Guards     interfaces.GuardEvaluator
	Patcher    interfaces.CatalogPatcher
	NewOrderID func() string
	BcryptCost int
	Logger     *slog.Logger
}

// Services is the assembled application core.
type Services struct {
	Fixtures  *domain.Fixtures
	Countries *CountryRegistry
	Catalog   *CatalogService
	Pricing   *PricingEngine
	Faults    *FaultInjector
	Profiles  *ProfileResolver
	Auth      *AuthService
	Checkout  *CheckoutService
	Orders    *OrderService
}

// New validates the fixtures against each other and builds every service.
func New(fx *domain.Fixtures, d Deps) (*Services, error) {
	if fx == nil {
		return nil, errors.New("fixtures are required")
	}
	if d.Store == nil || d.Clock == nil || d.Random == nil || d.Sleeper == nil ||
		d.Tokens == nil || d.Guards == nil || d.Patcher == nil {
		return nil, errors.New("missing service dependency")
	}
	for _, c := range fx.Countries {
		if _, ok := fx.Rates[c.Currency]; !ok {
			return nil, fmt.Errorf("country %s uses currency %s which has no rate", c.Code, c.Currency)
		}
	}

	registry, err := NewCountryRegistry(fx.Countries)
	if err != nil {
		return nil, err
	}
	profiles, err := NewProfileResolver(fx.Users, d.BcryptCost)
	if err != nil {
		return nil, err
	}
	store := NewCatalogStore(fx.Catalog)
	pricing := NewPricingEngine(fx.ReferenceCurrency, fx.Rates, store)
	faults := NewFaultInjector(maps.Clone(fx.Profiles), d.Random, d.Sleeper)

	checkout, err := NewCheckoutService(CheckoutDeps{
		Registry:     registry,
		Pricing:      pricing,
		Faults:       faults,
		Guards:       d.Guards,
		CommonGuards: fx.CheckoutGuards,
		Store:        d.Store,
		Clock:        d.Clock,
		NewID:        d.NewOrderID,
		Logger:       d.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &Services{
		Fixtures:  fx,
		Countries: registry,
		Catalog:   NewCatalogService(registry, store, pricing, faults, d.Patcher, fx.DefaultLanguage),
		Pricing:   pricing,
		Faults:    faults,
		Profiles:  profiles,
		Auth:      NewAuthService(profiles, d.Tokens),
		Checkout:  checkout,
		Orders:    NewOrderService(d.Store, faults),
	}, nil
}
