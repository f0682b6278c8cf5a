package usecase

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gsanchezm/OmniPizza/internal/domain"
	"github.com/gsanchezm/OmniPizza/internal/interfaces"
	"github.com/shopspring/decimal"
)

const (
	maxOrderIDAttempts = 3
	maxItemQuantity    = 10

	// Tip exponents outside this range are rejected before any arithmetic,
	// since decimal rescaling cost grows with the exponent.
	minTipExponent = -18
	maxTipExponent = 6
)

var maxTip = decimal.NewFromInt(1_000_000)

// NewOrderID returns "ORDER-" followed by 8 uppercase hex characters.
func NewOrderID() string {
	id := uuid.New()
	return "ORDER-" + strings.ToUpper(hex.EncodeToString(id[:4]))
}

// CheckoutService validates carts and turns them into stored orders.
type CheckoutService struct {
	registry     *CountryRegistry
	pricing      *PricingEngine
	faults       *FaultInjector
	guards       interfaces.GuardEvaluator
	commonGuards []domain.GuardRule
	store        interfaces.OrderStore
	clock        interfaces.Clock
	newID        func() string
	patterns     map[domain.CountryCode]map[string]*regexp.Regexp
	logger       *slog.Logger
}

type CheckoutDeps struct {
	Registry     *CountryRegistry
	Pricing      *PricingEngine
	Faults       *FaultInjector
	Guards       interfaces.GuardEvaluator
	CommonGuards []domain.GuardRule
	Store        interfaces.OrderStore
	Clock        interfaces.Clock
	NewID        func() string
	Logger       *slog.Logger
}

func NewCheckoutService(d CheckoutDeps) (*CheckoutService, error) {
	s := &CheckoutService{
		registry:     d.Registry,
		pricing:      d.Pricing,
		faults:       d.Faults,
		guards:       d.Guards,
		commonGuards: d.CommonGuards,
		store:        d.Store,
		clock:        d.Clock,
		newID:        d.NewID,
		logger:       d.Logger,
		patterns:     make(map[domain.CountryCode]map[string]*regexp.Regexp),
	}
	if s.newID == nil {
		s.newID = NewOrderID
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	for _, c := range d.Registry.List() {
		compiled := make(map[string]*regexp.Regexp, len(c.FieldPatterns))
		for field, expr := range c.FieldPatterns {
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("country %s field %s: %w", c.Code, field, err)
			}
			compiled[field] = re
		}
		s.patterns[c.Code] = compiled
	}
	return s, nil
}

// Checkout validates req, prices it and stores the resulting order. The flaky
// sample is drawn before any validation so that an injected failure never
// leaves an order behind.
func (s *CheckoutService) Checkout(ctx context.Context, session domain.Session, req domain.CheckoutRequest) (domain.Order, error) {
	if err := s.faults.Delay(ctx, session.Behavior); err != nil {
		return domain.Order{}, err
	}
	if s.faults.ShouldFail(session.Behavior) {
		s.logger.WarnContext(ctx, "injected checkout failure",
			slog.String("username", session.Username),
			slog.String("behavior", string(session.Behavior)))
		return domain.Order{}, domain.Errorf(domain.KindInjectedFault, "Random checkout error triggered for testing purposes")
	}

	country, err := s.registry.Resolve(req.Country)
	if err != nil {
		return domain.Order{}, err
	}
	if err := validateItems(req.Items); err != nil {
		return domain.Order{}, err
	}
	if err := validateTip(req.Tip); err != nil {
		return domain.Order{}, err
	}
	if err := s.validateFields(ctx, country, req); err != nil {
		return domain.Order{}, err
	}

	tip := decimal.Zero
	if req.Tip != nil {
		tip = *req.Tip
	}
	totals, err := s.pricing.ComputeTotals(req.Items, country, tip)
	if err != nil {
		return domain.Order{}, err
	}

	order := domain.Order{
		Username:       session.Username,
		Country:        country.Code,
		Items:          append([]domain.LineItem(nil), req.Items...),
		Customer:       trimCustomer(req.Customer),
		Extra:          extraFields(country, req),
		Totals:         totals,
		CurrencySymbol: country.CurrencySymbol,
		CreatedAt:      s.clock.Now(),
		Status:         domain.OrderStatusPending,
	}

	for attempt := 1; ; attempt++ {
		order.ID = s.newID()
		err = s.store.Put(ctx, order)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrDuplicateOrderID) || attempt == maxOrderIDAttempts {
			return domain.Order{}, fmt.Errorf("store order: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("username", order.Username),
		slog.String("country", string(order.Country)),
		slog.String("total", order.Totals.Total.String()))
	return order, nil
}

// Quote prices a cart for country without creating an order.
func (s *CheckoutService) Quote(ctx context.Context, session domain.Session, req domain.QuoteRequest) (domain.OrderTotals, domain.CountryProfile, error) {
	if err := s.faults.Delay(ctx, session.Behavior); err != nil {
		return domain.OrderTotals{}, domain.CountryProfile{}, err
	}
	country, err := s.registry.Resolve(req.Country)
	if err != nil {
		return domain.OrderTotals{}, domain.CountryProfile{}, err
	}
	if err := validateItems(req.Items); err != nil {
		return domain.OrderTotals{}, domain.CountryProfile{}, err
	}
	if err := validateTip(req.Tip); err != nil {
		return domain.OrderTotals{}, domain.CountryProfile{}, err
	}
	tip := decimal.Zero
	if req.Tip != nil {
		tip = *req.Tip
	}
	totals, err := s.pricing.ComputeTotals(req.Items, country, tip)
	if err != nil {
		return domain.OrderTotals{}, domain.CountryProfile{}, err
	}
	return totals, country, nil
}

func validateItems(items []domain.LineItem) error {
	if len(items) == 0 {
		return domain.FieldError(domain.KindInvalidFieldFormat, "items", "at least one item is required")
	}
	for i, it := range items {
		if strings.TrimSpace(it.ItemID) == "" {
			return domain.FieldError(domain.KindInvalidFieldFormat, "items", fmt.Sprintf("item %d has no pizza_id", i))
		}
		if it.Quantity < 1 {
			return domain.FieldError(domain.KindInvalidFieldFormat, "items",
				fmt.Sprintf("quantity for pizza %s must be a positive integer", it.ItemID))
		}
		if it.Quantity > maxItemQuantity {
			return domain.FieldError(domain.KindInvalidFieldFormat, "items",
				fmt.Sprintf("quantity for pizza %s must be at most %d", it.ItemID, maxItemQuantity))
		}
	}
	return nil
}

func validateTip(tip *decimal.Decimal) error {
	if tip == nil {
		return nil
	}
	if tip.IsNegative() {
		return domain.FieldError(domain.KindInvalidFieldFormat, "tip", "tip must be zero or greater")
	}
	if exp := tip.Exponent(); exp < minTipExponent || exp > maxTipExponent || tip.GreaterThan(maxTip) {
		return domain.FieldError(domain.KindInvalidFieldFormat, "tip",
			fmt.Sprintf("tip must be a plain amount no greater than %s", maxTip.String()))
	}
	return nil
}

// validateFields checks contact presence, then the country's required fields
// in declaration order, then formats, then guards. The first failure wins.
func (s *CheckoutService) validateFields(ctx context.Context, country domain.CountryProfile, req domain.CheckoutRequest) error {
	for _, f := range []string{"name", "address", "phone"} {
		if strings.TrimSpace(fieldValue(req, f)) == "" {
			return domain.FieldError(domain.KindMissingRequiredField, f, fmt.Sprintf("Field '%s' is required", f))
		}
	}
	for _, f := range country.RequiredFields {
		if strings.TrimSpace(fieldValue(req, f)) == "" {
			return domain.FieldError(domain.KindMissingRequiredField, f,
				fmt.Sprintf("Field '%s' is required for country %s", f, country.Code))
		}
	}

	patterns := s.patterns[country.Code]
	fields := make([]string, 0, len(patterns))
	for f := range patterns {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		v := fieldValue(req, f)
		if strings.TrimSpace(v) == "" {
			continue
		}
		if !patterns[f].MatchString(v) {
			return domain.FieldError(domain.KindInvalidFieldFormat, f,
				fmt.Sprintf("Field '%s' has an invalid format for country %s", f, country.Code))
		}
	}

	data := guardData(country, req)
	rules := make([]domain.GuardRule, 0, len(s.commonGuards)+len(country.Guards))
	rules = append(rules, s.commonGuards...)
	rules = append(rules, country.Guards...)
	for _, g := range rules {
		hit, err := s.guards.Evaluate(ctx, g.Logic, data)
		if err != nil {
			return fmt.Errorf("guard %s: %w", g.ID, err)
		}
		if hit {
			msg := g.Message
			if msg == "" {
				msg = fmt.Sprintf("Field '%s' is invalid", g.Field)
			}
			return domain.FieldError(domain.KindInvalidFieldFormat, g.Field, msg)
		}
	}
	return nil
}

func fieldValue(req domain.CheckoutRequest, name string) string {
	switch name {
	case "name":
		return req.Customer.Name
	case "address":
		return req.Customer.Address
	case "phone":
		return req.Customer.Phone
	case "tip", "propina":
		if req.Tip != nil {
			return req.Tip.String()
		}
		return ""
	}
	return req.Fields[name]
}

func guardData(country domain.CountryProfile, req domain.CheckoutRequest) map[string]any {
	maxQty := 0
	for _, it := range req.Items {
		maxQty = max(maxQty, it.Quantity)
	}
	tip := 0.0
	if req.Tip != nil {
		tip = req.Tip.InexactFloat64()
	}
	c := trimCustomer(req.Customer)
	data := map[string]any{
		"country":        string(country.Code),
		"name":           c.Name,
		"name_length":    utf8.RuneCountInString(c.Name),
		"address":        c.Address,
		"address_length": utf8.RuneCountInString(c.Address),
		"phone":          c.Phone,
		"phone_length":   utf8.RuneCountInString(c.Phone),
		"tip":            tip,
		"items_count":    len(req.Items),
		"max_quantity":   maxQty,
	}
	for k, v := range req.Fields {
		if _, taken := data[k]; !taken {
			data[k] = strings.TrimSpace(v)
		}
	}
	return data
}

func trimCustomer(c domain.CustomerInfo) domain.CustomerInfo {
	return domain.CustomerInfo{
		Name:    strings.TrimSpace(c.Name),
		Address: strings.TrimSpace(c.Address),
		Phone:   strings.TrimSpace(c.Phone),
	}
}

// extraFields keeps only the country fields the profile declares.
func extraFields(country domain.CountryProfile, req domain.CheckoutRequest) map[string]string {
	out := make(map[string]string)
	for _, group := range [][]string{country.RequiredFields, country.OptionalFields} {
		for _, f := range group {
			if v := strings.TrimSpace(fieldValue(req, f)); v != "" {
				out[f] = v
			}
		}
	}
	return out
}
