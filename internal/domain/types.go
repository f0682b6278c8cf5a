package domain

import (
	"encoding/json"
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDecimalPlaces applies to any country that does not declare a precision.
const DefaultDecimalPlaces = 2

// CountryCode identifies one of the supported markets.
type CountryCode string

const (
	CountryMX CountryCode = "MX"
	CountryUS CountryCode = "US"
	CountryCH CountryCode = "CH"
	CountryJP CountryCode = "JP"
)

// Behavior is the fault-injection profile attached to a test identity.
type Behavior string

const (
	BehaviorStandard        Behavior = "standard"
	BehaviorLockedOut       Behavior = "locked_out"
	BehaviorDegradedContent Behavior = "degraded_content"
	BehaviorSlow            Behavior = "slow"
	BehaviorFlaky           Behavior = "flaky"
)

// Valid reports whether b is one of the declared profiles.
func (b Behavior) Valid() bool {
	switch b {
	case BehaviorStandard, BehaviorLockedOut, BehaviorDegradedContent, BehaviorSlow, BehaviorFlaky:
		return true
	}
	return false
}

// --- Fixtures ---

// CountryProfile is the static per-market configuration.
type CountryProfile struct {
	Code           CountryCode
	Currency       string
	CurrencySymbol string
	TaxRate        decimal.Decimal
	DecimalPlaces  int32
	RequiredFields []string
	OptionalFields []string
	Languages      []string
	// FieldPatterns maps a checkout field to the regular expression its value must match.
	FieldPatterns map[string]string
	Guards        []GuardRule
}

// DefaultLanguage is the display language used when a request names none.
func (c CountryProfile) DefaultLanguage() string {
	if len(c.Languages) == 0 {
		return ""
	}
	return c.Languages[0]
}

// GuardRule is a JsonLogic expression evaluated against checkout input.
// A rule that evaluates to true is a violation.
type GuardRule struct {
	ID      string
	Field   string
	Logic   map[string]any
	Message string
}

// CatalogItem is a product as authored, priced in the reference currency.
type CatalogItem struct {
	ID           string
	BasePrice    decimal.Decimal
	Names        map[string]string
	Descriptions map[string]string
	Image        string
}

// FixtureUser is a predefined QA identity.
type FixtureUser struct {
	Username    string
	Password    string
	Behavior    Behavior
	Locked      bool
	Description string
}

// ProfileEffects are the observable effects of a behavior on authenticated requests.
type ProfileEffects struct {
	Latency     time.Duration
	FailureRate float64
	// CatalogPatch is an RFC 7386 merge patch applied to every priced catalog entry.
	CatalogPatch json.RawMessage
}

// Fixtures is everything loaded once at process start.
type Fixtures struct {
	ReferenceCurrency string
	DefaultLanguage   string
	Rates             map[string]decimal.Decimal
	Countries         []CountryProfile
	Catalog           []CatalogItem
	Users             []FixtureUser
	Profiles          map[Behavior]ProfileEffects
	// CheckoutGuards apply to every country, ahead of the country's own guards.
	CheckoutGuards []GuardRule
}

// --- Sessions ---

// Identity is the public view of a fixture user.
type Identity struct {
	Username    string
	Behavior    Behavior
	Description string
}

// Session is what an authenticated request carries: resolved once at login.
type Session struct {
	Username string
	Behavior Behavior
}

// --- Catalog ---

// PricedCatalogEntry is a catalog item localized and priced for one market.
type PricedCatalogEntry struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	BasePrice      decimal.Decimal `json:"base_price"`
	Currency       string          `json:"currency"`
	CurrencySymbol string          `json:"currency_symbol"`
	Image          string          `json:"image"`
	Language       string          `json:"language"`
}

// Catalog is the assembled catalog for one country.
type Catalog struct {
	Country CountryProfile
	Entries []PricedCatalogEntry
}

// --- Orders ---

type OrderStatus string

const OrderStatusPending OrderStatus = "pending"

type LineItem struct {
	ItemID   string
	Quantity int
}

type CustomerInfo struct {
	Name    string
	Address string
	Phone   string
}

// OrderTotals are rounded independently to the country precision.
type OrderTotals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Tip      decimal.Decimal
	Total    decimal.Decimal
	Currency string
}

// CheckoutRequest is the validated input of a checkout.
type CheckoutRequest struct {
	Country  string
	Items    []LineItem
	Customer CustomerInfo
	// Fields holds country-specific values such as colonia or zip_code.
	Fields map[string]string
	Tip    *decimal.Decimal
}

// QuoteRequest prices a cart without creating an order.
type QuoteRequest struct {
	Country string
	Items   []LineItem
	Tip     *decimal.Decimal
}

type Order struct {
	ID             string
	Username       string
	Country        CountryCode
	Items          []LineItem
	Customer       CustomerInfo
	Extra          map[string]string
	Totals         OrderTotals
	CurrencySymbol string
	CreatedAt      time.Time
	Status         OrderStatus
}

// Clone returns a copy that shares no mutable state with o.
func (o Order) Clone() Order {
	c := o
	c.Items = slices.Clone(o.Items)
	c.Extra = maps.Clone(o.Extra)
	return c
}
