package yaml

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gsanchezm/OmniPizza/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yaml
var embeddedFixtures []byte

type fixtureFile struct {
	ReferenceCurrency string                `yaml:"reference_currency"`
	DefaultLanguage   string                `yaml:"default_language"`
	Rates             map[string]string     `yaml:"rates"`
	Countries         []countryDoc          `yaml:"countries"`
	CheckoutGuards    []guardDoc            `yaml:"checkout_guards"`
	Catalog           []itemDoc             `yaml:"catalog"`
	Users             []userDoc             `yaml:"users"`
	Profiles          map[string]profileDoc `yaml:"profiles"`
}

type countryDoc struct {
	Code           string            `yaml:"code"`
	Currency       string            `yaml:"currency"`
	CurrencySymbol string            `yaml:"currency_symbol"`
	TaxRate        string            `yaml:"tax_rate"`
	DecimalPlaces  *int32            `yaml:"decimal_places"`
	RequiredFields []string          `yaml:"required_fields"`
	OptionalFields []string          `yaml:"optional_fields"`
	Languages      []string          `yaml:"languages"`
	FieldPatterns  map[string]string `yaml:"field_patterns"`
	Guards         []guardDoc        `yaml:"guards"`
}

type guardDoc struct {
	ID      string         `yaml:"id"`
	Field   string         `yaml:"field"`
	Message string         `yaml:"message"`
	Logic   map[string]any `yaml:"logic"`
}

type itemDoc struct {
	ID          string            `yaml:"id"`
	BasePrice   string            `yaml:"base_price"`
	Image       string            `yaml:"image"`
	Name        map[string]string `yaml:"name"`
	Description map[string]string `yaml:"description"`
}

type userDoc struct {
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	Behavior    string `yaml:"behavior"`
	Locked      bool   `yaml:"locked"`
	Description string `yaml:"description"`
}

type profileDoc struct {
	Latency      string         `yaml:"latency"`
	FailureRate  float64        `yaml:"failure_rate"`
	CatalogPatch map[string]any `yaml:"catalog_patch"`
}

// Loader reads fixtures from Path, or from the embedded defaults when Path is empty.
type Loader struct {
	Path string
}

func NewLoader(path string) *Loader {
	return &Loader{Path: path}
}

func (l *Loader) Load(ctx context.Context) (*domain.Fixtures, error) {
	if l.Path == "" {
		return LoadEmbedded()
	}
	return LoadFixtures(l.Path)
}

// LoadEmbedded parses the fixture set compiled into the binary.
func LoadEmbedded() (*domain.Fixtures, error) {
	return Parse(embeddedFixtures)
}

func LoadFixtures(path string) (*domain.Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a fixture document.
func Parse(data []byte) (*domain.Fixtures, error) {
	var doc fixtureFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fixtures: %w", err)
	}

	fx := &domain.Fixtures{
		ReferenceCurrency: strings.ToUpper(doc.ReferenceCurrency),
		DefaultLanguage:   doc.DefaultLanguage,
		Rates:             make(map[string]decimal.Decimal, len(doc.Rates)),
		Profiles:          make(map[domain.Behavior]domain.ProfileEffects, len(doc.Profiles)),
	}
	if fx.ReferenceCurrency == "" {
		return nil, fmt.Errorf("fixtures: reference_currency is required")
	}
	if fx.DefaultLanguage == "" {
		fx.DefaultLanguage = "en"
	}

	for code, raw := range doc.Rates {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("fixtures: rate %s: %w", code, err)
		}
		if !rate.IsPositive() {
			return nil, fmt.Errorf("fixtures: rate %s must be positive", code)
		}
		fx.Rates[strings.ToUpper(code)] = rate
	}

	for _, c := range doc.Countries {
		profile, err := c.toDomain()
		if err != nil {
			return nil, err
		}
		fx.Countries = append(fx.Countries, profile)
	}

	fx.CheckoutGuards = guardsToDomain(doc.CheckoutGuards)

	seen := map[string]bool{}
	for _, it := range doc.Catalog {
		if seen[it.ID] {
			return nil, fmt.Errorf("fixtures: duplicate catalog item %q", it.ID)
		}
		seen[it.ID] = true
		price, err := decimal.NewFromString(it.BasePrice)
		if err != nil {
			return nil, fmt.Errorf("fixtures: item %s base_price: %w", it.ID, err)
		}
		if !price.IsPositive() {
			return nil, fmt.Errorf("fixtures: item %s base_price must be positive", it.ID)
		}
		if len(it.Name) == 0 {
			return nil, fmt.Errorf("fixtures: item %s needs at least one name", it.ID)
		}
		fx.Catalog = append(fx.Catalog, domain.CatalogItem{
			ID:           it.ID,
			BasePrice:    price,
			Names:        it.Name,
			Descriptions: it.Description,
			Image:        it.Image,
		})
	}

	for _, u := range doc.Users {
		b := domain.Behavior(u.Behavior)
		if !b.Valid() {
			return nil, fmt.Errorf("fixtures: user %s has unknown behavior %q", u.Username, u.Behavior)
		}
		fx.Users = append(fx.Users, domain.FixtureUser{
			Username:    u.Username,
			Password:    u.Password,
			Behavior:    b,
			Locked:      u.Locked,
			Description: u.Description,
		})
	}

	for name, p := range doc.Profiles {
		b := domain.Behavior(name)
		if !b.Valid() {
			return nil, fmt.Errorf("fixtures: unknown profile %q", name)
		}
		effects := domain.ProfileEffects{FailureRate: p.FailureRate}
		if p.FailureRate < 0 || p.FailureRate > 1 {
			return nil, fmt.Errorf("fixtures: profile %s failure_rate must be within [0,1]", name)
		}
		if p.Latency != "" {
			d, err := time.ParseDuration(p.Latency)
			if err != nil {
				return nil, fmt.Errorf("fixtures: profile %s latency: %w", name, err)
			}
			effects.Latency = d
		}
		if len(p.CatalogPatch) > 0 {
			patch, err := json.Marshal(p.CatalogPatch)
			if err != nil {
				return nil, fmt.Errorf("fixtures: profile %s catalog_patch: %w", name, err)
			}
			effects.CatalogPatch = patch
		}
		fx.Profiles[b] = effects
	}

	return fx, nil
}

func (c countryDoc) toDomain() (domain.CountryProfile, error) {
	code := domain.CountryCode(strings.ToUpper(c.Code))
	tax, err := decimal.NewFromString(c.TaxRate)
	if err != nil {
		return domain.CountryProfile{}, fmt.Errorf("fixtures: country %s tax_rate: %w", code, err)
	}
	if tax.IsNegative() {
		return domain.CountryProfile{}, fmt.Errorf("fixtures: country %s tax_rate must not be negative", code)
	}
	places := int32(domain.DefaultDecimalPlaces)
	if c.DecimalPlaces != nil {
		if *c.DecimalPlaces < 0 {
			return domain.CountryProfile{}, fmt.Errorf("fixtures: country %s decimal_places must not be negative", code)
		}
		places = *c.DecimalPlaces
	}
	return domain.CountryProfile{
		Code:           code,
		Currency:       strings.ToUpper(c.Currency),
		CurrencySymbol: c.CurrencySymbol,
		TaxRate:        tax,
		DecimalPlaces:  places,
		RequiredFields: c.RequiredFields,
		OptionalFields: c.OptionalFields,
		Languages:      c.Languages,
		FieldPatterns:  c.FieldPatterns,
		Guards:         guardsToDomain(c.Guards),
	}, nil
}

func guardsToDomain(docs []guardDoc) []domain.GuardRule {
	out := make([]domain.GuardRule, 0, len(docs))
	for _, g := range docs {
		out = append(out, domain.GuardRule{ID: g.ID, Field: g.Field, Logic: g.Logic, Message: g.Message})
	}
	return out
}
