package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gsanchezm/OmniPizza/internal/domain"
	"github.com/gsanchezm/OmniPizza/internal/interfaces"
	"golang.org/x/text/language"
)

// CatalogService assembles the localized, priced catalog for one market.
type CatalogService struct {
	registry        *CountryRegistry
	store           *CatalogStore
	pricing         *PricingEngine
	faults          *FaultInjector
	patcher         interfaces.CatalogPatcher
	defaultLanguage string
}

func NewCatalogService(registry *CountryRegistry, store *CatalogStore, pricing *PricingEngine, faults *FaultInjector, patcher interfaces.CatalogPatcher, defaultLanguage string) *CatalogService {
	return &CatalogService{
		registry:        registry,
		store:           store,
		pricing:         pricing,
		faults:          faults,
		patcher:         patcher,
		defaultLanguage: defaultLanguage,
	}
}

// Assemble prices every catalog item for countryID. lang may be a bare tag
// or an Accept-Language value; an empty or unparseable value selects the
// country's default language.
func (s *CatalogService) Assemble(ctx context.Context, behavior domain.Behavior, countryID, lang string) (domain.Catalog, error) {
	if err := s.faults.Delay(ctx, behavior); err != nil {
		return domain.Catalog{}, err
	}

	country, err := s.registry.Resolve(countryID)
	if err != nil {
		return domain.Catalog{}, err
	}
	requested := CanonicalLanguage(lang)
	if requested == "" {
		requested = country.DefaultLanguage()
	}

	patch := s.faults.CatalogPatch(behavior)
	items := s.store.All()
	entries := make([]domain.PricedCatalogEntry, 0, len(items))
	for _, item := range items {
		price, err := s.pricing.LocalPrice(item.BasePrice, country)
		if err != nil {
			return domain.Catalog{}, err
		}
		used := s.pickLanguage(item.Names, requested)
		entry := domain.PricedCatalogEntry{
			ID:             item.ID,
			Name:           item.Names[used],
			Description:    localized(item.Descriptions, used, s.defaultLanguage),
			Price:          price,
			BasePrice:      item.BasePrice,
			Currency:       country.Currency,
			CurrencySymbol: country.CurrencySymbol,
			Image:          item.Image,
			Language:       used,
		}
		// The override runs after pricing.
		if len(patch) > 0 {
			entry, err = s.patcher.Apply(entry, patch)
			if err != nil {
				return domain.Catalog{}, fmt.Errorf("catalog entry %s: %w", item.ID, err)
			}
		}
		entries = append(entries, entry)
	}
	return domain.Catalog{Country: country, Entries: entries}, nil
}

// pickLanguage chooses the language whose text is shown: the requested one,
// then the designated default, then the lexicographically first available.
func (s *CatalogService) pickLanguage(texts map[string]string, requested string) string {
	if _, ok := texts[requested]; ok {
		return requested
	}
	if _, ok := texts[s.defaultLanguage]; ok {
		return s.defaultLanguage
	}
	return firstKey(texts)
}

func localized(texts map[string]string, lang, fallback string) string {
	if t, ok := texts[lang]; ok {
		return t
	}
	if t, ok := texts[fallback]; ok {
		return t
	}
	if k := firstKey(texts); k != "" {
		return texts[k]
	}
	return ""
}

func firstKey(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[0]
}

// CanonicalLanguage reduces a language tag or Accept-Language header to the
// base language of its highest-priority entry ("es-MX" becomes "es").
func CanonicalLanguage(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return ""
	}
	base, conf := tags[0].Base()
	if conf == language.No {
		return ""
	}
	return base.String()
}
