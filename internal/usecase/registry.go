package usecase

import (
	"fmt"
	"strings"

	"github.com/gsanchezm/OmniPizza/internal/domain"
)

// CountryRegistry resolves country profiles. It is read-only after construction.
type CountryRegistry struct {
	profiles map[domain.CountryCode]domain.CountryProfile
	order    []domain.CountryCode
}

func NewCountryRegistry(profiles []domain.CountryProfile) (*CountryRegistry, error) {
	r := &CountryRegistry{profiles: make(map[domain.CountryCode]domain.CountryProfile, len(profiles))}
	for _, p := range profiles {
		if _, dup := r.profiles[p.Code]; dup {
			return nil, fmt.Errorf("duplicate country profile %s", p.Code)
		}
		if p.DecimalPlaces < 0 {
			p.DecimalPlaces = domain.DefaultDecimalPlaces
		}
		r.profiles[p.Code] = p
		r.order = append(r.order, p.Code)
	}
	return r, nil
}

// Resolve looks up a country case-insensitively.
func (r *CountryRegistry) Resolve(countryID string) (domain.CountryProfile, error) {
	code := domain.CountryCode(strings.ToUpper(strings.TrimSpace(countryID)))
	p, ok := r.profiles[code]
	if !ok {
		return domain.CountryProfile{}, &domain.Error{
			Kind:    domain.KindUnknownCountry,
			Field:   "country_code",
			Message: fmt.Sprintf("Invalid country code: %s. Valid values: %s", countryID, r.validList()),
		}
	}
	return p, nil
}

// List returns every profile in declaration order.
func (r *CountryRegistry) List() []domain.CountryProfile {
	out := make([]domain.CountryProfile, 0, len(r.order))
	for _, c := range r.order {
		out = append(out, r.profiles[c])
	}
	return out
}

func (r *CountryRegistry) Codes() []domain.CountryCode {
	return append([]domain.CountryCode(nil), r.order...)
}

func (r *CountryRegistry) validList() string {
	codes := make([]string, len(r.order))
	for i, c := range r.order {
		codes[i] = string(c)
	}
	return strings.Join(codes, ", ")
}
