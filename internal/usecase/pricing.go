package usecase

import (
	"fmt"

	"github.com/gsanchezm/OmniPizza/internal/domain"
	"github.com/shopspring/decimal"
)

// PricingEngine converts reference prices into local currencies and computes
// order totals. All arithmetic is exact decimal; rounding happens once per
// displayed amount.
type PricingEngine struct {
	reference string
	rates     map[string]decimal.Decimal
	catalog   *CatalogStore
}

func NewPricingEngine(reference string, rates map[string]decimal.Decimal, catalog *CatalogStore) *PricingEngine {
	return &PricingEngine{reference: reference, rates: rates, catalog: catalog}
}

// Round rounds half-to-even to places.
func Round(v decimal.Decimal, places int32) decimal.Decimal {
	return v.RoundBank(places)
}

// Convert multiplies an amount in the reference currency by the target rate.
// The result is not rounded.
func (p *PricingEngine) Convert(amount decimal.Decimal, currency string) (decimal.Decimal, error) {
	rate, ok := p.rates[currency]
	if !ok {
		return decimal.Decimal{}, domain.Errorf(domain.KindUnknownCurrency, "no conversion rate for currency %s", currency)
	}
	return amount.Mul(rate), nil
}

// LocalPrice is the displayed price of a single unit in the country's currency.
func (p *PricingEngine) LocalPrice(base decimal.Decimal, country domain.CountryProfile) (decimal.Decimal, error) {
	v, err := p.Convert(base, country.Currency)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return Round(v, country.DecimalPlaces), nil
}

// Subtotal is the unrounded sum of converted line amounts.
func (p *PricingEngine) Subtotal(items []domain.LineItem, country domain.CountryProfile) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, li := range items {
		item, ok := p.catalog.Get(li.ItemID)
		if !ok {
			return decimal.Decimal{}, &domain.Error{
				Kind:    domain.KindUnknownItem,
				Field:   "items",
				Message: fmt.Sprintf("Pizza %s not found", li.ItemID),
			}
		}
		line, err := p.Convert(item.BasePrice.Mul(decimal.NewFromInt(int64(li.Quantity))), country.Currency)
		if err != nil {
			return decimal.Decimal{}, err
		}
		sum = sum.Add(line)
	}
	return sum, nil
}

// ComputeTotals prices a cart. Each displayed field is rounded on its own and
// the total is derived from the unrounded parts, so subtotal+tax+tip may
// differ from total by one unit in the last place.
func (p *PricingEngine) ComputeTotals(items []domain.LineItem, country domain.CountryProfile, tip decimal.Decimal) (domain.OrderTotals, error) {
	subtotal, err := p.Subtotal(items, country)
	if err != nil {
		return domain.OrderTotals{}, err
	}
	tax := subtotal.Mul(country.TaxRate)
	total := subtotal.Add(tax).Add(tip)

	places := country.DecimalPlaces
	return domain.OrderTotals{
		Subtotal: Round(subtotal, places),
		Tax:      Round(tax, places),
		Tip:      Round(tip, places),
		Total:    Round(total, places),
		Currency: country.Currency,
	}, nil
}
