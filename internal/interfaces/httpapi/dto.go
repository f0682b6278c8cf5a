package httpapi

import (
	"github.com/gsanchezm/OmniPizza/internal/domain"
	"github.com/gsanchezm/OmniPizza/pkg/api"
	"github.com/shopspring/decimal"
)

func toUserProfile(id domain.Identity) api.UserProfile {
	return api.UserProfile{Username: id.Username, Behavior: string(id.Behavior), Description: id.Description}
}

func toCountryInfo(p domain.CountryProfile) api.CountryInfo {
	return api.CountryInfo{
		Code:           string(p.Code),
		Currency:       p.Currency,
		CurrencySymbol: p.CurrencySymbol,
		RequiredFields: nonNil(p.RequiredFields),
		OptionalFields: nonNil(p.OptionalFields),
		TaxRate:        api.NewAmount(p.TaxRate, max(-p.TaxRate.Exponent(), 1)),
		Languages:      nonNil(p.Languages),
		DecimalPlaces:  p.DecimalPlaces,
	}
}

func toPizza(e domain.PricedCatalogEntry, places int32) api.Pizza {
	return api.Pizza{
		ID:             e.ID,
		Name:           e.Name,
		Description:    e.Description,
		Price:          api.NewAmount(e.Price, places),
		BasePrice:      api.NewAmount(e.BasePrice, 2),
		Currency:       e.Currency,
		CurrencySymbol: e.CurrencySymbol,
		Image:          e.Image,
		Language:       e.Language,
	}
}

func toCartItems(items []domain.LineItem) []api.CartItem {
	out := make([]api.CartItem, len(items))
	for i, it := range items {
		out[i] = api.CartItem{PizzaID: it.ItemID, Quantity: it.Quantity}
	}
	return out
}

func fromCartItems(items []api.CartItem) []domain.LineItem {
	out := make([]domain.LineItem, len(items))
	for i, it := range items {
		out[i] = domain.LineItem{ItemID: it.PizzaID, Quantity: it.Quantity}
	}
	return out
}

func toQuoteResponse(t domain.OrderTotals, c domain.CountryProfile) api.QuoteResponse {
	p := c.DecimalPlaces
	return api.QuoteResponse{
		CountryCode:    string(c.Code),
		Subtotal:       api.NewAmount(t.Subtotal, p),
		Tax:            api.NewAmount(t.Tax, p),
		Tip:            api.NewAmount(t.Tip, p),
		Total:          api.NewAmount(t.Total, p),
		Currency:       t.Currency,
		CurrencySymbol: c.CurrencySymbol,
	}
}

// fromCheckoutRequest flattens the named country fields into the generic
// field map the checkout service validates.
func fromCheckoutRequest(r api.CheckoutRequest) domain.CheckoutRequest {
	fields := make(map[string]string, len(r.Fields)+4)
	for k, v := range r.Fields {
		fields[k] = v
	}
	for k, v := range map[string]string{
		"colonia":    r.Colonia,
		"zip_code":   r.ZipCode,
		"plz":        r.Plz,
		"prefectura": r.Prefectura,
	} {
		if v != "" {
			fields[k] = v
		}
	}

	var tip *decimal.Decimal
	switch {
	case r.Propina != nil:
		tip = r.Propina
	case r.Tip != nil:
		tip = r.Tip
	}
	return domain.CheckoutRequest{
		Country:  r.CountryCode,
		Items:    fromCartItems(r.Items),
		Customer: domain.CustomerInfo{Name: r.Name, Address: r.Address, Phone: r.Phone},
		Fields:   fields,
		Tip:      tip,
	}
}

func toOrderSummary(o domain.Order, places int32) api.OrderSummary {
	return api.OrderSummary{
		OrderID:        o.ID,
		Subtotal:       api.NewAmount(o.Totals.Subtotal, places),
		Tax:            api.NewAmount(o.Totals.Tax, places),
		Tip:            api.NewAmount(o.Totals.Tip, places),
		Total:          api.NewAmount(o.Totals.Total, places),
		Currency:       o.Totals.Currency,
		CurrencySymbol: o.CurrencySymbol,
		Items:          toCartItems(o.Items),
		Timestamp:      o.CreatedAt,
	}
}

func toOrder(o domain.Order, places int32) api.Order {
	info := map[string]string{
		"name":    o.Customer.Name,
		"address": o.Customer.Address,
		"phone":   o.Customer.Phone,
	}
	for k, v := range o.Extra {
		info[k] = v
	}
	return api.Order{
		OrderID:        o.ID,
		Username:       o.Username,
		CountryCode:    string(o.Country),
		Items:          toCartItems(o.Items),
		CustomerInfo:   info,
		Subtotal:       api.NewAmount(o.Totals.Subtotal, places),
		Tax:            api.NewAmount(o.Totals.Tax, places),
		Tip:            api.NewAmount(o.Totals.Tip, places),
		Total:          api.NewAmount(o.Totals.Total, places),
		Currency:       o.Totals.Currency,
		CurrencySymbol: o.CurrencySymbol,
		Status:         string(o.Status),
		Timestamp:      o.CreatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
