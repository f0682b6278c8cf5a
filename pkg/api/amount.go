package api

import (
	"github.com/shopspring/decimal"
)

// Amount is a decimal that travels as a bare JSON number with a fixed number
// of fractional digits, e.g. 454.65, 0.00 or 1936.
type Amount struct {
	Value  decimal.Decimal
	Places int32
}

func NewAmount(v decimal.Decimal, places int32) Amount {
	return Amount{Value: v, Places: max(places, 0)}
}

func (a Amount) String() string {
	return a.Value.StringFixed(a.Places)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a number or a quoted number. Places is taken from the
// literal, so "0.00" keeps two places.
func (a *Amount) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	a.Value = d
	a.Places = max(-d.Exponent(), 0)
	return nil
}
