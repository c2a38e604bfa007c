package invest

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Rate is an annual rate expressed as a fraction (0.08 for 8%).
type Rate struct {
	value decimal.Decimal
}

// R returns the rate for a fraction.
func R[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) Rate {
	return Rate{value: newDecimal(value)}
}

// ParseRate reads "8%" or "0.08".
func ParseRate(s string) (Rate, error) {
	if n := len(s); n > 0 && s[n-1] == '%' {
		v, err := decimal.NewFromString(s[:n-1])
		if err != nil {
			return Rate{}, fmt.Errorf("invalid rate %q: %w", s, err)
		}
		return Rate{value: v.Shift(-2)}, nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return Rate{}, fmt.Errorf("invalid rate %q: %w", s, err)
	}
	return Rate{value: v}, nil
}

func (r Rate) IsNegative() bool         { return r.value.IsNegative() }
func (r Rate) Equal(s Rate) bool        { return r.value.Equal(s.value) }
func (r Rate) Decimal() decimal.Decimal { return r.value }

// String renders the rate as a percentage.
func (r Rate) String() string {
	return r.value.Shift(2).String() + "%"
}

func (r Rate) MarshalJSON() ([]byte, error) { return r.value.MarshalJSON() }
func (r *Rate) UnmarshalJSON(b []byte) error {
	return r.value.UnmarshalJSON(b)
}
