package invest

import (
	"github.com/etnz/invest/date"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

// EUR is a helper for test to create euro money from const
func EUR(v float64) Money { return M(v, "EUR") }

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// day is a helper for test to parse a date literal.
func day(s string) date.Date { return date.MustParse(s) }

// buy is a helper for test to create a EUR buy of "SEC" without commission.
func buy(id, on string, qty, price float64) Trade {
	return NewBuy(id, day(on), "SEC", Q(qty), EUR(price), Money{})
}

// sell is a helper for test to create a EUR sell of "SEC" without commission.
func sell(id, on string, qty, price float64) Trade {
	return NewSell(id, day(on), "SEC", Q(qty), EUR(price), Money{})
}

// bond is a helper for test to create the terms of a 100 EUR face value bond.
func bond(rate float64, frequency int, emission, maturity string) BondTerms {
	terms := BondTerms{
		FaceValue:       EUR(100),
		CouponRate:      R(rate),
		FrequencyMonths: frequency,
		MaturityDate:    day(maturity),
	}
	if emission != "" {
		terms.EmissionDate = day(emission)
	}
	return terms
}

// cmpOpts compares decimal backed values by value, so that 1000 equals 1000.00.
var cmpOpts = cmp.Options{
	cmp.Comparer(func(a, b Money) bool { return a.Equal(b) }),
	cmp.Comparer(func(a, b Quantity) bool { return a.Equal(b) }),
	cmp.Comparer(func(a, b Rate) bool { return a.Equal(b) }),
	cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) }),
	cmp.Comparer(func(a, b date.Date) bool { return a == b }),
}
