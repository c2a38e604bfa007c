package invest

import (
	"errors"
	"fmt"

	"github.com/etnz/invest/date"
)

// Security represents a tradeable asset. Bonds carry their coupon and
// amortization terms, other securities have none and project no cashflow.
type Security struct {
	id          string     // The unique identifier used by trades.
	currency    string     // The currency in which the security is traded.
	description string     // A user-provided description for the security.
	bond        *BondTerms // nil for securities without fixed income.
}

// NewSecurity returns a security without fixed-income terms.
func NewSecurity(id, currency, description string) Security {
	return Security{id: id, currency: currency, description: description}
}

// NewBond returns a fixed-income security.
func NewBond(id, currency, description string, terms BondTerms) Security {
	return Security{id: id, currency: currency, description: description, bond: &terms}
}

// ID returns the unique identifier of the security.
func (s Security) ID() string { return s.id }

func (s Security) Currency() string { return s.currency }

// Description returns the user-provided description for the security.
func (s Security) Description() string { return s.description }

// Bond returns a copy of the fixed-income terms, or nil.
func (s Security) Bond() *BondTerms {
	if s.bond == nil {
		return nil
	}
	terms := *s.bond
	terms.Amortization.Checkpoints = append([]Checkpoint(nil), s.bond.Amortization.Checkpoints...)
	return &terms
}

// Validate checks the security can be traded and, for a bond, that its terms
// can produce a coupon grid. The amortization schedule is checked on
// projection.
func (s Security) Validate() error {
	if s.id == "" {
		return errors.New("missing security id")
	}
	if err := ValidateCurrency(s.currency); err != nil {
		return fmt.Errorf("%s: %w", s.id, err)
	}
	if s.bond != nil {
		return s.bond.validate(s.id)
	}
	return nil
}

// BondTerms are the contractual terms of a fixed-income security, per unit held.
type BondTerms struct {
	FaceValue       Money     // principal repaid per unit
	CouponRate      Rate      // annual
	FrequencyMonths int       // months between two coupons
	EmissionDate    date.Date // zero when unknown, the projection is then degraded
	MaturityDate    date.Date
	Amortization    Amortization
}

// validate checks the terms can produce a coupon grid.
func (t BondTerms) validate(securityID string) error {
	invalid := func(reason string) error { return &InvalidTermsError{SecurityID: securityID, Reason: reason} }
	switch {
	case t.FrequencyMonths <= 0:
		return invalid("payment frequency must be a positive number of months")
	case !t.FaceValue.IsPositive():
		return invalid("face value must be positive")
	case t.CouponRate.IsNegative():
		return invalid("coupon rate must not be negative")
	case t.MaturityDate.IsZero():
		return invalid("missing maturity date")
	case !t.EmissionDate.IsZero() && !t.EmissionDate.Before(t.MaturityDate):
		return invalid("emission date " + t.EmissionDate.String() + " is not before maturity " + t.MaturityDate.String())
	}
	return nil
}
