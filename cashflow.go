package invest

import (
	"encoding/json"
	"fmt"

	"github.com/etnz/invest/date"
)

// CashflowKind distinguishes coupon payments from principal repayments.
type CashflowKind int

const (
	Interest CashflowKind = iota
	Principal
)

func (k CashflowKind) String() string {
	switch k {
	case Interest:
		return "interest"
	case Principal:
		return "amortization"
	default:
		return "unknown"
	}
}

// ParseCashflowKind parses a string into a CashflowKind.
func ParseCashflowKind(s string) (CashflowKind, error) {
	switch s {
	case "interest":
		return Interest, nil
	case "amortization":
		return Principal, nil
	default:
		return 0, fmt.Errorf("unknown cashflow kind: %q", s)
	}
}

func (k CashflowKind) MarshalJSON() ([]byte, error) { return json.Marshal(k.String()) }

// CashflowStatus tells whether a cashflow is still expected or already settled.
type CashflowStatus int

const (
	// Projected cashflows are produced by the projector and replaced wholesale.
	Projected CashflowStatus = iota
	// Realized cashflows were marked paid by the storage layer.
	Realized
)

func (s CashflowStatus) String() string {
	switch s {
	case Projected:
		return "projected"
	case Realized:
		return "realized"
	default:
		return "unknown"
	}
}

// ParseCashflowStatus parses a string into a CashflowStatus.
func ParseCashflowStatus(s string) (CashflowStatus, error) {
	switch s {
	case "projected":
		return Projected, nil
	case "realized":
		return Realized, nil
	default:
		return 0, fmt.Errorf("unknown cashflow status: %q", s)
	}
}

func (s CashflowStatus) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

// Cashflow is a dated interest or principal payment of a security.
type Cashflow struct {
	SecurityID string
	Date       date.Date
	Kind       CashflowKind
	Amount     Money
	Status     CashflowStatus
}

// MarshalJSON writes the fields in a fixed order.
func (c Cashflow) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("security", c.SecurityID)
	w.Append("date", c.Date)
	w.Append("kind", c.Kind)
	w.EmbedFrom(c.Amount)
	w.Append("status", c.Status)
	return w.MarshalJSON()
}
