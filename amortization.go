package invest

import (
	"encoding/json"
	"fmt"

	"github.com/etnz/invest/date"
	"github.com/shopspring/decimal"
)

// AmortizationMode tells how the principal of a bond is repaid.
type AmortizationMode int

const (
	// Bullet repays the whole principal at maturity.
	Bullet AmortizationMode = iota
	// Custom repays the principal in scheduled partial installments.
	Custom
)

func (m AmortizationMode) String() string {
	switch m {
	case Bullet:
		return "bullet"
	case Custom:
		return "custom"
	default:
		return "unknown"
	}
}

// ParseAmortizationMode parses a string into an AmortizationMode.
func ParseAmortizationMode(s string) (AmortizationMode, error) {
	switch s {
	case "bullet", "":
		return Bullet, nil
	case "custom":
		return Custom, nil
	default:
		return 0, fmt.Errorf("unknown amortization mode: %q", s)
	}
}

func (m AmortizationMode) MarshalJSON() ([]byte, error) { return json.Marshal(m.String()) }
func (m *AmortizationMode) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	v, err := ParseAmortizationMode(str)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Checkpoint is a scheduled repayment of a fraction of the original principal.
type Checkpoint struct {
	Date     date.Date       `json:"date"`
	Fraction decimal.Decimal `json:"fraction"` // in (0, 1]
}

// Amortization is the principal repayment plan of a bond.
type Amortization struct {
	Mode        AmortizationMode
	Checkpoints []Checkpoint // only for Custom
}

// scheduleTolerance is the accepted distance between the sum of fractions and 1.
var scheduleTolerance = decimal.New(1, -6)

// Resolve returns the ordered repayment checkpoints for a bond maturing on maturity.
//
// A Bullet schedule is a single checkpoint at maturity. A Custom schedule is
// checked, never normalized: dates strictly increasing and not after
// maturity, each fraction in (0,1], fractions summing to 1 within 1e-6.
// Violations are reported as *ScheduleError.
func (a Amortization) Resolve(maturity date.Date) ([]Checkpoint, error) {
	switch a.Mode {
	case Bullet:
		if maturity.IsZero() {
			return nil, &ScheduleError{Index: -1, Reason: "missing maturity date"}
		}
		return []Checkpoint{{Date: maturity, Fraction: decimal.NewFromInt(1)}}, nil
	case Custom:
		return resolveCustom(a.Checkpoints, maturity)
	default:
		return nil, &ScheduleError{Index: -1, Reason: "unknown amortization mode " + a.Mode.String()}
	}
}

func resolveCustom(checkpoints []Checkpoint, maturity date.Date) ([]Checkpoint, error) {
	if len(checkpoints) == 0 {
		return nil, &ScheduleError{Index: -1, Reason: "custom schedule has no checkpoint"}
	}
	one := decimal.NewFromInt(1)
	var total decimal.Decimal
	for i, c := range checkpoints {
		switch {
		case c.Date.IsZero():
			return nil, &ScheduleError{Index: i, Reason: "missing date"}
		case !c.Fraction.IsPositive() || c.Fraction.GreaterThan(one):
			return nil, &ScheduleError{Index: i, Reason: fmt.Sprintf("fraction %s is not in (0,1]", c.Fraction)}
		case i > 0 && !c.Date.After(checkpoints[i-1].Date):
			return nil, &ScheduleError{Index: i, Reason: fmt.Sprintf("date %s does not follow %s", c.Date, checkpoints[i-1].Date)}
		case !maturity.IsZero() && c.Date.After(maturity):
			return nil, &ScheduleError{Index: i, Reason: fmt.Sprintf("date %s is after maturity %s", c.Date, maturity)}
		}
		total = total.Add(c.Fraction)
	}
	if total.Sub(one).Abs().GreaterThan(scheduleTolerance) {
		return nil, &ScheduleError{Index: -1, Reason: fmt.Sprintf("fractions sum to %s, not 1", total)}
	}
	return append([]Checkpoint(nil), checkpoints...), nil
}
