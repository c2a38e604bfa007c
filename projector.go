package invest

import (
	"fmt"
	"sort"

	"github.com/etnz/invest/date"
	"github.com/shopspring/decimal"
)

// Projection is the complete set of future cashflows of one security.
//
// It replaces every previously projected cashflow of the security: it is never
// a patch.
type Projection struct {
	SecurityID string
	Cashflows  []Cashflow          // by date, interest before principal on the same day
	Degraded   *DegradedProjection // non nil when coupon dates are approximate
}

// Interest returns the total projected interest.
func (p *Projection) Interest() Money { return p.total(Interest) }

// Principal returns the total projected principal repayments.
func (p *Projection) Principal() Money { return p.total(Principal) }

func (p *Projection) total(kind CashflowKind) Money {
	var total Money
	for _, c := range p.Cashflows {
		if c.Kind == kind {
			total = total.Add(c.Amount)
		}
	}
	return total
}

// Project returns the cashflows expected on or after horizon for openQuantity
// units of sec.
//
// Securities without bond terms, and empty positions, project nothing.
func Project(sec Security, openQuantity Quantity, horizon date.Date) (*Projection, error) {
	terms := sec.Bond()
	if terms == nil || !openQuantity.IsPositive() {
		return &Projection{SecurityID: sec.ID()}, nil
	}
	if terms.FaceValue.Currency() == "" {
		terms.FaceValue = M(terms.FaceValue.value, sec.Currency())
	}
	checkpoints, err := terms.Amortization.Resolve(terms.MaturityDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sec.ID(), err)
	}
	return ProjectCashflows(sec.ID(), *terms, checkpoints, openQuantity, horizon)
}

// ProjectCashflows enumerates the coupon grid of terms and emits, for every
// date on or after horizon, the interest on the outstanding principal and the
// principal repaid by checkpoints.
//
// Interest paid on a date is computed on the principal outstanding before any
// repayment of that same date. A checkpoint falling between two coupon dates
// is paid on its own date and reduces the base of the following coupon.
// Checkpoints before horizon are not emitted but still reduce the outstanding
// principal.
func ProjectCashflows(securityID string, terms BondTerms, checkpoints []Checkpoint, openQuantity Quantity, horizon date.Date) (*Projection, error) {
	if err := terms.validate(securityID); err != nil {
		return nil, err
	}
	p := &Projection{SecurityID: securityID}
	if !openQuantity.IsPositive() || terms.MaturityDate.Before(horizon) {
		return p, nil
	}

	anchor, first := terms.EmissionDate, 1
	if anchor.IsZero() {
		// Degraded: the first of the horizon month is taken as a coupon date.
		anchor, first = horizon.StartOfMonth(), 0
		p.Degraded = &DegradedProjection{SecurityID: securityID, Anchor: anchor}
	}
	for i, c := range checkpoints {
		if !terms.EmissionDate.IsZero() && !c.Date.After(terms.EmissionDate) {
			return nil, &ScheduleError{Index: i, Reason: fmt.Sprintf("date %s is not after emission %s", c.Date, terms.EmissionDate)}
		}
	}

	notional := terms.FaceValue.Mul(openQuantity)
	outstanding := notional
	periodRate := terms.CouponRate.value.Mul(decimal.NewFromInt(int64(terms.FrequencyMonths))).Div(decimal.NewFromInt(12))

	emit := func(on date.Date, kind CashflowKind, amount Money) {
		amount = amount.Round()
		if on.Before(horizon) || amount.IsZero() {
			return
		}
		p.Cashflows = append(p.Cashflows, Cashflow{
			SecurityID: securityID,
			Date:       on,
			Kind:       kind,
			Amount:     amount,
			Status:     Projected,
		})
	}

	pending := checkpoints
	paid := M(0, notional.Currency()) // rounded principal repaid so far
	// repay applies every pending checkpoint accepted by until. The last
	// checkpoint repays whatever is outstanding, and each repayment is the
	// rounded cumulative amount minus what was already paid, so principal
	// events add up to the notional.
	repay := func(until func(date.Date) bool) {
		for len(pending) > 0 && until(pending[0].Date) {
			repaid := notional.Mul(Q(pending[0].Fraction))
			if len(pending) == 1 {
				repaid = outstanding
			}
			outstanding = outstanding.Sub(repaid)
			amount := notional.Sub(outstanding).Round().Sub(paid)
			paid = paid.Add(amount)
			emit(pending[0].Date, Principal, amount)
			pending = pending[1:]
		}
	}

	for _, c := range couponDates(anchor, first, terms.FrequencyMonths, terms.MaturityDate) {
		repay(c.on.After)
		emit(c.on, Interest, outstanding.Mul(Q(periodRate.Mul(c.accrual))))
		repay(func(d date.Date) bool { return d == c.on })
	}

	sort.SliceStable(p.Cashflows, func(i, j int) bool {
		a, b := p.Cashflows[i], p.Cashflows[j]
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		return a.Kind < b.Kind
	})
	return p, nil
}

// couponDate is a payment date and the fraction of a full period it accrues.
type couponDate struct {
	on      date.Date
	accrual decimal.Decimal
}

// couponDates returns anchor + k*frequency months for k >= first, up to
// maturity included. Each date is computed from the anchor so end of month
// clamping never drifts. When maturity is not on the grid it closes a short
// last period, pro-rated by days.
func couponDates(anchor date.Date, first, frequency int, maturity date.Date) []couponDate {
	one := decimal.NewFromInt(1)
	var dates []couponDate
	k := first
	for ; ; k++ {
		on := anchor.AddMonth(k * frequency)
		if on.After(maturity) {
			break
		}
		dates = append(dates, couponDate{on: on, accrual: one})
	}
	// k is the first grid index past maturity.
	prev := anchor.AddMonth((k - 1) * frequency)
	if len(dates) > 0 && dates[len(dates)-1].on == maturity {
		return dates
	}
	next := anchor.AddMonth(k * frequency)
	accrual := decimal.NewFromInt(int64(prev.DaysUntil(maturity))).Div(decimal.NewFromInt(int64(prev.DaysUntil(next))))
	return append(dates, couponDate{on: maturity, accrual: accrual})
}
