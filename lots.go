package invest

import (
	"github.com/etnz/invest/date"
)

// Lot is the still open part of a single buy trade.
type Lot struct {
	OriginTradeID string
	OpenDate      date.Date
	Quantity      Quantity
	Cost          Money // Total cost of the remaining quantity, buy commission included.
}

// UnitCost returns the cost of one unit of the lot, at full precision.
func (l Lot) UnitCost() Money { return l.Cost.Div(l.Quantity) }

// RealizedGain is the gain locked in when a sell closes (part of) a lot.
type RealizedGain struct {
	SellTradeID       string
	LotOriginID       string
	Quantity          Quantity
	CostBasis         Money
	Proceeds          Money // net of the pro-rated sell commission
	Gain              Money // Proceeds - CostBasis
	OpenDate          date.Date
	CloseDate         date.Date
	HoldingPeriodDays int
}

// LotReport is the output of the FIFO engine for one security.
type LotReport struct {
	SecurityID string
	Currency   string
	Gains      []RealizedGain
	Lots       []Lot // open lots, oldest first
}

// OpenQuantity returns the total quantity still held.
func (r *LotReport) OpenQuantity() Quantity {
	var q Quantity
	for _, l := range r.Lots {
		q = q.Add(l.Quantity)
	}
	return q
}

// OpenCost returns the total cost basis of the open lots.
func (r *LotReport) OpenCost() Money {
	total := M(0, r.Currency)
	for _, l := range r.Lots {
		total = total.Add(l.Cost)
	}
	return total
}

// TotalGain returns the sum of all realized gains.
func (r *LotReport) TotalGain() Money {
	total := M(0, r.Currency)
	for _, g := range r.Gains {
		total = total.Add(g.Gain)
	}
	return total
}

// TotalProceeds returns the sum of all realized proceeds.
func (r *LotReport) TotalProceeds() Money {
	total := M(0, r.Currency)
	for _, g := range r.Gains {
		total = total.Add(g.Proceeds)
	}
	return total
}

// TotalCostBasis returns the sum of the cost basis of every closed quantity.
func (r *LotReport) TotalCostBasis() Money {
	total := M(0, r.Currency)
	for _, g := range r.Gains {
		total = total.Add(g.CostBasis)
	}
	return total
}

// GainsBySell returns the gains produced by a single sell trade, in lot order.
func (r *LotReport) GainsBySell(sellTradeID string) []RealizedGain {
	var gains []RealizedGain
	for _, g := range r.Gains {
		if g.SellTradeID == sellTradeID {
			gains = append(gains, g)
		}
	}
	return gains
}

// ComputeFIFO matches sells against the oldest open lots.
//
// Trades must belong to a single security and be sorted by date, ties in the
// caller's order. They are never re-sorted: a trade dated before its
// predecessor is an *InvalidTradeOrderingError.
//
// A sell larger than the open lots stops the computation: the report holds
// every gain realized so far and the error is an *InsufficientInventoryError
// carrying the unmatched quantity.
func ComputeFIFO(trades []Trade) (*LotReport, error) {
	if err := checkTrades(trades); err != nil {
		return nil, err
	}
	report := &LotReport{}
	if len(trades) > 0 {
		report.SecurityID = trades[0].SecurityID
		report.Currency = trades[0].Currency()
	}

	var open lots
	for _, tx := range trades {
		switch tx.Side {
		case Buy:
			open = append(open, Lot{
				OriginTradeID: tx.ID,
				OpenDate:      tx.Date,
				Quantity:      tx.Quantity,
				Cost:          tx.Cost(),
			})
		case Sell:
			var gains []RealizedGain
			var unmatched Quantity
			open, gains, unmatched = open.sell(tx)
			report.Gains = append(report.Gains, gains...)
			if unmatched.IsPositive() {
				report.Lots = open
				return report, &InsufficientInventoryError{SellTradeID: tx.ID, Date: tx.Date, Unmatched: unmatched}
			}
		}
	}
	report.Lots = open
	return report, nil
}

// checkTrades validates each trade and the ordering contract.
func checkTrades(trades []Trade) error {
	for i, tx := range trades {
		if err := tx.Validate(); err != nil {
			return err
		}
		if i == 0 {
			continue
		}
		prev := trades[i-1]
		if tx.SecurityID != prev.SecurityID {
			return &InvalidTradeError{TradeID: tx.ID, Reason: "security " + tx.SecurityID + " mixed with " + prev.SecurityID}
		}
		if tx.Currency() != prev.Currency() {
			return &InvalidTradeError{TradeID: tx.ID, Reason: "currency " + tx.Currency() + " mixed with " + prev.Currency()}
		}
		if tx.Date.Before(prev.Date) {
			return &InvalidTradeOrderingError{Index: i, Previous: prev.Date, Date: tx.Date}
		}
	}
	return nil
}

type lots []Lot

// sell consumes the lots first-in first-out for the sell trade tx.
// It returns the remaining lots, one gain per consumed lot, and the quantity
// that could not be matched.
func (l lots) sell(tx Trade) (lots, []RealizedGain, Quantity) {
	var gains []RealizedGain
	toSell := tx.Quantity
	commission := tx.Commission // left to allocate

	for len(l) > 0 && toSell.IsPositive() {
		current := l[0]
		consumed := toSell.Min(current.Quantity)

		var cost Money
		if consumed.Equal(current.Quantity) {
			// Full sale of this lot, its residual cost is exact.
			cost = current.Cost
			l = l[1:]
		} else {
			// Partial sale from this lot
			cost = current.Cost.Mul(consumed).Div(current.Quantity)
			l = append(lots{{
				OriginTradeID: current.OriginTradeID,
				OpenDate:      current.OpenDate,
				Quantity:      current.Quantity.Sub(consumed),
				Cost:          current.Cost.Sub(cost),
			}}, l[1:]...)
		}
		toSell = toSell.Sub(consumed)

		fee := commission
		if toSell.IsPositive() {
			fee = tx.Commission.Mul(consumed).Div(tx.Quantity)
		}
		commission = commission.Sub(fee)

		costBasis := cost.Round()
		proceeds := tx.Price.Mul(consumed).Sub(fee).Round()
		gains = append(gains, RealizedGain{
			SellTradeID:       tx.ID,
			LotOriginID:       current.OriginTradeID,
			Quantity:          consumed,
			CostBasis:         costBasis,
			Proceeds:          proceeds,
			Gain:              proceeds.Sub(costBasis),
			OpenDate:          current.OpenDate,
			CloseDate:         tx.Date,
			HoldingPeriodDays: current.OpenDate.DaysUntil(tx.Date),
		})
	}
	return l, gains, toSell
}
