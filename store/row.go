package store

import (
	"fmt"

	"github.com/etnz/invest"
	"github.com/etnz/invest/date"
	"github.com/shopspring/decimal"
)

// cashflowRow is a cashflow as stored: decimals and enums as text.
type cashflowRow struct {
	SecurityID string `json:"security"`
	Date       string `json:"date"`
	Kind       string `json:"kind"`
	Currency   string `json:"currency"`
	Amount     string `json:"amount"`
	Status     string `json:"status"`
}

func newCashflowRow(securityID string, c invest.Cashflow) cashflowRow {
	return cashflowRow{
		SecurityID: securityID,
		Date:       c.Date.String(),
		Kind:       c.Kind.String(),
		Currency:   c.Amount.Currency(),
		Amount:     c.Amount.Decimal().String(),
		Status:     c.Status.String(),
	}
}

func (r cashflowRow) cashflow() (invest.Cashflow, error) {
	on, err := date.Parse(r.Date)
	if err != nil {
		return invest.Cashflow{}, fmt.Errorf("cashflow of %s: %w", r.SecurityID, err)
	}
	kind, err := invest.ParseCashflowKind(r.Kind)
	if err != nil {
		return invest.Cashflow{}, fmt.Errorf("cashflow of %s on %s: %w", r.SecurityID, r.Date, err)
	}
	status, err := invest.ParseCashflowStatus(r.Status)
	if err != nil {
		return invest.Cashflow{}, fmt.Errorf("cashflow of %s on %s: %w", r.SecurityID, r.Date, err)
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return invest.Cashflow{}, fmt.Errorf("cashflow of %s on %s: invalid amount: %w", r.SecurityID, r.Date, err)
	}
	return invest.Cashflow{
		SecurityID: r.SecurityID,
		Date:       on,
		Kind:       kind,
		Amount:     invest.M(amount, r.Currency),
		Status:     status,
	}, nil
}

// gainRow is a realized gain as stored.
type gainRow struct {
	SellTradeID string `json:"sell"`
	LotOriginID string `json:"lot"`
	SecurityID  string `json:"security"`
	Quantity    string `json:"quantity"`
	Currency    string `json:"currency"`
	CostBasis   string `json:"costBasis"`
	Proceeds    string `json:"proceeds"`
	Gain        string `json:"gain"`
	OpenDate    string `json:"open"`
	CloseDate   string `json:"close"`
	Days        int    `json:"days"`
}

func newGainRow(securityID string, g invest.RealizedGain) gainRow {
	return gainRow{
		SellTradeID: g.SellTradeID,
		LotOriginID: g.LotOriginID,
		SecurityID:  securityID,
		Quantity:    g.Quantity.Decimal().String(),
		Currency:    g.CostBasis.Currency(),
		CostBasis:   g.CostBasis.Decimal().String(),
		Proceeds:    g.Proceeds.Decimal().String(),
		Gain:        g.Gain.Decimal().String(),
		OpenDate:    g.OpenDate.String(),
		CloseDate:   g.CloseDate.String(),
		Days:        g.HoldingPeriodDays,
	}
}

func (r gainRow) gain() (invest.RealizedGain, error) {
	var errs []error
	num := func(s string) decimal.Decimal {
		d, err := decimal.NewFromString(s)
		if err != nil {
			errs = append(errs, err)
		}
		return d
	}
	day := func(s string) date.Date {
		d, err := date.Parse(s)
		if err != nil {
			errs = append(errs, err)
		}
		return d
	}
	g := invest.RealizedGain{
		SellTradeID:       r.SellTradeID,
		LotOriginID:       r.LotOriginID,
		Quantity:          invest.Q(num(r.Quantity)),
		CostBasis:         invest.M(num(r.CostBasis), r.Currency),
		Proceeds:          invest.M(num(r.Proceeds), r.Currency),
		Gain:              invest.M(num(r.Gain), r.Currency),
		OpenDate:          day(r.OpenDate),
		CloseDate:         day(r.CloseDate),
		HoldingPeriodDays: r.Days,
	}
	if len(errs) > 0 {
		return invest.RealizedGain{}, fmt.Errorf("gain of sell %s on lot %s: %w", r.SellTradeID, r.LotOriginID, errs[0])
	}
	return g, nil
}

func cashflowsFromRows(rows []cashflowRow) ([]invest.Cashflow, error) {
	cashflows := make([]invest.Cashflow, 0, len(rows))
	for _, r := range rows {
		c, err := r.cashflow()
		if err != nil {
			return nil, err
		}
		cashflows = append(cashflows, c)
	}
	sortCashflows(cashflows)
	return cashflows, nil
}

func gainsFromRows(rows []gainRow) ([]invest.RealizedGain, error) {
	gains := make([]invest.RealizedGain, 0, len(rows))
	for _, r := range rows {
		g, err := r.gain()
		if err != nil {
			return nil, err
		}
		gains = append(gains, g)
	}
	return gains, nil
}
