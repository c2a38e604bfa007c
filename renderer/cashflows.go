package renderer

import (
	"fmt"
	"slices"
	"strings"

	"github.com/etnz/invest"
	"github.com/etnz/invest/date"
)

// CashflowsMarkdown renders the cashflows of one security in date order.
func CashflowsMarkdown(securityID string, cashflows []invest.Cashflow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Cashflows of %s\n\n", securityID)
	if len(cashflows) == 0 {
		fmt.Fprintln(&b, "No cashflow.")
		return b.String()
	}
	fmt.Fprintln(&b, "| Date | Kind | Amount | Status |")
	fmt.Fprintln(&b, "|:---|:---|---:|:---|")

	var interest, principal invest.Money
	for _, c := range cashflows {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", c.Date, c.Kind, c.Amount.String(), c.Status)
		switch c.Kind {
		case invest.Interest:
			interest = interest.Add(c.Amount)
		case invest.Principal:
			principal = principal.Add(c.Amount)
		}
	}
	fmt.Fprintf(&b, "| **%s** | %s | **%s** | |\n", "Total", invest.Interest, interest.String())
	fmt.Fprintf(&b, "| **%s** | %s | **%s** | |\n", "Total", invest.Principal, principal.String())
	return b.String()
}

// CalendarMarkdown renders, month by month over r, the cashflows of every
// security summed per currency. Months without cashflow are skipped.
func CalendarMarkdown(cashflows []invest.Cashflow, r date.Range) string {
	type key struct {
		month    date.Date
		currency string
	}
	type totals struct{ interest, principal invest.Money }

	sums := make(map[key]*totals)
	var currencies []string
	for _, c := range cashflows {
		if !r.Contains(c.Date) {
			continue
		}
		k := key{c.Date.StartOfMonth(), c.Amount.Currency()}
		t, ok := sums[k]
		if !ok {
			t = &totals{}
			sums[k] = t
		}
		switch c.Kind {
		case invest.Interest:
			t.interest = t.interest.Add(c.Amount)
		case invest.Principal:
			t.principal = t.principal.Add(c.Amount)
		}
		if !slices.Contains(currencies, k.currency) {
			currencies = append(currencies, k.currency)
		}
	}
	slices.Sort(currencies)

	var b strings.Builder
	fmt.Fprintf(&b, "# Cashflow Calendar %s\n\n", r)
	if len(sums) == 0 {
		fmt.Fprintln(&b, "No cashflow.")
		return b.String()
	}
	fmt.Fprintln(&b, "| Month | Currency | Interest | Principal |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|")
	for month := range r.Months() {
		for _, cur := range currencies {
			t, ok := sums[key{month, cur}]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "| %d-%02d | %s | %s | %s |\n",
				month.Year(), month.Month(), cur, t.interest.String(), t.principal.String())
		}
	}
	return b.String()
}
