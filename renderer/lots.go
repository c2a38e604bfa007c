package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/invest"
)

// LotsMarkdown renders the open lots of a report, oldest first.
func LotsMarkdown(r *invest.LotReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Open Lots of %s\n\n", r.SecurityID)
	if len(r.Lots) == 0 {
		fmt.Fprintln(&b, "No open lot.")
		return b.String()
	}
	fmt.Fprintln(&b, "| Lot | Opened | Quantity | Unit Cost | Cost |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|")
	for _, l := range r.Lots {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			l.OriginTradeID,
			l.OpenDate,
			l.Quantity,
			l.UnitCost().String(),
			l.Cost.String(),
		)
	}
	fmt.Fprintf(&b, "| **%s** | | **%s** | | **%s** |\n",
		"Total",
		r.OpenQuantity(),
		r.OpenCost().String(),
	)
	return b.String()
}

// GainsMarkdown renders the realized gains of a report, one row per consumed
// lot chunk.
func GainsMarkdown(r *invest.LotReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Realized Gains of %s\n\n", r.SecurityID)
	if len(r.Gains) == 0 {
		fmt.Fprintln(&b, "No realized gain.")
	} else {
		fmt.Fprintln(&b, "| Sell | Lot | Opened | Closed | Days | Quantity | Cost Basis | Proceeds | Gain |")
		fmt.Fprintln(&b, "|:---|:---|:---|:---|---:|---:|---:|---:|---:|")
		for _, g := range r.Gains {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %d | %s | %s | %s | %s |\n",
				g.SellTradeID,
				g.LotOriginID,
				g.OpenDate,
				g.CloseDate,
				g.HoldingPeriodDays,
				g.Quantity,
				g.CostBasis.String(),
				g.Proceeds.String(),
				g.Gain.SignedString(),
			)
		}
		fmt.Fprintf(&b, "| **%s** | | | | | | **%s** | **%s** | **%s** |\n",
			"Total",
			r.TotalCostBasis().String(),
			r.TotalProceeds().String(),
			r.TotalGain().SignedString(),
		)
	}
	return b.String()
}
