package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/invest"
)

// RecomputationMarkdown renders one summary row per security, then the
// warnings and the errors that were raised, if any.
func RecomputationMarkdown(results []*invest.Recomputation) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Recomputation\n\n")
	fmt.Fprintln(&b, "| Security | Currency | Open Quantity | Open Cost | Realized Gain | Projected Interest | Projected Principal |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|---:|---:|")
	for _, r := range results {
		quantity, cost, gain := "-", "-", "-"
		if r.Lots != nil {
			quantity = r.Lots.OpenQuantity().String()
			cost = r.Lots.OpenCost().String()
			gain = r.Lots.TotalGain().SignedString()
		}
		interest, principal := "-", "-"
		if r.Projection != nil && len(r.Projection.Cashflows) > 0 {
			interest = r.Projection.Interest().String()
			principal = r.Projection.Principal().String()
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
			r.Security.ID(),
			r.Security.Currency(),
			quantity,
			cost,
			gain,
			interest,
			principal,
		)
	}

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "\n## Warnings\n\n")
		found := false
		for _, r := range results {
			for _, warn := range r.Warnings() {
				fmt.Fprintf(w, "- %s\n", warn)
				found = true
			}
		}
		return found
	})

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "\n## Errors\n\n")
		found := false
		for _, r := range results {
			if r.Err != nil {
				fmt.Fprintf(w, "- %s\n", r.Err)
				found = true
			}
		}
		return found
	})
	return b.String()
}
