package renderer

import (
	"fmt"

	"github.com/etnz/invest"
)

// Trade renders a trade to a one line sentence.
func Trade(tx invest.Trade) string {
	var s string
	switch tx.Side {
	case invest.Buy:
		s = fmt.Sprintf("Bought %s of %s at %s", tx.Quantity, tx.SecurityID, tx.Price)
	case invest.Sell:
		s = fmt.Sprintf("Sold %s of %s at %s", tx.Quantity, tx.SecurityID, tx.Price)
	default:
		return tx.Side.String()
	}
	if !tx.Commission.IsZero() {
		s += fmt.Sprintf(" (commission %s)", tx.Commission)
	}
	return s + " on " + tx.Date.String()
}
