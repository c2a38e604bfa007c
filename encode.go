package invest

import (
	"io"
)

// MarshalJSON writes the fields in a fixed order.
func (g RealizedGain) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("sell", g.SellTradeID)
	w.Append("lot", g.LotOriginID)
	w.Append("quantity", g.Quantity)
	w.Append("currency", g.CostBasis.Currency())
	w.Append("costBasis", g.CostBasis.Decimal())
	w.Append("proceeds", g.Proceeds.Decimal())
	w.Append("gain", g.Gain.Decimal())
	w.Append("open", g.OpenDate)
	w.Append("close", g.CloseDate)
	w.Append("days", g.HoldingPeriodDays)
	return w.MarshalJSON()
}

// MarshalJSON writes the fields in a fixed order.
func (l Lot) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("lot", l.OriginTradeID)
	w.Append("open", l.OpenDate)
	w.Append("quantity", l.Quantity)
	w.EmbedFrom(l.Cost)
	return w.MarshalJSON()
}

// EncodeGains writes one JSON line per realized gain.
func EncodeGains(w io.Writer, gains []RealizedGain) error {
	return encodeLines(w, gains)
}

// EncodeLots writes one JSON line per open lot.
func EncodeLots(w io.Writer, lots []Lot) error {
	return encodeLines(w, lots)
}

// EncodeCashflows writes one JSON line per cashflow. Projecting the same
// inputs twice always encodes to the same bytes.
func EncodeCashflows(w io.Writer, cashflows []Cashflow) error {
	return encodeLines(w, cashflows)
}

func encodeLines[T interface{ MarshalJSON() ([]byte, error) }](w io.Writer, items []T) error {
	for _, item := range items {
		if err := writeLine(w, item); err != nil {
			return err
		}
	}
	return nil
}
