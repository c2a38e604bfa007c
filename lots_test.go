package invest

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestComputeFIFO_SpansTwoLots(t *testing.T) {
	trades := []Trade{
		buy("b1", "2023-01-01", 100, 10),
		buy("b2", "2023-02-01", 50, 20),
		sell("s1", "2023-03-01", 120, 30),
	}
	report, err := ComputeFIFO(trades)
	if err != nil {
		t.Fatalf("ComputeFIFO() unexpected error: %v", err)
	}

	wantGains := []RealizedGain{
		{
			SellTradeID: "s1", LotOriginID: "b1", Quantity: Q(100),
			CostBasis: EUR(1000), Proceeds: EUR(3000), Gain: EUR(2000),
			OpenDate: day("2023-01-01"), CloseDate: day("2023-03-01"), HoldingPeriodDays: 59,
		},
		{
			SellTradeID: "s1", LotOriginID: "b2", Quantity: Q(20),
			CostBasis: EUR(400), Proceeds: EUR(600), Gain: EUR(200),
			OpenDate: day("2023-02-01"), CloseDate: day("2023-03-01"), HoldingPeriodDays: 28,
		},
	}
	if diff := cmp.Diff(wantGains, report.Gains, cmpOpts); diff != "" {
		t.Errorf("ComputeFIFO() gains mismatch (-want +got):\n%s", diff)
	}
	if got, want := report.TotalGain(), EUR(2200); !got.Equal(want) {
		t.Errorf("TotalGain() = %v, want %v", got, want)
	}

	wantLots := []Lot{{OriginTradeID: "b2", OpenDate: day("2023-02-01"), Quantity: Q(30), Cost: EUR(600)}}
	if diff := cmp.Diff(wantLots, report.Lots, cmpOpts); diff != "" {
		t.Errorf("ComputeFIFO() lots mismatch (-want +got):\n%s", diff)
	}
	if got, want := report.Lots[0].UnitCost(), EUR(20); !got.Equal(want) {
		t.Errorf("UnitCost() = %v, want %v", got, want)
	}
}

func TestComputeFIFO_Oversell(t *testing.T) {
	trades := []Trade{
		buy("b1", "2023-01-01", 100, 10),
		sell("s1", "2023-02-01", 150, 12),
		buy("b2", "2023-03-01", 10, 10),
	}
	report, err := ComputeFIFO(trades)
	if !errors.Is(err, ErrInsufficientInventory) {
		t.Fatalf("ComputeFIFO() error = %v, want %v", err, ErrInsufficientInventory)
	}
	var inv *InsufficientInventoryError
	if !errors.As(err, &inv) {
		t.Fatalf("ComputeFIFO() error is not an *InsufficientInventoryError: %v", err)
	}
	if inv.SellTradeID != "s1" || !inv.Unmatched.Equal(Q(50)) {
		t.Errorf("InsufficientInventoryError = %+v, want sell s1 unmatched 50", inv)
	}
	if report == nil {
		t.Fatal("ComputeFIFO() report = nil, want the partial report")
	}
	if len(report.Gains) != 1 || !report.Gains[0].Quantity.Equal(Q(100)) {
		t.Errorf("ComputeFIFO() gains = %v, want one gain on the 100 matched units", report.Gains)
	}
	if len(report.Lots) != 0 {
		t.Errorf("ComputeFIFO() lots = %v, want none", report.Lots)
	}
}

func TestComputeFIFO_Commissions(t *testing.T) {
	tests := []struct {
		name   string
		trades []Trade
		want   []Money // gain per event
	}{
		{
			name: "buy commission in cost basis",
			trades: []Trade{
				NewBuy("b1", day("2024-01-01"), "SEC", Q(10), EUR(10), EUR(3)),
				NewSell("s1", day("2024-02-01"), "SEC", Q(3), EUR(20), EUR(1)),
				sell("s2", "2024-03-01", 7, 20),
			},
			// 60-1-30.9 then 140-72.1
			want: []Money{EUR(28.1), EUR(67.9)},
		},
		{
			name: "sell commission pro-rated across lots",
			trades: []Trade{
				buy("b1", "2024-01-01", 1, 10),
				buy("b2", "2024-01-02", 1, 10),
				NewSell("s1", day("2024-02-01"), "SEC", Q(2), EUR(15), EUR(1)),
			},
			want: []Money{EUR(4.5), EUR(4.5)},
		},
		{
			name: "rounding residual goes to the last consumption",
			trades: []Trade{
				NewBuy("b1", day("2024-01-01"), "SEC", Q(3), EUR(10), EUR(1)),
				sell("s1", "2024-02-01", 1, 10),
				sell("s2", "2024-03-01", 2, 10),
			},
			want: []Money{EUR(-0.33), EUR(-0.67)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := ComputeFIFO(tt.trades)
			if err != nil {
				t.Fatalf("ComputeFIFO() unexpected error: %v", err)
			}
			var got []Money
			for _, g := range report.Gains {
				got = append(got, g.Gain)
			}
			if diff := cmp.Diff(tt.want, got, cmpOpts); diff != "" {
				t.Errorf("ComputeFIFO() gains mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestComputeFIFO_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		trades []Trade
		want   error
	}{
		{
			name:   "dates going backward",
			trades: []Trade{buy("b1", "2023-02-01", 1, 10), buy("b2", "2023-01-01", 1, 10)},
			want:   ErrInvalidTradeOrdering,
		},
		{
			name: "mixed securities",
			trades: []Trade{
				buy("b1", "2023-01-01", 1, 10),
				NewBuy("b2", day("2023-01-02"), "OTHER", Q(1), EUR(10), Money{}),
			},
			want: ErrInvalidTrade,
		},
		{
			name: "mixed currencies",
			trades: []Trade{
				buy("b1", "2023-01-01", 1, 10),
				NewBuy("b2", day("2023-01-02"), "SEC", Q(1), USD(10), Money{}),
			},
			want: ErrInvalidTrade,
		},
		{
			name:   "zero quantity",
			trades: []Trade{buy("b1", "2023-01-01", 0, 10)},
			want:   ErrInvalidTrade,
		},
		{
			name:   "negative price",
			trades: []Trade{buy("b1", "2023-01-01", 1, -10)},
			want:   ErrInvalidTrade,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := ComputeFIFO(tt.trades)
			if !errors.Is(err, tt.want) {
				t.Fatalf("ComputeFIFO() error = %v, want %v", err, tt.want)
			}
			if report != nil {
				t.Errorf("ComputeFIFO() report = %v, want nil", report)
			}
		})
	}
}

func TestComputeFIFO_OrderingErrorLocatesTrade(t *testing.T) {
	trades := []Trade{
		buy("b1", "2023-01-01", 1, 10),
		buy("b2", "2023-03-01", 1, 10),
		buy("b3", "2023-02-01", 1, 10),
	}
	_, err := ComputeFIFO(trades)
	var ordering *InvalidTradeOrderingError
	if !errors.As(err, &ordering) {
		t.Fatalf("ComputeFIFO() error = %v, want *InvalidTradeOrderingError", err)
	}
	if ordering.Index != 2 || ordering.Previous != day("2023-03-01") {
		t.Errorf("InvalidTradeOrderingError = %+v, want index 2 after 2023-03-01", ordering)
	}
}

func TestComputeFIFO_SameDayKeepsCallerOrder(t *testing.T) {
	trades := []Trade{
		buy("b1", "2023-01-01", 10, 10),
		sell("s1", "2023-01-01", 10, 11),
		buy("b2", "2023-01-01", 5, 12),
	}
	report, err := ComputeFIFO(trades)
	if err != nil {
		t.Fatalf("ComputeFIFO() unexpected error: %v", err)
	}
	if len(report.Gains) != 1 || report.Gains[0].LotOriginID != "b1" {
		t.Errorf("ComputeFIFO() gains = %v, want a single gain on b1", report.Gains)
	}
	if len(report.Lots) != 1 || report.Lots[0].OriginTradeID != "b2" {
		t.Errorf("ComputeFIFO() lots = %v, want only b2", report.Lots)
	}
}

// tradeSequence returns a deterministic mix of buys and sells that never oversells.
func tradeSequence() []Trade {
	var trades []Trade
	held := 0
	on := day("2022-01-01")
	for i := 0; i < 60; i++ {
		on = on.Add(3)
		qty := 1 + (i*7)%13
		switch {
		case i%3 == 2 && held > 0:
			qty = min(qty, held)
			held -= qty
			trades = append(trades, NewSell(on.String()+"s", on, "SEC", Q(qty), EUR(10+float64(i%5)*1.37), EUR(0.7)))
		default:
			held += qty
			trades = append(trades, NewBuy(on.String()+"b", on, "SEC", Q(qty), EUR(9+float64(i%7)*0.91), EUR(1.3)))
		}
	}
	return trades
}

func TestComputeFIFO_Properties(t *testing.T) {
	trades := tradeSequence()
	report, err := ComputeFIFO(trades)
	if err != nil {
		t.Fatalf("ComputeFIFO() unexpected error: %v", err)
	}

	t.Run("conservation", func(t *testing.T) {
		var bought, sold Quantity
		for _, tx := range trades {
			if tx.Side == Buy {
				bought = bought.Add(tx.Quantity)
			} else {
				sold = sold.Add(tx.Quantity)
			}
		}
		if got, want := report.OpenQuantity(), bought.Sub(sold); !got.Equal(want) {
			t.Errorf("OpenQuantity() = %v, want %v", got, want)
		}
		for _, l := range report.Lots {
			if !l.Quantity.IsPositive() {
				t.Errorf("lot %s has quantity %v", l.OriginTradeID, l.Quantity)
			}
		}
	})

	t.Run("every unit sold is matched", func(t *testing.T) {
		for _, tx := range trades {
			if tx.Side != Sell {
				continue
			}
			var closed Quantity
			for _, g := range report.GainsBySell(tx.ID) {
				closed = closed.Add(g.Quantity)
			}
			if !closed.Equal(tx.Quantity) {
				t.Errorf("sell %s closed %v, want %v", tx.ID, closed, tx.Quantity)
			}
		}
	})

	t.Run("gain additivity", func(t *testing.T) {
		if got, want := report.TotalGain(), report.TotalProceeds().Sub(report.TotalCostBasis()); !got.Equal(want) {
			t.Errorf("TotalGain() = %v, want %v", got, want)
		}
	})

	t.Run("idempotence", func(t *testing.T) {
		again, err := ComputeFIFO(trades)
		if err != nil {
			t.Fatalf("ComputeFIFO() unexpected error: %v", err)
		}
		if diff := cmp.Diff(report, again, cmpOpts); diff != "" {
			t.Errorf("ComputeFIFO() is not idempotent (-first +second):\n%s", diff)
		}
		var first, second bytes.Buffer
		if err := EncodeGains(&first, report.Gains); err != nil {
			t.Fatal(err)
		}
		if err := EncodeGains(&second, again.Gains); err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first.Bytes(), second.Bytes()) {
			t.Errorf("EncodeGains() differs between runs:\n%s\n%s", first.String(), second.String())
		}
	})
}
