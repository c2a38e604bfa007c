package invest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRecompute_BondPosition(t *testing.T) {
	sec := NewBond("BOND", "EUR", "", bond(0.08, 6, "2024-01-01", "2026-01-01"))
	trades := []Trade{
		NewBuy("b1", day("2024-01-01"), "BOND", Q(15), EUR(98), EUR(2)),
		NewSell("s1", day("2024-05-01"), "BOND", Q(5), EUR(101), Money{}),
	}
	r, err := Recompute(sec, trades, day("2024-06-01"))
	if err != nil {
		t.Fatalf("Recompute() unexpected error: %v", err)
	}
	if got := r.Lots.OpenQuantity(); !got.Equal(Q(10)) {
		t.Errorf("OpenQuantity() = %v, want 10", got)
	}
	// 5 units cost 5*98 + 2/3 commission
	if got, want := r.Lots.TotalGain(), EUR(14.33); !got.Equal(want) {
		t.Errorf("TotalGain() = %v, want %v", got, want)
	}
	want := []Cashflow{
		interest("2024-07-01", 40),
		interest("2025-01-01", 40),
		interest("2025-07-01", 40),
		interest("2026-01-01", 40),
		principal("2026-01-01", 1000),
	}
	if diff := cmp.Diff(want, r.Projection.Cashflows, cmpOpts); diff != "" {
		t.Errorf("Recompute() cashflows mismatch (-want +got):\n%s", diff)
	}
	if len(r.Warnings()) != 0 {
		t.Errorf("Warnings() = %v, want none", r.Warnings())
	}
}

func TestRecompute_NewTradeReplacesProjection(t *testing.T) {
	sec := NewBond("BOND", "EUR", "", bond(0.08, 6, "2024-01-01", "2026-01-01"))
	trades := []Trade{NewBuy("b1", day("2024-01-01"), "BOND", Q(10), EUR(100), Money{})}
	before, err := Recompute(sec, trades, day("2024-06-01"))
	if err != nil {
		t.Fatalf("Recompute() unexpected error: %v", err)
	}
	trades = append(trades, NewSell("s1", day("2024-06-01"), "BOND", Q(10), EUR(100), Money{}))
	after, err := Recompute(sec, trades, day("2024-06-01"))
	if err != nil {
		t.Fatalf("Recompute() unexpected error: %v", err)
	}
	if len(before.Projection.Cashflows) == 0 {
		t.Error("Recompute() before the sell projected nothing")
	}
	if len(after.Projection.Cashflows) != 0 {
		t.Errorf("Recompute() after selling everything = %v, want no cashflow", after.Projection.Cashflows)
	}
}

func TestRecompute_Oversell(t *testing.T) {
	sec := NewBond("BOND", "EUR", "", bond(0.08, 6, "2024-01-01", "2026-01-01"))
	trades := []Trade{
		NewBuy("b1", day("2024-01-01"), "BOND", Q(100), EUR(100), Money{}),
		NewSell("s1", day("2024-02-01"), "BOND", Q(150), EUR(100), Money{}),
	}
	r, err := Recompute(sec, trades, day("2024-06-01"))
	if !errors.Is(err, ErrInsufficientInventory) {
		t.Fatalf("Recompute() error = %v, want %v", err, ErrInsufficientInventory)
	}
	if r.Lots == nil || len(r.Lots.Gains) != 1 {
		t.Errorf("Recompute() lots = %+v, want the partial report", r.Lots)
	}
	if r.Projection != nil {
		t.Errorf("Recompute() projection = %+v, want nil", r.Projection)
	}
	if r.Err != err {
		t.Errorf("Recomputation.Err = %v, want %v", r.Err, err)
	}
}

func TestRecompute_RejectsForeignTrades(t *testing.T) {
	_, err := Recompute(NewSecurity("SEC", "USD", ""), []Trade{buy("b1", "2024-01-01", 1, 1)}, day("2024-06-01"))
	if !errors.Is(err, ErrInvalidTrade) {
		t.Errorf("Recompute() error = %v, want %v", err, ErrInvalidTrade)
	}
}

func TestRecomputeAll(t *testing.T) {
	l := NewLedger()
	l.Declare(NewSecurity("SEC", "EUR", ""))
	l.Declare(NewBond("BOND", "EUR", "", bond(0.08, 6, "2024-01-01", "2026-01-01")))
	l.Declare(NewBond("OLD", "EUR", "", bond(0.05, 12, "", "2027-01-01")))
	l.Declare(NewSecurity("SHORT", "EUR", ""))
	l.Append(
		buy("b1", "2024-01-01", 100, 10),
		NewBuy("c1", day("2024-01-01"), "BOND", Q(10), EUR(100), Money{}),
		NewBuy("o1", day("2024-01-01"), "OLD", Q(1), EUR(100), Money{}),
		NewSell("x1", day("2024-01-01"), "SHORT", Q(1), EUR(100), Money{}),
	)

	for _, workers := range []int{0, 1, 3} {
		results, err := RecomputeAll(context.Background(), l, day("2024-06-01"), workers)
		if err != nil {
			t.Fatalf("RecomputeAll(%d) unexpected error: %v", workers, err)
		}
		var ids []string
		for _, r := range results {
			ids = append(ids, r.Security.ID())
		}
		if diff := cmp.Diff([]string{"BOND", "OLD", "SEC", "SHORT"}, ids); diff != "" {
			t.Errorf("RecomputeAll(%d) order mismatch (-want +got):\n%s", workers, diff)
		}
		if len(results[1].Warnings()) != 1 {
			t.Errorf("RecomputeAll(%d) OLD warnings = %v, want a degraded projection", workers, results[1].Warnings())
		}
		if !errors.Is(results[3].Err, ErrInsufficientInventory) {
			t.Errorf("RecomputeAll(%d) SHORT error = %v, want %v", workers, results[3].Err, ErrInsufficientInventory)
		}
		if err := Errors(results); !errors.Is(err, ErrInsufficientInventory) {
			t.Errorf("Errors() = %v, want %v", err, ErrInsufficientInventory)
		}
		if results[0].Err != nil || results[2].Err != nil {
			t.Errorf("RecomputeAll(%d) errors = %v, %v, want none", workers, results[0].Err, results[2].Err)
		}
	}
}

func TestRecomputeAll_Canceled(t *testing.T) {
	l := NewLedger()
	l.Declare(NewSecurity("SEC", "EUR", ""))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := RecomputeAll(ctx, l, day("2024-06-01"), 1); !errors.Is(err, context.Canceled) {
		t.Errorf("RecomputeAll() error = %v, want %v", err, context.Canceled)
	}
}
