package renderer

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/etnz/invest"
	"github.com/etnz/invest/date"
)

func eur(v float64) invest.Money { return invest.M(v, "EUR") }

func day(s string) date.Date { return date.MustParse(s) }

func report(t *testing.T) *invest.LotReport {
	t.Helper()
	r, err := invest.ComputeFIFO([]invest.Trade{
		invest.NewBuy("b1", day("2024-01-01"), "SEC", invest.Q(100), eur(10), invest.Money{}),
		invest.NewBuy("b2", day("2024-02-01"), "SEC", invest.Q(50), eur(20), invest.Money{}),
		invest.NewSell("s1", day("2024-02-29"), "SEC", invest.Q(120), eur(30), invest.Money{}),
	})
	if err != nil {
		t.Fatalf("ComputeFIFO() unexpected error: %v", err)
	}
	return r
}

func TestLotsMarkdown(t *testing.T) {
	want := "# Open Lots of SEC\n\n" +
		"| Lot | Opened | Quantity | Unit Cost | Cost |\n" +
		"|:---|:---|---:|---:|---:|\n" +
		fmt.Sprintf("| b2 | 2024-02-01 | 30 | %s | %s |\n", eur(20), eur(600)) +
		fmt.Sprintf("| **Total** | | **30** | | **%s** |\n", eur(600))

	if got := LotsMarkdown(report(t)); got != want {
		t.Errorf("LotsMarkdown() =\n%s\nwant:\n%s", got, want)
	}

	empty := LotsMarkdown(&invest.LotReport{SecurityID: "SEC"})
	if !strings.HasSuffix(empty, "No open lot.\n") {
		t.Errorf("LotsMarkdown(empty) = %q, want the empty notice", empty)
	}
}

func TestGainsMarkdown(t *testing.T) {
	got := GainsMarkdown(report(t))
	rows := []string{
		fmt.Sprintf("| s1 | b1 | 2024-01-01 | 2024-02-29 | 59 | 100 | %s | %s | %s |", eur(1000), eur(3000), eur(2000).SignedString()),
		fmt.Sprintf("| s1 | b2 | 2024-02-01 | 2024-02-29 | 28 | 20 | %s | %s | %s |", eur(400), eur(600), eur(200).SignedString()),
		fmt.Sprintf("| **Total** | | | | | | **%s** | **%s** | **%s** |", eur(1400), eur(3600), eur(2200).SignedString()),
	}
	for _, row := range rows {
		if !strings.Contains(got, row+"\n") {
			t.Errorf("GainsMarkdown() is missing row %q in:\n%s", row, got)
		}
	}
	if strings.Index(got, "| s1 | b1 |") > strings.Index(got, "| s1 | b2 |") {
		t.Errorf("GainsMarkdown() rows are not in consumption order:\n%s", got)
	}
}

func TestCashflowsMarkdown(t *testing.T) {
	cashflows := []invest.Cashflow{
		{SecurityID: "BOND", Date: day("2024-07-01"), Kind: invest.Interest, Amount: eur(40)},
		{SecurityID: "BOND", Date: day("2025-01-01"), Kind: invest.Interest, Amount: eur(40)},
		{SecurityID: "BOND", Date: day("2025-01-01"), Kind: invest.Principal, Amount: eur(1000)},
	}
	want := "# Cashflows of BOND\n\n" +
		"| Date | Kind | Amount | Status |\n" +
		"|:---|:---|---:|:---|\n" +
		fmt.Sprintf("| 2024-07-01 | interest | %s | projected |\n", eur(40)) +
		fmt.Sprintf("| 2025-01-01 | interest | %s | projected |\n", eur(40)) +
		fmt.Sprintf("| 2025-01-01 | amortization | %s | projected |\n", eur(1000)) +
		fmt.Sprintf("| **Total** | interest | **%s** | |\n", eur(80)) +
		fmt.Sprintf("| **Total** | amortization | **%s** | |\n", eur(1000))

	if got := CashflowsMarkdown("BOND", cashflows); got != want {
		t.Errorf("CashflowsMarkdown() =\n%s\nwant:\n%s", got, want)
	}
}

func TestCalendarMarkdown(t *testing.T) {
	cashflows := []invest.Cashflow{
		{Date: day("2024-07-01"), Kind: invest.Interest, Amount: eur(40)},
		{Date: day("2024-07-15"), Kind: invest.Interest, Amount: invest.M(5, "USD")},
		{Date: day("2024-07-20"), Kind: invest.Interest, Amount: eur(2)},
		{Date: day("2024-09-01"), Kind: invest.Principal, Amount: eur(500)},
		{Date: day("2025-01-01"), Kind: invest.Interest, Amount: eur(40)}, // out of range
	}
	got := CalendarMarkdown(cashflows, date.NewRange(day("2024-06-01"), day("2024-12-31")))

	want := "# Cashflow Calendar 2024-06-01..2024-12-31\n\n" +
		"| Month | Currency | Interest | Principal |\n" +
		"|:---|:---|---:|---:|\n" +
		fmt.Sprintf("| 2024-07 | EUR | %s | %s |\n", eur(42), invest.Money{}) +
		fmt.Sprintf("| 2024-07 | USD | %s | %s |\n", invest.M(5, "USD"), invest.Money{}) +
		fmt.Sprintf("| 2024-09 | EUR | %s | %s |\n", invest.Money{}, eur(500))
	if got != want {
		t.Errorf("CalendarMarkdown() =\n%s\nwant:\n%s", got, want)
	}

	empty := CalendarMarkdown(nil, date.NewRange(day("2024-06-01"), day("2024-12-31")))
	if !strings.HasSuffix(empty, "No cashflow.\n") {
		t.Errorf("CalendarMarkdown(nil) = %q, want the empty notice", empty)
	}
}

func TestRecomputationMarkdown(t *testing.T) {
	clean := &invest.Recomputation{Security: invest.NewSecurity("SEC", "EUR", "")}
	degraded := &invest.Recomputation{
		Security:   invest.NewSecurity("OLD", "EUR", ""),
		Projection: &invest.Projection{SecurityID: "OLD", Degraded: &invest.DegradedProjection{SecurityID: "OLD", Anchor: day("2024-03-01")}},
	}
	failed := &invest.Recomputation{Security: invest.NewSecurity("BAD", "EUR", ""), Err: errors.New("BAD: lots: boom")}

	tests := []struct {
		name         string
		results      []*invest.Recomputation
		wantWarnings bool
		wantErrors   bool
	}{
		{"clean", []*invest.Recomputation{clean}, false, false},
		{"degraded", []*invest.Recomputation{clean, degraded}, true, false},
		{"failed", []*invest.Recomputation{failed}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RecomputationMarkdown(tt.results)
			if w := strings.Contains(got, "## Warnings"); w != tt.wantWarnings {
				t.Errorf("warnings section present = %v, want %v:\n%s", w, tt.wantWarnings, got)
			}
			if e := strings.Contains(got, "## Errors"); e != tt.wantErrors {
				t.Errorf("errors section present = %v, want %v:\n%s", e, tt.wantErrors, got)
			}
			for _, r := range tt.results {
				if !strings.Contains(got, "| "+r.Security.ID()+" | EUR |") {
					t.Errorf("missing row for %s:\n%s", r.Security.ID(), got)
				}
			}
		})
	}

	got := RecomputationMarkdown([]*invest.Recomputation{degraded, failed})
	if !strings.Contains(got, "- "+degraded.Projection.Degraded.Error()+"\n") {
		t.Errorf("missing degraded warning:\n%s", got)
	}
	if !strings.Contains(got, "- BAD: lots: boom\n") {
		t.Errorf("missing error:\n%s", got)
	}
}

func TestTrade(t *testing.T) {
	tests := []struct {
		tx   invest.Trade
		want string
	}{
		{
			tx:   invest.NewBuy("b1", day("2024-01-01"), "SEC", invest.Q(10), eur(12.5), invest.Money{}),
			want: fmt.Sprintf("Bought 10 of SEC at %s on 2024-01-01", eur(12.5)),
		},
		{
			tx:   invest.NewSell("s1", day("2024-02-01"), "SEC", invest.Q(4), eur(13), eur(1)),
			want: fmt.Sprintf("Sold 4 of SEC at %s (commission %s) on 2024-02-01", eur(13), eur(1)),
		},
	}
	for _, tt := range tests {
		if got := Trade(tt.tx); got != tt.want {
			t.Errorf("Trade(%s) = %q, want %q", tt.tx.ID, got, tt.want)
		}
	}
}
