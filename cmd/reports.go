package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/invest"
	"github.com/etnz/invest/date"
	"github.com/etnz/invest/renderer"
	"github.com/google/subcommands"
)

// tradesUntil returns the trades of a security dated on or before end, all of
// them when end is zero.
func tradesUntil(ledger *invest.Ledger, securityID string, end date.Date) []invest.Trade {
	trades := ledger.Trades(securityID)
	if end.IsZero() {
		return trades
	}
	r := date.Range{To: end}
	var kept []invest.Trade
	for _, tx := range trades {
		if r.Contains(tx.Date) {
			kept = append(kept, tx)
		}
	}
	return kept
}

// lotReports runs the FIFO engine for each selected security. The reports of
// securities that oversell are partial, their errors are joined.
func lotReports(ledger *invest.Ledger, id string, end date.Date) ([]*invest.LotReport, error) {
	secs, err := securities(ledger, id)
	if err != nil {
		return nil, err
	}
	var reports []*invest.LotReport
	var errs error
	for _, sec := range secs {
		report, err := invest.ComputeFIFO(tradesUntil(ledger, sec.ID(), end))
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("%s: %w", sec.ID(), err))
		}
		if report == nil {
			continue
		}
		report.SecurityID, report.Currency = sec.ID(), sec.Currency()
		reports = append(reports, report)
	}
	return reports, errs
}

// reportFlags are the flags shared by the lot based reports.
type reportFlags struct {
	security string
	end      string
	json     bool
}

func (c *reportFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.security, "s", "", "Security to report on. Defaults to every declared security")
	f.StringVar(&c.end, "d", "", "Only consider trades on or before this date. Defaults to every trade")
	f.BoolVar(&c.json, "json", false, "Print JSON lines instead of markdown")
}

// run computes the reports and prints them with print, it reports errors after
// printing the partial results.
func (c *reportFlags) run(print func(*invest.LotReport) error) subcommands.ExitStatus {
	var end date.Date
	if c.end != "" {
		var err error
		if end, err = parseDate(c.end); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	ledger, err := DecodeLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	reports, errs := lotReports(ledger, c.security, end)
	for _, r := range reports {
		if err := print(r); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}
	if errs != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", errs)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type lotsCmd struct{ reportFlags }

func (*lotsCmd) Name() string     { return "lots" }
func (*lotsCmd) Synopsis() string { return "open lots, oldest first" }
func (*lotsCmd) Usage() string {
	return `inv lots [-s <security>] [-d <date>] [-json]

  Lists the lots still open after matching every sale against the oldest lots.
`
}

func (c *lotsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.run(func(r *invest.LotReport) error {
		if c.json {
			return invest.EncodeLots(os.Stdout, r.Lots)
		}
		printMarkdown(renderer.LotsMarkdown(r))
		return nil
	})
}

type gainsCmd struct {
	reportFlags
	stored bool
}

func (*gainsCmd) Name() string     { return "gains" }
func (*gainsCmd) Synopsis() string { return "realized gains, one line per consumed lot" }
func (*gainsCmd) Usage() string {
	return `inv gains [-s <security>] [-d <date>] [-json] [-stored]

  Lists the gains realized by every sale, lot by lot. With -stored, the gains
  are read from the store instead of recomputed from the ledger.
`
}

func (c *gainsCmd) SetFlags(f *flag.FlagSet) {
	c.reportFlags.SetFlags(f)
	f.BoolVar(&c.stored, "stored", false, "Read the gains recorded in the store")
}

func (c *gainsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.stored {
		return c.run(c.print)
	}

	ledger, err := DecodeLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	secs, err := securities(ledger, c.security)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	s, err := OpenStore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		return subcommands.ExitFailure
	}
	defer s.Close()
	for _, sec := range secs {
		gains, err := s.RealizedGains(ctx, sec.ID())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading gains of %s: %v\n", sec.ID(), err)
			return subcommands.ExitFailure
		}
		if err := c.print(&invest.LotReport{SecurityID: sec.ID(), Currency: sec.Currency(), Gains: gains}); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}

func (c *gainsCmd) print(r *invest.LotReport) error {
	if c.json {
		return invest.EncodeGains(os.Stdout, r.Gains)
	}
	printMarkdown(renderer.GainsMarkdown(r))
	return nil
}

// cashflowsCmd holds the flags for the 'cashflows' subcommand.
type cashflowsCmd struct {
	security string
	horizon  string
	until    string
	json     bool
	stored   bool
}

func (*cashflowsCmd) Name() string     { return "cashflows" }
func (*cashflowsCmd) Synopsis() string { return "projected coupons and principal repayments" }
func (*cashflowsCmd) Usage() string {
	return `inv cashflows [-s <security>] [-d <horizon>] [-until <date>] [-json] [-stored]

  Projects the coupons and principal repayments of the open positions, from
  the horizon date on. With -until, prints a monthly calendar of every
  selected security instead. With -stored, reads the store instead of
  projecting.
`
}

func (c *cashflowsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.security, "s", "", "Security to project. Defaults to every declared security")
	f.StringVar(&c.horizon, "d", "today", "Horizon date: earlier cashflows are not projected")
	f.StringVar(&c.until, "until", "", "End of the monthly calendar")
	f.BoolVar(&c.json, "json", false, "Print JSON lines instead of markdown")
	f.BoolVar(&c.stored, "stored", false, "Read the cashflows recorded in the store")
}

func (c *cashflowsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	horizon, err := parseDate(c.horizon)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing horizon: %v\n", err)
		return subcommands.ExitUsageError
	}
	var until date.Date
	if c.until != "" {
		if until, err = parseDate(c.until); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing until: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	ledger, err := DecodeLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	secs, err := securities(ledger, c.security)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	read := func(sec invest.Security) ([]invest.Cashflow, error) {
		r, err := invest.Recompute(sec, ledger.Trades(sec.ID()), horizon)
		for _, w := range r.Warnings() {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", w)
		}
		if err != nil {
			return nil, err
		}
		return r.Projection.Cashflows, nil
	}
	if c.stored {
		s, err := OpenStore(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
			return subcommands.ExitFailure
		}
		defer s.Close()
		read = func(sec invest.Security) ([]invest.Cashflow, error) { return s.Cashflows(ctx, sec.ID()) }
	}

	status := subcommands.ExitSuccess
	var all []invest.Cashflow
	for _, sec := range secs {
		cashflows, err := read(sec)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			status = subcommands.ExitFailure
			continue
		}
		switch {
		case !until.IsZero():
			all = append(all, cashflows...)
		case c.json:
			if err := invest.EncodeCashflows(os.Stdout, cashflows); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return subcommands.ExitFailure
			}
		default:
			printMarkdown(renderer.CashflowsMarkdown(sec.ID(), cashflows))
		}
	}
	if !until.IsZero() {
		printMarkdown(renderer.CalendarMarkdown(all, date.NewRange(horizon, until)))
	}
	return status
}
