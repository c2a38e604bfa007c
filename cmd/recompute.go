package cmd

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/etnz/invest"
	"github.com/etnz/invest/renderer"
	"github.com/etnz/invest/store"
	"github.com/google/subcommands"
)

// recomputeCmd holds the flags for the 'recompute' subcommand.
type recomputeCmd struct {
	horizon string
	workers int
	dryRun  bool
}

func (*recomputeCmd) Name() string     { return "recompute" }
func (*recomputeCmd) Synopsis() string { return "recompute lots, gains and cashflows and save them" }
func (*recomputeCmd) Usage() string {
	return `inv recompute [-d <horizon>] [-workers <n>] [-n]

  Recomputes every declared security from the ledger: matches sales against
  lots, then projects the cashflows of the open positions from the horizon on.
  Realized gains are appended to the store, projected cashflows replace the
  previous projection. A security in error keeps its stored projection.
`
}

func (c *recomputeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.horizon, "d", "today", "Horizon date")
	f.IntVar(&c.workers, "workers", runtime.NumCPU(), "Number of securities recomputed concurrently, 0 for no limit")
	f.BoolVar(&c.dryRun, "n", false, "Print the recomputation without saving it")
}

func (c *recomputeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	horizon, err := parseDate(c.horizon)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing horizon: %v\n", err)
		return subcommands.ExitUsageError
	}
	ledger, err := DecodeLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	results, err := invest.RecomputeAll(ctx, ledger, horizon, c.workers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RecomputationMarkdown(results))

	if !c.dryRun {
		s, err := OpenStore(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
			return subcommands.ExitFailure
		}
		defer s.Close()
		if err := store.SaveAll(ctx, s, results); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving: %v\n", err)
			return subcommands.ExitFailure
		}
		if LoadConfig().Verbose {
			log.Printf("saved %d securities to the %s store", len(results), LoadConfig().StoreDriver)
		}
	}

	if invest.Errors(results) != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// settleCmd holds the flags for the 'settle' subcommand.
type settleCmd struct {
	security string
	date     string
}

func (*settleCmd) Name() string     { return "settle" }
func (*settleCmd) Synopsis() string { return "mark projected cashflows as realized" }
func (*settleCmd) Usage() string {
	return `inv settle [-s <security>] [-d <date>]

  Marks the stored projected cashflows dated on or before the date as
  realized. Realized cashflows are kept by later recomputations.
`
}

func (c *settleCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.security, "s", "", "Security to settle. Defaults to every declared security")
	f.StringVar(&c.date, "d", "today", "Settle cashflows on or before this date")
}

func (c *settleCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := parseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
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

	total := 0
	for _, sec := range secs {
		n, err := s.Settle(ctx, sec.ID(), on)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		total += n
	}
	fmt.Printf("Settled %d cashflows on or before %s\n", total, on)
	return subcommands.ExitSuccess
}
