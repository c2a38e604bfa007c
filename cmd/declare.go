package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/invest"
	"github.com/etnz/invest/date"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// declareCmd holds the flags for the 'declare' subcommand.
type declareCmd struct {
	id           string
	currency     string
	description  string
	face         float64
	coupon       string
	frequency    int
	emission     string
	maturity     string
	amortization string
	checkpoints  []invest.Checkpoint
}

func (*declareCmd) Name() string     { return "declare" }
func (*declareCmd) Synopsis() string { return "declare a security, optionally with bond terms" }
func (*declareCmd) Usage() string {
	return `inv declare -s <id> -c <currency> [-desc <text>]
            [-maturity <date> -face <value> -coupon <rate> -freq <months> [-emission <date>]
             [-amortization bullet|custom -checkpoint <date>:<fraction>...]]

  Declares a security in the ledger. A security with a maturity date is a bond:
  its coupons and principal repayments are projected for the open quantity.
  Declaring an existing security replaces its terms.
`
}

func (c *declareCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "s", "", "Security id used by trades")
	f.StringVar(&c.currency, "c", "EUR", "Currency the security trades in")
	f.StringVar(&c.description, "desc", "", "Description of the security")
	f.Float64Var(&c.face, "face", 100, "Bond face value per unit")
	f.StringVar(&c.coupon, "coupon", "0", "Bond annual coupon rate, e.g. 0.04 or 4%")
	f.IntVar(&c.frequency, "freq", 12, "Months between two coupons")
	f.StringVar(&c.emission, "emission", "", "Bond emission date. Coupon dates are approximate without it")
	f.StringVar(&c.maturity, "maturity", "", "Bond maturity date")
	f.StringVar(&c.amortization, "amortization", "bullet", "Principal repayment: bullet or custom")
	f.Func("checkpoint", "Custom repayment <date>:<fraction> of the original principal, repeatable", func(s string) error {
		cp, err := parseCheckpoint(s)
		if err != nil {
			return err
		}
		c.checkpoints = append(c.checkpoints, cp)
		return nil
	})
}

func parseCheckpoint(s string) (invest.Checkpoint, error) {
	on, fraction, ok := strings.Cut(s, ":")
	if !ok {
		return invest.Checkpoint{}, fmt.Errorf("checkpoint %q is not <date>:<fraction>", s)
	}
	d, err := date.Parse(on)
	if err != nil {
		return invest.Checkpoint{}, fmt.Errorf("checkpoint %q: %w", s, err)
	}
	v, err := decimal.NewFromString(fraction)
	if err != nil {
		return invest.Checkpoint{}, fmt.Errorf("checkpoint %q: invalid fraction: %w", s, err)
	}
	return invest.Checkpoint{Date: d, Fraction: v}, nil
}

// security builds the declared security from the flags.
func (c *declareCmd) security() (invest.Security, error) {
	if c.maturity == "" {
		return invest.NewSecurity(c.id, c.currency, c.description), nil
	}
	maturity, err := date.Parse(c.maturity)
	if err != nil {
		return invest.Security{}, fmt.Errorf("invalid maturity: %w", err)
	}
	var emission date.Date
	if c.emission != "" {
		if emission, err = date.Parse(c.emission); err != nil {
			return invest.Security{}, fmt.Errorf("invalid emission: %w", err)
		}
	}
	rate, err := invest.ParseRate(c.coupon)
	if err != nil {
		return invest.Security{}, fmt.Errorf("invalid coupon: %w", err)
	}
	mode, err := invest.ParseAmortizationMode(c.amortization)
	if err != nil {
		return invest.Security{}, err
	}
	return invest.NewBond(c.id, c.currency, c.description, invest.BondTerms{
		FaceValue:       invest.M(c.face, c.currency),
		CouponRate:      rate,
		FrequencyMonths: c.frequency,
		EmissionDate:    emission,
		MaturityDate:    maturity,
		Amortization:    invest.Amortization{Mode: mode, Checkpoints: c.checkpoints},
	}), nil
}

func (c *declareCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sec, err := c.security()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if err := sec.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if terms := sec.Bond(); terms != nil {
		if _, err := terms.Amortization.Resolve(terms.MaturityDate); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", sec.ID(), err)
			return subcommands.ExitUsageError
		}
	}

	if err := appendLedger(func(f *os.File) error { return invest.EncodeSecurity(f, sec) }); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Declared %s in %s\n", sec.ID(), sec.Currency())
	return subcommands.ExitSuccess
}
