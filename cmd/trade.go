package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/invest"
	"github.com/etnz/invest/renderer"
	"github.com/google/subcommands"
	"github.com/google/uuid"
)

// tradeCmd holds the flags shared by the 'buy' and 'sell' subcommands.
type tradeCmd struct {
	side       invest.Side
	id         string
	date       string
	security   string
	quantity   float64
	price      float64
	commission float64
	memo       string
}

func newBuyCmd() *tradeCmd  { return &tradeCmd{side: invest.Buy} }
func newSellCmd() *tradeCmd { return &tradeCmd{side: invest.Sell} }

func (c *tradeCmd) Name() string { return c.side.String() }
func (c *tradeCmd) Synopsis() string {
	if c.side == invest.Sell {
		return "record a sale of a security, matched against the oldest lots"
	}
	return "record a purchase of a security, opening a new lot"
}
func (c *tradeCmd) Usage() string {
	return fmt.Sprintf(`inv %s -s <security> -q <quantity> -p <unit price> [-fee <commission>] [-d <date>] [-id <id>] [-memo <text>]

  Appends a %s trade to the ledger after checking it against the ledger: the
  security must be declared, and a sale must not exceed the open quantity.
  Prices are in the security currency.
`, c.side, c.side)
}

func (c *tradeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Trade id. Defaults to a random id")
	f.StringVar(&c.date, "d", "today", "Trade date")
	f.StringVar(&c.security, "s", "", "Security id")
	f.Float64Var(&c.quantity, "q", 0, "Quantity")
	f.Float64Var(&c.price, "p", 0, "Unit price")
	f.Float64Var(&c.commission, "fee", 0, "Total commission paid")
	f.StringVar(&c.memo, "memo", "", "Free text attached to the trade")
}

func (c *tradeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	sec := ledger.Security(c.security)
	if sec == nil {
		fmt.Fprintf(os.Stderr, "Error: security %q is not declared\n", c.security)
		return subcommands.ExitFailure
	}

	id := c.id
	if id == "" {
		id = uuid.NewString()
	}
	price := invest.M(c.price, sec.Currency())
	commission := invest.M(c.commission, sec.Currency())
	var tx invest.Trade
	if c.side == invest.Sell {
		tx = invest.NewSell(id, on, c.security, invest.Q(c.quantity), price, commission)
	} else {
		tx = invest.NewBuy(id, on, c.security, invest.Q(c.quantity), price, commission)
	}
	tx.Memo = c.memo

	if err := ledger.Validate(tx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := appendLedger(func(f *os.File) error { return invest.EncodeTrade(f, tx) }); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Println(renderer.Trade(tx))
	return subcommands.ExitSuccess
}

// deleteCmd removes a trade from the ledger.
type deleteCmd struct {
	force bool
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete a trade from the ledger" }
func (*deleteCmd) Usage() string {
	return `inv delete [-f] <trade id>

  Deletes a trade and rewrites the ledger. Deleting a purchase that a later
  sale consumed is refused unless -f is given.
`
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "f", false, "Delete even if the remaining trades oversell")
}

func (c *deleteCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: delete expects exactly one trade id")
		return subcommands.ExitUsageError
	}
	ledger, err := DecodeLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	tx, ok := ledger.Trade(f.Arg(0))
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: trade %q not found\n", f.Arg(0))
		return subcommands.ExitFailure
	}
	ledger.Delete(tx.ID)
	if _, err := invest.ComputeFIFO(ledger.Trades(tx.SecurityID)); err != nil && !c.force {
		fmt.Fprintf(os.Stderr, "Error: deleting %s leaves %s inconsistent: %v\n", tx.ID, tx.SecurityID, err)
		return subcommands.ExitFailure
	}
	if err := EncodeLedger(ledger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Deleted: %s\n", renderer.Trade(tx))
	return subcommands.ExitSuccess
}

type formatLedgerCmd struct{}

func (*formatLedgerCmd) Name() string     { return "format-ledger" }
func (*formatLedgerCmd) Synopsis() string { return "formats the ledger file into a canonical form" }
func (*formatLedgerCmd) Usage() string {
	return `inv format-ledger

  Rewrites the ledger file: declarations first, by security id, then trades by
  date, every field in a fixed order.
`
}

func (*formatLedgerCmd) SetFlags(f *flag.FlagSet) {}

func (*formatLedgerCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, err := DecodeLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := EncodeLedger(ledger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Ledger file '%s' has been formatted.\n", LoadConfig().LedgerFile)
	return subcommands.ExitSuccess
}
