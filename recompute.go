package invest

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/etnz/invest/date"
	"golang.org/x/sync/errgroup"
)

// Recomputation is everything derived from the trades of one security.
//
// Lots is set whenever the trades could be read, even partially. Projection is
// nil when the lots or the schedule are invalid.
type Recomputation struct {
	Security   Security
	Lots       *LotReport
	Projection *Projection
	Err        error // the error returned by Recompute, if any
}

// Warnings returns the signals the user must see that did not stop the recomputation.
func (r *Recomputation) Warnings() []error {
	if r.Projection != nil && r.Projection.Degraded != nil {
		return []error{r.Projection.Degraded}
	}
	return nil
}

// Recompute runs the FIFO engine on trades, then projects the cashflows of the
// remaining open quantity.
//
// trades must be the trades of sec in ledger order.
func Recompute(sec Security, trades []Trade, horizon date.Date) (*Recomputation, error) {
	r := &Recomputation{Security: sec}
	r.Err = r.run(trades, horizon)
	return r, r.Err
}

func (r *Recomputation) run(trades []Trade, horizon date.Date) error {
	for _, t := range trades {
		if t.SecurityID != r.Security.ID() {
			return &InvalidTradeError{TradeID: t.ID, Reason: fmt.Sprintf("trade on %q recomputed with %q", t.SecurityID, r.Security.ID())}
		}
		if t.Currency() != r.Security.Currency() {
			return &InvalidTradeError{TradeID: t.ID, Reason: fmt.Sprintf("currency %s does not match %s", t.Currency(), r.Security.Currency())}
		}
	}

	lots, err := ComputeFIFO(trades)
	r.Lots = lots
	if err != nil {
		return fmt.Errorf("%s: lots: %w", r.Security.ID(), err)
	}

	projection, err := Project(r.Security, lots.OpenQuantity(), horizon)
	if err != nil {
		return fmt.Errorf("%s: cashflows: %w", r.Security.ID(), err)
	}
	r.Projection = projection
	return nil
}

// RecomputeAll recomputes every security of the ledger, running at most workers
// recomputations at a time (no limit if workers <= 0).
//
// Results are in security id order. Errors of a security are kept in its
// result; the returned error is only about ctx.
func RecomputeAll(ctx context.Context, l *Ledger, horizon date.Date, workers int) ([]*Recomputation, error) {
	securities := slices.Collect(l.Securities())
	results := make([]*Recomputation, len(securities))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, sec := range securities {
		trades := l.Trades(sec.ID())
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i], _ = Recompute(sec, trades, horizon)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Errors joins the errors of all recomputations, or returns nil.
func Errors(results []*Recomputation) error {
	var errs error
	for _, r := range results {
		if r.Err != nil {
			errs = errors.Join(errs, r.Err)
		}
	}
	return errs
}
