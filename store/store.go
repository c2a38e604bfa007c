// Package store persists the data derived by the accounting engines.
//
// Realized gains are an append-only audit trail: a gain already recorded for
// a (sell, lot) pair is never overwritten. Projected cashflows are replaced
// as a whole, in a single transaction, every time a security is recomputed.
// Cashflows settled by Settle are realized and survive replacement.
//
// Implementations include SQLite and PostgreSQL, a Redis read-through cache
// wrapper, and in-memory (for testing).
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/etnz/invest"
	"github.com/etnz/invest/date"
)

// Store is the persistence interface of derived data.
type Store interface {
	// AppendRealizedGains records gains of a security. Gains whose (sell, lot)
	// pair is already recorded are ignored.
	AppendRealizedGains(ctx context.Context, securityID string, gains []invest.RealizedGain) error

	// ReplaceProjected deletes every projected cashflow of the security and
	// inserts cashflows, all or nothing. Realized cashflows are kept, a
	// projected cashflow on the same date and kind as a realized one is dropped.
	ReplaceProjected(ctx context.Context, securityID string, cashflows []invest.Cashflow) error

	// Cashflows returns the projected and realized cashflows of a security,
	// by date, interest first.
	Cashflows(ctx context.Context, securityID string) ([]invest.Cashflow, error)

	// RealizedGains returns the recorded gains of a security, by close date.
	RealizedGains(ctx context.Context, securityID string) ([]invest.RealizedGain, error)

	// Settle marks the projected cashflows of a security dated on or before
	// on as realized, and returns how many were.
	Settle(ctx context.Context, securityID string, on date.Date) (int, error)

	Close() error
}

// Save records a recomputation: its realized gains, even partial, and its
// projection when there is one. A recomputation that failed before
// projecting leaves the stored projection untouched.
func Save(ctx context.Context, s Store, r *invest.Recomputation) error {
	id := r.Security.ID()
	if r.Lots != nil && len(r.Lots.Gains) > 0 {
		if err := s.AppendRealizedGains(ctx, id, r.Lots.Gains); err != nil {
			return fmt.Errorf("save gains of %s: %w", id, err)
		}
	}
	if r.Projection != nil {
		if err := s.ReplaceProjected(ctx, id, r.Projection.Cashflows); err != nil {
			return fmt.Errorf("save cashflows of %s: %w", id, err)
		}
	}
	return nil
}

// SaveAll records every recomputation and joins the errors.
func SaveAll(ctx context.Context, s Store, results []*invest.Recomputation) error {
	var errs error
	for _, r := range results {
		if err := ctx.Err(); err != nil {
			return errors.Join(errs, err)
		}
		errs = errors.Join(errs, Save(ctx, s, r))
	}
	return errs
}

// Drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open returns the store for a driver. dsn is a file path for sqlite and a
// connection string for postgres, it is ignored for memory.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemoryStore(), nil
	case DriverSQLite:
		return NewSQLiteStore(ctx, dsn)
	case DriverPostgres:
		return OpenPostgresStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q, want one of %s, %s or %s", driver, DriverMemory, DriverSQLite, DriverPostgres)
	}
}

// sortCashflows sorts by date, interest before principal on the same date.
func sortCashflows(cashflows []invest.Cashflow) {
	sort.SliceStable(cashflows, func(i, j int) bool {
		a, b := cashflows[i], cashflows[j]
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		return a.Kind < b.Kind
	})
}
