package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/etnz/invest"
	"github.com/etnz/invest/date"
)

// PostgresStore implements Store using PostgreSQL.
// All monetary values are stored as NUMERIC for exact decimal precision.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store. The schema must
// exist, see Migrate.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// OpenPostgresStore connects to dsn and creates the schema if needed.
func OpenPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	s := NewPostgresStore(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates tables if they don't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS realized_gains (
		seq BIGSERIAL,
		sell_trade_id TEXT NOT NULL,
		lot_origin_id TEXT NOT NULL,
		security_id TEXT NOT NULL,
		quantity NUMERIC NOT NULL,
		currency TEXT NOT NULL,
		cost_basis NUMERIC NOT NULL,
		proceeds NUMERIC NOT NULL,
		gain NUMERIC NOT NULL,
		open_date DATE NOT NULL,
		close_date DATE NOT NULL,
		holding_days INTEGER NOT NULL,
		PRIMARY KEY (sell_trade_id, lot_origin_id)
	);
	CREATE TABLE IF NOT EXISTS cashflows (
		security_id TEXT NOT NULL,
		date DATE NOT NULL,
		kind TEXT NOT NULL,
		currency TEXT NOT NULL,
		amount NUMERIC NOT NULL,
		status TEXT NOT NULL,
		PRIMARY KEY (security_id, date, kind)
	);
	CREATE INDEX IF NOT EXISTS idx_realized_gains_security ON realized_gains (security_id, close_date);
	`
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) AppendRealizedGains(ctx context.Context, securityID string, gains []invest.RealizedGain) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, g := range gains {
			r := newGainRow(securityID, g)
			_, err := tx.Exec(ctx,
				`INSERT INTO realized_gains
				 (sell_trade_id, lot_origin_id, security_id, quantity, currency, cost_basis, proceeds, gain, open_date, close_date, holding_days)
				 VALUES ($1, $2, $3, $4::NUMERIC, $5, $6::NUMERIC, $7::NUMERIC, $8::NUMERIC, $9::DATE, $10::DATE, $11)
				 ON CONFLICT (sell_trade_id, lot_origin_id) DO NOTHING`,
				r.SellTradeID, r.LotOriginID, r.SecurityID, r.Quantity, r.Currency,
				r.CostBasis, r.Proceeds, r.Gain, r.OpenDate, r.CloseDate, r.Days,
			)
			if err != nil {
				return fmt.Errorf("insert gain of sell %s on lot %s: %w", g.SellTradeID, g.LotOriginID, err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) ReplaceProjected(ctx context.Context, securityID string, cashflows []invest.Cashflow) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM cashflows WHERE security_id = $1 AND status = $2`,
			securityID, invest.Projected.String()); err != nil {
			return fmt.Errorf("delete projected cashflows of %s: %w", securityID, err)
		}
		for _, c := range cashflows {
			c.Status = invest.Projected
			r := newCashflowRow(securityID, c)
			_, err := tx.Exec(ctx,
				`INSERT INTO cashflows (security_id, date, kind, currency, amount, status)
				 VALUES ($1, $2::DATE, $3, $4, $5::NUMERIC, $6)
				 ON CONFLICT (security_id, date, kind) DO NOTHING`,
				r.SecurityID, r.Date, r.Kind, r.Currency, r.Amount, r.Status,
			)
			if err != nil {
				return fmt.Errorf("insert cashflow of %s on %s: %w", securityID, r.Date, err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) Cashflows(ctx context.Context, securityID string) ([]invest.Cashflow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT security_id, date::TEXT, kind, currency, amount::TEXT, status
		 FROM cashflows WHERE security_id = $1`, securityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []cashflowRow
	for rows.Next() {
		var r cashflowRow
		if err := rows.Scan(&r.SecurityID, &r.Date, &r.Kind, &r.Currency, &r.Amount, &r.Status); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cashflowsFromRows(result)
}

func (s *PostgresStore) RealizedGains(ctx context.Context, securityID string) ([]invest.RealizedGain, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT sell_trade_id, lot_origin_id, security_id,
		        quantity::TEXT, currency, cost_basis::TEXT, proceeds::TEXT, gain::TEXT,
		        open_date::TEXT, close_date::TEXT, holding_days
		 FROM realized_gains WHERE security_id = $1
		 ORDER BY close_date, seq`, securityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []gainRow
	for rows.Next() {
		var r gainRow
		if err := rows.Scan(&r.SellTradeID, &r.LotOriginID, &r.SecurityID,
			&r.Quantity, &r.Currency, &r.CostBasis, &r.Proceeds, &r.Gain,
			&r.OpenDate, &r.CloseDate, &r.Days); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return gainsFromRows(result)
}

func (s *PostgresStore) Settle(ctx context.Context, securityID string, on date.Date) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE cashflows SET status = $1
		 WHERE security_id = $2 AND status = $3 AND date <= $4::DATE`,
		invest.Realized.String(), securityID, invest.Projected.String(), on.String())
	if err != nil {
		return 0, fmt.Errorf("settle cashflows of %s: %w", securityID, err)
	}
	return int(tag.RowsAffected()), nil
}
