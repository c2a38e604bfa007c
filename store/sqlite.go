package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/etnz/invest"
	"github.com/etnz/invest/date"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements Store in a local SQLite file.
// Decimals are stored as TEXT to keep their exact value.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens, and creates if needed, the database at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		path = "inv.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(path), err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database at '%s': %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database at '%s': %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{db: db}
	if err := s.initializeSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}
	return s, nil
}

// initializeSchema creates tables if they don't exist.
func (s *SQLiteStore) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS realized_gains (
		sell_trade_id TEXT NOT NULL,
		lot_origin_id TEXT NOT NULL,
		security_id TEXT NOT NULL,
		quantity TEXT NOT NULL,
		currency TEXT NOT NULL,
		cost_basis TEXT NOT NULL,
		proceeds TEXT NOT NULL,
		gain TEXT NOT NULL,
		open_date TEXT NOT NULL,
		close_date TEXT NOT NULL,
		holding_days INTEGER NOT NULL,
		PRIMARY KEY (sell_trade_id, lot_origin_id)
	);

	CREATE TABLE IF NOT EXISTS cashflows (
		security_id TEXT NOT NULL,
		date TEXT NOT NULL,
		kind TEXT NOT NULL,
		currency TEXT NOT NULL,
		amount TEXT NOT NULL,
		status TEXT NOT NULL,
		PRIMARY KEY (security_id, date, kind)
	);
	CREATE INDEX IF NOT EXISTS idx_realized_gains_security ON realized_gains (security_id, close_date);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) AppendRealizedGains(ctx context.Context, securityID string, gains []invest.RealizedGain) error {
	const query = `
	INSERT OR IGNORE INTO realized_gains
		(sell_trade_id, lot_origin_id, security_id, quantity, currency, cost_basis, proceeds, gain, open_date, close_date, holding_days)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, g := range gains {
			r := newGainRow(securityID, g)
			if _, err := tx.ExecContext(ctx, query,
				r.SellTradeID, r.LotOriginID, r.SecurityID, r.Quantity, r.Currency,
				r.CostBasis, r.Proceeds, r.Gain, r.OpenDate, r.CloseDate, r.Days); err != nil {
				return fmt.Errorf("failed to insert gain of sell %s on lot %s: %w", g.SellTradeID, g.LotOriginID, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ReplaceProjected(ctx context.Context, securityID string, cashflows []invest.Cashflow) error {
	const insert = `
	INSERT OR IGNORE INTO cashflows (security_id, date, kind, currency, amount, status)
	VALUES (?, ?, ?, ?, ?, ?)`

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cashflows WHERE security_id = ? AND status = ?`,
			securityID, invest.Projected.String()); err != nil {
			return fmt.Errorf("failed to delete projected cashflows of %s: %w", securityID, err)
		}
		for _, c := range cashflows {
			c.Status = invest.Projected
			r := newCashflowRow(securityID, c)
			if _, err := tx.ExecContext(ctx, insert, r.SecurityID, r.Date, r.Kind, r.Currency, r.Amount, r.Status); err != nil {
				return fmt.Errorf("failed to insert cashflow of %s on %s: %w", securityID, r.Date, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) Cashflows(ctx context.Context, securityID string) ([]invest.Cashflow, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT security_id, date, kind, currency, amount, status
	FROM cashflows WHERE security_id = ?`, securityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cashflows of %s: %w", securityID, err)
	}
	defer rows.Close()

	var result []cashflowRow
	for rows.Next() {
		var r cashflowRow
		if err := rows.Scan(&r.SecurityID, &r.Date, &r.Kind, &r.Currency, &r.Amount, &r.Status); err != nil {
			return nil, fmt.Errorf("failed to scan cashflow of %s: %w", securityID, err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cashflowsFromRows(result)
}

func (s *SQLiteStore) RealizedGains(ctx context.Context, securityID string) ([]invest.RealizedGain, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT sell_trade_id, lot_origin_id, security_id, quantity, currency, cost_basis, proceeds, gain, open_date, close_date, holding_days
	FROM realized_gains WHERE security_id = ?
	ORDER BY close_date, rowid`, securityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query gains of %s: %w", securityID, err)
	}
	defer rows.Close()

	var result []gainRow
	for rows.Next() {
		var r gainRow
		if err := rows.Scan(&r.SellTradeID, &r.LotOriginID, &r.SecurityID, &r.Quantity, &r.Currency,
			&r.CostBasis, &r.Proceeds, &r.Gain, &r.OpenDate, &r.CloseDate, &r.Days); err != nil {
			return nil, fmt.Errorf("failed to scan gain of %s: %w", securityID, err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return gainsFromRows(result)
}

func (s *SQLiteStore) Settle(ctx context.Context, securityID string, on date.Date) (int, error) {
	// ISO dates compare as text.
	result, err := s.db.ExecContext(ctx, `
	UPDATE cashflows SET status = ?
	WHERE security_id = ? AND status = ? AND date <= ?`,
		invest.Realized.String(), securityID, invest.Projected.String(), on.String())
	if err != nil {
		return 0, fmt.Errorf("failed to settle cashflows of %s: %w", securityID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected when settling %s: %w", securityID, err)
	}
	return int(n), nil
}

// inTx runs f in a transaction, committed only if f succeeds.
func (s *SQLiteStore) inTx(ctx context.Context, f func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	if err := f(tx); err != nil {
		return err
	}
	return tx.Commit()
}
