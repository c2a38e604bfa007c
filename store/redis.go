package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/etnz/invest"
	"github.com/etnz/invest/date"
)

// CachedStore wraps a primary Store with a Redis read-through cache of the
// per-security reads. Writes go to the primary store and invalidate the cache;
// reads check Redis first then fall back to the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// WithCache wraps primary with a cache at the redis url.
func WithCache(ctx context.Context, primary Store, url string, ttl time.Duration) (*CachedStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return NewCachedStore(primary, rdb, ttl), nil
}

func cashflowsKey(securityID string) string { return "invest:cashflows:" + securityID }
func gainsKey(securityID string) string     { return "invest:gains:" + securityID }

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) AppendRealizedGains(ctx context.Context, securityID string, gains []invest.RealizedGain) error {
	if err := s.primary.AppendRealizedGains(ctx, securityID, gains); err != nil {
		return err
	}
	s.rdb.Del(ctx, gainsKey(securityID))
	return nil
}

func (s *CachedStore) ReplaceProjected(ctx context.Context, securityID string, cashflows []invest.Cashflow) error {
	if err := s.primary.ReplaceProjected(ctx, securityID, cashflows); err != nil {
		return err
	}
	s.rdb.Del(ctx, cashflowsKey(securityID))
	return nil
}

func (s *CachedStore) Settle(ctx context.Context, securityID string, on date.Date) (int, error) {
	n, err := s.primary.Settle(ctx, securityID, on)
	if err != nil {
		return n, err
	}
	s.rdb.Del(ctx, cashflowsKey(securityID))
	return n, nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) Cashflows(ctx context.Context, securityID string) ([]invest.Cashflow, error) {
	var rows []cashflowRow
	if s.get(ctx, cashflowsKey(securityID), &rows) {
		if cashflows, err := cashflowsFromRows(rows); err == nil {
			return cashflows, nil
		}
	}

	// Cache miss: read from primary.
	cashflows, err := s.primary.Cashflows(ctx, securityID)
	if err != nil {
		return nil, err
	}
	rows = make([]cashflowRow, 0, len(cashflows))
	for _, c := range cashflows {
		rows = append(rows, newCashflowRow(securityID, c))
	}
	s.set(ctx, cashflowsKey(securityID), rows)
	return cashflows, nil
}

func (s *CachedStore) RealizedGains(ctx context.Context, securityID string) ([]invest.RealizedGain, error) {
	var rows []gainRow
	if s.get(ctx, gainsKey(securityID), &rows) {
		if gains, err := gainsFromRows(rows); err == nil {
			return gains, nil
		}
	}

	gains, err := s.primary.RealizedGains(ctx, securityID)
	if err != nil {
		return nil, err
	}
	rows = make([]gainRow, 0, len(gains))
	for _, g := range gains {
		rows = append(rows, newGainRow(securityID, g))
	}
	s.set(ctx, gainsKey(securityID), rows)
	return gains, nil
}

// Close closes the redis client and the primary store.
func (s *CachedStore) Close() error {
	s.rdb.Close()
	return s.primary.Close()
}

func (s *CachedStore) get(ctx context.Context, key string, v any) bool {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

func (s *CachedStore) set(ctx context.Context, key string, v any) {
	if data, err := json.Marshal(v); err == nil {
		s.rdb.Set(ctx, key, data, s.ttl)
	}
}
