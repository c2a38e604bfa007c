package store

import (
	"context"
	"slices"
	"sync"

	"github.com/etnz/invest"
	"github.com/etnz/invest/date"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and one-shot command runs. Not suitable for production (no persistence).
type MemoryStore struct {
	mu        sync.RWMutex
	gains     map[string][]invest.RealizedGain // by security id, in insertion order
	cashflows map[string][]invest.Cashflow     // by security id
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		gains:     make(map[string][]invest.RealizedGain),
		cashflows: make(map[string][]invest.Cashflow),
	}
}

func (s *MemoryStore) AppendRealizedGains(_ context.Context, securityID string, gains []invest.RealizedGain) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recorded := s.gains[securityID]
	for _, g := range gains {
		exists := slices.ContainsFunc(recorded, func(r invest.RealizedGain) bool {
			return r.SellTradeID == g.SellTradeID && r.LotOriginID == g.LotOriginID
		})
		if !exists {
			recorded = append(recorded, g)
		}
	}
	s.gains[securityID] = recorded
	return nil
}

func (s *MemoryStore) ReplaceProjected(_ context.Context, securityID string, cashflows []invest.Cashflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []invest.Cashflow
	for _, c := range s.cashflows[securityID] {
		if c.Status == invest.Realized {
			kept = append(kept, c)
		}
	}
	realized := len(kept)
	for _, c := range cashflows {
		settled := slices.ContainsFunc(kept[:realized], func(r invest.Cashflow) bool {
			return r.Date == c.Date && r.Kind == c.Kind
		})
		if !settled {
			c.SecurityID = securityID
			c.Status = invest.Projected
			kept = append(kept, c)
		}
	}
	s.cashflows[securityID] = kept
	return nil
}

func (s *MemoryStore) Cashflows(_ context.Context, securityID string) ([]invest.Cashflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cashflows := slices.Clone(s.cashflows[securityID])
	sortCashflows(cashflows)
	return cashflows, nil
}

func (s *MemoryStore) RealizedGains(_ context.Context, securityID string) ([]invest.RealizedGain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gains := slices.Clone(s.gains[securityID])
	slices.SortStableFunc(gains, func(a, b invest.RealizedGain) int { return a.CloseDate.Compare(b.CloseDate) })
	return gains, nil
}

func (s *MemoryStore) Settle(_ context.Context, securityID string, on date.Date) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for i, c := range s.cashflows[securityID] {
		if c.Status == invest.Projected && !c.Date.After(on) {
			s.cashflows[securityID][i].Status = invest.Realized
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Close() error { return nil }
