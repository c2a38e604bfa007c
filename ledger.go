package invest

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"sort"
)

// Ledger is the list of declared securities and of the trades on them.
//
// In a Ledger trades are always in chronological order, trades on the same day
// keep their insertion order.
type Ledger struct {
	trades     []Trade
	securities map[string]Security // index securities by id
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		trades:     make([]Trade, 0),
		securities: make(map[string]Security),
	}
}

// Declare adds sec to the ledger, replacing any previous declaration with the
// same id.
func (l *Ledger) Declare(sec Security) {
	l.securities[sec.ID()] = sec
}

// Security returns the security declared with this id, or nil if unknown.
func (l *Ledger) Security(id string) *Security {
	sec, ok := l.securities[id]
	if !ok {
		return nil
	}
	return &sec
}

// Securities iterates over declared securities by id.
func (l *Ledger) Securities() iter.Seq[Security] {
	return func(yield func(Security) bool) {
		for _, id := range slices.Sorted(maps.Keys(l.securities)) {
			if !yield(l.securities[id]) {
				return
			}
		}
	}
}

// Append adds trades to the ledger. It does not validate them.
func (l *Ledger) Append(trades ...Trade) {
	l.trades = append(l.trades, trades...)
	l.stableSort()
}

// Delete removes the trade with this id and reports whether it existed.
func (l *Ledger) Delete(tradeID string) bool {
	i := slices.IndexFunc(l.trades, func(t Trade) bool { return t.ID == tradeID })
	if i < 0 {
		return false
	}
	l.trades = slices.Delete(l.trades, i, i+1)
	return true
}

// Trade returns the trade with this id.
func (l *Ledger) Trade(id string) (Trade, bool) {
	i := slices.IndexFunc(l.trades, func(t Trade) bool { return t.ID == id })
	if i < 0 {
		return Trade{}, false
	}
	return l.trades[i], true
}

// Trades returns the trades of a security in the order the FIFO engine expects.
func (l *Ledger) Trades(securityID string) []Trade {
	var trades []Trade
	for _, t := range l.trades {
		if t.SecurityID == securityID {
			trades = append(trades, t)
		}
	}
	return trades
}

// Len returns the number of trades.
func (l *Ledger) Len() int { return len(l.trades) }

// Validate checks that tx can be appended to the ledger: it is well formed, its
// security is declared in the same currency, and a sell does not exceed the
// lots open on its date.
func (l *Ledger) Validate(tx Trade) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	sec := l.Security(tx.SecurityID)
	if sec == nil {
		return &InvalidTradeError{TradeID: tx.ID, Reason: fmt.Sprintf("security %q is not declared", tx.SecurityID)}
	}
	if tx.Currency() != sec.Currency() {
		return &InvalidTradeError{TradeID: tx.ID, Reason: fmt.Sprintf("currency %s does not match %s traded in %s", tx.Currency(), sec.ID(), sec.Currency())}
	}
	if _, exists := l.Trade(tx.ID); exists {
		return &InvalidTradeError{TradeID: tx.ID, Reason: "duplicate trade id"}
	}
	if tx.Side != Sell {
		return nil
	}
	// Simulate the ledger with tx appended after the trades of its day.
	trades := l.Trades(tx.SecurityID)
	i := sort.Search(len(trades), func(i int) bool { return trades[i].Date.After(tx.Date) })
	trades = slices.Insert(trades, i, tx)
	if _, err := ComputeFIFO(trades); err != nil {
		return fmt.Errorf("invalid sell on %s: %w", tx.Date, err)
	}
	return nil
}

func (l *Ledger) stableSort() {
	sort.SliceStable(l.trades, func(i, j int) bool {
		return l.trades[i].Date.Before(l.trades[j].Date)
	})
}
