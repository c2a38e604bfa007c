package invest

import (
	"errors"
	"fmt"

	"github.com/etnz/invest/date"
)

// Sentinel errors matched by the typed errors returned by the engines.
var (
	// ErrInsufficientInventory is matched when a sell exceeds the open lots.
	ErrInsufficientInventory = errors.New("insufficient inventory")
	// ErrScheduleInvariant is matched when an amortization schedule is malformed.
	ErrScheduleInvariant = errors.New("amortization schedule invariant violation")
	// ErrInvalidTradeOrdering is matched when trades are not sorted by date.
	ErrInvalidTradeOrdering = errors.New("trades are not in chronological order")
	// ErrInvalidTrade is matched when a trade is malformed.
	ErrInvalidTrade = errors.New("invalid trade")
	// ErrInvalidTerms is matched when bond terms cannot produce a schedule.
	ErrInvalidTerms = errors.New("invalid bond terms")
)

// InsufficientInventoryError reports a sell that could not be fully matched
// against open lots. Unmatched is the quantity left over.
type InsufficientInventoryError struct {
	SellTradeID string
	Date        date.Date
	Unmatched   Quantity
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("sell %s on %s exceeds open lots by %s", e.SellTradeID, e.Date, e.Unmatched)
}

func (e *InsufficientInventoryError) Is(target error) bool { return target == ErrInsufficientInventory }

// ScheduleError reports a custom amortization schedule that violates its invariants.
type ScheduleError struct {
	Index  int // index of the offending checkpoint, -1 for whole-schedule violations
	Reason string
}

func (e *ScheduleError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid amortization schedule: %s", e.Reason)
	}
	return fmt.Sprintf("invalid amortization checkpoint #%d: %s", e.Index, e.Reason)
}

func (e *ScheduleError) Is(target error) bool { return target == ErrScheduleInvariant }

// InvalidTradeOrderingError reports the first trade dated before its predecessor.
type InvalidTradeOrderingError struct {
	Index    int
	Previous date.Date
	Date     date.Date
}

func (e *InvalidTradeOrderingError) Error() string {
	return fmt.Sprintf("trade #%d dated %s comes after a trade dated %s", e.Index, e.Date, e.Previous)
}

func (e *InvalidTradeOrderingError) Is(target error) bool { return target == ErrInvalidTradeOrdering }

// InvalidTradeError reports a malformed trade.
type InvalidTradeError struct {
	TradeID string
	Reason  string
}

func (e *InvalidTradeError) Error() string {
	return fmt.Sprintf("invalid trade %s: %s", e.TradeID, e.Reason)
}

func (e *InvalidTradeError) Is(target error) bool { return target == ErrInvalidTrade }

// InvalidTermsError reports bond terms that cannot produce a coupon schedule.
type InvalidTermsError struct {
	SecurityID string
	Reason     string
}

func (e *InvalidTermsError) Error() string {
	return fmt.Sprintf("invalid terms for %s: %s", e.SecurityID, e.Reason)
}

func (e *InvalidTermsError) Is(target error) bool { return target == ErrInvalidTerms }

// DegradedProjection is a warning: the security has no emission date and the
// coupon grid was anchored on the first day of the horizon month instead.
// It implements error so callers can surface it like one.
type DegradedProjection struct {
	SecurityID string
	Anchor     date.Date
}

func (w *DegradedProjection) Error() string {
	return fmt.Sprintf("%s has no emission date: coupon dates anchored on %s are approximate", w.SecurityID, w.Anchor)
}
