// Package invest is the accounting core of a personal investment tracker.
//
// It is a set of pure, stateless engines that turn the trades and contract
// terms of a security into derived data:
//   - Lot Ledger: FIFO matching of sells against the oldest open lots,
//     producing realized gains and the remaining open inventory
//     (see ComputeFIFO).
//   - Amortization Schedule Resolver: the principal repayment checkpoints of
//     a bond, bullet or custom (see Amortization.Resolve).
//   - Cashflow Projector: the future interest and principal payments of the
//     quantity still held (see Project).
//
// Recompute chains the engines for one security: a new or deleted trade
// changes the open quantity, so the forward cashflows are regenerated
// wholesale, never patched. RecomputeAll runs one recomputation per security
// in parallel.
//
// Engines take an explicit horizon date and never read the clock. Trades and
// securities are persisted in a human-readable JSONL ledger (see
// DecodeLedger); derived data is persisted by the store package.
package invest
