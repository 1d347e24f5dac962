package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClosedTrade is one complete flat-to-flat cycle for a symbol: the position
// was opened by a buy, possibly grown by further buys, reduced by sells, and
// ended the moment the held quantity returned to exactly zero.
type ClosedTrade struct {
	Symbol string `csv:"symbol"`
	// Quantity is the total number of shares bought over the cycle.
	Quantity int64 `csv:"quantity"`
	// EntryPrice is the price of the opening fill.
	EntryPrice decimal.Decimal `csv:"entry_price"`
	// ExitPrice is the price of the fill that flattened the position.
	ExitPrice decimal.Decimal `csv:"exit_price"`
	// AverageCost is the volume-weighted average purchase price at exit time.
	AverageCost decimal.Decimal `csv:"average_cost"`
	// RealizedPnL is the sum of per-sell PnL over the cycle, each sell
	// marked against the average cost at its time.
	RealizedPnL decimal.Decimal `csv:"realized_pnl"`
	EntryTime   time.Time       `csv:"entry_time"`
	ExitTime    time.Time       `csv:"exit_time"`
}

// HoldingTime is the time between the opening fill and the flattening fill.
func (t ClosedTrade) HoldingTime() time.Duration {
	return t.ExitTime.Sub(t.EntryTime)
}

// OpenPosition is a position that did not return to zero within the
// processed window. Quantity can be negative after an oversell; such a
// position can never close.
type OpenPosition struct {
	Symbol string
	// Quantity is the running signed open share count.
	Quantity int64
	// TotalBought is the cumulative quantity bought since the position was
	// last flat. It does not shrink on sells; it is the average-cost
	// denominator.
	TotalBought int64
	// TotalCost is the cumulative quantity*price over all buys since flat.
	TotalCost decimal.Decimal
	// AverageCost is TotalCost / TotalBought, recomputed on every buy and
	// never on a sell.
	AverageCost decimal.Decimal
	// RealizedPnL accumulated by partial sells so far.
	RealizedPnL    decimal.Decimal
	EntryPrice     decimal.Decimal
	FirstEntryTime time.Time
}

// OversellAnomaly records a sell whose quantity exceeded the tracked open
// quantity. The arithmetic is still applied (the open quantity goes
// negative) so the outcome is faithful to the input, but it is surfaced
// here instead of being clamped or silently absorbed.
type OversellAnomaly struct {
	Event FillEvent
	// OpenQuantity is the open share count before the sell was applied.
	OpenQuantity int64
}
