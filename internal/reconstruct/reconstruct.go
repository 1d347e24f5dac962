// Package reconstruct turns a stream of buy/sell fill events into closed
// round-trip trades with realized PnL.
//
// Each symbol is folded independently through a small state machine: a buy
// opens or grows a position, a sell reduces it, and the instant the open
// quantity returns to exactly zero the accumulated cycle is emitted as a
// ClosedTrade. Cost basis is the volume-weighted average purchase price over
// all buys since the position was last flat; it is never recomputed on a
// sell. Sells with no open position are reported as orphans, sells larger
// than the open quantity are reported as oversell anomalies, and positions
// still open at the end of the window are returned as-is.
package reconstruct

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/quantlab-dev/alpaca-dl/internal/types"
	"github.com/quantlab-dev/alpaca-dl/pkg/errors"
)

// Result holds every outcome of a reconstruction pass. The four slices are
// disjoint: a fill event contributes to exactly one of them.
type Result struct {
	// ClosedTrades are the completed flat-to-flat cycles, ordered by exit
	// time, then symbol, then entry time.
	ClosedTrades []types.ClosedTrade
	// Orphans are sells observed while no position was open for the symbol.
	Orphans []types.FillEvent
	// OpenPositions are positions that never returned to zero within the
	// window, ordered by symbol.
	OpenPositions []types.OpenPosition
	// Oversells are sells that exceeded the tracked open quantity.
	Oversells []types.OversellAnomaly
}

// TotalRealizedPnL sums the realized PnL across all closed trades.
func (r Result) TotalRealizedPnL() decimal.Decimal {
	total := decimal.Zero
	for _, trade := range r.ClosedTrades {
		total = total.Add(trade.RealizedPnL)
	}

	return total
}

// state is the per-symbol fold accumulator. The zero value means flat.
type state struct {
	open bool
	pos  types.OpenPosition
}

// emission is what a single fold step produced besides the next state. At
// most one of closed/orphan is set; oversell may accompany a sell that also
// updates the position arithmetic.
type emission struct {
	closed   *types.ClosedTrade
	orphan   *types.FillEvent
	oversell *types.OversellAnomaly
}

// Reconstruct folds each symbol's events, sorted ascending by transaction
// time, into closed trades. It is a pure function of its input: no state
// survives the call, and the same input always yields the same Result.
// The only error condition is a malformed event (non-positive quantity or
// price, unknown side), which fails the whole pass.
func Reconstruct(eventsBySymbol map[string][]types.FillEvent) (Result, error) {
	var result Result

	// Symbols are processed in sorted order so orphan and oversell output
	// is deterministic regardless of map iteration order.
	symbols := make([]string, 0, len(eventsBySymbol))
	for symbol := range eventsBySymbol {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	for _, symbol := range symbols {
		if err := reconstructSymbol(symbol, eventsBySymbol[symbol], &result); err != nil {
			return Result{}, err
		}
	}

	sort.SliceStable(result.ClosedTrades, func(i, j int) bool {
		a, b := result.ClosedTrades[i], result.ClosedTrades[j]
		if !a.ExitTime.Equal(b.ExitTime) {
			return a.ExitTime.Before(b.ExitTime)
		}

		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}

		return a.EntryTime.Before(b.EntryTime)
	})

	return result, nil
}

func reconstructSymbol(symbol string, events []types.FillEvent, result *Result) error {
	ordered := sortEvents(events)

	current := state{}

	for _, event := range events {
		if event.Symbol != symbol {
			return errors.Newf(errors.ErrCodeMalformedEvent,
				"event %s for %s grouped under %s", event.ID, event.Symbol, symbol)
		}
	}

	for _, event := range ordered {
		next, emitted, err := step(current, event)
		if err != nil {
			return err
		}

		if emitted.orphan != nil {
			result.Orphans = append(result.Orphans, *emitted.orphan)
		}

		if emitted.oversell != nil {
			result.Oversells = append(result.Oversells, *emitted.oversell)
		}

		if emitted.closed != nil {
			result.ClosedTrades = append(result.ClosedTrades, *emitted.closed)
		}

		current = next
	}

	if current.open {
		result.OpenPositions = append(result.OpenPositions, current.pos)
	}

	return nil
}

// step applies one fill event to the fold state. It never mutates its
// input; the next state and anything emitted are returned.
func step(current state, event types.FillEvent) (state, emission, error) {
	if err := event.Validate(); err != nil {
		return state{}, emission{}, err
	}

	if !current.open {
		if event.Side == types.SideSell {
			// A sell with no tracked prior buy has no cost basis to
			// compute PnL against. Report it instead of guessing.
			orphan := event

			return state{}, emission{orphan: &orphan}, nil
		}

		return state{open: true, pos: openPosition(event)}, emission{}, nil
	}

	if event.Side == types.SideBuy {
		return state{open: true, pos: addToPosition(current.pos, event)}, emission{}, nil
	}

	return reducePosition(current.pos, event)
}

func openPosition(event types.FillEvent) types.OpenPosition {
	cost := decimal.NewFromInt(event.Qty).Mul(event.Price)

	return types.OpenPosition{
		Symbol:         event.Symbol,
		Quantity:       event.Qty,
		TotalBought:    event.Qty,
		TotalCost:      cost,
		AverageCost:    event.Price,
		RealizedPnL:    decimal.Zero,
		EntryPrice:     event.Price,
		FirstEntryTime: event.TransactionTime,
	}
}

func addToPosition(pos types.OpenPosition, event types.FillEvent) types.OpenPosition {
	pos.Quantity += event.Qty
	pos.TotalBought += event.Qty
	pos.TotalCost = pos.TotalCost.Add(decimal.NewFromInt(event.Qty).Mul(event.Price))
	// Volume-weighted over everything bought since flat, not the net open
	// quantity: partial sells must not move the average cost.
	pos.AverageCost = pos.TotalCost.Div(decimal.NewFromInt(pos.TotalBought))

	return pos
}

func reducePosition(pos types.OpenPosition, event types.FillEvent) (state, emission, error) {
	var emitted emission

	if event.Qty > pos.Quantity {
		emitted.oversell = &types.OversellAnomaly{
			Event:        event,
			OpenQuantity: pos.Quantity,
		}
	}

	pnl := decimal.NewFromInt(event.Qty).Mul(event.Price.Sub(pos.AverageCost))
	pos.RealizedPnL = pos.RealizedPnL.Add(pnl)
	pos.Quantity -= event.Qty

	if pos.Quantity != 0 {
		// Still open, possibly with a negative quantity after an oversell.
		// A negative position can never reach exactly zero again, so it
		// surfaces in OpenPositions at the end of the pass.
		return state{open: true, pos: pos}, emitted, nil
	}

	emitted.closed = &types.ClosedTrade{
		Symbol:      pos.Symbol,
		Quantity:    pos.TotalBought,
		EntryPrice:  pos.EntryPrice,
		ExitPrice:   event.Price,
		AverageCost: pos.AverageCost,
		RealizedPnL: pos.RealizedPnL,
		EntryTime:   pos.FirstEntryTime,
		ExitTime:    event.TransactionTime,
	}

	return state{}, emitted, nil
}

// sortEvents returns a copy of events in ascending transaction time order.
// The sort is stable and ties are broken by event ID so the fold sees the
// same sequence no matter how the fetch layer delivered the events.
func sortEvents(events []types.FillEvent) []types.FillEvent {
	ordered := make([]types.FillEvent, len(events))
	copy(ordered, events)

	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].TransactionTime.Equal(ordered[j].TransactionTime) {
			return ordered[i].TransactionTime.Before(ordered[j].TransactionTime)
		}

		return ordered[i].ID < ordered[j].ID
	})

	return ordered
}
