package types

import (
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"

	"github.com/quantlab-dev/alpaca-dl/pkg/errors"
)

// Side is the direction of a fill.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ParseSide converts a raw side string into a Side.
func ParseSide(raw string) (Side, error) {
	switch Side(raw) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	default:
		return "", errors.Newf(errors.ErrCodeMalformedEvent, "unknown side %q", raw)
	}
}

// FillEvent is a single broker fill confirmation. Quantity and price are
// always positive; direction is carried by Side.
type FillEvent struct {
	ID              string
	Symbol          string
	Side            Side
	Qty             int64
	Price           decimal.Decimal
	TransactionTime time.Time
}

// Validate checks the FillEvent invariants: positive quantity, positive
// price, a known side and a usable timestamp.
func (e FillEvent) Validate() error {
	if _, err := ParseSide(string(e.Side)); err != nil {
		return err
	}

	if e.Symbol == "" {
		return errors.New(errors.ErrCodeMalformedEvent, "empty symbol")
	}

	if e.Qty <= 0 {
		return errors.Newf(errors.ErrCodeMalformedEvent, "non-positive quantity %d for %s", e.Qty, e.Symbol)
	}

	if e.Price.LessThanOrEqual(decimal.Zero) {
		return errors.Newf(errors.ErrCodeMalformedEvent, "non-positive price %s for %s", e.Price, e.Symbol)
	}

	if e.TransactionTime.IsZero() {
		return errors.Newf(errors.ErrCodeMalformedEvent, "zero transaction time for %s", e.Symbol)
	}

	return nil
}

// ParseFillEvent converts a raw account activity record into a strongly
// typed FillEvent. Only FILL activities are convertible; anything else, and
// any record failing the FillEvent invariants, returns a structured error
// instead of propagating garbage values into the reconstruction.
func ParseFillEvent(activity alpaca.AccountActivity) (FillEvent, error) {
	if activity.ActivityType != "FILL" {
		return FillEvent{}, errors.Newf(errors.ErrCodeActivityParseFailed,
			"activity %s is %s, not FILL", activity.ID, activity.ActivityType)
	}

	side, err := ParseSide(activity.Side)
	if err != nil {
		return FillEvent{}, errors.Wrapf(errors.ErrCodeActivityParseFailed, err,
			"activity %s (%s)", activity.ID, activity.Symbol)
	}

	if !activity.Qty.IsInteger() {
		return FillEvent{}, errors.Newf(errors.ErrCodeActivityParseFailed,
			"activity %s (%s): fractional quantity %s", activity.ID, activity.Symbol, activity.Qty)
	}

	event := FillEvent{
		ID:              activity.ID,
		Symbol:          activity.Symbol,
		Side:            side,
		Qty:             activity.Qty.IntPart(),
		Price:           activity.Price,
		TransactionTime: activity.TransactionTime,
	}

	if err := event.Validate(); err != nil {
		return FillEvent{}, errors.Wrapf(errors.ErrCodeActivityParseFailed, err,
			"activity %s", activity.ID)
	}

	return event, nil
}
