package provider

import (
	"strings"

	md "github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/polygon-io/client-go/rest/models"

	"github.com/quantlab-dev/alpaca-dl/pkg/errors"
)

// Timeframe is the bar interval requested from a provider.
type Timeframe string

const (
	TimeframeOneMinute      Timeframe = "1Min"
	TimeframeFiveMinutes    Timeframe = "5Min"
	TimeframeFifteenMinutes Timeframe = "15Min"
	TimeframeSixtyMinutes   Timeframe = "60Min"
	TimeframeOneDay         Timeframe = "Day"
)

// ParseTimeframe normalizes a user supplied interval string. Matching is
// case-insensitive ("15min" and "15Min" both work, as the original scripts
// accepted either spelling).
func ParseTimeframe(raw string) (Timeframe, error) {
	for _, tf := range []Timeframe{
		TimeframeOneMinute,
		TimeframeFiveMinutes,
		TimeframeFifteenMinutes,
		TimeframeSixtyMinutes,
		TimeframeOneDay,
	} {
		if strings.EqualFold(raw, string(tf)) {
			return tf, nil
		}
	}

	return "", errors.Newf(errors.ErrCodeInvalidTimeframe,
		"unknown timeframe %q (want 1Min, 5Min, 15Min, 60Min or Day)", raw)
}

// Alpaca converts the timeframe into the Alpaca SDK representation.
func (t Timeframe) Alpaca() md.TimeFrame {
	switch t {
	case TimeframeOneMinute:
		return md.OneMin
	case TimeframeFiveMinutes:
		return md.NewTimeFrame(5, md.Min)
	case TimeframeFifteenMinutes:
		return md.NewTimeFrame(15, md.Min)
	case TimeframeSixtyMinutes:
		return md.NewTimeFrame(1, md.Hour)
	case TimeframeOneDay:
		return md.OneDay
	default:
		return md.OneDay
	}
}

// Polygon converts the timeframe into a polygon multiplier and timespan.
func (t Timeframe) Polygon() (int, models.Timespan) {
	switch t {
	case TimeframeOneMinute:
		return 1, models.Minute
	case TimeframeFiveMinutes:
		return 5, models.Minute
	case TimeframeFifteenMinutes:
		return 15, models.Minute
	case TimeframeSixtyMinutes:
		return 1, models.Hour
	case TimeframeOneDay:
		return 1, models.Day
	default:
		return 1, models.Day
	}
}

// Binance converts the timeframe into a binance kline interval string.
func (t Timeframe) Binance() string {
	switch t {
	case TimeframeOneMinute:
		return "1m"
	case TimeframeFiveMinutes:
		return "5m"
	case TimeframeFifteenMinutes:
		return "15m"
	case TimeframeSixtyMinutes:
		return "1h"
	case TimeframeOneDay:
		return "1d"
	default:
		return "1d"
	}
}
