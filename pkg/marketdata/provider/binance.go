package provider

import (
	"context"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"

	"github.com/quantlab-dev/alpaca-dl/internal/types"
	"github.com/quantlab-dev/alpaca-dl/pkg/errors"
)

// binancePageSize is the maximum number of klines Binance returns per
// request.
const binancePageSize = 500

// BinanceProvider fetches kline bars from the Binance public market data
// API. No authentication is required.
type BinanceProvider struct {
	client *binance.Client
}

func NewBinanceProvider() (Provider, error) {
	return &BinanceProvider{client: binance.NewClient("", "")}, nil
}

func (p *BinanceProvider) Name() ProviderType {
	return ProviderBinance
}

// GetBars pages through klines in 500-row windows, advancing the start
// cursor past the last close time of each page.
func (p *BinanceProvider) GetBars(ctx context.Context, req BarRequest) (types.SymbolBars, error) {
	result := types.SymbolBars{Symbol: req.Symbol}

	currentStart := req.Start.UnixMilli()
	endMillis := req.End.UnixMilli()

	for {
		klines, err := p.client.NewKlinesService().
			Symbol(req.Symbol).
			Interval(req.Timeframe.Binance()).
			StartTime(currentStart).
			EndTime(endMillis).
			Do(ctx)
		if err != nil {
			return types.SymbolBars{}, errors.Wrapf(errors.ErrCodeBarsFetchFailed, err,
				"binance klines for %s", req.Symbol)
		}

		for _, kline := range klines {
			bar, err := convertKline(kline)
			if err != nil {
				return types.SymbolBars{}, errors.Wrapf(errors.ErrCodeBarsFetchFailed, err,
					"binance kline for %s", req.Symbol)
			}

			result.Bars = append(result.Bars, bar)

			if req.Limit > 0 && len(result.Bars) >= req.Limit {
				return result, nil
			}
		}

		if len(klines) < binancePageSize {
			return result, nil
		}

		currentStart = klines[len(klines)-1].CloseTime + 1
	}
}

func (p *BinanceProvider) GetSnapshots(ctx context.Context, symbols []string) ([]types.SymbolBars, error) {
	return nil, errors.New(errors.ErrCodeSnapshotUnsupported, "binance provider does not support snapshots")
}

func convertKline(kline *binance.Kline) (types.Bar, error) {
	open, err := strconv.ParseFloat(kline.Open, 64)
	if err != nil {
		return types.Bar{}, err
	}

	high, err := strconv.ParseFloat(kline.High, 64)
	if err != nil {
		return types.Bar{}, err
	}

	low, err := strconv.ParseFloat(kline.Low, 64)
	if err != nil {
		return types.Bar{}, err
	}

	closePrice, err := strconv.ParseFloat(kline.Close, 64)
	if err != nil {
		return types.Bar{}, err
	}

	volume, err := strconv.ParseFloat(kline.Volume, 64)
	if err != nil {
		return types.Bar{}, err
	}

	return types.Bar{
		Time:   time.UnixMilli(kline.OpenTime).UTC(),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePrice,
		Volume: volume,
	}, nil
}
