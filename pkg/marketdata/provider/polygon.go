package provider

import (
	"context"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"github.com/quantlab-dev/alpaca-dl/internal/types"
	"github.com/quantlab-dev/alpaca-dl/pkg/errors"
)

// PolygonProvider fetches aggregate bars from the Polygon.io REST API.
type PolygonProvider struct {
	client *polygon.Client
}

func NewPolygonProvider(apiKey string) (Provider, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "polygon API key is required (POLYGON_API_KEY)")
	}

	return &PolygonProvider{client: polygon.New(apiKey)}, nil
}

func (p *PolygonProvider) Name() ProviderType {
	return ProviderPolygon
}

func (p *PolygonProvider) GetBars(ctx context.Context, req BarRequest) (types.SymbolBars, error) {
	multiplier, timespan := req.Timeframe.Polygon()

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     req.Symbol,
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(req.Start),
		To:         models.Millis(req.End),
	}.WithLimit(50000).WithAdjusted(true)

	iter := p.client.ListAggs(ctx, params)

	result := types.SymbolBars{Symbol: req.Symbol}

	for iter.Next() {
		agg := iter.Item()
		result.Bars = append(result.Bars, types.Bar{
			Time:   time.Time(agg.Timestamp),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})

		if req.Limit > 0 && len(result.Bars) >= req.Limit {
			break
		}
	}

	if iter.Err() != nil {
		return types.SymbolBars{}, errors.Wrapf(errors.ErrCodeBarsFetchFailed, iter.Err(),
			"polygon aggregates for %s", req.Symbol)
	}

	return result, nil
}

func (p *PolygonProvider) GetSnapshots(ctx context.Context, symbols []string) ([]types.SymbolBars, error) {
	return nil, errors.New(errors.ErrCodeSnapshotUnsupported, "polygon provider does not support snapshots")
}
