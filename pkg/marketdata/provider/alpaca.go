package provider

import (
	"context"

	md "github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/quantlab-dev/alpaca-dl/internal/types"
	"github.com/quantlab-dev/alpaca-dl/pkg/errors"
)

// AlpacaProvider fetches bars and snapshots from the Alpaca market data
// API.
type AlpacaProvider struct {
	client *md.Client
}

// NewAlpacaProvider creates an Alpaca market data provider. baseURL is
// optional and overrides the production data endpoint.
func NewAlpacaProvider(keyID, secretKey, baseURL string) (Provider, error) {
	if keyID == "" || secretKey == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter,
			"alpaca credentials are required (APCA_API_KEY_ID / APCA_API_SECRET_KEY)")
	}

	client := md.NewClient(md.ClientOpts{
		APIKey:    keyID,
		APISecret: secretKey,
		BaseURL:   baseURL,
	})

	return &AlpacaProvider{client: client}, nil
}

func (p *AlpacaProvider) Name() ProviderType {
	return ProviderAlpaca
}

func (p *AlpacaProvider) GetBars(ctx context.Context, req BarRequest) (types.SymbolBars, error) {
	// The SDK does not thread a context through its calls; honor
	// cancellation at the request boundary.
	if err := ctx.Err(); err != nil {
		return types.SymbolBars{}, err
	}

	bars, err := p.client.GetBars(req.Symbol, md.GetBarsRequest{
		TimeFrame:  req.Timeframe.Alpaca(),
		Adjustment: md.All,
		Start:      req.Start,
		End:        req.End,
		TotalLimit: req.Limit,
	})
	if err != nil {
		return types.SymbolBars{}, errors.Wrapf(errors.ErrCodeBarsFetchFailed, err,
			"alpaca bars for %s", req.Symbol)
	}

	result := types.SymbolBars{Symbol: req.Symbol, Bars: make([]types.Bar, 0, len(bars))}
	for _, bar := range bars {
		result.Bars = append(result.Bars, convertAlpacaBar(bar))
	}

	return result, nil
}

// GetSnapshots downloads the current daily bar for each symbol. Symbols the
// vendor returns nothing for are absent from the result; the caller decides
// whether that is worth a warning.
func (p *AlpacaProvider) GetSnapshots(ctx context.Context, symbols []string) ([]types.SymbolBars, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snapshots, err := p.client.GetSnapshots(symbols, md.GetSnapshotRequest{})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeSnapshotFetchFailed, err,
			"alpaca snapshots for %d symbols", len(symbols))
	}

	result := make([]types.SymbolBars, 0, len(symbols))

	for _, symbol := range symbols {
		snapshot, ok := snapshots[symbol]
		if !ok || snapshot == nil || snapshot.DailyBar == nil {
			continue
		}

		result = append(result, types.SymbolBars{
			Symbol: symbol,
			Bars:   []types.Bar{convertAlpacaBar(*snapshot.DailyBar)},
		})
	}

	return result, nil
}

func convertAlpacaBar(bar md.Bar) types.Bar {
	return types.Bar{
		Time:   bar.Timestamp,
		Open:   bar.Open,
		High:   bar.High,
		Low:    bar.Low,
		Close:  bar.Close,
		Volume: float64(bar.Volume),
	}
}
