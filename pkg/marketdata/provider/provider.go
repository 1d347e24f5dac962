package provider

import (
	"context"
	"time"

	"github.com/quantlab-dev/alpaca-dl/internal/types"
	"github.com/quantlab-dev/alpaca-dl/pkg/errors"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderAlpaca  ProviderType = "alpaca"
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
)

// BarRequest describes one symbol's bar download.
type BarRequest struct {
	Symbol    string
	Start     time.Time
	End       time.Time
	Timeframe Timeframe
	// Limit caps the number of bars returned, oldest first. Zero means no
	// cap beyond what the vendor enforces.
	Limit int
}

// Provider fetches market data from one vendor.
type Provider interface {
	// Name returns the provider type for logging.
	Name() ProviderType
	// GetBars downloads the bar series for one symbol. The context cancels
	// an in-flight download.
	GetBars(ctx context.Context, req BarRequest) (types.SymbolBars, error)
	// GetSnapshots downloads a point-in-time daily bar per symbol.
	// Providers without a snapshot endpoint return
	// ErrCodeSnapshotUnsupported.
	GetSnapshots(ctx context.Context, symbols []string) ([]types.SymbolBars, error)
}

// Credentials carries the vendor API keys a provider may need.
type Credentials struct {
	AlpacaKeyID     string
	AlpacaSecretKey string
	AlpacaBaseURL   string
	PolygonAPIKey   string
}

// New creates a provider of the given type.
func New(providerType ProviderType, creds Credentials) (Provider, error) {
	switch providerType {
	case ProviderAlpaca:
		return NewAlpacaProvider(creds.AlpacaKeyID, creds.AlpacaSecretKey, creds.AlpacaBaseURL)
	case ProviderPolygon:
		return NewPolygonProvider(creds.PolygonAPIKey)
	case ProviderBinance:
		return NewBinanceProvider()
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider: %s", providerType)
	}
}

// Info contains metadata about a market data provider.
type Info struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	Description  string `json:"description"`
	RequiresAuth bool   `json:"requiresAuth"`
}

var registry = map[ProviderType]Info{
	ProviderAlpaca: {
		Name:         string(ProviderAlpaca),
		DisplayName:  "Alpaca",
		Description:  "US stock brokerage with historical bars, snapshots and account activities",
		RequiresAuth: true,
	},
	ProviderPolygon: {
		Name:         string(ProviderPolygon),
		DisplayName:  "Polygon.io",
		Description:  "US stock market data provider with historical OHLCV aggregates",
		RequiresAuth: true,
	},
	ProviderBinance: {
		Name:         string(ProviderBinance),
		DisplayName:  "Binance",
		Description:  "Cryptocurrency exchange with kline market data for crypto pairs",
		RequiresAuth: false,
	},
}

// Supported returns the names of all supported providers.
func Supported() []string {
	names := make([]string, 0, len(registry))
	for providerType := range registry {
		names = append(names, string(providerType))
	}

	return names
}

// GetInfo returns metadata for a specific provider.
func GetInfo(name string) (Info, error) {
	info, exists := registry[ProviderType(name)]
	if !exists {
		return Info{}, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider: %s", name)
	}

	return info, nil
}
