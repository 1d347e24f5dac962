package types

import "time"

// Bar is a single OHLCV bar.
type Bar struct {
	Time   time.Time `json:"DateTime"`
	Open   float64   `json:"Open"`
	High   float64   `json:"High"`
	Low    float64   `json:"Low"`
	Close  float64   `json:"Close"`
	Volume float64   `json:"Volume"`
}

// SymbolBars is the downloaded bar series for one symbol.
type SymbolBars struct {
	Symbol string
	Bars   []Bar
}
