package types

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type TradeHoldingTime struct {
	// Minimum holding time of a closed trade in seconds
	Min int `yaml:"min"`
	// Maximum holding time of a closed trade in seconds
	Max int `yaml:"max"`
	// Average holding time of a closed trade in seconds
	Avg int `yaml:"avg"`
}

type TradePnl struct {
	// Realized PnL. Sum over all closed trades.
	RealizedPnL float64 `yaml:"realized_pnl"`
	// Maximum loss. The most negative closed-trade pnl.
	MaximumLoss float64 `yaml:"maximum_loss"`
	// Maximum profit. The most positive closed-trade pnl.
	MaximumProfit float64 `yaml:"maximum_profit"`
}

type TradeResult struct {
	// Count of all closed trades.
	NumberOfTrades int `yaml:"number_of_trades"`
	// Count of closed trades with positive pnl.
	NumberOfWinningTrades int `yaml:"number_of_winning_trades"`
	// Count of closed trades with negative pnl.
	NumberOfLosingTrades int `yaml:"number_of_losing_trades"`
	// Win rate: wins / (wins + losses). Break-even trades count to neither.
	WinRate float64 `yaml:"win_rate"`
}

type TradeStats struct {
	// ID is the unique identifier for this run.
	ID string `yaml:"id"`
	// Timestamp is when this run was executed.
	Timestamp time.Time `yaml:"timestamp"`
	// Result of all closed trades.
	TradeResult TradeResult `yaml:"trade_result"`
	// PnL of all closed trades.
	TradePnl TradePnl `yaml:"trade_pnl"`
	// Holding time of all closed trades.
	TradeHoldingTime TradeHoldingTime `yaml:"trade_holding_time"`
	// Count of sells that had no open position to match against.
	OrphanSells int `yaml:"orphan_sells"`
	// Count of sells that exceeded the tracked open quantity.
	Oversells int `yaml:"oversells"`
	// Count of positions still open at the end of the window.
	OpenPositions int `yaml:"open_positions"`
}

// ComputeTradeStats aggregates closed trades into a TradeStats record.
func ComputeTradeStats(runID string, at time.Time, trades []ClosedTrade) TradeStats {
	stats := TradeStats{
		ID:        runID,
		Timestamp: at,
	}
	stats.TradeResult.NumberOfTrades = len(trades)

	realized := decimal.Zero
	totalHolding := 0

	for i, trade := range trades {
		realized = realized.Add(trade.RealizedPnL)
		pnl, _ := trade.RealizedPnL.Float64()

		switch {
		case trade.RealizedPnL.IsPositive():
			stats.TradeResult.NumberOfWinningTrades++
		case trade.RealizedPnL.IsNegative():
			stats.TradeResult.NumberOfLosingTrades++
		}

		if pnl > stats.TradePnl.MaximumProfit {
			stats.TradePnl.MaximumProfit = pnl
		}

		if pnl < stats.TradePnl.MaximumLoss {
			stats.TradePnl.MaximumLoss = pnl
		}

		holding := int(trade.HoldingTime().Seconds())
		totalHolding += holding

		if i == 0 || holding < stats.TradeHoldingTime.Min {
			stats.TradeHoldingTime.Min = holding
		}

		if holding > stats.TradeHoldingTime.Max {
			stats.TradeHoldingTime.Max = holding
		}
	}

	stats.TradePnl.RealizedPnL, _ = realized.Float64()

	decided := stats.TradeResult.NumberOfWinningTrades + stats.TradeResult.NumberOfLosingTrades
	if decided > 0 {
		stats.TradeResult.WinRate = float64(stats.TradeResult.NumberOfWinningTrades) / float64(decided)
	}

	if len(trades) > 0 {
		stats.TradeHoldingTime.Avg = totalHolding / len(trades)
	}

	return stats
}

func WriteTradeStats(path string, stats TradeStats) error {
	// Marshal the struct to YAML
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal trade stats to YAML: %w", err)
	}

	// Write the YAML data to the file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write trade stats to file: %w", err)
	}

	return nil
}
