// Package report renders reconstruction results for humans and files:
// console tables, a closed-trades CSV, and a YAML stats summary.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"

	"github.com/quantlab-dev/alpaca-dl/internal/reconstruct"
	"github.com/quantlab-dev/alpaca-dl/internal/types"
	"github.com/quantlab-dev/alpaca-dl/pkg/errors"
)

const timeLayout = "2006-01-02 15:04:05"

// Reporter writes reconstruction output. The console report goes to out;
// file output lands in outputDir.
type Reporter struct {
	out       io.Writer
	outputDir string
}

func NewReporter(out io.Writer, outputDir string) *Reporter {
	return &Reporter{out: out, outputDir: outputDir}
}

// WriteConsole prints the closed trades table followed by orphan, oversell
// and open-position sections when present, then the run totals.
func (r *Reporter) WriteConsole(result reconstruct.Result) error {
	if len(result.ClosedTrades) == 0 {
		fmt.Fprintln(r.out, "No closed trades in the selected window.")
	} else {
		table := tablewriter.NewWriter(r.out)
		table.Header("Symbol", "Qty", "Entry", "Exit", "Avg Cost", "PnL", "Entry Time", "Exit Time")

		for _, trade := range result.ClosedTrades {
			table.Append(
				trade.Symbol,
				fmt.Sprintf("%d", trade.Quantity),
				trade.EntryPrice.StringFixed(2),
				trade.ExitPrice.StringFixed(2),
				trade.AverageCost.StringFixed(2),
				trade.RealizedPnL.StringFixed(2),
				trade.EntryTime.Format(timeLayout),
				trade.ExitTime.Format(timeLayout),
			)
		}

		if err := table.Render(); err != nil {
			return errors.Wrap(errors.ErrCodeReportWriteFailed, err, "rendering closed trades table")
		}
	}

	if err := r.writeOrphans(result.Orphans); err != nil {
		return err
	}

	if err := r.writeOversells(result.Oversells); err != nil {
		return err
	}

	if err := r.writeOpenPositions(result.OpenPositions); err != nil {
		return err
	}

	r.writeTotals(result)

	return nil
}

func (r *Reporter) writeOrphans(orphans []types.FillEvent) error {
	if len(orphans) == 0 {
		return nil
	}

	fmt.Fprintf(r.out, "\nOrphan sells (no tracked position, excluded from PnL): %d\n", len(orphans))

	table := tablewriter.NewWriter(r.out)
	table.Header("Symbol", "Qty", "Price", "Time")

	for _, event := range orphans {
		table.Append(
			event.Symbol,
			fmt.Sprintf("%d", event.Qty),
			event.Price.StringFixed(2),
			event.TransactionTime.Format(timeLayout),
		)
	}

	if err := table.Render(); err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, err, "rendering orphan sells table")
	}

	return nil
}

func (r *Reporter) writeOversells(oversells []types.OversellAnomaly) error {
	if len(oversells) == 0 {
		return nil
	}

	fmt.Fprintf(r.out, "\nOversell anomalies (sell quantity exceeded open quantity): %d\n", len(oversells))

	table := tablewriter.NewWriter(r.out)
	table.Header("Symbol", "Sell Qty", "Open Qty", "Price", "Time")

	for _, anomaly := range oversells {
		table.Append(
			anomaly.Event.Symbol,
			fmt.Sprintf("%d", anomaly.Event.Qty),
			fmt.Sprintf("%d", anomaly.OpenQuantity),
			anomaly.Event.Price.StringFixed(2),
			anomaly.Event.TransactionTime.Format(timeLayout),
		)
	}

	if err := table.Render(); err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, err, "rendering oversells table")
	}

	return nil
}

func (r *Reporter) writeOpenPositions(positions []types.OpenPosition) error {
	if len(positions) == 0 {
		return nil
	}

	fmt.Fprintf(r.out, "\nOpen positions at end of window: %d\n", len(positions))

	table := tablewriter.NewWriter(r.out)
	table.Header("Symbol", "Open Qty", "Avg Cost", "Realized PnL", "First Entry")

	for _, pos := range positions {
		table.Append(
			pos.Symbol,
			fmt.Sprintf("%d", pos.Quantity),
			pos.AverageCost.StringFixed(2),
			pos.RealizedPnL.StringFixed(2),
			pos.FirstEntryTime.Format(timeLayout),
		)
	}

	if err := table.Render(); err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, err, "rendering open positions table")
	}

	return nil
}

func (r *Reporter) writeTotals(result reconstruct.Result) {
	stats := types.ComputeTradeStats("", time.Time{}, result.ClosedTrades)

	fmt.Fprintf(r.out, "\nClosed trades: %d\n", stats.TradeResult.NumberOfTrades)
	fmt.Fprintf(r.out, "Total realized PnL: %s\n", result.TotalRealizedPnL().StringFixed(2))

	decided := stats.TradeResult.NumberOfWinningTrades + stats.TradeResult.NumberOfLosingTrades
	if decided > 0 {
		fmt.Fprintf(r.out, "Win rate: %.1f%% (%d wins / %d losses)\n",
			stats.TradeResult.WinRate*100,
			stats.TradeResult.NumberOfWinningTrades,
			stats.TradeResult.NumberOfLosingTrades)
	}
}

// WriteCSV writes the closed trades to trades.csv in the output directory
// and returns the file path.
func (r *Reporter) WriteCSV(trades []types.ClosedTrade) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "creating output directory %s", r.outputDir)
	}

	outputPath := filepath.Join(r.outputDir, "trades.csv")

	file, err := os.Create(outputPath)
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "creating %s", outputPath)
	}
	defer file.Close()

	cw := csv.NewWriter(file)

	header := []string{"symbol", "quantity", "entry_price", "exit_price", "average_cost", "realized_pnl", "entry_time", "exit_time"}
	if err := cw.Write(header); err != nil {
		return "", errors.Wrap(errors.ErrCodeReportWriteFailed, err, "writing CSV header")
	}

	for _, trade := range trades {
		record := []string{
			trade.Symbol,
			fmt.Sprintf("%d", trade.Quantity),
			trade.EntryPrice.String(),
			trade.ExitPrice.String(),
			trade.AverageCost.String(),
			trade.RealizedPnL.String(),
			trade.EntryTime.UTC().Format(time.RFC3339),
			trade.ExitTime.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return "", errors.Wrap(errors.ErrCodeReportWriteFailed, err, "writing CSV row")
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "flushing %s", outputPath)
	}

	return outputPath, nil
}

// WriteStats computes run statistics, tags them with a fresh run ID, and
// writes them to stats.yaml in the output directory.
func (r *Reporter) WriteStats(result reconstruct.Result, at time.Time) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "creating output directory %s", r.outputDir)
	}

	stats := types.ComputeTradeStats(uuid.New().String(), at, result.ClosedTrades)
	stats.OrphanSells = len(result.Orphans)
	stats.Oversells = len(result.Oversells)
	stats.OpenPositions = len(result.OpenPositions)

	outputPath := filepath.Join(r.outputDir, "stats.yaml")
	if err := types.WriteTradeStats(outputPath, stats); err != nil {
		return "", errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "writing %s", outputPath)
	}

	return outputPath, nil
}
