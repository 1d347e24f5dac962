package marketdata

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/quantlab-dev/alpaca-dl/internal/logger"
	"github.com/quantlab-dev/alpaca-dl/pkg/errors"
	"github.com/quantlab-dev/alpaca-dl/pkg/marketdata/provider"
	"github.com/quantlab-dev/alpaca-dl/pkg/marketdata/writer"
)

// ClientConfig controls how the download client batches work against the
// upstream vendor.
type ClientConfig struct {
	// ChunkSize is the number of symbols fetched concurrently before the
	// client pauses.
	ChunkSize int `validate:"gt=0"`
	// ChunkPause is the minimum delay between consecutive chunks.
	ChunkPause time.Duration `validate:"gte=0"`
	// ShowProgress renders a progress bar on stderr while downloading.
	ShowProgress bool
}

// BarsRequest describes a historical bars download across many symbols.
type BarsRequest struct {
	Symbols   []string
	Start     time.Time
	End       time.Time
	Timeframe provider.Timeframe
	// Limit caps the number of bars fetched per symbol. Zero means no cap.
	Limit int
}

// DownloadSummary reports the outcome of a multi-symbol download. A
// download succeeds overall as long as at least one symbol succeeded;
// failed symbols are listed so the caller can retry them.
type DownloadSummary struct {
	Requested     int
	Succeeded     int
	Failed        int
	Files         []string
	FailedSymbols []string
}

// Client downloads market data for batches of symbols, writing each
// symbol's result through the configured writer. Symbols are processed in
// fixed-size chunks with a pause between chunks to stay inside vendor rate
// limits; within a chunk all symbols are fetched concurrently.
type Client struct {
	provider provider.Provider
	writer   writer.BarWriter
	logger   *logger.Logger
	config   ClientConfig
	limiter  *rate.Limiter
}

func NewClient(p provider.Provider, w writer.BarWriter, log *logger.Logger, config ClientConfig) (*Client, error) {
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, err, "invalid client configuration")
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if config.ChunkPause > 0 {
		limiter = rate.NewLimiter(rate.Every(config.ChunkPause), 1)
	}

	return &Client{
		provider: p,
		writer:   w,
		logger:   log,
		config:   config,
		limiter:  limiter,
	}, nil
}

// DownloadBars fetches historical bars for every requested symbol and
// writes one file per symbol. A symbol whose fetch or write fails is
// logged, counted, and skipped; the remaining symbols still download.
func (c *Client) DownloadBars(ctx context.Context, req BarsRequest) (DownloadSummary, error) {
	if len(req.Symbols) == 0 {
		return DownloadSummary{}, errors.New(errors.ErrCodeNoSymbols, "no symbols to download")
	}

	if !req.End.After(req.Start) {
		return DownloadSummary{}, errors.Newf(errors.ErrCodeInvalidDate,
			"end %s is not after start %s", req.End.Format(time.RFC3339), req.Start.Format(time.RFC3339))
	}

	summary := DownloadSummary{Requested: len(req.Symbols)}
	bar := c.newProgressBar(len(req.Symbols), "downloading bars")

	var mu sync.Mutex

	for _, chunk := range chunkSymbols(req.Symbols, c.config.ChunkSize) {
		if err := c.limiter.Wait(ctx); err != nil {
			return summary, err
		}

		var wg sync.WaitGroup

		for _, symbol := range chunk {
			wg.Add(1)

			go func(symbol string) {
				defer wg.Done()
				defer bar.Add(1) //nolint:errcheck

				outputPath, err := c.downloadSymbol(ctx, symbol, req)

				mu.Lock()
				defer mu.Unlock()

				if err != nil {
					c.logger.Warn("symbol download failed",
						zap.String("symbol", symbol),
						zap.Error(err))

					summary.Failed++
					summary.FailedSymbols = append(summary.FailedSymbols, symbol)

					return
				}

				summary.Succeeded++
				summary.Files = append(summary.Files, outputPath)
			}(symbol)
		}

		wg.Wait()

		if err := ctx.Err(); err != nil {
			return summary, err
		}
	}

	sort.Strings(summary.Files)
	sort.Strings(summary.FailedSymbols)

	return summary, nil
}

// DownloadSnapshots fetches the latest daily bar for every requested
// symbol. Snapshots are batched per chunk in a single vendor call rather
// than per symbol.
func (c *Client) DownloadSnapshots(ctx context.Context, symbols []string) (DownloadSummary, error) {
	if len(symbols) == 0 {
		return DownloadSummary{}, errors.New(errors.ErrCodeNoSymbols, "no symbols to download")
	}

	summary := DownloadSummary{Requested: len(symbols)}
	bar := c.newProgressBar(len(symbols), "downloading snapshots")

	for _, chunk := range chunkSymbols(symbols, c.config.ChunkSize) {
		if err := c.limiter.Wait(ctx); err != nil {
			return summary, err
		}

		snapshots, err := c.provider.GetSnapshots(ctx, chunk)
		if err != nil {
			if errors.HasCode(err, errors.ErrCodeSnapshotUnsupported) {
				return summary, err
			}

			c.logger.Warn("snapshot chunk failed",
				zap.Int("symbols", len(chunk)),
				zap.Error(err))

			summary.Failed += len(chunk)
			summary.FailedSymbols = append(summary.FailedSymbols, chunk...)
			bar.Add(len(chunk)) //nolint:errcheck

			continue
		}

		returned := make(map[string]bool, len(snapshots))

		for _, snapshot := range snapshots {
			returned[snapshot.Symbol] = true

			outputPath, err := c.writer.Write(snapshot)
			if err != nil {
				c.logger.Warn("snapshot write failed",
					zap.String("symbol", snapshot.Symbol),
					zap.Error(err))

				summary.Failed++
				summary.FailedSymbols = append(summary.FailedSymbols, snapshot.Symbol)

				continue
			}

			summary.Succeeded++
			summary.Files = append(summary.Files, outputPath)
		}

		for _, symbol := range chunk {
			if !returned[symbol] {
				c.logger.Warn("no snapshot returned", zap.String("symbol", symbol))

				summary.Failed++
				summary.FailedSymbols = append(summary.FailedSymbols, symbol)
			}
		}

		bar.Add(len(chunk)) //nolint:errcheck
	}

	sort.Strings(summary.Files)
	sort.Strings(summary.FailedSymbols)

	return summary, nil
}

func (c *Client) downloadSymbol(ctx context.Context, symbol string, req BarsRequest) (string, error) {
	data, err := c.provider.GetBars(ctx, provider.BarRequest{
		Symbol:    symbol,
		Start:     req.Start,
		End:       req.End,
		Timeframe: req.Timeframe,
		Limit:     req.Limit,
	})
	if err != nil {
		return "", err
	}

	c.logger.Debug("fetched bars",
		zap.String("symbol", symbol),
		zap.Int("bars", len(data.Bars)))

	return c.writer.Write(data)
}

func (c *Client) newProgressBar(total int, description string) *progressbar.ProgressBar {
	if !c.config.ShowProgress {
		return progressbar.NewOptions(total, progressbar.OptionSetWriter(io.Discard))
	}

	return progressbar.Default(int64(total), description)
}

func chunkSymbols(symbols []string, size int) [][]string {
	var chunks [][]string

	for start := 0; start < len(symbols); start += size {
		end := start + size
		if end > len(symbols) {
			end = len(symbols)
		}

		chunks = append(chunks, symbols[start:end])
	}

	return chunks
}
