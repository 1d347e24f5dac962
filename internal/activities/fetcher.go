package activities

import (
	"context"
	"sort"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"go.uber.org/zap"

	"github.com/quantlab-dev/alpaca-dl/internal/logger"
	"github.com/quantlab-dev/alpaca-dl/internal/types"
	"github.com/quantlab-dev/alpaca-dl/pkg/errors"
)

// ActivitySource is the part of the Alpaca trading API the fetcher needs.
// *alpaca.Client satisfies it.
type ActivitySource interface {
	GetAccountActivities(req alpaca.GetAccountActivitiesRequest) ([]alpaca.AccountActivity, error)
}

// FetcherConfig bounds a fill-activity fetch.
type FetcherConfig struct {
	// PageSize is the number of activities requested per page.
	PageSize int
	// MaxActivities caps the total number of activities fetched across all
	// pages. Zero means no cap.
	MaxActivities int
}

// FetchStats summarizes one fetch run.
type FetchStats struct {
	Pages     int
	Fetched   int
	Malformed int
}

// Fetcher pages through the account's fill activities and converts them to
// fill events grouped by symbol. Raw records that cannot be parsed are
// logged and dropped rather than failing the run.
type Fetcher struct {
	source ActivitySource
	logger *logger.Logger
	config FetcherConfig
}

func NewFetcher(source ActivitySource, log *logger.Logger, config FetcherConfig) (*Fetcher, error) {
	if config.PageSize <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "page size must be positive, got %d", config.PageSize)
	}

	if config.MaxActivities < 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "max activities must not be negative, got %d", config.MaxActivities)
	}

	return &Fetcher{source: source, logger: log, config: config}, nil
}

// Fetch retrieves every fill activity in [start, end] and returns the
// parsed events grouped by symbol, with each group in ascending
// transaction-time order. Paging uses the last activity's ID as the next
// page token.
func (f *Fetcher) Fetch(ctx context.Context, start, end time.Time) (map[string][]types.FillEvent, FetchStats, error) {
	if !end.After(start) {
		return nil, FetchStats{}, errors.Newf(errors.ErrCodeInvalidDate,
			"end %s is not after start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	grouped := make(map[string][]types.FillEvent)
	stats := FetchStats{}
	pageToken := ""

	for {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		//nolint:exhaustruct // remaining request fields are optional
		page, err := f.source.GetAccountActivities(alpaca.GetAccountActivitiesRequest{
			ActivityTypes: []string{"FILL"},
			After:         start,
			Until:         end,
			Direction:     "asc",
			PageSize:      f.config.PageSize,
			PageToken:     pageToken,
		})
		if err != nil {
			return nil, stats, errors.Wrap(errors.ErrCodeActivityFetchFailed, err, "fetching account activities")
		}

		if len(page) == 0 {
			break
		}

		stats.Pages++

		for _, activity := range page {
			stats.Fetched++

			event, err := types.ParseFillEvent(activity)
			if err != nil {
				stats.Malformed++
				f.logger.Warn("skipping malformed activity",
					zap.String("id", activity.ID),
					zap.Error(err))

				continue
			}

			grouped[event.Symbol] = append(grouped[event.Symbol], event)
		}

		if f.config.MaxActivities > 0 && stats.Fetched >= f.config.MaxActivities {
			f.logger.Warn("activity cap reached, result may be truncated",
				zap.Int("max", f.config.MaxActivities))

			break
		}

		if len(page) < f.config.PageSize {
			break
		}

		pageToken = page[len(page)-1].ID
	}

	for symbol := range grouped {
		events := grouped[symbol]
		sort.SliceStable(events, func(i, j int) bool {
			if events[i].TransactionTime.Equal(events[j].TransactionTime) {
				return events[i].ID < events[j].ID
			}

			return events[i].TransactionTime.Before(events[j].TransactionTime)
		})
	}

	f.logger.Debug("activity fetch complete",
		zap.Int("pages", stats.Pages),
		zap.Int("fetched", stats.Fetched),
		zap.Int("malformed", stats.Malformed),
		zap.Int("symbols", len(grouped)))

	return grouped, stats, nil
}

// Range resolves the fetch window from explicit bounds or a lookback.
// Explicit start/end win; otherwise the window is the last days before now.
func Range(start, end time.Time, days int, now time.Time) (time.Time, time.Time) {
	if end.IsZero() {
		end = now
	}

	if start.IsZero() {
		if days <= 0 {
			days = 30
		}

		start = end.AddDate(0, 0, -days)
	}

	return start, end
}
