package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/quantlab-dev/alpaca-dl/internal/activities"
	"github.com/quantlab-dev/alpaca-dl/internal/config"
	"github.com/quantlab-dev/alpaca-dl/internal/logger"
	"github.com/quantlab-dev/alpaca-dl/internal/reconstruct"
	"github.com/quantlab-dev/alpaca-dl/internal/report"
	"github.com/quantlab-dev/alpaca-dl/internal/symbols"
	"github.com/quantlab-dev/alpaca-dl/pkg/marketdata"
	"github.com/quantlab-dev/alpaca-dl/pkg/marketdata/provider"
	"github.com/quantlab-dev/alpaca-dl/pkg/marketdata/writer"
)

const dateLayout = "2006-01-02"

// app bundles what every subcommand needs after setup.
type app struct {
	cfg *config.Config
	log *logger.Logger
}

// setup loads configuration and builds the logger from the global flags.
func setup(cmd *cli.Command) (*app, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	if dir := cmd.String("output"); dir != "" {
		cfg.Output.Dir = dir
	}

	appLogger, err := logger.NewLogger()
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	appLogger.SetVerbose(cmd.Bool("verbose"))

	return &app{cfg: cfg, log: appLogger}, nil
}

func (a *app) providerCredentials() provider.Credentials {
	return provider.Credentials{
		AlpacaKeyID:     a.cfg.Credentials.AlpacaKeyID,
		AlpacaSecretKey: a.cfg.Credentials.AlpacaSecretKey,
		AlpacaBaseURL:   a.cfg.Credentials.AlpacaBaseURL,
		PolygonAPIKey:   a.cfg.Credentials.PolygonAPIKey,
	}
}

// newDownloadClient resolves the provider and writer from flags with config
// defaults and builds the chunked download client.
func (a *app) newDownloadClient(cmd *cli.Command) (*marketdata.Client, error) {
	providerName := cmd.String("provider")
	if providerName == "" {
		providerName = a.cfg.Download.Provider
	}

	writerName := cmd.String("writer")
	if writerName == "" {
		writerName = a.cfg.Download.Writer
	}

	dataProvider, err := provider.New(provider.ProviderType(providerName), a.providerCredentials())
	if err != nil {
		return nil, err
	}

	barWriter, err := writer.New(writer.WriterType(writerName), a.cfg.Output.Dir)
	if err != nil {
		return nil, err
	}

	return marketdata.NewClient(dataProvider, barWriter, a.log, marketdata.ClientConfig{
		ChunkSize:    a.cfg.Download.ChunkSize,
		ChunkPause:   a.cfg.ChunkPause(),
		ShowProgress: !cmd.Bool("no-progress"),
	})
}

func (a *app) loadSymbols(cmd *cli.Command) ([]string, error) {
	return symbols.Load(cmd.String("symbols"), cmd.String("symbols-file"))
}

func (a *app) logSummary(operation string, summary marketdata.DownloadSummary) {
	a.log.Info(operation+" finished",
		zap.Int("requested", summary.Requested),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Strings("failed_symbols", summary.FailedSymbols))
}

func barsAction(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.log.Sync() //nolint:errcheck

	tickers, err := a.loadSymbols(cmd)
	if err != nil {
		return err
	}

	timeframe, err := provider.ParseTimeframe(cmd.String("timeframe"))
	if err != nil {
		return err
	}

	client, err := a.newDownloadClient(cmd)
	if err != nil {
		return err
	}

	limit := int(cmd.Int("limit"))
	if limit == 0 {
		limit = a.cfg.Download.Limit
	}

	summary, err := client.DownloadBars(ctx, marketdata.BarsRequest{
		Symbols:   tickers,
		Start:     cmd.Timestamp("start"),
		End:       cmd.Timestamp("end"),
		Timeframe: timeframe,
		Limit:     limit,
	})
	if err != nil {
		return err
	}

	a.logSummary("bars download", summary)

	return nil
}

func snapshotsAction(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.log.Sync() //nolint:errcheck

	tickers, err := a.loadSymbols(cmd)
	if err != nil {
		return err
	}

	client, err := a.newDownloadClient(cmd)
	if err != nil {
		return err
	}

	summary, err := client.DownloadSnapshots(ctx, tickers)
	if err != nil {
		return err
	}

	a.logSummary("snapshot download", summary)

	return nil
}

func tradesAction(ctx context.Context, cmd *cli.Command) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.log.Sync() //nolint:errcheck

	//nolint:exhaustruct // remaining client options are not used
	client := alpaca.NewClient(alpaca.ClientOpts{
		APIKey:    a.cfg.Credentials.AlpacaKeyID,
		APISecret: a.cfg.Credentials.AlpacaSecretKey,
		BaseURL:   a.cfg.Credentials.AlpacaBaseURL,
	})

	fetcher, err := activities.NewFetcher(client, a.log, activities.FetcherConfig{
		PageSize:      a.cfg.Activities.PageSize,
		MaxActivities: a.cfg.Activities.MaxActivities,
	})
	if err != nil {
		return err
	}

	start, end := activities.Range(
		cmd.Timestamp("start"),
		cmd.Timestamp("end"),
		int(cmd.Int("days")),
		time.Now().UTC())

	a.log.Info("fetching fill activities",
		zap.Time("start", start),
		zap.Time("end", end))

	events, stats, err := fetcher.Fetch(ctx, start, end)
	if err != nil {
		return err
	}

	if stats.Malformed > 0 {
		a.log.Warn("dropped malformed activities", zap.Int("count", stats.Malformed))
	}

	result, err := reconstruct.Reconstruct(events)
	if err != nil {
		return err
	}

	reporter := report.NewReporter(os.Stdout, a.cfg.Output.Dir)

	if err := reporter.WriteConsole(result); err != nil {
		return err
	}

	if cmd.Bool("csv") {
		path, err := reporter.WriteCSV(result.ClosedTrades)
		if err != nil {
			return err
		}

		a.log.Info("wrote closed trades CSV", zap.String("path", path))
	}

	if cmd.Bool("stats") {
		path, err := reporter.WriteStats(result, time.Now().UTC())
		if err != nil {
			return err
		}

		a.log.Info("wrote run statistics", zap.String("path", path))
	}

	return nil
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the YAML config file",
			Value:   "config.yaml",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output directory, overrides the config value",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
	}
}

func symbolFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "symbols",
			Usage: "Comma-separated ticker list",
		},
		&cli.StringFlag{
			Name:  "symbols-file",
			Usage: "File with one ticker per line; '#' comments and '/' class shares are skipped",
		},
	}
}

func downloadFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "provider",
			Aliases: []string{"p"},
			Usage:   fmt.Sprintf("Data provider (%s)", provider.Supported()),
		},
		&cli.StringFlag{
			Name:    "writer",
			Aliases: []string{"w"},
			Usage:   fmt.Sprintf("Output format (%s)", writer.Supported()),
		},
		&cli.BoolFlag{
			Name:  "no-progress",
			Usage: "Disable the progress bar",
		},
	}
}

func dateFlag(name, usage string, value time.Time) cli.Flag {
	//nolint:exhaustruct // remaining flag fields are not used
	return &cli.TimestampFlag{
		Name:  name,
		Usage: usage,
		Value: value,
		Config: cli.TimestampConfig{
			Layouts: []string{dateLayout, time.RFC3339},
		},
	}
}

func main() {
	now := time.Now().UTC()

	cmd := &cli.Command{
		Name:  "alpaca-dl",
		Usage: "Download market data and reconstruct trades from broker fill activities",
		Flags: globalFlags(),
		Commands: []*cli.Command{
			{
				Name:  "bars",
				Usage: "Download historical bars for a list of symbols",
				Flags: append(append(symbolFlags(), downloadFlags()...),
					dateFlag("start", "Start date (YYYY-MM-DD)", now.AddDate(0, -1, 0)),
					dateFlag("end", "End date (YYYY-MM-DD), defaults to now", now),
					&cli.StringFlag{
						Name:    "timeframe",
						Aliases: []string{"t"},
						Usage:   "Bar timeframe: 1Min, 5Min, 15Min, 60Min or Day",
						Value:   "Day",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum bars per symbol",
					},
				),
				Action: barsAction,
			},
			{
				Name:   "snapshots",
				Usage:  "Download the latest daily bar for a list of symbols",
				Flags:  append(symbolFlags(), downloadFlags()...),
				Action: snapshotsAction,
			},
			{
				Name:  "trades",
				Usage: "Fetch fill activities and reconstruct closed trades with realized PnL",
				Flags: []cli.Flag{
					dateFlag("start", "Window start (YYYY-MM-DD); defaults to --days before the end", time.Time{}),
					dateFlag("end", "Window end (YYYY-MM-DD), defaults to now", time.Time{}),
					&cli.IntFlag{
						Name:  "days",
						Usage: "Lookback window in days when --start is not given",
						Value: 30,
					},
					&cli.BoolFlag{
						Name:  "csv",
						Usage: "Write closed trades to trades.csv in the output directory",
					},
					&cli.BoolFlag{
						Name:  "stats",
						Usage: "Write run statistics to stats.yaml in the output directory",
					},
				},
				Action: tradesAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
