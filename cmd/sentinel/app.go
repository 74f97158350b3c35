package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"TrendSentinel/internal/collector"
	"TrendSentinel/internal/config"
	"TrendSentinel/internal/recorder"
	"TrendSentinel/internal/scanner"
	"TrendSentinel/internal/trendline"
)

// loadConfig reads and validates the config named by --config and applies its log level.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("get config flag: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	level, _ := log.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)
	return cfg, nil
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	switch cfg.DataSource.Provider {
	case "csv":
		return collector.NewCSVFetcher(cfg.DataSource.CSVPath)
	case "rest":
		return collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	case "mock":
		return &collector.MockFetcher{Price: 100}
	default:
		return collector.NewYahooFetcher(cfg.Proxy)
	}
}

func newCollector(cfg *config.Config) *collector.Collector {
	fetcher := newFetcher(cfg)
	log.Infof("data source: %s", fetcher.Name())
	ds := cfg.DataSource
	return collector.NewCollector(fetcher, ds.Symbol, ds.Interval, ds.Bars, cfg.UseLogPrices())
}

func newScanner(cfg *config.Config) (*scanner.Scanner, error) {
	return scanner.New(cfg.Scan.Lookback,
		scanner.WithWorkers(cfg.Scan.Workers),
		scanner.WithFitter(trendline.NewFitter(cfg.Params())),
		scanner.WithLogger(log.StandardLogger()),
	)
}

// newRecorder opens every configured sink. Sinks that fail to open are logged and skipped.
func newRecorder(cfg *config.Config) recorder.Recorder {
	var sinks recorder.MultiRecorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warnf("init sqlite recorder failed, skipping: %v", err)
		} else {
			sinks = append(sinks, sr)
		}
	}
	if cfg.Output.CSVDir != "" {
		cr, err := recorder.NewCSVRecorder(cfg.Output.CSVDir)
		if err != nil {
			log.Warnf("init csv recorder failed, skipping: %v", err)
		} else {
			sinks = append(sinks, cr)
		}
	}
	if len(sinks) == 0 {
		return recorder.NewNoopRecorder()
	}
	return sinks
}
