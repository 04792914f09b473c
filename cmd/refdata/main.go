// Command refdata refreshes the local ISO reference tables by scraping the
// country and currency code pages and writing them as CSVs for the
// processor's lookups.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"supercli/internal/config"
	"supercli/internal/infrastructure"
	"supercli/internal/refdata"
)

func main() {
	countriesOnly := flag.Bool("countries-only", false, "refresh only the country code table")
	currenciesOnly := flag.Bool("currencies-only", false, "refresh only the currency code table")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall timeout for the refresh")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	if err := cfg.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx, cancel := context.WithTimeout(infrastructure.ContextWithRunID(context.Background()), *timeout)
	defer cancel()

	fetcher := refdata.NewFetcher(nil, cfg.Geocode.UserAgent)

	if !*currenciesOnly {
		logger.Info("Fetching country codes", slog.String("url", cfg.Refdata.CountryCodesURL))
		rows, err := fetcher.FetchCountryCodes(ctx, cfg.Refdata.CountryCodesURL)
		if err != nil {
			logger.Error("Country code fetch failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := refdata.WriteCountriesCSV(cfg.CountryCodesPath(), rows); err != nil {
			logger.Error("Failed to write country codes", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("Country codes written",
			slog.String("path", cfg.CountryCodesPath()),
			slog.Int("rows", len(rows)))
	}

	if !*countriesOnly {
		logger.Info("Fetching currency codes", slog.String("url", cfg.Refdata.CurrencyCodesURL))
		rows, err := fetcher.FetchCurrencyCodes(ctx, cfg.Refdata.CurrencyCodesURL)
		if err != nil {
			logger.Error("Currency code fetch failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := refdata.WriteCountriesCSV(cfg.CurrencyCodesPath(), rows); err != nil {
			logger.Error("Failed to write currency codes", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("Currency codes written",
			slog.String("path", cfg.CurrencyCodesPath()),
			slog.Int("rows", len(rows)))
	}
}
