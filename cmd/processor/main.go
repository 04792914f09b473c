// Command processor runs the full holdings ETL: it scans each configured
// fund's disclosure files, enriches missing countries, and writes the
// cleaned holdings CSVs.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"strings"

	"supercli/internal/config"
	"supercli/internal/exporter"
	"supercli/internal/files"
	"supercli/internal/geocode"
	"supercli/internal/infrastructure"
	"supercli/internal/pipeline"
	"supercli/internal/refdata"
	"supercli/internal/scanner"
)

func main() {
	inDir := flag.String("in", "", "input directory for source files (defaults to the configured data directory)")
	outDir := flag.String("out", "", "output directory for cleaned CSVs (defaults to the configured reports directory)")
	profilesDir := flag.String("profiles", "", "fund profile directory (defaults to configs/funds)")
	fund := flag.String("fund", "", "process a single fund instead of every profile")
	combined := flag.String("combined", "CleanedData.csv", "filename for the all-funds output table")
	useGeocode := flag.Bool("geocode", false, "backfill unresolved countries through Nominatim")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	if *inDir == "" {
		*inDir = cfg.Paths.DataDir
	}
	if *outDir == "" {
		*outDir = cfg.Paths.ReportsDir
	}
	if *profilesDir == "" {
		*profilesDir = cfg.Paths.ProfilesDir
	}
	cfg.Paths.ReportsDir = *outDir

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

	ctx := infrastructure.ContextWithRunID(context.Background())
	runID := infrastructure.GetTraceID(ctx)

	logger.Info("Starting holdings processing",
		slog.String("run_id", runID),
		slog.String("input_dir", *inDir),
		slog.String("output_dir", *outDir),
		slog.String("profiles_dir", *profilesDir),
		slog.Bool("geocode", *useGeocode))

	profiles, err := scanner.LoadProfiles(*profilesDir)
	if err != nil {
		logger.Error("Failed to load fund profiles", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *fund != "" {
		p, ok := profiles[normalizeFund(*fund)]
		if !ok {
			logger.Error("No profile for fund", slog.String("fund", *fund))
			os.Exit(1)
		}
		profiles = map[string]*scanner.Profile{normalizeFund(*fund): p}
	}
	if len(profiles) == 0 {
		logger.Error("No fund profiles found", slog.String("profiles_dir", *profilesDir))
		os.Exit(1)
	}

	// The country table is optional; without it codes from Stock IDs are
	// retained verbatim.
	var countries scanner.CountryLookup
	if table, err := refdata.LoadCountries(cfg.CountryCodesPath()); err != nil {
		logger.Warn("Country code table unavailable, codes will not be resolved",
			slog.String("path", cfg.CountryCodesPath()),
			slog.String("error", err.Error()))
	} else {
		countries = table
		logger.Info("Country code table loaded", slog.Int("codes", table.Len()))
	}

	// Likewise optional; without it free-text currencies pass through.
	var currencies *refdata.CountryTable
	if table, err := refdata.LoadCountries(cfg.CurrencyCodesPath()); err != nil {
		logger.Warn("Currency code table unavailable, currencies will not be normalized",
			slog.String("path", cfg.CurrencyCodesPath()),
			slog.String("error", err.Error()))
	} else {
		currencies = table
		logger.Info("Currency code table loaded", slog.Int("codes", table.Len()))
	}

	var geocodeClient *geocode.Client
	if *useGeocode {
		geocodeClient = geocode.NewClient(cfg.Geocode, logger)
	}

	runner := pipeline.NewRunner(
		pipeline.NewScanStep(profiles, files.NewDiscovery("."), *inDir, countries),
		pipeline.NewInferStep(),
		pipeline.NewCurrencyStep(currencies),
		pipeline.NewGeocodeStep(geocodeClient),
		pipeline.NewExportStep(exporter.NewCSVWriter(cfg.Paths), *combined),
	)

	state := pipeline.NewState(runID)
	results, err := runner.Run(ctx, state)
	for _, result := range results {
		logger.Info("step summary",
			slog.String("step", result.ID),
			slog.String("status", string(result.Status)),
			slog.Duration("duration", result.Duration))
	}
	if err != nil {
		logger.Error("Processing failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	for fund, stats := range state.Stats() {
		logger.Info("fund summary",
			slog.String("fund", fund),
			slog.Int("rows_scanned", stats.RowsScanned),
			slog.Int("tables_found", stats.TablesFound),
			slog.Int("tables_rejected", stats.TablesRejected),
			slog.Int("records_emitted", stats.RecordsEmitted))
	}
	logger.Info("Processing complete", slog.Int("records", len(state.Records())))
}

func normalizeFund(fund string) string {
	return strings.ToLower(strings.TrimSpace(fund))
}
