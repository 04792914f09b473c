// Command geocode backfills the Listed Country column of an already
// cleaned holdings CSV through the Nominatim API. It is the slow, networked
// final pass; the processor's cheaper inference runs first and this tool
// picks up whatever that left unresolved.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"supercli/internal/config"
	"supercli/internal/exporter"
	"supercli/internal/geocode"
	"supercli/internal/infrastructure"
	"supercli/internal/workbook"
)

func main() {
	file := flag.String("file", "", "cleaned holdings CSV to update in place (required)")
	limit := flag.Int("limit", 0, "maximum number of lookups this run, 0 for unlimited")
	flag.Parse()

	if *file == "" {
		slog.Error("-file is required")
		flag.Usage()
		os.Exit(2)
	}
	// Absolute from the start: the CSV writer resolves relative paths
	// against the reports directory, and this file must be rewritten exactly
	// where it was read.
	path, err := filepath.Abs(*file)
	if err != nil {
		slog.Error("Failed to resolve file path", "file", *file, "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx := infrastructure.ContextWithRunID(context.Background())

	rows, _, err := workbook.Read(path, workbook.Options{})
	if err != nil {
		logger.Error("Failed to read holdings file", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if len(rows) < 2 {
		logger.Info("Nothing to update", slog.String("file", path))
		return
	}

	nameIdx := columnIndex(rows[0], "Name/Kind of Investment Item")
	addressIdx := columnIndex(rows[0], "Address")
	countryIdx := columnIndex(rows[0], "Listed Country")
	if addressIdx < 0 || countryIdx < 0 {
		logger.Error("File is missing the Address or Listed Country column",
			slog.String("file", path))
		os.Exit(1)
	}

	client := geocode.NewClient(cfg.Geocode, logger)

	pending := 0
	for _, row := range rows[1:] {
		if needsLookup(row, addressIdx, countryIdx) {
			pending++
		}
	}
	logger.Info("Starting geocode backfill",
		slog.String("file", path),
		slog.Int("pending", pending),
		slog.Int("limit", *limit))

	updated, lookups := 0, 0
	for i, row := range rows[1:] {
		if !needsLookup(row, addressIdx, countryIdx) {
			continue
		}
		if *limit > 0 && lookups >= *limit {
			logger.Info("Lookup limit reached", slog.Int("limit", *limit))
			break
		}
		lookups++

		name := ""
		if nameIdx >= 0 && nameIdx < len(row) {
			name = row[nameIdx]
		}

		country, err := client.CountryForHolding(ctx, name, row[addressIdx])
		if err != nil {
			logger.Warn("Lookup failed",
				slog.Int("row", i+2),
				slog.String("address", row[addressIdx]),
				slog.String("error", err.Error()))
			continue
		}
		if country == "" {
			logger.Debug("No country found", slog.Int("row", i+2))
			continue
		}

		row[countryIdx] = country
		updated++
		logger.Info("Row updated",
			slog.Int("row", i+2),
			slog.String("country", country))
	}

	if updated == 0 {
		logger.Info("No rows updated, file left untouched")
		return
	}

	writer := exporter.NewCSVWriter(cfg.Paths)
	if err := writer.WriteCSV(path, exporter.WriteOptions{
		Headers:   rows[0],
		Records:   rows[1:],
		BOMPrefix: true,
	}); err != nil {
		logger.Error("Failed to write updated file", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Geocode backfill complete",
		slog.Int("lookups", lookups),
		slog.Int("updated", updated))
}

func columnIndex(header []string, name string) int {
	for idx, cell := range header {
		if strings.EqualFold(strings.TrimSpace(cell), name) {
			return idx
		}
	}
	return -1
}

func needsLookup(row []string, addressIdx, countryIdx int) bool {
	if addressIdx >= len(row) || countryIdx >= len(row) {
		return false
	}
	return strings.TrimSpace(row[addressIdx]) != "" && strings.TrimSpace(row[countryIdx]) == ""
}
