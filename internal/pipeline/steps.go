package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"supercli/internal/exporter"
	"supercli/internal/files"
	"supercli/internal/geocode"
	"supercli/internal/infrastructure"
	"supercli/internal/refdata"
	"supercli/internal/scanner"
	"supercli/internal/workbook"
	"supercli/pkg/contracts/domain"
)

// collectSink gathers records in memory so later steps can enrich them
// before export.
type collectSink struct {
	records []*domain.HoldingRecord
}

func (s *collectSink) WriteRecord(rec *domain.HoldingRecord) error {
	s.records = append(s.records, rec)
	return nil
}

// ScanStep reads every fund's source files and runs the layout-appropriate
// scanner over them.
type ScanStep struct {
	profiles  map[string]*scanner.Profile
	discovery *files.Discovery
	dataDir   string
	countries scanner.CountryLookup
}

// NewScanStep builds the scan step. countries may be nil when no reference
// table is available; stock-ID codes are then retained verbatim.
func NewScanStep(profiles map[string]*scanner.Profile, discovery *files.Discovery, dataDir string, countries scanner.CountryLookup) *ScanStep {
	return &ScanStep{
		profiles:  profiles,
		discovery: discovery,
		dataDir:   dataDir,
		countries: countries,
	}
}

func (s *ScanStep) ID() string   { return "scan" }
func (s *ScanStep) Name() string { return "Scan disclosure files" }

func (s *ScanStep) Execute(ctx context.Context, state *State) error {
	logger := infrastructure.LoggerFromContext(ctx)

	for fund, profile := range s.profiles {
		sources, err := s.discovery.FindForFund(s.dataDir, fund)
		if err != nil {
			return err
		}
		if len(sources) == 0 {
			logger.Warn("no source files for fund", slog.String("fund", profile.Fund))
			continue
		}

		for _, source := range sources {
			stats, records, err := s.scanFile(ctx, profile, source.Path)
			if err != nil {
				return fmt.Errorf("scanning %s: %w", source.Name, err)
			}
			state.AddRecords(profile.Fund, stats, records)
			logger.Info("source file scanned",
				slog.String("fund", profile.Fund),
				slog.String("file", source.Name),
				slog.Int("records", len(records)))
		}
	}
	return nil
}

func (s *ScanStep) scanFile(ctx context.Context, profile *scanner.Profile, path string) (scanner.Stats, []*domain.HoldingRecord, error) {
	var stats scanner.Stats
	rows, sheet, err := workbook.Read(path, workbook.Options{
		Keywords: profile.HeaderKeywords,
	})
	if err != nil {
		return stats, nil, err
	}
	if sheet != "" {
		infrastructure.LoggerFromContext(ctx).Debug("sheet selected",
			slog.String("file", path), slog.String("sheet", sheet))
	}

	sink := &collectSink{}

	if profile.Layout == scanner.LayoutFlat {
		mapper, err := scanner.NewFlatMapper(profile, s.countries, nil)
		if err != nil {
			return stats, nil, err
		}
		stats, err = mapper.Scan(ctx, rows, sink)
		return stats, sink.records, err
	}

	sc, err := scanner.New(profile, s.countries, nil)
	if err != nil {
		return stats, nil, err
	}

	for _, block := range scanner.NewSplitter(profile).Split(rows) {
		blockStats, err := sc.ScanBlock(ctx, block, sink)
		if err != nil {
			return stats, nil, err
		}
		stats.RowsScanned += blockStats.RowsScanned
		stats.TablesFound += blockStats.TablesFound
		stats.TablesRejected += blockStats.TablesRejected
		stats.RecordsEmitted += blockStats.RecordsEmitted
	}
	return stats, sink.records, nil
}

// InferStep fills empty Listed Country fields from the record's own text,
// using the countries already present in the run as the keyword list.
type InferStep struct{}

func NewInferStep() *InferStep { return &InferStep{} }

func (s *InferStep) ID() string   { return "infer" }
func (s *InferStep) Name() string { return "Infer countries from text" }

func (s *InferStep) Execute(ctx context.Context, state *State) error {
	logger := infrastructure.LoggerFromContext(ctx)
	records := state.Records()

	seen := make(map[string]bool)
	var known []string
	for _, rec := range records {
		rec.ListedCountry = refdata.NormalizeState(rec.ListedCountry)
		if rec.ListedCountry == "" || seen[rec.ListedCountry] {
			continue
		}
		seen[rec.ListedCountry] = true
		known = append(known, rec.ListedCountry)
	}
	if len(known) == 0 {
		logger.Info("no known countries in run, skipping inference")
		return nil
	}

	inf := refdata.NewInferrer(known)
	inferred := 0
	for _, rec := range records {
		if rec.ListedCountry != "" || rec.Address == "" {
			continue
		}
		if country := inf.Infer(rec.Address + " " + rec.Name); country != "" {
			rec.ListedCountry = country
			inferred++
		}
	}

	logger.Info("country inference complete",
		slog.Int("keywords", len(known)),
		slog.Int("inferred", inferred))
	return nil
}

// CurrencyStep rewrites free-text Currency values to ISO codes through the
// merged country and currency reference table. Optional; skipped when the
// table was not loaded.
type CurrencyStep struct {
	table *refdata.CountryTable
}

func NewCurrencyStep(table *refdata.CountryTable) *CurrencyStep {
	return &CurrencyStep{table: table}
}

func (s *CurrencyStep) ID() string   { return "currency" }
func (s *CurrencyStep) Name() string { return "Normalize currencies" }

func (s *CurrencyStep) Execute(ctx context.Context, state *State) error {
	logger := infrastructure.LoggerFromContext(ctx)
	if s.table == nil || s.table.Len() == 0 {
		logger.Info("no currency table loaded, skipping normalization")
		return nil
	}

	inf := refdata.NewInferrer(s.table.Names())
	updated := 0
	for _, rec := range state.Records() {
		currency := strings.TrimSpace(rec.Currency)
		if currency == "" || isCurrencyCode(currency) {
			continue
		}
		label := currency
		if _, ok := s.table.CodeForCountry(label); !ok {
			label = inf.Infer(currency)
		}
		if code, ok := s.table.CodeForCountry(label); ok {
			rec.Currency = code
			updated++
		}
	}

	logger.Info("currency normalization complete", slog.Int("updated", updated))
	return nil
}

// isCurrencyCode reports whether the value already is a 3-letter ISO code.
func isCurrencyCode(v string) bool {
	if len(v) != 3 {
		return false
	}
	for _, r := range v {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// GeocodeStep backfills the Listed Country fields inference could not
// resolve by querying Nominatim. Optional; the step is skipped when no
// client is configured.
type GeocodeStep struct {
	client *geocode.Client
}

func NewGeocodeStep(client *geocode.Client) *GeocodeStep {
	return &GeocodeStep{client: client}
}

func (s *GeocodeStep) ID() string   { return "geocode" }
func (s *GeocodeStep) Name() string { return "Geocode remaining addresses" }

func (s *GeocodeStep) Execute(ctx context.Context, state *State) error {
	if s.client == nil {
		infrastructure.LoggerFromContext(ctx).Info("geocoding disabled, skipping")
		return nil
	}
	_, err := s.client.Backfill(ctx, state.Records())
	return err
}

// ExportStep writes the gathered records to the cleaned holdings CSV, one
// file per fund plus a combined file.
type ExportStep struct {
	writer   *exporter.CSVWriter
	combined string
}

// NewExportStep builds the export step. combined is the output filename for
// the all-funds table.
func NewExportStep(writer *exporter.CSVWriter, combined string) *ExportStep {
	return &ExportStep{writer: writer, combined: combined}
}

func (s *ExportStep) ID() string   { return "export" }
func (s *ExportStep) Name() string { return "Export cleaned holdings" }

func (s *ExportStep) Execute(ctx context.Context, state *State) error {
	logger := infrastructure.LoggerFromContext(ctx)
	records := state.Records()

	if err := s.writeFile(s.combined, records); err != nil {
		return err
	}

	byFund := make(map[string][]*domain.HoldingRecord)
	for _, rec := range records {
		byFund[rec.FundName] = append(byFund[rec.FundName], rec)
	}
	for fund, fundRecords := range byFund {
		name := fundFileName(fund)
		if err := s.writeFile(name, fundRecords); err != nil {
			return err
		}
		logger.Info("fund export written",
			slog.String("fund", fund),
			slog.String("file", name),
			slog.Int("records", len(fundRecords)))
	}

	logger.Info("export complete",
		slog.String("combined", s.combined),
		slog.Int("records", len(records)))
	return nil
}

func (s *ExportStep) writeFile(name string, records []*domain.HoldingRecord) error {
	hw, err := s.writer.NewHoldingsWriter(name)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if err := hw.WriteRecord(rec); err != nil {
			hw.Close()
			return err
		}
	}
	return hw.Close()
}

// fundFileName derives a per-fund output filename.
func fundFileName(fund string) string {
	slug := strings.ToLower(strings.Join(strings.Fields(fund), "-"))
	return slug + "-cleaned.csv"
}
