package scanner

import (
	"context"
	"log/slog"
	"strings"

	"supercli/internal/infrastructure"
	"supercli/pkg/contracts/domain"
)

// RecordSink receives destination records as they are materialized. The CSV
// stream writer implements this.
type RecordSink interface {
	WriteRecord(rec *domain.HoldingRecord) error
}

// Stats summarizes one scan pass.
type Stats struct {
	RowsScanned    int
	TablesFound    int
	TablesRejected int
	RecordsEmitted int
}

// state of the table boundary controller.
type state int

const (
	stateSearching state = iota
	stateCollecting
)

// Scanner drives the table boundary state machine over one flat sequence of
// rows: SEARCHING until a header with at least one resolvable column is
// found, COLLECTING until the terminator row, then back to SEARCHING with
// context and mapping reset. Records are emitted only while collecting.
type Scanner struct {
	profile     *Profile
	classifier  *Classifier
	extractor   *ContextExtractor
	resolver    *ColumnResolver
	materialize *Materializer
}

// New builds a scanner for one fund profile.
func New(p *Profile, countries CountryLookup, logger *slog.Logger) (*Scanner, error) {
	mat, err := NewMaterializer(p, countries, logger)
	if err != nil {
		return nil, err
	}
	return &Scanner{
		profile:     p,
		classifier:  NewClassifier(p),
		extractor:   NewContextExtractor(p),
		resolver:    NewColumnResolver(p),
		materialize: mat,
	}, nil
}

// Scan makes one linear pass over rows, emitting records to sink. A table
// still open at end of input is abandoned without a synthetic terminator;
// its rows already emitted stay emitted.
func (s *Scanner) Scan(ctx context.Context, rows [][]string, sink RecordSink) (Stats, error) {
	return s.scan(ctx, rows, 0, "", sink)
}

// ScanBlock scans one marker-delimited block. The marker text is the
// fallback asset class for tables whose context rows carry no usable name,
// and the block's start offset keeps log row numbers pointing at the source
// file.
func (s *Scanner) ScanBlock(ctx context.Context, block Block, sink RecordSink) (Stats, error) {
	fallback := strings.TrimSpace(block.Name)
	if fallback != "" {
		fallback = titleCaser.String(strings.ToLower(fallback))
	}
	return s.scan(ctx, block.Rows, block.Start, fallback, sink)
}

func (s *Scanner) scan(ctx context.Context, rows [][]string, offset int, fallbackClass string, sink RecordSink) (Stats, error) {
	logger := infrastructure.LoggerFromContext(ctx)
	var stats Stats

	current := stateSearching
	var tableCtx TableContext
	var mapping ColumnMapping

	for idx, row := range rows {
		stats.RowsScanned++

		kind := s.classifier.Classify(row, current == stateCollecting)

		switch current {
		case stateSearching:
			if kind != RowHeader {
				continue
			}
			candidate := s.resolver.Resolve(row)
			if len(candidate) == 0 {
				stats.TablesRejected++
				logger.Warn("header candidate with no mappable columns, ignoring",
					slog.Int("row", offset+idx+1))
				continue
			}
			mapping = candidate
			tableCtx = s.extractor.Extract(rows, idx)
			if tableCtx.AssetClass == unknownAssetClass && fallbackClass != "" {
				tableCtx.AssetClass = fallbackClass
			}
			current = stateCollecting
			stats.TablesFound++
			logger.Info("table found",
				slog.Int("row", offset+idx+1),
				slog.String("asset_class", tableCtx.AssetClass),
				slog.String("management", string(tableCtx.Management)),
				slog.Int("mapped_columns", len(mapping)))

		case stateCollecting:
			switch kind {
			case RowBlank:
				// Blank rows inside a table are separators, not terminators.
				continue
			case RowTerminator:
				rec := s.materialize.Materialize(offset+idx, row, mapping, tableCtx, true)
				if err := sink.WriteRecord(rec); err != nil {
					return stats, err
				}
				stats.RecordsEmitted++
				current = stateSearching
				tableCtx = TableContext{}
				mapping = nil
			case RowData:
				if s.profile.RequireName && !s.hasName(row, mapping) {
					continue
				}
				rec := s.materialize.Materialize(offset+idx, row, mapping, tableCtx, false)
				if !rec.HasData() {
					continue
				}
				if err := sink.WriteRecord(rec); err != nil {
					return stats, err
				}
				stats.RecordsEmitted++
			}
		}
	}

	if current == stateCollecting {
		logger.Warn("input ended inside a table, no terminator seen",
			slog.String("asset_class", tableCtx.AssetClass))
	}

	logger.Info("scan complete",
		slog.Int("rows_scanned", stats.RowsScanned),
		slog.Int("tables_found", stats.TablesFound),
		slog.Int("records_emitted", stats.RecordsEmitted))

	return stats, nil
}

// hasName reports whether the row's mapped name cell is non-empty.
func (s *Scanner) hasName(row []string, mapping ColumnMapping) bool {
	idx, ok := mapping[FieldName]
	if !ok || idx >= len(row) {
		return false
	}
	v := row[idx]
	return v != "" && !s.profile.isEmptyToken(v)
}
