package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"supercli/internal/errors"
	"supercli/internal/infrastructure"
	"supercli/pkg/contracts/domain"
)

// FlatMapper processes the single-table layout: one fixed header row, an
// asset-class column on every data row, and embedded "Sub Total ..." rows
// instead of per-table terminators. It emits the same record stream as the
// block scanner so downstream steps never care which layout produced it.
type FlatMapper struct {
	profile     *Profile
	materialize *Materializer
}

// NewFlatMapper builds a mapper for one flat-layout fund profile.
func NewFlatMapper(p *Profile, countries CountryLookup, logger *slog.Logger) (*FlatMapper, error) {
	if p.Layout != LayoutFlat {
		return nil, errors.InvalidProfile(p.Fund, fmt.Errorf("flat mapper requires the flat layout, got %q", p.Layout))
	}
	mat, err := NewMaterializer(p, countries, logger)
	if err != nil {
		return nil, err
	}
	return &FlatMapper{profile: p, materialize: mat}, nil
}

// Scan walks the sheet once, stopping one row before the end marker when the
// profile defines one.
func (f *FlatMapper) Scan(ctx context.Context, rows [][]string, sink RecordSink) (Stats, error) {
	logger := infrastructure.LoggerFromContext(ctx)
	var stats Stats

	headerIdx := f.profile.Flat.HeaderRow
	if headerIdx >= len(rows) {
		return stats, errors.EmptySheet(fmt.Sprintf("header row %d beyond sheet end", headerIdx+1))
	}

	header := normalizeRow(rows[headerIdx])
	headerIndex := make(map[string]int, len(header))
	for idx, cell := range header {
		if cell == "" {
			continue
		}
		if _, seen := headerIndex[cell]; !seen {
			headerIndex[cell] = idx
		}
	}

	mapping, mgmtIdx := f.resolveColumns(headerIndex)
	assetIdx, ok := headerIndex[strings.ToLower(strings.TrimSpace(f.profile.Flat.AssetClassColumn))]
	if !ok {
		return stats, errors.MissingColumn(f.profile.Flat.AssetClassColumn)
	}

	var nameIdx []int
	for _, candidate := range f.profile.Flat.NameCandidates {
		if idx, ok := headerIndex[strings.ToLower(strings.TrimSpace(candidate))]; ok {
			nameIdx = append(nameIdx, idx)
		}
	}

	endMarker := strings.ToLower(strings.TrimSpace(f.profile.Flat.EndMarker))

	for idx := headerIdx + 1; idx < len(rows); idx++ {
		row := rows[idx]
		stats.RowsScanned++

		assetCell := cellAt(row, assetIdx)
		if endMarker != "" && strings.Contains(strings.ToLower(assetCell), endMarker) {
			logger.Info("end marker reached", slog.Int("row", idx+1))
			break
		}
		if rowIsBlank(normalizeRow(row)) {
			continue
		}

		var rec *domain.HoldingRecord
		if strings.Contains(strings.ToLower(assetCell), "sub total") {
			tctx := f.subTotalContext(assetCell)
			rec = f.materialize.Materialize(idx, row, mapping, tctx, true)
			stats.TablesFound++
		} else {
			tctx := f.rowContext(assetCell, cellAt(row, mgmtIdx))
			rec = f.materialize.Materialize(idx, row, mapping, tctx, false)
			rec.Name = f.nameFor(row, nameIdx)
			if f.profile.RequireName && rec.Name == "" {
				continue
			}
			if !rec.HasData() {
				continue
			}
		}

		if err := sink.WriteRecord(rec); err != nil {
			return stats, err
		}
		stats.RecordsEmitted++
	}

	logger.Info("flat scan complete",
		slog.Int("rows_scanned", stats.RowsScanned),
		slog.Int("sub_totals", stats.TablesFound),
		slog.Int("records_emitted", stats.RecordsEmitted))

	return stats, nil
}

// resolveColumns matches the profile's column map against the header,
// case-insensitive. The Int/Ext source column is tracked separately since
// the materializer treats it as table context rather than a mapped cell.
func (f *FlatMapper) resolveColumns(headerIndex map[string]int) (ColumnMapping, int) {
	mapping := make(ColumnMapping)
	mgmtIdx := -1
	for src, dest := range f.profile.Flat.ColumnMap {
		idx, ok := headerIndex[strings.ToLower(strings.TrimSpace(src))]
		if !ok {
			continue
		}
		if dest == FieldIntExt {
			mgmtIdx = idx
			continue
		}
		if contextFields[dest] {
			continue
		}
		mapping[dest] = idx
	}
	return mapping, mgmtIdx
}

// subTotalContext unpacks a "Sub Total [asset class] [management]" cell.
func (f *FlatMapper) subTotalContext(cell string) TableContext {
	lower := strings.ToLower(cell)

	management := f.defaultManagement()
	if strings.Contains(lower, "internally") {
		management = domain.ManagementInternal
	} else if strings.Contains(lower, "externally") {
		management = domain.ManagementExternal
	}

	for _, phrase := range []string{"sub total", "internally", "externally", "managed"} {
		lower = strings.ReplaceAll(lower, phrase, "")
	}
	lower = punctuationPattern.ReplaceAllString(lower, " ")
	lower = strings.TrimSpace(spacesPattern.ReplaceAllString(lower, " "))

	name := unknownAssetClass
	if lower != "" {
		name = titleCaser.String(lower)
	}
	return TableContext{AssetClass: name, Management: management}
}

// rowContext builds the per-row context for a regular data row.
func (f *FlatMapper) rowContext(assetCell, mgmtCell string) TableContext {
	management := f.defaultManagement()
	if m := normalizeManagement(mgmtCell); m != domain.ManagementUnknown {
		management = m
	}

	name := unknownAssetClass
	if trimmed := strings.TrimSpace(assetCell); trimmed != "" && !f.profile.isEmptyToken(trimmed) {
		name = titleCaser.String(strings.ToLower(trimmed))
	}
	return TableContext{AssetClass: name, Management: management}
}

func (f *FlatMapper) defaultManagement() domain.ManagementFlag {
	return normalizeManagement(f.profile.DefaultManagement)
}

// nameFor probes the candidate columns in profile order, first non-empty
// cell wins.
func (f *FlatMapper) nameFor(row []string, nameIdx []int) string {
	for _, idx := range nameIdx {
		v := strings.TrimSpace(cellAt(row, idx))
		if v != "" && !f.profile.isEmptyToken(v) {
			return v
		}
	}
	return ""
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
