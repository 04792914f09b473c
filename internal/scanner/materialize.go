package scanner

import (
	"log/slog"
	"strings"
	"time"

	"supercli/pkg/contracts/domain"
)

// CountryLookup resolves a 2-letter code to a country name. Implemented by
// the refdata country table.
type CountryLookup interface {
	CountryForCode(code string) (string, bool)
}

// australianStates short-circuit the country derivation: a state or
// territory abbreviation in the code position always means Australia.
var australianStates = map[string]bool{
	"NSW": true, "NT": true, "QLD": true, "VIC": true,
	"SA": true, "TAS": true, "WA": true, "ACT": true,
}

// Materializer turns one source data row into a destination record using
// the active column mapping and table context.
type Materializer struct {
	profile       *Profile
	countries     CountryLookup
	effectiveDate time.Time
	percentFields map[string]bool
	logger        *slog.Logger
}

// NewMaterializer builds a materializer. countries may be nil, in which case
// extracted codes are retained verbatim.
func NewMaterializer(p *Profile, countries CountryLookup, logger *slog.Logger) (*Materializer, error) {
	date, err := p.ParsedEffectiveDate()
	if err != nil {
		return nil, err
	}
	percent := make(map[string]bool, len(p.PercentFields))
	for _, f := range p.PercentFields {
		percent[f] = true
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{
		profile:       p,
		countries:     countries,
		effectiveDate: date,
		percentFields: percent,
		logger:        logger,
	}, nil
}

// Materialize maps a data row into a HoldingRecord. isTerminator forces the
// name field to "Sub Total" regardless of the source cell.
func (m *Materializer) Materialize(rowIdx int, row []string, mapping ColumnMapping, tctx TableContext, isTerminator bool) *domain.HoldingRecord {
	rec := &domain.HoldingRecord{
		EffectiveDate: m.effectiveDate,
		FundName:      m.profile.Fund,
		OptionName:    m.profile.Option,
		AssetClass:    tctx.AssetClass,
		Management:    tctx.Management,
		SubTotal:      isTerminator,
	}
	if v, ok := m.profile.IntExtValues[string(tctx.Management)]; ok {
		rec.IntExt = &v
	}

	for _, dest := range mapping.Fields() {
		srcIdx := mapping[dest]
		if srcIdx >= len(row) {
			continue
		}
		value := strings.TrimSpace(row[srcIdx])
		if value == "" || m.profile.isEmptyToken(value) {
			continue
		}
		m.assign(rec, dest, value, rowIdx)
	}

	if isTerminator {
		rec.Name = "Sub Total"
	}

	m.deriveListedCountry(rec)
	return rec
}

// assign coerces one cell into its destination field. Unparseable values
// leave the field empty; the row is never aborted.
func (m *Materializer) assign(rec *domain.HoldingRecord, dest, value string, rowIdx int) {
	switch dest {
	case FieldName:
		if strings.EqualFold(value, m.profile.TerminatorKeyword) {
			rec.Name = "Sub Total"
		} else {
			rec.Name = value
		}
	case FieldCurrency:
		rec.Currency = value
	case FieldStockID:
		rec.StockID = value
	case FieldListedCountry:
		rec.ListedCountry = value
	case FieldAddress:
		rec.Address = value
	case FieldUnitsHeld:
		rec.UnitsHeld = m.numeric(dest, value, rowIdx)
	case FieldOwnership:
		rec.Ownership = m.numeric(dest, value, rowIdx)
	case FieldWeighting:
		rec.Weighting = m.numeric(dest, value, rowIdx)
	case FieldValueAUD:
		v := m.numeric(dest, value, rowIdx)
		if v == nil {
			// Disclosure files sometimes report ranges ("$2m to $10m").
			v = parseValueRange(value)
		}
		rec.ValueAUD = v
	}
}

func (m *Materializer) numeric(dest, value string, rowIdx int) *float64 {
	f := parseNumeric(value)
	if f == nil {
		m.logger.Debug("cell could not be coerced, leaving field empty",
			slog.Int("row", rowIdx+1),
			slog.String("column", dest),
			slog.String("value", value))
		return nil
	}
	if m.percentFields[dest] {
		f = normalizePercent(f)
	}
	return f
}

// deriveListedCountry fills Listed Country from the Stock ID's 2-letter
// code when the source had no country column. Unmapped codes are retained
// verbatim so no information is dropped.
func (m *Materializer) deriveListedCountry(rec *domain.HoldingRecord) {
	if rec.ListedCountry != "" {
		return
	}
	id := strings.TrimSpace(rec.StockID)
	if len(id) < 2 {
		return
	}

	var code string
	if m.profile.CodePosition == CodeLeading {
		code = strings.ToUpper(id[:2])
	} else {
		code = strings.ToUpper(id[len(id)-2:])
	}

	if m.countries != nil {
		if country, ok := m.countries.CountryForCode(code); ok {
			rec.ListedCountry = country
			return
		}
	}
	if australianStates[code] {
		rec.ListedCountry = "Australia"
		return
	}
	rec.ListedCountry = code
}
