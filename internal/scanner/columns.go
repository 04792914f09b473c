package scanner

import (
	"sort"
	"strings"
)

// ColumnMapping maps destination field names to source column indexes.
// Built once per sub-table when its header row is confirmed, immutable until
// the next header.
type ColumnMapping map[string]int

// Fields returns the mapped destination fields in stable order.
func (m ColumnMapping) Fields() []string {
	fields := make([]string, 0, len(m))
	for f := range m {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// ColumnResolver matches a header row's cells against the profile's alias
// table. Each source column feeds at most one destination field.
type ColumnResolver struct {
	profile *Profile
	// destOrder keeps resolution deterministic: destination fields are
	// resolved in canonical column order.
	destOrder []string
}

// NewColumnResolver builds a resolver from a fund profile.
func NewColumnResolver(p *Profile) *ColumnResolver {
	return &ColumnResolver{
		profile: p,
		destOrder: []string{
			FieldCurrency,
			FieldStockID,
			FieldListedCountry,
			FieldUnitsHeld,
			FieldOwnership,
			FieldAddress,
			FieldValueAUD,
			FieldWeighting,
		},
	}
}

// Resolve maps the header row onto the destination schema. The
// Name/Kind of Investment Item field binds through its aliases when the
// profile lists any, otherwise to the first cell whose normalized text
// starts with "name"; the remaining fields resolve through the alias table,
// first unused exact match wins.
func (r *ColumnResolver) Resolve(headerRow []string) ColumnMapping {
	normalized := normalizeRow(headerRow)
	mapping := make(ColumnMapping)
	used := make(map[int]bool)

	for _, alias := range r.profile.Aliases[FieldName] {
		aliasNorm := strings.ToLower(strings.TrimSpace(alias))
		for idx, cell := range normalized {
			if cell == aliasNorm {
				mapping[FieldName] = idx
				used[idx] = true
				break
			}
		}
		if _, ok := mapping[FieldName]; ok {
			break
		}
	}
	if _, ok := mapping[FieldName]; !ok {
		for idx, cell := range normalized {
			if strings.HasPrefix(cell, "name") {
				mapping[FieldName] = idx
				used[idx] = true
				break
			}
		}
	}

	for _, dest := range r.destOrder {
		aliases := r.profile.Aliases[dest]
		if len(aliases) == 0 {
			continue
		}
		for _, alias := range aliases {
			aliasNorm := strings.ToLower(strings.TrimSpace(alias))
			found := false
			for idx, cell := range normalized {
				if cell == aliasNorm && !used[idx] {
					mapping[dest] = idx
					used[idx] = true
					found = true
					break
				}
			}
			if found {
				break
			}
		}
	}

	return mapping
}
