// Package refdata maintains the country and currency reference tables the
// ETL consults: ISO code CSVs scraped from iban.com plus text-based country
// inference for rows the code lookup cannot resolve.
package refdata

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"supercli/internal/errors"
	"supercli/internal/workbook"
)

// CountryTable maps 2-letter ISO codes to country names. Satisfies the
// scanner's country lookup.
type CountryTable struct {
	byCode map[string]string
	byName map[string]string
	names  []string
}

// LoadCountries reads a Country,Code CSV. Column order does not matter;
// columns are located by header name.
func LoadCountries(path string) (*CountryTable, error) {
	rows, _, err := workbook.Read(path, workbook.Options{})
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, errors.EmptySheet(path)
	}

	countryIdx, codeIdx := -1, -1
	for idx, cell := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case "country":
			countryIdx = idx
		case "code":
			codeIdx = idx
		}
	}
	if countryIdx < 0 {
		return nil, errors.MissingColumn("Country")
	}
	if codeIdx < 0 {
		return nil, errors.MissingColumn("Code")
	}

	t := &CountryTable{
		byCode: make(map[string]string),
		byName: make(map[string]string),
	}
	for _, row := range rows[1:] {
		if countryIdx >= len(row) || codeIdx >= len(row) {
			continue
		}
		country := strings.TrimSpace(row[countryIdx])
		code := strings.ToUpper(strings.TrimSpace(row[codeIdx]))
		if country == "" || code == "" {
			continue
		}
		t.byCode[code] = country
		if _, dup := t.byName[strings.ToLower(country)]; !dup {
			t.names = append(t.names, country)
		}
		t.byName[strings.ToLower(country)] = code
	}
	return t, nil
}

// CountryForCode resolves a 2-letter code to its country name.
func (t *CountryTable) CountryForCode(code string) (string, bool) {
	country, ok := t.byCode[strings.ToUpper(strings.TrimSpace(code))]
	return country, ok
}

// CodeForCountry resolves a country name back to its code, case-insensitive.
func (t *CountryTable) CodeForCountry(name string) (string, bool) {
	code, ok := t.byName[strings.ToLower(strings.TrimSpace(name))]
	return code, ok
}

// Len reports how many codes are loaded.
func (t *CountryTable) Len() int {
	return len(t.byCode)
}

// Names returns every name in the table in load order. Names sharing a code
// are all present, which matters for the merged currency table where many
// countries map onto one currency.
func (t *CountryTable) Names() []string {
	return t.names
}

// WriteCountriesCSV writes a Country,Code table with a UTF-8 BOM so Excel
// opens it cleanly.
func WriteCountriesCSV(path string, rows [][2]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Country", "Code"}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write([]string{row[0], row[1]}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
