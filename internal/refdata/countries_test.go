package refdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supercli/internal/errors"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "codes.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadCountries(t *testing.T) {
	path := writeCSV(t, "Country,Code\nAustralia,AU\nUnited States of America (the),US\nJapan,JP\n")

	table, err := LoadCountries(path)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	country, ok := table.CountryForCode("au")
	require.True(t, ok)
	assert.Equal(t, "Australia", country)

	_, ok = table.CountryForCode("ZZ")
	assert.False(t, ok)

	code, ok := table.CodeForCountry("JAPAN")
	require.True(t, ok)
	assert.Equal(t, "JP", code)

	assert.Len(t, table.Names(), 3)
}

func TestLoadCountriesWithBOM(t *testing.T) {
	path := writeCSV(t, "\xEF\xBB\xBFCountry,Code\nAustralia,AU\n")

	table, err := LoadCountries(path)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
}

func TestLoadCountriesColumnOrderIrrelevant(t *testing.T) {
	path := writeCSV(t, "Code,Country\nAU,Australia\n")

	table, err := LoadCountries(path)
	require.NoError(t, err)

	country, ok := table.CountryForCode("AU")
	require.True(t, ok)
	assert.Equal(t, "Australia", country)
}

func TestLoadCountriesMissingColumn(t *testing.T) {
	path := writeCSV(t, "Name,Code\nAustralia,AU\n")

	_, err := LoadCountries(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMissingColumn)
}

func TestLoadCountriesMissingFile(t *testing.T) {
	_, err := LoadCountries(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMissingFile)
}

func TestLoadCountriesEmpty(t *testing.T) {
	path := writeCSV(t, "Country,Code\n")

	_, err := LoadCountries(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrEmptySheet)
}

func TestWriteCountriesCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	rows := [][2]string{
		{"Australia", "AU"},
		{"United States of America (the)", "US"},
	}
	require.NoError(t, WriteCountriesCSV(path, rows))

	table, err := LoadCountries(path)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	country, ok := table.CountryForCode("US")
	require.True(t, ok)
	assert.Equal(t, "United States of America (the)", country)

	// The BOM must be present for spreadsheet tools.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, data[:3])
}
