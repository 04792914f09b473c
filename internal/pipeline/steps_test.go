package pipeline

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supercli/internal/config"
	"supercli/internal/exporter"
	"supercli/internal/files"
	"supercli/internal/refdata"
	"supercli/internal/scanner"
	"supercli/pkg/contracts/domain"
)

func blockProfile(t *testing.T) *scanner.Profile {
	t.Helper()
	p := &scanner.Profile{
		Fund:          "CareSuper",
		Option:        "Balanced",
		EffectiveDate: "2024-12-31",
		Layout:        scanner.LayoutBlocks,
	}
	require.NoError(t, p.Validate())
	return p
}

func TestScanStep(t *testing.T) {
	dataDir := t.TempDir()
	source := "Fund Overview\n" +
		"Cash\n" +
		"Name,Value,Weighting\n" +
		"Term Deposit,100,0.5\n" +
		"Total,200,1.0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "caresuper-holdings.csv"), []byte(source), 0644))

	p := blockProfile(t)
	step := NewScanStep(
		map[string]*scanner.Profile{"caresuper": p},
		files.NewDiscovery(dataDir),
		".",
		nil,
	)

	state := NewState("run-1")
	require.NoError(t, step.Execute(context.Background(), state))

	records := state.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "Term Deposit", records[0].Name)
	assert.Equal(t, "Cash", records[0].AssetClass)
	assert.True(t, records[1].SubTotal)

	stats := state.Stats()["CareSuper"]
	assert.Equal(t, 1, stats.TablesFound)
	assert.Equal(t, 2, stats.RecordsEmitted)
}

func TestScanStepNoSourceFiles(t *testing.T) {
	step := NewScanStep(
		map[string]*scanner.Profile{"caresuper": blockProfile(t)},
		files.NewDiscovery(t.TempDir()),
		".",
		nil,
	)

	state := NewState("run-1")
	require.NoError(t, step.Execute(context.Background(), state))
	assert.Empty(t, state.Records())
}

func TestScanStepMarkerSplit(t *testing.T) {
	dataDir := t.TempDir()
	source := "Table 1: Cash\n" +
		",,\n" +
		"Name,Value,Weighting\n" +
		"Deposit,100,0.5\n" +
		"Total,100,0.5\n" +
		"Table 2: Shares\n" +
		",,\n" +
		"Name,Value,Weighting\n" +
		"BHP,200,0.5\n" +
		"Total,200,0.5\n"
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "caresuper.csv"), []byte(source), 0644))

	p := blockProfile(t)
	p.MarkerKeyword = "Table"
	step := NewScanStep(
		map[string]*scanner.Profile{"caresuper": p},
		files.NewDiscovery(dataDir),
		".",
		nil,
	)

	state := NewState("run-1")
	require.NoError(t, step.Execute(context.Background(), state))

	require.Len(t, state.Records(), 4)
	assert.Equal(t, 2, state.Stats()["CareSuper"].TablesFound)

	// Marker text supplies the asset class when nothing sits above the header.
	classes := make(map[string]int)
	for _, rec := range state.Records() {
		classes[rec.AssetClass]++
	}
	assert.Equal(t, map[string]int{"Cash": 2, "Shares": 2}, classes)
}

func TestInferStep(t *testing.T) {
	state := NewState("run-1")
	state.AddRecords("F", scanner.Stats{}, []*domain.HoldingRecord{
		{Name: "Known", ListedCountry: "Japan"},
		{Name: "State Code", ListedCountry: "NSW"},
		{Name: "Tower", Address: "1 Chiyoda, Tokyo, Japan"},
		{Name: "Sydney Office", Address: "200 George St, Sydney NSW"},
		{Name: "Mystery", Address: "10 Nowhere Lane"},
		{Name: "No Address"},
	})

	require.NoError(t, NewInferStep().Execute(context.Background(), state))

	records := state.Records()
	assert.Equal(t, "Japan", records[0].ListedCountry)
	assert.Equal(t, "Australia", records[1].ListedCountry)
	assert.Equal(t, "Japan", records[2].ListedCountry)
	assert.Equal(t, "Australia", records[3].ListedCountry)
	assert.Empty(t, records[4].ListedCountry)
	assert.Empty(t, records[5].ListedCountry)
}

func TestInferStepNoKnownCountries(t *testing.T) {
	state := NewState("run-1")
	state.AddRecords("F", scanner.Stats{}, []*domain.HoldingRecord{
		{Name: "A", Address: "Somewhere"},
	})

	require.NoError(t, NewInferStep().Execute(context.Background(), state))
	assert.Empty(t, state.Records()[0].ListedCountry)
}

func TestCurrencyStep(t *testing.T) {
	path := filepath.Join(t.TempDir(), "currencies.csv")
	require.NoError(t, refdata.WriteCountriesCSV(path, [][2]string{
		{"United States (Dollar)", "USD"},
		{"Australia (Dollar)", "AUD"},
		{"Japan (Yen)", "JPY"},
	}))
	table, err := refdata.LoadCountries(path)
	require.NoError(t, err)

	state := NewState("run-1")
	state.AddRecords("F", scanner.Stats{}, []*domain.HoldingRecord{
		{Name: "A", Currency: "United States Dollar"},
		{Name: "B", Currency: "AUD"},
		{Name: "C", Currency: "australia (dollar)"},
		{Name: "D", Currency: "Doubloons"},
		{Name: "E"},
	})

	require.NoError(t, NewCurrencyStep(table).Execute(context.Background(), state))

	records := state.Records()
	assert.Equal(t, "USD", records[0].Currency)
	assert.Equal(t, "AUD", records[1].Currency)
	assert.Equal(t, "AUD", records[2].Currency)
	assert.Equal(t, "Doubloons", records[3].Currency)
	assert.Equal(t, "", records[4].Currency)
}

func TestCurrencyStepSkipsWithoutTable(t *testing.T) {
	state := NewState("run-1")
	state.AddRecords("F", scanner.Stats{}, []*domain.HoldingRecord{{Currency: "Yen"}})

	require.NoError(t, NewCurrencyStep(nil).Execute(context.Background(), state))
	assert.Equal(t, "Yen", state.Records()[0].Currency)
}

func TestGeocodeStepSkipsWithoutClient(t *testing.T) {
	state := NewState("run-1")
	state.AddRecords("F", scanner.Stats{}, []*domain.HoldingRecord{
		{Name: "A", Address: "Somewhere"},
	})

	require.NoError(t, NewGeocodeStep(nil).Execute(context.Background(), state))
	assert.Empty(t, state.Records()[0].ListedCountry)
}

func TestExportStep(t *testing.T) {
	reportsDir := t.TempDir()
	writer := exporter.NewCSVWriter(config.PathsConfig{ReportsDir: reportsDir})

	state := NewState("run-1")
	state.AddRecords("CareSuper", scanner.Stats{}, []*domain.HoldingRecord{
		{FundName: "CareSuper", Name: "A"},
		{FundName: "CareSuper", Name: "B"},
	})
	state.AddRecords("Rest Super", scanner.Stats{}, []*domain.HoldingRecord{
		{FundName: "Rest Super", Name: "C"},
	})

	step := NewExportStep(writer, "all-funds.csv")
	require.NoError(t, step.Execute(context.Background(), state))

	assert.Len(t, readCSVRows(t, filepath.Join(reportsDir, "all-funds.csv")), 4)
	assert.Len(t, readCSVRows(t, filepath.Join(reportsDir, "caresuper-cleaned.csv")), 3)
	assert.Len(t, readCSVRows(t, filepath.Join(reportsDir, "rest-super-cleaned.csv")), 2)
}

func readCSVRows(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := strings.TrimPrefix(string(data), "\xEF\xBB\xBF")
	rows, err := csv.NewReader(strings.NewReader(content)).ReadAll()
	require.NoError(t, err)
	return rows
}
