package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	return dir
}

func fileNames(files []FileInfo) []string {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	return names
}

func TestFindSourceFiles(t *testing.T) {
	dir := setupDir(t,
		"caresuper-holdings.xlsx",
		"rest-holdings.csv",
		"notes.txt",
		"report.pdf",
	)

	d := NewDiscovery(dir)
	files, err := d.FindSourceFiles(".")
	require.NoError(t, err)

	assert.Equal(t, []string{"caresuper-holdings.xlsx", "rest-holdings.csv"}, fileNames(files))
}

func TestFindExcelFilesSkipsLockFiles(t *testing.T) {
	dir := setupDir(t,
		"holdings.xlsx",
		"~$holdings.xlsx",
		"data.csv",
	)

	d := NewDiscovery(dir)
	files, err := d.FindExcelFiles(".")
	require.NoError(t, err)

	assert.Equal(t, []string{"holdings.xlsx"}, fileNames(files))
}

func TestFindCSVFiles(t *testing.T) {
	dir := setupDir(t, "a.csv", "b.CSV", "c.xlsx")

	d := NewDiscovery(dir)
	files, err := d.FindCSVFiles(".")
	require.NoError(t, err)

	assert.Equal(t, []string{"a.csv", "b.CSV"}, fileNames(files))
}

func TestFindForFund(t *testing.T) {
	dir := setupDir(t,
		"caresuper-holdings.xlsx",
		"CareSuper-2024.csv",
		"rest-holdings.xlsx",
	)

	d := NewDiscovery(dir)
	files, err := d.FindForFund(".", "CareSuper")
	require.NoError(t, err)

	assert.Equal(t, []string{"CareSuper-2024.csv", "caresuper-holdings.xlsx"}, fileNames(files))
}

func TestFindForFundEmptyName(t *testing.T) {
	dir := setupDir(t, "a.csv")

	d := NewDiscovery(dir)
	_, err := d.FindForFund(".", "  ")
	require.Error(t, err)
}

func TestFindSourceFilesMissingDir(t *testing.T) {
	d := NewDiscovery(t.TempDir())
	_, err := d.FindSourceFiles("absent")
	require.Error(t, err)
}

func TestFindAbsoluteDir(t *testing.T) {
	dir := setupDir(t, "a.xlsx")

	// basePath is irrelevant when the directory is absolute.
	d := NewDiscovery("/nonexistent")
	files, err := d.FindExcelFiles(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}
