// Package workbook reads fund disclosure files into plain row grids. Excel
// and CSV sources come out identical so the scanner never knows which format
// it is looking at.
package workbook

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"supercli/internal/errors"
)

// Options steers sheet selection for Excel sources.
type Options struct {
	// Sheets are probed by name first, in order.
	Sheets []string
	// Keywords identify the holdings sheet when no named sheet matches:
	// the first sheet whose early rows contain all keywords wins.
	Keywords []string
	// ProbeDepth is how many leading rows are searched for the keywords.
	// Zero means 10.
	ProbeDepth int
}

// Read loads a source file into rows, dispatching on extension. Returns the
// rows and the sheet name used ("" for CSV).
func Read(path string, opts Options) ([][]string, string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xls":
		return readExcel(path, opts)
	case ".csv":
		rows, err := readCSV(path)
		return rows, "", err
	default:
		return nil, "", fmt.Errorf("unsupported source file type: %s", path)
	}
}

func readExcel(path string, opts Options) ([][]string, string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", errors.MissingFile(path, err)
		}
		return nil, "", fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	for _, name := range opts.Sheets {
		if rows, err := f.GetRows(name); err == nil && len(rows) > 0 {
			return rows, name, nil
		}
	}

	depth := opts.ProbeDepth
	if depth == 0 {
		depth = 10
	}

	sheets := f.GetSheetList()
	if len(opts.Keywords) > 0 {
		for _, name := range sheets {
			rows, err := f.GetRows(name)
			if err != nil || len(rows) == 0 {
				continue
			}
			if sheetMatches(rows, opts.Keywords, depth) {
				return rows, name, nil
			}
		}
	}

	// Fall back to the first non-empty sheet.
	for _, name := range sheets {
		if rows, err := f.GetRows(name); err == nil && len(rows) > 0 {
			return rows, name, nil
		}
	}

	return nil, "", errors.EmptySheet(path)
}

// sheetMatches reports whether all keywords appear, case-insensitive, within
// the sheet's first depth rows.
func sheetMatches(rows [][]string, keywords []string, depth int) bool {
	limit := depth
	if limit > len(rows) {
		limit = len(rows)
	}

	var b strings.Builder
	for _, row := range rows[:limit] {
		b.WriteString(strings.ToLower(strings.Join(row, " ")))
		b.WriteString(" ")
	}
	text := b.String()

	for _, kw := range keywords {
		if !strings.Contains(text, strings.ToLower(kw)) {
			return false
		}
	}
	return true
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.MissingFile(path, err)
		}
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(stripBOM(f))
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv %s: %w", path, err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// stripBOM removes a UTF-8 byte order mark if the file starts with one.
func stripBOM(f *os.File) io.Reader {
	buf := make([]byte, 3)
	n, err := f.Read(buf)
	if err == nil && n == 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF {
		return f
	}
	f.Seek(0, io.SeekStart)
	return f
}
