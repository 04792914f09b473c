// Package files locates fund disclosure source files on disk and pairs
// them with the fund profiles that know how to read them.
package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery provides file discovery operations rooted at a data directory.
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindSourceFiles finds every Excel and CSV file in the directory, sorted by
// name so runs are repeatable.
func (d *Discovery) FindSourceFiles(dir string) ([]FileInfo, error) {
	return d.findByExtension(dir, ".xlsx", ".xlsm", ".xls", ".csv")
}

// FindExcelFiles finds all Excel files in the specified directory
func (d *Discovery) FindExcelFiles(dir string) ([]FileInfo, error) {
	return d.findByExtension(dir, ".xlsx", ".xlsm", ".xls")
}

// FindCSVFiles finds all CSV files in the specified directory
func (d *Discovery) FindCSVFiles(dir string) ([]FileInfo, error) {
	return d.findByExtension(dir, ".csv")
}

// FindForFund returns the source files whose name mentions the fund,
// case-insensitive. Disclosure downloads are conventionally named after
// their fund ("caresuper-holdings.xlsx").
func (d *Discovery) FindForFund(dir, fund string) ([]FileInfo, error) {
	all, err := d.FindSourceFiles(dir)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(fund))
	if needle == "" {
		return nil, fmt.Errorf("fund name is empty")
	}

	var matched []FileInfo
	for _, f := range all {
		if strings.Contains(strings.ToLower(f.Name), needle) {
			matched = append(matched, f)
		}
	}
	return matched, nil
}

func (d *Discovery) findByExtension(dir string, exts ...string) ([]FileInfo, error) {
	fullPath := dir
	if !filepath.IsAbs(dir) {
		fullPath = filepath.Join(d.basePath, dir)
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !hasAnySuffix(strings.ToLower(name), exts) {
			continue
		}
		// Excel leaves ~$ lock files next to open workbooks.
		if strings.HasPrefix(name, "~$") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

func hasAnySuffix(name string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
