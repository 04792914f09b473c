package scanner

import (
	"regexp"
	"strings"
)

// Block is one marker-delimited slice of a sheet. Start is the absolute row
// index of the first row after the marker, so log lines from downstream
// processing can point back at the source file.
type Block struct {
	Name  string
	Start int
	Rows  [][]string
}

// Splitter pre-segments a sheet on explicit marker rows ("Table 1:
// Australian Shares") before the table boundary scanner runs on each block.
// Funds without markers get a single block covering the whole sheet.
type Splitter struct {
	pattern *regexp.Regexp
}

// NewSplitter builds a splitter for the profile's marker keyword. Returns
// nil when the profile defines no marker; callers treat a nil splitter as
// pass-through.
func NewSplitter(p *Profile) *Splitter {
	if p.MarkerKeyword == "" {
		return nil
	}
	return &Splitter{pattern: markerPattern(p.MarkerKeyword)}
}

// Split segments rows at marker rows. Rows before the first marker are
// dropped, matching the source files where nothing above the first marker
// is holdings data. Each block runs to the next marker or end of input.
func (s *Splitter) Split(rows [][]string) []Block {
	if s == nil {
		return []Block{{Rows: rows}}
	}

	var blocks []Block
	var current *Block

	for idx, row := range rows {
		if name, ok := s.markerName(row); ok {
			if current != nil {
				blocks = append(blocks, *current)
			}
			current = &Block{Name: name, Start: idx + 1}
			continue
		}
		if current == nil {
			continue
		}
		current.Rows = append(current.Rows, row)
	}
	if current != nil {
		blocks = append(blocks, *current)
	}
	if len(blocks) == 0 {
		return []Block{{Rows: rows}}
	}
	return blocks
}

// markerName reports whether the row is a marker row and returns the block
// name: the text after the marker phrase's colon when present, otherwise the
// whole cell.
func (s *Splitter) markerName(row []string) (string, bool) {
	for _, cell := range row {
		trimmed := strings.TrimSpace(cell)
		if trimmed == "" || !s.pattern.MatchString(trimmed) {
			continue
		}
		if _, after, found := strings.Cut(trimmed, ":"); found {
			if name := strings.TrimSpace(after); name != "" {
				return name, true
			}
		}
		return trimmed, true
	}
	return "", false
}
