package scanner

import (
	"regexp"
	"strings"
)

// RowKind is the classification of one source row.
type RowKind int

const (
	RowBlank RowKind = iota
	RowMarker
	RowHeader
	RowTerminator
	RowData
)

func (k RowKind) String() string {
	switch k {
	case RowBlank:
		return "blank"
	case RowMarker:
		return "marker"
	case RowHeader:
		return "header"
	case RowTerminator:
		return "terminator"
	case RowData:
		return "data"
	default:
		return "unknown"
	}
}

// Classifier decides what role a row plays. Classification is
// state-dependent: terminator detection applies only while a table is being
// collected, header and marker detection only while searching for one. A row
// matching both "Total" and the header keywords is therefore unambiguous.
type Classifier struct {
	headerKeywords []string
	terminator     string
	markerPattern  *regexp.Regexp
}

// NewClassifier builds a classifier from a fund profile.
func NewClassifier(p *Profile) *Classifier {
	c := &Classifier{
		terminator: strings.ToLower(strings.TrimSpace(p.TerminatorKeyword)),
	}
	for _, kw := range p.HeaderKeywords {
		c.headerKeywords = append(c.headerKeywords, strings.ToLower(kw))
	}
	if p.MarkerKeyword != "" {
		c.markerPattern = markerPattern(p.MarkerKeyword)
	}
	return c
}

// markerPattern compiles a case-insensitive whole-word match for the marker
// keyword.
func markerPattern(keyword string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`)
}

// Classify returns the kind of row. collecting reports whether the caller is
// currently inside a table.
func (c *Classifier) Classify(row []string, collecting bool) RowKind {
	normalized := normalizeRow(row)

	if rowIsBlank(normalized) {
		return RowBlank
	}

	if collecting {
		if c.isTerminator(normalized) {
			return RowTerminator
		}
		return RowData
	}

	if c.markerPattern != nil && c.isMarker(row) {
		return RowMarker
	}
	if c.isHeader(normalized) {
		return RowHeader
	}
	return RowData
}

// isTerminator reports whether any cell is exactly the terminator keyword.
func (c *Classifier) isTerminator(normalized []string) bool {
	for _, cell := range normalized {
		if cell == c.terminator {
			return true
		}
	}
	return false
}

// isHeader reports whether all header keywords appear as substrings
// somewhere across the row's cells, order-independent.
func (c *Classifier) isHeader(normalized []string) bool {
	if len(c.headerKeywords) == 0 {
		return false
	}
	for _, kw := range c.headerKeywords {
		found := false
		for _, cell := range normalized {
			if strings.Contains(cell, kw) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (c *Classifier) isMarker(row []string) bool {
	for _, cell := range row {
		if c.markerPattern.MatchString(cell) {
			return true
		}
	}
	return false
}

// normalizeRow lowercases and trims every cell.
func normalizeRow(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = strings.ToLower(strings.TrimSpace(cell))
	}
	return out
}

func rowIsBlank(normalized []string) bool {
	for _, cell := range normalized {
		if cell != "" {
			return false
		}
	}
	return true
}
