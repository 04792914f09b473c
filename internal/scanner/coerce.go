package scanner

import (
	"strconv"
	"strings"
)

// parseNumeric strips currency symbols, thousands separators and percent
// signs, then parses the remainder as a float. Returns nil when the cell is
// empty or unparseable; a bad cell never aborts its row.
func parseNumeric(value string) *float64 {
	cleaned := strings.TrimSpace(value)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, "%", "")
	if cleaned == "" {
		return nil
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &f
}

// normalizePercent rescales values reported as whole percentages. A raw
// value above 1 and at most 100 becomes a fraction; anything else passes
// through unchanged.
func normalizePercent(f *float64) *float64 {
	if f == nil {
		return nil
	}
	if *f > 1 && *f <= 100 {
		scaled := *f / 100
		return &scaled
	}
	return f
}

// parseAbbreviatedValue converts strings such as "$2m", "1.5Bn" or "500k"
// to their numeric value. Returns nil when the suffix or number is
// unrecognized.
func parseAbbreviatedValue(value string) *float64 {
	s := strings.ToLower(strings.TrimSpace(value))
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return nil
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(s, "bn"):
		multiplier = 1e9
		s = strings.TrimSuffix(s, "bn")
	case strings.HasSuffix(s, "b"):
		multiplier = 1e9
		s = strings.TrimSuffix(s, "b")
	case strings.HasSuffix(s, "m"):
		multiplier = 1e6
		s = strings.TrimSuffix(s, "m")
	case strings.HasSuffix(s, "k"):
		multiplier = 1e3
		s = strings.TrimSuffix(s, "k")
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	result := f * multiplier
	return &result
}

// parseValueRange resolves range expressions from disclosure files:
// "$2m to $10m" averages the endpoints, ">1.5Bn" takes the bound, a plain
// value parses directly.
func parseValueRange(value string) *float64 {
	s := strings.TrimSpace(value)
	if s == "" {
		return nil
	}

	lower := strings.ToLower(s)
	if idx := strings.Index(lower, " to "); idx >= 0 {
		first := parseAbbreviatedValue(s[:idx])
		second := parseAbbreviatedValue(s[idx+4:])
		if first != nil && second != nil {
			avg := (*first + *second) / 2
			return &avg
		}
		return nil
	}
	if strings.HasPrefix(s, ">") {
		return parseAbbreviatedValue(strings.TrimPrefix(s, ">"))
	}
	return parseAbbreviatedValue(s)
}
