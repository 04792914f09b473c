package scanner

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"supercli/pkg/contracts/domain"
)

var titleCaser = cases.Title(language.English)

// unknownAssetClass is stamped on records whose table context yielded no
// usable asset-class name.
const unknownAssetClass = "Unknown Asset Class"

// TableContext carries the values inferred once per sub-table and stamped
// onto every record emitted within it.
type TableContext struct {
	AssetClass string
	Management domain.ManagementFlag
}

// managementPattern matches "internally managed" / "externally managed" as
// whole words, any case.
var managementPattern = regexp.MustCompile(`(?i)\b(internally|externally)\s+managed\b`)

// excelEscapePattern strips the _x000d_/_x000a_ artifacts excel leaves in
// cells that contained line breaks.
var excelEscapePattern = regexp.MustCompile(`(?i)_x000d_|_x000a_`)

var punctuationPattern = regexp.MustCompile(`[:\-,.\[\]{}<>/&]+`)

var spacesPattern = regexp.MustCompile(`\s+`)

// ContextExtractor derives a TableContext from the rows immediately above a
// confirmed header row. It never fails: missing hints fall back to the
// profile's defaults.
type ContextExtractor struct {
	profile *Profile
}

// NewContextExtractor builds an extractor from a fund profile.
func NewContextExtractor(p *Profile) *ContextExtractor {
	return &ContextExtractor{profile: p}
}

// Extract scans up to ContextDepth rows above headerIdx for a management
// phrase and an asset-class name.
func (e *ContextExtractor) Extract(rows [][]string, headerIdx int) TableContext {
	ctx := TableContext{
		AssetClass: unknownAssetClass,
		Management: e.defaultManagement(),
	}

	var managementMatch string
	var contextText string

	for depth := 1; depth <= e.profile.ContextDepth; depth++ {
		idx := headerIdx - depth
		if idx < 0 {
			break
		}
		joined := strings.TrimSpace(strings.Join(rows[idx], " "))
		if joined == "" {
			continue
		}
		if managementMatch == "" {
			if m := managementPattern.FindString(joined); m != "" {
				managementMatch = m
			}
		}
		if contextText == "" {
			contextText = joined
		}
	}

	if managementMatch != "" {
		ctx.Management = normalizeManagement(managementMatch)
	}
	if name := e.deriveAssetClass(contextText, managementMatch); name != "" {
		ctx.AssetClass = name
	}
	return ctx
}

func (e *ContextExtractor) defaultManagement() domain.ManagementFlag {
	return normalizeManagement(e.profile.DefaultManagement)
}

// normalizeManagement canonicalizes any spelling of the management phrase.
func normalizeManagement(text string) domain.ManagementFlag {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "internal"):
		return domain.ManagementInternal
	case strings.Contains(lower, "external"):
		return domain.ManagementExternal
	default:
		return domain.ManagementUnknown
	}
}

// deriveAssetClass resolves the asset-class phrase from free text above the
// header. The profile vocabulary is tried first, longest phrase wins; the
// free-text fallback strips boilerplate and keeps the first two remaining
// tokens, title-cased.
func (e *ContextExtractor) deriveAssetClass(text, managementMatch string) string {
	if text == "" {
		return ""
	}
	lower := strings.ToLower(text)

	var best string
	for _, phrase := range e.profile.AssetClassVocabulary {
		p := strings.ToLower(phrase)
		if strings.Contains(lower, p) && len(p) > len(best) {
			best = p
		}
	}
	if best != "" {
		return titleCaser.String(best)
	}

	return e.freeTextAssetClass(text, managementMatch)
}

// freeTextAssetClass is the fallback derivation used when no vocabulary
// phrase matches.
func (e *ContextExtractor) freeTextAssetClass(text, managementMatch string) string {
	cleaned := excelEscapePattern.ReplaceAllString(text, "")

	for _, word := range e.profile.StripWords {
		pattern := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
		cleaned = pattern.ReplaceAllString(cleaned, "")
	}
	if managementMatch != "" {
		pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(managementMatch))
		cleaned = pattern.ReplaceAllString(cleaned, "")
	}

	cleaned = punctuationPattern.ReplaceAllString(cleaned, " ")
	cleaned = spacesPattern.ReplaceAllString(cleaned, " ")

	var words []string
	for _, w := range strings.Fields(cleaned) {
		if len(w) > 1 && !isDigits(w) {
			words = append(words, w)
		}
		if len(words) == 2 {
			break
		}
	}
	if len(words) == 0 {
		return ""
	}
	return titleCaser.String(strings.ToLower(strings.Join(words, " ")))
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
