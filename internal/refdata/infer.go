package refdata

import (
	"regexp"
	"sort"
	"strings"
)

// australianStates are matched as whole words before any country keyword;
// a state abbreviation in an address is a high-confidence Australia signal.
var australianStates = []string{"NSW", "NT", "QLD", "VIC", "SA", "TAS", "WA", "ACT"}

var statePatterns = compileStatePatterns()

func compileStatePatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(australianStates))
	for _, state := range australianStates {
		patterns = append(patterns, regexp.MustCompile(`(?i)\b`+state+`\b`))
	}
	return patterns
}

var tokenSanitizer = regexp.MustCompile(`[^a-z0-9\s]`)

// Tokenize lowercases a string, strips punctuation and returns its word set.
func Tokenize(s string) map[string]bool {
	cleaned := tokenSanitizer.ReplaceAllString(strings.ToLower(s), "")
	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(cleaned) {
		tokens[tok] = true
	}
	return tokens
}

// Inferrer guesses a holding's country from free text (address plus
// investment name) using a known-country keyword list. Keywords usually come
// from the countries already present in the data being enriched.
type Inferrer struct {
	// keyword token sets, keyed by the proper-cased country name. names
	// keeps a sorted iteration order so ties resolve deterministically.
	keywords map[string]map[string]bool
	names    []string
}

// NewInferrer builds an inferrer over the given country names.
func NewInferrer(countries []string) *Inferrer {
	inf := &Inferrer{keywords: make(map[string]map[string]bool, len(countries))}
	for _, name := range countries {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tokens := Tokenize(name)
		if len(tokens) == 0 {
			continue
		}
		if _, seen := inf.keywords[name]; !seen {
			inf.names = append(inf.names, name)
		}
		inf.keywords[name] = tokens
	}
	sort.Strings(inf.names)
	return inf
}

// Infer returns the best country match for the text, or "" when nothing
// matches. An Australian state abbreviation wins outright; otherwise every
// keyword whose tokens are all present in the text is a candidate and the
// one with the most tokens wins.
func (inf *Inferrer) Infer(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	for _, pattern := range statePatterns {
		if pattern.MatchString(text) {
			return "Australia"
		}
	}

	textTokens := Tokenize(text)
	if len(textTokens) == 0 {
		return ""
	}

	var best string
	bestCount := 0
	for _, name := range inf.names {
		tokens := inf.keywords[name]
		if len(tokens) <= bestCount {
			continue
		}
		if subset(tokens, textTokens) {
			best = name
			bestCount = len(tokens)
		}
	}
	return best
}

func subset(needles, haystack map[string]bool) bool {
	for tok := range needles {
		if !haystack[tok] {
			return false
		}
	}
	return true
}

// NormalizeState rewrites a bare Australian state abbreviation to
// "Australia", leaving every other value untouched.
func NormalizeState(country string) string {
	trimmed := strings.TrimSpace(country)
	for _, state := range australianStates {
		if strings.EqualFold(trimmed, state) {
			return "Australia"
		}
	}
	return country
}
