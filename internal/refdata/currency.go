package refdata

import (
	"regexp"
	"strings"
)

// countryNameSanitizer keeps word characters, spaces, parentheses, hyphens
// and apostrophes. Everything else the source page carries (footnote daggers,
// stray punctuation) is dropped.
var countryNameSanitizer = regexp.MustCompile(`[^\p{L}\p{N}\s()'-]`)

// MergeCountryCurrency folds a country and its currency name into one label,
// dropping the country name when the currency repeats it as a whole-word
// prefix: "United States" + "United States Dollar" becomes
// "United States (Dollar)", while "France" + "Euro" becomes "France (Euro)".
func MergeCountryCurrency(country, currency string) string {
	country = strings.TrimSpace(country)
	currency = strings.TrimSpace(currency)

	if currency == "" {
		return country
	}
	if country == "" {
		return currency
	}

	prefix := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(country) + `\b`)
	if prefix.MatchString(currency) {
		remainder := strings.TrimSpace(prefix.ReplaceAllString(currency, ""))
		if remainder == "" {
			return country
		}
		return country + " (" + remainder + ")"
	}
	return country + " (" + currency + ")"
}

// SanitizeCountryName strips the special characters the reference pages
// embed in some country names.
func SanitizeCountryName(name string) string {
	return strings.TrimSpace(countryNameSanitizer.ReplaceAllString(name, ""))
}
