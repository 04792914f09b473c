package refdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeCountryCurrency(t *testing.T) {
	tests := []struct {
		name     string
		country  string
		currency string
		want     string
	}{
		{"redundant prefix dropped", "United States", "United States Dollar", "United States (Dollar)"},
		{"no redundancy", "France", "Euro", "France (Euro)"},
		{"identical strings", "France", "France", "France"},
		{"prefix is not whole word", "Land", "Landmark Dollar", "Land (Landmark Dollar)"},
		{"case insensitive prefix", "AUSTRALIA", "Australia Dollar", "AUSTRALIA (Dollar)"},
		{"empty currency", "Japan", "", "Japan"},
		{"empty country", "", "Yen", "Yen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeCountryCurrency(tt.country, tt.currency))
		})
	}
}

func TestSanitizeCountryName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Australia", "Australia"},
		{"keeps parentheses", "United States (Dollar)", "United States (Dollar)"},
		{"keeps apostrophe and accents", "Côte d'Ivoire", "Côte d'Ivoire"},
		{"keeps hyphen", "Guinea-Bissau", "Guinea-Bissau"},
		{"drops footnote markers", "Turkey*†", "Turkey"},
		{"drops brackets", "Bolivia [Plurinational State of]", "Bolivia Plurinational State of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeCountryName(tt.input))
		})
	}
}
