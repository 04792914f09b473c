package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		nil_  bool
	}{
		{"plain", "100", 100, false},
		{"decimal", "0.5", 0.5, false},
		{"thousands separators", "1,234,567.89", 1234567.89, false},
		{"currency symbol", "$500", 500, false},
		{"percent sign", "12.5%", 12.5, false},
		{"negative", "-42", -42, false},
		{"whitespace", "  7  ", 7, false},
		{"empty", "", 0, true},
		{"text", "n/a", 0, true},
		{"mixed garbage", "12abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseNumeric(tt.input)
			if tt.nil_ {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, tt.want, *got, 1e-9)
		})
	}
}

func TestNormalizePercent(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name  string
		input *float64
		want  *float64
	}{
		{"whole percent rescaled", f(12.5), f(0.125)},
		{"hundred rescaled", f(100), f(1)},
		{"fraction untouched", f(0.5), f(0.5)},
		{"one untouched", f(1), f(1)},
		{"above hundred untouched", f(150), f(150)},
		{"zero untouched", f(0), f(0)},
		{"nil passes through", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizePercent(tt.input)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestParseAbbreviatedValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		nil_  bool
	}{
		{"millions", "$2m", 2e6, false},
		{"billions bn", "1.5Bn", 1.5e9, false},
		{"billions b", "2b", 2e9, false},
		{"thousands", "500k", 5e5, false},
		{"plain number", "1234", 1234, false},
		{"comma and symbol", "$1,500k", 1.5e6, false},
		{"empty", "", 0, true},
		{"words", "ten million", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseAbbreviatedValue(tt.input)
			if tt.nil_ {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, tt.want, *got, 1e-3)
		})
	}
}

func TestParseValueRange(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		nil_  bool
	}{
		{"range averages endpoints", "$2m to $10m", 6e6, false},
		{"range with mixed suffixes", "500k to $1.5m", 1e6, false},
		{"greater-than takes the bound", ">1.5Bn", 1.5e9, false},
		{"plain value", "$3m", 3e6, false},
		{"half-open range", "$2m to unknown", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseValueRange(tt.input)
			if tt.nil_ {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, tt.want, *got, 1e-3)
		})
	}
}
