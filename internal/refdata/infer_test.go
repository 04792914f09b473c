package refdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t,
		map[string]bool{"united": true, "states": true, "of": true, "america": true},
		Tokenize("United States of America!"))
	assert.Empty(t, Tokenize("  ,;!  "))
}

func TestInfer(t *testing.T) {
	inf := NewInferrer([]string{
		"Australia",
		"United States",
		"United Kingdom of Great Britain",
		"Japan",
	})

	tests := []struct {
		name string
		text string
		want string
	}{
		{"simple match", "123 Sakura Street, Tokyo, Japan", "Japan"},
		{"multi word match", "45 Wall St, United States", "United States"},
		{"longest keyword wins", "London, United Kingdom of Great Britain", "United Kingdom of Great Britain"},
		{"state abbreviation wins", "200 George St, Sydney NSW 2000", "Australia"},
		{"state beats keyword", "Japan House, Perth WA", "Australia"},
		{"state must be whole word", "Swansea, Wales", ""},
		{"no match", "10 Downing Street", ""},
		{"empty text", "   ", ""},
		{"punctuation ignored", "Tokyo; Japan.", "Japan"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inf.Infer(tt.text))
		})
	}
}

func TestNormalizeState(t *testing.T) {
	assert.Equal(t, "Australia", NormalizeState("NSW"))
	assert.Equal(t, "Australia", NormalizeState(" vic "))
	assert.Equal(t, "Japan", NormalizeState("Japan"))
	assert.Equal(t, "", NormalizeState(""))
}
