package scanner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supercli/internal/errors"
)

func writeProfile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const minimalProfileYAML = `fund: TestSuper
option: Balanced
effective_date: "2024-12-31"
layout: blocks
`

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()
	path := writeProfile(t, dir, "testsuper.yaml", minimalProfileYAML)

	p, err := LoadProfile(path)
	require.NoError(t, err)

	assert.Equal(t, "TestSuper", p.Fund)
	assert.Equal(t, LayoutBlocks, p.Layout)

	// Defaults fill in everything the file leaves out.
	assert.Equal(t, []string{"name", "value", "weighting"}, p.HeaderKeywords)
	assert.Equal(t, "total", p.TerminatorKeyword)
	assert.Equal(t, 2, p.ContextDepth)
	assert.Equal(t, CodeTrailing, p.CodePosition)
	assert.Equal(t, 1, p.IntExtValues["Externally Managed"])
	assert.NotEmpty(t, p.Aliases[FieldValueAUD])
}

func TestLoadProfileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeProfile(t, dir, "fund.yaml", `fund: CareSuper
effective_date: "2024-12-31"
layout: blocks
marker_keyword: Table
code_position: leading
int_ext_values:
  Internally Managed: 1
  Externally Managed: 0
percent_fields:
  - Weighting
require_name: true
empty_tokens: ["-", "n/a"]
`)

	p, err := LoadProfile(path)
	require.NoError(t, err)

	assert.Equal(t, "Table", p.MarkerKeyword)
	assert.Equal(t, CodeLeading, p.CodePosition)
	assert.Equal(t, 1, p.IntExtValues["Internally Managed"])
	assert.True(t, p.RequireName)
	assert.True(t, p.isEmptyToken(" N/A "))
	assert.False(t, p.isEmptyToken("0"))
}

func TestLoadProfileMissingFile(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMissingFile)
}

func TestProfileValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing fund", "effective_date: \"2024-12-31\"\nlayout: blocks\n"},
		{"missing date", "fund: X\nlayout: blocks\n"},
		{"bad layout", "fund: X\neffective_date: \"2024-12-31\"\nlayout: pivot\n"},
		{"bad date", "fund: X\neffective_date: someday\nlayout: blocks\n"},
		{"flat without column map", "fund: X\neffective_date: \"2024-12-31\"\nlayout: flat\n"},
		{"alias for context field", "fund: X\neffective_date: \"2024-12-31\"\nlayout: blocks\naliases:\n  Fund Name: [\"fund\"]\n"},
		{"not yaml", "{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeProfile(t, dir, "bad.yaml", tt.yaml)
			_, err := LoadProfile(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidProfile)
		})
	}
}

func TestParsedEffectiveDate(t *testing.T) {
	for _, spelling := range []string{"2024-12-31", "12/31/2024", "31 Dec 2024"} {
		p := &Profile{EffectiveDate: spelling}
		got, err := p.ParsedEffectiveDate()
		require.NoError(t, err, spelling)
		assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), got, spelling)
	}
}

func TestLoadProfiles(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "a.yaml", minimalProfileYAML)
	writeProfile(t, dir, "b.yaml", `fund: CareSuper
effective_date: "2024-06-30"
layout: blocks
`)
	writeProfile(t, dir, "notes.txt", "not a profile")

	profiles, err := LoadProfiles(dir)
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	assert.Contains(t, profiles, "testsuper")
	assert.Contains(t, profiles, "caresuper")
}

func TestProfileAllowsNameAliases(t *testing.T) {
	dir := t.TempDir()
	path := writeProfile(t, dir, "named.yaml", `fund: X
effective_date: "2024-12-31"
layout: blocks
aliases:
  Name/Kind of Investment Item:
    - name of institution
    - kind of investment item
`)
	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Len(t, p.Aliases[FieldName], 2)
}

func TestLoadShippedProfiles(t *testing.T) {
	profiles, err := LoadProfiles(filepath.Join("..", "..", "configs", "funds"))
	require.NoError(t, err)
	require.Len(t, profiles, 3)

	assert.Contains(t, profiles, "caresuper")
	assert.Contains(t, profiles, "australiansuper")
	assert.Contains(t, profiles, "rest")
	assert.Equal(t, LayoutFlat, profiles["rest"].Layout)
}

func TestLoadProfilesBadDir(t *testing.T) {
	_, err := LoadProfiles(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMissingFile)
}
