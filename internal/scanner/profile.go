package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"supercli/internal/errors"
)

// Destination field names the resolver and materializer operate on. These
// match the canonical output columns in domain.HoldingColumns.
const (
	FieldEffectiveDate = "Effective Date"
	FieldFundName      = "Fund Name"
	FieldOptionName    = "Option Name"
	FieldAssetClass    = "Asset Class Name"
	FieldIntExt        = "Int/Ext"
	FieldName          = "Name/Kind of Investment Item"
	FieldCurrency      = "Currency"
	FieldStockID       = "Stock Id"
	FieldListedCountry = "Listed Country"
	FieldUnitsHeld     = "Units Held"
	FieldOwnership     = "% Ownership"
	FieldAddress       = "Address"
	FieldValueAUD      = "Value (AUD)"
	FieldWeighting     = "Weighting"
)

// contextFields are set from TableContext by the controller, never resolved
// from the header row.
var contextFields = map[string]bool{
	FieldEffectiveDate: true,
	FieldFundName:      true,
	FieldOptionName:    true,
	FieldAssetClass:    true,
	FieldIntExt:        true,
	FieldName:          true,
}

// CodePosition selects which end of the Stock ID carries the 2-letter
// country code.
type CodePosition string

const (
	CodeLeading  CodePosition = "leading"
	CodeTrailing CodePosition = "trailing"
)

// Layout selects how a fund's source file is organized.
type Layout string

const (
	// LayoutBlocks is the multi-table sheet: asset-class blocks delimited by
	// header rows and "Total" terminator rows, optionally pre-split on
	// explicit "Table" marker rows.
	LayoutBlocks Layout = "blocks"
	// LayoutFlat is the single-table sheet with one header row and an asset
	// class column carrying embedded "Sub Total" rows.
	LayoutFlat Layout = "flat"
)

// Profile is the per-fund scanner parameterization. One scanner
// implementation serves every fund; only the profile differs.
type Profile struct {
	Fund          string `yaml:"fund" validate:"required"`
	Option        string `yaml:"option"`
	EffectiveDate string `yaml:"effective_date" validate:"required"`
	Layout        Layout `yaml:"layout" validate:"required,oneof=blocks flat"`

	// Block-layout detection keywords.
	HeaderKeywords    []string `yaml:"header_keywords"`
	TerminatorKeyword string   `yaml:"terminator_keyword"`
	MarkerKeyword     string   `yaml:"marker_keyword"`
	ContextDepth      int      `yaml:"context_depth" validate:"min=0,max=5"`

	// Aliases maps each destination field to the source header spellings
	// that feed it (many-to-one).
	Aliases map[string][]string `yaml:"aliases"`

	// AssetClassVocabulary is the ordered list of known asset-class phrases,
	// most specific first. When empty, the free-text derivation applies.
	AssetClassVocabulary []string `yaml:"asset_class_vocabulary"`

	// StripWords are boilerplate tokens removed before free-text asset-class
	// derivation.
	StripWords []string `yaml:"strip_words"`

	CodePosition      CodePosition   `yaml:"code_position" validate:"omitempty,oneof=leading trailing"`
	IntExtValues      map[string]int `yaml:"int_ext_values"`
	DefaultManagement string         `yaml:"default_management"`
	PercentFields     []string       `yaml:"percent_fields"`

	// RequireName keeps rows without a name cell out of the output while a
	// table is being collected (terminator rows are still emitted).
	RequireName bool `yaml:"require_name"`

	// EmptyTokens are cell values treated as empty before any other rule.
	EmptyTokens []string `yaml:"empty_tokens"`

	// Flat-layout options.
	Flat FlatOptions `yaml:"flat"`
}

// FlatOptions configures the single-table layout.
type FlatOptions struct {
	HeaderRow int `yaml:"header_row" validate:"min=0"`
	// ColumnMap maps source header text (exact, case-insensitive) to
	// destination field name.
	ColumnMap map[string]string `yaml:"column_map"`
	// NameCandidates are the source headers probed in order for the
	// Name/Kind of Investment Item value; first non-empty wins.
	NameCandidates []string `yaml:"name_candidates"`
	// AssetClassColumn is the source header whose cell carries the asset
	// class, including embedded "Sub Total ..." rows.
	AssetClassColumn string `yaml:"asset_class_column"`
	// EndMarker stops processing one row before the cell that contains it.
	EndMarker string `yaml:"end_marker"`
}

var profileValidator = validator.New()

// dateLayouts are the accepted effective-date spellings across fund files.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"2 Jan 2006",
	"02 Jan 2006",
}

// ParsedEffectiveDate returns the profile's effective date as a time.Time.
func (p *Profile) ParsedEffectiveDate() (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, p.EffectiveDate); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized effective date %q", p.EffectiveDate)
}

// applyDefaults fills the conventional values shared by every fund.
func (p *Profile) applyDefaults() {
	if len(p.HeaderKeywords) == 0 {
		p.HeaderKeywords = []string{"name", "value", "weighting"}
	}
	if p.TerminatorKeyword == "" {
		p.TerminatorKeyword = "total"
	}
	if p.ContextDepth == 0 {
		p.ContextDepth = 2
	}
	if p.CodePosition == "" {
		p.CodePosition = CodeTrailing
	}
	if p.DefaultManagement == "" {
		p.DefaultManagement = "Externally Managed"
	}
	if len(p.IntExtValues) == 0 {
		p.IntExtValues = map[string]int{
			"Internally Managed": 0,
			"Externally Managed": 1,
		}
	}
	if len(p.StripWords) == 0 {
		p.StripWords = []string{"total", "portfolio", "investment", "class", "items", "details", "breakdown", "aud"}
	}
	if len(p.Aliases) == 0 {
		p.Aliases = defaultAliases()
	}
}

// defaultAliases is the shared many-to-one header alias table observed
// across fund disclosure formats.
func defaultAliases() map[string][]string {
	return map[string][]string{
		FieldStockID:       {"security identifier", "stock id", "id"},
		FieldUnitsHeld:     {"units held", "units"},
		FieldValueAUD:      {"value", "value (aud)", "investment value", "investment value (aud)"},
		FieldWeighting:     {"weighting", "weighting (%)", "weighting %", "weight", "proportional weight"},
		FieldCurrency:      {"currency", "currency code"},
		FieldOwnership:     {"% ownership", "% of property held"},
		FieldListedCountry: {"listed country", "country"},
		FieldAddress:       {"address", "full address details"},
	}
}

// Validate checks the profile after YAML decoding.
func (p *Profile) Validate() error {
	p.applyDefaults()

	if err := profileValidator.Struct(p); err != nil {
		return errors.InvalidProfile(p.Fund, err)
	}
	if _, err := p.ParsedEffectiveDate(); err != nil {
		return errors.InvalidProfile(p.Fund, err)
	}
	for dest := range p.Aliases {
		// The name field resolves from the header like any mapped column,
		// so its aliases are legal despite the context-field default.
		if contextFields[dest] && dest != FieldName {
			return errors.InvalidProfile(p.Fund, fmt.Errorf("alias registered for context field %q", dest))
		}
	}
	if p.Layout == LayoutFlat {
		if len(p.Flat.ColumnMap) == 0 {
			return errors.InvalidProfile(p.Fund, fmt.Errorf("flat layout requires a column map"))
		}
		if p.Flat.AssetClassColumn == "" {
			return errors.InvalidProfile(p.Fund, fmt.Errorf("flat layout requires an asset class column"))
		}
	}
	return nil
}

// isEmptyToken reports whether a trimmed cell value is one of the profile's
// placeholder tokens ("-", "n/a").
func (p *Profile) isEmptyToken(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, tok := range p.EmptyTokens {
		if v == strings.ToLower(tok) {
			return true
		}
	}
	return false
}

// LoadProfile reads and validates one fund profile from a YAML file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.MissingFile(path, err)
		}
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, errors.InvalidProfile(path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadProfiles reads every *.yaml fund profile in a directory, keyed by a
// lowercase fund name.
func LoadProfiles(dir string) (map[string]*Profile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.MissingFile(dir, err)
	}

	profiles := make(map[string]*Profile)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		p, err := LoadProfile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		profiles[strings.ToLower(p.Fund)] = p
	}
	return profiles, nil
}
