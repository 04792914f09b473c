package domain

import (
	"strconv"
	"time"
)

// HoldingColumns is the canonical column order of the cleaned holdings table.
// Every exported CSV carries exactly these 14 columns, header row first.
var HoldingColumns = []string{
	"Effective Date",
	"Fund Name",
	"Option Name",
	"Asset Class Name",
	"Int/Ext",
	"Name/Kind of Investment Item",
	"Currency",
	"Stock Id",
	"Listed Country",
	"Units Held",
	"% Ownership",
	"Address",
	"Value (AUD)",
	"Weighting",
}

// ManagementFlag indicates whether a holding is internally or externally managed.
type ManagementFlag string

const (
	ManagementInternal ManagementFlag = "Internally Managed"
	ManagementExternal ManagementFlag = "Externally Managed"
	ManagementUnknown  ManagementFlag = ""
)

// HoldingRecord is one row of the cleaned holdings table. Numeric fields are
// pointers so that unparseable source cells stay null instead of zero.
type HoldingRecord struct {
	EffectiveDate time.Time      `json:"effective_date"`
	FundName      string         `json:"fund_name" validate:"required"`
	OptionName    string         `json:"option_name"`
	AssetClass    string         `json:"asset_class"`
	Management    ManagementFlag `json:"management"`
	IntExt        *int           `json:"int_ext,omitempty"`
	Name          string         `json:"name"`
	Currency      string         `json:"currency,omitempty"`
	StockID       string         `json:"stock_id,omitempty"`
	ListedCountry string         `json:"listed_country,omitempty"`
	UnitsHeld     *float64       `json:"units_held,omitempty"`
	Ownership     *float64       `json:"ownership,omitempty"`
	Address       string         `json:"address,omitempty"`
	ValueAUD      *float64       `json:"value_aud,omitempty"`
	Weighting     *float64       `json:"weighting,omitempty"`

	// SubTotal marks a terminator row. These are always exported so downstream
	// consumers see an explicit sub-total marker for each asset class block.
	SubTotal bool `json:"sub_total,omitempty"`
}

// CSVRow encodes the record in the canonical 14-column order. Null numerics
// and unknown flags become empty cells.
func (h *HoldingRecord) CSVRow() []string {
	return []string{
		formatDate(h.EffectiveDate),
		h.FundName,
		h.OptionName,
		h.AssetClass,
		formatIntPtr(h.IntExt),
		h.Name,
		h.Currency,
		h.StockID,
		h.ListedCountry,
		formatFloatPtr(h.UnitsHeld),
		formatFloatPtr(h.Ownership),
		h.Address,
		formatFloatPtr(h.ValueAUD),
		formatFloatPtr(h.Weighting),
	}
}

// HasData reports whether the record carries any value beyond the
// context-derived columns (date, fund, option, asset class, management).
func (h *HoldingRecord) HasData() bool {
	return h.Name != "" || h.Currency != "" || h.StockID != "" ||
		h.ListedCountry != "" || h.Address != "" ||
		h.UnitsHeld != nil || h.Ownership != nil ||
		h.ValueAUD != nil || h.Weighting != nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatFloatPtr(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func formatIntPtr(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}
