package datanorm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingColumns is returned when a required performance column is absent.
var ErrMissingColumns = errors.New("performance data is missing required columns")

// CanonicalField is a normalized field name shared by every input source.
type CanonicalField string

const (
	FieldTime        CanonicalField = "time"
	FieldOfferID     CanonicalField = "offer_id"
	FieldAdvertiser  CanonicalField = "advertiser"
	FieldAffiliate   CanonicalField = "affiliate"
	FieldAppID       CanonicalField = "app_id"
	FieldGEO         CanonicalField = "geo"
	FieldClicks      CanonicalField = "clicks"
	FieldConversions CanonicalField = "conversions"
	FieldRevenue     CanonicalField = "revenue"
	FieldProfit      CanonicalField = "profit"
	FieldCap         CanonicalField = "cap"
	FieldStatus      CanonicalField = "status"
)

// requiredFields must be present in every header.
var requiredFields = []CanonicalField{FieldTime, FieldOfferID}

// columnAliases maps lowercase header names to canonical fields.
var columnAliases = map[string]CanonicalField{
	// Date
	"time": FieldTime,
	"date": FieldTime,
	"day":  FieldTime,

	"stat_date":   FieldTime,
	"report_date": FieldTime,

	// Offer
	"offer id": FieldOfferID,
	"offer_id": FieldOfferID,
	"offerid":  FieldOfferID,

	// Parties
	"advertiser": FieldAdvertiser,
	"affiliate":  FieldAffiliate,
	"publisher":  FieldAffiliate,

	// Placement
	"app id":  FieldAppID,
	"app_id":  FieldAppID,
	"appid":   FieldAppID,
	"geo":     FieldGEO,
	"country": FieldGEO,

	// Metrics
	"total clicks":      FieldClicks,
	"total_clicks":      FieldClicks,
	"clicks":            FieldClicks,
	"total conversions": FieldConversions,
	"total_conversions": FieldConversions,
	"conversions":       FieldConversions,
	"total revenue":     FieldRevenue,
	"total_revenue":     FieldRevenue,
	"revenue":           FieldRevenue,
	"total profit":      FieldProfit,
	"total_profit":      FieldProfit,
	"profit":            FieldProfit,

	// Budget
	"total caps": FieldCap,
	"total_caps": FieldCap,
	"caps":       FieldCap,
	"cap":        FieldCap,

	"status": FieldStatus,
}

// ColumnMapping holds the resolved mapping from column indices to canonical
// fields.
type ColumnMapping struct {
	FieldMap map[int]CanonicalField // column index -> canonical field
	Index    map[CanonicalField]int // canonical field -> first column index
	RawNames []string
}

// MapColumns resolves a raw header row. The first column mapping to a field
// wins. Missing required fields yield ErrMissingColumns.
func MapColumns(header []string) (*ColumnMapping, error) {
	m := &ColumnMapping{
		FieldMap: make(map[int]CanonicalField, len(header)),
		Index:    make(map[CanonicalField]int, len(header)),
		RawNames: header,
	}

	for i, h := range header {
		normalized := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		normalized = strings.Trim(normalized, "\"'")
		normalized = strings.Join(strings.Fields(normalized), " ")

		field, ok := columnAliases[normalized]
		if !ok {
			continue
		}
		if _, dup := m.Index[field]; dup {
			continue
		}
		m.FieldMap[i] = field
		m.Index[field] = i
	}

	var missing []string
	for _, f := range requiredFields {
		if _, ok := m.Index[f]; !ok {
			missing = append(missing, string(f))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return m, nil
}

// Has reports whether the header carried the field.
func (m *ColumnMapping) Has(f CanonicalField) bool {
	_, ok := m.Index[f]
	return ok
}

// Value returns the trimmed cell for a field, or "" when the column is
// absent or the row is short.
func (m *ColumnMapping) Value(row []string, f CanonicalField) string {
	i, ok := m.Index[f]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
