package datanorm

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ignite/offer-monitor/internal/engine"
)

// DropReason explains why a row was excluded.
type DropReason string

const (
	DropInvalidDate    DropReason = "invalid_date"
	DropInvalidOfferID DropReason = "invalid_offer_id"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"01/02/2006",
	"1/2/2006",
	"2006.01.02",
	"20060102",
}

// Excel serial day numbers fall in this range for 1900-01-01 .. 9999-12-31.
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

var statusCaser = cases.Upper(language.Und)

// NormalizeRecord converts one row into a performance record. Rows with an
// unparseable date or offer id are rejected with a reason; other missing or
// malformed numeric cells become zero, and a malformed cap becomes absent.
func NormalizeRecord(row []string, m *ColumnMapping) (engine.PerformanceRecord, DropReason, bool) {
	var rec engine.PerformanceRecord

	date, ok := ParseDate(m.Value(row, FieldTime))
	if !ok {
		return rec, DropInvalidDate, false
	}
	offerID, ok := parseOfferID(m.Value(row, FieldOfferID))
	if !ok {
		return rec, DropInvalidOfferID, false
	}

	rec = engine.PerformanceRecord{
		Date:        date,
		OfferID:     offerID,
		Advertiser:  m.Value(row, FieldAdvertiser),
		Affiliate:   m.Value(row, FieldAffiliate),
		AppID:       m.Value(row, FieldAppID),
		GEO:         m.Value(row, FieldGEO),
		Clicks:      parseCount(m.Value(row, FieldClicks)),
		Conversions: parseCount(m.Value(row, FieldConversions)),
		Revenue:     parseAmount(m.Value(row, FieldRevenue)),
		Profit:      parseAmount(m.Value(row, FieldProfit)),
		Cap:         parseCap(m.Value(row, FieldCap)),
		Status:      NormalizeStatus(m.Value(row, FieldStatus)),
	}
	return rec, "", true
}

// ParseDate accepts the common export date layouts and spreadsheet serial
// day numbers, truncating to the UTC day.
func ParseDate(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return dayOf(t), true
		}
	}
	// spreadsheet cells read raw carry the serial day number
	if f, err := strconv.ParseFloat(v, 64); err == nil && f >= minExcelSerial && f <= maxExcelSerial {
		if t, err := excelize.ExcelDateToTime(f, false); err == nil {
			return dayOf(t), true
		}
	}
	return time.Time{}, false
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func cleanNumber(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "$")
	return strings.ReplaceAll(v, ",", "")
}

func parseFloat(v string) (float64, bool) {
	v = cleanNumber(v)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseOfferID(v string) (int64, bool) {
	if n, err := strconv.ParseInt(cleanNumber(v), 10, 64); err == nil {
		return n, true
	}
	f, ok := parseFloat(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

func parseCount(v string) int64 {
	f, ok := parseFloat(v)
	if !ok {
		return 0
	}
	return int64(math.Round(f))
}

func parseAmount(v string) float64 {
	f, _ := parseFloat(v)
	return f
}

func parseCap(v string) *int64 {
	f, ok := parseFloat(v)
	if !ok {
		return nil
	}
	n := int64(math.Round(f))
	return &n
}

// NormalizeStatus upper-cases a status cell.
func NormalizeStatus(v string) string {
	return statusCaser.String(strings.TrimSpace(v))
}
