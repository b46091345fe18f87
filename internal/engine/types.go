package engine

import (
	"strings"
	"time"
)

// Offer status values as they appear in the performance feed. Comparisons are
// case-insensitive.
const (
	StatusActive = "ACTIVE"
	StatusPause  = "PAUSE"
)

// DateLayout is the label format used for per-date report columns.
const DateLayout = "2006/01/02"

// PerformanceRecord is one row of the daily performance feed: a single
// (date, offer, affiliate) combination.
type PerformanceRecord struct {
	Date        time.Time `json:"date"`
	OfferID     int64     `json:"offer_id"`
	Advertiser  string    `json:"advertiser"`
	Affiliate   string    `json:"affiliate"`
	AppID       string    `json:"app_id"`
	GEO         string    `json:"geo"`
	Clicks      int64     `json:"clicks"`
	Conversions int64     `json:"conversions"`
	Revenue     float64   `json:"revenue"`
	Profit      float64   `json:"profit"`
	Cap         *int64    `json:"cap,omitempty"`
	Status      string    `json:"status"`
}

// Day returns the record date truncated to the calendar day.
func (r PerformanceRecord) Day() time.Time {
	return truncateDay(r.Date)
}

// IsActive reports whether the record status is ACTIVE.
func IsActive(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), StatusActive)
}

// IsPaused reports whether the record status is PAUSE.
func IsPaused(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), StatusPause)
}

// DayMetrics holds the summed metrics of one offer (or offer/affiliate pair)
// on a single date.
type DayMetrics struct {
	Clicks      int64   `json:"clicks"`
	Conversions int64   `json:"conversions"`
	Revenue     float64 `json:"revenue"`
	Profit      float64 `json:"profit"`
}

func (m *DayMetrics) add(r PerformanceRecord) {
	m.Clicks += r.Clicks
	m.Conversions += r.Conversions
	m.Revenue += r.Revenue
	m.Profit += r.Profit
}

// OfferSummary aggregates every qualifying record of one offer.
type OfferSummary struct {
	OfferID     int64   `json:"offer_id"`
	Advertiser  string  `json:"advertiser"`
	AppID       string  `json:"app_id"`
	GEO         string  `json:"geo"`
	Cap         *int64  `json:"cap,omitempty"`
	Status      string  `json:"status"`
	Clicks      int64   `json:"total_clicks"`
	Conversions int64   `json:"total_conversions"`
	Revenue     float64 `json:"total_revenue"`
	Profit      float64 `json:"total_profit"`

	Latest DayMetrics `json:"latest"`
	Second DayMetrics `json:"second"`
}

// BudgetHeadroom is the remaining cap after the latest day's conversions.
// Offers without a cap have zero headroom.
func (s OfferSummary) BudgetHeadroom() int64 {
	if s.Cap == nil {
		return 0
	}
	return *s.Cap - s.Latest.Conversions
}

// AffiliateShare is one affiliate's contribution to an offer's revenue.
type AffiliateShare struct {
	OfferID   int64   `json:"offer_id"`
	Affiliate string  `json:"affiliate"`
	Revenue   float64 `json:"revenue"`
	Share     float64 `json:"share"`
}

// Line renders the share as a single narrative line.
func (a AffiliateShare) Line() string {
	return a.Affiliate + " revenue " + formatMoney(a.Revenue) + " (" + a.Percent() + ")"
}

// Percent renders the share with two decimals. Non-positive revenue is 0.00%.
func (a AffiliateShare) Percent() string {
	if a.Revenue <= 0 {
		return "0.00%"
	}
	return formatPercent(a.Share*100, 2)
}

// DeltaRecord compares one (offer, affiliate) pair across the latest and
// second-latest dates.
type DeltaRecord struct {
	OfferID   int64  `json:"offer_id"`
	Affiliate string `json:"affiliate"`

	LatestClicks      int64   `json:"latest_clicks"`
	SecondClicks      int64   `json:"second_clicks"`
	LatestConversions int64   `json:"latest_conversions"`
	SecondConversions int64   `json:"second_conversions"`
	LatestRevenue     float64 `json:"latest_revenue"`
	SecondRevenue     float64 `json:"second_revenue"`

	RevenueDiff float64 `json:"revenue_diff"`
	RevenueRate float64 `json:"revenue_rate"`
	ClicksDiff  int64   `json:"clicks_diff"`
	ClicksRate  float64 `json:"clicks_rate"`
	CRLatest    float64 `json:"cr_latest"`
	CRSecond    float64 `json:"cr_second"`
	CRChange    float64 `json:"cr_change"`
}

// ActionItem is one to-do produced by the rule cascade.
type ActionItem struct {
	Rule           int     `json:"rule"`
	OfferID        int64   `json:"offer_id"`
	Advertiser     string  `json:"advertiser"`
	Affiliate      string  `json:"affiliate,omitempty"`
	AppID          string  `json:"app_id"`
	GEO            string  `json:"geo"`
	Cap            *int64  `json:"cap,omitempty"`
	Status         string  `json:"status"`
	BudgetHeadroom int64   `json:"budget_headroom"`
	ActionText     string  `json:"action_text"`
	LatestRevenue  float64 `json:"latest_revenue"`
	SecondRevenue  float64 `json:"second_revenue"`
	// TrailingRevenue is the offer's revenue over the whole window.
	TrailingRevenue float64 `json:"trailing_revenue"`
	AffiliateDiff   float64 `json:"affiliate_diff"`
}

func (a ActionItem) key() actionKey {
	return actionKey{offerID: a.OfferID, affiliate: a.Affiliate, text: a.ActionText}
}

type actionKey struct {
	offerID   int64
	affiliate string
	text      string
}

// RankedOffer is an offer's revenue position within its advertiser.
type RankedOffer struct {
	OfferID    int64   `json:"offer_id"`
	Advertiser string  `json:"advertiser"`
	Revenue    float64 `json:"revenue"`
	Rank       int     `json:"rank"`
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
