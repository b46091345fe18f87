package engine

import (
	"sort"
	"strings"
	"time"
)

// ResolveDates returns the two most recent distinct calendar days. With a
// single day both results are that day.
func ResolveDates(records []PerformanceRecord) (latest, second time.Time, err error) {
	seen := make(map[time.Time]struct{})
	for _, r := range records {
		if r.Date.IsZero() {
			continue
		}
		seen[r.Day()] = struct{}{}
	}
	if len(seen) == 0 {
		return time.Time{}, time.Time{}, ErrNoValidDates
	}

	days := make([]time.Time, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	latest = days[0]
	second = latest
	if len(days) > 1 {
		second = days[1]
	}
	return latest, second, nil
}

// Summarize groups records by offer. Attributes come from the first record
// that carries a non-empty value. Summaries are sorted by offer id.
func Summarize(records []PerformanceRecord, latest, second time.Time) []OfferSummary {
	byOffer := make(map[int64]*OfferSummary)
	var order []int64

	for _, r := range records {
		s, ok := byOffer[r.OfferID]
		if !ok {
			s = &OfferSummary{OfferID: r.OfferID}
			byOffer[r.OfferID] = s
			order = append(order, r.OfferID)
		}
		fillFirst(&s.Advertiser, r.Advertiser)
		fillFirst(&s.AppID, r.AppID)
		fillFirst(&s.GEO, r.GEO)
		fillFirst(&s.Status, r.Status)
		if s.Cap == nil && r.Cap != nil {
			c := *r.Cap
			s.Cap = &c
		}

		s.Clicks += r.Clicks
		s.Conversions += r.Conversions
		s.Revenue += r.Revenue
		s.Profit += r.Profit

		day := r.Day()
		if day.Equal(latest) {
			s.Latest.add(r)
		}
		if day.Equal(second) {
			s.Second.add(r)
		}
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	out := make([]OfferSummary, 0, len(order))
	for _, id := range order {
		out = append(out, *byOffer[id])
	}
	return out
}

func fillFirst(dst *string, v string) {
	if *dst == "" {
		*dst = strings.TrimSpace(v)
	}
}

// AffiliateShares computes each affiliate's share of its offer's revenue over
// the given records. Shares within an offer are sorted by share descending,
// then affiliate name.
func AffiliateShares(records []PerformanceRecord) map[int64][]AffiliateShare {
	type key struct {
		offerID   int64
		affiliate string
	}
	revenue := make(map[key]float64)
	offerTotal := make(map[int64]float64)
	var order []key

	for _, r := range records {
		k := key{offerID: r.OfferID, affiliate: strings.TrimSpace(r.Affiliate)}
		if _, ok := revenue[k]; !ok {
			order = append(order, k)
		}
		revenue[k] += r.Revenue
		offerTotal[r.OfferID] += r.Revenue
	}

	out := make(map[int64][]AffiliateShare)
	for _, k := range order {
		rev := revenue[k]
		total := offerTotal[k.offerID]
		share := 0.0
		if total > 0 && rev > 0 {
			share = roundTo(rev/total, 4)
		}
		out[k.offerID] = append(out[k.offerID], AffiliateShare{
			OfferID:   k.offerID,
			Affiliate: k.affiliate,
			Revenue:   rev,
			Share:     share,
		})
	}

	for _, shares := range out {
		sort.SliceStable(shares, func(i, j int) bool {
			if shares[i].Share != shares[j].Share {
				return shares[i].Share > shares[j].Share
			}
			return shares[i].Affiliate < shares[j].Affiliate
		})
	}
	return out
}

// ShareNarrative joins share lines with newlines.
func ShareNarrative(shares []AffiliateShare) string {
	lines := make([]string, len(shares))
	for i, s := range shares {
		lines[i] = s.Line()
	}
	return strings.Join(lines, "\n")
}

func onDay(records []PerformanceRecord, day time.Time) []PerformanceRecord {
	var out []PerformanceRecord
	for _, r := range records {
		if r.Day().Equal(day) {
			out = append(out, r)
		}
	}
	return out
}
