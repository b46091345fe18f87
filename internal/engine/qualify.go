package engine

import (
	"sort"
	"time"
)

type dayOffer struct {
	day     time.Time
	offerID int64
}

// Qualify keeps the records of offers whose revenue on at least one day
// reaches minDailyRevenue. Input order is preserved. The qualifying offer ids
// are returned sorted.
func Qualify(records []PerformanceRecord, minDailyRevenue float64) ([]PerformanceRecord, []int64) {
	daily := make(map[dayOffer]float64)
	for _, r := range records {
		daily[dayOffer{day: r.Day(), offerID: r.OfferID}] += r.Revenue
	}

	qualified := make(map[int64]bool)
	for k, rev := range daily {
		if rev >= minDailyRevenue {
			qualified[k.offerID] = true
		}
	}

	ids := make([]int64, 0, len(qualified))
	for id := range qualified {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	kept := make([]PerformanceRecord, 0, len(records))
	for _, r := range records {
		if qualified[r.OfferID] {
			kept = append(kept, r)
		}
	}
	return kept, ids
}
