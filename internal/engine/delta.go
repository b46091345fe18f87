package engine

import (
	"math"
	"sort"
	"strings"
	"time"
)

// NoDriverNarrative marks offers whose revenue moved without any single
// affiliate crossing the significance threshold.
const NoDriverNarrative = "no significant driver identified"

// ComputeDeltas outer-joins per-affiliate metrics of the latest and
// second-latest days. Pairs missing on one side count as zero. Results are
// sorted by offer id, then affiliate.
func ComputeDeltas(records []PerformanceRecord, latest, second time.Time) []DeltaRecord {
	type key struct {
		offerID   int64
		affiliate string
	}
	cur := make(map[key]*DayMetrics)
	prev := make(map[key]*DayMetrics)
	var keys []key

	bucket := func(m map[key]*DayMetrics, k key) *DayMetrics {
		if _, ok := cur[k]; !ok {
			if _, ok := prev[k]; !ok {
				keys = append(keys, k)
			}
		}
		d, ok := m[k]
		if !ok {
			d = &DayMetrics{}
			m[k] = d
		}
		return d
	}

	for _, r := range records {
		k := key{offerID: r.OfferID, affiliate: strings.TrimSpace(r.Affiliate)}
		day := r.Day()
		if day.Equal(latest) {
			bucket(cur, k).add(r)
		}
		if day.Equal(second) {
			bucket(prev, k).add(r)
		}
	}

	out := make([]DeltaRecord, 0, len(keys))
	for _, k := range keys {
		var l, s DayMetrics
		if d := cur[k]; d != nil {
			l = *d
		}
		if d := prev[k]; d != nil {
			s = *d
		}
		out = append(out, newDelta(k.offerID, k.affiliate, l, s))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].OfferID != out[j].OfferID {
			return out[i].OfferID < out[j].OfferID
		}
		return out[i].Affiliate < out[j].Affiliate
	})
	return out
}

func newDelta(offerID int64, affiliate string, latest, second DayMetrics) DeltaRecord {
	d := DeltaRecord{
		OfferID:           offerID,
		Affiliate:         affiliate,
		LatestClicks:      latest.Clicks,
		SecondClicks:      second.Clicks,
		LatestConversions: latest.Conversions,
		SecondConversions: second.Conversions,
		LatestRevenue:     latest.Revenue,
		SecondRevenue:     second.Revenue,
	}
	d.RevenueDiff = d.LatestRevenue - d.SecondRevenue
	d.RevenueRate = rate(d.RevenueDiff, d.SecondRevenue, d.LatestRevenue)
	d.ClicksDiff = d.LatestClicks - d.SecondClicks
	d.ClicksRate = rate(float64(d.ClicksDiff), float64(d.SecondClicks), float64(d.LatestClicks))
	d.CRLatest = conversionRate(d.LatestConversions, d.LatestClicks)
	d.CRSecond = conversionRate(d.SecondConversions, d.SecondClicks)
	d.CRChange = d.CRLatest - d.CRSecond
	return d
}

// Significant reports whether the revenue change reaches the threshold.
func (d DeltaRecord) Significant(threshold float64) bool {
	return math.Abs(d.RevenueDiff) >= threshold
}

// InfluenceNarratives builds the per-offer explanation of the latest revenue
// change. Significant affiliate lines are ordered by ascending diff. Offers
// whose own change reaches offerThreshold without a significant affiliate get
// NoDriverNarrative; other offers are absent from the map.
func InfluenceNarratives(deltas []DeltaRecord, summaries []OfferSummary, th Thresholds) map[int64]string {
	significant := make(map[int64][]DeltaRecord)
	for _, d := range deltas {
		if d.Significant(th.AffiliateDiffThreshold) {
			significant[d.OfferID] = append(significant[d.OfferID], d)
		}
	}

	out := make(map[int64]string, len(significant))
	for offerID, ds := range significant {
		sort.SliceStable(ds, func(i, j int) bool {
			if ds[i].RevenueDiff != ds[j].RevenueDiff {
				return ds[i].RevenueDiff < ds[j].RevenueDiff
			}
			return ds[i].Affiliate < ds[j].Affiliate
		})
		lines := make([]string, len(ds))
		for i, d := range ds {
			lines[i] = Narrate(d)
		}
		out[offerID] = strings.Join(lines, "\n")
	}

	for _, s := range summaries {
		if _, ok := out[s.OfferID]; ok {
			continue
		}
		if math.Abs(s.Latest.Revenue-s.Second.Revenue) >= th.OfferDiffThreshold {
			out[s.OfferID] = NoDriverNarrative
		}
	}
	return out
}

// affiliateDiffs indexes revenue diffs by offer and case-folded affiliate.
type affiliateDiffs map[int64]map[string]float64

func indexDiffs(deltas []DeltaRecord) affiliateDiffs {
	idx := make(affiliateDiffs)
	for _, d := range deltas {
		m, ok := idx[d.OfferID]
		if !ok {
			m = make(map[string]float64)
			idx[d.OfferID] = m
		}
		m[foldName(d.Affiliate)] += d.RevenueDiff
	}
	return idx
}

func (a affiliateDiffs) diff(offerID int64, affiliate string) float64 {
	return a[offerID][foldName(affiliate)]
}

func foldName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
