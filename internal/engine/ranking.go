package engine

import (
	"sort"
	"time"
)

// RankingWindow returns the records counted toward advertiser ranking. When
// the latest day is the first of its month the whole window counts;
// otherwise only records from the latest day's calendar month.
func RankingWindow(records []PerformanceRecord, latest time.Time) []PerformanceRecord {
	if latest.Day() == 1 {
		return records
	}
	var out []PerformanceRecord
	for _, r := range records {
		if r.Date.Year() == latest.Year() && r.Date.Month() == latest.Month() {
			out = append(out, r)
		}
	}
	return out
}

// RankOffers ranks offers by revenue within each advertiser, highest first.
// Ties share the lowest rank of the group ("min" method). Results are sorted
// by advertiser, then rank, then offer id.
func RankOffers(records []PerformanceRecord) []RankedOffer {
	if len(records) == 0 {
		return nil
	}
	latest := records[0].Day()
	for _, r := range records[1:] {
		if d := r.Day(); d.After(latest) {
			latest = d
		}
	}

	type key struct {
		offerID    int64
		advertiser string
	}
	revenue := make(map[key]float64)
	for _, r := range RankingWindow(records, latest) {
		revenue[key{r.OfferID, r.Advertiser}] += r.Revenue
	}

	byAdvertiser := make(map[string][]RankedOffer)
	for k, rev := range revenue {
		byAdvertiser[k.advertiser] = append(byAdvertiser[k.advertiser], RankedOffer{
			OfferID:    k.offerID,
			Advertiser: k.advertiser,
			Revenue:    rev,
		})
	}

	advertisers := make([]string, 0, len(byAdvertiser))
	for adv := range byAdvertiser {
		advertisers = append(advertisers, adv)
	}
	sort.Strings(advertisers)

	var out []RankedOffer
	for _, adv := range advertisers {
		group := byAdvertiser[adv]
		sort.Slice(group, func(i, j int) bool {
			ri, rj := roundTo(group[i].Revenue, 6), roundTo(group[j].Revenue, 6)
			if ri != rj {
				return ri > rj
			}
			return group[i].OfferID < group[j].OfferID
		})
		for i := range group {
			if i > 0 && roundTo(group[i].Revenue, 6) == roundTo(group[i-1].Revenue, 6) {
				group[i].Rank = group[i-1].Rank
			} else {
				group[i].Rank = i + 1
			}
		}
		out = append(out, group...)
	}
	return out
}

type rankKey struct {
	offerID    int64
	advertiser string
}

func indexRanks(ranked []RankedOffer) map[rankKey]int {
	idx := make(map[rankKey]int, len(ranked))
	for _, r := range ranked {
		idx[rankKey{r.OfferID, r.Advertiser}] = r.Rank
	}
	return idx
}
