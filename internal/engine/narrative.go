package engine

import (
	"fmt"
	"math"
)

// NarrativeKind classifies an affiliate's day-over-day revenue movement.
type NarrativeKind int

const (
	NarrativeChangedRevenue NarrativeKind = iota
	NarrativeNewRevenue
	NarrativeLostRevenue
)

func (k NarrativeKind) String() string {
	switch k {
	case NarrativeNewRevenue:
		return "new_revenue"
	case NarrativeLostRevenue:
		return "lost_revenue"
	default:
		return "changed_revenue"
	}
}

// ClassifyDelta picks the narrative kind for a delta.
func ClassifyDelta(d DeltaRecord) NarrativeKind {
	switch {
	case d.SecondRevenue == 0 && d.LatestRevenue > 0:
		return NarrativeNewRevenue
	case d.LatestRevenue == 0 && d.SecondRevenue > 0:
		return NarrativeLostRevenue
	default:
		return NarrativeChangedRevenue
	}
}

// Narrate renders one affiliate line of the influence narrative.
func Narrate(d DeltaRecord) string {
	switch ClassifyDelta(d) {
	case NarrativeNewRevenue:
		return fmt.Sprintf("%s new revenue %s.", d.Affiliate, formatMoney(d.LatestRevenue))
	case NarrativeLostRevenue:
		return fmt.Sprintf("%s stopped producing revenue, lost %s.", d.Affiliate, formatMoney(d.SecondRevenue))
	}

	direction := "increased"
	if d.RevenueDiff < 0 {
		direction = "decreased"
	}
	return fmt.Sprintf("%s %s revenue by %s (%s), with clicks %s, CR %s.",
		d.Affiliate,
		direction,
		formatMoney(math.Abs(d.RevenueDiff)),
		formatRate(d.RevenueRate),
		trendClause(d.ClicksRate, formatRate),
		trendClause(d.CRChange, formatPoints),
	)
}

func trendClause(v float64, format func(float64) string) string {
	switch {
	case v > 0:
		return "increased " + format(v)
	case v < 0:
		return "decreased " + format(v)
	default:
		return "unchanged"
	}
}
