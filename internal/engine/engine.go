// Package engine turns a daily offer performance snapshot into an offer
// analysis table and a prioritized list of action items.
//
// The pipeline is pure: qualification, aggregation over the trailing window
// and the two most recent days, per-affiliate delta narratives, a six-rule
// action cascade and advertiser-scoped ranking. All reference data arrives
// through Options.
package engine

import "fmt"

// Run analyzes records and returns the assembled report. It fails only when
// no record carries a valid date. The latest and second-latest dates come
// from the qualifying records; with none qualifying, the input dates label
// the empty report.
func Run(records []PerformanceRecord, opts Options) (*Report, error) {
	latest, second, err := ResolveDates(records)
	if err != nil {
		return nil, err
	}
	if opts.RuleSet.Texts == nil {
		rs, err := RuleSetByVersion(opts.RuleSet.Version)
		if err != nil {
			return nil, fmt.Errorf("resolve rule set: %w", err)
		}
		opts.RuleSet = rs
	}

	qualified, _ := Qualify(records, opts.Thresholds.MinDailyRevenue)
	if ql, qs, err := ResolveDates(qualified); err == nil {
		latest, second = ql, qs
	}

	summaries := Summarize(qualified, latest, second)
	shares := AffiliateShares(qualified)
	latestShares := AffiliateShares(onDay(qualified, latest))

	deltas := ComputeDeltas(qualified, latest, second)
	narratives := InfluenceNarratives(deltas, summaries, opts.Thresholds)

	actions := evaluateRules(ruleInput{
		summaries:    summaries,
		shares:       shares,
		latestShares: latestShares,
		diffs:        indexDiffs(deltas),
		opts:         opts,
	})

	rankings := RankOffers(qualified)

	offers, actionRows := assemble(assembleInput{
		summaries:    summaries,
		shares:       shares,
		latestShares: latestShares,
		narratives:   narratives,
		rankings:     rankings,
		actions:      actions,
	})

	return &Report{
		RuleSet:    opts.RuleSet.Version,
		LatestDate: latest,
		SecondDate: second,
		Offers:     offers,
		Actions:    actionRows,
		Rankings:   rankings,
	}, nil
}
