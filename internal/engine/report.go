package engine

import (
	"fmt"
	"time"
)

// OfferRow is one line of the Offer Analysis table.
type OfferRow struct {
	OfferSummary
	ShareNarrative       string `json:"affiliate_share"`
	LatestShareNarrative string `json:"latest_affiliate_share"`
	InfluenceNarrative   string `json:"influence_affiliate"`
	Rank                 int    `json:"advertiser_rank"`
}

// ActionRow is one line of the Action Items table: the offer row joined with
// the action.
type ActionRow struct {
	OfferRow
	Rule            int     `json:"rule"`
	Affiliate       string  `json:"affiliate"`
	ActionText      string  `json:"action_text"`
	BudgetHeadroom  int64   `json:"budget_headroom"`
	TrailingRevenue float64 `json:"trailing_revenue"`
	AffiliateDiff   float64 `json:"affiliate_diff"`
}

// Report is the full result of one analysis run.
type Report struct {
	RunID      string        `json:"run_id,omitempty"`
	RuleSet    string        `json:"rule_set"`
	LatestDate time.Time     `json:"latest_date"`
	SecondDate time.Time     `json:"second_latest_date"`
	Offers     []OfferRow    `json:"offers"`
	Actions    []ActionRow   `json:"actions"`
	Rankings   []RankedOffer `json:"rankings"`
}

// LatestLabel formats the latest date for column headers.
func (r *Report) LatestLabel() string { return r.LatestDate.Format(DateLayout) }

// SecondLabel formats the second-latest date for column headers.
func (r *Report) SecondLabel() string { return r.SecondDate.Format(DateLayout) }

// MetricColumn names a per-date metric column, e.g. "2024/05/02_total_revenue".
func MetricColumn(label, metric string) string {
	return fmt.Sprintf("%s_total_%s", label, metric)
}

// FileName is the conventional workbook name for the report.
func (r *Report) FileName() string {
	return "processed_offer_" + r.LatestDate.Format("20060102") + ".xlsx"
}

// ActionsByRule counts action rows per rule number.
func (r *Report) ActionsByRule() map[int]int {
	counts := make(map[int]int)
	for _, a := range r.Actions {
		counts[a.Rule]++
	}
	return counts
}

// assembleInput gathers the derived tables joined into the report.
type assembleInput struct {
	summaries    []OfferSummary
	shares       map[int64][]AffiliateShare
	latestShares map[int64][]AffiliateShare
	narratives   map[int64]string
	rankings     []RankedOffer
	actions      []ActionItem
}

// assemble left-joins summaries with narratives and ranks, then joins every
// action with its offer row.
func assemble(in assembleInput) ([]OfferRow, []ActionRow) {
	ranks := indexRanks(in.rankings)

	rows := make([]OfferRow, 0, len(in.summaries))
	byOffer := make(map[int64]OfferRow, len(in.summaries))
	for _, s := range in.summaries {
		row := OfferRow{
			OfferSummary:         s,
			ShareNarrative:       ShareNarrative(in.shares[s.OfferID]),
			LatestShareNarrative: ShareNarrative(in.latestShares[s.OfferID]),
			InfluenceNarrative:   in.narratives[s.OfferID],
			Rank:                 ranks[rankKey{s.OfferID, s.Advertiser}],
		}
		rows = append(rows, row)
		byOffer[s.OfferID] = row
	}

	actions := make([]ActionRow, 0, len(in.actions))
	for _, a := range in.actions {
		row, ok := byOffer[a.OfferID]
		if !ok {
			row = OfferRow{OfferSummary: OfferSummary{
				OfferID:    a.OfferID,
				Advertiser: a.Advertiser,
				AppID:      a.AppID,
				GEO:        a.GEO,
				Cap:        a.Cap,
				Status:     a.Status,
			}}
		}
		actions = append(actions, ActionRow{
			OfferRow:        row,
			Rule:            a.Rule,
			Affiliate:       a.Affiliate,
			ActionText:      a.ActionText,
			BudgetHeadroom:  a.BudgetHeadroom,
			TrailingRevenue: a.TrailingRevenue,
			AffiliateDiff:   a.AffiliateDiff,
		})
	}
	return rows, actions
}
