package engine

import (
	"math"
	"sort"
)

// ruleInput is the read-only state shared by the rule cascade.
type ruleInput struct {
	summaries    []OfferSummary
	shares       map[int64][]AffiliateShare
	latestShares map[int64][]AffiliateShare
	diffs        affiliateDiffs
	opts         Options
}

// evaluateRules runs the six-rule cascade and returns deduplicated action
// items in emission order.
func evaluateRules(in ruleInput) []ActionItem {
	var items []ActionItem

	offerLevel, matched := offerLevelRules(in)
	items = append(items, offerLevel...)

	affiliateLevel, pushed := affiliateRules(in, matched)
	items = append(items, affiliateLevel...)

	items = append(items, untriedAffiliateRule(in, matched, pushed)...)

	return dedupe(items)
}

func newAction(s OfferSummary, rule int, affiliate string, rs RuleSet) ActionItem {
	return ActionItem{
		Rule:            rule,
		OfferID:         s.OfferID,
		Advertiser:      s.Advertiser,
		Affiliate:       affiliate,
		AppID:           s.AppID,
		GEO:             s.GEO,
		Cap:             s.Cap,
		Status:          s.Status,
		BudgetHeadroom:  s.BudgetHeadroom(),
		ActionText:      rs.Text(rule),
		LatestRevenue:   s.Latest.Revenue,
		SecondRevenue:   s.Second.Revenue,
		TrailingRevenue: s.Revenue,
	}
}

// offerLevelRules applies rules 1 to 3. An offer matches at most one of them;
// the matched offers are returned as the exclusivity set for rules 4 to 6.
func offerLevelRules(in ruleInput) ([]ActionItem, map[int64]bool) {
	th := in.opts.Thresholds
	matched := make(map[int64]bool)
	var items []ActionItem

	predicates := []struct {
		rule int
		hit  func(OfferSummary) bool
	}{
		{RuleBudgetStopped, func(s OfferSummary) bool {
			return s.Latest.Revenue == 0 && s.Second.Revenue > th.Rule1MinPriorRevenue
		}},
		{RulePausedWithRevenue, func(s OfferSummary) bool {
			return IsPaused(s.Status) &&
				s.Latest.Revenue >= th.Rule2MinLatestRevenue &&
				math.Abs(s.Latest.Revenue-s.Second.Revenue) >= th.Rule2MinSwing
		}},
		{RuleBudgetExhausted, func(s OfferSummary) bool {
			return IsActive(s.Status) && s.BudgetHeadroom() < 0
		}},
	}

	for _, p := range predicates {
		for _, s := range in.summaries {
			if matched[s.OfferID] || in.opts.blacklisted(s.Advertiser, "") {
				continue
			}
			if p.hit(s) {
				matched[s.OfferID] = true
				items = append(items, newAction(s, p.rule, "", in.opts.RuleSet))
			}
		}
	}
	return items, matched
}

// eligibleForPush reports whether an offer can receive affiliate-level
// actions.
func (in ruleInput) eligibleForPush(s OfferSummary, matched map[int64]bool) bool {
	return IsActive(s.Status) &&
		s.BudgetHeadroom() > 0 &&
		!matched[s.OfferID] &&
		!in.opts.blacklisted(s.Advertiser, "")
}

type offerAffiliate struct {
	offerID   int64
	affiliate string
}

type placement struct {
	geo       string
	appID     string
	affiliate string
}

// pushedSet records the pairs and placements already covered by rules 4
// and 5.
type pushedSet struct {
	pairs      map[offerAffiliate]bool
	placements map[placement]bool
}

func (p pushedSet) covers(s OfferSummary, affiliate string) bool {
	key := foldName(affiliate)
	return p.pairs[offerAffiliate{s.OfferID, key}] ||
		p.placements[placement{s.GEO, s.AppID, key}]
}

// affiliatesOf lists the affiliates seen on an offer over the whole window,
// followed by those seen only on the latest day.
func (in ruleInput) affiliatesOf(offerID int64) []string {
	seen := make(map[string]bool)
	var out []string
	for _, group := range [][]AffiliateShare{in.shares[offerID], in.latestShares[offerID]} {
		for _, sh := range group {
			if sh.Affiliate == "" || seen[sh.Affiliate] {
				continue
			}
			seen[sh.Affiliate] = true
			out = append(out, sh.Affiliate)
		}
	}
	return out
}

// affiliateRules applies rules 4 and 5 to every eligible offer's affiliates.
func affiliateRules(in ruleInput, matched map[int64]bool) ([]ActionItem, pushedSet) {
	th := in.opts.Thresholds
	pushed := pushedSet{
		pairs:      make(map[offerAffiliate]bool),
		placements: make(map[placement]bool),
	}
	var items []ActionItem

	for _, s := range in.summaries {
		if !in.eligibleForPush(s, matched) {
			continue
		}
		for _, aff := range in.affiliatesOf(s.OfferID) {
			if in.opts.blacklisted(s.Advertiser, aff) {
				continue
			}
			diff := in.diffs.diff(s.OfferID, aff)

			rule := 0
			switch {
			case math.Abs(diff) <= th.Rule4StableBand || diff >= th.Rule4GrowthMin:
				rule = RulePushAffiliate
			case diff < th.Rule5DropThreshold:
				rule = RuleRevenueDrop
			}
			if rule == 0 {
				continue
			}

			item := newAction(s, rule, aff, in.opts.RuleSet)
			item.AffiliateDiff = diff
			items = append(items, item)

			key := foldName(aff)
			pushed.pairs[offerAffiliate{s.OfferID, key}] = true
			pushed.placements[placement{s.GEO, s.AppID, key}] = true
		}
	}
	return items, pushed
}

// untriedAffiliateRule applies rule 6: suggest type-compatible directory
// affiliates that have not run the offer, keeping only the highest-revenue
// offer per (geo, app, affiliate) placement. Items are ordered by placement
// key: geo, then app, then affiliate.
func untriedAffiliateRule(in ruleInput, matched map[int64]bool, pushed pushedSet) []ActionItem {
	dir := in.opts.Directory
	if dir == nil {
		return nil
	}
	compat := in.opts.RuleSet.Compatibility

	best := make(map[placement]ActionItem)
	for _, s := range in.summaries {
		if !in.eligibleForPush(s, matched) {
			continue
		}
		advTags, ok := dir.AdvertiserTags(s.Advertiser)
		if !ok {
			continue
		}
		for _, entry := range dir.Affiliates {
			if in.opts.blacklisted(s.Advertiser, entry.Name) {
				continue
			}
			if pushed.covers(s, entry.Name) {
				continue
			}
			if !compat.Compatible(advTags, entry.Tags) {
				continue
			}
			key := placement{s.GEO, s.AppID, entry.Name}
			cur, ok := best[key]
			// summaries are ordered by offer id, so ties keep the lowest id
			if ok && s.Revenue <= cur.TrailingRevenue {
				continue
			}
			best[key] = newAction(s, RuleUntriedAffiliate, entry.Name, in.opts.RuleSet)
		}
	}

	keys := make([]placement, 0, len(best))
	for k, item := range best {
		if item.TrailingRevenue >= in.opts.Thresholds.Rule6MinRevenue {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.geo != b.geo {
			return a.geo < b.geo
		}
		if a.appID != b.appID {
			return a.appID < b.appID
		}
		return a.affiliate < b.affiliate
	})

	items := make([]ActionItem, 0, len(keys))
	for _, k := range keys {
		items = append(items, best[k])
	}
	return items
}

func dedupe(items []ActionItem) []ActionItem {
	seen := make(map[actionKey]bool, len(items))
	out := make([]ActionItem, 0, len(items))
	for _, it := range items {
		k := it.key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, it)
	}
	return out
}
