package engine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ignite/offer-monitor/internal/directory"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrValidation is the root of every input validation failure.
	ErrValidation = errors.New("validation failed")

	// ErrNoValidDates is returned when no record carries a usable date.
	ErrNoValidDates = fmt.Errorf("%w: no records with a valid date", ErrValidation)

	// ErrUnknownRuleSet is returned for an unregistered rule set version.
	ErrUnknownRuleSet = errors.New("unknown rule set")
)

// =============================================================================
// THRESHOLDS
// =============================================================================

// Thresholds parameterize qualification, delta significance and the action
// rules. All revenue values are in USD.
type Thresholds struct {
	MinDailyRevenue        float64 `json:"min_daily_revenue"`
	AffiliateDiffThreshold float64 `json:"affiliate_diff_threshold"`
	OfferDiffThreshold     float64 `json:"offer_diff_threshold"`
	Rule1MinPriorRevenue   float64 `json:"rule1_min_prior_revenue"`
	Rule2MinLatestRevenue  float64 `json:"rule2_min_latest_revenue"`
	Rule2MinSwing          float64 `json:"rule2_min_swing"`
	Rule4StableBand        float64 `json:"rule4_stable_band"`
	Rule4GrowthMin         float64 `json:"rule4_growth_min"`
	Rule5DropThreshold     float64 `json:"rule5_drop_threshold"`
	Rule6MinRevenue        float64 `json:"rule6_min_revenue"`
}

// DefaultThresholds returns the production thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinDailyRevenue:        10,
		AffiliateDiffThreshold: 5,
		OfferDiffThreshold:     10,
		Rule1MinPriorRevenue:   10,
		Rule2MinLatestRevenue:  10,
		Rule2MinSwing:          10,
		Rule4StableBand:        5,
		Rule4GrowthMin:         5,
		Rule5DropThreshold:     -5,
		Rule6MinRevenue:        5,
	}
}

// =============================================================================
// RULE SETS
// =============================================================================

// Rule numbers in cascade order.
const (
	RuleBudgetStopped = iota + 1
	RulePausedWithRevenue
	RuleBudgetExhausted
	RulePushAffiliate
	RuleRevenueDrop
	RuleUntriedAffiliate
)

// RuleSet is a versioned bundle of action texts and the traffic-type
// compatibility matrix used by the untried-affiliate rule.
type RuleSet struct {
	Version       string                  `json:"version"`
	Compatibility directory.Compatibility `json:"compatibility"`
	Texts         map[int]string          `json:"texts"`
}

// Text returns the action text of a rule.
func (rs RuleSet) Text(rule int) string {
	return rs.Texts[rule]
}

func defaultTexts() map[int]string {
	return map[int]string{
		RuleBudgetStopped:     "Confirm the reason for the sudden stop (quality issue, CPA budget swing, budget moved to a new offer id).",
		RulePausedWithRevenue: "Offer is paused but still producing revenue; confirm the pause with the advertiser to guard against a mistaken pause.",
		RuleBudgetExhausted:   "Ask the advertiser whether more budget is available.",
		RulePushAffiliate:     "Push this affiliate to use the remaining budget; it has produced revenue recently and the cap still has headroom.",
		RuleRevenueDrop:       "Ask the affiliate why revenue dropped and push for recovery.",
		RuleUntriedAffiliate:  "Affiliate has not run this offer yet; try pushing it (best offer for this geo/app).",
	}
}

// Registered rule set versions.
const (
	RuleSetV1     = "v1"
	RuleSetLegacy = "legacy"
)

// RuleSetByVersion returns a fresh copy of a registered rule set. An empty
// version selects RuleSetV1.
func RuleSetByVersion(version string) (RuleSet, error) {
	switch version {
	case "", RuleSetV1:
		return RuleSet{Version: RuleSetV1, Compatibility: directory.CompatIntersect, Texts: defaultTexts()}, nil
	case RuleSetLegacy:
		return RuleSet{Version: RuleSetLegacy, Compatibility: directory.CompatStrict, Texts: defaultTexts()}, nil
	}
	return RuleSet{}, fmt.Errorf("%w: %q", ErrUnknownRuleSet, version)
}

// RuleSetVersions lists the registered versions.
func RuleSetVersions() []string {
	v := []string{RuleSetV1, RuleSetLegacy}
	sort.Strings(v)
	return v
}

// =============================================================================
// OPTIONS
// =============================================================================

// Blacklist reports whether an (advertiser, affiliate) pair is suppressed.
// An empty affiliate asks whether the advertiser is blocked outright.
type Blacklist interface {
	IsBlacklisted(advertiser, affiliate string) bool
}

// Options carries every piece of reference data a run needs. Nothing is read
// from package state.
type Options struct {
	Thresholds Thresholds
	RuleSet    RuleSet
	Blacklist  Blacklist
	Directory  *directory.Directory
}

// DefaultOptions returns production thresholds, the v1 rule set and the
// built-in directory with no blacklist.
func DefaultOptions() Options {
	rs, _ := RuleSetByVersion(RuleSetV1)
	return Options{
		Thresholds: DefaultThresholds(),
		RuleSet:    rs,
		Directory:  directory.Default(),
	}
}

func (o Options) blacklisted(advertiser, affiliate string) bool {
	if o.Blacklist == nil {
		return false
	}
	return o.Blacklist.IsBlacklisted(advertiser, affiliate)
}
