package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/offer-monitor/internal/blacklist"
	"github.com/ignite/offer-monitor/internal/directory"
)

func TestDedupe_FirstOccurrenceWins(t *testing.T) {
	items := []ActionItem{
		{Rule: RulePushAffiliate, OfferID: 1, Affiliate: "[7]X", ActionText: "push"},
		{Rule: RuleUntriedAffiliate, OfferID: 1, Affiliate: "[7]X", ActionText: "push"},
		{Rule: RuleRevenueDrop, OfferID: 1, Affiliate: "[7]X", ActionText: "ask"},
		{Rule: RulePushAffiliate, OfferID: 2, Affiliate: "[7]X", ActionText: "push"},
	}
	got := dedupe(items)
	require.Len(t, got, 3)
	assert.Equal(t, RulePushAffiliate, got[0].Rule)
	assert.Equal(t, RuleRevenueDrop, got[1].Rule)
	assert.Equal(t, int64(2), got[2].OfferID)
}

// untriedFixture is an advertiser typed xdj/inapp with two offers on the same
// placement and a directory of one affiliate per traffic type.
func untriedFixture() ([]PerformanceRecord, Options) {
	mk := func(date string, offerID int64, aff string, revenue float64) PerformanceRecord {
		r := rec(date, offerID, aff, revenue)
		r.Advertiser = "[110001]APPNEXT"
		return r
	}
	records := []PerformanceRecord{
		mk("2024-01-24", 10, "[7]Running", 30),
		mk("2024-01-25", 10, "[7]Running", 30),
		mk("2024-01-24", 11, "[7]Running", 50),
		mk("2024-01-25", 11, "[7]Running", 50),
	}

	opts := testOptions()
	opts.Directory = directory.New(
		[]directory.Entry{directory.NewEntry("[110001]APPNEXT", "xdj/inapp")},
		[]directory.Entry{
			directory.NewEntry("[124]wldon_xdj", "xdj"),
			directory.NewEntry("[106]wldon", "inapp"),
			directory.NewEntry("[7]Running", "inapp"),
		},
	)
	return records, opts
}

func untried(r *Report) []ActionRow {
	var out []ActionRow
	for _, a := range r.Actions {
		if a.Rule == RuleUntriedAffiliate {
			out = append(out, a)
		}
	}
	return out
}

func TestUntriedAffiliate_BestOfferPerPlacement(t *testing.T) {
	records, opts := untriedFixture()

	r, err := Run(records, opts)
	require.NoError(t, err)

	got := untried(r)
	require.Len(t, got, 2)
	for _, a := range got {
		assert.Equal(t, int64(11), a.OfferID, "highest trailing revenue wins the placement")
		assert.InDelta(t, 100.0, a.TrailingRevenue, 1e-9)
	}
	// sorted by affiliate within the placement
	assert.Equal(t, "[106]wldon", got[0].Affiliate)
	assert.Equal(t, "[124]wldon_xdj", got[1].Affiliate)
}

func TestUntriedAffiliate_SortedByPlacement(t *testing.T) {
	records, opts := untriedFixture()
	// offer 11 moves to BR: each offer now owns its own placements
	records[2].GEO, records[3].GEO = "BR", "BR"

	r, err := Run(records, opts)
	require.NoError(t, err)

	type row struct {
		geo       string
		affiliate string
		offerID   int64
	}
	var got []row
	for _, a := range untried(r) {
		got = append(got, row{a.GEO, a.Affiliate, a.OfferID})
	}
	assert.Equal(t, []row{
		{"BR", "[106]wldon", 11},
		{"BR", "[124]wldon_xdj", 11},
		{"US", "[106]wldon", 10},
		{"US", "[124]wldon_xdj", 10},
	}, got)
}

func TestUntriedAffiliate_TieKeepsLowestOffer(t *testing.T) {
	records, opts := untriedFixture()
	records[2].Revenue, records[3].Revenue = 30, 30

	r, err := Run(records, opts)
	require.NoError(t, err)
	for _, a := range untried(r) {
		assert.Equal(t, int64(10), a.OfferID)
	}
}

func TestUntriedAffiliate_StrictMatrix(t *testing.T) {
	records, opts := untriedFixture()
	rs, err := RuleSetByVersion(RuleSetLegacy)
	require.NoError(t, err)
	opts.RuleSet = rs

	r, err := Run(records, opts)
	require.NoError(t, err)

	got := untried(r)
	require.Len(t, got, 1)
	assert.Equal(t, "[106]wldon", got[0].Affiliate)
	assert.Equal(t, RuleSetLegacy, r.RuleSet)
}

func TestUntriedAffiliate_SkipsPushedPlacements(t *testing.T) {
	records, opts := untriedFixture()
	// offer 12 on a different placement already pushes [124]wldon_xdj
	extra := rec("2024-01-25", 12, "[124]wldon_xdj", 40)
	extra.Advertiser = "[110001]APPNEXT"
	extra.GEO = "BR"
	extra2 := extra
	extra2.OfferID = 13

	r, err := Run(append(records, extra, extra2), opts)
	require.NoError(t, err)

	for _, a := range untried(r) {
		if a.GEO == "BR" {
			assert.NotEqual(t, "[124]wldon_xdj", a.Affiliate)
		}
	}
	var pushedOn13 bool
	for _, a := range actionsFor(r, 13) {
		if a.Rule == RulePushAffiliate && a.Affiliate == "[124]wldon_xdj" {
			pushedOn13 = true
		}
	}
	assert.True(t, pushedOn13)
}

func TestUntriedAffiliate_Filters(t *testing.T) {
	t.Run("blacklisted pair", func(t *testing.T) {
		records, opts := untriedFixture()
		opts.Blacklist = blacklist.New(blacklist.Rule{Advertiser: "[110001]APPNEXT", Affiliate: "[106]wldon"})
		r, err := Run(records, opts)
		require.NoError(t, err)
		got := untried(r)
		require.Len(t, got, 1)
		assert.Equal(t, "[124]wldon_xdj", got[0].Affiliate)
	})

	t.Run("minimum revenue", func(t *testing.T) {
		records, opts := untriedFixture()
		opts.Thresholds.Rule6MinRevenue = 1000
		r, err := Run(records, opts)
		require.NoError(t, err)
		assert.Empty(t, untried(r))
	})

	t.Run("unknown advertiser type", func(t *testing.T) {
		records, opts := untriedFixture()
		opts.Directory = directory.New(nil, opts.Directory.Affiliates)
		r, err := Run(records, opts)
		require.NoError(t, err)
		assert.Empty(t, untried(r))
	})

	t.Run("no headroom", func(t *testing.T) {
		records, opts := untriedFixture()
		for i := range records {
			records[i].Cap = nil
		}
		r, err := Run(records, opts)
		require.NoError(t, err)
		assert.Empty(t, r.Actions)
	})
}

func TestRuleSetByVersion(t *testing.T) {
	rs, err := RuleSetByVersion("")
	require.NoError(t, err)
	assert.Equal(t, RuleSetV1, rs.Version)
	assert.Equal(t, directory.CompatIntersect, rs.Compatibility)
	assert.Len(t, rs.Texts, 6)

	// each call returns independent texts
	rs.Texts[RuleBudgetStopped] = "changed"
	again, _ := RuleSetByVersion(RuleSetV1)
	assert.NotEqual(t, "changed", again.Text(RuleBudgetStopped))

	_, err = RuleSetByVersion("nope")
	assert.ErrorIs(t, err, ErrUnknownRuleSet)

	assert.Equal(t, []string{RuleSetLegacy, RuleSetV1}, RuleSetVersions())
}
