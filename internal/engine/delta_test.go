package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRate(t *testing.T) {
	tests := []struct {
		name                 string
		diff, prior, current float64
		want                 float64
	}{
		{"new revenue is a full increase", 50, 0, 50, 1},
		{"both zero", 0, 0, 0, 0},
		{"relative change", -5, 10, 5, -0.5},
		{"growth", 30, 10, 40, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, rate(tt.diff, tt.prior, tt.current), 1e-12)
		})
	}
}

func TestComputeDeltas_OuterJoin(t *testing.T) {
	latest, second := day("2024-01-25"), day("2024-01-24")
	old := rec("2024-01-24", 1, "[7]X", 12)
	old.Clicks = 200
	old.Conversions = 4
	fresh := rec("2024-01-25", 1, "[8]Y", 50)
	fresh.Clicks = 0
	fresh.Conversions = 0

	deltas := ComputeDeltas([]PerformanceRecord{old, fresh, rec("2024-01-20", 1, "[9]Z", 99)}, latest, second)
	require.Len(t, deltas, 2)

	x := deltas[0]
	assert.Equal(t, "[7]X", x.Affiliate)
	assert.Equal(t, -12.0, x.RevenueDiff)
	assert.Equal(t, -1.0, x.RevenueRate)
	assert.Equal(t, -1.0, x.ClicksRate)
	assert.Equal(t, 0.0, x.CRLatest)
	assert.InDelta(t, 0.02, x.CRSecond, 1e-12)

	y := deltas[1]
	assert.Equal(t, 50.0, y.RevenueDiff)
	assert.Equal(t, 1.0, y.RevenueRate)
	assert.Equal(t, 0.0, y.ClicksRate)
	assert.Equal(t, 0.0, y.CRChange)
}

func TestNarrate(t *testing.T) {
	tests := []struct {
		name string
		d    DeltaRecord
		kind NarrativeKind
		want string
	}{
		{
			name: "new revenue",
			d:    newDelta(1, "[8]Y", DayMetrics{Revenue: 50}, DayMetrics{}),
			kind: NarrativeNewRevenue,
			want: "[8]Y new revenue 50.00.",
		},
		{
			name: "lost revenue",
			d:    newDelta(1, "[7]X", DayMetrics{}, DayMetrics{Revenue: 12.5}),
			kind: NarrativeLostRevenue,
			want: "[7]X stopped producing revenue, lost 12.50.",
		},
		{
			name: "increase with more clicks and lower cr",
			d: newDelta(1, "[7]X",
				DayMetrics{Revenue: 30, Clicks: 150, Conversions: 3},
				DayMetrics{Revenue: 20, Clicks: 100, Conversions: 3}),
			kind: NarrativeChangedRevenue,
			want: "[7]X increased revenue by 10.00 (50.0%), with clicks increased 50.0%, CR decreased 1.0pp.",
		},
		{
			name: "decrease with fewer clicks and higher cr",
			d: newDelta(1, "[7]X",
				DayMetrics{Revenue: 15, Clicks: 50, Conversions: 2},
				DayMetrics{Revenue: 20, Clicks: 100, Conversions: 2}),
			kind: NarrativeChangedRevenue,
			want: "[7]X decreased revenue by 5.00 (25.0%), with clicks decreased 50.0%, CR increased 2.0pp.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, ClassifyDelta(tt.d))
			assert.Equal(t, tt.want, Narrate(tt.d))
		})
	}
}

func TestInfluenceNarratives(t *testing.T) {
	th := DefaultThresholds()
	deltas := []DeltaRecord{
		newDelta(1, "[7]X", DayMetrics{Revenue: 30}, DayMetrics{Revenue: 20}),
		newDelta(1, "[8]Y", DayMetrics{}, DayMetrics{Revenue: 6}),
		newDelta(1, "[9]Z", DayMetrics{Revenue: 4}, DayMetrics{Revenue: 2}),
		// offer 2 moves by 12 in total, spread across affiliates
		newDelta(2, "[7]X", DayMetrics{Revenue: 24}, DayMetrics{Revenue: 20}),
		newDelta(2, "[8]Y", DayMetrics{Revenue: 14}, DayMetrics{Revenue: 10}),
		newDelta(2, "[9]Z", DayMetrics{Revenue: 14}, DayMetrics{Revenue: 10}),
		// offer 3 barely moves
		newDelta(3, "[7]X", DayMetrics{Revenue: 21}, DayMetrics{Revenue: 20}),
	}
	summaries := []OfferSummary{
		{OfferID: 1, Latest: DayMetrics{Revenue: 34}, Second: DayMetrics{Revenue: 28}},
		{OfferID: 2, Latest: DayMetrics{Revenue: 52}, Second: DayMetrics{Revenue: 40}},
		{OfferID: 3, Latest: DayMetrics{Revenue: 21}, Second: DayMetrics{Revenue: 20}},
	}

	got := InfluenceNarratives(deltas, summaries, th)
	assert.Equal(t,
		"[8]Y stopped producing revenue, lost 6.00.\n"+
			"[7]X increased revenue by 10.00 (50.0%), with clicks unchanged, CR unchanged.",
		got[1])
	assert.Equal(t, NoDriverNarrative, got[2])
	_, ok := got[3]
	assert.False(t, ok)
}

func TestAffiliateDiffs_CaseInsensitive(t *testing.T) {
	idx := indexDiffs([]DeltaRecord{
		newDelta(1, "[7]Xyz", DayMetrics{Revenue: 9}, DayMetrics{Revenue: 2}),
	})
	assert.Equal(t, 7.0, idx.diff(1, " [7]XYZ "))
	assert.Zero(t, idx.diff(1, "[8]Other"))
	assert.Zero(t, idx.diff(2, "[7]Xyz"))
}
