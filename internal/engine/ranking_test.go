package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankOffers_MinTieBreak(t *testing.T) {
	mk := func(offerID int64, adv string, revenue float64) PerformanceRecord {
		r := rec("2024-01-25", offerID, "[7]X", revenue)
		r.Advertiser = adv
		return r
	}
	ranked := RankOffers([]PerformanceRecord{
		mk(1, "[1]A", 50),
		mk(2, "[1]A", 80),
		mk(3, "[1]A", 50),
		mk(4, "[1]A", 10),
		mk(5, "[2]B", 5),
	})
	require.Len(t, ranked, 5)

	ranks := map[int64]int{}
	for _, r := range ranked {
		ranks[r.OfferID] = r.Rank
	}
	assert.Equal(t, 1, ranks[2])
	assert.Equal(t, 2, ranks[1])
	assert.Equal(t, 2, ranks[3])
	assert.Equal(t, 4, ranks[4])
	assert.Equal(t, 1, ranks[5])
}

func TestRankingWindow(t *testing.T) {
	records := []PerformanceRecord{
		rec("2024-01-30", 1, "a", 100),
		rec("2024-02-01", 1, "a", 1),
		rec("2024-02-03", 2, "a", 20),
	}

	t.Run("mid month counts only the current month", func(t *testing.T) {
		got := RankingWindow(records, day("2024-02-03"))
		assert.Len(t, got, 2)
	})

	t.Run("first of month counts the whole window", func(t *testing.T) {
		got := RankingWindow(records[:2], day("2024-02-01"))
		assert.Len(t, got, 2)
	})

	t.Run("ranking follows the window", func(t *testing.T) {
		ranked := RankOffers(records)
		ranks := map[int64]int{}
		for _, r := range ranked {
			ranks[r.OfferID] = r.Rank
		}
		// offer 1's January revenue falls outside February
		assert.Equal(t, 1, ranks[2])
		assert.Equal(t, 2, ranks[1])
	})
}

func TestRankOffers_Empty(t *testing.T) {
	assert.Nil(t, RankOffers(nil))
}
