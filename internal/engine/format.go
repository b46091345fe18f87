package engine

import (
	"math"

	"github.com/shopspring/decimal"
)

// formatMoney renders a USD amount with two decimals.
func formatMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// formatPercent renders an already-scaled percentage with a fixed number of
// decimals and a trailing percent sign.
func formatPercent(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places) + "%"
}

// formatRate renders the magnitude of a fractional rate as a one-decimal
// percentage, e.g. 0.4 -> "40.0%".
func formatRate(rate float64) string {
	return formatPercent(math.Abs(rate)*100, 1)
}

// formatPoints renders the magnitude of a conversion-rate change in
// percentage points, e.g. 0.012 -> "1.2pp".
func formatPoints(change float64) string {
	return decimal.NewFromFloat(math.Abs(change)*100).StringFixed(1) + "pp"
}

func roundTo(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// rate returns the relative change from prior to current. A missing prior
// with a positive current counts as a full (1.0) increase.
func rate(diff, prior, current float64) float64 {
	switch {
	case prior > 0:
		return diff / prior
	case current > 0:
		return 1
	default:
		return 0
	}
}

func conversionRate(conversions, clicks int64) float64 {
	if clicks == 0 {
		return 0
	}
	return float64(conversions) / float64(clicks)
}
