package risk

import (
	"math"

	"quant-engine/internal/analysis/stats"
	"quant-engine/internal/models"
)

// Annualized volatility regime boundaries.
const (
	lowVolatility    = 0.12
	normalVolatility = 0.20
	highVolatility   = 0.35
)

// AnnualizedVolatility is the sample standard deviation of returns scaled by √252.
func AnnualizedVolatility(returns []float64) float64 {
	return stats.StdDev(returns) * math.Sqrt(stats.TradingDaysPerYear)
}

// ClassifyVolatility buckets an annualized volatility.
func ClassifyVolatility(vol float64) models.VolatilityRegime {
	switch {
	case vol < lowVolatility:
		return models.VolatilityLow
	case vol < normalVolatility:
		return models.VolatilityNormal
	case vol < highVolatility:
		return models.VolatilityHigh
	default:
		return models.VolatilityExtreme
	}
}

// EWMAVolatility is the annualized exponentially weighted volatility of a
// newest-first return series, seeded with the oldest squared return.
func EWMAVolatility(returns []float64, lambda float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	chrono := stats.Chronological(returns)
	variance := chrono[0] * chrono[0]
	for _, r := range chrono[1:] {
		variance = lambda*variance + (1-lambda)*r*r
	}
	return math.Sqrt(variance) * math.Sqrt(stats.TradingDaysPerYear)
}

// HistoricalVaR is the negated empirical (1-confidence) return quantile,
// annualized by √252 and floored at zero.
func HistoricalVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	q := stats.Quantile(returns, 1-confidence)
	return math.Max(0, -q) * math.Sqrt(stats.TradingDaysPerYear)
}

// Drawdowns returns the largest peak-to-trough decline of the chronological
// price path and the decline of the newest price from the highest of the
// newest window prices, both as fractions in [0, 1].
func Drawdowns(prices models.PriceSeries, window int) (maxDD, currentDD float64) {
	if len(prices) == 0 {
		return 0, 0
	}
	var peak float64
	for _, p := range stats.Chronological(prices) {
		if p > peak {
			peak = p
		}
		if peak > 0 {
			maxDD = math.Max(maxDD, (peak-p)/peak)
		}
	}

	recentPeak := stats.Max(prices[:min(window, len(prices))])
	if recentPeak > 0 {
		currentDD = (recentPeak - prices[0]) / recentPeak
	}
	return stats.Clamp(maxDD, 0, 1), stats.Clamp(currentDD, 0, 1)
}
