// Package momentum measures trend persistence, acceleration and the lookback
// horizon over which a price series trends most consistently.
package momentum

import (
	"fmt"
	"math"

	"github.com/creasty/defaults"

	"quant-engine/internal/analysis/stats"
	"quant-engine/internal/models"
)

// Candidate lookback windows, in bars.
var candidateLookbacks = []int{5, 10, 20, 40, 60}

const (
	defaultLookback = 20
	shortLookback   = 5
	minFundamentals = 4
	neutralRank     = 50.0
)

// Weights holds the composite signal weights.
type Weights struct {
	Price        float64 `mapstructure:"price" toml:"price" default:"0.6" validate:"gte=0,lte=1"`
	Trend        float64 `mapstructure:"trend" toml:"trend" default:"0.2" validate:"gte=0,lte=1"`
	Acceleration float64 `mapstructure:"acceleration" toml:"acceleration" default:"0.1" validate:"gte=0,lte=1"`
	Fundamental  float64 `mapstructure:"fundamental" toml:"fundamental" default:"0.1" validate:"gte=0,lte=1"`
}

// Config holds momentum analyzer settings.
type Config struct {
	MinDataPoints int     `mapstructure:"min_data_points" toml:"min_data_points" default:"21" validate:"gte=21"`
	Weights       Weights `mapstructure:"weights" toml:"weights"`
}

// DefaultConfig returns the default momentum configuration.
func DefaultConfig() Config {
	var cfg Config
	defaults.MustSet(&cfg)
	return cfg
}

// Input bundles the series a momentum analysis can use. Only Prices is required.
type Input struct {
	Prices       models.PriceSeries
	Revenue      []float64 // newest first
	Earnings     []float64 // newest first
	Benchmark    models.PriceSeries
	PeerMomentum []float64
}

// Analyzer computes momentum signals. It holds no mutable state.
type Analyzer struct {
	config Config
}

// NewAnalyzer creates a momentum analyzer.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{config: cfg}
}

// Analyze computes the composite momentum signal for a price series.
func (a *Analyzer) Analyze(in Input) models.MomentumResult {
	prices := in.Prices
	n := prices.Len()
	if n < a.config.MinDataPoints {
		return models.MomentumResult{
			OptimalLookback:  defaultLookback,
			InsufficientData: true,
			Details: []string{
				fmt.Sprintf("insufficient data: %d prices, need at least %d", n, a.config.MinDataPoints),
			},
		}
	}

	lookback := OptimalLookback(prices)
	priceMomentum := MomentumScore(prices, lookback)
	trend := TrendStrength(prices, lookback)
	accel := Acceleration(prices)
	fundamental := FundamentalMomentum(in.Revenue, in.Earnings)

	w := a.config.Weights
	signal := w.Price*stats.Clamp(priceMomentum*5, -1, 1) +
		w.Trend*trend*stats.Sign(priceMomentum) +
		w.Acceleration*stats.Clamp(accel*10, -1, 1) +
		w.Fundamental*stats.Clamp(fundamental*5, -1, 1)

	result := models.MomentumResult{
		SignalStrength:      stats.Clamp(signal, -1, 1),
		TrendStrength:       trend,
		Acceleration:        accel,
		OptimalLookback:     lookback,
		PriceMomentum:       priceMomentum,
		FundamentalMomentum: fundamental,
		Details: []string{
			fmt.Sprintf("optimal lookback %d bars, annualized momentum %.2f%%", lookback, priceMomentum*100),
			fmt.Sprintf("trend R² %.3f, acceleration %.4f", trend, accel),
		},
	}

	if fundamental != 0 {
		result.Details = append(result.Details, fmt.Sprintf("fundamental momentum %.2f%% per period", fundamental*100))
	}
	if rs, ok := RelativeStrength(prices, in.Benchmark, lookback); ok {
		result.RelativeStrength = &rs
		result.Details = append(result.Details, fmt.Sprintf("relative strength vs benchmark %.2f%%", rs*100))
	}
	if len(in.PeerMomentum) > 0 {
		pct := CrossSectionalRank(priceMomentum, in.PeerMomentum)
		result.PeerPercentile = &pct
		result.Details = append(result.Details, fmt.Sprintf("peer percentile %.0f of %d", pct, len(in.PeerMomentum)))
	}
	return result
}

// MomentumScore annualizes the return over lookback bars. Invalid windows score 0.
func MomentumScore(prices models.PriceSeries, lookback int) float64 {
	if lookback <= 0 || len(prices) <= lookback || prices[lookback] == 0 {
		return 0
	}
	return (prices[0]/prices[lookback] - 1) * stats.TradingDaysPerYear / float64(lookback)
}

// OptimalLookback picks the candidate window whose sliding momentum scores have
// the largest absolute mean/stdev ratio. A window needs more than twice its
// length in data to be eligible; with none eligible the default of 20 is used.
func OptimalLookback(prices models.PriceSeries) int {
	best := defaultLookback
	bestRatio := math.Inf(-1)
	for _, lookback := range candidateLookbacks {
		if len(prices) <= 2*lookback {
			continue
		}
		scores := make([]float64, lookback)
		for k := 0; k < lookback; k++ {
			scores[k] = MomentumScore(prices[k:], lookback)
		}
		var ratio float64
		if sd := stats.StdDev(scores); sd > 0 {
			ratio = math.Abs(stats.Mean(scores) / sd)
		}
		if ratio > bestRatio {
			best, bestRatio = lookback, ratio
		}
	}
	return best
}

// TrendStrength is the R² of a linear fit of price on time over the newest
// lookback+1 prices, in chronological order.
func TrendStrength(prices models.PriceSeries, lookback int) float64 {
	window := min(lookback+1, len(prices))
	if window < 3 {
		return 0
	}
	chrono := stats.Chronological(prices[:window])
	return stats.RSquared(stats.TimeIndex(window), chrono)
}

// Acceleration is the 5-bar momentum minus the 20-bar momentum.
func Acceleration(prices models.PriceSeries) float64 {
	return MomentumScore(prices, shortLookback) - MomentumScore(prices, defaultLookback)
}

// FundamentalMomentum sums the per-period growth rates of revenue and earnings.
func FundamentalMomentum(revenue, earnings []float64) float64 {
	return growthRate(revenue) + growthRate(earnings)
}

// growthRate is the compound growth per period of a newest-first series.
// Fewer than four points or non-positive endpoints contribute nothing.
func growthRate(values []float64) float64 {
	if len(values) < minFundamentals {
		return 0
	}
	newest, oldest := values[0], values[len(values)-1]
	if newest <= 0 || oldest <= 0 {
		return 0
	}
	g := math.Pow(newest/oldest, 1/float64(len(values)-1)) - 1
	if !stats.Finite(g) {
		return 0
	}
	return g
}

// CrossSectionalRank returns the percentile [0, 100] of target within peers,
// using the 1-indexed rank of target among values not above it.
// An empty peer set ranks at 50.
func CrossSectionalRank(target float64, peers []float64) float64 {
	if len(peers) == 0 {
		return neutralRank
	}
	var rank int
	for _, p := range peers {
		if p <= target {
			rank++
		}
	}
	return float64(rank) / float64(len(peers)) * 100
}

// RelativeStrength is the asset's momentum minus the benchmark's over the same lookback.
func RelativeStrength(prices, benchmark models.PriceSeries, lookback int) (float64, bool) {
	if len(benchmark) <= lookback || len(prices) <= lookback {
		return 0, false
	}
	return MomentumScore(prices, lookback) - MomentumScore(benchmark, lookback), true
}
