// Package meanreversion detects mean-reverting behavior in a single price
// series or in the spread of a cointegrated pair.
package meanreversion

import (
	"fmt"
	"math"

	"github.com/creasty/defaults"

	"quant-engine/internal/analysis/stats"
	"quant-engine/internal/models"
)

const (
	zScoreCap    = 3.0
	zScoreWeight = 0.4
	hurstWeight  = 0.6

	// Hurst exponent at which significance peaks.
	targetHurst = 0.3
	// Series length at which significance stops growing.
	fullSampleSize = 100.0
)

// Config holds the mean reversion lookback windows.
type Config struct {
	LookbackShort int `mapstructure:"lookback_short" toml:"lookback_short" default:"20" validate:"gte=2"`
	LookbackLong  int `mapstructure:"lookback_long" toml:"lookback_long" default:"60" validate:"gte=2,gtefield=LookbackShort"`
}

// DefaultConfig returns the default mean reversion configuration.
func DefaultConfig() Config {
	var cfg Config
	defaults.MustSet(&cfg)
	return cfg
}

// Analyzer computes mean reversion signals. It holds no mutable state.
type Analyzer struct {
	config Config
}

// NewAnalyzer creates a mean reversion analyzer.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{config: cfg}
}

// Analyze scores the newest price against its long-window mean.
func (a *Analyzer) Analyze(prices models.PriceSeries) models.MeanReversionResult {
	n := prices.Len()
	if n == 0 || n < a.config.LookbackLong {
		return models.MeanReversionResult{
			Hurst:            stats.DefaultHurst,
			InsufficientData: true,
			Details: []string{
				fmt.Sprintf("insufficient data: %d prices, need at least %d", n, a.config.LookbackLong),
			},
		}
	}

	current := prices.Current()
	long := prices[:a.config.LookbackLong]
	z := stats.ZScore(current, stats.Mean(long), stats.StdDev(long))

	var shortZ float64
	if a.config.LookbackShort <= n {
		short := prices[:a.config.LookbackShort]
		shortZ = stats.ZScore(current, stats.Mean(short), stats.StdDev(short))
	}

	hurst := stats.Hurst(prices)
	signal := SignalStrength(z, hurst)

	result := models.MeanReversionResult{
		SignalStrength:          signal,
		ZScore:                  z,
		Hurst:                   hurst,
		StatisticalSignificance: Significance(n, hurst),
	}
	if hl, ok := stats.HalfLife(prices); ok {
		result.HalfLife = &hl
	}

	result.Details = append(result.Details,
		fmt.Sprintf("z-score %.2f vs %d-bar mean (%d-bar: %.2f)", z, a.config.LookbackLong, a.config.LookbackShort, shortZ),
		fmt.Sprintf("hurst exponent %.3f (%s)", hurst, describeHurst(hurst)),
	)
	if result.HalfLife != nil {
		result.Details = append(result.Details, fmt.Sprintf("half-life %.1f bars", *result.HalfLife))
	} else {
		result.Details = append(result.Details, "no mean-reverting half-life detected")
	}
	return result
}

// AnalyzePairsCointegration tests whether the spread a - h*b reverts to its mean.
func (a *Analyzer) AnalyzePairsCointegration(seriesA, seriesB models.PriceSeries) models.PairsTradingResult {
	c, ok := stats.Cointegrate(seriesA, seriesB)
	if !ok {
		return models.PairsTradingResult{
			Signal:           models.PairsNeutral,
			HalfLife:         models.NoHalfLife,
			InsufficientData: true,
			Details: []string{
				fmt.Sprintf("insufficient data for cointegration: %d and %d prices", len(seriesA), len(seriesB)),
			},
		}
	}
	return PairsResult(c)
}

// PairsResult converts a cointegration fit into a neutral pairs result carrying its statistics.
func PairsResult(c stats.Cointegration) models.PairsTradingResult {
	hl := models.NoHalfLife
	if c.HasHalfLife {
		hl = models.HalfLife(c.HalfLife)
	}
	details := []string{
		fmt.Sprintf("hedge ratio %.4f over %d bars", c.HedgeRatio, c.Observations),
		fmt.Sprintf("spread hurst %.3f, cointegration score %.2f", c.Hurst, c.Score),
	}
	return models.PairsTradingResult{
		Signal:             models.PairsNeutral,
		SpreadZScore:       c.SpreadZScore,
		CointegrationScore: c.Score,
		HalfLife:           hl,
		HedgeRatio:         c.HedgeRatio,
		Details:            details,
	}
}

// ZScoreComponent is the bounded z-score contribution to the signal. Prices
// below the mean are bullish, so the sign is flipped.
func ZScoreComponent(z float64) float64 {
	return -stats.Clamp(z, -zScoreCap, zScoreCap) / zScoreCap * zScoreWeight
}

// SignalStrength combines the z-score and Hurst contributions into [-1, 1].
func SignalStrength(z, hurst float64) float64 {
	zc := ZScoreComponent(z)
	var signal float64
	if hurst < 0.5 {
		hurstComponent := hurstWeight * math.Max(0, 0.5-hurst)
		signal = zc + stats.Sign(zc)*hurstComponent
	} else {
		signal = zc * 0.5
	}
	return stats.Clamp(signal, -1, 1)
}

// Significance scales with sample size and peaks for strongly mean-reverting Hurst values.
func Significance(n int, hurst float64) float64 {
	sample := math.Min(float64(n)/fullSampleSize, 1)
	return stats.Clamp(sample*(1-math.Abs(hurst-targetHurst)), 0, 1)
}

func describeHurst(h float64) string {
	switch {
	case h < 0.45:
		return "mean-reverting"
	case h > 0.55:
		return "trending"
	default:
		return "random walk"
	}
}
