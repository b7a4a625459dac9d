// Package statarb classifies market regimes, detects mispricing against
// fair-value estimates and generates pairs-trading signals.
package statarb

import (
	"fmt"
	"math"

	"github.com/creasty/defaults"

	"quant-engine/internal/analysis/stats"
	"quant-engine/internal/models"
)

const (
	minRegimeData = 21

	// Annualized return beyond which a low-volatility window is bull or bear.
	regimeReturn = 0.15
	bullMaxVol   = 0.25
	bearMaxVol   = 0.35
	turbulentVol = 0.35

	minRegimeConfidence = 0.3
	maxRegimeConfidence = 0.95

	minCointegration = 0.3
	edgeScale        = 50.0
)

// Config holds statistical arbitrage thresholds.
type Config struct {
	RegimeWindow        int     `mapstructure:"regime_window" toml:"regime_window" default:"60" validate:"gte=21"`
	EntryThreshold      float64 `mapstructure:"entry_threshold" toml:"entry_threshold" default:"2.0" validate:"gt=0"`
	ExitThreshold       float64 `mapstructure:"exit_threshold" toml:"exit_threshold" default:"0.5" validate:"gte=0,ltefield=EntryThreshold"`
	MispricingThreshold float64 `mapstructure:"mispricing_threshold" toml:"mispricing_threshold" default:"1.5" validate:"gt=0"`
	TransactionCostsBps float64 `mapstructure:"transaction_costs_bps" toml:"transaction_costs_bps" default:"10" validate:"gte=0"`
}

// DefaultConfig returns the default statistical arbitrage configuration.
func DefaultConfig() Config {
	var cfg Config
	defaults.MustSet(&cfg)
	return cfg
}

// Input bundles the series a statistical arbitrage analysis can use. Only Prices is required.
type Input struct {
	Prices     models.PriceSeries
	Pair       models.PriceSeries
	FairValues []float64

	// Mean reversion outputs feeding the edge estimate.
	SignalStrength          float64
	StatisticalSignificance float64
}

// Regime is a regime classification with its confidence.
type Regime struct {
	Regime           models.MarketRegime
	Confidence       float64
	AnnualizedReturn float64
	AnnualizedVol    float64
	Observations     int
}

// Mispricing is the price position relative to a set of fair-value estimates.
type Mispricing struct {
	Detected   bool
	Pct        float64
	ZScore     float64
	Confidence float64
	Estimates  int
}

// Analyzer computes statistical arbitrage signals. It holds no mutable state.
type Analyzer struct {
	config Config
}

// NewAnalyzer creates a statistical arbitrage analyzer.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{config: cfg}
}

// Analyze combines regime, mispricing and pairs analysis into one arbitrage score.
func (a *Analyzer) Analyze(in Input) models.StatArbResult {
	regime := a.DetectRegime(in.Prices)
	result := models.StatArbResult{
		Regime:           regime.Regime,
		RegimeConfidence: regime.Confidence,
		EdgeEstimateBps:  a.EdgeEstimate(in.SignalStrength, in.StatisticalSignificance),
	}

	if regime.Observations < minRegimeData {
		result.InsufficientData = true
		result.Details = append(result.Details,
			fmt.Sprintf("insufficient data: %d prices, need at least %d", in.Prices.Len(), minRegimeData))
		return result
	}

	result.Details = append(result.Details, fmt.Sprintf("regime %s (confidence %.2f, return %.1f%%, vol %.1f%%)",
		regime.Regime, regime.Confidence, regime.AnnualizedReturn*100, regime.AnnualizedVol*100))

	scores := []float64{RegimeOpportunity(regime)}

	if len(in.FairValues) > 0 {
		m := a.DetectMispricing(in.Prices.Current(), in.FairValues)
		result.MispricingDetected = m.Detected
		result.MispricingPct = m.Pct
		if m.Estimates > 0 {
			scores = append(scores, m.Confidence*10)
			result.Details = append(result.Details, fmt.Sprintf("fair value gap %.2f%% (z %.2f, %d estimates)", m.Pct, m.ZScore, m.Estimates))
		}
	}

	if len(in.Pair) > 0 {
		pairs := a.AnalyzePairsTrading(in.Prices, in.Pair)
		result.Pairs = &pairs
		if !pairs.InsufficientData {
			scores = append(scores, pairs.CointegrationScore*10)
			result.Details = append(result.Details, fmt.Sprintf("pairs signal %s (spread z %.2f)", pairs.Signal, pairs.SpreadZScore))
		}
	}

	result.ArbitrageScore = stats.Clamp(stats.Mean(scores), 0, 10)
	result.Details = append(result.Details, fmt.Sprintf("edge estimate %.1f bps", result.EdgeEstimateBps))
	return result
}

// DetectRegime classifies the trailing window of returns.
func (a *Analyzer) DetectRegime(prices models.PriceSeries) Regime {
	window := min(prices.Len(), a.config.RegimeWindow)
	if window < minRegimeData {
		return Regime{Regime: models.RegimeSideways, Confidence: minRegimeConfidence, Observations: window}
	}

	returns := prices[:window].Returns()
	annReturn := stats.Mean(returns) * stats.TradingDaysPerYear
	annVol := stats.StdDev(returns) * math.Sqrt(stats.TradingDaysPerYear)

	r := Regime{AnnualizedReturn: annReturn, AnnualizedVol: annVol, Observations: window}
	var raw float64
	switch {
	case annReturn > regimeReturn && annVol < bullMaxVol:
		r.Regime = models.RegimeBull
		raw = 0.5 + (annReturn-regimeReturn)*2
	case annReturn < -regimeReturn && annVol < bearMaxVol:
		r.Regime = models.RegimeBear
		raw = 0.5 + (-annReturn-regimeReturn)*2
	case annVol > turbulentVol:
		r.Regime = models.RegimeTransition
		raw = 0.5 + (annVol-turbulentVol)*2
	default:
		r.Regime = models.RegimeSideways
		raw = 0.5 + (regimeReturn-math.Abs(annReturn))*2
	}
	r.Confidence = stats.Clamp(raw, minRegimeConfidence, maxRegimeConfidence)
	return r
}

// DetectMispricing compares price with the mean of the positive, finite fair-value estimates.
func (a *Analyzer) DetectMispricing(price float64, estimates []float64) Mispricing {
	valid := make([]float64, 0, len(estimates))
	for _, e := range estimates {
		if e > 0 && stats.Finite(e) {
			valid = append(valid, e)
		}
	}
	if len(valid) == 0 || price <= 0 {
		return Mispricing{}
	}

	mean := stats.Mean(valid)
	std := stats.StdDev(valid)
	z := stats.ZScore(price, mean, std)
	consistency := stats.Clamp(1-std/mean, 0, 1)

	return Mispricing{
		Detected:   math.Abs(z) > a.config.MispricingThreshold,
		Pct:        (mean - price) / price * 100,
		ZScore:     z,
		Confidence: math.Min(math.Abs(z)/3, 1) * consistency,
		Estimates:  len(valid),
	}
}

// AnalyzePairsTrading derives a spread trade from the cointegration of a and b.
func (a *Analyzer) AnalyzePairsTrading(seriesA, seriesB models.PriceSeries) models.PairsTradingResult {
	c, ok := stats.Cointegrate(seriesA, seriesB)
	if !ok {
		return models.PairsTradingResult{
			Signal:           models.PairsNeutral,
			HalfLife:         models.NoHalfLife,
			InsufficientData: true,
			Details: []string{
				fmt.Sprintf("insufficient data for pairs trading: %d and %d prices", len(seriesA), len(seriesB)),
			},
		}
	}

	hl := models.NoHalfLife
	if c.HasHalfLife {
		hl = models.HalfLife(c.HalfLife)
	}
	signal := a.PairsSignal(c.Score, c.SpreadZScore)
	return models.PairsTradingResult{
		Signal:             signal,
		SpreadZScore:       c.SpreadZScore,
		CointegrationScore: c.Score,
		HalfLife:           hl,
		HedgeRatio:         c.HedgeRatio,
		Details: []string{
			fmt.Sprintf("hedge ratio %.4f, cointegration score %.2f", c.HedgeRatio, c.Score),
			fmt.Sprintf("spread z %.2f vs entry %.1f / exit %.1f: %s", c.SpreadZScore, a.config.EntryThreshold, a.config.ExitThreshold, signal),
		},
	}
}

// PairsSignal applies the entry/exit rules to a spread z-score.
func (a *Analyzer) PairsSignal(cointegration, z float64) models.PairsSignal {
	switch {
	case cointegration < minCointegration:
		return models.PairsNeutral
	case z > a.config.EntryThreshold:
		return models.PairsShortSpread
	case z < -a.config.EntryThreshold:
		return models.PairsLongSpread
	case math.Abs(z) < a.config.ExitThreshold:
		return models.PairsNeutral
	default:
		return models.PairsNeutral
	}
}

// EdgeEstimate converts a signal into expected basis points net of transaction costs.
func (a *Analyzer) EdgeEstimate(signalStrength, significance float64) float64 {
	return EdgeEstimate(signalStrength, significance, a.config.TransactionCostsBps)
}

// EdgeEstimate returns max(0, |signal| * 50 * significance - costs). The edge
// is a magnitude: a bearish signal carries the same expected edge as a bullish
// one of equal strength.
func EdgeEstimate(signalStrength, significance, costsBps float64) float64 {
	edge := math.Abs(signalStrength)*edgeScale*significance - costsBps
	if !stats.Finite(edge) {
		return 0
	}
	return math.Max(0, edge)
}

// RegimeOpportunity scores how much a regime favors arbitrage on [0, 10].
// Transitions score highest and confident stable regimes lowest.
func RegimeOpportunity(r Regime) float64 {
	switch r.Regime {
	case models.RegimeTransition:
		return 6 + 4*r.Confidence
	case models.RegimeSideways:
		return 5
	default:
		return 10 * (1 - r.Confidence)
	}
}
