// Package risk computes volatility, tail risk, drawdowns, risk-adjusted ratios,
// market factor exposure and position sizing for a price series.
package risk

import (
	"fmt"
	"math"

	"github.com/creasty/defaults"

	"quant-engine/internal/analysis/stats"
	"quant-engine/internal/models"
)

const (
	neutralRiskScore = 5.0
	neutralLiquidity = 5.0
)

// Config holds risk analyzer settings.
type Config struct {
	MinDataPoints    int     `mapstructure:"min_data_points" toml:"min_data_points" default:"21" validate:"gte=3"`
	MinRatioSamples  int     `mapstructure:"min_ratio_samples" toml:"min_ratio_samples" default:"20" validate:"gte=2"`
	DrawdownWindow   int     `mapstructure:"drawdown_window" toml:"drawdown_window" default:"20" validate:"gte=1"`
	EWMALambda       float64 `mapstructure:"ewma_lambda" toml:"ewma_lambda" default:"0.94" validate:"gt=0,lt=1"`
	RiskFreeRate     float64 `mapstructure:"risk_free_rate" toml:"risk_free_rate" default:"0.02" validate:"gte=0,lt=1"`
	MaxPositionPct   float64 `mapstructure:"max_position_pct" toml:"max_position_pct" default:"10" validate:"gt=0,lte=100"`
	MaxKellyFraction float64 `mapstructure:"max_kelly_fraction" toml:"max_kelly_fraction" default:"0.25" validate:"gt=0,lte=1"`
}

// DefaultConfig returns the default risk configuration.
func DefaultConfig() Config {
	var cfg Config
	defaults.MustSet(&cfg)
	return cfg
}

// Input bundles the data a risk analysis can use. Only Prices is required.
type Input struct {
	Prices         models.PriceSeries
	Market         models.PriceSeries
	MarketCap      float64
	AvgDailyVolume float64
}

// Analyzer computes risk metrics. It holds no mutable state.
type Analyzer struct {
	config Config
}

// NewAnalyzer creates a risk analyzer.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{config: cfg}
}

// Analyze computes the full set of risk metrics for a price series.
func (a *Analyzer) Analyze(in Input) models.RiskMetrics {
	liquidity := LiquidityScore(in.MarketCap, in.AvgDailyVolume)

	n := in.Prices.Len()
	if n < a.config.MinDataPoints {
		return models.RiskMetrics{
			VolatilityRegime:   models.VolatilityNormal,
			Beta:               1,
			IdiosyncraticRatio: 1,
			LiquidityScore:     liquidity,
			RiskScore:          neutralRiskScore,
			InsufficientData:   true,
			Details: []string{
				fmt.Sprintf("insufficient data: %d prices, need at least %d", n, a.config.MinDataPoints),
			},
		}
	}

	returns := in.Prices.Returns()
	vol := AnnualizedVolatility(returns)
	maxDD, currentDD := Drawdowns(in.Prices, a.config.DrawdownWindow)

	m := models.RiskMetrics{
		VolatilityAnnualized: vol,
		EWMAVolatility:       EWMAVolatility(returns, a.config.EWMALambda),
		VolatilityRegime:     ClassifyVolatility(vol),
		VaR95:                HistoricalVaR(returns, 0.95),
		VaR99:                HistoricalVaR(returns, 0.99),
		MaxDrawdown:          maxDD,
		CurrentDrawdown:      currentDD,
		SharpeRatio:          a.SharpeRatio(returns),
		SortinoRatio:         a.SortinoRatio(returns),
		LiquidityScore:       liquidity,
	}

	m.Beta, m.CorrelationToMarket = 1, 0
	if len(in.Market) > 0 {
		if beta, corr, ok := BetaCorrelation(returns, in.Market.Returns()); ok {
			m.Beta, m.CorrelationToMarket = beta, corr
		} else {
			m.Details = append(m.Details, "market series unusable for factor decomposition")
		}
	}
	m.IdiosyncraticRatio = stats.Clamp(1-m.CorrelationToMarket*m.CorrelationToMarket, 0, 1)
	m.RiskScore = RiskScore(m)

	m.Details = append(m.Details,
		fmt.Sprintf("volatility %.1f%% annualized (%s), EWMA %.1f%%", vol*100, m.VolatilityRegime, m.EWMAVolatility*100),
		fmt.Sprintf("VaR95 %.1f%%, VaR99 %.1f%%", m.VaR95*100, m.VaR99*100),
		fmt.Sprintf("max drawdown %.1f%%, current drawdown %.1f%%", maxDD*100, currentDD*100),
		fmt.Sprintf("beta %.2f, correlation %.2f, liquidity %.0f/10", m.Beta, m.CorrelationToMarket, liquidity),
	)
	if m.SharpeRatio == nil {
		m.Details = append(m.Details, "sharpe ratio unavailable")
	}
	return m
}

// SharpeRatio returns the annualized excess return per unit of volatility, or
// nil with too few samples or zero volatility.
func (a *Analyzer) SharpeRatio(returns []float64) *float64 {
	if len(returns) < a.config.MinRatioSamples {
		return nil
	}
	vol := AnnualizedVolatility(returns)
	if vol == 0 {
		return nil
	}
	ratio := (stats.Mean(returns)*stats.TradingDaysPerYear - a.config.RiskFreeRate) / vol
	return &ratio
}

// SortinoRatio is SharpeRatio with only downside deviation in the denominator.
func (a *Analyzer) SortinoRatio(returns []float64) *float64 {
	if len(returns) < a.config.MinRatioSamples {
		return nil
	}
	downside := DownsideDeviation(returns)
	if downside == 0 {
		return nil
	}
	ratio := (stats.Mean(returns)*stats.TradingDaysPerYear - a.config.RiskFreeRate) / downside
	return &ratio
}

// RiskScore combines volatility, tail risk, drawdown, market exposure and
// illiquidity into a 0-10 score where higher is riskier.
func RiskScore(m models.RiskMetrics) float64 {
	score := m.VolatilityAnnualized/0.3*3 +
		m.VaR95/0.2*2 +
		m.MaxDrawdown/0.5*2 +
		(1-m.IdiosyncraticRatio)*2 +
		(10-m.LiquidityScore)/10*1
	return stats.Clamp(score, 0, 10)
}

// BetaCorrelation regresses asset returns on market returns over their common,
// newest-first length. ok is false without enough overlap or market variance.
func BetaCorrelation(asset, market []float64) (beta, corr float64, ok bool) {
	n := min(len(asset), len(market))
	if n < 2 {
		return 1, 0, false
	}
	asset, market = asset[:n], market[:n]
	if stats.IsConstant(market) {
		return 1, 0, false
	}
	sd := stats.StdDev(market)
	beta = stats.Covariance(asset, market) / (sd * sd)
	if !stats.Finite(beta) {
		return 1, 0, false
	}
	return beta, stats.Correlation(asset, market), true
}

// Market cap tiers in dollars and their base liquidity scores.
var liquidityTiers = []struct {
	minCap float64
	score  float64
}{
	{200e9, 10},
	{10e9, 8},
	{2e9, 6},
	{300e6, 4},
	{50e6, 2},
}

// LiquidityScore maps market cap to a 0-10 score, adjusted by average daily
// dollar volume when known. An unknown market cap scores 5.
func LiquidityScore(marketCap, avgDailyVolume float64) float64 {
	score := neutralLiquidity
	if marketCap > 0 {
		score = 1
		for _, tier := range liquidityTiers {
			if marketCap >= tier.minCap {
				score = tier.score
				break
			}
		}
	}
	switch {
	case avgDailyVolume <= 0:
	case avgDailyVolume >= 50e6:
		score++
	case avgDailyVolume < 1e6:
		score -= 2
	}
	return stats.Clamp(score, 0, 10)
}

// DownsideDeviation is the annualized root mean square of negative returns.
func DownsideDeviation(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	var ss float64
	for _, r := range returns {
		if r < 0 {
			ss += r * r
		}
	}
	return math.Sqrt(ss/float64(len(returns))) * math.Sqrt(stats.TradingDaysPerYear)
}
