package risk

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quant-engine/internal/models"
)

func noisyWalk(seed int64, n int, dailyVol float64) models.PriceSeries {
	rng := rand.New(rand.NewSource(seed))
	s := make(models.PriceSeries, n)
	price := 100.0
	for i := n - 1; i >= 0; i-- {
		s[i] = price
		price *= 1 + dailyVol*rng.NormFloat64()
	}
	return s
}

func TestKellyCriterion(t *testing.T) {
	// (0.55*2 - 0.45)/2 = 0.325, capped at 0.25.
	assert.Equal(t, 0.25, KellyCriterion(0.55, 2.0, 0.25))
	assert.InDelta(t, 0.1, KellyCriterion(0.55, 1.0, 0.25), 1e-12)
	assert.Equal(t, 0.0, KellyCriterion(0.3, 1.0, 0.25), "negative edge floors at zero")
	assert.Equal(t, 0.0, KellyCriterion(1.2, 2.0, 0.25))
	assert.Equal(t, 0.0, KellyCriterion(0.6, 0, 0.25))
	assert.Equal(t, 0.0, KellyCriterion(math.NaN(), 2, 0.25))

	a := NewAnalyzer(DefaultConfig())
	assert.Equal(t, 0.25, a.Kelly(0.55, 2.0))
}

func TestPositionSize(t *testing.T) {
	assert.InDelta(t, 7.5, PositionSize(100, 5, 10), 1e-12)
	assert.InDelta(t, 5.0, PositionSize(100, 10, 10), 1e-12)
	assert.Equal(t, 0.0, PositionSize(0, 2, 10))
	assert.Equal(t, 10.0, PositionSize(150, 0, 10))
}

func TestClassifyVolatility(t *testing.T) {
	assert.Equal(t, models.VolatilityLow, ClassifyVolatility(0.10))
	assert.Equal(t, models.VolatilityNormal, ClassifyVolatility(0.12))
	assert.Equal(t, models.VolatilityHigh, ClassifyVolatility(0.25))
	assert.Equal(t, models.VolatilityExtreme, ClassifyVolatility(0.35))
}

func TestDrawdowns(t *testing.T) {
	// Chronological path 100 -> 120 -> 90 -> 110.
	prices := models.PriceSeries{110, 90, 120, 100}
	maxDD, currentDD := Drawdowns(prices, 20)
	assert.InDelta(t, 0.25, maxDD, 1e-12)
	assert.InDelta(t, 10.0/120.0, currentDD, 1e-12)

	// The current drawdown only looks at the recent window.
	_, recent := Drawdowns(prices, 2)
	assert.Equal(t, 0.0, recent)
}

func TestHistoricalVaR(t *testing.T) {
	returns := make([]float64, 100)
	for i := range returns {
		returns[i] = float64(i-50) / 1000
	}
	var95 := HistoricalVaR(returns, 0.95)
	assert.Greater(t, var95, 0.0)
	assert.GreaterOrEqual(t, HistoricalVaR(returns, 0.99), var95)
	assert.Equal(t, 0.0, HistoricalVaR([]float64{0.01, 0.02}, 0.95), "all gains means no loss threshold")
}

func TestEWMAVolatility(t *testing.T) {
	returns := []float64{0.01, 0.01, 0.01}
	assert.InDelta(t, 0.01*math.Sqrt(252), EWMAVolatility(returns, 0.94), 1e-12)
	assert.Equal(t, 0.0, EWMAVolatility(nil, 0.94))
}

func TestBetaCorrelation(t *testing.T) {
	market := []float64{0.01, -0.02, 0.015, 0.003, -0.007, 0.012}
	asset := make([]float64, len(market))
	for i, r := range market {
		asset[i] = 1.5 * r
	}
	beta, corr, ok := BetaCorrelation(asset, market)
	require.True(t, ok)
	assert.InDelta(t, 1.5, beta, 1e-9)
	assert.InDelta(t, 1.0, corr, 1e-9)

	_, _, ok = BetaCorrelation(asset, []float64{0, 0, 0})
	assert.False(t, ok)
}

func TestLiquidityScore(t *testing.T) {
	assert.Equal(t, 10.0, LiquidityScore(500e9, 0))
	assert.Equal(t, 9.0, LiquidityScore(20e9, 60e6))
	assert.Equal(t, 4.0, LiquidityScore(1e9, 0))
	assert.Equal(t, 0.0, LiquidityScore(10e6, 500e3))
	assert.Equal(t, 5.0, LiquidityScore(0, 0))
}

func TestAnalyzeConstantSeries(t *testing.T) {
	prices := make(models.PriceSeries, 100)
	for i := range prices {
		prices[i] = 100
	}
	m := NewAnalyzer(DefaultConfig()).Analyze(Input{Prices: prices})

	assert.False(t, m.InsufficientData)
	assert.Nil(t, m.SharpeRatio)
	assert.Nil(t, m.SortinoRatio)
	assert.Equal(t, 0.0, m.VolatilityAnnualized)
	assert.Equal(t, models.VolatilityLow, m.VolatilityRegime)
	assert.Equal(t, 0.0, m.MaxDrawdown)
	// Only the illiquidity term of an unknown market cap contributes.
	assert.InDelta(t, 0.5, m.RiskScore, 1e-12)
}

func TestAnalyzeInsufficientData(t *testing.T) {
	m := NewAnalyzer(DefaultConfig()).Analyze(Input{Prices: models.PriceSeries{100, 101, 99}})
	assert.True(t, m.InsufficientData)
	assert.Equal(t, 5.0, m.RiskScore)
	assert.NotEmpty(t, m.Details)
}

func TestAnalyzeWithMarket(t *testing.T) {
	market := noisyWalk(1, 250, 0.01)
	prices := make(models.PriceSeries, len(market))
	for i, p := range market {
		prices[i] = p * 2
	}
	m := NewAnalyzer(DefaultConfig()).Analyze(Input{Prices: prices, Market: market, MarketCap: 50e9, AvgDailyVolume: 100e6})

	assert.InDelta(t, 1.0, m.Beta, 1e-9)
	assert.InDelta(t, 1.0, m.CorrelationToMarket, 1e-9)
	assert.InDelta(t, 0.0, m.IdiosyncraticRatio, 1e-9)
	assert.Equal(t, 9.0, m.LiquidityScore)
	require.NotNil(t, m.SharpeRatio)
}

// Property: For any positive price series, the risk score stays in [0, 10],
// drawdowns in [0, 1], VaR non-negative, correlation in [-1, 1], and repeated
// analysis is identical.
func TestRiskBoundsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)
	a := NewAnalyzer(DefaultConfig())

	properties.Property("risk metrics bounded and idempotent", prop.ForAll(
		func(prices, market []float64, marketCap float64) bool {
			in := Input{Prices: prices, Market: market, MarketCap: marketCap}
			first := a.Analyze(in)
			second := a.Analyze(in)
			if first.RiskScore != second.RiskScore || first.VaR95 != second.VaR95 || first.Beta != second.Beta {
				return false
			}
			return first.RiskScore >= 0 && first.RiskScore <= 10 &&
				first.MaxDrawdown >= 0 && first.MaxDrawdown <= 1 &&
				first.CurrentDrawdown >= 0 && first.CurrentDrawdown <= 1 &&
				first.VaR95 >= 0 && first.VaR99 >= 0 &&
				first.CorrelationToMarket >= -1 && first.CorrelationToMarket <= 1 &&
				first.IdiosyncraticRatio >= 0 && first.IdiosyncraticRatio <= 1 &&
				first.LiquidityScore >= 0 && first.LiquidityScore <= 10
		},
		gen.SliceOfN(60, gen.Float64Range(1, 1000)),
		gen.SliceOfN(60, gen.Float64Range(1, 1000)),
		gen.Float64Range(0, 1e12),
	))

	properties.Property("kelly fraction bounded", prop.ForAll(
		func(p, b float64) bool {
			f := KellyCriterion(p, b, 0.25)
			return f >= 0 && f <= 0.25
		},
		gen.Float64Range(-1, 2),
		gen.Float64Range(-1, 10),
	))

	properties.TestingRun(t)
}
