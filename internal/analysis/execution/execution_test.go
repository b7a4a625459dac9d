package execution

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"quant-engine/internal/models"
)

func TestEstimateMarketImpactClosedForm(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	got := a.EstimateMarketImpact(1_000_000, 10e9, 50e6, 0.02)
	want := 0.02 * math.Sqrt(1_000_000.0/50_000_000.0) * 0.1 * 10000
	assert.Equal(t, want, got)
}

func TestEstimateMarketImpactEstimatesADV(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	assert.InDelta(t, a.EstimateMarketImpact(1e6, 10e9, 70e6, 0.02), a.EstimateMarketImpact(1e6, 10e9, 0, 0.02), 1e-9)
	assert.InDelta(t, 70e6, a.EstimateAverageDailyVolume(10e9), 1e-3)
}

func TestSpreadCost(t *testing.T) {
	assert.InDelta(t, 0.7, SpreadCost(300e9, 100e6), 1e-12)
	assert.Equal(t, 3.0, SpreadCost(20e9, 10e6))
	assert.Equal(t, 75.0, SpreadCost(10e6, 500e3))
	assert.Equal(t, 20.0, SpreadCost(500e6, 5e6))
}

func TestCommission(t *testing.T) {
	assert.Equal(t, 0.5, Commission(20e6))
	assert.Equal(t, 1.0, Commission(1e6))
	assert.Equal(t, 1.5, Commission(250e3))
	assert.Equal(t, 2.0, Commission(5e3))
}

func TestOptimalTradeSize(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	// 10 / (0.02 * 1000) = 0.5, squared = 0.25.
	assert.InDelta(t, 0.25, a.OptimalTradeSize(0.02), 1e-12)
	// 10 / (0.05 * 1000) = 0.2, squared = 0.04.
	assert.InDelta(t, 0.04, a.OptimalTradeSize(0.05), 1e-12)
	assert.Equal(t, 0.01, a.OptimalTradeSize(1))
	assert.Equal(t, 0.25, a.OptimalTradeSize(0))
}

func TestExecutionTime(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	assert.Equal(t, 1.0, a.ExecutionTime(0.0001, 0.25))
	assert.InDelta(t, 195.0, a.ExecutionTime(0.05, 0.1), 1e-9)
	assert.InDelta(t, 780.0, a.ExecutionTime(0.5, 0.25), 1e-9, "two trading days")
}

func TestSlippage(t *testing.T) {
	assert.InDelta(t, 2.0, Slippage(0.02, 0.001, ""), 1e-12)
	assert.InDelta(t, 4.0*1.5, Slippage(0.02, 0.2, models.UrgencyImmediate), 1e-12)
	assert.InDelta(t, 2.0*1.2*0.7, Slippage(0.02, 0.02, models.UrgencyPatient), 1e-12)
}

func TestDecideUrgency(t *testing.T) {
	assert.Equal(t, models.UrgencyImmediate, DecideUrgency(10, 50, 1, 3))
	assert.Equal(t, models.UrgencyImmediate, DecideUrgency(10, 50, 0, 0))
	assert.Equal(t, models.UrgencyAvoid, DecideUrgency(50, 50, 0, 0))
	assert.Equal(t, models.UrgencyAvoid, DecideUrgency(5, 0, 0, 0))
	assert.Equal(t, models.UrgencyPatient, DecideUrgency(30, 50, 0, 0))
}

func TestExecutionScore(t *testing.T) {
	assert.Equal(t, 2.0, ExecutionScore(models.UrgencyAvoid, 5, 100))
	assert.InDelta(t, 7.0, ExecutionScore(models.UrgencyPatient, 30, 100), 1e-12)
	assert.Equal(t, 0.0, ExecutionScore(models.UrgencyImmediate, 150, 100))
}

func TestCostValue(t *testing.T) {
	assert.True(t, decimal.RequireFromString("1234.57").Equal(CostValue(1_000_000, 12.34567)))
	assert.True(t, decimal.Zero.Equal(CostValue(math.Inf(1), 10)))
}

func TestAnalyzeLargeCapTrade(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	result := a.Analyze(Input{
		TradeValue:      1_000_000,
		MarketCap:       10e9,
		AvgDailyVolume:  50e6,
		Volatility:      0.02,
		ExpectedEdgeBps: 100,
	})

	assert.InDelta(t, 0.02, result.ParticipationRate, 1e-12)
	assert.Equal(t, a.EstimateMarketImpact(1_000_000, 10e9, 50e6, 0.02), result.MarketImpactBps)
	assert.Equal(t, models.UrgencyImmediate, result.Urgency)
	// Slippage is recomputed with the immediate multiplier: 2 * 1.2 * 1.5.
	assert.InDelta(t, 3.6, result.SlippageEstimateBps, 1e-12)
	assert.InDelta(t, result.MarketImpactBps+result.SpreadCostBps+result.CommissionBps+result.SlippageEstimateBps,
		result.TotalCostBps, 1e-12)
	assert.GreaterOrEqual(t, result.ExecutionTimeMinutes, 1.0)
	assert.NotEmpty(t, result.Details)
}

func TestAnalyzeNoEdgeIsAvoided(t *testing.T) {
	result := NewAnalyzer(DefaultConfig()).Analyze(Input{TradeValue: 100_000, MarketCap: 1e9, Volatility: 0.03})
	assert.Equal(t, models.UrgencyAvoid, result.Urgency)
	assert.Equal(t, 2.0, result.ExecutionScore)
	assert.Contains(t, result.Details[0], "estimated")
}

// Property: market impact never decreases as participation grows, and every
// cost field stays non-negative with the score in [0, 10].
func TestExecutionProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)
	a := NewAnalyzer(DefaultConfig())

	properties.Property("impact monotone in participation", prop.ForAll(
		func(tradeValue, extra, adv, vol float64) bool {
			smaller := a.EstimateMarketImpact(tradeValue, 0, adv, vol)
			larger := a.EstimateMarketImpact(tradeValue+extra, 0, adv, vol)
			return larger >= smaller
		},
		gen.Float64Range(0, 1e8),
		gen.Float64Range(0, 1e8),
		gen.Float64Range(1e5, 1e9),
		gen.Float64Range(0, 0.1),
	))

	properties.Property("costs non-negative and score bounded", prop.ForAll(
		func(tradeValue, marketCap, vol, edge, decay float64) bool {
			in := Input{TradeValue: tradeValue, MarketCap: marketCap, Volatility: vol, ExpectedEdgeBps: edge, SignalDecayHours: decay}
			r := a.Analyze(in)
			again := a.Analyze(in)
			if r.TotalCostBps != again.TotalCostBps || r.Urgency != again.Urgency {
				return false
			}
			return r.MarketImpactBps >= 0 && r.SpreadCostBps >= 0 && r.CommissionBps >= 0 &&
				r.SlippageEstimateBps >= 0 && r.TotalCostBps >= 0 &&
				r.OptimalTradeSizePct >= 0.01 && r.OptimalTradeSizePct <= 0.25 &&
				r.ExecutionTimeMinutes >= 1 &&
				r.ExecutionScore >= 0 && r.ExecutionScore <= 10
		},
		gen.Float64Range(0, 1e8),
		gen.Float64Range(0, 1e12),
		gen.Float64Range(0, 0.1),
		gen.Float64Range(0, 500),
		gen.Float64Range(0, 48),
	))

	properties.TestingRun(t)
}
