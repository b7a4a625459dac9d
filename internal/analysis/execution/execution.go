// Package execution estimates the cost of executing a trade and recommends
// order sizing and urgency.
package execution

import (
	"fmt"
	"math"

	"github.com/creasty/defaults"
	"github.com/shopspring/decimal"

	"quant-engine/internal/analysis/stats"
	"quant-engine/internal/models"
)

const (
	avoidScore       = 2.0
	minParticipation = 0.01
	maxParticipation = 0.25
)

// Config holds execution cost model parameters.
type Config struct {
	ImpactCoefficient float64 `mapstructure:"impact_coefficient" toml:"impact_coefficient" default:"0.1" validate:"gt=0"`
	TargetImpactBps   float64 `mapstructure:"target_impact_bps" toml:"target_impact_bps" default:"10" validate:"gt=0"`
	TradingMinutes    float64 `mapstructure:"trading_minutes" toml:"trading_minutes" default:"390" validate:"gt=0"`
	ADVFraction       float64 `mapstructure:"adv_fraction" toml:"adv_fraction" default:"0.007" validate:"gt=0,lt=1"`
}

// DefaultConfig returns the default execution configuration.
func DefaultConfig() Config {
	var cfg Config
	defaults.MustSet(&cfg)
	return cfg
}

// Input describes the intended trade.
type Input struct {
	TradeValue       float64
	MarketCap        float64
	AvgDailyVolume   float64 // dollars; estimated from market cap when zero
	Volatility       float64 // daily return standard deviation
	ExpectedEdgeBps  float64
	SignalDecayHours float64
}

// Analyzer computes execution cost estimates. It holds no mutable state.
type Analyzer struct {
	config Config
}

// NewAnalyzer creates an execution analyzer.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{config: cfg}
}

// Analyze estimates the all-in cost of the trade and how to work it.
func (a *Analyzer) Analyze(in Input) models.ExecutionAnalysis {
	var details []string

	adv := in.AvgDailyVolume
	if adv <= 0 {
		adv = a.EstimateAverageDailyVolume(in.MarketCap)
		details = append(details, fmt.Sprintf("average daily volume estimated at $%.0f from market cap", adv))
	}
	tradeValue := finiteNonNegative(in.TradeValue)
	volatility := finiteNonNegative(in.Volatility)

	participation := ParticipationRate(tradeValue, adv)
	impact := a.impact(participation, volatility)
	spread := SpreadCost(in.MarketCap, adv)
	commission := Commission(tradeValue)
	optimal := a.OptimalTradeSize(volatility)
	minutes := a.ExecutionTime(participation, optimal)

	slippage := Slippage(volatility, participation, "")
	total := impact + spread + commission + slippage
	urgency := DecideUrgency(total, in.ExpectedEdgeBps, in.SignalDecayHours, minutes/60)

	slippage = Slippage(volatility, participation, urgency)
	total = impact + spread + commission + slippage

	result := models.ExecutionAnalysis{
		MarketImpactBps:      impact,
		SpreadCostBps:        spread,
		CommissionBps:        commission,
		SlippageEstimateBps:  slippage,
		TotalCostBps:         total,
		TotalCostValue:       CostValue(tradeValue, total),
		ParticipationRate:    participation,
		OptimalTradeSizePct:  optimal,
		ExecutionTimeMinutes: minutes,
		Urgency:              urgency,
		ExecutionScore:       ExecutionScore(urgency, total, in.ExpectedEdgeBps),
	}

	details = append(details,
		fmt.Sprintf("participation %.2f%% of ADV, impact %.1f bps", participation*100, impact),
		fmt.Sprintf("spread %.1f bps, commission %.1f bps, slippage %.1f bps", spread, commission, slippage),
		fmt.Sprintf("total cost %.1f bps vs expected edge %.1f bps: %s", total, in.ExpectedEdgeBps, urgency),
	)
	if minutes > a.config.TradingMinutes {
		details = append(details, fmt.Sprintf("execution spans %.1f trading days", minutes/a.config.TradingMinutes))
	}
	result.Details = details
	return result
}

// EstimateAverageDailyVolume approximates dollar ADV as a fixed fraction of market cap.
func (a *Analyzer) EstimateAverageDailyVolume(marketCap float64) float64 {
	return math.Max(0, marketCap) * a.config.ADVFraction
}

// ParticipationRate is trade value as a fraction of ADV. Unknown ADV counts as a full day.
func ParticipationRate(tradeValue, adv float64) float64 {
	if adv <= 0 {
		return 1
	}
	return math.Max(0, tradeValue) / adv
}

// EstimateMarketImpact applies the square-root impact model in basis points.
func (a *Analyzer) EstimateMarketImpact(tradeValue, marketCap, adv, volatility float64) float64 {
	if adv <= 0 {
		adv = a.EstimateAverageDailyVolume(marketCap)
	}
	return a.impact(ParticipationRate(tradeValue, adv), volatility)
}

func (a *Analyzer) impact(participation, volatility float64) float64 {
	return volatility * math.Sqrt(participation) * a.config.ImpactCoefficient * 10000
}

// Base half-spread by market cap tier, in basis points.
var spreadTiers = []struct {
	minCap float64
	bps    float64
}{
	{200e9, 1},
	{10e9, 3},
	{2e9, 8},
	{300e6, 20},
}

const microCapSpreadBps = 50

// SpreadCost returns the tiered spread cost adjusted for dollar volume.
func SpreadCost(marketCap, adv float64) float64 {
	spread := float64(microCapSpreadBps)
	for _, tier := range spreadTiers {
		if marketCap >= tier.minCap {
			spread = tier.bps
			break
		}
	}
	switch {
	case adv >= 50e6:
		spread *= 0.7
	case adv < 1e6:
		spread *= 1.5
	}
	return spread
}

// Commission returns the institutional commission tier for a trade value, in basis points.
func Commission(tradeValue float64) float64 {
	switch {
	case tradeValue >= 10e6:
		return 0.5
	case tradeValue >= 1e6:
		return 1.0
	case tradeValue >= 100e3:
		return 1.5
	default:
		return 2.0
	}
}

// OptimalTradeSize solves the impact model for the participation that costs the
// target impact, clamped to [1%, 25%] of ADV.
func (a *Analyzer) OptimalTradeSize(volatility float64) float64 {
	denom := volatility * a.config.ImpactCoefficient * 10000
	if denom <= 0 {
		return maxParticipation
	}
	root := a.config.TargetImpactBps / denom
	return stats.Clamp(root*root, minParticipation, maxParticipation)
}

// ExecutionTime is the minutes needed to work the trade at the optimal
// participation rate. Trades larger than one day's allowance scale linearly
// across days.
func (a *Analyzer) ExecutionTime(participation, optimal float64) float64 {
	if optimal <= 0 {
		return a.config.TradingMinutes
	}
	return math.Max(1, participation/optimal*a.config.TradingMinutes)
}

// Slippage scales volatility-based slippage by participation and urgency.
// An empty urgency applies no urgency factor.
func Slippage(volatility, participation float64, urgency models.ExecutionUrgency) float64 {
	slip := volatility * 100
	switch {
	case participation > 0.10:
		slip *= 2.0
	case participation > 0.05:
		slip *= 1.5
	case participation > 0.01:
		slip *= 1.2
	}
	switch urgency {
	case models.UrgencyImmediate:
		slip *= 1.5
	case models.UrgencyPatient:
		slip *= 0.7
	}
	return slip
}

// DecideUrgency compares total cost with the expected edge. A trade costing
// less than half the edge is executed immediately; one costing the whole edge
// is avoided.
func DecideUrgency(totalCostBps, expectedEdgeBps, signalDecayHours, executionHours float64) models.ExecutionUrgency {
	cheap := totalCostBps < 0.5*expectedEdgeBps
	switch {
	case signalDecayHours > 0 && signalDecayHours < executionHours && cheap:
		return models.UrgencyImmediate
	case cheap:
		return models.UrgencyImmediate
	case totalCostBps >= expectedEdgeBps:
		return models.UrgencyAvoid
	default:
		return models.UrgencyPatient
	}
}

// ExecutionScore rates execution quality on [0, 10]; avoided trades score 2.
func ExecutionScore(urgency models.ExecutionUrgency, totalCostBps, expectedEdgeBps float64) float64 {
	if urgency == models.UrgencyAvoid || expectedEdgeBps <= 0 {
		return avoidScore
	}
	return stats.Clamp(10*(1-totalCostBps/expectedEdgeBps), 0, 10)
}

// CostValue converts a basis-point cost on a trade value into a currency amount rounded to cents.
func CostValue(tradeValue, costBps float64) decimal.Decimal {
	if !stats.Finite(tradeValue) || !stats.Finite(costBps) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(tradeValue).
		Mul(decimal.NewFromFloat(costBps)).
		Div(decimal.NewFromInt(10000)).
		Round(2)
}

func finiteNonNegative(v float64) float64 {
	if !stats.Finite(v) || v < 0 {
		return 0
	}
	return v
}
