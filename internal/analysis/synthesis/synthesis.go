// Package synthesis combines the analyzer outputs for one ticker into a single
// trade decision with confidence, edge and position sizing.
package synthesis

import (
	"fmt"
	"math"

	"github.com/creasty/defaults"

	"quant-engine/internal/analysis/risk"
	"quant-engine/internal/analysis/stats"
	"quant-engine/internal/models"
)

// Breakdown keys.
const (
	ComponentMeanReversion = "mean_reversion"
	ComponentMomentum      = "momentum"
	ComponentStatArb       = "stat_arb"
	ComponentCombined      = "combined"
	ComponentRiskFavor     = "risk_favorability"
)

const maxWinProbability = 0.99

// Weights holds the combination weights of the directional components.
type Weights struct {
	MeanReversion float64 `mapstructure:"mean_reversion" toml:"mean_reversion" default:"0.35" validate:"gte=0,lte=1"`
	Momentum      float64 `mapstructure:"momentum" toml:"momentum" default:"0.35" validate:"gte=0,lte=1"`
	StatArb       float64 `mapstructure:"stat_arb" toml:"stat_arb" default:"0.30" validate:"gte=0,lte=1"`
}

// Config holds decision synthesis settings.
type Config struct {
	Weights         Weights `mapstructure:"weights" toml:"weights"`
	SignalThreshold float64 `mapstructure:"signal_threshold" toml:"signal_threshold" default:"0.15" validate:"gt=0,lt=1"`
	WinLossRatio    float64 `mapstructure:"win_loss_ratio" toml:"win_loss_ratio" default:"1.5" validate:"gt=0"`
	MaxLeverage     float64 `mapstructure:"max_leverage" toml:"max_leverage" default:"2.0" validate:"gte=0"`
}

// DefaultConfig returns the default synthesis configuration.
func DefaultConfig() Config {
	var cfg Config
	defaults.MustSet(&cfg)
	return cfg
}

// Input carries every analyzer output for one ticker.
type Input struct {
	Ticker        string
	MeanReversion models.MeanReversionResult
	Momentum      models.MomentumResult
	StatArb       models.StatArbResult
	Risk          models.RiskMetrics
	Execution     models.ExecutionAnalysis
}

// Synthesizer turns analyzer outputs into a Decision. It holds no mutable state.
type Synthesizer struct {
	config Config
	sizing *risk.Analyzer
}

// NewSynthesizer creates a synthesizer that sizes positions with the given risk analyzer.
func NewSynthesizer(cfg Config, sizing *risk.Analyzer) *Synthesizer {
	return &Synthesizer{config: cfg, sizing: sizing}
}

// Synthesize combines the analyzer outputs. Any analyzer that lacked data
// produces a zero-confidence neutral decision listing the reasons.
func (s *Synthesizer) Synthesize(in Input) models.Decision {
	if reasons := upstreamFailures(in); len(reasons) > 0 {
		return models.NeutralDecision(in.Ticker, reasons...)
	}

	mr := in.MeanReversion.SignalStrength
	mom := in.Momentum.SignalStrength
	sa := StatArbDirection(in.StatArb)
	significance := stats.Clamp(in.MeanReversion.StatisticalSignificance, 0, 1)

	w := s.config.Weights
	combined := stats.Clamp(w.MeanReversion*mr+w.Momentum*mom+w.StatArb*sa, -1, 1)
	signal := s.classify(combined)

	d := models.Decision{
		Ticker:          in.Ticker,
		Signal:          signal,
		Confidence:      stats.Clamp(50+50*math.Abs(combined)*significance, 0, 100),
		StatisticalEdge: in.StatArb.EdgeEstimateBps * significance,
		SignalScore:     stats.Clamp(((mr+mom)/2+1)*5, 0, 10),
		RiskScore:       stats.Clamp(in.Risk.RiskScore, 0, 10),
		ExecutionScore:  stats.Clamp(in.Execution.ExecutionScore, 0, 10),
		ArbitrageScore:  stats.Clamp(in.StatArb.ArbitrageScore, 0, 10),
		SignalStrengthBreakdown: map[string]float64{
			ComponentMeanReversion: mr,
			ComponentMomentum:      mom,
			ComponentStatArb:       sa,
			ComponentCombined:      combined,
		},
	}
	d.SignalStrengthBreakdown[ComponentRiskFavor] = 10 - d.RiskScore

	d.PositionSizing = s.positionSizing(d, combined, significance, in.Execution.Urgency)
	d.Reasoning = fmt.Sprintf("%s: combined strength %+.2f (mean reversion %+.2f, momentum %+.2f, stat arb %+.2f) at %.0f%% significance",
		signal, combined, mr, mom, sa, significance*100)
	d.KeyFactors = keyFactors(in, mr, mom, sa)
	d.Risks = riskFactors(in)
	return d
}

func (s *Synthesizer) classify(combined float64) models.DecisionSignal {
	switch {
	case combined > s.config.SignalThreshold:
		return models.SignalBullish
	case combined < -s.config.SignalThreshold:
		return models.SignalBearish
	default:
		return models.SignalNeutral
	}
}

func (s *Synthesizer) positionSizing(d models.Decision, combined, significance float64, urgency models.ExecutionUrgency) models.PositionSizing {
	sizing := models.PositionSizing{MaxPositionSizePct: s.sizing.MaxPositionPct()}
	if d.Signal == models.SignalNeutral || urgency == models.UrgencyAvoid {
		return sizing
	}

	winProbability := math.Min(maxWinProbability, 0.5+0.5*math.Abs(combined)*significance)
	sizing.KellyFraction = s.sizing.Kelly(winProbability, s.config.WinLossRatio)
	sizing.RecommendedSizePct = math.Min(s.sizing.PositionSize(d.Confidence, d.RiskScore), sizing.KellyFraction*100)
	sizing.LeverageRecommendation = math.Max(0, s.config.MaxLeverage*(1-d.RiskScore/10))
	return sizing
}

// StatArbDirection signs the arbitrage score: by mispricing direction when a
// mispricing is detected, otherwise by the bull or bear regime.
func StatArbDirection(r models.StatArbResult) float64 {
	var direction float64
	switch {
	case r.MispricingDetected:
		direction = stats.Sign(r.MispricingPct)
	case r.Regime == models.RegimeBull:
		direction = 1
	case r.Regime == models.RegimeBear:
		direction = -1
	}
	return direction * stats.Clamp(r.ArbitrageScore, 0, 10) / 10
}

func upstreamFailures(in Input) []string {
	var reasons []string
	add := func(component string, insufficient bool, details []string) {
		if !insufficient {
			return
		}
		reason := component + ": insufficient data"
		if len(details) > 0 {
			reason = component + ": " + details[0]
		}
		reasons = append(reasons, reason)
	}
	add(ComponentMeanReversion, in.MeanReversion.InsufficientData, in.MeanReversion.Details)
	add(ComponentMomentum, in.Momentum.InsufficientData, in.Momentum.Details)
	add(ComponentStatArb, in.StatArb.InsufficientData, in.StatArb.Details)
	add("risk", in.Risk.InsufficientData, in.Risk.Details)
	return reasons
}

func keyFactors(in Input, mr, mom, sa float64) []string {
	factors := []string{}
	if math.Abs(mr) >= 0.2 {
		factors = append(factors, fmt.Sprintf("mean reversion z-score %.2f (hurst %.2f)", in.MeanReversion.ZScore, in.MeanReversion.Hurst))
	}
	if math.Abs(mom) >= 0.2 {
		factors = append(factors, fmt.Sprintf("momentum over %d bars with trend R² %.2f", in.Momentum.OptimalLookback, in.Momentum.TrendStrength))
	}
	if in.StatArb.MispricingDetected {
		factors = append(factors, fmt.Sprintf("fair value gap %.1f%%", in.StatArb.MispricingPct))
	}
	if math.Abs(sa) >= 0.2 || in.StatArb.Regime == models.RegimeTransition {
		factors = append(factors, fmt.Sprintf("%s regime (confidence %.2f)", in.StatArb.Regime, in.StatArb.RegimeConfidence))
	}
	if p := in.StatArb.Pairs; p != nil && p.Signal != models.PairsNeutral {
		factors = append(factors, fmt.Sprintf("pairs %s at spread z %.2f", p.Signal, p.SpreadZScore))
	}
	return factors
}

func riskFactors(in Input) []string {
	risks := []string{}
	r := in.Risk
	if r.VolatilityRegime == models.VolatilityHigh || r.VolatilityRegime == models.VolatilityExtreme {
		risks = append(risks, fmt.Sprintf("%s volatility (%.1f%% annualized)", r.VolatilityRegime, r.VolatilityAnnualized*100))
	}
	if r.MaxDrawdown > 0.2 {
		risks = append(risks, fmt.Sprintf("max drawdown %.1f%%", r.MaxDrawdown*100))
	}
	if r.LiquidityScore < 4 {
		risks = append(risks, fmt.Sprintf("low liquidity score %.0f", r.LiquidityScore))
	}
	if math.Abs(r.CorrelationToMarket) > 0.8 {
		risks = append(risks, fmt.Sprintf("high market correlation %.2f", r.CorrelationToMarket))
	}
	if in.Execution.Urgency == models.UrgencyAvoid {
		risks = append(risks, fmt.Sprintf("execution cost %.1f bps exceeds expected edge", in.Execution.TotalCostBps))
	}
	return risks
}
