package models

// Decision is the synthesized trade recommendation for a single ticker.
type Decision struct {
	Ticker                  string             `json:"ticker" yaml:"ticker"`
	Signal                  DecisionSignal     `json:"signal" yaml:"signal"`
	Confidence              float64            `json:"confidence" yaml:"confidence"`
	StatisticalEdge         float64            `json:"statistical_edge" yaml:"statistical_edge"`
	SignalScore             float64            `json:"signal_score" yaml:"signal_score"`
	RiskScore               float64            `json:"risk_score" yaml:"risk_score"`
	ExecutionScore          float64            `json:"execution_score" yaml:"execution_score"`
	ArbitrageScore          float64            `json:"arbitrage_score" yaml:"arbitrage_score"`
	PositionSizing          PositionSizing     `json:"position_sizing" yaml:"position_sizing"`
	SignalStrengthBreakdown map[string]float64 `json:"signal_strength_breakdown" yaml:"signal_strength_breakdown"`
	Reasoning               string             `json:"reasoning" yaml:"reasoning"`
	KeyFactors              []string           `json:"key_factors" yaml:"key_factors"`
	Risks                   []string           `json:"risks" yaml:"risks"`
}

// PositionSizing holds the sizing recommendation attached to a decision.
type PositionSizing struct {
	RecommendedSizePct     float64 `json:"recommended_size_pct" yaml:"recommended_size_pct"`
	KellyFraction          float64 `json:"kelly_fraction" yaml:"kelly_fraction"`
	MaxPositionSizePct     float64 `json:"max_position_size_pct" yaml:"max_position_size_pct"`
	LeverageRecommendation float64 `json:"leverage_recommendation" yaml:"leverage_recommendation"`
}

// IsActionable reports whether the decision carries a directional call with a position.
func (d Decision) IsActionable() bool {
	return d.Signal != SignalNeutral && d.PositionSizing.RecommendedSizePct > 0
}

// NeutralDecision builds a zero-confidence neutral decision carrying the given failure reasons.
func NeutralDecision(ticker string, reasons ...string) Decision {
	risks := make([]string, 0, len(reasons))
	risks = append(risks, reasons...)
	return Decision{
		Ticker:                  ticker,
		Signal:                  SignalNeutral,
		Confidence:              0,
		SignalStrengthBreakdown: map[string]float64{},
		Reasoning:               "analysis unavailable: insufficient or invalid input",
		KeyFactors:              []string{},
		Risks:                   risks,
	}
}
