package models

import "github.com/shopspring/decimal"

// MeanReversionResult is the output of the mean reversion analyzer.
type MeanReversionResult struct {
	SignalStrength          float64  `json:"signal_strength" yaml:"signal_strength"`
	ZScore                  float64  `json:"z_score" yaml:"z_score"`
	HalfLife                *float64 `json:"half_life" yaml:"half_life"`
	Hurst                   float64  `json:"hurst" yaml:"hurst"`
	StatisticalSignificance float64  `json:"statistical_significance" yaml:"statistical_significance"`
	Details                 []string `json:"details" yaml:"details"`
	InsufficientData        bool     `json:"insufficient_data,omitempty" yaml:"insufficient_data,omitempty"`
}

// MomentumResult is the output of the momentum analyzer.
type MomentumResult struct {
	SignalStrength      float64  `json:"signal_strength" yaml:"signal_strength"`
	TrendStrength       float64  `json:"trend_strength" yaml:"trend_strength"`
	Acceleration        float64  `json:"acceleration" yaml:"acceleration"`
	OptimalLookback     int      `json:"optimal_lookback" yaml:"optimal_lookback"`
	PriceMomentum       float64  `json:"price_momentum" yaml:"price_momentum"`
	FundamentalMomentum float64  `json:"fundamental_momentum" yaml:"fundamental_momentum"`
	RelativeStrength    *float64 `json:"relative_strength,omitempty" yaml:"relative_strength,omitempty"`
	PeerPercentile      *float64 `json:"peer_percentile,omitempty" yaml:"peer_percentile,omitempty"`
	Details             []string `json:"details" yaml:"details"`
	InsufficientData    bool     `json:"insufficient_data,omitempty" yaml:"insufficient_data,omitempty"`
}

// PairsTradingResult is the output of pairs cointegration / pairs trading analysis.
type PairsTradingResult struct {
	Signal             PairsSignal `json:"signal" yaml:"signal"`
	SpreadZScore       float64     `json:"spread_z_score" yaml:"spread_z_score"`
	CointegrationScore float64     `json:"cointegration_score" yaml:"cointegration_score"`
	HalfLife           HalfLife    `json:"half_life" yaml:"half_life"`
	HedgeRatio         float64     `json:"hedge_ratio" yaml:"hedge_ratio"`
	Details            []string    `json:"details" yaml:"details"`
	InsufficientData   bool        `json:"insufficient_data,omitempty" yaml:"insufficient_data,omitempty"`
}

// StatArbResult is the output of the statistical arbitrage analyzer.
type StatArbResult struct {
	ArbitrageScore     float64             `json:"arbitrage_score" yaml:"arbitrage_score"`
	EdgeEstimateBps    float64             `json:"edge_estimate_bps" yaml:"edge_estimate_bps"`
	MispricingDetected bool                `json:"mispricing_detected" yaml:"mispricing_detected"`
	MispricingPct      float64             `json:"mispricing_pct" yaml:"mispricing_pct"`
	Regime             MarketRegime        `json:"regime" yaml:"regime"`
	RegimeConfidence   float64             `json:"regime_confidence" yaml:"regime_confidence"`
	Pairs              *PairsTradingResult `json:"pairs,omitempty" yaml:"pairs,omitempty"`
	Details            []string            `json:"details" yaml:"details"`
	InsufficientData   bool                `json:"insufficient_data,omitempty" yaml:"insufficient_data,omitempty"`
}

// RiskMetrics is the output of the risk analyzer.
type RiskMetrics struct {
	VolatilityAnnualized float64          `json:"volatility_annualized" yaml:"volatility_annualized"`
	EWMAVolatility       float64          `json:"ewma_volatility" yaml:"ewma_volatility"`
	VolatilityRegime     VolatilityRegime `json:"volatility_regime" yaml:"volatility_regime"`
	VaR95                float64          `json:"var_95" yaml:"var_95"`
	VaR99                float64          `json:"var_99" yaml:"var_99"`
	MaxDrawdown          float64          `json:"max_drawdown" yaml:"max_drawdown"`
	CurrentDrawdown      float64          `json:"current_drawdown" yaml:"current_drawdown"`
	SharpeRatio          *float64         `json:"sharpe_ratio" yaml:"sharpe_ratio"`
	SortinoRatio         *float64         `json:"sortino_ratio" yaml:"sortino_ratio"`
	Beta                 float64          `json:"beta" yaml:"beta"`
	CorrelationToMarket  float64          `json:"correlation_to_market" yaml:"correlation_to_market"`
	IdiosyncraticRatio   float64          `json:"idiosyncratic_ratio" yaml:"idiosyncratic_ratio"`
	LiquidityScore       float64          `json:"liquidity_score" yaml:"liquidity_score"`
	RiskScore            float64          `json:"risk_score" yaml:"risk_score"`
	Details              []string         `json:"details" yaml:"details"`
	InsufficientData     bool             `json:"insufficient_data,omitempty" yaml:"insufficient_data,omitempty"`
}

// ExecutionAnalysis is the output of the execution analyzer.
type ExecutionAnalysis struct {
	MarketImpactBps      float64          `json:"market_impact_bps" yaml:"market_impact_bps"`
	SpreadCostBps        float64          `json:"spread_cost_bps" yaml:"spread_cost_bps"`
	CommissionBps        float64          `json:"commission_bps" yaml:"commission_bps"`
	SlippageEstimateBps  float64          `json:"slippage_estimate_bps" yaml:"slippage_estimate_bps"`
	TotalCostBps         float64          `json:"total_cost_bps" yaml:"total_cost_bps"`
	TotalCostValue       decimal.Decimal  `json:"total_cost_value" yaml:"total_cost_value"`
	ParticipationRate    float64          `json:"participation_rate" yaml:"participation_rate"`
	OptimalTradeSizePct  float64          `json:"optimal_trade_size_pct" yaml:"optimal_trade_size_pct"`
	ExecutionTimeMinutes float64          `json:"execution_time_minutes" yaml:"execution_time_minutes"`
	Urgency              ExecutionUrgency `json:"urgency" yaml:"urgency"`
	ExecutionScore       float64          `json:"execution_score" yaml:"execution_score"`
	Details              []string         `json:"details" yaml:"details"`
}
