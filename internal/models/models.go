// Package models provides the result records and enumerations produced by the analysis engine.
package models

import (
	"encoding/json"
	"math"
)

// PriceSeries is an ordered sequence of prices, newest first.
type PriceSeries []float64

// Len returns the number of observations.
func (p PriceSeries) Len() int {
	return len(p)
}

// Current returns the newest price, or 0 for an empty series.
func (p PriceSeries) Current() float64 {
	if len(p) == 0 {
		return 0
	}
	return p[0]
}

// Returns derives the simple return series price[i]/price[i+1] - 1, newest first.
// A zero denominator contributes a zero return.
func (p PriceSeries) Returns() ReturnSeries {
	if len(p) < 2 {
		return ReturnSeries{}
	}
	returns := make(ReturnSeries, len(p)-1)
	for i := 0; i < len(p)-1; i++ {
		if p[i+1] != 0 {
			returns[i] = p[i]/p[i+1] - 1
		}
	}
	return returns
}

// ReturnSeries is a derived sequence of simple returns, newest first.
type ReturnSeries []float64

// HalfLife is a mean-reversion half-life in bars. +Inf means no reversion was detected.
type HalfLife float64

// NoHalfLife is the half-life reported when a spread does not revert.
var NoHalfLife = HalfLife(math.Inf(1))

// IsInfinite reports whether the half-life is unbounded.
func (h HalfLife) IsInfinite() bool {
	return math.IsInf(float64(h), 0)
}

// MarshalJSON encodes an infinite half-life as null.
func (h HalfLife) MarshalJSON() ([]byte, error) {
	if h.IsInfinite() || math.IsNaN(float64(h)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(h))
}

// MarshalYAML encodes an infinite half-life as null.
func (h HalfLife) MarshalYAML() (interface{}, error) {
	if h.IsInfinite() || math.IsNaN(float64(h)) {
		return nil, nil
	}
	return float64(h), nil
}

// PairsSignal is the pairs-trading action.
type PairsSignal string

const (
	PairsLongSpread  PairsSignal = "long_spread"
	PairsShortSpread PairsSignal = "short_spread"
	PairsNeutral     PairsSignal = "neutral"
)

// MarketRegime classifies the trailing return/volatility state of a series.
type MarketRegime string

const (
	RegimeBull       MarketRegime = "bull"
	RegimeBear       MarketRegime = "bear"
	RegimeSideways   MarketRegime = "sideways"
	RegimeTransition MarketRegime = "transition"
)

// VolatilityRegime buckets annualized volatility.
type VolatilityRegime string

const (
	VolatilityLow     VolatilityRegime = "low"     // < 12%
	VolatilityNormal  VolatilityRegime = "normal"  // < 20%
	VolatilityHigh    VolatilityRegime = "high"    // < 35%
	VolatilityExtreme VolatilityRegime = "extreme" // >= 35%
)

// ExecutionUrgency is the recommended execution style.
type ExecutionUrgency string

const (
	UrgencyImmediate ExecutionUrgency = "immediate"
	UrgencyPatient   ExecutionUrgency = "patient"
	UrgencyAvoid     ExecutionUrgency = "avoid"
)

// DecisionSignal is the directional call of a decision.
type DecisionSignal string

const (
	SignalBullish DecisionSignal = "bullish"
	SignalBearish DecisionSignal = "bearish"
	SignalNeutral DecisionSignal = "neutral"
)
