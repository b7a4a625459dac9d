package risk

import (
	"quant-engine/internal/analysis/stats"
)

// KellyCriterion returns f* = (p*b - q)/b clamped to [0, maxFraction].
// Probabilities outside (0, 1) or a non-positive payoff ratio yield 0.
func KellyCriterion(winProbability, winLossRatio, maxFraction float64) float64 {
	if winProbability <= 0 || winProbability >= 1 || winLossRatio <= 0 ||
		!stats.Finite(winProbability) || !stats.Finite(winLossRatio) {
		return 0
	}
	f := (winProbability*winLossRatio - (1 - winProbability)) / winLossRatio
	return stats.Clamp(f, 0, maxFraction)
}

// Kelly applies KellyCriterion with the configured fractional cap.
func (a *Analyzer) Kelly(winProbability, winLossRatio float64) float64 {
	return KellyCriterion(winProbability, winLossRatio, a.config.MaxKellyFraction)
}

// PositionSize scales the maximum position by confidence (0-100) and halves it
// at the maximum risk score.
func PositionSize(confidence, riskScore, maxPositionPct float64) float64 {
	size := confidence / 100 * maxPositionPct * (1 - riskScore/10*0.5)
	return stats.Clamp(size, 0, maxPositionPct)
}

// PositionSize applies PositionSize with the configured maximum position.
func (a *Analyzer) PositionSize(confidence, riskScore float64) float64 {
	return PositionSize(confidence, riskScore, a.config.MaxPositionPct)
}

// MaxPositionPct returns the configured maximum position, in percent of capital.
func (a *Analyzer) MaxPositionPct() float64 {
	return a.config.MaxPositionPct
}
