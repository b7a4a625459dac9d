package stats

import (
	"math"
)

// DefaultHurst is reported when too few lags produce a usable dispersion.
const DefaultHurst = 0.5

// maxHurstLag caps the lags used by Hurst.
const maxHurstLag = 20

// HalfLife estimates the Ornstein-Uhlenbeck half-life of a newest-first series.
//
// It regresses dy[t] = y[t]-y[t-1] on y[t-1] in chronological order. The
// estimate is rejected when the slope is non-negative, or when -ln(2)/beta is
// negative or longer than the series.
func HalfLife(series []float64) (float64, bool) {
	if len(series) < 3 {
		return 0, false
	}
	y := Chronological(series)
	lagged := y[:len(y)-1]
	delta := Diff(y)

	_, beta, ok := OLS(lagged, delta)
	if !ok || beta >= 0 {
		return 0, false
	}
	hl := -math.Ln2 / beta
	if hl < 0 || hl > float64(len(series)) || !Finite(hl) {
		return 0, false
	}
	return hl, true
}

// Hurst estimates the Hurst exponent of a newest-first series.
//
// For each lag in 2..min(20, n/2) the lagged differences y[t+lag]-y[t] of the
// chronological series are taken and their standard deviation about the
// lag's own mean measured. That dispersion grows as lag^H, so the slope of
// log(deviation) against log(lag) is the estimate, clamped to [0, 1]: about
// 0.5 for a random walk, lower for a mean-reverting series and higher for a
// persistent one. Fewer than three lags with non-zero dispersion yields
// DefaultHurst.
func Hurst(series []float64) float64 {
	n := len(series)
	maxLag := min(maxHurstLag, n/2)
	if maxLag < 2 {
		return DefaultHurst
	}

	chrono := Chronological(series)
	scale := math.Max(1, math.Abs(Mean(chrono)))

	var logLags, logDeviations []float64
	for lag := 2; lag <= maxLag; lag++ {
		dev := lagDeviation(chrono, lag)
		if dev <= scale*1e-12 || !Finite(dev) {
			continue
		}
		logLags = append(logLags, math.Log(float64(lag)))
		logDeviations = append(logDeviations, math.Log(dev))
	}

	if len(logLags) < 3 {
		return DefaultHurst
	}
	_, slope, ok := OLS(logLags, logDeviations)
	if !ok || !Finite(slope) {
		return DefaultHurst
	}
	return Clamp(slope, 0, 1)
}

// lagDeviation is the population standard deviation of the lag-step
// differences of a chronological series.
func lagDeviation(chrono []float64, lag int) float64 {
	diffs := make([]float64, len(chrono)-lag)
	for t := range diffs {
		diffs[t] = chrono[t+lag] - chrono[t]
	}
	return PopStdDev(diffs)
}

// Cointegration summarizes the equilibrium relationship between two series.
type Cointegration struct {
	HedgeRatio   float64
	Intercept    float64
	Spread       []float64 // newest first
	SpreadMean   float64
	SpreadStd    float64
	SpreadZScore float64
	Hurst        float64
	Score        float64
	HalfLife     float64
	HasHalfLife  bool
	Observations int
}

// Cointegrate fits a over b, forms the spread a - h*b and scores its mean reversion.
// Series are aligned newest-first and truncated to the shorter length.
func Cointegrate(a, b []float64) (Cointegration, bool) {
	n := min(len(a), len(b))
	if n < 3 {
		return Cointegration{Observations: n, Hurst: DefaultHurst}, false
	}
	a, b = a[:n], b[:n]

	intercept, hedge, ok := OLS(b, a)
	if !ok {
		return Cointegration{Observations: n, Hurst: DefaultHurst}, false
	}

	spread := make([]float64, n)
	for i := range spread {
		spread[i] = a[i] - hedge*b[i]
	}

	c := Cointegration{
		HedgeRatio:   hedge,
		Intercept:    intercept,
		Spread:       spread,
		SpreadMean:   Mean(spread),
		SpreadStd:    StdDev(spread),
		Hurst:        Hurst(spread),
		Observations: n,
	}
	c.SpreadZScore = ZScore(spread[0], c.SpreadMean, c.SpreadStd)
	c.Score = CointegrationScore(c.Hurst)
	c.HalfLife, c.HasHalfLife = HalfLife(spread)
	return c, true
}

// CointegrationScore maps a spread Hurst exponent to [0, 1]; trending or random-walk spreads score 0.
func CointegrationScore(hurst float64) float64 {
	if hurst >= 0.5 {
		return 0
	}
	return Clamp(1-2*hurst, 0, 1)
}
