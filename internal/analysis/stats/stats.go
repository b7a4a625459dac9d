// Package stats provides the pure numeric primitives shared by the analyzers:
// returns, regressions, z-scores, Ornstein-Uhlenbeck half-life, Hurst exponent
// and pair cointegration.
package stats

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization factor for daily samples.
const TradingDaysPerYear = 252

// Clamp bounds v to [lo, hi]. NaN collapses to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Sign returns -1, 0 or 1.
func Sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Chronological returns a reversed copy of a newest-first series.
func Chronological(values []float64) []float64 {
	out := slices.Clone(values)
	slices.Reverse(out)
	return out
}

// Diff returns first differences y[t]-y[t-1] of a chronological series.
func Diff(values []float64) []float64 {
	if len(values) < 2 {
		return []float64{}
	}
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		out[i-1] = values[i] - values[i-1]
	}
	return out
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// StdDev returns the sample standard deviation, 0 with fewer than two values
// or a constant slice.
func StdDev(values []float64) float64 {
	if len(values) < 2 || IsConstant(values) {
		return 0
	}
	sd := stat.StdDev(values, nil)
	if !Finite(sd) {
		return 0
	}
	return sd
}

// PopStdDev returns the population standard deviation, 0 for an empty slice.
func PopStdDev(values []float64) float64 {
	if len(values) == 0 || IsConstant(values) {
		return 0
	}
	m := stat.Mean(values, nil)
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}

// ZScore returns (value-mean)/std, 0 when std is zero.
func ZScore(value, mean, std float64) float64 {
	if std == 0 || !Finite(std) {
		return 0
	}
	return (value - mean) / std
}

// Quantile returns the empirical p-quantile of values, 0 for an empty slice.
func Quantile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	sort.Float64s(sorted)
	return stat.Quantile(Clamp(p, 0, 1), stat.Empirical, sorted, nil)
}

// IsConstant reports whether every value equals the first. Empty slices are constant.
func IsConstant(values []float64) bool {
	for _, v := range values {
		if v != values[0] {
			return false
		}
	}
	return true
}

// Max returns the largest value, 0 for an empty slice.
func Max(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Max(values)
}

// Min returns the smallest value, 0 for an empty slice.
func Min(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Min(values)
}

// OLS fits y = alpha + beta*x by ordinary least squares.
// ok is false when the fit is undefined (fewer than two points or constant x).
func OLS(x, y []float64) (alpha, beta float64, ok bool) {
	n := min(len(x), len(y))
	if n < 2 {
		return 0, 0, false
	}
	x, y = x[:n], y[:n]
	if IsConstant(x) {
		return 0, 0, false
	}
	alpha, beta = stat.LinearRegression(x, y, nil, false)
	if !Finite(alpha) || !Finite(beta) {
		return 0, 0, false
	}
	return alpha, beta, true
}

// RSquared returns the coefficient of determination of an OLS fit of y on x,
// clamped to [0, 1]. A constant y yields 0.
func RSquared(x, y []float64) float64 {
	alpha, beta, ok := OLS(x, y)
	if !ok {
		return 0
	}
	n := min(len(x), len(y))
	if IsConstant(y[:n]) {
		return 0
	}
	return Clamp(stat.RSquared(x[:n], y[:n], nil, alpha, beta), 0, 1)
}

// Covariance returns the sample covariance of two equal-length slices.
func Covariance(x, y []float64) float64 {
	n := min(len(x), len(y))
	if n < 2 {
		return 0
	}
	return stat.Covariance(x[:n], y[:n], nil)
}

// Correlation returns the Pearson correlation clamped to [-1, 1], 0 when undefined.
func Correlation(x, y []float64) float64 {
	n := min(len(x), len(y))
	if n < 2 {
		return 0
	}
	if IsConstant(x[:n]) || IsConstant(y[:n]) {
		return 0
	}
	c := stat.Correlation(x[:n], y[:n], nil)
	if !Finite(c) {
		return 0
	}
	return Clamp(c, -1, 1)
}

// TimeIndex returns 0..n-1 as float64.
func TimeIndex(n int) []float64 {
	idx := make([]float64, n)
	for i := range idx {
		idx[i] = float64(i)
	}
	return idx
}
