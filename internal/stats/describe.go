package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Interval holds the center and empirical percentile bounds of a set of values.
type Interval struct {
	Mean float64 `json:"mean"`
	Lo   float64 `json:"lo"`
	Hi   float64 `json:"hi"`
	N    int     `json:"n"`
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	return stat.Mean(values, nil)
}

// StdDev returns the sample standard deviation (n-1 divisor), or 0 when fewer
// than 2 values exist.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0.0
	}
	return stat.StdDev(values, nil)
}

// RMSE returns the root-mean-squared error between predictions and truth.
// The slices must have equal, nonzero length; otherwise NaN is returned.
func RMSE(pred, truth []float64) float64 {
	if len(pred) == 0 || len(pred) != len(truth) {
		return math.NaN()
	}
	sum := 0.0
	for i := range pred {
		d := pred[i] - truth[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(pred)))
}

// PercentileInterval computes the mean and the [loPct, hiPct] empirical
// percentile bounds of values. Percentiles are expressed in percent, e.g.
// 2.5 and 97.5. A single value yields a degenerate interval with
// lo == hi == mean; an empty slice yields the zero Interval.
func PercentileInterval(values []float64, loPct, hiPct float64) Interval {
	n := len(values)
	if n == 0 {
		return Interval{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	return Interval{
		Mean: stat.Mean(sorted, nil),
		Lo:   stat.Quantile(loPct/100.0, stat.Empirical, sorted, nil),
		Hi:   stat.Quantile(hiPct/100.0, stat.Empirical, sorted, nil),
		N:    n,
	}
}

// AllFinite reports whether every value is neither NaN nor infinite.
func AllFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
