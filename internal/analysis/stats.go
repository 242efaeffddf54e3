package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// present returns the non-NaN values of xs
func present(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}

// Percentile returns the p-quantile (0 <= p <= 1) of xs, skipping NaN.
// Values are interpolated linearly between the closest ranks at index p*(n-1).
// An input without values yields NaN.
func Percentile(xs []float64, p float64) float64 {
	values := present(xs)
	if len(values) == 0 || math.IsNaN(p) {
		return math.NaN()
	}
	sort.Float64s(values)

	pos := p * float64(len(values)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo < 0 {
		lo = 0
	}
	if hi >= len(values) {
		hi = len(values) - 1
	}
	if lo >= hi {
		return values[lo]
	}
	frac := pos - float64(lo)
	return values[lo] + (values[hi]-values[lo])*frac
}

// Median is the 0.5 percentile
func Median(xs []float64) float64 {
	return Percentile(xs, 0.5)
}

// Mean averages the non-NaN values of xs; NaN when there are none
func Mean(xs []float64) float64 {
	values := present(xs)
	if len(values) == 0 {
		return math.NaN()
	}
	return stat.Mean(values, nil)
}

// Pearson returns the correlation of x and y over the positions where both
// are present. Fewer than two such pairs or a constant side yields NaN.
func Pearson(x, y []float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}

	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 || constant(xs) || constant(ys) {
		return math.NaN()
	}

	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return r
	}
	return math.Max(-1, math.Min(1, r))
}

func constant(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}
