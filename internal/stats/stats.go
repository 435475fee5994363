// Package stats provides the numeric primitives behind flow feature
// extraction. Values are accumulated in fixed-width lane groups with a
// scalar pass over the remainder, which keeps the loops friendly to
// auto-vectorization while staying numerically equivalent to the naive
// single-pass formulas. All functions are pure and safe for concurrent use.
package stats

import "math"

// lanes is the accumulator group width.
const lanes = 4

// Summary holds the four statistics every feature group needs.
type Summary struct {
	Mean float64
	Std  float64
	Min  float64
	Max  float64
}

// Sum adds the values using lane-grouped accumulation.
func Sum(values []float64) float64 {
	var acc [lanes]float64
	n := len(values)
	groups := n / lanes

	for i := 0; i < groups; i++ {
		base := i * lanes
		acc[0] += values[base]
		acc[1] += values[base+1]
		acc[2] += values[base+2]
		acc[3] += values[base+3]
	}

	total := acc[0] + acc[1] + acc[2] + acc[3]
	for _, v := range values[groups*lanes:] {
		total += v
	}
	return total
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Sum(values) / float64(len(values))
}

// StdDev returns the sample standard deviation (n-1 divisor) around the
// given mean. Slices of length 0 or 1 yield 0.
func StdDev(values []float64, mean float64) float64 {
	n := len(values)
	if n <= 1 {
		return 0
	}

	var acc [lanes]float64
	groups := n / lanes

	for i := 0; i < groups; i++ {
		base := i * lanes
		d0 := values[base] - mean
		d1 := values[base+1] - mean
		d2 := values[base+2] - mean
		d3 := values[base+3] - mean
		acc[0] += d0 * d0
		acc[1] += d1 * d1
		acc[2] += d2 * d2
		acc[3] += d3 * d3
	}

	sumSq := acc[0] + acc[1] + acc[2] + acc[3]
	for _, v := range values[groups*lanes:] {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// MinMax returns the extrema, or (0, 0) for an empty slice.
func MinMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}

	var minAcc, maxAcc [lanes]float64
	for i := range minAcc {
		minAcc[i] = math.Inf(1)
		maxAcc[i] = math.Inf(-1)
	}

	groups := len(values) / lanes
	for i := 0; i < groups; i++ {
		base := i * lanes
		for l := 0; l < lanes; l++ {
			v := values[base+l]
			if v < minAcc[l] {
				minAcc[l] = v
			}
			if v > maxAcc[l] {
				maxAcc[l] = v
			}
		}
	}

	lo, hi := minAcc[0], maxAcc[0]
	for l := 1; l < lanes; l++ {
		if minAcc[l] < lo {
			lo = minAcc[l]
		}
		if maxAcc[l] > hi {
			hi = maxAcc[l]
		}
	}
	// The remainder pass also repairs the infinite seeds when the input is
	// shorter than one lane group.
	for _, v := range values[groups*lanes:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Describe computes all four statistics in one call. Empty input yields the
// zero Summary; it never produces NaN.
func Describe(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	mean := Mean(values)
	lo, hi := MinMax(values)
	return Summary{
		Mean: mean,
		Std:  StdDev(values, mean),
		Min:  lo,
		Max:  hi,
	}
}
