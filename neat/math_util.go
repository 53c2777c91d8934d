package neat

import (
	"math"
	"sort"
)

// clamp restricts value to [lo, hi].
func clamp(value, lo, hi float64) float64 {
	return math.Max(lo, math.Min(value, hi))
}

// --- Statistical Functions ---

// Sum adds up values.
func Sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

// Mean is the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	return Sum(values) / float64(len(values))
}

// Stdev is the sample standard deviation of values. Fewer than two values
// yield 0.
func Stdev(values []float64) float64 {
	if len(values) < 2 {
		return 0.0
	}
	mean := Mean(values)
	squares := 0.0
	for _, v := range values {
		squares += (v - mean) * (v - mean)
	}
	return math.Sqrt(squares / float64(len(values)-1))
}

// MaxFloat returns the largest value, or -Inf for an empty slice.
func MaxFloat(values []float64) float64 {
	best := math.Inf(-1)
	for _, v := range values {
		best = math.Max(best, v)
	}
	return best
}

// MinFloat returns the smallest value, or +Inf for an empty slice.
func MinFloat(values []float64) float64 {
	best := math.Inf(1)
	for _, v := range values {
		best = math.Min(best, v)
	}
	return best
}

// Median returns the middle value (mean of the two middle values for even
// lengths), or NaN for an empty slice. values is not modified.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2.0
}

// StatFunctions are the reductions accepted by SpeciesFitnessFunc.
var StatFunctions = map[string]func([]float64) float64{
	"mean":   Mean,
	"median": Median,
	"max":    MaxFloat,
	"min":    MinFloat,
	"sum":    Sum,
}
