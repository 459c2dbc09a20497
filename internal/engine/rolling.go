// internal/engine/rolling.go
package engine

import "math"

// RollingFunc computes a rolling aggregate over an ordered, gap-free daily
// series. Implementations are applied independently per (city, item) series
// so rolling values never leak across series boundaries.
type RollingFunc func(values []float64, window int) []float64

// RollingSum returns the trailing sum over the given window, inclusive of
// the current day. At the start of a series, where fewer than window values
// exist, the sum covers all available history (minimum one period).
func RollingSum(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		out[i] = sum
	}
	return out
}

// RollingStdDev returns the trailing sample standard deviation over the
// given window, inclusive of the current day. Windows with fewer than two
// points yield zero rather than an undefined value.
func RollingStdDev(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	var sum, sumSq float64
	for i, v := range values {
		sum += v
		sumSq += v * v
		if i >= window {
			old := values[i-window]
			sum -= old
			sumSq -= old * old
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = sampleStdDev(sum, sumSq, n)
	}
	return out
}

// sampleStdDev derives the sample standard deviation from running sums.
func sampleStdDev(sum, sumSq float64, n int) float64 {
	if n < 2 {
		return 0
	}
	variance := (sumSq - sum*sum/float64(n)) / float64(n-1)
	if variance <= 0 {
		// guard against negative variance from floating point cancellation
		return 0
	}
	return math.Sqrt(variance)
}

// ForwardSum computes, for each position, the sum of the NEXT horizon
// values (exclusive of the current one). lastValid is the index of the last
// trustworthy value in the series; positions whose forward window extends
// past it are marked invalid, since future demand does not exist there.
func ForwardSum(values []float64, horizon, lastValid int) ([]float64, []bool) {
	out := make([]float64, len(values))
	ok := make([]bool, len(values))
	if lastValid >= len(values) {
		lastValid = len(values) - 1
	}
	var sum float64
	// walk backwards keeping a running sum of the next horizon values
	for i := len(values) - 1; i >= 0; i-- {
		if i+1 < len(values) {
			sum += values[i+1]
		}
		if i+horizon+1 < len(values) {
			sum -= values[i+horizon+1]
		}
		if i+horizon <= lastValid {
			out[i] = sum
			ok[i] = true
		}
	}
	return out, ok
}
