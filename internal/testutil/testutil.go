// Package testutil provides small signal helpers shared by package tests.
package testutil

import "math"

// Sine generates a deterministic sine wave.
func Sine(freqHz, amplitude, sampleRate float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// Ones returns a slice of length n filled with 1.0.
func Ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

// PeakAbs returns the largest absolute value in data, 0 for an empty slice.
func PeakAbs(data []float64) float64 {
	peak := 0.0
	for _, v := range data {
		if av := math.Abs(v); av > peak {
			peak = av
		}
	}
	return peak
}
