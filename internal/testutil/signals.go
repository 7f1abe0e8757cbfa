package testutil

import "math"

// Sine returns n samples of a sine at freq Hz.
func Sine(freq, sampleRate float64, n int, amplitude float64) []float64 {
	out := make([]float64, n)
	w := 2 * math.Pi * freq / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(w*float64(i))
	}
	return out
}

// Ramp returns 0, step, 2*step, ...
func Ramp(n int, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) * step
	}
	return out
}

// Constant returns n copies of v.
func Constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Impulse returns a unit impulse at index 0.
func Impulse(n int) []float64 {
	out := make([]float64, n)
	if n > 0 {
		out[0] = 1
	}
	return out
}

// RMS returns the root-mean-square of s.
func RMS(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(s)))
}
