// Package biquad implements second-order IIR sections and the RBJ low-pass
// and high-pass designs used by the deck's tone filters.
//
// Coefficients are immutable values; filter history lives in a separate
// State so one coefficient set can drive any number of channels, each with
// its own State.
package biquad

import (
	"math"
	"math/cmplx"
)

// DefaultQ is the Butterworth quality factor (1/√2).
const DefaultQ = 1 / math.Sqrt2

// maxNyquistFraction keeps designed cutoffs strictly below Nyquist, where
// the bilinear-transform design degenerates.
const maxNyquistFraction = 0.49

// Coefficients holds the transfer function coefficients for a single
// second-order section. a0 is normalized to 1 and not stored.
//
// The sign convention follows Direct Form II Transposed:
//
//	y  = B0*x + d0
//	d0 = B1*x - A1*y + d1
//	d1 = B2*x - A2*y
type Coefficients struct {
	B0, B1, B2 float64 // feedforward (numerator)
	A1, A2     float64 // feedback (denominator)
}

// Identity returns a pass-through coefficient set.
func Identity() Coefficients {
	return Coefficients{B0: 1}
}

// State is the delay-line memory of one section on one channel.
type State struct {
	d0, d1 float64
}

// Reset clears the delay line.
func (s *State) Reset() {
	s.d0 = 0
	s.d1 = 0
}

// ProcessSample filters one input sample and returns the output.
func (c *Coefficients) ProcessSample(s *State, x float64) float64 {
	y := c.B0*x + s.d0
	s.d0 = c.B1*x - c.A1*y + s.d1
	s.d1 = c.B2*x - c.A2*y
	return y
}

// ProcessBlock filters buf in place. Zero-alloc.
func (c *Coefficients) ProcessBlock(s *State, buf []float64) {
	b0, b1, b2 := c.B0, c.B1, c.B2
	a1, a2 := c.A1, c.A2
	d0, d1 := s.d0, s.d1

	for i, x := range buf {
		y := b0*x + d0
		d0 = b1*x - a1*y + d1
		d1 = b2*x - a2*y
		buf[i] = y
	}

	// flush denormals
	if math.Abs(d0) < denormalThreshold {
		d0 = 0
	}
	if math.Abs(d1) < denormalThreshold {
		d1 = 0
	}
	s.d0, s.d1 = d0, d1
}

const denormalThreshold = 1e-20

// MagnitudeAt returns the linear magnitude response at freq (Hz).
func (c *Coefficients) MagnitudeAt(freq, sampleRate float64) float64 {
	w := 2 * math.Pi * freq / sampleRate
	z1 := cmplx.Exp(complex(0, -w))
	z2 := z1 * z1
	num := complex(c.B0, 0) + complex(c.B1, 0)*z1 + complex(c.B2, 0)*z2
	den := 1 + complex(c.A1, 0)*z1 + complex(c.A2, 0)*z2
	return cmplx.Abs(num / den)
}

// Stable reports whether both poles lie inside the unit circle.
func (c *Coefficients) Stable() bool {
	// Jury criterion for z^2 + A1 z + A2.
	return math.Abs(c.A2) < 1 && math.Abs(c.A1) < 1+c.A2
}

// Lowpass designs an RBJ low-pass section at freq (Hz) with quality factor q.
func Lowpass(freq, q, sampleRate float64) Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return Identity()
	}

	q = normalizedQ(q)
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	b1 := 1 - cw
	b0 := b1 / 2
	b2 := b0

	return normalize(b0, b1, b2, 1+alpha, -2*cw, 1-alpha)
}

// Highpass designs an RBJ high-pass section at freq (Hz) with quality factor q.
func Highpass(freq, q, sampleRate float64) Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return Identity()
	}

	q = normalizedQ(q)
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	b0 := (1 + cw) / 2
	b1 := -(1 + cw)
	b2 := b0

	return normalize(b0, b1, b2, 1+alpha, -2*cw, 1-alpha)
}

// ClampFrequency limits freq to the designable range for sampleRate.
func ClampFrequency(freq, sampleRate float64) float64 {
	return min(freq, sampleRate*maxNyquistFraction)
}

func normalizedW0(freq, sampleRate float64) (float64, bool) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return 0, false
	}

	if freq <= 0 || math.IsNaN(freq) || math.IsInf(freq, 0) {
		return 0, false
	}

	freq = ClampFrequency(freq, sampleRate)
	return 2 * math.Pi * freq / sampleRate, true
}

func normalizedQ(q float64) float64 {
	if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return DefaultQ
	}
	return q
}

func normalize(b0, b1, b2, a0, a1, a2 float64) Coefficients {
	if a0 == 0 || math.IsNaN(a0) || math.IsInf(a0, 0) {
		return Identity()
	}

	return Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}
