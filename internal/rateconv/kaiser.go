package rateconv

import (
	"math"

	"github.com/tphakala/go-dj-deck/internal/simdops"
)

// besselI0 returns the zeroth-order modified Bessel function of the first
// kind, accurate to ~2e-7 relative.
func besselI0(x float64) float64 {
	ax := math.Abs(x)

	if ax < besselSmallArgThreshold {
		t := x / besselSmallArgThreshold
		t *= t
		return besselSmallC0 + t*(besselSmallC1+t*(besselSmallC2+t*(besselSmallC3+
			t*(besselSmallC4+t*(besselSmallC5+t*besselSmallC6)))))
	}

	t := besselSmallArgThreshold / ax
	r := besselLargeC0 + t*(besselLargeC1+t*(besselLargeC2+t*(besselLargeC3+
		t*(besselLargeC4+t*(besselLargeC5+t*(besselLargeC6+t*(besselLargeC7+t*besselLargeC8)))))))
	return math.Exp(ax) * r / math.Sqrt(ax)
}

// kaiserBeta maps a stopband attenuation in dB to the Kaiser β.
func kaiserBeta(attenuation float64) float64 {
	switch {
	case attenuation > kaiserHighAttenuationThreshold:
		return kaiserHighAttenuationCoeff * (attenuation - kaiserHighAttenuationOffset)
	case attenuation >= kaiserMediumAttenuationThreshold:
		d := attenuation - kaiserMediumAttenuationThreshold
		return kaiserMediumAttenuationCoeff*math.Pow(d, kaiserMediumAttenuationExp) + kaiserMediumLinearCoeff*d
	default:
		return 0
	}
}

// kaiserLength estimates the taps needed for attenuation over a transition
// band given as a fraction of the sample rate.
func kaiserLength(attenuation, transition float64) float64 {
	return (attenuation - kaiserLengthOffset) / (kaiserLengthMultiplier * twoPi * transition)
}

// kaiserWindow returns a symmetric Kaiser window peaking at 1.
func kaiserWindow(length int, beta float64) []float64 {
	if length < 1 {
		return nil
	}
	window := make([]float64, length)
	if length == 1 {
		window[0] = 1
		return window
	}

	alpha := float64(length-1) / 2
	i0Beta := besselI0(beta)
	for n := range window {
		x := (float64(n) - alpha) / alpha
		window[n] = besselI0(beta*math.Sqrt(max(0, 1-x*x))) / i0Beta
	}
	return window
}

// lowPass designs a Kaiser-windowed sinc of the given length. cutoff is a
// fraction of the sample rate and the taps are scaled to sum to gain.
func lowPass(length int, cutoff, attenuation, gain float64) []float64 {
	h := kaiserWindow(length, kaiserBeta(attenuation))
	center := float64(length-1) / 2

	for n := range h {
		x := float64(n) - center
		if math.Abs(x) < sincZeroThreshold {
			h[n] *= 2 * cutoff
			continue
		}
		h[n] *= math.Sin(twoPi*cutoff*x) / (math.Pi * x)
	}

	ops := simdops.Float64Ops()
	if sum := ops.Sum(h); math.Abs(sum) > sincZeroThreshold {
		ops.Scale(h, h, gain/sum)
	}
	return h
}
