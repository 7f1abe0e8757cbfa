package rateconv

import "math"

// Polyphase bank geometry
const (
	// numPhases is the number of sub-sample filter phases. Coefficients
	// between two phases are interpolated linearly.
	numPhases = 256

	// Taps per phase are kept even so the filter centre falls between
	// the two middle taps.
	minTapsPerPhase = 16
	maxTapsPerPhase = 512
)

// Resampling ratio limits
const (
	minRatio = 1.0 / 256.0
	maxRatio = 256.0
)

// Attenuation targets. Every extra bit of precision buys ~6.02 dB.
const (
	dbPerBit = 6.0206

	lowQualityBits    = 16
	mediumQualityBits = 16
	highQualityBits   = 20
)

// Passband end and stopband start as fractions of the output Nyquist
// frequency.
const (
	lowPassbandEnd      = 0.80
	lowStopbandBegin    = 0.95
	mediumPassbandEnd   = 0.90
	mediumStopbandBegin = 0.98
	highPassbandEnd     = 0.95
	highStopbandBegin   = 0.99
)

// Kaiser design constants
const (
	// Kaiser β thresholds (dB)
	kaiserHighAttenuationThreshold   = 50.0
	kaiserMediumAttenuationThreshold = 21.0

	// Kaiser β formula coefficients
	kaiserHighAttenuationCoeff   = 0.1102
	kaiserHighAttenuationOffset  = 8.7
	kaiserMediumAttenuationCoeff = 0.5842
	kaiserMediumAttenuationExp   = 0.4
	kaiserMediumLinearCoeff      = 0.07886

	// Kaiser length estimate: N = (A - 8) / (2.285 · 2π · Δf)
	kaiserLengthOffset     = 8.0
	kaiserLengthMultiplier = 2.285

	sincZeroThreshold = 1e-10
)

// Modified Bessel function I₀, Abramowitz and Stegun 9.8.1 and 9.8.2.
const (
	besselSmallArgThreshold = 3.75

	besselSmallC0 = 1.0
	besselSmallC1 = 3.5156229
	besselSmallC2 = 3.0899424
	besselSmallC3 = 1.2067492
	besselSmallC4 = 0.2659732
	besselSmallC5 = 0.0360768
	besselSmallC6 = 0.0045813

	besselLargeC0 = 0.39894228
	besselLargeC1 = 0.01328592
	besselLargeC2 = 0.00225319
	besselLargeC3 = -0.00157565
	besselLargeC4 = 0.00916281
	besselLargeC5 = -0.02057706
	besselLargeC6 = 0.02635537
	besselLargeC7 = -0.01647633
	besselLargeC8 = 0.00392377
)

const twoPi = 2 * math.Pi
