package rateconv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBesselI0(t *testing.T) {
	tests := []struct {
		x    float64
		want float64
	}{
		{0, 1},
		{1, 1.2660658777520082},
		{-1, 1.2660658777520082},
		{3, 4.880792585865024},
		{5, 27.239871823604442},
		{10, 2815.716628466254},
	}

	for _, tt := range tests {
		got := besselI0(tt.x)
		assert.InEpsilon(t, tt.want, got, 1e-6, "I0(%v)", tt.x)
	}
}

func TestKaiserBeta(t *testing.T) {
	assert.InDelta(t, 0.1102*(102.35-8.7), kaiserBeta(102.35), 1e-12)
	assert.InDelta(t, 0.5842*math.Pow(9, 0.4)+0.07886*9, kaiserBeta(30), 1e-12)
	assert.Equal(t, 0.0, kaiserBeta(20))
}

func TestKaiserWindow_SymmetricWithUnitPeak(t *testing.T) {
	w := kaiserWindow(101, 8)
	require.Len(t, w, 101)

	assert.InDelta(t, 1.0, w[50], 1e-12)
	assert.InDelta(t, 1/besselI0(8), w[0], 1e-12)
	for i := range w {
		assert.InDelta(t, w[i], w[len(w)-1-i], 1e-12)
	}

	assert.Empty(t, kaiserWindow(0, 8))
	assert.Equal(t, []float64{1}, kaiserWindow(1, 8))
}

func TestLowPass_SumsToGain(t *testing.T) {
	h := lowPass(255, 0.1, 80, 4)
	sum := 0.0
	for _, v := range h {
		sum += v
	}
	assert.InDelta(t, 4.0, sum, 1e-9)

	// Linear phase.
	for i := range h {
		assert.InDelta(t, h[i], h[len(h)-1-i], 1e-12)
	}
}
