package deck

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-dj-deck/internal/biquad"
	"github.com/tphakala/go-dj-deck/internal/testutil"
)

func newTestFilters(t *testing.T, channels int) *FilterStage {
	t.Helper()
	f := NewFilterStage(channels, DefaultSampleRate, testLogger(t))
	require.NoError(t, f.Prepare(DefaultSampleRate, DefaultBlockSize))
	return f
}

// =============================================================================
// Configuration
// =============================================================================

func TestFilterStage_Defaults(t *testing.T) {
	f := NewFilterStage(stereoChannels, DefaultSampleRate, testLogger(t))
	assert.Equal(t, DefaultLowPassFrequency, f.LowPassFrequency())
	assert.Equal(t, DefaultHighPassFrequency, f.HighPassFrequency())
	assert.Equal(t, DefaultSampleRate, f.SampleRate())
}

func TestFilterStage_FallbackFrequencies(t *testing.T) {
	f := newTestFilters(t, stereoChannels)

	tests := []struct {
		name    string
		freq    float64
		wantLow float64
		wantHi  float64
	}{
		{"valid", 2500, 2500, 2500},
		{"upper bound", MaxFilterFrequency, MaxFilterFrequency, MaxFilterFrequency},
		{"zero", 0, FallbackLowPassFrequency, FallbackHighPassFrequency},
		{"negative", -10, FallbackLowPassFrequency, FallbackHighPassFrequency},
		{"above range", 20001, FallbackLowPassFrequency, FallbackHighPassFrequency},
		{"NaN", math.NaN(), FallbackLowPassFrequency, FallbackHighPassFrequency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantLow, f.SetLowPassFrequency(tt.freq))
			assert.Equal(t, tt.wantLow, f.LowPassFrequency())
			assert.Equal(t, tt.wantHi, f.SetHighPassFrequency(tt.freq))
			assert.Equal(t, tt.wantHi, f.HighPassFrequency())
		})
	}
}

func TestFilterStage_PrepareResetsToDefaultsAtNewRate(t *testing.T) {
	f := newTestFilters(t, stereoChannels)
	f.SetLowPassFrequency(800)
	f.SetHighPassFrequency(300)

	require.NoError(t, f.Prepare(96000, 256))
	assert.Equal(t, DefaultLowPassFrequency, f.LowPassFrequency())
	assert.Equal(t, DefaultHighPassFrequency, f.HighPassFrequency())
	assert.Equal(t, 96000.0, f.SampleRate())
	assert.Equal(t, biquad.Lowpass(DefaultLowPassFrequency, biquad.DefaultQ, 96000), f.LowPassCoefficients())
	assert.Equal(t, biquad.Highpass(DefaultHighPassFrequency, biquad.DefaultQ, 96000), f.HighPassCoefficients())
}

func TestFilterStage_DesignsAtCurrentRate(t *testing.T) {
	f := NewFilterStage(monoChannels, 48000, testLogger(t))
	f.SetLowPassFrequency(1000)
	assert.Equal(t, biquad.Lowpass(1000, biquad.DefaultQ, 48000), f.LowPassCoefficients())
}

// =============================================================================
// Processing
// =============================================================================

func TestFilterStage_RejectsUnusableBlocks(t *testing.T) {
	unprepared := NewFilterStage(stereoChannels, DefaultSampleRate, testLogger(t))
	buf := wrapBuffer([]float64{1, 2}, []float64{3, 4})
	assert.ErrorIs(t, unprepared.ProcessBlock(buf), ErrNotPrepared)
	assert.Equal(t, uint64(1), unprepared.Skipped())

	f := newTestFilters(t, stereoChannels)

	assert.ErrorIs(t, f.ProcessBlock(NewBuffer(0, 16)), ErrEmptyBlock)
	assert.ErrorIs(t, f.ProcessBlock(NewBuffer(2, 0)), ErrEmptyBlock)

	wide := wrapBuffer([]float64{1}, []float64{2}, []float64{3})
	assert.ErrorIs(t, f.ProcessBlock(wide), ErrTooManyChannels)
	assert.Equal(t, []float64{3}, wide.Channel(2), "rejected block must be untouched")

	assert.Equal(t, uint64(3), f.Skipped())
}

func TestFilterStage_DefaultsAreNearlyTransparent(t *testing.T) {
	f := newTestFilters(t, monoChannels)

	in := testutil.Sine(1000, DefaultSampleRate, 8192, 0.5)
	buf := wrapBuffer(append([]float64(nil), in...))
	require.NoError(t, f.ProcessBlock(buf))

	got := buf.Channel(0)[4096:]
	testutil.AssertRelativeError(t, testutil.RMS(in[4096:]), testutil.RMS(got), 0.01)
}

func TestFilterStage_LowPassAttenuatesHighs(t *testing.T) {
	f := newTestFilters(t, monoChannels)
	f.SetLowPassFrequency(1000)

	in := testutil.Sine(10000, DefaultSampleRate, 8192, 0.5)
	buf := wrapBuffer(append([]float64(nil), in...))
	require.NoError(t, f.ProcessBlock(buf))

	assert.Less(t, testutil.RMS(buf.Channel(0)[4096:]), 0.05*testutil.RMS(in))
}

func TestFilterStage_HighPassAttenuatesLows(t *testing.T) {
	f := newTestFilters(t, monoChannels)
	f.SetHighPassFrequency(2000)

	in := testutil.Sine(100, DefaultSampleRate, 16384, 0.5)
	buf := wrapBuffer(append([]float64(nil), in...))
	require.NoError(t, f.ProcessBlock(buf))

	assert.Less(t, testutil.RMS(buf.Channel(0)[8192:]), 0.01*testutil.RMS(in))
}

func TestFilterStage_ChannelsKeepSeparateState(t *testing.T) {
	f := newTestFilters(t, stereoChannels)
	f.SetLowPassFrequency(500)

	buf := wrapBuffer(make([]float64, 256), testutil.Sine(200, DefaultSampleRate, 256, 1))
	require.NoError(t, f.ProcessBlock(buf))

	testutil.AssertAllZero(t, buf.Channel(0))
	assert.Greater(t, testutil.RMS(buf.Channel(1)), 0.1)
}

func TestFilterStage_NarrowerBlockIsAccepted(t *testing.T) {
	f := newTestFilters(t, stereoChannels)
	buf := wrapBuffer(testutil.Constant(16, 0.5))
	assert.NoError(t, f.ProcessBlock(buf))
}
