package deck

import (
	"math"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/tphakala/go-dj-deck/internal/biquad"
	"github.com/tphakala/go-dj-deck/internal/pipeline"
)

// filterDesign is an immutable coefficient set together with the
// frequency it was designed for.
type filterDesign struct {
	coeffs    biquad.Coefficients
	frequency float64
}

// FilterStage applies a low-pass and then a high-pass biquad to every
// channel in place. Each filter's coefficients are swapped atomically as a
// whole; filter history lives in per-channel state arrays indexed by
// channel number and is only touched by the audio goroutine.
type FilterStage struct {
	log      zerolog.Logger
	channels int

	sampleRate atomic.Uint64 // float64 bits
	lowPass    atomic.Pointer[filterDesign]
	highPass   atomic.Pointer[filterDesign]

	lowState  []biquad.State
	highState []biquad.State

	skipped atomic.Uint64
}

// NewFilterStage creates an open filter pair designed at sampleRate.
func NewFilterStage(channels int, sampleRate float64, logger zerolog.Logger) *FilterStage {
	f := &FilterStage{
		log:      logger.With().Str("component", "filters").Logger(),
		channels: channels,
	}
	f.sampleRate.Store(math.Float64bits(sampleRate))
	f.reset(sampleRate)
	return f
}

func (f *FilterStage) reset(sampleRate float64) {
	f.lowPass.Store(designLowPass(DefaultLowPassFrequency, sampleRate))
	f.highPass.Store(designHighPass(DefaultHighPassFrequency, sampleRate))
}

func designLowPass(freq, sampleRate float64) *filterDesign {
	return &filterDesign{coeffs: biquad.Lowpass(freq, biquad.DefaultQ, sampleRate), frequency: freq}
}

func designHighPass(freq, sampleRate float64) *filterDesign {
	return &filterDesign{coeffs: biquad.Highpass(freq, biquad.DefaultQ, sampleRate), frequency: freq}
}

// Prepare rebuilds both filters at their open defaults (20 kHz low-pass,
// 20 Hz high-pass) for sampleRate and clears all channel history.
func (f *FilterStage) Prepare(sampleRate float64, blockSize int) error {
	if err := pipeline.ValidateSpec(blockSize, sampleRate); err != nil {
		return err
	}

	f.sampleRate.Store(math.Float64bits(sampleRate))
	f.reset(sampleRate)

	if len(f.lowState) != f.channels {
		f.lowState = make([]biquad.State, f.channels)
		f.highState = make([]biquad.State, f.channels)
	}
	for ch := range f.channels {
		f.lowState[ch].Reset()
		f.highState[ch].Reset()
	}
	return nil
}

// Release drops the channel state. Safe to call repeatedly.
func (f *FilterStage) Release() {
	f.lowState = nil
	f.highState = nil
}

// SampleRate returns the rate the filters are designed for.
func (f *FilterStage) SampleRate() float64 {
	return math.Float64frombits(f.sampleRate.Load())
}

// SetLowPassFrequency sets the low-pass cutoff. A frequency outside
// (0, 20000] is replaced by 1000 Hz. Returns the frequency applied.
func (f *FilterStage) SetLowPassFrequency(freq float64) float64 {
	if !validFilterFrequency(freq) {
		f.log.Debug().Float64("requested", freq).Float64("applied", FallbackLowPassFrequency).
			Msg("low-pass frequency out of range, using fallback")
		freq = FallbackLowPassFrequency
	}
	f.lowPass.Store(designLowPass(freq, f.SampleRate()))
	return freq
}

// SetHighPassFrequency sets the high-pass cutoff. A frequency outside
// (0, 20000] is replaced by 500 Hz. Returns the frequency applied.
func (f *FilterStage) SetHighPassFrequency(freq float64) float64 {
	if !validFilterFrequency(freq) {
		f.log.Debug().Float64("requested", freq).Float64("applied", FallbackHighPassFrequency).
			Msg("high-pass frequency out of range, using fallback")
		freq = FallbackHighPassFrequency
	}
	f.highPass.Store(designHighPass(freq, f.SampleRate()))
	return freq
}

func validFilterFrequency(freq float64) bool {
	return freq > 0 && freq <= MaxFilterFrequency
}

// LowPassFrequency returns the configured low-pass cutoff.
func (f *FilterStage) LowPassFrequency() float64 {
	return f.lowPass.Load().frequency
}

// HighPassFrequency returns the configured high-pass cutoff.
func (f *FilterStage) HighPassFrequency() float64 {
	return f.highPass.Load().frequency
}

// LowPassCoefficients returns the active low-pass coefficients.
func (f *FilterStage) LowPassCoefficients() biquad.Coefficients {
	return f.lowPass.Load().coeffs
}

// HighPassCoefficients returns the active high-pass coefficients.
func (f *FilterStage) HighPassCoefficients() biquad.Coefficients {
	return f.highPass.Load().coeffs
}

// ProcessBlock filters buf in place, low-pass first. A block with zero
// channels or samples returns ErrEmptyBlock and a block wider than the
// prepared channel count returns ErrTooManyChannels; either way the buffer
// is left untouched and the skip is counted.
func (f *FilterStage) ProcessBlock(buf *Buffer) error {
	if buf.Empty() {
		f.skipped.Add(1)
		return ErrEmptyBlock
	}
	if f.lowState == nil {
		f.skipped.Add(1)
		return ErrNotPrepared
	}
	if buf.NumChannels() > len(f.lowState) {
		f.skipped.Add(1)
		return ErrTooManyChannels
	}

	lp := f.lowPass.Load()
	hp := f.highPass.Load()
	for ch := range buf.NumChannels() {
		data := buf.Channel(ch)
		lp.coeffs.ProcessBlock(&f.lowState[ch], data)
		hp.coeffs.ProcessBlock(&f.highState[ch], data)
	}
	return nil
}

// Skipped returns the number of blocks rejected by ProcessBlock.
func (f *FilterStage) Skipped() uint64 {
	return f.skipped.Load()
}
