// Package rateconv converts whole decoded tracks between sample rates.
//
// The converter is a Kaiser-windowed sinc held as a polyphase bank of
// numPhases+1 rows. Each output sample takes the dot product of the input
// window with the two rows around its sub-sample offset and interpolates
// linearly between them, so any rate pair works without a rational
// approximation. Conversion is meant for load time, never the audio
// goroutine.
package rateconv

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/tphakala/go-dj-deck/internal/simdops"
)

// ErrInvalidConfig indicates a rate pair or quality the converter cannot
// serve.
var ErrInvalidConfig = errors.New("invalid rate conversion configuration")

// Quality selects the filter's attenuation and passband.
type Quality int

const (
	// QualityLow trades passband width for a shorter filter.
	QualityLow Quality = iota

	// QualityMedium keeps 90% of the output band at ~100 dB rejection.
	QualityMedium

	// QualityHigh keeps 95% of the output band at ~125 dB rejection.
	QualityHigh
)

// String returns the quality name.
func (q Quality) String() string {
	switch q {
	case QualityLow:
		return "low"
	case QualityMedium:
		return "medium"
	case QualityHigh:
		return "high"
	default:
		return fmt.Sprintf("Quality(%d)", int(q))
	}
}

type design struct {
	passband    float64 // fraction of the output Nyquist
	stopband    float64
	attenuation float64 // dB
}

func (q Quality) design() (design, bool) {
	switch q {
	case QualityLow:
		return design{lowPassbandEnd, lowStopbandBegin, (lowQualityBits + 1) * dbPerBit}, true
	case QualityMedium:
		return design{mediumPassbandEnd, mediumStopbandBegin, (mediumQualityBits + 1) * dbPerBit}, true
	case QualityHigh:
		return design{highPassbandEnd, highStopbandBegin, (highQualityBits + 1) * dbPerBit}, true
	default:
		return design{}, false
	}
}

// Config describes one conversion.
type Config struct {
	InputRate  float64 // Hz
	OutputRate float64 // Hz
	Quality    Quality
}

// Validate checks the rates and quality.
func (c *Config) Validate() error {
	if !(c.InputRate > 0) || !(c.OutputRate > 0) || math.IsInf(c.InputRate, 0) || math.IsInf(c.OutputRate, 0) {
		return fmt.Errorf("%w: rates %v -> %v", ErrInvalidConfig, c.InputRate, c.OutputRate)
	}

	ratio := c.OutputRate / c.InputRate
	if ratio < minRatio || ratio > maxRatio {
		return fmt.Errorf("%w: ratio %.4f outside [%v, %v]", ErrInvalidConfig, ratio, minRatio, maxRatio)
	}

	if _, ok := c.Quality.design(); !ok {
		return fmt.Errorf("%w: unknown quality %v", ErrInvalidConfig, c.Quality)
	}
	return nil
}

// Converter resamples planar audio from one fixed rate to another. It is
// immutable after New and safe for concurrent use.
type Converter struct {
	cfg  Config
	step float64 // input frames per output frame
	taps int
	bank [][]float64 // [phase][tap], numPhases+1 rows
	ops  *simdops.Ops[float64]
}

// New designs the filter bank for cfg.
func New(cfg Config) (*Converter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d, _ := cfg.Quality.design()

	// Band edges as fractions of the input rate. Downsampling narrows
	// them to the output band.
	scale := min(1, cfg.OutputRate/cfg.InputRate)
	cutoff := scale * (d.passband + d.stopband) / 4
	transition := scale * (d.stopband - d.passband) / 2

	taps := int(math.Ceil(kaiserLength(d.attenuation, transition)))
	taps += taps % 2
	taps = max(minTapsPerPhase, min(maxTapsPerPhase, taps))

	// The prototype runs at numPhases times the input rate, centred on
	// taps*numPhases/2, and sums to numPhases so every phase has unity
	// DC gain.
	proto := lowPass(taps*numPhases+1, cutoff/numPhases, d.attenuation, numPhases)

	bank := make([][]float64, numPhases+1)
	for p := range bank {
		row := make([]float64, taps)
		for j := range row {
			row[j] = proto[(taps-1-j)*numPhases+p]
		}
		bank[p] = row
	}

	return &Converter{
		cfg:  cfg,
		step: cfg.InputRate / cfg.OutputRate,
		taps: taps,
		bank: bank,
		ops:  simdops.Float64Ops(),
	}, nil
}

// Config returns the configuration the converter was built from.
func (c *Converter) Config() Config {
	return c.cfg
}

// Taps returns the filter length per phase.
func (c *Converter) Taps() int {
	return c.taps
}

// OutputFrames returns the converted length of n input frames.
func (c *Converter) OutputFrames(n int) int {
	if n <= 0 {
		return 0
	}
	return max(1, int(math.Round(float64(n)/c.step)))
}

// Convert resamples every channel, one goroutine per channel. Output
// frame j sits at input time j*InputRate/OutputRate, so the converted
// audio is time-aligned with the input.
func (c *Converter) Convert(channels [][]float64) [][]float64 {
	out := make([][]float64, len(channels))

	var wg sync.WaitGroup
	for ch, in := range channels {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[ch] = c.convertChannel(in)
		}()
	}
	wg.Wait()

	return out
}

func (c *Converter) convertChannel(in []float64) []float64 {
	out := make([]float64, c.OutputFrames(len(in)))
	if len(out) == 0 {
		return out
	}

	// Input frame k lives at padded[k+half], zeros beyond both ends.
	half := c.taps / 2
	padded := make([]float64, len(in)+c.taps)
	copy(padded[half:], in)

	for j := range out {
		t := float64(j) * c.step
		k0 := int(t)
		frac := (t - float64(k0)) * numPhases
		p := min(int(frac), numPhases-1)
		sub := frac - float64(p)

		// Frames k0-half+1 .. k0+half.
		window := padded[k0+1 : k0+1+c.taps]
		a := c.ops.DotProductUnsafe(c.bank[p], window)
		b := c.ops.DotProductUnsafe(c.bank[p+1], window)
		out[j] = a + sub*(b-a)
	}
	return out
}
