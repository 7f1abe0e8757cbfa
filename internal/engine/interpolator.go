// Package engine implements the variable-rate interpolator behind the deck's
// speed control.
package engine

import (
	"fmt"
	"math"

	"github.com/tphakala/go-dj-deck/internal/pipeline"
)

// Interpolation selects the interpolation kernel.
type Interpolation int

const (
	// InterpolationCubic uses 4-point, 3rd order Hermite interpolation.
	InterpolationCubic Interpolation = iota

	// InterpolationLinear uses 2-point interpolation. Cheaper, duller highs.
	InterpolationLinear
)

// String returns the kernel name.
func (i Interpolation) String() string {
	switch i {
	case InterpolationCubic:
		return "cubic"
	case InterpolationLinear:
		return "linear"
	default:
		return fmt.Sprintf("Interpolation(%d)", int(i))
	}
}

// Interpolator resamples an upstream Source by a ratio that may change on
// every block. The ratio is the number of input samples consumed per output
// sample, so 2.0 plays twice as fast and 0.5 half as fast. There is no
// pitch correction.
//
// Each channel keeps its own 4-sample history while all channels share one
// phase accumulator, so channels stay sample-aligned.
type Interpolator struct {
	upstream pipeline.Source
	kernel   Interpolation
	channels int

	in      *pipeline.Buffer
	inPos   int
	pending int // advances still owed to the current block

	history [][cubicInterpolationPoints]float64 // [ch][0] is the newest sample
	outs    [][]float64
	phase   float64
}

// NewInterpolator creates an interpolator that pulls from upstream.
func NewInterpolator(upstream pipeline.Source, channels int, kernel Interpolation) *Interpolator {
	return &Interpolator{
		upstream: upstream,
		kernel:   kernel,
		channels: channels,
	}
}

// Prepare allocates the input chunk and history for blockSize and resets
// the phase. The upstream source is prepared by its owner.
func (it *Interpolator) Prepare(blockSize int, sampleRate float64) error {
	if err := pipeline.ValidateSpec(blockSize, sampleRate); err != nil {
		return err
	}

	it.in = pipeline.NewBuffer(it.channels, blockSize)
	it.inPos = blockSize
	it.history = make([][cubicInterpolationPoints]float64, it.channels)
	it.outs = make([][]float64, it.channels)
	it.phase = primedPhase
	return nil
}

// Release drops the buffers allocated in Prepare.
func (it *Interpolator) Release() {
	it.in = nil
	it.history = nil
	it.outs = nil
}

// Prepared reports whether Prepare has run since the last Release.
func (it *Interpolator) Prepared() bool {
	return it.in != nil
}

// Reset clears history and phase and drops any buffered input, so the next
// Process starts from whatever upstream produces next.
func (it *Interpolator) Reset() {
	for ch := range it.history {
		it.history[ch] = [cubicInterpolationPoints]float64{}
	}
	it.phase = primedPhase
	if it.in != nil {
		it.inPos = it.in.NumSamples()
	}
}

// Latency returns the kernel's delay in input samples.
func (it *Interpolator) Latency() int {
	if it.kernel == InterpolationLinear {
		return linearLatencySamples
	}
	return cubicLatencySamples
}

// Process fills out with resampled audio at the given ratio.
// A ratio of zero (or less) freezes the read cursor and outputs silence.
// Channels of out beyond the prepared channel count are zeroed.
func (it *Interpolator) Process(out *pipeline.Buffer, ratio float64) {
	if it.in == nil || out.Empty() {
		out.Clear()
		return
	}

	if !(ratio > 0) {
		out.Clear()
		return
	}

	chans := min(out.NumChannels(), it.channels)
	for ch := range chans {
		it.outs[ch] = out.Channel(ch)
	}
	for ch := chans; ch < out.NumChannels(); ch++ {
		clear(out.Channel(ch))
	}

	n := out.NumSamples()
	// Advances through sample i total floor(phase + i*ratio). Pulls are
	// sized to that count so upstream changes land on the next block.
	it.pending = int(math.Floor(it.phase + ratio*float64(n-1)))
	for i := range n {
		for it.phase >= 1 {
			it.advance()
			it.phase--
		}

		x := it.phase
		if it.kernel == InterpolationLinear {
			for ch := range chans {
				h := &it.history[ch]
				it.outs[ch][i] = (1-x)*h[2] + x*h[1]
			}
		} else {
			for ch := range chans {
				it.outs[ch][i] = hermite(&it.history[ch], x)
			}
		}

		it.phase += ratio
	}
}

// advance shifts one input frame into every channel's history, refilling
// the input chunk from upstream when it runs dry. A refill asks for no more
// frames than the current block still needs.
func (it *Interpolator) advance() {
	if it.inPos >= it.in.NumSamples() {
		it.in.SetNumSamples(max(1, min(it.in.Capacity(), it.pending)))
		it.upstream.Read(it.in)
		it.inPos = 0
	}
	it.pending--

	for ch := range it.history {
		h := &it.history[ch]
		h[3] = h[2]
		h[2] = h[1]
		h[1] = h[0]
		h[0] = it.in.Channel(ch)[it.inPos]
	}
	it.inPos++
}

// hermite performs cubic Hermite interpolation between h[2] and h[1].
// Uses the formula: y = ((a*x + b)*x + c)*x + d
// where x is the fractional position between samples.
func hermite(h *[cubicInterpolationPoints]float64, x float64) float64 {
	y0 := h[3] // oldest
	y1 := h[2]
	y2 := h[1]
	y3 := h[0] // newest

	coefA := -hermiteCoeff0_5*y0 + hermiteCoeff1_5*y1 - hermiteCoeff1_5*y2 + hermiteCoeff0_5*y3
	coefB := y0 - hermiteCoeff2_5*y1 + 2*y2 - hermiteCoeff0_5*y3
	coefC := -hermiteCoeff0_5*y0 + hermiteCoeff0_5*y2
	coefD := y1

	return ((coefA*x+coefB)*x+coefC)*x + coefD
}
