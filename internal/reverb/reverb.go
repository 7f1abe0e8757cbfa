// Package reverb implements a stereo Schroeder/Freeverb-style reverb with
// the room size, damping, wet and dry controls of a DJ deck.
package reverb

import "math"

const (
	numCombs     = 8
	numAllpasses = 4

	fixedInputGain = 0.015
	stereoSpread   = 23
	stereoWidth    = 1.0

	allpassFeedback = 0.5

	roomScale  = 0.28
	roomOffset = 0.7
	dampScale  = 0.4
	wetScale   = 3.0

	// Tuning values calibrated for 44.1 kHz.
	tuningSampleRate = 44100.0

	denormalThreshold = 1e-23
)

var (
	combTunings    = [numCombs]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
	allpassTunings = [numAllpasses]int{556, 441, 341, 225}
)

// Params are the user-facing reverb controls, each in [0, 1].
// Wet and dry are independent gains; their sum may exceed 1.
type Params struct {
	RoomSize float64
	Damping  float64
	WetLevel float64
	DryLevel float64
}

// DefaultParams returns the bypass setting: no room, fully dry.
func DefaultParams() Params {
	return Params{DryLevel: 1}
}

// Valid reports whether every component lies in [0, 1].
func (p Params) Valid() bool {
	return inUnit(p.RoomSize) && inUnit(p.Damping) && inUnit(p.WetLevel) && inUnit(p.DryLevel)
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}

type comb struct {
	buffer []float64
	index  int
	last   float64
}

func (c *comb) process(input, damp, feedback float64) float64 {
	output := c.buffer[c.index]
	c.last = output*(1-damp) + c.last*damp
	if math.Abs(c.last) < denormalThreshold {
		c.last = 0
	}
	c.buffer[c.index] = input + c.last*feedback
	c.index++
	if c.index >= len(c.buffer) {
		c.index = 0
	}
	return output
}

func (c *comb) reset() {
	clear(c.buffer)
	c.index = 0
	c.last = 0
}

type allpass struct {
	buffer []float64
	index  int
}

func (a *allpass) process(input float64) float64 {
	buffered := a.buffer[a.index]
	a.buffer[a.index] = input + buffered*allpassFeedback
	a.index++
	if a.index >= len(a.buffer) {
		a.index = 0
	}
	return buffered - input
}

func (a *allpass) reset() {
	clear(a.buffer)
	a.index = 0
}

// Reverb is a stereo Freeverb. Delay lines are allocated in Prepare;
// processing never allocates.
type Reverb struct {
	sampleRate float64
	combs      [2][numCombs]comb
	allpasses  [2][numAllpasses]allpass

	params   Params
	feedback float64
	damp     float64

	wet1, wet2, dry                   float64
	wet1Target, wet2Target, dryTarget float64
}

// New creates a reverb with default (bypass) parameters.
// Call Prepare before processing.
func New() *Reverb {
	r := &Reverb{}
	r.SetParams(DefaultParams())
	r.snapGains()
	return r
}

// Prepare allocates delay lines scaled to sampleRate and clears state.
func (r *Reverb) Prepare(sampleRate float64) {
	r.sampleRate = sampleRate
	scale := sampleRate / tuningSampleRate

	for ch := range 2 {
		spread := 0
		if ch == 1 {
			spread = stereoSpread
		}
		for i, t := range combTunings {
			r.combs[ch][i] = comb{buffer: make([]float64, scaledLength(t+spread, scale))}
		}
		for i, t := range allpassTunings {
			r.allpasses[ch][i] = allpass{buffer: make([]float64, scaledLength(t+spread, scale))}
		}
	}
	r.snapGains()
}

func scaledLength(samples int, scale float64) int {
	return max(1, int(math.Round(float64(samples)*scale)))
}

// Prepared reports whether delay lines are allocated.
func (r *Reverb) Prepared() bool {
	return r.combs[0][0].buffer != nil
}

// Release drops the delay lines.
func (r *Reverb) Release() {
	for ch := range 2 {
		for i := range r.combs[ch] {
			r.combs[ch][i] = comb{}
		}
		for i := range r.allpasses[ch] {
			r.allpasses[ch][i] = allpass{}
		}
	}
}

// Reset clears all delay-line state.
func (r *Reverb) Reset() {
	for ch := range 2 {
		for i := range r.combs[ch] {
			r.combs[ch][i].reset()
		}
		for i := range r.allpasses[ch] {
			r.allpasses[ch][i].reset()
		}
	}
}

// SetParams applies new controls. Room size and damping take effect on the
// next sample; wet and dry gains ramp to their targets across the next
// processed block. Out-of-range components are clamped to [0, 1]; callers
// that need rejection validate first.
func (r *Reverb) SetParams(p Params) {
	p.RoomSize = clampUnit(p.RoomSize)
	p.Damping = clampUnit(p.Damping)
	p.WetLevel = clampUnit(p.WetLevel)
	p.DryLevel = clampUnit(p.DryLevel)

	r.params = p
	r.feedback = p.RoomSize*roomScale + roomOffset
	r.damp = p.Damping * dampScale

	wet := p.WetLevel * wetScale
	r.wet1Target = 0.5 * wet * (1 + stereoWidth)
	r.wet2Target = 0.5 * wet * (1 - stereoWidth)
	r.dryTarget = p.DryLevel
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return min(1, max(0, v))
}

// Params returns the parameters last passed to SetParams.
func (r *Reverb) Params() Params {
	return r.params
}

func (r *Reverb) snapGains() {
	r.wet1, r.wet2, r.dry = r.wet1Target, r.wet2Target, r.dryTarget
}

// ProcessStereo applies the reverb to a stereo pair in place.
// Both slices must have the same length.
func (r *Reverb) ProcessStereo(left, right []float64) {
	n := len(left)
	if n == 0 || !r.Prepared() {
		return
	}
	right = right[:n]

	wet1, wet2, dry := r.wet1, r.wet2, r.dry
	inv := 1 / float64(n)
	dWet1 := (r.wet1Target - wet1) * inv
	dWet2 := (r.wet2Target - wet2) * inv
	dDry := (r.dryTarget - dry) * inv

	combsL, combsR := &r.combs[0], &r.combs[1]
	allL, allR := &r.allpasses[0], &r.allpasses[1]
	damp, feedback := r.damp, r.feedback

	for i := range n {
		input := (left[i] + right[i]) * fixedInputGain

		var outL, outR float64
		for j := range numCombs {
			outL += combsL[j].process(input, damp, feedback)
			outR += combsR[j].process(input, damp, feedback)
		}
		for j := range numAllpasses {
			outL = allL[j].process(outL)
			outR = allR[j].process(outR)
		}

		wet1 += dWet1
		wet2 += dWet2
		dry += dDry

		left[i] = outL*wet1 + outR*wet2 + left[i]*dry
		right[i] = outR*wet1 + outL*wet2 + right[i]*dry
	}

	r.snapGains()
}

// ProcessMono applies the left-channel reverb network to buf in place.
func (r *Reverb) ProcessMono(buf []float64) {
	n := len(buf)
	if n == 0 || !r.Prepared() {
		return
	}

	wet1, dry := r.wet1, r.dry
	inv := 1 / float64(n)
	dWet1 := (r.wet1Target - wet1) * inv
	dDry := (r.dryTarget - dry) * inv

	combs, alls := &r.combs[0], &r.allpasses[0]
	damp, feedback := r.damp, r.feedback

	for i := range n {
		input := buf[i] * fixedInputGain

		var out float64
		for j := range numCombs {
			out += combs[j].process(input, damp, feedback)
		}
		for j := range numAllpasses {
			out = alls[j].process(out)
		}

		wet1 += dWet1
		dry += dDry
		buf[i] = out*wet1 + buf[i]*dry
	}

	r.snapGains()
}
