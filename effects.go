package deck

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/tphakala/go-dj-deck/internal/engine"
	"github.com/tphakala/go-dj-deck/internal/pipeline"
	"github.com/tphakala/go-dj-deck/internal/reverb"
)

// ReverbParams is the reverb's room size, damping, wet and dry levels,
// each in [0, 1]. Wet and dry are independent gains and may sum past 1.
type ReverbParams = reverb.Params

// DefaultReverbParams returns the startup setting: no room, fully dry.
func DefaultReverbParams() ReverbParams {
	return reverb.DefaultParams()
}

// EffectsChain pulls blocks from a Transport and runs them through the
// speed resampler and then the reverb.
//
// Reverb parameters travel as one immutable snapshot behind an atomic
// pointer. Each setter publishes a complete new snapshot, so the audio
// goroutine never sees a half-updated parameter set.
type EffectsChain struct {
	log       zerolog.Logger
	transport *Transport
	channels  int

	interp *engine.Interpolator
	rev    *reverb.Reverb

	params  atomic.Pointer[ReverbParams]
	applied atomic.Pointer[ReverbParams] // last snapshot the audio goroutine used
	current *ReverbParams                // audio goroutine only

	prepared bool
}

// NewEffectsChain creates a chain fed by transport.
func NewEffectsChain(transport *Transport, channels int, kernel Interpolation, logger zerolog.Logger) *EffectsChain {
	e := &EffectsChain{
		log:       logger.With().Str("component", "effects").Logger(),
		transport: transport,
		channels:  channels,
		interp:    engine.NewInterpolator(transport, channels, kernel),
		rev:       reverb.New(),
	}

	p := DefaultReverbParams()
	e.params.Store(&p)
	e.applied.Store(&p)
	return e
}

// Prepare sizes the resampler and the reverb delay lines. It must run
// before ProduceBlock and again whenever the block size or rate changes.
func (e *EffectsChain) Prepare(blockSize int, sampleRate float64) error {
	if err := pipeline.ValidateSpec(blockSize, sampleRate); err != nil {
		return err
	}

	if err := e.interp.Prepare(blockSize, sampleRate); err != nil {
		return fmt.Errorf("resampler: %w", err)
	}

	p := e.params.Load()
	e.rev.SetParams(*p)
	e.rev.Prepare(sampleRate)
	e.current = p
	e.applied.Store(p)

	e.prepared = true
	return nil
}

// Release frees the buffers acquired in Prepare. Safe to call repeatedly.
func (e *EffectsChain) Release() {
	if !e.prepared {
		return
	}
	e.interp.Release()
	e.rev.Release()
	e.prepared = false
}

// Prepared reports whether Prepare has run since the last Release.
func (e *EffectsChain) Prepared() bool {
	return e.prepared
}

// Latency returns the resampler delay in track frames.
func (e *EffectsChain) Latency() int {
	return e.interp.Latency()
}

// ProduceBlock fills buf with the next resampled, reverberated block.
// Zero channels or zero samples is a no-op.
func (e *EffectsChain) ProduceBlock(buf *Buffer) {
	if buf.Empty() {
		return
	}
	if !e.prepared {
		buf.Clear()
		return
	}

	// Anything that moves the cursor discontinuously drops the resampler's
	// history, so the block after Stop, a seek or a Load carries no frames
	// from before it. A new track also clears the reverb tail.
	swapped := e.transport.trackPending()
	if swapped || e.transport.seekPending() || !e.transport.Playing() {
		e.interp.Reset()
	}
	if swapped {
		e.rev.Reset()
	}

	e.interp.Process(buf, e.transport.Ratio())

	if p := e.params.Load(); p != e.current {
		e.rev.SetParams(*p)
		e.current = p
		e.applied.Store(p)
	}

	switch {
	case e.channels >= stereoChannels && buf.NumChannels() >= stereoChannels:
		e.rev.ProcessStereo(buf.Channel(0), buf.Channel(1))
	default:
		e.rev.ProcessMono(buf.Channel(0))
	}
}

// ReverbParameters returns the most recently published parameters.
func (e *EffectsChain) ReverbParameters() ReverbParams {
	return *e.params.Load()
}

// AppliedReverbParameters returns the snapshot the audio goroutine last
// handed to the reverb.
func (e *EffectsChain) AppliedReverbParameters() ReverbParams {
	return *e.applied.Load()
}

// SetRoomSize sets the reverb room size, v in [0, 1].
func (e *EffectsChain) SetRoomSize(v float64) error {
	return e.set("room size", v, func(p *ReverbParams) { p.RoomSize = v })
}

// SetDamping sets the high-frequency damping, v in [0, 1].
func (e *EffectsChain) SetDamping(v float64) error {
	return e.set("damping", v, func(p *ReverbParams) { p.Damping = v })
}

// SetWetLevel sets the reverb output level, v in [0, 1].
func (e *EffectsChain) SetWetLevel(v float64) error {
	return e.set("wet level", v, func(p *ReverbParams) { p.WetLevel = v })
}

// SetDryLevel sets the direct signal level, v in [0, 1].
func (e *EffectsChain) SetDryLevel(v float64) error {
	return e.set("dry level", v, func(p *ReverbParams) { p.DryLevel = v })
}

// SetReverbParameters validates each component independently. Valid
// components are applied together as one snapshot; rejected ones keep
// their previous value and are listed in the returned error.
func (e *EffectsChain) SetReverbParameters(roomSize, damping, wetLevel, dryLevel float64) error {
	roomErr := e.check("room size", roomSize)
	dampErr := e.check("damping", damping)
	wetErr := e.check("wet level", wetLevel)
	dryErr := e.check("dry level", dryLevel)

	e.publish(func(p *ReverbParams) {
		if roomErr == nil {
			p.RoomSize = roomSize
		}
		if dampErr == nil {
			p.Damping = damping
		}
		if wetErr == nil {
			p.WetLevel = wetLevel
		}
		if dryErr == nil {
			p.DryLevel = dryLevel
		}
	})

	return errors.Join(roomErr, dampErr, wetErr, dryErr)
}

func (e *EffectsChain) set(name string, v float64, apply func(*ReverbParams)) error {
	if err := e.check(name, v); err != nil {
		return err
	}
	e.publish(apply)
	return nil
}

func (e *EffectsChain) check(name string, v float64) error {
	if v >= 0 && v <= 1 {
		return nil
	}
	e.log.Warn().Str("param", name).Float64("value", v).Msg("reverb parameter rejected")
	return fmt.Errorf("%w: %s %v outside [0, 1]", ErrOutOfRange, name, v)
}

// publish copies the current snapshot, applies mutate and swaps the copy in,
// retrying if another setter won the race.
func (e *EffectsChain) publish(mutate func(*ReverbParams)) {
	for {
		old := e.params.Load()
		next := *old
		mutate(&next)
		if next == *old {
			return
		}
		if e.params.CompareAndSwap(old, &next) {
			return
		}
	}
}
