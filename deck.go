package deck

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
)

// Player is one deck: Transport → EffectsChain → FilterStage.
type Player struct {
	cfg Config
	log zerolog.Logger

	transport *Transport
	effects   *EffectsChain
	filters   *FilterStage

	prepared bool
}

// New creates a deck from cfg.
func New(cfg Config) (*Player, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	t := NewTransport(cfg.loader(), logger)
	t.conversion = cfg.Conversion
	t.deviceRate.Store(math.Float64bits(cfg.SampleRate))

	return &Player{
		cfg:       cfg,
		log:       logger.With().Str("component", "deck").Logger(),
		transport: t,
		effects:   NewEffectsChain(t, cfg.Channels, cfg.Interpolation, logger),
		filters:   NewFilterStage(cfg.Channels, cfg.SampleRate, logger),
	}, nil
}

// Config returns the configuration the deck was created with.
func (p *Player) Config() Config {
	return p.cfg
}

// Transport returns the deck's transport.
func (p *Player) Transport() *Transport { return p.transport }

// Effects returns the deck's effects chain.
func (p *Player) Effects() *EffectsChain { return p.effects }

// Filters returns the deck's filter stage.
func (p *Player) Filters() *FilterStage { return p.filters }

// PrepareToPlay prepares the transport, the effects chain and the filters,
// in that order. It must not overlap with ProduceBlock.
func (p *Player) PrepareToPlay(blockSize int, sampleRate float64) error {
	if p.prepared {
		p.ReleaseResources()
	}

	if err := p.transport.Prepare(blockSize, sampleRate); err != nil {
		return fmt.Errorf("%w: transport: %w", ErrInvalidConfig, err)
	}
	if err := p.effects.Prepare(blockSize, sampleRate); err != nil {
		p.transport.Release()
		return fmt.Errorf("%w: effects: %w", ErrInvalidConfig, err)
	}
	if err := p.filters.Prepare(sampleRate, blockSize); err != nil {
		p.effects.Release()
		p.transport.Release()
		return fmt.Errorf("%w: filters: %w", ErrInvalidConfig, err)
	}

	p.prepared = true
	p.log.Debug().Int("block_size", blockSize).Float64("sample_rate", sampleRate).Msg("prepared")
	return nil
}

// Prepared reports whether PrepareToPlay has run since the last release.
func (p *Player) Prepared() bool {
	return p.prepared
}

// ProduceBlock fills buf with the deck's next block: resample and reverb,
// then the filters. Zero channels or zero samples is a no-op.
func (p *Player) ProduceBlock(buf *Buffer) {
	if buf.Empty() {
		return
	}
	if !p.prepared {
		buf.Clear()
		return
	}

	p.effects.ProduceBlock(buf)
	_ = p.filters.ProcessBlock(buf) // rejections are counted by the stage
}

// ReleaseResources releases every stage. Safe to call repeatedly.
func (p *Player) ReleaseResources() {
	p.filters.Release()
	p.effects.Release()
	p.transport.Release()
	p.prepared = false
}

// Close releases resources and the loaded track and stops the background
// reclaimer. The audio goroutine must be stopped first.
func (p *Player) Close() error {
	p.ReleaseResources()
	return p.transport.Close()
}

// Load decodes ref and makes it the current track. See Transport.Load.
func (p *Player) Load(ref string) error { return p.transport.Load(ref) }

// Loaded reports whether a track is loaded.
func (p *Player) Loaded() bool { return p.transport.Loaded() }

// State returns the transport state.
func (p *Player) State() State { return p.transport.State() }

// Start begins playback.
func (p *Player) Start() error { return p.transport.Start() }

// Stop pauses playback.
func (p *Player) Stop() { p.transport.Stop() }

// Playing reports whether the deck is playing.
func (p *Player) Playing() bool { return p.transport.Playing() }

// SetGain sets the deck gain, g in [0, 1].
func (p *Player) SetGain(g float64) error { return p.transport.SetGain(g) }

// Gain returns the deck gain.
func (p *Player) Gain() float64 { return p.transport.Gain() }

// SetSpeed sets the playback speed ratio, r in [0, 100].
func (p *Player) SetSpeed(r float64) error { return p.transport.SetSpeed(r) }

// Speed returns the playback speed ratio.
func (p *Player) Speed() float64 { return p.transport.Speed() }

// SetPosition seeks to seconds.
func (p *Player) SetPosition(seconds float64) error { return p.transport.SetPosition(seconds) }

// SetPositionRelative seeks to fraction of the track, in [0, 1].
func (p *Player) SetPositionRelative(fraction float64) error {
	return p.transport.SetPositionRelative(fraction)
}

// PositionSeconds returns the playback position in seconds.
func (p *Player) PositionSeconds() float64 { return p.transport.PositionSeconds() }

// PositionRelative returns the playback position as a fraction of the
// track, or 0 when no track is loaded.
func (p *Player) PositionRelative() float64 { return p.transport.PositionRelative() }

// LengthInSeconds returns the track length.
func (p *Player) LengthInSeconds() float64 { return p.transport.LengthInSeconds() }

// SetRoomSize sets the reverb room size.
func (p *Player) SetRoomSize(v float64) error { return p.effects.SetRoomSize(v) }

// SetDamping sets the reverb damping.
func (p *Player) SetDamping(v float64) error { return p.effects.SetDamping(v) }

// SetWetLevel sets the reverb wet level.
func (p *Player) SetWetLevel(v float64) error { return p.effects.SetWetLevel(v) }

// SetDryLevel sets the reverb dry level.
func (p *Player) SetDryLevel(v float64) error { return p.effects.SetDryLevel(v) }

// SetReverbParameters sets all four reverb parameters.
func (p *Player) SetReverbParameters(roomSize, damping, wetLevel, dryLevel float64) error {
	return p.effects.SetReverbParameters(roomSize, damping, wetLevel, dryLevel)
}

// ReverbParameters returns the current reverb parameters.
func (p *Player) ReverbParameters() ReverbParams { return p.effects.ReverbParameters() }

// SetLowPassFrequency sets the low-pass cutoff and returns the frequency
// applied.
func (p *Player) SetLowPassFrequency(freq float64) float64 {
	return p.filters.SetLowPassFrequency(freq)
}

// SetHighPassFrequency sets the high-pass cutoff and returns the frequency
// applied.
func (p *Player) SetHighPassFrequency(freq float64) float64 {
	return p.filters.SetHighPassFrequency(freq)
}

// LowPassFrequency returns the low-pass cutoff.
func (p *Player) LowPassFrequency() float64 { return p.filters.LowPassFrequency() }

// HighPassFrequency returns the high-pass cutoff.
func (p *Player) HighPassFrequency() float64 { return p.filters.HighPassFrequency() }

// Nudge moves the position by delta of the track length, clamped to
// [0, 1].
func (p *Player) Nudge(delta float64) error {
	if !p.Loaded() {
		return ErrNoTrack
	}
	return p.SetPositionRelative(min(1, max(0, p.PositionRelative()+delta)))
}
