package deck

import (
	"errors"
	"fmt"
)

// Mixer sums several decks into one output block.
type Mixer struct {
	channels int
	players  []*Player
	scratch  *Buffer
}

// NewMixer creates a mixer over players with the given output channel
// count.
func NewMixer(channels int, players ...*Player) *Mixer {
	return &Mixer{channels: channels, players: players}
}

// Players returns the mixed decks.
func (m *Mixer) Players() []*Player {
	return m.players
}

// Prepare prepares every deck and allocates the mix scratch block. Every
// deck must have the mixer's channel count.
func (m *Mixer) Prepare(blockSize int, sampleRate float64) error {
	if m.channels < monoChannels || m.channels > maxChannels {
		return fmt.Errorf("%w: mixer channels must be %d-%d", ErrInvalidConfig, monoChannels, maxChannels)
	}

	var errs []error
	for i, p := range m.players {
		if ch := p.Config().Channels; ch != m.channels {
			errs = append(errs, fmt.Errorf("%w: deck %d has %d channels, mixer has %d", ErrInvalidConfig, i, ch, m.channels))
			continue
		}
		if err := p.PrepareToPlay(blockSize, sampleRate); err != nil {
			errs = append(errs, fmt.Errorf("deck %d: %w", i, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		m.Release()
		return err
	}

	m.scratch = NewBuffer(m.channels, blockSize)
	return nil
}

// ProduceBlock renders every deck and sums them into buf. Samples beyond
// the prepared block size are zeroed.
func (m *Mixer) ProduceBlock(buf *Buffer) {
	if buf.Empty() {
		return
	}
	buf.Clear()
	if m.scratch == nil {
		return
	}

	m.scratch.SetNumSamples(buf.NumSamples())
	for _, p := range m.players {
		p.ProduceBlock(m.scratch)
		buf.AddFrom(m.scratch)
	}
}

// Release releases every deck. Safe to call repeatedly.
func (m *Mixer) Release() {
	for _, p := range m.players {
		p.ReleaseResources()
	}
	m.scratch = nil
}
