package deck

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-dj-deck/internal/pipeline"
	"github.com/tphakala/go-dj-deck/internal/testutil"
)

var errMissing = errors.New("no such track")

// memLoader builds a fresh in-memory track per Load call.
type memLoader map[string]func() *Track

func (m memLoader) Load(ref string) (*Track, error) {
	gen, ok := m[ref]
	if !ok {
		return nil, errMissing
	}
	return gen(), nil
}

// rampTrack returns a track whose every channel holds 0, 1, 2, ...
func rampTrack(frames, channels int, sampleRate float64) func() *Track {
	return func() *Track {
		data := make([][]float64, channels)
		for ch := range data {
			data[ch] = testutil.Ramp(frames, 1)
		}
		return newTrack(data, sampleRate)
	}
}

// constTrack returns a track with one constant value per channel.
func constTrack(frames int, sampleRate float64, values ...float64) func() *Track {
	return func() *Track {
		data := make([][]float64, len(values))
		for ch, v := range values {
			data[ch] = testutil.Constant(frames, v)
		}
		return newTrack(data, sampleRate)
	}
}

// sineTrack returns a stereo sine track.
func sineTrack(freq, sampleRate, seconds, amplitude float64) func() *Track {
	return func() *Track {
		n := int(seconds * sampleRate)
		return newTrack([][]float64{
			testutil.Sine(freq, sampleRate, n, amplitude),
			testutil.Sine(freq, sampleRate, n, amplitude),
		}, sampleRate)
	}
}

// newTrack wraps planar samples as an in-memory track.
func newTrack(channels [][]float64, sampleRate float64) *Track {
	return &Track{Ref: "mem", Channels: channels, SampleRate: sampleRate}
}

// testLogger routes deck logs through t.Log.
func testLogger(t *testing.T) zerolog.Logger {
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.InfoLevel)
}

func newTestTransport(t *testing.T, loader Loader) *Transport {
	t.Helper()
	tr := NewTransport(loader, testLogger(t))
	require.NoError(t, tr.Prepare(DefaultBlockSize, DefaultSampleRate))
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func newTestPlayer(t *testing.T, channels int, loader Loader) *Player {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Channels = channels
	cfg.Loader = loader
	cfg.Logger = testLogger(t)

	p, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, p.PrepareToPlay(cfg.BlockSize, cfg.SampleRate))
	t.Cleanup(func() { _ = p.Close() })
	return p
}

// syncBuffer is a goroutine-safe log sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// render runs blocks of size n through p and returns channel 0.
func render(p *Player, channels, n, blocks int) []float64 {
	buf := NewBuffer(channels, n)
	out := make([]float64, 0, n*blocks)
	for range blocks {
		p.ProduceBlock(buf)
		out = append(out, buf.Channel(0)...)
	}
	return out
}

func testLoggerB() zerolog.Logger {
	return zerolog.Nop()
}

// wrapBuffer wraps channel slices as a Buffer.
func wrapBuffer(channels ...[]float64) *Buffer {
	return pipeline.WrapBuffer(channels)
}
