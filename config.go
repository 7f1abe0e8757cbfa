package deck

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tphakala/go-dj-deck/internal/engine"
	"github.com/tphakala/go-dj-deck/internal/pipeline"
	"github.com/tphakala/go-dj-deck/internal/source"
)

// Common errors returned by the deck.
var (
	// ErrInvalidConfig indicates invalid configuration parameters.
	ErrInvalidConfig = errors.New("invalid deck configuration")

	// ErrOutOfRange indicates a rejected control value. The previous value
	// is kept.
	ErrOutOfRange = errors.New("value out of range")

	// ErrUnreadable indicates a track that could not be opened or decoded.
	// The previously loaded track stays active.
	ErrUnreadable = errors.New("track unreadable")

	// ErrNoTrack indicates an operation that needs a loaded track.
	ErrNoTrack = errors.New("no track loaded")

	// ErrEmptyBlock indicates a block with zero channels or zero samples.
	// Processing is skipped for that call.
	ErrEmptyBlock = errors.New("empty block")

	// ErrNotPrepared indicates processing before PrepareToPlay.
	ErrNotPrepared = errors.New("not prepared")

	// ErrTooManyChannels indicates a block wider than the prepared channel
	// count. Processing is skipped for that call.
	ErrTooManyChannels = errors.New("too many channels")
)

// Buffer is a planar block of float64 samples.
type Buffer = pipeline.Buffer

// NewBuffer allocates a block buffer. Allocate buffers before playback
// starts, never on the audio goroutine.
func NewBuffer(channels, capacity int) *Buffer {
	return pipeline.NewBuffer(channels, capacity)
}

// Track is a fully decoded audio file.
type Track = source.Decoded

// Interpolation selects the resampling kernel used for speed changes.
type Interpolation = engine.Interpolation

// Interpolation kernels.
const (
	InterpolationCubic  = engine.InterpolationCubic
	InterpolationLinear = engine.InterpolationLinear
)

// Loader opens a track reference (a path or file:// URL). Every call must
// return a new Track: the deck owns it from then on and closes it once it
// has been replaced.
type Loader interface {
	Load(ref string) (*Track, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ref string) (*Track, error)

// Load implements Loader.
func (f LoaderFunc) Load(ref string) (*Track, error) {
	return f(ref)
}

// Config holds deck configuration.
type Config struct {
	// Channels is the output channel count: 1 (mono) or 2 (stereo).
	// Mono tracks are duplicated to both channels of a stereo deck; stereo
	// tracks are folded down on a mono deck.
	Channels int

	// BlockSize is the default block size in samples per channel.
	BlockSize int

	// SampleRate is the default device rate in Hz. Filter frequencies set
	// before PrepareToPlay are designed against it.
	SampleRate float64

	// Interpolation selects the speed-change kernel.
	Interpolation Interpolation

	// Conversion selects the load-time rate conversion applied to tracks
	// whose native rate differs from the device rate. The zero value keeps
	// native rates.
	Conversion Conversion

	// Loader decodes tracks. Nil uses the built-in WAV/MP3/FLAC/Ogg loader.
	Loader Loader

	// Logger receives warnings about rejected values and load events.
	// The zero value discards output.
	Logger zerolog.Logger
}

// DefaultConfig returns a stereo configuration at 44.1 kHz.
func DefaultConfig() Config {
	return Config{
		Channels:      stereoChannels,
		BlockSize:     DefaultBlockSize,
		SampleRate:    DefaultSampleRate,
		Interpolation: InterpolationCubic,
		Conversion:    ConversionMedium,
		Logger:        zerolog.Nop(),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Channels < monoChannels || c.Channels > maxChannels {
		return fmt.Errorf("%w: channels must be %d-%d", ErrInvalidConfig, monoChannels, maxChannels)
	}

	if err := pipeline.ValidateSpec(c.BlockSize, c.SampleRate); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	switch c.Interpolation {
	case InterpolationCubic, InterpolationLinear:
	default:
		return fmt.Errorf("%w: unknown interpolation %v", ErrInvalidConfig, c.Interpolation)
	}

	if c.Conversion < ConversionOff || c.Conversion > ConversionHigh {
		return fmt.Errorf("%w: unknown conversion %v", ErrInvalidConfig, c.Conversion)
	}

	return nil
}

func (c *Config) loader() Loader {
	if c.Loader != nil {
		return c.Loader
	}
	return source.Loader{}
}
