// Package source decodes audio files into planar float64 PCM held in memory.
//
// Decoding happens entirely on the caller's goroutine, so the audio
// goroutine only ever reads from memory. WAV goes through go-audio/wav;
// MP3, FLAC and Ogg Vorbis go through beep's decoders.
package source

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// Common errors returned by the loader.
var (
	// ErrUnsupported indicates a file type no decoder handles.
	ErrUnsupported = errors.New("unsupported audio format")

	// ErrDecode indicates the file could not be opened or decoded.
	ErrDecode = errors.New("audio decode failed")
)

// Decoded is a fully decoded track.
type Decoded struct {
	// Ref is the reference the track was opened from.
	Ref string

	// Channels holds one slice per channel, all the same length.
	Channels [][]float64

	// SampleRate is the track's native rate in Hz.
	SampleRate float64
}

// NewDecoded wraps already-decoded planar samples.
func NewDecoded(ref string, channels [][]float64, sampleRate float64) *Decoded {
	return &Decoded{Ref: ref, Channels: channels, SampleRate: sampleRate}
}

// NumChannels returns the channel count.
func (d *Decoded) NumChannels() int {
	return len(d.Channels)
}

// Frames returns the number of samples per channel.
func (d *Decoded) Frames() int64 {
	if len(d.Channels) == 0 {
		return 0
	}
	return int64(len(d.Channels[0]))
}

// Duration returns the track length.
func (d *Decoded) Duration() time.Duration {
	if d.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(d.Frames()) / d.SampleRate * float64(time.Second))
}

// Seconds returns the track length in seconds.
func (d *Decoded) Seconds() float64 {
	if d.SampleRate <= 0 {
		return 0
	}
	return float64(d.Frames()) / d.SampleRate
}

// Close drops the sample data. The Decoded must not be read afterwards.
func (d *Decoded) Close() error {
	d.Channels = nil
	return nil
}

// format identifies a decoder by file extension.
type format int

const (
	formatUnknown format = iota
	formatWAV
	formatMP3
	formatFLAC
	formatVorbis
)

func formatOf(path string) format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return formatWAV
	case ".mp3":
		return formatMP3
	case ".flac":
		return formatFLAC
	case ".ogg", ".oga":
		return formatVorbis
	default:
		return formatUnknown
	}
}

// PathOf converts a reference to a filesystem path. References are plain
// paths or file:// URLs.
func PathOf(ref string) (string, error) {
	if !strings.Contains(ref, "://") {
		return ref, nil
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w: bad reference %q: %w", ErrDecode, ref, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("%w: scheme %q", ErrUnsupported, u.Scheme)
	}
	return filepath.FromSlash(u.Path), nil
}

// Loader opens references. The zero value is ready to use.
type Loader struct{}

// Load implements the deck's loader contract.
func (Loader) Load(ref string) (*Decoded, error) {
	return Open(ref)
}

// Open decodes the file behind ref.
func Open(ref string) (*Decoded, error) {
	path, err := PathOf(ref)
	if err != nil {
		return nil, err
	}

	var d *Decoded
	switch formatOf(path) {
	case formatWAV:
		d, err = decodeWAV(path)
	case formatMP3, formatFLAC, formatVorbis:
		d, err = decodeCompressed(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	if d.Frames() == 0 {
		return nil, fmt.Errorf("%w: %s contains no audio", ErrDecode, path)
	}

	d.Ref = ref
	return d, nil
}

// Probe returns the duration of the file behind ref without decoding the
// sample data where the container allows it.
func Probe(ref string) (time.Duration, error) {
	path, err := PathOf(ref)
	if err != nil {
		return 0, err
	}

	switch formatOf(path) {
	case formatWAV:
		return probeWAV(path)
	case formatMP3, formatFLAC, formatVorbis:
		return probeCompressed(path)
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
}
