package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavChunkFrames is the number of frames decoded per PCMBuffer call.
const wavChunkFrames = 8192

// openWAV opens path and validates the RIFF header.
func openWAV(path string) (*os.File, *wav.Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		_ = f.Close()
		return nil, nil, fmt.Errorf("%w: invalid WAV file: %s", ErrDecode, path)
	}
	return f, dec, nil
}

func decodeWAV(path string) (*Decoded, error) {
	f, dec, err := openWAV(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	format := dec.Format()
	channels := format.NumChannels
	if channels <= 0 || format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: bad WAV format in %s", ErrDecode, path)
	}

	bitDepth := int(dec.BitDepth)
	scale, offset := pcmScale(bitDepth)

	out := make([][]float64, channels)
	if d, err := dec.Duration(); err == nil && d > 0 {
		frames := int(d.Seconds()*float64(format.SampleRate)) + 1
		for ch := range out {
			out[ch] = make([]float64, 0, frames)
		}
	}

	buf := &audio.IntBuffer{
		Data:   make([]int, wavChunkFrames*channels),
		Format: format,
	}

	for {
		n, err := dec.PCMBuffer(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
		}
		if n == 0 {
			break
		}

		// n counts interleaved samples; a trailing partial frame is dropped.
		frames := n / channels
		data := buf.Data[:frames*channels]
		for i := range frames {
			base := i * channels
			for ch := range channels {
				out[ch] = append(out[ch], (float64(data[base+ch])-offset)*scale)
			}
		}
	}

	return &Decoded{Channels: out, SampleRate: float64(format.SampleRate)}, nil
}

// pcmScale returns the factor and offset mapping integer PCM of the given
// depth onto [-1, 1). 8-bit WAV is unsigned.
func pcmScale(bitDepth int) (scale, offset float64) {
	switch {
	case bitDepth == 8:
		return 1.0 / 128, 128
	case bitDepth > 0 && bitDepth <= 32:
		return 1 / float64(int64(1)<<(bitDepth-1)), 0
	default:
		return 1.0 / 32768, 0
	}
}

func probeWAV(path string) (time.Duration, error) {
	f, dec, err := openWAV(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	d, err := dec.Duration()
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	return d, nil
}
