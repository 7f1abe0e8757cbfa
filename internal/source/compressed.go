package source

import (
	"fmt"
	"os"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
)

// streamChunkFrames is the number of frames pulled per Stream call.
const streamChunkFrames = 4096

// openStream opens path with the beep decoder matching its extension.
func openStream(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	var (
		s      beep.StreamSeekCloser
		format beep.Format
	)
	switch formatOf(path) {
	case formatMP3:
		s, format, err = mp3.Decode(f)
	case formatFLAC:
		s, format, err = flac.Decode(f)
	case formatVorbis:
		s, format, err = vorbis.Decode(f)
	default:
		err = ErrUnsupported
	}
	if err != nil {
		_ = f.Close()
		return nil, beep.Format{}, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}

	// flac.Decode takes an io.Reader and does not own the file.
	if formatOf(path) == formatFLAC {
		s = &fileCloser{StreamSeekCloser: s, f: f}
	}
	return s, format, nil
}

type fileCloser struct {
	beep.StreamSeekCloser
	f *os.File
}

func (c *fileCloser) Close() error {
	err := c.StreamSeekCloser.Close()
	if cerr := c.f.Close(); err == nil {
		err = cerr
	}
	return err
}

func decodeCompressed(path string) (*Decoded, error) {
	s, format, err := openStream(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.Close() }()

	channels := min(2, max(1, format.NumChannels))
	out := make([][]float64, channels)
	if n := s.Len(); n > 0 {
		for ch := range out {
			out[ch] = make([]float64, 0, n)
		}
	}

	chunk := make([][2]float64, streamChunkFrames)
	for {
		n, ok := s.Stream(chunk)
		for i := range n {
			for ch := range channels {
				out[ch] = append(out[ch], chunk[i][ch])
			}
		}
		if !ok {
			break
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}

	return &Decoded{Channels: out, SampleRate: float64(format.SampleRate)}, nil
}

func probeCompressed(path string) (time.Duration, error) {
	s, format, err := openStream(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = s.Close() }()

	if format.SampleRate <= 0 {
		return 0, fmt.Errorf("%w: %s: bad sample rate", ErrDecode, path)
	}
	return format.SampleRate.D(s.Len()), nil
}
