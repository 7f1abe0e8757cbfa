package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

// wavPCMFormat is the WAVE_FORMAT_PCM tag.
const wavPCMFormat = 1

// WriteWAV writes planar channels as 16-bit PCM into dir/name and returns
// the path.
func WriteWAV(t *testing.T, dir, name string, channels [][]float64, sampleRate int) string {
	t.Helper()
	require.NotEmpty(t, channels)

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)

	numCh := len(channels)
	frames := len(channels[0])
	enc := wav.NewEncoder(f, sampleRate, 16, numCh, wavPCMFormat)

	data := make([]int, frames*numCh)
	for i := range frames {
		for ch := range numCh {
			v := min(1, max(-1, channels[ch][i]))
			data[i*numCh+ch] = int(v * 32767)
		}
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: numCh, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
	return path
}
