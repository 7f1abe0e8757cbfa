package main

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	deck "github.com/tphakala/go-dj-deck"
)

// counterProducer writes its call count to channel 0 and a fixed value to
// every other channel.
type counterProducer struct {
	calls int
	other float64
}

func (c *counterProducer) ProduceBlock(buf *deck.Buffer) {
	c.calls++
	for i := range buf.Channel(0) {
		buf.Channel(0)[i] = float64(c.calls) / 10
	}
	for ch := 1; ch < buf.NumChannels(); ch++ {
		for i := range buf.Channel(ch) {
			buf.Channel(ch)[i] = c.other
		}
	}
}

func decodeFloats(p []byte) []float32 {
	out := make([]float32, len(p)/bytesPerSample)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(p[i*bytesPerSample:]))
	}
	return out
}

func TestRenderer_InterleavesAndClamps(t *testing.T) {
	src := &counterProducer{other: -3}
	r := newRenderer(src, 2, 4)

	p := make([]byte, 6*bytesPerSample)
	n, err := r.Read(p)
	require.NoError(t, err)
	assert.Equal(t, len(p), n)
	assert.Equal(t, []float32{0.1, -1, 0.1, -1, 0.1, -1}, decodeFloats(p))
	assert.Equal(t, 1, src.calls)
}

func TestRenderer_CountsClippedBlocks(t *testing.T) {
	src := &counterProducer{other: 0.5}
	r := newRenderer(src, 2, 4)

	_, err := r.Read(make([]byte, 8*bytesPerSample))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), r.Clipped())

	src.other = -3
	_, err = r.Read(make([]byte, 16*bytesPerSample))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), r.Clipped())
}

func TestRenderer_SpansBlocks(t *testing.T) {
	src := &counterProducer{}
	r := newRenderer(src, 1, 4)

	p := make([]byte, 10*bytesPerSample)
	n, err := r.Read(p)
	require.NoError(t, err)
	require.Equal(t, len(p), n)
	assert.Equal(t, []float32{0.1, 0.1, 0.1, 0.1, 0.2, 0.2, 0.2, 0.2, 0.3, 0.3}, decodeFloats(p))

	// The remainder of the third block is served before a fourth render.
	p = make([]byte, 2*bytesPerSample)
	_, err = r.Read(p)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.3, 0.3}, decodeFloats(p))
	assert.Equal(t, 3, src.calls)
}

func TestRenderer_PartialFramesAreNotRead(t *testing.T) {
	src := &counterProducer{}
	r := newRenderer(src, 2, 4)

	n, err := r.Read(make([]byte, 3*bytesPerSample+1))
	require.NoError(t, err)
	assert.Equal(t, 2*bytesPerSample, n)

	n, err = r.Read(make([]byte, bytesPerSample))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRenderer_LargeRead(t *testing.T) {
	src := &counterProducer{}
	r := newRenderer(src, 2, 8)

	p := make([]byte, 2*deviceReadHint*bytesPerSample)
	n, err := r.Read(p)
	require.NoError(t, err)
	assert.Equal(t, len(p), n)
	assert.Equal(t, deviceReadHint/8, src.calls)
}
