package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Buffer
// =============================================================================

func TestNewBuffer_Shape(t *testing.T) {
	b := NewBuffer(2, 64)
	assert.Equal(t, 2, b.NumChannels())
	assert.Equal(t, 64, b.NumSamples())
	assert.Equal(t, 64, b.Capacity())
	assert.False(t, b.Empty())

	assert.True(t, NewBuffer(0, 64).Empty())
	assert.True(t, NewBuffer(2, 0).Empty())
	assert.True(t, NewBuffer(-1, -1).Empty())

	var nilBuf *Buffer
	assert.True(t, nilBuf.Empty())
}

func TestBuffer_SetNumSamplesClamps(t *testing.T) {
	b := NewBuffer(1, 16)

	b.SetNumSamples(8)
	assert.Equal(t, 8, b.NumSamples())
	assert.Len(t, b.Channel(0), 8)

	b.SetNumSamples(100)
	assert.Equal(t, 16, b.NumSamples())

	b.SetNumSamples(-3)
	assert.Equal(t, 0, b.NumSamples())
	assert.True(t, b.Empty())
}

func TestWrapBuffer_UsesShortestChannel(t *testing.T) {
	left := []float64{1, 2, 3, 4}
	right := []float64{5, 6, 7}
	b := WrapBuffer([][]float64{left, right})

	assert.Equal(t, 3, b.NumSamples())
	b.Channel(0)[0] = 9
	assert.Equal(t, 9.0, left[0], "wrapped buffer must alias caller memory")

	assert.True(t, WrapBuffer(nil).Empty())
}

func TestBuffer_ClearOnlyValidRegion(t *testing.T) {
	b := WrapBuffer([][]float64{{1, 1, 1, 1}})
	b.SetNumSamples(2)
	b.Clear()

	b.SetNumSamples(4)
	assert.Equal(t, []float64{0, 0, 1, 1}, b.Channel(0))
}

func TestBuffer_ClearFrom(t *testing.T) {
	b := WrapBuffer([][]float64{{1, 2, 3, 4}, {5, 6, 7, 8}})

	b.ClearFrom(2)
	assert.Equal(t, []float64{1, 2, 0, 0}, b.Channel(0))
	assert.Equal(t, []float64{5, 6, 0, 0}, b.Channel(1))

	b.ClearFrom(10)
	assert.Equal(t, []float64{1, 2, 0, 0}, b.Channel(0))

	b.ClearFrom(-5)
	assert.Equal(t, []float64{0, 0, 0, 0}, b.Channel(0))
}

func TestBuffer_CopyAndAdd(t *testing.T) {
	src := WrapBuffer([][]float64{{1, 2, 3}, {4, 5, 6}})
	dst := NewBuffer(1, 2)

	dst.CopyFrom(src)
	assert.Equal(t, []float64{1, 2}, dst.Channel(0))

	dst.AddFrom(src)
	assert.Equal(t, []float64{2, 4}, dst.Channel(0))
}

func TestBuffer_Levels(t *testing.T) {
	b := WrapBuffer([][]float64{{1, -1, 1, -1}, {0.5, -2, 0, 0}})
	assert.InDelta(t, 1.0, b.RMS(0), 1e-12)
	assert.InDelta(t, math.Sqrt(4.25/4), b.RMS(1), 1e-12)
	assert.Equal(t, 2.0, b.Peak())

	b.SetNumSamples(0)
	assert.Equal(t, 0.0, b.RMS(0))
	assert.Equal(t, 0.0, b.Peak())
}

// =============================================================================
// FIFO
// =============================================================================

func TestFIFO_RoundsCapacity(t *testing.T) {
	f := NewFIFO(5)
	assert.Equal(t, 8, f.Space())
	assert.Equal(t, 0, f.Available())
}

func TestFIFO_WriteReadOrder(t *testing.T) {
	f := NewFIFO(8)
	require.Equal(t, 3, f.Write([]float32{1, 2, 3}))

	dst := make([]float32, 2)
	require.Equal(t, 2, f.Read(dst))
	assert.Equal(t, []float32{1, 2}, dst)
	assert.Equal(t, 1, f.Available())
}

func TestFIFO_WrapsAround(t *testing.T) {
	f := NewFIFO(4)
	dst := make([]float32, 4)

	var next float32
	for range 10 {
		in := []float32{next, next + 1, next + 2}
		require.Equal(t, 3, f.Write(in))
		require.Equal(t, 3, f.Read(dst[:3]))
		assert.Equal(t, in, dst[:3])
		next += 3
	}
}

func TestFIFO_WriteStopsWhenFull(t *testing.T) {
	f := NewFIFO(4)
	assert.Equal(t, 4, f.Write([]float32{1, 2, 3, 4, 5, 6}))
	assert.Equal(t, 0, f.Space())
	assert.Equal(t, 0, f.Write([]float32{7}))

	dst := make([]float32, 8)
	assert.Equal(t, 4, f.Read(dst))
	assert.Equal(t, []float32{1, 2, 3, 4}, dst[:4])
	assert.Equal(t, 0, f.Read(dst))
}
