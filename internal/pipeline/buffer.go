package pipeline

import (
	"math"

	"github.com/tphakala/go-dj-deck/internal/simdops"
)

// Buffer is a planar block of float64 samples, one slice per channel.
// The sample count can shrink and grow within the allocated capacity
// without allocating, so a Buffer sized in Prepare can be reused for every
// block the audio callback asks for.
type Buffer struct {
	data     [][]float64
	capacity int
	samples  int
}

// NewBuffer allocates a buffer with the given channel count and per-channel
// capacity. NumSamples starts at capacity.
func NewBuffer(channels, capacity int) *Buffer {
	if channels < 0 {
		channels = 0
	}
	if capacity < 0 {
		capacity = 0
	}

	data := make([][]float64, channels)
	for ch := range data {
		data[ch] = make([]float64, capacity)
	}

	return &Buffer{
		data:     data,
		capacity: capacity,
		samples:  capacity,
	}
}

// WrapBuffer builds a Buffer around caller-owned channel slices.
// All slices must have the same length.
func WrapBuffer(channels [][]float64) *Buffer {
	n := 0
	if len(channels) > 0 {
		n = len(channels[0])
		for _, ch := range channels[1:] {
			n = min(n, len(ch))
		}
	}
	return &Buffer{data: channels, capacity: n, samples: n}
}

// NumChannels returns the number of channels.
func (b *Buffer) NumChannels() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

// NumSamples returns the number of valid samples per channel.
func (b *Buffer) NumSamples() int {
	if b == nil {
		return 0
	}
	return b.samples
}

// Capacity returns the per-channel capacity.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Empty reports whether the buffer has no channels or no samples.
func (b *Buffer) Empty() bool {
	return b.NumChannels() == 0 || b.NumSamples() == 0
}

// SetNumSamples changes the valid sample count, clamped to [0, capacity].
func (b *Buffer) SetNumSamples(n int) {
	b.samples = max(0, min(n, b.capacity))
}

// Channel returns the valid samples of channel ch.
func (b *Buffer) Channel(ch int) []float64 {
	return b.data[ch][:b.samples]
}

// Clear zeroes the valid region of every channel.
func (b *Buffer) Clear() {
	for ch := range b.data {
		clear(b.data[ch][:b.samples])
	}
}

// ClearFrom zeroes every channel from sample index start to the end of the
// valid region.
func (b *Buffer) ClearFrom(start int) {
	if start >= b.samples {
		return
	}
	start = max(start, 0)
	for ch := range b.data {
		clear(b.data[ch][start:b.samples])
	}
}

// CopyFrom copies the overlapping region of src into b.
func (b *Buffer) CopyFrom(src *Buffer) {
	n := min(b.samples, src.samples)
	for ch := range min(len(b.data), len(src.data)) {
		copy(b.data[ch][:n], src.data[ch][:n])
	}
}

// AddFrom mixes src into b sample by sample.
func (b *Buffer) AddFrom(src *Buffer) {
	n := min(b.samples, src.samples)
	for ch := range min(len(b.data), len(src.data)) {
		dst := b.data[ch][:n]
		for i, v := range src.data[ch][:n] {
			dst[i] += v
		}
	}
}

// RMS returns the root-mean-square level of channel ch.
func (b *Buffer) RMS(ch int) float64 {
	s := b.Channel(ch)
	if len(s) == 0 {
		return 0
	}
	energy := simdops.Float64Ops().DotProductUnsafe(s, s)
	return math.Sqrt(energy / float64(len(s)))
}

// Peak returns the largest absolute sample value across all channels.
func (b *Buffer) Peak() float64 {
	var peak float64
	for ch := range b.data {
		for _, v := range b.data[ch][:b.samples] {
			peak = max(peak, math.Abs(v))
		}
	}
	return peak
}

// FIFO is a fixed-capacity queue of interleaved float32 samples.
// It carries rendered frames between a block-based producer and a device
// callback that asks for arbitrary byte counts. It is not safe for
// concurrent use; both sides run on the device goroutine.
// Capacity is rounded up to a power of 2 so positions wrap with a mask.
type FIFO struct {
	data     []float32
	mask     int
	size     int
	readPos  int
	writePos int
}

// NewFIFO creates a FIFO holding at least capacity samples.
func NewFIFO(capacity int) *FIFO {
	cap2 := 1
	for cap2 < capacity {
		cap2 <<= 1
	}

	return &FIFO{
		data: make([]float32, cap2),
		mask: cap2 - 1,
	}
}

// Write appends as many samples as fit and returns the number written.
func (f *FIFO) Write(samples []float32) int {
	n := min(len(samples), len(f.data)-f.size)
	for _, s := range samples[:n] {
		f.data[f.writePos&f.mask] = s
		f.writePos++
	}
	f.writePos &= f.mask
	f.size += n
	return n
}

// Read moves up to len(dst) samples into dst and returns the count.
func (f *FIFO) Read(dst []float32) int {
	n := min(len(dst), f.size)
	for i := range n {
		dst[i] = f.data[f.readPos&f.mask]
		f.readPos++
	}
	f.readPos &= f.mask
	f.size -= n
	return n
}

// Available returns the number of samples ready to read.
func (f *FIFO) Available() int {
	return f.size
}

// Space returns the free capacity.
func (f *FIFO) Space() int {
	return len(f.data) - f.size
}
