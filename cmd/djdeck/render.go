package main

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	deck "github.com/tphakala/go-dj-deck"
	"github.com/tphakala/go-dj-deck/internal/pipeline"
	"github.com/tphakala/go-dj-deck/internal/simdops"
)

// blockProducer is the part of deck.Mixer the renderer needs.
type blockProducer interface {
	ProduceBlock(buf *deck.Buffer)
}

// renderer turns fixed-size deck blocks into the interleaved float32
// little-endian byte stream the device pulls in arbitrary sizes.
// Read runs on the device goroutine and does not allocate once warmed up.
type renderer struct {
	src      blockProducer
	channels int

	block       *deck.Buffer
	interleaved []float64
	frame       []float32
	fifo        *pipeline.FIFO
	out         []float32
	ops         *simdops.Ops[float64]

	clipped atomic.Uint64 // blocks whose peak exceeded full scale
}

func newRenderer(src blockProducer, channels, blockSize int) *renderer {
	return &renderer{
		src:         src,
		channels:    channels,
		block:       deck.NewBuffer(channels, blockSize),
		interleaved: make([]float64, channels*blockSize),
		frame:       make([]float32, channels*blockSize),
		fifo:        pipeline.NewFIFO(fifoBlocks * channels * blockSize),
		out:         make([]float32, deviceReadHint),
		ops:         simdops.Float64Ops(),
	}
}

// Read implements io.Reader for the output device.
func (r *renderer) Read(p []byte) (int, error) {
	n := len(p) / bytesPerSample
	n -= n % r.channels
	if len(r.out) < n {
		r.out = make([]float32, n)
	}

	got := 0
	for got < n {
		if r.fifo.Available() == 0 {
			r.renderBlock()
		}
		got += r.fifo.Read(r.out[got:n])
	}

	for i, v := range r.out[:n] {
		binary.LittleEndian.PutUint32(p[i*bytesPerSample:], math.Float32bits(v))
	}
	return n * bytesPerSample, nil
}

// Clipped returns the number of rendered blocks that had to be clamped.
func (r *renderer) Clipped() uint64 {
	return r.clipped.Load()
}

func (r *renderer) renderBlock() {
	r.src.ProduceBlock(r.block)
	if r.block.Peak() > 1 {
		r.clipped.Add(1)
	}

	samples := r.block.NumSamples() * r.channels
	inter := r.interleaved[:samples]
	if r.channels == 2 {
		r.ops.Interleave2(inter, r.block.Channel(0), r.block.Channel(1))
	} else {
		copy(inter, r.block.Channel(0))
	}

	frame := r.frame[:samples]
	for i, v := range inter {
		frame[i] = float32(min(1, max(-1, v)))
	}
	r.fifo.Write(frame)
}
