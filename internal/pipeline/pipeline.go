// Package pipeline defines the pull-based block contract shared by every
// stage of the deck's signal path. A stage is prepared once per playback
// session, then asked repeatedly to fill a caller-owned Buffer; it pulls
// from its upstream Source as needed and never allocates while reading.
package pipeline

import (
	"errors"
	"fmt"
	"math"
)

// Source produces audio blocks on demand.
type Source interface {
	// Prepare sizes internal state for the given block size and sample rate.
	// It must be called before Read and whenever either value changes.
	Prepare(blockSize int, sampleRate float64) error

	// Read fills buf with the next NumSamples() samples per channel.
	// Read must not allocate, block or take locks.
	Read(buf *Buffer)

	// Release frees resources acquired in Prepare. Safe to call repeatedly.
	Release()
}

// SourceFunc adapts a plain function to a Source with no lifecycle.
type SourceFunc func(buf *Buffer)

// Prepare implements Source.
func (f SourceFunc) Prepare(int, float64) error { return nil }

// Read implements Source.
func (f SourceFunc) Read(buf *Buffer) { f(buf) }

// Release implements Source.
func (f SourceFunc) Release() {}

// Silence is a Source that always produces zeros.
var Silence Source = SourceFunc(func(buf *Buffer) { buf.Clear() })

// ErrInvalidSpec indicates unusable prepare parameters.
var ErrInvalidSpec = errors.New("invalid block spec")

// ValidateSpec checks prepare parameters shared by all stages.
func ValidateSpec(blockSize int, sampleRate float64) error {
	if blockSize < MinBlockSize || blockSize > MaxBlockSize {
		return fmt.Errorf("%w: block size %d outside [%d, %d]", ErrInvalidSpec, blockSize, MinBlockSize, MaxBlockSize)
	}

	if math.IsNaN(sampleRate) || sampleRate < MinSampleRate || sampleRate > MaxSampleRate {
		return fmt.Errorf("%w: sample rate %v outside [%v, %v]", ErrInvalidSpec, sampleRate, MinSampleRate, MaxSampleRate)
	}

	return nil
}
