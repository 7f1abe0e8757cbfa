package deck

import "time"

// Channel limits
const (
	monoChannels   = 1
	stereoChannels = 2
	maxChannels    = stereoChannels // the reverb is a stereo network
)

// Defaults for a playback session
const (
	DefaultBlockSize  = 512
	DefaultSampleRate = 44100.0
)

// Transport limits
const (
	MinGain  = 0.0
	MaxGain  = 1.0
	MinSpeed = 0.0
	MaxSpeed = 100.0

	defaultGain  = 1.0
	defaultSpeed = 1.0

	// noSeek marks an empty pending-seek slot.
	noSeek = -1
)

// Filter frequencies in Hz
const (
	MaxFilterFrequency = 20000.0

	DefaultLowPassFrequency  = 20000.0
	DefaultHighPassFrequency = 20.0

	FallbackLowPassFrequency  = 1000.0
	FallbackHighPassFrequency = 500.0
)

// Controls
const (
	// DefaultPollInterval is the position feed period.
	DefaultPollInterval = 500 * time.Millisecond

	// nudgeStep is the relative distance moved by the forward and rewind
	// actions.
	nudgeStep = 0.02
)

// reclaimInterval is how often the reclaimer checks the block counter.
const reclaimInterval = 5 * time.Millisecond

// reclaimBlocks is the number of completed blocks after a swap that
// guarantees no block still holds the replaced track.
const reclaimBlocks = 2
