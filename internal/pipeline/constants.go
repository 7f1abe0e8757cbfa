package pipeline

// Block spec limits
const (
	MinBlockSize = 1
	MaxBlockSize = 1 << 16

	MinSampleRate = 8000.0
	MaxSampleRate = 384000.0
)
