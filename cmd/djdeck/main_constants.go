package main

// Device stream
const (
	bytesPerSample = 4    // float32
	fifoBlocks     = 4    // FIFO capacity in deck blocks
	deviceReadHint = 8192 // initial device read size in samples

	headlessTicksPerSecond = 100
)

// deckNames are the command prefixes of the two decks.
var deckNames = []string{"a", "b"}
