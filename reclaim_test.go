package deck

import (
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newTestReclaimer(t *testing.T, prepared bool) (*reclaimer, *atomic.Uint64, *syncBuffer) {
	t.Helper()
	var seq atomic.Uint64
	logs := &syncBuffer{}
	logger := zerolog.New(logs).Level(zerolog.DebugLevel)

	r := newReclaimer(seq.Load, func() bool { return prepared }, logger)
	t.Cleanup(r.Close)
	return r, &seq, logs
}

func releasedCount(logs *syncBuffer) int {
	return strings.Count(logs.String(), "released track")
}

func TestReclaimer_WaitsForAudioBlocks(t *testing.T) {
	r, seq, logs := newTestReclaimer(t, true)

	r.retire(rampTrack(10, 1, 44100)(), 0)
	time.Sleep(10 * reclaimInterval)
	assert.Equal(t, 0, releasedCount(logs), "released while the audio goroutine may still read it")

	seq.Store(1)
	time.Sleep(10 * reclaimInterval)
	assert.Equal(t, 0, releasedCount(logs))

	seq.Store(reclaimBlocks)
	assert.Eventually(t, func() bool { return releasedCount(logs) == 1 }, time.Second, reclaimInterval)
}

func TestReclaimer_ReleasesAtOnceWhenIdle(t *testing.T) {
	r, _, logs := newTestReclaimer(t, false)

	r.retire(rampTrack(10, 1, 44100)(), 0)
	assert.Eventually(t, func() bool { return releasedCount(logs) == 1 }, time.Second, reclaimInterval)
}

func TestReclaimer_CloseDrainsQueue(t *testing.T) {
	r, _, _ := newTestReclaimer(t, true)

	a := rampTrack(10, 1, 44100)()
	b := rampTrack(10, 2, 44100)()
	r.retire(a, 100)
	r.retire(b, 100)
	r.Close()

	assert.Nil(t, a.Channels)
	assert.Nil(t, b.Channels)
}

func TestReclaimer_RetireAfterCloseReleasesImmediately(t *testing.T) {
	r, _, _ := newTestReclaimer(t, true)
	r.Close()

	tr := rampTrack(10, 1, 44100)()
	r.retire(tr, 0)
	assert.Nil(t, tr.Channels)

	r.retire(nil, 0)
	r.Close()
}

func TestTransport_ReplacedTrackIsReleased(t *testing.T) {
	first := rampTrack(100, 1, 44100)()
	tr := newTestTransport(t, memLoader{
		"a": func() *Track { return first },
		"b": rampTrack(100, 1, 44100),
	})
	assert.NoError(t, tr.Load("a"))
	assert.NoError(t, tr.Load("b"))

	buf := NewBuffer(1, 16)
	for range reclaimBlocks {
		tr.Read(buf)
	}
	assert.NoError(t, tr.Close())
	assert.Nil(t, first.Channels)
	assert.False(t, tr.Loaded())
}
