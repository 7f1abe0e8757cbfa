package main

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	deck "github.com/tphakala/go-dj-deck"
	"github.com/tphakala/go-dj-deck/internal/playlist"
)

type loadRecorder struct {
	mu   sync.Mutex
	refs []string
}

func (l *loadRecorder) Load(ref string) (*deck.Track, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refs = append(l.refs, ref)
	return &deck.Track{Ref: ref, Channels: [][]float64{make([]float64, 44100)}, SampleRate: 44100}, nil
}

func (l *loadRecorder) last() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.refs) == 0 {
		return ""
	}
	return l.refs[len(l.refs)-1]
}

func newTestShell(t *testing.T) (*shell, *bytes.Buffer, *loadRecorder) {
	t.Helper()
	loads := &loadRecorder{}
	controls := deck.NewControls(zerolog.Nop())
	decks := make(map[string]*deck.Player)

	for _, name := range deckNames {
		cfg := deck.DefaultConfig()
		cfg.Loader = loads
		p, err := deck.New(cfg)
		require.NoError(t, err)
		t.Cleanup(func() { _ = p.Close() })
		require.NoError(t, controls.BindPlayer(name, p))
		decks[name] = p
	}

	out := &bytes.Buffer{}
	probe := func(path string) (time.Duration, error) {
		if strings.Contains(path, "bad") {
			return 0, errors.New("undecodable")
		}
		return 75 * time.Second, nil
	}

	return &shell{
		decks:    decks,
		controls: controls,
		library:  playlist.NewLibrary(),
		probe:    probe,
		out:      out,
	}, out, loads
}

func TestShell_LibraryCommands(t *testing.T) {
	sh, out, _ := newTestShell(t)

	require.NoError(t, sh.exec("import /music/one.wav /music/two.mp3"))
	assert.Contains(t, out.String(), "added one (1:15)")
	assert.Error(t, sh.exec("import /music/bad.wav"))

	out.Reset()
	require.NoError(t, sh.exec("list"))
	assert.Contains(t, out.String(), "one")
	assert.Contains(t, out.String(), "two")

	out.Reset()
	require.NoError(t, sh.exec("find tw"))
	assert.Equal(t, "1\n", out.String())

	require.NoError(t, sh.exec("remove 0"))
	assert.Equal(t, 1, sh.library.Len())
	assert.ErrorIs(t, sh.exec("remove 7"), playlist.ErrNotFound)
	assert.Error(t, sh.exec("remove x"))
}

func TestShell_DeckCommands(t *testing.T) {
	sh, out, loads := newTestShell(t)
	require.NoError(t, sh.exec("import /music/one.wav"))

	require.NoError(t, sh.exec("a load 0"))
	assert.Equal(t, "/music/one.wav", loads.last())

	require.NoError(t, sh.exec("b load /other/file.flac"))
	assert.Equal(t, "/other/file.flac", loads.last())

	require.NoError(t, sh.exec("a gain 0.5"))
	assert.Equal(t, 0.5, sh.decks["a"].Gain())

	require.NoError(t, sh.exec("a play"))
	assert.Equal(t, deck.StatePlaying, sh.decks["a"].State())

	require.NoError(t, sh.exec("xy a reverb 0.1 0.2"))
	assert.Equal(t, 0.1, sh.decks["a"].ReverbParameters().Damping)
	assert.Equal(t, 0.2, sh.decks["a"].ReverbParameters().RoomSize)

	out.Reset()
	require.NoError(t, sh.exec("a status"))
	assert.Contains(t, out.String(), "a: playing")
	assert.Contains(t, out.String(), "gain 0.50")
}

func TestShell_Errors(t *testing.T) {
	sh, _, _ := newTestShell(t)

	assert.ErrorIs(t, sh.exec("a play"), deck.ErrNoTrack)
	assert.ErrorIs(t, sh.exec("a gain 7"), deck.ErrOutOfRange)
	assert.ErrorIs(t, sh.exec("a scratch"), deck.ErrUnknownControl)
	assert.Error(t, sh.exec("a gain loud"))
	assert.Error(t, sh.exec("a"))
	assert.Error(t, sh.exec("c play"))
	assert.Error(t, sh.exec("xy a reverb 1"))
	assert.Error(t, sh.exec("find"))
	assert.Error(t, sh.exec("import"))
}

func TestShell_Clips(t *testing.T) {
	sh, out, _ := newTestShell(t)
	assert.Error(t, sh.exec("clips"))

	sh.clipped = func() uint64 { return 3 }
	require.NoError(t, sh.exec("clips"))
	assert.Equal(t, "clipped blocks: 3\n", out.String())
}

func TestShell_MetaCommands(t *testing.T) {
	sh, out, _ := newTestShell(t)

	require.NoError(t, sh.exec(""))
	require.NoError(t, sh.exec("help"))
	assert.Contains(t, out.String(), "commands:")
	assert.ErrorIs(t, sh.exec("quit"), errQuit)
	assert.ErrorIs(t, sh.exec("exit"), errQuit)
}
