package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Registry
// =============================================================================

func TestControls_RegisterAndDispatch(t *testing.T) {
	c := NewControls(testLogger(t))

	var got float64
	presses := 0
	var x, y float64
	require.NoError(t, c.Register("fader", SinkFunc(func(v float64) error { got = v; return nil })))
	require.NoError(t, c.RegisterAction("cue", func() error { presses++; return nil }))
	require.NoError(t, c.RegisterXY("pad",
		SinkFunc(func(v float64) error { x = v; return nil }),
		SinkFunc(func(v float64) error { y = v; return nil })))

	require.NoError(t, c.Dispatch(Event{Control: "fader", Kind: EventValue, Value: 0.7}))
	require.NoError(t, c.Dispatch(Event{Control: "cue", Kind: EventPress}))
	require.NoError(t, c.Dispatch(Event{Control: "pad", Kind: EventPoint, X: 0.2, Y: 0.9}))

	assert.Equal(t, 0.7, got)
	assert.Equal(t, 1, presses)
	assert.Equal(t, 0.2, x)
	assert.Equal(t, 0.9, y)
	assert.Equal(t, []string{"cue", "fader", "pad"}, c.IDs())
}

func TestControls_RejectsDuplicates(t *testing.T) {
	c := NewControls(testLogger(t))
	sink := SinkFunc(func(float64) error { return nil })

	require.NoError(t, c.Register("x", sink))
	assert.ErrorIs(t, c.Register("x", sink), ErrDuplicateControl)
	assert.ErrorIs(t, c.RegisterAction("x", func() error { return nil }), ErrDuplicateControl)
	assert.ErrorIs(t, c.RegisterXY("x", sink, sink), ErrDuplicateControl)
}

func TestControls_UnknownAndMismatchedEvents(t *testing.T) {
	c := NewControls(testLogger(t))
	require.NoError(t, c.RegisterAction("cue", func() error { return nil }))

	assert.ErrorIs(t, c.Dispatch(Event{Control: "nope", Kind: EventValue}), ErrUnknownControl)
	assert.ErrorIs(t, c.Dispatch(Event{Control: "cue", Kind: EventValue, Value: 1}), ErrUnknownControl)
}

// =============================================================================
// Player Bindings
// =============================================================================

func newBoundPlayer(t *testing.T) (*Controls, *Player) {
	t.Helper()
	p := newTestPlayer(t, stereoChannels, memLoader{"a": rampTrack(1000, 1, 1000)})
	c := NewControls(testLogger(t))
	require.NoError(t, c.BindPlayer("a", p))
	return c, p
}

func TestBindPlayer_RegistersEveryControl(t *testing.T) {
	c, p := newBoundPlayer(t)

	assert.Equal(t, []string{
		"a.damping", "a.dry", "a.forward", "a.gain", "a.hpf", "a.lpf", "a.mix", "a.pause",
		"a.play", "a.position", "a.reverb", "a.rewind", "a.room", "a.speed", "a.stop", "a.wet",
	}, c.IDs())

	assert.ErrorIs(t, c.BindPlayer("a", p), ErrDuplicateControl)
}

func TestBindPlayer_Values(t *testing.T) {
	c, p := newBoundPlayer(t)
	value := func(id string, v float64) error {
		return c.Dispatch(Event{Control: id, Kind: EventValue, Value: v})
	}

	require.NoError(t, value("a.gain", 0.4))
	require.NoError(t, value("a.speed", 1.5))
	require.NoError(t, value("a.lpf", 3000))
	require.NoError(t, value("a.hpf", 99999), "fallback frequencies are not errors")
	require.NoError(t, value("a.room", 0.1))
	require.NoError(t, value("a.damping", 0.2))
	require.NoError(t, value("a.wet", 0.3))
	require.NoError(t, value("a.dry", 0.4))

	assert.Equal(t, 0.4, p.Gain())
	assert.Equal(t, 1.5, p.Speed())
	assert.Equal(t, 3000.0, p.LowPassFrequency())
	assert.Equal(t, FallbackHighPassFrequency, p.HighPassFrequency())
	assert.Equal(t, ReverbParams{RoomSize: 0.1, Damping: 0.2, WetLevel: 0.3, DryLevel: 0.4}, p.ReverbParameters())

	assert.ErrorIs(t, value("a.gain", 2), ErrOutOfRange)
	assert.ErrorIs(t, value("a.position", 0.5), ErrNoTrack)
	assert.Equal(t, 0.4, p.Gain())
}

func TestBindPlayer_Transport(t *testing.T) {
	c, p := newBoundPlayer(t)
	press := func(id string) error {
		return c.Dispatch(Event{Control: id, Kind: EventPress})
	}

	assert.ErrorIs(t, press("a.play"), ErrNoTrack)
	require.NoError(t, press("a.stop"), "stop on an empty deck is harmless")

	require.NoError(t, p.Load("a"))
	require.NoError(t, press("a.play"))
	assert.Equal(t, StatePlaying, p.State())

	require.NoError(t, press("a.pause"))
	assert.Equal(t, StatePaused, p.State())

	require.NoError(t, press("a.forward"))
	require.NoError(t, press("a.forward"))
	assert.InDelta(t, 2*nudgeStep, p.PositionRelative(), 1e-12)

	require.NoError(t, press("a.rewind"))
	assert.InDelta(t, nudgeStep, p.PositionRelative(), 1e-12)

	require.NoError(t, c.Dispatch(Event{Control: "a.position", Kind: EventValue, Value: 0.5}))
	require.NoError(t, press("a.play"))
	require.NoError(t, press("a.stop"))
	assert.Equal(t, StatePaused, p.State())
	assert.Equal(t, 0.0, p.PositionRelative())
}

func TestBindPlayer_XYPads(t *testing.T) {
	c, p := newBoundPlayer(t)

	require.NoError(t, c.Dispatch(Event{Control: "a.reverb", Kind: EventPoint, X: 0.25, Y: 0.75}))
	require.NoError(t, c.Dispatch(Event{Control: "a.mix", Kind: EventPoint, X: 0.6, Y: 0.2}))
	assert.Equal(t, ReverbParams{RoomSize: 0.75, Damping: 0.25, WetLevel: 0.2, DryLevel: 0.6}, p.ReverbParameters())

	err := c.Dispatch(Event{Control: "a.mix", Kind: EventPoint, X: 1.5, Y: 0.5})
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, 0.6, p.ReverbParameters().DryLevel)
	assert.Equal(t, 0.5, p.ReverbParameters().WetLevel)
}
