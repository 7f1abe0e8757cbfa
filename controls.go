package deck

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"
)

// Control registry errors.
var (
	// ErrUnknownControl indicates an event for an unregistered control.
	ErrUnknownControl = errors.New("unknown control")

	// ErrDuplicateControl indicates a second registration under one ID.
	ErrDuplicateControl = errors.New("control already registered")
)

// ParameterSink receives values from one control.
type ParameterSink interface {
	SetValue(v float64) error
}

// SinkFunc adapts a function to ParameterSink.
type SinkFunc func(v float64) error

// SetValue implements ParameterSink.
func (f SinkFunc) SetValue(v float64) error { return f(v) }

// EventKind distinguishes the three shapes of control input.
type EventKind int

const (
	// EventValue is a slider or knob position.
	EventValue EventKind = iota
	// EventPress is a button press.
	EventPress
	// EventPoint is a normalized coordinate pair from an XY pad.
	EventPoint
)

// Event is one control change.
type Event struct {
	Control string
	Kind    EventKind
	Value   float64 // EventValue
	X, Y    float64 // EventPoint, each in [0, 1]
}

// xyPad routes the two axes of a pad to two sinks.
type xyPad struct {
	x, y ParameterSink
}

// Controls maps control IDs to handlers. Registration and dispatch may
// happen from any goroutine.
type Controls struct {
	log zerolog.Logger

	mu      sync.RWMutex
	sinks   map[string]ParameterSink
	actions map[string]func() error
	pads    map[string]xyPad
}

// NewControls creates an empty registry.
func NewControls(logger zerolog.Logger) *Controls {
	return &Controls{
		log:     logger.With().Str("component", "controls").Logger(),
		sinks:   make(map[string]ParameterSink),
		actions: make(map[string]func() error),
		pads:    make(map[string]xyPad),
	}
}

func (c *Controls) taken(id string) bool {
	_, s := c.sinks[id]
	_, a := c.actions[id]
	_, p := c.pads[id]
	return s || a || p
}

// Register binds a value control.
func (c *Controls) Register(id string, sink ParameterSink) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.taken(id) {
		return fmt.Errorf("%w: %s", ErrDuplicateControl, id)
	}
	c.sinks[id] = sink
	return nil
}

// RegisterAction binds a button.
func (c *Controls) RegisterAction(id string, fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.taken(id) {
		return fmt.Errorf("%w: %s", ErrDuplicateControl, id)
	}
	c.actions[id] = fn
	return nil
}

// RegisterXY binds an XY pad whose horizontal axis drives x and vertical
// axis drives y.
func (c *Controls) RegisterXY(id string, x, y ParameterSink) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.taken(id) {
		return fmt.Errorf("%w: %s", ErrDuplicateControl, id)
	}
	c.pads[id] = xyPad{x: x, y: y}
	return nil
}

// IDs returns every registered control ID, sorted.
func (c *Controls) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.sinks)+len(c.actions)+len(c.pads))
	for id := range c.sinks {
		ids = append(ids, id)
	}
	for id := range c.actions {
		ids = append(ids, id)
	}
	for id := range c.pads {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Dispatch routes ev to its handler and returns the handler's error.
func (c *Controls) Dispatch(ev Event) error {
	c.mu.RLock()
	sink, isSink := c.sinks[ev.Control]
	action, isAction := c.actions[ev.Control]
	pad, isPad := c.pads[ev.Control]
	c.mu.RUnlock()

	switch {
	case isSink && ev.Kind == EventValue:
		return sink.SetValue(ev.Value)
	case isAction && ev.Kind == EventPress:
		return action()
	case isPad && ev.Kind == EventPoint:
		return errors.Join(pad.x.SetValue(ev.X), pad.y.SetValue(ev.Y))
	case isSink || isAction || isPad:
		return fmt.Errorf("%w: %s does not accept event kind %d", ErrUnknownControl, ev.Control, ev.Kind)
	default:
		c.log.Debug().Str("control", ev.Control).Msg("event for unknown control")
		return fmt.Errorf("%w: %s", ErrUnknownControl, ev.Control)
	}
}

// BindPlayer registers every control of p under prefix:
//
//	<prefix>.gain .speed .position .lpf .hpf .room .damping .wet .dry
//	<prefix>.play .pause .stop .rewind .forward
//	<prefix>.reverb  XY pad, x = damping, y = room size
//	<prefix>.mix     XY pad, x = dry level, y = wet level
func (c *Controls) BindPlayer(prefix string, p *Player) error {
	freq := func(set func(float64) float64) SinkFunc {
		return func(v float64) error {
			set(v)
			return nil
		}
	}

	values := []struct {
		name string
		sink ParameterSink
	}{
		{"gain", SinkFunc(p.SetGain)},
		{"speed", SinkFunc(p.SetSpeed)},
		{"position", SinkFunc(p.SetPositionRelative)},
		{"lpf", freq(p.SetLowPassFrequency)},
		{"hpf", freq(p.SetHighPassFrequency)},
		{"room", SinkFunc(p.SetRoomSize)},
		{"damping", SinkFunc(p.SetDamping)},
		{"wet", SinkFunc(p.SetWetLevel)},
		{"dry", SinkFunc(p.SetDryLevel)},
	}

	actions := []struct {
		name string
		fn   func() error
	}{
		{"play", p.Start},
		{"pause", func() error { p.Stop(); return nil }},
		{"stop", func() error {
			p.Stop()
			if !p.Loaded() {
				return nil
			}
			return p.SetPositionRelative(0)
		}},
		{"rewind", func() error { return p.Nudge(-nudgeStep) }},
		{"forward", func() error { return p.Nudge(nudgeStep) }},
	}

	var errs []error
	for _, v := range values {
		errs = append(errs, c.Register(prefix+"."+v.name, v.sink))
	}
	for _, a := range actions {
		errs = append(errs, c.RegisterAction(prefix+"."+a.name, a.fn))
	}
	errs = append(errs,
		c.RegisterXY(prefix+".reverb", SinkFunc(p.SetDamping), SinkFunc(p.SetRoomSize)),
		c.RegisterXY(prefix+".mix", SinkFunc(p.SetDryLevel), SinkFunc(p.SetWetLevel)),
	)
	return errors.Join(errs...)
}
