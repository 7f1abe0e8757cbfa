package deck

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/tphakala/go-dj-deck/internal/pipeline"
	"github.com/tphakala/go-dj-deck/internal/simdops"
)

// State is the transport's playback state.
type State int

const (
	// StateEmpty means no track has been loaded.
	StateEmpty State = iota
	// StatePaused means a track is loaded and the cursor is stopped.
	StatePaused
	// StatePlaying means a track is loaded and the cursor advances.
	StatePlaying
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Transport owns the loaded track, the playback cursor, gain and speed.
// It is the upstream Source of the effects chain.
//
// Read runs on the audio goroutine; every other method may be called from
// any goroutine.
type Transport struct {
	log    zerolog.Logger
	loader Loader
	loadMu sync.Mutex

	track       atomic.Pointer[Track]
	seen        atomic.Pointer[Track] // last track Read observed
	pos         atomic.Int64          // read cursor in track frames, written by Read
	pendingSeek atomic.Int64          // frames, or noSeek
	playing     atomic.Bool
	gain        atomic.Uint64 // float64 bits
	speed       atomic.Uint64 // float64 bits
	blocks      atomic.Uint64 // completed Read calls
	prepared    atomic.Bool

	deviceRate atomic.Uint64 // float64 bits
	conversion Conversion
	rampGain   float64 // audio goroutine only
	ops        *simdops.Ops[float64]

	reclaim *reclaimer
}

var _ pipeline.Source = (*Transport)(nil)

// NewTransport creates an empty transport that plays tracks at their
// native rate. Decks built with New convert tracks to the device rate as
// Config.Conversion asks. Call Close when done with it.
func NewTransport(loader Loader, logger zerolog.Logger) *Transport {
	t := &Transport{
		log:      logger.With().Str("component", "transport").Logger(),
		loader:   loader,
		rampGain: defaultGain,
		ops:      simdops.Float64Ops(),
	}
	t.deviceRate.Store(math.Float64bits(DefaultSampleRate))
	t.pendingSeek.Store(noSeek)
	t.gain.Store(math.Float64bits(defaultGain))
	t.speed.Store(math.Float64bits(defaultSpeed))
	t.reclaim = newReclaimer(t.blocks.Load, t.prepared.Load, t.log)
	return t
}

// Prepare records the device rate. When the rate changed and conversion is
// on, the loaded track is converted again and the cursor rescaled. The
// transport holds no per-block buffers; it writes straight into the
// caller's block.
func (t *Transport) Prepare(blockSize int, sampleRate float64) error {
	if err := pipeline.ValidateSpec(blockSize, sampleRate); err != nil {
		return err
	}

	t.loadMu.Lock()
	if t.DeviceRate() != sampleRate {
		t.deviceRate.Store(math.Float64bits(sampleRate))
		t.reconvert()
	}
	t.loadMu.Unlock()

	t.rampGain = t.Gain()
	t.prepared.Store(true)
	return nil
}

// Release marks the transport unprepared. The loaded track is kept.
func (t *Transport) Release() {
	t.prepared.Store(false)
}

// Close releases the loaded track and stops the reclaimer. The audio
// goroutine must be stopped first.
func (t *Transport) Close() error {
	t.Release()

	t.loadMu.Lock()
	old := t.track.Swap(nil)
	t.loadMu.Unlock()

	t.reclaim.retire(old, t.blocks.Load())
	t.reclaim.Close()
	return nil
}

// Load decodes ref on the calling goroutine and swaps it in. Playback stops
// and the cursor returns to 0. On failure the previous track stays loaded
// and playable and the error wraps ErrUnreadable.
func (t *Transport) Load(ref string) error {
	t.loadMu.Lock()
	defer t.loadMu.Unlock()

	tr, err := t.loader.Load(ref)
	if err != nil {
		t.log.Warn().Err(err).Str("ref", ref).Msg("load failed, keeping current track")
		return fmt.Errorf("%w: %s: %w", ErrUnreadable, ref, err)
	}
	if tr == nil || tr.Frames() == 0 || !(tr.SampleRate > 0) {
		t.log.Warn().Str("ref", ref).Msg("loader returned no audio, keeping current track")
		return fmt.Errorf("%w: %s: no audio", ErrUnreadable, ref)
	}

	tr = t.convert(tr)

	// Stop before the swap so the new track never plays from a stale cursor.
	t.playing.Store(false)
	t.pendingSeek.Store(noSeek)
	old := t.track.Swap(tr)
	t.reclaim.retire(old, t.blocks.Load())

	t.log.Info().
		Str("ref", ref).
		Int("channels", tr.NumChannels()).
		Float64("sample_rate", tr.SampleRate).
		Dur("length", tr.Duration()).
		Msg("track loaded")
	return nil
}

// Loaded reports whether a track is loaded.
func (t *Transport) Loaded() bool {
	return t.track.Load() != nil
}

// State returns the current playback state.
func (t *Transport) State() State {
	switch {
	case !t.Loaded():
		return StateEmpty
	case t.playing.Load():
		return StatePlaying
	default:
		return StatePaused
	}
}

// Start begins playback from the current position. Starting while already
// playing is a no-op.
func (t *Transport) Start() error {
	if !t.Loaded() {
		return ErrNoTrack
	}
	t.playing.Store(true)
	return nil
}

// Stop pauses playback, keeping the position. Stopping while paused is a
// no-op.
func (t *Transport) Stop() {
	t.playing.Store(false)
}

// Playing reports whether the cursor is advancing.
func (t *Transport) Playing() bool {
	return t.playing.Load()
}

// SetGain sets the output gain, g in [0, 1].
func (t *Transport) SetGain(g float64) error {
	if !(g >= MinGain && g <= MaxGain) {
		t.log.Warn().Float64("gain", g).Msg("gain rejected")
		return fmt.Errorf("%w: gain %v outside [%v, %v]", ErrOutOfRange, g, MinGain, MaxGain)
	}
	t.gain.Store(math.Float64bits(g))
	return nil
}

// Gain returns the current gain.
func (t *Transport) Gain() float64 {
	return math.Float64frombits(t.gain.Load())
}

// SetSpeed sets the playback speed ratio, r in [0, 100]. 1 is normal speed
// and 0 freezes playback.
func (t *Transport) SetSpeed(r float64) error {
	if !(r >= MinSpeed && r <= MaxSpeed) {
		t.log.Warn().Float64("speed", r).Msg("speed rejected")
		return fmt.Errorf("%w: speed %v outside [%v, %v]", ErrOutOfRange, r, MinSpeed, MaxSpeed)
	}
	t.speed.Store(math.Float64bits(r))
	return nil
}

// Speed returns the current speed ratio.
func (t *Transport) Speed() float64 {
	return math.Float64frombits(t.speed.Load())
}

// Ratio returns track frames consumed per device frame: the speed
// corrected for the track's native rate against the prepared device rate.
func (t *Transport) Ratio() float64 {
	speed := t.Speed()
	tr := t.track.Load()
	if tr == nil {
		return speed
	}
	return speed * tr.SampleRate / t.DeviceRate()
}

// DeviceRate returns the rate the transport was last prepared for, or the
// rate set at construction.
func (t *Transport) DeviceRate() float64 {
	return math.Float64frombits(t.deviceRate.Load())
}

// SetPosition seeks to an absolute position in seconds. Seeking past the
// end is allowed; the next read reaches end of stream.
func (t *Transport) SetPosition(seconds float64) error {
	if !(seconds >= 0) || math.IsInf(seconds, 0) {
		t.log.Warn().Float64("seconds", seconds).Msg("seek rejected")
		return fmt.Errorf("%w: position %v", ErrOutOfRange, seconds)
	}

	tr := t.track.Load()
	if tr == nil {
		return ErrNoTrack
	}

	frames := seconds * tr.SampleRate
	if frames > math.MaxInt64/2 {
		frames = math.MaxInt64 / 2
	}
	t.pendingSeek.Store(int64(math.Round(frames)))
	return nil
}

// SetPositionRelative seeks to fraction of the track length, fraction in
// [0, 1].
func (t *Transport) SetPositionRelative(fraction float64) error {
	if !(fraction >= 0 && fraction <= 1) {
		t.log.Warn().Float64("fraction", fraction).Msg("relative seek rejected")
		return fmt.Errorf("%w: relative position %v outside [0, 1]", ErrOutOfRange, fraction)
	}
	return t.SetPosition(fraction * t.LengthInSeconds())
}

// LengthInSeconds returns the loaded track's length, or 0 when empty.
// Speed does not change the reported length.
func (t *Transport) LengthInSeconds() float64 {
	tr := t.track.Load()
	if tr == nil {
		return 0
	}
	return tr.Seconds()
}

// positionFrames returns the cursor as seen from outside the audio
// goroutine: a pending seek wins, and a track the audio goroutine has not
// reached yet reads as position 0.
func (t *Transport) positionFrames(tr *Track) int64 {
	if seek := t.pendingSeek.Load(); seek != noSeek {
		return seek
	}
	if t.seen.Load() != tr {
		return 0
	}
	return t.pos.Load()
}

// PositionSeconds returns the cursor position in seconds, or 0 when empty.
func (t *Transport) PositionSeconds() float64 {
	tr := t.track.Load()
	if tr == nil || !(tr.SampleRate > 0) {
		return 0
	}
	return float64(t.positionFrames(tr)) / tr.SampleRate
}

// PositionRelative returns position divided by length, or 0 when no track
// is loaded. It can exceed 1 after a seek past the end.
func (t *Transport) PositionRelative() float64 {
	tr := t.track.Load()
	if tr == nil {
		return 0
	}
	frames := tr.Frames()
	if frames == 0 {
		return 0
	}
	return float64(t.positionFrames(tr)) / float64(frames)
}

// seekPending reports whether a seek is waiting for the next Read.
func (t *Transport) seekPending() bool {
	return t.pendingSeek.Load() != noSeek
}

// trackPending reports whether a loaded track has not been read yet.
func (t *Transport) trackPending() bool {
	return t.track.Load() != t.seen.Load()
}

// Blocks returns the number of blocks Read has completed.
func (t *Transport) Blocks() uint64 {
	return t.blocks.Load()
}

// Read fills buf with the next block of the track at its native rate,
// scaled by the gain. Paused or empty transports produce silence.
// Reaching the end while playing pauses the transport.
func (t *Transport) Read(buf *Buffer) {
	defer t.blocks.Add(1)

	tr := t.track.Load()
	if tr != t.seen.Load() {
		t.pos.Store(0)
		t.seen.Store(tr)
	}
	if seek := t.pendingSeek.Swap(noSeek); seek != noSeek {
		t.pos.Store(seek)
	}

	if buf.Empty() {
		return
	}
	if tr == nil || !t.playing.Load() {
		buf.Clear()
		t.rampGain = t.Gain()
		return
	}

	pos := t.pos.Load()
	frames := tr.Frames()
	n := int64(buf.NumSamples())
	avail := max(0, min(frames-pos, n))

	if avail > 0 {
		t.copyFrames(buf, tr, pos, int(avail))
	}
	buf.ClearFrom(int(avail))
	t.applyGain(buf, int(avail))

	pos += avail
	t.pos.Store(pos)
	if pos >= frames {
		t.playing.CompareAndSwap(true, false)
	}
}

// copyFrames maps track channels onto the block: extra block channels
// repeat the last track channel, and a mono block gets the average of a
// multi-channel track.
func (t *Transport) copyFrames(buf *Buffer, tr *Track, pos int64, n int) {
	src := tr.Channels
	end := pos + int64(n)

	if buf.NumChannels() == monoChannels && len(src) > monoChannels {
		dst := buf.Channel(0)[:n]
		copy(dst, src[0][pos:end])
		for _, ch := range src[1:] {
			for i, v := range ch[pos:end] {
				dst[i] += v
			}
		}
		t.ops.Scale(dst, dst, 1/float64(len(src)))
		return
	}

	for ch := range buf.NumChannels() {
		s := src[min(ch, len(src)-1)]
		copy(buf.Channel(ch)[:n], s[pos:end])
	}
}

// applyGain scales the first n samples, ramping linearly when the gain
// changed since the last block.
func (t *Transport) applyGain(buf *Buffer, n int) {
	target := t.Gain()
	start := t.rampGain
	t.rampGain = target

	if n == 0 {
		return
	}

	if start == target {
		if target == 1 {
			return
		}
		for ch := range buf.NumChannels() {
			s := buf.Channel(ch)[:n]
			t.ops.Scale(s, s, target)
		}
		return
	}

	step := (target - start) / float64(n)
	for ch := range buf.NumChannels() {
		g := start
		s := buf.Channel(ch)[:n]
		for i := range s {
			g += step
			s[i] *= g
		}
	}
}
