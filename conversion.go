package deck

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tphakala/go-dj-deck/internal/rateconv"
	"github.com/tphakala/go-dj-deck/internal/source"
)

// Conversion selects how a loaded track is brought to the device rate.
type Conversion int

const (
	// ConversionOff keeps tracks at their native rate. The speed resampler
	// absorbs the rate difference.
	ConversionOff Conversion = iota

	// ConversionLow converts at load time with a short filter.
	ConversionLow

	// ConversionMedium converts at load time with a ~100 dB filter.
	ConversionMedium

	// ConversionHigh converts at load time with a ~125 dB filter and a
	// wider passband.
	ConversionHigh
)

// String returns the conversion name.
func (c Conversion) String() string {
	switch c {
	case ConversionOff:
		return "off"
	case ConversionLow:
		return "low"
	case ConversionMedium:
		return "medium"
	case ConversionHigh:
		return "high"
	default:
		return fmt.Sprintf("Conversion(%d)", int(c))
	}
}

// ParseConversion maps a name accepted by String back to its Conversion.
func ParseConversion(name string) (Conversion, error) {
	for c := ConversionOff; c <= ConversionHigh; c++ {
		if strings.EqualFold(name, c.String()) {
			return c, nil
		}
	}
	return ConversionOff, fmt.Errorf("%w: unknown conversion %q", ErrInvalidConfig, name)
}

func (c Conversion) quality() (rateconv.Quality, bool) {
	switch c {
	case ConversionLow:
		return rateconv.QualityLow, true
	case ConversionMedium:
		return rateconv.QualityMedium, true
	case ConversionHigh:
		return rateconv.QualityHigh, true
	default:
		return 0, false
	}
}

// convert returns tr resampled to the device rate, closing tr. It returns
// tr unchanged when conversion is off, the rates already match, or the
// converter rejects the pair; Ratio then corrects for the native rate.
// Callers hold loadMu.
func (t *Transport) convert(tr *Track) *Track {
	q, ok := t.conversion.quality()
	rate := t.DeviceRate()
	if !ok || tr.SampleRate == rate {
		return tr
	}

	conv, err := rateconv.New(rateconv.Config{InputRate: tr.SampleRate, OutputRate: rate, Quality: q})
	if err != nil {
		t.log.Warn().Err(err).
			Str("ref", tr.Ref).
			Float64("track_rate", tr.SampleRate).
			Float64("device_rate", rate).
			Msg("rate conversion unavailable, playing at native rate")
		return tr
	}

	start := time.Now()
	out := source.NewDecoded(tr.Ref, conv.Convert(tr.Channels), rate)
	t.log.Debug().
		Str("ref", tr.Ref).
		Float64("from", tr.SampleRate).
		Float64("to", rate).
		Str("quality", q.String()).
		Int("taps", conv.Taps()).
		Dur("took", time.Since(start)).
		Msg("track converted")

	if err := tr.Close(); err != nil {
		t.log.Warn().Err(err).Str("ref", tr.Ref).Msg("closing native track failed")
	}
	return out
}

// reconvert brings the loaded track to a new device rate, keeping the
// cursor and any pending seek at the same time in the track. It runs from
// Prepare with loadMu held and the audio goroutine stopped.
func (t *Transport) reconvert() {
	tr := t.track.Load()
	if tr == nil {
		return
	}

	seen := t.seen.Load() == tr
	next := t.convert(tr)
	if next == tr {
		return
	}

	scale := next.SampleRate / tr.SampleRate
	if seek := t.pendingSeek.Load(); seek != noSeek {
		t.pendingSeek.Store(int64(math.Round(float64(seek) * scale)))
	}
	if seen {
		t.pos.Store(int64(math.Round(float64(t.pos.Load()) * scale)))
		t.seen.Store(next)
	}
	t.track.Store(next)
}
