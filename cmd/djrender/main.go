// Command djrender plays a file through one deck offline and writes the
// result to a 16-bit WAV file.
package main

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/rs/zerolog"

	deck "github.com/tphakala/go-dj-deck"
)

// Default command-line flag values
const (
	defaultSampleRate = 44100
	defaultBlockSize  = 512
	defaultChannels   = 2
	defaultSeconds    = 10.0

	outputBitDepth = 16
	wavPCMFormat   = 1
	maxInt16       = 32767
)

type settings struct {
	input, output string
	sampleRate    int
	blockSize     int
	channels      int
	seconds       float64
	start         float64

	gain, speed       float64
	lowPass, highPass float64
	room, damping     float64
	wet, dry          float64
	linear            bool
	conversion        deck.Conversion
}

func main() {
	var s settings
	flag.StringVar(&s.input, "input", "", "Input audio file (wav, mp3, flac, ogg)")
	flag.StringVar(&s.output, "output", "render.wav", "Output WAV file")
	flag.IntVar(&s.sampleRate, "rate", defaultSampleRate, "Output sample rate in Hz")
	flag.IntVar(&s.blockSize, "block", defaultBlockSize, "Block size in samples")
	flag.IntVar(&s.channels, "channels", defaultChannels, "Output channels (1 or 2)")
	flag.Float64Var(&s.seconds, "seconds", defaultSeconds, "Seconds of output to render")
	flag.Float64Var(&s.start, "start", 0, "Start position as a fraction of the track")
	flag.Float64Var(&s.gain, "gain", 1, "Gain [0, 1]")
	flag.Float64Var(&s.speed, "speed", 1, "Speed ratio [0, 100]")
	flag.Float64Var(&s.lowPass, "lpf", deck.DefaultLowPassFrequency, "Low-pass cutoff in Hz")
	flag.Float64Var(&s.highPass, "hpf", deck.DefaultHighPassFrequency, "High-pass cutoff in Hz")
	flag.Float64Var(&s.room, "room", 0, "Reverb room size [0, 1]")
	flag.Float64Var(&s.damping, "damping", 0, "Reverb damping [0, 1]")
	flag.Float64Var(&s.wet, "wet", 0, "Reverb wet level [0, 1]")
	flag.Float64Var(&s.dry, "dry", 1, "Reverb dry level [0, 1]")
	flag.BoolVar(&s.linear, "linear", false, "Use linear instead of cubic interpolation")
	conversion := flag.String("conversion", deck.ConversionMedium.String(), "Load-time rate conversion: off, low, medium, high")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	conv, err := deck.ParseConversion(*conversion)
	if err != nil {
		logger.Fatal().Err(err).Msg("bad flag")
	}
	s.conversion = conv

	if s.input == "" {
		fmt.Fprintln(os.Stderr, "usage: djrender -input <file> [-output out.wav] [options]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	frames, err := render(s, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("render failed")
	}
	logger.Info().Str("output", s.output).Int("frames", frames).Msg("done")
}

func render(s settings, logger zerolog.Logger) (frames int, err error) {
	cfg := deck.DefaultConfig()
	cfg.Channels = s.channels
	cfg.BlockSize = s.blockSize
	cfg.SampleRate = float64(s.sampleRate)
	cfg.Logger = logger
	if s.linear {
		cfg.Interpolation = deck.InterpolationLinear
	}
	cfg.Conversion = s.conversion

	p, err := deck.New(cfg)
	if err != nil {
		return 0, err
	}
	defer func() { _ = p.Close() }()

	if err := p.PrepareToPlay(cfg.BlockSize, cfg.SampleRate); err != nil {
		return 0, err
	}
	if err := p.Load(s.input); err != nil {
		return 0, err
	}

	// Filters are reset by PrepareToPlay, so they are set afterwards.
	p.SetLowPassFrequency(s.lowPass)
	p.SetHighPassFrequency(s.highPass)
	if err := errors.Join(
		p.SetGain(s.gain),
		p.SetSpeed(s.speed),
		p.SetReverbParameters(s.room, s.damping, s.wet, s.dry),
		p.SetPositionRelative(s.start),
	); err != nil {
		return 0, err
	}
	if err := p.Start(); err != nil {
		return 0, err
	}

	f, err := os.Create(s.output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	enc := wav.NewEncoder(f, s.sampleRate, outputBitDepth, s.channels, wavPCMFormat)
	defer func() {
		if closeErr := enc.Close(); err == nil {
			err = closeErr
		}
	}()

	total := int(math.Round(s.seconds * float64(s.sampleRate)))
	buf := deck.NewBuffer(s.channels, s.blockSize)
	out := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: s.channels, SampleRate: s.sampleRate},
		Data:           make([]int, s.blockSize*s.channels),
		SourceBitDepth: outputBitDepth,
	}

	for frames < total {
		n := min(s.blockSize, total-frames)
		buf.SetNumSamples(n)
		p.ProduceBlock(buf)

		out.Data = out.Data[:n*s.channels]
		for ch := range s.channels {
			for i, v := range buf.Channel(ch) {
				out.Data[i*s.channels+ch] = int(math.Round(min(1, max(-1, v)) * maxInt16))
			}
		}
		if err := enc.Write(out); err != nil {
			return frames, fmt.Errorf("failed to write audio data: %w", err)
		}
		frames += n
	}

	logger.Debug().
		Float64("position", p.PositionRelative()).
		Str("state", p.State().String()).
		Msg("render finished")
	return frames, nil
}
