// Command djdeck is an interactive two-deck player driven by text commands
// on stdin.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	deck "github.com/tphakala/go-dj-deck"
	"github.com/tphakala/go-dj-deck/internal/config"
	"github.com/tphakala/go-dj-deck/internal/playlist"
	"github.com/tphakala/go-dj-deck/internal/source"
)

func main() {
	env := config.Load()

	// Command-line flags override the environment.
	var (
		sampleRate = flag.Int("rate", env.SampleRate, "Device sample rate in Hz")
		blockSize  = flag.Int("block", env.BlockSize, "Block size in samples")
		channels   = flag.Int("channels", env.Channels, "Output channels (1 or 2)")
		library    = flag.String("library", env.Library, "Playlist file")
		linear     = flag.Bool("linear", false, "Use linear instead of cubic interpolation")
		conversion = flag.String("conversion", env.Conversion, "Load-time rate conversion: off, low, medium, high")
		level      = flag.String("log-level", env.LogLevel.String(), "Log level: debug, info, warn, error")
		poll       = flag.Duration("poll", env.PollInterval, "Position feed interval")
	)
	flag.Parse()

	lvl, err := zerolog.ParseLevel(*level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, options{
		sampleRate: *sampleRate,
		blockSize:  *blockSize,
		channels:   *channels,
		library:    *library,
		linear:     *linear,
		conversion: *conversion,
		poll:       *poll,
	}); err != nil {
		logger.Fatal().Err(err).Msg("djdeck failed")
	}
}

type options struct {
	sampleRate int
	blockSize  int
	channels   int
	library    string
	linear     bool
	conversion string
	poll       time.Duration
}

func run(ctx context.Context, logger zerolog.Logger, opts options) error {
	cfg := deck.DefaultConfig()
	cfg.Channels = opts.channels
	cfg.BlockSize = opts.blockSize
	cfg.SampleRate = float64(opts.sampleRate)
	cfg.Logger = logger
	if opts.linear {
		cfg.Interpolation = deck.InterpolationLinear
	}
	conv, err := deck.ParseConversion(opts.conversion)
	if err != nil {
		return err
	}
	cfg.Conversion = conv

	controls := deck.NewControls(logger)
	decks := make(map[string]*deck.Player, len(deckNames))
	players := make([]*deck.Player, 0, len(deckNames))
	for _, name := range deckNames {
		c := cfg
		c.Logger = logger.With().Str("deck", name).Logger()
		p, err := deck.New(c)
		if err != nil {
			return err
		}
		defer func() { _ = p.Close() }()

		if err := controls.BindPlayer(name, p); err != nil {
			return err
		}
		decks[name] = p
		players = append(players, p)
	}

	mixer := deck.NewMixer(cfg.Channels, players...)
	if err := mixer.Prepare(cfg.BlockSize, cfg.SampleRate); err != nil {
		return err
	}

	lib := playlist.NewLibrary()
	if err := lib.Load(opts.library); err != nil {
		logger.Warn().Err(err).Str("path", opts.library).Msg("could not restore library")
	}
	logger.Info().Int("tracks", lib.Len()).Str("path", opts.library).Msg("library restored")
	defer func() {
		if err := lib.Save(opts.library); err != nil {
			logger.Error().Err(err).Msg("could not save library")
			return
		}
		logger.Info().Int("tracks", lib.Len()).Msg("library saved")
	}()

	rend := newRenderer(mixer, cfg.Channels, cfg.BlockSize)
	out, err := newOutput(opts.sampleRate, cfg.Channels, rend)
	if err != nil {
		return err
	}
	out.Start()
	defer func() { _ = out.Close() }()

	for name, p := range decks {
		go func() {
			_ = deck.PollPosition(ctx, p, opts.poll, func(rel float64) {
				if p.Playing() {
					logger.Debug().Str("deck", name).Float64("position", rel).Msg("position")
				}
			})
		}()
	}

	sh := &shell{
		decks:    decks,
		controls: controls,
		library:  lib,
		probe:    source.Probe,
		clipped:  rend.Clipped,
		out:      os.Stdout,
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	fmt.Fprintln(os.Stdout, "djdeck ready, type help")
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			err := sh.exec(line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintln(os.Stdout, "error:", err)
			}
		}
	}
}
