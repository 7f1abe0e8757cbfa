// Package deck implements the real-time signal path of a two-deck DJ player.
//
// Each [Player] chains a [Transport] (decoded track, cursor, gain), an
// [EffectsChain] (variable-speed resampling and reverb) and a [FilterStage]
// (low-pass then high-pass). A single audio goroutine pulls fixed-size
// blocks through [Player.ProduceBlock] while controls are changed from any
// other goroutine.
//
// # Quick Start
//
//	cfg := deck.DefaultConfig()
//	p, err := deck.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//
//	if err := p.PrepareToPlay(cfg.BlockSize, cfg.SampleRate); err != nil {
//	    log.Fatal(err)
//	}
//	if err := p.Load("track.wav"); err != nil {
//	    log.Fatal(err)
//	}
//	_ = p.Start()
//
//	buf := deck.NewBuffer(cfg.Channels, cfg.BlockSize)
//	for {
//	    p.ProduceBlock(buf) // on the audio goroutine
//	    writeToDevice(buf)
//	}
//
// # Real-time Rules
//
// ProduceBlock never allocates, blocks or takes a lock. Every control is
// published to the audio goroutine through an atomic value or an atomically
// swapped immutable snapshot, so a block sees either the old or the new
// setting of a parameter group and never a mix of both.
//
// Loading decodes the whole file on the caller's goroutine. The previous
// track is released by a background reclaimer once the audio goroutine has
// completed a block that no longer references it.
//
// # Validation
//
// Gain, speed, seek and reverb setters reject out-of-range values with an
// error wrapping [ErrOutOfRange] and keep the previous value. Filter
// frequency setters never fail: an invalid frequency is replaced by a fixed
// fallback (1000 Hz low-pass, 500 Hz high-pass).
//
// # Speed
//
// Speed is a plain resampling ratio: 2.0 plays twice as fast and an octave
// higher. The ratio is also corrected for the difference between the
// track's native rate and the device rate, so a 44.1 kHz file plays at its
// true pitch on a 48 kHz device.
package deck
