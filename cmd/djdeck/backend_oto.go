//go:build !headless

package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// output plays the rendered stream through the system audio device.
type output struct {
	ctx     *oto.Context
	player  *oto.Player
	started bool
	mutex   sync.Mutex
}

func newOutput(sampleRate, channels int, src io.Reader) (*output, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	return &output{
		ctx:    ctx,
		player: ctx.NewPlayer(src),
	}, nil
}

func (o *output) Start() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if !o.started {
		o.player.Play()
		o.started = true
	}
}

func (o *output) Close() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.started = false
	if o.player == nil {
		return nil
	}
	err := o.player.Close()
	o.player = nil
	return err
}
