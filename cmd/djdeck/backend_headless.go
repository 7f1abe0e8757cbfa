//go:build headless

package main

import (
	"io"
	"sync"
	"time"
)

// output drains the rendered stream at real-time pace without a device.
type output struct {
	src      io.Reader
	period   time.Duration
	buf      []byte
	done     chan struct{}
	wg       sync.WaitGroup
	startOne sync.Once
	stopOne  sync.Once
}

func newOutput(sampleRate, channels int, src io.Reader) (*output, error) {
	frames := sampleRate / headlessTicksPerSecond
	return &output{
		src:    src,
		period: time.Second / headlessTicksPerSecond,
		buf:    make([]byte, frames*channels*bytesPerSample),
		done:   make(chan struct{}),
	}, nil
}

func (o *output) Start() {
	o.startOne.Do(func() {
		o.wg.Add(1)
		go o.run()
	})
}

func (o *output) run() {
	defer o.wg.Done()

	ticker := time.NewTicker(o.period)
	defer ticker.Stop()

	for {
		select {
		case <-o.done:
			return
		case <-ticker.C:
			_, _ = o.src.Read(o.buf)
		}
	}
}

func (o *output) Close() error {
	o.stopOne.Do(func() { close(o.done) })
	o.wg.Wait()
	return nil
}
