package deck

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// retired is a track waiting to be released.
type retired struct {
	track *Track
	seq   uint64 // block sequence at the moment of the swap
}

// reclaimer releases replaced tracks off the audio goroutine. A track is
// closed once the audio goroutine has completed reclaimBlocks blocks since
// the swap, or at once if no audio goroutine is running.
type reclaimer struct {
	log      zerolog.Logger
	seq      func() uint64
	prepared func() bool

	queue chan retired
	done  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

func newReclaimer(seq func() uint64, prepared func() bool, logger zerolog.Logger) *reclaimer {
	r := &reclaimer{
		log:      logger,
		seq:      seq,
		prepared: prepared,
		queue:    make(chan retired, 16),
		done:     make(chan struct{}),
	}

	r.wg.Add(1)
	go r.run()
	return r
}

// retire queues t for release. Must not be called on the audio goroutine.
func (r *reclaimer) retire(t *Track, seq uint64) {
	if t == nil {
		return
	}

	select {
	case <-r.done:
		// Shut down; the caller holds the only reference now.
		r.release(t)
		return
	default:
	}

	select {
	case r.queue <- retired{track: t, seq: seq}:
	case <-r.done:
		r.release(t)
	}
}

func (r *reclaimer) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(reclaimInterval)
	defer ticker.Stop()

	var pending []retired
	for {
		select {
		case item := <-r.queue:
			pending = append(pending, item)
		case <-ticker.C:
		case <-r.done:
			// Drain whatever is still queued.
			for {
				select {
				case item := <-r.queue:
					pending = append(pending, item)
				default:
					for _, item := range pending {
						r.release(item.track)
					}
					return
				}
			}
		}

		pending = r.sweep(pending)
	}
}

// sweep releases every pending track the audio goroutine can no longer see
// and returns the rest.
func (r *reclaimer) sweep(pending []retired) []retired {
	if len(pending) == 0 {
		return pending
	}

	idle := !r.prepared()
	now := r.seq()

	kept := pending[:0]
	for _, item := range pending {
		if idle || now >= item.seq+reclaimBlocks {
			r.release(item.track)
			continue
		}
		kept = append(kept, item)
	}
	clear(pending[len(kept):])
	return kept
}

func (r *reclaimer) release(t *Track) {
	frames := t.Frames()
	if err := t.Close(); err != nil {
		r.log.Warn().Err(err).Str("ref", t.Ref).Msg("failed to release track")
		return
	}
	r.log.Debug().Str("ref", t.Ref).Int64("frames", frames).Msg("released track")
}

// Close stops the reclaimer and releases everything still queued. The
// audio goroutine must be stopped first.
func (r *reclaimer) Close() {
	r.once.Do(func() {
		close(r.done)
		r.wg.Wait()
	})
}
