package deck

import (
	"context"
	"time"
)

// PositionSource is anything with a relative playback position.
type PositionSource interface {
	PositionRelative() float64
}

// PollPosition calls fn with src's relative position every interval until
// ctx is done. A non-positive interval uses DefaultPollInterval.
func PollPosition(ctx context.Context, src PositionSource, interval time.Duration, fn func(relative float64)) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fn(src.PositionRelative())
		}
	}
}
