// Package pacing produces bounded random delays so scripted interaction
// does not run at a fixed machine cadence.
package pacing

import (
	"context"
	"math/rand/v2"
	"time"
)

// Between returns a uniformly random duration in [min, max). If max is not
// greater than min, it returns min.
func Between(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int64N(int64(max-min)))
}

// Sleep suspends the caller for a uniformly random duration in [min, max),
// returning early with the context's error if it is cancelled first.
func Sleep(ctx context.Context, min, max time.Duration) error {
	d := Between(min, max)
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
