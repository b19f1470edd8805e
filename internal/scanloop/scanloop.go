// Package scanloop runs periodic maintenance work, like cache expiry
// sweeps, at a jittered cadence.
package scanloop

import (
	"context"
	"math/rand/v2"
	"time"
)

const (
	// DefaultMinInterval and DefaultJitterRange define the sweep cadence.
	DefaultMinInterval = 10 * time.Minute
	DefaultJitterRange = 30 * time.Second
)

// Run executes fn at a jittered interval until ctx is cancelled.
// The interval is: minInterval + random([0, jitterRange)).
func Run(ctx context.Context, minInterval, jitterRange time.Duration, fn func()) {
	if minInterval <= 0 {
		minInterval = time.Second
	}
	if jitterRange < 0 {
		jitterRange = 0
	}

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C // drain initial fire

	for {
		interval := minInterval
		if jitterRange > 0 {
			interval += time.Duration(rand.Int64N(int64(jitterRange)))
		}

		timer.Reset(interval)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		fn()
	}
}
