package scanloop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var runs atomic.Int64
	done := make(chan struct{})
	go func() {
		Run(ctx, 5*time.Millisecond, 0, func() { runs.Add(1) })
		close(done)
	}()

	// Let at least one interval elapse, then cancel.
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after cancel")
	}
	if runs.Load() == 0 {
		t.Fatal("fn never ran")
	}
}

func TestRun_NoImmediateFire(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int64
	go Run(ctx, time.Hour, 0, func() { runs.Add(1) })

	time.Sleep(20 * time.Millisecond)
	if runs.Load() != 0 {
		t.Fatal("fn ran before the first interval elapsed")
	}
}
