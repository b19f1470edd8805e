package cache

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestMemory_GetRespectsExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	mem := NewMemory(10, clock)

	mem.Set("k", []byte("v"), clock.Now().Add(time.Minute))
	if _, ok := mem.Get("k"); !ok {
		t.Fatal("fresh entry should hit")
	}

	clock.Advance(2 * time.Minute)
	if _, ok := mem.Get("k"); ok {
		t.Fatal("expired entry should miss")
	}
}

func TestMemory_SweepPrunesExpiredOnly(t *testing.T) {
	clock := clockwork.NewFakeClock()
	mem := NewMemory(10, clock)

	mem.Set("old", []byte("v"), clock.Now().Add(time.Second))
	mem.Set("new", []byte("v"), clock.Now().Add(time.Hour))
	clock.Advance(time.Minute)

	if n := mem.Sweep(); n != 1 {
		t.Fatalf("sweep: got %d, want 1", n)
	}
	if _, ok := mem.Get("new"); !ok {
		t.Fatal("unexpired entry must survive the sweep")
	}
}

func TestMemory_ClearAndMissSemantics(t *testing.T) {
	clock := clockwork.NewFakeClock()
	mem := NewMemory(10, clock)

	mem.Set("k", []byte("v"), clock.Now().Add(time.Hour))
	mem.Clear()

	// A miss is a miss, never an error: callers fall through to the
	// persistent tier.
	if _, ok := mem.Get("k"); ok {
		t.Fatal("expected miss after clear")
	}
}
