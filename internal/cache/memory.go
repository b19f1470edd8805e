package cache

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/maypok86/otter"
)

// memEntry is one in-memory cached payload with its own expiry. The tier is
// advisory: entries can be evicted by the LRU at any moment and a miss only
// forces a persistent-tier lookup.
type memEntry struct {
	payload   []byte
	expiresAt time.Time
}

// Memory is the bounded in-memory tier, backed by an otter LRU. An explicit
// capacity gives the "best-effort, evictable" behavior deterministically
// instead of leaning on GC weak references.
type Memory struct {
	cache otter.Cache[string, memEntry]
	clock clockwork.Clock
}

// NewMemory creates the in-memory tier bounded to maxEntries live entries.
func NewMemory(maxEntries int, clock clockwork.Clock) *Memory {
	cache, err := otter.MustBuilder[string, memEntry](maxEntries).
		Cost(func(_ string, _ memEntry) uint32 { return 1 }).
		Build()
	if err != nil {
		panic("cache: failed to create memory tier: " + err.Error())
	}
	return &Memory{cache: cache, clock: clock}
}

// Get returns the payload for key if present and unexpired.
func (m *Memory) Get(key string) ([]byte, bool) {
	e, ok := m.cache.Get(key)
	if !ok {
		return nil, false
	}
	if m.clock.Now().After(e.expiresAt) {
		m.cache.Delete(key)
		return nil, false
	}
	return e.payload, true
}

// Set stores the payload for key with the given expiry.
func (m *Memory) Set(key string, payload []byte, expiresAt time.Time) {
	m.cache.Set(key, memEntry{payload: payload, expiresAt: expiresAt})
}

// Delete drops the entry for key if present.
func (m *Memory) Delete(key string) {
	m.cache.Delete(key)
}

// Sweep prunes entries whose expiry has passed and reports how many.
func (m *Memory) Sweep() int {
	now := m.clock.Now()
	var expired []string
	m.cache.Range(func(key string, e memEntry) bool {
		if now.After(e.expiresAt) {
			expired = append(expired, key)
		}
		return true
	})
	for _, key := range expired {
		m.cache.Delete(key)
	}
	return len(expired)
}

// Clear drops every entry.
func (m *Memory) Clear() {
	m.cache.Clear()
}

// Size returns the current entry count.
func (m *Memory) Size() int {
	return m.cache.Size()
}
