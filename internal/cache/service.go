package cache

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/puzpuzpuz/xsync/v4"
	"github.com/rs/zerolog"

	"github.com/civitas-app/civitas/internal/observability"
)

const (
	// MaxEntryBytes is the global per-entry ceiling for the persistent tier.
	// A payload over it is halved and retried once, then dropped; losing
	// cache data is acceptable, an unbounded row is not.
	MaxEntryBytes = 200 * 1024

	// DefaultMemoryEntries is the in-memory tier capacity target.
	DefaultMemoryEntries = 10

	// DefaultOnlineTTL and DefaultOfflineTTL are the persistent-tier entry
	// lifetimes for the two connectivity modes.
	DefaultOnlineTTL  = 2 * time.Minute
	DefaultOfflineTTL = 6 * time.Hour

	// defaultWriters bounds concurrent persistent-tier writers during a
	// bundle save, replacing timer-based write staggering.
	defaultWriters = 4

	storeFileName = "cache.db"
)

// ErrOversize is returned by Put when the payload exceeds MaxEntryBytes.
var ErrOversize = errors.New("cache: payload exceeds per-entry ceiling")

// Key addresses one cached record list: a domain plus its language variant.
type Key struct {
	Domain string
	Lang   string
}

// NoLanguage is the Lang value for domains without language variants.
const NoLanguage = "-"

func (k Key) String() string {
	lang := k.Lang
	if lang == "" {
		lang = NoLanguage
	}
	return k.Domain + "|" + lang
}

// Options configures a Service.
type Options struct {
	// Dir is the directory holding the persistent store file.
	Dir           string
	Clock         clockwork.Clock
	Log           zerolog.Logger
	Metrics       *observability.Metrics
	MemoryEntries int
	OnlineTTL     time.Duration
	OfflineTTL    time.Duration
	// Writers bounds concurrent persistent writes; 0 means the default.
	Writers int
}

// Service is the two-tier cache. The memory tier is safe for concurrent use
// by all domain tasks; persistent writes are serialized per key but run
// concurrently across keys, bounded by the writer pool. No lock is held
// across the store I/O itself beyond the per-key write guard.
type Service struct {
	log     zerolog.Logger
	clock   clockwork.Clock
	metrics *observability.Metrics

	mem   *Memory
	store *Store

	offline    atomic.Bool
	onlineTTL  time.Duration
	offlineTTL time.Duration

	writerSem chan struct{}
	keyLocks  *xsync.Map[string, *sync.Mutex]
}

// NewService opens the persistent tier under opts.Dir and assembles the
// two-tier service.
func NewService(opts Options) (*Service, error) {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetricsForTesting()
	}
	if opts.MemoryEntries <= 0 {
		opts.MemoryEntries = DefaultMemoryEntries
	}
	if opts.OnlineTTL <= 0 {
		opts.OnlineTTL = DefaultOnlineTTL
	}
	if opts.OfflineTTL <= 0 {
		opts.OfflineTTL = DefaultOfflineTTL
	}
	if opts.Writers <= 0 {
		opts.Writers = defaultWriters
	}

	store, err := OpenStore(filepath.Join(opts.Dir, storeFileName))
	if err != nil {
		return nil, err
	}

	return &Service{
		log:        opts.Log.With().Str("component", "cache").Logger(),
		clock:      opts.Clock,
		metrics:    opts.Metrics,
		mem:        NewMemory(opts.MemoryEntries, opts.Clock),
		store:      store,
		onlineTTL:  opts.OnlineTTL,
		offlineTTL: opts.OfflineTTL,
		writerSem:  make(chan struct{}, opts.Writers),
		keyLocks:   xsync.NewMap[string, *sync.Mutex](),
	}, nil
}

// SetOffline switches the TTL applied to subsequent writes.
func (s *Service) SetOffline(offline bool) {
	s.offline.Store(offline)
}

// Offline reports the current connectivity mode.
func (s *Service) Offline() bool {
	return s.offline.Load()
}

// ttl returns the entry lifetime for the current mode.
func (s *Service) ttl() time.Duration {
	if s.offline.Load() {
		return s.offlineTTL
	}
	return s.onlineTTL
}

// Get returns the cached payload for key, consulting the memory tier first.
// Persistent-tier I/O failures are logged and reported as misses.
func (s *Service) Get(key Key) ([]byte, bool) {
	k := key.String()

	if payload, ok := s.mem.Get(k); ok {
		s.metrics.CacheLookups.WithLabelValues("memory", "hit").Inc()
		return payload, true
	}
	s.metrics.CacheLookups.WithLabelValues("memory", "miss").Inc()

	now := s.clock.Now()
	payload, expiresNs, ok, err := s.store.Get(k, now.UnixNano())
	if err != nil {
		s.log.Warn().Err(err).Str("key", k).Msg("persistent tier read failed; treating as miss")
		s.metrics.CacheLookups.WithLabelValues("persistent", "miss").Inc()
		return nil, false
	}
	if !ok {
		s.metrics.CacheLookups.WithLabelValues("persistent", "miss").Inc()
		return nil, false
	}
	s.metrics.CacheLookups.WithLabelValues("persistent", "hit").Inc()

	// Promote so the next read for this key is memory-served. Promotion must
	// not outlive the row: the memory copy keeps the row's own deadline,
	// capped at one TTL from now.
	expiry := time.Unix(0, expiresNs)
	if capped := now.Add(s.ttl()); capped.Before(expiry) {
		expiry = capped
	}
	s.mem.Set(k, payload, expiry)
	return payload, true
}

// Put writes payload through both tiers. Returns ErrOversize without writing
// when the payload exceeds MaxEntryBytes; the caller decides how to shrink.
// Persistent I/O errors are logged and swallowed: the memory tier still holds
// the fresh payload and the refresh must not fail over a disk problem.
func (s *Service) Put(key Key, payload []byte) error {
	if len(payload) > MaxEntryBytes {
		return ErrOversize
	}

	k := key.String()
	now := s.clock.Now()
	expiresAt := now.Add(s.ttl())

	s.mem.Set(k, payload, expiresAt)

	s.writerSem <- struct{}{}
	defer func() { <-s.writerSem }()

	lock, _ := s.keyLocks.LoadOrStore(k, &sync.Mutex{})
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.Put(k, payload, now.UnixNano(), expiresAt.UnixNano()); err != nil {
		s.metrics.CacheWriteDrops.WithLabelValues("io").Inc()
		s.log.Warn().Err(err).Str("key", k).Msg("persistent tier write failed")
	}
	return nil
}

// Invalidate drops key from both tiers.
func (s *Service) Invalidate(key Key) {
	k := key.String()
	s.mem.Delete(k)
	if err := s.store.Delete(k); err != nil {
		s.log.Warn().Err(err).Str("key", k).Msg("persistent tier delete failed")
	}
}

// DeleteExpired reaps expired persistent rows.
func (s *Service) DeleteExpired() int64 {
	n, err := s.store.DeleteExpired(s.clock.Now().UnixNano())
	if err != nil {
		s.log.Warn().Err(err).Msg("expired-row sweep failed")
		return 0
	}
	return n
}

// Sweep prunes both tiers; run periodically from the sweep loop and
// opportunistically during cache activity.
func (s *Service) Sweep() {
	memSwept := s.mem.Sweep()
	rowsSwept := s.DeleteExpired()
	if memSwept > 0 || rowsSwept > 0 {
		s.log.Debug().Int("memory", memSwept).Int64("rows", rowsSwept).Msg("cache sweep")
	}
}

// ClearAll drops both tiers synchronously. Used for explicit user-triggered
// resets and the low-memory emergency path.
func (s *Service) ClearAll() error {
	s.mem.Clear()
	if err := s.store.Clear(); err != nil {
		s.log.Error().Err(err).Msg("persistent tier clear failed")
		return err
	}
	return nil
}

/// EmergencyClear is the resource-exhaustion path: drop everything and ask
// the runtime to return freed memory to the OS before the caller degrades
// its operation to an empty result.
func (s *Service) EmergencyClear() {
	s.log.Warn().Msg("emergency cache clear")
	_ = s.ClearAll()
	debug.FreeOSMemory()
}

// HasAnyRows reports whether the persistent tier holds at least one row,
// expired or not. I/O failure counts as no rows.
func (s *Service) HasAnyRows() bool {
	n, err := s.store.Count()
	if err != nil {
		s.log.Warn().Err(err).Msg("row count failed")
		return false
	}
	return n > 0
}

// Close closes the persistent tier.
func (s *Service) Close() error {
	return s.store.Close()
}

// PutRecords serializes records for key and writes them through the service,
// applying the bounds in order: the per-domain row cap by truncation before
// serialization, then the byte ceiling with one halve-and-retry. An entry
// that still does not fit is abandoned with a warning; no partial row is
// ever persisted.
func PutRecords[T any](s *Service, key Key, records []T, rowCap int) {
	if rowCap > 0 && len(records) > rowCap {
		records = records[:rowCap]
	}

	payload, err := json.Marshal(records)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key.String()).Msg("serialize failed; write abandoned")
		return
	}

	if err := s.Put(key, payload); !errors.Is(err, ErrOversize) {
		return
	}

	half := records[:len(records)/2]
	payload, err = json.Marshal(half)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key.String()).Msg("serialize failed; write abandoned")
		return
	}
	if err := s.Put(key, payload); errors.Is(err, ErrOversize) {
		s.metrics.CacheWriteDrops.WithLabelValues("oversize").Inc()
		s.log.Warn().
			Str("key", key.String()).
			Int("records", len(records)).
			Msg("entry oversize after halving; write abandoned")
	}
}

// GetRecords reads and decodes the record list cached for key. A corrupt
// payload is treated as a miss.
func GetRecords[T any](s *Service, key Key) ([]T, bool) {
	payload, ok := s.Get(key)
	if !ok {
		return nil, false
	}
	var out []T
	if err := json.Unmarshal(payload, &out); err != nil {
		s.log.Warn().Err(err).Str("key", key.String()).Msg("corrupt cached payload; treating as miss")
		return nil, false
	}
	return out, true
}
