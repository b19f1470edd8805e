// Package orchestrator runs the concurrent refresh across all feed domains
// and serves the resulting bundles, falling back to cached rows per domain.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/puzpuzpuz/xsync/v4"
	"github.com/rs/zerolog"

	"github.com/civitas-app/civitas/internal/bundle"
	"github.com/civitas-app/civitas/internal/cache"
	"github.com/civitas-app/civitas/internal/feed"
	"github.com/civitas-app/civitas/internal/netutil"
	"github.com/civitas-app/civitas/internal/observability"
)

const (
	// DefaultRefreshTimeout bounds one full fan-out cycle.
	DefaultRefreshTimeout = 30 * time.Second
	// DefaultSnapshotTTL is how long an assembled bundle is reused before a
	// caller triggers a new refresh.
	DefaultSnapshotTTL = 30 * time.Second
)

// ErrNoData means every domain came back empty and the persistent cache
// holds nothing to fall back on. Partial failures never produce this; one
// populated domain is enough for a bundle.
var ErrNoData = errors.New("orchestrator: no data from any domain and cache is empty")

// Options configures an Orchestrator.
type Options struct {
	Registry feed.Registry
	Fetcher  *netutil.Fetcher
	Cache    *cache.Service
	Clock    clockwork.Clock
	Log      zerolog.Logger
	Metrics  *observability.Metrics
	// RefreshTimeout bounds one refresh cycle; 0 means the default.
	RefreshTimeout time.Duration
	// SnapshotTTL bounds bundle reuse per language; 0 means the default.
	SnapshotTTL time.Duration
}

type snapshot struct {
	bundle  *bundle.Bundle
	expires time.Time
}

// Orchestrator owns the refresh cycle. Snapshots are kept per language so
// concurrent callers within the TTL share one bundle and one upstream sweep.
type Orchestrator struct {
	registry feed.Registry
	fetcher  *netutil.Fetcher
	cache    *cache.Service
	clock    clockwork.Clock
	log      zerolog.Logger
	metrics  *observability.Metrics

	refreshTimeout time.Duration
	snapshotTTL    time.Duration

	snapshots    *xsync.Map[string, snapshot]
	refreshLocks *xsync.Map[string, *sync.Mutex]
}

// New assembles an Orchestrator from opts.
func New(opts Options) *Orchestrator {
	if opts.Registry == nil {
		opts.Registry = feed.DefaultRegistry()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetricsForTesting()
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = DefaultRefreshTimeout
	}
	if opts.SnapshotTTL <= 0 {
		opts.SnapshotTTL = DefaultSnapshotTTL
	}
	return &Orchestrator{
		registry:       opts.Registry,
		fetcher:        opts.Fetcher,
		cache:          opts.Cache,
		clock:          opts.Clock,
		log:            opts.Log,
		metrics:        opts.Metrics,
		refreshTimeout: opts.RefreshTimeout,
		snapshotTTL:    opts.SnapshotTTL,
		snapshots:      xsync.NewMap[string, snapshot](),
		refreshLocks:   xsync.NewMap[string, *sync.Mutex](),
	}
}

// Bundle returns the current bundle for lang, refreshing if the per-language
// snapshot is absent or expired. Concurrent callers for the same language
// wait on one refresh instead of fanning out separately.
func (o *Orchestrator) Bundle(ctx context.Context, lang string) (*bundle.Bundle, error) {
	lang = feed.NormalizeLanguage(lang)
	if b := o.cachedSnapshot(lang); b != nil {
		return b, nil
	}

	mu, _ := o.refreshLocks.LoadOrStore(lang, &sync.Mutex{})
	mu.Lock()
	defer mu.Unlock()

	// Another caller may have refreshed while we waited on the lock.
	if b := o.cachedSnapshot(lang); b != nil {
		return b, nil
	}
	return o.Refresh(ctx, lang)
}

// Refresh runs a full fan-out for lang regardless of snapshot freshness and
// stores the result as the new snapshot. The background scheduler uses this
// directly so its cycles always hit upstream.
func (o *Orchestrator) Refresh(ctx context.Context, lang string) (*bundle.Bundle, error) {
	lang = feed.NormalizeLanguage(lang)

	ctx, cancel := context.WithTimeout(ctx, o.refreshTimeout)
	defer cancel()

	start := o.clock.Now()
	refreshID := uuid.NewString()
	log := o.log.With().Str("refresh_id", refreshID).Str("lang", lang).Logger()

	res := o.collect(ctx, lang, log)

	if res.AllEmpty() && !o.cache.HasAnyRows() {
		o.metrics.RefreshTotal.WithLabelValues("no_data").Inc()
		log.Error().Msg("refresh produced no data and cache is empty")
		return nil, ErrNoData
	}

	b := bundle.Assemble(res, o.clock.Now(), refreshID, lang)
	o.snapshots.Store(lang, snapshot{bundle: b, expires: o.clock.Now().Add(o.snapshotTTL)})

	elapsed := o.clock.Since(start)
	o.metrics.RefreshDuration.Observe(elapsed.Seconds())
	o.metrics.RefreshTotal.WithLabelValues("ok").Inc()
	log.Info().
		Dur("elapsed", elapsed).
		Int("domains", len(res.Sources)).
		Msg("refresh complete")
	return b, nil
}

// InvalidateSnapshots drops every per-language snapshot so the next caller
// triggers a refresh.
func (o *Orchestrator) InvalidateSnapshots() {
	o.snapshots.Range(func(lang string, _ snapshot) bool {
		o.snapshots.Delete(lang)
		return true
	})
}

// ClearCache empties both cache tiers, invalidates all snapshots, and
// releases the fetcher's idle connections. The next refresh starts from a
// cold cache and a cold connection pool.
func (o *Orchestrator) ClearCache() error {
	err := o.cache.ClearAll()
	o.InvalidateSnapshots()
	o.fetcher.Close()
	return err
}

func (o *Orchestrator) cachedSnapshot(lang string) *bundle.Bundle {
	snap, ok := o.snapshots.Load(lang)
	if !ok || o.clock.Now().After(snap.expires) {
		return nil
	}
	return snap.bundle
}

// collect fans out one goroutine per domain and gathers the per-domain
// outcomes. A panic in any single task demotes that domain to empty without
// disturbing the rest of the cycle.
func (o *Orchestrator) collect(ctx context.Context, lang string, log zerolog.Logger) bundle.Results {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	res := bundle.Results{Sources: make(map[feed.DomainID]bundle.Source, len(o.registry))}

	run := func(id feed.DomainID, task func(context.Context) bundle.Source) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			src := o.guard(id, log, func() bundle.Source { return task(ctx) })
			mu.Lock()
			res.Sources[id] = src
			mu.Unlock()
		}()
	}

	run(feed.DomainAlerts, func(ctx context.Context) bundle.Source {
		var src bundle.Source
		res.Alerts, src = fetchDelimited(ctx, o, lang, feed.DomainAlerts, feed.DecodeAlert, log)
		return src
	})
	run(feed.DomainWeatherReports, func(ctx context.Context) bundle.Source {
		var src bundle.Source
		res.WeatherReports, src = fetchDelimited(ctx, o, lang, feed.DomainWeatherReports, feed.DecodeWeatherReport, log)
		return src
	})
	run(feed.DomainTrafficReports, func(ctx context.Context) bundle.Source {
		var src bundle.Source
		res.TrafficReports, src = fetchDelimited(ctx, o, lang, feed.DomainTrafficReports, feed.DecodeTrafficReport, log)
		return src
	})
	run(feed.DomainEvents, func(ctx context.Context) bundle.Source {
		var src bundle.Source
		res.Events, src = o.fetchEvents(ctx, lang, log)
		return src
	})
	run(feed.DomainCameras, func(ctx context.Context) bundle.Source {
		var src bundle.Source
		res.Cameras, src = fetchDelimited(ctx, o, lang, feed.DomainCameras, feed.DecodeCamera, log)
		return src
	})
	run(feed.DomainSirens, func(ctx context.Context) bundle.Source {
		var src bundle.Source
		res.Sirens, src = fetchDelimited(ctx, o, lang, feed.DomainSirens, feed.DecodeSiren, log)
		return src
	})
	run(feed.DomainSupportPoints, func(ctx context.Context) bundle.Source {
		var src bundle.Source
		res.SupportPoints, src = fetchDelimited(ctx, o, lang, feed.DomainSupportPoints, feed.FacilityDecoder(feed.DomainSupportPoints), log)
		return src
	})
	run(feed.DomainHealthUnits, func(ctx context.Context) bundle.Source {
		var src bundle.Source
		res.HealthUnits, src = fetchDelimited(ctx, o, lang, feed.DomainHealthUnits, feed.FacilityDecoder(feed.DomainHealthUnits), log)
		return src
	})
	run(feed.DomainCoolingPoints, func(ctx context.Context) bundle.Source {
		var src bundle.Source
		res.CoolingPoints, src = fetchDelimited(ctx, o, lang, feed.DomainCoolingPoints, feed.FacilityDecoder(feed.DomainCoolingPoints), log)
		return src
	})
	run(feed.DomainOperationalStage, func(ctx context.Context) bundle.Source {
		var src bundle.Source
		res.OperationalStage, src = fetchDelimited(ctx, o, lang, feed.DomainOperationalStage, feed.StatusLevelDecoder(feed.DomainOperationalStage), log)
		return src
	})
	run(feed.DomainHeatLevel, func(ctx context.Context) bundle.Source {
		var src bundle.Source
		res.HeatLevel, src = fetchDelimited(ctx, o, lang, feed.DomainHeatLevel, feed.StatusLevelDecoder(feed.DomainHeatLevel), log)
		return src
	})
	run(feed.DomainRecommendations, func(ctx context.Context) bundle.Source {
		var src bundle.Source
		res.Recommendations, src = fetchDelimited(ctx, o, lang, feed.DomainRecommendations, feed.DecodeRecommendation, log)
		return src
	})
	run(feed.DomainInterdictions, func(ctx context.Context) bundle.Source {
		var src bundle.Source
		res.Interdictions, src = fetchDelimited(ctx, o, lang, feed.DomainInterdictions, feed.DecodeInterdiction, log)
		return src
	})
	run(feed.DomainRainStations, func(ctx context.Context) bundle.Source {
		var src bundle.Source
		res.RainStations, src = fetchDelimited(ctx, o, lang, feed.DomainRainStations, feed.DecodeRainStation, log)
		return src
	})
	run(feed.DomainSkyStations, func(ctx context.Context) bundle.Source {
		var src bundle.Source
		res.SkyStations, src = fetchDelimited(ctx, o, lang, feed.DomainSkyStations, feed.DecodeSkyStation, log)
		return src
	})
	run(feed.DomainSunInfo, func(ctx context.Context) bundle.Source {
		var src bundle.Source
		res.Sun, src = fetchDelimited(ctx, o, lang, feed.DomainSunInfo, feed.DecodeSunInfo, log)
		return src
	})
	run(feed.DomainMeteoStations, func(ctx context.Context) bundle.Source {
		var src bundle.Source
		res.MeteoStations, src = fetchDelimited(ctx, o, lang, feed.DomainMeteoStations, feed.DecodeMeteoStation, log)
		return src
	})

	wg.Wait()
	return res
}

// guard runs one domain task and converts a panic into an empty outcome so
// the rest of the cycle proceeds. A panicking task may be the first symptom
// of memory pressure, so the cache takes the emergency path: everything is
// dropped and freed pages are handed back to the OS.
func (o *Orchestrator) guard(id feed.DomainID, log zerolog.Logger, task func() bundle.Source) (src bundle.Source) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("domain", string(id)).Msg("domain task panicked")
			o.cache.EmergencyClear()
			src = bundle.SourceEmpty
		}
	}()
	return task()
}

// fetchBody issues the single fetch attempt for one domain and records the
// outcome counter.
func (o *Orchestrator) fetchBody(ctx context.Context, d feed.Descriptor, lang string, log zerolog.Logger) ([]byte, error) {
	body, err := o.fetcher.Fetch(ctx, d.URL(lang), d.Accept())
	if err != nil {
		kind := netutil.Classify(err)
		o.metrics.FetchTotal.WithLabelValues(string(d.ID), string(kind)).Inc()
		log.Warn().Err(err).Str("domain", string(d.ID)).Str("kind", string(kind)).Msg("fetch failed")
		return nil, err
	}
	o.metrics.FetchTotal.WithLabelValues(string(d.ID), "ok").Inc()
	return body, nil
}

// fetchDelimited runs the fetch-parse-cache cycle for one line-delimited
// domain. A fetch that yields no parseable records is treated like a failed
// fetch: the cached rows are left untouched and served instead, so one
// garbled upstream response cannot wipe out the last known-good data.
func fetchDelimited[T any](ctx context.Context, o *Orchestrator, lang string, id feed.DomainID, decode func(feed.Fields) (T, bool), log zerolog.Logger) ([]T, bundle.Source) {
	d := o.registry[id]
	key := cacheKey(d, lang)

	if !o.cache.Offline() {
		body, err := o.fetchBody(ctx, d, lang, log)
		if err == nil {
			records := feed.ParseBatch(string(body), d.Schema, d.MaxRecords, decode, o.dropFunc(id, log))
			if len(records) > 0 {
				cache.PutRecords(o.cache, key, records, d.CacheRowCap)
				return records, bundle.SourceFresh
			}
			log.Warn().Str("domain", string(id)).Msg("fetch parsed to zero records")
		}
	}

	if cached, ok := cache.GetRecords[T](o.cache, key); ok {
		return cached, bundle.SourceCached
	}
	return nil, bundle.SourceEmpty
}

// fetchEvents handles the one JSON-envelope domain. A malformed document is
// a domain failure, unlike the per-line tolerance of the delimited feeds.
func (o *Orchestrator) fetchEvents(ctx context.Context, lang string, log zerolog.Logger) ([]feed.Event, bundle.Source) {
	d := o.registry[feed.DomainEvents]
	key := cacheKey(d, lang)

	if !o.cache.Offline() {
		body, err := o.fetchBody(ctx, d, lang, log)
		if err == nil {
			events, perr := feed.ParseEvents(body, d.MaxRecords, o.dropFunc(feed.DomainEvents, log))
			switch {
			case perr != nil:
				log.Warn().Err(perr).Str("domain", string(feed.DomainEvents)).Msg("malformed events document")
			case len(events) == 0:
				log.Warn().Str("domain", string(feed.DomainEvents)).Msg("fetch parsed to zero records")
			default:
				cache.PutRecords(o.cache, key, events, d.CacheRowCap)
				return events, bundle.SourceFresh
			}
		}
	}

	if cached, ok := cache.GetRecords[feed.Event](o.cache, key); ok {
		return cached, bundle.SourceCached
	}
	return nil, bundle.SourceEmpty
}

func (o *Orchestrator) dropFunc(id feed.DomainID, log zerolog.Logger) feed.DropFunc {
	return func(line int, reason string) {
		o.metrics.ParseDroppedLines.WithLabelValues(string(id)).Inc()
		log.Debug().Str("domain", string(id)).Int("line", line).Str("reason", reason).Msg("line dropped")
	}
}

// cacheKey addresses a domain's cached rows. Non-variant domains share one
// row across languages.
func cacheKey(d feed.Descriptor, lang string) cache.Key {
	if !d.LanguageVariant {
		return cache.Key{Domain: string(d.ID), Lang: cache.NoLanguage}
	}
	return cache.Key{Domain: string(d.ID), Lang: feed.NormalizeLanguage(lang)}
}
