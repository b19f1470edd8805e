// Package observability holds the Prometheus instrumentation for the
// acquisition engine.
package observability

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the counters and histograms for fetching, parsing, and the
// two-tier cache.
type Metrics struct {
	FetchTotal        *prometheus.CounterVec // labels: domain, outcome={ok,http,timeout,unreachable}
	ParseDroppedLines *prometheus.CounterVec // labels: domain
	CacheLookups      *prometheus.CounterVec // labels: tier={memory,persistent}, result={hit,miss}
	CacheWriteDrops   *prometheus.CounterVec // labels: reason={oversize,io}
	RefreshDuration   prometheus.Histogram
	RefreshTotal      *prometheus.CounterVec // labels: outcome={ok,no_data}
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civitas",
			Name:      "fetch_total",
			Help:      "Domain fetch attempts by outcome.",
		}, []string{"domain", "outcome"}),
		ParseDroppedLines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civitas",
			Name:      "parse_dropped_lines_total",
			Help:      "Feed lines skipped as malformed.",
		}, []string{"domain"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civitas",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by tier and result.",
		}, []string{"tier", "result"}),
		CacheWriteDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civitas",
			Name:      "cache_write_drops_total",
			Help:      "Persistent-tier writes abandoned, by reason.",
		}, []string{"reason"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "civitas",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a full bundle refresh.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}),
		RefreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civitas",
			Name:      "refresh_total",
			Help:      "Bundle refreshes by outcome.",
		}, []string{"outcome"}),
	}
}

// NewMetrics creates the metric set and registers it with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(
		m.FetchTotal,
		m.ParseDroppedLines,
		m.CacheLookups,
		m.CacheWriteDrops,
		m.RefreshDuration,
		m.RefreshTotal,
	)
	return m
}

// NewMetricsForTesting creates an unregistered metric set so parallel tests
// never trip duplicate-registration panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
