package web

import (
	"github.com/prometheus/client_golang/prometheus"
)

// cacheMetrics holds Prometheus metrics for the web cache.
type cacheMetrics struct {
	hits          prometheus.Counter
	misses        prometheus.Counter
	fetchErrors   prometheus.Counter
	fetchDuration prometheus.Histogram
}

// newCacheMetrics creates and registers web cache metrics.
func newCacheMetrics(registerer prometheus.Registerer) (*cacheMetrics, error) {
	m := &cacheMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "redis_basic",
			Subsystem: "webcache",
			Name:      "hits_total",
			Help:      "Total number of pages served from the cache",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "redis_basic",
			Subsystem: "webcache",
			Name:      "misses_total",
			Help:      "Total number of requests that went to the origin",
		}),
		fetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "redis_basic",
			Subsystem: "webcache",
			Name:      "fetch_errors_total",
			Help:      "Total number of failed origin fetches",
		}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "redis_basic",
			Subsystem: "webcache",
			Name:      "fetch_duration_seconds",
			Help:      "Origin fetch latency",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{m.hits, m.misses, m.fetchErrors, m.fetchDuration} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *cacheMetrics) recordHit() {
	if m != nil {
		m.hits.Inc()
	}
}

func (m *cacheMetrics) recordMiss() {
	if m != nil {
		m.misses.Inc()
	}
}

func (m *cacheMetrics) recordFetch(seconds float64, err error) {
	if m == nil {
		return
	}
	m.fetchDuration.Observe(seconds)
	if err != nil {
		m.fetchErrors.Inc()
	}
}
