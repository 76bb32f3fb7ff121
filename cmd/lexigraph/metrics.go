package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lexigraph/lexigraph/internal/segment"
)

// metrics exports the page cache's hit/miss/eviction counters the way
// the teacher's BufferPoolStats tracks them in-process, but as
// Prometheus gauges any scraper can pull.
type metrics struct {
	hits      prometheus.Gauge
	misses    prometheus.Gauge
	evictions prometheus.Gauge
	resident  prometheus.Gauge
	terms     prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		hits:      prometheus.NewGauge(prometheus.GaugeOpts{Name: "lexigraph_page_cache_hits"}),
		misses:    prometheus.NewGauge(prometheus.GaugeOpts{Name: "lexigraph_page_cache_misses"}),
		evictions: prometheus.NewGauge(prometheus.GaugeOpts{Name: "lexigraph_page_cache_evictions"}),
		resident:  prometheus.NewGauge(prometheus.GaugeOpts{Name: "lexigraph_page_cache_resident_pages"}),
		terms:     prometheus.NewGauge(prometheus.GaugeOpts{Name: "lexigraph_indexed_terms"}),
	}
	prometheus.MustRegister(m.hits, m.misses, m.evictions, m.resident, m.terms)
	return m
}

func (m *metrics) sample(store *segment.Store) {
	s := store.CacheStats()
	m.hits.Set(float64(s.Hits))
	m.misses.Set(float64(s.Misses))
	m.evictions.Set(float64(s.Evictions))
	m.resident.Set(float64(s.Resident))
	m.terms.Set(float64(store.TermCount()))
}

// serveMetrics starts a background HTTP listener exposing /metrics.
// It never blocks the caller; listener errors are logged, not fatal.
func serveMetrics(addr string, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Warn("metrics listener stopped", zap.Error(err))
		}
	}()
}
