// Package metrics exposes Prometheus counters/histograms for the
// dataset discovery engine's walk and clash-resolution activity.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "dataset_finder"

// Metrics holds every metric this engine records.
type Metrics struct {
	WalkDirsVisitedTotal   prometheus.Counter
	WalkFilesMatchedTotal  prometheus.Counter
	WalkDurationSeconds    *prometheus.HistogramVec
	ClashesResolvedTotal   *prometheus.CounterVec
	ClashesUnresolvedTotal *prometheus.CounterVec
	DatasetsDiscoveredGauge *prometheus.GaugeVec

	RequestDurationSeconds *prometheus.HistogramVec
	RequestTotal           *prometheus.CounterVec
}

// New creates a Metrics instance with every metric registered against
// the default Prometheus registry.
func New() *Metrics {
	return &Metrics{
		WalkDirsVisitedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "walk_dirs_visited_total",
				Help:      "Total number of directories visited by the tree walker",
			},
		),
		WalkFilesMatchedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "walk_files_matched_total",
				Help:      "Total number of files matched during file-template enumeration",
			},
		),
		WalkDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "walk_duration_seconds",
				Help:      "Duration of a single FilterAll directory-template walk",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"catalog_key"},
		),
		ClashesResolvedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "clashes_resolved_total",
				Help:      "Total number of coordinate clashes resolved by a ClashRule",
			},
			[]string{"clash_key"},
		),
		ClashesUnresolvedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "clashes_unresolved_total",
				Help:      "Total number of coordinate clashes that returned ErrUnresolvedClash",
			},
			[]string{"clash_key"},
		),
		DatasetsDiscoveredGauge: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "datasets_discovered",
				Help:      "Number of datasets in the most recent FilterAll result, by catalog key",
			},
			[]string{"catalog_key"},
		),

		RequestDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status_code"},
		),
		RequestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
	}
}

// RecordWalk records the outcome of one directory-template walk.
func (m *Metrics) RecordWalk(catalogKey string, dirsVisited, filesMatched int, duration time.Duration) {
	m.WalkDirsVisitedTotal.Add(float64(dirsVisited))
	m.WalkFilesMatchedTotal.Add(float64(filesMatched))
	m.WalkDurationSeconds.WithLabelValues(catalogKey).Observe(duration.Seconds())
}

// RecordClashResolved records a successfully resolved clash for key.
func (m *Metrics) RecordClashResolved(key string) {
	m.ClashesResolvedTotal.WithLabelValues(key).Inc()
}

// RecordClashUnresolved records an unresolved clash (Default: "error") for key.
func (m *Metrics) RecordClashUnresolved(key string) {
	m.ClashesUnresolvedTotal.WithLabelValues(key).Inc()
}

// SetDatasetsDiscovered sets the current dataset count for a catalog key.
func (m *Metrics) SetDatasetsDiscovered(catalogKey string, count int) {
	m.DatasetsDiscoveredGauge.WithLabelValues(catalogKey).Set(float64(count))
}

// RecordHTTPRequest records one served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route, statusCode string, duration time.Duration) {
	m.RequestDurationSeconds.WithLabelValues(method, route, statusCode).Observe(duration.Seconds())
	m.RequestTotal.WithLabelValues(method, route, statusCode).Inc()
}
