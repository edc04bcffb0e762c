// Package metrics exposes Prometheus instruments for file parsing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusFailure = "failure"
)

// Metrics holds the parsing instruments
type Metrics struct {
	registry *prometheus.Registry

	filesParsedTotal *prometheus.CounterVec
	filesFailedTotal *prometheus.CounterVec
	recordsTotal     prometheus.Counter
	parseDuration    *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec
}

// NewMetrics creates the instruments on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		filesParsedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xrd_files_parsed_total",
				Help: "Total number of files parsed successfully",
			},
			[]string{"format"},
		),

		filesFailedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xrd_files_failed_total",
				Help: "Total number of files that failed to parse",
			},
			[]string{"code"},
		),

		recordsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "xrd_records_total",
				Help: "Total number of records extracted",
			},
		),

		parseDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "xrd_parse_duration_seconds",
				Help:    "Per-file parse duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),

		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xrd_cache_lookups_total",
				Help: "Parse cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

// Registry returns the registry holding the instruments
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// FileParsed records a successful parse
func (m *Metrics) FileParsed(format string, records int, duration time.Duration) {
	m.filesParsedTotal.WithLabelValues(format).Inc()
	m.recordsTotal.Add(float64(records))
	m.parseDuration.WithLabelValues(statusSuccess).Observe(duration.Seconds())
}

// FileFailed records a failed parse
func (m *Metrics) FileFailed(code string, duration time.Duration) {
	m.filesFailedTotal.WithLabelValues(code).Inc()
	m.parseDuration.WithLabelValues(statusFailure).Observe(duration.Seconds())
}

// CacheLookup records a parse cache hit or miss
func (m *Metrics) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// WriteTextfile dumps the current values in the text exposition format,
// suitable for the node exporter textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
