// Package metrics exposes the converter's prometheus collectors on a
// dedicated registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "journal"

// Document outcomes.
const (
	OutcomeConverted  = "converted"
	OutcomeRejected   = "rejected"
	OutcomeUnreadable = "unreadable"
)

// Metrics holds the converter collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	documents   *prometheus.CounterVec
	diagnostics *prometheus.CounterVec
	entries     prometheus.Counter
	batches     *prometheus.CounterVec
	duration    prometheus.Histogram
}

// New registers the converter collectors plus the Go runtime and process
// collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Documents processed, by outcome.",
		}, []string{"outcome"}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Diagnostics emitted, by kind and severity.",
		}, []string{"kind", "severity"}),
		entries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_total",
			Help:      "Journal entries written to CSV output.",
		}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Conversion batches, by whether a CSV was produced.",
		}, []string{"success"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_duration_seconds",
			Help:      "Time spent converting one document.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.documents,
		m.diagnostics,
		m.entries,
		m.batches,
		m.duration,
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveDocument records the outcome and duration of one document.
func (m *Metrics) ObserveDocument(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(outcome).Inc()
	m.duration.Observe(took.Seconds())
}

// ObserveDiagnostic counts one diagnostic.
func (m *Metrics) ObserveDiagnostic(kind, severity string) {
	if m == nil {
		return
	}
	m.diagnostics.WithLabelValues(kind, severity).Inc()
}

// ObserveBatch records a finished batch and the entries it emitted.
func (m *Metrics) ObserveBatch(success bool, entries int) {
	if m == nil {
		return
	}
	label := "false"
	if success {
		label = "true"
	}
	m.batches.WithLabelValues(label).Inc()
	m.entries.Add(float64(entries))
}
