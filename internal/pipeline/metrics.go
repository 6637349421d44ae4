package pipeline

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ppiankov/intake/internal/model"
)

// MetricsNamespace prefixes every intake metric
const MetricsNamespace = "intake"

// Metrics counts classification outcomes. Each Metrics owns its registry so a
// batch run can dump exactly its own counters to a textfile.
type Metrics struct {
	registry *prometheus.Registry

	RecordsTotal     *prometheus.CounterVec
	DraftsTotal      *prometheus.CounterVec
	LLMErrorsTotal   *prometheus.CounterVec
	StoreErrorsTotal prometheus.Counter
	Confidence       prometheus.Histogram
	ClassifySeconds  prometheus.Histogram
}

// NewMetrics creates and registers the pipeline metrics on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RecordsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "records_total",
				Help:      "Finalized records by category and urgency",
			},
			[]string{"category", "urgency"},
		),
		DraftsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "drafts_total",
				Help:      "Records by draft source (none, input, llm, cache)",
			},
			[]string{"source"},
		),
		LLMErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "llm_errors_total",
				Help:      "Failed draft requests by provider",
			},
			[]string{"provider"},
		),
		StoreErrorsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "store_errors_total",
				Help:      "Records that could not be persisted",
			},
		),
		Confidence: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: MetricsNamespace,
				Name:      "confidence_score",
				Help:      "Confidence score of finalized records",
				Buckets:   prometheus.LinearBuckets(0.3, 0.1, 8), // 0.3 to 1.0
			},
		),
		ClassifySeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: MetricsNamespace,
				Name:      "process_duration_seconds",
				Help:      "Time to process one input, including the draft request",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
			},
		),
	}
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observe(rec *model.Record, seconds float64) {
	if m == nil {
		return
	}
	m.RecordsTotal.WithLabelValues(string(rec.Incident.Category), string(rec.Incident.Urgency)).Inc()
	m.DraftsTotal.WithLabelValues(string(rec.DraftSource)).Inc()
	m.Confidence.Observe(rec.Incident.ConfidenceScore)
	m.ClassifySeconds.Observe(seconds)
}

func (m *Metrics) llmError(provider string) {
	if m == nil {
		return
	}
	m.LLMErrorsTotal.WithLabelValues(provider).Inc()
}

func (m *Metrics) storeError() {
	if m == nil {
		return
	}
	m.StoreErrorsTotal.Inc()
}

// WriteFile writes the metrics in the node_exporter textfile format
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
