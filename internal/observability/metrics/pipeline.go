package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type PipelineMetrics struct {
	registry *prometheus.Registry

	documentTotal    *prometheus.CounterVec
	documentDuration *prometheus.HistogramVec
	documentInFlight prometheus.Gauge
	batchTotal       *prometheus.CounterVec
	batchDuration    prometheus.Histogram
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	documentTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lawpaw",
			Subsystem: "pipeline",
			Name:      "document_process_total",
			Help:      "Total processed documents by status.",
		},
		[]string{"status"},
	)
	documentDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lawpaw",
			Subsystem: "pipeline",
			Name:      "document_process_duration_seconds",
			Help:      "Per-document processing duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"status"},
	)
	documentInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lawpaw",
			Subsystem: "pipeline",
			Name:      "document_process_in_flight",
			Help:      "Number of in-flight document pipeline runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	batchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lawpaw",
			Subsystem: "pipeline",
			Name:      "batch_total",
			Help:      "Total batches by outcome.",
		},
		[]string{"status"},
	)
	batchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "lawpaw",
			Subsystem: "pipeline",
			Name:      "batch_duration_seconds",
			Help:      "Whole-batch duration in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	registry.MustRegister(documentTotal, documentDuration, documentInFlight, batchTotal, batchDuration)

	return &PipelineMetrics{
		registry:         registry,
		documentTotal:    documentTotal,
		documentDuration: documentDuration,
		documentInFlight: documentInFlight,
		batchTotal:       batchTotal,
		batchDuration:    batchDuration,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) StartDocument() {
	m.documentInFlight.Inc()
}

func (m *PipelineMetrics) FinishDocument(duration time.Duration, err error) {
	m.documentInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}
	m.documentTotal.WithLabelValues(status).Inc()
	m.documentDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func (m *PipelineMetrics) FinishBatch(duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.batchTotal.WithLabelValues(status).Inc()
	m.batchDuration.Observe(duration.Seconds())
}
