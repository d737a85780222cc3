package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "resume_screener"

var (
	DocumentsScreenedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_screened_total",
			Help:      "Total number of screened documents by fit label",
		},
		[]string{"label"},
	)

	ExtractionFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_failures_total",
			Help:      "Documents whose text could not be extracted",
		},
		[]string{"format"},
	)

	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	SummaryRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summary_requests_total",
			Help:      "Total number of summary requests by outcome",
		},
		[]string{"outcome"}, // "success" or a summary error kind
	)

	SummaryRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "summary_request_duration_seconds",
			Help:      "Chat completion latency for summaries in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		},
	)

	ScreeningRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "screening_run_duration_seconds",
			Help:      "Wall time of a whole screening run in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)
)

var registerOnce sync.Once

// Register registers all collectors with the default registry. Safe to call
// more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			DocumentsScreenedTotal,
			ExtractionFailuresTotal,
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			SummaryRequestsTotal,
			SummaryRequestDuration,
			ScreeningRunDuration,
		)
	})
}
