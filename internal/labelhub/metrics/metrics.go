// Package metrics provides Prometheus metrics for the bulk record engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "labelhub"

// Result labels of a bulk operation.
const (
	ResultSuccess = "success"
	ResultInvalid = "invalid"
	ResultError   = "error"
)

// Post-commit stages.
const (
	StageIndex  = "index"
	StageEvents = "events"
)

// Metrics holds the collectors of one registry. A nil *Metrics records nothing.
type Metrics struct {
	BulkOperations     *prometheus.CounterVec
	BulkRecords        *prometheus.CounterVec
	BulkDuration       *prometheus.HistogramVec
	PostCommitFailures *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BulkOperations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bulk_operations_total",
				Help:      "Total bulk record calls",
			},
			[]string{"op", "result"}, // op: create/upsert/delete
		),
		BulkRecords: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bulk_records_total",
				Help:      "Records committed by bulk calls",
			},
			[]string{"kind"}, // kind: created/updated/deleted
		),
		BulkDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "bulk_duration_seconds",
				Help:      "Bulk call latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		PostCommitFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "post_commit_failures_total",
				Help:      "Indexing and event failures after a committed bulk call",
			},
			[]string{"stage"},
		),
	}
}

// ObserveBulk records the outcome and latency of one bulk call.
func (m *Metrics) ObserveBulk(op, result string, started time.Time) {
	if m == nil {
		return
	}
	m.BulkOperations.WithLabelValues(op, result).Inc()
	m.BulkDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// AddRecords counts committed records of a kind.
func (m *Metrics) AddRecords(kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.BulkRecords.WithLabelValues(kind).Add(float64(n))
}

// PostCommitFailed counts one failed post-commit stage.
func (m *Metrics) PostCommitFailed(stage string) {
	if m == nil {
		return
	}
	m.PostCommitFailures.WithLabelValues(stage).Inc()
}
