package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveBulk(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveBulk("upsert", ResultSuccess, time.Now())
	m.ObserveBulk("upsert", ResultSuccess, time.Now())
	m.ObserveBulk("create", ResultInvalid, time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BulkOperations.WithLabelValues("upsert", ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BulkOperations.WithLabelValues("create", ResultInvalid)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.BulkDuration))
}

func TestAddRecords(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.AddRecords("created", 3)
	m.AddRecords("created", 0)
	m.AddRecords("updated", 1)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.BulkRecords.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BulkRecords.WithLabelValues("updated")))
}

func TestPostCommitFailed(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.PostCommitFailed(StageIndex)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PostCommitFailures.WithLabelValues(StageIndex)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.PostCommitFailures.WithLabelValues(StageEvents)))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveBulk("create", ResultError, time.Now())
		m.AddRecords("created", 1)
		m.PostCommitFailed(StageEvents)
	})
}
