package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, m.Track("activity:prune").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("activity:prune").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("activity:prune", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("activity:prune", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("activity:prune")))
}

func TestCountersIgnoreNilAndEmpty(t *testing.T) {
	var nilMetrics *Metrics
	nilMetrics.AddPruned(3)
	nilMetrics.SetCatalogSize(3)
	assert.NoError(t, nilMetrics.Track("x").End(nil))

	m := NewMetrics(prometheus.NewRegistry())
	m.AddPruned(0)
	m.AddPruned(4)
	m.SetCatalogSize(34)
	assert.Equal(t, 4.0, testutil.ToFloat64(m.pruned))
	assert.Equal(t, 34.0, testutil.ToFloat64(m.seeded))
}
