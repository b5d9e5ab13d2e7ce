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

	assert.NoError(t, m.Track("proposals:generate").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("proposals:generate").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("proposals:generate", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("proposals:generate", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("proposals:generate")))
}

func TestSkippedCounter(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.Skipped("proposals:generate", "no_pricing_data")
	m.Skipped("proposals:generate", "no_pricing_data")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.skipped.WithLabelValues("proposals:generate", "no_pricing_data")))
}

func TestNilMetricsTrackerPassesErrorThrough(t *testing.T) {
	var m *Metrics
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("x").End(boom), boom)
	m.Skipped("x", "y")
}
