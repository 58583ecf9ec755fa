package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrement(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.FrameReceived()
	m.FrameReceived()
	m.FrameDiscarded()
	m.DecodeError()
	m.TaskFinished("completed")
	m.TaskFinished("completed")
	m.TaskFinished("cancelled")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FramesReceived))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FramesDiscarded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodeErrors))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TasksByOutcome.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksByOutcome.WithLabelValues("cancelled")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.TasksByOutcome.WithLabelValues("failed")))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.FrameReceived()
		m.FrameDiscarded()
		m.DecodeError()
		m.TaskFinished("completed")
	})
}
