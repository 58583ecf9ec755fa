// Package telemetry exposes prometheus counters for the streaming client.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics aggregates the client-side counters. A nil *Metrics is valid and
// turns every method into a no-op, so components can take it optionally.
type Metrics struct {
	FramesReceived  prometheus.Counter
	FramesDiscarded prometheus.Counter
	DecodeErrors    prometheus.Counter
	TasksByOutcome  *prometheus.CounterVec
}

// New registers the counters on reg and returns them. Passing nil uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		FramesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agentcode_frames_received_total",
			Help: "Frames extracted from the event stream.",
		}),
		FramesDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agentcode_frames_discarded_total",
			Help: "Stream blocks discarded for missing the data prefix.",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agentcode_decode_errors_total",
			Help: "Frames whose payload failed to decode.",
		}),
		TasksByOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentcode_tasks_total",
			Help: "Finished tasks by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(m.FramesReceived, m.FramesDiscarded, m.DecodeErrors, m.TasksByOutcome)
	return m
}

// FrameReceived counts one extracted frame.
func (m *Metrics) FrameReceived() {
	if m != nil {
		m.FramesReceived.Inc()
	}
}

// FrameDiscarded counts one discarded block.
func (m *Metrics) FrameDiscarded() {
	if m != nil {
		m.FramesDiscarded.Inc()
	}
}

// DecodeError counts one undecodable payload.
func (m *Metrics) DecodeError() {
	if m != nil {
		m.DecodeErrors.Inc()
	}
}

// TaskFinished counts one finished task with the given outcome
// ("completed", "failed" or "cancelled").
func (m *Metrics) TaskFinished(outcome string) {
	if m != nil {
		m.TasksByOutcome.WithLabelValues(outcome).Inc()
	}
}
