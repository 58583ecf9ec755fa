package task

import (
	"time"

	"github.com/samkitpalrecha/AgentCodeV3/internal/diff"
	"github.com/samkitpalrecha/AgentCodeV3/internal/protocol"
)

// Phase is the lifecycle state of one task slot.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseRunning   Phase = "running"
	PhaseCompleted Phase = "completed"
	PhaseFailed    Phase = "failed"
	PhaseCancelled Phase = "cancelled"
)

const initializingLabel = "Initializing..."

// StagedDiff is a proposed change awaiting explicit accept or reject.
type StagedDiff struct {
	Original string
	Proposed string
	Lines    []diff.Line
}

// State is the accumulated view of one task, maintained across snapshots.
// It is owned by the Runner; callers receiving it through callbacks must
// treat it as read-only.
type State struct {
	Mode  Mode
	Phase Phase

	// Latest is the most recent non-heartbeat snapshot.
	Latest *protocol.TaskSnapshot

	ProgressPercent float64
	ProgressLabel   string
	PlanSteps       []protocol.PlanStep
	ExecutionLog    []protocol.LogEntry
	Metrics         *protocol.Metrics

	// Artifact is the applied source text for this slot.
	Artifact string
	// PendingDiff is the staged change in inspect mode, nil otherwise.
	PendingDiff *StagedDiff
	// Conversation is the chat history in conversation mode.
	Conversation []Turn

	// LastHeartbeat supports caller-side liveness tracking; the client
	// itself enforces no timeout.
	LastHeartbeat time.Time
}

// IsRunning reports whether the task is still in flight.
func (s *State) IsRunning() bool {
	return s.Phase == PhaseRunning
}

// apply folds one non-heartbeat snapshot into the state. Plan steps,
// execution log and metrics are authoritative full replacements when
// present; an absent field never discards what an earlier snapshot
// delivered.
func (s *State) apply(snap *protocol.TaskSnapshot) {
	s.Latest = snap

	if snap.HasProgress {
		s.ProgressPercent = snap.ProgressPercent
	}
	if snap.PlanSteps != nil {
		s.PlanSteps = snap.PlanSteps
	}
	if snap.ExecutionLog != nil {
		s.ExecutionLog = snap.ExecutionLog
	}
	if snap.Metrics != nil {
		s.Metrics = snap.Metrics
	}
	if snap.Status == protocol.StatusCompleted {
		s.ProgressPercent = 100
	}

	s.ProgressLabel = s.progressLabel(snap)
}

// progressLabel picks the freshest available description of what the task
// is doing: the snapshot's current step, then the most recent in-progress
// plan step, then the most recent log message, then a static label.
func (s *State) progressLabel(snap *protocol.TaskSnapshot) string {
	if snap.CurrentStepLabel != "" {
		return snap.CurrentStepLabel
	}

	for i := len(s.PlanSteps) - 1; i >= 0; i-- {
		if s.PlanSteps[i].Status == protocol.StepInProgress {
			return s.PlanSteps[i].Description
		}
	}

	if n := len(s.ExecutionLog); n > 0 {
		if msg := s.ExecutionLog[n-1].Message; msg != "" {
			return msg
		}
	}

	if s.ProgressLabel != "" {
		return s.ProgressLabel
	}
	return initializingLabel
}
