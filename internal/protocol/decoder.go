package protocol

import (
	"encoding/json"
	"time"

	"github.com/samkitpalrecha/AgentCodeV3/internal/agenterr"
)

// rawUpdate matches the backend's frame payload. The backend sends both a
// status string and boolean flags; the flags are authoritative because older
// server revisions reuse the string for display text.
type rawUpdate struct {
	TaskID          string     `json:"task_id"`
	Status          string     `json:"status"`
	ProgressPercent *float64   `json:"progress_percentage"`
	CurrentStep     string     `json:"current_step"`
	PlanSteps       []PlanStep `json:"plan_steps"`
	ExecutionLog    []LogEntry `json:"execution_log"`
	FinalCode       *string    `json:"final_code"`
	FinalExplain    string     `json:"final_explanation"`
	ErrorMessage    string     `json:"error_message"`
	Metrics         *Metrics   `json:"metrics"`
	TaskComplete    bool       `json:"task_complete"`
	TaskFailed      bool       `json:"task_failed"`
	Heartbeat       bool       `json:"heartbeat"`
	Timestamp       string     `json:"timestamp"`
}

// Decode parses one frame payload into a TaskSnapshot. A payload that is
// not valid JSON yields a *agenterr.DecodeError; the caller is expected to
// skip the frame and keep the stream alive.
func Decode(payload string) (*TaskSnapshot, error) {
	var raw rawUpdate
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, &agenterr.DecodeError{Payload: payload, Err: err}
	}

	snap := &TaskSnapshot{
		TaskID:           raw.TaskID,
		Status:           deriveStatus(raw),
		CurrentStepLabel: raw.CurrentStep,
		PlanSteps:        raw.PlanSteps,
		ExecutionLog:     raw.ExecutionLog,
		FinalExplanation: raw.FinalExplain,
		ErrorMessage:     raw.ErrorMessage,
		Metrics:          raw.Metrics,
	}

	if raw.ProgressPercent != nil {
		snap.ProgressPercent = clampPercent(*raw.ProgressPercent)
		snap.HasProgress = true
	}
	if raw.FinalCode != nil {
		snap.FinalArtifact = *raw.FinalCode
		snap.HasFinalArtifact = true
	}
	if raw.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339Nano, raw.Timestamp); err == nil {
			snap.Timestamp = ts
		}
	}

	return snap, nil
}

// deriveStatus folds the boolean flags and the status string into the
// snapshot status enum. Never infer state from display text beyond the
// fixed status values the backend emits.
func deriveStatus(raw rawUpdate) Status {
	switch {
	case raw.Heartbeat:
		return StatusHeartbeat
	case raw.TaskFailed:
		return StatusFailed
	case raw.TaskComplete:
		return StatusCompleted
	}

	switch raw.Status {
	case "heartbeat":
		return StatusHeartbeat
	case "completed":
		return StatusCompleted
	case "failed", "error":
		return StatusFailed
	default:
		// "started", "processing" and anything unrecognized keep the task
		// running.
		return StatusProcessing
	}
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
