// Package protocol defines the wire-level task update model shared between
// the AgentCode backend and this client, and the decoder that turns raw
// frame payloads into snapshots.
//
// Field names mirror the backend's JSON exactly and must not be changed.
package protocol

import "time"

// Status classifies one task snapshot.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusHeartbeat  Status = "heartbeat"
)

// StepStatus is the lifecycle state of a single plan step. Steps move
// pending -> in_progress -> completed/failed, but a task can finish before
// every step reaches a terminal state.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
	StepFailed     StepStatus = "failed"
	StepSkipped    StepStatus = "skipped"
)

// PlanStep is one step of the plan the backend declared for the task.
// Ordering within a snapshot is the declared plan order.
type PlanStep struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Status      StepStatus `json:"status"`
}

// LogEntry is one entry of the backend's execution log. Node identifies the
// workflow stage that produced it (triage, planner, developer, ...).
type LogEntry struct {
	Node    string         `json:"node"`
	Message string         `json:"message"`
	Status  string         `json:"status,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Metrics carries the backend's execution counters. All values are
// monotonically non-decreasing within one task.
type Metrics struct {
	LLMCalls           int     `json:"llm_calls"`
	InternalSearches   int     `json:"internal_searches"`
	ExternalSearches   int     `json:"external_searches"`
	TotalExecutionTime float64 `json:"total_execution_time"`
	FilesModified      int     `json:"files_modified"`
}

// TaskSnapshot is the decoded contents of one frame: the backend's full
// view of the task at a point in time. Snapshots are never mutated after
// decoding. PlanSteps, ExecutionLog and Metrics are authoritative full
// replacements, not deltas.
type TaskSnapshot struct {
	TaskID           string
	Status           Status
	ProgressPercent  float64
	HasProgress      bool
	CurrentStepLabel string
	PlanSteps        []PlanStep
	ExecutionLog     []LogEntry
	FinalArtifact    string
	HasFinalArtifact bool
	FinalExplanation string
	ErrorMessage     string
	Metrics          *Metrics
	Timestamp        time.Time
}

// IsTerminal reports whether this snapshot ends the task.
func (s *TaskSnapshot) IsTerminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}
