package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samkitpalrecha/AgentCodeV3/internal/agenterr"
)

func TestDecodeFullSnapshot(t *testing.T) {
	payload := `{
		"task_id": "task-42",
		"status": "processing",
		"progress_percentage": 62.5,
		"current_step": "Applying fix to parser",
		"plan_steps": [
			{"id": "1", "description": "Understand the bug", "status": "completed"},
			{"id": "2", "description": "Apply fix", "status": "in_progress"}
		],
		"execution_log": [
			{"node": "developer", "message": "patching parser.py", "status": "running", "details": {"file": "parser.py"}}
		],
		"metrics": {"llm_calls": 3, "internal_searches": 1, "external_searches": 0, "total_execution_time": 12.7, "files_modified": 1},
		"timestamp": "2026-08-30T12:00:00.5Z"
	}`

	snap, err := Decode(payload)
	require.NoError(t, err)

	assert.Equal(t, "task-42", snap.TaskID)
	assert.Equal(t, StatusProcessing, snap.Status)
	assert.True(t, snap.HasProgress)
	assert.Equal(t, 62.5, snap.ProgressPercent)
	assert.Equal(t, "Applying fix to parser", snap.CurrentStepLabel)

	require.Len(t, snap.PlanSteps, 2)
	assert.Equal(t, StepInProgress, snap.PlanSteps[1].Status)

	require.Len(t, snap.ExecutionLog, 1)
	assert.Equal(t, "developer", snap.ExecutionLog[0].Node)
	assert.Equal(t, "parser.py", snap.ExecutionLog[0].Details["file"])

	require.NotNil(t, snap.Metrics)
	assert.Equal(t, 3, snap.Metrics.LLMCalls)
	assert.Equal(t, 1, snap.Metrics.FilesModified)

	assert.True(t, snap.Timestamp.Equal(time.Date(2026, 8, 30, 12, 0, 0, 500_000_000, time.UTC)))
	assert.False(t, snap.IsTerminal())
}

func TestDecodeMalformedPayload(t *testing.T) {
	snap, err := Decode(`{"status": "processing"`)
	assert.Nil(t, snap)

	require.Error(t, err)
	assert.True(t, agenterr.IsDecodeError(err))

	decodeErr, ok := err.(*agenterr.DecodeError)
	require.True(t, ok)
	assert.Equal(t, `{"status": "processing"`, decodeErr.Payload)
}

func TestDecodeStatusDerivation(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Status
	}{
		{"heartbeat flag wins over status", `{"heartbeat": true, "status": "processing"}`, StatusHeartbeat},
		{"failed flag wins over completed status", `{"task_failed": true, "status": "completed"}`, StatusFailed},
		{"complete flag wins over processing status", `{"task_complete": true, "status": "processing"}`, StatusCompleted},
		{"failed flag wins over complete flag", `{"task_failed": true, "task_complete": true}`, StatusFailed},
		{"status completed", `{"status": "completed"}`, StatusCompleted},
		{"status failed", `{"status": "failed"}`, StatusFailed},
		{"status error maps to failed", `{"status": "error"}`, StatusFailed},
		{"status heartbeat", `{"status": "heartbeat"}`, StatusHeartbeat},
		{"status started keeps running", `{"status": "started"}`, StatusProcessing},
		{"unknown status keeps running", `{"status": "Reticulating splines"}`, StatusProcessing},
		{"empty payload keeps running", `{}`, StatusProcessing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := Decode(tt.payload)
			require.NoError(t, err)
			assert.Equal(t, tt.want, snap.Status)
		})
	}
}

func TestDecodeProgressPresence(t *testing.T) {
	snap, err := Decode(`{"status": "processing"}`)
	require.NoError(t, err)
	assert.False(t, snap.HasProgress)

	snap, err = Decode(`{"status": "processing", "progress_percentage": 0}`)
	require.NoError(t, err)
	assert.True(t, snap.HasProgress)
	assert.Equal(t, 0.0, snap.ProgressPercent)
}

func TestDecodeProgressClamped(t *testing.T) {
	snap, err := Decode(`{"progress_percentage": 180}`)
	require.NoError(t, err)
	assert.Equal(t, 100.0, snap.ProgressPercent)

	snap, err = Decode(`{"progress_percentage": -5}`)
	require.NoError(t, err)
	assert.Equal(t, 0.0, snap.ProgressPercent)
}

func TestDecodeFinalArtifactPresence(t *testing.T) {
	// Absent final_code is not the same as an empty one.
	snap, err := Decode(`{"task_complete": true}`)
	require.NoError(t, err)
	assert.False(t, snap.HasFinalArtifact)

	snap, err = Decode(`{"task_complete": true, "final_code": ""}`)
	require.NoError(t, err)
	assert.True(t, snap.HasFinalArtifact)
	assert.Empty(t, snap.FinalArtifact)

	snap, err = Decode(`{"task_complete": true, "final_code": "print('fixed')", "final_explanation": "Renamed the variable."}`)
	require.NoError(t, err)
	assert.True(t, snap.HasFinalArtifact)
	assert.Equal(t, "print('fixed')", snap.FinalArtifact)
	assert.Equal(t, "Renamed the variable.", snap.FinalExplanation)
	assert.True(t, snap.IsTerminal())
}

func TestDecodeBadTimestampIgnored(t *testing.T) {
	snap, err := Decode(`{"timestamp": "yesterday"}`)
	require.NoError(t, err)
	assert.True(t, snap.Timestamp.IsZero())
}
