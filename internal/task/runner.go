// Package task reconciles streamed task snapshots into mode-dependent
// application state: auto-applied artifacts, staged diffs or conversation
// turns.
package task

import (
	"context"
	"sync"
	"time"

	"github.com/samkitpalrecha/AgentCodeV3/internal/agenterr"
	"github.com/samkitpalrecha/AgentCodeV3/internal/diff"
	"github.com/samkitpalrecha/AgentCodeV3/internal/logging"
	"github.com/samkitpalrecha/AgentCodeV3/internal/protocol"
	"github.com/samkitpalrecha/AgentCodeV3/internal/stream"
	"github.com/samkitpalrecha/AgentCodeV3/internal/telemetry"
)

// Events receive reconciler output. All callbacks fire from the stream's
// read goroutine in arrival order: zero or more OnUpdate, then at most one
// of OnError or a terminal OnUpdate, then exactly one OnComplete. Every
// callback is optional.
type Events struct {
	// OnUpdate fires after a snapshot has been folded into the state,
	// including the terminal completed/failed snapshot. The state must be
	// treated as read-only.
	OnUpdate func(state *State)
	// OnError fires at most once, for transport-level failures
	// (network, HTTP status) in non-conversation modes.
	OnError func(err error)
	// OnComplete fires exactly once when the stream has closed, whether
	// by success, failure or cancellation.
	OnComplete func()
	// OnDecodeError fires for each malformed frame. Non-fatal: the
	// stream continues.
	OnDecodeError func(err error)

	// OnArtifactReplaced fires when the artifact text changes: autofix
	// completion or an accepted diff.
	OnArtifactReplaced func(text string)
	// OnDiffStaged fires when inspect mode stages a proposed change.
	OnDiffStaged func(d *StagedDiff)
	// OnConversation fires when the conversation history changes.
	OnConversation func(turns []Turn)
	// OnInfo fires with informational messages such as the agent's final
	// explanation.
	OnInfo func(message string)
	// OnTaskFailed fires with a human-readable message when the backend
	// reports a failed task, in non-conversation modes.
	OnTaskFailed func(message string)
}

// Runner owns one task slot: at most one active task at any time. Starting
// a new task cancels and supersedes the previous one.
type Runner struct {
	transport *stream.Transport
	logger    logging.Logger
	metrics   *telemetry.Metrics

	mu      sync.Mutex
	current *run
}

type run struct {
	instruction string
	source      string
	mode        Mode
	events      Events
	state       *State
	handle      *stream.Handle
}

// TaskHandle controls one started task.
type TaskHandle struct {
	runner *Runner
	run    *run
}

// Cancel aborts the task. Idempotent; a task that already finished is left
// untouched.
func (h *TaskHandle) Cancel() {
	h.runner.cancelRun(h.run)
}

// Done is closed once the task's stream has fully stopped.
func (h *TaskHandle) Done() <-chan struct{} {
	return h.run.handle.Done()
}

// State returns the task's state. Read-only for callers.
func (h *TaskHandle) State() *State {
	return h.run.state
}

// NewRunner creates a Runner on top of a stream transport.
func NewRunner(transport *stream.Transport, logger logging.Logger, metrics *telemetry.Metrics) *Runner {
	return &Runner{
		transport: transport,
		logger:    logging.OrNop(logger),
		metrics:   metrics,
	}
}

// Start begins a new task for (instruction, sourceText) in the given mode.
// Any task still running on this slot is cancelled first; derived state
// (pending diff, conversation placeholder) is reset so the new task fully
// supersedes the old one.
func (r *Runner) Start(ctx context.Context, instruction, sourceText string, mode Mode, events Events) *TaskHandle {
	r.mu.Lock()
	prior := r.current
	r.mu.Unlock()

	if prior != nil {
		// Never two open connections per slot.
		r.cancelRun(prior)
	}

	r.mu.Lock()
	conversation := r.carryConversationLocked(mode)
	r.mu.Unlock()

	newRun := &run{
		instruction: instruction,
		source:      sourceText,
		mode:        mode,
		events:      events,
		state: &State{
			Mode:          mode,
			Phase:         PhaseRunning,
			ProgressLabel: initializingLabel,
			Artifact:      sourceText,
			Conversation:  conversation,
		},
	}

	if mode == ModeConversation {
		newRun.state.appendExchange(instruction)
	}

	r.logger.Info("task started (mode=%s, instruction %d chars)", mode, len(instruction))

	handle := r.transport.Open(ctx, stream.Request{Instruction: instruction, Code: sourceText}, stream.Callbacks{
		OnFrame:    func(payload string) { r.onFrame(newRun, payload) },
		OnError:    func(err error) { r.onTransportError(newRun, err) },
		OnComplete: func() { r.onStreamClosed(newRun) },
	})

	r.mu.Lock()
	newRun.handle = handle
	r.current = newRun
	r.mu.Unlock()

	if mode == ModeConversation && events.OnConversation != nil {
		events.OnConversation(newRun.state.Conversation)
	}

	return &TaskHandle{runner: r, run: newRun}
}

// carryConversationLocked keeps the chat history across tasks on the same
// slot; everything else starts fresh.
func (r *Runner) carryConversationLocked(mode Mode) []Turn {
	if mode != ModeConversation || r.current == nil {
		return nil
	}
	return r.current.state.Conversation
}

// Current returns the state of the most recently started task, or nil.
// Read-only for callers.
func (r *Runner) Current() *State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return nil
	}
	return r.current.state
}

// Cancel aborts the active task, if any.
func (r *Runner) Cancel() {
	r.mu.Lock()
	run := r.current
	r.mu.Unlock()
	if run != nil {
		r.cancelRun(run)
	}
}

// cancelRun transitions a running task to cancelled: the transport is
// aborted, the staged diff and conversation placeholder are discarded, and
// no artifact or explanation side effect is performed.
func (r *Runner) cancelRun(run *run) {
	r.mu.Lock()
	if run.state.Phase != PhaseRunning {
		r.mu.Unlock()
		return
	}
	run.state.Phase = PhaseCancelled
	run.state.PendingDiff = nil
	run.state.dropPlaceholder()
	handle := run.handle
	r.mu.Unlock()

	// Outside the lock: Cancel blocks until any in-flight delivery has
	// finished, and deliveries take r.mu.
	if handle != nil {
		handle.Cancel()
	}

	r.metrics.TaskFinished("cancelled")
	r.logger.Info("task cancelled")
}

// Accept applies the staged proposed text to the artifact and clears the
// staged diff. No-op unless a diff is staged.
func (r *Runner) Accept() {
	var effects []func()

	r.mu.Lock()
	if run := r.current; run != nil && run.state.PendingDiff != nil {
		proposed := run.state.PendingDiff.Proposed
		run.state.Artifact = proposed
		run.state.PendingDiff = nil
		if fn := run.events.OnArtifactReplaced; fn != nil {
			effects = append(effects, func() { fn(proposed) })
		}
		r.logger.Info("staged diff accepted")
	}
	r.mu.Unlock()

	runEffects(effects)
}

// Reject clears the staged diff and leaves the artifact untouched. No-op
// unless a diff is staged.
func (r *Runner) Reject() {
	r.mu.Lock()
	if run := r.current; run != nil && run.state.PendingDiff != nil {
		run.state.PendingDiff = nil
		r.logger.Info("staged diff rejected")
	}
	r.mu.Unlock()
}

func (r *Runner) onFrame(run *run, payload string) {
	snap, err := protocol.Decode(payload)
	if err != nil {
		// One bad frame never kills the stream.
		r.metrics.DecodeError()
		r.logger.Warn("skipping malformed frame: %v", err)
		if run.events.OnDecodeError != nil {
			run.events.OnDecodeError(err)
		}
		return
	}

	var effects []func()

	r.mu.Lock()
	st := run.state
	if st.Phase != PhaseRunning {
		r.mu.Unlock()
		return
	}

	switch snap.Status {
	case protocol.StatusHeartbeat:
		// Keepalive only: no business state changes, no side effects.
		st.LastHeartbeat = time.Now()

	case protocol.StatusProcessing:
		st.apply(snap)
		effects = r.appendUpdate(effects, run)

	case protocol.StatusCompleted:
		st.apply(snap)
		st.Phase = PhaseCompleted
		effects = r.completeLocked(effects, run, snap)
		effects = r.appendUpdate(effects, run)
		r.metrics.TaskFinished("completed")
		r.logger.Info("task completed")

	case protocol.StatusFailed:
		st.apply(snap)
		st.Phase = PhaseFailed
		remoteErr := &agenterr.RemoteTaskError{Message: snap.ErrorMessage}
		effects = r.failLocked(effects, run, agenterr.UserMessage(remoteErr), nil)
		effects = r.appendUpdate(effects, run)
		r.metrics.TaskFinished("failed")
		r.logger.Info("task failed: %s", remoteErr.Error())
	}
	r.mu.Unlock()

	runEffects(effects)
}

// completeLocked emits the mode-specific completion side effect, exactly
// once per task: the Running -> Completed transition happens under r.mu and
// only a Running task reaches this point.
func (r *Runner) completeLocked(effects []func(), run *run, snap *protocol.TaskSnapshot) []func() {
	st := run.state

	switch run.mode {
	case ModeAutoFix:
		if snap.HasFinalArtifact {
			text := snap.FinalArtifact
			st.Artifact = text
			if fn := run.events.OnArtifactReplaced; fn != nil {
				effects = append(effects, func() { fn(text) })
			}
		}
		effects = r.appendInfo(effects, run, snap.FinalExplanation)

	case ModeInspect:
		if snap.HasFinalArtifact && snap.FinalArtifact != run.source {
			staged := &StagedDiff{
				Original: run.source,
				Proposed: snap.FinalArtifact,
				Lines:    diff.Compute(run.source, snap.FinalArtifact),
			}
			st.PendingDiff = staged
			if fn := run.events.OnDiffStaged; fn != nil {
				effects = append(effects, func() { fn(staged) })
			}
		}
		effects = r.appendInfo(effects, run, snap.FinalExplanation)

	case ModeConversation:
		var code string
		if snap.HasFinalArtifact {
			code = snap.FinalArtifact
		}
		st.resolvePlaceholder(snap.FinalExplanation, code)
		effects = r.appendConversation(effects, run)
	}

	return effects
}

// failLocked surfaces a failure through the mode-appropriate channel:
// the conversation placeholder in conversation mode, OnTaskFailed or
// OnError elsewhere. Previous artifact and conversation state stay intact.
func (r *Runner) failLocked(effects []func(), run *run, message string, transportErr error) []func() {
	if run.mode == ModeConversation {
		run.state.resolvePlaceholder(message, "")
		return r.appendConversation(effects, run)
	}

	if transportErr != nil {
		if fn := run.events.OnError; fn != nil {
			effects = append(effects, func() { fn(transportErr) })
		}
		return effects
	}

	if fn := run.events.OnTaskFailed; fn != nil {
		effects = append(effects, func() { fn(message) })
	}
	return effects
}

func (r *Runner) onTransportError(run *run, err error) {
	var effects []func()

	r.mu.Lock()
	if run.state.Phase != PhaseRunning {
		r.mu.Unlock()
		return
	}
	run.state.Phase = PhaseFailed
	effects = r.failLocked(effects, run, agenterr.UserMessage(err), err)
	r.mu.Unlock()

	runEffects(effects)
	r.metrics.TaskFinished("failed")
	r.logger.Warn("task failed: %v", err)
}

// onStreamClosed fires the per-task completion callback; the transport
// guarantees exactly one call per task.
func (r *Runner) onStreamClosed(run *run) {
	r.mu.Lock()
	if run.state.Phase == PhaseRunning {
		// Clean closure without a terminal snapshot. The task cannot make
		// further progress, so it ends here; nothing user-facing beyond
		// the completion callback.
		run.state.Phase = PhaseFailed
		r.logger.Warn("stream closed without a terminal snapshot")
		r.metrics.TaskFinished("failed")
	}
	r.mu.Unlock()

	if run.events.OnComplete != nil {
		run.events.OnComplete()
	}
}

func (r *Runner) appendUpdate(effects []func(), run *run) []func() {
	if fn := run.events.OnUpdate; fn != nil {
		st := run.state
		effects = append(effects, func() { fn(st) })
	}
	return effects
}

func (r *Runner) appendInfo(effects []func(), run *run, message string) []func() {
	if message == "" {
		return effects
	}
	if fn := run.events.OnInfo; fn != nil {
		effects = append(effects, func() { fn(message) })
	}
	return effects
}

func (r *Runner) appendConversation(effects []func(), run *run) []func() {
	if fn := run.events.OnConversation; fn != nil {
		turns := run.state.Conversation
		effects = append(effects, func() { fn(turns) })
	}
	return effects
}

func runEffects(effects []func()) {
	for _, fn := range effects {
		fn()
	}
}
