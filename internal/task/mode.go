package task

import "fmt"

// Mode governs how a completed snapshot is reconciled into visible state.
type Mode string

const (
	// ModeInspect stages the proposed change as a diff for explicit
	// accept/reject.
	ModeInspect Mode = "inspect"
	// ModeAutoFix applies the proposed change to the artifact immediately.
	ModeAutoFix Mode = "autofix"
	// ModeConversation appends the result to a chat-style history.
	ModeConversation Mode = "conversation"
)

// ParseMode maps a user-supplied string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "inspect":
		return ModeInspect, nil
	case "autofix", "auto-fix", "fix":
		return ModeAutoFix, nil
	case "conversation", "chat":
		return ModeConversation, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want inspect, autofix or conversation)", s)
	}
}
