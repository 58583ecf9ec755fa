package task

import "time"

// Turn is one entry of a conversation-mode history.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
	// Code is an attached code fragment, set when the agent produced one.
	Code string
	// Pending marks the assistant placeholder that is awaiting the
	// response for the in-flight task.
	Pending bool
	Time    time.Time
}

// appendExchange records the user's instruction and the pending assistant
// placeholder for the task that was just started.
func (s *State) appendExchange(instruction string) {
	now := time.Now()
	s.Conversation = append(s.Conversation,
		Turn{Role: "user", Content: instruction, Time: now},
		Turn{Role: "assistant", Content: "", Pending: true, Time: now},
	)
}

// resolvePlaceholder replaces the most recent pending assistant turn with a
// completed turn. If no placeholder exists, the turn is appended instead.
func (s *State) resolvePlaceholder(content, code string) {
	turn := Turn{Role: "assistant", Content: content, Code: code, Time: time.Now()}

	for i := len(s.Conversation) - 1; i >= 0; i-- {
		if s.Conversation[i].Pending {
			s.Conversation[i] = turn
			return
		}
	}
	s.Conversation = append(s.Conversation, turn)
}

// dropPlaceholder removes the most recent pending assistant turn, if any.
// Used on cancellation, when no response will ever arrive.
func (s *State) dropPlaceholder() {
	for i := len(s.Conversation) - 1; i >= 0; i-- {
		if s.Conversation[i].Pending {
			s.Conversation = append(s.Conversation[:i], s.Conversation[i+1:]...)
			return
		}
	}
}
