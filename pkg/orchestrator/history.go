package orchestrator

import "sync"

// history is the ordered, bounded conversation log (spec.md §3: "History").
// Guarded by one mutex per spec.md §5's shared-resource policy.
type history struct {
	mu       sync.Mutex
	messages []Message
	lastUser string
}

func newHistory() *history {
	return &history{}
}

// appendUserFinal appends a user entry unless the tail is already that
// exact text (spec.md §3 invariant 1, §4.4 step 3). Returns true if it
// appended.
func (h *history) appendUserFinal(text string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.messages) > 0 {
		tail := h.messages[len(h.messages)-1]
		if tail.Role == RoleUser && tail.Content == text {
			h.lastUser = text
			return false
		}
	}
	h.messages = append(h.messages, Message{Role: RoleUser, Content: text})
	h.trimLocked()
	h.lastUser = text
	return true
}

// appendAssistant appends an assistant entry, respecting the cap
// (spec.md §3 invariant 2: only called for completed, non-empty turns).
func (h *history) appendAssistant(text string) {
	if text == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, Message{Role: RoleAssistant, Content: text})
	h.trimLocked()
}

// ensureLastFinal appends lastFinal as a user entry unless already the tail
// (barge-in arbiter step 1, spec.md §4.4).
func (h *history) ensureLastFinal(lastFinal string) {
	if lastFinal == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.messages) > 0 {
		tail := h.messages[len(h.messages)-1]
		if tail.Role == RoleUser && tail.Content == lastFinal {
			return
		}
	}
	h.messages = append(h.messages, Message{Role: RoleUser, Content: lastFinal})
	h.trimLocked()
}

func (h *history) trimLocked() {
	if len(h.messages) > MaxHistoryMessages {
		h.messages = h.messages[len(h.messages)-MaxHistoryMessages:]
	}
}

// snapshotForTurn returns a copy of the history, excluding the tail entry if
// it is the just-appended user message matching userText — it is re-supplied
// as the live user message to the LLM instead (spec.md §4.4 "Turn task").
func (h *history) snapshotForTurn(userText string) []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	snap := make([]Message, len(h.messages))
	copy(snap, h.messages)
	if len(snap) > 0 {
		tail := snap[len(snap)-1]
		if tail.Role == RoleUser && tail.Content == userText {
			snap = snap[:len(snap)-1]
		}
	}
	return snap
}

func (h *history) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

func (h *history) snapshot() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	snap := make([]Message, len(h.messages))
	copy(snap, h.messages)
	return snap
}

func (h *history) clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
	h.lastUser = ""
}
