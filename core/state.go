package core

import "sync"

// RunState is the single source of truth for one run. It is owned by the
// orchestration loop and mutated only between suspension points, but guarded
// with a mutex so snapshots taken by event consumers are always consistent.
//
// Once a terminal exit reason has been assigned every further mutation is
// rejected.
type RunState struct {
	mu         sync.RWMutex
	history    []Content
	turns      int
	toolCalls  int
	pending    []FunctionCall
	exitReason ExitReason
	finished   bool
}

// NewRunState creates a run state seeded with the given history.
func NewRunState(history ...Content) *RunState {
	s := &RunState{}
	s.history = append(s.history, history...)
	return s
}

// Append adds contents to the history. Appends after termination are dropped.
func (s *RunState) Append(contents ...Content) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.history = append(s.history, contents...)
}

// History returns a copy of the conversation history.
func (s *RunState) History() []Content {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Content, len(s.history))
	copy(out, s.history)
	return out
}

// LastAssistantText returns the text of the most recent assistant message,
// or the empty string when none exists.
func (s *RunState) LastAssistantText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].Role == RoleAssistant {
			if text := s.history[i].Text(); text != "" {
				return text
			}
		}
	}
	return ""
}

// Turns returns the number of completed model cycles.
func (s *RunState) Turns() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.turns
}

// AdvanceTurn increments the completed model-cycle count and returns the new
// value. Internal retries of one logical call must not advance the turn.
func (s *RunState) AdvanceTurn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return s.turns
	}
	s.turns++
	return s.turns
}

// ToolCalls returns the number of tool dispatches accepted so far.
func (s *RunState) ToolCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.toolCalls
}

// ConsumeToolCall increments the accepted-dispatch count and returns the new
// value. A dispatch consumes budget whether or not it ultimately succeeds.
func (s *RunState) ConsumeToolCall() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return s.toolCalls
	}
	s.toolCalls++
	return s.toolCalls
}

// SetPending stores the tool-call requests extracted from the latest model
// output.
func (s *RunState) SetPending(calls []FunctionCall) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.pending = calls
}

// TakePending returns the pending tool-call requests and clears them.
func (s *RunState) TakePending() []FunctionCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.pending
	s.pending = nil
	return pending
}

// Finish assigns the terminal exit reason. It returns true on the first call
// and false on every subsequent attempt; the first reason is never
// overwritten.
func (s *RunState) Finish(reason ExitReason) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return false
	}
	s.finished = true
	s.exitReason = reason
	return true
}

// Finished reports whether a terminal exit reason has been assigned.
func (s *RunState) Finished() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finished
}

// ExitReason returns the terminal exit reason, or the empty value while the
// run is still in flight.
func (s *RunState) ExitReason() ExitReason {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exitReason
}

// Snapshot returns the terminal view of the run for the final event.
func (s *RunState) Snapshot() FinalState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var answer string
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].Role == RoleAssistant {
			if text := s.history[i].Text(); text != "" {
				answer = text
				break
			}
		}
	}
	return FinalState{
		ExitReason: s.exitReason,
		Turns:      s.turns,
		ToolCalls:  s.toolCalls,
		Answer:     answer,
	}
}
