package core

import (
	"sync"
	"time"
)

// Session is the conversational container holding the ordered event history
// of one caller-visible conversation. It is safe for concurrent access.
//
// Contract:
//   - AddEvent updates the Updated timestamp
//   - GetEvents returns a defensive copy to avoid external mutation
//   - GetConversationHistory replays persisted message events into the
//     role-tagged contents used to seed the next run
//   - Clone performs deep copies of slices for safe divergence.
type Session struct {
	ID      string    `json:"id"`
	Events  []Event   `json:"events"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
	mu      sync.RWMutex
}

// NewSession creates a new session with the given ID.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{ID: id, Events: []Event{}, Created: now, Updated: now}
}

// AddEvent appends an event to the history updating the Updated timestamp.
func (s *Session) AddEvent(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, ev)
	s.Updated = time.Now()
}

// GetEvents returns a defensive copy of the full event slice.
func (s *Session) GetEvents() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]Event, len(s.Events))
	copy(events, s.Events)
	return events
}

// GetConversationHistory returns the contents of persisted message events in
// order, suitable for seeding a run's history. Token fragments and progress
// events are excluded; only user, assistant and tool roles participate.
func (s *Session) GetConversationHistory() []Content {
	s.mu.RLock()
	defer s.mu.RUnlock()
	allowed := map[string]bool{RoleUser: true, RoleAssistant: true, RoleTool: true}
	history := make([]Content, 0, len(s.Events))
	for _, ev := range s.Events {
		if ev.Kind != EventMessage || ev.Content == nil {
			continue
		}
		if !allowed[ev.Content.Role] {
			continue
		}
		history = append(history, *ev.Content)
	}
	return history
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{
		ID:      s.ID,
		Events:  make([]Event, len(s.Events)),
		Created: s.Created,
		Updated: s.Updated,
	}
	copy(clone.Events, s.Events)
	return clone
}

// SessionStore persists sessions and their evolving event history.
type SessionStore interface {
	Create(id string) (*Session, error)
	Get(id string) (*Session, error)
	AppendEvent(sessionID string, event Event) error
}
