package core

import (
	"time"

	"github.com/google/uuid"
)

// EventKind discriminates the typed events published during a run.
type EventKind string

const (
	// EventToken is an incremental text chunk from a streaming model call.
	EventToken EventKind = "token"
	// EventMessage is a complete content appended to the conversation
	// history. Message events are the only events persisted to sessions.
	EventMessage EventKind = "message"
	// EventToolStart marks the acceptance of a tool dispatch.
	EventToolStart EventKind = "tool_start"
	// EventToolEnd carries the observation of a finished tool dispatch. For
	// a given dispatch it always follows the matching EventToolStart.
	EventToolEnd EventKind = "tool_end"
	// EventCacheHit signals a model or tool result served from cache.
	EventCacheHit EventKind = "cache_hit"
	// EventFinal carries the terminal run snapshot. It is always the last
	// event of a run; consumers must not infer completion from anything else.
	EventFinal EventKind = "final"
)

// ToolCallInfo describes a tool dispatch on the event stream.
type ToolCallInfo struct {
	CallID string `json:"call_id"`
	Name   string `json:"name"`
	Args   string `json:"args,omitempty"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// FinalState is the terminal snapshot of a run.
type FinalState struct {
	ExitReason ExitReason `json:"exit_reason"`
	Turns      int        `json:"turns"`
	ToolCalls  int        `json:"tool_calls"`
	Answer     string     `json:"answer,omitempty"`
}

// Event is a single entry on a run's event stream. After emission it should
// be treated as immutable. Exactly one payload field is populated depending
// on Kind.
type Event struct {
	ID        string        `json:"id"`
	RunID     string        `json:"run_id"`
	Kind      EventKind     `json:"type"`
	Author    string        `json:"author,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Delta     string        `json:"delta,omitempty"`     // EventToken
	Content   *Content      `json:"content,omitempty"`   // EventMessage
	Tool      *ToolCallInfo `json:"tool,omitempty"`      // EventToolStart / EventToolEnd
	Operation string        `json:"operation,omitempty"` // EventCacheHit
	Final     *FinalState   `json:"final,omitempty"`     // EventFinal
}

// NewID generates a new unique identifier for events and runs.
func NewID() string { return uuid.NewString() }

func newEvent(runID string, kind EventKind, author string) Event {
	return Event{
		ID:        NewID(),
		RunID:     runID,
		Kind:      kind,
		Author:    author,
		Timestamp: time.Now().UTC(),
	}
}

// NewTokenEvent creates an incremental text chunk event.
func NewTokenEvent(runID, author, delta string) Event {
	e := newEvent(runID, EventToken, author)
	e.Delta = delta
	return e
}

// NewMessageEvent creates a complete-content event. The content role decides
// how the entry is replayed into conversation history.
func NewMessageEvent(runID, author string, content Content) Event {
	e := newEvent(runID, EventMessage, author)
	e.Content = &content
	return e
}

// NewUserMessageEvent is a convenience wrapper for a user-authored text message.
func NewUserMessageEvent(runID, text string) Event {
	return NewMessageEvent(runID, RoleUser, NewUserContent(text))
}

// NewToolStartEvent creates a dispatch-accepted event.
func NewToolStartEvent(runID, author string, call FunctionCall) Event {
	e := newEvent(runID, EventToolStart, author)
	e.Tool = &ToolCallInfo{CallID: call.ID, Name: call.Name, Args: call.Arguments}
	return e
}

// NewToolEndEvent creates a dispatch-finished event carrying the observation.
func NewToolEndEvent(runID, author string, response FunctionResponse) Event {
	e := newEvent(runID, EventToolEnd, author)
	e.Tool = &ToolCallInfo{
		CallID: response.ID,
		Name:   response.Name,
		Output: response.Response,
		Error:  response.Error,
	}
	return e
}

// NewCacheHitEvent creates a cache-hit event for the given operation kind.
func NewCacheHitEvent(runID, author, operation string) Event {
	e := newEvent(runID, EventCacheHit, author)
	e.Operation = operation
	return e
}

// NewFinalEvent creates the terminal event of a run.
func NewFinalEvent(runID, author string, final FinalState) Event {
	e := newEvent(runID, EventFinal, author)
	e.Final = &final
	return e
}

// IsPartial reports whether the event is an incremental token chunk that will
// be followed by a complete message event.
func (e Event) IsPartial() bool { return e.Kind == EventToken }

// IsFinal reports whether the event is a run's terminal event.
func (e Event) IsFinal() bool { return e.Kind == EventFinal }

// UnixSeconds returns the timestamp as fractional seconds since Unix epoch.
// Useful for metrics & numeric serialization paths.
func (e Event) UnixSeconds() float64 { return float64(e.Timestamp.UnixNano()) / 1e9 }
