package core

// ExitReason is the stable enum describing why a run terminated. Exactly one
// value is assigned per run, at the moment of termination, and it is never
// overwritten afterwards.
type ExitReason string

const (
	// ExitCompleted indicates the model produced a direct answer.
	ExitCompleted ExitReason = "COMPLETED"
	// ExitMaxTurns indicates the run hit the model-cycle limit.
	ExitMaxTurns ExitReason = "MAX_TURNS_REACHED"
	// ExitMaxToolCalls indicates the run hit the tool-dispatch limit.
	ExitMaxToolCalls ExitReason = "MAX_TOOL_CALLS_REACHED"
	// ExitMaxContext indicates the conversation no longer fits the context
	// budget; the model is not called for that cycle.
	ExitMaxContext ExitReason = "MAX_CONTEXT_REACHED"
	// ExitEmptyInput indicates the caller submitted empty or whitespace-only
	// input; no backend call is made.
	ExitEmptyInput ExitReason = "EMPTY_INPUT"
	// ExitRateLimited indicates the model provider rejected the call with a
	// rate-limit error after retries were exhausted.
	ExitRateLimited ExitReason = "RATE_LIMITED"
	// ExitModelError indicates a non-rate-limit model failure after retries
	// were exhausted.
	ExitModelError ExitReason = "LLM_ERROR"
	// ExitGenerationFailure indicates the model returned no text and no tool
	// calls twice in a row for the same cycle.
	ExitGenerationFailure ExitReason = "LLM_GENERATION_FAILURE"

	// ExitInvalidToolCall is reserved for client compatibility. No code path
	// assigns it: malformed or unknown tool calls surface as error
	// observations the model can react to instead of terminating the run.
	ExitInvalidToolCall ExitReason = "INVALID_TOOL_CALL"
)

// IsError reports whether the exit reason should be surfaced to API clients
// as an error event. Limit-induced terminations carry their own user-facing
// handling and are not errors.
func (r ExitReason) IsError() bool {
	switch r {
	case ExitCompleted, ExitMaxTurns, ExitMaxToolCalls:
		return false
	default:
		return true
	}
}

// Terminal reports whether the reason is a known member of the enum.
func (r ExitReason) Terminal() bool {
	switch r {
	case ExitCompleted, ExitMaxTurns, ExitMaxToolCalls, ExitMaxContext,
		ExitEmptyInput, ExitRateLimited, ExitModelError, ExitGenerationFailure,
		ExitInvalidToolCall:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (r ExitReason) String() string { return string(r) }
