package agent

// Canned user-visible messages appended to the conversation when a run
// terminates on a limit or an exhausted error path. They are displayed to
// the caller verbatim. EMPTY_INPUT and MAX_TOOL_CALLS_REACHED deliberately
// produce no assistant message: the first asks the caller to prompt again,
// the second lets the model continue with the observations it already has.
const (
	// MessageMaxTurns is returned when the model-cycle limit is hit.
	MessageMaxTurns = "I reached the maximum reasoning steps for this request. " +
		"Please rephrase or ask a more specific question."

	// MessageMaxContext is returned when the conversation no longer fits the
	// context budget.
	MessageMaxContext = "The conversation is too long for me to answer safely. " +
		"Please start a new question or narrow the scope."

	// MessageRateLimited is returned when the provider throttled the run and
	// retries were exhausted.
	MessageRateLimited = "I'm temporarily rate-limited by the AI provider. " +
		"Please wait a moment and try again."

	// MessageToolLimit is the tool observation surfaced to the model when a
	// pending dispatch is refused because the tool-call budget is consumed.
	MessageToolLimit = "Tool call limit reached. Unable to retrieve more context."
)
