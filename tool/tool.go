// Package tool implements the retrieval-side capabilities the orchestration
// loop can dispatch: the documentation search tool plus a generic adapter for
// exposing plain Go functions with schema-validated arguments.
package tool

import (
	"fmt"

	"github.com/hupe1980/docent/core"
	"github.com/hupe1980/docent/internal/util"
)

// Tool is a capability the model can request by name. Implementations must
// be safe for concurrent calls; per-dispatch scope arrives via ToolContext.
type Tool interface {
	// Name returns the unique identifier used in function declarations and
	// dispatch routing (snake_case).
	Name() string

	// Description is provided to the model to decide when to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]interface{}

	// Call executes the tool with parsed arguments. The returned value must
	// be renderable as observation text (string, []byte or JSON-marshalable).
	Call(toolCtx *core.ToolContext, args map[string]interface{}) (interface{}, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string      `json:"tool"`              // Name of the tool that failed
	Message string      `json:"message"`           // Error message
	Code    string      `json:"code"`              // Error code for categorization
	Details interface{} `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
