package core

import (
	"context"
	"fmt"

	"github.com/hupe1980/docent/logging"
)

// ToolContext provides a constrained, auditable surface for tool
// implementations dispatched by the orchestration loop. Tools receive it
// instead of the full RunContext so they can observe the run without
// mutating its state.
type ToolContext struct {
	runCtx         *RunContext
	functionCallID string
}

// NewToolContext constructs a tool context bound to a parent RunContext and
// the unique id of the dispatched function call.
func NewToolContext(runCtx *RunContext, functionCallID string) *ToolContext {
	return &ToolContext{runCtx: runCtx, functionCallID: functionCallID}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.runCtx.Context }

// SessionID returns the session ID associated with the tool invocation.
func (tc *ToolContext) SessionID() string { return tc.runCtx.SessionID }

// RunID returns the run ID associated with the tool invocation.
func (tc *ToolContext) RunID() string { return tc.runCtx.RunID }

// Logger returns the logger associated with the tool invocation.
func (tc *ToolContext) Logger() logging.Logger { return tc.runCtx.Logger() }

// FunctionCallID returns the function call ID associated with the tool
// invocation.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// IsValid reports whether the context is bound to a run and a call id.
func (tc *ToolContext) IsValid() bool {
	return tc.runCtx != nil && tc.functionCallID != ""
}

// Validate performs a structural sanity check of the context.
func (tc *ToolContext) Validate() error {
	if !tc.IsValid() {
		return fmt.Errorf("invalid ToolContext")
	}
	return nil
}
