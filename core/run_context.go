package core

import (
	"context"

	"github.com/hupe1980/docent/logging"
)

// RunContext carries the per-run execution scope passed through the
// orchestration loop. It aggregates:
//   - The ambient cancellation Context
//   - Identifiers (SessionID, RunID) and the seeding user Content
//   - The run state owned by the loop
//   - The event emission channel
//
// The context is created by the runner and handed to the agent; it is not
// shared between concurrent runs.
type RunContext struct {
	Context          context.Context
	SessionID, RunID string
	UserContent      Content
	State            *RunState
	Emit             chan<- Event

	logger logging.Logger
}

// NewRunContext constructs a RunContext for a single run.
func NewRunContext(
	ctx context.Context,
	sessionID, runID string,
	userContent Content,
	state *RunState,
	emit chan<- Event,
	logger logging.Logger,
) *RunContext {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &RunContext{
		Context:     ctx,
		SessionID:   sessionID,
		RunID:       runID,
		UserContent: userContent,
		State:       state,
		Emit:        emit,
		logger:      logger,
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (rc *RunContext) Err() error { return rc.Context.Err() }

// Logger returns the run-scoped logger.
func (rc *RunContext) Logger() logging.Logger { return rc.logger }

// EmitEvent publishes an event to the run's consumer. It returns the context
// error when the run was cancelled before the event could be delivered.
func (rc *RunContext) EmitEvent(ev Event) error {
	select {
	case <-rc.Context.Done():
		return rc.Context.Err()
	case rc.Emit <- ev:
		return nil
	}
}
