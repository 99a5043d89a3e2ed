package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/docent/core"
	"github.com/hupe1980/docent/logging"
	"github.com/hupe1980/docent/session"
)

// Agent is the execution contract the runner drives. One call to Run owns
// the run state for the whole invocation and must resolve every internal
// failure to a terminal exit reason; the returned error is reserved for
// abandonment (context cancellation).
type Agent interface {
	Name() string
	Run(rc *core.RunContext) error
}

// Options holds dependency and configuration overrides passed to New.
type Options struct {
	// EventBufferSize sets channel buffering for events. Buffering decouples
	// the loop from slow consumers; it never bypasses limit enforcement.
	EventBufferSize int
	// SessionStore persists conversation history across runs.
	SessionStore core.SessionStore
	// Logger receives run lifecycle messages.
	Logger logging.Logger
}

// Runner coordinates run execution: it seeds state from the session,
// streams events, persists completed messages and supports cancellation.
// Public methods are safe for concurrent use.
type Runner struct {
	agent Agent

	eventBufferSize int
	sessionStore    core.SessionStore
	logger          logging.Logger

	activeRuns map[string]context.CancelFunc
	mu         sync.RWMutex
}

var _ core.Runner = (*Runner)(nil)

// New constructs a Runner with optional overrides.
func New(agent Agent, optFns ...func(o *Options)) *Runner {
	opts := Options{
		EventBufferSize: 100,
		SessionStore:    session.NewInMemoryStore(),
		Logger:          logging.NewNoOpLogger(),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		agent:           agent,
		eventBufferSize: opts.EventBufferSize,
		sessionStore:    opts.SessionStore,
		logger:          opts.Logger,
		activeRuns:      make(map[string]context.CancelFunc),
	}
}

// Run starts an asynchronous run bound to sessionID. The returned events
// channel is closed after the run completes; its last entry is the final
// event unless the run was cancelled. The error channel carries at most one
// terminal error.
func (r *Runner) Run(
	ctx context.Context,
	sessionID string,
	userContent core.Content,
) (string, <-chan core.Event, <-chan error, error) {
	sess, err := r.sessionStore.Get(sessionID)
	if err != nil {
		return "", nil, nil, fmt.Errorf("get session: %w", err)
	}

	runID := core.NewID()

	eventsCh := make(chan core.Event, r.eventBufferSize)
	errorsCh := make(chan error, 1)
	agentEmit := make(chan core.Event, r.eventBufferSize)

	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.activeRuns[runID] = cancel
	r.mu.Unlock()

	state := core.NewRunState(sess.GetConversationHistory()...)
	rc := core.NewRunContext(ctx, sessionID, runID, userContent, state, agentEmit, r.logger)

	r.logger.Debug("run started", "run_id", runID, "session_id", sessionID)

	go func() {
		defer func() {
			close(agentEmit)
			r.mu.Lock()
			delete(r.activeRuns, runID)
			r.mu.Unlock()
			cancel()
		}()

		if err := r.agent.Run(rc); err != nil {
			select {
			case errorsCh <- fmt.Errorf("run %s abandoned: %w", runID, err):
			default:
			}
		}
	}()

	go func() {
		defer func() { close(eventsCh); close(errorsCh) }()

		r.forwardEvents(ctx, sessionID, agentEmit, eventsCh)
	}()

	return runID, eventsCh, errorsCh, nil
}

// Cancel requests cooperative termination of an in-flight run.
func (r *Runner) Cancel(runID string) error {
	r.mu.Lock()
	cancel, exists := r.activeRuns[runID]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("run %s not found", runID)
	}

	cancel()

	return nil
}

// forwardEvents drains the agent's emissions, persisting complete message
// events to the session before delivery so a consumer observing an event can
// rely on it having been committed.
func (r *Runner) forwardEvents(
	ctx context.Context,
	sessionID string,
	agentEmit <-chan core.Event,
	eventsCh chan<- core.Event,
) {
	for ev := range agentEmit {
		if ev.Kind == core.EventMessage {
			if err := r.sessionStore.AppendEvent(sessionID, ev); err != nil {
				r.logger.Error("session append failed", "session_id", sessionID, "event_id", ev.ID, "error", err)
			}
		}

		select {
		case <-ctx.Done():
			// Keep draining so the agent goroutine can finish; events are
			// dropped once the consumer is gone.
			continue
		case eventsCh <- ev:
		}
	}
}
