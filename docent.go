// Package docent provides a high-level façade over the orchestration loop
// and its services (sessions, caching, retrieval, logging). Most applications
// interact with this package by:
//  1. Creating a Docent via New() with a model and a retriever
//  2. Invoking runs asynchronously (Ask) or synchronously (AskSync)
//
// The façade delegates run execution to runner.Runner while keeping setup
// ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a Redis-backed cache, a
// persistent index and a structured logger.
package docent

import (
	"context"
	"time"

	"github.com/hupe1980/docent/agent"
	"github.com/hupe1980/docent/cache"
	"github.com/hupe1980/docent/core"
	"github.com/hupe1980/docent/logging"
	"github.com/hupe1980/docent/metrics"
	"github.com/hupe1980/docent/model"
	"github.com/hupe1980/docent/retrieval"
	"github.com/hupe1980/docent/runner"
	"github.com/hupe1980/docent/session"
	"github.com/hupe1980/docent/tool"
	"github.com/hupe1980/docent/trim"
)

// DefaultCacheTTL bounds the lifetime of cached model and tool results.
const DefaultCacheTTL = 3600 * time.Second

// Options configures the Docent instance.
type Options struct {
	// AgentName labels events emitted by the assistant.
	AgentName string

	// Retriever backs the documentation search tool. Nil disables the tool
	// and the assistant answers from the conversation alone.
	Retriever retrieval.Retriever

	// Cache deduplicates model invocations and tool dispatches. Defaults to
	// an in-memory LRU with DefaultCacheTTL.
	Cache cache.Cache

	// SessionStore persists conversation history across runs; defaults to
	// an in-memory store.
	SessionStore core.SessionStore

	// Metrics receives call, cache and run observations; defaults to a
	// no-op recorder.
	Metrics metrics.Recorder

	// Logger defaults to a no-op logger.
	Logger logging.Logger

	// EnableStreaming toggles token-level model streaming.
	EnableStreaming bool

	// Run limits. Zero values keep the agent defaults.
	MaxTurns      int
	MaxToolCalls  int
	ContextBudget int

	// EventBufferSize sets channel buffering for the run event stream.
	EventBufferSize int
}

// Docent is the high-level façade aggregating the agent and its runner.
type Docent struct {
	opts   Options
	agent  *agent.Agent
	runner *runner.Runner
}

// New creates a Docent around the given model with optional overrides. Any
// unset service is initialized with an in-memory implementation.
func New(llm model.Model, optFns ...func(o *Options)) *Docent {
	opts := Options{
		AgentName:       "docent",
		Cache:           cache.NewMemory(1024, DefaultCacheTTL),
		SessionStore:    session.NewInMemoryStore(),
		Metrics:         metrics.Nop(),
		Logger:          logging.NewNoOpLogger(),
		EnableStreaming: true,
		MaxTurns:        agent.DefaultMaxTurns,
		MaxToolCalls:    agent.DefaultMaxToolCalls,
		ContextBudget:   agent.DefaultContextBudget,
		EventBufferSize: 100,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	a := agent.New(opts.AgentName, llm, func(o *agent.Options) {
		o.Cache = opts.Cache
		o.Metrics = opts.Metrics
		o.EnableStreaming = opts.EnableStreaming
		o.MaxTurns = opts.MaxTurns
		o.MaxToolCalls = opts.MaxToolCalls
		o.Trimmer = trim.New(opts.ContextBudget, trim.CharSizer{})
	})

	if opts.Retriever != nil {
		a.RegisterTool(tool.NewSearchTool(opts.Retriever))
	}

	r := runner.New(a, func(o *runner.Options) {
		o.EventBufferSize = opts.EventBufferSize
		o.SessionStore = opts.SessionStore
		o.Logger = opts.Logger
	})

	return &Docent{opts: opts, agent: a, runner: r}
}

// Runner exposes the underlying runner for transports that stream events.
func (d *Docent) Runner() *runner.Runner { return d.runner }

// Ask starts an asynchronous run returning the run ID plus event and error
// channels. The events channel closes after the final event.
func (d *Docent) Ask(
	ctx context.Context,
	sessionID string,
	question string,
) (string, <-chan core.Event, <-chan error, error) {
	return d.runner.Run(ctx, sessionID, core.NewUserContent(question))
}

// Result is the synchronous outcome of a run.
type Result struct {
	RunID  string
	Final  core.FinalState
	Events []core.Event
}

// AskSync is a synchronous helper that drains the async channels, accumulates
// events and returns the terminal snapshot.
func (d *Docent) AskSync(ctx context.Context, sessionID, question string) (*Result, error) {
	runID, eventsCh, errorsCh, err := d.Ask(ctx, sessionID, question)
	if err != nil {
		return nil, err
	}

	res := &Result{RunID: runID}
	for {
		select {
		case <-ctx.Done():
			return res, ctx.Err()

		case event, ok := <-eventsCh:
			if !ok {
				select {
				case err := <-errorsCh:
					if err != nil {
						return res, err
					}
				default:
				}
				return res, nil
			}
			res.Events = append(res.Events, event)
			if event.Kind == core.EventFinal && event.Final != nil {
				res.Final = *event.Final
			}

		case err := <-errorsCh:
			if err != nil {
				return res, err
			}
		}
	}
}
