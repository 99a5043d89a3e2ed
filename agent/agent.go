package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/docent/cache"
	"github.com/hupe1980/docent/core"
	"github.com/hupe1980/docent/metrics"
	"github.com/hupe1980/docent/model"
	"github.com/hupe1980/docent/retry"
	"github.com/hupe1980/docent/tool"
	"github.com/hupe1980/docent/trim"
)

// Defaults bounding a run. They are configuration, not constants, but the
// values are load-bearing: clients depend on runs terminating within them.
const (
	DefaultMaxTurns      = 6
	DefaultMaxToolCalls  = 3
	DefaultContextBudget = 12000
)

// DefaultModelRetry bounds one logical model invocation to two attempts.
var DefaultModelRetry = retry.Config{
	MaxAttempts:   2,
	InitialDelay:  500 * time.Millisecond,
	MaxDelay:      5 * time.Second,
	BackoffFactor: 2.0,
	Jitter:        true,
}

// DefaultToolRetry bounds one logical tool dispatch to three attempts.
var DefaultToolRetry = retry.Config{
	MaxAttempts:   3,
	InitialDelay:  200 * time.Millisecond,
	MaxDelay:      5 * time.Second,
	BackoffFactor: 2.0,
	Jitter:        true,
}

// Options configures an Agent instance. Use functional options with New to
// override defaults.
type Options struct {
	// Instruction is the pinned system directive; defaults to
	// DefaultInstruction.
	Instruction Instruction
	// Tools exposed to the model, keyed by name.
	Tools map[string]tool.Tool
	// Cache deduplicates model invocations and tool dispatches. Nil disables
	// caching.
	Cache cache.Cache
	// Trimmer bounds history before every model call; defaults to a
	// character-counting trimmer with DefaultContextBudget.
	Trimmer *trim.Trimmer
	// Metrics receives call, cache and run observations.
	Metrics metrics.Recorder
	// EnableStreaming requests token-level streaming from the model.
	EnableStreaming bool
	// MaxTurns bounds completed model cycles per run.
	MaxTurns int
	// MaxToolCalls bounds accepted tool dispatches per run.
	MaxToolCalls int
	// ModelRetry / ToolRetry configure the per-call retry budgets.
	ModelRetry retry.Config
	ToolRetry  retry.Config
}

// Agent drives the model/tool loop for a documentation assistant. It holds
// no per-run state and is safe for concurrent runs.
type Agent struct {
	name            string
	llm             model.Model
	instruction     Instruction
	tools           map[string]tool.Tool
	cache           cache.Cache
	trimmer         *trim.Trimmer
	recorder        metrics.Recorder
	enableStreaming bool
	maxTurns        int
	maxToolCalls    int
	modelRetry      retry.Config
	toolRetry       retry.Config
}

// New creates an Agent around the given model.
func New(name string, llm model.Model, optFns ...func(o *Options)) *Agent {
	opts := Options{
		Instruction:     NewInstructionFromText(DefaultInstruction),
		Tools:           make(map[string]tool.Tool),
		Trimmer:         trim.New(DefaultContextBudget, trim.CharSizer{}),
		Metrics:         metrics.Nop(),
		EnableStreaming: true,
		MaxTurns:        DefaultMaxTurns,
		MaxToolCalls:    DefaultMaxToolCalls,
		ModelRetry:      DefaultModelRetry,
		ToolRetry:       DefaultToolRetry,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Agent{
		name:            name,
		llm:             llm,
		instruction:     opts.Instruction,
		tools:           opts.Tools,
		cache:           opts.Cache,
		trimmer:         opts.Trimmer,
		recorder:        opts.Metrics,
		enableStreaming: opts.EnableStreaming,
		maxTurns:        opts.MaxTurns,
		maxToolCalls:    opts.MaxToolCalls,
		modelRetry:      opts.ModelRetry,
		toolRetry:       opts.ToolRetry,
	}
}

// Name returns the agent's display name.
func (a *Agent) Name() string { return a.name }

// RegisterTool adds a tool to the agent's capability set.
func (a *Agent) RegisterTool(t tool.Tool) { a.tools[t.Name()] = t }

// RegisterTools adds multiple tools to the agent's capability set.
func (a *Agent) RegisterTools(tools ...tool.Tool) {
	for _, t := range tools {
		a.RegisterTool(t)
	}
}

// HasTool checks if a tool is registered with the agent.
func (a *Agent) HasTool(name string) bool {
	_, ok := a.tools[name]
	return ok
}

// Run executes the orchestration loop for one run until a terminal exit
// reason is assigned. Every failure path inside the loop resolves to exactly
// one exit reason; the only error Run returns is context cancellation, in
// which case no final event is emitted and the run state stays unfinished.
func (a *Agent) Run(rc *core.RunContext) error {
	start := time.Now()
	state := rc.State

	if strings.TrimSpace(rc.UserContent.Text()) == "" {
		return a.finish(rc, core.ExitEmptyInput, start)
	}

	state.Append(rc.UserContent)
	if err := rc.EmitEvent(core.NewMessageEvent(rc.RunID, a.name, rc.UserContent)); err != nil {
		return err
	}

	// The hard cap tolerates one extra call per turn for the bounded
	// re-invoke on empty output.
	limiter := core.NewModelLimiter(2 * a.maxTurns)

	for {
		reason, err := a.modelStep(rc, limiter)
		if err != nil {
			return err
		}
		if reason != "" {
			return a.finish(rc, reason, start)
		}

		reason, err = a.toolStep(rc)
		if err != nil {
			return err
		}
		if reason != "" {
			return a.finish(rc, reason, start)
		}
	}
}

// modelStep runs the trimmer and one model invocation, mutating state per
// the outcome. It returns a non-empty exit reason when the run must
// terminate, or empty to proceed to the tool step.
func (a *Agent) modelStep(rc *core.RunContext, limiter *core.ModelLimiter) (core.ExitReason, error) {
	state := rc.State

	trimmed, wasTrimmed := a.trimmer.Trim(state.History())
	if wasTrimmed {
		if err := a.say(rc, MessageMaxContext); err != nil {
			return "", err
		}
		return core.ExitMaxContext, nil
	}

	output, err := a.invokeModel(rc, limiter, trimmed)
	if err != nil {
		return a.modelFailure(rc, err)
	}

	if isEmptyOutput(output) {
		// One bounded re-invoke within the same turn to force a groundable
		// final message. Empty output is never cached, so this hits the
		// backend again.
		rc.Logger().Warn("model returned empty output, re-invoking once", "run_id", rc.RunID)

		output, err = a.invokeModel(rc, limiter, trimmed)
		if err != nil {
			return a.modelFailure(rc, err)
		}
		if isEmptyOutput(output) {
			return core.ExitGenerationFailure, nil
		}
	}

	turns := state.AdvanceTurn()
	state.Append(output)
	if err := rc.EmitEvent(core.NewMessageEvent(rc.RunID, a.name, output)); err != nil {
		return "", err
	}

	calls := output.FunctionCalls()
	if len(calls) == 0 {
		return core.ExitCompleted, nil
	}

	if turns >= a.maxTurns {
		// Pending calls are not dispatched once the turn budget is consumed.
		if err := a.say(rc, MessageMaxTurns); err != nil {
			return "", err
		}
		return core.ExitMaxTurns, nil
	}

	state.SetPending(calls)
	return "", nil
}

// modelFailure maps a retry-exhausted model error to its terminal exit
// reason, appending the matching canned message. Context cancellation is
// propagated instead of being converted to an exit reason.
func (a *Agent) modelFailure(rc *core.RunContext, err error) (core.ExitReason, error) {
	if rc.Err() != nil {
		return "", rc.Err()
	}
	if model.IsRateLimit(err) {
		if sayErr := a.say(rc, MessageRateLimited); sayErr != nil {
			return "", sayErr
		}
		return core.ExitRateLimited, nil
	}
	if sayErr := a.say(rc, fmt.Sprintf("An internal error occurred while processing your request: %v", err)); sayErr != nil {
		return "", sayErr
	}
	return core.ExitModelError, nil
}

// toolStep dispatches the pending tool calls in order. It returns a
// non-empty exit reason when the tool-call budget refuses a dispatch.
func (a *Agent) toolStep(rc *core.RunContext) (core.ExitReason, error) {
	state := rc.State

	for _, call := range state.TakePending() {
		if state.ToolCalls() >= a.maxToolCalls {
			// The refusal is recorded as a tool observation, not a
			// user-facing message.
			observation := core.NewToolContent(core.FunctionResponse{
				ID:       call.ID,
				Name:     call.Name,
				Response: MessageToolLimit,
			})
			state.Append(observation)
			if err := rc.EmitEvent(core.NewMessageEvent(rc.RunID, a.name, observation)); err != nil {
				return "", err
			}
			return core.ExitMaxToolCalls, nil
		}

		response, err := a.invokeTool(rc, call)
		if err != nil {
			return "", err
		}

		// A dispatch consumes budget whether or not it succeeded.
		state.ConsumeToolCall()

		observation := core.NewToolContent(response)
		state.Append(observation)
		if err := rc.EmitEvent(core.NewMessageEvent(rc.RunID, a.name, observation)); err != nil {
			return "", err
		}
	}

	return "", nil
}

// say appends a canned assistant message and emits it.
func (a *Agent) say(rc *core.RunContext, text string) error {
	content := core.NewAssistantContent(text)
	rc.State.Append(content)
	return rc.EmitEvent(core.NewMessageEvent(rc.RunID, a.name, content))
}

// finish assigns the terminal exit reason exactly once and emits the final
// event as the last event of the run.
func (a *Agent) finish(rc *core.RunContext, reason core.ExitReason, start time.Time) error {
	state := rc.State
	if !state.Finish(reason) {
		rc.Logger().Error("duplicate terminal transition rejected",
			"run_id", rc.RunID, "kept", state.ExitReason(), "rejected", reason)
	}

	final := state.Snapshot()
	a.recorder.ObserveRun(final.ExitReason.String(), final.Turns, final.ToolCalls, time.Since(start))
	rc.Logger().Info("run finished",
		"run_id", rc.RunID, "exit_reason", final.ExitReason, "turns", final.Turns, "tool_calls", final.ToolCalls)

	return rc.EmitEvent(core.NewFinalEvent(rc.RunID, a.name, final))
}

func isEmptyOutput(c core.Content) bool {
	return strings.TrimSpace(c.Text()) == "" && len(c.FunctionCalls()) == 0
}
