package agent

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/docent/cache"
	"github.com/hupe1980/docent/core"
	"github.com/hupe1980/docent/model"
	"github.com/hupe1980/docent/retrieval"
	"github.com/hupe1980/docent/retry"
	"github.com/hupe1980/docent/tool"
	"github.com/hupe1980/docent/trim"
)

// scriptedModel replays a fixed sequence of outcomes, one per Generate call.
// Exhausted scripts fall back to a plain text answer so runs always converge.
type scriptedModel struct {
	mu    sync.Mutex
	steps []scriptedStep
	calls int
}

type scriptedStep struct {
	content core.Content
	err     error
}

func answerStep(text string) scriptedStep {
	return scriptedStep{content: core.NewAssistantContent(text)}
}

func toolCallStep(query string) scriptedStep {
	return scriptedStep{content: core.Content{
		Role: core.RoleAssistant,
		Parts: []core.Part{core.FunctionCallPart{FunctionCall: core.FunctionCall{
			ID:        "call-1",
			Name:      tool.SearchToolName,
			Arguments: `{"query":"` + query + `"}`,
		}}},
	}}
}

func errStep(err error) scriptedStep { return scriptedStep{err: err} }

func emptyStep() scriptedStep {
	return scriptedStep{content: core.Content{Role: core.RoleAssistant}}
}

func (m *scriptedModel) Generate(_ context.Context, _ model.Request) (<-chan model.Response, <-chan error) {
	m.mu.Lock()
	var step scriptedStep
	if len(m.steps) > 0 {
		step = m.steps[0]
		m.steps = m.steps[1:]
	} else {
		step = answerStep("fallback answer")
	}
	m.calls++
	m.mu.Unlock()

	respCh := make(chan model.Response, 1)
	errCh := make(chan error, 1)
	if step.err != nil {
		errCh <- step.err
	} else {
		respCh <- model.Response{Content: step.content, FinishReason: "stop"}
	}
	close(respCh)
	close(errCh)
	return respCh, errCh
}

func (m *scriptedModel) Info() model.Info {
	return model.Info{Name: "scripted", Provider: "test", SupportsTools: true}
}

func (m *scriptedModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func fastRetry(maxAttempts int) retry.Config {
	return retry.Config{
		MaxAttempts:   maxAttempts,
		InitialDelay:  time.Millisecond,
		MaxDelay:      2 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func newTestAgent(llm model.Model, optFns ...func(o *Options)) *Agent {
	base := func(o *Options) {
		o.EnableStreaming = false
		o.ModelRetry = fastRetry(2)
		o.ToolRetry = fastRetry(3)
	}
	return New("docent", llm, append([]func(o *Options){base}, optFns...)...)
}

// runAgent drives one run to completion and returns every emitted event plus
// the terminal state.
func runAgent(t *testing.T, a *Agent, input string) ([]core.Event, core.FinalState) {
	t.Helper()

	emit := make(chan core.Event, 256)
	state := core.NewRunState()
	rc := core.NewRunContext(context.Background(), "sess-1", core.NewID(), core.NewUserContent(input), state, emit, nil)

	done := make(chan error, 1)
	go func() {
		done <- a.Run(rc)
		close(emit)
	}()

	var events []core.Event
	for ev := range emit {
		events = append(events, ev)
	}
	require.NoError(t, <-done)

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	require.True(t, last.IsFinal(), "final event must be the last event")
	require.NotNil(t, last.Final)
	return events, *last.Final
}

func TestRun_DirectAnswerCompletes(t *testing.T) {
	llm := &scriptedModel{steps: []scriptedStep{answerStep("the answer")}}
	a := newTestAgent(llm)

	events, final := runAgent(t, a, "what is docent?")
	assert.Equal(t, core.ExitCompleted, final.ExitReason)
	assert.Equal(t, "the answer", final.Answer)
	assert.Equal(t, 1, final.Turns)
	assert.Equal(t, 0, final.ToolCalls)
	assert.Equal(t, 1, llm.Calls())

	// user message first, assistant message second, final last
	require.GreaterOrEqual(t, len(events), 3)
	assert.Equal(t, core.EventMessage, events[0].Kind)
	assert.Equal(t, core.RoleUser, events[0].Content.Role)
}

func TestRun_EmptyInputSkipsBackends(t *testing.T) {
	llm := &scriptedModel{}
	a := newTestAgent(llm)

	events, final := runAgent(t, a, "   \n\t ")
	assert.Equal(t, core.ExitEmptyInput, final.ExitReason)
	assert.Empty(t, final.Answer)
	assert.Zero(t, llm.Calls())
	assert.Len(t, events, 1, "only the final event is emitted")
}

func TestRun_ContextBudgetExceededByOneUnit(t *testing.T) {
	llm := &scriptedModel{}
	a := newTestAgent(llm, func(o *Options) {
		o.Trimmer = trim.New(100, trim.CharSizer{})
	})

	_, final := runAgent(t, a, strings.Repeat("x", 101))
	assert.Equal(t, core.ExitMaxContext, final.ExitReason)
	assert.Equal(t, MessageMaxContext, final.Answer)
	assert.Zero(t, llm.Calls(), "no model call once trimming triggers")
	assert.Zero(t, final.Turns)
}

func TestRun_ContextBudgetExactFitProceeds(t *testing.T) {
	llm := &scriptedModel{steps: []scriptedStep{answerStep("fits")}}
	a := newTestAgent(llm, func(o *Options) {
		o.Trimmer = trim.New(100, trim.CharSizer{})
	})

	_, final := runAgent(t, a, strings.Repeat("x", 100))
	assert.Equal(t, core.ExitCompleted, final.ExitReason)
	assert.Equal(t, 1, llm.Calls())
}

func TestRun_AlwaysToolCallingHitsToolBudgetFirst(t *testing.T) {
	// One tool request per turn with the default budget of 3: the 4th
	// request is refused.
	llm := &scriptedModel{steps: []scriptedStep{
		toolCallStep("q1"), toolCallStep("q2"), toolCallStep("q3"), toolCallStep("q4"),
	}}
	a := newTestAgent(llm)
	a.RegisterTool(tool.NewSearchTool(retrieval.NewMemory()))

	_, final := runAgent(t, a, "needs lots of context")
	assert.Equal(t, core.ExitMaxToolCalls, final.ExitReason)
	assert.Equal(t, 3, final.ToolCalls)
	assert.Equal(t, 4, final.Turns)
	assert.LessOrEqual(t, llm.Calls(), 6, "must terminate within 6 model steps")
	assert.Empty(t, final.Answer, "tool-budget refusal is not a user-facing message")
}

func TestRun_AlwaysToolCallingHitsTurnLimit(t *testing.T) {
	var steps []scriptedStep
	for i := 0; i < 10; i++ {
		steps = append(steps, toolCallStep("q"))
	}
	llm := &scriptedModel{steps: steps}
	a := newTestAgent(llm, func(o *Options) {
		o.MaxToolCalls = 100
	})
	a.RegisterTool(tool.NewSearchTool(retrieval.NewMemory()))

	_, final := runAgent(t, a, "loop forever?")
	assert.Equal(t, core.ExitMaxTurns, final.ExitReason)
	assert.Equal(t, DefaultMaxTurns, final.Turns)
	assert.Equal(t, DefaultMaxTurns, llm.Calls())
	assert.Equal(t, MessageMaxTurns, final.Answer)
}

func TestRun_RateLimitedAfterExhaustedRetries(t *testing.T) {
	throttle := model.NewErrorWithStatus(model.ErrorTypeRateLimit, 429, "quota exceeded")
	llm := &scriptedModel{steps: []scriptedStep{errStep(throttle), errStep(throttle)}}
	a := newTestAgent(llm)

	_, final := runAgent(t, a, "hello")
	assert.Equal(t, core.ExitRateLimited, final.ExitReason)
	assert.Equal(t, MessageRateLimited, final.Answer)
	assert.Equal(t, 2, llm.Calls(), "model retry budget is exactly two attempts")
}

func TestRun_ModelErrorAtExactRetryBoundary(t *testing.T) {
	// Two transient failures exhaust MaxAttempts=2; the scripted success in
	// third position must never be consumed.
	transient := model.NewError(model.ErrorTypeTransient, "connection reset")
	llm := &scriptedModel{steps: []scriptedStep{
		errStep(transient), errStep(transient), answerStep("never reached"),
	}}
	a := newTestAgent(llm)

	_, final := runAgent(t, a, "hello")
	assert.Equal(t, core.ExitModelError, final.ExitReason)
	assert.Equal(t, 2, llm.Calls(), "no silent third attempt")
	assert.Contains(t, final.Answer, "An internal error occurred")
}

func TestRun_TransientErrorThenSuccessWithinBudget(t *testing.T) {
	transient := model.NewError(model.ErrorTypeTransient, "timeout")
	llm := &scriptedModel{steps: []scriptedStep{errStep(transient), answerStep("recovered")}}
	a := newTestAgent(llm)

	_, final := runAgent(t, a, "hello")
	assert.Equal(t, core.ExitCompleted, final.ExitReason)
	assert.Equal(t, "recovered", final.Answer)
	assert.Equal(t, 2, llm.Calls())
}

func TestRun_FatalErrorIsNotRetried(t *testing.T) {
	bad := model.NewErrorWithStatus(model.ErrorTypeBadRequest, 400, "malformed request")
	llm := &scriptedModel{steps: []scriptedStep{errStep(bad), answerStep("never reached")}}
	a := newTestAgent(llm)

	_, final := runAgent(t, a, "hello")
	assert.Equal(t, core.ExitModelError, final.ExitReason)
	assert.Equal(t, 1, llm.Calls())
}

func TestRun_EmptyOutputReinvokedOnce(t *testing.T) {
	llm := &scriptedModel{steps: []scriptedStep{emptyStep(), answerStep("second time lucky")}}
	a := newTestAgent(llm)

	_, final := runAgent(t, a, "hello")
	assert.Equal(t, core.ExitCompleted, final.ExitReason)
	assert.Equal(t, "second time lucky", final.Answer)
	assert.Equal(t, 1, final.Turns, "the re-invoke shares the turn")
	assert.Equal(t, 2, llm.Calls())
}

func TestRun_GenerationFailureAfterSecondEmptyOutput(t *testing.T) {
	llm := &scriptedModel{steps: []scriptedStep{emptyStep(), emptyStep()}}
	a := newTestAgent(llm)

	_, final := runAgent(t, a, "hello")
	assert.Equal(t, core.ExitGenerationFailure, final.ExitReason)
	assert.Equal(t, 2, llm.Calls())
	assert.Zero(t, final.Turns)
}

func TestRun_ToolObservationFlowsBackToModel(t *testing.T) {
	mem := retrieval.NewMemory()
	mem.Add(retrieval.Document{ID: "1", Source: "setup.md", Content: "Run docent serve to start."})

	llm := &scriptedModel{steps: []scriptedStep{
		toolCallStep("how to start"),
		answerStep("According to [1] `setup.md`, run docent serve."),
	}}
	a := newTestAgent(llm)
	a.RegisterTool(tool.NewSearchTool(mem))

	events, final := runAgent(t, a, "how do I start the server?")
	assert.Equal(t, core.ExitCompleted, final.ExitReason)
	assert.Equal(t, 1, final.ToolCalls)
	assert.Equal(t, 2, final.Turns)

	startIdx, endIdx := -1, -1
	for i, ev := range events {
		switch ev.Kind {
		case core.EventToolStart:
			startIdx = i
		case core.EventToolEnd:
			endIdx = i
			require.NotNil(t, ev.Tool)
			assert.Contains(t, ev.Tool.Output, "setup.md")
		}
	}
	require.NotEqual(t, -1, startIdx)
	require.NotEqual(t, -1, endIdx)
	assert.Less(t, startIdx, endIdx, "tool_start strictly precedes tool_end")
}

func TestRun_ModelCacheHitSkipsBackend(t *testing.T) {
	shared := cache.NewMemory(16, time.Minute)

	llm := &scriptedModel{steps: []scriptedStep{answerStep("cached answer"), answerStep("should not be needed")}}
	a := newTestAgent(llm, func(o *Options) {
		o.Cache = shared
	})

	_, first := runAgent(t, a, "identical question")
	require.Equal(t, core.ExitCompleted, first.ExitReason)
	require.Equal(t, 1, llm.Calls())

	events, second := runAgent(t, a, "identical question")
	assert.Equal(t, core.ExitCompleted, second.ExitReason)
	assert.Equal(t, "cached answer", second.Answer)
	assert.Equal(t, 1, llm.Calls(), "identical payload served from cache")

	var sawCacheHit bool
	var tokenEvents int
	for _, ev := range events {
		if ev.Kind == core.EventCacheHit {
			sawCacheHit = true
		}
		if ev.Kind == core.EventToken {
			tokenEvents++
		}
	}
	assert.True(t, sawCacheHit)
	assert.Zero(t, tokenEvents, "cache hits are not replayed token by token")
}

func TestRun_ToolCacheHitSkipsDispatch(t *testing.T) {
	shared := cache.NewMemory(16, time.Minute)

	var backendCalls int
	counting := tool.NewFunctionTool(tool.SearchToolName, "search docs",
		map[string]any{"type": "object", "properties": map[string]any{"query": map[string]any{"type": "string"}}},
		func(_ *core.ToolContext, _ map[string]any) (any, error) {
			backendCalls++
			return "[1] SOURCE: setup.md\ncontent", nil
		})

	llm := &scriptedModel{steps: []scriptedStep{
		toolCallStep("q"), answerStep("a1"),
		toolCallStep("q"), answerStep("a2"),
	}}
	a := newTestAgent(llm, func(o *Options) {
		o.Cache = shared
	})
	a.RegisterTool(counting)

	_, first := runAgent(t, a, "first")
	require.Equal(t, core.ExitCompleted, first.ExitReason)
	require.Equal(t, 1, backendCalls)

	_, second := runAgent(t, a, "second")
	assert.Equal(t, core.ExitCompleted, second.ExitReason)
	assert.Equal(t, 1, backendCalls, "identical query served from cache")
	assert.Equal(t, 1, second.ToolCalls, "a cached dispatch still consumes budget")
}

func TestRun_EmptySentinelNeverCached(t *testing.T) {
	shared := cache.NewMemory(16, time.Minute)

	var backendCalls int
	empty := tool.NewFunctionTool(tool.SearchToolName, "search docs",
		map[string]any{"type": "object", "properties": map[string]any{"query": map[string]any{"type": "string"}}},
		func(_ *core.ToolContext, _ map[string]any) (any, error) {
			backendCalls++
			return retrieval.EmptyResult, nil
		})

	llm := &scriptedModel{steps: []scriptedStep{
		toolCallStep("q"), answerStep("a1"),
		toolCallStep("q"), answerStep("a2"),
	}}
	a := newTestAgent(llm, func(o *Options) {
		o.Cache = shared
	})
	a.RegisterTool(empty)

	_, first := runAgent(t, a, "first")
	require.Equal(t, core.ExitCompleted, first.ExitReason)
	require.Equal(t, 1, backendCalls)

	_, second := runAgent(t, a, "second")
	assert.Equal(t, core.ExitCompleted, second.ExitReason)
	assert.Equal(t, 2, backendCalls, "sentinel results must hit the backend again")
}

func TestRun_FailedDispatchBecomesObservationAndConsumesBudget(t *testing.T) {
	var backendCalls int
	failing := tool.NewFunctionTool(tool.SearchToolName, "search docs",
		map[string]any{"type": "object", "properties": map[string]any{"query": map[string]any{"type": "string"}}},
		func(_ *core.ToolContext, _ map[string]any) (any, error) {
			backendCalls++
			return nil, tool.NewToolError(tool.SearchToolName, "index unavailable", "EXECUTION_ERROR")
		})

	llm := &scriptedModel{steps: []scriptedStep{
		toolCallStep("q"),
		answerStep("I could not retrieve documentation."),
	}}
	a := newTestAgent(llm)
	a.RegisterTool(failing)

	events, final := runAgent(t, a, "hello")
	assert.Equal(t, core.ExitCompleted, final.ExitReason, "a failed dispatch does not terminate the run")
	assert.Equal(t, 1, final.ToolCalls)
	assert.Equal(t, 3, backendCalls, "tool retry budget is three attempts")

	var observation string
	for _, ev := range events {
		if ev.Kind == core.EventMessage && ev.Content != nil && ev.Content.Role == core.RoleTool {
			responses := ev.Content.FunctionResponses()
			require.Len(t, responses, 1)
			observation = responses[0].Response
		}
	}
	assert.Contains(t, observation, "Error executing tool search_documentation")
}

func TestRun_UnknownToolBecomesErrorObservation(t *testing.T) {
	llm := &scriptedModel{steps: []scriptedStep{
		{content: core.Content{Role: core.RoleAssistant, Parts: []core.Part{
			core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "c1", Name: "no_such_tool", Arguments: `{}`}},
		}}},
		answerStep("done"),
	}}
	a := newTestAgent(llm)

	_, final := runAgent(t, a, "hello")
	assert.Equal(t, core.ExitCompleted, final.ExitReason)
	assert.Equal(t, 1, final.ToolCalls, "an accepted dispatch consumes budget even for unknown names")
}

func TestRun_CancellationLeavesStateUnfinished(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	llm := &scriptedModel{steps: []scriptedStep{answerStep("never delivered")}}
	a := newTestAgent(llm)

	emit := make(chan core.Event) // unbuffered so emission blocks on the dead context
	state := core.NewRunState()
	rc := core.NewRunContext(ctx, "sess-1", core.NewID(), core.NewUserContent("hello"), state, emit, nil)

	err := a.Run(rc)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, state.Finished(), "no exit reason is assigned for an abandoned run")
}
