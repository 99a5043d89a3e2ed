package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hupe1980/docent/cache"
	"github.com/hupe1980/docent/core"
	"github.com/hupe1980/docent/retrieval"
	"github.com/hupe1980/docent/retry"
)

// toolCachePayload is the canonical serialization hashed into the retrieval
// cache key. Arguments pass through a map so encoding/json sorts the keys.
type toolCachePayload struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// invokeTool executes one accepted tool dispatch: cache lookup first, then
// the tool under the retry budget, bracketed by tool_start/tool_end events.
// Failures after exhausted retries and unknown tool names become error
// observations the model can react to; the returned error is reserved for
// context cancellation.
func (a *Agent) invokeTool(rc *core.RunContext, call core.FunctionCall) (core.FunctionResponse, error) {
	args, argsErr := parseToolArgs(call.Arguments)

	key := ""
	if a.cache != nil && argsErr == nil {
		k, err := cache.Key(cache.OperationRetriever, toolCachePayload{Tool: call.Name, Args: args})
		if err == nil {
			key = k
		} else {
			rc.Logger().Warn("tool cache key derivation failed", "tool", call.Name, "error", err)
		}
	}

	if key != "" {
		if data, ok := a.cache.Get(rc.Context, key); ok {
			a.recorder.IncCacheHit(cache.OperationRetriever)
			if err := rc.EmitEvent(core.NewCacheHitEvent(rc.RunID, a.name, cache.OperationRetriever)); err != nil {
				return core.FunctionResponse{}, err
			}
			return core.FunctionResponse{ID: call.ID, Name: call.Name, Response: string(data)}, nil
		}
		a.recorder.IncCacheMiss(cache.OperationRetriever)
	}

	if err := rc.EmitEvent(core.NewToolStartEvent(rc.RunID, a.name, call)); err != nil {
		return core.FunctionResponse{}, err
	}

	start := time.Now()
	result, err := a.dispatchTool(rc, call, args, argsErr)
	a.recorder.ObserveToolCall(call.Name, err == nil, time.Since(start))

	response := core.FunctionResponse{ID: call.ID, Name: call.Name}
	if err != nil {
		if rc.Err() != nil {
			return core.FunctionResponse{}, rc.Err()
		}
		// Surfaced to the model as a regular observation; the turn and
		// tool-call limits bound how it can react.
		response.Response = fmt.Sprintf("Error executing tool %s: %v", call.Name, err)
		response.Error = err.Error()
	} else {
		response.Response = result
		if key != "" && result != "" && result != retrieval.EmptyResult {
			a.cache.Put(rc.Context, key, []byte(result))
		}
	}

	if err := rc.EmitEvent(core.NewToolEndEvent(rc.RunID, a.name, response)); err != nil {
		return core.FunctionResponse{}, err
	}
	return response, nil
}

// dispatchTool runs the named tool under the tool retry budget and renders
// its result as observation text.
func (a *Agent) dispatchTool(rc *core.RunContext, call core.FunctionCall, args map[string]any, argsErr error) (string, error) {
	if argsErr != nil {
		return "", fmt.Errorf("invalid arguments: %w", argsErr)
	}

	t, ok := a.tools[call.Name]
	if !ok {
		return "", fmt.Errorf("tool not found")
	}

	policy := retry.NewPolicy(a.toolRetry, retry.RetryAllErrors)
	policy.OnRetry = func(attempt int, lastErr error) {
		a.recorder.IncRetry(cache.OperationRetriever)
		rc.Logger().Warn("retrying tool dispatch", "run_id", rc.RunID, "tool", call.Name, "attempt", attempt, "error", lastErr)
	}

	toolCtx := core.NewToolContext(rc, call.ID)
	return retry.Do(rc.Context, policy, func(ctx context.Context) (string, error) {
		result, err := t.Call(toolCtx, args)
		if err != nil {
			return "", err
		}
		return renderToolResult(result), nil
	})
}

func parseToolArgs(arguments string) (map[string]any, error) {
	if arguments == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return nil, err
	}
	return args, nil
}

// renderToolResult converts a tool's return value into observation text.
func renderToolResult(result any) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
