package agent

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hupe1980/docent/cache"
	"github.com/hupe1980/docent/core"
	"github.com/hupe1980/docent/model"
	"github.com/hupe1980/docent/retry"
)

// llmCachePayload is the canonical serialization hashed into the model cache
// key. Struct fields keep declaration order and core.Content marshals through
// tagged part envelopes, so semantically identical invocations collide.
type llmCachePayload struct {
	Model        string         `json:"model"`
	Instructions string         `json:"instructions"`
	Messages     []core.Content `json:"messages"`
}

// invokeModel executes one logical model invocation over the trimmed history:
// cache lookup first, then the generation capability under the retry budget.
// A cache hit returns the stored output without replaying tokens; the caller
// emits it as one synthetic complete message. Empty output is returned as-is
// and never cached.
func (a *Agent) invokeModel(rc *core.RunContext, limiter *core.ModelLimiter, history []core.Content) (core.Content, error) {
	if err := limiter.Increment(); err != nil {
		// The limiter is a backstop behind the turn accounting; hitting it
		// means the loop itself is broken.
		return core.Content{}, model.NewErrorWithCause(model.ErrorTypeUnknown, err, "model call backstop tripped")
	}

	instructions, err := a.instruction.Resolve(rc)
	if err != nil {
		return core.Content{}, model.NewErrorWithCause(model.ErrorTypeUnknown, err, "resolve instructions")
	}

	req := model.Request{
		Instructions: instructions,
		Contents:     history,
		Tools:        a.toolDefinitions(),
		Stream:       a.enableStreaming,
	}

	key := a.modelCacheKey(rc, instructions, history)
	if key != "" {
		if data, ok := a.cache.Get(rc.Context, key); ok {
			var output core.Content
			if uerr := json.Unmarshal(data, &output); uerr != nil {
				rc.Logger().Warn("dropping undecodable model cache entry", "key", key, "error", uerr)
			} else {
				a.recorder.IncCacheHit(cache.OperationLLM)
				if err := rc.EmitEvent(core.NewCacheHitEvent(rc.RunID, a.name, cache.OperationLLM)); err != nil {
					return core.Content{}, err
				}
				return output, nil
			}
		}
		a.recorder.IncCacheMiss(cache.OperationLLM)
	}

	policy := retry.NewPolicy(a.modelRetry, model.IsRetryable)
	policy.OnRetry = func(attempt int, lastErr error) {
		a.recorder.IncRetry(cache.OperationLLM)
		rc.Logger().Warn("retrying model call", "run_id", rc.RunID, "attempt", attempt, "error", lastErr)
	}

	start := time.Now()
	output, err := retry.Do(rc.Context, policy, func(ctx context.Context) (core.Content, error) {
		return a.generate(ctx, rc, req)
	})
	if err != nil {
		return core.Content{}, err
	}
	rc.Logger().Debug("model call finished", "run_id", rc.RunID, "duration", time.Since(start))

	if key != "" && !isEmptyOutput(output) {
		if data, err := json.Marshal(output); err == nil {
			a.cache.Put(rc.Context, key, data)
		}
	}

	return output, nil
}

// generate performs a single generation attempt, draining the streaming
// channels. Partial chunks are forwarded as token events; the final chunk
// carries the aggregated output.
func (a *Agent) generate(ctx context.Context, rc *core.RunContext, req model.Request) (core.Content, error) {
	respCh, errCh := a.llm.Generate(ctx, req)

	var output core.Content
	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return core.Content{}, ctx.Err()
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if resp.Partial {
				if delta := resp.Content.Text(); delta != "" {
					if err := rc.EmitEvent(core.NewTokenEvent(rc.RunID, a.name, delta)); err != nil {
						return core.Content{}, err
					}
				}
				continue
			}
			output = resp.Content
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return core.Content{}, err
			}
		}
	}

	if output.Role == "" {
		output.Role = core.RoleAssistant
	}
	return output, nil
}

// modelCacheKey derives the cache key for an invocation, or "" when caching
// is disabled or the payload cannot be serialized.
func (a *Agent) modelCacheKey(rc *core.RunContext, instructions string, history []core.Content) string {
	if a.cache == nil {
		return ""
	}
	key, err := cache.Key(cache.OperationLLM, llmCachePayload{
		Model:        a.llm.Info().Name,
		Instructions: instructions,
		Messages:     history,
	})
	if err != nil {
		rc.Logger().Warn("model cache key derivation failed", "error", err)
		return ""
	}
	return key
}

func (a *Agent) toolDefinitions() []model.ToolDefinition {
	if len(a.tools) == 0 {
		return nil
	}
	defs := make([]model.ToolDefinition, 0, len(a.tools))
	for _, t := range a.tools {
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}
