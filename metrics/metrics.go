// Package metrics provides metrics recording for model, tool and cache
// operations of the orchestration loop.
package metrics

import "time"

// Recorder defines the interface for recording orchestration metrics.
type Recorder interface {
	// ObserveModelCall records a completed model invocation.
	ObserveModelCall(model string, success bool, errorType string, duration time.Duration)

	// ObserveToolCall records a completed tool dispatch.
	ObserveToolCall(tool string, success bool, duration time.Duration)

	// IncCacheHit increments the cache hit counter for an operation kind
	// ("llm" or "retriever").
	IncCacheHit(operation string)

	// IncCacheMiss increments the cache miss counter for an operation kind.
	IncCacheMiss(operation string)

	// IncRetry increments the retry counter for an operation kind.
	IncRetry(operation string)

	// ObserveRun records a finished run with its exit reason and loop counters.
	ObserveRun(exitReason string, turns, toolCalls int, duration time.Duration)
}

// NoopRecorder implements Recorder with no-op behavior for when metrics are disabled.
type NoopRecorder struct{}

// Nop returns a no-op metrics recorder that discards all metrics.
func Nop() Recorder {
	return &NoopRecorder{}
}

// ObserveModelCall does nothing in the no-op recorder.
func (n *NoopRecorder) ObserveModelCall(_ string, _ bool, _ string, _ time.Duration) {}

// ObserveToolCall does nothing in the no-op recorder.
func (n *NoopRecorder) ObserveToolCall(_ string, _ bool, _ time.Duration) {}

// IncCacheHit does nothing in the no-op recorder.
func (n *NoopRecorder) IncCacheHit(_ string) {}

// IncCacheMiss does nothing in the no-op recorder.
func (n *NoopRecorder) IncCacheMiss(_ string) {}

// IncRetry does nothing in the no-op recorder.
func (n *NoopRecorder) IncRetry(_ string) {}

// ObserveRun does nothing in the no-op recorder.
func (n *NoopRecorder) ObserveRun(_ string, _, _ int, _ time.Duration) {}
