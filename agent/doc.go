// Package agent implements the orchestration loop that drives a run to a
// single terminal exit reason. The loop alternates model invocations and tool
// dispatches, trims conversation history before every model call, deduplicates
// backend work through the cache and bounds every failure mode: turn and
// tool-call limits, retry budgets, the context-size budget and a one-shot
// re-invoke for empty model output.
//
// One Agent instance serves many concurrent runs; all per-run state lives in
// the core.RunState threaded through core.RunContext.
package agent
