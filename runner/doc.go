// Package runner hosts the per-run lifecycle around the orchestration loop:
// it seeds run state from the session history, executes the agent in a
// goroutine, persists completed messages back to the session store and hands
// the caller the ordered event stream plus a cancellation handle.
package runner
