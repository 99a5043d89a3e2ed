// Package core provides the foundational domain types and execution contexts
// shared across the docent runtime. It defines:
//
//   - Contents and parts (the units of conversation history)
//   - Events (the immutable typed stream published during a run)
//   - RunState (turn/tool-call accounting and the exit reason contract)
//   - RunContext / ToolContext (scoped execution for the loop and its tools)
//   - Pluggable stores for session state
//
// The package intentionally keeps implementation concerns (persistence,
// model adapters, the orchestration loop itself) out of scope, exposing
// small interfaces to enable custom backends and extensions.
package core
