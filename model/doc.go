// Package model defines the provider‑agnostic abstractions and concrete
// helpers for interacting with language / reasoning models inside docent.
//
// Core goals:
//   - Unify streaming + non‑streaming generation behind a single interface
//   - Normalize tool / function call representation (ToolDefinition)
//   - Keep request/response shapes minimal and transport independent
//   - Classify provider failures (Error) so the loop can map them to exit reasons
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (Gemini, OpenAI, Anthropic) implement the Model interface from
// this package so the orchestration loop remains decoupled from vendor SDKs.
// Cross-cutting concerns (logging, metrics) wrap any Model via Middleware.
package model
