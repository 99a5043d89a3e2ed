// Package logging provides a minimal logging interface and adapters for docent.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the runner, agent and tool layers use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - ZerologAdapter wrapping rs/zerolog for console and JSON output
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewZerologLogger(logging.LogLevelInfo, false)
//	r := runner.New(agent, sessionStore, runner.WithLogger(logger))
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
