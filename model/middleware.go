package model

import (
	"context"
	"time"

	"github.com/hupe1980/docent/logging"
	"github.com/hupe1980/docent/metrics"
)

// Middleware represents a function that wraps a Model with additional behavior.
// Middleware functions are composed using Chain() to create a processing pipeline.
type Middleware func(next Model) Model

// modelFunc is an adapter that allows plain functions to implement the Model interface.
type modelFunc struct {
	generate func(context.Context, Request) (<-chan Response, <-chan error)
	info     func() Info
}

func (f modelFunc) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	return f.generate(ctx, req)
}

// Info delegates to the wrapped function.
func (f modelFunc) Info() Info {
	return f.info()
}

// WrapModel creates a new Model using the provided function implementations.
// This is a helper for middleware implementations that need to wrap behavior.
func WrapModel(
	generate func(context.Context, Request) (<-chan Response, <-chan error),
	info func() Info,
) Model {
	return modelFunc{generate: generate, info: info}
}

// Chain composes multiple middlewares around a base Model.
// Middlewares are applied in order, with earlier middlewares being outermost.
//
// For example: Chain(base, mw1, mw2, mw3) creates the call stack:
//
//	mw1 -> mw2 -> mw3 -> base
func Chain(base Model, middlewares ...Middleware) Model {
	m := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		m = middlewares[i](m)
	}
	return m
}

// WithLogging returns a middleware that logs each generation attempt with its
// duration and outcome.
func WithLogging(logger logging.Logger) Middleware {
	return func(next Model) Model {
		return WrapModel(
			func(ctx context.Context, req Request) (<-chan Response, <-chan error) {
				start := time.Now()
				name := next.Info().Name
				logger.Debug("model call started", "model", name, "messages", len(req.Contents), "tools", len(req.Tools))

				respCh, errCh := next.Generate(ctx, req)

				out := make(chan Response, 32)
				errOut := make(chan error, 1)
				go func() {
					defer close(out)
					defer close(errOut)
					for respCh != nil || errCh != nil {
						select {
						case resp, ok := <-respCh:
							if !ok {
								respCh = nil
								continue
							}
							if !resp.Partial {
								logger.Debug("model call completed", "model", name, "finish_reason", resp.FinishReason, "duration", time.Since(start))
							}
							out <- resp
						case err, ok := <-errCh:
							if !ok {
								errCh = nil
								continue
							}
							logger.Warn("model call failed", "model", name, "error", err, "duration", time.Since(start))
							errOut <- err
						}
					}
				}()
				return out, errOut
			},
			next.Info,
		)
	}
}

// WithMetrics returns a middleware that records every generation attempt on
// the recorder. Retried attempts count individually; cache hits never reach
// the model and are therefore not recorded here.
func WithMetrics(recorder metrics.Recorder) Middleware {
	return func(next Model) Model {
		return WrapModel(
			func(ctx context.Context, req Request) (<-chan Response, <-chan error) {
				start := time.Now()
				name := next.Info().Name

				respCh, errCh := next.Generate(ctx, req)

				out := make(chan Response, 32)
				errOut := make(chan error, 1)
				go func() {
					defer close(out)
					defer close(errOut)
					for respCh != nil || errCh != nil {
						select {
						case resp, ok := <-respCh:
							if !ok {
								respCh = nil
								continue
							}
							if !resp.Partial {
								recorder.ObserveModelCall(name, true, "", time.Since(start))
							}
							out <- resp
						case err, ok := <-errCh:
							if !ok {
								errCh = nil
								continue
							}
							recorder.ObserveModelCall(name, false, TypeOf(err).String(), time.Since(start))
							errOut <- err
						}
					}
				}()
				return out, errOut
			},
			next.Info,
		)
	}
}
