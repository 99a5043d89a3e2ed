package core

import (
	"context"
)

type testLogger struct{}

func (l testLogger) Debug(string, ...interface{}) {}
func (l testLogger) Info(string, ...interface{})  {}
func (l testLogger) Warn(string, ...interface{})  {}
func (l testLogger) Error(string, ...interface{}) {}
func (l testLogger) Fatal(string, ...interface{}) {}

func newRunContextForTest() (*RunContext, chan Event) {
	emit := make(chan Event, 5)
	state := NewRunState()
	rc := NewRunContext(context.Background(), "sess-x", "run-x", NewUserContent("hi"), state, emit, testLogger{})
	return rc, emit
}
