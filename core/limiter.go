package core

import (
	"fmt"
	"sync"
)

// ModelLimiter is a hard backstop on model invocations within one run. The
// loop's turn limit terminates runs gracefully long before this trips; the
// limiter guarantees a bookkeeping bug can never become unbounded spend.
type ModelLimiter struct {
	mu    sync.Mutex
	max   int
	count int
}

// NewModelLimiter returns a limiter allowing at most max model calls. A max
// of 0 disables the limit.
func NewModelLimiter(max int) *ModelLimiter {
	return &ModelLimiter{max: max}
}

// Increment records one model call, failing once the budget is exhausted.
func (ml *ModelLimiter) Increment() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	ml.count++
	if ml.max > 0 && ml.count > ml.max {
		return fmt.Errorf("model call backstop exceeded (%d calls, limit %d)", ml.count, ml.max)
	}

	return nil
}

// Count reports the number of model calls recorded so far.
func (ml *ModelLimiter) Count() int {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	return ml.count
}
