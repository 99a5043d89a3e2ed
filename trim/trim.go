// Package trim enforces the context-size budget on conversation history
// before every model invocation. History is measured by a pluggable Sizer
// and cut from the oldest side so the newest exchange survives.
package trim

import (
	"github.com/hupe1980/docent/core"
)

// Sizer measures the size of a single history entry in budget units.
type Sizer interface {
	Size(c core.Content) int
}

// Trimmer drops the oldest history entries until the retained suffix fits
// the budget.
type Trimmer struct {
	budget int
	sizer  Sizer
}

// New creates a Trimmer with the given budget. A nil sizer falls back to
// character counting.
func New(budget int, sizer Sizer) *Trimmer {
	if sizer == nil {
		sizer = CharSizer{}
	}
	return &Trimmer{budget: budget, sizer: sizer}
}

// Budget returns the configured budget in sizer units.
func (t *Trimmer) Budget() int { return t.budget }

// Trim walks the history newest to oldest, accumulating entry sizes, and
// stops at the first entry that would push the total past the budget. The
// retained suffix is returned in chronological order together with a flag
// reporting whether anything was dropped. The newest entry itself is dropped
// when it alone exceeds the budget.
func (t *Trimmer) Trim(history []core.Content) ([]core.Content, bool) {
	total := 0
	cut := 0 // index of the oldest retained entry

	for i := len(history) - 1; i >= 0; i-- {
		size := t.sizer.Size(history[i])
		if total+size > t.budget {
			cut = i + 1
			break
		}
		total += size
	}

	kept := make([]core.Content, len(history)-cut)
	copy(kept, history[cut:])
	return kept, cut > 0
}
