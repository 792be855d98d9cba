package jutsu

import (
	"time"

	"github.com/takeru/kujiin/internal/seal"
)

// Tracker is the per-jutsu automaton. Its index counts how many seals of
// the sequence have been performed; index 0 means "not started" and
// reaching len(Seals) completes the jutsu and resets to 0.
//
// Timeouts are evaluated lazily against event timestamps when the next
// event arrives; there are no background timers.
type Tracker struct {
	def         Definition
	timeout     time.Duration
	index       int
	lastAdvance time.Time
}

func newTracker(def Definition, defaultTimeout time.Duration) *Tracker {
	timeout := def.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Tracker{def: def, timeout: timeout}
}

// Definition returns the jutsu this tracker advances through.
func (t *Tracker) Definition() Definition {
	return t.def
}

// Index returns the next-expected seal index, in [0, len(Seals)).
func (t *Tracker) Index() int {
	return t.index
}

// Advance feeds one stable seal event and reports whether the sequence
// completed on this event.
func (t *Tracker) Advance(ev seal.Event) bool {
	if t.index > 0 && t.timeout > 0 && ev.Timestamp.Sub(t.lastAdvance) > t.timeout {
		t.index = 0
	}

	switch {
	case ev.Label == t.def.Seals[t.index]:
		t.index++
		t.lastAdvance = ev.Timestamp
		if t.index == len(t.def.Seals) {
			t.index = 0
			return true
		}
	case t.index > 0 && ev.Label == t.def.Seals[0]:
		// The opening seal arriving mid-sequence starts a fresh attempt
		// at step 1 instead of discarding it entirely.
		t.index = 1
		t.lastAdvance = ev.Timestamp
	default:
		t.index = 0
	}
	return false
}

// Reset discards any partial progress.
func (t *Tracker) Reset() {
	t.index = 0
	t.lastAdvance = time.Time{}
}
