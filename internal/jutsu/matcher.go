package jutsu

import (
	"time"

	"github.com/google/uuid"

	"github.com/takeru/kujiin/internal/seal"
)

// DefaultTimeout is the fallback inter-seal timeout when neither the
// matcher options nor the definition supply one.
const DefaultTimeout = 5 * time.Second

// Completion reports one jutsu reaching full length.
type Completion struct {
	ID        string     `json:"id"`
	Jutsu     Definition `json:"-"`
	Name      string     `json:"name"`
	Display   string     `json:"display"`
	Element   string     `json:"element"`
	Timestamp time.Time  `json:"timestamp"`
}

// Options tunes matcher-wide behavior.
type Options struct {
	// DefaultTimeout is the inter-seal timeout applied to definitions
	// without their own.
	DefaultTimeout time.Duration
	// SingleSealDelay holds completions of length-1 jutsu for this long,
	// cancelling them if another seal confirms meanwhile. Zero disables
	// the delay.
	SingleSealDelay time.Duration
}

type pendingCompletion struct {
	completion Completion
	since      time.Time
}

// Matcher owns one Tracker per registered definition and fans every
// stable seal event out to all of them unconditionally. Trackers are
// independent: a single seal can simultaneously be progress for several
// jutsu, and simultaneous completions are all reported, in registration
// order.
//
// Not safe for concurrent use; the pipeline drives it from a single
// goroutine.
type Matcher struct {
	trackers []*Tracker
	opts     Options
	pending  []pendingCompletion
}

// NewMatcher registers one tracker per definition. Definitions are
// validated; an empty seal sequence is a configuration error.
func NewMatcher(defs []Definition, opts Options) (*Matcher, error) {
	if err := ValidateDefinitions(defs); err != nil {
		return nil, err
	}
	if opts.DefaultTimeout == 0 {
		opts.DefaultTimeout = DefaultTimeout
	}

	m := &Matcher{opts: opts}
	for _, def := range defs {
		m.trackers = append(m.trackers, newTracker(def, opts.DefaultTimeout))
	}
	return m, nil
}

// Trackers returns the registered trackers in registration order.
func (m *Matcher) Trackers() []*Tracker {
	return m.trackers
}

// Dispatch feeds one stable seal event to every tracker and returns the
// completions it produced, in registration order. Any held single-seal
// completion whose delay has expired is released first; one that has not
// expired is cancelled, since the performer is evidently mid-way through
// a longer sequence.
func (m *Matcher) Dispatch(ev seal.Event) []Completion {
	done := m.releasePending(ev.Timestamp)
	m.pending = nil

	for _, t := range m.trackers {
		if !t.Advance(ev) {
			continue
		}
		c := newCompletion(t.def, ev.Timestamp)
		if m.opts.SingleSealDelay > 0 && len(t.def.Seals) == 1 {
			m.pending = append(m.pending, pendingCompletion{completion: c, since: ev.Timestamp})
		} else {
			done = append(done, c)
		}
	}
	return done
}

// Tick releases held single-seal completions whose delay has expired.
// Call it periodically (e.g. once per frame) so a lone seal still
// completes when no further events arrive.
func (m *Matcher) Tick(now time.Time) []Completion {
	return m.releasePending(now)
}

func (m *Matcher) releasePending(now time.Time) []Completion {
	var done []Completion
	var still []pendingCompletion
	for _, p := range m.pending {
		if now.Sub(p.since) >= m.opts.SingleSealDelay {
			done = append(done, p.completion)
		} else {
			still = append(still, p)
		}
	}
	m.pending = still
	return done
}

// Reset clears every tracker and any held completion immediately,
// regardless of timeout state. Resetting an already-idle matcher is a
// no-op.
func (m *Matcher) Reset() {
	for _, t := range m.trackers {
		t.Reset()
	}
	m.pending = nil
}

func newCompletion(def Definition, ts time.Time) Completion {
	return Completion{
		ID:        uuid.New().String(),
		Jutsu:     def,
		Name:      def.Name,
		Display:   def.Display,
		Element:   def.Element,
		Timestamp: ts,
	}
}
