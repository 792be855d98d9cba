package seal

import "time"

// Debounce defaults, matching the tuning of the reference setup.
const (
	DefaultMinConfidence = 0.6
	DefaultHoldFrames    = 5
	DefaultGracePeriod   = 500 * time.Millisecond
)

// DebounceConfig holds the tunable thresholds for the debouncer.
type DebounceConfig struct {
	// MinConfidence is the acceptance threshold; classifications below it
	// are treated as None for that frame.
	MinConfidence float64
	// HoldFrames is the number of consecutive agreeing frames required
	// before a label is trusted.
	HoldFrames int
	// GracePeriod is how long a stable seal survives None frames before
	// the debouncer drops back to idle.
	GracePeriod time.Duration
}

type debounceState int

const (
	stateIdle debounceState = iota
	stateCandidate
	stateStable
)

// Debouncer smooths per-frame classifier output into a stable "current
// seal" signal. Event emission is edge-triggered: a held pose produces
// exactly one Event, however many frames it lasts.
//
// Not safe for concurrent use; the pipeline feeds it from a single
// goroutine.
type Debouncer struct {
	cfg       DebounceConfig
	state     debounceState
	label     Label
	streak    int
	noneSince time.Time
}

// NewDebouncer creates a Debouncer, filling zero config fields with
// defaults.
func NewDebouncer(cfg DebounceConfig) *Debouncer {
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = DefaultMinConfidence
	}
	if cfg.HoldFrames <= 0 {
		cfg.HoldFrames = DefaultHoldFrames
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}
	return &Debouncer{cfg: cfg}
}

// Update consumes one frame's classification and returns a stable seal
// event when a new label is confirmed, or nil otherwise.
func (d *Debouncer) Update(label Label, confidence float64, now time.Time) *Event {
	if confidence < d.cfg.MinConfidence {
		label = None
	}

	if label == None {
		switch d.state {
		case stateCandidate:
			// A broken streak abandons the candidate.
			d.toIdle()
		case stateStable:
			if d.noneSince.IsZero() {
				d.noneSince = now
			} else if now.Sub(d.noneSince) >= d.cfg.GracePeriod {
				d.toIdle()
			}
		}
		return nil
	}

	switch d.state {
	case stateStable:
		if label == d.label {
			// Held pose: level, not edge. Clear any pending decay.
			d.noneSince = time.Time{}
			return nil
		}
		fallthrough
	case stateIdle:
		d.state = stateCandidate
		d.label = label
		d.streak = 1
	case stateCandidate:
		if label == d.label {
			d.streak++
		} else {
			d.label = label
			d.streak = 1
		}
	}

	if d.state == stateCandidate && d.streak >= d.cfg.HoldFrames {
		d.state = stateStable
		d.noneSince = time.Time{}
		return &Event{Label: d.label, Timestamp: now}
	}
	return nil
}

// Current returns the stable seal, or None when no seal is stable.
func (d *Debouncer) Current() Label {
	if d.state == stateStable {
		return d.label
	}
	return None
}

// Reset clears all debouncer state back to idle.
func (d *Debouncer) Reset() {
	d.toIdle()
}

func (d *Debouncer) toIdle() {
	d.state = stateIdle
	d.label = None
	d.streak = 0
	d.noneSince = time.Time{}
}
