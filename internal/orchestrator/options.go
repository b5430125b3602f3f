package orchestrator

import (
	"time"

	"github.com/starford/notetoself/internal/session"
)

// DefaultSuccessWindow is how long the "saved" flag stays set.
const DefaultSuccessWindow = 5 * time.Second

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithObserver receives every intermediate state of a flow. The final state
// is returned in the Transition, not observed.
func WithObserver(fn func(session.State)) Option {
	return func(o *Orchestrator) {
		o.observe = fn
	}
}

// WithSuccessWindow overrides DefaultSuccessWindow. Non-positive values are
// ignored.
func WithSuccessWindow(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.successWindow = d
		}
	}
}
