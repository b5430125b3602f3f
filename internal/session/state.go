// Package session holds the immutable snapshot of one client session and the
// holder that publishes snapshots as they replace each other.
package session

import (
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/starford/notetoself/internal/identity"
	"github.com/starford/notetoself/internal/notes"
)

// State is a session snapshot. Every With method returns a modified copy;
// a State is never changed after it has been handed out.
type State struct {
	id           uuid.UUID
	identity     *identity.Identity
	status       Status
	index        notes.Index
	note         *notes.Note
	errs         []*FlowError
	successUntil time.Time
	indexStale   bool
	busy         bool
}

// New returns an unauthenticated idle session.
func New() State {
	return State{id: uuid.New()}
}

// ID identifies the session in logs.
func (s State) ID() uuid.UUID { return s.id }

// Identity returns the session's identity, if logged in.
func (s State) Identity() (identity.Identity, bool) {
	if s.identity == nil {
		return identity.Identity{}, false
	}
	return *s.identity, true
}

// Authenticated reports whether a passphrase has been entered.
func (s State) Authenticated() bool { return s.identity != nil }

func (s State) Status() Status { return s.status }

func (s State) Index() notes.Index { return s.index }

// CurrentNote returns the note being viewed or edited.
func (s State) CurrentNote() (notes.Note, bool) {
	if s.note == nil {
		return notes.Note{}, false
	}
	return *s.note, true
}

// Errors returns the recorded errors, oldest first.
func (s State) Errors() []*FlowError { return slices.Clone(s.errs) }

// Err joins the recorded errors, or returns nil when there are none.
func (s State) Err() error {
	if len(s.errs) == 0 {
		return nil
	}
	errs := make([]error, len(s.errs))
	for i, e := range s.errs {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// ErrorText is the display form of the recorded errors.
func (s State) ErrorText() string { return JoinErrors(s.errs) }

// Succeeded reports whether the "saved" flag is still showing at now.
func (s State) Succeeded(now time.Time) bool {
	return !s.successUntil.IsZero() && now.Before(s.successUntil)
}

// SuccessUntil is when the "saved" flag expires; zero when not set.
func (s State) SuccessUntil() time.Time { return s.successUntil }

// IndexStale reports that the last save stored the note but could not update
// the index.
func (s State) IndexStale() bool { return s.indexStale }

// Busy is the advisory flag set while a flow is running. Nothing enforces it.
func (s State) Busy() bool { return s.busy }

func (s State) WithIdentity(id identity.Identity) State {
	s.identity = &id
	return s
}

func (s State) WithStatus(st Status) State {
	s.status = st
	return s
}

func (s State) WithIndex(idx notes.Index) State {
	s.index = idx
	return s
}

func (s State) WithNote(n notes.Note) State {
	s.note = &n
	return s
}

func (s State) WithoutNote() State {
	s.note = nil
	return s
}

// WithError appends err after the errors already recorded.
func (s State) WithError(err *FlowError) State {
	errs := make([]*FlowError, len(s.errs), len(s.errs)+1)
	copy(errs, s.errs)
	s.errs = append(errs, err)
	return s
}

func (s State) WithoutErrors() State {
	s.errs = nil
	return s
}

func (s State) WithSuccess(until time.Time) State {
	s.successUntil = until
	return s
}

func (s State) WithoutSuccess() State {
	s.successUntil = time.Time{}
	return s
}

func (s State) WithIndexStale(stale bool) State {
	s.indexStale = stale
	return s
}

func (s State) WithBusy(busy bool) State {
	s.busy = busy
	return s
}
