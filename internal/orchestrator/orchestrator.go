// Package orchestrator runs the login, open and save flows of a session
// against a notes.Repository.
//
// Every flow takes the current session.State and returns a Transition with
// the state that replaces it. Remote calls within a flow are sequential and
// failures never abort the session: they are recorded on the state and the
// flow returns to Idle.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/notetoself/internal/apperr"
	"github.com/starford/notetoself/internal/identity"
	"github.com/starford/notetoself/internal/notes"
	"github.com/starford/notetoself/internal/session"
)

// ErrNotLoggedIn is recorded when open or save run before login.
var ErrNotLoggedIn = fmt.Errorf("not logged in: %w", apperr.ErrUnauthorized)

// Orchestrator drives session flows. It holds no session state of its own and
// is safe for concurrent use.
type Orchestrator struct {
	repo          *notes.Repository
	logger        *slog.Logger
	now           func() time.Time
	observe       func(session.State)
	successWindow time.Duration
}

// New creates an orchestrator on top of repo.
func New(repo *notes.Repository, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		repo:          repo,
		logger:        logger,
		now:           time.Now,
		observe:       func(session.State) {},
		successWindow: DefaultSuccessWindow,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// flow accumulates the effects of one transition.
type flow struct {
	effects []session.Effect
}

func (f *flow) record(op, key string, outcome session.Outcome) {
	f.effects = append(f.effects, session.Effect{Op: op, Key: key, Outcome: outcome})
}

func (f *flow) done(st session.State) session.Transition {
	return session.Transition{State: st.WithStatus(session.Idle).WithBusy(false), Effects: f.effects}
}

// Login derives the identity for passphrase and loads its index. It always
// ends authenticated, with an empty index when none could be read. The
// result is a new session: nothing carries over from st.
func (o *Orchestrator) Login(ctx context.Context, passphrase string) session.Transition {
	var f flow
	id := identity.Derive(passphrase)

	st := session.New().
		WithIdentity(id).
		WithStatus(session.Authenticating).
		WithBusy(true)
	o.observe(st)

	idx, err := o.repo.LoadIndex(ctx, id)
	f.record("get", notes.IndexKey, readOutcome(err))
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		st = st.WithError(&session.FlowError{
			Kind: session.KindRemoteRead,
			Op:   "load index",
			Key:  notes.IndexKey,
			Err:  err,
		})
	}
	st = st.WithIndex(idx)

	o.logger.Info("orchestrator: logged in",
		slog.String("session", st.ID().String()),
		slog.String("public_key", id.PublicKeyHex()),
		slog.Int("titles", idx.Len()))
	return f.done(st)
}

// Open loads the note stored under title into the session. A missing note
// clears the current note; a failed read clears it and records the error.
// The index is not touched.
func (o *Orchestrator) Open(ctx context.Context, st session.State, title string) session.Transition {
	var f flow
	id, ok := st.Identity()
	if !ok {
		return f.done(notLoggedIn(st, "load note", title))
	}

	st = st.WithBusy(true)
	o.observe(st)

	n, err := o.repo.LoadNote(ctx, id, title)
	f.record("get", title, readOutcome(err))
	switch {
	case err == nil:
		st = st.WithNote(n)
	case errors.Is(err, apperr.ErrNotFound):
		st = st.WithoutNote()
	default:
		st = st.WithoutNote().WithError(&session.FlowError{
			Kind: session.KindRemoteRead,
			Op:   "load note",
			Key:  title,
			Err:  err,
		})
	}
	return f.done(st)
}

// Save writes the note, then re-reads the index, appends title and writes
// the index back. A failed note write skips the index. A failed index read
// leaves the stored index alone rather than overwrite it with a partial one.
// Only a save where every call succeeds clears the recorded errors and sets
// the success flag.
func (o *Orchestrator) Save(ctx context.Context, st session.State, title, body string) session.Transition {
	var f flow
	id, ok := st.Identity()
	if !ok {
		return f.done(notLoggedIn(st, "save note", title))
	}
	log := o.logger.With(slog.String("session", st.ID().String()), slog.String("title", title))

	st = st.WithStatus(session.Saving).WithBusy(true).WithoutSuccess()
	o.observe(st)

	if err := o.repo.SaveNote(ctx, id, title, body); err != nil {
		kind := session.KindRemoteWrite
		outcome := session.OutcomeFailed
		if errors.Is(err, apperr.ErrInvalid) {
			kind = session.KindInvalidInput
			outcome = session.OutcomeRejected
		}
		f.record("set", title, outcome)
		log.Warn("orchestrator: save failed", slog.String("error", err.Error()))
		return f.done(st.WithError(&session.FlowError{Kind: kind, Op: "save note", Key: title, Err: err}))
	}
	f.record("set", title, session.OutcomeOK)
	st = st.WithNote(notes.Note{Title: title, Body: body})

	st = st.WithStatus(session.IndexMerging)
	o.observe(st)

	remoteIdx, err := o.repo.LoadIndex(ctx, id)
	f.record("get", notes.IndexKey, readOutcome(err))
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		log.Warn("orchestrator: index not updated", slog.String("error", err.Error()))
		return f.done(st.WithIndexStale(true).WithError(&session.FlowError{
			Kind: session.KindRemoteRead,
			Op:   "load index",
			Key:  notes.IndexKey,
			Err:  err,
		}))
	}
	merged := remoteIdx.Append(title)

	st = st.WithStatus(session.IndexPersisting)
	o.observe(st)

	if err := o.repo.PersistIndex(ctx, id, merged); err != nil {
		f.record("set", notes.IndexKey, session.OutcomeFailed)
		log.Warn("orchestrator: index not updated", slog.String("error", err.Error()))
		return f.done(st.WithIndex(remoteIdx).WithIndexStale(true).WithError(&session.FlowError{
			Kind: session.KindRemoteWrite,
			Op:   "persist index",
			Key:  notes.IndexKey,
			Err:  err,
		}))
	}
	f.record("set", notes.IndexKey, session.OutcomeOK)

	log.Info("orchestrator: note saved", slog.Int("titles", merged.Len()))
	return f.done(st.
		WithIndex(merged).
		WithIndexStale(false).
		WithoutErrors().
		WithSuccess(o.now().Add(o.successWindow)))
}

func notLoggedIn(st session.State, op, key string) session.State {
	return st.WithError(&session.FlowError{
		Kind: session.KindInvalidInput,
		Op:   op,
		Key:  key,
		Err:  ErrNotLoggedIn,
	})
}

func readOutcome(err error) session.Outcome {
	switch {
	case err == nil:
		return session.OutcomeFound
	case errors.Is(err, apperr.ErrNotFound):
		return session.OutcomeNotFound
	}
	return session.OutcomeFailed
}
