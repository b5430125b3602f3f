// Package client owns one notebook session: it runs orchestrator flows and
// publishes each resulting state through a session.Holder.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/notetoself/internal/apperr"
	"github.com/starford/notetoself/internal/notes"
	"github.com/starford/notetoself/internal/orchestrator"
	"github.com/starford/notetoself/internal/remote"
	"github.com/starford/notetoself/internal/session"
)

// ErrIndexNotUpdated is returned by SaveDraft when the note was stored but
// the index could not be updated.
var ErrIndexNotUpdated = errors.New("note saved, index not updated")

// Client is a logged-in (or not yet logged-in) notebook session.
type Client struct {
	holder *session.Holder
	orch   *orchestrator.Orchestrator
	logger *slog.Logger

	// flows serialises flows started through this client. The busy flag on
	// the state stays advisory for other holders of the same session.
	flows sync.Mutex
}

// New creates a client on top of store. Options are passed to the
// orchestrator; its observer is always the client's holder.
func New(store remote.Store, logger *slog.Logger, opts ...orchestrator.Option) *Client {
	holder := session.NewHolder(session.New())
	opts = append(opts, orchestrator.WithObserver(holder.Store))
	return &Client{
		holder: holder,
		orch:   orchestrator.New(notes.NewRepository(store, logger), logger, opts...),
		logger: logger,
	}
}

// State returns the current session snapshot.
func (c *Client) State() session.State {
	return c.holder.Load()
}

// Subscribe calls fn with every new session snapshot.
func (c *Client) Subscribe(fn func(session.State)) {
	c.holder.Subscribe(fn)
}

// Login replaces the session with a new one for passphrase.
func (c *Client) Login(ctx context.Context, passphrase string) session.Transition {
	return c.run(func(session.State) session.Transition {
		return c.orch.Login(ctx, passphrase)
	})
}

// Open loads title into the session.
func (c *Client) Open(ctx context.Context, title string) session.Transition {
	return c.run(func(st session.State) session.Transition {
		return c.orch.Open(ctx, st, title)
	})
}

// Save stores title and body and adds title to the index.
func (c *Client) Save(ctx context.Context, title, body string) session.Transition {
	return c.run(func(st session.State) session.Transition {
		return c.orch.Save(ctx, st, title, body)
	})
}

// SaveDraft runs Save and reports the outcome of this call as an error, so
// the client can serve as a drafts.SaveFunc.
func (c *Client) SaveDraft(ctx context.Context, title, body string) error {
	return SaveError(c.Save(ctx, title, body))
}

func (c *Client) run(fn func(session.State) session.Transition) session.Transition {
	c.flows.Lock()
	defer c.flows.Unlock()

	tr := fn(c.holder.Load())
	c.holder.Store(tr.State)
	return tr
}

// SaveError describes how a save transition ended: nil when every call
// succeeded, ErrIndexNotUpdated wrapping the cause when only the index step
// failed, and the recorded cause when the note itself was not stored.
func SaveError(tr session.Transition) error {
	if len(tr.Effects) == 0 || failed(tr.Effects[0]) {
		return lastError(tr.State)
	}
	for _, e := range tr.Effects[1:] {
		if failed(e) {
			return fmt.Errorf("%w: %w", ErrIndexNotUpdated, lastError(tr.State))
		}
	}
	return nil
}

// OpenError describes how an open transition ended: nil when the note was
// found, an error wrapping apperr.ErrNotFound when it does not exist, and
// the recorded cause otherwise.
func OpenError(tr session.Transition, title string) error {
	if len(tr.Effects) == 0 {
		return lastError(tr.State)
	}
	switch tr.Effects[0].Outcome {
	case session.OutcomeFound:
		return nil
	case session.OutcomeNotFound:
		return fmt.Errorf("note %q: %w", title, apperr.ErrNotFound)
	}
	return lastError(tr.State)
}

func failed(e session.Effect) bool {
	return e.Outcome == session.OutcomeFailed || e.Outcome == session.OutcomeRejected
}

func lastError(st session.State) error {
	errs := st.Errors()
	if len(errs) == 0 {
		return errors.New("unknown failure")
	}
	return errs[len(errs)-1]
}
