// Package notes persists note records and the per-identity title index in a
// remote.Store.
//
// The index is a convenience listing, not a source of truth: it can lag
// behind the records when an index write fails after a record write
// succeeded, and two sessions persisting it concurrently can lose a title.
package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/notetoself/internal/apperr"
	"github.com/starford/notetoself/internal/identity"
	"github.com/starford/notetoself/internal/remote"
)

// IndexKey is the fixed key the title index is stored under.
const IndexKey = "notes.json"

// ErrReservedTitle is returned when a note would overwrite the index document.
var ErrReservedTitle = fmt.Errorf("title %q is reserved for the note index: %w", IndexKey, apperr.ErrInvalid)

// Note is the body stored for one title.
type Note struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type indexDocument struct {
	Notes []string `json:"notes"`
}

type noteDocument struct {
	NoteBody string `json:"noteBody"`
}

// Repository reads and writes notes and the index for any identity.
type Repository struct {
	store  remote.Store
	logger *slog.Logger
}

// NewRepository creates a repository on top of store.
func NewRepository(store remote.Store, logger *slog.Logger) *Repository {
	return &Repository{store: store, logger: logger}
}

// LoadIndex fetches the identity's index. It always returns a usable index,
// empty when nothing could be read. The error is nil when the index was
// found, matches apperr.ErrNotFound when none is stored, and describes the
// failure otherwise.
func (r *Repository) LoadIndex(ctx context.Context, id identity.Identity) (Index, error) {
	e, err := r.store.GetJSON(ctx, id.PublicKey, IndexKey)
	if err != nil {
		r.logFailure("load index", IndexKey, err)
		return Index{}, fmt.Errorf("load index: %w", err)
	}
	var doc indexDocument
	if err := json.Unmarshal(e.Data, &doc); err != nil {
		r.logger.Warn("notes: undecodable index", slog.String("error", err.Error()))
		return Index{}, fmt.Errorf("load index: decode: %w", err)
	}
	idx := NewIndex(doc.Notes...)
	r.logger.Debug("notes: index loaded",
		slog.Int("titles", idx.Len()),
		slog.Uint64("revision", e.Revision))
	return idx, nil
}

// PersistIndex overwrites the identity's index with idx.
func (r *Repository) PersistIndex(ctx context.Context, id identity.Identity, idx Index) error {
	rev, err := r.store.SetJSON(ctx, id.PrivateKey, IndexKey, indexDocument{Notes: idx.Titles()})
	if err != nil {
		r.logFailure("persist index", IndexKey, err)
		return fmt.Errorf("persist index: %w", err)
	}
	r.logger.Debug("notes: index persisted",
		slog.Int("titles", idx.Len()),
		slog.Uint64("revision", rev))
	return nil
}

// LoadNote fetches the note stored under title. The error follows the same
// convention as LoadIndex.
func (r *Repository) LoadNote(ctx context.Context, id identity.Identity, title string) (Note, error) {
	e, err := r.store.GetJSON(ctx, id.PublicKey, title)
	if err != nil {
		r.logFailure("load note", title, err)
		return Note{}, fmt.Errorf("load note %q: %w", title, err)
	}
	var doc noteDocument
	if err := json.Unmarshal(e.Data, &doc); err != nil {
		return Note{}, fmt.Errorf("load note %q: decode: %w", title, err)
	}
	return Note{Title: title, Body: doc.NoteBody}, nil
}

// SaveNote overwrites the note stored under title.
func (r *Repository) SaveNote(ctx context.Context, id identity.Identity, title, body string) error {
	if title == IndexKey {
		return ErrReservedTitle
	}
	rev, err := r.store.SetJSON(ctx, id.PrivateKey, title, noteDocument{NoteBody: body})
	if err != nil {
		r.logFailure("save note", title, err)
		return fmt.Errorf("save note %q: %w", title, err)
	}
	r.logger.Debug("notes: note saved",
		slog.String("title", title),
		slog.Uint64("revision", rev))
	return nil
}

func (r *Repository) logFailure(op, key string, err error) {
	if errors.Is(err, apperr.ErrNotFound) {
		r.logger.Debug("notes: "+op+": not found", slog.String("key", key))
		return
	}
	r.logger.Warn("notes: "+op+" failed", slog.String("key", key), slog.String("error", err.Error()))
}
