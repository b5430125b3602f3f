// Package testutil provides shared test helpers for loggers and stores.
package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/starford/notetoself/internal/remote"
	"github.com/starford/notetoself/internal/remote/memstore"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

// Store returns an in-memory backend and the signed remote.Store on top of it.
// The backend is exposed so tests can inject faults and count calls.
func Store(t *testing.T) (*memstore.Store, remote.Store) {
	t.Helper()
	backend := memstore.New()
	return backend, remote.NewDirect(backend)
}
