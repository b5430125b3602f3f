// Package remote defines the per-identity key-value contract the note sync
// core talks to, and the signed-write rules every backend enforces.
package remote

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"time"
)

// Entry is a stored JSON document and its revision.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	Revision  uint64          `json:"revision"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Store is the two-operation contract used by the sync core.
//
// GetJSON returns an error matching apperr.ErrNotFound when no document is
// stored under key. Any other error is a failed read. SetJSON overwrites the
// document (last write wins) and returns the new revision.
type Store interface {
	GetJSON(ctx context.Context, pub ed25519.PublicKey, key string) (Entry, error)
	SetJSON(ctx context.Context, priv ed25519.PrivateKey, key string, value any) (uint64, error)
}

// Backend persists raw documents per owner. Owner is the hex-encoded public
// key. Backends never check signatures; callers authorize writes first.
type Backend interface {
	Get(ctx context.Context, owner, key string) (Entry, error)
	Put(ctx context.Context, owner, key string, data []byte) (uint64, error)
}
