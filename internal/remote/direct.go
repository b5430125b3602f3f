package remote

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/starford/notetoself/internal/apperr"
)

// Direct adapts a Backend to Store in-process. Writes are signed and then
// verified exactly as the registry server does it.
type Direct struct {
	backend Backend
}

// NewDirect wraps backend.
func NewDirect(backend Backend) *Direct {
	return &Direct{backend: backend}
}

var _ Store = (*Direct)(nil)

// GetJSON reads the document stored for pub under key.
func (d *Direct) GetJSON(ctx context.Context, pub ed25519.PublicKey, key string) (Entry, error) {
	if len(pub) != ed25519.PublicKeySize {
		return Entry{}, fmt.Errorf("remote: public key has %d bytes: %w", len(pub), apperr.ErrInvalid)
	}
	return d.backend.Get(ctx, hex.EncodeToString(pub), key)
}

// SetJSON marshals value, signs it with priv and stores it under key.
func (d *Direct) SetJSON(ctx context.Context, priv ed25519.PrivateKey, key string, value any) (uint64, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return 0, fmt.Errorf("remote: encode %q: %w", key, err)
	}
	sig, err := Sign(priv, key, data)
	if err != nil {
		return 0, err
	}
	owner := hex.EncodeToString(priv.Public().(ed25519.PublicKey))
	if err := Authorize(owner, key, data, sig); err != nil {
		return 0, err
	}
	return d.backend.Put(ctx, owner, key, data)
}
