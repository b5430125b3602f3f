package remote

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"

	"github.com/starford/notetoself/internal/apperr"
	"github.com/starford/notetoself/internal/identity"
)

// SigningPayload is the message signed for a write of data under key.
func SigningPayload(key string, data []byte) []byte {
	msg := make([]byte, 0, len(key)+1+len(data))
	msg = append(msg, key...)
	msg = append(msg, 0)
	msg = append(msg, data...)
	return msg
}

// Sign signs a write with priv. It fails with apperr.ErrUnauthorized when
// priv is not a usable ed25519 private key.
func Sign(priv ed25519.PrivateKey, key string, data []byte) ([]byte, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("remote: private key has %d bytes: %w", len(priv), apperr.ErrUnauthorized)
	}
	return ed25519.Sign(priv, SigningPayload(key, data)), nil
}

// Authorize checks that sig is owner's signature of a write of data under key
// and that data is a JSON document.
func Authorize(owner, key string, data, sig []byte) error {
	pub, err := identity.ParsePublicKey(owner)
	if err != nil {
		return fmt.Errorf("remote: %v: %w", err, apperr.ErrUnauthorized)
	}
	if !identity.Verify(pub, SigningPayload(key, data), sig) {
		return fmt.Errorf("remote: bad signature for %q: %w", key, apperr.ErrUnauthorized)
	}
	if !json.Valid(data) {
		return fmt.Errorf("remote: document for %q is not JSON: %w", key, apperr.ErrInvalid)
	}
	return nil
}
