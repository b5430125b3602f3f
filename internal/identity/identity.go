// Package identity derives the keypair that stands in for a user account.
//
// There is no server-side credential: whoever knows the passphrase owns the
// identity. An empty or short passphrase is accepted and yields a trivially
// guessable keypair.
package identity

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	seedIterations = 1000
	seedLength     = ed25519.SeedSize
)

// Identity is an ed25519 keypair derived from a passphrase.
type Identity struct {
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
}

// Derive maps a passphrase to its identity. Identical passphrases always
// produce identical identities.
func Derive(passphrase string) Identity {
	seed := pbkdf2.Key([]byte(passphrase), nil, seedIterations, seedLength, sha256.New)
	priv := ed25519.NewKeyFromSeed(seed)
	return Identity{
		PublicKey:  priv.Public().(ed25519.PublicKey),
		PrivateKey: priv,
	}
}

// PublicKeyHex returns the hex encoding used to address the identity's namespace.
func (id Identity) PublicKeyHex() string {
	return hex.EncodeToString(id.PublicKey)
}

// Equal reports whether both identities hold the same keypair.
func (id Identity) Equal(other Identity) bool {
	return id.PublicKey.Equal(other.PublicKey) && id.PrivateKey.Equal(other.PrivateKey)
}

// Sign signs msg with the identity's private key.
func (id Identity) Sign(msg []byte) []byte {
	return ed25519.Sign(id.PrivateKey, msg)
}

// Verify reports whether sig is a valid signature of msg by pub.
func Verify(pub ed25519.PublicKey, msg, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, msg, sig)
}

// ParsePublicKey decodes a hex-encoded public key.
func ParsePublicKey(s string) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("identity: decode public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("identity: public key has %d bytes, want %d", len(raw), ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(raw), nil
}
