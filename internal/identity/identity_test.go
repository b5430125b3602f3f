package identity

import (
	"crypto/ed25519"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerive_Deterministic(t *testing.T) {
	for _, pass := range []string{"alice", "", "correct horse battery staple", "ünïcødé"} {
		a := Derive(pass)
		b := Derive(pass)
		assert.True(t, a.Equal(b), "passphrase %q", pass)
		assert.Len(t, a.PublicKey, ed25519.PublicKeySize)
		assert.Len(t, a.PrivateKey, ed25519.PrivateKeySize)
	}
}

func TestDerive_DistinctPassphrases(t *testing.T) {
	seen := make(map[string]string)
	for _, pass := range []string{"alice", "Alice", "alice ", "bob", ""} {
		hex := Derive(pass).PublicKeyHex()
		if prev, ok := seen[hex]; ok {
			t.Fatalf("passphrases %q and %q derived the same key", prev, pass)
		}
		seen[hex] = pass
	}
}

func TestDerive_PublicKeyDoesNotContainPassphrase(t *testing.T) {
	id := Derive("alice")
	assert.NotContains(t, id.PublicKeyHex(), "616c696365") // hex("alice")
	assert.False(t, strings.Contains(string(id.PublicKey), "alice"))
}

func TestSignVerify(t *testing.T) {
	id := Derive("alice")
	msg := []byte("notes.json")
	sig := id.Sign(msg)

	assert.True(t, Verify(id.PublicKey, msg, sig))
	assert.False(t, Verify(id.PublicKey, []byte("other"), sig))
	assert.False(t, Verify(Derive("bob").PublicKey, msg, sig))
	assert.False(t, Verify(id.PublicKey, msg, sig[:10]))
}

func TestParsePublicKey(t *testing.T) {
	id := Derive("alice")

	pub, err := ParsePublicKey(id.PublicKeyHex())
	require.NoError(t, err)
	assert.True(t, pub.Equal(id.PublicKey))

	_, err = ParsePublicKey("zz")
	assert.Error(t, err)

	_, err = ParsePublicKey("abcd")
	assert.Error(t, err)
}
