// Package checksum fingerprints documents for HTTP caching headers and draft
// change detection.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag returns Sum(data) as a quoted entity tag.
func ETag(data []byte) string {
	return strconv.Quote(Sum(data))
}
