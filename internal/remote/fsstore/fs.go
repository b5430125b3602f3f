// Package fsstore is a remote.Backend that keeps one JSON file per document
// under a root directory: <root>/<owner>/<base64url(key)>.json. Keys whose
// encoded name would exceed maxNameLen are stored as <hex(sha256(key))>.json
// and carry the key inside the file.
package fsstore

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/starford/notetoself/internal/apperr"
	"github.com/starford/notetoself/internal/remote"
)

// FS implements remote.Backend backed by the local file system.
type FS struct {
	root string // absolute path to the data directory

	mu sync.Mutex // serializes read-modify-write of revisions
}

// NewFS creates a new FS backend rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("fsstore: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("fsstore: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fsstore: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

var _ remote.Backend = (*FS)(nil)

// maxNameLen is NAME_MAX on common Linux and macOS file systems.
const maxNameLen = 255

// fileEntry is the on-disk envelope. Key is set only for hashed file names.
type fileEntry struct {
	Key string `json:"key,omitempty"`
	remote.Entry
}

// entryPath maps owner/key to a file below root. Owners must be hex and keys
// are base64url encoded or hashed, so no input can escape the root.
// hashed reports whether the name was derived from sha256(key).
func (f *FS) entryPath(owner, key string) (p string, hashed bool, err error) {
	if owner == "" {
		return "", false, fmt.Errorf("fsstore: empty owner: %w", apperr.ErrInvalid)
	}
	if _, err := hex.DecodeString(owner); err != nil {
		return "", false, fmt.Errorf("fsstore: owner is not hex: %w", apperr.ErrInvalid)
	}
	name := base64.RawURLEncoding.EncodeToString([]byte(key)) + ".json"
	if len(name) > maxNameLen {
		sum := sha256.Sum256([]byte(key))
		name = hex.EncodeToString(sum[:]) + ".json"
		hashed = true
	}
	p = filepath.Join(f.root, strings.ToLower(owner), name)
	if !strings.HasPrefix(p, f.root+string(os.PathSeparator)) {
		return "", false, fmt.Errorf("fsstore: path escapes root: %w", apperr.ErrInvalid)
	}
	return p, hashed, nil
}

// Get reads the document for owner/key.
func (f *FS) Get(ctx context.Context, owner, key string) (remote.Entry, error) {
	if err := ctx.Err(); err != nil {
		return remote.Entry{}, err
	}
	p, _, err := f.entryPath(owner, key)
	if err != nil {
		return remote.Entry{}, err
	}
	return readEntry(p, key)
}

// Put atomically writes the document: tmp file → fsync → rename.
func (f *FS) Put(ctx context.Context, owner, key string, data []byte) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p, hashed, err := f.entryPath(owner, key)
	if err != nil {
		return 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var rev uint64 = 1
	prev, err := readEntry(p, key)
	switch {
	case err == nil:
		rev = prev.Revision + 1
	case !errors.Is(err, apperr.ErrNotFound):
		return 0, err
	}

	fe := fileEntry{Entry: remote.Entry{
		Data:      json.RawMessage(data),
		Revision:  rev,
		UpdatedAt: time.Now().UTC(),
	}}
	if hashed {
		fe.Key = key
	}
	content, err := json.Marshal(fe)
	if err != nil {
		return 0, fmt.Errorf("fsstore: encode %q: %w", key, err)
	}
	if err := writeAtomic(p, content); err != nil {
		return 0, err
	}
	return rev, nil
}

func readEntry(p, key string) (remote.Entry, error) {
	raw, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return remote.Entry{}, fmt.Errorf("fsstore: read %q: %w", key, apperr.ErrNotFound)
		}
		return remote.Entry{}, fmt.Errorf("fsstore: read %q: %w", key, err)
	}
	var fe fileEntry
	if err := json.Unmarshal(raw, &fe); err != nil {
		return remote.Entry{}, fmt.Errorf("fsstore: decode %q: %w", key, err)
	}
	if fe.Key != "" && fe.Key != key {
		return remote.Entry{}, fmt.Errorf("fsstore: read %q: file holds another key: %w", key, apperr.ErrConflict)
	}
	return fe.Entry, nil
}

func writeAtomic(p string, content []byte) error {
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("fsstore: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".notetoself-tmp-*")
	if err != nil {
		return fmt.Errorf("fsstore: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("fsstore: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsstore: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("fsstore: close temp: %w", err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return fmt.Errorf("fsstore: rename: %w", err)
	}
	success = true
	return nil
}
