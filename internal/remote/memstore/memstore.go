// Package memstore is an in-memory remote.Backend. It backs the "memory"
// registry backend and lets tests inject per-key failures.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/starford/notetoself/internal/apperr"
	"github.com/starford/notetoself/internal/remote"
)

type slot struct {
	owner string
	key   string
}

// Store keeps documents in a map guarded by a mutex.
type Store struct {
	mu       sync.Mutex
	entries  map[slot]remote.Entry
	getFault map[string]error
	putFault map[string]error
	gets     map[string]int
	puts     map[string]int
}

// New returns an empty store.
func New() *Store {
	return &Store{
		entries:  make(map[slot]remote.Entry),
		getFault: make(map[string]error),
		putFault: make(map[string]error),
		gets:     make(map[string]int),
		puts:     make(map[string]int),
	}
}

var _ remote.Backend = (*Store)(nil)

// Get returns the document for owner/key.
func (s *Store) Get(ctx context.Context, owner, key string) (remote.Entry, error) {
	if err := ctx.Err(); err != nil {
		return remote.Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gets[key]++
	if err := s.fault(s.getFault, key); err != nil {
		return remote.Entry{}, fmt.Errorf("memstore: get %q: %w", key, err)
	}
	e, ok := s.entries[slot{owner, key}]
	if !ok {
		return remote.Entry{}, fmt.Errorf("memstore: get %q: %w", key, apperr.ErrNotFound)
	}
	e.Data = append([]byte(nil), e.Data...)
	return e, nil
}

// Put overwrites the document for owner/key and bumps its revision.
func (s *Store) Put(ctx context.Context, owner, key string, data []byte) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.puts[key]++
	if err := s.fault(s.putFault, key); err != nil {
		return 0, fmt.Errorf("memstore: put %q: %w", key, err)
	}
	k := slot{owner, key}
	rev := s.entries[k].Revision + 1
	s.entries[k] = remote.Entry{
		Data:      append([]byte(nil), data...),
		Revision:  rev,
		UpdatedAt: time.Now().UTC(),
	}
	return rev, nil
}

// FailGet makes every read of key fail with err. An empty key matches all
// keys. A nil err removes the fault.
func (s *Store) FailGet(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	setFault(s.getFault, key, err)
}

// FailPut makes every write of key fail with err. An empty key matches all
// keys. A nil err removes the fault.
func (s *Store) FailPut(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	setFault(s.putFault, key, err)
}

// Gets returns how many reads of key were attempted.
func (s *Store) Gets(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets[key]
}

// Puts returns how many writes of key were attempted.
func (s *Store) Puts(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts[key]
}

func (s *Store) fault(faults map[string]error, key string) error {
	if err, ok := faults[key]; ok {
		return err
	}
	return faults[""]
}

func setFault(faults map[string]error, key string, err error) {
	if err == nil {
		delete(faults, key)
		return
	}
	faults[key] = err
}
