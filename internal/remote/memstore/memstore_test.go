package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notetoself/internal/apperr"
)

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Get(ctx, "owner", "k")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	rev, err := s.Put(ctx, "owner", "k", []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rev)

	rev, err = s.Put(ctx, "owner", "k", []byte(`{"a":2}`))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), rev)

	e, err := s.Get(ctx, "owner", "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, string(e.Data))
	assert.Equal(t, uint64(2), e.Revision)

	_, err = s.Get(ctx, "other", "k")
	assert.ErrorIs(t, err, apperr.ErrNotFound, "owners are separate namespaces")
}

func TestFaults(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")

	s.FailPut("notes.json", boom)
	_, err := s.Put(ctx, "o", "notes.json", []byte(`{}`))
	assert.ErrorIs(t, err, boom)
	_, err = s.Put(ctx, "o", "Recipe", []byte(`{}`))
	assert.NoError(t, err)

	s.FailGet("", apperr.ErrUnavailable)
	_, err = s.Get(ctx, "o", "Recipe")
	assert.ErrorIs(t, err, apperr.ErrUnavailable)

	s.FailGet("", nil)
	_, err = s.Get(ctx, "o", "Recipe")
	assert.NoError(t, err)

	assert.Equal(t, 2, s.Gets("Recipe"))
	assert.Equal(t, 1, s.Puts("notes.json"))
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Get(ctx, "o", "k")
	assert.ErrorIs(t, err, context.Canceled)
}
