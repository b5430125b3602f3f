package session_test

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notetoself/internal/apperr"
	"github.com/starford/notetoself/internal/identity"
	"github.com/starford/notetoself/internal/notes"
	"github.com/starford/notetoself/internal/session"
)

func TestNewIsUnauthenticatedIdle(t *testing.T) {
	st := session.New()

	assert.False(t, st.Authenticated())
	assert.Equal(t, session.Idle, st.Status())
	assert.True(t, st.Index().Empty())
	assert.Empty(t, st.Errors())
	assert.NoError(t, st.Err())
	assert.Empty(t, st.ErrorText())
	assert.False(t, st.Busy())
	assert.False(t, st.IndexStale())

	_, ok := st.CurrentNote()
	assert.False(t, ok)
	_, ok = st.Identity()
	assert.False(t, ok)
}

func TestWithMethodsCopy(t *testing.T) {
	base := session.New()
	id := identity.Derive("pass")

	next := base.WithIdentity(id).
		WithStatus(session.Saving).
		WithIndex(notes.NewIndex("a")).
		WithNote(notes.Note{Title: "a", Body: "b"}).
		WithBusy(true)

	assert.False(t, base.Authenticated())
	assert.Equal(t, session.Idle, base.Status())
	assert.True(t, base.Index().Empty())
	assert.False(t, base.Busy())

	got, ok := next.Identity()
	require.True(t, ok)
	assert.True(t, got.Equal(id))
	assert.Equal(t, session.Saving, next.Status())
	assert.Equal(t, []string{"a"}, next.Index().Titles())
	n, ok := next.CurrentNote()
	require.True(t, ok)
	assert.Equal(t, "b", n.Body)
	assert.Equal(t, base.ID(), next.ID())

	cleared := next.WithoutNote()
	_, ok = cleared.CurrentNote()
	assert.False(t, ok)
	_, ok = next.CurrentNote()
	assert.True(t, ok)
}

func TestErrorsAccumulateWithoutAliasing(t *testing.T) {
	first := &session.FlowError{Kind: session.KindRemoteRead, Op: "load note", Key: "a", Err: errors.New("boom")}
	second := &session.FlowError{Kind: session.KindRemoteWrite, Op: "save note", Key: "b", Err: apperr.ErrUnavailable}

	one := session.New().WithError(first)
	twoA := one.WithError(second)
	twoB := one.WithError(first)

	assert.Len(t, one.Errors(), 1)
	assert.Equal(t, second, twoA.Errors()[1])
	assert.Equal(t, first, twoB.Errors()[1])
	assert.Equal(t, "boom; "+apperr.ErrUnavailable.Error(), twoA.ErrorText())
	assert.ErrorIs(t, twoA.Err(), apperr.ErrUnavailable)

	var fe *session.FlowError
	require.ErrorAs(t, twoA.Err(), &fe)
	assert.Equal(t, session.KindRemoteRead, fe.Kind)

	assert.Empty(t, twoA.WithoutErrors().Errors())
}

func TestSucceededWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	st := session.New().WithSuccess(now.Add(5 * time.Second))

	assert.True(t, st.Succeeded(now))
	assert.True(t, st.Succeeded(now.Add(4*time.Second)))
	assert.False(t, st.Succeeded(now.Add(5*time.Second)))
	assert.False(t, st.WithoutSuccess().Succeeded(now))
	assert.False(t, session.New().Succeeded(now))
}

func TestStatusStrings(t *testing.T) {
	assert.Equal(t, "idle", session.Idle.String())
	assert.Equal(t, "index_persisting", session.IndexPersisting.String())
	assert.False(t, session.Idle.InFlight())
	assert.True(t, session.IndexMerging.InFlight())
	assert.Equal(t, "remote_write", session.KindRemoteWrite.String())
}

func TestHolderClearsExpiredSuccess(t *testing.T) {
	h := session.NewHolder(session.New())

	var notified atomic.Int32
	h.Subscribe(func(session.State) { notified.Add(1) })

	h.Store(session.New().WithSuccess(time.Now().Add(20 * time.Millisecond)))
	assert.True(t, h.Load().Succeeded(time.Now()))

	require.Eventually(t, func() bool {
		return h.Load().SuccessUntil().IsZero()
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(2), notified.Load())
}

func TestHolderExpiryDoesNotClobberNewerState(t *testing.T) {
	h := session.NewHolder(session.New())

	h.Store(session.New().WithSuccess(time.Now().Add(10 * time.Millisecond)))
	newer := session.New().WithStatus(session.Saving)
	h.Store(newer)

	time.Sleep(50 * time.Millisecond)
	got := h.Load()
	assert.Equal(t, newer.ID(), got.ID())
	assert.Equal(t, session.Saving, got.Status())
}
