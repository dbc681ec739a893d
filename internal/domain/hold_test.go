package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHold(t *testing.T, status HoldStatus) Hold {
	t.Helper()
	q, err := NewQuantity(2)
	require.NoError(t, err)
	return Hold{
		ID:       NewHoldIdFromUUID(uuid.New()),
		Quantity: q,
		Status:   status,
	}
}

func TestHold_ReleaseTransition(t *testing.T) {
	h := newTestHold(t, HoldStatusHeld)
	require.True(t, h.CanRelease())

	released := h.Release()
	assert.True(t, released.IsReleased())
	assert.False(t, released.CanRelease())
	assert.False(t, released.CanCommit())
}

func TestHold_CommitTransition(t *testing.T) {
	h := newTestHold(t, HoldStatusHeld)
	require.True(t, h.CanCommit())

	committed := h.Commit()
	assert.True(t, committed.IsCommitted())
	assert.False(t, committed.CanRelease())
	assert.False(t, committed.CanCommit())
}

func TestHold_TerminalStatesRejectFurtherCanChecks(t *testing.T) {
	released := newTestHold(t, HoldStatusReleased)
	assert.False(t, released.CanRelease())
	assert.False(t, released.CanCommit())

	committed := newTestHold(t, HoldStatusCommitted)
	assert.False(t, committed.CanRelease())
	assert.False(t, committed.CanCommit())
}

func TestHold_IsExpired(t *testing.T) {
	h := newTestHold(t, HoldStatusHeld)
	h.ExpiresAt = time.Now().Add(-time.Second)
	assert.True(t, h.IsExpired(time.Now()))

	h.ExpiresAt = time.Now().Add(time.Minute)
	assert.False(t, h.IsExpired(time.Now()))

	committed := newTestHold(t, HoldStatusCommitted)
	committed.ExpiresAt = time.Now().Add(-time.Hour)
	assert.False(t, committed.IsExpired(time.Now()), "a committed hold is never expired regardless of its timestamp")
}
