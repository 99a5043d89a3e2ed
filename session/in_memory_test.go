package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/docent/core"
)

func TestInMemoryStore_CreateRejectsDuplicate(t *testing.T) {
	store := NewInMemoryStore()

	sess, err := store.Create("sess-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", sess.ID)

	_, err = store.Create("sess-1")
	assert.Error(t, err)
}

func TestInMemoryStore_GetCreatesLazily(t *testing.T) {
	store := NewInMemoryStore()

	sess, err := store.Get("sess-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", sess.ID)
	assert.Equal(t, 1, store.Len())
}

func TestInMemoryStore_AppendEventPersists(t *testing.T) {
	store := NewInMemoryStore()
	_, err := store.Get("sess-1")
	require.NoError(t, err)

	ev := core.NewUserMessageEvent("run-1", "hello")
	require.NoError(t, store.AppendEvent("sess-1", ev))

	sess, err := store.Get("sess-1")
	require.NoError(t, err)
	events := sess.GetEvents()
	require.Len(t, events, 1)
	assert.Equal(t, ev.ID, events[0].ID)

	history := sess.GetConversationHistory()
	require.Len(t, history, 1)
	assert.Equal(t, core.RoleUser, history[0].Role)
	assert.Equal(t, "hello", history[0].Text())
}

func TestInMemoryStore_AppendEventUnknownSession(t *testing.T) {
	store := NewInMemoryStore()
	err := store.AppendEvent("missing", core.NewUserMessageEvent("run-1", "hi"))
	assert.Error(t, err)
}

func TestInMemoryStore_GetReturnsClone(t *testing.T) {
	store := NewInMemoryStore()
	_, err := store.Get("sess-1")
	require.NoError(t, err)
	require.NoError(t, store.AppendEvent("sess-1", core.NewUserMessageEvent("run-1", "hi")))

	clone, err := store.Get("sess-1")
	require.NoError(t, err)
	clone.AddEvent(core.NewUserMessageEvent("run-2", "mutating the clone"))

	fresh, err := store.Get("sess-1")
	require.NoError(t, err)
	assert.Len(t, fresh.GetEvents(), 1, "mutating a returned session must not leak into the store")
}
