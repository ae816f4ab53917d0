package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickchristie/crew"
)

func newTestStore(timeout time.Duration) (*Store, *crew.MockTimeProvider) {
	clock := crew.NewMockTimeProvider(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	return New(timeout).WithClock(clock), clock
}

func TestCreateAndGet(t *testing.T) {
	store, clock := newTestStore(time.Hour)

	id := store.Create()
	require.NotEmpty(t, id)

	sess := store.Get(id)
	require.NotNil(t, sess)
	assert.Equal(t, id, sess.ID)
	assert.Equal(t, clock.Now(), sess.Created)
	assert.Empty(t, sess.Messages)

	// Distinct sessions get distinct ids.
	assert.NotEqual(t, id, store.Create())
	assert.Equal(t, 2, store.Count())
}

func TestGetUnknownID(t *testing.T) {
	store, _ := newTestStore(time.Hour)
	assert.Nil(t, store.Get("nope"))
}

func TestLazyExpiry(t *testing.T) {
	store, clock := newTestStore(time.Hour)

	id := store.Create()
	clock.Advance(time.Hour + time.Second)

	assert.Nil(t, store.Get(id))
	// The expired session was evicted, not just hidden.
	assert.Equal(t, 0, store.Count())
}

func TestAccessRefreshesExpiry(t *testing.T) {
	store, clock := newTestStore(time.Hour)

	id := store.Create()
	clock.Advance(59 * time.Minute)
	require.NotNil(t, store.Get(id))

	// The Get above reset the idle clock.
	clock.Advance(59 * time.Minute)
	assert.NotNil(t, store.Get(id))
}

func TestAppendAndHistory(t *testing.T) {
	store, clock := newTestStore(time.Hour)

	id := store.Create()
	require.True(t, store.Append(id, crew.RoleUser, "hello"))
	clock.Advance(time.Second)
	require.True(t, store.Append(id, crew.RoleAssistant, "hi there"))

	msgs, ok := store.History(id)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, crew.RoleUser, msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, crew.RoleAssistant, msgs[1].Role)
	assert.True(t, msgs[1].Timestamp.After(msgs[0].Timestamp))

	// History hands out copies.
	msgs[0].Content = "mutated"
	again, _ := store.History(id)
	assert.Equal(t, "hello", again[0].Content)

	assert.False(t, store.Append("nope", crew.RoleUser, "x"))
}

func TestClear(t *testing.T) {
	store, _ := newTestStore(time.Hour)

	id := store.Create()
	store.Append(id, crew.RoleUser, "hello")

	require.True(t, store.Clear(id))
	msgs, ok := store.History(id)
	require.True(t, ok)
	assert.Empty(t, msgs)

	assert.False(t, store.Clear("nope"))
}

func TestDelete(t *testing.T) {
	store, _ := newTestStore(time.Hour)

	id := store.Create()
	assert.True(t, store.Delete(id))
	assert.Nil(t, store.Get(id))
	assert.False(t, store.Delete(id))
}

func TestListEvictsExpired(t *testing.T) {
	store, clock := newTestStore(time.Hour)

	old := store.Create()
	clock.Advance(2 * time.Hour)
	fresh := store.Create()
	store.Append(fresh, crew.RoleUser, "hi")

	list := store.List()
	require.Len(t, list, 1)
	assert.Equal(t, fresh, list[0].ID)
	assert.Equal(t, 1, list[0].MessageCount)

	assert.Nil(t, store.Get(old))
	assert.Equal(t, 1, store.Count())
}

func TestSweep(t *testing.T) {
	store, clock := newTestStore(time.Hour)

	store.Create()
	store.Create()
	clock.Advance(30 * time.Minute)
	keep := store.Create()
	clock.Advance(45 * time.Minute)

	assert.Equal(t, 2, store.Sweep())
	assert.Equal(t, 1, store.Count())
	assert.NotNil(t, store.Get(keep))
	assert.Equal(t, 0, store.Sweep())
}
