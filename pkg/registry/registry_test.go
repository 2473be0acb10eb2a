package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/cbodonnell/roomsync/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ConnectAllocatesSequentialIDs(t *testing.T) {
	r := New(NewRegistryOptions{})
	a, err := r.Connect(nil, "10.0.0.1", "alice")
	require.NoError(t, err)
	b, err := r.Connect(nil, "10.0.0.2", "bob")
	require.NoError(t, err)

	assert.Equal(t, 1, a.ID)
	assert.Equal(t, 2, b.ID)
	assert.Equal(t, session.Unassigned, a.Room())
	assert.Equal(t, 2, r.Count())

	event := <-r.Events()
	assert.Equal(t, EventConnected, event.Type)
	assert.Equal(t, "alice", event.User.Username)
}

func TestRegistry_DisconnectMarksLeftGame(t *testing.T) {
	r := New(NewRegistryOptions{})
	u, err := r.Connect(nil, "10.0.0.1", "alice")
	require.NoError(t, err)
	idle, err := r.Connect(nil, "10.0.0.2", "bob")
	require.NoError(t, err)

	require.NoError(t, r.Update(u.ID, func(u *session.User) error {
		return u.AssignSeat(7, 0)
	}))

	final, ok := r.Disconnect(u.ID)
	require.True(t, ok)
	assert.True(t, final.LeftGame())
	assert.Equal(t, 7, final.Room())
	_, ok = r.Get(u.ID)
	assert.False(t, ok)

	final, ok = r.Disconnect(idle.ID)
	require.True(t, ok)
	assert.False(t, final.LeftGame())

	_, ok = r.Disconnect(u.ID)
	assert.False(t, ok)
}

func TestRegistry_UpdateIsAtomic(t *testing.T) {
	r := New(NewRegistryOptions{})
	u, err := r.Connect(nil, "10.0.0.1", "alice")
	require.NoError(t, err)

	err = r.Update(u.ID, func(u *session.User) error {
		u.Username = "mallory"
		return u.AssignSeat(session.Unassigned, 3)
	})
	assert.ErrorIs(t, err, session.ErrInvalidSeat)

	got, ok := r.Get(u.ID)
	require.True(t, ok)
	assert.Equal(t, "alice", got.Username)

	err = r.Update(99, func(u *session.User) error { return nil })
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRegistry_Full(t *testing.T) {
	r := New(NewRegistryOptions{MaxConnections: 2})
	assert.False(t, r.Full())
	_, _ = r.Connect(nil, "", "a")
	_, _ = r.Connect(nil, "", "b")
	assert.True(t, r.Full())

	_, err := r.Connect(nil, "", "c")
	assert.NoError(t, err, "capacity is a hint only")
	assert.Len(t, r.List(), 3)
}

func TestRegistry_EventsDropWhenFull(t *testing.T) {
	r := New(NewRegistryOptions{EventBufferSize: 1})
	_, _ = r.Connect(nil, "", "a")
	_, _ = r.Connect(nil, "", "b")
	assert.Len(t, r.Events(), 1)
}

func TestRegistry_ConcurrentConnect(t *testing.T) {
	r := New(NewRegistryOptions{EventBufferSize: 1000})
	var wg sync.WaitGroup
	ids := make(chan int, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := r.Connect(nil, "", "")
			if err == nil {
				ids <- u.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, 100)

	list := r.List()
	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].ID, list[i].ID)
	}
}
