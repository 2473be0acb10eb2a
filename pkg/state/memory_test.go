package state

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStateManager_CopiesInAndOut(t *testing.T) {
	ctx := context.Background()
	m := NewInMemoryStateManager()

	empty, err := m.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Rooms)

	snapshot := NewSnapshot()
	snapshot.Rooms[7] = RoomState{Room: 7, MatchID: uuid.New(), GameServerID: 3, Users: []int{1, 2}}
	snapshot.Waiting = []int{5}
	snapshot.Timestamp = time.Now()
	require.NoError(t, m.Set(ctx, snapshot))

	snapshot.Rooms[7].Users[0] = 99
	snapshot.Waiting[0] = 99

	got, err := m.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got.Rooms[7].Users)
	assert.Equal(t, []int{5}, got.Waiting)

	got.Rooms[7].Users[1] = 42
	again, err := m.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, again.Rooms[7].Users)
}

func TestInMemoryStateManager_RejectsNil(t *testing.T) {
	m := NewInMemoryStateManager()
	assert.Error(t, m.Set(context.Background(), nil))
}
