package state

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StateManager provides shared access to the master state.
// Implementations must be thread-safe.
type StateManager interface {
	// Get returns a copy of the current snapshot.
	Get(ctx context.Context) (*Snapshot, error)
	// Set replaces the current snapshot.
	Set(ctx context.Context, snapshot *Snapshot) error
}

// RoomState describes one active room as the master sees it.
type RoomState struct {
	Room         int       `json:"room"`
	MatchID      uuid.UUID `json:"matchID"`
	GameServerID int       `json:"gameServerID"`
	Users        []int     `json:"users"`
	StartedAt    time.Time `json:"startedAt"`
}

// Snapshot is a point-in-time view of rooms and the unmatched pool.
type Snapshot struct {
	Rooms     map[int]RoomState `json:"rooms"`
	Waiting   []int             `json:"waiting"`
	Connected int               `json:"connected"`
	Timestamp time.Time         `json:"timestamp"`
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		Rooms:   make(map[int]RoomState),
		Waiting: []int{},
	}
}

// Copy returns a deep copy of the snapshot.
func (s *Snapshot) Copy() *Snapshot {
	c := &Snapshot{
		Rooms:     make(map[int]RoomState, len(s.Rooms)),
		Waiting:   append([]int{}, s.Waiting...),
		Connected: s.Connected,
		Timestamp: s.Timestamp,
	}
	for k, v := range s.Rooms {
		v.Users = append([]int{}, v.Users...)
		c.Rooms[k] = v
	}
	return c
}
