package master

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cbodonnell/roomsync/pkg/dispatch"
	"github.com/cbodonnell/roomsync/pkg/log"
	"github.com/cbodonnell/roomsync/pkg/registry"
	"github.com/cbodonnell/roomsync/pkg/session"
	"github.com/cbodonnell/roomsync/pkg/state"
)

const (
	// DefaultRoomSize is the number of players seated per room
	DefaultRoomSize = 2
)

// Host runs the rooms the matchmaker creates.
type Host interface {
	StartRoom(ctx context.Context, gameServerID int, found session.GameFoundData) error
}

type NewMatchmakerOptions struct {
	Registry     *registry.Registry
	Host         Host
	Dispatcher   *dispatch.Dispatcher
	StateManager state.StateManager
	RoomSize     int
	// MaxGames caps concurrently active rooms. Zero means unlimited.
	MaxGames     int
	GameServerID int
}

type activeRoom struct {
	found        session.GameFoundData
	gameServerID int
	users        []int
	startedAt    time.Time
}

// Matchmaker moves users from the unmatched pool into rooms and back.
// Pool and room state are owned by the dispatcher's designated goroutine:
// Tick and every scheduled action run there.
type Matchmaker struct {
	registry     *registry.Registry
	host         Host
	dispatcher   *dispatch.Dispatcher
	stateManager state.StateManager
	roomSize     int
	maxGames     int
	gameServerID int

	waiting []int
	rooms   map[int]*activeRoom
	dirty   bool
}

func NewMatchmaker(opts NewMatchmakerOptions) (*Matchmaker, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if opts.Host == nil {
		return nil, fmt.Errorf("host is required")
	}
	if opts.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	roomSize := opts.RoomSize
	if roomSize <= 0 {
		roomSize = DefaultRoomSize
	}
	stateManager := opts.StateManager
	if stateManager == nil {
		stateManager = state.NewInMemoryStateManager()
	}
	return &Matchmaker{
		registry:     opts.Registry,
		host:         opts.Host,
		dispatcher:   opts.Dispatcher,
		stateManager: stateManager,
		roomSize:     roomSize,
		maxGames:     opts.MaxGames,
		gameServerID: opts.GameServerID,
		waiting:      []int{},
		rooms:        make(map[int]*activeRoom),
	}, nil
}

// Start forwards registry connection events into the pool until the
// context is done.
func (m *Matchmaker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-m.registry.Events():
			switch event.Type {
			case registry.EventConnected:
				m.Enqueue(event.User.ID)
			case registry.EventDisconnected:
				m.Dequeue(event.User.ID)
			}
		}
	}
}

// Enqueue schedules adding a connected user to the unmatched pool.
func (m *Matchmaker) Enqueue(userID int) {
	m.dispatcher.Do(func() {
		m.enqueue(userID)
	})
}

// Dequeue schedules removing a user from the unmatched pool.
func (m *Matchmaker) Dequeue(userID int) {
	m.dispatcher.Do(func() {
		m.dequeue(userID)
	})
}

// HandleGameEnd schedules releasing the room a game ended in. Results for
// unknown rooms are ignored, so each room is released once.
func (m *Matchmaker) HandleGameEnd(end session.GameEndData) {
	m.dispatcher.Do(func() {
		m.handleGameEnd(end)
	})
}

func (m *Matchmaker) enqueue(userID int) {
	user, ok := m.registry.Get(userID)
	if !ok {
		log.Debug("Ignoring enqueue of unknown user %d", userID)
		return
	}
	if user.InRoom() {
		log.Warn("User %d is in room %d, not enqueuing", userID, user.Room())
		return
	}
	for _, id := range m.waiting {
		if id == userID {
			return
		}
	}
	m.waiting = append(m.waiting, userID)
	m.dirty = true
	log.Debug("User %d waiting for a match (%d waiting)", userID, len(m.waiting))
}

func (m *Matchmaker) dequeue(userID int) {
	for i, id := range m.waiting {
		if id == userID {
			m.waiting = append(m.waiting[:i], m.waiting[i+1:]...)
			m.dirty = true
			return
		}
	}
}

// Tick forms as many rooms as the pool and the room cap allow.
func (m *Matchmaker) Tick(ctx context.Context) error {
	defer m.publishState(ctx)

	for len(m.waiting) >= m.roomSize && (m.maxGames <= 0 || len(m.rooms) < m.maxGames) {
		if err := m.match(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (m *Matchmaker) match(ctx context.Context) error {
	candidates := m.waiting[:m.roomSize]
	room := m.lowestFreeRoom()

	users := make([]session.User, 0, m.roomSize)
	for seat, userID := range candidates {
		err := m.registry.Update(userID, func(u *session.User) error {
			return u.AssignSeat(room, seat)
		})
		if err != nil {
			m.rollback(users)
			if errors.Is(err, registry.ErrNotFound) {
				log.Debug("User %d left before being matched", userID)
				m.dequeue(userID)
				return nil
			}
			return fmt.Errorf("failed to assign seat %d in room %d: %w", seat, room, err)
		}
		user, _ := m.registry.Get(userID)
		users = append(users, user)
	}

	found := session.NewGameFoundDataWith(room, users)
	if err := m.host.StartRoom(ctx, m.gameServerID, found); err != nil {
		m.rollback(users)
		return fmt.Errorf("failed to start room %d: %w", room, err)
	}

	ids := append([]int{}, candidates...)
	m.waiting = append([]int{}, m.waiting[m.roomSize:]...)
	m.rooms[room] = &activeRoom{
		found:        found,
		gameServerID: m.gameServerID,
		users:        ids,
		startedAt:    time.Now(),
	}
	m.dirty = true
	log.Info("Match %s started in room %d on game server %d with users %v", found.MatchID(), room, m.gameServerID, ids)
	return nil
}

func (m *Matchmaker) rollback(users []session.User) {
	for _, user := range users {
		err := m.registry.Update(user.ID, func(u *session.User) error {
			u.ClearAssignment()
			return nil
		})
		if err != nil {
			log.Debug("Failed to roll back user %d: %v", user.ID, err)
		}
	}
}

func (m *Matchmaker) lowestFreeRoom() int {
	room := 0
	for {
		if _, ok := m.rooms[room]; !ok {
			return room
		}
		room++
	}
}

func (m *Matchmaker) handleGameEnd(end session.GameEndData) {
	active, ok := m.rooms[end.Room()]
	if !ok {
		log.Warn("Ignoring game end for unknown room %d", end.Room())
		return
	}
	if end.GameServerID() != active.gameServerID {
		log.Warn("Ignoring game end for room %d from game server %d, expected %d", end.Room(), end.GameServerID(), active.gameServerID)
		return
	}
	delete(m.rooms, end.Room())
	m.dirty = true
	log.Info("Match %s in room %d ended, winner %d, disconnection %t", active.found.MatchID(), end.Room(), end.Winner(), end.EndedAsDisconnection())

	// Ranked users first, so winners get back into the pool first.
	returning := append([]int{}, end.Order()...)
	for _, id := range active.users {
		if !containsID(returning, id) {
			returning = append(returning, id)
		}
	}
	for _, id := range returning {
		if !containsID(active.users, id) {
			continue
		}
		err := m.registry.Update(id, func(u *session.User) error {
			if u.Room() == end.Room() {
				u.ClearAssignment()
			}
			return nil
		})
		if err != nil {
			continue
		}
		m.enqueue(id)
	}
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Waiting returns the pool in match order.
func (m *Matchmaker) Waiting() []int {
	return append([]int{}, m.waiting...)
}

// Rooms returns the active room numbers in ascending order.
func (m *Matchmaker) Rooms() []int {
	rooms := make([]int, 0, len(m.rooms))
	for room := range m.rooms {
		rooms = append(rooms, room)
	}
	sort.Ints(rooms)
	return rooms
}

func (m *Matchmaker) publishState(ctx context.Context) {
	if !m.dirty {
		return
	}
	snapshot := state.NewSnapshot()
	for room, active := range m.rooms {
		snapshot.Rooms[room] = state.RoomState{
			Room:         room,
			MatchID:      active.found.MatchID(),
			GameServerID: active.gameServerID,
			Users:        append([]int{}, active.users...),
			StartedAt:    active.startedAt,
		}
	}
	snapshot.Waiting = append(snapshot.Waiting, m.waiting...)
	snapshot.Connected = m.registry.Count()
	snapshot.Timestamp = time.Now()
	if err := m.stateManager.Set(ctx, snapshot); err != nil {
		log.Error("Failed to publish master state: %v", err)
		return
	}
	m.dirty = false
}
