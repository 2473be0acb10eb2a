package game

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cbodonnell/roomsync/pkg/dispatch"
	"github.com/cbodonnell/roomsync/pkg/log"
	"github.com/cbodonnell/roomsync/pkg/queue"
	"github.com/cbodonnell/roomsync/pkg/session"
)

var (
	ErrRoomExists    = errors.New("room already exists")
	ErrRoomNotFound  = errors.New("room not found")
	ErrWrongServer   = errors.New("match assigned to another game server")
	ErrInvalidMatch  = errors.New("invalid match")
	ErrNotInRoom     = errors.New("user is not seated in the room")
	ErrInputsDropped = errors.New("inputs dropped")
)

// Publisher delivers records produced by the simulation. Calls happen on
// the designated goroutine and must not block.
type Publisher interface {
	PublishUpdate(update session.UpdateData, recipients []int)
	PublishGameEnd(end session.GameEndData, recipients []int)
}

// NewServerOptions contains options for creating a new Server.
type NewServerOptions struct {
	GameServerID          int
	CalculationsPerSecond int
	Publisher             Publisher
	Referee               Referee
	Dispatcher            *dispatch.Dispatcher
	Arena                 Arena
	InputQueueSize        int
}

// Server runs the rooms of one game server. Room simulation happens on the
// goroutine calling Tick; transport goroutines only submit inputs and
// schedule work through the dispatcher.
type Server struct {
	gameServerID int
	interval     time.Duration
	publisher    Publisher
	referee      Referee
	dispatcher   *dispatch.Dispatcher
	arena        Arena
	queueSize    int

	lock      sync.RWMutex
	rooms     map[int]*room
	userRooms map[int]int
}

func NewServer(opts NewServerOptions) (*Server, error) {
	if opts.Publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if opts.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	cps := opts.CalculationsPerSecond
	if cps <= 0 {
		cps = DefaultCalculationsPerSecond
	}
	referee := opts.Referee
	if referee == nil {
		referee = RaceReferee{Ticks: DefaultRaceTicks}
	}
	arena := opts.Arena
	if arena.Width <= 0 || arena.Length <= 0 {
		arena = DefaultArena()
	}
	queueSize := opts.InputQueueSize
	if queueSize <= 0 {
		queueSize = InputQueueSize
	}
	return &Server{
		gameServerID: opts.GameServerID,
		interval:     time.Second / time.Duration(cps),
		publisher:    opts.Publisher,
		referee:      referee,
		dispatcher:   opts.Dispatcher,
		arena:        arena,
		queueSize:    queueSize,
		rooms:        make(map[int]*room),
		userRooms:    make(map[int]int),
	}, nil
}

func (s *Server) GameServerID() int {
	return s.gameServerID
}

// Interval is the simulated time of one tick.
func (s *Server) Interval() time.Duration {
	return s.interval
}

// StartRoom registers the room of a match so inputs can be queued right
// away, and schedules its first tick. Rooms are keyed by number; a number
// is reusable once its previous room has ended.
func (s *Server) StartRoom(ctx context.Context, gameServerID int, found session.GameFoundData) error {
	if gameServerID != s.gameServerID {
		return fmt.Errorf("failed to start room %d: %w (got %d, this is %d)", found.Room(), ErrWrongServer, gameServerID, s.gameServerID)
	}
	if err := validateMatch(found); err != nil {
		return fmt.Errorf("failed to start room %d: %w", found.Room(), err)
	}

	r := newRoom(s.gameServerID, found, s.arena, s.queueSize)

	s.lock.Lock()
	if _, ok := s.rooms[r.number]; ok {
		s.lock.Unlock()
		return fmt.Errorf("failed to start room %d: %w", r.number, ErrRoomExists)
	}
	for _, u := range found.Users() {
		if current, ok := s.userRooms[u.ID]; ok {
			s.lock.Unlock()
			return fmt.Errorf("failed to start room %d: %w: user %d is in room %d", r.number, ErrInvalidMatch, u.ID, current)
		}
	}
	s.rooms[r.number] = r
	for _, u := range found.Users() {
		s.userRooms[u.ID] = r.number
	}
	s.lock.Unlock()

	s.dispatcher.Do(func() {
		r.active = true
		log.Info("Room %d started for match %s with users %v", r.number, r.matchID, r.participants())
	})
	return nil
}

func validateMatch(found session.GameFoundData) error {
	if found.Room() < 0 {
		return fmt.Errorf("%w: no room number", ErrInvalidMatch)
	}
	if len(found.Users()) == 0 {
		return fmt.Errorf("%w: no users", ErrInvalidMatch)
	}
	seats := make(map[int]bool, len(found.Users()))
	ids := make(map[int]bool, len(found.Users()))
	for _, u := range found.Users() {
		if u.Room() != found.Room() || u.IngameID() < 0 {
			return fmt.Errorf("%w: user %d is not seated in room %d", ErrInvalidMatch, u.ID, found.Room())
		}
		if seats[u.IngameID()] || ids[u.ID] {
			return fmt.Errorf("%w: duplicate user %d or seat %d", ErrInvalidMatch, u.ID, u.IngameID())
		}
		seats[u.IngameID()] = true
		ids[u.ID] = true
	}
	return nil
}

// SubmitInputs queues inputs a user sent for a room. It is safe to call
// from any goroutine.
func (s *Server) SubmitInputs(roomNumber int, userID int, inputs session.PlayerInputs) error {
	s.lock.RLock()
	r, ok := s.rooms[roomNumber]
	s.lock.RUnlock()
	if !ok {
		return fmt.Errorf("%w: room %d", ErrRoomNotFound, roomNumber)
	}
	seat, ok := r.seats[userID]
	if !ok {
		return fmt.Errorf("%w: user %d, room %d", ErrNotInRoom, userID, roomNumber)
	}
	if seat != inputs.IngameID {
		return fmt.Errorf("%w: user %d holds seat %d, not %d", ErrInputsDropped, userID, seat, inputs.IngameID)
	}
	if err := r.inputs.Enqueue(submission{userID: userID, inputs: inputs}); err != nil {
		if errors.Is(err, queue.ErrQueueFull) {
			return fmt.Errorf("%w: room %d: %v", ErrInputsDropped, roomNumber, err)
		}
		return err
	}
	return nil
}

// Disconnect schedules marking a user as having left its room. The room
// ends on its next tick.
func (s *Server) Disconnect(userID int) {
	s.dispatcher.Do(func() {
		s.lock.RLock()
		number, ok := s.userRooms[userID]
		r := s.rooms[number]
		s.lock.RUnlock()
		if !ok || r == nil {
			return
		}
		if r.markLeft(userID) {
			log.Info("User %d left room %d", userID, number)
		}
	})
}

// Tick advances every active room by one step.
func (s *Server) Tick() {
	deltaTime := s.interval.Seconds()
	for _, r := range s.activeRooms() {
		r.collectInputs()
		update := r.step(deltaTime)
		s.publisher.PublishUpdate(update, r.recipients())

		end, ok := r.conclude(s.referee)
		if !ok {
			continue
		}
		recipients := r.recipients()
		s.removeRoom(r)
		s.publisher.PublishGameEnd(end, recipients)
		log.Info("Room %d ended after %d ticks, order %v, disconnection %t", r.number, r.tick, end.Order(), end.EndedAsDisconnection())
	}
}

func (s *Server) activeRooms() []*room {
	s.lock.RLock()
	defer s.lock.RUnlock()
	rooms := make([]*room, 0, len(s.rooms))
	for _, r := range s.rooms {
		if r.active && !r.ended {
			rooms = append(rooms, r)
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].number < rooms[j].number })
	return rooms
}

func (s *Server) removeRoom(r *room) {
	s.lock.Lock()
	defer s.lock.Unlock()
	r.close()
	delete(s.rooms, r.number)
	for userID, number := range s.userRooms {
		if number == r.number {
			delete(s.userRooms, userID)
		}
	}
}

// Rooms returns the numbers of the rooms currently hosted.
func (s *Server) Rooms() []int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	rooms := make([]int, 0, len(s.rooms))
	for number := range s.rooms {
		rooms = append(rooms, number)
	}
	sort.Ints(rooms)
	return rooms
}
