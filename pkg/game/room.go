package game

import (
	"sort"

	"github.com/cbodonnell/roomsync/pkg/kinematic"
	"github.com/cbodonnell/roomsync/pkg/log"
	"github.com/cbodonnell/roomsync/pkg/queue"
	"github.com/cbodonnell/roomsync/pkg/session"
	"github.com/google/uuid"
	"github.com/solarlune/resolv"
)

// submission is one input message as received from the transport.
type submission struct {
	userID int
	inputs session.PlayerInputs
}

// room is the simulation of one match. Everything but inputs is owned by
// the designated goroutine.
type room struct {
	number       int
	matchID      uuid.UUID
	gameServerID int
	arena        Arena
	space        *resolv.Space

	// seats maps user ids to in-game ids and is read-only after creation.
	seats   map[int]int
	players map[int]*playerState
	order   []int
	inputs  *queue.InMemoryQueue[submission]
	latest  map[int]session.PlayerInputs
	leavers []int
	tick    int
	active  bool
	ended   bool
}

func newRoom(gameServerID int, found session.GameFoundData, arena Arena, queueSize int) *room {
	users := found.Users()
	arena = arena.fit(len(users))
	r := &room{
		number:       found.Room(),
		matchID:      found.MatchID(),
		gameServerID: gameServerID,
		arena:        arena,
		space:        arena.NewCollisionSpace(),
		seats:        make(map[int]int, len(users)),
		players:      make(map[int]*playerState, len(users)),
		inputs:       queue.NewInMemoryQueue[submission](queueSize),
		latest:       make(map[int]session.PlayerInputs, len(users)),
	}
	for _, u := range users {
		seat := u.IngameID()
		spawn := kinematic.Vector{X: arena.SpawnX(seat), Z: arena.SpawnZ()}
		player := newPlayerState(u.ID, seat, spawn)
		r.seats[u.ID] = seat
		r.players[seat] = player
		r.order = append(r.order, seat)
		r.space.Add(player.object)
	}
	sort.Ints(r.order)
	return r
}

// participants returns the user ids seated in the room, by seat.
func (r *room) participants() []int {
	ids := make([]int, 0, len(r.order))
	for _, seat := range r.order {
		ids = append(ids, r.players[seat].userID)
	}
	return ids
}

// recipients returns the participants that have not left.
func (r *room) recipients() []int {
	ids := make([]int, 0, len(r.order))
	for _, id := range r.participants() {
		if !r.hasLeft(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (r *room) hasLeft(userID int) bool {
	for _, id := range r.leavers {
		if id == userID {
			return true
		}
	}
	return false
}

func (r *room) markLeft(userID int) bool {
	if _, ok := r.seats[userID]; !ok || r.hasLeft(userID) {
		return false
	}
	r.leavers = append(r.leavers, userID)
	return true
}

// collectInputs keeps the latest valid inputs per seat. Inputs for a seat
// other than the sender's are dropped.
func (r *room) collectInputs() {
	for _, s := range r.inputs.ReadAllMessages() {
		seat, ok := r.seats[s.userID]
		if !ok || seat != s.inputs.IngameID {
			log.Debug("Dropping inputs from user %d for seat %d in room %d", s.userID, s.inputs.IngameID, r.number)
			continue
		}
		if r.hasLeft(s.userID) {
			continue
		}
		r.latest[seat] = s.inputs
	}
}

// step advances every seated player by deltaTime and returns the snapshot.
func (r *room) step(deltaTime float64) session.UpdateData {
	r.tick++
	update := session.NewUpdateDataForRoom(r.number)
	for _, seat := range r.order {
		player := r.players[seat]
		if !r.hasLeft(player.userID) {
			player.update(r.latestFor(seat), deltaTime)
		}
		update.Put(player.data())
	}
	return update
}

func (r *room) latestFor(seat int) session.PlayerInputs {
	inputs, ok := r.latest[seat]
	if !ok {
		return session.NewPlayerInputsForSeat(seat)
	}
	return inputs
}

func (r *room) standings() []Standing {
	standings := make([]Standing, 0, len(r.order))
	for _, seat := range r.order {
		player := r.players[seat]
		if r.hasLeft(player.userID) {
			continue
		}
		standings = append(standings, player.standing())
	}
	return standings
}

// conclude returns the end record if the room is over after this tick.
// Any leaver ends the room; the referee ranks the remaining players and
// leavers follow in the order they left.
func (r *room) conclude(referee Referee) (session.GameEndData, bool) {
	standings := r.standings()
	disconnection := len(r.leavers) > 0
	if !disconnection && !referee.Finished(r.tick, standings) {
		return session.GameEndData{}, false
	}
	order := referee.Rank(standings)
	order = append(order, r.leavers...)
	return session.NewGameEndDataWith(r.gameServerID, r.number, order, disconnection), true
}

func (r *room) close() {
	r.ended = true
	for _, player := range r.players {
		r.space.Remove(player.object)
	}
	r.inputs.ClearQueue()
}
