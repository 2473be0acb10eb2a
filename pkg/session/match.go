package session

import (
	"encoding/json"
	"slices"

	"github.com/google/uuid"
)

// GameFoundData is produced once per successful match and handed to the
// game server that will run the room.
type GameFoundData struct {
	matchID uuid.UUID
	room    int
	users   []User
}

func NewGameFoundData() GameFoundData {
	return GameFoundData{
		room:  Unassigned,
		users: []User{},
	}
}

func NewGameFoundDataForRoom(room int) GameFoundData {
	g := NewGameFoundData()
	g.room = room
	return g
}

// NewGameFoundDataWith copies users into a new match record with a fresh match id.
func NewGameFoundDataWith(room int, users []User) GameFoundData {
	return GameFoundData{
		matchID: uuid.New(),
		room:    room,
		users:   append([]User{}, users...),
	}
}

func (g GameFoundData) MatchID() uuid.UUID {
	return g.matchID
}

func (g *GameFoundData) SetMatchID(id uuid.UUID) {
	g.matchID = id
}

func (g GameFoundData) Room() int {
	return g.room
}

func (g *GameFoundData) SetRoom(room int) {
	g.room = room
}

// Users returns the live backing slice.
func (g GameFoundData) Users() []User {
	return g.users
}

// SetUsers stores the slice without copying it.
func (g *GameFoundData) SetUsers(users []User) {
	g.users = users
}

func (g GameFoundData) Equal(other GameFoundData) bool {
	if g.matchID != other.matchID || g.room != other.room || len(g.users) != len(other.users) {
		return false
	}
	for i := range g.users {
		if !g.users[i].Equal(other.users[i]) {
			return false
		}
	}
	return true
}

type gameFoundDataJSON struct {
	MatchID uuid.UUID `json:"matchID"`
	Room    int       `json:"room"`
	Users   []User    `json:"users"`
}

func (g GameFoundData) MarshalJSON() ([]byte, error) {
	users := g.users
	if users == nil {
		users = []User{}
	}
	return json.Marshal(gameFoundDataJSON{MatchID: g.matchID, Room: g.room, Users: users})
}

func (g *GameFoundData) UnmarshalJSON(b []byte) error {
	w := gameFoundDataJSON{Room: Unassigned}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.Users == nil {
		w.Users = []User{}
	}
	*g = GameFoundData{matchID: w.MatchID, room: w.Room, users: w.Users}
	return nil
}

// GameEndData is emitted exactly once when a room terminates. Order holds
// user ids, winner first.
type GameEndData struct {
	gameServerID         int
	room                 int
	order                []int
	endedAsDisconnection bool
}

func NewGameEndData() GameEndData {
	return GameEndData{
		gameServerID: Unassigned,
		room:         Unassigned,
		order:        []int{},
	}
}

func NewGameEndDataForRoom(gameServerID int, room int) GameEndData {
	g := NewGameEndData()
	g.gameServerID = gameServerID
	g.room = room
	return g
}

// NewGameEndDataWith copies order into a new end record.
func NewGameEndDataWith(gameServerID int, room int, order []int, endedAsDisconnection bool) GameEndData {
	return GameEndData{
		gameServerID:         gameServerID,
		room:                 room,
		order:                append([]int{}, order...),
		endedAsDisconnection: endedAsDisconnection,
	}
}

func (g GameEndData) GameServerID() int {
	return g.gameServerID
}

func (g *GameEndData) SetGameServerID(id int) {
	g.gameServerID = id
}

func (g GameEndData) Room() int {
	return g.room
}

func (g *GameEndData) SetRoom(room int) {
	g.room = room
}

// Order returns the live backing slice.
func (g GameEndData) Order() []int {
	return g.order
}

// SetOrder stores the slice without copying it.
func (g *GameEndData) SetOrder(order []int) {
	g.order = order
}

func (g GameEndData) EndedAsDisconnection() bool {
	return g.endedAsDisconnection
}

func (g *GameEndData) SetEndedAsDisconnection(v bool) {
	g.endedAsDisconnection = v
}

// Winner returns the first ranked user id, or Unassigned for an empty ranking.
func (g GameEndData) Winner() int {
	if len(g.order) == 0 {
		return Unassigned
	}
	return g.order[0]
}

func (g GameEndData) Equal(other GameEndData) bool {
	return g.gameServerID == other.gameServerID &&
		g.room == other.room &&
		g.endedAsDisconnection == other.endedAsDisconnection &&
		slices.Equal(g.order, other.order)
}

type gameEndDataJSON struct {
	GameServerID         int   `json:"gameServerID"`
	Room                 int   `json:"room"`
	Order                []int `json:"order"`
	EndedAsDisconnection bool  `json:"endedAsDisconnection"`
}

func (g GameEndData) MarshalJSON() ([]byte, error) {
	order := g.order
	if order == nil {
		order = []int{}
	}
	return json.Marshal(gameEndDataJSON{
		GameServerID:         g.gameServerID,
		Room:                 g.room,
		Order:                order,
		EndedAsDisconnection: g.endedAsDisconnection,
	})
}

func (g *GameEndData) UnmarshalJSON(b []byte) error {
	w := gameEndDataJSON{GameServerID: Unassigned, Room: Unassigned}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*g = NewGameEndDataWith(w.GameServerID, w.Room, w.Order, w.EndedAsDisconnection)
	return nil
}
