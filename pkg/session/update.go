package session

import "encoding/json"

// UpdateData is the per-tick snapshot of one room. It holds at most one
// entry per in-game seat; receivers index by IngameID, not by position.
type UpdateData struct {
	room    int
	players []PlayerData
}

func NewUpdateData() UpdateData {
	return UpdateData{
		room:    Unassigned,
		players: []PlayerData{},
	}
}

func NewUpdateDataForRoom(room int) UpdateData {
	u := NewUpdateData()
	u.room = room
	return u
}

// NewUpdateDataWith copies players into a new snapshot. A seat listed more
// than once keeps its last entry.
func NewUpdateDataWith(room int, players []PlayerData) UpdateData {
	u := NewUpdateDataForRoom(room)
	u.players = make([]PlayerData, 0, len(players))
	for _, p := range players {
		u.Put(p)
	}
	return u
}

func (u UpdateData) Room() int {
	return u.room
}

func (u *UpdateData) SetRoom(room int) {
	u.room = room
}

// Players returns the live backing slice.
func (u UpdateData) Players() []PlayerData {
	return u.players
}

// SetPlayers stores the slice as is. The caller keeps it free of duplicate seats.
func (u *UpdateData) SetPlayers(players []PlayerData) {
	u.players = players
}

// Put adds the player, replacing any entry for the same seat.
func (u *UpdateData) Put(p PlayerData) {
	for i := range u.players {
		if u.players[i].IngameID == p.IngameID {
			u.players[i] = p
			return
		}
	}
	u.players = append(u.players, p)
}

// Player looks a seat up.
func (u UpdateData) Player(ingameID int) (PlayerData, bool) {
	for _, p := range u.players {
		if p.IngameID == ingameID {
			return p, true
		}
	}
	return PlayerData{}, false
}

func (u UpdateData) Equal(other UpdateData) bool {
	if u.room != other.room || len(u.players) != len(other.players) {
		return false
	}
	for i := range u.players {
		if u.players[i] != other.players[i] {
			return false
		}
	}
	return true
}

type updateDataJSON struct {
	Room    int          `json:"room"`
	Players []PlayerData `json:"players"`
}

func (u UpdateData) MarshalJSON() ([]byte, error) {
	players := u.players
	if players == nil {
		players = []PlayerData{}
	}
	return json.Marshal(updateDataJSON{Room: u.room, Players: players})
}

func (u *UpdateData) UnmarshalJSON(b []byte) error {
	w := updateDataJSON{Room: Unassigned}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*u = NewUpdateDataWith(w.Room, w.Players)
	return nil
}
