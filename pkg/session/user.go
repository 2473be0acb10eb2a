package session

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Unassigned marks an absent id, room or seat.
const Unassigned = -1

var (
	// ErrInvalidSeat is returned when a seat is assigned without a room.
	ErrInvalidSeat = errors.New("in-game seat requires a room")
)

// Role identifies the server role a user extension belongs to.
type Role string

const (
	RoleMaster Role = "master"
	RoleGame   Role = "game"
)

// Extension is a role-specific payload carried by a User.
type Extension interface {
	Role() Role
}

// LobbyProfile is the master role extension: what the user picked while
// waiting to be matched.
type LobbyProfile struct {
	Character int `json:"character"`
}

func (LobbyProfile) Role() Role {
	return RoleMaster
}

// User is the identity of a connected participant and its current room and
// seat assignment. The zero value is not valid, use one of the constructors.
//
// Conn is the transport's connection handle. The transport owns it and is
// the only one allowed to close it.
type User struct {
	ID        int
	IPAddress string
	Username  string
	Conn      any

	room     int
	ingameID int
	leftGame bool
	ext      Extension
}

// NewUser returns a user with every id set to Unassigned.
func NewUser() User {
	return User{
		ID:       Unassigned,
		room:     Unassigned,
		ingameID: Unassigned,
	}
}

// NewUserWithID returns an unassigned user with the given identity.
func NewUserWithID(id int) User {
	u := NewUser()
	u.ID = id
	return u
}

// NewConnectedUser returns an unassigned user bound to a transport connection.
func NewConnectedUser(id int, conn any, ipAddress string, username string) User {
	u := NewUserWithID(id)
	u.Conn = conn
	u.IPAddress = ipAddress
	u.Username = username
	return u
}

func (u User) Room() int {
	return u.room
}

func (u User) IngameID() int {
	return u.ingameID
}

func (u User) LeftGame() bool {
	return u.leftGame
}

// InRoom reports whether the user is currently assigned to a room.
func (u User) InRoom() bool {
	return u.room >= 0
}

// AssignSeat places the user in a room at the given seat. It starts a new
// room membership, so the left-game latch is reset.
func (u *User) AssignSeat(room int, ingameID int) error {
	if room < 0 && ingameID >= 0 {
		return fmt.Errorf("failed to assign seat %d to user %d: %w", ingameID, u.ID, ErrInvalidSeat)
	}
	if room < 0 {
		u.ClearAssignment()
		return nil
	}
	u.room = room
	u.ingameID = ingameID
	u.leftGame = false
	return nil
}

// SetRoom changes the room. Leaving every room also drops the seat, and
// moving to a different room starts a new membership.
func (u *User) SetRoom(room int) {
	if room < 0 {
		u.ClearAssignment()
		return
	}
	if room != u.room {
		u.leftGame = false
	}
	u.room = room
}

// SetIngameID changes the seat within the current room.
func (u *User) SetIngameID(ingameID int) error {
	if ingameID >= 0 && u.room < 0 {
		return fmt.Errorf("failed to set seat %d for user %d: %w", ingameID, u.ID, ErrInvalidSeat)
	}
	if ingameID < 0 {
		ingameID = Unassigned
	}
	u.ingameID = ingameID
	return nil
}

// ClearAssignment returns the user to the unmatched pool.
func (u *User) ClearAssignment() {
	u.room = Unassigned
	u.ingameID = Unassigned
}

// SetLeftGame latches the left-game flag for the current room membership.
// Passing false does not clear a latched flag; only a new room does.
func (u *User) SetLeftGame(left bool) {
	if left {
		u.leftGame = true
	}
}

func (u User) Extension() Extension {
	return u.ext
}

// WithExtension returns a copy of the user carrying the extension.
func (u User) WithExtension(ext Extension) User {
	u.ext = ext
	return u
}

// ExtensionAs returns the user's extension if it has type T.
func ExtensionAs[T Extension](u User) (T, bool) {
	ext, ok := u.ext.(T)
	return ext, ok
}

// Equal compares identity and assignment. The connection handle and the
// extension are not part of the comparison.
func (u User) Equal(other User) bool {
	return u.ID == other.ID &&
		u.IPAddress == other.IPAddress &&
		u.Username == other.Username &&
		u.room == other.room &&
		u.ingameID == other.ingameID &&
		u.leftGame == other.leftGame
}

func (u User) String() string {
	return fmt.Sprintf("user %d (%s) room=%d seat=%d", u.ID, u.Username, u.room, u.ingameID)
}

type userJSON struct {
	ID        int           `json:"id"`
	IPAddress string        `json:"ipAddress"`
	Username  string        `json:"username"`
	Room      int           `json:"room"`
	IngameID  int           `json:"ingameID"`
	LeftGame  bool          `json:"leftGame"`
	Lobby     *LobbyProfile `json:"lobby,omitempty"`
}

func (u User) MarshalJSON() ([]byte, error) {
	w := userJSON{
		ID:        u.ID,
		IPAddress: u.IPAddress,
		Username:  u.Username,
		Room:      u.room,
		IngameID:  u.ingameID,
		LeftGame:  u.leftGame,
	}
	if lobby, ok := ExtensionAs[LobbyProfile](u); ok {
		w.Lobby = &lobby
	}
	return json.Marshal(w)
}

func (u *User) UnmarshalJSON(b []byte) error {
	w := userJSON{
		ID:       Unassigned,
		Room:     Unassigned,
		IngameID: Unassigned,
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.IngameID >= 0 && w.Room < 0 {
		return fmt.Errorf("failed to decode user %d: %w", w.ID, ErrInvalidSeat)
	}
	*u = User{
		ID:        w.ID,
		IPAddress: w.IPAddress,
		Username:  w.Username,
		room:      w.Room,
		ingameID:  w.IngameID,
		leftGame:  w.LeftGame,
	}
	if w.Lobby != nil {
		u.ext = *w.Lobby
	}
	return nil
}
