package session

import "github.com/cbodonnell/roomsync/pkg/kinematic"

// PlayerData is one player's interpolatable state at a tick boundary.
type PlayerData struct {
	IngameID  int              `json:"ingameID"`
	Position  kinematic.Vector `json:"position"`
	Direction kinematic.Vector `json:"direction"`
}

// NewPlayerData returns an unassigned player at the origin.
func NewPlayerData() PlayerData {
	return PlayerData{IngameID: Unassigned}
}

func NewPlayerDataForSeat(ingameID int) PlayerData {
	return PlayerData{IngameID: ingameID}
}

func NewPlayerDataWith(ingameID int, position kinematic.Vector, direction kinematic.Vector) PlayerData {
	return PlayerData{
		IngameID:  ingameID,
		Position:  position,
		Direction: direction,
	}
}

// InputChannel is the index of one input flag. The meaning of each index is
// fixed across clients and servers.
type InputChannel int

const (
	InputForward InputChannel = iota
	InputBackward
	InputLeft
	InputRight
	InputJump
	InputAction

	// InputCount is the number of input channels
	InputCount
)

func (c InputChannel) String() string {
	switch c {
	case InputForward:
		return "forward"
	case InputBackward:
		return "backward"
	case InputLeft:
		return "left"
	case InputRight:
		return "right"
	case InputJump:
		return "jump"
	case InputAction:
		return "action"
	default:
		return "unknown"
	}
}

// PlayerInputs are the input flags a client sent for its seat. Ordering
// across ticks is the transport's concern.
type PlayerInputs struct {
	IngameID int              `json:"ingameID"`
	Inputs   [InputCount]bool `json:"inputs"`
}

func NewPlayerInputs() PlayerInputs {
	return PlayerInputs{IngameID: Unassigned}
}

func NewPlayerInputsForSeat(ingameID int) PlayerInputs {
	return PlayerInputs{IngameID: ingameID}
}

func NewPlayerInputsWith(ingameID int, inputs [InputCount]bool) PlayerInputs {
	return PlayerInputs{IngameID: ingameID, Inputs: inputs}
}

// Pressed reports whether the channel is set. Unknown channels are never pressed.
func (p PlayerInputs) Pressed(ch InputChannel) bool {
	if ch < 0 || ch >= InputCount {
		return false
	}
	return p.Inputs[ch]
}

func (p *PlayerInputs) Set(ch InputChannel, pressed bool) {
	if ch < 0 || ch >= InputCount {
		return
	}
	p.Inputs[ch] = pressed
}
