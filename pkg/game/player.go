package game

import (
	"math"

	"github.com/cbodonnell/roomsync/pkg/kinematic"
	"github.com/cbodonnell/roomsync/pkg/session"
	"github.com/solarlune/resolv"
)

// playerState is the simulation state of one seat.
type playerState struct {
	userID    int
	ingameID  int
	position  kinematic.Vector
	velocityY float64
	direction kinematic.Vector
	onGround  bool
	start     kinematic.Vector
	object    *resolv.Object
}

func newPlayerState(userID int, ingameID int, spawn kinematic.Vector) *playerState {
	return &playerState{
		userID:    userID,
		ingameID:  ingameID,
		position:  spawn,
		direction: kinematic.Forward(),
		onGround:  true,
		start:     spawn,
		object:    resolv.NewObject(spawn.X, spawn.Z, PlayerWidth, PlayerDepth, CollisionSpaceTagPlayer),
	}
}

// update moves the player for one tick of deltaTime seconds.
func (p *playerState) update(inputs session.PlayerInputs, deltaTime float64) {
	// Ground plane
	move := kinematic.Zero()
	if inputs.Pressed(session.InputForward) {
		move.Z += 1
	}
	if inputs.Pressed(session.InputBackward) {
		move.Z -= 1
	}
	if inputs.Pressed(session.InputRight) {
		move.X += 1
	}
	if inputs.Pressed(session.InputLeft) {
		move.X -= 1
	}
	move = move.Normalize()

	dx, _ := p.sweep(move.X*PlayerSpeed*deltaTime, 0)
	_, dz := p.sweep(0, move.Z*PlayerSpeed*deltaTime)

	// Vertical
	vy := p.velocityY
	if inputs.Pressed(session.InputJump) && p.onGround {
		vy = PlayerJumpSpeed
	}
	dy := kinematic.Displacement(vy, deltaTime, kinematic.Gravity*PlayerGravityMultiplier)
	vy = kinematic.FinalVelocity(vy, deltaTime, kinematic.Gravity*PlayerGravityMultiplier)
	onGround := false
	if p.position.Y+dy <= 0 {
		dy = -p.position.Y
		vy = 0
		onGround = true
	}

	p.position = p.position.Add(kinematic.Vector{X: dx, Y: dy, Z: dz})
	p.velocityY = vy
	p.onGround = onGround
	if move != kinematic.Zero() {
		p.direction = move
	}

	p.object.Position.X = p.position.X
	p.object.Position.Y = p.position.Z
	p.object.Update()
}

// sweep clamps a move in collision space so the player stops at the first
// wall its footprint would overlap. Walls that only share a cell are ignored.
func (p *playerState) sweep(dx float64, dy float64) (float64, float64) {
	collision := p.object.Check(dx, dy, CollisionSpaceTagLevel)
	if collision == nil {
		return dx, dy
	}
	for _, wall := range collision.Objects {
		if !overlaps(p.object, wall, dx, dy) {
			continue
		}
		contact := collision.ContactWithObject(wall)
		if dx != 0 && math.Abs(contact.X) < math.Abs(dx) {
			dx = contact.X
		}
		if dy != 0 && math.Abs(contact.Y) < math.Abs(dy) {
			dy = contact.Y
		}
	}
	return dx, dy
}

func overlaps(obj *resolv.Object, other *resolv.Object, dx float64, dy float64) bool {
	x, y := obj.Position.X+dx, obj.Position.Y+dy
	return x < other.Position.X+other.Size.X && x+obj.Size.X > other.Position.X &&
		y < other.Position.Y+other.Size.Y && y+obj.Size.Y > other.Position.Y
}

// distance is how far the player got along +Z from its spawn.
func (p *playerState) distance() float64 {
	return p.position.Z - p.start.Z
}

func (p *playerState) data() session.PlayerData {
	return session.NewPlayerDataWith(p.ingameID, p.position, p.direction)
}

func (p *playerState) standing() Standing {
	return Standing{
		UserID:   p.userID,
		IngameID: p.ingameID,
		Position: p.position,
		Distance: p.distance(),
	}
}
