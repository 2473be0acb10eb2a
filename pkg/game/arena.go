package game

import (
	"math"

	"github.com/solarlune/resolv"
)

// Arena is the walled ground plane of a room. The collision space maps
// world X to resolv X and world Z to resolv Y.
type Arena struct {
	Width  float64
	Length float64
}

func DefaultArena() Arena {
	return Arena{Width: DefaultArenaWidth, Length: DefaultArenaLength}
}

// fit widens the arena so every seat gets its own lane.
func (a Arena) fit(seats int) Arena {
	if a.Width <= 0 {
		a.Width = DefaultArenaWidth
	}
	if a.Length <= 0 {
		a.Length = DefaultArenaLength
	}
	minWidth := 2*WallThickness + float64(seats)*LaneWidth
	a.Width = math.Max(a.Width, minWidth)
	return a
}

// SpawnX returns the X coordinate of a seat's lane.
func (a Arena) SpawnX(seat int) float64 {
	return WallThickness + float64(seat)*LaneWidth + (LaneWidth-PlayerWidth)/2
}

// SpawnZ returns the Z coordinate players start from.
func (a Arena) SpawnZ() float64 {
	return WallThickness
}

// NewCollisionSpace builds the arena walls.
func (a Arena) NewCollisionSpace() *resolv.Space {
	w, l := a.Width, a.Length
	space := resolv.NewSpace(int(math.Ceil(w)), int(math.Ceil(l)), CollisionCellSize, CollisionCellSize)
	space.Add(
		resolv.NewObject(0, 0, w, WallThickness, CollisionSpaceTagLevel),
		resolv.NewObject(0, l-WallThickness, w, WallThickness, CollisionSpaceTagLevel),
		resolv.NewObject(0, WallThickness, WallThickness, l-2*WallThickness, CollisionSpaceTagLevel),
		resolv.NewObject(w-WallThickness, WallThickness, WallThickness, l-2*WallThickness, CollisionSpaceTagLevel),
	)
	return space
}
