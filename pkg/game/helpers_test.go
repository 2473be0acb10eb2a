package game

import "github.com/cbodonnell/roomsync/pkg/kinematic"

func vectorAt(x float64, z float64) kinematic.Vector {
	return kinematic.Vector{X: x, Z: z}
}
