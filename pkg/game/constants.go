package game

const (
	// PlayerSpeed is the speed at which players move on the ground plane
	PlayerSpeed float64 = 6.0
	// PlayerJumpSpeed is the initial vertical speed of a jump
	PlayerJumpSpeed float64 = 5.0
	// PlayerGravityMultiplier scales gravity for players
	PlayerGravityMultiplier float64 = 1.0
	// PlayerWidth is the player footprint along X
	PlayerWidth float64 = 1.0
	// PlayerDepth is the player footprint along Z
	PlayerDepth float64 = 1.0

	// LaneWidth is the X spacing between spawn lanes
	LaneWidth float64 = 4.0
	// WallThickness is the thickness of the arena walls
	WallThickness float64 = 1.0

	// DefaultArenaWidth is the default arena size along X
	DefaultArenaWidth float64 = 32.0
	// DefaultArenaLength is the default arena size along Z
	DefaultArenaLength float64 = 256.0
	// CollisionCellSize is the resolv cell size
	CollisionCellSize = 4

	// DefaultCalculationsPerSecond is the default simulation rate
	DefaultCalculationsPerSecond = 30
	// DefaultRaceTicks is how long a race lasts by default
	DefaultRaceTicks = 30 * 60
	// InputQueueSize bounds the pending inputs of one room
	InputQueueSize = 1024
)

const (
	CollisionSpaceTagLevel  = "level"
	CollisionSpaceTagPlayer = "player"
)
