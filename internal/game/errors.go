package game

import "errors"

// Movement and bomb placement rejections. These are routine and reported
// back to the client in a command acknowledgment.
var (
	ErrPlayerDead         = errors.New("player is dead")
	ErrOutOfBounds        = errors.New("movement would go out of bounds")
	ErrTileBlocked        = errors.New("target tile is blocked")
	ErrNoBombsRemaining   = errors.New("no bombs remaining in inventory")
	ErrCooldownNotElapsed = errors.New("cooldown not elapsed")
	ErrTileOccupied       = errors.New("tile already has a bomb")
)

// Match membership errors
var (
	ErrPlayerNotFound  = errors.New("player not found")
	ErrDuplicatePlayer = errors.New("player already in match")
	ErrInvalidSpawn    = errors.New("invalid spawn position")
	ErrMatchNotActive  = errors.New("match is not active")
)

// Template and generation errors. Both abort match creation.
var (
	ErrInvalidTemplate = errors.New("invalid template")
	ErrConnectivity    = errors.New("connectivity error")
)
