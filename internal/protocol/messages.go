package protocol

import (
	"github.com/google/uuid"

	"thermite-server/internal/game"
)

// Client -> Server message types
const (
	TypeMove      = "Move"
	TypePlaceBomb = "PlaceBomb"
	TypeExtract   = "Extract"
	TypePing      = "Ping"
)

// Server -> Client message types
const (
	TypeWelcome            = "Welcome"
	TypeStateUpdate        = "StateUpdate"
	TypeCommandAck         = "CommandAck"
	TypePlayerDied         = "PlayerDied"
	TypePlayerDamaged      = "PlayerDamaged"
	TypeBombDetonation     = "BombDetonation"
	TypeMatchEnded         = "MatchEnded"
	TypePong               = "Pong"
	TypeError              = "Error"
	TypeLobbyCountdown     = "LobbyCountdown"
	TypePlayerDisconnected = "PlayerDisconnected"
)

// ClientMessage is implemented only by the client message structs below
type ClientMessage interface {
	Type() string
	clientMessage()
}

// ServerMessage is implemented only by the server message structs below
type ServerMessage interface {
	Type() string
	serverMessage()
}

type Move struct {
	Direction game.Direction `json:"direction"`
	Sequence  uint64         `json:"sequence"`
}

type PlaceBomb struct {
	Sequence uint64 `json:"sequence"`
}

type Extract struct {
	Sequence uint64 `json:"sequence"`
}

type Ping struct {
	Timestamp uint64 `json:"timestamp"`
}

func (Move) Type() string      { return TypeMove }
func (PlaceBomb) Type() string { return TypePlaceBomb }
func (Extract) Type() string   { return TypeExtract }
func (Ping) Type() string      { return TypePing }

func (Move) clientMessage()      {}
func (PlaceBomb) clientMessage() {}
func (Extract) clientMessage()   {}
func (Ping) clientMessage()      {}

// PlayerState is the broadcast view of a player
type PlayerState struct {
	ID       uuid.UUID     `json:"id"`
	Position game.Position `json:"position"`
	Health   int           `json:"health"`
	IsAlive  bool          `json:"is_alive"`
}

// BombState is the broadcast view of an armed bomb
type BombState struct {
	ID       uuid.UUID     `json:"id"`
	Position game.Position `json:"position"`
	OwnerID  uuid.UUID     `json:"owner_id"`
	TimerMs  uint64        `json:"timer_ms"`
}

// MatchEndReason says why a match stopped
type MatchEndReason string

const (
	ReasonTimerExpired        MatchEndReason = "TimerExpired"
	ReasonAllPlayersExtracted MatchEndReason = "AllPlayersExtracted"
	ReasonAllPlayersDead      MatchEndReason = "AllPlayersDead"
	ReasonServerShutdown      MatchEndReason = "ServerShutdown"
)

type Welcome struct {
	PlayerID   uuid.UUID `json:"player_id"`
	TickRateMs uint64    `json:"tick_rate_ms"`
}

type StateUpdate struct {
	Tick            uint64        `json:"tick"`
	Players         []PlayerState `json:"players"`
	Bombs           []BombState   `json:"bombs"`
	TimeRemainingMs uint64        `json:"time_remaining_ms"`
}

// CommandAck answers one client command. Sequence is always the
// sequence the client sent, whether or not the command succeeded.
type CommandAck struct {
	Sequence uint64         `json:"sequence"`
	Success  bool           `json:"success"`
	Position *game.Position `json:"position,omitempty"`
	Error    string         `json:"error,omitempty"`
}

type PlayerDied struct {
	PlayerID uuid.UUID     `json:"player_id"`
	KillerID uuid.UUID     `json:"killer_id"`
	Position game.Position `json:"position"`
}

type PlayerDamaged struct {
	PlayerID     uuid.UUID `json:"player_id"`
	DamageAmount int       `json:"damage_amount"`
	NewHealth    int       `json:"new_health"`
	KillerID     uuid.UUID `json:"killer_id"`
}

type BombDetonation struct {
	BombID         uuid.UUID       `json:"bomb_id"`
	Position       game.Position   `json:"position"`
	BlastTiles     []game.Position `json:"blast_tiles"`
	DestroyedTiles []game.Position `json:"destroyed_tiles"`
}

type MatchEnded struct {
	Reason MatchEndReason `json:"reason"`
}

type Pong struct {
	Timestamp uint64 `json:"timestamp"`
}

type Error struct {
	Message string `json:"message"`
}

type LobbyCountdown struct {
	SecondsRemaining uint32 `json:"seconds_remaining"`
}

type PlayerDisconnected struct {
	PlayerID uuid.UUID `json:"player_id"`
}

func (Welcome) Type() string            { return TypeWelcome }
func (StateUpdate) Type() string        { return TypeStateUpdate }
func (CommandAck) Type() string         { return TypeCommandAck }
func (PlayerDied) Type() string         { return TypePlayerDied }
func (PlayerDamaged) Type() string      { return TypePlayerDamaged }
func (BombDetonation) Type() string     { return TypeBombDetonation }
func (MatchEnded) Type() string         { return TypeMatchEnded }
func (Pong) Type() string               { return TypePong }
func (Error) Type() string              { return TypeError }
func (LobbyCountdown) Type() string     { return TypeLobbyCountdown }
func (PlayerDisconnected) Type() string { return TypePlayerDisconnected }

func (Welcome) serverMessage()            {}
func (StateUpdate) serverMessage()        {}
func (CommandAck) serverMessage()         {}
func (PlayerDied) serverMessage()         {}
func (PlayerDamaged) serverMessage()      {}
func (BombDetonation) serverMessage()     {}
func (MatchEnded) serverMessage()         {}
func (Pong) serverMessage()               {}
func (Error) serverMessage()              {}
func (LobbyCountdown) serverMessage()     {}
func (PlayerDisconnected) serverMessage() {}

// PlayerStates converts match players to their broadcast view
func PlayerStates(players []game.Player) []PlayerState {
	out := make([]PlayerState, len(players))
	for i, p := range players {
		out[i] = PlayerState{ID: p.ID, Position: p.Position, Health: p.Health, IsAlive: p.Alive}
	}
	return out
}

// BombStates converts armed bombs to their broadcast view
func BombStates(bombs []game.Bomb, tickRateMs uint64) []BombState {
	out := make([]BombState, len(bombs))
	for i, b := range bombs {
		out[i] = BombState{ID: b.ID, Position: b.Position, OwnerID: b.OwnerID, TimerMs: b.TimerMs(tickRateMs)}
	}
	return out
}
