// Package protocol defines the line-delimited JSON messages exchanged with
// clients. Every record is one JSON object carrying a "type" tag.
package protocol

import (
	"encoding/json"

	"github.com/pixil98/go-arena/internal/game"
)

const (
	TypeMoveStart          = "moveStart"
	TypeMoveStop           = "moveStop"
	TypeChat               = "chat"
	TypeShoot              = "shoot"
	TypeYourInfo           = "yourInfo"
	TypeCurrentPlayers     = "currentPlayers"
	TypeNewPlayer          = "newPlayer"
	TypePlayerDisconnected = "playerDisconnected"
	TypeState              = "state"
)

// Message is the closed set of records understood by the server.
type Message interface {
	Type() string
	message()
}

// MoveStart sets an input flag.
type MoveStart struct {
	Direction game.Direction `json:"direction"`
}

// MoveStop clears an input flag.
type MoveStop struct {
	Direction game.Direction `json:"direction"`
}

// Chat is sent by a client with only Text, and relayed by the server with
// the sender's ID.
type Chat struct {
	ID   game.PlayerID `json:"id,omitempty"`
	Text string        `json:"text"`
}

// Shoot spawns a projectile from the sender.
type Shoot struct{}

// YourInfo tells a new client who it is.
type YourInfo struct {
	ID     game.PlayerID    `json:"id"`
	Player game.PlayerState `json:"player"`
}

// CurrentPlayers is the full roster at join time.
type CurrentPlayers struct {
	Players map[game.PlayerID]game.PlayerState `json:"players"`
}

// NewPlayer announces a join to everyone else.
type NewPlayer struct {
	Player game.PlayerState `json:"player"`
}

// PlayerDisconnected announces a departure.
type PlayerDisconnected struct {
	ID game.PlayerID `json:"id"`
}

// State is the per-tick authoritative snapshot.
type State struct {
	Tick        uint64                             `json:"tick"`
	Players     map[game.PlayerID]game.PlayerState `json:"players"`
	Projectiles []game.Projectile                  `json:"projectiles"`
}

// Unknown holds a well-formed record whose tag this server does not know.
type Unknown struct {
	Tag string
	Raw json.RawMessage
}

func (MoveStart) Type() string          { return TypeMoveStart }
func (MoveStop) Type() string           { return TypeMoveStop }
func (Chat) Type() string               { return TypeChat }
func (Shoot) Type() string              { return TypeShoot }
func (YourInfo) Type() string           { return TypeYourInfo }
func (CurrentPlayers) Type() string     { return TypeCurrentPlayers }
func (NewPlayer) Type() string          { return TypeNewPlayer }
func (PlayerDisconnected) Type() string { return TypePlayerDisconnected }
func (State) Type() string              { return TypeState }
func (u Unknown) Type() string          { return u.Tag }

func (MoveStart) message()          {}
func (MoveStop) message()           {}
func (Chat) message()               {}
func (Shoot) message()              {}
func (YourInfo) message()           {}
func (CurrentPlayers) message()     {}
func (NewPlayer) message()          {}
func (PlayerDisconnected) message() {}
func (State) message()              {}
func (Unknown) message()            {}

// NewState converts a world snapshot into a state message.
func NewState(snap game.Snapshot) State {
	s := State{
		Tick:        snap.Tick,
		Players:     snap.Players,
		Projectiles: snap.Projectiles,
	}
	if s.Players == nil {
		s.Players = map[game.PlayerID]game.PlayerState{}
	}
	if s.Projectiles == nil {
		s.Projectiles = []game.Projectile{}
	}
	return s
}
