// Package protocol defines the JSON messages exchanged with game clients.
package protocol

import (
	"encoding/json"
	"errors"

	"github.com/floydverse/flappy-floyd/internal/geom"
)

// Client -> Server actions
const (
	ActionJoinSession  = "joinSession"
	ActionLeaveSession = "leaveSession"
	ActionJoinGame     = "joinGame"
	ActionJump         = "jump"
	ActionPause        = "pause"
	ActionQuit         = "quit"
)

// Server -> Client actions
const (
	ActionServerInfo     = "serverInfo"
	ActionPlayerInfo     = "playerInfo"
	ActionSessionJoin    = "sessionJoin"
	ActionSessionState   = "sessionState"
	ActionSessionQuit    = "sessionQuit"
	ActionGameStart      = "gameStart"
	ActionGameState      = "gameState"
	ActionGameQuit       = "gameQuit"
	ActionGameOver       = "gameOver"
	ActionScoreIncrement = "scoreIncrement"
)

var (
	ErrEmptyMessage  = errors.New("empty message")
	ErrMissingAction = errors.New("message has no action")
)

// Envelope wraps every outgoing message with its action name
type Envelope struct {
	Action string      `json:"action"`
	Data   interface{} `json:"data"`
}

// InEnvelope is used for incoming messages; Data stays raw until the action is known
type InEnvelope struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// DecodeEnvelope parses a client message.
func DecodeEnvelope(raw []byte) (InEnvelope, error) {
	var env InEnvelope
	if len(raw) == 0 {
		return env, ErrEmptyMessage
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, err
	}
	if env.Action == "" {
		return env, ErrMissingAction
	}
	return env, nil
}

// DecodeData unmarshals an action payload. Missing data yields the zero value.
func DecodeData[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 || string(raw) == "null" {
		return v, nil
	}
	err := json.Unmarshal(raw, &v)
	return v, err
}

// Empty is the payload of actions that carry no data
type Empty struct{}

// ServerInfo is sent once when a connection is accepted
type ServerInfo struct {
	TicksPerSecond int `json:"ticksPerSecond"`
}

// PlayerInfo tells a connection who it is
type PlayerInfo struct {
	PlayerID int    `json:"playerId"`
	Username string `json:"username"`
	Token    string `json:"token,omitempty"`
}

// SessionJoin confirms a player was placed in a session
type SessionJoin struct {
	SessionID string `json:"sessionId"`
}

// LobbyPlayer is one roster entry in SessionState
type LobbyPlayer struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// SessionState is the lobby roster broadcast
type SessionState struct {
	Players        []LobbyPlayer `json:"players"`
	Capacity       int           `json:"capacity"`
	MinimumPlayers int           `json:"minimumPlayers"`
	Timeout        int64         `json:"timeout"` // unix ms at which the lobby closes
}

// GameStart announces the world bounds of a new game
type GameStart struct {
	WorldWidth  float64 `json:"worldWidth"`
	WorldHeight float64 `json:"worldHeight"`
}

// ObjectState is the wire form of any world entity
type ObjectState struct {
	Type     string       `json:"type"`
	ID       int          `json:"id"`
	X        float64      `json:"x"`
	Y        float64      `json:"y"`
	Width    float64      `json:"width"`
	Height   float64      `json:"height"`
	Rotation float64      `json:"rotation"`
	Velocity geom.Vector2 `json:"velocity"`
	Gap      float64      `json:"gap,omitempty"`   // Pipe
	State    string       `json:"state,omitempty"` // Police
	Speed    float64      `json:"speed,omitempty"` // Narcan
}

// FloydState extends ObjectState with the scoring fields of a floyd
type FloydState struct {
	ObjectState
	Hearts            int `json:"hearts"`
	Score             int `json:"score"`
	FentStreak        int `json:"fentStreak"`
	CurrentMultiplier int `json:"currentMultiplier"`
	BottleCount       int `json:"bottleCount"`
}

// PlayerState is broadcast per player each tick
type PlayerState struct {
	ID        int         `json:"id"`
	Username  string      `json:"username"`
	Highscore int         `json:"highscore"`
	Floyd     *FloydState `json:"floyd"`
}

// GameState is the full per-tick snapshot
type GameState struct {
	State            string        `json:"state"`
	Players          []PlayerState `json:"players"`
	Objects          []ObjectState `json:"objects"`
	RemovedPlayerIDs []int         `json:"removedPlayerIds"`
	RemovedObjectIDs []int         `json:"removedObjectIds"`
}

// ScoreIncrement is sent to a player whenever their floyd scores
type ScoreIncrement struct {
	From   int `json:"from"`
	Gained int `json:"gained"`
	Score  int `json:"score"`
}

// GameQuit is sent to a player whose floyd has left the game
type GameQuit struct {
	Score int `json:"score"`
}

// JoinGame asks to keep receiving game snapshots after elimination
type JoinGame struct {
	Spectate bool `json:"spectate"`
}
