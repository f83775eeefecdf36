// Package session groups players into lobbies and drives their games.
package session

import (
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/floydverse/flappy-floyd/internal/game"
	"github.com/floydverse/flappy-floyd/internal/protocol"
)

// Config controls lobby sizing and the games sessions start.
type Config struct {
	Capacity       int
	MinimumPlayers int
	LobbyTimeout   time.Duration
	Game           game.Config
}

// DefaultConfig returns the stock lobby settings.
func DefaultConfig() Config {
	return Config{
		Capacity:       4,
		MinimumPlayers: 1,
		LobbyTimeout:   4 * time.Second,
		Game:           game.DefaultConfig(),
	}
}

// Clamp keeps the lobby settings consistent.
func (c *Config) Clamp() {
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.MinimumPlayers < 1 {
		c.MinimumPlayers = 1
	}
	if c.MinimumPlayers > c.Capacity {
		c.MinimumPlayers = c.Capacity
	}
	if c.LobbyTimeout < 0 {
		c.LobbyTimeout = 0
	}
	c.Game.Clamp()
}

// State is the phase of a session.
type State int

const (
	StateLobby State = iota
	StateStarted
)

func (s State) String() string {
	if s == StateStarted {
		return "Started"
	}
	return "Lobby"
}

// Session is a lobby that turns into one game. It is owned by the
// registry goroutine and is not safe for concurrent use.
type Session struct {
	ID string

	cfg     Config
	state   State
	players []game.Player
	game    *game.Game
	created time.Time
	now     func() time.Time
	results game.ResultRecorder
	onQuit  func(*Session)
	ended   bool
}

// New opens a lobby. onQuit runs once when the session is finished,
// whether it dissolved or its game ended.
func New(cfg Config, now func() time.Time, results game.ResultRecorder, onQuit func(*Session)) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{
		ID:      uuid.NewString(),
		cfg:     cfg,
		created: now(),
		now:     now,
		results: results,
		onQuit:  onQuit,
	}
}

func (s *Session) State() State           { return s.state }
func (s *Session) Game() *game.Game       { return s.game }
func (s *Session) Players() []game.Player { return s.players }

// Ended reports whether the session has dissolved or finished its game.
func (s *Session) Ended() bool { return s.ended }

// Deadline returns when the lobby stops waiting for players.
func (s *Session) Deadline() time.Time {
	return s.created.Add(s.cfg.LobbyTimeout)
}

// Open reports whether the session can still take players.
func (s *Session) Open() bool {
	return !s.ended && s.state == StateLobby && len(s.players) < s.cfg.Capacity
}

// TryAddPlayer seats p if the lobby is open. A lobby that fills up
// starts its game immediately.
func (s *Session) TryAddPlayer(p game.Player) bool {
	if !s.Open() {
		return false
	}
	s.players = append(s.players, p)
	p.Send(protocol.NewFrame(protocol.ActionSessionJoin, protocol.SessionJoin{SessionID: s.ID}))
	s.broadcastRoster()
	log.Debug("Player joined session", "session", s.ID, "player", p.Username(), "players", len(s.players))

	if len(s.players) >= s.cfg.Capacity {
		s.startGame()
	}
	return true
}

// RemovePlayer takes p out of the session.
func (s *Session) RemovePlayer(p game.Player) {
	idx := -1
	for i, o := range s.players {
		if o == p {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	s.players = append(s.players[:idx], s.players[idx+1:]...)

	switch s.state {
	case StateLobby:
		if !s.ended {
			s.broadcastRoster()
		}
	case StateStarted:
		if s.game != nil {
			s.game.RemovePlayer(p)
		}
	}
}

// Update advances the lobby clock or the running game.
func (s *Session) Update(dt float64) {
	if s.ended {
		return
	}
	switch s.state {
	case StateLobby:
		if s.now().Before(s.Deadline()) {
			return
		}
		if len(s.players) < s.cfg.MinimumPlayers {
			s.dissolve()
			return
		}
		s.startGame()
	case StateStarted:
		s.game.Update(dt)
	}
}

// OnMessage routes a gameplay action from p. Actions arriving while
// no game is running are dropped.
func (s *Session) OnMessage(p game.Player, action string, data json.RawMessage) {
	if s.state != StateStarted || s.game == nil || s.game.State() == game.StateOver {
		return
	}
	switch action {
	case protocol.ActionJump:
		if f := p.Floyd(); f != nil {
			f.Jump()
		}
	case protocol.ActionPause:
		s.game.TogglePause(p)
	case protocol.ActionQuit:
		s.game.QuitPlayer(p)
	case protocol.ActionJoinGame:
		msg, err := protocol.DecodeData[protocol.JoinGame](data)
		if err != nil {
			log.Debug("Bad joinGame payload", "err", err)
			return
		}
		if msg.Spectate {
			s.game.Spectate(p)
		}
	default:
		log.Debug("Ignoring action", "action", action, "session", s.ID)
	}
}

// Quit ends the session, finishing any running game.
func (s *Session) Quit() {
	if s.ended {
		return
	}
	if s.game != nil {
		s.game.Quit()
		return
	}
	s.dissolve()
}

func (s *Session) startGame() {
	s.state = StateStarted
	s.game = game.New(s.cfg.Game, nil)
	s.game.SetResultRecorder(s.results)
	s.game.OnOver(s.gameOver)
	for _, p := range s.players {
		s.game.AddPlayer(p)
	}
	s.game.Start()
	log.Info("Game started", "session", s.ID, "players", len(s.players))
}

func (s *Session) gameOver() {
	frame := protocol.NewFrame(protocol.ActionGameOver, nil)
	for _, p := range s.players {
		p.Send(frame)
	}
	log.Info("Game over", "session", s.ID)
	s.finish()
}

func (s *Session) dissolve() {
	frame := protocol.NewFrame(protocol.ActionSessionQuit, nil)
	for _, p := range s.players {
		p.Send(frame)
	}
	log.Info("Session dissolved", "session", s.ID, "players", len(s.players))
	s.finish()
}

func (s *Session) finish() {
	if s.ended {
		return
	}
	s.ended = true
	if s.onQuit != nil {
		s.onQuit(s)
	}
}

func (s *Session) broadcastRoster() {
	roster := make([]protocol.LobbyPlayer, 0, len(s.players))
	for _, p := range s.players {
		roster = append(roster, protocol.LobbyPlayer{ID: p.ID(), Username: p.Username()})
	}
	frame := protocol.NewFrame(protocol.ActionSessionState, protocol.SessionState{
		Players:        roster,
		Capacity:       s.cfg.Capacity,
		MinimumPlayers: s.cfg.MinimumPlayers,
		Timeout:        s.Deadline().UnixMilli(),
	})
	for _, p := range s.players {
		p.Send(frame)
	}
}
