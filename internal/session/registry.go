package session

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/floydverse/flappy-floyd/internal/game"
	"github.com/floydverse/flappy-floyd/internal/protocol"
)

const actionBufSize = 1024

// ActionKind distinguishes player messages from disconnects.
type ActionKind int

const (
	ActionMessage ActionKind = iota
	ActionDisconnect
)

// Action is one queued mutation of the registry.
type Action struct {
	Kind   ActionKind
	Player game.Player
	Name   string
	Data   json.RawMessage
}

// Stats is a point-in-time count for health reporting.
type Stats struct {
	Sessions int `json:"sessions"`
	Players  int `json:"players"`
}

// Registry owns every session. Connections submit actions from their
// own goroutines; Run applies them and ticks the sessions on a single
// goroutine, so sessions and games never see concurrent access.
type Registry struct {
	cfg      Config
	tickRate int
	results  game.ResultRecorder
	now      func() time.Time

	sessions []*Session
	members  map[game.Player]*Session
	ended    []*Session

	actions chan Action
	done    chan struct{}

	sessionCount atomic.Int64
	playerCount  atomic.Int64
}

// NewRegistry creates a registry ticking at tickRate Hz.
func NewRegistry(cfg Config, tickRate int, results game.ResultRecorder) *Registry {
	if tickRate <= 0 {
		tickRate = 20
	}
	return &Registry{
		cfg:      cfg,
		tickRate: tickRate,
		results:  results,
		now:      time.Now,
		members:  make(map[game.Player]*Session),
		actions:  make(chan Action, actionBufSize),
		done:     make(chan struct{}),
	}
}

// TickRate returns the scheduler frequency in Hz.
func (r *Registry) TickRate() int { return r.tickRate }

// Stats returns the current session and player counts.
func (r *Registry) Stats() Stats {
	return Stats{
		Sessions: int(r.sessionCount.Load()),
		Players:  int(r.playerCount.Load()),
	}
}

// Submit queues an action. It returns false once the registry has stopped.
func (r *Registry) Submit(a Action) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.actions <- a:
		return true
	case <-r.done:
		return false
	}
}

// Run applies queued actions and ticks every session until ctx is done.
func (r *Registry) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(r.tickRate)
	dt := 1 / float64(r.tickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer close(r.done)

	log.Info("Scheduler running", "tickRate", r.tickRate)
	for {
		select {
		case <-ctx.Done():
			r.shutdown()
			return nil
		case a := <-r.actions:
			r.apply(a)
		case <-ticker.C:
			r.Tick(dt)
		}
	}
}

// Tick advances every session by dt and discards the ones that ended.
func (r *Registry) Tick(dt float64) {
	for _, s := range r.sessions {
		s.Update(dt)
	}
	r.discardEnded()
}

func (r *Registry) apply(a Action) {
	switch a.Kind {
	case ActionDisconnect:
		r.leave(a.Player)
	case ActionMessage:
		switch a.Name {
		case protocol.ActionJoinSession:
			r.join(a.Player)
		case protocol.ActionLeaveSession:
			r.leave(a.Player)
		default:
			s, ok := r.members[a.Player]
			if !ok {
				log.Debug("Action outside a session", "action", a.Name, "player", a.Player.ID())
				return
			}
			s.OnMessage(a.Player, a.Name, a.Data)
		}
	}
	r.discardEnded()
}

// join seats p in the first open session, creating one if none fits.
func (r *Registry) join(p game.Player) {
	if _, ok := r.members[p]; ok {
		return
	}
	for _, s := range r.sessions {
		if s.TryAddPlayer(p) {
			r.members[p] = s
			r.updateCounts()
			return
		}
	}

	s := New(r.cfg, r.now, r.results, r.onSessionQuit)
	r.sessions = append(r.sessions, s)
	log.Info("Session created", "session", s.ID)
	if s.TryAddPlayer(p) {
		r.members[p] = s
	}
	r.updateCounts()
}

func (r *Registry) leave(p game.Player) {
	s, ok := r.members[p]
	if !ok {
		return
	}
	delete(r.members, p)
	s.RemovePlayer(p)
	r.updateCounts()
}

func (r *Registry) onSessionQuit(s *Session) {
	r.ended = append(r.ended, s)
}

// discardEnded drops finished sessions. Their players are free to join again.
func (r *Registry) discardEnded() {
	if len(r.ended) == 0 {
		return
	}
	for _, s := range r.ended {
		for _, p := range s.Players() {
			if r.members[p] == s {
				delete(r.members, p)
			}
		}
		for i, o := range r.sessions {
			if o == s {
				r.sessions = append(r.sessions[:i], r.sessions[i+1:]...)
				break
			}
		}
	}
	r.ended = r.ended[:0]
	r.updateCounts()
}

func (r *Registry) shutdown() {
	for _, s := range r.sessions {
		s.Quit()
	}
	r.discardEnded()
	log.Info("Scheduler stopped")
}

func (r *Registry) updateCounts() {
	r.sessionCount.Store(int64(len(r.sessions)))
	r.playerCount.Store(int64(len(r.members)))
}
