package game

import (
	"math/rand"

	"github.com/floydverse/flappy-floyd/internal/protocol"
)

type fakePlayer struct {
	id     int
	name   string
	high   int
	floyd  *Floyd
	frames []*protocol.Frame
}

func newFakePlayer(id int) *fakePlayer {
	return &fakePlayer{id: id, name: "anon"}
}

func (p *fakePlayer) ID() int                { return p.id }
func (p *fakePlayer) Username() string       { return p.name }
func (p *fakePlayer) Highscore() int         { return p.high }
func (p *fakePlayer) Send(f *protocol.Frame) { p.frames = append(p.frames, f) }
func (p *fakePlayer) Floyd() *Floyd          { return p.floyd }
func (p *fakePlayer) AttachFloyd(f *Floyd)   { p.floyd = f }

func (p *fakePlayer) count(action string) int {
	n := 0
	for _, f := range p.frames {
		if f.Action == action {
			n++
		}
	}
	return n
}

func (p *fakePlayer) last(action string) *protocol.Frame {
	for i := len(p.frames) - 1; i >= 0; i-- {
		if p.frames[i].Action == action {
			return p.frames[i]
		}
	}
	return nil
}

func (p *fakePlayer) lastState() protocol.GameState {
	f := p.last(protocol.ActionGameState)
	if f == nil {
		return protocol.GameState{}
	}
	return f.Data.(protocol.GameState)
}

type fakeRecorder struct {
	scores map[int]int
	calls  int
}

func (r *fakeRecorder) RecordResult(p Player, f *Floyd) {
	if r.scores == nil {
		r.scores = make(map[int]int)
	}
	r.scores[p.ID()] = f.Score
	r.calls++
}

// quietConfig disables gravity and world generation so entity tests
// control exactly what is in the world.
func quietConfig() Config {
	cfg := DefaultConfig()
	cfg.Gravity = 0
	cfg.FirstPipeX = 1e9
	cfg.PoliceChance = 0
	cfg.BottleChance = 0
	return cfg
}

// startedGame returns a started game with one floyd per player.
func startedGame(cfg Config, players ...*fakePlayer) *Game {
	g := New(cfg, rand.New(rand.NewSource(1)))
	for _, p := range players {
		g.AddPlayer(p)
	}
	g.Start()
	return g
}

func hasObject(g *Game, id int) bool {
	for _, o := range g.Objects() {
		if o.Base().ID == id {
			return true
		}
	}
	return false
}

func countKind(g *Game, k Kind) int {
	n := 0
	for _, o := range g.Objects() {
		if o.Kind() == k {
			n++
		}
	}
	return n
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
