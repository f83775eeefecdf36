package session

import (
	"sync"
	"time"

	"github.com/floydverse/flappy-floyd/internal/game"
	"github.com/floydverse/flappy-floyd/internal/protocol"
)

type fakePlayer struct {
	id    int
	floyd *game.Floyd

	mu     sync.Mutex
	frames []*protocol.Frame
}

func newFakePlayer(id int) *fakePlayer {
	return &fakePlayer{id: id}
}

func (p *fakePlayer) ID() int                   { return p.id }
func (p *fakePlayer) Username() string          { return "anon" }
func (p *fakePlayer) Highscore() int            { return 0 }
func (p *fakePlayer) Floyd() *game.Floyd        { return p.floyd }
func (p *fakePlayer) AttachFloyd(f *game.Floyd) { p.floyd = f }

func (p *fakePlayer) Send(f *protocol.Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = append(p.frames, f)
}

func (p *fakePlayer) count(action string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, f := range p.frames {
		if f.Action == action {
			n++
		}
	}
	return n
}

func (p *fakePlayer) last(action string) *protocol.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.frames) - 1; i >= 0; i-- {
		if p.frames[i].Action == action {
			return p.frames[i]
		}
	}
	return nil
}

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Game.FirstPipeX = 1e9
	cfg.Game.PoliceChance = 0
	cfg.Game.Gravity = 0
	return cfg
}
