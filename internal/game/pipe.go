package game

import (
	"github.com/floydverse/flappy-floyd/internal/geom"
	"github.com/floydverse/flappy-floyd/internal/protocol"
)

// Pipe is a pair of obstacles with a gap between them. The body is the
// upper half; the lower half sits one gap below it with the same size.
type Pipe struct {
	Body
	Gap    float64
	passed map[int]bool
}

func newPipe(id int, x, y float64, cfg *Config) *Pipe {
	return &Pipe{
		Body: Body{
			ID:     id,
			X:      x,
			Y:      y,
			Width:  cfg.PipeWidth,
			Height: cfg.PipeHeight,
			Solid:  true,
		},
		Gap:    cfg.PipeGap,
		passed: make(map[int]bool),
	}
}

func (p *Pipe) Kind() Kind  { return KindPipe }
func (p *Pipe) Base() *Body { return &p.Body }

// LowerRect returns the collision rectangle of the lower half.
func (p *Pipe) LowerRect() geom.Rect {
	r := p.Rect()
	r.Y = p.Y + p.Height + p.Gap
	return r
}

// GapCenter returns the midpoint of the opening.
func (p *Pipe) GapCenter() geom.Vector2 {
	return geom.Vec(p.X+p.Width/2, p.Y+p.Height+p.Gap/2)
}

func (p *Pipe) Update(g *Game, dt float64) {
	if grow := g.cfg.KneeGrowth * dt; grow > 0 {
		p.X -= grow / 2
		p.Width += grow
	}

	for _, f := range g.floyds {
		if !f.Alive() || p.passed[f.ID] {
			continue
		}
		fr := f.Rect()
		if geom.Collides(fr, p.Rect()) || geom.Collides(fr, p.LowerRect()) {
			f.LoseHeart()
			g.Remove(p)
			return
		}
		if f.X > p.X+p.Width+g.cfg.PipePassOffset {
			p.passed[f.ID] = true
			g.awardScore(f, p.ID)
		}
	}
}

func (p *Pipe) State() protocol.ObjectState {
	s := p.state(KindPipe)
	s.Gap = p.Gap
	return s
}
