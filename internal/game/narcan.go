package game

import (
	"math"

	"github.com/floydverse/flappy-floyd/internal/geom"
	"github.com/floydverse/flappy-floyd/internal/protocol"
)

// Narcan is a projectile fired by police. It either homes on the
// nearest floyd or flies along the heading it was fired with.
type Narcan struct {
	Body
	Speed  float64
	Homing bool
	age    float64
}

func newNarcan(id int, pos geom.Vector2, angle float64, cfg *Config) *Narcan {
	n := &Narcan{
		Body: Body{
			ID:       id,
			X:        pos.X,
			Y:        pos.Y,
			Width:    cfg.NarcanWidth,
			Height:   cfg.NarcanHeight,
			Velocity: geom.FromAngle(angle, cfg.NarcanSpeed),
		},
		Speed:  cfg.NarcanSpeed,
		Homing: cfg.NarcanHoming,
	}
	n.Rotation = angle + math.Pi/2
	return n
}

func (n *Narcan) Kind() Kind  { return KindNarcan }
func (n *Narcan) Base() *Body { return &n.Body }

func (n *Narcan) Update(g *Game, dt float64) {
	n.age += dt
	if n.age >= g.cfg.NarcanLifetime {
		g.Remove(n)
		return
	}

	center := n.Center()
	next := center.Add(n.Velocity.Scale(dt))
	if n.Homing {
		if target := g.nearestFloyd(center); target != nil {
			tc := target.Center()
			if dir := tc.Sub(center); dir.Length() > 0 {
				n.Velocity = dir.Normalize().Scale(n.Speed)
			}
			next = geom.MoveTowards(center, tc, n.Speed*dt)
		}
	}
	n.X += next.X - center.X
	n.Y += next.Y - center.Y
	if n.Velocity.Length() > 0 {
		n.Rotation = n.Velocity.Angle() + math.Pi/2
	}

	r := n.Rect()
	for _, f := range g.floyds {
		if f.Alive() && geom.Collides(r, f.Rect()) {
			f.LoseHeart()
			g.Remove(n)
			return
		}
	}
}

func (n *Narcan) State() protocol.ObjectState {
	s := n.state(KindNarcan)
	s.Speed = n.Speed
	return s
}
