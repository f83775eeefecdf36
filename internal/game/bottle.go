package game

import (
	"math"

	"github.com/floydverse/flappy-floyd/internal/geom"
	"github.com/floydverse/flappy-floyd/internal/protocol"
)

// Bottle is a pickup placed in a pipe gap.
type Bottle struct {
	Body
	age float64
}

func newBottle(id int, center geom.Vector2, cfg *Config) *Bottle {
	return &Bottle{Body: Body{
		ID:     id,
		X:      center.X - cfg.BottleWidth/2,
		Y:      center.Y - cfg.BottleHeight/2,
		Width:  cfg.BottleWidth,
		Height: cfg.BottleHeight,
	}}
}

func (b *Bottle) Kind() Kind  { return KindBottle }
func (b *Bottle) Base() *Body { return &b.Body }

func (b *Bottle) Update(g *Game, dt float64) {
	b.age += dt
	b.Rotation = math.Sin(b.age * 8)

	// The wobble is cosmetic; pickup uses the upright bounds.
	bounds := b.Rect()
	bounds.Rotation = 0
	for _, f := range g.floyds {
		if !f.Alive() || !geom.Collides(f.Rect(), bounds) {
			continue
		}
		g.awardScore(f, b.ID)
		f.collectBottle()
		g.Remove(b)
		return
	}
}

func (b *Bottle) State() protocol.ObjectState {
	return b.state(KindBottle)
}
