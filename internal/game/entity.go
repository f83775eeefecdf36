package game

import (
	"github.com/floydverse/flappy-floyd/internal/geom"
	"github.com/floydverse/flappy-floyd/internal/protocol"
)

// Kind tags each entity on the wire.
type Kind string

const (
	KindFloyd  Kind = "Floyd"
	KindPipe   Kind = "Pipe"
	KindBottle Kind = "Bottle"
	KindNarcan Kind = "Narcan"
	KindPolice Kind = "Police"
)

// Body is the data every entity carries.
type Body struct {
	ID       int
	X, Y     float64
	Width    float64
	Height   float64
	Rotation float64
	Velocity geom.Vector2
	Solid    bool
}

// Rect returns the collision rectangle of b.
func (b *Body) Rect() geom.Rect {
	return geom.Rect{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height, Rotation: b.Rotation}
}

// Center returns the midpoint of b.
func (b *Body) Center() geom.Vector2 {
	return geom.Vec(b.X+b.Width/2, b.Y+b.Height/2)
}

func (b *Body) state(kind Kind) protocol.ObjectState {
	return protocol.ObjectState{
		Type:     string(kind),
		ID:       b.ID,
		X:        b.X,
		Y:        b.Y,
		Width:    b.Width,
		Height:   b.Height,
		Rotation: b.Rotation,
		Velocity: b.Velocity,
	}
}

// Object is a non-player entity living in a game's object list.
// Update must not add to or remove from the list directly; it goes
// through Game.Spawn and Game.Remove, which defer until the tick's
// iteration is over.
type Object interface {
	Kind() Kind
	Base() *Body
	Update(g *Game, dt float64)
	State() protocol.ObjectState
}
