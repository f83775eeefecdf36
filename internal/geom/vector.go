// Package geom holds the 2D math shared by the simulation.
package geom

import "math"

// Epsilon is the magnitude below which a coordinate snaps to zero.
const Epsilon = 1e-10

// Vector2 is a point or direction in world space. +Y points down.
type Vector2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vec returns the vector (x, y).
func Vec(x, y float64) Vector2 {
	return Vector2{X: x, Y: y}
}

func (v Vector2) Add(o Vector2) Vector2 {
	return Vector2{v.X + o.X, v.Y + o.Y}
}

func (v Vector2) Sub(o Vector2) Vector2 {
	return Vector2{v.X - o.X, v.Y - o.Y}
}

func (v Vector2) Scale(s float64) Vector2 {
	return Vector2{v.X * s, v.Y * s}
}

// Dot returns the dot product of v and o.
func (v Vector2) Dot(o Vector2) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Length returns the magnitude of v.
func (v Vector2) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// Normalize returns v scaled to unit length, or the zero vector.
func (v Vector2) Normalize() Vector2 {
	l := v.Length()
	if l == 0 {
		return Vector2{}
	}
	return Vector2{v.X / l, v.Y / l}
}

// Perp returns v rotated a quarter turn.
func (v Vector2) Perp() Vector2 {
	return Vector2{-v.Y, v.X}
}

// Angle returns the heading of v in radians.
func (v Vector2) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// Distance returns the distance between two points.
func Distance(a, b Vector2) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// MoveTowards steps from current toward target by at most maxDelta,
// landing exactly on target when it is within reach.
func MoveTowards(current, target Vector2, maxDelta float64) Vector2 {
	d := target.Sub(current)
	dist := d.Length()
	if dist <= maxDelta || dist == 0 {
		return target
	}
	return current.Add(d.Scale(maxDelta / dist))
}

// FromAngle returns the vector of length l pointing along angle.
func FromAngle(angle, l float64) Vector2 {
	return Vector2{math.Cos(angle) * l, math.Sin(angle) * l}
}

// Lerp interpolates linearly between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Clamp restricts v to [min, max].
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// ClampToZero snaps values within Epsilon of zero to exactly zero.
func ClampToZero(v float64) float64 {
	if math.Abs(v) < Epsilon {
		return 0
	}
	return v
}
