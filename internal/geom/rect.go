package geom

import "math"

// Rect is an axis-aligned box at (X, Y) with size Width x Height,
// rotated by Rotation radians about its center.
type Rect struct {
	X, Y          float64
	Width, Height float64
	Rotation      float64
}

// Center returns the midpoint of r.
func (r Rect) Center() Vector2 {
	return Vector2{r.X + r.Width/2, r.Y + r.Height/2}
}

// Vertices returns the four corners of r after rotation, in
// top-left, top-right, bottom-right, bottom-left order.
func (r Rect) Vertices() [4]Vector2 {
	c := r.Center()
	corners := [4]Vector2{
		{r.X, r.Y},
		{r.X + r.Width, r.Y},
		{r.X + r.Width, r.Y + r.Height},
		{r.X, r.Y + r.Height},
	}
	if r.Rotation == 0 {
		return corners
	}
	var out [4]Vector2
	for i, p := range corners {
		d := p.Sub(c)
		dist := d.Length()
		angle := d.Angle() + r.Rotation
		out[i] = Vector2{
			X: ClampToZero(c.X + dist*math.Cos(angle)),
			Y: ClampToZero(c.Y + dist*math.Sin(angle)),
		}
	}
	return out
}

// Edges returns the edge vectors between consecutive vertices.
func (r Rect) Edges() [4]Vector2 {
	v := r.Vertices()
	var e [4]Vector2
	for i := range v {
		e[i] = v[(i+1)%4].Sub(v[i])
	}
	return e
}

// Normals returns the unit perpendicular of each edge.
func (r Rect) Normals() [4]Vector2 {
	e := r.Edges()
	var n [4]Vector2
	for i := range e {
		n[i] = e[i].Perp().Normalize()
	}
	return n
}

// Project returns the interval covered by r's vertices on axis.
func (r Rect) Project(axis Vector2) (min, max float64) {
	return project(r.Vertices(), axis)
}

func project(vertices [4]Vector2, axis Vector2) (min, max float64) {
	min = math.Inf(1)
	max = math.Inf(-1)
	for _, v := range vertices {
		p := v.Dot(axis)
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	return min, max
}

// Collides reports whether two rotated rectangles overlap, using the
// separating axis test over both rectangles' edge normals. Touching
// edges count as a collision.
func Collides(a, b Rect) bool {
	va, vb := a.Vertices(), b.Vertices()
	for _, normals := range [2][4]Vector2{a.Normals(), b.Normals()} {
		for _, axis := range normals {
			minA, maxA := project(va, axis)
			minB, maxB := project(vb, axis)
			if maxA < minB || maxB < minA {
				return false
			}
		}
	}
	return true
}

// AABBOverlap reports whether the unrotated bounds of a and b overlap.
func AABBOverlap(a, b Rect) bool {
	return a.X <= b.X+b.Width && b.X <= a.X+a.Width &&
		a.Y <= b.Y+b.Height && b.Y <= a.Y+a.Height
}
