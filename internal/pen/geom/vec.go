package geom

import "math"

// ============================================================
// Vec2
// ============================================================

// Vec2 is a point or a direction in the canvas plane.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func V2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

func (v Vec2) Add(w Vec2) Vec2 {
	return Vec2{X: v.X + w.X, Y: v.Y + w.Y}
}

func (v Vec2) Sub(w Vec2) Vec2 {
	return Vec2{X: v.X - w.X, Y: v.Y - w.Y}
}

func (v Vec2) Mul(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

func (v Vec2) Dot(w Vec2) float64 {
	return v.X*w.X + v.Y*w.Y
}

func (v Vec2) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

func (v Vec2) Distance(w Vec2) float64 {
	return v.Sub(w).Length()
}

// Normalize returns the unit vector in the direction of v, or the zero
// vector when v has no length.
func (v Vec2) Normalize() Vec2 {
	l := v.Length()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{X: v.X / l, Y: v.Y / l}
}

// Perp rotates v by 90 degrees counter-clockwise.
func (v Vec2) Perp() Vec2 {
	return Vec2{X: -v.Y, Y: v.X}
}

// Lerp interpolates between v (t=0) and w (t=1). Both ends are exact.
func (v Vec2) Lerp(w Vec2, t float64) Vec2 {
	return Vec2{
		X: v.X*(1-t) + w.X*t,
		Y: v.Y*(1-t) + w.Y*t,
	}
}

func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Approx reports whether v and w differ by less than eps on both axes.
func (v Vec2) Approx(w Vec2, eps float64) bool {
	return math.Abs(v.X-w.X) < eps && math.Abs(v.Y-w.Y) < eps
}

// ============================================================
// Rect
// ============================================================

// Rect is an axis-aligned bounding box.
type Rect struct {
	Min Vec2 `json:"min"`
	Max Vec2 `json:"max"`
}

// EmptyRect returns a rect that any Extend call will replace.
func EmptyRect() Rect {
	return Rect{
		Min: Vec2{X: math.Inf(1), Y: math.Inf(1)},
		Max: Vec2{X: math.Inf(-1), Y: math.Inf(-1)},
	}
}

func (r Rect) IsEmpty() bool {
	return r.Min.X > r.Max.X || r.Min.Y > r.Max.Y
}

// Extend grows r to contain p.
func (r Rect) Extend(p Vec2) Rect {
	return Rect{
		Min: Vec2{X: math.Min(r.Min.X, p.X), Y: math.Min(r.Min.Y, p.Y)},
		Max: Vec2{X: math.Max(r.Max.X, p.X), Y: math.Max(r.Max.Y, p.Y)},
	}
}

func (r Rect) Union(other Rect) Rect {
	if other.IsEmpty() {
		return r
	}
	return r.Extend(other.Min).Extend(other.Max)
}

func (r Rect) Width() float64 {
	return r.Max.X - r.Min.X
}

func (r Rect) Height() float64 {
	return r.Max.Y - r.Min.Y
}

func (r Rect) Center() Vec2 {
	return r.Min.Lerp(r.Max, 0.5)
}
