package geom

// ============================================================
// Cubic Bezier
// ============================================================

const (
	// DefaultSamples is the number of uniform-t samples in a curve LUT.
	DefaultSamples = 100
	// MinBoundsSamples is the lowest sample count BoundingBox accepts.
	MinBoundsSamples = 100

	degenerateEps = 1e-12
	centralStep   = 1e-3
)

// Cubic is a cubic Bezier from P0 to P3 with control points P1, P2.
type Cubic struct {
	P0, P1, P2, P3 Vec2
}

// Eval evaluates the curve at t in [0,1].
func (c Cubic) Eval(t float64) Vec2 {
	mt := 1 - t
	mt2 := mt * mt
	mt3 := mt2 * mt
	t2 := t * t
	t3 := t2 * t

	return Vec2{
		X: mt3*c.P0.X + 3*mt2*t*c.P1.X + 3*mt*t2*c.P2.X + t3*c.P3.X,
		Y: mt3*c.P0.Y + 3*mt2*t*c.P1.Y + 3*mt*t2*c.P2.Y + t3*c.P3.Y,
	}
}

// Derivative returns dB/dt at t.
func (c Cubic) Derivative(t float64) Vec2 {
	mt := 1 - t
	a := c.P1.Sub(c.P0).Mul(3 * mt * mt)
	b := c.P2.Sub(c.P1).Mul(6 * mt * t)
	d := c.P3.Sub(c.P2).Mul(3 * t * t)
	return a.Add(b).Add(d)
}

// Tangent returns the unit tangent at t. When the derivative vanishes
// (a control point sitting on its anchor) it falls back to a central
// difference, then to the chord, then to +X.
func (c Cubic) Tangent(t float64) Vec2 {
	if d := c.Derivative(t); d.Length() > degenerateEps {
		return d.Normalize()
	}

	lo, hi := clamp01(t-centralStep), clamp01(t+centralStep)
	if d := c.Eval(hi).Sub(c.Eval(lo)); d.Length() > degenerateEps {
		return d.Normalize()
	}

	if chord := c.P3.Sub(c.P0); chord.Length() > degenerateEps {
		return chord.Normalize()
	}
	return Vec2{X: 1}
}

// Normal is the tangent rotated counter-clockwise.
func (c Cubic) Normal(t float64) Vec2 {
	return c.Tangent(t).Perp()
}

// BoundingBox samples the curve densely. The control polygon is not used
// since it overestimates the box.
func (c Cubic) BoundingBox(samples int) Rect {
	if samples < MinBoundsSamples {
		samples = MinBoundsSamples
	}
	r := EmptyRect().Extend(c.P0).Extend(c.P3)
	for i := 1; i < samples-1; i++ {
		r = r.Extend(c.Eval(float64(i) / float64(samples-1)))
	}
	return r
}

// Reversed returns the same curve traversed from P3 to P0.
func (c Cubic) Reversed() Cubic {
	return Cubic{P0: c.P3, P1: c.P2, P2: c.P1, P3: c.P0}
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
