package curve

import (
	"fmt"

	"pen-tool/internal/pen/geom"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

// ============================================================
// Bezier curve entity
// ============================================================

type Bezier struct {
	ID                ID                 `json:"id"`
	Positions         Positions          `json:"positions"`
	PreviousPositions Positions          `json:"-"`
	Latches           map[Edge]LatchData `json:"latches"`
	Color             string             `json:"color,omitempty"`
	Group             uuid.UUID          `json:"group"`

	// LUT is a cache; it is only valid while Dirty is false.
	LUT     geom.LUT `json:"-"`
	Samples int      `json:"-"`
	Dirty   bool     `json:"-"`
}

// New creates a dirty curve; the LUT is built on first use.
func New(id ID, positions Positions, color string, samples int) *Bezier {
	if samples < 2 {
		samples = geom.DefaultSamples
	}
	return &Bezier{
		ID:                id,
		Positions:         positions,
		PreviousPositions: positions,
		Latches:           make(map[Edge]LatchData, 2),
		Color:             color,
		Samples:           samples,
		Dirty:             true,
	}
}

func (b *Bezier) Cubic() geom.Cubic {
	return b.Positions.Cubic()
}

func (b *Bezier) Evaluate(t float64) geom.Vec2 {
	return b.Cubic().Eval(t)
}

func (b *Bezier) Normal(t float64) geom.Vec2 {
	return b.Cubic().Normal(t)
}

func (b *Bezier) BoundingBox() geom.Rect {
	return b.Cubic().BoundingBox(b.Samples)
}

func (b *Bezier) Position(a Anchor) geom.Vec2 {
	return b.Positions.At(a)
}

// SetPosition moves one point and marks the LUT stale.
func (b *Bezier) SetPosition(a Anchor, v geom.Vec2) {
	b.SetPositions(b.Positions.With(a, v))
}

// SetPositions replaces all four points, keeping the old ones in
// PreviousPositions.
func (b *Bezier) SetPositions(p Positions) {
	b.PreviousPositions = b.Positions
	b.Positions = p
	b.Dirty = true
}

// RecomputeLUTIfDirty rebuilds the LUT when the positions changed since
// the last build. It reports whether a rebuild happened.
func (b *Bezier) RecomputeLUTIfDirty() bool {
	if !b.Dirty {
		return false
	}
	b.LUT = geom.BuildLUT(b.Cubic(), b.Samples)
	b.Dirty = false
	return true
}

// Table returns an up to date LUT.
func (b *Bezier) Table() geom.LUT {
	b.RecomputeLUTIfDirty()
	return b.LUT
}

func (b *Bezier) PathLength() float64 {
	return b.Table().PathLength
}

func (b *Bezier) PositionAtFraction(f float64) geom.Vec2 {
	return b.Table().PositionAtFraction(f)
}

func (b *Bezier) NormalAtFraction(f float64) geom.Vec2 {
	return b.Table().NormalAtFraction(f)
}

// ============================================================
// Latch accessors
// ============================================================

func (b *Bezier) LatchAt(e Edge) (LatchData, bool) {
	l, ok := b.Latches[e]
	return l, ok
}

// LatchList returns the latches in edge order, start first.
func (b *Bezier) LatchList() []LatchData {
	var out []LatchData
	for _, e := range [2]Edge{EdgeStart, EdgeEnd} {
		if l, ok := b.Latches[e]; ok {
			out = append(out, l)
		}
	}
	return out
}

func (b *Bezier) InGroup() bool {
	return b.Group != uuid.Nil
}

// Clone deep copies the curve, latches included.
func (b *Bezier) Clone() (*Bezier, error) {
	var out Bezier
	if err := copier.CopyWithOption(&out, b, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("clone curve %s: %w", b.ID, err)
	}
	if out.Latches == nil {
		out.Latches = make(map[Edge]LatchData, 2)
	}
	return &out, nil
}
