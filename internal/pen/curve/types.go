package curve

import (
	"errors"
	"fmt"

	"pen-tool/internal/pen/geom"

	"github.com/google/uuid"
)

// ErrUnknownCurveID is returned for lookups of ids absent from the store.
var ErrUnknownCurveID = errors.New("unknown curve id")

// ============================================================
// Identity
// ============================================================

// ID identifies a curve for the lifetime of a session.
type ID = uuid.UUID

// NewID returns a random curve id.
func NewID() ID {
	return uuid.New()
}

// ParseID parses the canonical string form of an id.
func ParseID(s string) (ID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse curve id %q: %w", s, err)
	}
	return id, nil
}

// ============================================================
// Edges & anchors
// ============================================================

// Edge is the end of a curve that takes part in a latch.
type Edge string

const (
	EdgeStart Edge = "start"
	EdgeEnd   Edge = "end"
)

func (e Edge) Valid() bool {
	return e == EdgeStart || e == EdgeEnd
}

func (e Edge) Opposite() Edge {
	if e == EdgeStart {
		return EdgeEnd
	}
	return EdgeStart
}

// Anchor returns the end point anchor of e.
func (e Edge) Anchor() Anchor {
	if e == EdgeStart {
		return AnchorStart
	}
	return AnchorEnd
}

// Control returns the control point anchor attached to e.
func (e Edge) Control() Anchor {
	if e == EdgeStart {
		return AnchorControlStart
	}
	return AnchorControlEnd
}

// Anchor names one of the four points of a curve.
type Anchor string

const (
	AnchorStart        Anchor = "start"
	AnchorEnd          Anchor = "end"
	AnchorControlStart Anchor = "control_start"
	AnchorControlEnd   Anchor = "control_end"
)

func (a Anchor) Valid() bool {
	switch a {
	case AnchorStart, AnchorEnd, AnchorControlStart, AnchorControlEnd:
		return true
	}
	return false
}

// Edge returns the edge a point belongs to.
func (a Anchor) Edge() Edge {
	if a == AnchorStart || a == AnchorControlStart {
		return EdgeStart
	}
	return EdgeEnd
}

func (a Anchor) IsControl() bool {
	return a == AnchorControlStart || a == AnchorControlEnd
}

// ============================================================
// Positions
// ============================================================

// Positions are the four points of a cubic curve.
type Positions struct {
	Start        geom.Vec2 `json:"start"`
	End          geom.Vec2 `json:"end"`
	ControlStart geom.Vec2 `json:"control_start"`
	ControlEnd   geom.Vec2 `json:"control_end"`
}

// At returns the point named by a.
func (p Positions) At(a Anchor) geom.Vec2 {
	switch a {
	case AnchorEnd:
		return p.End
	case AnchorControlStart:
		return p.ControlStart
	case AnchorControlEnd:
		return p.ControlEnd
	default:
		return p.Start
	}
}

// With returns a copy of p with the point named by a replaced.
func (p Positions) With(a Anchor, v geom.Vec2) Positions {
	switch a {
	case AnchorEnd:
		p.End = v
	case AnchorControlStart:
		p.ControlStart = v
	case AnchorControlEnd:
		p.ControlEnd = v
	default:
		p.Start = v
	}
	return p
}

func (p Positions) Cubic() geom.Cubic {
	return geom.Cubic{P0: p.Start, P1: p.ControlStart, P2: p.ControlEnd, P3: p.End}
}

// Sanitize pushes control points that sit within minOffset of their anchor
// out along the chord, so the tangent at each end is never zero. With a
// zero chord the start control moves along +X and the end control along -X.
func (p Positions) Sanitize(minOffset float64) Positions {
	if minOffset <= 0 {
		return p
	}
	chord := p.End.Sub(p.Start).Normalize()
	startDir, endDir := chord, chord.Mul(-1)
	if chord.IsZero() {
		startDir, endDir = geom.V2(1, 0), geom.V2(-1, 0)
	}
	if p.ControlStart.Distance(p.Start) < minOffset {
		p.ControlStart = p.Start.Add(startDir.Mul(minOffset))
	}
	if p.ControlEnd.Distance(p.End) < minOffset {
		p.ControlEnd = p.End.Add(endDir.Mul(minOffset))
	}
	return p
}

// ============================================================
// Latches
// ============================================================

// LatchData is one half of a symmetric latch, stored on the curve that
// owns SelfEdge.
type LatchData struct {
	LatchedTo   ID   `json:"latched_to"`
	SelfEdge    Edge `json:"self_edge"`
	PartnerEdge Edge `json:"partners_edge"`
}

// Mirror returns the half stored on the partner curve.
func (l LatchData) Mirror(self ID) LatchData {
	return LatchData{LatchedTo: self, SelfEdge: l.PartnerEdge, PartnerEdge: l.SelfEdge}
}

// CurveEdge addresses one edge of one curve.
type CurveEdge struct {
	ID   ID   `json:"id"`
	Edge Edge `json:"edge"`
}

func (c CurveEdge) String() string {
	return fmt.Sprintf("%s/%s", c.ID, c.Edge)
}
