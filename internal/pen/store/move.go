package store

import (
	"fmt"

	"pen-tool/internal/pen/curve"
	"pen-tool/internal/pen/geom"
)

// PositionChange records the exact points of one curve before and after
// an edit.
type PositionChange struct {
	ID     curve.ID        `json:"id"`
	Before curve.Positions `json:"before"`
	After  curve.Positions `json:"after"`
}

// ============================================================
// Moves
// ============================================================

// MoveAnchor moves one point of a curve.
//
// Moving an end point drags its control point by the same delta, and a
// latched partner's end point (with its control) follows. Moving a
// control point on a latched edge mirrors the partner's control point
// through the shared anchor so the joint stays smooth.
func (s *Store) MoveAnchor(id curve.ID, a curve.Anchor, to geom.Vec2) ([]PositionChange, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAnchor, a)
	}
	b, err := s.Curve(id)
	if err != nil {
		return nil, err
	}

	edge := a.Edge()
	own := b.Positions
	if a.IsControl() {
		own = own.With(a, to)
	} else {
		delta := to.Sub(own.At(a))
		own = own.With(a, to).With(edge.Control(), own.At(edge.Control()).Add(delta))
	}
	own = own.Sanitize(s.minControlOffset)
	changes := []PositionChange{{ID: id, Before: b.Positions, After: own}}

	if l, ok := b.LatchAt(edge); ok {
		partner, err := s.Curve(l.LatchedTo)
		if err != nil {
			return nil, fmt.Errorf("move %s/%s: broken latch: %w", id, a, err)
		}
		pp := partner.Positions
		pAnchor, pControl := l.PartnerEdge.Anchor(), l.PartnerEdge.Control()
		if a.IsControl() {
			arm := own.At(a).Sub(own.At(edge.Anchor()))
			pp = pp.With(pControl, pp.At(pAnchor).Sub(arm))
		} else {
			delta := to.Sub(pp.At(pAnchor))
			pp = pp.With(pAnchor, to).With(pControl, pp.At(pControl).Add(delta))
		}
		pp = pp.Sanitize(s.minControlOffset)
		changes = append(changes, PositionChange{ID: partner.ID, Before: partner.Positions, After: pp})
	}

	for _, c := range changes {
		s.setPositions(s.curves[c.ID], c.After)
	}
	return changes, nil
}

// ApplyChanges writes the Before (undo) or After (redo) side of changes.
// All ids are checked before anything is written.
func (s *Store) ApplyChanges(changes []PositionChange, before bool) error {
	for _, c := range changes {
		if !s.Has(c.ID) {
			return fmt.Errorf("%w: %s", curve.ErrUnknownCurveID, c.ID)
		}
	}
	for _, c := range changes {
		p := c.After
		if before {
			p = c.Before
		}
		s.setPositions(s.curves[c.ID], p)
	}
	return nil
}

func (s *Store) setPositions(b *curve.Bezier, p curve.Positions) {
	b.SetPositions(p)
	s.touch(b)
}
