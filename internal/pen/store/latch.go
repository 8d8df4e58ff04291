package store

import (
	"fmt"

	"pen-tool/internal/pen/curve"

	"github.com/gofiber/fiber/v3/log"
)

// ============================================================
// Latch graph
// ============================================================

// Latch connects two edges. Both halves are written or neither is.
func (s *Store) Latch(a, b curve.CurveEdge) error {
	if !a.Edge.Valid() || !b.Edge.Valid() {
		return fmt.Errorf("%w: latch %s to %s", ErrInvalidAnchor, a, b)
	}
	if a.ID == b.ID {
		return fmt.Errorf("%w: %s", ErrSelfLatch, a.ID)
	}
	ca, err := s.Curve(a.ID)
	if err != nil {
		return err
	}
	cb, err := s.Curve(b.ID)
	if err != nil {
		return err
	}
	if held, ok := ca.LatchAt(a.Edge); ok {
		return fmt.Errorf("%w: %s held by %s", ErrEdgeOccupied, a, held.LatchedTo)
	}
	if held, ok := cb.LatchAt(b.Edge); ok {
		return fmt.Errorf("%w: %s held by %s", ErrEdgeOccupied, b, held.LatchedTo)
	}

	s.link(a, b)
	return nil
}

// Unlatch disconnects two edges. ErrNotLatched is returned when a and b
// are not latched to each other; nothing changes in that case.
func (s *Store) Unlatch(a, b curve.CurveEdge) error {
	if !a.Edge.Valid() || !b.Edge.Valid() {
		return fmt.Errorf("%w: unlatch %s from %s", ErrInvalidAnchor, a, b)
	}
	ca, err := s.Curve(a.ID)
	if err != nil {
		return err
	}
	cb, err := s.Curve(b.ID)
	if err != nil {
		return err
	}
	l, ok := ca.LatchAt(a.Edge)
	if !ok || l.LatchedTo != b.ID || l.PartnerEdge != b.Edge {
		return fmt.Errorf("%w: %s, %s", ErrNotLatched, a, b)
	}

	delete(ca.Latches, a.Edge)
	delete(cb.Latches, b.Edge)
	s.touch(ca)
	s.touch(cb)
	log.Debugf("[STORE] unlatched %s from %s", a, b)
	return nil
}

// Partner returns the edge latched to e, if any.
func (s *Store) Partner(e curve.CurveEdge) (curve.CurveEdge, bool) {
	b, ok := s.curves[e.ID]
	if !ok {
		return curve.CurveEdge{}, false
	}
	l, ok := b.LatchAt(e.Edge)
	if !ok {
		return curve.CurveEdge{}, false
	}
	return curve.CurveEdge{ID: l.LatchedTo, Edge: l.PartnerEdge}, true
}

// link writes both halves of a latch. Callers validate first.
func (s *Store) link(a, b curve.CurveEdge) {
	ca, cb := s.curves[a.ID], s.curves[b.ID]
	ca.Latches[a.Edge] = curve.LatchData{LatchedTo: b.ID, SelfEdge: a.Edge, PartnerEdge: b.Edge}
	cb.Latches[b.Edge] = curve.LatchData{LatchedTo: a.ID, SelfEdge: b.Edge, PartnerEdge: a.Edge}
	s.touch(ca)
	s.touch(cb)
	log.Debugf("[STORE] latched %s to %s", a, b)
}

// CheckLatches verifies that every latch is stored on both sides and
// points at a live curve.
func (s *Store) CheckLatches() error {
	for _, id := range s.order {
		b := s.curves[id]
		for e, l := range b.Latches {
			if l.SelfEdge != e {
				return fmt.Errorf("curve %s: latch at %s claims edge %s", id, e, l.SelfEdge)
			}
			partner, ok := s.curves[l.LatchedTo]
			if !ok {
				return fmt.Errorf("curve %s/%s: %w: %s", id, e, curve.ErrUnknownCurveID, l.LatchedTo)
			}
			back, ok := partner.LatchAt(l.PartnerEdge)
			if !ok || back != l.Mirror(id) {
				return fmt.Errorf("curve %s/%s: latch to %s/%s is one-sided", id, e, l.LatchedTo, l.PartnerEdge)
			}
		}
	}
	return nil
}
