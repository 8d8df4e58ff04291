package history

import (
	"pen-tool/internal/pen/curve"
	"pen-tool/internal/pen/geom"
	"pen-tool/internal/pen/store"
)

type Kind string

const (
	KindMovedAnchor  Kind = "moved_anchor"
	KindSpawnedCurve Kind = "spawned_curve"
	KindDeletedCurve Kind = "deleted_curve"
	KindLatched      Kind = "latched"
	KindUnlatched    Kind = "unlatched"
)

// Action is one reversible structural edit.
type Action interface {
	Kind() Kind
	Undo(s *store.Store) error
	Redo(s *store.Store) error
}

// ============================================================
// Moves
// ============================================================

// MovedAnchor is a single anchor move. Changes holds the full before and
// after positions of every curve the move touched, partner included.
type MovedAnchor struct {
	BezierID         curve.ID               `json:"bezier_id"`
	Anchor           curve.Anchor           `json:"anchor"`
	PreviousPosition geom.Vec2              `json:"previous_position"`
	NewPosition      geom.Vec2              `json:"new_position"`
	Changes          []store.PositionChange `json:"changes"`
}

func (MovedAnchor) Kind() Kind { return KindMovedAnchor }

func (a MovedAnchor) Undo(s *store.Store) error {
	return s.ApplyChanges(a.Changes, true)
}

func (a MovedAnchor) Redo(s *store.Store) error {
	return s.ApplyChanges(a.Changes, false)
}

// ============================================================
// Lifecycle
// ============================================================

// SpawnedCurve keeps the curve as it was spawned.
type SpawnedCurve struct {
	Curve *curve.Bezier `json:"curve"`
}

func (SpawnedCurve) Kind() Kind { return KindSpawnedCurve }

func (a SpawnedCurve) Undo(s *store.Store) error {
	_, err := s.Remove(a.Curve.ID)
	return err
}

func (a SpawnedCurve) Redo(s *store.Store) error {
	return s.Restore(a.Curve)
}

// DeletedCurve keeps the curve as it was right before deletion, with the
// latches the delete cascaded away. Group lists the members of the
// curve's group in walk order, if it had one.
type DeletedCurve struct {
	Curve *curve.Bezier `json:"curve"`
	Group []curve.ID    `json:"group,omitempty"`
}

func (DeletedCurve) Kind() Kind { return KindDeletedCurve }

func (a DeletedCurve) Undo(s *store.Store) error {
	if err := s.Restore(a.Curve); err != nil {
		return err
	}
	return s.Regroup(a.Curve.Group, a.Group)
}

// Redo deletes again. The partners lose their latches again; only undo
// brings them back.
func (a DeletedCurve) Redo(s *store.Store) error {
	_, err := s.Remove(a.Curve.ID)
	return err
}

// ============================================================
// Latches
// ============================================================

type Latched struct {
	A curve.CurveEdge `json:"a"`
	B curve.CurveEdge `json:"b"`
}

func (Latched) Kind() Kind { return KindLatched }

func (a Latched) Undo(s *store.Store) error {
	return s.Unlatch(a.A, a.B)
}

func (a Latched) Redo(s *store.Store) error {
	return s.Latch(a.A, a.B)
}

type Unlatched struct {
	A curve.CurveEdge `json:"a"`
	B curve.CurveEdge `json:"b"`
}

func (Unlatched) Kind() Kind { return KindUnlatched }

func (a Unlatched) Undo(s *store.Store) error {
	return s.Latch(a.A, a.B)
}

func (a Unlatched) Redo(s *store.Store) error {
	return s.Unlatch(a.A, a.B)
}
