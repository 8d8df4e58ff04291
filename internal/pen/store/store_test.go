package store

import (
	"testing"

	"pen-tool/internal/pen/curve"
	"pen-tool/internal/pen/geom"
	"pen-tool/internal/pen/group"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func segment(a, b geom.Vec2) curve.Positions {
	return curve.Positions{
		Start:        a,
		End:          b,
		ControlStart: a.Lerp(b, 1.0/3),
		ControlEnd:   a.Lerp(b, 2.0/3),
	}
}

func spawn(t *testing.T, s *Store, p curve.Positions) curve.ID {
	t.Helper()
	b, err := s.Spawn(uuid.Nil, p, "")
	require.NoError(t, err)
	return b.ID
}

func edge(id curve.ID, e curve.Edge) curve.CurveEdge {
	return curve.CurveEdge{ID: id, Edge: e}
}

func TestSpawn(t *testing.T) {
	s := New()
	a := spawn(t, s, curve.Positions{})
	b, err := s.Curve(a)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, b.ID)
	assert.Equal(t, geom.V2(DefaultMinControlOffset, 0), b.Positions.ControlStart, "degenerate spawn is clamped")

	_, err = s.Spawn(a, curve.Positions{}, "")
	assert.ErrorIs(t, err, ErrDuplicateID)

	c := spawn(t, s, curve.Positions{})
	assert.NotEqual(t, a, c)
	assert.Equal(t, 2, s.Len())
}

func TestLatch_Symmetric(t *testing.T) {
	s := New()
	a := spawn(t, s, segment(geom.V2(0, 0), geom.V2(10, 0)))
	b := spawn(t, s, segment(geom.V2(0, 0), geom.V2(-10, 0)))

	require.NoError(t, s.Latch(edge(a, curve.EdgeStart), edge(b, curve.EdgeStart)))

	ca, _ := s.Curve(a)
	cb, _ := s.Curve(b)
	assert.Equal(t, curve.LatchData{LatchedTo: b, SelfEdge: curve.EdgeStart, PartnerEdge: curve.EdgeStart}, ca.Latches[curve.EdgeStart])
	assert.Equal(t, curve.LatchData{LatchedTo: a, SelfEdge: curve.EdgeStart, PartnerEdge: curve.EdgeStart}, cb.Latches[curve.EdgeStart])
	require.NoError(t, s.CheckLatches())

	partner, ok := s.Partner(edge(b, curve.EdgeStart))
	require.True(t, ok)
	assert.Equal(t, edge(a, curve.EdgeStart), partner)
}

func TestLatch_Rejections(t *testing.T) {
	s := New()
	a := spawn(t, s, segment(geom.V2(0, 0), geom.V2(10, 0)))
	b := spawn(t, s, segment(geom.V2(10, 0), geom.V2(20, 0)))
	c := spawn(t, s, segment(geom.V2(10, 0), geom.V2(10, 10)))
	require.NoError(t, s.Latch(edge(a, curve.EdgeEnd), edge(b, curve.EdgeStart)))

	tests := []struct {
		name string
		x, y curve.CurveEdge
		want error
	}{
		{"self", edge(a, curve.EdgeStart), edge(a, curve.EdgeEnd), ErrSelfLatch},
		{"occupied first", edge(a, curve.EdgeEnd), edge(c, curve.EdgeStart), ErrEdgeOccupied},
		{"occupied second", edge(c, curve.EdgeStart), edge(b, curve.EdgeStart), ErrEdgeOccupied},
		{"unknown", edge(c, curve.EdgeStart), edge(curve.NewID(), curve.EdgeStart), curve.ErrUnknownCurveID},
		{"bad edge", edge(c, "middle"), edge(b, curve.EdgeEnd), ErrInvalidAnchor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, s.Latch(tt.x, tt.y), tt.want)
			cc, _ := s.Curve(c)
			assert.Empty(t, cc.Latches, "rejected latch leaves state unchanged")
		})
	}
	require.NoError(t, s.CheckLatches())
}

func TestUnlatch(t *testing.T) {
	s := New()
	a := spawn(t, s, segment(geom.V2(0, 0), geom.V2(10, 0)))
	b := spawn(t, s, segment(geom.V2(10, 0), geom.V2(20, 0)))

	assert.ErrorIs(t, s.Unlatch(edge(a, curve.EdgeEnd), edge(b, curve.EdgeStart)), ErrNotLatched)

	require.NoError(t, s.Latch(edge(a, curve.EdgeEnd), edge(b, curve.EdgeStart)))
	assert.ErrorIs(t, s.Unlatch(edge(a, curve.EdgeEnd), edge(b, curve.EdgeEnd)), ErrNotLatched, "partner edge must match")

	require.NoError(t, s.Unlatch(edge(b, curve.EdgeStart), edge(a, curve.EdgeEnd)))
	ca, _ := s.Curve(a)
	cb, _ := s.Curve(b)
	assert.Empty(t, ca.Latches)
	assert.Empty(t, cb.Latches)
}

func TestRemove_CascadesUnlatch(t *testing.T) {
	s := New()
	a := spawn(t, s, curve.Positions{})
	b := spawn(t, s, curve.Positions{})
	require.NoError(t, s.Latch(edge(a, curve.EdgeStart), edge(b, curve.EdgeStart)))

	snapshot, err := s.Remove(a)
	require.NoError(t, err)
	assert.False(t, s.Has(a))

	cb, _ := s.Curve(b)
	assert.Empty(t, cb.Latches)
	require.NoError(t, s.CheckLatches())

	require.Len(t, snapshot.LatchList(), 1, "snapshot keeps what was cascaded away")

	_, err = s.Remove(a)
	assert.ErrorIs(t, err, curve.ErrUnknownCurveID)
}

func TestRestore(t *testing.T) {
	s := New()
	a := spawn(t, s, segment(geom.V2(0, 0), geom.V2(10, 0)))
	b := spawn(t, s, segment(geom.V2(10, 0), geom.V2(20, 0)))
	c := spawn(t, s, segment(geom.V2(10, 0), geom.V2(10, 10)))
	require.NoError(t, s.Latch(edge(a, curve.EdgeEnd), edge(b, curve.EdgeStart)))
	before, _ := s.Curve(a)
	positions := before.Positions

	snapshot, err := s.Remove(a)
	require.NoError(t, err)

	// Someone else grabbed b's start in the meantime.
	require.NoError(t, s.Latch(edge(c, curve.EdgeStart), edge(b, curve.EdgeStart)))
	assert.ErrorIs(t, s.Restore(snapshot), ErrEdgeOccupied)
	assert.False(t, s.Has(a), "failed restore changes nothing")

	require.NoError(t, s.Unlatch(edge(c, curve.EdgeStart), edge(b, curve.EdgeStart)))
	require.NoError(t, s.Restore(snapshot))
	ca, err := s.Curve(a)
	require.NoError(t, err)
	assert.Equal(t, positions, ca.Positions)
	assert.Equal(t, curve.LatchData{LatchedTo: b, SelfEdge: curve.EdgeEnd, PartnerEdge: curve.EdgeStart}, ca.Latches[curve.EdgeEnd])
	require.NoError(t, s.CheckLatches())

	assert.ErrorIs(t, s.Restore(snapshot), ErrDuplicateID)
}

func TestMoveAnchor_StartDragsControl(t *testing.T) {
	s := New()
	original := curve.Positions{
		Start:        geom.V2(10, 20),
		End:          geom.V2(100, 0),
		ControlStart: geom.V2(-10, 80),
		ControlEnd:   geom.V2(90, 50),
	}
	a := spawn(t, s, original)

	changes, err := s.MoveAnchor(a, curve.AnchorStart, geom.V2(0, 0))
	require.NoError(t, err)
	require.Len(t, changes, 1)

	want := curve.Positions{
		Start:        geom.V2(0, 0),
		End:          geom.V2(100, 0),
		ControlStart: geom.V2(-20, 60),
		ControlEnd:   geom.V2(90, 50),
	}
	ca, _ := s.Curve(a)
	assert.Equal(t, want, ca.Positions)
	assert.Equal(t, original, ca.PreviousPositions)
	assert.Equal(t, PositionChange{ID: a, Before: original, After: want}, changes[0])
}

func TestMoveAnchor_ControlOnly(t *testing.T) {
	s := New()
	a := spawn(t, s, segment(geom.V2(0, 0), geom.V2(30, 0)))
	_, err := s.MoveAnchor(a, curve.AnchorControlEnd, geom.V2(25, 40))
	require.NoError(t, err)

	ca, _ := s.Curve(a)
	assert.Equal(t, geom.V2(25, 40), ca.Positions.ControlEnd)
	assert.Equal(t, geom.V2(30, 0), ca.Positions.End)
	assert.True(t, ca.Dirty)
}

func TestMoveAnchor_PartnerFollows(t *testing.T) {
	s := New()
	a := spawn(t, s, curve.Positions{
		Start: geom.V2(0, 0), ControlStart: geom.V2(10, 0), ControlEnd: geom.V2(20, 0), End: geom.V2(30, 0),
	})
	b := spawn(t, s, curve.Positions{
		Start: geom.V2(30, 0), ControlStart: geom.V2(40, 0), ControlEnd: geom.V2(50, 0), End: geom.V2(60, 0),
	})
	require.NoError(t, s.Latch(edge(a, curve.EdgeEnd), edge(b, curve.EdgeStart)))

	changes, err := s.MoveAnchor(a, curve.AnchorEnd, geom.V2(30, 30))
	require.NoError(t, err)
	require.Len(t, changes, 2)

	ca, _ := s.Curve(a)
	cb, _ := s.Curve(b)
	assert.Equal(t, ca.Positions.End, cb.Positions.Start)
	assert.Equal(t, geom.V2(20, 30), ca.Positions.ControlEnd)
	assert.Equal(t, geom.V2(40, 30), cb.Positions.ControlStart)

	// Control points mirror through the joint.
	_, err = s.MoveAnchor(a, curve.AnchorControlEnd, geom.V2(20, 40))
	require.NoError(t, err)
	assert.Equal(t, geom.V2(40, 20), cb.Positions.ControlStart)

	require.NoError(t, s.ApplyChanges(changes, true))
	assert.Equal(t, changes[0].Before, ca.Positions)
	assert.Equal(t, changes[1].Before, cb.Positions)
}

func TestMoveAnchor_MirrorsPushedOutControl(t *testing.T) {
	s := New(WithMinControlOffset(2))
	a := spawn(t, s, segment(geom.V2(0, 0), geom.V2(30, 0)))
	b := spawn(t, s, segment(geom.V2(30, 0), geom.V2(30, 60)))
	require.NoError(t, s.Latch(edge(a, curve.EdgeEnd), edge(b, curve.EdgeStart)))

	_, err := s.MoveAnchor(a, curve.AnchorControlEnd, geom.V2(30, 0))
	require.NoError(t, err)

	ca, _ := s.Curve(a)
	cb, _ := s.Curve(b)
	assert.Equal(t, geom.V2(28, 0), ca.Positions.ControlEnd, "control is kept off its anchor")
	assert.Equal(t, geom.V2(32, 0), cb.Positions.ControlStart, "partner mirrors the stored control")
}

func TestMoveAnchor_Errors(t *testing.T) {
	s := New()
	a := spawn(t, s, segment(geom.V2(0, 0), geom.V2(30, 0)))

	_, err := s.MoveAnchor(curve.NewID(), curve.AnchorStart, geom.V2(1, 1))
	assert.ErrorIs(t, err, curve.ErrUnknownCurveID)

	_, err = s.MoveAnchor(a, "middle", geom.V2(1, 1))
	assert.ErrorIs(t, err, ErrInvalidAnchor)

	err = s.ApplyChanges([]PositionChange{{ID: curve.NewID()}}, true)
	assert.ErrorIs(t, err, curve.ErrUnknownCurveID)
}

func TestGroups_Lifecycle(t *testing.T) {
	s := New(WithSamples(20))
	a := spawn(t, s, segment(geom.V2(0, 0), geom.V2(10, 0)))
	b := spawn(t, s, segment(geom.V2(10, 0), geom.V2(20, 0)))
	c := spawn(t, s, segment(geom.V2(20, 0), geom.V2(30, 0)))
	require.NoError(t, s.Latch(edge(a, curve.EdgeEnd), edge(b, curve.EdgeStart)))
	require.NoError(t, s.Latch(edge(b, curve.EdgeEnd), edge(c, curve.EdgeStart)))

	_, err := s.Group([]curve.ID{a, c})
	assert.ErrorIs(t, err, group.ErrDisconnectedCurves)
	assert.Empty(t, s.Groups())

	g, err := s.Group([]curve.ID{a, b, c})
	require.NoError(t, err)
	assert.InDelta(t, 30, g.PathLength(), 1e-9)
	ca, _ := s.Curve(a)
	assert.Equal(t, g.ID, ca.Group)

	// Moving a member refreshes the merged table lazily.
	_, err = s.MoveAnchor(c, curve.AnchorEnd, geom.V2(40, 0))
	require.NoError(t, err)
	g, err = s.GroupByID(g.ID)
	require.NoError(t, err)
	assert.InDelta(t, 40, g.PathLength(), 1e-9)

	// Deleting an end member shrinks the group.
	_, err = s.Remove(c)
	require.NoError(t, err)
	g, err = s.GroupByID(g.ID)
	require.NoError(t, err)
	assert.Equal(t, []curve.ID{a, b}, g.IDs())

	// Splitting the chain dissolves it.
	require.NoError(t, s.Unlatch(edge(a, curve.EdgeEnd), edge(b, curve.EdgeStart)))
	_, err = s.GroupByID(g.ID)
	assert.ErrorIs(t, err, ErrUnknownGroupID)
	assert.False(t, ca.InGroup())
}

func TestGroups_RegroupMovesMembers(t *testing.T) {
	s := New(WithSamples(20))
	a := spawn(t, s, segment(geom.V2(0, 0), geom.V2(10, 0)))
	b := spawn(t, s, segment(geom.V2(10, 0), geom.V2(20, 0)))
	require.NoError(t, s.Latch(edge(a, curve.EdgeEnd), edge(b, curve.EdgeStart)))

	first, err := s.Group([]curve.ID{a, b})
	require.NoError(t, err)
	second, err := s.Group([]curve.ID{b})
	require.NoError(t, err)

	groups := s.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, []curve.ID{a}, groups[0].IDs())
	assert.Equal(t, first.ID, groups[0].ID)
	assert.Equal(t, second.ID, groups[1].ID)

	require.NoError(t, s.Ungroup(first.ID))
	assert.ErrorIs(t, s.Ungroup(first.ID), ErrUnknownGroupID)
	ca, _ := s.Curve(a)
	assert.False(t, ca.InGroup())
}

func TestRestore_RejoinsGroup(t *testing.T) {
	s := New(WithSamples(20))
	a := spawn(t, s, segment(geom.V2(0, 0), geom.V2(10, 0)))
	b := spawn(t, s, segment(geom.V2(10, 0), geom.V2(20, 0)))
	require.NoError(t, s.Latch(edge(a, curve.EdgeEnd), edge(b, curve.EdgeStart)))
	g, err := s.Group([]curve.ID{a, b})
	require.NoError(t, err)

	snapshot, err := s.Remove(b)
	require.NoError(t, err)
	require.NoError(t, s.Restore(snapshot))

	g, err = s.GroupByID(g.ID)
	require.NoError(t, err)
	assert.Equal(t, []curve.ID{a, b}, g.IDs())
	assert.InDelta(t, 20, g.PathLength(), 1e-9)
}

func TestRecompute(t *testing.T) {
	s := New(WithSamples(10))
	a := spawn(t, s, segment(geom.V2(0, 0), geom.V2(10, 0)))
	ca, _ := s.Curve(a)
	require.True(t, ca.Dirty)

	s.Recompute()
	assert.False(t, ca.Dirty)
	assert.Equal(t, 10, ca.LUT.Len())
}
