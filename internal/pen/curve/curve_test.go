package curve

import (
	"encoding/json"
	"testing"

	"pen-tool/internal/pen/geom"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPositions() Positions {
	return Positions{
		Start:        geom.V2(0, 0),
		End:          geom.V2(100, 0),
		ControlStart: geom.V2(0, 100),
		ControlEnd:   geom.V2(100, 100),
	}
}

func TestPositions_AtWith(t *testing.T) {
	p := testPositions()
	for _, a := range []Anchor{AnchorStart, AnchorEnd, AnchorControlStart, AnchorControlEnd} {
		moved := p.With(a, geom.V2(-1, -1))
		assert.Equal(t, geom.V2(-1, -1), moved.At(a), "anchor %s", a)
	}
	assert.Equal(t, geom.V2(0, 0), p.Start, "With must not mutate the receiver")
}

func TestPositions_Sanitize(t *testing.T) {
	t.Run("healthy curve untouched", func(t *testing.T) {
		p := testPositions()
		assert.Equal(t, p, p.Sanitize(0.01))
	})

	t.Run("controls pushed along the chord", func(t *testing.T) {
		p := Positions{Start: geom.V2(0, 0), End: geom.V2(10, 0), ControlStart: geom.V2(0, 0), ControlEnd: geom.V2(10, 0)}
		s := p.Sanitize(0.5)
		assert.Equal(t, geom.V2(0.5, 0), s.ControlStart)
		assert.Equal(t, geom.V2(9.5, 0), s.ControlEnd)
	})

	t.Run("single point spawn", func(t *testing.T) {
		var p Positions
		s := p.Sanitize(0.001)
		assert.Equal(t, geom.V2(0.001, 0), s.ControlStart)
		assert.Equal(t, geom.V2(-0.001, 0), s.ControlEnd)

		n := New(NewID(), s, "", 0).Normal(0)
		assert.InDelta(t, 1, n.Length(), 1e-9)
	})

	t.Run("disabled", func(t *testing.T) {
		var p Positions
		assert.Equal(t, p, p.Sanitize(0))
	})
}

func TestEdgeAndAnchor(t *testing.T) {
	assert.Equal(t, EdgeEnd, EdgeStart.Opposite())
	assert.Equal(t, AnchorControlEnd, EdgeEnd.Control())
	assert.Equal(t, AnchorStart, EdgeStart.Anchor())
	assert.Equal(t, EdgeStart, AnchorControlStart.Edge())
	assert.True(t, AnchorControlEnd.IsControl())
	assert.False(t, Anchor("middle").Valid())
	assert.False(t, Edge("middle").Valid())
}

func TestBezier_DirtyLUT(t *testing.T) {
	b := New(NewID(), testPositions(), "#ff0000", 50)
	require.True(t, b.Dirty)

	assert.True(t, b.RecomputeLUTIfDirty())
	assert.False(t, b.RecomputeLUTIfDirty(), "second call is a no-op")
	assert.Equal(t, 50, b.LUT.Len())

	before := b.PathLength()
	b.SetPosition(AnchorEnd, geom.V2(200, 0))
	assert.True(t, b.Dirty)
	assert.Equal(t, geom.V2(100, 0), b.PreviousPositions.End)
	assert.Greater(t, b.PathLength(), before)
	assert.False(t, b.Dirty)
}

func TestBezier_FractionEndpoints(t *testing.T) {
	b := New(NewID(), testPositions(), "", 0)
	assert.Equal(t, b.Positions.Start, b.PositionAtFraction(0))
	assert.True(t, b.PositionAtFraction(1).Approx(b.Positions.End, 1e-9))
}

func TestBezier_Clone(t *testing.T) {
	b := New(NewID(), testPositions(), "#00ff00", 0)
	partner := NewID()
	b.Latches[EdgeEnd] = LatchData{LatchedTo: partner, SelfEdge: EdgeEnd, PartnerEdge: EdgeStart}

	c, err := b.Clone()
	require.NoError(t, err)
	assert.Equal(t, b.ID, c.ID)
	assert.Equal(t, b.Positions, c.Positions)
	assert.Equal(t, b.Latches, c.Latches)

	delete(c.Latches, EdgeEnd)
	_, ok := b.LatchAt(EdgeEnd)
	assert.True(t, ok, "clone shares no map with the original")
}

func TestLatchData_Mirror(t *testing.T) {
	a, b := NewID(), NewID()
	half := LatchData{LatchedTo: b, SelfEdge: EdgeStart, PartnerEdge: EdgeEnd}
	assert.Equal(t, LatchData{LatchedTo: a, SelfEdge: EdgeEnd, PartnerEdge: EdgeStart}, half.Mirror(a))
}

func TestBezier_JSON(t *testing.T) {
	b := New(NewID(), testPositions(), "#123456", 0)
	b.Latches[EdgeStart] = LatchData{LatchedTo: NewID(), SelfEdge: EdgeStart, PartnerEdge: EdgeStart}

	data, err := json.Marshal(b)
	require.NoError(t, err)

	var back Bezier
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, b.ID, back.ID)
	assert.Equal(t, b.Positions, back.Positions)
	assert.Equal(t, b.Latches, back.Latches)
	assert.Equal(t, b.Color, back.Color)
	assert.NotContains(t, string(data), "dirty")
}

func TestParseID(t *testing.T) {
	id := NewID()
	back, err := ParseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, back)

	_, err = ParseID("nope")
	assert.Error(t, err)
}
