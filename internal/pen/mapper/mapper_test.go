package mapper

import (
	"strings"
	"testing"

	"pen-tool/internal/pen/command"
	"pen-tool/internal/pen/curve"
	"pen-tool/internal/pen/geom"
	"pen-tool/internal/pen/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const square = `<svg xmlns="http://www.w3.org/2000/svg">
  <path id="square" d="M0 0 H10 V10 H0 Z" stroke="#123456"/>
  <path id="wave" d="M20 0 C 20 10 30 10 30 0 S 40 -10 40 0"/>
  <path id="broken" d="M0 0 A 1 1 0 0 1 5 5"/>
</svg>`

func newProcessor() *command.Processor {
	return command.NewProcessor(store.New(store.WithSamples(16)))
}

func TestImport(t *testing.T) {
	p := newProcessor()
	report, err := NewImporter(p).Import(strings.NewReader(square))
	require.NoError(t, err)

	assert.Equal(t, 3, report.Paths)
	assert.Equal(t, []string{"broken"}, report.Skipped)
	require.Len(t, report.Curves, 6)
	assert.Equal(t, 5, report.Latches, "square ring of four plus one wave joint")
	require.NoError(t, p.Store().CheckLatches())

	first, err := p.Store().Curve(report.Curves[0])
	require.NoError(t, err)
	assert.Equal(t, "#123456", first.Color)
	partner, ok := p.Store().Partner(curve.CurveEdge{ID: report.Curves[0], Edge: curve.EdgeStart})
	require.True(t, ok, "closed path latches back to its first curve")
	assert.Equal(t, curve.CurveEdge{ID: report.Curves[3], Edge: curve.EdgeEnd}, partner)

	wave, err := p.Store().Curve(report.Curves[5])
	require.NoError(t, err)
	assert.Equal(t, geom.V2(30, -10), wave.Positions.ControlStart)

	assert.Equal(t, 11, p.History().Len(), "every spawn and latch is undoable")
	for p.History().CanUndo() {
		_, err := p.Undo()
		require.NoError(t, err)
	}
	assert.Equal(t, 0, p.Store().Len())
}

func TestImport_Errors(t *testing.T) {
	p := newProcessor()
	_, err := NewImporter(p).Import(strings.NewReader("not xml"))
	assert.Error(t, err)
	assert.Equal(t, 0, p.Store().Len())
}

func TestRender(t *testing.T) {
	p := newProcessor()
	_, err := NewImporter(p).Import(strings.NewReader(square))
	require.NoError(t, err)

	out, err := NewRenderer().Render(p.Store())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.True(t, strings.HasSuffix(out, `</svg>`))
	assert.Equal(t, 2, strings.Count(out, "<path "), "one path per latched chain")
	assert.Contains(t, out, `stroke="#123456"`)
	assert.Contains(t, out, `d="M 20 0 C 20 10 30 10 30 0 C 30 -10 40 -10 40 0"`)
	assert.Contains(t, out, " Z\"", "the ring closes")

	again := newProcessor()
	back, err := NewImporter(again).Import(strings.NewReader(out))
	require.NoError(t, err)
	assert.Len(t, back.Curves, 6)
	assert.Equal(t, 5, back.Latches, "latches survive without groups")
}

func TestRender_UnlatchedCurvesStaySeparate(t *testing.T) {
	p := newProcessor()
	a, err := p.Spawn(curve.Positions{
		Start: geom.V2(0, 0), ControlStart: geom.V2(0, 5), ControlEnd: geom.V2(10, 5), End: geom.V2(10, 0),
	}, "")
	require.NoError(t, err)
	b, err := p.Spawn(curve.Positions{
		Start: geom.V2(10, 0), ControlStart: geom.V2(10, -5), ControlEnd: geom.V2(20, -5), End: geom.V2(20, 0),
	}, "#f00")
	require.NoError(t, err)

	out, err := NewRenderer().Render(p.Store())
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "<path "))
	assert.Contains(t, out, `id="`+a.String()+`" d="M 0 0 C 0 5 10 5 10 0"`)
	assert.Contains(t, out, `id="`+b.String()+`" d="M 10 0 C 10 -5 20 -5 20 0" fill="none" stroke="#f00"`)

	require.NoError(t, p.Latch(
		curve.CurveEdge{ID: a, Edge: curve.EdgeEnd},
		curve.CurveEdge{ID: b, Edge: curve.EdgeStart},
	))
	out, err = NewRenderer().Render(p.Store())
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "<path "))
	assert.Contains(t, out, `id="`+a.String()+`" d="M 0 0 C 0 5 10 5 10 0 C 10 -5 20 -5 20 0"`)
	assert.NotContains(t, out, " Z\"")
}

func TestRender_GroupsAsOnePath(t *testing.T) {
	p := newProcessor()
	report, err := NewImporter(p).Import(strings.NewReader(square))
	require.NoError(t, err)

	p.Selection().Set(report.Curves[:4]...)
	g, err := p.GroupSelection()
	require.NoError(t, err)
	require.True(t, g.Closed)

	out, err := NewRenderer().Render(p.Store())
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "<path "), "the group and the loose wave")
	assert.Contains(t, out, `id="group-`+g.ID.String()+`"`)
	assert.Contains(t, out, " Z\"")

	// Exported groups import back as the same ring.
	again := newProcessor()
	back, err := NewImporter(again).Import(strings.NewReader(out))
	require.NoError(t, err)
	assert.Len(t, back.Curves, 6)
	assert.Equal(t, 5, back.Latches)
}

func TestRender_ReversedMembers(t *testing.T) {
	s := store.New()
	a, err := s.Spawn(curve.NewID(), curve.Positions{
		Start: geom.V2(0, 0), ControlStart: geom.V2(0, 5), ControlEnd: geom.V2(10, 5), End: geom.V2(10, 0),
	}, "")
	require.NoError(t, err)
	b, err := s.Spawn(curve.NewID(), curve.Positions{
		Start: geom.V2(20, 0), ControlStart: geom.V2(20, 5), ControlEnd: geom.V2(10, -5), End: geom.V2(10, 0),
	}, "")
	require.NoError(t, err)
	require.NoError(t, s.Latch(curve.CurveEdge{ID: a.ID, Edge: curve.EdgeEnd}, curve.CurveEdge{ID: b.ID, Edge: curve.EdgeEnd}))
	_, err = s.Group([]curve.ID{a.ID, b.ID})
	require.NoError(t, err)

	out, err := NewRenderer().Render(s)
	require.NoError(t, err)
	assert.Contains(t, out, `d="M 0 0 C 0 5 10 5 10 0 C 10 -5 20 5 20 0"`)
}

func TestRender_Empty(t *testing.T) {
	out, err := NewRenderer().Render(store.New())
	require.NoError(t, err)
	assert.Contains(t, out, `viewBox="0 0 1000 1000"`)

	_, err = NewRenderer().Render(nil)
	assert.Error(t, err)
}
