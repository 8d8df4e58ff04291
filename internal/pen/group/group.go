package group

import (
	"errors"
	"fmt"

	"pen-tool/internal/pen/curve"
	"pen-tool/internal/pen/geom"

	"github.com/google/uuid"
)

var (
	ErrEmptySelection     = errors.New("empty selection")
	ErrDisconnectedCurves = errors.New("curves do not form one connected chain")
)

// Lookup resolves a curve id against the owning store.
type Lookup func(curve.ID) (*curve.Bezier, bool)

// ============================================================
// Group
// ============================================================

// Member is one curve of a group in traversal order. Anchor is the edge
// the walk enters the curve through; TRange is [0,1] for a forward walk
// and [1,0] for a reversed one. LUT is the curve's table in walk direction.
type Member struct {
	CurveID curve.ID   `json:"curve"`
	Anchor  curve.Edge `json:"anchor"`
	TRange  [2]float64 `json:"t_range"`
	LUT     geom.LUT   `json:"lut"`
}

// Group is a chain of latched curves treated as a single path.
type Group struct {
	ID            uuid.UUID `json:"id"`
	Members       []Member  `json:"curves"`
	StandaloneLUT geom.LUT  `json:"standalone_lut"`
	Closed        bool      `json:"closed"`

	// Stale is set by the store when a member moved, latched or left.
	Stale bool `json:"-"`

	memberIDs []curve.ID
}

// Build walks the latch graph over ids and returns the group they form.
func Build(id uuid.UUID, ids []curve.ID, lookup Lookup) (*Group, error) {
	g := &Group{ID: id, memberIDs: dedupe(ids)}
	if err := g.Refresh(lookup); err != nil {
		return nil, err
	}
	return g, nil
}

// Refresh recomputes traversal order and the merged LUT from the current
// member set.
func (g *Group) Refresh(lookup Lookup) error {
	walk, closed, err := traverse(g.memberIDs, lookup)
	if err != nil {
		return err
	}

	members := make([]Member, 0, len(walk))
	luts := make([]geom.LUT, 0, len(walk))
	ids := make([]curve.ID, 0, len(walk))
	for _, step := range walk {
		b, _ := lookup(step.id)
		m := Member{CurveID: step.id, Anchor: step.entry, TRange: [2]float64{0, 1}, LUT: b.Table()}
		if step.entry == curve.EdgeEnd {
			m.TRange = [2]float64{1, 0}
			m.LUT = m.LUT.Reversed()
		}
		members = append(members, m)
		luts = append(luts, m.LUT)
		ids = append(ids, step.id)
	}

	g.Members = members
	g.StandaloneLUT = geom.Concat(luts...)
	g.Closed = closed
	g.memberIDs = ids
	g.Stale = false
	return nil
}

// IDs returns the member ids in traversal order.
func (g *Group) IDs() []curve.ID {
	return append([]curve.ID(nil), g.memberIDs...)
}

func (g *Group) Contains(id curve.ID) bool {
	for _, m := range g.memberIDs {
		if m == id {
			return true
		}
	}
	return false
}

func (g *Group) Len() int {
	return len(g.memberIDs)
}

// Add puts id into the member set; the group is stale until refreshed.
func (g *Group) Add(id curve.ID) {
	if !g.Contains(id) {
		g.memberIDs = append(g.memberIDs, id)
	}
	g.Stale = true
}

// Drop takes id out of the member set; the group is stale until refreshed.
func (g *Group) Drop(id curve.ID) {
	out := g.memberIDs[:0]
	for _, m := range g.memberIDs {
		if m != id {
			out = append(out, m)
		}
	}
	g.memberIDs = out
	g.Stale = true
}

// ============================================================
// Queries
// ============================================================

func (g *Group) PathLength() float64 {
	return g.StandaloneLUT.PathLength
}

func (g *Group) PositionAtFraction(f float64) geom.Vec2 {
	return g.StandaloneLUT.PositionAtFraction(f)
}

func (g *Group) NormalAtFraction(f float64) geom.Vec2 {
	return g.StandaloneLUT.NormalAtFraction(f)
}

func (g *Group) TangentAtFraction(f float64) geom.Vec2 {
	return g.StandaloneLUT.TangentAtFraction(f)
}

// CenterOfMass is the mean of the merged LUT samples.
func (g *Group) CenterOfMass() geom.Vec2 {
	return g.StandaloneLUT.CenterOfMass()
}

func (g *Group) BoundingBox() geom.Rect {
	return g.StandaloneLUT.BoundingBox()
}

// ============================================================
// Traversal
// ============================================================

type step struct {
	id    curve.ID
	entry curve.Edge
}

func traverse(ids []curve.ID, lookup Lookup) ([]step, bool, error) {
	if len(ids) == 0 {
		return nil, false, ErrEmptySelection
	}

	curves := make(map[curve.ID]*curve.Bezier, len(ids))
	for _, id := range ids {
		b, ok := lookup(id)
		if !ok {
			return nil, false, fmt.Errorf("%w: %s", curve.ErrUnknownCurveID, id)
		}
		curves[id] = b
	}
	inSet := func(l curve.LatchData) bool {
		_, ok := curves[l.LatchedTo]
		return ok
	}

	// Each edge holds at most one latch, so a component is either a path
	// or a loop.
	visited := map[curve.ID]bool{ids[0]: true}
	queue := []curve.ID{ids[0]}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, l := range curves[cur].LatchList() {
			if inSet(l) && !visited[l.LatchedTo] {
				visited[l.LatchedTo] = true
				queue = append(queue, l.LatchedTo)
			}
		}
	}
	if len(visited) != len(curves) {
		return nil, false, fmt.Errorf("%w: %d of %d curves reachable", ErrDisconnectedCurves, len(visited), len(curves))
	}

	start, entry, closed := ids[0], curve.EdgeStart, true
search:
	for _, id := range ids {
		for _, e := range [2]curve.Edge{curve.EdgeStart, curve.EdgeEnd} {
			if l, ok := curves[id].LatchAt(e); !ok || !inSet(l) {
				start, entry, closed = id, e, false
				break search
			}
		}
	}

	var walk []step
	seen := make(map[curve.ID]bool, len(curves))
	cur, in := start, entry
	for {
		walk = append(walk, step{id: cur, entry: in})
		seen[cur] = true
		l, ok := curves[cur].LatchAt(in.Opposite())
		if !ok || !inSet(l) || seen[l.LatchedTo] {
			break
		}
		cur, in = l.LatchedTo, l.PartnerEdge
	}
	if len(walk) != len(curves) {
		return nil, false, fmt.Errorf("%w: chain covers %d of %d curves", ErrDisconnectedCurves, len(walk), len(curves))
	}
	return walk, closed, nil
}

func dedupe(ids []curve.ID) []curve.ID {
	seen := make(map[curve.ID]bool, len(ids))
	out := make([]curve.ID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
