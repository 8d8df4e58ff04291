package store

import (
	"errors"
	"fmt"

	"pen-tool/internal/pen/curve"
	"pen-tool/internal/pen/geom"
	"pen-tool/internal/pen/group"

	"github.com/google/uuid"
)

var (
	ErrSelfLatch      = errors.New("curve cannot latch to itself")
	ErrEdgeOccupied   = errors.New("edge already latched")
	ErrNotLatched     = errors.New("edges are not latched to each other")
	ErrDuplicateID    = errors.New("curve id already in use")
	ErrInvalidAnchor  = errors.New("invalid anchor")
	ErrUnknownGroupID = errors.New("unknown group id")
)

// DefaultMinControlOffset is how far a control point is kept from its
// anchor when none is configured.
const DefaultMinControlOffset = 1e-3

// ============================================================
// Store
// ============================================================

// Store is the id-indexed table of curves and groups of one editing
// session. It is not safe for concurrent use.
type Store struct {
	curves     map[curve.ID]*curve.Bezier
	order      []curve.ID
	groups     map[uuid.UUID]*group.Group
	groupOrder []uuid.UUID

	samples          int
	minControlOffset float64
}

type Option func(*Store)

// WithSamples sets the LUT sample count of every curve.
func WithSamples(n int) Option {
	return func(s *Store) {
		if n >= 2 {
			s.samples = n
		}
	}
}

// WithMinControlOffset sets the distance control points are pushed away
// from coinciding anchors. Zero disables the clamp.
func WithMinControlOffset(d float64) Option {
	return func(s *Store) {
		if d >= 0 {
			s.minControlOffset = d
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		samples:          geom.DefaultSamples,
		minControlOffset: DefaultMinControlOffset,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()
	return s
}

// Reset drops every curve and group.
func (s *Store) Reset() {
	s.curves = make(map[curve.ID]*curve.Bezier)
	s.order = nil
	s.groups = make(map[uuid.UUID]*group.Group)
	s.groupOrder = nil
}

func (s *Store) Samples() int {
	return s.samples
}

func (s *Store) Len() int {
	return len(s.order)
}

func (s *Store) Has(id curve.ID) bool {
	_, ok := s.curves[id]
	return ok
}

// Curve returns the live curve for id.
func (s *Store) Curve(id curve.ID) (*curve.Bezier, error) {
	b, ok := s.curves[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", curve.ErrUnknownCurveID, id)
	}
	return b, nil
}

// Curves returns all curves in spawn order.
func (s *Store) Curves() []*curve.Bezier {
	out := make([]*curve.Bezier, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.curves[id])
	}
	return out
}

func (s *Store) lookup(id curve.ID) (*curve.Bezier, bool) {
	b, ok := s.curves[id]
	return b, ok
}

// ============================================================
// Lifecycle
// ============================================================

// Spawn adds a curve. A nil id gets a fresh random one. Control points
// that coincide with their anchor are pushed out first.
func (s *Store) Spawn(id curve.ID, positions curve.Positions, color string) (*curve.Bezier, error) {
	return s.Place(id, positions.Sanitize(s.minControlOffset), color)
}

// Place is Spawn without the control point clamp. Loading uses it so a
// saved drawing comes back exactly as written, whatever offset the
// loading store is configured with.
func (s *Store) Place(id curve.ID, positions curve.Positions, color string) (*curve.Bezier, error) {
	if id == uuid.Nil {
		id = curve.NewID()
	}
	if s.Has(id) {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}

	b := curve.New(id, positions, color, s.samples)
	s.curves[id] = b
	s.order = append(s.order, id)
	return b, nil
}

// Remove deletes a curve and clears every partner edge that referenced
// it. The returned clone still carries the removed latches.
func (s *Store) Remove(id curve.ID) (*curve.Bezier, error) {
	b, err := s.Curve(id)
	if err != nil {
		return nil, err
	}
	snapshot, err := b.Clone()
	if err != nil {
		return nil, err
	}

	for _, l := range b.LatchList() {
		if partner, ok := s.curves[l.LatchedTo]; ok {
			delete(partner.Latches, l.PartnerEdge)
			s.touch(partner)
		}
	}
	if b.InGroup() {
		if g, ok := s.groups[b.Group]; ok {
			g.Drop(id)
		}
	}

	delete(s.curves, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return snapshot, nil
}

// Restore puts a removed curve back together with its latches. Nothing is
// changed unless every latch partner exists and has the edge free.
func (s *Store) Restore(snapshot *curve.Bezier) error {
	if s.Has(snapshot.ID) {
		return fmt.Errorf("%w: %s", ErrDuplicateID, snapshot.ID)
	}
	latches := snapshot.LatchList()
	for _, l := range latches {
		partner, err := s.Curve(l.LatchedTo)
		if err != nil {
			return fmt.Errorf("restore %s: %w", snapshot.ID, err)
		}
		if held, ok := partner.LatchAt(l.PartnerEdge); ok {
			return fmt.Errorf("restore %s: %w: %s/%s held by %s",
				snapshot.ID, ErrEdgeOccupied, l.LatchedTo, l.PartnerEdge, held.LatchedTo)
		}
	}

	b := curve.New(snapshot.ID, snapshot.Positions, snapshot.Color, s.samples)
	b.PreviousPositions = snapshot.PreviousPositions
	s.curves[b.ID] = b
	s.order = append(s.order, b.ID)

	if g, ok := s.groups[snapshot.Group]; ok {
		b.Group = g.ID
		g.Add(b.ID)
	}
	for _, l := range latches {
		s.link(curve.CurveEdge{ID: b.ID, Edge: l.SelfEdge}, curve.CurveEdge{ID: l.LatchedTo, Edge: l.PartnerEdge})
	}
	return nil
}

// touch marks the group of b for a rebuild.
func (s *Store) touch(b *curve.Bezier) {
	if !b.InGroup() {
		return
	}
	if g, ok := s.groups[b.Group]; ok {
		g.Stale = true
	}
}

// Recompute rebuilds dirty curve LUTs and stale groups. Groups that no
// longer form one chain are dissolved.
func (s *Store) Recompute() {
	for _, id := range s.order {
		s.curves[id].RecomputeLUTIfDirty()
	}
	s.refreshGroups()
}
