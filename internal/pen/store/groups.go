package store

import (
	"fmt"

	"pen-tool/internal/pen/curve"
	"pen-tool/internal/pen/group"

	"github.com/gofiber/fiber/v3/log"
	"github.com/google/uuid"
)

// ============================================================
// Groups
// ============================================================

// Group builds a group from ids. Curves that belonged to another group
// leave it first.
func (s *Store) Group(ids []curve.ID) (*group.Group, error) {
	return s.GroupAs(uuid.New(), ids)
}

// GroupAs is Group with a caller chosen id, used when loading documents.
func (s *Store) GroupAs(gid uuid.UUID, ids []curve.ID) (*group.Group, error) {
	if _, ok := s.groups[gid]; ok {
		return nil, fmt.Errorf("group %s already exists", gid)
	}
	g, err := group.Build(gid, ids, s.lookup)
	if err != nil {
		return nil, err
	}

	for _, id := range g.IDs() {
		b := s.curves[id]
		if old, ok := s.groups[b.Group]; ok {
			old.Drop(id)
		}
		b.Group = g.ID
	}
	s.groups[g.ID] = g
	s.groupOrder = append(s.groupOrder, g.ID)
	s.refreshGroups()
	return g, nil
}

// Regroup brings back group gid over ids unless it still exists. A
// delete that broke a group's chain dissolves it; undoing the delete
// needs it back under the same id.
func (s *Store) Regroup(gid uuid.UUID, ids []curve.ID) error {
	if gid == uuid.Nil || len(ids) == 0 {
		return nil
	}
	if _, ok := s.groups[gid]; ok {
		return nil
	}
	if _, err := s.GroupAs(gid, ids); err != nil {
		return fmt.Errorf("regroup %s: %w", gid, err)
	}
	return nil
}

// GroupByID returns an up to date group.
func (s *Store) GroupByID(gid uuid.UUID) (*group.Group, error) {
	s.refreshGroups()
	g, ok := s.groups[gid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGroupID, gid)
	}
	return g, nil
}

// Groups returns all groups in creation order, refreshed.
func (s *Store) Groups() []*group.Group {
	s.refreshGroups()
	out := make([]*group.Group, 0, len(s.groupOrder))
	for _, gid := range s.groupOrder {
		out = append(out, s.groups[gid])
	}
	return out
}

// Ungroup dissolves a group; its curves are left untouched otherwise.
func (s *Store) Ungroup(gid uuid.UUID) error {
	if _, ok := s.groups[gid]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGroupID, gid)
	}
	s.dissolve(gid)
	return nil
}

func (s *Store) refreshGroups() {
	for _, gid := range append([]uuid.UUID(nil), s.groupOrder...) {
		g := s.groups[gid]
		if !g.Stale {
			continue
		}
		if err := g.Refresh(s.lookup); err != nil {
			log.Infof("[STORE] dissolving group %s: %v", gid, err)
			s.dissolve(gid)
		}
	}
}

func (s *Store) dissolve(gid uuid.UUID) {
	g := s.groups[gid]
	for _, id := range g.IDs() {
		if b, ok := s.curves[id]; ok && b.Group == gid {
			b.Group = uuid.Nil
		}
	}
	delete(s.groups, gid)
	for i, id := range s.groupOrder {
		if id == gid {
			s.groupOrder = append(s.groupOrder[:i], s.groupOrder[i+1:]...)
			break
		}
	}
}
