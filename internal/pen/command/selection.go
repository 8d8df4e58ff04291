package command

import "pen-tool/internal/pen/curve"

// Selection is an ordered set of curve ids.
type Selection struct {
	ids []curve.ID
}

func (s *Selection) Select(ids ...curve.ID) {
	for _, id := range ids {
		if !s.Contains(id) {
			s.ids = append(s.ids, id)
		}
	}
}

func (s *Selection) Deselect(ids ...curve.ID) {
	s.keep(func(id curve.ID) bool {
		for _, d := range ids {
			if d == id {
				return false
			}
		}
		return true
	})
}

// Toggle flips membership of id and reports whether it is now selected.
func (s *Selection) Toggle(id curve.ID) bool {
	if s.Contains(id) {
		s.Deselect(id)
		return false
	}
	s.Select(id)
	return true
}

// Set replaces the selection.
func (s *Selection) Set(ids ...curve.ID) {
	s.ids = nil
	s.Select(ids...)
}

func (s *Selection) Clear() {
	s.ids = nil
}

func (s *Selection) Contains(id curve.ID) bool {
	for _, x := range s.ids {
		if x == id {
			return true
		}
	}
	return false
}

func (s *Selection) IDs() []curve.ID {
	return append([]curve.ID(nil), s.ids...)
}

func (s *Selection) Len() int {
	return len(s.ids)
}

// keep drops every id for which ok returns false.
func (s *Selection) keep(ok func(curve.ID) bool) {
	out := s.ids[:0]
	for _, id := range s.ids {
		if ok(id) {
			out = append(out, id)
		}
	}
	s.ids = out
}
