package mapper

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"pen-tool/internal/pen/curve"
	"pen-tool/internal/pen/geom"
	"pen-tool/internal/pen/group"
	"pen-tool/internal/pen/store"

	"github.com/google/uuid"
)

const (
	defaultStroke = "#000"
	defaultSize   = 1000
	margin        = 10
)

// ============================================================
// Renderer
// ============================================================

type Renderer struct {
	StrokeWidth float64
}

func NewRenderer() *Renderer {
	return &Renderer{StrokeWidth: 1}
}

// Render writes the store as an SVG document. Each group becomes one
// joined path in walk order. Latched curves outside groups are joined
// the same way, so every latch survives a re-import.
func (r *Renderer) Render(s *store.Store) (string, error) {
	if s == nil {
		return "", fmt.Errorf("store is nil")
	}
	s.Recompute()

	var elements []string
	grouped := make(map[curve.ID]bool)
	for _, g := range s.Groups() {
		elem, err := r.renderChain(s, "group-"+g.ID.String(), g)
		if err != nil {
			return "", err
		}
		elements = append(elements, elem)
		for _, id := range g.IDs() {
			grouped[id] = true
		}
	}
	for _, ids := range looseChains(s, grouped) {
		elems, err := r.renderLoose(s, ids)
		if err != nil {
			return "", err
		}
		elements = append(elements, elems...)
	}

	box := r.bounds(s)
	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="%s %s %s %s">`,
		formatFloat(box.Width()), formatFloat(box.Height()),
		formatFloat(box.Min.X), formatFloat(box.Min.Y), formatFloat(box.Width()), formatFloat(box.Height())))
	builder.WriteString("\n")

	for _, elem := range elements {
		builder.WriteString("  ")
		builder.WriteString(elem)
		builder.WriteString("\n")
	}

	builder.WriteString(`</svg>`)
	return builder.String(), nil
}

// renderLoose joins ids in walk order. Chains the walk rejects fall back
// to one path per curve.
func (r *Renderer) renderLoose(s *store.Store, ids []curve.ID) ([]string, error) {
	lookup := func(id curve.ID) (*curve.Bezier, bool) {
		b, err := s.Curve(id)
		return b, err == nil
	}
	chain, err := group.Build(uuid.Nil, ids, lookup)
	if err == nil {
		elem, err := r.renderChain(s, chain.Members[0].CurveID.String(), chain)
		if err != nil {
			return nil, err
		}
		return []string{elem}, nil
	}

	elems := make([]string, 0, len(ids))
	for _, id := range ids {
		b, ok := lookup(id)
		if !ok {
			return nil, fmt.Errorf("render curve %s: %w", id, curve.ErrUnknownCurveID)
		}
		elems = append(elems, r.pathElement(id.String(), "M "+formatPoint(b.Positions.Start)+" "+cubicCommand(b.Cubic()), b.Color))
	}
	return elems, nil
}

func (r *Renderer) renderChain(s *store.Store, id string, g *group.Group) (string, error) {
	var d strings.Builder
	color := ""
	for i, m := range g.Members {
		b, err := s.Curve(m.CurveID)
		if err != nil {
			return "", fmt.Errorf("render %s: %w", id, err)
		}
		c := b.Cubic()
		if m.Anchor == curve.EdgeEnd {
			c = c.Reversed()
		}
		if i == 0 {
			d.WriteString("M " + formatPoint(c.P0))
			color = b.Color
		}
		d.WriteString(" " + cubicCommand(c))
	}
	if g.Closed {
		d.WriteString(" Z")
	}
	return r.pathElement(id, d.String(), color), nil
}

// looseChains splits the curves outside groups into latch-connected
// components, each listed in spawn order.
func looseChains(s *store.Store, grouped map[curve.ID]bool) [][]curve.ID {
	curves := s.Curves()
	rank := make(map[curve.ID]int, len(curves))
	for i, b := range curves {
		rank[b.ID] = i
	}

	seen := make(map[curve.ID]bool, len(curves))
	var chains [][]curve.ID
	for _, b := range curves {
		if grouped[b.ID] || seen[b.ID] {
			continue
		}
		seen[b.ID] = true
		chain := []curve.ID{b.ID}
		for next := 0; next < len(chain); next++ {
			cur, err := s.Curve(chain[next])
			if err != nil {
				continue
			}
			for _, l := range cur.LatchList() {
				if grouped[l.LatchedTo] || seen[l.LatchedTo] {
					continue
				}
				if _, ok := rank[l.LatchedTo]; !ok {
					continue
				}
				seen[l.LatchedTo] = true
				chain = append(chain, l.LatchedTo)
			}
		}
		sort.Slice(chain, func(i, j int) bool { return rank[chain[i]] < rank[chain[j]] })
		chains = append(chains, chain)
	}
	return chains
}

func (r *Renderer) pathElement(id, d, color string) string {
	if color == "" {
		color = defaultStroke
	}
	return fmt.Sprintf(`<path id="%s" d="%s" fill="none" stroke="%s" stroke-width="%s" />`,
		id, d, color, formatFloat(r.StrokeWidth))
}

// bounds is the union of every curve's box plus a margin, or a default
// canvas for an empty store.
func (r *Renderer) bounds(s *store.Store) geom.Rect {
	box := geom.EmptyRect()
	for _, b := range s.Curves() {
		box = box.Union(b.BoundingBox())
	}
	if box.IsEmpty() {
		return geom.Rect{Max: geom.V2(defaultSize, defaultSize)}
	}
	pad := margin + r.StrokeWidth
	box.Min = box.Min.Sub(geom.V2(pad, pad))
	box.Max = box.Max.Add(geom.V2(pad, pad))
	return box
}

// ============================================================
// Formatting helpers
// ============================================================

func cubicCommand(c geom.Cubic) string {
	return "C " + formatPoint(c.P1) + " " + formatPoint(c.P2) + " " + formatPoint(c.P3)
}

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}

func formatPoint(p geom.Vec2) string {
	return formatFloat(p.X) + " " + formatFloat(p.Y)
}
