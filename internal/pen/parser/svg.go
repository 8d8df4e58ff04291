package parser

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// ============================================================
// XML Structures
// ============================================================

type SVG struct {
	XMLName xml.Name `xml:"svg"`
	Width   string   `xml:"width,attr"`
	Height  string   `xml:"height,attr"`
	ViewBox string   `xml:"viewBox,attr"`
	Paths   []Path   `xml:"path"`
	Groups  []Group  `xml:"g"`
}

type Group struct {
	ID     string  `xml:"id,attr"`
	Stroke string  `xml:"stroke,attr"`
	Paths  []Path  `xml:"path"`
	Groups []Group `xml:"g"`
}

type Path struct {
	ID     string `xml:"id,attr"`
	D      string `xml:"d,attr"`
	Stroke string `xml:"stroke,attr"`
	Fill   string `xml:"fill,attr"`
}

// Color is the stroke of the path, or its fill when it has no stroke.
func (p Path) Color() string {
	for _, c := range []string{p.Stroke, p.Fill} {
		c = strings.TrimSpace(c)
		if c != "" && c != "none" {
			return c
		}
	}
	return ""
}

// ============================================================
// Parser
// ============================================================

// ParseSVG returns every path of the document. The paths of an element
// come before the paths of its nested groups. A group's stroke is
// inherited by paths that have neither stroke nor fill.
func ParseSVG(r io.Reader) ([]Path, error) {
	var svg SVG
	decoder := xml.NewDecoder(r)
	if err := decoder.Decode(&svg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSVG, err)
	}

	paths := collect(nil, svg.Paths, svg.Groups, "")
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no path elements", ErrEmptyPath)
	}
	return paths, nil
}

func collect(out, paths []Path, groups []Group, stroke string) []Path {
	for _, p := range paths {
		if strings.TrimSpace(p.D) == "" {
			continue
		}
		if p.Color() == "" {
			p.Stroke = stroke
		}
		out = append(out, p)
	}
	for _, g := range groups {
		inherited := stroke
		if g.Stroke != "" {
			inherited = g.Stroke
		}
		out = collect(out, g.Paths, g.Groups, inherited)
	}
	return out
}
