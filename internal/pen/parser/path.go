package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"pen-tool/internal/pen/curve"
	"pen-tool/internal/pen/geom"
)

var (
	ErrEmptyPath          = errors.New("empty path")
	ErrMalformedPath      = errors.New("malformed path data")
	ErrUnsupportedCommand = errors.New("unsupported path command")
	ErrMalformedSVG       = errors.New("malformed svg")
)

// Subpath is one M-started run of cubic segments. Closed is set by Z.
type Subpath struct {
	Segments []curve.Positions
	Closed   bool
}

// ============================================================
// Path Parser
// ============================================================

var (
	// e and E belong to exponents, never to commands.
	commandRe = regexp.MustCompile(`([A-DF-Za-df-z])([^A-DF-Za-df-z]*)`)
	numberRe  = regexp.MustCompile(`[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`)
)

// argCount is the number of values each supported command consumes per
// repetition.
var argCount = map[byte]int{
	'M': 2, 'L': 2, 'H': 1, 'V': 1, 'C': 6, 'S': 4, 'Z': 0,
}

// ParsePath turns SVG path data into cubic segments. Straight lines become
// cubics with their controls at a third and two thirds of the way.
// Supported commands are M, L, H, V, C, S and Z in both absolute and
// relative form.
func ParsePath(d string) ([]Subpath, error) {
	d = strings.TrimSpace(d)
	if d == "" {
		return nil, ErrEmptyPath
	}
	if i := strings.IndexFunc(d, isCommandLetter); i != 0 {
		return nil, fmt.Errorf("%w: data before first command", ErrMalformedPath)
	}

	p := &pathState{}
	for _, match := range commandRe.FindAllStringSubmatch(d, -1) {
		cmd := match[1][0]
		upper := cmd &^ 0x20
		n, ok := argCount[upper]
		if !ok {
			return nil, fmt.Errorf("%w: %c", ErrUnsupportedCommand, cmd)
		}
		args, err := parseCoords(match[2])
		if err != nil {
			return nil, err
		}
		if err := p.run(cmd, upper, n, args); err != nil {
			return nil, err
		}
	}
	p.flush()
	return p.subpaths, nil
}

type pathState struct {
	subpaths []Subpath
	current  *Subpath

	pos, start geom.Vec2
	// lastControl is the second control of the previous C or S, used to
	// reflect the first control of S.
	lastControl geom.Vec2
	smooth      bool
}

func (p *pathState) run(cmd, upper byte, n int, args []float64) error {
	if n == 0 {
		if len(args) != 0 {
			return fmt.Errorf("%w: %c takes no arguments", ErrMalformedPath, cmd)
		}
		p.close()
		return nil
	}
	if len(args) == 0 || len(args)%n != 0 {
		return fmt.Errorf("%w: %c needs a multiple of %d values, got %d", ErrMalformedPath, cmd, n, len(args))
	}
	if upper != 'M' && p.current == nil {
		// Drawing after Z continues from the closed subpath's start.
		p.current = &Subpath{}
	}

	relative := cmd != upper
	for i := 0; i < len(args); i += n {
		a := args[i : i+n]
		base := geom.Vec2{}
		if relative {
			base = p.pos
		}
		pt := func(j int) geom.Vec2 { return base.Add(geom.V2(a[j], a[j+1])) }

		switch upper {
		case 'M':
			if i == 0 {
				p.moveTo(pt(0))
			} else {
				// Extra pairs after M are implicit line-tos.
				p.lineTo(pt(0))
			}
		case 'L':
			p.lineTo(pt(0))
		case 'H':
			x := a[0]
			if relative {
				x += p.pos.X
			}
			p.lineTo(geom.V2(x, p.pos.Y))
		case 'V':
			y := a[0]
			if relative {
				y += p.pos.Y
			}
			p.lineTo(geom.V2(p.pos.X, y))
		case 'C':
			p.cubicTo(pt(0), pt(2), pt(4))
		case 'S':
			c1 := p.pos
			if p.smooth {
				c1 = p.pos.Mul(2).Sub(p.lastControl)
			}
			p.cubicTo(c1, pt(0), pt(2))
		}
	}
	return nil
}

func (p *pathState) moveTo(to geom.Vec2) {
	p.flush()
	p.current = &Subpath{}
	p.pos, p.start = to, to
	p.smooth = false
}

func (p *pathState) lineTo(to geom.Vec2) {
	p.current.Segments = append(p.current.Segments, curve.Positions{
		Start:        p.pos,
		End:          to,
		ControlStart: p.pos.Lerp(to, 1.0/3),
		ControlEnd:   p.pos.Lerp(to, 2.0/3),
	})
	p.pos = to
	p.smooth = false
}

func (p *pathState) cubicTo(c1, c2, to geom.Vec2) {
	p.current.Segments = append(p.current.Segments, curve.Positions{
		Start:        p.pos,
		End:          to,
		ControlStart: c1,
		ControlEnd:   c2,
	})
	p.pos = to
	p.lastControl = c2
	p.smooth = true
}

// close draws a line back to the subpath start when needed and ends the
// subpath.
func (p *pathState) close() {
	if p.current == nil {
		return
	}
	if len(p.current.Segments) > 0 && p.pos != p.start {
		p.lineTo(p.start)
	}
	p.current.Closed = true
	p.flush()
	p.pos = p.start
	p.smooth = false
}

func (p *pathState) flush() {
	if p.current != nil && len(p.current.Segments) > 0 {
		p.subpaths = append(p.subpaths, *p.current)
	}
	p.current = nil
}

func parseCoords(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var coords []float64
	for _, part := range numberRe.FindAllString(s, -1) {
		val, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrMalformedPath, part, err)
		}
		coords = append(coords, val)
	}
	if rest := strings.Trim(numberRe.ReplaceAllString(s, ""), " ,\t\r\n"); rest != "" {
		return nil, fmt.Errorf("%w: unexpected %q", ErrMalformedPath, rest)
	}
	return coords, nil
}

func isCommandLetter(r rune) bool {
	if r == 'e' || r == 'E' {
		return false
	}
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}
