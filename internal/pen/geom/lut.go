package geom

import (
	"encoding/json"
	"math"
	"sort"
)

// ============================================================
// Arclength look-up table
// ============================================================

// LUT is an ordered run of samples along a path, each tagged with the
// arclength travelled so far. Fraction queries search the cumulative
// column, which gives uniform-speed traversal.
type LUT struct {
	Points     []Vec2
	Lengths    []float64
	PathLength float64
}

type lutJSON struct {
	PathLength float64 `json:"path_length"`
	Points     []Vec2  `json:"lut"`
}

// BuildLUT samples c at n uniformly spaced values of t.
func BuildLUT(c Cubic, n int) LUT {
	if n < 2 {
		n = DefaultSamples
	}
	points := make([]Vec2, n)
	for i := range points {
		points[i] = c.Eval(float64(i) / float64(n-1))
	}
	return NewLUT(points)
}

// NewLUT computes the cumulative arclength column for points.
func NewLUT(points []Vec2) LUT {
	l := LUT{
		Points:  points,
		Lengths: make([]float64, len(points)),
	}
	for i := 1; i < len(points); i++ {
		l.Lengths[i] = l.Lengths[i-1] + points[i].Distance(points[i-1])
	}
	if len(points) > 0 {
		l.PathLength = l.Lengths[len(points)-1]
	}
	return l
}

// Concat joins tables end to end. A junction sample equal to the previous
// table's last sample is dropped; any gap is bridged by its straight
// distance so the length column stays continuous.
func Concat(luts ...LUT) LUT {
	var points []Vec2
	for _, l := range luts {
		src := l.Points
		if len(points) > 0 && len(src) > 0 && points[len(points)-1] == src[0] {
			src = src[1:]
		}
		points = append(points, src...)
	}
	return NewLUT(points)
}

// Reversed returns the table walked from its last sample to its first.
func (l LUT) Reversed() LUT {
	points := make([]Vec2, len(l.Points))
	for i, p := range l.Points {
		points[len(points)-1-i] = p
	}
	return NewLUT(points)
}

func (l LUT) Len() int {
	return len(l.Points)
}

// PositionAtFraction returns the point at fraction f of the path length.
// f outside [0,1] wraps modulo 1.
func (l LUT) PositionAtFraction(f float64) Vec2 {
	if len(l.Points) == 0 {
		return Vec2{}
	}
	i, u := l.locate(f)
	if i == 0 {
		return l.Points[0]
	}
	return l.Points[i-1].Lerp(l.Points[i], u)
}

// TangentAtFraction returns the unit direction of travel at fraction f.
func (l LUT) TangentAtFraction(f float64) Vec2 {
	if len(l.Points) < 2 {
		return Vec2{X: 1}
	}
	i, _ := l.locate(f)
	if i == 0 {
		i = 1
	}

	// Walk outwards from the bracketing segment until one has length.
	for off := 0; off < len(l.Points); off++ {
		for _, j := range [2]int{i + off, i - off} {
			if j < 1 || j >= len(l.Points) {
				continue
			}
			if d := l.Points[j].Sub(l.Points[j-1]); !d.IsZero() {
				return d.Normalize()
			}
		}
	}
	return Vec2{X: 1}
}

// NormalAtFraction is the tangent at f rotated counter-clockwise.
func (l LUT) NormalAtFraction(f float64) Vec2 {
	return l.TangentAtFraction(f).Perp()
}

// CenterOfMass is the mean of all samples.
func (l LUT) CenterOfMass() Vec2 {
	if len(l.Points) == 0 {
		return Vec2{}
	}
	var sum Vec2
	for _, p := range l.Points {
		sum = sum.Add(p)
	}
	return sum.Mul(1 / float64(len(l.Points)))
}

func (l LUT) BoundingBox() Rect {
	r := EmptyRect()
	for _, p := range l.Points {
		r = r.Extend(p)
	}
	return r
}

// locate finds the first sample whose cumulative length reaches the target
// and the interpolation weight from the previous sample.
func (l LUT) locate(f float64) (int, float64) {
	f = WrapFraction(f)
	if l.PathLength == 0 {
		return 0, 0
	}
	target := f * l.PathLength
	i := sort.SearchFloat64s(l.Lengths, target)
	if i == 0 {
		return 0, 0
	}
	if i >= len(l.Lengths) {
		return len(l.Lengths) - 1, 1
	}
	seg := l.Lengths[i] - l.Lengths[i-1]
	if seg == 0 {
		return i, 1
	}
	return i, (target - l.Lengths[i-1]) / seg
}

// WrapFraction maps f into [0,1]. Values already in range are kept, so 1
// stays the end of the path; anything else wraps modulo 1.
func WrapFraction(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f >= 0 && f <= 1 {
		return f
	}
	return f - math.Floor(f)
}

func (l LUT) MarshalJSON() ([]byte, error) {
	points := l.Points
	if points == nil {
		points = []Vec2{}
	}
	return json.Marshal(lutJSON{PathLength: l.PathLength, Points: points})
}

// UnmarshalJSON rebuilds the length column from the stored samples.
func (l *LUT) UnmarshalJSON(data []byte) error {
	var raw lutJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = NewLUT(raw.Points)
	return nil
}
