package relation

import (
	"fmt"
	"math/rand/v2"
)

// Point is a position on the unit canvas.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Center is the reference point for quadrant mode.
var Center = Point{X: 0.5, Y: 0.5}

// Rect is a closed axis-aligned rectangle on the canvas.
type Rect struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// Canvas returns the placement area [margin, 1-margin]^2.
func Canvas(margin float64) Rect {
	return Rect{MinX: margin, MaxX: 1 - margin, MinY: margin, MaxY: 1 - margin}
}

// Empty reports whether r has zero or negative extent on either axis.
func (r Rect) Empty() bool {
	return r.MaxX <= r.MinX || r.MaxY <= r.MinY
}

// Contains reports whether p lies in r, borders included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// Sample draws a point uniformly from r. Both axes are drawn independently.
// Results are clamped so rounding never leaves the rectangle.
func (r Rect) Sample(rng *rand.Rand) Point {
	return Point{
		X: min(r.MinX+rng.Float64()*(r.MaxX-r.MinX), r.MaxX),
		Y: min(r.MinY+rng.Float64()*(r.MaxY-r.MinY), r.MaxY),
	}
}

func (r Rect) String() string {
	return fmt.Sprintf("[%.3f,%.3f]x[%.3f,%.3f]", r.MinX, r.MaxX, r.MinY, r.MaxY)
}

// RegionFor returns the rectangle of positions that lie in direction rel from
// ref, offset by at least minSep on both axes and clipped to the canvas
// margins. ok is false when that rectangle is empty.
//
// RegionFor panics on a relation value outside [All].
func RegionFor(rel Relation, margin, minSep float64, ref Point) (r Rect, ok bool) {
	lo, hi := margin, 1-margin

	switch rel {
	case UpperRight, LowerRight:
		r.MinX, r.MaxX = max(ref.X+minSep, lo), hi
	case UpperLeft, LowerLeft:
		r.MinX, r.MaxX = lo, min(ref.X-minSep, hi)
	default:
		panic(fmt.Sprintf("relation: unknown relation %d", int(rel)))
	}

	if rel.Upper() {
		r.MinY, r.MaxY = max(ref.Y+minSep, lo), hi
	} else {
		r.MinY, r.MaxY = lo, min(ref.Y-minSep, hi)
	}

	return r, !r.Empty()
}

// Holds reports whether p lies in direction rel from ref by at least minSep
// on both axes.
func Holds(rel Relation, minSep float64, ref, p Point) bool {
	var okX, okY bool
	if rel.Right() {
		okX = p.X >= ref.X+minSep
	} else {
		okX = p.X <= ref.X-minSep
	}
	if rel.Upper() {
		okY = p.Y >= ref.Y+minSep
	} else {
		okY = p.Y <= ref.Y-minSep
	}
	return okX && okY
}

// Feasible returns the relations whose region from ref is non-empty, in
// declaration order.
func Feasible(margin, minSep float64, ref Point) []Relation {
	var out []Relation
	for _, rel := range All {
		if _, ok := RegionFor(rel, margin, minSep, ref); ok {
			out = append(out, rel)
		}
	}
	return out
}
