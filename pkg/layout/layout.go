// Package layout places benchmark points on the unit canvas.
//
// # Overview
//
// A [Sampler] produces one [Layout] per call in four phases:
//
//  1. Attribute: draw a point count and style each point (see [attrs]).
//  2. Anchor: place the constrained point(s) so the chosen relation holds.
//     In quadrant mode a random target is measured against the canvas
//     center. In directional mode the first point is the target A and the
//     second the reference B, which is itself placed uniformly.
//  3. Filler: place every remaining point by rejection sampling, accepting a
//     candidate only when it is at least MinSep from every placed point.
//  4. Emit: return positions and ground truth.
//
// Both retry loops are bounded. Running out of anchor attempts is reported as
// RETRY_EXHAUSTED and running out of filler draws as CAPACITY_EXCEEDED, both
// as [errors.Error] values.
//
// # Randomness
//
// A [Source] separates discrete choices (counts, shuffles, relation and
// target picks) from numeric draws (coordinates). [Unified] routes both
// through one generator, which makes a seeded layout fully reproducible.
//
// [attrs]: github.com/matzehuels/spatialbench/pkg/attrs
// [errors.Error]: github.com/matzehuels/spatialbench/pkg/errors.Error
package layout

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"

	"github.com/matzehuels/spatialbench/pkg/attrs"
	"github.com/matzehuels/spatialbench/pkg/relation"
)

// Point is a styled, positioned point. Position is set once by the sampler.
type Point struct {
	Name   string       `json:"name"`
	Marker attrs.Marker `json:"marker"`
	Color  attrs.Color  `json:"color"`
	X      float64      `json:"x"`
	Y      float64      `json:"y"`
}

// Pos returns the point's canvas position.
func (p Point) Pos() relation.Point { return relation.Point{X: p.X, Y: p.Y} }

// Layout is one sampled canvas with its ground truth.
type Layout struct {
	Mode     relation.Mode     `json:"mode"`
	Relation relation.Relation `json:"relation"`

	// Target is the point the question asks about.
	Target string `json:"target"`
	// Reference is the point B the target is measured against. Empty in
	// quadrant mode, where the reference is the canvas center.
	Reference string `json:"reference,omitempty"`

	// Points are in attribute (creation) order, which carries no spatial meaning.
	Points []Point `json:"points"`

	Stats Stats `json:"-"`
}

// Stats counts the work a sample took.
type Stats struct {
	AnchorAttempts int // RegionFor evaluations in the anchor phase
	PlacementDraws int // candidate positions drawn in the filler phase
}

// Point returns the named point.
func (l Layout) Point(name string) (Point, bool) {
	for _, p := range l.Points {
		if p.Name == name {
			return p, true
		}
	}
	return Point{}, false
}

// TargetPoint returns the point the question is about.
func (l Layout) TargetPoint() Point {
	p, _ := l.Point(l.Target)
	return p
}

// Anchor returns the position the relation is measured from: the canvas
// center in quadrant mode, point B in directional mode.
func (l Layout) Anchor() relation.Point {
	if l.Mode == relation.Directional {
		if b, ok := l.Point(l.Reference); ok {
			return b.Pos()
		}
	}
	return relation.Center
}

// Distance is the Euclidean distance between two canvas positions.
func Distance(a, b relation.Point) float64 {
	return floats.Distance([]float64{a.X, a.Y}, []float64{b.X, b.Y}, 2)
}

// Source supplies randomness to the sampler.
type Source struct {
	// Choice drives discrete picks: point count, attribute shuffles,
	// relation order and quadrant target.
	Choice *rand.Rand
	// Geometry drives coordinate draws.
	Geometry *rand.Rand
}

// Unified returns a Source that draws everything from rng.
func Unified(rng *rand.Rand) Source {
	return Source{Choice: rng, Geometry: rng}
}
