// Package attrs assigns visual attributes (marker shape and color) and
// symbolic names to the points of a layout.
//
// Every call to [Shuffler.Assign] works on fresh copies of the pools, so no
// state leaks between samples. The name, marker and color pools are shuffled
// independently, which randomizes the marker/color pairing itself and not just
// the name order. Because assignment is by index, no two points of one layout
// share a marker or a color, and a layout holds at most [Shuffler.Capacity]
// points.
package attrs

import (
	"math/rand/v2"
	"slices"

	"github.com/matzehuels/spatialbench/pkg/errors"
)

// Marker is a marker shape. Code is the matplotlib marker code, kept so
// metadata stays comparable with datasets made by the original plotting tool.
type Marker struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Color is a named fill color.
type Color struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

// Markers is the default 11-element marker pool.
var Markers = []Marker{
	{Name: "circle", Code: "o"},
	{Name: "triangle_up", Code: "^"},
	{Name: "triangle_down", Code: "v"},
	{Name: "square", Code: "s"},
	{Name: "diamond", Code: "D"},
	{Name: "pentagon", Code: "p"},
	{Name: "hexagon1", Code: "h"},
	{Name: "hexagon2", Code: "H"},
	{Name: "x_cross", Code: "X"},
	{Name: "plus_cross", Code: "P"},
	{Name: "octagon", Code: "8"},
}

// Colors is the default 10-element color pool.
var Colors = []Color{
	{Name: "black", Hex: "#000000"},
	{Name: "gray", Hex: "#808080"},
	{Name: "red", Hex: "#E74C3C"},
	{Name: "orange", Hex: "#E67E22"},
	{Name: "yellow", Hex: "#F1C40F"},
	{Name: "green", Hex: "#2ECC71"},
	{Name: "blue", Hex: "#3498DB"},
	{Name: "purple", Hex: "#9B59B6"},
	{Name: "brown", Hex: "#A0522D"},
	{Name: "olive", Hex: "#808000"},
}

// Names is the default point-name alphabet.
var Names = []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"}

// Assignment binds a point name to its marker and color.
type Assignment struct {
	Name   string
	Marker Marker
	Color  Color
}

// Shuffler draws attribute assignments from its pools.
// The zero value uses the default pools.
type Shuffler struct {
	Names   []string
	Markers []Marker
	Colors  []Color
}

// Default returns a Shuffler over the default pools.
func Default() Shuffler {
	return Shuffler{Names: Names, Markers: Markers, Colors: Colors}
}

func (s Shuffler) pools() ([]string, []Marker, []Color) {
	names, markers, colors := s.Names, s.Markers, s.Colors
	if names == nil {
		names = Names
	}
	if markers == nil {
		markers = Markers
	}
	if colors == nil {
		colors = Colors
	}
	return names, markers, colors
}

// Capacity is the largest point count the pools can style uniquely.
func (s Shuffler) Capacity() int {
	names, markers, colors := s.pools()
	return min(len(names), len(markers), len(colors))
}

// Assign returns n assignments in creation order. Each pool is copied and
// shuffled independently with rng before assigning by index.
func (s Shuffler) Assign(rng *rand.Rand, n int) ([]Assignment, error) {
	if n < 1 || n > s.Capacity() {
		return nil, errors.New(errors.ErrCodeInvalidConfig,
			"cannot style %d points (pool capacity is %d)", n, s.Capacity())
	}

	names, markers, colors := s.pools()
	names = shuffled(rng, names)
	markers = shuffled(rng, markers)
	colors = shuffled(rng, colors)

	out := make([]Assignment, n)
	for i := range n {
		out[i] = Assignment{Name: names[i], Marker: markers[i], Color: colors[i]}
	}
	return out, nil
}

func shuffled[E any](rng *rand.Rand, in []E) []E {
	out := slices.Clone(in)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// MarkerByName looks up a marker in the default pool.
func MarkerByName(name string) (Marker, bool) {
	i := slices.IndexFunc(Markers, func(m Marker) bool { return m.Name == name })
	if i < 0 {
		return Marker{}, false
	}
	return Markers[i], true
}

// ColorByName looks up a color in the default pool.
func ColorByName(name string) (Color, bool) {
	i := slices.IndexFunc(Colors, func(c Color) bool { return c.Name == name })
	if i < 0 {
		return Color{}, false
	}
	return Colors[i], true
}
