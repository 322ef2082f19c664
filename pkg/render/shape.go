package render

import "math"

// Vec is a vertex in marker space: unit radius, y up.
type Vec struct{ X, Y float64 }

// Shape is a marker outline. Circle shapes have no vertices.
type Shape struct {
	Circle  bool
	Outline []Vec
}

const crossArm = 0.3

var shapes = map[string]Shape{
	"circle":        {Circle: true},
	"triangle_up":   regular(3, 90, 1),
	"triangle_down": regular(3, -90, 1),
	"square":        regular(4, 45, 0.9),
	"diamond":       regular(4, 90, 1),
	"pentagon":      regular(5, 90, 1),
	"hexagon1":      regular(6, 90, 1),
	"hexagon2":      regular(6, 0, 1),
	"x_cross":       rotate(plus(crossArm), 45),
	"plus_cross":    plus(crossArm),
	"octagon":       regular(8, 22.5, 1),
}

// ShapeFor returns the outline for a marker name. Unknown markers draw as
// circles.
func ShapeFor(marker string) Shape {
	if s, ok := shapes[marker]; ok {
		return s
	}
	return Shape{Circle: true}
}

// regular returns an n-gon whose first vertex sits at startDeg.
func regular(n int, startDeg, radius float64) Shape {
	out := make([]Vec, n)
	for i := range n {
		a := (startDeg + 360*float64(i)/float64(n)) * math.Pi / 180
		out[i] = Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a)}
	}
	return Shape{Outline: out}
}

// plus returns a filled plus sign with arms of half-width w.
func plus(w float64) Shape {
	return Shape{Outline: []Vec{
		{w, 1}, {w, w}, {1, w}, {1, -w}, {w, -w}, {w, -1},
		{-w, -1}, {-w, -w}, {-1, -w}, {-1, w}, {-w, w}, {-w, 1},
	}}
}

func rotate(s Shape, deg float64) Shape {
	a := deg * math.Pi / 180
	sin, cos := math.Sin(a), math.Cos(a)
	out := make([]Vec, len(s.Outline))
	for i, v := range s.Outline {
		out[i] = Vec{X: v.X*cos - v.Y*sin, Y: v.X*sin + v.Y*cos}
	}
	return Shape{Circle: s.Circle, Outline: out}
}
