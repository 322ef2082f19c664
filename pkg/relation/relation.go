// Package relation defines the qualitative spatial relations used by the
// benchmark and solves them into placement regions on the unit canvas.
//
// # Relations and Modes
//
// A [Relation] is one of four diagonal directions. In [Quadrant] mode the
// relation is measured from the canvas [Center]; in [Directional] mode it is
// measured from an arbitrary reference point.
//
// # Regions
//
// [RegionFor] turns a relation into the axis-aligned [Rect] of coordinates
// that satisfy it with a minimum offset on both axes, clipped to the canvas
// margins:
//
//	r, ok := relation.RegionFor(relation.LowerLeft, 0.1, 0.1, relation.Point{X: 0.5, Y: 0.5})
//	// r = [0.1,0.4] x [0.1,0.4], ok = true
//
// A region with no positive extent is reported with ok == false. This is a
// routine outcome for random reference points and callers resample.
package relation

import (
	"fmt"
	"strings"

	"github.com/matzehuels/spatialbench/pkg/errors"
)

// Relation is a diagonal direction of one point relative to another.
type Relation int

const (
	UpperRight Relation = iota
	UpperLeft
	LowerLeft
	LowerRight
)

// All lists every relation in declaration order.
var All = []Relation{UpperRight, UpperLeft, LowerLeft, LowerRight}

var relationNames = map[Relation]string{
	UpperRight: "upper_right",
	UpperLeft:  "upper_left",
	LowerLeft:  "lower_left",
	LowerRight: "lower_right",
}

var relationTitles = map[Relation]string{
	UpperRight: "UpperRight",
	UpperLeft:  "UpperLeft",
	LowerLeft:  "LowerLeft",
	LowerRight: "LowerRight",
}

// String returns the snake_case key, e.g. "upper_right".
func (r Relation) String() string {
	if s, ok := relationNames[r]; ok {
		return s
	}
	return fmt.Sprintf("relation(%d)", int(r))
}

// Title returns the option text used in questions, e.g. "UpperRight".
func (r Relation) Title() string {
	if s, ok := relationTitles[r]; ok {
		return s
	}
	panic(fmt.Sprintf("relation: unknown relation %d", int(r)))
}

// Valid reports whether r is one of the four declared relations.
func (r Relation) Valid() bool {
	_, ok := relationNames[r]
	return ok
}

// Upper reports whether r lies above its reference.
func (r Relation) Upper() bool { return r == UpperRight || r == UpperLeft }

// Right reports whether r lies right of its reference.
func (r Relation) Right() bool { return r == UpperRight || r == LowerRight }

// MarshalText implements encoding.TextMarshaler.
func (r Relation) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidRelation, "unknown relation %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Relation) UnmarshalText(text []byte) error {
	parsed, err := ParseRelation(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRelation parses a snake_case relation key. The original quadrant
// keys ("quadrant_1" .. "quadrant_4") are accepted as aliases.
func ParseRelation(s string) (Relation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "upper_right", "quadrant_1":
		return UpperRight, nil
	case "upper_left", "quadrant_2":
		return UpperLeft, nil
	case "lower_left", "quadrant_3":
		return LowerLeft, nil
	case "lower_right", "quadrant_4":
		return LowerRight, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidRelation,
		"unknown relation %q (must be one of: upper_right, upper_left, lower_left, lower_right)", s)
}

// Mode selects what a relation is measured against.
type Mode int

const (
	// Quadrant measures a single target against the canvas center.
	Quadrant Mode = iota
	// Directional measures a target A against a reference point B.
	Directional
)

// Modes lists both modes.
var Modes = []Mode{Quadrant, Directional}

// String returns "quadrant" or "directional".
func (m Mode) String() string {
	switch m {
	case Quadrant:
		return "quadrant"
	case Directional:
		return "directional"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Tag returns the short dataset tag: "ABS" for quadrant, "REL" for directional.
func (m Mode) Tag() string {
	if m == Directional {
		return "REL"
	}
	return "ABS"
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if m != Quadrant && m != Directional {
		return nil, errors.New(errors.ErrCodeInvalidMode, "unknown mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMode parses "quadrant" (alias "abs") or "directional" (alias "rel").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quadrant", "abs":
		return Quadrant, nil
	case "directional", "rel":
		return Directional, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidMode, "unknown mode %q (must be quadrant or directional)", s)
}
