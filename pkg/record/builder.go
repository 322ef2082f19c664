package record

import (
	"fmt"
	"strings"

	"github.com/matzehuels/spatialbench/pkg/layout"
	"github.com/matzehuels/spatialbench/pkg/relation"
)

// Preamble opens every question.
const Preamble = "The figure represents a map with multiple objects. " +
	"Each object is associated with a name as shown in the figure. " +
	"Please answer the following multiple-choice question based on the provided information."

// OptionsMarker precedes the answer list in every question.
const OptionsMarker = "Available options:"

// optionOrder is the answer list per mode. The letter of a relation is its
// position in this list.
var optionOrder = map[relation.Mode][]relation.Relation{
	relation.Quadrant:    {relation.UpperRight, relation.UpperLeft, relation.LowerLeft, relation.LowerRight},
	relation.Directional: {relation.LowerLeft, relation.LowerRight, relation.UpperLeft, relation.UpperRight},
}

// Options returns the labelled answer choices for mode, e.g.
// "A. UpperRight" first in quadrant mode.
func Options(mode relation.Mode) []string {
	order := optionOrder[mode]
	out := make([]string, len(order))
	for i, rel := range order {
		out[i] = fmt.Sprintf("%c. %s", 'A'+i, rel.Title())
	}
	return out
}

// Answer returns the answer label for rel under mode. It panics on a
// relation outside [relation.All].
func Answer(mode relation.Mode, rel relation.Relation) string {
	for i, r := range optionOrder[mode] {
		if r == rel {
			return fmt.Sprintf("%c. %s", 'A'+i, rel.Title())
		}
	}
	panic(fmt.Sprintf("record: no answer for relation %d in mode %s", int(rel), mode))
}

// Handle names a point the way variant v refers to it.
func Handle(p layout.Point, v Variant) string {
	if v == Visual {
		return p.Color.Name + " object"
	}
	return "object " + p.Name
}

// Question renders the full question text for l in phrasing v.
func Question(l layout.Layout, v Variant) string {
	var q string
	switch l.Mode {
	case relation.Directional:
		b, _ := l.Point(l.Reference)
		q = fmt.Sprintf("In which direction is %s relative to %s?", Handle(l.TargetPoint(), v), Handle(b, v))
	default:
		q = fmt.Sprintf("Which direction is %s located in the image?", Handle(l.TargetPoint(), v))
	}

	var sb strings.Builder
	sb.WriteString(Preamble)
	sb.WriteByte(' ')
	sb.WriteString(q)
	sb.WriteByte(' ')
	sb.WriteString(OptionsMarker)
	for _, opt := range Options(l.Mode) {
		sb.WriteByte('\n')
		sb.WriteString(opt)
	}
	sb.WriteByte('.')
	return sb.String()
}

// Build returns the record for the layout sampled at index. ext is the image
// extension used by the sink ("png" when empty).
func Build(index int, ext string, l layout.Layout) Record {
	return Record{
		ImgName: ImageName(index, ext),
		SybVp:   Question(l, Symbolic),
		ImgVp:   Question(l, Visual),
		Ans:     Answer(l.Mode, l.Relation),
	}
}
