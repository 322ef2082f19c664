package record

import (
	"github.com/matzehuels/spatialbench/pkg/layout"
	"github.com/matzehuels/spatialbench/pkg/relation"
)

// DrawInstruction is one marker to draw.
type DrawInstruction struct {
	Name       string  `json:"name"`
	Marker     string  `json:"marker"`
	MarkerCode string  `json:"marker_code"`
	Color      string  `json:"color"`
	Hex        string  `json:"hex"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	IsTarget   bool    `json:"is_target"`
}

// Scene is the ordered drawing of one layout.
type Scene struct {
	Items []DrawInstruction `json:"items"`

	// HighlightTarget asks the renderer to enlarge the target marker.
	HighlightTarget bool `json:"highlight_target"`
}

// NewScene converts a layout into draw instructions in creation order.
// The target is highlighted in quadrant mode only.
func NewScene(l layout.Layout) Scene {
	s := Scene{
		Items:           make([]DrawInstruction, len(l.Points)),
		HighlightTarget: l.Mode == relation.Quadrant,
	}
	for i, p := range l.Points {
		s.Items[i] = DrawInstruction{
			Name:       p.Name,
			Marker:     p.Marker.Name,
			MarkerCode: p.Marker.Code,
			Color:      p.Color.Name,
			Hex:        p.Color.Hex,
			X:          p.X,
			Y:          p.Y,
			IsTarget:   p.Name == l.Target,
		}
	}
	return s
}

// Truth is the full ground truth of one image, exported alongside the
// records for debugging and analysis.
type Truth struct {
	ImgName   string            `json:"img_name"`
	Mode      relation.Mode     `json:"mode"`
	Relation  relation.Relation `json:"relation"`
	Target    string            `json:"target"`
	Reference string            `json:"reference,omitempty"`
	Points    []layout.Point    `json:"points"`
}

// NewTruth pairs a record's image name with the layout it was built from.
func NewTruth(imgName string, l layout.Layout) Truth {
	return Truth{
		ImgName:   imgName,
		Mode:      l.Mode,
		Relation:  l.Relation,
		Target:    l.Target,
		Reference: l.Reference,
		Points:    l.Points,
	}
}
