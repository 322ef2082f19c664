package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/spatialbench/pkg/record"
)

// RenderSVG renders scene as a standalone SVG document.
func RenderSVG(scene record.Scene, opts ...Option) []byte {
	f := newFrame(newConfig(opts...))

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.0f %.0f" width="%.0f" height="%.0f">`+"\n",
		f.size, f.size, f.size, f.size)
	fmt.Fprintf(&buf, `  <rect width="%.0f" height="%.0f" fill="#FFFFFF"/>`+"\n", f.size, f.size)

	for _, it := range scene.Items {
		renderMarkerSVG(&buf, f, it, scene.HighlightTarget)
	}
	if f.cfg.labels {
		for _, it := range scene.Items {
			renderLabelSVG(&buf, f, it)
		}
	}

	fmt.Fprintf(&buf, `  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="none" stroke="#000000" stroke-width="%.2f"/>`+"\n",
		f.pad, f.pad, f.inner, f.inner, f.frameWidth())

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderMarkerSVG(buf *bytes.Buffer, f frame, it record.DrawInstruction, highlight bool) {
	cx, cy := f.px(it.X, it.Y)
	r := f.radius(it, highlight)
	class := "marker"
	if it.IsTarget {
		class += " target"
	}
	style := fmt.Sprintf(`fill="%s" stroke="#000000" stroke-width="%.2f"`, html.EscapeString(it.Hex), f.perPt)

	s := ShapeFor(it.Marker)
	if s.Circle {
		fmt.Fprintf(buf, `  <circle id="point-%s" class="%s" cx="%.2f" cy="%.2f" r="%.2f" %s/>`+"\n",
			html.EscapeString(it.Name), class, cx, cy, r, style)
		return
	}

	fmt.Fprintf(buf, `  <polygon id="point-%s" class="%s" points="`, html.EscapeString(it.Name), class)
	for i, v := range vertices(s, cx, cy, r) {
		if i > 0 {
			buf.WriteByte(' ')
		}
		fmt.Fprintf(buf, "%.2f,%.2f", v.X, v.Y)
	}
	fmt.Fprintf(buf, `" %s/>`+"\n", style)
}

func renderLabelSVG(buf *bytes.Buffer, f frame, it record.DrawInstruction) {
	x, y := f.px(it.X+LabelOffset, it.Y+LabelOffset)
	fmt.Fprintf(buf, `  <text x="%.2f" y="%.2f" font-family="sans-serif" font-size="%.1f" dominant-baseline="middle">%s</text>`+"\n",
		x, y, f.fontSize(), html.EscapeString(it.Name))
}
