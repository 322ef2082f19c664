package render

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"

	"github.com/matzehuels/spatialbench/pkg/record"
)

var (
	regularOnce sync.Once
	regularFont *sfnt.Font
	regularErr  error
)

// labelFace returns a Go Regular face at size px.
func labelFace(size float64) (font.Face, error) {
	regularOnce.Do(func() {
		regularFont, regularErr = opentype.Parse(goregular.TTF)
	})
	if regularErr != nil {
		return nil, fmt.Errorf("parse font: %w", regularErr)
	}
	return opentype.NewFace(regularFont, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// RenderPNG renders scene as a PNG image.
func RenderPNG(scene record.Scene, opts ...Option) ([]byte, error) {
	f := newFrame(newConfig(opts...))

	dc := gg.NewContext(f.cfg.size, f.cfg.size)
	dc.SetHexColor("#FFFFFF")
	dc.Clear()

	for _, it := range scene.Items {
		drawMarker(dc, f, it, scene.HighlightTarget)
	}

	if f.cfg.labels {
		face, err := labelFace(f.fontSize())
		if err != nil {
			return nil, err
		}
		defer face.Close()
		dc.SetFontFace(face)
		dc.SetHexColor("#000000")
		for _, it := range scene.Items {
			x, y := f.px(it.X+LabelOffset, it.Y+LabelOffset)
			dc.DrawStringAnchored(it.Name, x, y, 0, 0.5)
		}
	}

	dc.SetHexColor("#000000")
	dc.SetLineWidth(f.frameWidth())
	dc.DrawRectangle(f.pad, f.pad, f.inner, f.inner)
	dc.Stroke()

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawMarker(dc *gg.Context, f frame, it record.DrawInstruction, highlight bool) {
	cx, cy := f.px(it.X, it.Y)
	r := f.radius(it, highlight)

	s := ShapeFor(it.Marker)
	if s.Circle {
		dc.DrawCircle(cx, cy, r)
	} else {
		dc.NewSubPath()
		for i, v := range vertices(s, cx, cy, r) {
			if i == 0 {
				dc.MoveTo(v.X, v.Y)
			} else {
				dc.LineTo(v.X, v.Y)
			}
		}
		dc.ClosePath()
	}

	dc.SetHexColor(it.Hex)
	dc.FillPreserve()
	dc.SetHexColor("#000000")
	dc.SetLineWidth(f.perPt)
	dc.Stroke()
}
