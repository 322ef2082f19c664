package render

import (
	"math"
	"strings"

	"github.com/matzehuels/spatialbench/pkg/errors"
	"github.com/matzehuels/spatialbench/pkg/record"
)

const (
	// DefaultSize is the default image edge length in pixels.
	DefaultSize = 800

	// MarkerArea and TargetArea are marker areas in square points on an
	// 8 inch (576 pt) figure.
	MarkerArea = 300
	TargetArea = 400

	// LabelOffset shifts a label right and up from its marker, in canvas units.
	LabelOffset = 0.02

	figurePoints = 8 * 72
	labelPoints  = 12
	framePoints  = 1.5
	paddingFrac  = 0.03
)

// Format is an image encoding.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

// Formats lists the supported encodings.
var Formats = []Format{PNG, SVG}

// ParseFormat parses "png" or "svg".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))); f {
	case PNG, SVG:
		return f, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown image format %q (must be png or svg)", s)
}

// Ext returns the file extension without a dot.
func (f Format) Ext() string { return string(f) }

// ContentType returns the MIME type.
func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Option configures rendering.
type Option func(*config)

type config struct {
	size       int
	markerArea float64
	targetArea float64
	labels     bool
}

// WithSize sets the image edge length in pixels.
func WithSize(px int) Option { return func(c *config) { c.size = px } }

// WithMarkerArea sets the regular and highlighted marker areas.
func WithMarkerArea(normal, target float64) Option {
	return func(c *config) { c.markerArea, c.targetArea = normal, target }
}

// WithoutLabels omits point names.
func WithoutLabels() Option { return func(c *config) { c.labels = false } }

func newConfig(opts ...Option) config {
	c := config{size: DefaultSize, markerArea: MarkerArea, targetArea: TargetArea, labels: true}
	for _, opt := range opts {
		opt(&c)
	}
	if c.size <= 0 {
		c.size = DefaultSize
	}
	return c
}

// Render encodes scene in format f.
func Render(scene record.Scene, f Format, opts ...Option) ([]byte, error) {
	switch f {
	case SVG:
		return RenderSVG(scene, opts...), nil
	case PNG:
		return RenderPNG(scene, opts...)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown image format %q", f)
}

// frame maps canvas units to pixels.
type frame struct {
	size  float64
	pad   float64
	inner float64
	perPt float64
	cfg   config
}

func newFrame(cfg config) frame {
	size := float64(cfg.size)
	pad := math.Round(size * paddingFrac)
	return frame{
		size:  size,
		pad:   pad,
		inner: size - 2*pad,
		perPt: size / figurePoints,
		cfg:   cfg,
	}
}

// px maps a canvas position to pixel coordinates.
func (f frame) px(x, y float64) (float64, float64) {
	return f.pad + x*f.inner, f.pad + (1-y)*f.inner
}

// radius returns the marker radius in pixels for an item.
func (f frame) radius(it record.DrawInstruction, highlight bool) float64 {
	area := f.cfg.markerArea
	if highlight && it.IsTarget {
		area = f.cfg.targetArea
	}
	return math.Sqrt(area) / 2 * f.perPt
}

func (f frame) fontSize() float64   { return labelPoints * f.perPt }
func (f frame) frameWidth() float64 { return framePoints * f.perPt }

// vertices returns the pixel outline of a shape centered at (cx, cy).
func vertices(s Shape, cx, cy, r float64) []Vec {
	out := make([]Vec, len(s.Outline))
	for i, v := range s.Outline {
		out[i] = Vec{X: cx + v.X*r, Y: cy - v.Y*r}
	}
	return out
}
