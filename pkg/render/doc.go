// Package render draws benchmark scenes.
//
// # Overview
//
// A [record.Scene] lists styled markers on the unit canvas. This package
// turns a scene into image bytes:
//
//   - SVG: [RenderSVG], written directly as markup
//   - PNG: [RenderPNG], rasterized with fogleman/gg
//
// Both formats share the same geometry. The canvas is a square with a thin
// padding and a black frame. Canvas coordinates grow up and to the right,
// so y is flipped when mapped to pixels. Axes carry no ticks.
//
// # Markers
//
// Each marker name from [attrs.Markers] maps to a [Shape]: a circle or a
// closed outline with unit radius. Markers are filled with their color and
// stroked in black. Sizes are given as areas in square points on an
// 8 inch figure and scale with the image size, so a 300 area marker covers
// the same fraction of the image at any resolution. When a scene asks for
// it, the target is drawn with the larger [TargetArea].
//
// # Labels
//
// Every marker carries its name, left aligned and vertically centered at an
// offset of [LabelOffset] on both axes.
//
// # Options
//
//	svg := render.RenderSVG(scene, render.WithSize(1600))
//	png, err := render.RenderPNG(scene, render.WithMarkerArea(200, 300))
//
// [record.Scene]: github.com/matzehuels/spatialbench/pkg/record.Scene
// [attrs.Markers]: github.com/matzehuels/spatialbench/pkg/attrs.Markers
package render
