package viewer

import (
	"image/color"

	"gioui.org/f32"

	"github.com/OpenTraceLab/OpenTraceView/pkg/geom"
)

// Renderer is the drawing backend. Painting happens in two phases: layers are
// recorded once between StartLayer and EndLayer, then replayed every frame
// with Render.
type Renderer interface {
	// Clear fills the target with the background colour.
	Clear()
	// StartLayer begins recording a new batch.
	StartLayer(name string)
	// Polygon fills a closed outline in world coordinates.
	Polygon(points []geom.Vec2, fill color.NRGBA)
	// Line strokes an open polyline of the given world width.
	Line(points []geom.Vec2, width float64, stroke color.NRGBA)
	// EndLayer finishes the batch started by StartLayer.
	EndLayer() Graphics
	// Render replays a batch through the world to screen matrix.
	Render(matrix f32.Affine2D, g Graphics, depth int, alpha float64)
}

// TextRenderer is implemented by renderers that can draw text.
type TextRenderer interface {
	Text(s string, anchor geom.Vec2, size, angle float64, c color.NRGBA)
}

// CirclePolygon approximates a circle with n segments for Polygon/Line.
func CirclePolygon(center geom.Vec2, radius float64, n int) []geom.Vec2 {
	if n < 3 {
		n = 3
	}
	pts := make([]geom.Vec2, 0, n)
	for i := 0; i < n; i++ {
		pts = append(pts, center.Add(geom.V(radius, 0).Rotate(360*float64(i)/float64(n))))
	}
	return pts
}

// RectPolygon returns the corners of b as a closed outline.
func RectPolygon(b geom.BBox) []geom.Vec2 {
	return b.Corners()
}
