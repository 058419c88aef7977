package viewer

import (
	"image"
	"image/color"
	"math"

	"gioui.org/f32"
	"gioui.org/font"
	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"

	"github.com/OpenTraceLab/OpenTraceView/pkg/geom"
)

// textScale renders glyphs this many times larger than their world size and
// scales them back down, since Gio rounds font sizes to whole pixels.
const textScale = 100

// GioRenderer records layers into op.CallOp macros and replays them into
// the frame's op.Ops.
type GioRenderer struct {
	Background color.NRGBA

	target *op.Ops
	rec    *op.Ops
	macro  op.MacroOp
	shaper *text.Shaper
}

type gioGraphics struct {
	ops  *op.Ops // keeps the recorded operations alive
	call op.CallOp
}

// NewGioRenderer returns a renderer filling the background with bg.
func NewGioRenderer(bg color.NRGBA) *GioRenderer {
	return &GioRenderer{
		Background: bg,
		shaper:     text.NewShaper(text.WithCollection(gofont.Collection())),
	}
}

// SetTarget points Clear and Render at the current frame's operations.
func (r *GioRenderer) SetTarget(ops *op.Ops) {
	r.target = ops
}

func (r *GioRenderer) Clear() {
	if r.target == nil {
		return
	}
	paint.Fill(r.target, r.Background)
}

func (r *GioRenderer) StartLayer(name string) {
	r.rec = new(op.Ops)
	r.macro = op.Record(r.rec)
}

func (r *GioRenderer) EndLayer() Graphics {
	if r.rec == nil {
		return nil
	}
	g := &gioGraphics{ops: r.rec, call: r.macro.Stop()}
	r.rec = nil
	return g
}

func (r *GioRenderer) Polygon(points []geom.Vec2, fill color.NRGBA) {
	if r.rec == nil || len(points) < 3 {
		return
	}
	var path clip.Path
	path.Begin(r.rec)
	path.MoveTo(pt(points[0]))
	for _, p := range points[1:] {
		path.LineTo(pt(p))
	}
	path.Close()
	paint.FillShape(r.rec, fill, clip.Outline{Path: path.End()}.Op())
}

func (r *GioRenderer) Line(points []geom.Vec2, width float64, stroke color.NRGBA) {
	if r.rec == nil || len(points) < 2 {
		return
	}
	var path clip.Path
	path.Begin(r.rec)
	path.MoveTo(pt(points[0]))
	for _, p := range points[1:] {
		path.LineTo(pt(p))
	}
	paint.FillShape(r.rec, stroke, clip.Stroke{
		Path:  path.End(),
		Width: float32(width),
	}.Op())
}

// Text draws s with its bottom-left corner at anchor. size is the glyph
// height in world units and angle is counter-clockwise in degrees.
func (r *GioRenderer) Text(s string, anchor geom.Vec2, size, angle float64, c color.NRGBA) {
	if r.rec == nil || s == "" || size <= 0 {
		return
	}
	px := float32(size * textScale)
	transform := f32.Affine2D{}.
		Offset(f32.Pt(0, -px)).
		Scale(f32.Point{}, f32.Pt(1.0/textScale, 1.0/textScale)).
		Rotate(f32.Point{}, float32(-angle*math.Pi/180)).
		Offset(pt(anchor))
	stack := op.Affine(transform).Push(r.rec)

	m := op.Record(r.rec)
	paint.ColorOp{Color: c}.Add(r.rec)
	material := m.Stop()

	gtx := layout.Context{
		Ops:         r.rec,
		Constraints: layout.Constraints{Max: image.Pt(1<<20, 1<<20)},
	}
	label := widget.Label{MaxLines: 1}
	label.Layout(gtx, r.shaper, font.Font{}, unit.Sp(px), s, material)
	stack.Pop()
}

func (r *GioRenderer) Render(matrix f32.Affine2D, g Graphics, depth int, alpha float64) {
	gg, ok := g.(*gioGraphics)
	if !ok || r.target == nil {
		return
	}
	t := op.Affine(matrix).Push(r.target)
	o := paint.PushOpacity(r.target, float32(alpha))
	gg.call.Add(r.target)
	o.Pop()
	t.Pop()
}

func pt(p geom.Vec2) f32.Point {
	return f32.Pt(float32(p.X), float32(p.Y))
}
