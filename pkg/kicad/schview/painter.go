package schview

import (
	"image/color"
	"math"

	"github.com/OpenTraceLab/OpenTraceView/pkg/geom"
	"github.com/OpenTraceLab/OpenTraceView/pkg/kicad/schematic"
	"github.com/OpenTraceLab/OpenTraceView/pkg/viewer"
)

// Layer names, front to back after the viewer's overlay.
const (
	LayerLabels    = "labels"
	LayerJunctions = "junctions"
	LayerWires     = "wires"
	LayerBuses     = "buses"
	LayerSymbols   = "symbols"
	LayerSheets    = "sheets"
	LayerDrawings  = "drawings"
)

// KiCad defaults, in mm.
const (
	defaultWireWidth     = 0.1524
	defaultBusWidth      = 0.3048
	defaultStrokeWidth   = 0.1524
	defaultJunctionDiam  = 0.9144
	defaultFontSize      = 1.27
	defaultPinTextSize   = 1.0
	pinNumberOffset      = 0.3
	wireHitMargin        = 0.4
	unresolvedSymbolSize = 2.54
	circleSegments       = 24
	arcSegments          = 16
	// charAspect approximates the advance of a glyph relative to its height.
	charAspect = 0.65
)

type painter struct {
	doc    *Document
	r      viewer.Renderer
	text   viewer.TextRenderer
	colors *Colors
}

// Paint adds the schematic layers to ls and records their graphics with r.
func (d *Document) Paint(ls *viewer.LayerSet, r viewer.Renderer) error {
	p := &painter{doc: d, r: r, colors: d.colors}
	p.text, _ = r.(viewer.TextRenderer)

	steps := []struct {
		name  string
		paint func(*viewer.Layer)
	}{
		{LayerLabels, p.labels},
		{LayerJunctions, p.junctions},
		{LayerWires, p.wires},
		{LayerBuses, p.buses},
		{LayerSymbols, p.symbols},
		{LayerSheets, p.sheets},
		{LayerDrawings, p.drawings},
	}
	for _, s := range steps {
		layer := viewer.NewLayer(s.name)
		r.StartLayer(s.name)
		s.paint(layer)
		layer.Graphics = r.EndLayer()
		ls.Add(layer)
	}
	ls.ByName(LayerDrawings).Interactive = false

	logger().Debug("painted schematic",
		"symbols", len(d.sch.Symbols),
		"wires", len(d.sch.Wires),
		"labels", len(d.sch.Labels)+len(d.sch.GlobalLabels)+len(d.sch.HierLabels))
	return nil
}

func (p *painter) drawText(s string, at geom.Vec2, size, angle float64, c color.NRGBA) {
	if p.text != nil {
		p.text.Text(s, at, size, angle, c)
	}
}

func (p *painter) labels(l *viewer.Layer) {
	sch := p.doc.sch
	groups := []struct {
		kind   Kind
		labels []schematic.Label
		color  color.NRGBA
	}{
		{KindNetLabel, sch.Labels, p.colors.LocalLabel},
		{KindGlobalLabel, sch.GlobalLabels, p.colors.GlobalLabel},
		{KindHierLabel, sch.HierLabels, p.colors.HierLabel},
	}
	for _, g := range groups {
		for i := range g.labels {
			label := &g.labels[i]
			item := Item{Kind: g.kind, Index: i}
			box := labelBox(label, g.kind != KindNetLabel)
			if g.kind != KindNetLabel {
				outline := box.Corners()
				p.r.Line(append(outline, outline[0]), defaultStrokeWidth, g.color)
			}
			p.drawText(label.Text, labelTextAnchor(label, g.kind != KindNetLabel), labelFontSize(label), label.Angle, g.color)
			box.Context = item
			l.Add(box)
		}
	}
}

func labelFontSize(label *schematic.Label) float64 {
	if label.FontSize > 0 {
		return label.FontSize
	}
	return defaultFontSize
}

// labelShape returns the label's outline in sheet coordinates before it is
// boxed. Text runs from the anchor along the label angle and sits above the
// baseline; shaped labels get a margin on every side.
func labelShape(label *schematic.Label, shaped bool) []geom.Vec2 {
	size := labelFontSize(label)
	w := float64(len([]rune(label.Text))) * size * charAspect
	h := size
	var pad float64
	if shaped {
		pad = size * 0.4
		w += size
	}
	local := []geom.Vec2{
		geom.V(0, pad),
		geom.V(w+pad, pad),
		geom.V(w+pad, -h-pad),
		geom.V(0, -h-pad),
	}
	for i, pt := range local {
		local[i] = pt.Rotate(-label.Angle).Add(label.Position)
	}
	return local
}

func labelBox(label *schematic.Label, shaped bool) geom.BBox {
	return geom.FromPoints(labelShape(label, shaped), nil)
}

func labelTextAnchor(label *schematic.Label, shaped bool) geom.Vec2 {
	if !shaped {
		return label.Position
	}
	shift := geom.V(labelFontSize(label)*0.5, 0).Rotate(-label.Angle)
	return label.Position.Add(shift)
}

func (p *painter) junctions(l *viewer.Layer) {
	for i := range p.doc.sch.Junctions {
		j := &p.doc.sch.Junctions[i]
		r := j.Diameter / 2
		if r <= 0 {
			r = defaultJunctionDiam / 2
		}
		p.r.Polygon(viewer.CirclePolygon(j.Position, r, circleSegments), p.colors.Junction)
		l.Add(geom.NewBBox(j.Position.X-r, j.Position.Y-r, 2*r, 2*r, Item{Kind: KindJunction, Index: i}))
	}
}

func (p *painter) wires(l *viewer.Layer) {
	p.strokes(l, p.doc.sch.Wires, KindWire, defaultWireWidth, p.colors.Wire)
}

func (p *painter) buses(l *viewer.Layer) {
	p.strokes(l, p.doc.sch.Buses, KindBus, defaultBusWidth, p.colors.Bus)
}

func (p *painter) strokes(l *viewer.Layer, wires []schematic.Wire, kind Kind, width float64, c color.NRGBA) {
	for i := range wires {
		w := &wires[i]
		if len(w.Points) == 0 {
			continue
		}
		sw := w.Width
		if sw <= 0 {
			sw = width
		}
		if len(w.Points) >= 2 {
			p.r.Line(w.Points, sw, c)
		}
		box := geom.FromPoints(w.Points, Item{Kind: kind, Index: i}).Grow(math.Max(sw/2, wireHitMargin))
		l.Add(box)
	}
}

func (p *painter) symbols(l *viewer.Layer) {
	sch := p.doc.sch
	for i := range sch.Symbols {
		sym := &sch.Symbols[i]
		item := Item{Kind: KindSymbol, Index: i}
		lib := sch.LibSymbol(sym)
		if lib == nil {
			logger().Debug("symbol has no library definition", "ref", sym.Reference(), "lib_id", sym.LibID)
			half := unresolvedSymbolSize / 2
			box := geom.NewBBox(sym.Position.X-half, sym.Position.Y-half, unresolvedSymbolSize, unresolvedSymbolSize, item)
			outline := box.Corners()
			p.r.Line(append(outline, outline[0]), defaultStrokeWidth, p.colors.SymbolBody)
			l.Add(box)
			continue
		}

		var extent []geom.Vec2
		for _, g := range lib.GraphicsForUnit(sym.Unit) {
			extent = append(extent, p.graphic(sym, g)...)
		}
		for _, pin := range lib.PinsForUnit(sym.Unit) {
			extent = append(extent, p.pin(sym, lib, &pin)...)
		}
		p.properties(sym)

		if len(extent) == 0 {
			extent = []geom.Vec2{sym.Position}
		}
		l.Add(geom.FromPoints(extent, item))
	}
}

// graphic draws one library primitive of sym and returns the sheet points
// that bound it.
func (p *painter) graphic(sym *schematic.Symbol, g schematic.Graphic) []geom.Vec2 {
	width := g.Width
	if width <= 0 {
		width = defaultStrokeWidth
	}

	var outline []geom.Vec2
	closed := false
	switch g.Kind {
	case schematic.GraphicRectangle:
		outline = []geom.Vec2{
			g.Start,
			geom.V(g.End.X, g.Start.Y),
			g.End,
			geom.V(g.Start.X, g.End.Y),
		}
		closed = true
	case schematic.GraphicCircle:
		outline = viewer.CirclePolygon(g.Center, g.Radius, circleSegments)
		closed = true
	case schematic.GraphicArc:
		outline = arcPoints(g.Start, g.Mid, g.End, arcSegments)
	case schematic.GraphicPolyline:
		outline = append(outline, g.Points...)
	case schematic.GraphicText:
		at := sym.Transform(g.Start)
		p.drawText(g.Text, at, defaultFontSize, sym.Angle, p.colors.SymbolText)
		return []geom.Vec2{at}
	}
	if len(outline) == 0 {
		return nil
	}

	world := make([]geom.Vec2, len(outline))
	for i, pt := range outline {
		world[i] = sym.Transform(pt)
	}

	switch g.Fill {
	case "outline":
		p.r.Polygon(world, p.colors.SymbolBody)
	case "background":
		p.r.Polygon(world, p.colors.SymbolFill)
	}
	if closed {
		p.r.Line(append(world, world[0]), width, p.colors.SymbolBody)
	} else if len(world) >= 2 {
		p.r.Line(world, width, p.colors.SymbolBody)
	}
	return world
}

func (p *painter) pin(sym *schematic.Symbol, lib *schematic.LibSymbol, pin *schematic.Pin) []geom.Vec2 {
	start := schematic.PinWorldPosition(sym, pin)
	end := schematic.PinEnd(sym, pin)
	if pin.Hidden {
		return []geom.Vec2{start}
	}
	p.r.Line([]geom.Vec2{start, end}, defaultStrokeWidth, p.colors.SymbolPin)
	if !lib.PinNumbersHidden && pin.Number != "" {
		mid := start.Add(end).Scale(0.5)
		p.drawText(pin.Number, mid.Add(geom.V(0, -pinNumberOffset)), defaultPinTextSize, 0, p.colors.SymbolPin)
	}
	if !lib.PinNamesHidden && pin.Name != "" && pin.Name != "~" {
		p.drawText(pin.Name, end, defaultPinTextSize, 0, p.colors.SymbolText)
	}
	return []geom.Vec2{start, end}
}

func (p *painter) properties(sym *schematic.Symbol) {
	for _, prop := range sym.Properties {
		if prop.Hidden || prop.Value == "" {
			continue
		}
		if prop.Key != "Reference" && prop.Key != "Value" {
			continue
		}
		p.drawText(prop.Value, prop.Position, defaultFontSize, prop.Angle, p.colors.SymbolText)
	}
}

func (p *painter) sheets(l *viewer.Layer) {
	for i := range p.doc.sch.Sheets {
		s := &p.doc.sch.Sheets[i]
		box := geom.NewBBox(s.Position.X, s.Position.Y, s.Size.X, s.Size.Y, Item{Kind: KindSheet, Index: i})
		outline := box.Corners()
		p.r.Polygon(outline, p.colors.SheetFill)
		p.r.Line(append(outline, outline[0]), defaultStrokeWidth, p.colors.Sheet)
		p.drawText(s.Name, geom.V(s.Position.X, s.Position.Y-0.5), defaultFontSize, 0, p.colors.SheetText)
		for _, pin := range s.Pins {
			p.drawText(pin.Name, pin.Position, defaultPinTextSize, pin.Angle, p.colors.SheetText)
		}
		l.Add(box)
	}
}

// drawings holds non-electrical graphics. Its boxes only feed content bounds.
func (p *painter) drawings(l *viewer.Layer) {
	for _, pl := range p.doc.sch.Polylines {
		if len(pl.Points) < 2 {
			continue
		}
		w := pl.Width
		if w <= 0 {
			w = defaultStrokeWidth
		}
		p.r.Line(pl.Points, w, p.colors.Drawing)
		l.Add(geom.FromPoints(pl.Points, nil))
	}
	for _, t := range p.doc.sch.Texts {
		size := t.FontSize
		if size <= 0 {
			size = defaultFontSize
		}
		p.drawText(t.Text, t.Position, size, t.Angle, p.colors.Drawing)
	}
	if paper, ok := p.doc.paperBounds(); ok {
		outline := paper.Corners()
		p.r.Line(append(outline, outline[0]), defaultStrokeWidth, p.colors.Page)
	}
}

// arcPoints samples the circular arc through start, mid and end. Collinear
// input degrades to the two straight segments.
func arcPoints(start, mid, end geom.Vec2, n int) []geom.Vec2 {
	ax, ay := start.X, start.Y
	bx, by := mid.X, mid.Y
	cx, cy := end.X, end.Y
	d := 2 * (ax*(by-cy) + bx*(cy-ay) + cx*(ay-by))
	if math.Abs(d) < 1e-12 {
		return []geom.Vec2{start, mid, end}
	}
	a2 := ax*ax + ay*ay
	b2 := bx*bx + by*by
	c2 := cx*cx + cy*cy
	center := geom.V(
		(a2*(by-cy)+b2*(cy-ay)+c2*(ay-by))/d,
		(a2*(cx-bx)+b2*(ax-cx)+c2*(bx-ax))/d,
	)
	radius := start.Sub(center).Len()

	angle := func(p geom.Vec2) float64 { return math.Atan2(p.Y-center.Y, p.X-center.X) }
	a0, am, a1 := angle(start), angle(mid), angle(end)
	sweep := normalizeRad(a1 - a0)
	// Go the other way round if mid is not on the counter-clockwise sweep.
	if normalizeRad(am-a0) > sweep {
		sweep -= 2 * math.Pi
	}

	pts := make([]geom.Vec2, 0, n+1)
	for i := 0; i <= n; i++ {
		t := a0 + sweep*float64(i)/float64(n)
		pts = append(pts, geom.V(center.X+radius*math.Cos(t), center.Y+radius*math.Sin(t)))
	}
	return pts
}

func normalizeRad(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
