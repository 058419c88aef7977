package schview

import (
	"fmt"
	"image/color"
	"log/slog"

	"gioui.org/f32"

	"github.com/OpenTraceLab/OpenTraceView/pkg/geom"
	"github.com/OpenTraceLab/OpenTraceView/pkg/kicad/schematic"
	"github.com/OpenTraceLab/OpenTraceView/pkg/viewer"
)

func logger() *slog.Logger { return viewer.Logger() }

// Document is a schematic sheet ready for display.
type Document struct {
	sch    *schematic.Schematic
	colors *Colors
	path   string

	content *geom.BBox
}

// NewDocument wraps an already parsed schematic.
func NewDocument(sch *schematic.Schematic, theme Theme) *Document {
	return &Document{sch: sch, colors: ColorsFor(theme)}
}

// Load parses the .kicad_sch file at path.
func Load(path string, theme Theme) (*Document, error) {
	sch, err := schematic.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load schematic: %w", err)
	}
	d := NewDocument(sch, theme)
	d.path = path
	logger().Info("loaded schematic", "path", path, "symbols", len(sch.Symbols), "wires", len(sch.Wires))
	return d, nil
}

// Schematic returns the underlying parsed document.
func (d *Document) Schematic() *schematic.Schematic { return d.sch }

// Path is the file the document was loaded from, if any.
func (d *Document) Path() string { return d.path }

// Colors returns the palette the document paints with.
func (d *Document) Colors() *Colors { return d.colors }

// SetTheme changes the palette used by the next Paint.
func (d *Document) SetTheme(t Theme) { d.colors = ColorsFor(t) }

// SymbolByReference returns the first symbol with the given Reference, or
// nil.
func (d *Document) SymbolByReference(ref string) viewer.Item {
	for i := range d.sch.Symbols {
		if d.sch.Symbols[i].Reference() == ref {
			return Item{Kind: KindSymbol, Index: i}
		}
	}
	return nil
}

// Symbol returns the symbol an item refers to, or nil.
func (d *Document) Symbol(it Item) *schematic.Symbol {
	if it.Kind != KindSymbol || it.Index < 0 || it.Index >= len(d.sch.Symbols) {
		return nil
	}
	return &d.sch.Symbols[it.Index]
}

// Sheet returns the sheet an item refers to, or nil.
func (d *Document) Sheet(it Item) *schematic.Sheet {
	if it.Kind != KindSheet || it.Index < 0 || it.Index >= len(d.sch.Sheets) {
		return nil
	}
	return &d.sch.Sheets[it.Index]
}

// Wire returns the wire or bus an item refers to, or nil.
func (d *Document) Wire(it Item) *schematic.Wire {
	var s []schematic.Wire
	switch it.Kind {
	case KindWire:
		s = d.sch.Wires
	case KindBus:
		s = d.sch.Buses
	default:
		return nil
	}
	if it.Index < 0 || it.Index >= len(s) {
		return nil
	}
	return &s[it.Index]
}

// Label returns the label of any of the three kinds an item refers to, or nil.
func (d *Document) Label(it Item) *schematic.Label {
	var s []schematic.Label
	switch it.Kind {
	case KindNetLabel:
		s = d.sch.Labels
	case KindGlobalLabel:
		s = d.sch.GlobalLabels
	case KindHierLabel:
		s = d.sch.HierLabels
	default:
		return nil
	}
	if it.Index < 0 || it.Index >= len(s) {
		return nil
	}
	return &s[it.Index]
}

// Junction returns the junction an item refers to, or nil.
func (d *Document) Junction(it Item) *schematic.Junction {
	if it.Kind != KindJunction || it.Index < 0 || it.Index >= len(d.sch.Junctions) {
		return nil
	}
	return &d.sch.Junctions[it.Index]
}

// UUID returns the item's uuid, or "" for a stale handle.
func (d *Document) UUID(it Item) string {
	switch {
	case d.Symbol(it) != nil:
		return d.Symbol(it).UUID
	case d.Sheet(it) != nil:
		return d.Sheet(it).UUID
	case d.Wire(it) != nil:
		return d.Wire(it).UUID
	case d.Label(it) != nil:
		return d.Label(it).UUID
	case d.Junction(it) != nil:
		return d.Junction(it).UUID
	}
	return ""
}

// Describe returns a one-line human readable name for an item.
func (d *Document) Describe(it Item) string {
	if s := d.Symbol(it); s != nil {
		ref := s.Reference()
		if ref == "" {
			ref = "?"
		}
		if v := s.Value(); v != "" {
			return fmt.Sprintf("%s %s (%s)", ref, v, s.LibID)
		}
		return fmt.Sprintf("%s (%s)", ref, s.LibID)
	}
	if s := d.Sheet(it); s != nil {
		return fmt.Sprintf("sheet %s (%s)", s.Name, s.FileName)
	}
	if w := d.Wire(it); w != nil {
		if len(w.Points) == 0 {
			return it.Kind.String()
		}
		a, b := w.Points[0], w.Points[len(w.Points)-1]
		return fmt.Sprintf("%s (%.2f, %.2f)-(%.2f, %.2f)", it.Kind, a.X, a.Y, b.X, b.Y)
	}
	if l := d.Label(it); l != nil {
		return fmt.Sprintf("%s %s", it.Kind, l.Text)
	}
	if j := d.Junction(it); j != nil {
		return fmt.Sprintf("junction (%.2f, %.2f)", j.Position.X, j.Position.Y)
	}
	return it.String()
}

// FindItemByUUID searches every item kind. It returns nil when nothing
// matches.
func (d *Document) FindItemByUUID(id string) viewer.Item {
	if id == "" {
		return nil
	}
	for i := range d.sch.Symbols {
		if d.sch.Symbols[i].UUID == id {
			return Item{Kind: KindSymbol, Index: i}
		}
	}
	for i := range d.sch.Sheets {
		if d.sch.Sheets[i].UUID == id {
			return Item{Kind: KindSheet, Index: i}
		}
	}
	for _, g := range []struct {
		kind  Kind
		wires []schematic.Wire
	}{{KindWire, d.sch.Wires}, {KindBus, d.sch.Buses}} {
		for i := range g.wires {
			if g.wires[i].UUID == id {
				return Item{Kind: g.kind, Index: i}
			}
		}
	}
	for _, g := range []struct {
		kind   Kind
		labels []schematic.Label
	}{{KindNetLabel, d.sch.Labels}, {KindGlobalLabel, d.sch.GlobalLabels}, {KindHierLabel, d.sch.HierLabels}} {
		for i := range g.labels {
			if g.labels[i].UUID == id {
				return Item{Kind: g.kind, Index: i}
			}
		}
	}
	for i := range d.sch.Junctions {
		if d.sch.Junctions[i].UUID == id {
			return Item{Kind: KindJunction, Index: i}
		}
	}
	return nil
}

func (d *Document) paperBounds() (geom.BBox, bool) {
	p := d.sch.Paper
	if p.Width <= 0 || p.Height <= 0 {
		return geom.BBox{}, false
	}
	return geom.NewBBox(0, 0, p.Width, p.Height, nil), true
}

// PageBounds is the paper sheet, or the union of all item boxes when the
// paper size is unknown.
func (d *Document) PageBounds() geom.BBox {
	if b, ok := d.paperBounds(); ok {
		return b
	}
	return d.ContentBounds()
}

// ContentBounds is the union of every painted box.
func (d *Document) ContentBounds() geom.BBox {
	if d.content != nil {
		return *d.content
	}
	ls := viewer.NewLayerSet()
	d.Paint(ls, boundsRenderer{})
	var boxes []geom.BBox
	for l := range ls.InOrder() {
		for b := range l.Boxes() {
			boxes = append(boxes, b)
		}
	}
	b := geom.Combine(boxes, nil)
	d.content = &b
	return b
}

// QueryZone picks the items the zone covers: symbols and sheets whose box
// intersects it, wires and buses with a point inside it, and labels and
// junctions whose anchor lies inside it. Front layers come first.
func (d *Document) QueryZone(ls *viewer.LayerSet, zone geom.BBox) ([]viewer.Item, []geom.BBox) {
	var items []viewer.Item
	var boxes []geom.BBox
	seen := make(map[Item]bool)
	for l := range ls.InteractiveLayers() {
		for _, b := range l.Search(zone) {
			it, ok := b.Context.(Item)
			if !ok || seen[it] || !d.inZone(it, b, zone) {
				continue
			}
			seen[it] = true
			items = append(items, it)
			boxes = append(boxes, b)
		}
	}
	return items, boxes
}

func (d *Document) inZone(it Item, box, zone geom.BBox) bool {
	switch {
	case it.Kind == KindSymbol || it.Kind == KindSheet:
		return geom.Intersects(zone, box)
	case it.IsWire():
		w := d.Wire(it)
		if w == nil {
			return false
		}
		for _, p := range w.Points {
			if zone.ContainsPoint(p) {
				return true
			}
		}
		return false
	case it.IsLabel():
		l := d.Label(it)
		return l != nil && zone.ContainsPoint(l.Position)
	case it.Kind == KindJunction:
		j := d.Junction(it)
		return j != nil && zone.ContainsPoint(j.Position)
	}
	return false
}

// Connections runs the connectivity analysis over the selected items.
func (d *Document) Connections(items []viewer.Item) []viewer.ZoneConnection {
	sel := make([]Item, 0, len(items))
	for _, it := range items {
		if s, ok := it.(Item); ok {
			sel = append(sel, s)
		}
	}
	return Analyze(d.sch, sel)
}

// boundsRenderer records nothing; it lets Paint compute boxes headlessly.
type boundsRenderer struct{}

func (boundsRenderer) Clear()                                             {}
func (boundsRenderer) StartLayer(string)                                  {}
func (boundsRenderer) Polygon([]geom.Vec2, color.NRGBA)                   {}
func (boundsRenderer) Line([]geom.Vec2, float64, color.NRGBA)             {}
func (boundsRenderer) EndLayer() viewer.Graphics                          { return nil }
func (boundsRenderer) Render(f32.Affine2D, viewer.Graphics, int, float64) {}

// HeadlessRenderer returns a renderer that draws nothing, for running the
// viewer without a window.
func HeadlessRenderer() viewer.Renderer { return boundsRenderer{} }
