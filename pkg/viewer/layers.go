package viewer

import (
	"iter"
	"slices"

	"github.com/tidwall/rtree"

	"github.com/OpenTraceLab/OpenTraceView/pkg/geom"
)

// OverlayLayer is the reserved layer holding selection and hover
// decorations. Only the Viewer writes to it.
const OverlayLayer = "overlay"

// Item is an opaque, comparable handle to a document object. The viewer
// only compares items with == and never looks inside them.
type Item = any

// Graphics is a renderer-owned batch of recorded drawing commands.
type Graphics any

type entry struct {
	box geom.BBox
	seq int
}

// Layer is a named group of drawn items with their hit boxes.
type Layer struct {
	Name        string
	Visible     bool
	Interactive bool
	Opacity     float64
	Highlighted bool

	// Graphics is the batch produced by the renderer for this layer, or nil.
	Graphics Graphics

	entries []entry
	byItem  map[Item][]int
	index   rtree.RTreeG[int]
}

// NewLayer returns a visible, interactive, fully opaque layer.
func NewLayer(name string) *Layer {
	return &Layer{
		Name:        name,
		Visible:     true,
		Interactive: true,
		Opacity:     1,
	}
}

// Add records a hit box. The box's Context is the item it belongs to; an
// item may own several boxes.
func (l *Layer) Add(b geom.BBox) {
	seq := len(l.entries)
	l.entries = append(l.entries, entry{box: b, seq: seq})
	if l.byItem == nil {
		l.byItem = make(map[Item][]int)
	}
	if b.Context != nil {
		l.byItem[b.Context] = append(l.byItem[b.Context], seq)
	}
	l.index.Insert([2]float64{b.X, b.Y}, [2]float64{b.X2(), b.Y2()}, seq)
}

// Len is the number of boxes on the layer.
func (l *Layer) Len() int {
	return len(l.entries)
}

// Clear drops every box and the graphics batch.
func (l *Layer) Clear() {
	l.entries = nil
	l.byItem = nil
	l.index = rtree.RTreeG[int]{}
	l.Graphics = nil
}

// Boxes yields every box in insertion order.
func (l *Layer) Boxes() iter.Seq[geom.BBox] {
	return func(yield func(geom.BBox) bool) {
		for _, e := range l.entries {
			if !yield(e.box) {
				return
			}
		}
	}
}

// Search returns the boxes whose extent touches r, in insertion order.
func (l *Layer) Search(r geom.BBox) []geom.BBox {
	var hits []int
	l.index.Search([2]float64{r.X, r.Y}, [2]float64{r.X2(), r.Y2()},
		func(_, _ [2]float64, seq int) bool {
			hits = append(hits, seq)
			return true
		})
	slices.Sort(hits)

	out := make([]geom.BBox, 0, len(hits))
	for _, seq := range hits {
		out = append(out, l.entries[seq].box)
	}
	return out
}

// ItemBoxes returns the boxes owned by item in insertion order.
func (l *Layer) ItemBoxes(item Item) []geom.BBox {
	seqs := l.byItem[item]
	out := make([]geom.BBox, 0, len(seqs))
	for _, seq := range seqs {
		out = append(out, l.entries[seq].box)
	}
	return out
}

// LayerHit is one result of a point query.
type LayerHit struct {
	Layer *Layer
	BBox  geom.BBox
}

// LayerSet is the ordered collection of layers, front-most first.
type LayerSet struct {
	layers []*Layer
	byName map[string]*Layer
}

// NewLayerSet returns a set holding only the overlay layer.
func NewLayerSet() *LayerSet {
	ls := &LayerSet{byName: make(map[string]*Layer)}
	overlay := NewLayer(OverlayLayer)
	overlay.Interactive = false
	ls.Add(overlay)
	return ls
}

// Add appends l behind every existing layer. A layer with the same name is
// replaced in place.
func (ls *LayerSet) Add(l *Layer) {
	if old, ok := ls.byName[l.Name]; ok {
		i := slices.Index(ls.layers, old)
		ls.layers[i] = l
	} else {
		ls.layers = append(ls.layers, l)
	}
	ls.byName[l.Name] = l
}

// ByName returns the named layer or nil.
func (ls *LayerSet) ByName(name string) *Layer {
	return ls.byName[name]
}

// Overlay returns the reserved overlay layer.
func (ls *LayerSet) Overlay() *Layer {
	return ls.byName[OverlayLayer]
}

// Len is the number of layers including the overlay.
func (ls *LayerSet) Len() int {
	return len(ls.layers)
}

// InOrder yields every layer front to back, visible or not.
func (ls *LayerSet) InOrder() iter.Seq[*Layer] {
	return func(yield func(*Layer) bool) {
		for _, l := range ls.layers {
			if !yield(l) {
				return
			}
		}
	}
}

// InDisplayOrder yields every layer back to front, the order they are
// painted in.
func (ls *LayerSet) InDisplayOrder() iter.Seq[*Layer] {
	return func(yield func(*Layer) bool) {
		for i := len(ls.layers) - 1; i >= 0; i-- {
			if !yield(ls.layers[i]) {
				return
			}
		}
	}
}

// InteractiveLayers yields visible, interactive layers front to back.
func (ls *LayerSet) InteractiveLayers() iter.Seq[*Layer] {
	return func(yield func(*Layer) bool) {
		for _, l := range ls.layers {
			if !l.Visible || !l.Interactive {
				continue
			}
			if !yield(l) {
				return
			}
		}
	}
}

// IsAnyLayerHighlighted reports whether some layer has Highlighted set.
func (ls *LayerSet) IsAnyLayerHighlighted() bool {
	for _, l := range ls.layers {
		if l.Highlighted {
			return true
		}
	}
	return false
}

// QueryPoint returns every box containing p on visible interactive layers,
// front-most layer first and insertion order within a layer.
func (ls *LayerSet) QueryPoint(p geom.Vec2) []LayerHit {
	var hits []LayerHit
	probe := geom.NewBBox(p.X, p.Y, 0, 0, nil)
	for l := range ls.InteractiveLayers() {
		for _, b := range l.Search(probe) {
			if b.ContainsPoint(p) {
				hits = append(hits, LayerHit{Layer: l, BBox: b})
			}
		}
	}
	return hits
}

// QueryItemBBoxes lazily yields every box owned by item across all layers,
// hidden ones included.
func (ls *LayerSet) QueryItemBBoxes(item Item) iter.Seq[geom.BBox] {
	return func(yield func(geom.BBox) bool) {
		if item == nil {
			return
		}
		for _, l := range ls.layers {
			for _, seq := range l.byItem[item] {
				if !yield(l.entries[seq].box) {
					return
				}
			}
		}
	}
}
