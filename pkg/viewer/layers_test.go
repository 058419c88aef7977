package viewer

import (
	"slices"
	"testing"

	"github.com/OpenTraceLab/OpenTraceView/pkg/geom"
)

func layerNames(seq func(func(*Layer) bool)) []string {
	var names []string
	for l := range seq {
		names = append(names, l.Name)
	}
	return names
}

func TestLayerSetOrder(t *testing.T) {
	ls := NewLayerSet()
	ls.Add(NewLayer("labels"))
	ls.Add(NewLayer("wires"))
	hidden := NewLayer("symbols")
	hidden.Visible = false
	ls.Add(hidden)

	if got := layerNames(ls.InOrder()); !slices.Equal(got, []string{"overlay", "labels", "wires", "symbols"}) {
		t.Errorf("InOrder = %v", got)
	}
	if got := layerNames(ls.InDisplayOrder()); !slices.Equal(got, []string{"symbols", "wires", "labels", "overlay"}) {
		t.Errorf("InDisplayOrder = %v", got)
	}
	if got := layerNames(ls.InteractiveLayers()); !slices.Equal(got, []string{"labels", "wires"}) {
		t.Errorf("InteractiveLayers = %v", got)
	}
	if ls.Overlay() == nil || ls.Overlay().Interactive {
		t.Error("Overlay should exist and not be interactive")
	}
}

func TestLayerSetReplace(t *testing.T) {
	ls := NewLayerSet()
	ls.Add(NewLayer("a"))
	ls.Add(NewLayer("b"))
	replacement := NewLayer("a")
	ls.Add(replacement)

	if ls.Len() != 3 {
		t.Errorf("Expected 3 layers, got %d", ls.Len())
	}
	if ls.ByName("a") != replacement {
		t.Error("ByName should return the replacement")
	}
	if got := layerNames(ls.InOrder()); !slices.Equal(got, []string{"overlay", "a", "b"}) {
		t.Errorf("Replacement should keep position, got %v", got)
	}
}

func TestQueryPointOrder(t *testing.T) {
	ls := NewLayerSet()
	front := NewLayer("front")
	back := NewLayer("back")
	ls.Add(front)
	ls.Add(back)

	back.Add(geom.NewBBox(0, 0, 10, 10, "back-1"))
	front.Add(geom.NewBBox(4, 4, 2, 2, "front-2"))
	front.Add(geom.NewBBox(0, 0, 10, 10, "front-1"))
	front.Add(geom.NewBBox(20, 20, 2, 2, "elsewhere"))

	hits := ls.QueryPoint(geom.V(5, 5))
	var got []any
	for _, h := range hits {
		got = append(got, h.BBox.Context)
	}
	want := []any{"front-2", "front-1", "back-1"}
	if !slices.Equal(got, want) {
		t.Errorf("QueryPoint = %v, want %v", got, want)
	}
	if hits[0].Layer != front {
		t.Error("First hit should come from the front layer")
	}

	if hits := ls.QueryPoint(geom.V(15, 15)); len(hits) != 0 {
		t.Errorf("Expected no hits, got %v", hits)
	}
}

func TestQueryPointSkipsHiddenAndNonInteractive(t *testing.T) {
	ls := NewLayerSet()
	hidden := NewLayer("hidden")
	hidden.Visible = false
	hidden.Add(geom.NewBBox(0, 0, 10, 10, "h"))
	passive := NewLayer("passive")
	passive.Interactive = false
	passive.Add(geom.NewBBox(0, 0, 10, 10, "p"))
	ls.Add(hidden)
	ls.Add(passive)

	if hits := ls.QueryPoint(geom.V(5, 5)); len(hits) != 0 {
		t.Errorf("Expected no hits, got %v", hits)
	}

	// Item boxes are found regardless of visibility.
	var boxes []geom.BBox
	for b := range ls.QueryItemBBoxes("h") {
		boxes = append(boxes, b)
	}
	if len(boxes) != 1 {
		t.Errorf("Expected hidden item box, got %v", boxes)
	}
}

func TestQueryItemBBoxesMultiple(t *testing.T) {
	ls := NewLayerSet()
	a := NewLayer("a")
	b := NewLayer("b")
	ls.Add(a)
	ls.Add(b)
	a.Add(geom.NewBBox(0, 0, 1, 1, "x"))
	a.Add(geom.NewBBox(5, 5, 1, 1, "y"))
	b.Add(geom.NewBBox(2, 2, 1, 1, "x"))

	var xs []float64
	for box := range ls.QueryItemBBoxes("x") {
		xs = append(xs, box.X)
	}
	if !slices.Equal(xs, []float64{0, 2}) {
		t.Errorf("Expected boxes at x=0 and x=2, got %v", xs)
	}

	// Stops early.
	n := 0
	for range ls.QueryItemBBoxes("x") {
		n++
		break
	}
	if n != 1 {
		t.Errorf("Expected early stop, got %d", n)
	}

	if got := len(a.ItemBoxes("y")); got != 1 {
		t.Errorf("ItemBoxes(y) = %d boxes", got)
	}
	for range ls.QueryItemBBoxes(nil) {
		t.Error("nil item should yield nothing")
	}
}

func TestLayerSearchMatchesLinearScan(t *testing.T) {
	l := NewLayer("grid")
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			l.Add(geom.NewBBox(float64(x*3), float64(y*3), 2, 2, x+y*10))
		}
	}
	zone := geom.NewBBox(4, 4, 7, 5, nil)

	var want []any
	for b := range l.Boxes() {
		if geom.Intersects(zone, b) {
			want = append(want, b.Context)
		}
	}
	var got []any
	for _, b := range l.Search(zone) {
		got = append(got, b.Context)
	}
	if !slices.Equal(got, want) {
		t.Errorf("Search = %v, linear = %v", got, want)
	}

	l.Clear()
	if l.Len() != 0 || len(l.Search(zone)) != 0 {
		t.Error("Clear should empty the layer")
	}
}

func TestIsAnyLayerHighlighted(t *testing.T) {
	ls := NewLayerSet()
	l := NewLayer("a")
	ls.Add(l)
	if ls.IsAnyLayerHighlighted() {
		t.Error("No layer should be highlighted")
	}
	l.Highlighted = true
	if !ls.IsAnyLayerHighlighted() {
		t.Error("Expected highlighted layer")
	}
}

func TestDefaultQueryZone(t *testing.T) {
	ls := NewLayerSet()
	front := NewLayer("front")
	back := NewLayer("back")
	ls.Add(front)
	ls.Add(back)
	back.Add(geom.NewBBox(1, 1, 2, 2, "shared"))
	front.Add(geom.NewBBox(2, 2, 2, 2, "a"))
	front.Add(geom.NewBBox(8, 8, 1, 1, "shared"))
	front.Add(geom.NewBBox(50, 50, 1, 1, "outside"))

	items, boxes := DefaultQueryZone(ls, geom.NewBBox(0, 0, 10, 10, nil))
	if !slices.Equal(items, []Item{"a", "shared"}) {
		t.Errorf("items = %v", items)
	}
	if boxes[1].X != 8 {
		t.Errorf("Expected the first box for 'shared' in layer order, got %+v", boxes[1])
	}
}
