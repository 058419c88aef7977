// Package viewer is the interactive core of the schematic viewer: camera,
// layered hit boxes, the renderer contract, and the selection and hover
// state machine driven by pointer input.
//
// A Viewer is not safe for concurrent use. Every method except Ready must be
// called from the goroutine that delivers input and frames.
package viewer

import (
	"fmt"
	"image/color"
	"math"
	"slices"
	"sync"

	"github.com/OpenTraceLab/OpenTraceView/pkg/geom"
)

// Document is a loaded file the viewer can display.
type Document interface {
	// Paint adds the document's layers, front-most first, and records their
	// graphics with r.
	Paint(ls *LayerSet, r Renderer) error
	// FindItemByUUID returns the item with the given id, or nil.
	FindItemByUUID(id string) Item
	// PageBounds is the area ZoomToPage fits.
	PageBounds() geom.BBox
}

// ZoneQuerier is implemented by documents that pick zone items by their
// own rules instead of DefaultQueryZone. The two slices are parallel.
type ZoneQuerier interface {
	QueryZone(ls *LayerSet, zone geom.BBox) ([]Item, []geom.BBox)
}

// ConnectionAnalyzer is implemented by documents that can infer electrical
// connections among zone-selected items.
type ConnectionAnalyzer interface {
	Connections(items []Item) []ZoneConnection
}

// Overlay growth as a fraction of a box's largest dimension.
const (
	zoneGrow          = 0.05
	externalHoverGrow = 0.08
	dragGrow          = 0.0

	// zoomToSelectionMargin is in world units.
	zoomToSelectionMargin = 10.0

	// dimFactor scales layers that are not highlighted while another is.
	dimFactor = 0.25
)

// DragThreshold is the size, in world units, a zone must exceed in both
// width and height to be committed. Smaller drags end as a click.
const DragThreshold = 1.0

// OverlayStyle holds the overlay highlight colours.
type OverlayStyle struct {
	ZoneFill, ZoneBorder   color.NRGBA
	HoverFill, HoverBorder color.NRGBA
	DragFill, DragBorder   color.NRGBA
	// BorderPx is the border width in screen pixels at paint time.
	BorderPx float64
}

// DefaultOverlayStyle is used when Options.Overlay is zero.
var DefaultOverlayStyle = OverlayStyle{
	ZoneFill:    color.NRGBA{R: 255, G: 200, B: 0, A: 60},
	ZoneBorder:  color.NRGBA{R: 255, G: 160, B: 0, A: 220},
	HoverFill:   color.NRGBA{R: 0, G: 160, B: 255, A: 50},
	HoverBorder: color.NRGBA{R: 0, G: 120, B: 255, A: 220},
	DragFill:    color.NRGBA{R: 80, G: 200, B: 120, A: 40},
	DragBorder:  color.NRGBA{R: 40, G: 160, B: 80, A: 230},
	BorderPx:    1.5,
}

// Options configures a Viewer.
type Options struct {
	MinZoom   float64
	MaxZoom   float64
	WheelStep float64 // zoom factor per wheel notch
	Hover     bool
	Overlay   OverlayStyle
}

// DefaultOptions returns the recommended options. New fills zero numeric
// fields and a zero Overlay from it.
func DefaultOptions() Options {
	return Options{
		MinZoom:   DefaultMinZoom,
		MaxZoom:   DefaultMaxZoom,
		WheelStep: 1.1,
		Hover:     true,
		Overlay:   DefaultOverlayStyle,
	}
}

// Viewer owns the selection state for one displayed document.
type Viewer struct {
	Camera *Camera

	renderer Renderer
	sched    *Scheduler
	handlers handlerRegistry
	opts     Options

	doc    Document
	layers *LayerSet

	ready     chan struct{}
	readyOnce sync.Once
	fitOnSize bool

	// legacy single selection, cleared when a zone commits
	selected *geom.BBox

	// zone selection; parallel slices in selection order
	zoneItems []Item
	zoneBoxes []geom.BBox

	dragging      bool
	zoneStart     geom.Vec2
	zoneCurrent   geom.Vec2
	zoneBox       *geom.BBox
	justCompleted bool

	mouseScreen geom.Vec2
	mouseWorld  geom.Vec2

	hoverPending  bool
	hovered       Item
	externalHover Item
	externalBox   *geom.BBox

	gesture gesture
}

// New returns a viewer drawing with r. The viewport starts with zero size
// and every input handler is a no-op until Load and Resize have been called.
func New(r Renderer, opts Options) *Viewer {
	def := DefaultOptions()
	if opts.MinZoom <= 0 {
		opts.MinZoom = def.MinZoom
	}
	if opts.MaxZoom <= 0 {
		opts.MaxZoom = def.MaxZoom
	}
	if opts.WheelStep <= 1 {
		opts.WheelStep = def.WheelStep
	}
	if opts.Overlay == (OverlayStyle{}) {
		opts.Overlay = def.Overlay
	}

	v := &Viewer{
		renderer: r,
		opts:     opts,
		ready:    make(chan struct{}),
	}
	v.sched = NewScheduler(v.Draw)
	v.Camera = NewCamera(0, 0)
	v.Camera.MinZoom = opts.MinZoom
	v.Camera.MaxZoom = opts.MaxZoom
	v.Camera.OnChange = v.sched.RequestFrame
	return v
}

// Scheduler returns the viewer's scheduler so hosts can set Wake.
func (v *Viewer) Scheduler() *Scheduler {
	return v.sched
}

// Ready returns a channel that is closed after the first successful Load.
// It is the only method safe to call from any goroutine.
func (v *Viewer) Ready() <-chan struct{} {
	return v.ready
}

// Document returns the loaded document or nil.
func (v *Viewer) Document() Document {
	return v.doc
}

// Layers returns the current layer set or nil before Load.
func (v *Viewer) Layers() *LayerSet {
	return v.layers
}

// Load paints doc into a fresh layer set and makes it current. Selection and
// hover state are reset.
func (v *Viewer) Load(doc Document) error {
	ls := NewLayerSet()
	if err := doc.Paint(ls, v.renderer); err != nil {
		return fmt.Errorf("failed to paint document: %w", err)
	}

	v.doc = doc
	v.layers = ls
	v.resetSelection()

	if v.Camera.HasArea() {
		v.ZoomToPage()
	} else {
		v.fitOnSize = true
	}

	Logger().Info("document loaded", "layers", ls.Len())
	emit(v.handlers.loads, LoadEvent{})
	v.readyOnce.Do(func() { close(v.ready) })
	v.sched.RequestFrame()
	return nil
}

func (v *Viewer) resetSelection() {
	v.selected = nil
	v.zoneItems = nil
	v.zoneBoxes = nil
	v.dragging = false
	v.zoneBox = nil
	v.justCompleted = false
	v.hoverPending = false
	v.hovered = nil
	v.externalHover = nil
	v.externalBox = nil
	v.gesture = gesture{}
}

// isReady reports whether input can be handled.
func (v *Viewer) isReady() bool {
	return v.layers != nil && v.doc != nil && v.Camera.HasArea()
}

// Resize sets the viewport size in pixels. The first non-empty size after a
// Load fits the page.
func (v *Viewer) Resize(width, height int) {
	v.Camera.Resize(width, height)
	if v.fitOnSize && v.doc != nil && v.Camera.HasArea() {
		v.fitOnSize = false
		v.ZoomToPage()
	}
}

// Frame runs one scheduler tick and makes sure the canvas was drawn exactly
// once. Hosts that rebuild their display list every frame call this instead
// of Draw.
func (v *Viewer) Frame() {
	if !v.sched.Tick() {
		v.Draw()
	}
}

// Draw clears the target and renders every visible layer back to front.
func (v *Viewer) Draw() {
	v.renderer.Clear()
	if v.layers == nil {
		return
	}

	highlighted := v.layers.IsAnyLayerHighlighted()
	m := v.Camera.Matrix()
	depth := 0
	for l := range v.layers.InDisplayOrder() {
		if !l.Visible || l.Graphics == nil {
			continue
		}
		alpha := l.Opacity
		if highlighted && !l.Highlighted {
			alpha *= dimFactor
		}
		v.renderer.Render(m, l.Graphics, depth, alpha)
		depth++
	}
}

func (v *Viewer) updateMouse(screen geom.Vec2) bool {
	v.mouseScreen = screen
	world := v.Camera.ScreenToWorld(screen)
	if world.Equal(v.mouseWorld) {
		return false
	}
	v.mouseWorld = world
	return true
}

// PointerDown starts a gesture. Shift with the primary button starts a zone
// drag; the primary button alone starts a pan.
func (v *Viewer) PointerDown(e PointerEvent) {
	if !v.isReady() || e.Buttons&ButtonPrimary == 0 {
		return
	}
	v.updateMouse(e.Screen)
	v.gesture = gesture{down: true, last: e.Screen}

	if e.Shift {
		v.dragging = true
		v.zoneStart = v.mouseWorld
		v.zoneCurrent = v.mouseWorld
		v.zoneBox = nil
		Logger().Debug("zone drag started", "x", v.zoneStart.X, "y", v.zoneStart.Y)
	}
}

// PointerMove updates hover, the live zone rectangle, or the pan.
func (v *Viewer) PointerMove(e PointerEvent) {
	if !v.isReady() {
		return
	}
	if v.gesture.down && !v.dragging {
		delta := e.Screen.Sub(v.gesture.last)
		v.gesture.travelled += delta.Len()
		v.gesture.last = e.Screen
		if delta.X != 0 || delta.Y != 0 {
			v.Camera.Pan(delta.X, delta.Y)
		}
	}

	if v.updateMouse(e.Screen) {
		v.scheduleHover()
	}

	if v.dragging {
		v.zoneCurrent = v.mouseWorld
		box := geom.FromCorners(v.zoneStart.X, v.zoneStart.Y, v.zoneCurrent.X, v.zoneCurrent.Y, nil)
		v.zoneBox = &box
		v.paintOverlay()
	}
}

// PointerUp ends the gesture. A zone drag commits when large enough; a
// press and release that did not pan is then handled as a click.
func (v *Viewer) PointerUp(e PointerEvent) {
	if !v.isReady() {
		return
	}
	v.updateMouse(e.Screen)

	wasDown := v.gesture.down
	panned := v.gesture.travelled > panSlop
	v.gesture = gesture{}

	if v.dragging {
		v.finishDrag()
	}
	if wasDown && !panned {
		v.click(e.Shift)
	}
}

// PointerLeave cancels a zone drag without committing it.
func (v *Viewer) PointerLeave() {
	if !v.isReady() {
		return
	}
	v.gesture = gesture{}
	if !v.dragging {
		return
	}
	v.dragging = false
	v.zoneBox = nil
	Logger().Debug("zone drag cancelled")
	v.paintOverlay()
}

// Wheel zooms around the pointer. Positive notches zoom out.
func (v *Viewer) Wheel(screen geom.Vec2, notches float64) {
	if !v.isReady() || notches == 0 {
		return
	}
	v.Camera.ZoomAt(screen, math.Pow(v.opts.WheelStep, -notches))
}

func (v *Viewer) finishDrag() {
	box := geom.FromCorners(v.zoneStart.X, v.zoneStart.Y, v.zoneCurrent.X, v.zoneCurrent.Y, nil)
	v.dragging = false
	v.zoneBox = nil

	if box.W > DragThreshold && box.H > DragThreshold {
		v.completeZoneSelection(box)
		v.justCompleted = true
	} else {
		Logger().Debug("zone too small, discarded", "w", box.W, "h", box.H)
	}
	v.paintOverlay()
}

func (v *Viewer) completeZoneSelection(zone geom.BBox) {
	items, boxes := v.queryZone(zone)
	v.zoneItems = items
	v.zoneBoxes = boxes
	v.selected = nil
	v.emitZone(zone)
}

func (v *Viewer) emitZone(bounds geom.BBox) {
	emit(v.handlers.zones, ZoneSelectEvent{
		Items:       slices.Clone(v.zoneItems),
		Bounds:      bounds,
		Connections: v.connections(v.zoneItems),
	})
}

func (v *Viewer) click(shift bool) {
	if v.justCompleted {
		v.justCompleted = false
		return
	}

	hits := v.layers.QueryPoint(v.mouseWorld)
	if shift {
		if len(hits) > 0 {
			b := hits[0].BBox
			if i := slices.Index(v.zoneItems, b.Context); i >= 0 {
				v.zoneItems = slices.Delete(v.zoneItems, i, i+1)
				v.zoneBoxes = slices.Delete(v.zoneBoxes, i, i+1)
			} else if b.Context != nil {
				v.zoneItems = append(v.zoneItems, b.Context)
				v.zoneBoxes = append(v.zoneBoxes, b)
			}
		}
		v.emitZone(geom.Combine(v.zoneBoxes, nil))
		v.paintOverlay()
		return
	}

	prev := v.selectedItem()
	if len(hits) == 0 {
		v.zoneItems = nil
		v.zoneBoxes = nil
		v.selected = nil
		emit(v.handlers.selects, SelectEvent{Item: nil, Previous: prev})
	} else {
		b := hits[0].BBox
		v.zoneItems = []Item{b.Context}
		v.zoneBoxes = []geom.BBox{b}
		v.selected = &b
		emit(v.handlers.selects, SelectEvent{Item: b.Context, Previous: prev})
	}
	v.paintOverlay()
}

func (v *Viewer) selectedItem() Item {
	if v.selected == nil {
		return nil
	}
	return v.selected.Context
}

// queryZone defers to the document when it implements ZoneQuerier.
func (v *Viewer) queryZone(zone geom.BBox) ([]Item, []geom.BBox) {
	if zq, ok := v.doc.(ZoneQuerier); ok {
		return zq.QueryZone(v.layers, zone)
	}
	return DefaultQueryZone(v.layers, zone)
}

// DefaultQueryZone returns the items on interactive layers whose box is
// contained by or intersects zone, first box per item, front layer first.
func DefaultQueryZone(ls *LayerSet, zone geom.BBox) ([]Item, []geom.BBox) {
	var items []Item
	var boxes []geom.BBox
	seen := make(map[Item]bool)
	for l := range ls.InteractiveLayers() {
		for _, b := range l.Search(zone) {
			if b.Context == nil || seen[b.Context] {
				continue
			}
			if zone.Contains(b) || geom.Intersects(zone, b) {
				seen[b.Context] = true
				items = append(items, b.Context)
				boxes = append(boxes, b)
			}
		}
	}
	return items, boxes
}

func (v *Viewer) connections(items []Item) []ZoneConnection {
	if ca, ok := v.doc.(ConnectionAnalyzer); ok && len(items) > 0 {
		if conns := ca.Connections(items); conns != nil {
			return conns
		}
	}
	return []ZoneConnection{}
}

func (v *Viewer) scheduleHover() {
	if !v.opts.Hover || v.hoverPending {
		return
	}
	v.hoverPending = true
	v.sched.Next(v.checkHover)
}

func (v *Viewer) checkHover() {
	v.hoverPending = false
	if !v.isReady() {
		return
	}

	var item Item
	if hits := v.layers.QueryPoint(v.mouseWorld); len(hits) > 0 {
		item = hits[0].BBox.Context
	}
	if item == v.hovered {
		return
	}
	v.hovered = item
	emit(v.handlers.hovers, HoverEvent{
		Item:    item,
		ScreenX: v.mouseScreen.X,
		ScreenY: v.mouseScreen.Y,
		WorldX:  v.mouseWorld.X,
		WorldY:  v.mouseWorld.Y,
	})
}

// Select makes item the single selection and emits a SelectEvent. A nil item
// clears the selection.
func (v *Viewer) Select(item Item) {
	if v.layers == nil {
		return
	}
	if item == nil {
		v.SelectBBox(nil)
		return
	}
	for b := range v.layers.QueryItemBBoxes(item) {
		v.SelectBBox(&b)
		return
	}
	Logger().Debug("select: item has no bounding box")
}

// SelectBBox selects the item owning b, or clears the selection for nil.
func (v *Viewer) SelectBBox(b *geom.BBox) {
	if v.layers == nil {
		return
	}
	prev := v.selectedItem()
	if b == nil {
		v.selected = nil
		v.zoneItems = nil
		v.zoneBoxes = nil
		emit(v.handlers.selects, SelectEvent{Item: nil, Previous: prev})
	} else {
		sel := *b
		v.selected = &sel
		v.zoneItems = []Item{sel.Context}
		v.zoneBoxes = []geom.BBox{sel}
		emit(v.handlers.selects, SelectEvent{Item: sel.Context, Previous: prev})
	}
	v.paintOverlay()
}

// SetZoneSelection replaces the zone selection without emitting an event.
// Items with no bounding box and duplicates are skipped.
func (v *Viewer) SetZoneSelection(items []Item) {
	if v.layers == nil {
		return
	}
	v.zoneItems = nil
	v.zoneBoxes = nil
	for _, item := range items {
		if item == nil || slices.Contains(v.zoneItems, item) {
			continue
		}
		for b := range v.layers.QueryItemBBoxes(item) {
			v.zoneItems = append(v.zoneItems, item)
			v.zoneBoxes = append(v.zoneBoxes, b)
			break
		}
	}
	v.paintOverlay()
}

// ClearZoneSelection empties the zone selection without emitting an event.
func (v *Viewer) ClearZoneSelection() {
	if v.layers == nil {
		return
	}
	v.zoneItems = nil
	v.zoneBoxes = nil
	v.paintOverlay()
}

// ZoneSelection returns the zone-selected items in selection order.
func (v *Viewer) ZoneSelection() []Item {
	return slices.Clone(v.zoneItems)
}

// Selected returns the single-selection box.
func (v *Viewer) Selected() (geom.BBox, bool) {
	if v.selected == nil {
		return geom.BBox{}, false
	}
	return *v.selected, true
}

// Dragging reports whether a zone drag is in progress.
func (v *Viewer) Dragging() bool {
	return v.dragging
}

// ZoneBox returns the live drag rectangle.
func (v *Viewer) ZoneBox() (geom.BBox, bool) {
	if v.zoneBox == nil {
		return geom.BBox{}, false
	}
	return *v.zoneBox, true
}

// Hovered returns the item last reported by a HoverEvent.
func (v *Viewer) Hovered() Item {
	return v.hovered
}

// SetExternalHover highlights item on behalf of another component. Setting
// the current item again does nothing; nil clears it.
func (v *Viewer) SetExternalHover(item Item) {
	if v.layers == nil || item == v.externalHover {
		return
	}
	if item == nil {
		v.ClearExternalHover()
		return
	}
	v.externalHover = item
	v.externalBox = nil
	for b := range v.layers.QueryItemBBoxes(item) {
		v.externalBox = &b
		break
	}
	v.paintOverlay()
}

// ClearExternalHover removes the external highlight.
func (v *Viewer) ClearExternalHover() {
	if v.layers == nil || v.externalHover == nil {
		return
	}
	v.externalHover = nil
	v.externalBox = nil
	v.paintOverlay()
}

// ExternalHover returns the externally hovered item.
func (v *Viewer) ExternalHover() Item {
	return v.externalHover
}

// FindItemByUUID looks id up in the loaded document.
func (v *Viewer) FindItemByUUID(id string) Item {
	if v.doc == nil {
		return nil
	}
	return v.doc.FindItemByUUID(id)
}

// ZoomToSelection fits the camera to the single selection plus a margin.
func (v *Viewer) ZoomToSelection() {
	if v.selected == nil {
		return
	}
	v.Camera.SetBBox(v.selected.Grow(zoomToSelectionMargin))
}

// ZoomToPage fits the camera to the document's page.
func (v *Viewer) ZoomToPage() {
	if v.doc == nil {
		return
	}
	v.Camera.SetBBox(v.doc.PageBounds())
}

// paintOverlay rebuilds the overlay layer from the selection state.
func (v *Viewer) paintOverlay() {
	if v.layers == nil {
		return
	}
	overlay := v.layers.Overlay()
	overlay.Clear()

	if len(v.zoneBoxes) == 0 && v.externalBox == nil && v.zoneBox == nil {
		v.sched.RequestFrame()
		return
	}

	st := v.opts.Overlay
	border := 0.1
	if v.Camera.Zoom > 0 {
		border = st.BorderPx / v.Camera.Zoom
	}

	v.renderer.StartLayer(OverlayLayer)
	for _, b := range v.zoneBoxes {
		v.highlight(b.Grow(b.MaxDim()*zoneGrow), border, st.ZoneFill, st.ZoneBorder)
	}
	if v.externalBox != nil {
		b := *v.externalBox
		v.highlight(b.Grow(b.MaxDim()*externalHoverGrow), border, st.HoverFill, st.HoverBorder)
	}
	if v.zoneBox != nil {
		b := *v.zoneBox
		v.highlight(b.Grow(b.MaxDim()*dragGrow), border, st.DragFill, st.DragBorder)
	}
	overlay.Graphics = v.renderer.EndLayer()
	v.sched.RequestFrame()
}

func (v *Viewer) highlight(b geom.BBox, width float64, fill, stroke color.NRGBA) {
	corners := b.Corners()
	v.renderer.Polygon(corners, fill)
	v.renderer.Line(append(corners, corners[0]), width, stroke)
}
