package viewer

import "github.com/OpenTraceLab/OpenTraceView/pkg/geom"

// SelectEvent fires on a plain click pick and on programmatic Select.
type SelectEvent struct {
	Item     Item // nil when the click hit nothing
	Previous Item
}

// ZoneSelectEvent fires when a drag zone completes (even when it selected
// nothing) and on every shift-click.
type ZoneSelectEvent struct {
	Items       []Item
	Bounds      geom.BBox
	Connections []ZoneConnection
}

// HoverEvent fires when the top-most item under the pointer changes.
type HoverEvent struct {
	Item             Item
	ScreenX, ScreenY float64
	WorldX, WorldY   float64
}

// LoadEvent fires after a document has been loaded and painted.
type LoadEvent struct{}

// ZoneConnection is an inferred electrical link between two symbol pins.
// NetName is empty when no label names the net.
type ZoneConnection struct {
	FromRef string `json:"from_ref"`
	FromPin string `json:"from_pin"`
	ToRef   string `json:"to_ref"`
	ToPin   string `json:"to_pin"`
	NetName string `json:"net_name,omitempty"`
}

type eventKind uint8

const (
	eventSelect eventKind = iota
	eventZoneSelect
	eventHover
	eventLoad
)

// CallbackHandle identifies a registered listener.
type CallbackHandle struct {
	id   uint32
	kind eventKind
	reg  *handlerRegistry
}

// Remove unregisters the listener. Removing twice is a no-op.
func (h CallbackHandle) Remove() {
	if h.reg == nil {
		return
	}
	switch h.kind {
	case eventSelect:
		h.reg.selects = removeHandler(h.reg.selects, h.id)
	case eventZoneSelect:
		h.reg.zones = removeHandler(h.reg.zones, h.id)
	case eventHover:
		h.reg.hovers = removeHandler(h.reg.hovers, h.id)
	case eventLoad:
		h.reg.loads = removeHandler(h.reg.loads, h.id)
	}
}

type handler[E any] struct {
	id uint32
	fn func(E)
}

type handlerRegistry struct {
	nextID  uint32
	selects []handler[SelectEvent]
	zones   []handler[ZoneSelectEvent]
	hovers  []handler[HoverEvent]
	loads   []handler[LoadEvent]
}

func removeHandler[E any](s []handler[E], id uint32) []handler[E] {
	for i, h := range s {
		if h.id == id {
			return append(s[:i:i], s[i+1:]...)
		}
	}
	return s
}

// emit calls every listener registered at the time of the call, in
// registration order.
func emit[E any](s []handler[E], e E) {
	for _, h := range s {
		h.fn(e)
	}
}

func (r *handlerRegistry) handle(kind eventKind) CallbackHandle {
	r.nextID++
	return CallbackHandle{id: r.nextID, kind: kind, reg: r}
}

// OnSelect registers fn for SelectEvent.
func (v *Viewer) OnSelect(fn func(SelectEvent)) CallbackHandle {
	h := v.handlers.handle(eventSelect)
	v.handlers.selects = append(v.handlers.selects, handler[SelectEvent]{id: h.id, fn: fn})
	return h
}

// OnZoneSelect registers fn for ZoneSelectEvent.
func (v *Viewer) OnZoneSelect(fn func(ZoneSelectEvent)) CallbackHandle {
	h := v.handlers.handle(eventZoneSelect)
	v.handlers.zones = append(v.handlers.zones, handler[ZoneSelectEvent]{id: h.id, fn: fn})
	return h
}

// OnHover registers fn for HoverEvent.
func (v *Viewer) OnHover(fn func(HoverEvent)) CallbackHandle {
	h := v.handlers.handle(eventHover)
	v.handlers.hovers = append(v.handlers.hovers, handler[HoverEvent]{id: h.id, fn: fn})
	return h
}

// OnLoad registers fn for LoadEvent.
func (v *Viewer) OnLoad(fn func(LoadEvent)) CallbackHandle {
	h := v.handlers.handle(eventLoad)
	v.handlers.loads = append(v.handlers.loads, handler[LoadEvent]{id: h.id, fn: fn})
	return h
}

// Off unregisters a listener returned by one of the On methods.
func (v *Viewer) Off(h CallbackHandle) {
	h.Remove()
}
