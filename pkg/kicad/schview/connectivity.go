package schview

import (
	"fmt"
	"math"
	"slices"

	"github.com/OpenTraceLab/OpenTraceView/pkg/geom"
	"github.com/OpenTraceLab/OpenTraceView/pkg/kicad/schematic"
	"github.com/OpenTraceLab/OpenTraceView/pkg/viewer"
)

// PositionKey rounds p to 0.001 mm, half away from zero, and formats it as
// "x,y" with three decimals. Points with equal keys are connected.
func PositionKey(p geom.Vec2) string {
	return fmt.Sprintf("%.3f,%.3f", roundMilli(p.X), roundMilli(p.Y))
}

func roundMilli(v float64) float64 {
	r := math.Round(v*1000) / 1000
	if r == 0 {
		// drop the sign of -0
		return 0
	}
	return r
}

// orderedMap keeps first-insertion key order so analysis output is stable.
type orderedMap[V any] struct {
	keys []string
	m    map[string]V
}

func newOrderedMap[V any]() *orderedMap[V] {
	return &orderedMap[V]{m: make(map[string]V)}
}

func (o *orderedMap[V]) get(k string) (V, bool) {
	v, ok := o.m[k]
	return v, ok
}

func (o *orderedMap[V]) set(k string, v V) {
	if _, ok := o.m[k]; !ok {
		o.keys = append(o.keys, k)
	}
	o.m[k] = v
}

type pinRef struct {
	ref, pin string
}

type unorderedPair struct {
	a, b pinRef
}

func pairOf(x, y pinRef) unorderedPair {
	if y.ref < x.ref || (y.ref == x.ref && y.pin < x.pin) {
		x, y = y, x
	}
	return unorderedPair{x, y}
}

type analysis struct {
	wireEndpoints    *orderedMap[[]*schematic.Wire]
	labelsByPosition *orderedMap[*schematic.Label]
	pinConnections   *orderedMap[[]pinRef]

	seen map[unorderedPair]bool
	out  []viewer.ZoneConnection
}

// Analyze infers pin-to-pin connections among the selected items. Pins
// connect when they share a position key, or when one wire of the selection
// runs from one pin's key to another's. It never returns nil.
func Analyze(sch *schematic.Schematic, items []Item) []viewer.ZoneConnection {
	a := &analysis{
		wireEndpoints:    newOrderedMap[[]*schematic.Wire](),
		labelsByPosition: newOrderedMap[*schematic.Label](),
		pinConnections:   newOrderedMap[[]pinRef](),
		seen:             make(map[unorderedPair]bool),
		out:              []viewer.ZoneConnection{},
	}
	a.index(sch, items)
	a.direct()
	a.viaWires()
	return a.out
}

func (a *analysis) index(sch *schematic.Schematic, items []Item) {
	for _, it := range items {
		switch {
		case it.Kind == KindSymbol:
			if it.Index < 0 || it.Index >= len(sch.Symbols) {
				continue
			}
			a.addSymbol(sch, &sch.Symbols[it.Index])
		case it.IsWire():
			w := wireAt(sch, it)
			if w == nil {
				continue
			}
			for _, p := range w.Points {
				k := PositionKey(p)
				wires, _ := a.wireEndpoints.get(k)
				a.wireEndpoints.set(k, append(wires, w))
			}
		case it.IsLabel():
			l := labelAt(sch, it)
			if l == nil {
				continue
			}
			a.labelsByPosition.set(PositionKey(l.Position), l)
		}
	}
}

func (a *analysis) addSymbol(sch *schematic.Schematic, sym *schematic.Symbol) {
	ref := sym.Reference()
	if ref == "" {
		logger().Debug("skipping symbol without reference", "lib_id", sym.LibID, "uuid", sym.UUID)
		return
	}
	lib := sch.LibSymbol(sym)
	if lib == nil {
		logger().Debug("skipping symbol without library definition", "ref", ref, "lib_id", sym.LibID)
		return
	}
	for _, pin := range lib.PinsForUnit(sym.Unit) {
		if pin.Number == "" {
			logger().Debug("skipping pin without number", "ref", ref)
			continue
		}
		k := PositionKey(schematic.PinWorldPosition(sym, &pin))
		r := pinRef{ref: ref, pin: pin.Number}
		pins, _ := a.pinConnections.get(k)
		// Stacked pins sharing a number are one connection point.
		if slices.Contains(pins, r) {
			continue
		}
		a.pinConnections.set(k, append(pins, r))
	}
}

func (a *analysis) emit(from, to pinRef, net string) {
	p := pairOf(from, to)
	if a.seen[p] {
		return
	}
	a.seen[p] = true
	a.out = append(a.out, viewer.ZoneConnection{
		FromRef: from.ref,
		FromPin: from.pin,
		ToRef:   to.ref,
		ToPin:   to.pin,
		NetName: net,
	})
}

func (a *analysis) labelAt(key string) string {
	if l, ok := a.labelsByPosition.get(key); ok {
		return l.Text
	}
	return ""
}

// direct connects every pair of pins sharing a key.
func (a *analysis) direct() {
	for _, k := range a.pinConnections.keys {
		pins := a.pinConnections.m[k]
		if len(pins) < 2 {
			continue
		}
		net := a.labelAt(k)
		for i := 0; i < len(pins); i++ {
			for j := i + 1; j < len(pins); j++ {
				a.emit(pins[i], pins[j], net)
			}
		}
	}
}

// viaWires follows each wire touching a lone pin to the pins at the wire's
// other points. Only one wire hop is taken.
func (a *analysis) viaWires() {
	for _, k := range a.pinConnections.keys {
		pins := a.pinConnections.m[k]
		if len(pins) != 1 {
			continue
		}
		wires, ok := a.wireEndpoints.get(k)
		if !ok {
			continue
		}
		origin := pins[0]
		for _, w := range wires {
			net := a.wireNet(w)
			for _, p := range w.Points {
				pk := PositionKey(p)
				if pk == k {
					continue
				}
				for _, other := range a.pinConnections.m[pk] {
					if other == origin {
						continue
					}
					a.emit(origin, other, net)
				}
			}
		}
	}
}

// wireNet is the first label found along w's points.
func (a *analysis) wireNet(w *schematic.Wire) string {
	for _, p := range w.Points {
		if net := a.labelAt(PositionKey(p)); net != "" {
			return net
		}
	}
	return ""
}

func wireAt(sch *schematic.Schematic, it Item) *schematic.Wire {
	s := sch.Wires
	if it.Kind == KindBus {
		s = sch.Buses
	}
	if it.Index < 0 || it.Index >= len(s) {
		return nil
	}
	return &s[it.Index]
}

func labelAt(sch *schematic.Schematic, it Item) *schematic.Label {
	var s []schematic.Label
	switch it.Kind {
	case KindNetLabel:
		s = sch.Labels
	case KindGlobalLabel:
		s = sch.GlobalLabels
	case KindHierLabel:
		s = sch.HierLabels
	}
	if it.Index < 0 || it.Index >= len(s) {
		return nil
	}
	return &s[it.Index]
}
