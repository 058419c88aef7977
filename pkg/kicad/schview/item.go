// Package schview adapts a parsed KiCad schematic to the viewer: it paints
// the document into layers, answers zone and uuid queries, and infers
// connections between zone-selected items.
package schview

import "fmt"

// Kind tags the slice an Item points into.
type Kind int

const (
	KindSymbol Kind = iota
	KindSheet
	KindWire
	KindBus
	KindNetLabel
	KindGlobalLabel
	KindHierLabel
	KindJunction
)

var kindNames = [...]string{
	KindSymbol:      "symbol",
	KindSheet:       "sheet",
	KindWire:        "wire",
	KindBus:         "bus",
	KindNetLabel:    "label",
	KindGlobalLabel: "global_label",
	KindHierLabel:   "hierarchical_label",
	KindJunction:    "junction",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Item is a handle to one element of a Document. It is comparable and does
// not own the element; Index is only meaningful for the Document that
// produced it.
type Item struct {
	Kind  Kind
	Index int
}

func (it Item) String() string {
	return fmt.Sprintf("%s#%d", it.Kind, it.Index)
}

// IsLabel reports whether the item is a net, global or hierarchical label.
func (it Item) IsLabel() bool {
	return it.Kind == KindNetLabel || it.Kind == KindGlobalLabel || it.Kind == KindHierLabel
}

// IsWire reports whether the item is a wire or a bus.
func (it Item) IsWire() bool {
	return it.Kind == KindWire || it.Kind == KindBus
}
