// Package schematic loads KiCad schematic files (.kicad_sch) into plain Go
// values. Coordinates are millimetres in sheet space (Y grows downward).
package schematic

import (
	"strings"

	"github.com/OpenTraceLab/OpenTraceView/pkg/geom"
)

// Schematic represents a complete KiCad schematic file
type Schematic struct {
	Version      int    // File format version
	Generator    string // Generator info (e.g., "eeschema")
	GeneratorVer string // Generator version
	UUID         string
	Paper        Paper
	TitleBlock   TitleBlock

	LibSymbols   []LibSymbol // Embedded library symbols
	Symbols      []Symbol    // Symbol instances on the sheet
	Wires        []Wire
	Buses        []Wire
	Junctions    []Junction
	NoConnects   []NoConnect
	Labels       []Label // Local net labels
	GlobalLabels []Label
	HierLabels   []Label
	Sheets       []Sheet
	Polylines    []Polyline // Graphical (non-electrical) lines
	Texts        []Text

	libIndex map[string]int
}

// Paper is the sheet size. Width and Height are zero when the name is
// unknown and no explicit size was given.
type Paper struct {
	Name     string
	Width    float64
	Height   float64
	Portrait bool
}

// TitleBlock contains schematic title block information
type TitleBlock struct {
	Title    string
	Date     string
	Revision string
	Company  string
	Comments [4]string
}

// Property is a key/value field on a symbol or sheet.
type Property struct {
	Key      string
	Value    string
	Position geom.Vec2
	Angle    float64
	Hidden   bool
}

// LibSymbol is an embedded library symbol definition.
type LibSymbol struct {
	Name       string
	Properties []Property
	Units      []Unit

	PinNumbersHidden bool
	PinNamesHidden   bool
	PinNameOffset    float64
}

// Unit holds the graphics and pins of one unit/body style of a library
// symbol. Unit 0 is shared by every unit.
type Unit struct {
	Name     string
	Unit     int
	Style    int
	Graphics []Graphic
	Pins     []Pin
}

// GraphicKind identifies the shape stored in a Graphic.
type GraphicKind int

const (
	GraphicRectangle GraphicKind = iota
	GraphicPolyline
	GraphicCircle
	GraphicArc
	GraphicText
)

// Graphic is a library symbol body element in symbol-local coordinates.
type Graphic struct {
	Kind   GraphicKind
	Start  geom.Vec2   // rectangle, arc
	Mid    geom.Vec2   // arc
	End    geom.Vec2   // rectangle, arc
	Center geom.Vec2   // circle
	Radius float64     // circle
	Points []geom.Vec2 // polyline
	Width  float64     // stroke width, 0 means default
	Fill   string      // none, outline, background
	Text   string
}

// Pin is a library pin in symbol-local coordinates. Position is the
// electrical connection point; the pin body extends Length along Angle.
type Pin struct {
	Type     string // input, output, passive, ...
	Style    string // line, inverted, clock, ...
	Position geom.Vec2
	Angle    float64
	Length   float64
	Name     string
	Number   string
	Hidden   bool
}

// Symbol is a symbol instance placed on the sheet.
type Symbol struct {
	LibID      string
	LibName    string // overrides LibID for the lib_symbols lookup when set
	Position   geom.Vec2
	Angle      float64
	Mirror     string // "x", "y" or ""
	Unit       int
	InBom      bool
	OnBoard    bool
	DNP        bool
	UUID       string
	Properties []Property
}

// Wire is an electrical polyline. Buses use the same shape.
type Wire struct {
	Points []geom.Vec2
	Width  float64
	UUID   string
}

// Junction marks a wire junction dot.
type Junction struct {
	Position geom.Vec2
	Diameter float64
	UUID     string
}

// NoConnect marks a deliberately unconnected pin.
type NoConnect struct {
	Position geom.Vec2
	UUID     string
}

// Label is a local, global or hierarchical net label. Shape is empty for
// local labels.
type Label struct {
	Text     string
	Shape    string
	Position geom.Vec2
	Angle    float64
	FontSize float64
	UUID     string
}

// Sheet is a hierarchical sheet reference.
type Sheet struct {
	Position   geom.Vec2
	Size       geom.Vec2
	Name       string
	FileName   string
	Pins       []SheetPin
	Properties []Property
	UUID       string
}

// SheetPin is a hierarchical pin on a sheet's border.
type SheetPin struct {
	Name     string
	Shape    string
	Position geom.Vec2
	Angle    float64
	UUID     string
}

// Polyline is a graphical line on the sheet.
type Polyline struct {
	Points []geom.Vec2
	Width  float64
	UUID   string
}

// Text is free text on the sheet.
type Text struct {
	Text     string
	Position geom.Vec2
	Angle    float64
	FontSize float64
	UUID     string
}

// Property returns the value of the named property.
func (s *Symbol) Property(key string) (string, bool) {
	for _, p := range s.Properties {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Reference returns the reference designator, or "" if absent.
func (s *Symbol) Reference() string {
	ref, _ := s.Property("Reference")
	return ref
}

// Value returns the Value property, or "" if absent.
func (s *Symbol) Value() string {
	v, _ := s.Property("Value")
	return v
}

// LibKey returns the name used to look up the symbol's library definition.
func (s *Symbol) LibKey() string {
	if s.LibName != "" {
		return s.LibName
	}
	return s.LibID
}

// LibSymbol returns the embedded library definition for sym, or nil.
func (s *Schematic) LibSymbol(sym *Symbol) *LibSymbol {
	if s.libIndex == nil {
		s.indexLibSymbols()
	}
	if i, ok := s.libIndex[sym.LibKey()]; ok {
		return &s.LibSymbols[i]
	}
	return nil
}

func (s *Schematic) indexLibSymbols() {
	s.libIndex = make(map[string]int, len(s.LibSymbols))
	for i := range s.LibSymbols {
		if _, dup := s.libIndex[s.LibSymbols[i].Name]; !dup {
			s.libIndex[s.LibSymbols[i].Name] = i
		}
	}
}

// PinsForUnit returns the pins drawn for the given unit: shared pins (unit
// 0) followed by that unit's own pins, in file order. Body style 2
// (De Morgan) is ignored.
func (l *LibSymbol) PinsForUnit(unit int) []Pin {
	var pins []Pin
	for _, u := range l.Units {
		if u.Style > 1 {
			continue
		}
		if u.Unit == 0 || u.Unit == unit {
			pins = append(pins, u.Pins...)
		}
	}
	return pins
}

// GraphicsForUnit is PinsForUnit for body graphics.
func (l *LibSymbol) GraphicsForUnit(unit int) []Graphic {
	var out []Graphic
	for _, u := range l.Units {
		if u.Style > 1 {
			continue
		}
		if u.Unit == 0 || u.Unit == unit {
			out = append(out, u.Graphics...)
		}
	}
	return out
}

// GetSymbol returns a symbol by reference designator
func (s *Schematic) GetSymbol(ref string) *Symbol {
	for i := range s.Symbols {
		if s.Symbols[i].Reference() == ref {
			return &s.Symbols[i]
		}
	}
	return nil
}

// GetAllReferences returns all reference designators in file order.
func (s *Schematic) GetAllReferences() []string {
	var refs []string
	for i := range s.Symbols {
		if ref := s.Symbols[i].Reference(); ref != "" {
			refs = append(refs, ref)
		}
	}
	return refs
}

// GetLabels returns all distinct label names (local, global, hierarchical).
func (s *Schematic) GetLabels() []string {
	seen := make(map[string]bool)
	var labels []string
	for _, group := range [][]Label{s.Labels, s.GlobalLabels, s.HierLabels} {
		for _, l := range group {
			if !seen[l.Text] {
				seen[l.Text] = true
				labels = append(labels, l.Text)
			}
		}
	}
	return labels
}

// paperSizes are landscape dimensions in millimetres.
var paperSizes = map[string][2]float64{
	"A5":       {210, 148},
	"A4":       {297, 210},
	"A3":       {420, 297},
	"A2":       {594, 420},
	"A1":       {841, 594},
	"A0":       {1189, 841},
	"A":        {279.4, 215.9},
	"B":        {431.8, 279.4},
	"C":        {558.8, 431.8},
	"D":        {863.6, 558.8},
	"E":        {1117.6, 863.6},
	"USLETTER": {279.4, 215.9},
	"USLEGAL":  {355.6, 215.9},
	"USLEDGER": {431.8, 279.4},
}

// PaperSize returns the sheet dimensions for a KiCad paper name.
func PaperSize(name string, portrait bool) (w, h float64, ok bool) {
	dims, ok := paperSizes[strings.ToUpper(name)]
	if !ok {
		return 0, 0, false
	}
	if portrait {
		return dims[1], dims[0], true
	}
	return dims[0], dims[1], true
}
