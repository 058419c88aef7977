package schematic

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/OpenTraceView/pkg/geom"
	"github.com/OpenTraceLab/OpenTraceView/pkg/kicad/sexp"
)

// Minimum supported KiCad version for schematics (6.0 = 20211014)
const MinSupportedVersion = 20211014

var (
	// ErrNotSchematic is returned when the root expression is not (kicad_sch ...).
	ErrNotSchematic = errors.New("not a KiCad schematic file")
	// ErrUnsupportedVersion is returned for files older than KiCad 6.
	ErrUnsupportedVersion = errors.New("unsupported KiCad version")
)

// ParseFile reads and parses a KiCad schematic file
func ParseFile(filename string) (*Schematic, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads and parses a KiCad schematic from an io.Reader.
//
// Library symbol coordinates are stored with Y pointing up in the file; the
// loader flips them into sheet orientation so every position in the result
// shares one frame.
func Parse(r io.Reader) (*Schematic, error) {
	nodes, err := sexp.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse s-expression: %w", err)
	}

	root := nodes[0]
	if root.Name() != "kicad_sch" {
		return nil, fmt.Errorf("%w: expected 'kicad_sch', got '%s'", ErrNotSchematic, root.Name())
	}

	sch := &Schematic{}
	if err := parseHeader(root, sch); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	sch.UUID = root.ChildText("uuid", 1)
	if paper, ok := root.Child("paper"); ok {
		sch.Paper = parsePaper(paper)
	}
	if tb, ok := root.Child("title_block"); ok {
		sch.TitleBlock = parseTitleBlock(tb)
	}
	if libs, ok := root.Child("lib_symbols"); ok {
		for _, n := range libs.Children("symbol") {
			sch.LibSymbols = append(sch.LibSymbols, parseLibSymbol(n))
		}
	}

	for _, item := range root.Items[1:] {
		switch item.Name() {
		case "symbol":
			sch.Symbols = append(sch.Symbols, parseSymbol(item))
		case "wire":
			sch.Wires = append(sch.Wires, parseWire(item))
		case "bus":
			sch.Buses = append(sch.Buses, parseWire(item))
		case "junction":
			sch.Junctions = append(sch.Junctions, Junction{
				Position: at(item),
				Diameter: childFloat(item, "diameter"),
				UUID:     item.ChildText("uuid", 1),
			})
		case "no_connect":
			sch.NoConnects = append(sch.NoConnects, NoConnect{
				Position: at(item),
				UUID:     item.ChildText("uuid", 1),
			})
		case "label":
			sch.Labels = append(sch.Labels, parseLabel(item))
		case "global_label":
			sch.GlobalLabels = append(sch.GlobalLabels, parseLabel(item))
		case "hierarchical_label":
			sch.HierLabels = append(sch.HierLabels, parseLabel(item))
		case "sheet":
			sch.Sheets = append(sch.Sheets, parseSheet(item))
		case "polyline":
			sch.Polylines = append(sch.Polylines, Polyline{
				Points: points(item, false),
				Width:  strokeWidth(item),
				UUID:   item.ChildText("uuid", 1),
			})
		case "text":
			txt, _ := item.Text(1)
			sch.Texts = append(sch.Texts, Text{
				Text:     txt,
				Position: at(item),
				Angle:    atAngle(item),
				FontSize: fontSize(item),
				UUID:     item.ChildText("uuid", 1),
			})
		}
	}

	sch.indexLibSymbols()
	return sch, nil
}

// parseHeader extracts version and generator information
func parseHeader(root *sexp.Node, sch *Schematic) error {
	versionNode, found := root.Child("version")
	if !found {
		return fmt.Errorf("missing required 'version' field")
	}

	ver, err := versionNode.Int(1)
	if err != nil {
		return fmt.Errorf("failed to parse version: %w", err)
	}
	if ver < MinSupportedVersion {
		return fmt.Errorf("%w: %d (minimum required: %d / KiCad 6.0)", ErrUnsupportedVersion, ver, MinSupportedVersion)
	}
	sch.Version = ver

	sch.Generator = root.ChildText("generator", 1)
	sch.GeneratorVer = root.ChildText("generator_version", 1)
	return nil
}

func parsePaper(n *sexp.Node) Paper {
	p := Paper{}
	p.Name, _ = n.Text(1)
	p.Portrait = n.HasFlag("portrait")
	if strings.EqualFold(p.Name, "User") {
		p.Width, _ = n.Float(2)
		p.Height, _ = n.Float(3)
		return p
	}
	p.Width, p.Height, _ = PaperSize(p.Name, p.Portrait)
	return p
}

func parseTitleBlock(n *sexp.Node) TitleBlock {
	tb := TitleBlock{
		Title:    n.ChildText("title", 1),
		Date:     n.ChildText("date", 1),
		Revision: n.ChildText("rev", 1),
		Company:  n.ChildText("company", 1),
	}
	for _, c := range n.Children("comment") {
		num, err := c.Int(1)
		if err != nil || num < 1 || num > len(tb.Comments) {
			continue
		}
		tb.Comments[num-1], _ = c.Text(2)
	}
	return tb
}

func parseLibSymbol(n *sexp.Node) LibSymbol {
	sym := LibSymbol{}
	sym.Name, _ = n.Text(1)
	sym.Properties = properties(n)

	if pn, ok := n.Child("pin_numbers"); ok {
		sym.PinNumbersHidden = pn.HasFlag("hide")
	}
	if pn, ok := n.Child("pin_names"); ok {
		sym.PinNamesHidden = pn.HasFlag("hide")
		sym.PinNameOffset = childFloat(pn, "offset")
	}

	// Top-level graphics and pins are treated as a shared unit.
	if top := parseUnit(n, true); len(top.Graphics) > 0 || len(top.Pins) > 0 {
		sym.Units = append(sym.Units, top)
	}
	for _, un := range n.Children("symbol") {
		u := parseUnit(un, false)
		sym.Units = append(sym.Units, u)
	}
	return sym
}

// parseUnit reads graphics and pins of one (symbol "Name_U_S" ...) block.
// When shared is set the block is the parent symbol itself.
func parseUnit(n *sexp.Node, shared bool) Unit {
	u := Unit{Style: 1}
	if !shared {
		u.Name, _ = n.Text(1)
		u.Unit, u.Style = unitNumbers(u.Name)
	}

	for _, item := range n.Items[1:] {
		switch item.Name() {
		case "rectangle":
			start, _ := item.Child("start")
			end, _ := item.Child("end")
			u.Graphics = append(u.Graphics, Graphic{
				Kind:  GraphicRectangle,
				Start: libXY(start),
				End:   libXY(end),
				Width: strokeWidth(item),
				Fill:  fillType(item),
			})
		case "polyline":
			u.Graphics = append(u.Graphics, Graphic{
				Kind:   GraphicPolyline,
				Points: points(item, true),
				Width:  strokeWidth(item),
				Fill:   fillType(item),
			})
		case "circle":
			center, _ := item.Child("center")
			u.Graphics = append(u.Graphics, Graphic{
				Kind:   GraphicCircle,
				Center: libXY(center),
				Radius: childFloat(item, "radius"),
				Width:  strokeWidth(item),
				Fill:   fillType(item),
			})
		case "arc":
			start, _ := item.Child("start")
			mid, _ := item.Child("mid")
			end, _ := item.Child("end")
			u.Graphics = append(u.Graphics, Graphic{
				Kind:  GraphicArc,
				Start: libXY(start),
				Mid:   libXY(mid),
				End:   libXY(end),
				Width: strokeWidth(item),
				Fill:  fillType(item),
			})
		case "text":
			txt, _ := item.Text(1)
			atNode, _ := item.Child("at")
			u.Graphics = append(u.Graphics, Graphic{
				Kind:  GraphicText,
				Start: libXY(atNode),
				Text:  txt,
			})
		case "pin":
			u.Pins = append(u.Pins, parsePin(item))
		}
	}
	return u
}

// unitNumbers splits a unit block name such as "LM358_2_1" into unit and
// body style. Malformed names map to the shared unit.
func unitNumbers(name string) (unit, style int) {
	parts := strings.Split(name, "_")
	if len(parts) < 3 {
		return 0, 1
	}
	u, err1 := strconv.Atoi(parts[len(parts)-2])
	s, err2 := strconv.Atoi(parts[len(parts)-1])
	if err1 != nil || err2 != nil {
		slog.Warn("schematic: unrecognised unit name", "name", name)
		return 0, 1
	}
	return u, s
}

func parsePin(n *sexp.Node) Pin {
	pin := Pin{}
	pin.Type, _ = n.Text(1)
	pin.Style, _ = n.Text(2)

	if atNode, ok := n.Child("at"); ok {
		pin.Position = libXY(atNode)
		a, _ := atNode.Float(3)
		pin.Angle = normalizeAngle(-a)
	}
	pin.Length = childFloat(n, "length")
	pin.Name = n.ChildText("name", 1)
	pin.Number = n.ChildText("number", 1)
	pin.Hidden = n.HasFlag("hide")
	return pin
}

func parseSymbol(n *sexp.Node) Symbol {
	sym := Symbol{
		InBom:   true,
		OnBoard: true,
		Unit:    1,
	}
	sym.LibID = n.ChildText("lib_id", 1)
	sym.LibName = n.ChildText("lib_name", 1)
	sym.Position = at(n)
	sym.Angle = atAngle(n)
	sym.Mirror = n.ChildText("mirror", 1)
	if u, ok := n.Child("unit"); ok {
		if v, err := u.Int(1); err == nil {
			sym.Unit = v
		}
	}
	sym.InBom = yesNo(n, "in_bom", true)
	sym.OnBoard = yesNo(n, "on_board", true)
	sym.DNP = yesNo(n, "dnp", false)
	sym.UUID = n.ChildText("uuid", 1)
	sym.Properties = properties(n)
	return sym
}

func parseWire(n *sexp.Node) Wire {
	return Wire{
		Points: points(n, false),
		Width:  strokeWidth(n),
		UUID:   n.ChildText("uuid", 1),
	}
}

func parseLabel(n *sexp.Node) Label {
	l := Label{}
	l.Text, _ = n.Text(1)
	l.Shape = n.ChildText("shape", 1)
	l.Position = at(n)
	l.Angle = atAngle(n)
	l.FontSize = fontSize(n)
	l.UUID = n.ChildText("uuid", 1)
	return l
}

func parseSheet(n *sexp.Node) Sheet {
	sh := Sheet{
		Position:   at(n),
		UUID:       n.ChildText("uuid", 1),
		Properties: properties(n),
	}
	if size, ok := n.Child("size"); ok {
		sh.Size = xy(size)
	}
	for _, p := range sh.Properties {
		switch p.Key {
		case "Sheetname", "Sheet name":
			sh.Name = p.Value
		case "Sheetfile", "Sheet file":
			sh.FileName = p.Value
		}
	}
	for _, pn := range n.Children("pin") {
		pin := SheetPin{
			Position: at(pn),
			Angle:    atAngle(pn),
			UUID:     pn.ChildText("uuid", 1),
		}
		pin.Name, _ = pn.Text(1)
		pin.Shape, _ = pn.Text(2)
		sh.Pins = append(sh.Pins, pin)
	}
	return sh
}

func properties(n *sexp.Node) []Property {
	var props []Property
	for _, pn := range n.Children("property") {
		key, err := pn.Text(1)
		if err != nil {
			continue
		}
		val, _ := pn.Text(2)
		p := Property{
			Key:      key,
			Value:    val,
			Position: at(pn),
			Angle:    atAngle(pn),
			Hidden:   pn.HasFlag("hide"),
		}
		if eff, ok := pn.Child("effects"); ok && eff.HasFlag("hide") {
			p.Hidden = true
		}
		props = append(props, p)
	}
	return props
}

// xy reads (key X Y ...) as a point.
func xy(n *sexp.Node) geom.Vec2 {
	if n == nil {
		return geom.Vec2{}
	}
	x, _ := n.Float(1)
	y, _ := n.Float(2)
	return geom.V(x, y)
}

// libXY is xy flipped from library (Y up) into sheet orientation.
func libXY(n *sexp.Node) geom.Vec2 {
	p := xy(n)
	if p.Y != 0 {
		p.Y = -p.Y
	}
	return p
}

func at(n *sexp.Node) geom.Vec2 {
	a, ok := n.Child("at")
	if !ok {
		return geom.Vec2{}
	}
	return xy(a)
}

func atAngle(n *sexp.Node) float64 {
	a, ok := n.Child("at")
	if !ok || a.Len() < 4 {
		return 0
	}
	v, _ := a.Float(3)
	return v
}

func points(n *sexp.Node, lib bool) []geom.Vec2 {
	pts, ok := n.Child("pts")
	if !ok {
		return nil
	}
	var out []geom.Vec2
	for _, p := range pts.Children("xy") {
		if lib {
			out = append(out, libXY(p))
		} else {
			out = append(out, xy(p))
		}
	}
	return out
}

func childFloat(n *sexp.Node, key string) float64 {
	v, _ := n.ChildFloat(key, 1)
	return v
}

func strokeWidth(n *sexp.Node) float64 {
	s, ok := n.Child("stroke")
	if !ok {
		return 0
	}
	return childFloat(s, "width")
}

func fillType(n *sexp.Node) string {
	f, ok := n.Child("fill")
	if !ok {
		return "none"
	}
	if t := f.ChildText("type", 1); t != "" {
		return t
	}
	return "none"
}

func fontSize(n *sexp.Node) float64 {
	eff, ok := n.Child("effects")
	if !ok {
		return 0
	}
	font, ok := eff.Child("font")
	if !ok {
		return 0
	}
	return childFloat(font, "size")
}

func yesNo(n *sexp.Node, key string, def bool) bool {
	v := n.ChildText(key, 1)
	switch v {
	case "yes":
		return true
	case "no":
		return false
	}
	return def
}

func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	if a == 0 {
		return 0
	}
	return a
}
