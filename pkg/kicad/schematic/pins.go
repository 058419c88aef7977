package schematic

import "github.com/OpenTraceLab/OpenTraceView/pkg/geom"

// Transform maps a symbol-local point to sheet coordinates: mirror first
// ("x" negates Y, "y" negates X), then rotate counter-clockwise on the sheet
// by the symbol angle, then translate by the symbol position. Library Y is
// already flipped at parse time, so a counter-clockwise turn in the Y-down
// frame is Rotate(-angle).
func (s *Symbol) Transform(local geom.Vec2) geom.Vec2 {
	p := local
	switch s.Mirror {
	case "x":
		p.Y = -p.Y
	case "y":
		p.X = -p.X
	}
	return p.Rotate(-s.Angle).Add(s.Position)
}

// PinWorldPosition returns the electrical connection point of pin on sym.
func PinWorldPosition(sym *Symbol, pin *Pin) geom.Vec2 {
	return sym.Transform(pin.Position)
}

// PinEnd returns the end of the pin body opposite the connection point, in
// sheet coordinates.
func PinEnd(sym *Symbol, pin *Pin) geom.Vec2 {
	dir := geom.V(pin.Length, 0).Rotate(pin.Angle)
	return sym.Transform(pin.Position.Add(dir))
}
