// Package geom is the 2D geometry kernel shared by the viewer and the
// schematic document: millimetre vectors and axis-aligned bounding boxes.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Vec2 is a point or displacement in world units (mm).
// Values are passed by copy and never mutated in place.
type Vec2 r2.Vec

// V is shorthand for Vec2{X: x, Y: y}.
func V(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2(r2.Add(r2.Vec(v), r2.Vec(o)))
}

// Sub returns v-o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2(r2.Sub(r2.Vec(v), r2.Vec(o)))
}

// Scale returns v multiplied by f.
func (v Vec2) Scale(f float64) Vec2 {
	return Vec2(r2.Scale(f, r2.Vec(v)))
}

// Len returns the Euclidean length of v.
func (v Vec2) Len() float64 {
	return r2.Norm(r2.Vec(v))
}

// Equal reports exact component equality. Connectivity never uses this;
// see PositionKey in the schview package.
func (v Vec2) Equal(o Vec2) bool {
	return v.X == o.X && v.Y == o.Y
}

// Rotate rotates v counter-clockwise about the origin by deg degrees using
// the standard rotation matrix. Quarter turns use exact sine and cosine so
// that pins on a 90 degree grid land on exact coordinates.
func (v Vec2) Rotate(deg float64) Vec2 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	switch d {
	case 0:
		return v
	case 90:
		return Vec2{X: -v.Y, Y: v.X}
	case 180:
		return Vec2{X: -v.X, Y: -v.Y}
	case 270:
		return Vec2{X: v.Y, Y: -v.X}
	}
	return Vec2(r2.Rotate(r2.Vec(v), deg*math.Pi/180.0, r2.Vec{}))
}
