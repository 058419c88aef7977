package geom

import "math"

// BBox is an axis-aligned rectangle. W and H are never negative.
//
// Context is an opaque back-reference to the item the box bounds. The box
// never owns that item; documents hand out comparable handles for it.
type BBox struct {
	X, Y    float64
	W, H    float64
	Context any
}

// NewBBox returns a box at (x, y) of size w by h. Negative sizes are
// normalised by moving the origin.
func NewBBox(x, y, w, h float64, ctx any) BBox {
	return FromCorners(x, y, x+w, y+h, ctx)
}

// FromCorners builds a box from two opposite corners given in any order.
func FromCorners(x1, y1, x2, y2 float64, ctx any) BBox {
	return BBox{
		X:       math.Min(x1, x2),
		Y:       math.Min(y1, y2),
		W:       math.Abs(x2 - x1),
		H:       math.Abs(y2 - y1),
		Context: ctx,
	}
}

// FromPoints returns the smallest box covering pts. An empty slice yields a
// zero box at the origin.
func FromPoints(pts []Vec2, ctx any) BBox {
	if len(pts) == 0 {
		return BBox{Context: ctx}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return FromCorners(minX, minY, maxX, maxY, ctx)
}

// X2 is the right edge.
func (b BBox) X2() float64 { return b.X + b.W }

// Y2 is the bottom edge.
func (b BBox) Y2() float64 { return b.Y + b.H }

// Start is the top-left corner.
func (b BBox) Start() Vec2 { return Vec2{X: b.X, Y: b.Y} }

// End is the bottom-right corner.
func (b BBox) End() Vec2 { return Vec2{X: b.X2(), Y: b.Y2()} }

// Center returns the centre point.
func (b BBox) Center() Vec2 {
	return Vec2{X: b.X + b.W/2, Y: b.Y + b.H/2}
}

// MaxDim returns the larger of W and H.
func (b BBox) MaxDim() float64 {
	return math.Max(b.W, b.H)
}

// Grow expands the box by margin on every side. A negative margin shrinks
// it, never below zero size.
func (b BBox) Grow(margin float64) BBox {
	w := b.W + 2*margin
	h := b.H + 2*margin
	x := b.X - margin
	y := b.Y - margin
	if w < 0 {
		x, w = b.X+b.W/2, 0
	}
	if h < 0 {
		y, h = b.Y+b.H/2, 0
	}
	return BBox{X: x, Y: y, W: w, H: h, Context: b.Context}
}

// Contains reports whether o lies entirely inside b (edges inclusive).
func (b BBox) Contains(o BBox) bool {
	return o.X >= b.X && o.Y >= b.Y && o.X2() <= b.X2() && o.Y2() <= b.Y2()
}

// ContainsPoint reports whether p lies inside b (edges inclusive).
func (b BBox) ContainsPoint(p Vec2) bool {
	return p.X >= b.X && p.X <= b.X2() && p.Y >= b.Y && p.Y <= b.Y2()
}

// Intersects reports whether a and b overlap. Two boxes intersect unless one
// lies entirely to the left, right, above or below the other, so touching
// edges count.
func Intersects(a, b BBox) bool {
	return !(b.X > a.X2() || b.X2() < a.X || b.Y > a.Y2() || b.Y2() < a.Y)
}

// Union returns the smallest box covering b and o, keeping b's context.
func (b BBox) Union(o BBox) BBox {
	u := FromCorners(
		math.Min(b.X, o.X), math.Min(b.Y, o.Y),
		math.Max(b.X2(), o.X2()), math.Max(b.Y2(), o.Y2()),
		b.Context,
	)
	return u
}

// Combine unions all boxes. It returns a zero box when boxes is empty.
func Combine(boxes []BBox, ctx any) BBox {
	if len(boxes) == 0 {
		return BBox{Context: ctx}
	}
	u := boxes[0]
	for _, o := range boxes[1:] {
		u = u.Union(o)
	}
	u.Context = ctx
	return u
}

// Corners returns the four corners clockwise from the top-left.
func (b BBox) Corners() []Vec2 {
	return []Vec2{
		{X: b.X, Y: b.Y},
		{X: b.X2(), Y: b.Y},
		{X: b.X2(), Y: b.Y2()},
		{X: b.X, Y: b.Y2()},
	}
}
