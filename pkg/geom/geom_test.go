package geom

import (
	"math"
	"testing"
)

func TestFromCornersNormalizes(t *testing.T) {
	tests := []struct {
		x1, y1, x2, y2 float64
	}{
		{0, 0, 5, 5},
		{5, 5, 0, 0},
		{5, 0, 0, 5},
		{-3, 7, 2, -1},
		{1, 1, 1, 1},
	}

	for _, tt := range tests {
		b := FromCorners(tt.x1, tt.y1, tt.x2, tt.y2, nil)
		if b.W < 0 || b.H < 0 {
			t.Errorf("FromCorners(%v,%v,%v,%v) gave negative size %vx%v", tt.x1, tt.y1, tt.x2, tt.y2, b.W, b.H)
		}
		if b.X != math.Min(tt.x1, tt.x2) || b.Y != math.Min(tt.y1, tt.y2) {
			t.Errorf("FromCorners(%v,%v,%v,%v) origin = (%v,%v)", tt.x1, tt.y1, tt.x2, tt.y2, b.X, b.Y)
		}
		if b.X2() != math.Max(tt.x1, tt.x2) || b.Y2() != math.Max(tt.y1, tt.y2) {
			t.Errorf("FromCorners(%v,%v,%v,%v) far corner = (%v,%v)", tt.x1, tt.y1, tt.x2, tt.y2, b.X2(), b.Y2())
		}
	}
}

func TestContainsImpliesIntersects(t *testing.T) {
	outer := NewBBox(0, 0, 10, 10, nil)
	boxes := []BBox{
		NewBBox(0, 0, 10, 10, nil),
		NewBBox(2, 2, 3, 3, nil),
		NewBBox(5, 5, 0, 0, nil),
		NewBBox(0, 10, 10, 0, nil),
		NewBBox(11, 11, 1, 1, nil),
		NewBBox(-5, -5, 3, 3, nil),
		NewBBox(8, 8, 5, 5, nil),
	}

	for _, a := range append(boxes, outer) {
		for _, b := range boxes {
			if a.Contains(b) && !Intersects(a, b) {
				t.Errorf("%+v contains %+v but does not intersect it", a, b)
			}
		}
	}
}

func TestIntersects(t *testing.T) {
	a := NewBBox(0, 0, 10, 10, nil)
	tests := []struct {
		name string
		b    BBox
		want bool
	}{
		{"overlap", NewBBox(5, 5, 10, 10, nil), true},
		{"inside", NewBBox(2, 2, 1, 1, nil), true},
		{"touching edge", NewBBox(10, 0, 5, 5, nil), true},
		{"left", NewBBox(-5, 0, 4, 4, nil), false},
		{"right", NewBBox(11, 0, 4, 4, nil), false},
		{"above", NewBBox(0, -5, 4, 4, nil), false},
		{"below", NewBBox(0, 11, 4, 4, nil), false},
		{"zero area inside", NewBBox(3, 3, 0, 0, nil), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Intersects(a, tt.b); got != tt.want {
				t.Errorf("Intersects(%+v, %+v) = %v, want %v", a, tt.b, got, tt.want)
			}
			if got := Intersects(tt.b, a); got != tt.want {
				t.Errorf("Intersects is not symmetric for %+v", tt.b)
			}
		})
	}
}

func TestGrow(t *testing.T) {
	b := NewBBox(0, 0, 10, 4, "ctx").Grow(1)
	if b.X != -1 || b.Y != -1 || b.W != 12 || b.H != 6 {
		t.Errorf("Grow(1) = %+v", b)
	}
	if b.Context != "ctx" {
		t.Errorf("Grow dropped context, got %v", b.Context)
	}

	s := NewBBox(0, 0, 2, 2, nil).Grow(-5)
	if s.W != 0 || s.H != 0 || s.X != 1 || s.Y != 1 {
		t.Errorf("Grow(-5) = %+v, expected zero box at centre", s)
	}
}

func TestContainsPoint(t *testing.T) {
	b := NewBBox(0, 0, 10, 10, nil)
	if !b.ContainsPoint(V(0, 0)) || !b.ContainsPoint(V(10, 10)) || !b.ContainsPoint(V(5, 5)) {
		t.Error("ContainsPoint should include edges and interior")
	}
	if b.ContainsPoint(V(10.01, 5)) || b.ContainsPoint(V(-0.01, 5)) {
		t.Error("ContainsPoint should exclude points outside")
	}
}

func TestFromPointsAndUnion(t *testing.T) {
	b := FromPoints([]Vec2{V(3, 4), V(-1, 2), V(5, -2)}, nil)
	if b.X != -1 || b.Y != -2 || b.X2() != 5 || b.Y2() != 4 {
		t.Errorf("FromPoints = %+v", b)
	}

	u := NewBBox(0, 0, 1, 1, "a").Union(NewBBox(4, 5, 1, 1, "b"))
	if u.X != 0 || u.Y != 0 || u.W != 5 || u.H != 6 || u.Context != "a" {
		t.Errorf("Union = %+v", u)
	}

	c := Combine(nil, "x")
	if c.W != 0 || c.H != 0 || c.Context != "x" {
		t.Errorf("Combine(nil) = %+v", c)
	}
}

func TestRotateQuarterTurns(t *testing.T) {
	p := V(2, 0)
	tests := []struct {
		deg  float64
		want Vec2
	}{
		{0, V(2, 0)},
		{90, V(0, 2)},
		{180, V(-2, 0)},
		{270, V(0, -2)},
		{-90, V(0, -2)},
		{450, V(0, 2)},
	}

	for _, tt := range tests {
		got := p.Rotate(tt.deg)
		if !got.Equal(tt.want) {
			t.Errorf("Rotate(%v) = %+v, want %+v", tt.deg, got, tt.want)
		}
	}
}

func TestRotateArbitrary(t *testing.T) {
	got := V(1, 0).Rotate(45)
	want := math.Sqrt2 / 2
	if math.Abs(got.X-want) > 1e-12 || math.Abs(got.Y-want) > 1e-12 {
		t.Errorf("Rotate(45) = %+v, want (%v, %v)", got, want, want)
	}
}

func TestVecArithmetic(t *testing.T) {
	a := V(1, 2)
	b := V(3, 5)
	if got := a.Add(b); !got.Equal(V(4, 7)) {
		t.Errorf("Add = %+v", got)
	}
	if got := b.Sub(a); !got.Equal(V(2, 3)) {
		t.Errorf("Sub = %+v", got)
	}
	if got := a.Scale(3); !got.Equal(V(3, 6)) {
		t.Errorf("Scale = %+v", got)
	}
	if got := V(3, 4).Len(); got != 5 {
		t.Errorf("Len = %v", got)
	}
}
