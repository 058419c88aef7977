package viewer

import (
	"math"

	"gioui.org/f32"

	"github.com/OpenTraceLab/OpenTraceView/pkg/geom"
)

// Default zoom limits in pixels per mm.
const (
	DefaultMinZoom = 0.1
	DefaultMaxZoom = 1000.0
)

// Camera represents a viewport onto a document in world coordinates (mm).
// Schematic Y grows downward on both sides, so no axis flip is applied.
type Camera struct {
	// Center position in world coordinates (mm)
	Center geom.Vec2

	// Zoom level (pixels per mm)
	// Higher values = more zoomed in
	Zoom float64

	// Screen dimensions (pixels)
	ScreenWidth  int
	ScreenHeight int

	MinZoom float64
	MaxZoom float64

	// OnChange is called after every mutation.
	OnChange func()
}

// NewCamera creates a camera with default settings
func NewCamera(screenWidth, screenHeight int) *Camera {
	return &Camera{
		Zoom:         10.0, // 10 pixels per mm is a reasonable default
		ScreenWidth:  screenWidth,
		ScreenHeight: screenHeight,
		MinZoom:      DefaultMinZoom,
		MaxZoom:      DefaultMaxZoom,
	}
}

func (c *Camera) changed() {
	if c.OnChange != nil {
		c.OnChange()
	}
}

func (c *Camera) clamp() {
	if c.MinZoom > 0 && c.Zoom < c.MinZoom {
		c.Zoom = c.MinZoom
	}
	if c.MaxZoom > 0 && c.Zoom > c.MaxZoom {
		c.Zoom = c.MaxZoom
	}
}

// HasArea reports whether the viewport has a non-zero size.
func (c *Camera) HasArea() bool {
	return c.ScreenWidth > 0 && c.ScreenHeight > 0
}

// WorldToScreen converts world coordinates (mm) to screen coordinates (pixels)
func (c *Camera) WorldToScreen(p geom.Vec2) geom.Vec2 {
	return geom.V(
		(p.X-c.Center.X)*c.Zoom+float64(c.ScreenWidth)/2.0,
		(p.Y-c.Center.Y)*c.Zoom+float64(c.ScreenHeight)/2.0,
	)
}

// ScreenToWorld converts screen coordinates (pixels) to world coordinates (mm)
func (c *Camera) ScreenToWorld(p geom.Vec2) geom.Vec2 {
	return geom.V(
		(p.X-float64(c.ScreenWidth)/2.0)/c.Zoom+c.Center.X,
		(p.Y-float64(c.ScreenHeight)/2.0)/c.Zoom+c.Center.Y,
	)
}

// Matrix returns the world to screen transform for Gio paint operations.
func (c *Camera) Matrix() f32.Affine2D {
	z := float32(c.Zoom)
	return f32.Affine2D{}.
		Offset(f32.Pt(float32(-c.Center.X), float32(-c.Center.Y))).
		Scale(f32.Point{}, f32.Pt(z, z)).
		Offset(f32.Pt(float32(c.ScreenWidth)/2, float32(c.ScreenHeight)/2))
}

// Pan moves the camera by screen pixel offsets
func (c *Camera) Pan(deltaX, deltaY float64) {
	if c.Zoom == 0 {
		return
	}
	c.Center.X -= deltaX / c.Zoom
	c.Center.Y -= deltaY / c.Zoom
	c.changed()
}

// ZoomAt zooms in/out at a specific screen position
// factor > 1 zooms in, factor < 1 zooms out
func (c *Camera) ZoomAt(screen geom.Vec2, factor float64) {
	if factor <= 0 {
		return
	}
	before := c.ScreenToWorld(screen)
	c.Zoom *= factor
	c.clamp()
	after := c.ScreenToWorld(screen)

	// Keep the point under the cursor stationary
	c.Center = c.Center.Add(before.Sub(after))
	c.changed()
}

// SetBBox fits the camera to b: centred on it, zoomed so it fills the
// viewport along its tighter axis. Degenerate boxes and an empty viewport
// leave the camera unchanged.
func (c *Camera) SetBBox(b geom.BBox) {
	if b.W <= 0 || b.H <= 0 || !c.HasArea() {
		return
	}

	c.Center = b.Center()
	c.Zoom = math.Min(float64(c.ScreenWidth)/b.W, float64(c.ScreenHeight)/b.H)
	c.clamp()
	c.changed()
}

// Resize updates camera when window is resized
func (c *Camera) Resize(width, height int) {
	if width == c.ScreenWidth && height == c.ScreenHeight {
		return
	}
	c.ScreenWidth = width
	c.ScreenHeight = height
	c.changed()
}

// VisibleBounds returns the visible area in world coordinates.
func (c *Camera) VisibleBounds() geom.BBox {
	tl := c.ScreenToWorld(geom.V(0, 0))
	br := c.ScreenToWorld(geom.V(float64(c.ScreenWidth), float64(c.ScreenHeight)))
	return geom.FromCorners(tl.X, tl.Y, br.X, br.Y, nil)
}
