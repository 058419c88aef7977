package viewer

import "github.com/OpenTraceLab/OpenTraceView/pkg/geom"

// Buttons is the set of pressed pointer buttons.
type Buttons uint8

const (
	ButtonPrimary Buttons = 1 << iota
	ButtonSecondary
	ButtonTertiary
)

// PointerEvent is a toolkit-neutral pointer sample in screen pixels.
type PointerEvent struct {
	Screen  geom.Vec2
	Buttons Buttons
	Shift   bool
}

// panSlop is how far, in pixels, a plain drag may move before the click
// that ends it is treated as a pan instead.
const panSlop = 4.0

// gesture tracks the pointer between PointerDown and PointerUp.
type gesture struct {
	down      bool
	last      geom.Vec2 // screen
	travelled float64
}
