package ui

import (
	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"github.com/OpenTraceLab/OpenTraceView/pkg/geom"
	"github.com/OpenTraceLab/OpenTraceView/pkg/viewer"
)

// layoutCanvas feeds pointer input to the viewer and draws its layers.
func (a *App) layoutCanvas(gtx layout.Context) layout.Dimensions {
	size := gtx.Constraints.Max
	a.view.Resize(size.X, size.Y)

	// The panels are laid out before the canvas, so anything the viewer
	// reports during this frame shows up in the next one.
	status := a.status
	handled := false
	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target:  a,
			Kinds:   pointer.Press | pointer.Drag | pointer.Release | pointer.Move | pointer.Leave | pointer.Scroll | pointer.Cancel,
			ScrollY: pointer.ScrollRange{Min: -100, Max: 100},
		})
		if !ok {
			break
		}
		if pe, ok := ev.(pointer.Event); ok {
			a.handlePointer(pe)
			handled = true
		}
	}

	defer clip.Rect{Max: size}.Push(gtx.Ops).Pop()
	event.Op(gtx.Ops, a)
	pointer.CursorCrosshair.Add(gtx.Ops)

	a.renderer.SetTarget(gtx.Ops)
	a.view.Frame()
	a.renderer.SetTarget(nil)
	if handled || a.status != status || a.view.Scheduler().Pending() {
		gtx.Execute(op.InvalidateCmd{})
	}

	a.layoutCanvasHint(gtx)
	return layout.Dimensions{Size: size}
}

func (a *App) layoutCanvasHint(gtx layout.Context) {
	msg := "Drag to pan | Scroll to zoom | Shift+drag to select | F fit page | Z zoom selection"
	if a.doc == nil {
		msg = "Open a KiCad schematic with Ctrl+O"
		if a.loading != "" {
			msg = "Loading " + a.loading
		}
	}
	layout.Inset{Top: unit.Dp(8), Left: unit.Dp(8)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		label := material.Caption(a.gvTheme.Theme, msg)
		label.Color = a.gvTheme.Palette.Fg
		label.Color.A = 128
		return label.Layout(gtx)
	})
}

func (a *App) handlePointer(pe pointer.Event) {
	e := viewer.PointerEvent{
		Screen: geom.Vec2{X: float64(pe.Position.X), Y: float64(pe.Position.Y)},
		Shift:  pe.Modifiers.Contain(key.ModShift),
	}
	if pe.Buttons.Contain(pointer.ButtonPrimary) {
		e.Buttons |= viewer.ButtonPrimary
	}
	if pe.Buttons.Contain(pointer.ButtonSecondary) {
		e.Buttons |= viewer.ButtonSecondary
	}
	if pe.Buttons.Contain(pointer.ButtonTertiary) {
		e.Buttons |= viewer.ButtonTertiary
	}

	switch pe.Kind {
	case pointer.Press:
		a.view.PointerDown(e)
	case pointer.Drag, pointer.Move:
		a.view.PointerMove(e)
	case pointer.Release:
		a.view.PointerUp(e)
	case pointer.Leave, pointer.Cancel:
		a.view.PointerLeave()
	case pointer.Scroll:
		switch {
		case pe.Scroll.Y > 0:
			a.view.Wheel(e.Screen, 1)
		case pe.Scroll.Y < 0:
			a.view.Wheel(e.Screen, -1)
		}
	}
}

// handleKeys runs the window-wide shortcuts.
func (a *App) handleKeys(gtx layout.Context) {
	for {
		ev, ok := gtx.Event(
			key.Filter{Name: "F"},
			key.Filter{Name: "Z"},
			key.Filter{Name: key.NameEscape},
			key.Filter{Name: "O", Required: key.ModShortcut},
		)
		if !ok {
			break
		}
		e, ok := ev.(key.Event)
		if !ok || e.State != key.Press {
			continue
		}
		switch {
		case e.Name == "O" && e.Modifiers.Contain(key.ModShortcut):
			a.openFilePicker()
		case e.Name == "F":
			a.view.ZoomToPage()
		case e.Name == "Z":
			a.view.ZoomToSelection()
		case e.Name == key.NameEscape:
			a.view.ClearZoneSelection()
			a.setZone(nil, nil)
		}
		gtx.Execute(op.InvalidateCmd{})
	}
}
