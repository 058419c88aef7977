package ui

import (
	"fmt"
	"image"

	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"github.com/oligo/gioview/theme"

	"github.com/OpenTraceLab/OpenTraceView/pkg/kicad/schview"
	"github.com/OpenTraceLab/OpenTraceView/pkg/viewer"
)

const connectionsWidth = 300

// formatConnection renders one list row, e.g. "R1.2 → R2.1 (MID)".
func formatConnection(c viewer.ZoneConnection) string {
	s := fmt.Sprintf("%s.%s → %s.%s", c.FromRef, c.FromPin, c.ToRef, c.ToPin)
	if c.NetName != "" {
		s += " (" + c.NetName + ")"
	}
	return s
}

// zoneSummary counts the zone items per kind, e.g. "2 symbol, 3 wire".
func zoneSummary(items []viewer.Item) string {
	var counts [schview.KindJunction + 1]int
	for _, it := range items {
		if si, ok := it.(schview.Item); ok && int(si.Kind) < len(counts) {
			counts[si.Kind]++
		}
	}
	s := ""
	for k, n := range counts {
		if n == 0 {
			continue
		}
		if s != "" {
			s += ", "
		}
		s += fmt.Sprintf("%d %s", n, schview.Kind(k))
	}
	if s == "" {
		return "nothing selected"
	}
	return s
}

func themeLabel(th *theme.Theme, name string) material.LabelStyle {
	return material.Body1(th.Theme, name)
}

func (a *App) iconButton(gtx layout.Context, btn *widget.Clickable, icon *widget.Icon, text string) layout.Dimensions {
	if icon == nil {
		return material.Button(a.gvTheme.Theme, btn, text).Layout(gtx)
	}
	b := material.IconButton(a.gvTheme.Theme, btn, icon, text)
	b.Size = unit.Dp(20)
	b.Inset = layout.UniformInset(unit.Dp(6))
	return b.Layout(gtx)
}

func (a *App) layoutToolbar(gtx layout.Context) layout.Dimensions {
	if a.openBtn.Clicked(gtx) {
		a.openFilePicker()
	}
	if a.fitBtn.Clicked(gtx) {
		a.view.ZoomToPage()
	}
	if a.selectionBtn.Clicked(gtx) {
		a.view.ZoomToSelection()
	}
	if a.themeBtn.Clicked(gtx) {
		a.themeMenu.ToggleVisibility(gtx)
	}

	title := "No schematic"
	if a.doc != nil {
		title = a.doc.Path()
	}

	return layout.UniformInset(unit.Dp(6)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return a.iconButton(gtx, &a.openBtn, a.openIcon, "Open")
			}),
			layout.Rigid(layout.Spacer{Width: unit.Dp(6)}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return a.iconButton(gtx, &a.fitBtn, a.fitIcon, "Fit page")
			}),
			layout.Rigid(layout.Spacer{Width: unit.Dp(6)}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return a.iconButton(gtx, &a.selectionBtn, a.selectionIcon, "Zoom to selection")
			}),
			layout.Rigid(layout.Spacer{Width: unit.Dp(6)}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				dims := a.iconButton(gtx, &a.themeBtn, a.themeIcon, "Theme")
				// Layout menu after button so it appears on top
				a.themeMenu.Layout(gtx, a.gvTheme)
				return dims
			}),
			layout.Rigid(layout.Spacer{Width: unit.Dp(12)}.Layout),
			layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
				lbl := material.Body2(a.gvTheme.Theme, title)
				lbl.MaxLines = 1
				return lbl.Layout(gtx)
			}),
		)
	})
}

func (a *App) layoutConnections(gtx layout.Context) layout.Dimensions {
	width := gtx.Dp(unit.Dp(connectionsWidth))
	gtx.Constraints = layout.Exact(image.Pt(width, gtx.Constraints.Max.Y))
	paint.FillShape(gtx.Ops, a.gvTheme.Palette.Bg2, clip.Rect{Max: gtx.Constraints.Max}.Op())

	hovered := -1
	for i := range a.connClicks {
		if a.connClicks[i].Clicked(gtx) && a.doc != nil {
			a.view.Select(a.doc.SymbolByReference(a.connections[i].FromRef))
		}
		if a.connClicks[i].Hovered() {
			hovered = i
		}
	}
	if hovered != a.rowHovered {
		a.rowHovered = hovered
		if hovered < 0 || a.doc == nil {
			a.view.ClearExternalHover()
		} else {
			a.view.SetExternalHover(a.doc.SymbolByReference(a.connections[hovered].FromRef))
		}
	}

	return layout.UniformInset(unit.Dp(8)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(material.H6(a.gvTheme.Theme, fmt.Sprintf("Connections (%d)", len(a.connections))).Layout),
			layout.Rigid(material.Caption(a.gvTheme.Theme, zoneSummary(a.zoneItems)).Layout),
			layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
			layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
				if len(a.connections) == 0 {
					return material.Body2(a.gvTheme.Theme, "Shift+drag across pins to list their connections").Layout(gtx)
				}
				return material.List(a.gvTheme.Theme, &a.connList).Layout(gtx, len(a.connections), a.layoutConnectionRow)
			}),
		)
	})
}

func (a *App) layoutConnectionRow(gtx layout.Context, i int) layout.Dimensions {
	return material.Clickable(gtx, &a.connClicks[i], func(gtx layout.Context) layout.Dimensions {
		return layout.Inset{Top: unit.Dp(4), Bottom: unit.Dp(4), Left: unit.Dp(4)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			lbl := material.Body2(a.gvTheme.Theme, formatConnection(a.connections[i]))
			if i == a.rowHovered {
				lbl.Color = a.gvTheme.Palette.ContrastBg
			}
			return lbl.Layout(gtx)
		})
	})
}

func (a *App) layoutStatus(gtx layout.Context) layout.Dimensions {
	return layout.Inset{Top: unit.Dp(4), Bottom: unit.Dp(4), Left: unit.Dp(8), Right: unit.Dp(8)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		lbl := material.Caption(a.gvTheme.Theme, a.status)
		lbl.MaxLines = 1
		return lbl.Layout(gtx)
	})
}

func (a *App) onZoneSelect(e viewer.ZoneSelectEvent) {
	a.setZone(e.Items, e.Connections)
	a.status = fmt.Sprintf("Zone: %s | %d connections", zoneSummary(e.Items), len(e.Connections))
	a.log.Debug("zone selected", "items", len(e.Items), "connections", len(e.Connections))
}

func (a *App) onSelect(e viewer.SelectEvent) {
	if a.doc == nil {
		return
	}
	it, ok := e.Item.(schview.Item)
	if !ok {
		a.status = "Selection cleared"
		return
	}
	a.status = "Selected " + a.doc.Describe(it)
}

func (a *App) onHover(e viewer.HoverEvent) {
	if a.doc == nil {
		return
	}
	pos := fmt.Sprintf("(%.2f, %.2f) mm", e.WorldX, e.WorldY)
	if it, ok := e.Item.(schview.Item); ok {
		a.status = a.doc.Describe(it) + " at " + pos
		return
	}
	a.status = pos
}

// setZone replaces the side panel contents.
func (a *App) setZone(items []viewer.Item, conns []viewer.ZoneConnection) {
	a.zoneItems = items
	a.connections = conns
	if cap(a.connClicks) < len(conns) {
		a.connClicks = make([]widget.Clickable, len(conns))
	}
	a.connClicks = a.connClicks[:len(conns)]
	if a.rowHovered >= len(conns) {
		a.rowHovered = -1
		a.view.ClearExternalHover()
	}
}
