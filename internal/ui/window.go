// Package ui is the desktop schematic viewer window.
package ui

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"os"

	"gioui.org/app"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/x/explorer"
	"github.com/oligo/gioview/menu"
	"github.com/oligo/gioview/theme"
	"golang.org/x/exp/shiny/materialdesign/icons"

	"github.com/OpenTraceLab/OpenTraceView/internal/config"
	"github.com/OpenTraceLab/OpenTraceView/pkg/kicad/schview"
	"github.com/OpenTraceLab/OpenTraceView/pkg/viewer"
)

type loadResult struct {
	path string
	doc  *schview.Document
	err  error
}

// App is one viewer window.
type App struct {
	window   *app.Window
	ops      op.Ops
	gvTheme  *theme.Theme
	explorer *explorer.Explorer
	log      *slog.Logger

	cfg     *config.Config
	cfgPath string
	theme   schview.Theme

	renderer *viewer.GioRenderer
	view     *viewer.Viewer
	doc      *schview.Document
	loaded   chan loadResult
	loading  string

	// latest zone selection
	zoneItems   []viewer.Item
	connections []viewer.ZoneConnection
	connClicks  []widget.Clickable
	connList    widget.List
	rowHovered  int

	status string

	openBtn      widget.Clickable
	fitBtn       widget.Clickable
	selectionBtn widget.Clickable
	themeBtn     widget.Clickable
	themeMenu    *menu.DropdownMenu

	openIcon      *widget.Icon
	fitIcon       *widget.Icon
	selectionIcon *widget.Icon
	themeIcon     *widget.Icon
}

// New creates the window. cfgPath is where theme changes are saved; an
// empty path disables saving.
func New(cfg *config.Config, cfgPath string) *App {
	if cfg == nil {
		cfg = config.Default()
	}
	w := new(app.Window)
	w.Option(app.Title("OpenTraceView"), app.Size(unit.Dp(1360), unit.Dp(860)))

	a := &App{
		window:     w,
		gvTheme:    theme.NewTheme("", nil, true),
		explorer:   explorer.NewExplorer(w),
		log:        viewer.Logger().With("component", "ui"),
		cfg:        cfg,
		cfgPath:    cfgPath,
		theme:      cfg.SchematicTheme(),
		loaded:     make(chan loadResult, 1),
		rowHovered: -1,
		status:     "No schematic loaded",
	}
	a.connList.Axis = layout.Vertical

	a.renderer = viewer.NewGioRenderer(schview.ColorsFor(a.theme).Background)
	a.view = viewer.New(a.renderer, cfg.ViewerOptions())
	a.view.Scheduler().Wake = w.Invalidate
	a.view.OnZoneSelect(a.onZoneSelect)
	a.view.OnSelect(a.onSelect)
	a.view.OnHover(a.onHover)

	if icon, err := widget.NewIcon(icons.FileFolderOpen); err == nil {
		a.openIcon = icon
	}
	if icon, err := widget.NewIcon(icons.NavigationFullscreen); err == nil {
		a.fitIcon = icon
	}
	if icon, err := widget.NewIcon(icons.ActionZoomIn); err == nil {
		a.selectionIcon = icon
	}
	if icon, err := widget.NewIcon(icons.ImagePalette); err == nil {
		a.themeIcon = icon
	}
	a.themeMenu = a.buildThemeMenu()
	a.applyPalette()
	return a
}

// Open starts loading path in the background.
func (a *App) Open(path string) {
	a.loading = path
	a.status = "Loading " + path
	go a.load(path, a.theme)
}

// load runs off the UI goroutine and must not touch App state.
func (a *App) load(path string, t schview.Theme) {
	doc, err := schview.Load(path, t)
	a.loaded <- loadResult{path: path, doc: doc, err: err}
	a.window.Invalidate()
}

// Run blocks processing window events until the window closes.
func (a *App) Run() error {
	for {
		e := a.window.Event()
		a.explorer.ListenEvents(e)
		switch ev := e.(type) {
		case app.DestroyEvent:
			return ev.Err
		case app.FrameEvent:
			a.receiveLoads()
			gtx := app.NewContext(&a.ops, ev)
			a.layout(gtx)
			ev.Frame(gtx.Ops)
		}
	}
}

// receiveLoads hands finished background loads to the viewer on the UI
// goroutine.
func (a *App) receiveLoads() {
	select {
	case res := <-a.loaded:
		a.loading = ""
		if res.err != nil {
			a.status = fmt.Sprintf("Failed to open %s: %v", res.path, res.err)
			a.log.Error("load failed", "path", res.path, "err", res.err)
			return
		}
		a.setDocument(res.doc)
		a.window.Option(app.Title("OpenTraceView - " + res.path))
	default:
	}
}

func (a *App) setDocument(doc *schview.Document) {
	doc.SetTheme(a.theme)
	if err := a.view.Load(doc); err != nil {
		a.status = err.Error()
		a.log.Error("paint failed", "err", err)
		return
	}
	a.doc = doc
	a.setZone(nil, nil)
	sch := doc.Schematic()
	a.status = fmt.Sprintf("Components: %d | Wires: %d | Labels: %d",
		len(sch.Symbols), len(sch.Wires), len(sch.Labels)+len(sch.GlobalLabels)+len(sch.HierLabels))
}

func (a *App) openFilePicker() {
	t := a.theme
	go func() {
		file, err := a.explorer.ChooseFile("kicad_sch")
		if err != nil {
			if !errors.Is(err, explorer.ErrUserDecline) {
				a.log.Error("file picker failed", "err", err)
			}
			return
		}
		defer file.Close()

		f, ok := file.(*os.File)
		if !ok {
			a.log.Error("file picker returned no path")
			return
		}
		a.load(f.Name(), t)
	}()
}

func (a *App) buildThemeMenu() *menu.DropdownMenu {
	opts := make([]menu.MenuOption, 0, 2)
	for _, t := range []schview.Theme{schview.ThemeLight, schview.ThemeDark} {
		opts = append(opts, menu.MenuOption{
			OnClicked: func() error {
				a.setTheme(t)
				return nil
			},
			Layout: func(gtx menu.C, th *theme.Theme) menu.D {
				lbl := themeLabel(th, t.String())
				if t == a.theme {
					lbl.Color = th.Palette.ContrastBg
				}
				return layout.Inset{Left: unit.Dp(4), Right: unit.Dp(4)}.Layout(gtx, lbl.Layout)
			},
		})
	}
	drop := menu.NewDropdownMenu([][]menu.MenuOption{opts})
	drop.MaxWidth = unit.Dp(160)
	return drop
}

func (a *App) setTheme(t schview.Theme) {
	if t == a.theme {
		return
	}
	a.theme = t
	a.renderer.Background = schview.ColorsFor(t).Background
	a.applyPalette()
	if a.doc != nil {
		a.setDocument(a.doc)
	}

	a.cfg.Theme = t.String()
	if a.cfgPath != "" {
		if err := a.cfg.Save(a.cfgPath); err != nil {
			a.log.Warn("failed to save config", "err", err)
		}
	}
	a.window.Invalidate()
}

func (a *App) applyPalette() {
	if a.theme == schview.ThemeDark {
		a.gvTheme.WithPalette(theme.Palette{
			Bg:         color.NRGBA{R: 18, G: 20, B: 26, A: 255},
			Fg:         color.NRGBA{R: 233, G: 236, B: 245, A: 255},
			ContrastBg: color.NRGBA{R: 120, G: 150, B: 255, A: 255},
			ContrastFg: color.NRGBA{R: 12, G: 16, B: 24, A: 255},
			Bg2:        color.NRGBA{R: 34, G: 40, B: 50, A: 255},
		})
		return
	}
	a.gvTheme.WithPalette(theme.Palette{
		Bg:         color.NRGBA{R: 245, G: 247, B: 253, A: 255},
		Fg:         color.NRGBA{R: 34, G: 37, B: 49, A: 255},
		ContrastBg: color.NRGBA{R: 80, G: 120, B: 255, A: 255},
		ContrastFg: color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		Bg2:        color.NRGBA{R: 225, G: 230, B: 244, A: 255},
	})
}

func (a *App) layout(gtx layout.Context) layout.Dimensions {
	paint.FillShape(gtx.Ops, a.gvTheme.Palette.Bg, clip.Rect{Max: gtx.Constraints.Max}.Op())
	a.handleKeys(gtx)

	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(a.layoutToolbar),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{Axis: layout.Horizontal}.Layout(gtx,
				layout.Flexed(1, a.layoutCanvas),
				layout.Rigid(a.layoutConnections),
			)
		}),
		layout.Rigid(a.layoutStatus),
	)
}
