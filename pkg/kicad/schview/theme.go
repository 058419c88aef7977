package schview

import (
	"fmt"
	"image/color"
	"strings"
)

// Theme represents a color scheme for schematic rendering
type Theme int

const (
	// ThemeLight is KiCad's default white sheet
	ThemeLight Theme = iota
	// ThemeDark is a near-black sheet with bright strokes
	ThemeDark
)

// Colors holds the paint colors for each element class.
type Colors struct {
	Background color.NRGBA
	Page       color.NRGBA

	Wire     color.NRGBA
	Bus      color.NRGBA
	Junction color.NRGBA

	LocalLabel  color.NRGBA
	GlobalLabel color.NRGBA
	HierLabel   color.NRGBA

	SymbolBody color.NRGBA
	SymbolFill color.NRGBA
	SymbolPin  color.NRGBA
	SymbolText color.NRGBA

	Sheet     color.NRGBA
	SheetFill color.NRGBA
	SheetText color.NRGBA

	Drawing color.NRGBA
}

// ColorsFor returns the palette for t. Unknown themes get the light one.
func ColorsFor(t Theme) *Colors {
	if t == ThemeDark {
		return &Colors{
			Background:  color.NRGBA{R: 30, G: 30, B: 30, A: 255},
			Page:        color.NRGBA{R: 70, G: 70, B: 70, A: 255},
			Wire:        color.NRGBA{R: 0, G: 255, B: 0, A: 255},
			Bus:         color.NRGBA{R: 0, G: 150, B: 255, A: 255},
			Junction:    color.NRGBA{R: 0, G: 255, B: 0, A: 255},
			LocalLabel:  color.NRGBA{R: 255, G: 255, B: 0, A: 255},
			GlobalLabel: color.NRGBA{R: 255, G: 100, B: 100, A: 255},
			HierLabel:   color.NRGBA{R: 255, G: 150, B: 0, A: 255},
			SymbolBody:  color.NRGBA{R: 255, G: 100, B: 100, A: 255},
			SymbolFill:  color.NRGBA{R: 60, G: 60, B: 0, A: 128},
			SymbolPin:   color.NRGBA{R: 255, G: 100, B: 100, A: 255},
			SymbolText:  color.NRGBA{R: 230, G: 230, B: 230, A: 255},
			Sheet:       color.NRGBA{R: 255, G: 100, B: 255, A: 255},
			SheetFill:   color.NRGBA{R: 50, G: 40, B: 50, A: 64},
			SheetText:   color.NRGBA{R: 230, G: 230, B: 230, A: 255},
			Drawing:     color.NRGBA{R: 160, G: 160, B: 200, A: 255},
		}
	}
	return &Colors{
		Background:  color.NRGBA{R: 245, G: 244, B: 239, A: 255},
		Page:        color.NRGBA{R: 132, G: 0, B: 0, A: 255},
		Wire:        color.NRGBA{R: 0, G: 132, B: 0, A: 255},
		Bus:         color.NRGBA{R: 0, G: 0, B: 132, A: 255},
		Junction:    color.NRGBA{R: 0, G: 132, B: 0, A: 255},
		LocalLabel:  color.NRGBA{R: 15, G: 15, B: 15, A: 255},
		GlobalLabel: color.NRGBA{R: 132, G: 0, B: 0, A: 255},
		HierLabel:   color.NRGBA{R: 132, G: 66, B: 0, A: 255},
		SymbolBody:  color.NRGBA{R: 132, G: 0, B: 0, A: 255},
		SymbolFill:  color.NRGBA{R: 255, G: 255, B: 194, A: 255},
		SymbolPin:   color.NRGBA{R: 132, G: 0, B: 0, A: 255},
		SymbolText:  color.NRGBA{R: 0, G: 100, B: 100, A: 255},
		Sheet:       color.NRGBA{R: 132, G: 0, B: 132, A: 255},
		SheetFill:   color.NRGBA{R: 255, G: 255, B: 255, A: 64},
		SheetText:   color.NRGBA{R: 0, G: 0, B: 0, A: 255},
		Drawing:     color.NRGBA{R: 0, G: 0, B: 132, A: 255},
	}
}

// ParseTheme maps a config name to a Theme.
func ParseTheme(name string) (Theme, error) {
	switch strings.ToLower(name) {
	case "", "light":
		return ThemeLight, nil
	case "dark":
		return ThemeDark, nil
	}
	return ThemeLight, fmt.Errorf("unknown theme %q", name)
}

// String returns the theme name as a string
func (t Theme) String() string {
	switch t {
	case ThemeLight:
		return "light"
	case ThemeDark:
		return "dark"
	default:
		return "unknown"
	}
}
