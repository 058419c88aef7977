package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceView/pkg/geom"
	"github.com/OpenTraceLab/OpenTraceView/pkg/kicad/schematic"
	"github.com/OpenTraceLab/OpenTraceView/pkg/kicad/schview"
	"github.com/OpenTraceLab/OpenTraceView/pkg/viewer"
)

// The headless viewport used by sch zone. Its size only affects how world
// coordinates map to the synthesized pointer positions.
const (
	zoneViewportWidth  = 1188
	zoneViewportHeight = 840
)

var zoneJSON bool

var schCmd = &cobra.Command{
	Use:   "sch",
	Short: "KiCad schematic file operations",
	Long:  `Commands for working with KiCad schematic files (.kicad_sch)`,
}

var schInfoCmd = &cobra.Command{
	Use:   "info <schematic_file> [component]",
	Short: "Show schematic information",
	Long: `Display information about a KiCad schematic file.

Without component argument: shows schematic summary
With component argument: shows details for that specific component`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSchInfo,
}

var schZoneCmd = &cobra.Command{
	Use:   "zone <schematic_file> <x1> <y1> <x2> <y2>",
	Short: "List the items and connections inside a zone",
	Long: `Select a rectangle of the sheet, in millimetres, the same way a shift-drag
does in the viewer, then print the selected items and the pin-to-pin
connections inferred between them.

The corners go through the viewer's screen mapping and back, so the
reported bounds can differ from the arguments by floating point error.
An item lying exactly on a zone edge may fall on either side of it; leave
some margin around the items you want.`,
	Args: cobra.ExactArgs(5),
	RunE: runSchZone,
}

func init() {
	rootCmd.AddCommand(schCmd)
	schCmd.AddCommand(schInfoCmd)
	schCmd.AddCommand(schZoneCmd)

	schZoneCmd.Flags().BoolVar(&zoneJSON, "json", false, "print JSON instead of text")
}

func runSchInfo(cmd *cobra.Command, args []string) error {
	filename := args[0]
	sch, err := schematic.ParseFile(filename)
	if err != nil {
		return fmt.Errorf("error parsing schematic: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(args) >= 2 {
		// Show details for specific component
		return showComponentDetails(out, sch, args[1])
	}

	showSchemSummary(out, sch, filename)
	return nil
}

func showSchemSummary(out io.Writer, sch *schematic.Schematic, filename string) {
	fmt.Fprintf(out, "Schematic: %s\n", filename)
	fmt.Fprintf(out, "Version: %d\n", sch.Version)
	fmt.Fprintf(out, "Generator: %s", sch.Generator)
	if sch.GeneratorVer != "" {
		fmt.Fprintf(out, " v%s", sch.GeneratorVer)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Paper: %s", sch.Paper.Name)
	if sch.Paper.Width > 0 {
		fmt.Fprintf(out, " (%.1f x %.1f mm)", sch.Paper.Width, sch.Paper.Height)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out)

	tb := sch.TitleBlock
	if tb.Title != "" || tb.Revision != "" {
		fmt.Fprintln(out, "Title Block:")
		if tb.Title != "" {
			fmt.Fprintf(out, "  Title: %s\n", tb.Title)
		}
		if tb.Date != "" {
			fmt.Fprintf(out, "  Date: %s\n", tb.Date)
		}
		if tb.Revision != "" {
			fmt.Fprintf(out, "  Revision: %s\n", tb.Revision)
		}
		if tb.Company != "" {
			fmt.Fprintf(out, "  Company: %s\n", tb.Company)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, "Statistics:")
	fmt.Fprintf(out, "  Components: %d\n", len(sch.Symbols))
	fmt.Fprintf(out, "  Library symbols: %d\n", len(sch.LibSymbols))
	fmt.Fprintf(out, "  Wires: %d\n", len(sch.Wires))
	fmt.Fprintf(out, "  Buses: %d\n", len(sch.Buses))
	fmt.Fprintf(out, "  Junctions: %d\n", len(sch.Junctions))
	fmt.Fprintf(out, "  Labels: %d\n", len(sch.Labels))
	fmt.Fprintf(out, "  Global labels: %d\n", len(sch.GlobalLabels))
	fmt.Fprintf(out, "  Hierarchical labels: %d\n", len(sch.HierLabels))
	fmt.Fprintf(out, "  Sheets: %d\n", len(sch.Sheets))
	fmt.Fprintf(out, "  No-connects: %d\n", len(sch.NoConnects))
	fmt.Fprintln(out)

	if refs := sch.GetAllReferences(); len(refs) > 0 {
		fmt.Fprintln(out, "Components:")

		// Group by reference prefix
		byPrefix := make(map[string][]string)
		for _, ref := range refs {
			prefix := getRefPrefix(ref)
			byPrefix[prefix] = append(byPrefix[prefix], ref)
		}

		var prefixes []string
		for p := range byPrefix {
			prefixes = append(prefixes, p)
		}
		sort.Strings(prefixes)

		for _, prefix := range prefixes {
			refs := byPrefix[prefix]
			sort.Strings(refs)
			fmt.Fprintf(out, "  %s: %s\n", prefix, strings.Join(refs, ", "))
		}
		fmt.Fprintln(out)
	}

	if labels := sch.GetLabels(); len(labels) > 0 {
		fmt.Fprintln(out, "Net Labels:")
		sort.Strings(labels)
		for _, l := range labels {
			fmt.Fprintf(out, "  %s\n", l)
		}
		fmt.Fprintln(out)
	}

	if len(sch.Sheets) > 0 {
		fmt.Fprintln(out, "Hierarchical Sheets:")
		for _, sheet := range sch.Sheets {
			fmt.Fprintf(out, "  %s (%s)\n", sheet.Name, sheet.FileName)
			if len(sheet.Pins) > 0 {
				var pinNames []string
				for _, p := range sheet.Pins {
					pinNames = append(pinNames, p.Name)
				}
				fmt.Fprintf(out, "    Pins: %s\n", strings.Join(pinNames, ", "))
			}
		}
	}
}

func showComponentDetails(out io.Writer, sch *schematic.Schematic, ref string) error {
	sym := sch.GetSymbol(ref)
	if sym == nil {
		return fmt.Errorf("component '%s' not found", ref)
	}

	fmt.Fprintf(out, "Component: %s\n", ref)
	fmt.Fprintf(out, "Library: %s\n", sym.LibID)
	fmt.Fprintf(out, "Position: (%.2f, %.2f)\n", sym.Position.X, sym.Position.Y)
	if sym.Angle != 0 {
		fmt.Fprintf(out, "Rotation: %.1f°\n", sym.Angle)
	}
	if sym.Mirror != "" {
		fmt.Fprintf(out, "Mirror: %s\n", sym.Mirror)
	}
	fmt.Fprintf(out, "Unit: %d\n", sym.Unit)
	fmt.Fprintln(out)

	if len(sym.Properties) > 0 {
		fmt.Fprintln(out, "Properties:")
		for _, prop := range sym.Properties {
			fmt.Fprintf(out, "  %s: %s\n", prop.Key, prop.Value)
		}
		fmt.Fprintln(out)
	}

	lib := sch.LibSymbol(sym)
	if lib == nil {
		fmt.Fprintf(out, "Library symbol %s is not embedded\n", sym.LibKey())
		return nil
	}
	if pins := lib.PinsForUnit(sym.Unit); len(pins) > 0 {
		fmt.Fprintln(out, "Pins:")
		for i := range pins {
			p := schematic.PinWorldPosition(sym, &pins[i])
			fmt.Fprintf(out, "  %s (%s): %s %s at (%.2f, %.2f)\n",
				pins[i].Number, pins[i].Name, pins[i].Type, pins[i].Style, p.X, p.Y)
		}
	}
	return nil
}

func getRefPrefix(ref string) string {
	// Extract prefix (letters before numbers)
	for i, c := range ref {
		if c >= '0' && c <= '9' {
			return ref[:i]
		}
	}
	return ref
}

type zoneItem struct {
	Kind        string `json:"kind"`
	UUID        string `json:"uuid,omitempty"`
	Description string `json:"description"`
}

type zoneReport struct {
	Bounds      [4]float64              `json:"bounds"` // x, y, w, h
	Items       []zoneItem              `json:"items"`
	Connections []viewer.ZoneConnection `json:"connections"`
}

func runSchZone(cmd *cobra.Command, args []string) error {
	var corners [4]float64
	for i, s := range args[1:] {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid coordinate %q: %w", s, err)
		}
		corners[i] = f
	}

	doc, err := schview.Load(args[0], cfg.SchematicTheme())
	if err != nil {
		return err
	}
	ev, err := selectZone(doc, geom.V(corners[0], corners[1]), geom.V(corners[2], corners[3]))
	if err != nil {
		return err
	}

	report := zoneReport{
		Bounds:      [4]float64{ev.Bounds.X, ev.Bounds.Y, ev.Bounds.W, ev.Bounds.H},
		Items:       make([]zoneItem, 0, len(ev.Items)),
		Connections: ev.Connections,
	}
	for _, it := range ev.Items {
		si, ok := it.(schview.Item)
		if !ok {
			continue
		}
		report.Items = append(report.Items, zoneItem{
			Kind:        si.Kind.String(),
			UUID:        doc.UUID(si),
			Description: doc.Describe(si),
		})
	}

	out := cmd.OutOrStdout()
	if zoneJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(out, "Zone: (%.2f, %.2f) %.2f x %.2f mm\n", ev.Bounds.X, ev.Bounds.Y, ev.Bounds.W, ev.Bounds.H)
	fmt.Fprintf(out, "Items (%d):\n", len(report.Items))
	for _, it := range report.Items {
		fmt.Fprintf(out, "  %s\n", it.Description)
	}
	fmt.Fprintf(out, "Connections (%d):\n", len(report.Connections))
	for _, c := range report.Connections {
		line := fmt.Sprintf("%s.%s -> %s.%s", c.FromRef, c.FromPin, c.ToRef, c.ToPin)
		if c.NetName != "" {
			line += " (" + c.NetName + ")"
		}
		fmt.Fprintf(out, "  %s\n", line)
	}
	return nil
}

// selectZone drives a headless viewer through a shift-drag from a to b. The
// returned Bounds are the committed zone after the screen round trip.
func selectZone(doc *schview.Document, a, b geom.Vec2) (viewer.ZoneSelectEvent, error) {
	if math.Abs(b.X-a.X) <= viewer.DragThreshold || math.Abs(b.Y-a.Y) <= viewer.DragThreshold {
		return viewer.ZoneSelectEvent{}, fmt.Errorf("zone (%g, %g)-(%g, %g) is too small to select", a.X, a.Y, b.X, b.Y)
	}

	v := viewer.New(schview.HeadlessRenderer(), cfg.ViewerOptions())
	v.Resize(zoneViewportWidth, zoneViewportHeight)
	if err := v.Load(doc); err != nil {
		return viewer.ZoneSelectEvent{}, err
	}

	var got *viewer.ZoneSelectEvent
	v.OnZoneSelect(func(e viewer.ZoneSelectEvent) { got = &e })

	from := v.Camera.WorldToScreen(a)
	to := v.Camera.WorldToScreen(b)
	v.PointerDown(viewer.PointerEvent{Screen: from, Buttons: viewer.ButtonPrimary, Shift: true})
	v.PointerMove(viewer.PointerEvent{Screen: to, Buttons: viewer.ButtonPrimary, Shift: true})
	v.PointerUp(viewer.PointerEvent{Screen: to, Shift: true})

	if got == nil {
		return viewer.ZoneSelectEvent{}, fmt.Errorf("zone (%g, %g)-(%g, %g) was not committed", a.X, a.Y, b.X, b.Y)
	}
	return *got, nil
}
