package schematic

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/OpenTraceLab/OpenTraceView/pkg/geom"
)

func TestParseMinimalSchematic(t *testing.T) {
	input := `(kicad_sch
		(version 20250114)
		(generator "eeschema")
		(generator_version "9.0")
		(uuid 862335ee-c981-4fe1-9eb9-84db19301dd4)
		(paper "A4")
		(lib_symbols)
		(sheet_instances
			(path "/"
				(page "1")
			)
		)
	)`

	sch, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to parse schematic: %v", err)
	}

	if sch.Version != 20250114 {
		t.Errorf("Expected version 20250114, got %d", sch.Version)
	}
	if sch.Generator != "eeschema" {
		t.Errorf("Expected generator 'eeschema', got '%s'", sch.Generator)
	}
	if sch.GeneratorVer != "9.0" {
		t.Errorf("Expected generator version '9.0', got '%s'", sch.GeneratorVer)
	}
	if sch.UUID != "862335ee-c981-4fe1-9eb9-84db19301dd4" {
		t.Errorf("Unexpected UUID '%s'", sch.UUID)
	}
	if sch.Paper.Name != "A4" || sch.Paper.Width != 297 || sch.Paper.Height != 210 {
		t.Errorf("Expected A4 297x210, got %+v", sch.Paper)
	}
}

func TestParseSchematicWithSymbol(t *testing.T) {
	input := `(kicad_sch
		(version 20231120)
		(generator "eeschema")
		(uuid test-uuid)
		(paper "A4")
		(lib_symbols
			(symbol "Device:R"
				(property "Reference" "R" (at 0 0 0))
				(property "Value" "R" (at 0 0 0))
				(symbol "R_0_1"
					(rectangle (start -1.016 -2.54) (end 1.016 2.54)
						(stroke (width 0.254) (type default))
						(fill (type none))
					)
				)
				(symbol "R_1_1"
					(pin passive line (at 0 3.81 270) (length 1.27)
						(name "~" (effects (font (size 1.27 1.27))))
						(number "1" (effects (font (size 1.27 1.27))))
					)
					(pin passive line (at 0 -3.81 90) (length 1.27)
						(name "~" (effects (font (size 1.27 1.27))))
						(number "2" (effects (font (size 1.27 1.27))))
					)
				)
			)
		)
		(symbol (lib_id "Device:R")
			(at 100 50 0)
			(unit 1)
			(in_bom yes)
			(on_board yes)
			(dnp no)
			(uuid sym-uuid-1)
			(property "Reference" "R1" (at 100 45 0))
			(property "Value" "10k" (at 100 55 0))
			(property "Footprint" "" (at 100 50 0) (effects (font (size 1.27 1.27)) hide))
		)
	)`

	sch, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to parse schematic: %v", err)
	}

	if len(sch.LibSymbols) != 1 {
		t.Fatalf("Expected 1 lib symbol, got %d", len(sch.LibSymbols))
	}
	if len(sch.Symbols) != 1 {
		t.Fatalf("Expected 1 symbol instance, got %d", len(sch.Symbols))
	}

	sym := &sch.Symbols[0]
	if sym.LibID != "Device:R" {
		t.Errorf("Expected lib_id 'Device:R', got '%s'", sym.LibID)
	}
	if sym.Value() != "10k" {
		t.Errorf("Expected value '10k', got '%s'", sym.Value())
	}
	if !sym.Properties[2].Hidden {
		t.Error("Footprint property should be hidden")
	}

	lib := sch.LibSymbol(sym)
	if lib == nil {
		t.Fatal("LibSymbol lookup failed")
	}
	if len(lib.Units) != 2 {
		t.Fatalf("Expected 2 units, got %d", len(lib.Units))
	}
	if lib.Units[1].Unit != 1 || lib.Units[1].Style != 1 {
		t.Errorf("Expected unit 1 style 1, got %d/%d", lib.Units[1].Unit, lib.Units[1].Style)
	}

	pins := lib.PinsForUnit(1)
	if len(pins) != 2 {
		t.Fatalf("Expected 2 pins, got %d", len(pins))
	}
	// Library Y is flipped into sheet orientation.
	if !pins[0].Position.Equal(geom.V(0, -3.81)) {
		t.Errorf("Pin 1 position = %+v, want (0, -3.81)", pins[0].Position)
	}
	if pins[0].Angle != 90 {
		t.Errorf("Pin 1 angle = %v, want 90", pins[0].Angle)
	}

	if r1 := sch.GetSymbol("R1"); r1 == nil {
		t.Error("GetSymbol('R1') returned nil")
	}
	refs := sch.GetAllReferences()
	if len(refs) != 1 || refs[0] != "R1" {
		t.Errorf("Expected refs ['R1'], got %v", refs)
	}
}

func TestParseSchematicWithWires(t *testing.T) {
	input := `(kicad_sch
		(version 20231120)
		(generator "eeschema")
		(uuid test-uuid)
		(paper "A4")
		(lib_symbols)
		(wire (pts (xy 100 50) (xy 150 50))
			(stroke (width 0) (type default))
			(uuid wire-1)
		)
		(wire (pts (xy 150 50) (xy 150 100))
			(stroke (width 0) (type default))
			(uuid wire-2)
		)
		(bus (pts (xy 10 10) (xy 20 10))
			(stroke (width 0) (type default))
			(uuid bus-1)
		)
		(junction (at 150 50) (diameter 0) (color 0 0 0 0)
			(uuid junc-1)
		)
		(no_connect (at 10 20) (uuid nc-1))
	)`

	sch, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to parse schematic: %v", err)
	}

	if len(sch.Wires) != 2 {
		t.Errorf("Expected 2 wires, got %d", len(sch.Wires))
	}
	if len(sch.Buses) != 1 || sch.Buses[0].UUID != "bus-1" {
		t.Errorf("Expected bus 'bus-1', got %+v", sch.Buses)
	}
	if len(sch.Junctions) != 1 || !sch.Junctions[0].Position.Equal(geom.V(150, 50)) {
		t.Errorf("Expected junction at (150, 50), got %+v", sch.Junctions)
	}
	if len(sch.NoConnects) != 1 {
		t.Errorf("Expected 1 no_connect, got %d", len(sch.NoConnects))
	}
	if got := sch.Wires[1].Points[1]; !got.Equal(geom.V(150, 100)) {
		t.Errorf("Wire 2 end = %+v", got)
	}
}

func TestParseSchematicWithLabels(t *testing.T) {
	input := `(kicad_sch
		(version 20231120)
		(generator "eeschema")
		(uuid test-uuid)
		(paper "A4")
		(lib_symbols)
		(label "VCC" (at 100 50 0)
			(effects (font (size 1.27 1.27)))
			(uuid label-1)
		)
		(global_label "GND" (shape input) (at 100 100 0)
			(effects (font (size 1.27 1.27)))
			(uuid glabel-1)
		)
		(hierarchical_label "SDA" (shape bidirectional) (at 20 30 180)
			(effects (font (size 1.27 1.27)))
			(uuid hlabel-1)
		)
	)`

	sch, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to parse schematic: %v", err)
	}

	if len(sch.Labels) != 1 || sch.Labels[0].Text != "VCC" {
		t.Errorf("Expected label 'VCC', got %+v", sch.Labels)
	}
	if len(sch.GlobalLabels) != 1 || sch.GlobalLabels[0].Shape != "input" {
		t.Errorf("Expected global input label, got %+v", sch.GlobalLabels)
	}
	if len(sch.HierLabels) != 1 || sch.HierLabels[0].Angle != 180 {
		t.Errorf("Expected hierarchical label at 180 degrees, got %+v", sch.HierLabels)
	}
	if sch.Labels[0].FontSize != 1.27 {
		t.Errorf("Expected font size 1.27, got %v", sch.Labels[0].FontSize)
	}

	labels := sch.GetLabels()
	if len(labels) != 3 {
		t.Errorf("Expected 3 total labels, got %d", len(labels))
	}
}

func TestParseSheet(t *testing.T) {
	input := `(kicad_sch
		(version 20231120)
		(paper "User" 100 80)
		(sheet (at 10 20) (size 30 15)
			(uuid sheet-1)
			(property "Sheetname" "Power" (at 10 19 0))
			(property "Sheetfile" "power.kicad_sch" (at 10 36 0))
			(pin "VIN" input (at 10 25 180) (uuid sp-1))
		)
	)`

	sch, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to parse schematic: %v", err)
	}

	if sch.Paper.Width != 100 || sch.Paper.Height != 80 {
		t.Errorf("Expected user paper 100x80, got %+v", sch.Paper)
	}
	if len(sch.Sheets) != 1 {
		t.Fatalf("Expected 1 sheet, got %d", len(sch.Sheets))
	}
	sh := sch.Sheets[0]
	if sh.Name != "Power" || sh.FileName != "power.kicad_sch" {
		t.Errorf("Unexpected sheet name/file: %q %q", sh.Name, sh.FileName)
	}
	if !sh.Size.Equal(geom.V(30, 15)) {
		t.Errorf("Sheet size = %+v", sh.Size)
	}
	if len(sh.Pins) != 1 || sh.Pins[0].Name != "VIN" || sh.Pins[0].Shape != "input" {
		t.Errorf("Unexpected sheet pins %+v", sh.Pins)
	}
}

func TestParseInvalidRoot(t *testing.T) {
	input := `(kicad_pcb (version 20231120))`

	_, err := Parse(strings.NewReader(input))
	if !errors.Is(err, ErrNotSchematic) {
		t.Errorf("Expected ErrNotSchematic, got %v", err)
	}
}

func TestParseOldVersion(t *testing.T) {
	_, err := Parse(strings.NewReader(`(kicad_sch (version 20200101))`))
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("Expected ErrUnsupportedVersion, got %v", err)
	}

	_, err = Parse(strings.NewReader(`(kicad_sch (paper "A4"))`))
	if err == nil {
		t.Error("Expected error for missing version")
	}
}

func TestParseFile(t *testing.T) {
	sch, err := ParseFile("../../../testdata/divider.kicad_sch")
	if err != nil {
		t.Fatalf("Failed to parse test file: %v", err)
	}

	if sch.Version == 0 {
		t.Error("Version should not be 0")
	}
	if sch.Paper.Name != "A4" {
		t.Errorf("Expected paper 'A4', got '%s'", sch.Paper.Name)
	}
	if len(sch.Symbols) != 2 {
		t.Errorf("Expected 2 symbols, got %d", len(sch.Symbols))
	}
}

func TestUnitNumbers(t *testing.T) {
	tests := []struct {
		name        string
		unit, style int
	}{
		{"R_0_1", 0, 1},
		{"LM358_2_1", 2, 1},
		{"Some_Part_Name_3_2", 3, 2},
		{"bogus", 0, 1},
		{"a_b_c", 0, 1},
	}

	for _, tt := range tests {
		u, s := unitNumbers(tt.name)
		if u != tt.unit || s != tt.style {
			t.Errorf("unitNumbers(%q) = %d,%d, want %d,%d", tt.name, u, s, tt.unit, tt.style)
		}
	}
}

func TestUnitNumbersLogsMalformedName(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))

	unitNumbers("a_b_c")
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "name=a_b_c") {
		t.Errorf("Expected a structured warning for a_b_c, got %q", out)
	}

	buf.Reset()
	unitNumbers("R_1_1")
	if buf.Len() != 0 {
		t.Errorf("Expected no log output for R_1_1, got %q", buf.String())
	}
}
