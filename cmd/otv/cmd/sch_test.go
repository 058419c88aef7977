package cmd

import (
	"bytes"
	"encoding/json"
	"math"
	"path/filepath"
	"strings"
	"testing"
)

const (
	divider = "../../../testdata/divider.kicad_sch"
	rotated = "../../../testdata/rotated.kicad_sch"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf, stderr bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&stderr)
	zoneJSON = false
	cfgFile := filepath.Join(t.TempDir(), "config.json")
	rootCmd.SetArgs(append(args, "--config", cfgFile))
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestSchInfoE2E(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantErr     bool
		wantContain []string
	}{
		{
			name: "summary",
			args: []string{"sch", "info", divider},
			wantContain: []string{
				"Paper: A4",
				"Title: Resistor divider",
				"Components: 2",
				"R: R1, R2",
				"MID",
				"VIN",
			},
		},
		{
			name: "component",
			args: []string{"sch", "info", divider, "R1"},
			wantContain: []string{
				"Component: R1",
				"Library: Device:R",
				"Value: 10k",
				"Pins:",
			},
		},
		{
			name:    "unknown component",
			args:    []string{"sch", "info", divider, "U9"},
			wantErr: true,
		},
		{
			name:    "missing file",
			args:    []string{"sch", "info", "nope.kicad_sch"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := runCommand(t, tt.args...)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v\nOutput: %s", err, output)
			}
			for _, want := range tt.wantContain {
				if !strings.Contains(output, want) {
					t.Errorf("Output missing expected string: %q\nGot:\n%s", want, output)
				}
			}
		})
	}
}

func TestSchZoneText(t *testing.T) {
	output, err := runCommand(t, "sch", "zone", divider, "95", "35", "105", "70")
	if err != nil {
		t.Fatalf("Unexpected error: %v\nOutput: %s", err, output)
	}
	for _, want := range []string{"Items (7):", "R1 10k (Device:R)", "Connections (1):", "R1.2 -> R2.1 (MID)"} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing expected string: %q\nGot:\n%s", want, output)
		}
	}
}

func TestSchZoneJSON(t *testing.T) {
	output, err := runCommand(t, "sch", "zone", divider, "95", "35", "105", "70", "--json")
	if err != nil {
		t.Fatalf("Unexpected error: %v\nOutput: %s", err, output)
	}
	var report zoneReport
	if err := json.Unmarshal([]byte(output), &report); err != nil {
		t.Fatalf("Expected JSON output, got %v\n%s", err, output)
	}
	if len(report.Items) != 7 {
		t.Errorf("Expected 7 items, got %d", len(report.Items))
	}
	if len(report.Connections) != 1 || report.Connections[0].NetName != "MID" {
		t.Errorf("Expected one MID connection, got %+v", report.Connections)
	}

	// Bounds come back through screen space, equal up to rounding.
	want := [4]float64{95, 35, 10, 35}
	for i := range want {
		if math.Abs(report.Bounds[i]-want[i]) > 1e-6 {
			t.Errorf("Expected bounds %v, got %v", want, report.Bounds)
			break
		}
	}
}

func TestSchZoneRotatedSymbol(t *testing.T) {
	output, err := runCommand(t, "sch", "zone", rotated, "90", "80", "110", "115")
	if err != nil {
		t.Fatalf("Unexpected error: %v\nOutput: %s", err, output)
	}
	for _, want := range []string{"Connections (2):", "U1.1 -> R1.1", "U1.2 -> R2.2 (OUT)"} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing expected string: %q\nGot:\n%s", want, output)
		}
	}

	output, err = runCommand(t, "sch", "info", rotated, "U1")
	if err != nil {
		t.Fatalf("Unexpected error: %v\nOutput: %s", err, output)
	}
	for _, want := range []string{"Rotation: 90.0°", "1 (IN): input line at (97.46, 105.08)", "2 (OUT): output line at (100.00, 94.92)"} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing expected string: %q\nGot:\n%s", want, output)
		}
	}
}

func TestSchZoneErrors(t *testing.T) {
	if _, err := runCommand(t, "sch", "zone", divider, "a", "35", "105", "70"); err == nil {
		t.Error("Expected an error for a bad coordinate")
	}
	if _, err := runCommand(t, "sch", "zone", divider, "100", "50", "100.5", "50.5"); err == nil {
		t.Error("Expected an error for a zone below the drag threshold")
	}
}
