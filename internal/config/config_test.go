package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/OpenTraceLab/OpenTraceView/pkg/kicad/schview"
)

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope", "config.json"))
	if err != nil {
		t.Fatalf("Expected defaults for a missing file, got error: %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg := Default()
	cfg.Theme = "dark"
	cfg.WheelStep = 1.25
	cfg.Hover = false
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if *got != *cfg {
		t.Errorf("Expected %+v, got %+v", cfg, got)
	}
	if got.SchematicTheme() != schview.ThemeDark {
		t.Errorf("Expected dark theme, got %v", got.SchematicTheme())
	}
	if opts := got.ViewerOptions(); opts.WheelStep != 1.25 || opts.Hover {
		t.Errorf("Unexpected viewer options %+v", opts)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"theme": "dark"}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Theme != "dark" || cfg.MaxZoom != Default().MaxZoom {
		t.Errorf("Unexpected config %+v", cfg)
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	tests := map[string]string{
		"malformed":  `{"theme": `,
		"theme":      `{"theme": "neon"}`,
		"zoom range": `{"min_zoom": 10, "max_zoom": 1}`,
		"wheel step": `{"wheel_step": 0.5}`,
	}
	for name, body := range tests {
		path := filepath.Join(t.TempDir(), "config.json")
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("APPDATA", "/tmp/appdata")
	path, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath failed: %v", err)
	}
	if want := filepath.Join("/tmp/appdata", "OpenTraceView", "config.json"); path != want {
		t.Errorf("Expected %s, got %s", want, path)
	}

	t.Setenv("APPDATA", "")
	path, err = DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath failed: %v", err)
	}
	if filepath.Base(filepath.Dir(path)) != "opentraceview" {
		t.Errorf("Expected ~/.config/opentraceview, got %s", path)
	}
}
