package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/OpenTraceLab/OpenTraceView/pkg/viewer"
)

func TestNewLevels(t *testing.T) {
	var buf bytes.Buffer
	quiet := New(&buf, false)
	quiet.Debug("hidden")
	quiet.Warn("shown")
	if out := buf.String(); strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("Unexpected quiet output: %q", out)
	}

	buf.Reset()
	New(&buf, true).Debug("detail", "key", 1)
	if out := buf.String(); !strings.Contains(out, "detail") || !strings.Contains(out, "key=1") {
		t.Errorf("Unexpected verbose output: %q", out)
	}
}

func TestInstall(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() {
		slog.SetDefault(prev)
		viewer.SetLogger(nil)
	})

	var buf bytes.Buffer
	l := New(&buf, true)
	Install(l)
	if viewer.Logger() != l {
		t.Error("Expected viewer to use the installed logger")
	}
	viewer.Logger().Debug("from viewer")
	if !strings.Contains(buf.String(), "from viewer") {
		t.Errorf("Expected viewer records in output, got %q", buf.String())
	}
}
