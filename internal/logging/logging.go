// Package logging builds the process logger for the command line tools.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/OpenTraceLab/OpenTraceView/pkg/viewer"
)

// New returns a text logger writing to w, or stderr when w is nil. Verbose
// enables debug records; otherwise only warnings and errors are written.
func New(w io.Writer, verbose bool) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Install makes l the default logger and hands it to the viewer packages.
func Install(l *slog.Logger) {
	slog.SetDefault(l)
	viewer.SetLogger(l)
}
