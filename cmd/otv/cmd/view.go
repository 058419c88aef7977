package cmd

import (
	"log/slog"
	"os"

	"gioui.org/app"
	"github.com/spf13/cobra"

	appui "github.com/OpenTraceLab/OpenTraceView/internal/ui"
)

var viewCmd = &cobra.Command{
	Use:   "view [schematic_file]",
	Short: "Open the schematic viewer window",
	Long: `Opens a KiCad schematic in an interactive Gio-based viewer.

Controls:
  Drag               - Pan
  Scroll Wheel       - Zoom around the pointer
  Click              - Select an item
  Shift+Drag         - Select a zone and list its connections
  Shift+Click        - Add or remove an item from the zone selection
  F                  - Fit page to window
  Z                  - Zoom to selection
  Escape             - Clear the zone selection
  Ctrl+O             - Open a file`,
	Args: cobra.MaximumNArgs(1),
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	win := appui.New(cfg, configPath)
	if len(args) == 1 {
		win.Open(args[0])
	}

	// Run the Gio application
	go func() {
		if err := win.Run(); err != nil {
			slog.Error("viewer window failed", "err", err)
			os.Exit(1)
		}
		os.Exit(0)
	}()
	app.Main()
	return nil
}
