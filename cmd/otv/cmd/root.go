package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceView/internal/config"
	"github.com/OpenTraceLab/OpenTraceView/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// cfg is loaded before any subcommand runs.
	cfg = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "otv",
	Short: "OpenTraceView - KiCad schematic viewer",
	Long: `OpenTraceView (otv) displays KiCad schematics and infers the electrical
connections between the parts you select.

Examples:
  otv view schematic.kicad_sch                  # Open the viewer window
  otv sch info schematic.kicad_sch              # Show schematic info
  otv sch info schematic.kicad_sch R1           # Show one component
  otv sch zone schematic.kicad_sch 90 40 110 70 # List connections in a zone`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Install(logging.New(cmd.ErrOrStderr(), verbose))

		path := configPath
		if path == "" {
			p, err := config.DefaultPath()
			if err != nil {
				return err
			}
			path = p
		}
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
		configPath = path
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is the platform config directory)")
}
