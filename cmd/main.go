package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/richinsley/noisefield/options"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath string
	verbose    bool
	width      int
	height     int

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "noisefield",
	Short: "Animated noise field background",
	Long: `noisefield renders a drifting fractal noise field whose color channels split
apart around the pointer.

Run without a subcommand to open the interactive window.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runBackground,
}

// loadConfig reads --config and applies the size flags on top of it.
func loadConfig(cmd *cobra.Command) (*options.Config, error) {
	cfg, err := options.Load(configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("width") {
		cfg.Width = width
	}
	if flags.Changed("height") {
		cfg.Height = height
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func init() {
	// GLFW and GL calls must come from the main thread.
	runtime.LockOSThread()

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (reloaded on change)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().IntVar(&width, "width", 1280, "Width of the window or output")
	rootCmd.PersistentFlags().IntVar(&height, "height", 720, "Height of the window or output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
