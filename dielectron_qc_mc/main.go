package main

import (
	"fmt"
	"os"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/decibelcooper/dileptonqc/config"
)

var (
	configPath string
	verbose    bool
	cpuProfile string

	logger   *zap.Logger
	profiler interface{ Stop() }
)

var rootCmd = &cobra.Command{
	Use:   "dielectron_qc_mc",
	Short: "Dielectron QC on simulated events with MC truth",
	Long: `dielectron_qc_mc fills pair and track histograms of true electron pairs,
bucketed by their MC origin: photon conversions, light-flavour and quarkonium
decays, and open charm and beauty decays.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if cpuProfile != "" {
			profiler = profile.Start(profile.CPUProfile, profile.ProfilePath(cpuProfile), profile.Quiet)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if profiler != nil {
			profiler.Stop()
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file (default: built-in settings)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&cpuProfile, "cpuprofile", "", "Write a CPU profile to this directory")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(condCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
