package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go-hep.org/x/hep/groot"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/decibelcooper/dileptonqc"
	"github.com/decibelcooper/dileptonqc/analysis"
	"github.com/decibelcooper/dileptonqc/conditions"
	"github.com/decibelcooper/dileptonqc/config"
	"github.com/decibelcooper/dileptonqc/hist"
)

var (
	configPath string
	verbose    bool
	output     string
	workers    int
	database   string
	bz         float64

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:          "single_muon_reader",
	Short:        "Acceptance spectra of forward muons",
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
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run <lcio-input-files>...",
	Short: "Fill the muon histograms of LCIO files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file (default: built-in settings)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	runCmd.Flags().StringVarP(&output, "output", "o", "AnalysisResults.root", "output ROOT file")
	runCmd.Flags().IntVarP(&workers, "workers", "j", runtime.NumCPU(), "number of files read in parallel")
	runCmd.Flags().StringVar(&database, "db", "", "conditions database (overrides conditions.database)")
	runCmd.Flags().Float64Var(&bz, "bz", -999, "magnetic field in kG, skipping the conditions lookup")

	rootCmd.AddCommand(runCmd)
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("db") {
		cfg.Conditions.Database = database
	}
	if cmd.Flags().Changed("bz") {
		cfg.Conditions.BzOverride = bz
	}

	var provider conditions.Provider
	if cfg.Conditions.Database != "" {
		store, err := conditions.OpenStore(cfg.Conditions.Database)
		if err != nil {
			return err
		}
		defer store.Close()
		provider = store
	}

	reg := hist.NewRegistry()
	analysis.RegisterSingleMuon(reg)
	funnel := hist.NewFunnel(reg, 1024)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(workers)
	for _, path := range args {
		g.Go(func() error {
			return processFile(ctx, path, cfg, provider, funnel)
		})
	}
	err := g.Wait()
	funnel.Close()
	if err != nil {
		return err
	}

	f, err := groot.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	if err := reg.WriteROOT(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	return f.Close()
}

func processFile(ctx context.Context, path string, cfg *config.Config, provider conditions.Provider, sink hist.Sink) error {
	format, err := dileptonqc.FormatOf(path)
	if err != nil {
		return err
	}
	if format != dileptonqc.FormatLCIO {
		return fmt.Errorf("%s: muons need LCIO input", path)
	}

	log := logger.With(zap.String("file", path))
	runs := conditions.NewRunCache(provider, cfg.Conditions.Options, log)
	src, err := dileptonqc.OpenSource(path, cfg, runs, log)
	if err != nil {
		return err
	}
	defer src.Close()

	task := analysis.NewSingleMuon(cfg.Muon, sink)
	nEvents := 0
	for {
		ev, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		task.Process(ev)
		nEvents++
	}
	log.Info("Finished file", zap.Int("events", nEvents))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
