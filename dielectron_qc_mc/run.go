package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
	"go-hep.org/x/hep/groot"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/decibelcooper/dileptonqc"
	"github.com/decibelcooper/dileptonqc/analysis"
	"github.com/decibelcooper/dileptonqc/conditions"
	"github.com/decibelcooper/dileptonqc/config"
	"github.com/decibelcooper/dileptonqc/cut"
	"github.com/decibelcooper/dileptonqc/hist"
	"github.com/decibelcooper/dileptonqc/pid"
)

var (
	output    string
	workers   int
	database  string
	bz        float64
	maxY      float64
	pidScheme string
	meeBins   = dileptonqc.NewBinEdges(nil)
	pteeBins  = dileptonqc.NewBinEdges(nil)
	dcaeeBins = dileptonqc.NewBinEdges(nil)
)

var runCmd = &cobra.Command{
	Use:   "run <input-files>...",
	Short: "Fill the QC histograms of LCIO or ProIO files",
	Long: `Reads each input file in its own worker and writes the merged histograms
to a ROOT file. Reconstructed pairs need LCIO input; ProIO files only feed
the generated-pair histograms.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalysis,
}

func init() {
	runCmd.Flags().StringVarP(&output, "output", "o", "AnalysisResults.root", "output ROOT file")
	runCmd.Flags().IntVarP(&workers, "workers", "j", runtime.NumCPU(), "number of files read in parallel")
	runCmd.Flags().StringVar(&database, "db", "", "conditions database (overrides conditions.database)")
	runCmd.Flags().Float64Var(&bz, "bz", -999, "magnetic field in kG, skipping the conditions lookup")
	runCmd.Flags().Float64Var(&maxY, "max-y", 0.9, "pair rapidity acceptance")
	runCmd.Flags().StringVar(&pidScheme, "pid-scheme", "", "electron PID scheme (kTOFreq, kTPChadrej, kTPChadrejORTOFreq, kTPConly, kPIDML)")
	runCmd.Flags().Var(meeBins, "mee-bins", "mee bin edges, comma separated and repeatable")
	runCmd.Flags().Var(pteeBins, "ptee-bins", "pT,ee bin edges, comma separated and repeatable")
	runCmd.Flags().Var(dcaeeBins, "dcaee-bins", "DCAee bin edges, comma separated and repeatable")
}

// applyFlags overrides the configuration with the flags given on the
// command line.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Conditions.Database = database
	}
	if flags.Changed("bz") {
		cfg.Conditions.BzOverride = bz
	}
	if flags.Changed("max-y") {
		cfg.MaxY = maxY
	}
	if flags.Changed("pid-scheme") {
		scheme, err := cut.ParsePIDScheme(pidScheme)
		if err != nil {
			return err
		}
		cfg.Dielectron.PIDScheme = scheme
	}
	if meeBins.Changed() {
		cfg.Binning.Mee = meeBins.Edges
	}
	if pteeBins.Changed() {
		cfg.Binning.Ptee = pteeBins.Edges
	}
	if dcaeeBins.Changed() {
		cfg.Binning.DCAee = dcaeeBins.Edges
	}
	return cfg.Validate()
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
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

	if cfg.Dielectron.PIDScheme == cut.PIDML {
		model, err := pid.LoadONNXModel(cfg.PIDML)
		if err != nil {
			return err
		}
		defer model.Close()
		cfg.Dielectron.Classifier = model
	}

	reg := hist.NewRegistry()
	analysis.RegisterDielectron(reg, cfg.Binning)
	funnel := hist.NewFunnel(reg, 4096)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(workers)
	for _, path := range args {
		g.Go(func() error {
			return processFile(ctx, path, cfg, provider, funnel)
		})
	}
	err = g.Wait()
	funnel.Close()
	if err != nil {
		return err
	}

	return writeOutput(output, reg)
}

func processFile(ctx context.Context, path string, cfg *config.Config, provider conditions.Provider, sink hist.Sink) error {
	log := logger.With(zap.String("file", path))
	runs := conditions.NewRunCache(provider, cfg.Conditions.Options, log)

	src, err := dileptonqc.OpenSource(path, cfg, runs, log)
	if err != nil {
		return err
	}
	defer src.Close()

	task := analysis.NewDielectron(cfg, sink, runs, log)
	nEvents := 0
	for {
		ev, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		used := analysis.UsedTracks{}
		if err := task.ProcessReco(ctx, ev, used); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := task.ProcessGen(ctx, ev); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		nEvents++
	}

	log.Info("Finished file",
		zap.Int("events", nEvents),
		zap.Int("run_fetches", runs.Fetches()),
		zap.Int("unexpected_hf_pairs", task.Diagnostics().Total()))
	return nil
}

func writeOutput(path string, reg *hist.Registry) error {
	f, err := groot.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := reg.WriteROOT(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	logger.Info("Wrote histograms", zap.String("output", path), zap.Int("histograms", len(reg.Names())))
	return nil
}
