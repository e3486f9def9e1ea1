package conditions

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/decibelcooper/dileptonqc/pair"
)

// Options controls how run parameters are obtained.
type Options struct {
	// BzOverride in kG replaces the field lookup when above -990.
	BzOverride float64 `yaml:"d_bz_input"`
	// SkipGRPO reads the field from the magnet currents instead of the
	// global run parameters. Without it the magnet currents are still
	// used when no global run parameters cover the timestamp.
	SkipGRPO bool `yaml:"skip_grpo_query"`
	// DefaultBeams is used with a field override and no provider.
	DefaultBeams LHCIF `yaml:"default_beams"`
}

func DefaultOptions() Options {
	return Options{BzOverride: -999, SkipGRPO: true, DefaultBeams: ProtonProton(6800)}
}

func (o Options) overrideBz() bool { return o.BzOverride > -990 }

// RunParams are the run-scoped inputs of the pair kinematics.
type RunParams struct {
	Run   int
	Bz    float64 // kG
	Beams pair.Beams
}

// RunCache keeps the parameters of the last run seen and refetches them
// only when the run number changes. It is not safe for concurrent use.
type RunCache struct {
	provider Provider
	opts     Options
	log      *zap.Logger

	valid   bool
	params  RunParams
	fetches int
}

func NewRunCache(provider Provider, opts Options, log *zap.Logger) *RunCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &RunCache{provider: provider, opts: opts, log: log}
}

// Get returns the parameters of run, looking them up at timestamp (ms)
// when the run differs from the cached one.
func (c *RunCache) Get(ctx context.Context, run int, timestamp int64) (RunParams, error) {
	if c.valid && c.params.Run == run {
		return c.params, nil
	}

	params, err := c.fetch(ctx, run, timestamp)
	if err != nil {
		c.valid = false
		return RunParams{}, fmt.Errorf("run %d at %d: %w", run, timestamp, err)
	}
	c.params, c.valid = params, true
	c.fetches++
	return params, nil
}

// Bz returns the field of run in kG.
func (c *RunCache) Bz(ctx context.Context, run int, timestamp int64) (float64, error) {
	params, err := c.Get(ctx, run, timestamp)
	return params.Bz, err
}

// Fetches counts the lookups done so far.
func (c *RunCache) Fetches() int { return c.fetches }

func (c *RunCache) fetch(ctx context.Context, run int, timestamp int64) (RunParams, error) {
	params := RunParams{Run: run}

	switch {
	case c.opts.overrideBz():
		params.Bz = c.opts.BzOverride
		c.log.Info("Using magnetic field from configuration",
			zap.Int("run", run), zap.Float64("bz", params.Bz))
	case c.provider == nil:
		return params, fmt.Errorf("no conditions provider for field lookup: %w", ErrNotFound)
	case c.opts.SkipGRPO:
		bz, err := c.fieldFromMagnet(ctx, run, timestamp)
		if err != nil {
			return params, err
		}
		params.Bz = bz
	default:
		var grp GRP
		err := c.provider.Fetch(ctx, PathGRP, timestamp, &grp)
		switch {
		case err == nil:
			params.Bz = grp.NominalL3Field
			c.log.Info("Retrieved GRP",
				zap.Int("run", run), zap.Int64("timestamp", timestamp), zap.Float64("bz", params.Bz))
		case errors.Is(err, ErrNotFound):
			c.log.Info("GRP not found, using GRP magnetic field",
				zap.Int("run", run), zap.Int64("timestamp", timestamp))
			bz, err := c.fieldFromMagnet(ctx, run, timestamp)
			if err != nil {
				return params, fmt.Errorf("%s or %w", PathGRP, err)
			}
			params.Bz = bz
		default:
			return params, fmt.Errorf("%s: %w", PathGRP, err)
		}
	}

	lhc := c.opts.DefaultBeams
	if c.provider != nil {
		if err := c.provider.Fetch(ctx, PathLHCIF, timestamp, &lhc); err != nil {
			return params, fmt.Errorf("%s: %w", PathLHCIF, err)
		}
	}
	params.Beams = lhc.Beams()
	c.log.Info("Beam parameters",
		zap.Int("run", run),
		zap.Float64("e1", params.Beams.E1), zap.Float64("m1", params.Beams.M1),
		zap.Float64("e2", params.Beams.E2), zap.Float64("m2", params.Beams.M2))
	return params, nil
}

func (c *RunCache) fieldFromMagnet(ctx context.Context, run int, timestamp int64) (float64, error) {
	var mag MagField
	if err := c.provider.Fetch(ctx, PathMagField, timestamp, &mag); err != nil {
		return 0, fmt.Errorf("%s: %w", PathMagField, err)
	}
	bz := mag.Bz()
	c.log.Info("Retrieved GRP magnetic field",
		zap.Int("run", run), zap.Int64("timestamp", timestamp),
		zap.Float64("l3_current", mag.L3Current), zap.Float64("bz", bz))
	return bz, nil
}
