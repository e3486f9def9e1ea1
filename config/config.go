// Package config holds the configurables of the dilepton tasks.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/decibelcooper/dileptonqc/conditions"
	"github.com/decibelcooper/dileptonqc/cut"
	"github.com/decibelcooper/dileptonqc/event"
	"github.com/decibelcooper/dileptonqc/pid"
)

// Config is the complete task configuration. Groups mirror the
// configurable groups of the analysis tasks.
type Config struct {
	EventCut   cut.EventCut      `yaml:"eventcut_group"`
	Centrality cut.Centrality    `yaml:"centrality"`
	Dielectron cut.DielectronCut `yaml:"dielectroncut_group"`
	MCTrack    cut.MCTrackCut    `yaml:"mctrackcut_group"`
	Muon       cut.MuonCut       `yaml:"muoncut_group"`

	// MaxY is the pair rapidity acceptance.
	MaxY float64 `yaml:"max_y"`

	Binning    Binning         `yaml:"binning"`
	Conditions Conditions      `yaml:"conditions"`
	PIDML      pid.ONNXConfig  `yaml:"pidml"`
	TPC        pid.TPCResponse `yaml:"tpc_response"`
	Input      Input           `yaml:"input"`
}

// Binning holds the variable-width axes of the pair histograms.
type Binning struct {
	Mee   []float64 `yaml:"conf_mee_bins"`
	Ptee  []float64 `yaml:"conf_ptee_bins"`
	DCAee []float64 `yaml:"conf_dcaee_bins"`
}

type Conditions struct {
	// Database is the SQLite conditions file. Empty means no lookups,
	// which requires a field override.
	Database string `yaml:"database"`

	conditions.Options `yaml:",inline"`
}

// Input names the LCIO collections read by the reconstructed-event source.
type Input struct {
	MCCollection       string  `yaml:"mc_collection"`
	TrackCollection    string  `yaml:"track_collection"`
	RelationCollection string  `yaml:"relation_collection"`
	MuonCollection     string  `yaml:"muon_collection"`
	MaxMatchAngle      float64 `yaml:"max_match_angle"`
	ParticleTag        string  `yaml:"proio_particle_tag"`
	StableTag          string  `yaml:"proio_stable_tag"`
}

func Default() *Config {
	lcio := event.DefaultLCIOOptions()
	proio := event.DefaultProIOOptions()
	return &Config{
		EventCut:   cut.DefaultEventCut(),
		Centrality: cut.DefaultCentrality(),
		Dielectron: cut.DefaultDielectronCut(),
		MCTrack:    cut.DefaultMCTrackCut(),
		Muon:       cut.DefaultMuonCut(),
		MaxY:       0.9,
		Binning:    DefaultBinning(),
		Conditions: Conditions{Options: conditions.DefaultOptions()},
		PIDML: pid.ONNXConfig{
			ModelPath:  "pid_ml_xgboost.onnx",
			InputName:  "input",
			OutputName: "probabilities",
			NClasses:   2,
		},
		TPC: pid.DefaultTPCResponse(),
		Input: Input{
			MCCollection:       lcio.MCCollection,
			TrackCollection:    lcio.TrackCollection,
			RelationCollection: lcio.RelationCollection,
			MuonCollection:     lcio.MuonCollection,
			MaxMatchAngle:      lcio.MaxMatchAngle,
			ParticleTag:        proio.ParticleTag,
			StableTag:          proio.StableTag,
		},
	}
}

func DefaultBinning() Binning {
	var b Binning
	b.Mee = steps(nil, 0, 1.10, 0.01)
	b.Mee = steps(b.Mee, 1.20, 2.70, 0.10)
	b.Mee = steps(b.Mee, 2.75, 3.20, 0.05)
	b.Mee = steps(b.Mee, 3.30, 4.00, 0.10)

	b.Ptee = steps(nil, 0, 5, 0.1)
	b.Ptee = steps(b.Ptee, 5.5, 10, 0.5)

	b.DCAee = steps(nil, 0, 2, 0.1)
	b.DCAee = steps(b.DCAee, 2.5, 5, 0.5)
	b.DCAee = steps(b.DCAee, 6, 10, 1)
	return b
}

// steps appends lo, lo+step, ..., hi to edges.
func steps(edges []float64, lo, hi, step float64) []float64 {
	n := int((hi-lo)/step + 0.5)
	for i := 0; i <= n; i++ {
		edges = append(edges, math.Round((lo+float64(i)*step)*1e6)/1e6)
	}
	return edges
}

// LCIOOptions returns the reader options for the configured collections.
func (c *Config) LCIOOptions() event.LCIOOptions {
	opts := event.DefaultLCIOOptions()
	opts.MCCollection = c.Input.MCCollection
	opts.TrackCollection = c.Input.TrackCollection
	opts.RelationCollection = c.Input.RelationCollection
	opts.MuonCollection = c.Input.MuonCollection
	opts.MaxMatchAngle = c.Input.MaxMatchAngle
	return opts
}

func (c *Config) ProIOOptions() event.ProIOOptions {
	opts := event.DefaultProIOOptions()
	opts.ParticleTag = c.Input.ParticleTag
	opts.StableTag = c.Input.StableTag
	return opts
}

// Validate checks settings that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	for name, edges := range map[string][]float64{
		"conf_mee_bins":   c.Binning.Mee,
		"conf_ptee_bins":  c.Binning.Ptee,
		"conf_dcaee_bins": c.Binning.DCAee,
	} {
		if len(edges) < 2 {
			return fmt.Errorf("%s needs at least two edges", name)
		}
		for i := 1; i < len(edges); i++ {
			if edges[i] <= edges[i-1] {
				return fmt.Errorf("%s not increasing at %d", name, i)
			}
		}
	}
	if c.MaxY <= 0 {
		return fmt.Errorf("max_y must be positive, got %g", c.MaxY)
	}
	if c.Dielectron.PIDScheme == cut.PIDML && c.PIDML.ModelPath == "" {
		return fmt.Errorf("pid scheme %s needs pidml.model_path", c.Dielectron.PIDScheme)
	}
	return nil
}

// Load reads a YAML file over the defaults. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
