// Package cut implements the event, track and pair selections of the
// dilepton tasks.
package cut

import (
	"fmt"
	"math"

	"github.com/decibelcooper/dileptonqc/event"
	"github.com/decibelcooper/dileptonqc/pair"
)

// Range is a [Min, Max] window.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Contains reports min <= v <= max.
func (r Range) Contains(v float64) bool { return r.Min <= v && v <= r.Max }

// Inside reports min < v < max.
func (r Range) Inside(v float64) bool { return r.Min < v && v < r.Max }

// Enabled reports whether the window is non-empty.
func (r Range) Enabled() bool { return r.Min < r.Max }

// PIDScheme selects how detector responses identify electrons.
type PIDScheme int

const (
	TOFreq PIDScheme = iota
	TPChadrej
	TPChadrejORTOFreq
	TPConly
	PIDML
)

func (s PIDScheme) String() string {
	switch s {
	case TOFreq:
		return "kTOFreq"
	case TPChadrej:
		return "kTPChadrej"
	case TPChadrejORTOFreq:
		return "kTPChadrejORTOFreq"
	case TPConly:
		return "kTPConly"
	case PIDML:
		return "kPIDML"
	}
	return fmt.Sprintf("PIDScheme(%d)", int(s))
}

// ElectronClassifier scores how electron-like a track is.
type ElectronClassifier interface {
	ElectronScore(t *event.Track) (float64, error)
}

// DielectronCut holds the track and pair selection of electron pairs.
type DielectronCut struct {
	MinPt  float64 `yaml:"cfg_min_pt_track"`
	MaxEta float64 `yaml:"cfg_max_eta_track"`

	MinNClusterTPC         int     `yaml:"cfg_min_ncluster_tpc"`
	MinNCrossedRowsTPC     int     `yaml:"cfg_min_ncrossedrows"`
	MinCrossedRowsOverFind float64 `yaml:"cfg_min_cr2findable_ratio"`
	Chi2TPC                Range   `yaml:"cfg_chi2tpc"`

	NClusterITS        Range `yaml:"cfg_ncluster_its"`
	Chi2ITS            Range `yaml:"cfg_chi2its"`
	MeanClusterSizeITS Range `yaml:"cfg_meanclustersize_its"`
	RequireITSibAny    bool  `yaml:"cfg_require_itsib_any"`
	RequireITSib1st    bool  `yaml:"cfg_require_itsib_1st"`

	MaxDcaXY float64 `yaml:"cfg_max_dcaxy"`
	MaxDcaZ  float64 `yaml:"cfg_max_dcaz"`

	PIDScheme   PIDScheme          `yaml:"cfg_pid_scheme"`
	TPCNSigmaEl Range              `yaml:"cfg_tpcnsigma_el"`
	TPCNSigmaMu Range              `yaml:"cfg_tpcnsigma_mu"`
	TPCNSigmaPi Range              `yaml:"cfg_tpcnsigma_pi"`
	TPCNSigmaKa Range              `yaml:"cfg_tpcnsigma_ka"`
	TPCNSigmaPr Range              `yaml:"cfg_tpcnsigma_pr"`
	TOFNSigmaEl Range              `yaml:"cfg_tofnsigma_el"`
	TOFBeta     Range              `yaml:"cfg_tof_beta"`
	MLScoreMin  float64            `yaml:"cfg_ml_score_min"`
	Classifier  ElectronClassifier `yaml:"-"`

	Mee            Range   `yaml:"cfg_mee"`
	PairDCA        Range   `yaml:"cfg_dca3d_sigma"`
	ApplyPhiV      bool    `yaml:"cfg_apply_phiv"`
	PhiVSlope      float64 `yaml:"cfg_phiv_slope"`
	PhiVIntercept  float64 `yaml:"cfg_phiv_intercept"`
	ApplyPrefilter bool    `yaml:"cfg_apply_pf"`
}

// DefaultDielectronCut returns the standard electron selection.
func DefaultDielectronCut() DielectronCut {
	return DielectronCut{
		MinPt:  0.2,
		MaxEta: 0.8,

		MinNClusterTPC:         0,
		MinNCrossedRowsTPC:     100,
		MinCrossedRowsOverFind: 0.8,
		Chi2TPC:                Range{0, 4},

		NClusterITS:        Range{5, 7},
		Chi2ITS:            Range{0, 5},
		MeanClusterSizeITS: Range{0, 16},
		RequireITSibAny:    true,

		MaxDcaXY: 1,
		MaxDcaZ:  1,

		PIDScheme:   TPChadrejORTOFreq,
		TPCNSigmaEl: Range{-2, 3},
		TPCNSigmaMu: Range{0, 0},
		TPCNSigmaPi: Range{-1e10, 3},
		TPCNSigmaKa: Range{-3, 3},
		TPCNSigmaPr: Range{-3, 3},
		TOFNSigmaEl: Range{-3, 3},
		TOFBeta:     Range{0.96, 1.04},
		MLScoreMin:  0.5,

		Mee:           Range{0, 1e10},
		PairDCA:       Range{0, 1e10},
		ApplyPhiV:     true,
		PhiVSlope:     0.0185,
		PhiVIntercept: -0.0280,
	}
}

// IsSelectedTrack applies the quality, acceptance and PID requirements.
func (c *DielectronCut) IsSelectedTrack(t *event.Track) bool {
	if !t.HasITS() || !t.HasTPC() {
		return false
	}
	if t.Pt < c.MinPt || math.Abs(t.Eta) > c.MaxEta {
		return false
	}

	if t.TPCNClsFound < c.MinNClusterTPC || t.TPCNClsCrossedRows < c.MinNCrossedRowsTPC {
		return false
	}
	if t.TPCCrossedRowsOverFindable() < c.MinCrossedRowsOverFind {
		return false
	}
	if t.TPCChi2NCl < c.Chi2TPC.Min || t.TPCChi2NCl >= c.Chi2TPC.Max {
		return false
	}

	if !c.NClusterITS.Contains(float64(t.ITSNCls())) {
		return false
	}
	if t.ITSChi2NCl < c.Chi2ITS.Min || t.ITSChi2NCl >= c.Chi2ITS.Max {
		return false
	}
	if !c.MeanClusterSizeITS.Contains(t.MeanClusterSizeITS * math.Cos(math.Atan(t.Tgl))) {
		return false
	}
	if c.RequireITSibAny && t.ITSClusterMap&0b111 == 0 {
		return false
	}
	if c.RequireITSib1st && t.ITSClusterMap&1 == 0 {
		return false
	}

	if math.Abs(t.DcaXY) >= c.MaxDcaXY || math.Abs(t.DcaZ) >= c.MaxDcaZ {
		return false
	}

	// β < 0 marks a track without a TOF match.
	if t.Beta >= 0 && c.TOFBeta.Enabled() && !c.TOFBeta.Inside(t.Beta) {
		return false
	}
	return c.PassPID(t)
}

// PassPID applies the electron identification of the configured scheme.
func (c *DielectronCut) PassPID(t *event.Track) bool {
	switch c.PIDScheme {
	case TOFreq:
		return c.passTOFreq(t)
	case TPChadrej:
		return c.passTPChadrej(t)
	case TPChadrejORTOFreq:
		return c.passTPChadrej(t) || c.passTOFreq(t)
	case TPConly:
		return c.passTPConly(t)
	case PIDML:
		return c.passML(t)
	}
	return false
}

// excluded reports whether v lies outside an exclusion window. A disabled
// window excludes nothing.
func excluded(r Range, v float64) bool {
	return !r.Enabled() || !r.Inside(v)
}

func (c *DielectronCut) passTOFreq(t *event.Track) bool {
	return c.TPCNSigmaEl.Inside(t.PID.TPC[event.El]) &&
		excluded(c.TPCNSigmaPi, t.PID.TPC[event.Pi]) &&
		t.HasTOF() && c.TOFNSigmaEl.Inside(t.PID.TOF[event.El])
}

func (c *DielectronCut) passTPChadrej(t *event.Track) bool {
	return c.TPCNSigmaEl.Inside(t.PID.TPC[event.El]) &&
		excluded(c.TPCNSigmaMu, t.PID.TPC[event.Mu]) &&
		excluded(c.TPCNSigmaPi, t.PID.TPC[event.Pi]) &&
		excluded(c.TPCNSigmaKa, t.PID.TPC[event.Ka]) &&
		excluded(c.TPCNSigmaPr, t.PID.TPC[event.Pr])
}

func (c *DielectronCut) passTPConly(t *event.Track) bool {
	return c.TPCNSigmaEl.Inside(t.PID.TPC[event.El]) &&
		excluded(c.TPCNSigmaPi, t.PID.TPC[event.Pi])
}

func (c *DielectronCut) passML(t *event.Track) bool {
	if c.Classifier == nil {
		return false
	}
	score, err := c.Classifier.ElectronScore(t)
	if err != nil {
		return false
	}
	return score >= c.MLScoreMin
}

// IsSelectedPair applies the pair requirements. bz is the field in kG.
func (c *DielectronCut) IsSelectedPair(t1, t2 *event.Track, bz float64) bool {
	mass := pair.Mass(t1.Leg(), t2.Leg())
	if !c.Mee.Contains(mass) {
		return false
	}

	dca := pair.PairDCA(t1.DCA3DSigma(), t2.DCA3DSigma())
	if !c.PairDCA.Contains(dca) {
		return false
	}

	if c.ApplyPhiV {
		phiv := pair.PhiV(t1.Leg().Momentum(), t2.Leg().Momentum(), t1.Sign, t2.Sign, bz)
		if c.IsConversionLike(mass, phiv) {
			return false
		}
	}

	if c.ApplyPrefilter && (t1.PrefilterBits != 0 || t2.PrefilterBits != 0) {
		return false
	}
	return true
}

// IsConversionLike reports whether a pair falls in the conversion region
// m < slope*φV + intercept. A pair on the boundary is kept.
func (c *DielectronCut) IsConversionLike(mass, phiv float64) bool {
	return mass < c.PhiVSlope*phiv+c.PhiVIntercept
}

// MaxPhiV is the largest accepted φV at the given mass.
func (c *DielectronCut) MaxPhiV(mass float64) float64 {
	return (mass - c.PhiVIntercept) / c.PhiVSlope
}
