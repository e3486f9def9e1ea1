// Package event holds the collision, track and MC records the analysis
// tasks consume, and the readers that produce them.
package event

import (
	"context"
	"math"
	"math/bits"

	"github.com/decibelcooper/dileptonqc/mcutil"
	"github.com/decibelcooper/dileptonqc/pair"
)

// Species indexes per-species PID responses.
type Species int

const (
	El Species = iota
	Mu
	Pi
	Ka
	Pr
	NSpecies
)

// PID is the detector response per species in units of the expected
// resolution.
type PID struct {
	TPC [NSpecies]float64
	TOF [NSpecies]float64
}

// Track is a reconstructed barrel track associated with a collision.
type Track struct {
	GlobalIndex int
	EventID     int

	Pt, Eta, Phi float64
	Sign         int
	Tgl          float64

	DcaXY, DcaZ   float64
	CYY, CZY, CZZ float64

	TPCNClsFound       int
	TPCNClsCrossedRows int
	TPCNClsFindable    int
	TPCChi2NCl         float64
	TPCInnerParam      float64
	TPCSignal          float64

	ITSClusterMap      uint8
	ITSChi2NCl         float64
	MeanClusterSizeITS float64

	PID  PID
	Beta float64 // TOF β, negative without a TOF match

	PrefilterBits uint8
	MCLabel       int // index into the event's MC table, -1 without a match
}

func (t *Track) Px() float64 { return t.Pt * math.Cos(t.Phi) }
func (t *Track) Py() float64 { return t.Pt * math.Sin(t.Phi) }
func (t *Track) Pz() float64 { return t.Pt * math.Sinh(t.Eta) }
func (t *Track) P() float64  { return t.Pt * math.Cosh(t.Eta) }

func (t *Track) ITSNCls() int { return bits.OnesCount8(t.ITSClusterMap) }
func (t *Track) HasITS() bool { return t.ITSClusterMap != 0 }
func (t *Track) HasTPC() bool { return t.TPCNClsFound > 0 }
func (t *Track) HasTOF() bool { return t.Beta > 0 }

func (t *Track) TPCCrossedRowsOverFindable() float64 {
	if t.TPCNClsFindable == 0 {
		return 0
	}
	return float64(t.TPCNClsCrossedRows) / float64(t.TPCNClsFindable)
}

func (t *Track) TPCFoundOverFindable() float64 {
	if t.TPCNClsFindable == 0 {
		return 0
	}
	return float64(t.TPCNClsFound) / float64(t.TPCNClsFindable)
}

// DCA3DSigma is the 3D impact parameter significance of the track.
func (t *Track) DCA3DSigma() float64 {
	return pair.DCA3DSigma(t.DcaXY, t.DcaZ, t.CYY, t.CZY, t.CZZ)
}

// Leg returns the track as an electron candidate.
func (t *Track) Leg() pair.Leg {
	return pair.Leg{Pt: t.Pt, Eta: t.Eta, Phi: t.Phi, Mass: mcutil.MassElectron, Sign: t.Sign}
}

// Selection bits of a collision.
const (
	SelSel8 uint32 = 1 << iota
	SelFT0AND
	SelNoTimeFrameBorder
	SelNoITSROFrameBorder
	SelNoSameBunchPileup
	SelIsVertexITSTPC
	SelIsGoodZvtxFT0vsPV
)

// Collision is one reconstructed collision.
type Collision struct {
	GlobalIndex int
	RunNumber   int
	Timestamp   int64 // ms since epoch

	PosZ      float64
	Selection uint32
	Occupancy int
	CentFT0M  float64
	CentFT0A  float64
	CentFT0C  float64
	MCEventID int
}

func (c *Collision) Has(bit uint32) bool { return c.Selection&bit == bit }

// Muon is a forward muon track.
type Muon struct {
	TrackType int
	Pt, Eta   float64
	Phi       float64
	Sign      int

	DcaX, DcaY float64
	PDca       float64
	RAbs       float64
	Chi2       float64

	HasMCH bool
	MCHPt  float64 // pt of the matched MCH-standalone track
}

func (m *Muon) DcaXY() float64 { return math.Hypot(m.DcaX, m.DcaY) }

// Event bundles one collision with its tracks and MC truth.
type Event struct {
	Collision Collision
	Tracks    []Track
	Muons     []Muon
	MC        mcutil.Particles
}

// MCParticle returns the MC record a track is matched to.
func (e *Event) MCParticle(t *Track) (*mcutil.Particle, bool) {
	return e.MC.At(t.MCLabel)
}

// Source yields events until io.EOF.
type Source interface {
	Next(ctx context.Context) (*Event, error)
	Close() error
}

// FieldSource provides the solenoid field in kG for a run.
type FieldSource interface {
	Bz(ctx context.Context, run int, timestamp int64) (float64, error)
}
