package cut

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decibelcooper/dileptonqc/event"
	"github.com/decibelcooper/dileptonqc/mcutil"
)

// goodTrack returns a track passing the default selection through the
// TPC hadron rejection.
func goodTrack() event.Track {
	t := event.Track{
		Pt: 1, Eta: 0.3, Phi: 0.1, Sign: 1,
		DcaXY: 0.01, DcaZ: 0.01, CYY: 1e-4, CZZ: 1e-4,
		TPCNClsFound: 140, TPCNClsCrossedRows: 140, TPCNClsFindable: 150,
		TPCChi2NCl: 1.5, ITSChi2NCl: 1.2,
		ITSClusterMap:      0b1111111,
		MeanClusterSizeITS: 4,
		Beta:               -1,
		MCLabel:            -1,
	}
	t.PID.TPC = [event.NSpecies]float64{event.El: 0.5, event.Mu: 1, event.Pi: 5, event.Ka: 8, event.Pr: 10}
	t.PID.TOF = [event.NSpecies]float64{-999, -999, -999, -999, -999}
	return t
}

func TestDefaultTrackSelection(t *testing.T) {
	c := DefaultDielectronCut()
	trk := goodTrack()
	require.True(t, c.IsSelectedTrack(&trk))

	tests := []struct {
		name   string
		modify func(*event.Track)
		want   bool
	}{
		{"pt at threshold", func(t *event.Track) { t.Pt = 0.2 }, true},
		{"pt below", func(t *event.Track) { t.Pt = 0.19 }, false},
		{"eta at bound", func(t *event.Track) { t.Eta = -0.8 }, true},
		{"eta beyond", func(t *event.Track) { t.Eta = 0.81 }, false},
		{"dcaxy at max", func(t *event.Track) { t.DcaXY = 1 }, false},
		{"dcaxy just below", func(t *event.Track) { t.DcaXY = math.Nextafter(1, 0) }, true},
		{"dcaz at max", func(t *event.Track) { t.DcaZ = -1 }, false},
		{"few crossed rows", func(t *event.Track) { t.TPCNClsCrossedRows = 99 }, false},
		{"low findable ratio", func(t *event.Track) { t.TPCNClsFindable = 200 }, false},
		{"tpc chi2", func(t *event.Track) { t.TPCChi2NCl = 4 }, false},
		{"its chi2", func(t *event.Track) { t.ITSChi2NCl = 5 }, false},
		{"four its clusters", func(t *event.Track) { t.ITSClusterMap = 0b1111000 }, false},
		{"no inner barrel", func(t *event.Track) { t.ITSClusterMap = 0b1111000 | 0b10000000 }, false},
		{"no its", func(t *event.Track) { t.ITSClusterMap = 0 }, false},
		{"large clusters", func(t *event.Track) { t.MeanClusterSizeITS = 17 }, false},
		{"pion band", func(t *event.Track) { t.PID.TPC[event.Pi] = 2 }, false},
		{"kaon band", func(t *event.Track) { t.PID.TPC[event.Ka] = 0 }, false},
		{"electron window edge", func(t *event.Track) { t.PID.TPC[event.El] = 3 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trk := goodTrack()
			tt.modify(&trk)
			assert.Equal(t, tt.want, c.IsSelectedTrack(&trk))
		})
	}
}

func TestRequireFirstLayer(t *testing.T) {
	c := DefaultDielectronCut()
	c.RequireITSib1st = true
	trk := goodTrack()
	trk.ITSClusterMap = 0b1111110
	c.NClusterITS = Range{5, 7}
	assert.False(t, c.IsSelectedTrack(&trk))

	c.RequireITSib1st = false
	assert.True(t, c.IsSelectedTrack(&trk))
}

func TestPIDSchemes(t *testing.T) {
	// hadron band rejects, TOF rescues
	trk := goodTrack()
	trk.PID.TPC[event.Ka] = 0.5
	trk.Beta = 0.99
	trk.PID.TOF[event.El] = 0.2

	c := DefaultDielectronCut()
	c.PIDScheme = TPChadrej
	assert.False(t, c.PassPID(&trk))
	c.PIDScheme = TOFreq
	assert.True(t, c.PassPID(&trk))
	c.PIDScheme = TPChadrejORTOFreq
	assert.True(t, c.PassPID(&trk))
	c.PIDScheme = TPConly
	assert.True(t, c.PassPID(&trk))

	trk.Beta = -1
	c.PIDScheme = TOFreq
	assert.False(t, c.PassPID(&trk))
	c.PIDScheme = TPChadrejORTOFreq
	assert.False(t, c.PassPID(&trk))

	// the muon window is disabled by default
	trk = goodTrack()
	trk.PID.TPC[event.Mu] = 0
	c.PIDScheme = TPChadrej
	assert.True(t, c.PassPID(&trk))
	c.TPCNSigmaMu = Range{-1, 1}
	assert.False(t, c.PassPID(&trk))
}

func TestTOFBetaWindow(t *testing.T) {
	tests := []struct {
		beta float64
		want bool
	}{
		{0.5, false},
		{0, false},
		{0.97, true},
		{-1, true},
		{1.05, false},
	}
	for _, scheme := range []PIDScheme{TPChadrej, TPChadrejORTOFreq, TPConly} {
		c := DefaultDielectronCut()
		c.PIDScheme = scheme
		for _, tt := range tests {
			trk := goodTrack()
			trk.Beta = tt.beta
			assert.Equal(t, tt.want, c.IsSelectedTrack(&trk), "%v beta=%v", scheme, tt.beta)
		}
	}

	c := DefaultDielectronCut()
	c.TOFBeta = Range{}
	trk := goodTrack()
	trk.Beta = 0.5
	assert.True(t, c.IsSelectedTrack(&trk))
}

type fixedScore struct {
	score float64
	err   error
}

func (f fixedScore) ElectronScore(*event.Track) (float64, error) { return f.score, f.err }

func TestPIDML(t *testing.T) {
	c := DefaultDielectronCut()
	c.PIDScheme = PIDML
	trk := goodTrack()
	assert.False(t, c.PassPID(&trk))

	c.Classifier = fixedScore{score: 0.9}
	assert.True(t, c.PassPID(&trk))
	c.Classifier = fixedScore{score: 0.1}
	assert.False(t, c.PassPID(&trk))
	c.Classifier = fixedScore{score: 0.9, err: errors.New("boom")}
	assert.False(t, c.PassPID(&trk))
	assert.Equal(t, "kPIDML", PIDML.String())
}

func TestPhiVBoundary(t *testing.T) {
	c := DefaultDielectronCut()
	phiv := 2.0
	threshold := c.PhiVSlope*phiv + c.PhiVIntercept

	assert.False(t, c.IsConversionLike(threshold, phiv), "boundary is kept")
	assert.True(t, c.IsConversionLike(math.Nextafter(threshold, 0), phiv))
	assert.False(t, c.IsConversionLike(math.Nextafter(threshold, 1), phiv))
	// seen from the φV side at fixed mass
	assert.InDelta(t, phiv, c.MaxPhiV(threshold), 1e-12)
	assert.True(t, c.IsConversionLike(threshold, phiv+1e-6))
	assert.False(t, c.IsConversionLike(threshold, phiv-1e-6))
}

func TestPairSelection(t *testing.T) {
	c := DefaultDielectronCut()
	t1, t2 := goodTrack(), goodTrack()
	t2.Sign = -1
	t2.Phi = 0.1 + math.Pi
	assert.True(t, c.IsSelectedPair(&t1, &t2, 5))

	c.Mee = Range{0, 1}
	assert.False(t, c.IsSelectedPair(&t1, &t2, 5))
	c.Mee = Range{0, 1e10}

	c.PairDCA = Range{0, 0.5}
	assert.False(t, c.IsSelectedPair(&t1, &t2, 5))
	c.PairDCA = Range{0, 1e10}

	c.ApplyPrefilter = true
	t2.PrefilterBits = 1
	assert.False(t, c.IsSelectedPair(&t1, &t2, 5))
	t2.PrefilterBits = 0

	// a collinear pair opening in the bending plane
	c.ApplyPhiV = true
	conv := goodTrack()
	conv.Sign = -1
	conv.Phi = 0.1001
	assert.True(t, c.IsSelectedPair(&t1, &t2, 5))
	selected := c.IsSelectedPair(&t1, &conv, 5) && c.IsSelectedPair(&t1, &conv, -5)
	assert.False(t, selected)
}

func TestEventCut(t *testing.T) {
	c := DefaultEventCut()
	col := event.Collision{PosZ: 3, Selection: event.SelSel8 | event.SelFT0AND, Occupancy: -1}
	assert.True(t, c.IsSelected(&col))

	col.PosZ = 10
	assert.False(t, c.IsSelected(&col))
	col.PosZ = 0
	col.Selection = event.SelSel8
	assert.False(t, c.IsSelected(&col))

	col.Selection = math.MaxUint32
	assert.Equal(t, -1, c.OccupancyMin)
	col.Occupancy = -2
	assert.False(t, c.IsSelected(&col))

	c.OccupancyMax = 100
	col.Occupancy = 100
	assert.False(t, c.IsSelected(&col))
}

func TestCentrality(t *testing.T) {
	c := DefaultCentrality()
	col := event.Collision{CentFT0M: 50, CentFT0C: 10}
	assert.Equal(t, 10.0, c.Value(&col))
	c.Estimator = FT0M
	c.Max = 50
	assert.True(t, c.IsSelected(&col))
	c.Max = 49.9
	assert.False(t, c.IsSelected(&col))
	assert.Equal(t, "FT0M", FT0M.String())
}

func TestMCTrackCut(t *testing.T) {
	c := DefaultMCTrackCut()
	p := mcutil.Particle{Pt: 1, Eta: 0.5}
	assert.True(t, c.IsSelected(&p))
	p.Eta = 0.9
	assert.False(t, c.IsSelected(&p))
	p.Eta, p.Pt = 0, 0.05
	assert.False(t, c.IsSelected(&p))
}

func TestMuonCut(t *testing.T) {
	c := DefaultMuonCut()
	m := event.Muon{Eta: -3, RAbs: 50, PDca: 100}
	assert.True(t, c.IsSelected(&m))

	edge := m
	edge.Eta = -2.5
	assert.False(t, c.IsSelected(&edge))
	edge.Eta = -3.6
	assert.True(t, c.IsSelected(&edge))

	far := m
	far.RAbs = 89.5
	assert.False(t, c.IsSelected(&far))

	dca := m
	dca.PDca = 594
	assert.False(t, c.IsSelected(&dca))

	typ := m
	typ.TrackType = 3
	assert.False(t, c.IsSelected(&typ))
}

func TestParseNames(t *testing.T) {
	s, err := ParsePIDScheme("kTPChadrejORTOFreq")
	require.NoError(t, err)
	assert.Equal(t, TPChadrejORTOFreq, s)

	s, err = ParsePIDScheme("pidml")
	require.NoError(t, err)
	assert.Equal(t, PIDML, s)

	_, err = ParsePIDScheme("kBogus")
	assert.Error(t, err)

	e, err := ParseCentralityEstimator("ft0a")
	require.NoError(t, err)
	assert.Equal(t, FT0A, e)
}
