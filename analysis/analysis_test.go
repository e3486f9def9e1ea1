package analysis

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/decibelcooper/dileptonqc/conditions"
	"github.com/decibelcooper/dileptonqc/config"
	"github.com/decibelcooper/dileptonqc/event"
	"github.com/decibelcooper/dileptonqc/hist"
	"github.com/decibelcooper/dileptonqc/mcutil"
)

type fixedRun struct {
	params conditions.RunParams
	err    error
	calls  int
}

func (f *fixedRun) Get(_ context.Context, run int, _ int64) (conditions.RunParams, error) {
	f.calls++
	p := f.params
	p.Run = run
	return p, f.err
}

func ppRun() *fixedRun {
	return &fixedRun{params: conditions.RunParams{Bz: 5, Beams: conditions.ProtonProton(6800).Beams()}}
}

// particle returns a primary generator particle with momentum given by
// pt, eta and phi.
func particle(pdg, mother int, pt, eta, phi, mass float64) mcutil.Particle {
	px, py, pz := pt*math.Cos(phi), pt*math.Sin(phi), pt*math.Sinh(eta)
	e := math.Sqrt(px*px + py*py + pz*pz + mass*mass)
	p := mcutil.NewParticle(0, pdg, px, py, pz, e)
	p.PhysicalPrimary = true
	p.ProducedByGenerator = true
	if mother >= 0 {
		p.Mothers = []int{mother}
	}
	return p
}

// track returns a reconstructed electron matched to MC label passing the
// default selection.
func track(label, sign int, pt, eta, phi float64) event.Track {
	t := event.Track{
		Pt: pt, Eta: eta, Phi: phi, Sign: sign,
		DcaXY: 0.01, DcaZ: 0.01, CYY: 1e-4, CZZ: 1e-4,
		TPCNClsFound: 140, TPCNClsCrossedRows: 140, TPCNClsFindable: 150,
		TPCChi2NCl: 1.5, ITSChi2NCl: 1.2,
		ITSClusterMap:      0b1111111,
		MeanClusterSizeITS: 4,
		TPCInnerParam:      pt,
		TPCSignal:          80,
		Beta:               -1,
	}
	t.GlobalIndex, t.MCLabel = label, label
	t.PID.TPC = [event.NSpecies]float64{event.El: 0.5, event.Mu: 1, event.Pi: 5, event.Ka: 8, event.Pr: 10}
	t.PID.TOF = [event.NSpecies]float64{-999, -999, -999, -999, -999}
	return t
}

func collision() event.Collision {
	return event.Collision{
		RunNumber: 544013,
		Timestamp: 1700000000000,
		Selection: event.SelSel8 | event.SelFT0AND,
		CentFT0C:  10,
	}
}

func newTask(t *testing.T, runs RunSource) (*Dielectron, *hist.Registry) {
	t.Helper()
	cfg := config.Default()
	reg := hist.NewRegistry()
	RegisterDielectron(reg, cfg.Binning)
	return NewDielectron(cfg, reg, runs, zap.NewNop()), reg
}

// jpsiEvent returns a J/ψ decaying to a back-to-back pair, optionally
// produced in a B+ decay.
func jpsiEvent(fromB bool) *event.Event {
	const pt = 1.548458
	var ps mcutil.Particles
	jpsi := 0
	if fromB {
		ps = append(ps, particle(521, -1, 2, 0.3, 0, 5.279))
		jpsi = 1
		ps = append(ps, particle(mcutil.JPsi, 0, 0.1, 0.3, 0, mcutil.MassJPsi))
	} else {
		ps = append(ps, particle(mcutil.JPsi, -1, 0.1, 0.3, 0, mcutil.MassJPsi))
	}
	ps = append(ps,
		particle(-mcutil.Electron, jpsi, pt, 0.3, 0, mcutil.MassElectron),
		particle(mcutil.Electron, jpsi, pt, 0.3, math.Pi, mcutil.MassElectron),
	)
	ps.Link()

	pos, ele := len(ps)-2, len(ps)-1
	return &event.Event{
		Collision: collision(),
		Tracks: []event.Track{
			track(pos, 1, pt, 0.3, 0),
			track(ele, -1, pt, 0.3, math.Pi),
		},
		MC: ps,
	}
}

func TestPromptAndNonPromptJPsi(t *testing.T) {
	for _, tt := range []struct {
		fromB  bool
		folder string
	}{
		{false, "PromptJPsi"},
		{true, "NonPromptJPsi"},
	} {
		t.Run(tt.folder, func(t *testing.T) {
			task, reg := newTask(t, ppRun())
			ev := jpsiEvent(tt.fromB)
			require.NoError(t, task.ProcessReco(context.Background(), ev, UsedTracks{}))

			hs := reg.Sparse("Pair/sm/" + tt.folder + "/hs")
			require.Equal(t, int64(1), hs.Entries())
			mass := hs.Projection(0)
			assert.InDelta(t, mcutil.MassJPsi, mass.XMean(), 1e-3)

			assert.Equal(t, int64(2), reg.H1D("Track/"+tt.folder+"/hPt").Entries())

			other := "PromptJPsi"
			if !tt.fromB {
				other = "NonPromptJPsi"
			}
			assert.Zero(t, reg.Sparse("Pair/sm/"+other+"/hs").Entries())
			assert.Equal(t, int64(1), reg.H1D("Event/after/hZvtx").Entries())
		})
	}
}

func TestUsedTracksFilledOnce(t *testing.T) {
	task, reg := newTask(t, ppRun())
	ev := jpsiEvent(false)
	used := UsedTracks{}

	require.NoError(t, task.ProcessReco(context.Background(), ev, used))
	require.NoError(t, task.ProcessReco(context.Background(), ev, used))

	assert.Equal(t, int64(2), reg.Sparse("Pair/sm/PromptJPsi/hs").Entries())
	assert.Equal(t, int64(2), reg.H1D("Track/PromptJPsi/hPt").Entries())
	assert.Len(t, used, 2)
}

func TestTrackWithoutCovariance(t *testing.T) {
	task, reg := newTask(t, ppRun())
	ev := jpsiEvent(false)
	for i := range ev.Tracks {
		ev.Tracks[i].CYY, ev.Tracks[i].CZZ = 0, 0
		ev.Tracks[i].DcaXY, ev.Tracks[i].DcaZ = 0, 0
	}
	require.NoError(t, task.ProcessReco(context.Background(), ev, UsedTracks{}))

	assert.Equal(t, int64(1), reg.Sparse("Pair/sm/PromptJPsi/hs").Entries())
	assert.Equal(t, int64(2), reg.H1D("Track/PromptJPsi/hPt").Entries())
	assert.Equal(t, int64(2), reg.H1D("Track/PromptJPsi/hDCA3DSigma").Entries())
	sigma := reg.H2D("Track/PromptJPsi/hDCAxyzSigma")
	assert.Zero(t, sigma.Entries())
	assert.False(t, math.IsNaN(sigma.SumW()))
}

func TestRejectedByRapidity(t *testing.T) {
	task, reg := newTask(t, ppRun())
	task.MaxY = 0.2
	require.NoError(t, task.ProcessReco(context.Background(), jpsiEvent(false), UsedTracks{}))
	assert.Zero(t, reg.Sparse("Pair/sm/PromptJPsi/hs").Entries())
}

func TestEventCutStopsPairs(t *testing.T) {
	task, reg := newTask(t, ppRun())
	ev := jpsiEvent(false)
	ev.Collision.PosZ = 12
	require.NoError(t, task.ProcessReco(context.Background(), ev, UsedTracks{}))

	assert.Equal(t, int64(1), reg.H1D("Event/before/hZvtx").Entries())
	assert.Zero(t, reg.H1D("Event/after/hZvtx").Entries())
	assert.Zero(t, reg.Sparse("Pair/sm/PromptJPsi/hs").Entries())
}

func TestMissingConditionsIsFatal(t *testing.T) {
	runs := &fixedRun{err: conditions.ErrNotFound}
	task, _ := newTask(t, runs)
	err := task.ProcessReco(context.Background(), jpsiEvent(false), UsedTracks{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, conditions.ErrNotFound))
}

func TestPhotonConversion(t *testing.T) {
	task, reg := newTask(t, ppRun())
	task.Cut.ApplyPhiV = false

	ps := mcutil.Particles{
		particle(mcutil.Photon, -1, 2, 0.3, 0.11, 0),
		particle(mcutil.Electron, 0, 1, 0.3, 0.1, mcutil.MassElectron),
		particle(-mcutil.Electron, 0, 1, 0.3, 0.12, mcutil.MassElectron),
	}
	for i := 1; i < 3; i++ {
		ps[i].PhysicalPrimary = false
		ps[i].ProducedByGenerator = false
	}
	ps.Link()
	ev := &event.Event{
		Collision: collision(),
		Tracks: []event.Track{
			track(1, -1, 1, 0.3, 0.1),
			track(2, 1, 1, 0.3, 0.12),
		},
		MC: ps,
	}

	require.NoError(t, task.ProcessReco(context.Background(), ev, UsedTracks{}))
	assert.Equal(t, int64(1), reg.Sparse("Pair/sm/Photon/hs").Entries())
	assert.Equal(t, int64(2), reg.H1D("Track/Photon/hPt").Entries())
}

// charmEvent has two electrons from two charm mesons. With sameSign both
// electrons are negative.
func charmEvent(sameSign bool) *event.Event {
	pdg2 := -mcutil.Electron
	sign2 := 1
	if sameSign {
		pdg2, sign2 = mcutil.Electron, -1
	}
	ps := mcutil.Particles{
		particle(421, -1, 3, 0.2, 0.5, 1.86),
		particle(-421, -1, 3, 0.2, 2.5, 1.86),
		particle(mcutil.Electron, 0, 1.2, 0.2, 0.5, mcutil.MassElectron),
		particle(pdg2, 1, 1.1, 0.1, 2.5, mcutil.MassElectron),
	}
	ps.Link()
	return &event.Event{
		Collision: collision(),
		Tracks: []event.Track{
			track(2, -1, 1.2, 0.2, 0.5),
			track(3, sign2, 1.1, 0.1, 2.5),
		},
		MC: ps,
	}
}

func TestCharmPairs(t *testing.T) {
	task, reg := newTask(t, ppRun())
	require.NoError(t, task.ProcessReco(context.Background(), charmEvent(false), UsedTracks{}))

	assert.Equal(t, int64(1), reg.Sparse("Pair/ccbar/c2e_c2e/hadron_hadron/hs").Entries())
	assert.Equal(t, int64(1), reg.Sparse("Pair/ccbar/c2e_c2e/meson_meson/hs").Entries())
	assert.Zero(t, reg.Sparse("Pair/ccbar/c2e_c2e/meson_baryon/hs").Entries())
	assert.Equal(t, int64(2), reg.H1D("Track/c2e/hPt").Entries())
	assert.Zero(t, task.Diagnostics().Total())
}

func TestLikeSignCharmIsDiagnosed(t *testing.T) {
	task, reg := newTask(t, ppRun())
	require.NoError(t, task.ProcessReco(context.Background(), charmEvent(true), UsedTracks{}))

	assert.Zero(t, reg.Sparse("Pair/ccbar/c2e_c2e/hadron_hadron/hs").Entries())
	assert.Equal(t, 1, task.Diagnostics().LS[mcutil.CeCe])
	assert.Equal(t, 1, task.Diagnostics().Total())
	assert.Zero(t, reg.H1D("Track/c2e/hPt").Entries())
}

func TestGeneratedPairs(t *testing.T) {
	task, reg := newTask(t, ppRun())
	ps := mcutil.Particles{
		particle(mcutil.Pi0, -1, 2, 0.1, 0, 0.135),
		particle(mcutil.Electron, 0, 1, 0.1, 0.01, mcutil.MassElectron),
		particle(-mcutil.Electron, 0, 1, 0.1, -0.01, mcutil.MassElectron),
		particle(mcutil.Photon, 0, 0.1, 0.1, 0, 0),
		particle(mcutil.Omega, -1, 1.5, 0.2, 1, 0.783),
		particle(mcutil.Phi, -1, 1.5, 2.0, 1, 1.019),
	}
	ps.Link()
	ev := &event.Event{Collision: collision(), MC: ps}

	require.NoError(t, task.ProcessGen(context.Background(), ev))
	assert.Equal(t, int64(1), reg.Sparse("Generated/sm/Pi0/hs").Entries())
	assert.Equal(t, int64(1), reg.H1D("Generated/sm/Omega2ee/hPt").Entries())
	assert.Zero(t, reg.H1D("Generated/sm/Phi2ee/hPt").Entries(), "outside rapidity window")
}

// TestGeneratedLikeSignDiffB pairs a B+ -> D0bar -> e+ leg with a B- -> e+
// leg.
func TestGeneratedLikeSignDiffB(t *testing.T) {
	task, reg := newTask(t, ppRun())
	ps := mcutil.Particles{
		particle(521, -1, 5, 0.1, 0, 5.279),
		particle(-521, -1, 5, 0.1, 3, 5.279),
		particle(-421, 0, 3, 0.1, 0, 1.86),
		particle(-mcutil.Electron, 2, 1, 0.1, 0.2, mcutil.MassElectron),
		particle(-mcutil.Electron, 1, 1, 0.1, 3, mcutil.MassElectron),
	}
	ps.Link()
	ev := &event.Event{Collision: collision(), MC: ps}

	require.NoError(t, task.ProcessGen(context.Background(), ev))
	assert.Equal(t, int64(1), reg.Sparse("Generated/bbbar/b2c2e_b2e_diffb/hadron_hadron/hs").Entries())
	assert.Equal(t, int64(1), reg.Sparse("Generated/bbbar/b2c2e_b2e_diffb/meson_meson/hs").Entries())
	assert.Zero(t, task.Diagnostics().Total())
}

func TestSelectResonance(t *testing.T) {
	ps := mcutil.Particles{
		particle(mcutil.Omega, -1, 1, 0, 0, 0.783),
		particle(mcutil.Electron, 0, 1, 0, 0, 0),
		particle(-mcutil.Electron, 0, 1, 0, 0, 0),
	}
	ps.Link()

	b, ok := selectResonance(ps, &ps[0], true, false)
	require.True(t, ok)
	assert.Equal(t, []string{"Omega", "Omega2ee"}, b.Folders)
	assert.Equal(t, LF, b.Source)

	// Dalitz decay: a third daughter
	ps = append(ps, particle(mcutil.Pi0, 0, 1, 0, 0, 0.135))
	ps.Link()
	b, ok = selectResonance(ps, &ps[0], true, false)
	require.True(t, ok)
	assert.Equal(t, []string{"Omega"}, b.Folders)

	_, ok = selectResonance(ps, &ps[0], false, true)
	assert.False(t, ok, "only photons convert")

	ps[0].PhysicalPrimary, ps[0].ProducedByGenerator = false, false
	_, ok = selectResonance(ps, &ps[0], true, false)
	assert.False(t, ok)
}

func TestSelectHFSameB(t *testing.T) {
	b := particle(511, -1, 5, 0, 0, 5.28)
	d := particle(-411, 0, 3, 0, 0, 1.87)

	got := selectHF(mcutil.BCeBeSameB, &d, &b)
	assert.Equal(t, "bbbar/b2c2e_b2e_sameb", got.Folder)
	assert.Equal(t, "meson_meson", got.Species)
	assert.Equal(t, B2C2E, got.Src1)
	assert.Equal(t, B2E, got.Src2)

	lc := particle(4122, -1, 3, 0, 0, 2.29)
	got = selectHF(mcutil.BCeBeDiffB, &b, &lc)
	assert.Equal(t, "meson_baryon", got.Species)
	assert.Equal(t, B2E, got.Src1)
	assert.Equal(t, B2C2E, got.Src2)

	got = selectHF(mcutil.CeCe, &lc, &lc)
	assert.Equal(t, "ccbar/c2e_c2e", got.Folder)
	assert.Equal(t, "baryon_baryon", got.Species)
}

func TestSingleMuon(t *testing.T) {
	reg := hist.NewRegistry()
	RegisterSingleMuon(reg)
	task := NewSingleMuon(config.Default().Muon, reg)

	good := event.Muon{Pt: 2, Eta: -3, Sign: 1, DcaX: 0.3, DcaY: 0.4, PDca: 100, RAbs: 50, Chi2: 10, HasMCH: true, MCHPt: 2.5}
	noMCH := good
	noMCH.HasMCH = false
	forwardEdge := good
	forwardEdge.Eta = -2.5
	wrongType := good
	wrongType.TrackType = 3

	task.Process(&event.Event{
		Collision: event.Collision{PosZ: 1},
		Muons:     []event.Muon{good, noMCH, forwardEdge, wrongType},
	})

	assert.Equal(t, int64(1), reg.H1D("hVtxZ").Entries())
	hs := reg.Sparse("hMuAfterCuts")
	require.Equal(t, int64(1), hs.Entries())
	assert.Equal(t, 1.0, hs.Content(2, -3, 0.5, 1, 10, 0.5))
}
