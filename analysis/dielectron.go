// Package analysis implements the dielectron QC and single-muon tasks on
// top of the selection, kinematics and ancestry packages.
package analysis

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/decibelcooper/dileptonqc/conditions"
	"github.com/decibelcooper/dileptonqc/config"
	"github.com/decibelcooper/dileptonqc/cut"
	"github.com/decibelcooper/dileptonqc/event"
	"github.com/decibelcooper/dileptonqc/hist"
	"github.com/decibelcooper/dileptonqc/mcutil"
	"github.com/decibelcooper/dileptonqc/pair"
)

// RunSource yields the run-scoped parameters of a collision.
type RunSource interface {
	Get(ctx context.Context, run int, timestamp int64) (conditions.RunParams, error)
}

// UsedTracks holds the ids of tracks whose QA histograms were filled. The
// caller owns it and decides how long a track stays booked.
type UsedTracks map[int]struct{}

// mark books id and reports whether it was new.
func (u UsedTracks) mark(id int) bool {
	if _, ok := u[id]; ok {
		return false
	}
	u[id] = struct{}{}
	return true
}

// Diagnostics counts heavy-flavour pairs whose charge combination
// contradicts their category, keyed by category. Such pairs are logged
// and not filled.
type Diagnostics struct {
	ULS map[mcutil.HFType]int
	LS  map[mcutil.HFType]int
}

func (d Diagnostics) Total() int {
	n := 0
	for _, c := range d.ULS {
		n += c
	}
	for _, c := range d.LS {
		n += c
	}
	return n
}

// Dielectron fills pair and track histograms of true electron pairs
// bucketed by their MC origin.
type Dielectron struct {
	EventCut   cut.EventCut
	Centrality cut.Centrality
	Cut        cut.DielectronCut
	MCTrack    cut.MCTrackCut
	MaxY       float64

	sink hist.Sink
	runs RunSource
	log  *zap.Logger
	diag Diagnostics
}

// NewDielectron returns a task filling into sink. The histograms must have
// been booked with RegisterDielectron.
func NewDielectron(cfg *config.Config, sink hist.Sink, runs RunSource, log *zap.Logger) *Dielectron {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dielectron{
		EventCut:   cfg.EventCut,
		Centrality: cfg.Centrality,
		Cut:        cfg.Dielectron,
		MCTrack:    cfg.MCTrack,
		MaxY:       cfg.MaxY,
		sink:       sink,
		runs:       runs,
		log:        log,
		diag: Diagnostics{
			ULS: make(map[mcutil.HFType]int),
			LS:  make(map[mcutil.HFType]int),
		},
	}
}

func (d *Dielectron) Diagnostics() Diagnostics { return d.diag }

// ProcessReco fills the reconstructed pairs of one collision. A missing
// conditions object is returned as an error.
func (d *Dielectron) ProcessReco(ctx context.Context, ev *event.Event, used UsedTracks) error {
	col := &ev.Collision
	run, err := d.runs.Get(ctx, col.RunNumber, col.Timestamp)
	if err != nil {
		return fmt.Errorf("could not get parameters of run %d: %w", col.RunNumber, err)
	}

	if !d.Centrality.IsSelected(col) {
		return nil
	}
	fillEvent(d.sink, "before", col)
	if !d.EventCut.IsSelected(col) {
		return nil
	}
	fillEvent(d.sink, "after", col)
	d.sink.Fill("Event/before/hCollisionCounter", 10)
	d.sink.Fill("Event/after/hCollisionCounter", 10)

	var pos, neg []*event.Track
	for i := range ev.Tracks {
		t := &ev.Tracks[i]
		switch {
		case t.Sign > 0:
			pos = append(pos, t)
		case t.Sign < 0:
			neg = append(neg, t)
		}
	}

	for _, t1 := range pos {
		for _, t2 := range neg {
			d.recoPair(ev, run, t1, t2, used)
		}
	}
	for _, tracks := range [][]*event.Track{pos, neg} {
		for i, t1 := range tracks {
			for _, t2 := range tracks[i+1:] {
				d.recoPair(ev, run, t1, t2, used)
			}
		}
	}
	return nil
}

func pairValues(o pair.Observables) []float64 {
	return []float64{
		o.Mass, o.Pt, o.DPhi,
		math.Abs(o.CosThetaCS), math.Abs(o.PhiCS),
		o.Aco, o.Asym, o.DPhiLegPair,
	}
}

func isElectron(p *mcutil.Particle) bool {
	return p.PDG == mcutil.Electron || p.PDG == -mcutil.Electron
}

func (d *Dielectron) recoPair(ev *event.Event, run conditions.RunParams, t1, t2 *event.Track, used UsedTracks) {
	if !d.Cut.IsSelectedTrack(t1) || !d.Cut.IsSelectedTrack(t2) {
		return
	}
	if !d.Cut.IsSelectedPair(t1, t2, run.Bz) {
		return
	}

	mc1, ok1 := ev.MCParticle(t1)
	mc2, ok2 := ev.MCParticle(t2)
	if !ok1 || !ok2 || !isElectron(mc1) || !isElectron(mc2) {
		return
	}
	if mc1.EventID != mc2.EventID {
		return
	}

	cls := mcutil.Classify(ev.MC, mc1, mc2)
	if cls.Kind == mcutil.None {
		return
	}

	l1, l2 := t1.Leg(), t2.Leg()
	obs := pair.Compute(l1, l2, run.Beams, pair.Reco)
	if math.Abs(obs.Rapidity) > d.MaxY {
		return
	}
	values := append(pairValues(obs), pair.PairDCA(t1.DCA3DSigma(), t2.DCA3DSigma()))
	phiv := pair.PhiV(l1.Momentum(), l2.Momentum(), t1.Sign, t2.Sign, run.Bz)

	switch cls.Kind {
	case mcutil.Resonance:
		mother := &ev.MC[cls.Mother]
		primary := mc1.IsPrimary() && mc2.IsPrimary()
		secondary := !mc1.IsPrimary() && !mc2.IsPrimary()
		b, ok := selectResonance(ev.MC, mother, primary, secondary)
		if !ok {
			return
		}
		for _, f := range b.Folders {
			d.sink.Fill("Pair/sm/"+f+"/hs", values...)
			d.sink.Fill("Pair/sm/"+f+"/hMvsPhiV", phiv, obs.Mass)
		}
		d.fillTrack(b.Source, t1, mc1, used)
		d.fillTrack(b.Source, t2, mc2, used)

	case mcutil.HeavyFlavour:
		if !mc1.IsPrimary() || !mc2.IsPrimary() {
			return
		}
		if !d.expected(cls.HF, mc1.PDG*mc2.PDG < 0, "Pair") {
			return
		}
		m1, _ := ev.MC.FirstMother(mc1)
		m2, _ := ev.MC.FirstMother(mc2)
		b := selectHF(cls.HF, m1, m2)
		d.sink.Fill("Pair/"+b.Folder+"/hadron_hadron/hs", values...)
		d.sink.Fill("Pair/"+b.Folder+"/"+b.Species+"/hs", values...)
		d.fillTrack(b.Src1, t1, mc1, used)
		d.fillTrack(b.Src2, t2, mc2, used)
	}
}

// expected reports whether a heavy-flavour category may appear with the
// given charge combination, recording a diagnostic when it may not.
func (d *Dielectron) expected(hf mcutil.HFType, uls bool, level string) bool {
	if hf.ExpectedULS() == uls {
		return true
	}
	pairing := "LS"
	counts := d.diag.LS
	if uls {
		pairing = "ULS"
		counts = d.diag.ULS
	}
	counts[hf]++
	d.log.Info("Unexpected heavy-flavour pair",
		zap.String("level", level),
		zap.Stringer("category", hf),
		zap.String("pairing", pairing),
	)
	return false
}

func (d *Dielectron) fillTrack(src TrackSource, t *event.Track, mc *mcutil.Particle, used UsedTracks) {
	if !used.mark(t.GlobalIndex) {
		return
	}
	prefix := "Track/" + src.String() + "/"
	for _, h := range trackQA {
		d.sink.Fill(prefix+h.name, h.value(t, mc)...)
	}
}

// ProcessGen fills the generated pairs of the MC event matched to the
// collision, and the ω and φ spectra used as efficiency denominators.
func (d *Dielectron) ProcessGen(ctx context.Context, ev *event.Event) error {
	col := &ev.Collision
	run, err := d.runs.Get(ctx, col.RunNumber, col.Timestamp)
	if err != nil {
		return fmt.Errorf("could not get parameters of run %d: %w", col.RunNumber, err)
	}
	if !d.Centrality.IsSelected(col) || !d.EventCut.IsSelected(col) {
		return nil
	}

	var pos, neg []*mcutil.Particle
	for i := range ev.MC {
		p := &ev.MC[i]
		if p.EventID != col.MCEventID {
			continue
		}
		switch p.PDG {
		case -mcutil.Electron:
			pos = append(pos, p)
		case mcutil.Electron:
			neg = append(neg, p)
		}
	}

	for _, p1 := range pos {
		for _, p2 := range neg {
			d.genPair(ev.MC, run.Beams, p1, p2)
		}
	}
	for _, ps := range [][]*mcutil.Particle{pos, neg} {
		for i, p1 := range ps {
			for _, p2 := range ps[i+1:] {
				d.genPair(ev.MC, run.Beams, p1, p2)
			}
		}
	}

	for i := range ev.MC {
		p := &ev.MC[i]
		if p.EventID != col.MCEventID || !p.IsPrimary() || math.Abs(p.Y) > d.MaxY {
			continue
		}
		var folder string
		switch p.PDG {
		case mcutil.Omega, -mcutil.Omega:
			folder = "Generated/sm/Omega2ee/"
		case mcutil.Phi, -mcutil.Phi:
			folder = "Generated/sm/Phi2ee/"
		default:
			continue
		}
		d.sink.Fill(folder+"hPt", p.Pt)
		d.sink.Fill(folder+"hY", p.Y)
	}
	return nil
}

func genLeg(p *mcutil.Particle) pair.Leg {
	return pair.Leg{Pt: p.Pt, Eta: p.Eta, Phi: p.Phi, Mass: mcutil.MassElectron, Sign: p.Charge(), PDG: p.PDG}
}

func (d *Dielectron) genPair(ps mcutil.Particles, beams pair.Beams, p1, p2 *mcutil.Particle) {
	if !d.MCTrack.IsSelected(p1) || !d.MCTrack.IsSelected(p2) {
		return
	}
	if !p1.IsPrimary() || !p2.IsPrimary() {
		return
	}

	cls := mcutil.Classify(ps, p1, p2)
	if cls.Kind == mcutil.None {
		return
	}
	obs := pair.Compute(genLeg(p1), genLeg(p2), beams, pair.Gen)
	if math.Abs(obs.Rapidity) > d.MaxY {
		return
	}
	values := pairValues(obs)

	switch cls.Kind {
	case mcutil.Resonance:
		b, ok := selectResonance(ps, &ps[cls.Mother], true, false)
		if !ok {
			return
		}
		for _, f := range b.Folders {
			d.sink.Fill("Generated/sm/"+f+"/hs", values...)
		}

	case mcutil.HeavyFlavour:
		if !d.expected(cls.HF, p1.PDG*p2.PDG < 0, "Generated") {
			return
		}
		m1, _ := ps.FirstMother(p1)
		m2, _ := ps.FirstMother(p2)
		b := selectHF(cls.HF, m1, m2)
		d.sink.Fill("Generated/"+b.Folder+"/hadron_hadron/hs", values...)
		d.sink.Fill("Generated/"+b.Folder+"/"+b.Species+"/hs", values...)
	}
}
