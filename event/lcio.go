package event

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"go-hep.org/x/hep/lcio"
	"go.uber.org/zap"

	"github.com/decibelcooper/dileptonqc/mcutil"
)

// speed of light in GeV/(T mm), for curvature to momentum conversion
const cLight = 2.99792458e-4

// LCIOOptions names the collections read from LCIO files and how tracks
// are interpreted.
type LCIOOptions struct {
	MCCollection       string
	TrackCollection    string
	RelationCollection string
	MuonCollection     string

	// MaxMatchAngle bounds the angular truth matching used for tracks
	// without a relation entry.
	MaxMatchAngle float64

	// indices into Track.SubDetHits
	ITSHits int
	TPCHits int

	Field  FieldSource
	PID    func(*Track)
	Logger *zap.Logger
}

func DefaultLCIOOptions() LCIOOptions {
	return LCIOOptions{
		MCCollection:       "MCParticle",
		TrackCollection:    "Tracks",
		RelationCollection: "TrackMCTruthLink",
		MuonCollection:     "MuonTracks",
		MaxMatchAngle:      0.01,
		ITSHits:            0,
		TPCHits:            1,
	}
}

// LCIOSource reads reconstructed tracks, forward muons and MC truth from
// an LCIO file.
type LCIOSource struct {
	reader *lcio.Reader
	opts   LCIOOptions
	log    *zap.Logger
	count  int
}

func OpenLCIO(path string, opts LCIOOptions) (*LCIOSource, error) {
	reader, err := lcio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lcio file %s: %w", path, err)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &LCIOSource{reader: reader, opts: opts, log: opts.Logger.With(zap.String("file", path))}, nil
}

func (s *LCIOSource) Close() error {
	return s.reader.Close()
}

func (s *LCIOSource) Next(ctx context.Context) (*Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.reader.Next() {
		if err := s.reader.Err(); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		return nil, io.EOF
	}
	evt := s.reader.Event()

	ev := &Event{Collision: collisionFromParams(&evt.Params)}
	ev.Collision.GlobalIndex = s.count
	ev.Collision.RunNumber = int(evt.RunNumber)
	ev.Collision.Timestamp = evt.TimeStamp / 1e6
	ev.Collision.MCEventID = int(evt.EventNumber)
	s.count++

	var truth map[*lcio.McParticle]int
	if mc, ok := evt.Get(s.opts.MCCollection).(*lcio.McParticleContainer); ok {
		ev.MC, truth = ConvertMC(mc, ev.Collision.MCEventID)
	}

	trk, hasTracks := evt.Get(s.opts.TrackCollection).(*lcio.TrackContainer)
	muons, hasMuons := evt.Get(s.opts.MuonCollection).(*lcio.TrackContainer)
	if !hasTracks && !hasMuons {
		return ev, nil
	}

	bz := 0.0
	if s.opts.Field != nil {
		var err error
		bz, err = s.opts.Field.Bz(ctx, ev.Collision.RunNumber, ev.Collision.Timestamp)
		if err != nil {
			return nil, err
		}
	}

	if hasTracks {
		ev.Tracks = make([]Track, len(trk.Tracks))
		for i := range trk.Tracks {
			t := ConvertTrack(&trk.Tracks[i], bz, s.opts.ITSHits, s.opts.TPCHits)
			t.GlobalIndex = i
			t.EventID = ev.Collision.GlobalIndex
			if s.opts.PID != nil {
				s.opts.PID(&t)
			}
			ev.Tracks[i] = t
		}

		rels, _ := evt.Get(s.opts.RelationCollection).(*lcio.RelationContainer)
		matched := matchByRelation(ev.Tracks, trk, rels, truth)
		if matched < len(ev.Tracks) && len(ev.MC) > 0 {
			matchByAngle(ev.Tracks, ev.MC, s.opts.MaxMatchAngle)
		}
	}

	if hasMuons {
		ev.Muons = make([]Muon, 0, len(muons.Tracks))
		for i := range muons.Tracks {
			ev.Muons = append(ev.Muons, ConvertMuon(&muons.Tracks[i], bz))
		}
	}
	return ev, nil
}

// ConvertMC builds the particle arena of an LCIO MC collection and returns
// the pointer to index map used to resolve relations.
func ConvertMC(mc *lcio.McParticleContainer, eventID int) (mcutil.Particles, map[*lcio.McParticle]int) {
	index := make(map[*lcio.McParticle]int, len(mc.Particles))
	for i := range mc.Particles {
		index[&mc.Particles[i]] = i
	}

	ps := make(mcutil.Particles, len(mc.Particles))
	for i := range mc.Particles {
		src := &mc.Particles[i]
		e := math.Sqrt(src.P[0]*src.P[0] + src.P[1]*src.P[1] + src.P[2]*src.P[2] + src.Mass*src.Mass)
		p := mcutil.NewParticle(i, int(src.PDG), src.P[0], src.P[1], src.P[2], e)
		p.EventID = eventID
		p.PhysicalPrimary = src.GenStatus == 1
		p.ProducedByGenerator = src.GenStatus != 0
		for _, parent := range src.Parents {
			if j, ok := index[parent]; ok {
				p.Mothers = append(p.Mothers, j)
			}
		}
		for _, child := range src.Children {
			if j, ok := index[child]; ok {
				p.Daughters = append(p.Daughters, j)
			}
		}
		ps[i] = p
	}
	return ps, index
}

// ConvertTrack maps the IP track state of an LCIO track onto a Track.
// bz is in kG; LCIO lengths in mm are converted to cm.
func ConvertTrack(src *lcio.Track, bz float64, itsHits, tpcHits int) Track {
	t := Track{MCLabel: -1, Beta: -1}
	if len(src.States) == 0 {
		return t
	}
	state := &src.States[0]
	omega := float64(state.Omega)

	t.Phi = float64(state.Phi)
	t.Tgl = float64(state.TanL)
	t.Eta = math.Asinh(t.Tgl)
	if omega != 0 {
		t.Pt = cLight * math.Abs(bz/10) / math.Abs(omega)
	}
	switch {
	case omega > 0:
		t.Sign = 1
	case omega < 0:
		t.Sign = -1
	}

	t.DcaXY = float64(state.D0) / 10
	t.DcaZ = float64(state.Z0) / 10
	t.CYY = float64(state.Cov[0]) / 100
	t.CZY = float64(state.Cov[6]) / 100
	t.CZZ = float64(state.Cov[9]) / 100

	nTPC := subDetHits(src, tpcHits)
	t.TPCNClsFound = nTPC
	t.TPCNClsCrossedRows = nTPC
	t.TPCNClsFindable = nTPC
	t.TPCSignal = float64(src.DEdx)
	t.TPCInnerParam = t.P()

	nITS := subDetHits(src, itsHits)
	if nITS > 7 {
		nITS = 7
	}
	t.ITSClusterMap = uint8(1<<nITS - 1)

	if src.NdF > 0 {
		chi2 := float64(src.Chi2) / float64(src.NdF)
		t.TPCChi2NCl = chi2
		t.ITSChi2NCl = chi2
	}
	return t
}

// ConvertMuon maps a forward LCIO track onto a Muon. The first attached
// sub-track is taken as the matched MCH-standalone track.
func ConvertMuon(src *lcio.Track, bz float64) Muon {
	t := ConvertTrack(src, bz, 0, 0)
	m := Muon{
		TrackType: int(src.Type),
		Pt:        t.Pt,
		Eta:       t.Eta,
		Phi:       t.Phi,
		Sign:      t.Sign,
		DcaX:      -t.DcaXY * math.Sin(t.Phi),
		DcaY:      t.DcaXY * math.Cos(t.Phi),
		RAbs:      float64(src.Radius) / 10,
		Chi2:      float64(src.Chi2),
	}
	m.PDca = t.P() * m.DcaXY()
	if len(src.Tracks) > 0 && src.Tracks[0] != nil {
		mch := ConvertTrack(src.Tracks[0], bz, 0, 0)
		m.HasMCH = true
		m.MCHPt = mch.Pt
	}
	return m
}

func subDetHits(src *lcio.Track, i int) int {
	if i < 0 || i >= len(src.SubDetHits) {
		return 0
	}
	return int(src.SubDetHits[i])
}

func collisionFromParams(params *lcio.Params) Collision {
	c := Collision{
		PosZ:      floatParam(params, "PosZ", 0),
		CentFT0M:  floatParam(params, "CentFT0M", 0),
		CentFT0A:  floatParam(params, "CentFT0A", 0),
		CentFT0C:  floatParam(params, "CentFT0C", 0),
		Occupancy: intParam(params, "Occupancy", -1),
	}
	// samples without event selection information pass every flag
	c.Selection = uint32(intParam(params, "SelectionBits", -1))
	return c
}

func floatParam(params *lcio.Params, key string, def float64) float64 {
	if v := params.Floats[key]; len(v) > 0 {
		return float64(v[0])
	}
	return def
}

func intParam(params *lcio.Params, key string, def int) int {
	if v := params.Ints[key]; len(v) > 0 {
		return int(v[0])
	}
	return def
}

// matchByRelation assigns MC labels from the highest-weight relation of
// each track and returns the number of matched tracks.
func matchByRelation(tracks []Track, trk *lcio.TrackContainer, rels *lcio.RelationContainer, truth map[*lcio.McParticle]int) int {
	if rels == nil || truth == nil {
		return 0
	}
	trackIndex := make(map[*lcio.Track]int, len(trk.Tracks))
	for i := range trk.Tracks {
		trackIndex[&trk.Tracks[i]] = i
	}

	weights := make([]float32, len(tracks))
	matched := 0
	for _, rel := range rels.Rels {
		from, ok := rel.From.(*lcio.Track)
		if !ok {
			continue
		}
		to, ok := rel.To.(*lcio.McParticle)
		if !ok {
			continue
		}
		i, ok := trackIndex[from]
		if !ok {
			continue
		}
		j, ok := truth[to]
		if !ok {
			continue
		}
		if tracks[i].MCLabel < 0 {
			matched++
		} else if rel.Weight <= weights[i] {
			continue
		}
		tracks[i].MCLabel = j
		weights[i] = rel.Weight
	}
	return matched
}

// matchByAngle matches unlabeled tracks to the closest charged final-state
// particle in direction, each particle used once.
func matchByAngle(tracks []Track, ps mcutil.Particles, maxAngle float64) {
	used := make(map[int]bool)
	for i := range tracks {
		if tracks[i].MCLabel >= 0 {
			used[tracks[i].MCLabel] = true
		}
	}

	for i := range tracks {
		t := &tracks[i]
		if t.MCLabel >= 0 {
			continue
		}
		lambda := math.Atan(t.Tgl)
		dir := [3]float64{math.Cos(t.Phi) * math.Cos(lambda), math.Sin(t.Phi) * math.Cos(lambda), math.Sin(lambda)}

		best, bestAngle := -1, math.Inf(1)
		for j := range ps {
			p := &ps[j]
			if used[j] || !isChargedStable(p.PDG) {
				continue
			}
			pmag := math.Sqrt(p.Px*p.Px + p.Py*p.Py + p.Pz*p.Pz)
			if pmag == 0 {
				continue
			}
			cos := (dir[0]*p.Px + dir[1]*p.Py + dir[2]*p.Pz) / pmag
			angle := math.Acos(math.Max(-1, math.Min(1, cos)))
			if angle < bestAngle {
				best, bestAngle = j, angle
			}
		}
		if best >= 0 && bestAngle < maxAngle {
			t.MCLabel = best
			used[best] = true
		}
	}
}

func isChargedStable(pdg int) bool {
	switch pdg {
	case 11, -11, 13, -13, 211, -211, 321, -321, 2212, -2212:
		return true
	}
	return false
}
