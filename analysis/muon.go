package analysis

import (
	"github.com/decibelcooper/dileptonqc/cut"
	"github.com/decibelcooper/dileptonqc/event"
	"github.com/decibelcooper/dileptonqc/hist"
)

// RegisterSingleMuon books the histograms of SingleMuon.
func RegisterSingleMuon(reg *hist.Registry) {
	reg.AddSparse("hMuAfterCuts", "",
		hist.NewAxis("pt", "#it{p}_{T} (GeV/#it{c})", 200, 0, 100),
		hist.NewAxis("eta", "#it{#eta}", 100, -4, -2),
		hist.NewAxis("dcaxy", "#it{DCA}_{xy} (cm)", 400, 0, 4),
		hist.NewAxis("sign", "Charge", 5, -2.5, 2.5),
		hist.NewAxis("chi2", "MCH-MFT matching #chi^{2}", 100, 0, 100),
		hist.NewAxis("dpt", "#Delta #it{p}_{T} (GeV/#it{c})", 10000, -50, 50),
	)
	reg.AddH1D("hVtxZ", "", hist.NewAxis("zvtx", "#it{z}_{vtx} (cm)", 80, -20, 20))
}

// SingleMuon fills the acceptance-level spectra of forward muons with a
// matched MCH-standalone track.
type SingleMuon struct {
	Cut  cut.MuonCut
	sink hist.Sink
}

func NewSingleMuon(c cut.MuonCut, sink hist.Sink) *SingleMuon {
	return &SingleMuon{Cut: c, sink: sink}
}

func (s *SingleMuon) Process(ev *event.Event) {
	s.sink.Fill("hVtxZ", ev.Collision.PosZ)
	for i := range ev.Muons {
		m := &ev.Muons[i]
		if !s.Cut.IsSelected(m) || !m.HasMCH {
			continue
		}
		s.sink.Fill("hMuAfterCuts", m.Pt, m.Eta, m.DcaXY(), float64(m.Sign), m.Chi2, m.MCHPt-m.Pt)
	}
}
