package analysis

import (
	"math"

	"github.com/decibelcooper/dileptonqc/config"
	"github.com/decibelcooper/dileptonqc/event"
	"github.com/decibelcooper/dileptonqc/hist"
	"github.com/decibelcooper/dileptonqc/mcutil"
)

// Resonance folders of the reconstructed pairs. The generated pairs have
// all but Photon, since conversions need secondary legs.
var (
	recoResonances = []string{
		"Photon", "Pi0", "Eta", "EtaPrime", "Rho", "Omega", "Omega2ee", "Phi", "Phi2ee",
		"PromptJPsi", "NonPromptJPsi", "PromptPsi2S", "NonPromptPsi2S",
	}
	genResonances = recoResonances[1:]

	hfFolders = []string{
		"ccbar/c2e_c2e",
		"bbbar/b2e_b2e",
		"bbbar/b2c2e_b2c2e",
		"bbbar/b2c2e_b2e_sameb",
		"bbbar/b2c2e_b2e_diffb",
	}
	hfSpecies = []string{"hadron_hadron", "meson_meson", "baryon_baryon", "meson_baryon"}
)

func pairAxes(b config.Binning, withDCA bool) []hist.Axis {
	axes := []hist.Axis{
		hist.VarAxis("mass", "m_{ee} (GeV/c^{2})", b.Mee),
		hist.VarAxis("pt", "p_{T,ee} (GeV/c)", b.Ptee),
		hist.NewAxis("dphi", "#Delta#varphi = #varphi_{e1} - #varphi_{e2} (rad.)", 18, 0, math.Pi),
		hist.NewAxis("cos_theta_cs", "|cos(#theta_{CS})|", 10, 0, 1),
		hist.NewAxis("phi_cs", "|#varphi_{CS}| (rad.)", 18, 0, math.Pi),
		hist.NewAxis("aco", "#alpha = 1 - |#Delta#varphi|/#pi", 10, 0, 1),
		hist.NewAxis("asym", "A = |p_{T,1} - p_{T,2}|/(p_{T,1} + p_{T,2})", 10, 0, 1),
		hist.NewAxis("dphi_e_ee", "#Delta#varphi = #varphi_{e} - #varphi_{ee} (rad.)", 18, 0, math.Pi),
	}
	if withDCA {
		axes = append(axes, hist.VarAxis("dca", "DCA_{ee}^{3D} (#sigma)", b.DCAee))
	}
	return axes
}

// RegisterDielectron books every histogram filled by Dielectron.
func RegisterDielectron(reg *hist.Registry, b config.Binning) {
	registerEvent(reg)

	reco := pairAxes(b, true)
	reg.AddSparse("Pair/sm/Photon/hs", "hs pair", reco...)
	reg.AddH2D("Pair/sm/Photon/hMvsPhiV", "m_{ee} vs. #varphi_{V}",
		hist.NewAxis("phiv", "#varphi_{V} (rad.)", 90, 0, math.Pi),
		hist.NewAxis("mass", "m_{ee} (GeV/c^{2})", 100, 0, 0.1))
	for _, f := range recoResonances[1:] {
		reg.AddClone("Pair/sm/Photon/", "Pair/sm/"+f+"/")
	}
	registerHF(reg, "Pair/", reco)

	gen := pairAxes(b, false)
	reg.AddSparse("Generated/sm/Pi0/hs", "m_{ee} vs. p_{T,ee} ULS", gen...)
	for _, f := range genResonances[1:] {
		reg.AddClone("Generated/sm/Pi0/", "Generated/sm/"+f+"/")
	}
	ptMeson := hist.VarAxis("pt", "p_{T} (GeV/c)", b.Ptee)
	yMeson := hist.NewAxis("y", "y", 20, -1, 1)
	reg.AddH1D("Generated/sm/Omega2ee/hPt", "pT of #omega meson", ptMeson)
	reg.AddH1D("Generated/sm/Omega2ee/hY", "rapidity of #omega meson", yMeson)
	reg.AddH1D("Generated/sm/Phi2ee/hPt", "pT of #phi meson", ptMeson)
	reg.AddH1D("Generated/sm/Phi2ee/hY", "rapidity of #phi meson", yMeson)
	registerHF(reg, "Generated/", gen)

	for _, h := range trackQA {
		name := "Track/lf/" + h.name
		if h.y == nil {
			reg.AddH1D(name, h.title, h.x)
			continue
		}
		reg.AddH2D(name, h.title, h.x, *h.y)
	}
	for s := FromPhoton; s <= B2C2E; s++ {
		reg.AddClone("Track/lf/", "Track/"+s.String()+"/")
	}
}

func registerHF(reg *hist.Registry, prefix string, axes []hist.Axis) {
	first := prefix + hfFolders[0] + "/"
	reg.AddSparse(first+hfSpecies[0]+"/hs", "hs pair", axes...)
	for _, s := range hfSpecies[1:] {
		reg.AddClone(first+hfSpecies[0]+"/", first+s+"/")
	}
	for _, f := range hfFolders[1:] {
		reg.AddClone(first, prefix+f+"/")
	}
}

func registerEvent(reg *hist.Registry) {
	reg.AddH1D("Event/before/hCollisionCounter", "collision counter", hist.NewAxis("step", "", 11, -0.5, 10.5))
	reg.AddH1D("Event/before/hZvtx", "vertex z; Z_{vtx} (cm)", hist.NewAxis("zvtx", "Z_{vtx} (cm)", 100, -50, 50))
	reg.AddH1D("Event/before/hCentFT0M", "centrality FT0M", hist.NewAxis("cent", "centrality FT0M (%)", 110, 0, 110))
	reg.AddH1D("Event/before/hCentFT0A", "centrality FT0A", hist.NewAxis("cent", "centrality FT0A (%)", 110, 0, 110))
	reg.AddH1D("Event/before/hCentFT0C", "centrality FT0C", hist.NewAxis("cent", "centrality FT0C (%)", 110, 0, 110))
	reg.AddH1D("Event/before/hOccupancy", "occupancy", hist.NewAxis("occupancy", "ITS tracks in time range", 200, 0, 20000))
	reg.AddClone("Event/before/", "Event/after/")
}

// fillEvent fills the event QA of one stage.
func fillEvent(sink hist.Sink, stage string, col *event.Collision) {
	sink.Fill("Event/"+stage+"/hCollisionCounter", 0)
	sink.Fill("Event/"+stage+"/hZvtx", col.PosZ)
	sink.Fill("Event/"+stage+"/hCentFT0M", col.CentFT0M)
	sink.Fill("Event/"+stage+"/hCentFT0A", col.CentFT0A)
	sink.Fill("Event/"+stage+"/hCentFT0C", col.CentFT0C)
	sink.Fill("Event/"+stage+"/hOccupancy", float64(col.Occupancy))
}

type trackHist struct {
	name  string
	title string
	x     hist.Axis
	y     *hist.Axis
	value func(t *event.Track, mc *mcutil.Particle) []float64
}

func axis(name, title string, n int, lo, hi float64) *hist.Axis {
	a := hist.NewAxis(name, title, n, lo, hi)
	return &a
}

var (
	pinAxis = hist.NewAxis("pin", "p_{in} (GeV/c)", 100, 0, 10)
	ptAxis  = hist.NewAxis("pt", "p_{T} (GeV/c)", 100, 0, 10)
	genAxis = hist.NewAxis("ptgen", "p_{T}^{gen} (GeV/c)", 100, 0, 10)
)

func nSigmaHist(name, title string, v func(t *event.Track) float64) trackHist {
	return trackHist{
		name: name, title: title, x: pinAxis, y: axis("nsigma", title, 100, -5, 5),
		value: func(t *event.Track, _ *mcutil.Particle) []float64 { return []float64{t.TPCInnerParam, v(t)} },
	}
}

// significance is d in units of sqrt(variance). Without a variance it is
// NaN, which the registry does not fill.
func significance(d, variance float64) float64 {
	if variance <= 0 {
		return math.NaN()
	}
	return d / math.Sqrt(variance)
}

// trackQA lists the single-track histograms of every track source.
var trackQA = []trackHist{
	{name: "hPt", title: "pT", x: hist.NewAxis("pt", "p_{T} (GeV/c)", 1000, 0, 10),
		value: func(t *event.Track, _ *mcutil.Particle) []float64 { return []float64{t.Pt} }},
	{name: "hQoverPt", title: "q/pT", x: hist.NewAxis("qpt", "q/p_{T} (GeV/c)^{-1}", 400, -20, 20),
		value: func(t *event.Track, _ *mcutil.Particle) []float64 { return []float64{float64(t.Sign) / t.Pt} }},
	{name: "hEtaPhi", title: "#eta vs. #varphi", x: hist.NewAxis("phi", "#varphi (rad.)", 180, 0, 2*math.Pi), y: axis("eta", "#eta", 40, -2, 2),
		value: func(t *event.Track, _ *mcutil.Particle) []float64 {
			phi := t.Phi
			if phi < 0 {
				phi += 2 * math.Pi
			}
			return []float64{phi, t.Eta}
		}},
	{name: "hDCAxyz", title: "DCA xy vs. z", x: hist.NewAxis("dcaxy", "DCA_{xy} (cm)", 100, -1, 1), y: axis("dcaz", "DCA_{z} (cm)", 100, -1, 1),
		value: func(t *event.Track, _ *mcutil.Particle) []float64 { return []float64{t.DcaXY, t.DcaZ} }},
	{name: "hDCAxyzSigma", title: "DCA xy vs. z", x: hist.NewAxis("dcaxy", "DCA_{xy} (#sigma)", 100, -10, 10), y: axis("dcaz", "DCA_{z} (#sigma)", 100, -10, 10),
		value: func(t *event.Track, _ *mcutil.Particle) []float64 {
			return []float64{significance(t.DcaXY, t.CYY), significance(t.DcaZ, t.CZZ)}
		}},
	{name: "hDCA3DSigma", title: "DCA 3D", x: hist.NewAxis("dca3d", "DCA_{3D} (#sigma)", 100, 0, 10),
		value: func(t *event.Track, _ *mcutil.Particle) []float64 { return []float64{t.DCA3DSigma()} }},
	{name: "hDCAxyRes_Pt", title: "DCA_{xy} resolution vs. pT", x: ptAxis, y: axis("res", "DCA_{xy} resolution (#mum)", 100, 0, 500),
		value: func(t *event.Track, _ *mcutil.Particle) []float64 { return []float64{t.Pt, math.Sqrt(t.CYY) * 1e4} }},
	{name: "hDCAzRes_Pt", title: "DCA_{z} resolution vs. pT", x: ptAxis, y: axis("res", "DCA_{z} resolution (#mum)", 100, 0, 500),
		value: func(t *event.Track, _ *mcutil.Particle) []float64 { return []float64{t.Pt, math.Sqrt(t.CZZ) * 1e4} }},
	{name: "hNclsTPC", title: "number of TPC clusters", x: hist.NewAxis("ncls", "N_{cls}^{TPC}", 161, -0.5, 160.5),
		value: func(t *event.Track, _ *mcutil.Particle) []float64 { return []float64{float64(t.TPCNClsFound)} }},
	{name: "hNcrTPC", title: "number of TPC crossed rows", x: hist.NewAxis("ncr", "N_{cr}^{TPC}", 161, -0.5, 160.5),
		value: func(t *event.Track, _ *mcutil.Particle) []float64 { return []float64{float64(t.TPCNClsCrossedRows)} }},
	{name: "hChi2TPC", title: "chi2/number of TPC clusters", x: hist.NewAxis("chi2", "#chi^{2}/N_{cls}^{TPC}", 100, 0, 10),
		value: func(t *event.Track, _ *mcutil.Particle) []float64 { return []float64{t.TPCChi2NCl} }},
	{name: "hTPCdEdx", title: "TPC dE/dx", x: pinAxis, y: axis("dedx", "TPC dE/dx (a.u.)", 200, 0, 200),
		value: func(t *event.Track, _ *mcutil.Particle) []float64 { return []float64{t.TPCInnerParam, t.TPCSignal} }},
	nSigmaHist("hTPCNsigmaEl", "n #sigma_{e}^{TPC}", func(t *event.Track) float64 { return t.PID.TPC[event.El] }),
	nSigmaHist("hTPCNsigmaMu", "n #sigma_{#mu}^{TPC}", func(t *event.Track) float64 { return t.PID.TPC[event.Mu] }),
	nSigmaHist("hTPCNsigmaPi", "n #sigma_{#pi}^{TPC}", func(t *event.Track) float64 { return t.PID.TPC[event.Pi] }),
	nSigmaHist("hTPCNsigmaKa", "n #sigma_{K}^{TPC}", func(t *event.Track) float64 { return t.PID.TPC[event.Ka] }),
	nSigmaHist("hTPCNsigmaPr", "n #sigma_{p}^{TPC}", func(t *event.Track) float64 { return t.PID.TPC[event.Pr] }),
	{name: "hTOFbeta", title: "TOF #beta", x: pinAxis, y: axis("beta", "#beta", 240, 0, 1.2),
		value: func(t *event.Track, _ *mcutil.Particle) []float64 { return []float64{t.TPCInnerParam, t.Beta} }},
	{name: "h1overTOFbeta", title: "TOF 1/#beta", x: pinAxis, y: axis("invbeta", "1/#beta", 200, 0.8, 1.8),
		value: func(t *event.Track, _ *mcutil.Particle) []float64 { return []float64{t.TPCInnerParam, 1 / t.Beta} }},
	nSigmaHist("hTOFNsigmaEl", "n #sigma_{e}^{TOF}", func(t *event.Track) float64 { return t.PID.TOF[event.El] }),
	nSigmaHist("hTOFNsigmaMu", "n #sigma_{#mu}^{TOF}", func(t *event.Track) float64 { return t.PID.TOF[event.Mu] }),
	nSigmaHist("hTOFNsigmaPi", "n #sigma_{#pi}^{TOF}", func(t *event.Track) float64 { return t.PID.TOF[event.Pi] }),
	nSigmaHist("hTOFNsigmaKa", "n #sigma_{K}^{TOF}", func(t *event.Track) float64 { return t.PID.TOF[event.Ka] }),
	nSigmaHist("hTOFNsigmaPr", "n #sigma_{p}^{TOF}", func(t *event.Track) float64 { return t.PID.TOF[event.Pr] }),
	{name: "hTPCNcr2Nf", title: "TPC Ncr/Nfindable", x: hist.NewAxis("ratio", "N_{cr}/N_{f}", 200, 0, 2),
		value: func(t *event.Track, _ *mcutil.Particle) []float64 { return []float64{t.TPCCrossedRowsOverFindable()} }},
	{name: "hTPCNcls2Nf", title: "TPC Ncls/Nfindable", x: hist.NewAxis("ratio", "N_{cls}/N_{f}", 200, 0, 2),
		value: func(t *event.Track, _ *mcutil.Particle) []float64 { return []float64{t.TPCFoundOverFindable()} }},
	{name: "hNclsITS", title: "number of ITS clusters", x: hist.NewAxis("ncls", "N_{cls}^{ITS}", 8, -0.5, 7.5),
		value: func(t *event.Track, _ *mcutil.Particle) []float64 { return []float64{float64(t.ITSNCls())} }},
	{name: "hChi2ITS", title: "chi2/number of ITS clusters", x: hist.NewAxis("chi2", "#chi^{2}/N_{cls}^{ITS}", 100, 0, 10),
		value: func(t *event.Track, _ *mcutil.Particle) []float64 { return []float64{t.ITSChi2NCl} }},
	{name: "hITSClusterMap", title: "ITS cluster map", x: hist.NewAxis("map", "ITS cluster map", 128, -0.5, 127.5),
		value: func(t *event.Track, _ *mcutil.Particle) []float64 { return []float64{float64(t.ITSClusterMap)} }},
	{name: "hMeanClusterSizeITS", title: "mean cluster size ITS", x: hist.NewAxis("size", "<cluster size> on ITS #times cos(#lambda)", 32, 0, 16),
		value: func(t *event.Track, _ *mcutil.Particle) []float64 {
			return []float64{t.MeanClusterSizeITS * math.Cos(math.Atan(t.Tgl))}
		}},
	{name: "hPtGen_DeltaPtOverPtGen", title: "electron p_{T} resolution", x: genAxis, y: axis("dpt", "(p_{T}^{rec} - p_{T}^{gen})/p_{T}^{gen}", 200, -1, 1),
		value: func(t *event.Track, mc *mcutil.Particle) []float64 { return []float64{mc.Pt, (t.Pt - mc.Pt) / mc.Pt} }},
	{name: "hPtGen_DeltaEta", title: "electron #eta resolution", x: genAxis, y: axis("deta", "#eta^{rec} - #eta^{gen}", 200, -1, 1),
		value: func(t *event.Track, mc *mcutil.Particle) []float64 { return []float64{mc.Pt, t.Eta - mc.Eta} }},
	{name: "hPtGen_DeltaPhi", title: "electron #varphi resolution", x: genAxis, y: axis("dphi", "#varphi^{rec} - #varphi^{gen} (rad.)", 200, -1, 1),
		value: func(t *event.Track, mc *mcutil.Particle) []float64 { return []float64{mc.Pt, t.Phi - mc.Phi} }},
}
