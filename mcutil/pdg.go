package mcutil

// PDG codes used by the classifier.
const (
	Electron  = 11
	Photon    = 22
	Pi0       = 111
	Rho0      = 113
	Eta       = 221
	Omega     = 223
	EtaPrime  = 331
	Phi       = 333
	JPsi      = 443
	Psi2S     = 100443
	Upsilon1S = 553
	Upsilon2S = 100553
	Upsilon3S = 200553
	Upsilon4S = 300553
)

// Masses in GeV.
const (
	MassElectron = 0.51099895e-3
	MassMuon     = 0.1056583755
	MassPion     = 0.13957039
	MassKaon     = 0.493677
	MassProton   = 0.93827208816
	MassJPsi     = 3.096916
)

// Resonances lists the mothers searched for a common dielectron origin.
var Resonances = []int{
	Photon, Pi0, Eta, EtaPrime, Rho0, Omega, Phi,
	JPsi, Psi2S, Upsilon1S, Upsilon2S, Upsilon3S, Upsilon4S,
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

// quarks splits a hadron code into its quark digits nq1 nq2 nq3.
// ok is false for nuclei and non-hadron codes.
func quarks(pdg int) (nq1, nq2, nq3 int, ok bool) {
	a := abs(pdg)
	if a >= 1000000000 || a < 100 {
		return 0, 0, 0, false
	}
	a %= 10000
	return a / 1000, (a / 100) % 10, (a / 10) % 10, true
}

// heavyQuark returns the heaviest open-flavour quark of a hadron, or 0
// for quarkonia, light hadrons and non-hadrons.
func heavyQuark(pdg int) (q int, baryon bool) {
	nq1, nq2, nq3, ok := quarks(pdg)
	if !ok || nq3 == 0 {
		return 0, false
	}
	if nq1 != 0 {
		return nq1, true
	}
	if nq2 == nq3 {
		return 0, false
	}
	return nq2, false
}

func IsCharmMeson(pdg int) bool {
	q, baryon := heavyQuark(pdg)
	return q == 4 && !baryon
}

func IsCharmBaryon(pdg int) bool {
	q, baryon := heavyQuark(pdg)
	return q == 4 && baryon
}

func IsBeautyMeson(pdg int) bool {
	q, baryon := heavyQuark(pdg)
	return q == 5 && !baryon
}

func IsBeautyBaryon(pdg int) bool {
	q, baryon := heavyQuark(pdg)
	return q == 5 && baryon
}

func IsCharmHadron(pdg int) bool  { return IsCharmMeson(pdg) || IsCharmBaryon(pdg) }
func IsBeautyHadron(pdg int) bool { return IsBeautyMeson(pdg) || IsBeautyBaryon(pdg) }
