package analysis

import (
	"github.com/decibelcooper/dileptonqc/mcutil"
)

// TrackSource is the origin an electron leg is booked under in the track
// QA histograms.
type TrackSource int

const (
	LF TrackSource = iota
	FromPhoton
	PromptJPsi
	NonPromptJPsi
	PromptPsi2S
	NonPromptPsi2S
	C2E
	B2E
	B2C2E
)

var trackSourceNames = [...]string{
	LF:             "lf",
	FromPhoton:     "Photon",
	PromptJPsi:     "PromptJPsi",
	NonPromptJPsi:  "NonPromptJPsi",
	PromptPsi2S:    "PromptPsi2S",
	NonPromptPsi2S: "NonPromptPsi2S",
	C2E:            "c2e",
	B2E:            "b2e",
	B2C2E:          "b2c2e",
}

func (s TrackSource) String() string { return trackSourceNames[s] }

// resonanceBucket is where a resonance pair is filled.
type resonanceBucket struct {
	Folders []string
	Source  TrackSource
}

// selectResonance picks the folders of a pair whose legs share the
// resonance mother. Both legs must be primaries, except for photon
// conversions where both must be secondaries. ok is false when the pair
// is not booked.
func selectResonance(ps mcutil.Particles, mother *mcutil.Particle, primaryLegs, secondaryLegs bool) (b resonanceBucket, ok bool) {
	if !mother.IsPrimary() {
		return b, false
	}
	pdg := mother.PDG
	if pdg < 0 {
		pdg = -pdg
	}
	if secondaryLegs {
		if pdg == mcutil.Photon {
			return resonanceBucket{Folders: []string{"Photon"}, Source: FromPhoton}, true
		}
		return b, false
	}
	if !primaryLegs {
		return b, false
	}

	twoBody := len(mother.Daughters) == 2
	switch pdg {
	case mcutil.Pi0:
		return resonanceBucket{Folders: []string{"Pi0"}, Source: LF}, true
	case mcutil.Eta:
		return resonanceBucket{Folders: []string{"Eta"}, Source: LF}, true
	case mcutil.EtaPrime:
		return resonanceBucket{Folders: []string{"EtaPrime"}, Source: LF}, true
	case mcutil.Rho0:
		return resonanceBucket{Folders: []string{"Rho"}, Source: LF}, true
	case mcutil.Omega:
		b = resonanceBucket{Folders: []string{"Omega"}, Source: LF}
		if twoBody {
			b.Folders = append(b.Folders, "Omega2ee")
		}
		return b, true
	case mcutil.Phi:
		b = resonanceBucket{Folders: []string{"Phi"}, Source: LF}
		if twoBody {
			b.Folders = append(b.Folders, "Phi2ee")
		}
		return b, true
	case mcutil.JPsi:
		// FromBeauty gives -1 without a beauty ancestor; index 0 is a valid
		// ancestor.
		if mcutil.FromBeauty(ps, mother) >= 0 {
			return resonanceBucket{Folders: []string{"NonPromptJPsi"}, Source: NonPromptJPsi}, true
		}
		return resonanceBucket{Folders: []string{"PromptJPsi"}, Source: PromptJPsi}, true
	case mcutil.Psi2S:
		if mcutil.FromBeauty(ps, mother) >= 0 {
			return resonanceBucket{Folders: []string{"NonPromptPsi2S"}, Source: NonPromptPsi2S}, true
		}
		return resonanceBucket{Folders: []string{"PromptPsi2S"}, Source: PromptPsi2S}, true
	}
	return b, false
}

// hfBucket is where a heavy-flavour pair is filled: the category folder,
// the hadron-species subfolder and the track source of each leg.
type hfBucket struct {
	Folder     string
	Species    string
	Src1, Src2 TrackSource
}

// selectHF books a heavy-flavour pair by the species of the legs' direct
// mothers m1 and m2.
func selectHF(hf mcutil.HFType, m1, m2 *mcutil.Particle) hfBucket {
	b := hfBucket{Folder: "bbbar/" + hf.String()}
	switch hf {
	case mcutil.CeCe:
		b.Folder = "ccbar/" + hf.String()
		b.Species = species(mcutil.IsCharmMeson, mcutil.IsCharmBaryon, m1.PDG, m2.PDG)
		b.Src1, b.Src2 = C2E, C2E
	case mcutil.BeBe:
		b.Species = species(mcutil.IsBeautyMeson, mcutil.IsBeautyBaryon, m1.PDG, m2.PDG)
		b.Src1, b.Src2 = B2E, B2E
	case mcutil.BCeBCe:
		b.Species = species(mcutil.IsCharmMeson, mcutil.IsCharmBaryon, m1.PDG, m2.PDG)
		b.Src1, b.Src2 = B2C2E, B2C2E
	case mcutil.BCeBeSameB, mcutil.BCeBeDiffB:
		b.Species = mixedSpecies(m1.PDG, m2.PDG)
		b.Src1, b.Src2 = B2E, B2E
		if mcutil.IsCharmHadron(m1.PDG) {
			b.Src1 = B2C2E
		}
		if mcutil.IsCharmHadron(m2.PDG) {
			b.Src2 = B2C2E
		}
	}
	return b
}

func species(meson, baryon func(int) bool, pdg1, pdg2 int) string {
	switch {
	case meson(pdg1) && meson(pdg2):
		return "meson_meson"
	case baryon(pdg1) && baryon(pdg2):
		return "baryon_baryon"
	}
	return "meson_baryon"
}

// mixedSpecies classifies a charm/beauty mother pair in either order.
func mixedSpecies(pdg1, pdg2 int) string {
	switch {
	case mcutil.IsCharmMeson(pdg1) && mcutil.IsBeautyMeson(pdg2),
		mcutil.IsCharmMeson(pdg2) && mcutil.IsBeautyMeson(pdg1):
		return "meson_meson"
	case mcutil.IsCharmBaryon(pdg1) && mcutil.IsBeautyBaryon(pdg2),
		mcutil.IsCharmBaryon(pdg2) && mcutil.IsBeautyBaryon(pdg1):
		return "baryon_baryon"
	}
	return "meson_baryon"
}
