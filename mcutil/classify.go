package mcutil

// HFType is the heavy-flavour origin of a dielectron pair.
type HFType int

const (
	HFUndef    HFType = iota
	CeCe              // c -> e, c -> e
	BeBe              // b -> e, b -> e
	BCeBCe            // b -> c -> e, b -> c -> e
	BCeBeSameB        // b -> c -> e, b -> e from the same b
	BCeBeDiffB        // b -> c -> e, b -> e from different b
)

func (t HFType) String() string {
	switch t {
	case CeCe:
		return "c2e_c2e"
	case BeBe:
		return "b2e_b2e"
	case BCeBCe:
		return "b2c2e_b2c2e"
	case BCeBeSameB:
		return "b2c2e_b2e_sameb"
	case BCeBeDiffB:
		return "b2c2e_b2e_diffb"
	}
	return "undef"
}

// ExpectedULS reports whether the category shows up in unlike-sign pairs.
// A b -> c -> e leg paired with a b -> e leg from a different b is the only
// like-sign category.
func (t HFType) ExpectedULS() bool {
	return t != HFUndef && t != BCeBeDiffB
}

// Kind tells which search matched a pair.
type Kind int

const (
	None Kind = iota
	Resonance
	HeavyFlavour
)

// Classification is the origin of a pair. Mother is the resonance index
// for Resonance matches and -1 otherwise.
type Classification struct {
	Kind   Kind
	Mother int
	HF     HFType
}

// FindCommonMother returns the index of the shared first mother of p1 and
// p2 when their codes are pdg1 and pdg2 and the mother's code is motherPDG,
// or -1.
func FindCommonMother(ps Particles, p1, p2 *Particle, pdg1, pdg2, motherPDG int) int {
	if p1 == nil || p2 == nil || p1.Index == p2.Index {
		return -1
	}
	if p1.PDG != pdg1 || p2.PDG != pdg2 {
		return -1
	}
	m1, ok1 := ps.FirstMother(p1)
	m2, ok2 := ps.FirstMother(p2)
	if !ok1 || !ok2 || m1.Index != m2.Index {
		return -1
	}
	if m1.PDG != motherPDG {
		return -1
	}
	return m1.Index
}

// FindResonance returns the index of a light-flavour or quarkonium mother
// shared by an electron-positron pair, in either leg order, or -1.
func FindResonance(ps Particles, p1, p2 *Particle) int {
	for _, pdg := range Resonances {
		if id := FindCommonMother(ps, p1, p2, -Electron, Electron, pdg); id >= 0 {
			return id
		}
		if id := FindCommonMother(ps, p2, p1, -Electron, Electron, pdg); id >= 0 {
			return id
		}
	}
	return -1
}

// FromBeauty returns the index of the first open-beauty hadron up the
// first-mother chain of p, p excluded, or -1.
func FromBeauty(ps Particles, p *Particle) int {
	return findAncestor(ps, p, IsBeautyHadron)
}

// FromCharm returns the index of the first open-charm hadron up the
// first-mother chain of p, p excluded, or -1.
func FromCharm(ps Particles, p *Particle) int {
	return findAncestor(ps, p, IsCharmHadron)
}

func findAncestor(ps Particles, p *Particle, match func(int) bool) int {
	// bounded by the table size so malformed links cannot loop forever
	for steps := 0; steps < len(ps); steps++ {
		mother, ok := ps.FirstMother(p)
		if !ok {
			return -1
		}
		if match(mother.PDG) {
			return mother.Index
		}
		p = mother
	}
	return -1
}

// ClassifyHF classifies a lepton pair by the open heavy-flavour hadrons
// its legs decayed from.
func ClassifyHF(ps Particles, p1, p2 *Particle) HFType {
	if p1 == nil || p2 == nil || p1.Index == p2.Index {
		return HFUndef
	}
	m1, ok1 := ps.FirstMother(p1)
	m2, ok2 := ps.FirstMother(p2)
	if !ok1 || !ok2 || m1.Index == m2.Index {
		return HFUndef
	}

	c1, b1 := IsCharmHadron(m1.PDG), IsBeautyHadron(m1.PDG)
	c2, b2 := IsCharmHadron(m2.PDG), IsBeautyHadron(m2.PDG)
	switch {
	case c1 && c2:
		fromB1, fromB2 := FromBeauty(ps, m1) >= 0, FromBeauty(ps, m2) >= 0
		switch {
		case !fromB1 && !fromB2:
			return CeCe
		case fromB1 && fromB2:
			return BCeBCe
		}
	case b1 && b2:
		return BeBe
	case c1 && b2:
		return sameOrDiffB(FromBeauty(ps, m1), m2.Index)
	case b1 && c2:
		return sameOrDiffB(FromBeauty(ps, m2), m1.Index)
	}
	return HFUndef
}

func sameOrDiffB(charmAncestor, beauty int) HFType {
	switch {
	case charmAncestor < 0:
		return HFUndef
	case charmAncestor == beauty:
		return BCeBeSameB
	}
	return BCeBeDiffB
}

// Classify runs both searches. A resonance match takes precedence over a
// heavy-flavour match.
func Classify(ps Particles, p1, p2 *Particle) Classification {
	if id := FindResonance(ps, p1, p2); id >= 0 {
		return Classification{Kind: Resonance, Mother: id}
	}
	if hf := ClassifyHF(ps, p1, p2); hf != HFUndef {
		return Classification{Kind: HeavyFlavour, Mother: -1, HF: hf}
	}
	return Classification{Kind: None, Mother: -1}
}
