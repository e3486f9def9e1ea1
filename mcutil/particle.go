// Package mcutil walks Monte-Carlo ancestry graphs to classify the origin
// of dielectron pairs.
package mcutil

import "math"

// Particle is one generator or transport record. Mothers and Daughters
// hold indices into the owning Particles arena.
type Particle struct {
	Index               int
	PDG                 int
	PhysicalPrimary     bool
	ProducedByGenerator bool
	Mothers             []int
	Daughters           []int

	Px, Py, Pz, E float64
	Pt, Eta, Phi  float64
	Y             float64

	EventID int
}

// NewParticle fills the derived kinematics of a particle from its
// momentum and energy.
func NewParticle(index, pdg int, px, py, pz, e float64) Particle {
	p := Particle{Index: index, PDG: pdg, Px: px, Py: py, Pz: pz, E: e}
	p.Pt = math.Hypot(px, py)
	p.Phi = math.Atan2(py, px)
	pmag := math.Sqrt(p.Pt*p.Pt + pz*pz)
	switch {
	case p.Pt > 0:
		p.Eta = math.Asinh(pz / p.Pt)
	case pz > 0:
		p.Eta = math.Inf(1)
	case pz < 0:
		p.Eta = math.Inf(-1)
	}
	if e > math.Abs(pz) {
		p.Y = 0.5 * math.Log((e+pz)/(e-pz))
	} else if pmag > 0 {
		p.Y = math.Copysign(math.Inf(1), pz)
	}
	return p
}

// IsPrimary reports whether the particle counts as a primary for pair
// classification.
func (p *Particle) IsPrimary() bool {
	return p.PhysicalPrimary || p.ProducedByGenerator
}

// Charge returns the charge sign of a charged lepton from its PDG code.
func (p *Particle) Charge() int {
	switch {
	case p.PDG > 0:
		return -1
	case p.PDG < 0:
		return 1
	}
	return 0
}

// Particles is the particle table of one simulated event.
type Particles []Particle

// At returns the particle with the given index.
func (ps Particles) At(i int) (*Particle, bool) {
	if i < 0 || i >= len(ps) {
		return nil, false
	}
	return &ps[i], true
}

// FirstMother returns the first listed mother of p.
func (ps Particles) FirstMother(p *Particle) (*Particle, bool) {
	if p == nil || len(p.Mothers) == 0 {
		return nil, false
	}
	return ps.At(p.Mothers[0])
}

// Link sets the Index field and derives Daughters from Mothers for tables
// that only carry mother links.
func (ps Particles) Link() {
	for i := range ps {
		ps[i].Index = i
		ps[i].Daughters = ps[i].Daughters[:0]
	}
	for i := range ps {
		for _, m := range ps[i].Mothers {
			if mother, ok := ps.At(m); ok {
				mother.Daughters = append(mother.Daughters, i)
			}
		}
	}
}
