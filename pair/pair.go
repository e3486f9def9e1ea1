// Package pair derives the kinematic observables of lepton pairs.
package pair

import (
	"math"

	"go-hep.org/x/hep/fmom"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mode selects how the positive lepton is identified in a pair.
type Mode int

const (
	// Reco uses the reconstructed charge sign.
	Reco Mode = iota
	// Gen uses the sign of the PDG code: -11 is the positron.
	Gen
)

// Leg is one lepton of a pair.
type Leg struct {
	Pt, Eta, Phi float64
	Mass         float64
	Sign         int
	PDG          int
}

func (l Leg) p4() *fmom.PtEtaPhiM {
	p := fmom.NewPtEtaPhiM(l.Pt, l.Eta, l.Phi, l.Mass)
	return &p
}

// Momentum returns the 3-momentum of the leg.
func (l Leg) Momentum() r3.Vec {
	return r3.Vec{
		X: l.Pt * math.Cos(l.Phi),
		Y: l.Pt * math.Sin(l.Phi),
		Z: l.Pt * math.Sinh(l.Eta),
	}
}

func (l Leg) positive(mode Mode) bool {
	if mode == Gen {
		return l.PDG < 0
	}
	return l.Sign > 0
}

// Beams holds the mass, energy and momentum of both beams. Beam 1 travels
// along -z and beam 2 along +z.
type Beams struct {
	M1, E1, P1 float64
	M2, E2, P2 float64
}

// Observables are the pair quantities filled into the dielectron
// histograms.
type Observables struct {
	Mass     float64
	Pt       float64
	Rapidity float64

	DPhi        float64 // |Δφ| between the legs
	Aco         float64
	Asym        float64
	DPhiLegPair float64 // |Δφ| between leg 1 and the pair

	CosThetaCS float64
	PhiCS      float64
}

// Compute returns the observables of the pair (l1, l2).
func Compute(l1, l2 Leg, beams Beams, mode Mode) Observables {
	v12 := fmom.Add(l1.p4(), l2.p4())

	dphi := math.Abs(WrapPhi(l1.Phi - l2.Phi))
	o := Observables{
		Mass:        v12.M(),
		Pt:          v12.Pt(),
		Rapidity:    v12.Rapidity(),
		DPhi:        dphi,
		Aco:         Acoplanarity(dphi),
		Asym:        PtAsymmetry(l1.Pt, l2.Pt),
		DPhiLegPair: math.Abs(WrapPhi(l1.Phi - v12.Phi())),
	}
	o.CosThetaCS, o.PhiCS = CollinsSoper(l1, l2, beams, mode)
	return o
}

// Mass is the invariant mass of the pair.
func Mass(l1, l2 Leg) float64 {
	return fmom.Add(l1.p4(), l2.p4()).M()
}

// WrapPhi brings an azimuthal angle into (-π, π].
func WrapPhi(phi float64) float64 {
	phi = math.Mod(phi, 2*math.Pi)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	if phi > math.Pi {
		phi -= 2 * math.Pi
	}
	return phi
}

// Acoplanarity is 1 - |Δφ|/π.
func Acoplanarity(dphi float64) float64 {
	return 1 - math.Abs(dphi)/math.Pi
}

// PtAsymmetry is |pt1-pt2|/(pt1+pt2), or 0 when both are zero.
func PtAsymmetry(pt1, pt2 float64) float64 {
	if pt1+pt2 <= 0 {
		return 0
	}
	return math.Abs(pt1-pt2) / (pt1 + pt2)
}
