package pair

import (
	"math"

	"go-hep.org/x/hep/fmom"
	"gonum.org/v1/gonum/spatial/r3"
)

func vec(p fmom.P4) r3.Vec {
	return r3.Vec{X: p.Px(), Y: p.Py(), Z: p.Pz()}
}

// CollinsSoper returns cos θ and φ of the positive lepton in the
// Collins-Soper frame of the pair.
func CollinsSoper(l1, l2 Leg, beams Beams, mode Mode) (cosTheta, phi float64) {
	v1, v2 := l1.p4(), l2.p4()
	toRest := r3.Scale(-1, fmom.BoostOf(fmom.Add(v1, v2)))

	lepton := v1
	if !l1.positive(mode) {
		lepton = v2
	}

	beam1 := fmom.NewPxPyPzE(0, 0, -beams.P1, beams.E1)
	beam2 := fmom.NewPxPyPzE(0, 0, beams.P2, beams.E2)
	b1 := r3.Unit(vec(fmom.Boost(&beam1, toRest)))
	b2 := r3.Unit(vec(fmom.Boost(&beam2, toRest)))
	u := r3.Unit(vec(fmom.Boost(lepton, toRest)))

	z := r3.Unit(r3.Sub(b1, b2))
	y := r3.Unit(r3.Cross(b1, b2))
	x := r3.Unit(r3.Cross(y, z))

	return r3.Dot(z, u), math.Atan2(r3.Dot(y, u), r3.Dot(x, u))
}

// PhiV returns the angle between the plane spanned by the two legs and the
// plane perpendicular to the magnetic field containing the pair momentum.
// Conversion pairs open in the bending plane and sit near π.
func PhiV(p1, p2 r3.Vec, sign1, sign2 int, bz float64) float64 {
	var cross r3.Vec
	if phivOrder(sign1*sign2 > 0, bz, sign1) {
		cross = r3.Cross(p1, p2)
	} else {
		cross = r3.Cross(p2, p1)
	}

	v := r3.Unit(cross)
	u := r3.Unit(r3.Add(p1, p2))
	w := r3.Cross(u, v)
	ut := math.Hypot(u.X, u.Y)
	a := r3.Vec{X: u.Y / ut, Y: -u.X / ut}

	cos := r3.Dot(w, a)
	switch {
	case cos < -1:
		cos = -1
	case cos > 1:
		cos = 1
	}
	return math.Acos(cos)
}

// phivOrder reports whether the leg cross product is taken as p1 × p2.
func phivOrder(ls bool, bz float64, sign1 int) bool {
	if ls {
		if bz < 0 {
			return sign1 > 0
		}
		return sign1 <= 0
	}
	if bz > 0 {
		return sign1 > 0
	}
	return sign1 <= 0
}

// DCA3DSigma is the 3D distance of closest approach of a track in units
// of its uncertainty. A non-positive-definite covariance gives 999.
func DCA3DSigma(dcaXY, dcaZ, cYY, cZY, cZZ float64) float64 {
	det := cYY*cZZ - cZY*cZY
	if det <= 0 {
		return 999
	}
	chi2 := (dcaXY*dcaXY*cZZ + dcaZ*dcaZ*cYY - 2*dcaXY*dcaZ*cZY) / det
	return math.Sqrt(math.Abs(chi2) / 2)
}

// PairDCA combines the single-track significances of both legs.
func PairDCA(sigma1, sigma2 float64) float64 {
	return math.Sqrt((sigma1*sigma1 + sigma2*sigma2) / 2)
}
