// Package pid computes particle-identification responses for tracks that
// carry raw detector signals, and wraps the ML electron classifier.
package pid

import (
	"math"

	"github.com/decibelcooper/dileptonqc/event"
	"github.com/decibelcooper/dileptonqc/mcutil"
)

// BetheBlochAleph is the ALEPH parameterisation of the specific energy
// loss as a function of βγ.
func BetheBlochAleph(bg, p1, p2, p3, p4, p5 float64) float64 {
	beta := bg / math.Sqrt(1+bg*bg)
	aa := math.Pow(beta, p4)
	bb := math.Log(p3 + math.Pow(1/bg, p5))
	return (p2 - aa - bb) * p1 / aa
}

// TPCResponse turns a dE/dx measurement into per-species deviations from
// the expected signal in units of the relative resolution.
type TPCResponse struct {
	Params     [5]float64 `yaml:"params"`
	MIP        float64    `yaml:"mip"`
	Resolution float64    `yaml:"resolution"`
}

func DefaultTPCResponse() TPCResponse {
	return TPCResponse{
		Params:     [5]float64{0.0320, 19.9768, 2.52667e-16, 2.72123, 6.08092},
		MIP:        50,
		Resolution: 0.07,
	}
}

var masses = [event.NSpecies]float64{
	event.El: mcutil.MassElectron,
	event.Mu: mcutil.MassMuon,
	event.Pi: mcutil.MassPion,
	event.Ka: mcutil.MassKaon,
	event.Pr: mcutil.MassProton,
}

// Expected returns the mean signal of a particle of the given mass at
// momentum p.
func (r TPCResponse) Expected(p, mass float64) float64 {
	q := r.Params
	return r.MIP * BetheBlochAleph(p/mass, q[0], q[1], q[2], q[3], q[4])
}

func (r TPCResponse) NSigma(signal, p, mass float64) float64 {
	exp := r.Expected(p, mass)
	return (signal - exp) / (r.Resolution * exp)
}

// Assign fills the TPC response of every species. Without a TOF signal
// the TOF deviations are set far outside any window.
func (r TPCResponse) Assign(t *event.Track) {
	for s := event.Species(0); s < event.NSpecies; s++ {
		if t.TPCSignal > 0 && t.TPCInnerParam > 0 {
			t.PID.TPC[s] = r.NSigma(t.TPCSignal, t.TPCInnerParam, masses[s])
		} else {
			t.PID.TPC[s] = -999
		}
		if !t.HasTOF() {
			t.PID.TOF[s] = -999
		}
	}
}
