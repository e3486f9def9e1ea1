// Package conditions retrieves run-dependent calibration objects and
// caches the field and beam parameters of the current run.
package conditions

import (
	"context"
	"errors"
	"math"

	"github.com/decibelcooper/dileptonqc/mcutil"
	"github.com/decibelcooper/dileptonqc/pair"
)

// ErrNotFound is returned when no object covers the requested timestamp.
var ErrNotFound = errors.New("conditions object not found")

// Object paths.
const (
	PathGRP      = "GLO/GRP/GRP"
	PathMagField = "GLO/Config/GRPMagField"
	PathLHCIF    = "GLO/Config/GRPLHCIF"
)

// Provider looks up the object valid at a timestamp (ms) and decodes it
// into dst.
type Provider interface {
	Fetch(ctx context.Context, path string, timestamp int64, dst any) error
}

// GRP is the global run parameter object.
type GRP struct {
	NominalL3Field float64 `json:"nominal_l3_field"` // kG
}

// MagField holds the magnet currents of a run.
type MagField struct {
	L3Current     float64 `json:"l3_current"` // A
	DipoleCurrent float64 `json:"dipole_current"`
}

// Bz is the nominal solenoid field in kG, 30 kA giving 5 kG.
func (m MagField) Bz() float64 {
	return math.Round(5 * m.L3Current / 30000)
}

// Beam sides of LHCIF arrays.
const (
	BeamC = 0
	BeamA = 1
)

// LHCIF describes the colliding beams.
type LHCIF struct {
	BeamEnergyPerZ float64 `json:"beam_energy_per_z" yaml:"beam_energy_per_z"` // GeV
	BeamZ          [2]int  `json:"beam_z" yaml:"beam_z"`
	BeamA          [2]int  `json:"beam_a" yaml:"beam_a"`
}

// EnergyPerNucleon returns the beam energy per nucleon of one side.
func (l LHCIF) EnergyPerNucleon(side int) float64 {
	if l.BeamA[side] == 0 {
		return 0
	}
	return l.BeamEnergyPerZ * float64(l.BeamZ[side]) / float64(l.BeamA[side])
}

// Beams converts the beam description into the pair frame inputs. Beam 1
// is the C side.
func (l LHCIF) Beams() pair.Beams {
	m1 := mcutil.MassProton * float64(l.BeamA[BeamC])
	m2 := mcutil.MassProton * float64(l.BeamA[BeamA])
	e1 := l.EnergyPerNucleon(BeamC)
	e2 := l.EnergyPerNucleon(BeamA)
	return pair.Beams{
		M1: m1, E1: e1, P1: momentum(e1, m1),
		M2: m2, E2: e2, P2: momentum(e2, m2),
	}
}

func momentum(e, m float64) float64 {
	if e <= m {
		return 0
	}
	return math.Sqrt(e*e - m*m)
}

// ProtonProton returns symmetric proton beams with the given energy.
func ProtonProton(energy float64) LHCIF {
	return LHCIF{BeamEnergyPerZ: energy, BeamZ: [2]int{1, 1}, BeamA: [2]int{1, 1}}
}
