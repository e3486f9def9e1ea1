package mcutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// table builds a linked particle table from (pdg, mother) rows.
func table(rows ...[2]int) Particles {
	ps := make(Particles, len(rows))
	for i, row := range rows {
		ps[i] = Particle{PDG: row[0], ProducedByGenerator: true}
		if row[1] >= 0 {
			ps[i].Mothers = []int{row[1]}
		}
	}
	ps.Link()
	return ps
}

func TestPi0Dalitz(t *testing.T) {
	ps := table(
		[2]int{Pi0, -1},
		[2]int{Electron, 0},
		[2]int{-Electron, 0},
	)

	got := Classify(ps, &ps[1], &ps[2])
	assert.Equal(t, Resonance, got.Kind)
	assert.Equal(t, 0, got.Mother)
	assert.Equal(t, HFUndef, ClassifyHF(ps, &ps[1], &ps[2]))
	assert.Len(t, ps[0].Daughters, 2)

	// leg order does not matter
	assert.Equal(t, 0, FindResonance(ps, &ps[2], &ps[1]))
}

func TestResonanceNeedsElectronPositron(t *testing.T) {
	ps := table(
		[2]int{Pi0, -1},
		[2]int{Electron, 0},
		[2]int{Electron, 0},
	)
	assert.Equal(t, -1, FindResonance(ps, &ps[1], &ps[2]))
	assert.Equal(t, -1, FindResonance(ps, &ps[1], &ps[1]))
}

func TestResonanceOutsideAllowList(t *testing.T) {
	ps := table(
		[2]int{23, -1},
		[2]int{Electron, 0},
		[2]int{-Electron, 0},
	)
	assert.Equal(t, None, Classify(ps, &ps[1], &ps[2]).Kind)
}

func TestCharmCharm(t *testing.T) {
	ps := table(
		[2]int{421, -1},
		[2]int{-411, -1},
		[2]int{-Electron, 0},
		[2]int{Electron, 1},
	)

	got := Classify(ps, &ps[2], &ps[3])
	assert.Equal(t, HeavyFlavour, got.Kind)
	assert.Equal(t, CeCe, got.HF)
	assert.Equal(t, -1, got.Mother)
	assert.True(t, got.HF.ExpectedULS())
}

func TestHeavyFlavourCategories(t *testing.T) {
	tests := []struct {
		name string
		ps   Particles
		want HFType
	}{
		{
			name: "beauty-beauty",
			ps: table(
				[2]int{511, -1},
				[2]int{-521, -1},
				[2]int{-Electron, 0},
				[2]int{Electron, 1},
			),
			want: BeBe,
		},
		{
			name: "beauty via charm on both legs",
			ps: table(
				[2]int{511, -1},
				[2]int{-511, -1},
				[2]int{-411, 0},
				[2]int{421, 1},
				[2]int{-Electron, 2},
				[2]int{Electron, 3},
			),
			want: BCeBCe,
		},
		{
			name: "same beauty",
			ps: table(
				[2]int{-511, -1},
				[2]int{411, 0},
				[2]int{-Electron, 1},
				[2]int{Electron, 0},
			),
			want: BCeBeSameB,
		},
		{
			name: "different beauty",
			ps: table(
				[2]int{-511, -1},
				[2]int{521, -1},
				[2]int{411, 0},
				[2]int{-Electron, 2},
				[2]int{-Electron, 1},
			),
			want: BCeBeDiffB,
		},
		{
			name: "prompt and non-prompt charm",
			ps: table(
				[2]int{511, -1},
				[2]int{-411, 0},
				[2]int{421, -1},
				[2]int{-Electron, 1},
				[2]int{Electron, 2},
			),
			want: HFUndef,
		},
		{
			name: "light flavour",
			ps: table(
				[2]int{211, -1},
				[2]int{-211, -1},
				[2]int{-Electron, 0},
				[2]int{Electron, 1},
			),
			want: HFUndef,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := len(tt.ps)
			got := ClassifyHF(tt.ps, &tt.ps[n-2], &tt.ps[n-1])
			assert.Equal(t, tt.want, got)
			// symmetric in the legs
			assert.Equal(t, tt.want, ClassifyHF(tt.ps, &tt.ps[n-1], &tt.ps[n-2]))
		})
	}
	assert.False(t, BCeBeDiffB.ExpectedULS())
}

func TestResonanceTakesPrecedence(t *testing.T) {
	// non-prompt J/psi: legs trace to a beauty hadron through their mother
	ps := table(
		[2]int{521, -1},
		[2]int{JPsi, 0},
		[2]int{Electron, 1},
		[2]int{-Electron, 1},
	)

	got := Classify(ps, &ps[2], &ps[3])
	require.Equal(t, Resonance, got.Kind)
	assert.Equal(t, 1, got.Mother)
	assert.Equal(t, 0, FromBeauty(ps, &ps[1]))
}

func TestAncestorWalk(t *testing.T) {
	ps := table(
		[2]int{5122, -1},
		[2]int{4122, 0},
		[2]int{3122, 1},
		[2]int{Electron, 1},
	)
	assert.Equal(t, 0, FromBeauty(ps, &ps[3]))
	assert.Equal(t, 1, FromCharm(ps, &ps[3]))
	assert.Equal(t, -1, FromBeauty(ps, &ps[0]))

	// a malformed cycle terminates
	cyc := table([2]int{421, 1}, [2]int{11, 0})
	assert.Equal(t, -1, FromBeauty(cyc, &cyc[1]))
}

func TestHadronFamilies(t *testing.T) {
	assert.True(t, IsCharmMeson(421))
	assert.True(t, IsCharmMeson(-10411))
	assert.True(t, IsCharmBaryon(4122))
	assert.True(t, IsBeautyMeson(-521))
	assert.True(t, IsBeautyMeson(541))
	assert.True(t, IsBeautyBaryon(5232))

	for _, pdg := range []int{JPsi, Psi2S, Upsilon1S, 441, 211, 11, 22, 4403, 1000822080} {
		assert.False(t, IsCharmHadron(pdg), "pdg %d", pdg)
		assert.False(t, IsBeautyHadron(pdg), "pdg %d", pdg)
	}
}

func TestNewParticle(t *testing.T) {
	p := NewParticle(3, Electron, 1, 0, 0, 1)
	assert.InDelta(t, 1.0, p.Pt, 1e-12)
	assert.InDelta(t, 0.0, p.Eta, 1e-12)
	assert.Equal(t, -1, p.Charge())
	assert.Equal(t, 3, p.Index)
}
