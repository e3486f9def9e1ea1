package cut

import (
	"fmt"
	"math"

	"github.com/decibelcooper/dileptonqc/event"
	"github.com/decibelcooper/dileptonqc/mcutil"
)

// EventCut selects collisions.
type EventCut struct {
	MaxZvtx                  float64 `yaml:"cfg_z_vtx"`
	RequireSel8              bool    `yaml:"cfg_require_sel8"`
	RequireFT0AND            bool    `yaml:"cfg_require_ft0and"`
	RequireNoTFB             bool    `yaml:"cfg_require_no_tfb"`
	RequireNoITSROFB         bool    `yaml:"cfg_require_no_itsrofb"`
	RequireNoSameBunchPileup bool    `yaml:"cfg_require_no_same_bunch_pileup"`
	RequireVertexITSTPC      bool    `yaml:"cfg_require_vertex_itstpc"`
	RequireGoodZvtxFT0vsPV   bool    `yaml:"cfg_require_good_zvtx_ft0_vs_pv"`
	OccupancyMin             int     `yaml:"cfg_occupancy_min"`
	OccupancyMax             int     `yaml:"cfg_occupancy_max"`
}

func DefaultEventCut() EventCut {
	return EventCut{
		MaxZvtx:       10,
		RequireSel8:   true,
		RequireFT0AND: true,
		OccupancyMin:  -1,
		OccupancyMax:  1000000000,
	}
}

func (c *EventCut) IsSelected(col *event.Collision) bool {
	if math.Abs(col.PosZ) >= c.MaxZvtx {
		return false
	}
	required := []struct {
		on  bool
		bit uint32
	}{
		{c.RequireSel8, event.SelSel8},
		{c.RequireFT0AND, event.SelFT0AND},
		{c.RequireNoTFB, event.SelNoTimeFrameBorder},
		{c.RequireNoITSROFB, event.SelNoITSROFrameBorder},
		{c.RequireNoSameBunchPileup, event.SelNoSameBunchPileup},
		{c.RequireVertexITSTPC, event.SelIsVertexITSTPC},
		{c.RequireGoodZvtxFT0vsPV, event.SelIsGoodZvtxFT0vsPV},
	}
	for _, r := range required {
		if r.on && !col.Has(r.bit) {
			return false
		}
	}
	return c.OccupancyMin <= col.Occupancy && col.Occupancy < c.OccupancyMax
}

// CentralityEstimator selects the centrality column.
type CentralityEstimator int

const (
	FT0M CentralityEstimator = iota
	FT0A
	FT0C
)

func (e CentralityEstimator) String() string {
	switch e {
	case FT0M:
		return "FT0M"
	case FT0A:
		return "FT0A"
	case FT0C:
		return "FT0C"
	}
	return fmt.Sprintf("CentralityEstimator(%d)", int(e))
}

// Centrality selects collisions by the configured estimator.
type Centrality struct {
	Estimator CentralityEstimator `yaml:"cfg_cent_estimator"`
	Min       float64             `yaml:"cfg_cent_min"`
	Max       float64             `yaml:"cfg_cent_max"`
}

func DefaultCentrality() Centrality {
	return Centrality{Estimator: FT0C, Min: 0, Max: 999}
}

// Value returns the centrality of the collision for the estimator.
func (c *Centrality) Value(col *event.Collision) float64 {
	switch c.Estimator {
	case FT0M:
		return col.CentFT0M
	case FT0A:
		return col.CentFT0A
	}
	return col.CentFT0C
}

func (c *Centrality) IsSelected(col *event.Collision) bool {
	v := c.Value(col)
	return c.Min <= v && v <= c.Max
}

// MCTrackCut is the generator-level acceptance of efficiency histograms.
type MCTrackCut struct {
	Pt  Range `yaml:"cfg_mc_pt"`
	Eta Range `yaml:"cfg_mc_eta"`
}

func DefaultMCTrackCut() MCTrackCut {
	return MCTrackCut{Pt: Range{0.05, 1e10}, Eta: Range{-0.9, 0.9}}
}

func (c *MCTrackCut) IsSelected(p *mcutil.Particle) bool {
	return c.Pt.Inside(p.Pt) && c.Eta.Inside(p.Eta)
}
