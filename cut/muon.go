package cut

import "github.com/decibelcooper/dileptonqc/event"

// MuonCut selects forward muons.
type MuonCut struct {
	TrackType int     `yaml:"cfg_track_type"`
	EtaMin    float64 `yaml:"cfg_eta_min"`
	EtaMax    float64 `yaml:"cfg_eta_max"`
	RAbsMin   float64 `yaml:"cfg_rabs_min"`
	RAbsMax   float64 `yaml:"cfg_rabs_max"`
	PDcaMax   float64 `yaml:"cfg_pdca_max"`
}

func DefaultMuonCut() MuonCut {
	return MuonCut{
		TrackType: 0,
		EtaMin:    -3.6,
		EtaMax:    -2.5,
		RAbsMin:   26.5,
		RAbsMax:   89.5,
		PDcaMax:   594,
	}
}

// IsSelected applies η ∈ [min, max), rAbs ∈ [min, max) and pDCA < max.
func (c *MuonCut) IsSelected(m *event.Muon) bool {
	if m.TrackType != c.TrackType {
		return false
	}
	if m.Eta < c.EtaMin || m.Eta >= c.EtaMax {
		return false
	}
	if m.RAbs < c.RAbsMin || m.RAbs >= c.RAbsMax {
		return false
	}
	return m.PDca < c.PDcaMax
}
