package pid

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decibelcooper/dileptonqc/event"
	"github.com/decibelcooper/dileptonqc/mcutil"
)

func TestBetheBlochMinimumIonising(t *testing.T) {
	r := DefaultTPCResponse()
	// slow protons ionise much more than relativistic electrons
	assert.Greater(t, r.Expected(0.5, mcutil.MassProton), 2*r.Expected(0.5, mcutil.MassElectron))
	// the relativistic rise keeps electrons above minimum-ionising pions
	assert.Greater(t, r.Expected(0.5, mcutil.MassElectron), r.Expected(0.5, mcutil.MassPion))
}

func TestAssign(t *testing.T) {
	r := DefaultTPCResponse()
	trk := event.Track{Pt: 0.5, TPCInnerParam: 0.5, Beta: -1}
	trk.TPCSignal = r.Expected(0.5, mcutil.MassElectron)

	r.Assign(&trk)
	assert.InDelta(t, 0, trk.PID.TPC[event.El], 1e-9)
	assert.Greater(t, trk.PID.TPC[event.Pi], 1.0)
	assert.Equal(t, -999.0, trk.PID.TOF[event.El])

	none := event.Track{Beta: 0.99}
	none.PID.TOF[event.El] = 0.5
	r.Assign(&none)
	assert.Equal(t, -999.0, none.PID.TPC[event.El])
	assert.Equal(t, 0.5, none.PID.TOF[event.El])
}

func TestFeatures(t *testing.T) {
	trk := event.Track{TPCInnerParam: 1.2, Eta: 0.1, Beta: 0.98, ITSClusterMap: 0b111}
	f := Features(&trk)
	require.Len(t, f, NFeatures)
	assert.InDelta(t, 1.2, f[0], 1e-6)
	assert.InDelta(t, 3, f[NFeatures-1], 0)
}

func TestONNXModel(t *testing.T) {
	lib, model := os.Getenv("ONNXRUNTIME_LIB"), os.Getenv("PID_ONNX_MODEL")
	if lib == "" || model == "" {
		t.Skip("ONNXRUNTIME_LIB and PID_ONNX_MODEL not set")
	}

	m, err := LoadONNXModel(ONNXConfig{ModelPath: model, SharedLibrary: lib, InputName: "input", OutputName: "probabilities"})
	require.NoError(t, err)
	defer m.Close()

	score, err := m.ElectronScore(&event.Track{TPCInnerParam: 1, Beta: 1})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
}
