package pid

import (
	"fmt"
	"math"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/decibelcooper/dileptonqc/event"
)

// NFeatures is the length of the classifier input vector.
const NFeatures = 10

// Features returns the classifier input of a track.
func Features(t *event.Track) []float32 {
	return []float32{
		float32(t.TPCInnerParam),
		float32(t.Eta),
		float32(t.TPCSignal),
		float32(t.PID.TPC[event.El]),
		float32(t.PID.TPC[event.Pi]),
		float32(t.PID.TOF[event.El]),
		float32(t.PID.TOF[event.Pi]),
		float32(t.Beta),
		float32(t.MeanClusterSizeITS * math.Cos(math.Atan(t.Tgl))),
		float32(t.ITSNCls()),
	}
}

// ONNXConfig locates the model and the onnxruntime shared library.
type ONNXConfig struct {
	ModelPath     string `yaml:"model_path"`
	SharedLibrary string `yaml:"shared_library"`
	InputName     string `yaml:"input_name"`
	OutputName    string `yaml:"output_name"`
	// NClasses is the width of the probability output; the last class
	// is the electron.
	NClasses int `yaml:"n_classes"`
}

// ONNXModel scores tracks with a binary classifier exported to ONNX.
// Calls are serialised because the session binds fixed tensors.
type ONNXModel struct {
	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

var initOnce sync.Once
var initErr error

func LoadONNXModel(cfg ONNXConfig) (*ONNXModel, error) {
	initOnce.Do(func() {
		if cfg.SharedLibrary != "" {
			ort.SetSharedLibraryPath(cfg.SharedLibrary)
		}
		initErr = ort.InitializeEnvironment()
	})
	if initErr != nil {
		return nil, fmt.Errorf("initialize onnxruntime: %w", initErr)
	}

	if cfg.NClasses < 1 {
		cfg.NClasses = 2
	}
	input, err := ort.NewTensor(ort.NewShape(1, NFeatures), make([]float32, NFeatures))
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(cfg.NClasses)))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName},
		[]ort.Value{input}, []ort.Value{output}, nil)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("load model %s: %w", cfg.ModelPath, err)
	}
	return &ONNXModel{session: session, input: input, output: output}, nil
}

// ElectronScore returns the electron probability of a track.
func (m *ONNXModel) ElectronScore(t *event.Track) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copy(m.input.GetData(), Features(t))
	if err := m.session.Run(); err != nil {
		return 0, fmt.Errorf("run pid model: %w", err)
	}
	out := m.output.GetData()
	return float64(out[len(out)-1]), nil
}

func (m *ONNXModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.session.Destroy()
	m.input.Destroy()
	m.output.Destroy()
	return err
}
