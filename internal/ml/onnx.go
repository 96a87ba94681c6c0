package ml

import (
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the ONNX Runtime environment. Only the first call has
// any effect.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// ONNXModel runs a sklearn-onnx classifier exported with zipmap disabled:
// an int64 "label" output and a float32 [1, 2] "probabilities" output.
type ONNXModel struct {
	session   *ort.DynamicAdvancedSession
	inputName string
	labelName string
	probName  string
	nFeatures int64
	version   string
	mu        sync.Mutex
}

// NewONNXModel loads an ONNX classifier. If libPath is empty the runtime
// library is expected next to the model as libonnxruntime.so.
func NewONNXModel(modelPath, libPath string) (*ONNXModel, error) {
	if libPath == "" {
		libPath = filepath.Join(filepath.Dir(modelPath), "libonnxruntime.so")
	}
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}
	if len(inputs) != 1 {
		return nil, fmt.Errorf("onnx: expected 1 input tensor, got %d", len(inputs))
	}
	dims := inputs[0].Dimensions
	if len(dims) != 2 || dims[1] <= 0 {
		return nil, fmt.Errorf("onnx: expected [batch, features] input, got %v", dims)
	}

	var labelName, probName string
	for _, out := range outputs {
		switch out.Name {
		case "label", "output_label":
			labelName = out.Name
		case "probabilities", "output_probability":
			probName = out.Name
		}
	}
	if labelName == "" || probName == "" {
		return nil, fmt.Errorf("onnx: model must expose label and probabilities outputs")
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(1)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputs[0].Name},
		[]string{labelName, probName},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}

	return &ONNXModel{
		session:   session,
		inputName: inputs[0].Name,
		labelName: labelName,
		probName:  probName,
		nFeatures: dims[1],
		version:   filepath.Base(modelPath),
	}, nil
}

func (m *ONNXModel) Predict(x []float64) (int, float64, error) {
	if int64(len(x)) != m.nFeatures {
		return 0, 0, fmt.Errorf("onnx: model expects %d features, got %d", m.nFeatures, len(x))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	data := make([]float32, len(x))
	for i, v := range x {
		data[i] = float32(v)
	}

	tIn, err := ort.NewTensor(ort.NewShape(1, m.nFeatures), data)
	if err != nil {
		return 0, 0, fmt.Errorf("onnx: failed to create input tensor: %w", err)
	}
	defer tIn.Destroy()

	tLabel, err := ort.NewEmptyTensor[int64](ort.NewShape(1))
	if err != nil {
		return 0, 0, fmt.Errorf("onnx: failed to create label tensor: %w", err)
	}
	defer tLabel.Destroy()

	tProb, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 2))
	if err != nil {
		return 0, 0, fmt.Errorf("onnx: failed to create probabilities tensor: %w", err)
	}
	defer tProb.Destroy()

	if err := m.session.Run([]ort.Value{tIn}, []ort.Value{tLabel, tProb}); err != nil {
		return 0, 0, fmt.Errorf("onnx: inference failed: %w", err)
	}

	probs := tProb.GetData()
	return int(tLabel.GetData()[0]), float64(probs[1]), nil
}

func (m *ONNXModel) NumFeatures() int { return int(m.nFeatures) }
func (m *ONNXModel) Version() string  { return m.version }

// Close releases the ONNX session resources.
func (m *ONNXModel) Close() error {
	return m.session.Destroy()
}
