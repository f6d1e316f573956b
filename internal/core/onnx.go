//go:build !windows

package core

import (
	"fmt"
	"slices"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	initOnce sync.Once
	initErr  error
)

// InitOnnxRuntime loads the onnxruntime shared library. It must be called
// before any onnx model is loaded.
func InitOnnxRuntime(dylib string) error {
	initOnce.Do(func() {
		if dylib != "" {
			ort.SetSharedLibraryPath(dylib)
		}
		initErr = ort.InitializeEnvironment()
	})
	return initErr
}

func DestroyOnnxRuntime() error {
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

// OnnxModel runs a regression graph with a single float32 input of shape
// [1, n] and a single output holding the prediction.
type OnnxModel struct {
	session      *ort.DynamicAdvancedSession
	featureNames []string
}

func LoadOnnxModel(path, inputName, outputName string, featureNames []string) (*OnnxModel, error) {
	if inputName == "" || outputName == "" {
		return nil, fmt.Errorf("onnx_input and onnx_output must be set for onnx models")
	}

	if !ort.IsInitialized() {
		return nil, fmt.Errorf("onnx runtime is not initialized")
	}

	session, err := ort.NewDynamicAdvancedSession(path, []string{inputName}, []string{outputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create onnx session: %w", err)
	}

	return &OnnxModel{session: session, featureNames: slices.Clone(featureNames)}, nil
}

func (m *OnnxModel) FeatureNames() []string {
	return slices.Clone(m.featureNames)
}

func (m *OnnxModel) Predict(row []float64) (float64, error) {
	if len(row) != len(m.featureNames) {
		return 0, fmt.Errorf("expected %d features, got %d", len(m.featureNames), len(row))
	}

	data := make([]float32, len(row))
	for i, v := range row {
		data[i] = float32(v)
	}

	inT, err := ort.NewTensor(ort.NewShape(1, int64(len(data))), data)
	if err != nil {
		return 0, err
	}
	defer inT.Destroy()

	outT, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		return 0, err
	}
	defer outT.Destroy()

	if err := m.session.Run([]ort.Value{inT}, []ort.Value{outT}); err != nil {
		return 0, fmt.Errorf("session run error: %w", err)
	}

	return float64(outT.GetData()[0]), nil
}

func (m *OnnxModel) Release() {
	m.session.Destroy()
}
