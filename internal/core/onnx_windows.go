//go:build windows

package core

import (
	"errors"
)

var ErrOnnxNotSupportedOnWindows = errors.New("ONNX models are not supported on Windows")

type OnnxModel struct{}

func InitOnnxRuntime(dylib string) error {
	return nil
}

func DestroyOnnxRuntime() error {
	return nil
}

func LoadOnnxModel(path, inputName, outputName string, featureNames []string) (*OnnxModel, error) {
	return nil, ErrOnnxNotSupportedOnWindows
}

func (m *OnnxModel) FeatureNames() []string {
	return nil
}

func (m *OnnxModel) Predict(row []float64) (float64, error) {
	return 0, ErrOnnxNotSupportedOnWindows
}

func (m *OnnxModel) Release() {
	// no-op
}
