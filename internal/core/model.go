package core

import (
	"fmt"
	"path/filepath"
	"time"

	"house-price-backend/internal/features"
)

// ModelType represents the serialization format of the price model
type ModelType string

// Available model types
const (
	CatBoostJson ModelType = "catboost_json"
	Onnx         ModelType = "onnx"
	Remote       ModelType = "remote"
)

// Regressor is a loaded price model. FeatureNames is the ordered list of
// columns the model was trained on; Predict takes one row ordered the same way.
type Regressor interface {
	FeatureNames() []string

	Predict(row []float64) (float64, error)

	Release()
}

type ModelLoader func(dir string, manifest Manifest) (Regressor, error)

const defaultRemoteTimeout = 10 * time.Second

func NewModelLoaders() map[ModelType]ModelLoader {
	return map[ModelType]ModelLoader{
		CatBoostJson: func(dir string, manifest Manifest) (Regressor, error) {
			names, err := manifestFeatureNames(dir, manifest)
			if err != nil {
				return nil, err
			}
			model, err := LoadCatBoostModel(filepath.Join(dir, manifest.ModelFile), names)
			if err != nil {
				return nil, err
			}
			return model, nil
		},
		Onnx: func(dir string, manifest Manifest) (Regressor, error) {
			names, err := manifestFeatureNames(dir, manifest)
			if err != nil {
				return nil, err
			}
			if len(names) == 0 {
				return nil, fmt.Errorf("onnx models require feature_names_file")
			}
			model, err := LoadOnnxModel(filepath.Join(dir, manifest.ModelFile), manifest.OnnxInput, manifest.OnnxOutput, names)
			if err != nil {
				return nil, err
			}
			return model, nil
		},
		Remote: func(dir string, manifest Manifest) (Regressor, error) {
			names, err := manifestFeatureNames(dir, manifest)
			if err != nil {
				return nil, err
			}
			if len(names) == 0 {
				return nil, fmt.Errorf("remote models require feature_names_file")
			}
			timeout := defaultRemoteTimeout
			if manifest.TimeoutSeconds > 0 {
				timeout = time.Duration(manifest.TimeoutSeconds) * time.Second
			}
			model, err := NewRemoteModel(manifest.Endpoint, names, timeout)
			if err != nil {
				return nil, err
			}
			return model, nil
		},
	}
}

func manifestFeatureNames(dir string, manifest Manifest) ([]string, error) {
	if manifest.FeatureNamesFile == "" {
		return nil, nil
	}
	return features.ReadFeatureNames(filepath.Join(dir, manifest.FeatureNamesFile))
}
