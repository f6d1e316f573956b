package core

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

const ManifestFile = "manifest.yaml"

// Manifest describes the artifacts the service needs to build its pipeline.
// File names are relative to the artifact directory.
type Manifest struct {
	ModelType        ModelType `yaml:"model_type"`
	ModelFile        string    `yaml:"model_file"`
	FeatureNamesFile string    `yaml:"feature_names_file"`
	DatasetFile      string    `yaml:"dataset_file"`

	OnnxInput  string `yaml:"onnx_input"`
	OnnxOutput string `yaml:"onnx_output"`

	Endpoint       string `yaml:"endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func LoadManifest(dir string) (Manifest, error) {
	path := filepath.Join(dir, ManifestFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("error reading artifact manifest: %w", err)
	}

	var manifest Manifest
	if err := yaml.UnmarshalStrict(data, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("error parsing artifact manifest %s: %w", path, err)
	}

	if err := manifest.Validate(); err != nil {
		return Manifest{}, err
	}

	return manifest, nil
}

func (m Manifest) Validate() error {
	if m.ModelType == "" {
		return fmt.Errorf("manifest must specify model_type")
	}
	if m.DatasetFile == "" {
		return fmt.Errorf("manifest must specify dataset_file")
	}
	if m.ModelType != Remote && m.ModelFile == "" {
		return fmt.Errorf("manifest must specify model_file for model type '%s'", m.ModelType)
	}
	return nil
}
