package core

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"house-price-backend/internal/features"
)

// Pipeline bundles the feature assembler and the model. It is built once at
// startup and shared read-only by all requests.
type Pipeline struct {
	assembler *features.Assembler
	model     Regressor
}

type Prediction struct {
	Input features.Record
	Price float64
}

func NewPipeline(assembler *features.Assembler, model Regressor) (*Pipeline, error) {
	if err := features.CheckColumns(assembler.Registry().FeatureNames(), model.FeatureNames()); err != nil {
		return nil, err
	}
	return &Pipeline{assembler: assembler, model: model}, nil
}

// LoadPipeline reads the manifest in dir, loads the model with the matching
// loader and fits the encoder on the historical dataset.
func LoadPipeline(dir string, loaders map[ModelType]ModelLoader) (*Pipeline, error) {
	manifest, err := LoadManifest(dir)
	if err != nil {
		return nil, err
	}

	loader, ok := loaders[manifest.ModelType]
	if !ok {
		return nil, fmt.Errorf("unsupported model type '%s'", manifest.ModelType)
	}

	model, err := loader(dir, manifest)
	if err != nil {
		return nil, fmt.Errorf("error loading %s model: %w", manifest.ModelType, err)
	}

	pipeline, err := newPipelineFromDataset(filepath.Join(dir, manifest.DatasetFile), model)
	if err != nil {
		model.Release()
		return nil, err
	}

	slog.Info("loaded prediction pipeline", "model_type", manifest.ModelType, "features", len(model.FeatureNames()))

	return pipeline, nil
}

func newPipelineFromDataset(datasetPath string, model Regressor) (*Pipeline, error) {
	assembler, err := features.LoadRegistry(datasetPath, model.FeatureNames())
	if err != nil {
		return nil, err
	}
	return NewPipeline(assembler, model)
}

func (p *Pipeline) FeatureNames() []string {
	return p.model.FeatureNames()
}

func (p *Pipeline) Predict(input features.RawInput) (Prediction, error) {
	record := input.Record()

	row, err := p.assembler.Assemble(record)
	if err != nil {
		return Prediction{}, err
	}

	price, err := Invoke(p.model, row)
	if err != nil {
		return Prediction{}, err
	}

	return Prediction{Input: record, Price: price}, nil
}

func (p *Pipeline) Release() {
	p.model.Release()
}
