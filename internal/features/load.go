package features

import (
	"fmt"
	"log/slog"
)

// FitEncoder fits a OneHotEncoder on the given columns of the dataset.
func FitEncoder(dataset *Dataset, columns []string) (*OneHotEncoder, error) {
	rows, err := dataset.StringRows(columns)
	if err != nil {
		return nil, err
	}
	return FitOneHotEncoder(columns, rows)
}

// LoadRegistry reads the historical dataset, derives the categorical columns
// from it and fits the encoder on them. The returned assembler produces rows
// ordered like featureNames.
func LoadRegistry(datasetPath string, featureNames []string) (*Assembler, error) {
	dataset, err := ReadDataset(datasetPath)
	if err != nil {
		return nil, err
	}

	categorical := dataset.CategoricalColumns()

	registry, err := NewRegistry(categorical, featureNames)
	if err != nil {
		return nil, fmt.Errorf("error building feature registry: %w", err)
	}

	encoder, err := FitEncoder(dataset, categorical)
	if err != nil {
		return nil, fmt.Errorf("error fitting categorical encoder: %w", err)
	}

	slog.Info("loaded feature registry", "dataset", datasetPath, "rows", len(dataset.Rows), "categorical_columns", categorical, "encoded_columns", encoder.Width(), "model_features", len(featureNames))

	return NewAssembler(registry, encoder)
}

func (a *Assembler) Registry() *Registry {
	return a.registry
}

func (a *Assembler) Encoder() *OneHotEncoder {
	return a.encoder
}
