package features

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
)

// Registry holds the categorical column set of the training data and the
// ordered feature list the model was trained on. It is immutable once built.
type Registry struct {
	categorical  []string
	isCategory   map[string]struct{}
	featureNames []string
	isFeature    map[string]struct{}
}

func NewRegistry(categorical, featureNames []string) (*Registry, error) {
	if len(featureNames) == 0 {
		return nil, fmt.Errorf("model declares no feature names")
	}

	seen := make(map[string]struct{}, len(featureNames))
	for _, name := range featureNames {
		if name == "" {
			return nil, fmt.Errorf("model declares an empty feature name")
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("model declares duplicate feature '%s'", name)
		}
		seen[name] = struct{}{}
	}

	isCategory := make(map[string]struct{}, len(categorical))
	for _, col := range categorical {
		if _, ok := isCategory[col]; ok {
			return nil, fmt.Errorf("duplicate categorical column '%s'", col)
		}
		isCategory[col] = struct{}{}
	}

	return &Registry{
		categorical:  slices.Clone(categorical),
		isCategory:   isCategory,
		featureNames: slices.Clone(featureNames),
		isFeature:    seen,
	}, nil
}

func (r *Registry) CategoricalColumns() []string {
	return slices.Clone(r.categorical)
}

func (r *Registry) FeatureNames() []string {
	return slices.Clone(r.featureNames)
}

func (r *Registry) IsCategorical(column string) bool {
	_, ok := r.isCategory[column]
	return ok
}

// Expects reports whether the model was trained on the column.
func (r *Registry) Expects(column string) bool {
	_, ok := r.isFeature[column]
	return ok
}

// ReadFeatureNames loads a JSON array of feature names.
func ReadFeatureNames(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading feature names: %w", err)
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("error parsing feature names from %s: %w", path, err)
	}
	return names, nil
}
