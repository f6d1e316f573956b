package core

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
)

type catBoostSplit struct {
	Border            float64 `json:"border"`
	FloatFeatureIndex int     `json:"float_feature_index"`
	SplitType         string  `json:"split_type"`
}

type catBoostTree struct {
	LeafValues []float64       `json:"leaf_values"`
	Splits     []catBoostSplit `json:"splits"`
}

type catBoostFloatFeature struct {
	FeatureIndex     int    `json:"feature_index"`
	FlatFeatureIndex int    `json:"flat_feature_index"`
	FeatureId        string `json:"feature_id"`
}

type catBoostJson struct {
	FeaturesInfo struct {
		FloatFeatures       []catBoostFloatFeature `json:"float_features"`
		CategoricalFeatures []json.RawMessage      `json:"categorical_features"`
	} `json:"features_info"`
	ObliviousTrees []catBoostTree    `json:"oblivious_trees"`
	ScaleAndBias   []json.RawMessage `json:"scale_and_bias"`
}

// CatBoostModel evaluates a CatBoost regressor exported with
// save_model(format="json"). Only float features and single dimension
// oblivious trees are supported.
type CatBoostModel struct {
	featureNames []string
	trees        []catBoostTree
	columns      [][]int
	scale        float64
	bias         float64
}

// LoadCatBoostModel reads an exported model. When featureNames is empty the
// feature ids stored in the model are used.
func LoadCatBoostModel(path string, featureNames []string) (*CatBoostModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading catboost model: %w", err)
	}

	var raw catBoostJson
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("error parsing catboost model %s: %w", path, err)
	}

	return newCatBoostModel(raw, featureNames)
}

func newCatBoostModel(raw catBoostJson, featureNames []string) (*CatBoostModel, error) {
	if len(raw.FeaturesInfo.CategoricalFeatures) > 0 {
		return nil, fmt.Errorf("catboost models with categorical features are not supported")
	}

	floats := raw.FeaturesInfo.FloatFeatures
	flatIndex := make(map[int]int, len(floats))
	embedded := make([]string, len(floats))
	for _, f := range floats {
		if f.FlatFeatureIndex < 0 || f.FlatFeatureIndex >= len(floats) {
			return nil, fmt.Errorf("catboost float feature %d has invalid flat index %d", f.FeatureIndex, f.FlatFeatureIndex)
		}
		flatIndex[f.FeatureIndex] = f.FlatFeatureIndex
		embedded[f.FlatFeatureIndex] = f.FeatureId
	}

	if len(featureNames) == 0 {
		featureNames = embedded
	} else if len(featureNames) != len(floats) {
		return nil, fmt.Errorf("catboost model has %d features but %d feature names were given", len(floats), len(featureNames))
	}

	for i, name := range featureNames {
		if name == "" {
			return nil, fmt.Errorf("catboost feature %d has no name", i)
		}
	}

	columns := make([][]int, len(raw.ObliviousTrees))
	for t, tree := range raw.ObliviousTrees {
		if len(tree.LeafValues) != 1<<len(tree.Splits) {
			return nil, fmt.Errorf("catboost tree %d has %d leaves for depth %d", t, len(tree.LeafValues), len(tree.Splits))
		}
		columns[t] = make([]int, len(tree.Splits))
		for s, split := range tree.Splits {
			if split.SplitType != "" && split.SplitType != "FloatFeature" {
				return nil, fmt.Errorf("catboost tree %d uses unsupported split type '%s'", t, split.SplitType)
			}
			col, ok := flatIndex[split.FloatFeatureIndex]
			if !ok {
				return nil, fmt.Errorf("catboost tree %d splits on unknown float feature %d", t, split.FloatFeatureIndex)
			}
			columns[t][s] = col
		}
	}

	scale, bias, err := parseScaleAndBias(raw.ScaleAndBias)
	if err != nil {
		return nil, err
	}

	return &CatBoostModel{
		featureNames: slices.Clone(featureNames),
		trees:        raw.ObliviousTrees,
		columns:      columns,
		scale:        scale,
		bias:         bias,
	}, nil
}

// Older exports store the bias as a number, newer ones as a one element list.
func parseScaleAndBias(raw []json.RawMessage) (float64, float64, error) {
	if len(raw) == 0 {
		return 1, 0, nil
	}
	if len(raw) != 2 {
		return 0, 0, fmt.Errorf("invalid catboost scale_and_bias")
	}

	var scale float64
	if err := json.Unmarshal(raw[0], &scale); err != nil {
		return 0, 0, fmt.Errorf("invalid catboost scale: %w", err)
	}

	var bias float64
	if err := json.Unmarshal(raw[1], &bias); err == nil {
		return scale, bias, nil
	}

	var biases []float64
	if err := json.Unmarshal(raw[1], &biases); err != nil {
		return 0, 0, fmt.Errorf("invalid catboost bias: %w", err)
	}
	if len(biases) > 1 {
		return 0, 0, fmt.Errorf("multi-dimensional catboost models are not supported")
	}
	if len(biases) == 1 {
		bias = biases[0]
	}
	return scale, bias, nil
}

func (m *CatBoostModel) FeatureNames() []string {
	return slices.Clone(m.featureNames)
}

func (m *CatBoostModel) Predict(row []float64) (float64, error) {
	if len(row) != len(m.featureNames) {
		return 0, fmt.Errorf("expected %d features, got %d", len(m.featureNames), len(row))
	}

	sum := 0.0
	for t, tree := range m.trees {
		leaf := 0
		for s, split := range tree.Splits {
			if row[m.columns[t][s]] > split.Border {
				leaf |= 1 << s
			}
		}
		sum += tree.LeafValues[leaf]
	}

	return m.scale*sum + m.bias, nil
}

func (m *CatBoostModel) Release() {}
