package features

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// FeatureRow is a single numeric row with named columns.
type FeatureRow struct {
	Columns []string
	Values  []float64
}

func (r FeatureRow) Get(column string) (float64, bool) {
	i := slices.Index(r.Columns, column)
	if i < 0 {
		return 0, false
	}
	return r.Values[i], true
}

// Align selects the expected columns from row in the expected order. Columns
// missing from row are filled with 0 and extra columns are dropped. When row
// holds a column twice the first occurrence wins.
func Align(row FeatureRow, expected []string) FeatureRow {
	index := make(map[string]int, len(row.Columns))
	for i, col := range row.Columns {
		if _, ok := index[col]; !ok {
			index[col] = i
		}
	}

	values := make([]float64, len(expected))
	for i, col := range expected {
		if j, ok := index[col]; ok {
			values[i] = row.Values[j]
		}
	}

	return FeatureRow{Columns: slices.Clone(expected), Values: values}
}

// Assembler turns records into rows laid out exactly like the model's
// training features.
type Assembler struct {
	registry *Registry
	encoder  *OneHotEncoder
}

func NewAssembler(registry *Registry, encoder *OneHotEncoder) (*Assembler, error) {
	if !slices.Equal(registry.categorical, encoder.columns) {
		return nil, fmt.Errorf("%w: encoder columns %v do not match categorical columns %v", ErrSchemaMismatch, encoder.columns, registry.categorical)
	}
	return &Assembler{registry: registry, encoder: encoder}, nil
}

func (a *Assembler) Assemble(record Record) (FeatureRow, error) {
	for _, f := range record {
		if f.Kind != KindText && (math.IsNaN(f.Number) || math.IsInf(f.Number, 0)) {
			return FeatureRow{}, fmt.Errorf("%w: column '%s' is not finite", ErrEncoding, f.Name)
		}
	}

	categorical := make([]string, len(a.registry.categorical))
	for i, col := range a.registry.categorical {
		if f, ok := record.Lookup(col); ok {
			categorical[i] = f.String()
		}
	}

	encoded, err := a.encoder.Transform([][]string{categorical})
	if err != nil {
		return FeatureRow{}, err
	}

	columns := make([]string, 0, len(record)+a.encoder.Width())
	values := make([]float64, 0, len(record)+a.encoder.Width())
	for _, f := range record {
		// Unused columns are dropped by Align and empty text is filled with 0.
		if a.registry.IsCategorical(f.Name) || !a.registry.Expects(f.Name) {
			continue
		}
		if f.Kind == KindText && strings.TrimSpace(f.Text) == "" {
			continue
		}
		v, err := f.Float()
		if err != nil {
			return FeatureRow{}, err
		}
		columns = append(columns, f.Name)
		values = append(values, v)
	}

	columns = append(columns, a.encoder.names...)
	values = append(values, encoded[0]...)

	return Align(FeatureRow{Columns: columns, Values: values}, a.registry.featureNames), nil
}
