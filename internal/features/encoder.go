package features

import (
	"fmt"
	"slices"
	"sort"
)

// OneHotEncoder maps categorical columns to indicator positions. For every
// column the lexicographically smallest category seen during fitting is the
// reference category and gets no position of its own; unseen values encode
// exactly like the reference category. The encoder is read-only after
// FitOneHotEncoder returns and can be shared between goroutines.
type OneHotEncoder struct {
	columns    []string
	categories [][]string
	dropped    []string
	positions  []map[string]int
	names      []string
}

func FitOneHotEncoder(columns []string, rows [][]string) (*OneHotEncoder, error) {
	seen := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		if _, ok := seen[col]; ok {
			return nil, fmt.Errorf("duplicate categorical column '%s'", col)
		}
		seen[col] = struct{}{}
	}

	distinct := make([]map[string]struct{}, len(columns))
	for i := range distinct {
		distinct[i] = make(map[string]struct{})
	}

	for j, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("%w: training row %d has %d values, expected %d", ErrEncoding, j, len(row), len(columns))
		}
		for i, value := range row {
			distinct[i][value] = struct{}{}
		}
	}

	enc := &OneHotEncoder{
		columns:    slices.Clone(columns),
		categories: make([][]string, len(columns)),
		dropped:    make([]string, len(columns)),
		positions:  make([]map[string]int, len(columns)),
	}

	offset := 0
	for i, col := range columns {
		values := make([]string, 0, len(distinct[i]))
		for v := range distinct[i] {
			values = append(values, v)
		}
		sort.Strings(values)

		if len(values) > 0 {
			enc.dropped[i] = values[0]
			values = values[1:]
		}

		enc.categories[i] = values
		enc.positions[i] = make(map[string]int, len(values))
		for k, v := range values {
			enc.positions[i][v] = offset + k
			enc.names = append(enc.names, col+"_"+v)
		}
		offset += len(values)
	}

	return enc, nil
}

func (e *OneHotEncoder) Columns() []string {
	return slices.Clone(e.columns)
}

// FeatureNames returns the output column names, '<column>_<category>', in
// output order.
func (e *OneHotEncoder) FeatureNames() []string {
	return slices.Clone(e.names)
}

func (e *OneHotEncoder) Width() int {
	return len(e.names)
}

// Categories returns the retained categories of a column and its dropped
// reference category.
func (e *OneHotEncoder) Categories(column string) (retained []string, reference string, ok bool) {
	i := slices.Index(e.columns, column)
	if i < 0 {
		return nil, "", false
	}
	return slices.Clone(e.categories[i]), e.dropped[i], true
}

// Transform encodes rows whose values are ordered like Columns().
func (e *OneHotEncoder) Transform(rows [][]string) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for j, row := range rows {
		encoded, err := e.transformRow(row)
		if err != nil {
			return nil, err
		}
		out[j] = encoded
	}
	return out, nil
}

func (e *OneHotEncoder) transformRow(row []string) ([]float64, error) {
	if len(row) != len(e.columns) {
		return nil, fmt.Errorf("%w: row has %d categorical values, encoder was fit on %d", ErrEncoding, len(row), len(e.columns))
	}

	encoded := make([]float64, len(e.names))
	for i, value := range row {
		if pos, ok := e.positions[i][value]; ok {
			encoded[pos] = 1
		}
	}
	return encoded, nil
}
