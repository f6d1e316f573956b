package core

import (
	"errors"
	"fmt"
	"math"

	"house-price-backend/internal/features"
)

var ErrModelInvocation = errors.New("model invocation failed")

// Invoke runs the model on one assembled row. The row columns must match the
// model's feature names exactly, including order.
func Invoke(model Regressor, row features.FeatureRow) (float64, error) {
	if err := features.CheckColumns(row.Columns, model.FeatureNames()); err != nil {
		return 0, err
	}

	price, err := model.Predict(row.Values)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrModelInvocation, err)
	}

	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("%w: model returned non-finite value %v", ErrModelInvocation, price)
	}

	return price, nil
}
