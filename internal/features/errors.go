package features

import (
	"errors"
	"fmt"
)

var (
	ErrSchemaMismatch = errors.New("feature schema mismatch")
	ErrEncoding       = errors.New("feature encoding failed")
)

// CheckColumns returns ErrSchemaMismatch unless got and want hold the same
// column names in the same order.
func CheckColumns(got, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("%w: row has %d columns, model expects %d", ErrSchemaMismatch, len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("%w: column %d is '%s', model expects '%s'", ErrSchemaMismatch, i, got[i], want[i])
		}
	}
	return nil
}
