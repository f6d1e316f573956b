package features

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Kind int

const (
	KindText Kind = iota
	KindInt
	KindFloat
)

type Field struct {
	Name   string
	Kind   Kind
	Text   string
	Number float64
}

func TextField(name, value string) Field {
	return Field{Name: name, Kind: KindText, Text: value}
}

func IntField(name string, value int64) Field {
	return Field{Name: name, Kind: KindInt, Number: float64(value)}
}

func FloatField(name string, value float64) Field {
	return Field{Name: name, Kind: KindFloat, Number: value}
}

// String renders the field the way a categorical column is coerced before
// encoding: integers without a fraction, floats in shortest form with a
// trailing ".0" when integral.
func (f Field) String() string {
	switch f.Kind {
	case KindText:
		return f.Text
	case KindInt:
		return strconv.FormatInt(int64(f.Number), 10)
	default:
		return formatFloat(f.Number)
	}
}

// Float returns the numeric value of the field. Text fields must parse as a
// number.
func (f Field) Float() (float64, error) {
	if f.Kind != KindText {
		return f.Number, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(f.Text), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: column '%s' has non-numeric value '%s'", ErrEncoding, f.Name, f.Text)
	}
	return v, nil
}

func (f Field) Value() any {
	switch f.Kind {
	case KindText:
		return f.Text
	case KindInt:
		return int64(f.Number)
	default:
		return f.Number
	}
}

func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Record is the flat, ordered set of named values describing one house.
type Record []Field

func (r Record) Lookup(name string) (Field, bool) {
	for _, f := range r {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Snapshot returns the record as a plain map for persistence.
func (r Record) Snapshot() map[string]any {
	out := make(map[string]any, len(r))
	for _, f := range r {
		out[f.Name] = f.Value()
	}
	return out
}
