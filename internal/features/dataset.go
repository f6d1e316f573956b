package features

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// MissingCategory is the value an empty cell of a categorical column takes
// when the column is coerced to strings, matching how the training data was
// prepared.
const MissingCategory = "nan"

// Dataset is the historical training table, kept as raw strings so that the
// column typing can be inferred the same way it was at training time.
type Dataset struct {
	Header []string
	Rows   [][]string

	index map[string]int
}

func ReadDataset(path string) (*Dataset, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("error opening dataset: %w", err)
		}
		defer file.Close()

		return ReadCSV(file)
	case ".xlsx":
		return readXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported dataset format '%s'", ext)
	}
}

func ReadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading csv dataset: %w", err)
	}

	return NewDataset(records)
}

func readXLSX(path string) (*Dataset, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("error opening xlsx dataset: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx dataset %s has no sheets", path)
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("error reading sheet '%s': %w", sheets[0], err)
	}

	return NewDataset(rows)
}

// NewDataset builds a dataset from records whose first entry is the header.
// Short rows are padded with empty cells and long rows are truncated.
func NewDataset(records [][]string) (*Dataset, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset has no header row")
	}

	header := make([]string, len(records[0]))
	index := make(map[string]int, len(header))
	for i, name := range records[0] {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("dataset header has an empty column name at position %d", i)
		}
		if _, ok := index[name]; ok {
			return nil, fmt.Errorf("dataset header has duplicate column '%s'", name)
		}
		header[i] = name
		index[name] = i
	}

	rows := make([][]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make([]string, len(header))
		copy(row, record)
		rows = append(rows, row)
	}

	return &Dataset{Header: header, Rows: rows, index: index}, nil
}

func (d *Dataset) Column(name string) ([]string, error) {
	i, ok := d.index[name]
	if !ok {
		return nil, fmt.Errorf("dataset has no column '%s'", name)
	}

	values := make([]string, len(d.Rows))
	for j, row := range d.Rows {
		values[j] = row[i]
	}
	return values, nil
}

// CategoricalColumns returns, in header order, every column holding at least
// one non-empty value that does not parse as a number.
func (d *Dataset) CategoricalColumns() []string {
	var categorical []string
	for i, name := range d.Header {
		for _, row := range d.Rows {
			cell := strings.TrimSpace(row[i])
			if cell == "" {
				continue
			}
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				categorical = append(categorical, name)
				break
			}
		}
	}
	return categorical
}

// StringRows projects the dataset onto the given columns with every cell
// coerced to a string category. Empty cells become MissingCategory.
func (d *Dataset) StringRows(columns []string) ([][]string, error) {
	positions := make([]int, len(columns))
	for i, name := range columns {
		pos, ok := d.index[name]
		if !ok {
			return nil, fmt.Errorf("dataset has no column '%s'", name)
		}
		positions[i] = pos
	}

	rows := make([][]string, len(d.Rows))
	for j, row := range d.Rows {
		out := make([]string, len(columns))
		for i, pos := range positions {
			cell := strings.TrimSpace(row[pos])
			if cell == "" {
				cell = MissingCategory
			}
			out[i] = cell
		}
		rows[j] = out
	}
	return rows, nil
}
