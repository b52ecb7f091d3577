package dataset

import "math"

// Kind is the inferred scalar type of a column. The names follow common
// dataframe dtype names.
type Kind string

const (
	KindInt    Kind = "int64"
	KindFloat  Kind = "float64"
	KindBool   Kind = "bool"
	KindObject Kind = "object"
)

// Numeric reports whether the kind takes part in descriptive statistics.
func (k Kind) Numeric() bool {
	return k == KindInt || k == KindFloat
}

// Column describes one named column of a Dataset.
type Column struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Dataset is an immutable in-memory table parsed from one uploaded CSV file.
//
// Cells and Missing are row-major. Values is column-major: Values[col] holds
// the parsed numbers of a numeric column (NaN where missing) and is nil for
// every other kind.
type Dataset struct {
	Name    string      `json:"name"`
	Columns []Column    `json:"columns"`
	Cells   [][]string  `json:"-"`
	Missing [][]bool    `json:"-"`
	Values  [][]float64 `json:"-"`
}

// Rows returns the number of data rows.
func (d *Dataset) Rows() int {
	if d == nil {
		return 0
	}
	return len(d.Cells)
}

// Cols returns the number of columns.
func (d *Dataset) Cols() int {
	if d == nil {
		return 0
	}
	return len(d.Columns)
}

// ColumnNames lists the column names in order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// IsMissing reports whether the cell at row, col holds no value.
func (d *Dataset) IsMissing(row, col int) bool {
	return d.Missing[row][col]
}

// Value returns the numeric value of a cell in a numeric column.
func (d *Dataset) Value(row, col int) float64 {
	if d.Values == nil || d.Values[col] == nil {
		return math.NaN()
	}
	return d.Values[col][row]
}
