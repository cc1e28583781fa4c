package dataprocessing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CellKind distinguishes the scalar held by a Cell
type CellKind uint8

const (
	CellNull CellKind = iota
	CellText
	CellNumber
)

// Cell is a nullable scalar. Text always holds the rendered form of the
// value so that numbers read from a file keep their original spelling.
type Cell struct {
	Kind CellKind
	Text string
	Num  float64
}

// NullCell returns an absent value
func NullCell() Cell {
	return Cell{Kind: CellNull}
}

// TextCell returns a text value
func TextCell(s string) Cell {
	return Cell{Kind: CellText, Text: s}
}

// NumberCell returns a numeric value
func NumberCell(f float64) Cell {
	return Cell{Kind: CellNumber, Text: strconv.FormatFloat(f, 'f', -1, 64), Num: f}
}

// IsNull reports whether the cell is absent
func (c Cell) IsNull() bool {
	return c.Kind == CellNull
}

// IsBlank reports whether the cell is absent or only whitespace
func (c Cell) IsBlank() bool {
	return c.Kind == CellNull || strings.TrimSpace(c.Text) == ""
}

// String returns the textual form, empty for null cells
func (c Cell) String() string {
	if c.Kind == CellNull {
		return ""
	}
	return c.Text
}

// Float coerces the cell to a finite number
func (c Cell) Float() (float64, bool) {
	switch c.Kind {
	case CellNumber:
		return c.Num, true
	case CellText:
		return ParseNumber(c.Text)
	default:
		return 0, false
	}
}

// ParseNumber parses a plain decimal number, rejecting NaN and infinities
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Dataset is an ordered, rectangular table addressed by column name.
// Row positions are stable and serve as row identity.
type Dataset struct {
	columns []string
	index   map[string]int
	rows    [][]Cell
}

// NewDataset builds a dataset, padding short rows with nulls.
// Column names must be unique.
func NewDataset(columns []string, rows [][]Cell) (*Dataset, error) {
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", name)
		}
		index[name] = i
	}

	normalized := make([][]Cell, len(rows))
	for i, row := range rows {
		if len(row) > len(columns) {
			return nil, fmt.Errorf("row %d has %d cells, expected at most %d", i, len(row), len(columns))
		}
		full := make([]Cell, len(columns))
		copy(full, row)
		normalized[i] = full
	}

	cols := make([]string, len(columns))
	copy(cols, columns)

	return &Dataset{columns: cols, index: index, rows: normalized}, nil
}

// Columns returns the column names in order
func (d *Dataset) Columns() []string {
	out := make([]string, len(d.columns))
	copy(out, d.columns)
	return out
}

// Len returns the number of rows
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Width returns the number of columns
func (d *Dataset) Width() int {
	return len(d.columns)
}

// HasColumn reports whether a column exists
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Column returns a copy of the cells of a column
func (d *Dataset) Column(name string) ([]Cell, bool) {
	idx, ok := d.index[name]
	if !ok {
		return nil, false
	}
	out := make([]Cell, len(d.rows))
	for i, row := range d.rows {
		out[i] = row[idx]
	}
	return out, true
}

// Cell returns a single cell
func (d *Dataset) Cell(row int, col string) (Cell, bool) {
	idx, ok := d.index[col]
	if !ok || row < 0 || row >= len(d.rows) {
		return Cell{}, false
	}
	return d.rows[row][idx], true
}

// Set overwrites a single cell
func (d *Dataset) Set(row int, col string, value Cell) error {
	idx, ok := d.index[col]
	if !ok {
		return fmt.Errorf("unknown column %q", col)
	}
	if row < 0 || row >= len(d.rows) {
		return fmt.Errorf("row %d out of range [0,%d)", row, len(d.rows))
	}
	d.rows[row][idx] = value
	return nil
}

// Row returns a copy of a row
func (d *Dataset) Row(i int) []Cell {
	out := make([]Cell, len(d.columns))
	copy(out, d.rows[i])
	return out
}

// Clone returns a deep copy
func (d *Dataset) Clone() *Dataset {
	rows := make([][]Cell, len(d.rows))
	for i, row := range d.rows {
		rows[i] = append([]Cell(nil), row...)
	}
	index := make(map[string]int, len(d.index))
	for k, v := range d.index {
		index[k] = v
	}
	return &Dataset{columns: d.Columns(), index: index, rows: rows}
}

// Records renders every row as strings, nulls as empty strings
func (d *Dataset) Records() [][]string {
	out := make([][]string, len(d.rows))
	for i, row := range d.rows {
		rec := make([]string, len(row))
		for j, c := range row {
			rec[j] = c.String()
		}
		out[i] = rec
	}
	return out
}
