// Package hisrgb converts hue/intensity/saturation raster rows to red/green/blue.
package hisrgb

import "fmt"

// Cell is a single raster value. Null cells carry no value.
type Cell struct {
	Value float64
	Null  bool
}

// CellOf returns a non-null cell holding v.
func CellOf(v float64) Cell {
	return Cell{Value: v}
}

// NullCell returns a null cell.
func NullCell() Cell {
	return Cell{Null: true}
}

func (c Cell) String() string {
	if c.Null {
		return "null"
	}
	return fmt.Sprintf("%g", c.Value)
}

// Row is one scanline of a single band.
type Row []Cell

// NewRow allocates a row of the given column count with all cells zero.
func NewRow(columns int) Row {
	return make(Row, columns)
}

// SetNull marks every cell of the row as null.
func (r Row) SetNull() {
	for i := range r {
		r[i] = NullCell()
	}
}
