package stream

import (
	"context"
	"errors"
	"fmt"

	"github.com/MeKo-Tech/hisrgb/internal/hisrgb"
)

// ErrRowOutOfRange is returned when a row index is outside the band.
var ErrRowOutOfRange = errors.New("row out of range")

// MemoryBand is an in-memory band usable as both RowSource and RowSink.
type MemoryBand struct {
	Rows []hisrgb.Row

	// Writes records the row indices passed to WriteRow, in call order.
	Writes []int
}

// NewMemoryBand allocates a band of rows x columns zero cells.
func NewMemoryBand(rows, columns int) *MemoryBand {
	b := &MemoryBand{Rows: make([]hisrgb.Row, rows)}
	for i := range b.Rows {
		b.Rows[i] = hisrgb.NewRow(columns)
	}
	return b
}

// ReadRow copies row into dst.
func (b *MemoryBand) ReadRow(_ context.Context, row int, dst hisrgb.Row) error {
	if row < 0 || row >= len(b.Rows) {
		return fmt.Errorf("%w: %d of %d", ErrRowOutOfRange, row, len(b.Rows))
	}
	if len(dst) != len(b.Rows[row]) {
		return fmt.Errorf("buffer has %d columns, band row has %d", len(dst), len(b.Rows[row]))
	}
	copy(dst, b.Rows[row])
	return nil
}

// WriteRow stores a copy of src as row.
func (b *MemoryBand) WriteRow(_ context.Context, row int, src hisrgb.Row) error {
	if row < 0 || row >= len(b.Rows) {
		return fmt.Errorf("%w: %d of %d", ErrRowOutOfRange, row, len(b.Rows))
	}
	b.Rows[row] = append(b.Rows[row][:0], src...)
	b.Writes = append(b.Writes, row)
	return nil
}
