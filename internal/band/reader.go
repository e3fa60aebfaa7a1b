package band

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MeKo-Tech/hisrgb/internal/hisrgb"
)

// Reader reads rows of one band.
type Reader struct {
	store *Store
	meta  Metadata
}

// Metadata returns the band metadata.
func (r *Reader) Metadata() Metadata {
	return r.meta
}

// ReadRow decodes row into dst, overwriting every cell.
func (r *Reader) ReadRow(ctx context.Context, row int, dst hisrgb.Row) error {
	if row < 0 || row >= r.meta.Rows {
		return fmt.Errorf("%w: %d of %d in %s", ErrRowOutOfRange, row, r.meta.Rows, r.meta.Name)
	}
	if len(dst) != r.meta.Columns {
		return fmt.Errorf("buffer has %d columns, %s has %d", len(dst), r.meta.Name, r.meta.Columns)
	}

	var data []byte
	err := r.store.db.QueryRowContext(ctx,
		"SELECT data FROM band_rows WHERE band = ? AND row_index = ?",
		r.meta.Name, row,
	).Scan(&data)

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %d in %s", ErrRowMissing, row, r.meta.Name)
	}
	if err != nil {
		return fmt.Errorf("failed to query row %d of %s: %w", row, r.meta.Name, err)
	}

	if err := decodeRow(data, dst); err != nil {
		return fmt.Errorf("row %d of %s: %w", row, r.meta.Name, err)
	}
	return nil
}
