package band

import (
	"context"
	"fmt"
	"sync"

	"github.com/MeKo-Tech/hisrgb/internal/hisrgb"
)

const (
	// DefaultBatchSize is the number of rows to buffer before flushing to the database.
	DefaultBatchSize = 64
)

type rowEntry struct {
	data  []byte
	index int
}

// Writer writes the rows of one band. Rows must arrive in order starting at 0.
type Writer struct {
	store     *Store
	batch     []rowEntry
	meta      Metadata
	next      int
	batchSize int
	mu        sync.Mutex
}

func newWriter(s *Store, meta Metadata) *Writer {
	return &Writer{
		store:     s,
		meta:      meta,
		batch:     make([]rowEntry, 0, DefaultBatchSize),
		batchSize: DefaultBatchSize,
	}
}

// Metadata returns the band metadata.
func (w *Writer) Metadata() Metadata {
	return w.meta
}

// WriteRow encodes src and adds it to the batch. src may be reused by the
// caller as soon as WriteRow returns.
func (w *Writer) WriteRow(ctx context.Context, row int, src hisrgb.Row) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if row < 0 || row >= w.meta.Rows {
		return fmt.Errorf("%w: %d of %d in %s", ErrRowOutOfRange, row, w.meta.Rows, w.meta.Name)
	}
	if row != w.next {
		return fmt.Errorf("%w: got row %d, expected %d in %s", ErrRowOrder, row, w.next, w.meta.Name)
	}
	if len(src) != w.meta.Columns {
		return fmt.Errorf("row %d of %s has %d columns, want %d", row, w.meta.Name, len(src), w.meta.Columns)
	}

	data, err := encodeRow(src)
	if err != nil {
		return fmt.Errorf("failed to encode row %d of %s: %w", row, w.meta.Name, err)
	}

	w.batch = append(w.batch, rowEntry{index: row, data: data})
	w.next++

	if len(w.batch) >= w.batchSize {
		return w.flushLocked(ctx)
	}

	return nil
}

// Flush writes any buffered rows to the database.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked(ctx)
}

// flushLocked writes buffered rows to the database. Must be called with lock held.
func (w *Writer) flushLocked(ctx context.Context) error {
	if len(w.batch) == 0 {
		return nil
	}

	tx, err := w.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, "INSERT OR REPLACE INTO band_rows (band, row_index, data) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range w.batch {
		if _, err := stmt.ExecContext(ctx, w.meta.Name, entry.index, entry.data); err != nil {
			return fmt.Errorf("failed to insert row %d of %s: %w", entry.index, w.meta.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	w.batch = w.batch[:0]
	return nil
}

// Close flushes remaining rows and reports an error if the band is incomplete.
// Rows written before the error stay in the mapset.
func (w *Writer) Close(ctx context.Context) error {
	if err := w.Flush(ctx); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.next != w.meta.Rows {
		return fmt.Errorf("band %s incomplete: %d of %d rows written", w.meta.Name, w.next, w.meta.Rows)
	}
	return nil
}
