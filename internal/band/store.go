package band

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	_ "modernc.org/sqlite" // SQLite driver
)

// Store is a mapset: one SQLite database holding any number of bands.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the mapset at path and initializes the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps the pragmas below in effect for every query.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// createSchema creates the mapset schema.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS bands (
			name TEXT PRIMARY KEY,
			height INTEGER NOT NULL,
			width INTEGER NOT NULL,
			west REAL NOT NULL,
			south REAL NOT NULL,
			east REAL NOT NULL,
			north REAL NOT NULL,
			semantic TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS band_rows (
			band TEXT NOT NULL REFERENCES bands(name) ON DELETE CASCADE,
			row_index INTEGER NOT NULL,
			data BLOB NOT NULL,
			PRIMARY KEY (band, row_index)
		);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// Path returns the mapset file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

const selectBand = `SELECT name, height, width, west, south, east, north, semantic, description, created_at FROM bands`

type scanner interface {
	Scan(dest ...any) error
}

func scanMetadata(sc scanner) (Metadata, error) {
	var (
		m                        Metadata
		west, south, east, north float64
		createdAt                string
	)
	if err := sc.Scan(&m.Name, &m.Rows, &m.Columns, &west, &south, &east, &north,
		&m.Semantic, &m.Description, &createdAt); err != nil {
		return Metadata{}, err
	}

	m.Region = orb.Bound{Min: orb.Point{west, south}, Max: orb.Point{east, north}}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		m.CreatedAt = t
	}
	return m, nil
}

// Describe returns the metadata of the named band.
func (s *Store) Describe(ctx context.Context, name string) (Metadata, error) {
	m, err := scanMetadata(s.db.QueryRowContext(ctx, selectBand+" WHERE name = ?", name))
	if errors.Is(err, sql.ErrNoRows) {
		return Metadata{}, fmt.Errorf("%w: %s", ErrBandNotFound, name)
	}
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to query band %s: %w", name, err)
	}
	return m, nil
}

// List returns the metadata of all bands, ordered by name.
func (s *Store) List(ctx context.Context) ([]Metadata, error) {
	rows, err := s.db.QueryContext(ctx, selectBand+" ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query bands: %w", err)
	}
	defer rows.Close()

	var bands []Metadata
	for rows.Next() {
		m, err := scanMetadata(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan band row: %w", err)
		}
		bands = append(bands, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bands: %w", err)
	}

	return bands, nil
}

// Remove deletes the named band and its rows.
func (s *Store) Remove(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM bands WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to remove band %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrBandNotFound, name)
	}
	return nil
}

// WrittenRows returns how many rows of the named band are stored.
func (s *Store) WrittenRows(ctx context.Context, name string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM band_rows WHERE band = ?", name).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows of %s: %w", name, err)
	}
	return n, nil
}

// Create registers a new band and returns a writer for its rows. An existing
// band of the same name is replaced when overwrite is set.
func (s *Store) Create(ctx context.Context, meta Metadata, overwrite bool) (*Writer, error) {
	writers, err := s.CreateBands(ctx, []Metadata{meta}, overwrite)
	if err != nil {
		return nil, err
	}
	return writers[0], nil
}

// CreateBands registers several bands in one transaction and returns a writer
// per band, in order. Either all bands are registered or none: if any band
// exists without overwrite, or any insert fails, the mapset is left unchanged.
func (s *Store) CreateBands(ctx context.Context, metas []Metadata, overwrite bool) ([]*Writer, error) {
	metas = append([]Metadata(nil), metas...)
	seen := make(map[string]bool, len(metas))
	for i := range metas {
		if err := metas[i].Validate(); err != nil {
			return nil, err
		}
		if seen[metas[i].Name] {
			return nil, fmt.Errorf("band %s given more than once", metas[i].Name)
		}
		seen[metas[i].Name] = true
		if metas[i].CreatedAt.IsZero() {
			metas[i].CreatedAt = time.Now().UTC()
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	// Check every name before changing anything.
	for _, meta := range metas {
		var exists int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM bands WHERE name = ?", meta.Name).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check band %s: %w", meta.Name, err)
		}
		if exists > 0 && !overwrite {
			return nil, fmt.Errorf("%w: %s", ErrBandExists, meta.Name)
		}
	}

	writers := make([]*Writer, 0, len(metas))
	for _, meta := range metas {
		if overwrite {
			if _, err := tx.ExecContext(ctx, "DELETE FROM bands WHERE name = ?", meta.Name); err != nil {
				return nil, fmt.Errorf("failed to replace band %s: %w", meta.Name, err)
			}
		}

		_, err := tx.ExecContext(ctx,
			"INSERT INTO bands (name, height, width, west, south, east, north, semantic, description, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			meta.Name, meta.Rows, meta.Columns,
			meta.Region.Left(), meta.Region.Bottom(), meta.Region.Right(), meta.Region.Top(),
			meta.Semantic, meta.Description, meta.CreatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert band %s: %w", meta.Name, err)
		}
		writers = append(writers, newWriter(s, meta))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return writers, nil
}

// OpenBand returns a reader for the named band.
func (s *Store) OpenBand(ctx context.Context, name string) (*Reader, error) {
	meta, err := s.Describe(ctx, name)
	if err != nil {
		return nil, err
	}
	return &Reader{store: s, meta: meta}, nil
}
