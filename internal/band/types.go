// Package band stores named single-channel float rasters ("bands") in a
// SQLite mapset file.
package band

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
)

var (
	// ErrBandNotFound is returned when a band does not exist in the mapset.
	ErrBandNotFound = errors.New("band not found")
	// ErrBandExists is returned when creating a band that already exists.
	ErrBandExists = errors.New("band already exists")
	// ErrRowOutOfRange is returned for row indices outside the band.
	ErrRowOutOfRange = errors.New("row out of range")
	// ErrRowOrder is returned when rows are written out of sequence.
	ErrRowOrder = errors.New("rows must be written in order")
	// ErrRowMissing is returned when reading a row that was never written.
	ErrRowMissing = errors.New("row not written")
)

// Metadata describes a band.
type Metadata struct {
	CreatedAt   time.Time
	Name        string
	Semantic    string // hue, intensity, saturation, red, green, blue or empty
	Description string
	Region      orb.Bound // west/south in Min, east/north in Max
	Rows        int
	Columns     int
}

// Validate checks that the metadata can describe a stored band.
func (m Metadata) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("band name is required")
	}
	if m.Rows <= 0 || m.Columns <= 0 {
		return fmt.Errorf("band %q: invalid dimensions %dx%d", m.Name, m.Rows, m.Columns)
	}
	if m.Region.Min[0] > m.Region.Max[0] || m.Region.Min[1] > m.Region.Max[1] {
		return fmt.Errorf("band %q: invalid region %v", m.Name, m.Region)
	}
	return nil
}

// SameGrid reports whether two bands share dimensions.
func (m Metadata) SameGrid(o Metadata) bool {
	return m.Rows == o.Rows && m.Columns == o.Columns
}

// PixelRegion returns a region in cell units, used when no geographic
// region is known.
func PixelRegion(rows, columns int) orb.Bound {
	return orb.Bound{
		Min: orb.Point{0, 0},
		Max: orb.Point{float64(columns), float64(rows)},
	}
}

// ParseRegion parses "west,south,east,north".
func ParseRegion(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("expected 4 comma-separated values, got %d", len(parts))
	}

	var v [4]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("invalid number at position %d: %w", i, err)
		}
		v[i] = f
	}

	if v[0] >= v[2] {
		return orb.Bound{}, fmt.Errorf("west (%.4f) must be < east (%.4f)", v[0], v[2])
	}
	if v[1] >= v[3] {
		return orb.Bound{}, fmt.Errorf("south (%.4f) must be < north (%.4f)", v[1], v[3])
	}

	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}

// FormatRegion renders a region as "west,south,east,north".
func FormatRegion(b orb.Bound) string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b.Left(), b.Bottom(), b.Right(), b.Top())
}
