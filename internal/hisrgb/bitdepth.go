package hisrgb

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// MinBitDepth is the smallest supported output bit depth.
	MinBitDepth = 2
	// MaxBitDepth is the largest supported output bit depth.
	MaxBitDepth = 16
	// DefaultBitDepth is used when no bit depth is configured.
	DefaultBitDepth BitDepth = 8
)

// ErrInvalidBitDepth is returned for bit depths outside [MinBitDepth, MaxBitDepth].
var ErrInvalidBitDepth = errors.New("invalid bit depth")

// BitDepth is the number of bits per output channel.
type BitDepth int

// ParseBitDepth parses and validates a bit depth option value.
func ParseBitDepth(s string) (BitDepth, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidBitDepth, s)
	}
	b := BitDepth(n)
	if err := b.Validate(); err != nil {
		return 0, err
	}
	return b, nil
}

// Validate reports whether b lies within the supported range.
func (b BitDepth) Validate() error {
	if b <= 0 {
		return fmt.Errorf("%w: %d must be positive", ErrInvalidBitDepth, int(b))
	}
	if b < MinBitDepth || b > MaxBitDepth {
		return fmt.Errorf("%w: %d outside %d-%d", ErrInvalidBitDepth, int(b), MinBitDepth, MaxBitDepth)
	}
	return nil
}

// MaxColorValue returns 2^b - 1, the largest channel value for this depth.
func (b BitDepth) MaxColorValue() float64 {
	return float64(uint32(1)<<uint(b) - 1)
}
