package imageio

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/MeKo-Tech/hisrgb/internal/hisrgb"
)

// ImportOptions controls how pixel values become band values.
type ImportOptions struct {
	// Scale and Offset map a raw sample v to v*Scale + Offset.
	Scale  float64
	Offset float64

	// NoData, when set, marks raw samples equal to it as null.
	NoData *float64
}

// ImageSource reads an image as a single band. Samples are the raw gray
// level: 0-255 for 8-bit gray images, 0-65535 for 16-bit gray and for any
// other color model (converted to 16-bit luminance). Fully transparent
// pixels are null.
type ImageSource struct {
	img  image.Image
	opts ImportOptions
}

// NewImageSource wraps img. A zero Scale is treated as 1.
func NewImageSource(img image.Image, opts ImportOptions) *ImageSource {
	if opts.Scale == 0 {
		opts.Scale = 1
	}
	return &ImageSource{img: img, opts: opts}
}

// Rows returns the image height.
func (s *ImageSource) Rows() int {
	return s.img.Bounds().Dy()
}

// Columns returns the image width.
func (s *ImageSource) Columns() int {
	return s.img.Bounds().Dx()
}

// ReadRow fills dst with the scaled samples of image row.
func (s *ImageSource) ReadRow(_ context.Context, row int, dst hisrgb.Row) error {
	b := s.img.Bounds()
	if row < 0 || row >= b.Dy() {
		return fmt.Errorf("row %d outside image height %d", row, b.Dy())
	}
	if len(dst) != b.Dx() {
		return fmt.Errorf("buffer has %d columns, image has %d", len(dst), b.Dx())
	}

	y := b.Min.Y + row
	for col := range dst {
		v, ok := s.sample(b.Min.X+col, y)
		if !ok || (s.opts.NoData != nil && v == *s.opts.NoData) {
			dst[col] = hisrgb.NullCell()
			continue
		}
		dst[col] = hisrgb.CellOf(v*s.opts.Scale + s.opts.Offset)
	}
	return nil
}

func (s *ImageSource) sample(x, y int) (float64, bool) {
	switch img := s.img.(type) {
	case *image.Gray:
		return float64(img.GrayAt(x, y).Y), true
	case *image.Gray16:
		return float64(img.Gray16At(x, y).Y), true
	}

	c := s.img.At(x, y)
	if _, _, _, a := c.RGBA(); a == 0 {
		return 0, false
	}
	return float64(color.Gray16Model.Convert(c).(color.Gray16).Y), true
}
