package imageio

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/MeKo-Tech/hisrgb/internal/hisrgb"
	"github.com/MeKo-Tech/hisrgb/internal/stream"
)

// Compose assembles red, green and blue bands holding values in
// [0, 2^bits-1] into an RGB image. Depths up to 8 bits produce an 8-bit
// image, deeper ones a 16-bit image. Null pixels become transparent.
func Compose(ctx context.Context, red, green, blue stream.RowSource, rows, cols int, bits hisrgb.BitDepth) (image.Image, error) {
	if err := bits.Validate(); err != nil {
		return nil, err
	}

	maxColor := bits.MaxColorValue()
	rect := image.Rect(0, 0, cols, rows)

	var set func(x, y int, r, g, b float64)
	var setNull func(x, y int)
	var img image.Image

	if bits <= 8 {
		dst := image.NewNRGBA(rect)
		set = func(x, y int, r, g, b float64) {
			dst.SetNRGBA(x, y, color.NRGBA{
				R: uint8(rescale(r, maxColor, 255)),
				G: uint8(rescale(g, maxColor, 255)),
				B: uint8(rescale(b, maxColor, 255)),
				A: 255,
			})
		}
		setNull = func(x, y int) { dst.SetNRGBA(x, y, color.NRGBA{}) }
		img = dst
	} else {
		dst := image.NewNRGBA64(rect)
		set = func(x, y int, r, g, b float64) {
			dst.SetNRGBA64(x, y, color.NRGBA64{
				R: uint16(rescale(r, maxColor, 65535)),
				G: uint16(rescale(g, maxColor, 65535)),
				B: uint16(rescale(b, maxColor, 65535)),
				A: 65535,
			})
		}
		setNull = func(x, y int) { dst.SetNRGBA64(x, y, color.NRGBA64{}) }
		img = dst
	}

	group := stream.NewRowGroup(cols)
	sources := [3]stream.RowSource{red, green, blue}
	names := [3]string{"red", "green", "blue"}

	for y := 0; y < rows; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for band, src := range sources {
			if err := src.ReadRow(ctx, y, group.Bands[band]); err != nil {
				return nil, fmt.Errorf("failed to read %s row %d: %w", names[band], y, err)
			}
		}

		r, g, b := group.Bands[0], group.Bands[1], group.Bands[2]
		for x := 0; x < cols; x++ {
			if r[x].Null || g[x].Null || b[x].Null {
				setNull(x, y)
				continue
			}
			set(x, y, r[x].Value, g[x].Value, b[x].Value)
		}
	}

	return img, nil
}

// rescale maps v from [0, from] onto [0, to], rounding and clamping.
func rescale(v, from, to float64) float64 {
	v = math.Round(v / from * to)
	if v < 0 {
		return 0
	}
	if v > to {
		return to
	}
	return v
}
