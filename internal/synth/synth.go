// Package synth generates synthetic hue/intensity/saturation bands.
package synth

import (
	"fmt"
	"math"

	"github.com/MeKo-Tech/hisrgb/internal/hisrgb"
	"github.com/MeKo-Tech/hisrgb/internal/stream"
	"github.com/aquilax/go-perlin"
)

// Options controls the generated scene.
type Options struct {
	Rows    int
	Columns int
	Seed    int64

	// Scale is the noise wavelength in cells; smaller values give busier hue.
	Scale float64

	// NullBorder is the width in cells of a null frame around the scene.
	NullBorder int

	// GrayStripe replaces the middle row with achromatic pixels
	// (saturation 0, undefined hue).
	GrayStripe bool
}

// DefaultOptions returns a small deterministic scene.
func DefaultOptions() Options {
	return Options{
		Rows:       64,
		Columns:    64,
		Seed:       1337,
		Scale:      24,
		NullBorder: 1,
		GrayStripe: true,
	}
}

// Bands holds the generated input bands.
type Bands struct {
	Hue        *stream.MemoryBand
	Intensity  *stream.MemoryBand
	Saturation *stream.MemoryBand
}

// Inputs returns the bands as driver inputs.
func (b Bands) Inputs() stream.Inputs {
	return stream.Inputs{Hue: b.Hue, Intensity: b.Intensity, Saturation: b.Saturation}
}

// Generate builds the scene. Hue follows a Perlin noise field, intensity
// ramps from left to right and saturation from top to bottom.
func Generate(opts Options) (Bands, error) {
	if opts.Rows <= 0 || opts.Columns <= 0 {
		return Bands{}, fmt.Errorf("invalid dimensions %dx%d", opts.Rows, opts.Columns)
	}
	if opts.Scale <= 0 {
		opts.Scale = DefaultOptions().Scale
	}

	// alpha 2, beta 2, three octaves
	p := perlin.NewPerlin(2.0, 2.0, 3, opts.Seed)

	bands := Bands{
		Hue:        stream.NewMemoryBand(opts.Rows, opts.Columns),
		Intensity:  stream.NewMemoryBand(opts.Rows, opts.Columns),
		Saturation: stream.NewMemoryBand(opts.Rows, opts.Columns),
	}

	grayRow := -1
	if opts.GrayStripe {
		grayRow = opts.Rows / 2
	}

	for y := 0; y < opts.Rows; y++ {
		for x := 0; x < opts.Columns; x++ {
			if inBorder(x, y, opts) {
				bands.Hue.Rows[y][x] = hisrgb.NullCell()
				bands.Intensity.Rows[y][x] = hisrgb.NullCell()
				bands.Saturation.Rows[y][x] = hisrgb.NullCell()
				continue
			}

			intensity := ramp(x, opts.Columns, 0.1, 0.9)
			bands.Intensity.Rows[y][x] = hisrgb.CellOf(intensity)

			if y == grayRow {
				bands.Hue.Rows[y][x] = hisrgb.CellOf(hisrgb.UndefinedHue)
				bands.Saturation.Rows[y][x] = hisrgb.CellOf(0)
				continue
			}

			// Noise2D is roughly in [-1, 1].
			n := p.Noise2D(float64(x)/opts.Scale, float64(y)/opts.Scale)
			bands.Hue.Rows[y][x] = hisrgb.CellOf(foldHue((n + 1) * 180))
			bands.Saturation.Rows[y][x] = hisrgb.CellOf(ramp(y, opts.Rows, 1.0, 0.2))
		}
	}

	return bands, nil
}

func inBorder(x, y int, opts Options) bool {
	w := opts.NullBorder
	return x < w || y < w || x >= opts.Columns-w || y >= opts.Rows-w
}

// ramp interpolates linearly from lo at i=0 to hi at i=n-1.
func ramp(i, n int, lo, hi float64) float64 {
	if n <= 1 {
		return lo
	}
	return lo + (hi-lo)*float64(i)/float64(n-1)
}

// foldHue maps any angle into [0, 360).
func foldHue(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}
