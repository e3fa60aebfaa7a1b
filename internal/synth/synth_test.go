package synth

import (
	"context"
	"testing"

	"github.com/MeKo-Tech/hisrgb/internal/hisrgb"
	"github.com/MeKo-Tech/hisrgb/internal/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Domains(t *testing.T) {
	opts := DefaultOptions()
	bands, err := Generate(opts)
	require.NoError(t, err)

	grayRow := opts.Rows / 2
	for y := 0; y < opts.Rows; y++ {
		for x := 0; x < opts.Columns; x++ {
			h := bands.Hue.Rows[y][x]
			i := bands.Intensity.Rows[y][x]
			s := bands.Saturation.Rows[y][x]

			border := x == 0 || y == 0 || x == opts.Columns-1 || y == opts.Rows-1
			if border {
				assert.True(t, h.Null && i.Null && s.Null, "border cell %d,%d should be null", x, y)
				continue
			}

			require.False(t, h.Null || i.Null || s.Null, "cell %d,%d should not be null", x, y)
			assert.GreaterOrEqual(t, i.Value, 0.0)
			assert.LessOrEqual(t, i.Value, 1.0)
			assert.GreaterOrEqual(t, s.Value, 0.0)
			assert.LessOrEqual(t, s.Value, 1.0)

			if y == grayRow {
				assert.Equal(t, hisrgb.UndefinedHue, h.Value)
				assert.Equal(t, 0.0, s.Value)
				continue
			}
			assert.GreaterOrEqual(t, h.Value, 0.0)
			assert.Less(t, h.Value, 360.0)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	opts := Options{Rows: 8, Columns: 12, Seed: 99}

	a, err := Generate(opts)
	require.NoError(t, err)
	b, err := Generate(opts)
	require.NoError(t, err)

	assert.Equal(t, a.Hue.Rows, b.Hue.Rows)
	assert.Equal(t, a.Saturation.Rows, b.Saturation.Rows)
}

func TestGenerate_Invalid(t *testing.T) {
	_, err := Generate(Options{Rows: 0, Columns: 4})
	assert.Error(t, err)
}

func TestGenerate_ConvertsToGray(t *testing.T) {
	opts := Options{Rows: 5, Columns: 6, Seed: 1, GrayStripe: true}
	bands, err := Generate(opts)
	require.NoError(t, err)

	red, green, blue := stream.NewMemoryBand(5, 6), stream.NewMemoryBand(5, 6), stream.NewMemoryBand(5, 6)
	d, err := stream.NewDriver(stream.Config{
		Rows:      5,
		Columns:   6,
		Converter: &hisrgb.Converter{MaxColor: 255},
		Inputs:    bands.Inputs(),
		Outputs:   stream.Outputs{Red: red, Green: green, Blue: blue},
	})
	require.NoError(t, err)
	require.NoError(t, d.Run(context.Background()))

	for x := 0; x < 6; x++ {
		r, g, b := red.Rows[2][x], green.Rows[2][x], blue.Rows[2][x]
		assert.Equal(t, r, g)
		assert.Equal(t, g, b)
		assert.InDelta(t, bands.Intensity.Rows[2][x].Value*255, r.Value, 1e-9)
	}
}

func TestFoldHue(t *testing.T) {
	assert.Equal(t, 0.0, foldHue(360))
	assert.Equal(t, 350.0, foldHue(-10))
	assert.Equal(t, 45.0, foldHue(45))
}
