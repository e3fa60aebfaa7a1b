package cmd

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MeKo-Tech/hisrgb/internal/band"
	"github.com/MeKo-Tech/hisrgb/internal/hisrgb"
	"github.com/MeKo-Tech/hisrgb/internal/imageio"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGrayImage(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 50)})
		}
	}
	require.NoError(t, imageio.Encode(path, img))
}

func TestImportBand(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "levels.png")
	writeGrayImage(t, path, 5, 3)

	nodata := 0.0
	meta, err := importBand(ctx, store, importOptions{
		Input:    path,
		Semantic: "intensity",
		ImportOptions: imageio.ImportOptions{
			Scale:  1.0 / 250,
			NoData: &nodata,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "levels", meta.Name)
	assert.Equal(t, 3, meta.Rows)
	assert.Equal(t, 5, meta.Columns)
	assert.Equal(t, band.PixelRegion(3, 5), meta.Region)

	rows := readBand(t, store, "levels")
	require.Len(t, rows, 3)
	assert.True(t, rows[1][0].Null)
	assert.InDelta(t, 0.2, rows[1][1].Value, 1e-9)
	assert.InDelta(t, 0.8, rows[1][4].Value, 1e-9)
}

func TestImportBand_Options(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "levels.tif")
	writeGrayImage(t, path, 4, 2)

	t.Run("explicit name and region", func(t *testing.T) {
		store := openTestStore(t)
		region := orb.Bound{Min: orb.Point{9.7, 52.3}, Max: orb.Point{9.9, 52.4}}
		meta, err := importBand(ctx, store, importOptions{Input: path, Band: "elevation", Region: &region})
		require.NoError(t, err)

		got, err := store.Describe(ctx, "elevation")
		require.NoError(t, err)
		assert.Equal(t, meta.Region, got.Region)
		assert.Equal(t, region, got.Region)
	})

	t.Run("existing band", func(t *testing.T) {
		store := openTestStore(t)
		_, err := importBand(ctx, store, importOptions{Input: path})
		require.NoError(t, err)

		_, err = importBand(ctx, store, importOptions{Input: path})
		assert.True(t, errors.Is(err, band.ErrBandExists), "got %v", err)

		_, err = importBand(ctx, store, importOptions{Input: path, Overwrite: true})
		assert.NoError(t, err)
	})

	t.Run("unsupported format", func(t *testing.T) {
		store := openTestStore(t)
		_, err := importBand(ctx, store, importOptions{Input: "levels.jpg"})
		assert.Error(t, err)
	})
}

func TestSampleTransformCompose(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	names, err := sampleBands(ctx, store, "demo", sampleOptions(8, 6), false)
	require.NoError(t, err)
	assert.Equal(t, [3]string{"demo.hue", "demo.intensity", "demo.saturation"}, names)

	tests := []struct {
		name  string
		bits  hisrgb.BitDepth
		model color.Model
	}{
		{name: "8 bit png", bits: 8, model: color.NRGBAModel},
		{name: "16 bit png", bits: 16, model: color.NRGBA64Model},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := demoTransform(tt.bits, 2)
			opts.Overwrite = true
			require.NoError(t, transformBands(ctx, store, opts))

			out := filepath.Join(t.TempDir(), "out", "demo.png")
			require.NoError(t, composeBands(ctx, store, composeOptions{
				Red:          "demo.red",
				Green:        "demo.green",
				Blue:         "demo.blue",
				Output:       out,
				Bits:         tt.bits,
				PreviewWidth: 3,
			}))

			img, err := imageio.Decode(out)
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 6, 8), img.Bounds())
			assert.Equal(t, tt.model, img.ColorModel())

			// Border pixels are null and come out transparent.
			_, _, _, a := img.At(0, 0).RGBA()
			assert.Zero(t, a)

			// The achromatic row is gray.
			r, g, b, a := img.At(3, 4).RGBA()
			assert.Equal(t, uint32(0xffff), a)
			assert.Equal(t, r, g)
			assert.Equal(t, g, b)

			preview, err := imageio.Decode(imageio.PreviewPath(out))
			require.NoError(t, err)
			assert.Equal(t, 3, preview.Bounds().Dx())
		})
	}
}

func TestComposeBands_MissingBand(t *testing.T) {
	store := openTestStore(t)
	err := composeBands(context.Background(), store, composeOptions{
		Red: "r", Green: "g", Blue: "b",
		Output: filepath.Join(t.TempDir(), "out.png"),
		Bits:   8,
	})
	assert.True(t, errors.Is(err, band.ErrBandNotFound), "got %v", err)
}

func TestListAndDescribeBands(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := sampleBands(ctx, store, "demo", sampleOptions(4, 3), false)
	require.NoError(t, err)

	var list bytes.Buffer
	require.NoError(t, listBands(ctx, store, &list))
	lines := strings.Split(strings.TrimSpace(list.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, lines[1], "demo.hue")
	assert.Contains(t, lines[2], "demo.intensity")
	assert.Contains(t, lines[3], "demo.saturation")

	var desc bytes.Buffer
	require.NoError(t, describeBand(ctx, store, "demo.intensity", &desc))
	assert.Contains(t, desc.String(), "semantic:")
	assert.Contains(t, desc.String(), "intensity")
	assert.Contains(t, desc.String(), "4 (4 written)")

	require.NoError(t, store.Remove(ctx, "demo.hue"))
	err = describeBand(ctx, store, "demo.hue", &desc)
	assert.True(t, errors.Is(err, band.ErrBandNotFound), "got %v", err)
}

func TestSignalContext(t *testing.T) {
	if logger == nil {
		initLogging()
	}
	ctx, cancel := signalContext()
	require.NoError(t, ctx.Err())
	cancel()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestMain(m *testing.M) {
	initLogging()
	os.Exit(m.Run())
}
