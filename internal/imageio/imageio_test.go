package imageio

import (
	"context"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/hisrgb/internal/hisrgb"
	"github.com/MeKo-Tech/hisrgb/internal/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{path: "out.png", want: FormatPNG},
		{path: "OUT.PNG", want: FormatPNG},
		{path: "scene.tif", want: FormatTIFF},
		{path: "dir/scene.tiff", want: FormatTIFF},
		{path: "scene.jpg", wantErr: true},
		{path: "noext", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestImageSource_Gray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 2))
	img.SetGray(0, 0, color.Gray{Y: 0})
	img.SetGray(1, 0, color.Gray{Y: 100})
	img.SetGray(2, 0, color.Gray{Y: 255})

	nodata := 255.0
	src := NewImageSource(img, ImportOptions{Scale: 0.01, Offset: 1, NoData: &nodata})
	assert.Equal(t, 2, src.Rows())
	assert.Equal(t, 3, src.Columns())

	row := hisrgb.NewRow(3)
	require.NoError(t, src.ReadRow(context.Background(), 0, row))

	assert.InDelta(t, 1.0, row[0].Value, 1e-12)
	assert.InDelta(t, 2.0, row[1].Value, 1e-12)
	assert.True(t, row[2].Null)

	assert.Error(t, src.ReadRow(context.Background(), 2, row))
	assert.Error(t, src.ReadRow(context.Background(), 0, hisrgb.NewRow(4)))
}

func TestImageSource_Gray16(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 2, 1))
	img.SetGray16(0, 0, color.Gray16{Y: 36000})
	img.SetGray16(1, 0, color.Gray16{Y: 65535})

	src := NewImageSource(img, ImportOptions{Scale: 0.01})

	row := hisrgb.NewRow(2)
	require.NoError(t, src.ReadRow(context.Background(), 0, row))
	assert.InDelta(t, 360.0, row[0].Value, 1e-9)
	assert.InDelta(t, 655.35, row[1].Value, 1e-9)
}

func TestImageSource_TransparentIsNull(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{})

	src := NewImageSource(img, ImportOptions{})

	row := hisrgb.NewRow(2)
	require.NoError(t, src.ReadRow(context.Background(), 0, row))
	assert.False(t, row[0].Null)
	assert.Equal(t, 65535.0, row[0].Value)
	assert.True(t, row[1].Null)
}

func TestImageSource_OffsetBounds(t *testing.T) {
	img := image.NewGray(image.Rect(10, 20, 12, 21))
	img.SetGray(11, 20, color.Gray{Y: 7})

	src := NewImageSource(img, ImportOptions{})

	row := hisrgb.NewRow(2)
	require.NoError(t, src.ReadRow(context.Background(), 0, row))
	assert.Equal(t, 7.0, row[1].Value)
}

func bandOf(rows [][]hisrgb.Cell) *stream.MemoryBand {
	b := &stream.MemoryBand{}
	for _, r := range rows {
		b.Rows = append(b.Rows, hisrgb.Row(r))
	}
	return b
}

func TestCompose_8Bit(t *testing.T) {
	red := bandOf([][]hisrgb.Cell{{hisrgb.CellOf(255), hisrgb.CellOf(0)}})
	green := bandOf([][]hisrgb.Cell{{hisrgb.CellOf(0), hisrgb.NullCell()}})
	blue := bandOf([][]hisrgb.Cell{{hisrgb.CellOf(127.5), hisrgb.CellOf(0)}})

	img, err := Compose(context.Background(), red, green, blue, 1, 2, 8)
	require.NoError(t, err)

	nrgba, ok := img.(*image.NRGBA)
	require.True(t, ok, "expected *image.NRGBA, got %T", img)

	assert.Equal(t, color.NRGBA{R: 255, G: 0, B: 128, A: 255}, nrgba.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{}, nrgba.NRGBAAt(1, 0))
}

func TestCompose_LowBitDepthStretches(t *testing.T) {
	red := bandOf([][]hisrgb.Cell{{hisrgb.CellOf(3)}})
	green := bandOf([][]hisrgb.Cell{{hisrgb.CellOf(1)}})
	blue := bandOf([][]hisrgb.Cell{{hisrgb.CellOf(0)}})

	img, err := Compose(context.Background(), red, green, blue, 1, 1, 2)
	require.NoError(t, err)

	assert.Equal(t, color.NRGBA{R: 255, G: 85, B: 0, A: 255}, img.(*image.NRGBA).NRGBAAt(0, 0))
}

func TestCompose_16Bit(t *testing.T) {
	red := bandOf([][]hisrgb.Cell{{hisrgb.CellOf(4095)}})
	green := bandOf([][]hisrgb.Cell{{hisrgb.CellOf(0)}})
	blue := bandOf([][]hisrgb.Cell{{hisrgb.CellOf(5000)}})

	img, err := Compose(context.Background(), red, green, blue, 1, 1, 12)
	require.NoError(t, err)

	nrgba, ok := img.(*image.NRGBA64)
	require.True(t, ok, "expected *image.NRGBA64, got %T", img)
	assert.Equal(t, color.NRGBA64{R: 65535, G: 0, B: 65535, A: 65535}, nrgba.NRGBA64At(0, 0))
}

func TestCompose_InvalidBits(t *testing.T) {
	b := bandOf([][]hisrgb.Cell{{hisrgb.CellOf(0)}})
	_, err := Compose(context.Background(), b, b, b, 1, 1, 20)
	assert.ErrorIs(t, err, hisrgb.ErrInvalidBitDepth)
}

func TestCompose_ReadError(t *testing.T) {
	b := bandOf([][]hisrgb.Cell{{hisrgb.CellOf(0)}})
	_, err := Compose(context.Background(), b, b, b, 2, 1, 8)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "red row 1")
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(10 * x), G: uint8(20 * y), B: 7, A: 255})
		}
	}

	for _, name := range []string{"out.png", "nested/out.tif"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, Encode(path, src))

			got, err := Decode(path)
			require.NoError(t, err)
			require.Equal(t, src.Bounds(), got.Bounds())

			for y := 0; y < 3; y++ {
				for x := 0; x < 4; x++ {
					want := src.NRGBAAt(x, y)
					c := color.NRGBAModel.Convert(got.At(x, y)).(color.NRGBA)
					assert.Equal(t, want, c, "pixel %d,%d", x, y)
				}
			}
		})
	}
}

func TestDecode_Missing(t *testing.T) {
	_, err := Decode(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestPreview(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 200, 100))

	p := Preview(img, 50)
	assert.Equal(t, 50, p.Bounds().Dx())
	assert.Equal(t, 25, p.Bounds().Dy())

	assert.Same(t, img, Preview(img, 0).(*image.NRGBA))
	assert.Same(t, img, Preview(img, 400).(*image.NRGBA))
}

func TestPreviewPath(t *testing.T) {
	assert.Equal(t, "out/scene.preview.png", PreviewPath("out/scene.png"))
	assert.Equal(t, "scene.preview.tif", PreviewPath("scene.tif"))
}
