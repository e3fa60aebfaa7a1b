// Package imageio moves bands in and out of ordinary image files.
package imageio

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/gift"
	"golang.org/x/image/tiff"
)

// Format is an image file format supported for reading and writing.
type Format string

const (
	FormatPNG  Format = "png"
	FormatTIFF Format = "tiff"
)

// FormatFromPath infers the image format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG, nil
	case ".tif", ".tiff":
		return FormatTIFF, nil
	default:
		return "", fmt.Errorf("unsupported image extension %q (use .png, .tif or .tiff)", filepath.Ext(path))
	}
}

// Decode reads a PNG or TIFF image.
func Decode(path string) (image.Image, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer file.Close()

	var img image.Image
	switch format {
	case FormatPNG:
		img, err = png.Decode(file)
	case FormatTIFF:
		img, err = tiff.Decode(file)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	return img, nil
}

// Encode writes img to path in the format given by its extension.
func Encode(path string, img image.Image) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image %s: %w", path, err)
	}

	switch format {
	case FormatPNG:
		err = png.Encode(file, img)
	case FormatTIFF:
		err = tiff.Encode(file, img, &tiff.Options{Compression: tiff.Deflate})
	}
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to encode image %s: %w", path, err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close image %s: %w", path, err)
	}
	return nil
}

// Preview returns img scaled to the given width, keeping the aspect ratio.
// Images already narrower than width are returned unchanged.
func Preview(img image.Image, width int) image.Image {
	if width <= 0 || img.Bounds().Dx() <= width {
		return img
	}

	g := gift.New(gift.Resize(width, 0, gift.LanczosResampling))
	dst := image.NewNRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst
}

// PreviewPath derives the preview file name, e.g. out.png -> out.preview.png.
func PreviewPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".preview" + ext
}
