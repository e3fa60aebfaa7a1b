package cmd

import (
	"context"
	"fmt"

	"github.com/MeKo-Tech/hisrgb/internal/band"
	"github.com/MeKo-Tech/hisrgb/internal/hisrgb"
	"github.com/MeKo-Tech/hisrgb/internal/imageio"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Compose red, green and blue bands into an image",
	Long: `Compose three bands holding values in [0, 2^bits-1] into a PNG or TIFF image.

Depths up to 8 bits produce an 8-bit image, deeper ones a 16-bit image.
Null pixels are written fully transparent.`,
	RunE: runCompose,
}

func init() {
	rootCmd.AddCommand(composeCmd)

	composeCmd.Flags().String("red", "", "Name of the red band")
	composeCmd.Flags().String("green", "", "Name of the green band")
	composeCmd.Flags().String("blue", "", "Name of the blue band")
	composeCmd.Flags().StringP("output", "o", "", "Output image (.png, .tif, .tiff)")
	composeCmd.Flags().String("bits", "8", "Bit depth the bands were transformed with (2-16)")
	composeCmd.Flags().Int("preview-width", 0, "Also write a downscaled preview of this width (0: none)")

	bindFlags(composeCmd, []flagBinding{
		{"compose.red", "red"},
		{"compose.green", "green"},
		{"compose.blue", "blue"},
		{"compose.output", "output"},
		{"compose.bits", "bits"},
		{"compose.preview_width", "preview-width"},
	})
}

type composeOptions struct {
	Red, Green, Blue string
	Output           string
	Bits             hisrgb.BitDepth
	PreviewWidth     int
}

func runCompose(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	bits, err := hisrgb.ParseBitDepth(viper.GetString("compose.bits"))
	if err != nil {
		return err
	}

	opts := composeOptions{
		Red:          viper.GetString("compose.red"),
		Green:        viper.GetString("compose.green"),
		Blue:         viper.GetString("compose.blue"),
		Output:       viper.GetString("compose.output"),
		Bits:         bits,
		PreviewWidth: viper.GetInt("compose.preview_width"),
	}
	if opts.Red == "" || opts.Green == "" || opts.Blue == "" {
		return fmt.Errorf("--red, --green and --blue are required")
	}
	if opts.Output == "" {
		return fmt.Errorf("--output is required")
	}
	if _, err := imageio.FormatFromPath(opts.Output); err != nil {
		return err
	}

	store, err := band.Open(viper.GetString("store"))
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := signalContext()
	defer cancel()

	return composeBands(ctx, store, opts)
}

func composeBands(ctx context.Context, store *band.Store, opts composeOptions) error {
	var readers [3]*band.Reader
	for i, name := range []string{opts.Red, opts.Green, opts.Blue} {
		r, err := store.OpenBand(ctx, name)
		if err != nil {
			return err
		}
		readers[i] = r
	}

	grid := readers[0].Metadata()
	for _, r := range readers[1:] {
		if m := r.Metadata(); !grid.SameGrid(m) {
			return fmt.Errorf("band %s is %dx%d but %s is %dx%d",
				m.Name, m.Rows, m.Columns, grid.Name, grid.Rows, grid.Columns)
		}
	}

	img, err := imageio.Compose(ctx, readers[0], readers[1], readers[2], grid.Rows, grid.Columns, opts.Bits)
	if err != nil {
		return fmt.Errorf("failed to compose image: %w", err)
	}

	if err := imageio.Encode(opts.Output, img); err != nil {
		return err
	}
	logger.Info("Wrote image", "path", opts.Output, "width", grid.Columns, "height", grid.Rows)

	if opts.PreviewWidth > 0 {
		path := imageio.PreviewPath(opts.Output)
		if err := imageio.Encode(path, imageio.Preview(img, opts.PreviewWidth)); err != nil {
			return err
		}
		logger.Info("Wrote preview", "path", path, "width", opts.PreviewWidth)
	}

	return nil
}
