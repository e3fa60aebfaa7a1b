package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/hisrgb/internal/band"
	"github.com/MeKo-Tech/hisrgb/internal/hisrgb"
	"github.com/MeKo-Tech/hisrgb/internal/imageio"
	"github.com/MeKo-Tech/hisrgb/internal/stream"
	"github.com/paulmach/orb"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a grayscale PNG or TIFF image as a band",
	Long: `Import a grayscale PNG or TIFF image into the mapset as a single band.

Each sample v is stored as v*scale + offset. Use --scale 0.00392156862745098
(1/255) to map an 8-bit image onto [0,1] for intensity or saturation bands,
or --scale 1.41176470588 (360/255) for hue bands.`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringP("input", "i", "", "Input image (.png, .tif, .tiff)")
	importCmd.Flags().StringP("band", "b", "", "Name of the band to create (default: input file name)")
	importCmd.Flags().String("semantic", "", "Band role (hue, intensity, saturation, red, green, blue)")
	importCmd.Flags().Float64("scale", 1, "Multiplier applied to every sample")
	importCmd.Flags().Float64("offset", 0, "Offset added after scaling")
	importCmd.Flags().String("nodata", "", "Raw sample value stored as null")
	importCmd.Flags().String("region", "", "Geographic region as west,south,east,north (default: pixel grid)")
	importCmd.Flags().Bool("overwrite", false, "Replace the band if it already exists")

	bindFlags(importCmd, []flagBinding{
		{"import.input", "input"},
		{"import.band", "band"},
		{"import.semantic", "semantic"},
		{"import.scale", "scale"},
		{"import.offset", "offset"},
		{"import.nodata", "nodata"},
		{"import.region", "region"},
		{"import.overwrite", "overwrite"},
	})
}

type importOptions struct {
	Input     string
	Band      string
	Semantic  string
	Region    *orb.Bound
	Overwrite bool
	imageio.ImportOptions
}

func runImport(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	opts := importOptions{
		Input:     viper.GetString("import.input"),
		Band:      viper.GetString("import.band"),
		Semantic:  viper.GetString("import.semantic"),
		Overwrite: viper.GetBool("import.overwrite"),
		ImportOptions: imageio.ImportOptions{
			Scale:  viper.GetFloat64("import.scale"),
			Offset: viper.GetFloat64("import.offset"),
		},
	}
	if opts.Input == "" {
		return fmt.Errorf("--input is required")
	}

	if s := viper.GetString("import.nodata"); s != "" {
		var v float64
		if _, err := fmt.Sscan(s, &v); err != nil {
			return fmt.Errorf("invalid --nodata %q: %w", s, err)
		}
		opts.NoData = &v
	}
	if s := viper.GetString("import.region"); s != "" {
		region, err := band.ParseRegion(s)
		if err != nil {
			return fmt.Errorf("invalid --region: %w", err)
		}
		opts.Region = &region
	}

	store, err := band.Open(viper.GetString("store"))
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := signalContext()
	defer cancel()

	meta, err := importBand(ctx, store, opts)
	if err != nil {
		return err
	}

	logger.Info("Imported band",
		"band", meta.Name,
		"rows", meta.Rows,
		"columns", meta.Columns,
		"region", band.FormatRegion(meta.Region),
	)
	return nil
}

func importBand(ctx context.Context, store *band.Store, opts importOptions) (band.Metadata, error) {
	img, err := imageio.Decode(opts.Input)
	if err != nil {
		return band.Metadata{}, err
	}
	src := imageio.NewImageSource(img, opts.ImportOptions)

	name := opts.Band
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(opts.Input), filepath.Ext(opts.Input))
	}

	meta := band.Metadata{
		Name:        name,
		Semantic:    opts.Semantic,
		Description: "imported from " + filepath.Base(opts.Input),
		Rows:        src.Rows(),
		Columns:     src.Columns(),
		Region:      band.PixelRegion(src.Rows(), src.Columns()),
	}
	if opts.Region != nil {
		meta.Region = *opts.Region
	}

	if err := copyBand(ctx, store, meta, src, opts.Overwrite); err != nil {
		return band.Metadata{}, err
	}
	return meta, nil
}

// copyBand streams every row of src into a new band described by meta.
func copyBand(ctx context.Context, store *band.Store, meta band.Metadata, src stream.RowSource, overwrite bool) error {
	w, err := store.Create(ctx, meta, overwrite)
	if err != nil {
		return err
	}

	buf := hisrgb.NewRow(meta.Columns)
	for row := 0; row < meta.Rows; row++ {
		if err := ctx.Err(); err != nil {
			_ = w.Close(ctx)
			return err
		}
		if err := src.ReadRow(ctx, row, buf); err != nil {
			_ = w.Close(ctx)
			return fmt.Errorf("failed to read row %d of %s: %w", row, meta.Name, err)
		}
		if err := w.WriteRow(ctx, row, buf); err != nil {
			_ = w.Close(ctx)
			return err
		}
	}

	return w.Close(ctx)
}
