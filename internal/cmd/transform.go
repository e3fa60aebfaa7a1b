package cmd

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/MeKo-Tech/hisrgb/internal/band"
	"github.com/MeKo-Tech/hisrgb/internal/hisrgb"
	"github.com/MeKo-Tech/hisrgb/internal/stream"
	"github.com/MeKo-Tech/hisrgb/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Transform hue, intensity and saturation bands to red, green and blue",
	Long: `Transform raster bands from HIS (Hue-Intensity-Saturation) color space to
RGB (Red-Green-Blue) color space.

Hue is expected in degrees [0,360) with -1 marking an undefined hue; intensity and
saturation in [0,1]. Output values range over [0, 2^bits-1]. A null cell in any
input band yields null in all three output bands.`,
	RunE: runTransform,
}

func init() {
	rootCmd.AddCommand(transformCmd)

	transformCmd.Flags().String("hue", "", "Name of input band (hue)")
	transformCmd.Flags().String("intensity", "", "Name of input band (intensity)")
	transformCmd.Flags().String("saturation", "", "Name of input band (saturation)")
	transformCmd.Flags().String("red", "", "Name for output band (red)")
	transformCmd.Flags().String("green", "", "Name for output band (green)")
	transformCmd.Flags().String("blue", "", "Name for output band (blue)")
	transformCmd.Flags().String("bits", "8", "Bits per output channel (2-16)")
	transformCmd.Flags().IntP("workers", "w", 1, "Number of parallel row workers (0: number of CPUs)")
	transformCmd.Flags().Bool("progress", true, "Show progress bar")
	transformCmd.Flags().Bool("overwrite", false, "Replace output bands that already exist")
	transformCmd.Flags().Bool("achromatic-any-hue", false, "Render every zero-saturation pixel gray, not only those with hue -1")

	bindFlags(transformCmd, []flagBinding{
		{"transform.hue", "hue"},
		{"transform.intensity", "intensity"},
		{"transform.saturation", "saturation"},
		{"transform.red", "red"},
		{"transform.green", "green"},
		{"transform.blue", "blue"},
		{"transform.bits", "bits"},
		{"transform.workers", "workers"},
		{"transform.progress", "progress"},
		{"transform.overwrite", "overwrite"},
		{"transform.achromatic_any_hue", "achromatic-any-hue"},
	})
}

type transformOptions struct {
	Hue, Intensity, Saturation string
	Red, Green, Blue           string
	Bits                       hisrgb.BitDepth
	Workers                    int
	Progress                   bool
	Overwrite                  bool
	AchromaticAnyHue           bool
}

func (o transformOptions) validate() error {
	names := []struct {
		flag, value string
	}{
		{"hue", o.Hue},
		{"intensity", o.Intensity},
		{"saturation", o.Saturation},
		{"red", o.Red},
		{"green", o.Green},
		{"blue", o.Blue},
	}
	for _, n := range names {
		if n.value == "" {
			return fmt.Errorf("--%s is required", n.flag)
		}
	}

	outputs := map[string]bool{}
	for _, out := range []string{o.Red, o.Green, o.Blue} {
		if outputs[out] {
			return fmt.Errorf("output band %s given more than once", out)
		}
		outputs[out] = true
	}
	for _, in := range []string{o.Hue, o.Intensity, o.Saturation} {
		if outputs[in] {
			return fmt.Errorf("band %s cannot be both input and output", in)
		}
	}

	return o.Bits.Validate()
}

func runTransform(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	// Bit depth is checked before the mapset is touched.
	bits, err := hisrgb.ParseBitDepth(viper.GetString("transform.bits"))
	if err != nil {
		return err
	}

	workers := viper.GetInt("transform.workers")
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	opts := transformOptions{
		Hue:              viper.GetString("transform.hue"),
		Intensity:        viper.GetString("transform.intensity"),
		Saturation:       viper.GetString("transform.saturation"),
		Red:              viper.GetString("transform.red"),
		Green:            viper.GetString("transform.green"),
		Blue:             viper.GetString("transform.blue"),
		Bits:             bits,
		Workers:          workers,
		Progress:         viper.GetBool("transform.progress"),
		Overwrite:        viper.GetBool("transform.overwrite"),
		AchromaticAnyHue: viper.GetBool("transform.achromatic_any_hue"),
	}
	if err := opts.validate(); err != nil {
		return err
	}

	store, err := band.Open(viper.GetString("store"))
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := signalContext()
	defer cancel()

	return transformBands(ctx, store, opts)
}

func transformBands(ctx context.Context, store *band.Store, opts transformOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}

	var inputs [3]*band.Reader
	for i, name := range []string{opts.Hue, opts.Intensity, opts.Saturation} {
		r, err := store.OpenBand(ctx, name)
		if err != nil {
			return err
		}
		inputs[i] = r
	}

	grid := inputs[0].Metadata()
	for _, r := range inputs[1:] {
		m := r.Metadata()
		if !grid.SameGrid(m) {
			return fmt.Errorf("band %s is %dx%d but %s is %dx%d",
				m.Name, m.Rows, m.Columns, grid.Name, grid.Rows, grid.Columns)
		}
	}

	conv, err := hisrgb.NewConverter(opts.Bits)
	if err != nil {
		return err
	}
	conv.AchromaticAnyHue = opts.AchromaticAnyHue

	semantics := [3]string{"red", "green", "blue"}
	metas := make([]band.Metadata, 0, len(semantics))
	for i, name := range []string{opts.Red, opts.Green, opts.Blue} {
		metas = append(metas, band.Metadata{
			Name:        name,
			Rows:        grid.Rows,
			Columns:     grid.Columns,
			Region:      grid.Region,
			Semantic:    semantics[i],
			Description: fmt.Sprintf("%s from %s/%s/%s, %d bits", semantics[i], opts.Hue, opts.Intensity, opts.Saturation, opts.Bits),
		})
	}

	// All three outputs are registered together or not at all.
	outputs, err := store.CreateBands(ctx, metas, opts.Overwrite)
	if err != nil {
		return err
	}

	logger.Info("Starting HIS to RGB transform",
		"rows", grid.Rows,
		"columns", grid.Columns,
		"bits", int(opts.Bits),
		"max_color", conv.MaxColor,
		"workers", opts.Workers,
	)

	progress := worker.NewProgress(grid.Rows, opts.Progress)

	runErr := worker.Convert(ctx, worker.Config{
		Workers:    opts.Workers,
		Rows:       grid.Rows,
		Columns:    grid.Columns,
		Converter:  conv,
		Inputs:     stream.Inputs{Hue: inputs[0], Intensity: inputs[1], Saturation: inputs[2]},
		Outputs:    stream.Outputs{Red: outputs[0], Green: outputs[1], Blue: outputs[2]},
		OnProgress: progress.Callback(),
		Logger:     logger,
	})
	progress.Done()

	// Close every writer so rows converted before a failure are kept.
	closeErrs := make([]error, 0, len(outputs))
	for _, w := range outputs {
		closeErrs = append(closeErrs, w.Close(ctx))
	}

	if runErr != nil {
		return fmt.Errorf("transform failed: %w", runErr)
	}
	if err := errors.Join(closeErrs...); err != nil {
		return err
	}

	logger.Info(progress.Summary())
	logger.Info("Transform complete", "red", opts.Red, "green", opts.Green, "blue", opts.Blue)
	return nil
}
