// Package stream drives the row-by-row HIS to RGB conversion between band
// sources and sinks.
package stream

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/hisrgb/internal/hisrgb"
)

// RowSource yields rows of a single input band. ReadRow must overwrite every
// cell of dst.
type RowSource interface {
	ReadRow(ctx context.Context, row int, dst hisrgb.Row) error
}

// RowSink accepts rows of a single output band in increasing row order.
type RowSink interface {
	WriteRow(ctx context.Context, row int, src hisrgb.Row) error
}

// ProgressFunc is called after each row is written.
type ProgressFunc func(completed, total int)

// Inputs groups the three HIS band sources.
type Inputs struct {
	Hue        RowSource
	Intensity  RowSource
	Saturation RowSource
}

// Outputs groups the three RGB band sinks.
type Outputs struct {
	Red   RowSink
	Green RowSink
	Blue  RowSink
}

// Config configures a Driver.
type Config struct {
	Rows       int
	Columns    int
	Converter  *hisrgb.Converter
	Inputs     Inputs
	Outputs    Outputs
	OnProgress ProgressFunc
	Logger     *slog.Logger
}

// Driver converts rows sequentially, reusing one set of row buffers.
type Driver struct {
	cfg Config
}

// NewDriver validates cfg and returns a Driver.
func NewDriver(cfg Config) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Driver{cfg: cfg}, nil
}

// Validate checks dimensions and that every collaborator is set.
func (c Config) Validate() error {
	if c.Rows < 0 || c.Columns < 0 {
		return fmt.Errorf("invalid dimensions %dx%d", c.Rows, c.Columns)
	}
	if c.Converter == nil {
		return fmt.Errorf("converter is required")
	}
	if c.Inputs.Hue == nil || c.Inputs.Intensity == nil || c.Inputs.Saturation == nil {
		return fmt.Errorf("hue, intensity and saturation sources are required")
	}
	if c.Outputs.Red == nil || c.Outputs.Green == nil || c.Outputs.Blue == nil {
		return fmt.Errorf("red, green and blue sinks are required")
	}
	return nil
}

// Run processes rows 0..Rows-1 in order. It stops at the first source or sink
// error, or between rows when ctx is cancelled. Rows already written stay written.
func (d *Driver) Run(ctx context.Context) error {
	cfg := d.cfg
	group := NewRowGroup(cfg.Columns)

	d.log().Debug("Starting row conversion",
		"rows", cfg.Rows,
		"columns", cfg.Columns,
		"max_color", cfg.Converter.MaxColor,
	)

	for row := 0; row < cfg.Rows; row++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := group.Read(ctx, cfg.Inputs, row); err != nil {
			return err
		}

		group.Convert(cfg.Converter)

		if err := group.Write(ctx, cfg.Outputs, row); err != nil {
			return err
		}

		if cfg.OnProgress != nil {
			cfg.OnProgress(row+1, cfg.Rows)
		}
	}

	return nil
}

func (d *Driver) log() *slog.Logger {
	if d.cfg.Logger != nil {
		return d.cfg.Logger
	}
	return slog.Default()
}

// RowGroup holds the three band buffers of one scanline. After Convert the
// buffers hold red, green and blue in place of hue, intensity and saturation.
type RowGroup struct {
	Bands [3]hisrgb.Row
}

// NewRowGroup allocates buffers for the given column count.
func NewRowGroup(columns int) *RowGroup {
	return &RowGroup{Bands: [3]hisrgb.Row{
		hisrgb.NewRow(columns),
		hisrgb.NewRow(columns),
		hisrgb.NewRow(columns),
	}}
}

var (
	inputNames  = [3]string{"hue", "intensity", "saturation"}
	outputNames = [3]string{"red", "green", "blue"}
)

// Read fills the buffers with row from each input source.
func (g *RowGroup) Read(ctx context.Context, in Inputs, row int) error {
	sources := [3]RowSource{in.Hue, in.Intensity, in.Saturation}
	for band, src := range sources {
		if err := src.ReadRow(ctx, row, g.Bands[band]); err != nil {
			return fmt.Errorf("failed to read %s row %d: %w", inputNames[band], row, err)
		}
	}
	return nil
}

// Convert transforms the buffers in place.
func (g *RowGroup) Convert(c *hisrgb.Converter) {
	c.ConvertRow(g.Bands[0], g.Bands[1], g.Bands[2], len(g.Bands[0]))
}

// Write hands the converted buffers to the output sinks.
func (g *RowGroup) Write(ctx context.Context, out Outputs, row int) error {
	sinks := [3]RowSink{out.Red, out.Green, out.Blue}
	for band, sink := range sinks {
		if err := sink.WriteRow(ctx, row, g.Bands[band]); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", outputNames[band], row, err)
		}
	}
	return nil
}
