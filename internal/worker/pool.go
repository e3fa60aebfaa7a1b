// Package worker provides a parallel row conversion pool and progress reporting.
package worker

import (
	"context"
	"log/slog"

	"github.com/MeKo-Tech/hisrgb/internal/hisrgb"
	"github.com/MeKo-Tech/hisrgb/internal/stream"
	"golang.org/x/sync/errgroup"
)

// Config configures the worker pool.
type Config struct {
	Workers    int
	Rows       int
	Columns    int
	Converter  *hisrgb.Converter
	Inputs     stream.Inputs
	Outputs    stream.Outputs
	OnProgress stream.ProgressFunc
	Logger     *slog.Logger
}

// Pool converts row groups on several goroutines. Rows are read and written
// sequentially in increasing order; only the conversion runs in parallel.
type Pool struct {
	cfg     Config
	workers int
}

// New creates a new worker pool.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		cfg:     cfg,
		workers: workers,
	}
}

type task struct {
	row   int
	group *stream.RowGroup
}

// Run converts all rows. It returns the first read or write error, or the
// context error if ctx is cancelled.
func (p *Pool) Run(ctx context.Context) error {
	cfg := p.cfg
	if err := cfg.streamConfig().Validate(); err != nil {
		return err
	}
	if cfg.Rows == 0 {
		return nil
	}

	// At most window row groups are in flight; the free list bounds memory.
	window := 2 * p.workers
	if window > cfg.Rows {
		window = cfg.Rows
	}
	free := make(chan *stream.RowGroup, window)
	for i := 0; i < window; i++ {
		free <- stream.NewRowGroup(cfg.Columns)
	}

	taskCh := make(chan task, window)
	doneCh := make(chan task, window)

	g, gctx := errgroup.WithContext(ctx)

	p.log().Debug("Starting parallel row conversion",
		"rows", cfg.Rows,
		"columns", cfg.Columns,
		"workers", p.workers,
		"window", window,
	)

	// Reader
	g.Go(func() error {
		defer close(taskCh)
		for row := 0; row < cfg.Rows; row++ {
			var group *stream.RowGroup
			select {
			case group = <-free:
			case <-gctx.Done():
				return gctx.Err()
			}

			if err := group.Read(gctx, cfg.Inputs, row); err != nil {
				return err
			}

			select {
			case taskCh <- task{row: row, group: group}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	// Converters
	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			for t := range taskCh {
				t.group.Convert(cfg.Converter)
				select {
				case doneCh <- t:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	// Writer, restoring row order
	g.Go(func() error {
		pending := make(map[int]*stream.RowGroup, window)
		next := 0
		for next < cfg.Rows {
			select {
			case t := <-doneCh:
				pending[t.row] = t.group
			case <-gctx.Done():
				return gctx.Err()
			}

			for {
				group, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)

				if err := group.Write(gctx, cfg.Outputs, next); err != nil {
					return err
				}
				next++
				if cfg.OnProgress != nil {
					cfg.OnProgress(next, cfg.Rows)
				}
				free <- group
			}
		}
		return nil
	})

	return g.Wait()
}

func (p *Pool) log() *slog.Logger {
	if p.cfg.Logger != nil {
		return p.cfg.Logger
	}
	return slog.Default()
}

// Convert runs the conversion with the sequential driver for one worker and
// the parallel pool otherwise. Both produce identical output.
func Convert(ctx context.Context, cfg Config) error {
	if cfg.Workers > 1 {
		return New(cfg).Run(ctx)
	}

	d, err := stream.NewDriver(cfg.streamConfig())
	if err != nil {
		return err
	}
	return d.Run(ctx)
}

func (c Config) streamConfig() stream.Config {
	return stream.Config{
		Rows:       c.Rows,
		Columns:    c.Columns,
		Converter:  c.Converter,
		Inputs:     c.Inputs,
		Outputs:    c.Outputs,
		OnProgress: c.OnProgress,
		Logger:     c.Logger,
	}
}
