// Package collect fetches tiles through a tile.Reader and turns them into merge jobs:
// payloads are decompressed, b3dm wrappers removed and reference centers resolved.
package collect

import (
	"bytes"
	"context"
	"log/slog"
	"runtime"

	"github.com/eak1mov/go-tilemerge/container"
	"github.com/eak1mov/go-tilemerge/merge"
	"github.com/eak1mov/go-tilemerge/tile"
	"golang.org/x/sync/errgroup"
)

type config struct {
	logger      *slog.Logger
	concurrency int
	centers     map[tile.Name][3]float64
	progress    func(tile.Name)
}

type Option func(*config)

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithConcurrency limits the number of tiles fetched at the same time.
func WithConcurrency(n int) Option {
	return func(c *config) { c.concurrency = n }
}

// WithCenters supplies reference centers for tiles whose container does not carry one.
func WithCenters(centers map[tile.Name][3]float64) Option {
	return func(c *config) { c.centers = centers }
}

// WithProgress registers a callback invoked once per processed tile, possibly from
// several goroutines.
func WithProgress(progress func(tile.Name)) Option {
	return func(c *config) { c.progress = progress }
}

// Jobs reads every named tile and returns one job per name, in the order of names.
// Tiles that are missing, fail to read or fail to decode yield a job without a center,
// which the merge skips. Only context cancellation aborts the whole call.
func Jobs(ctx context.Context, reader tile.Reader, names []tile.Name, opts ...Option) ([]merge.Job, error) {
	config := config{
		logger:      slog.New(slog.DiscardHandler),
		concurrency: runtime.GOMAXPROCS(0),
		progress:    func(tile.Name) {},
	}
	for _, opt := range opts {
		opt(&config)
	}

	jobs := make([]merge.Job, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(config.concurrency, 1))

	for i, name := range names {
		g.Go(func() error {
			job, err := config.job(ctx, reader, name)
			if err != nil {
				return err
			}
			jobs[i] = job
			config.progress(name)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (c *config) job(ctx context.Context, reader tile.Reader, name tile.Name) (merge.Job, error) {
	job := merge.Job{Key: string(name)}

	tileData, err := reader.ReadTile(ctx, name)
	if ctx.Err() != nil {
		return job, ctx.Err()
	}
	if err != nil {
		c.logger.Warn("tilemerge: read failed", "name", name, "err", err)
		return job, nil
	}
	if len(tileData) == 0 {
		c.logger.Debug("tilemerge: missing tile", "name", name)
		return job, nil
	}

	asset, center, err := Unwrap(tileData)
	if err != nil {
		c.logger.Warn("tilemerge: decode failed", "name", name, "err", err)
		return job, nil
	}
	if center == nil {
		if fallback, ok := c.centers[name]; ok {
			center = &fallback
		}
	}
	if center == nil {
		c.logger.Debug("tilemerge: no reference center", "name", name)
	}

	job.Asset = asset
	job.Center = center
	return job, nil
}

// Unwrap decompresses the payload and returns the embedded GLB with the b3dm reference
// center, if any. Bare GLB payloads are returned as is with a nil center.
func Unwrap(data []byte) ([]byte, *[3]float64, error) {
	data, _, err := container.Decompress(data)
	if err != nil {
		return nil, nil, err
	}

	if bytes.HasPrefix(data, []byte(container.GLBMagic)) {
		return data, nil, nil
	}

	b3dm, err := container.DecodeB3DM(data)
	if err != nil {
		return nil, nil, err
	}

	var center *[3]float64
	if rtc, ok := b3dm.FeatureTable.ReferenceCenter(); ok {
		center = &rtc
	}
	return b3dm.Embedded.Bytes(data), center, nil
}
