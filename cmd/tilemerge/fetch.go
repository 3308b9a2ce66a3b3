package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"

	"github.com/eak1mov/go-tilemerge/collect"
	"github.com/eak1mov/go-tilemerge/merge"
	"github.com/eak1mov/go-tilemerge/tile"
	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
)

type fetchCmd struct {
	commonFlags
}

func (c *fetchCmd) Name() string     { return "fetch" }
func (c *fetchCmd) Synopsis() string { return "download tiles covering a rectangle into the cache" }
func (c *fetchCmd) Usage() string {
	return "tilemerge fetch -config <path> -bbox <l,t,r,b> [-level <n>]\n"
}

func (c *fetchCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	cfg, names, err := c.query()
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	if cfg.Cache == "" {
		log.Println("cache is not configured")
		return subcommands.ExitFailure
	}

	jobs, err := readJobs(ctx, cfg, names)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	missing := 0
	for _, job := range jobs {
		if job.Asset == nil {
			missing++
		}
	}
	fmt.Printf("fetched %d tiles, %d missing\n", len(jobs)-missing, missing)

	return subcommands.ExitSuccess
}

// readJobs reads the named tiles from the configured source, showing progress.
func readJobs(ctx context.Context, cfg *config, names []tile.Name) ([]merge.Job, error) {
	logger := slog.Default()
	reader, closeReader, err := cfg.openReader(logger)
	if err != nil {
		return nil, err
	}

	centers, err := cfg.centers()
	if err != nil {
		closeReader()
		return nil, err
	}

	bar := progressbar.NewOptions(len(names),
		progressbar.OptionSetDescription("fetch"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
	)

	opts := []collect.Option{
		collect.WithLogger(logger),
		collect.WithCenters(centers),
		collect.WithProgress(func(tile.Name) { bar.Add(1) }),
	}
	if cfg.Concurrency > 0 {
		opts = append(opts, collect.WithConcurrency(cfg.Concurrency))
	}

	jobs, err := collect.Jobs(ctx, reader, names, opts...)
	bar.Finish()
	fmt.Println()

	if closeErr := closeReader(); err == nil {
		err = closeErr
	}
	return jobs, err
}
