package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"math"
	"os"

	"github.com/eak1mov/go-tilemerge/container"
	"github.com/eak1mov/go-tilemerge/merge"
	"github.com/google/subcommands"
)

type mergeCmd struct {
	commonFlags
	outputPath string
	wrapB3DM   bool
	latitude   float64
}

func (c *mergeCmd) Name() string     { return "merge" }
func (c *mergeCmd) Synopsis() string { return "merge tiles covering a rectangle into one glTF asset" }
func (c *mergeCmd) Usage() string {
	return "tilemerge merge -config <path> -bbox <l,t,r,b> -o <path> [-level <n>] [-b3dm] [-lat <degrees>]\n"
}
func (c *mergeCmd) SetFlags(f *flag.FlagSet) {
	c.commonFlags.SetFlags(f)
	f.StringVar(&c.outputPath, "o", "", "Output file path")
	f.BoolVar(&c.wrapB3DM, "b3dm", false, "Wrap the output into b3dm with the merge origin as RTC_CENTER")
	f.Float64Var(&c.latitude, "lat", math.NaN(), "Reference latitude, defaults to the bbox top for mercator and 90 otherwise")
}

func (c *mergeCmd) referenceLatitude(cfg *config) float64 {
	if !math.IsNaN(c.latitude) {
		return c.latitude
	}
	if cfg.Projection == "mercator" {
		if topLeft, _, err := parseBBox(c.bbox); err == nil {
			return topLeft[1]
		}
	}
	return 90
}

func (c *mergeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.outputPath == "" {
		log.Println("output path is required (-o)")
		return subcommands.ExitUsageError
	}

	cfg, names, err := c.query()
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	jobs, err := readJobs(ctx, cfg, names)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	opts := []merge.Option{
		merge.WithLogger(slog.Default()),
		merge.WithReferenceLatitude(c.referenceLatitude(cfg)),
	}
	origin, hasOrigin := merge.Origin(jobs)
	if hasOrigin {
		opts = append(opts, merge.WithOrigin(origin))
	}

	data, err := merge.Merge(jobs, opts...)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	if c.wrapB3DM {
		featureTable := container.FeatureTable{"BATCH_LENGTH": []byte("0")}
		if hasOrigin {
			featureTable.SetReferenceCenter(origin)
		}
		if data, err = container.EncodeB3DM(featureTable, data); err != nil {
			log.Println(err)
			return subcommands.ExitFailure
		}
	}

	if err := os.WriteFile(c.outputPath, data, 0644); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	slog.Info("tilemerge: merged", "tiles", len(names), "output", c.outputPath, "bytes", len(data))

	return subcommands.ExitSuccess
}
