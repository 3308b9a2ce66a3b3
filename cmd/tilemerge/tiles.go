package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/eak1mov/go-tilemerge/collect"
	"github.com/eak1mov/go-tilemerge/tile"
	"github.com/google/subcommands"
)

type tilesCmd struct {
	commonFlags
	geojsonPath string
}

func (c *tilesCmd) Name() string     { return "tiles" }
func (c *tilesCmd) Synopsis() string { return "list tiles covering a rectangle" }
func (c *tilesCmd) Usage() string {
	return "tilemerge tiles -config <path> -bbox <l,t,r,b> [-level <n>] [-geojson <path>]\n"
}
func (c *tilesCmd) SetFlags(f *flag.FlagSet) {
	c.commonFlags.SetFlags(f)
	f.StringVar(&c.geojsonPath, "geojson", "", "Write tile footprints as GeoJSON to this path")
}

// query resolves the configuration and the tiles covering the requested rectangle.
func (c *commonFlags) query() (*config, []tile.Name, error) {
	cfg, err := c.load()
	if err != nil {
		return nil, nil, err
	}
	topLeft, bottomRight, err := parseBBox(c.bbox)
	if err != nil {
		return nil, nil, err
	}
	toSystem, _ := cfg.projections()
	names, err := collect.Names(cfg.system(), cfg.Level, topLeft, bottomRight, toSystem)
	if err != nil {
		return nil, nil, err
	}
	return cfg, names, nil
}

func (c *tilesCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	cfg, names, err := c.query()
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	for _, name := range names {
		fmt.Println(name)
	}

	if c.geojsonPath == "" {
		return subcommands.ExitSuccess
	}

	_, fromSystem := cfg.projections()
	fc, err := collect.Footprints(cfg.system(), names, fromSystem, nil)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	if err := os.WriteFile(c.geojsonPath, data, 0644); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
