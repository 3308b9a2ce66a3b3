package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/eak1mov/go-tilemerge/source"
	"github.com/eak1mov/go-tilemerge/tile"
	"github.com/google/subcommands"
)

type lsCmd struct {
	pattern     string
	levelOffset int
	parents     bool
}

func (c *lsCmd) Name() string     { return "ls" }
func (c *lsCmd) Synopsis() string { return "list tiles stored in a directory or .sqlite cache" }
func (c *lsCmd) Usage() string {
	return "tilemerge ls [-parents] <dir|file.sqlite>\n"
}
func (c *lsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.pattern, "pattern", source.DefaultPattern, "Tile path pattern of a directory cache")
	f.IntVar(&c.levelOffset, "level-offset", source.DefaultLevelOffset, "Added to the name length to produce {level}")
	f.BoolVar(&c.parents, "parents", false, "Print tile counts per parent cell instead of tiles")
}

func (c *lsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		log.Print(c.Usage())
		return subcommands.ExitUsageError
	}
	path := f.Arg(0)

	var visitor tile.Visitor
	if strings.HasSuffix(path, ".sqlite") {
		cache, err := source.OpenSQLite(path)
		if err != nil {
			log.Println(err)
			return subcommands.ExitFailure
		}
		defer cache.Close()

		metadata, err := cache.ReadMetadata()
		if err != nil {
			log.Println(err)
			return subcommands.ExitFailure
		}
		printMetadata(os.Stdout, metadata)
		visitor = cache
	} else {
		pattern, err := source.NewPattern(c.pattern, c.levelOffset)
		if err != nil {
			log.Println(err)
			return subcommands.ExitFailure
		}
		visitor = source.NewDir(path, pattern)
	}

	if err := listTiles(os.Stdout, visitor, c.parents); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func printMetadata(w io.Writer, metadata map[string]string) {
	for _, key := range slices.Sorted(maps.Keys(metadata)) {
		fmt.Fprintf(w, "# %s=%s\n", key, metadata[key])
	}
}

// listTiles prints "name\tsize" per tile in visiting order, or "parent\tcount"
// sorted by parent name when parents is set.
func listTiles(w io.Writer, visitor tile.Visitor, parents bool) error {
	counts := make(map[tile.Name]int)
	err := visitor.VisitTiles(func(name tile.Name, tileData []byte) error {
		if parents {
			counts[name.Parent()]++
			return nil
		}
		_, err := fmt.Fprintf(w, "%v\t%d\n", name, len(tileData))
		return err
	})
	if err != nil {
		return err
	}
	for _, parent := range slices.Sorted(maps.Keys(counts)) {
		if _, err := fmt.Fprintf(w, "%v\t%d\n", parent, counts[parent]); err != nil {
			return err
		}
	}
	return nil
}
