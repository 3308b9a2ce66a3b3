package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/eak1mov/go-tilemerge/collect"
	"github.com/eak1mov/go-tilemerge/gltf"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/subcommands"
)

type extractCmd struct {
	inputPath string
	outputDir string
}

func (c *extractCmd) Name() string     { return "extract" }
func (c *extractCmd) Synopsis() string { return "extract the embedded glTF asset and image of a tile" }
func (c *extractCmd) Usage() string {
	return "tilemerge extract -i <path> -o <dir>\n"
}
func (c *extractCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input tile path (b3dm or glb, optionally compressed)")
	f.StringVar(&c.outputDir, "o", ".", "Output directory")
}

func (c *extractCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	data, err := os.ReadFile(c.inputPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	asset, center, err := collect.Unwrap(data)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	tile, err := gltf.ReadTile(asset)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	base := strings.TrimSuffix(filepath.Base(c.inputPath), filepath.Ext(c.inputPath))
	if err := os.MkdirAll(c.outputDir, 0755); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	extension := ".bin"
	if mime := mimetype.Lookup(tile.Image.MimeType); mime != nil {
		extension = mime.Extension()
	}
	outputs := map[string][]byte{
		base + ".glb":     asset,
		base + extension: tile.Image.Data,
	}
	for name, content := range outputs {
		if err := os.WriteFile(filepath.Join(c.outputDir, name), content, 0644); err != nil {
			log.Println(err)
			return subcommands.ExitFailure
		}
	}

	if center != nil {
		fmt.Printf("RTC_CENTER %v %v %v\n", center[0], center[1], center[2])
	}
	fmt.Printf("vertices %d, indices %d, image %s (%d bytes)\n",
		tile.Positions.Accessor.Count, tile.Indices.Accessor.Count, tile.Image.MimeType, len(tile.Image.Data))

	return subcommands.ExitSuccess
}
