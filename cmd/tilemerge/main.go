package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&tilesCmd{}, "")
	subcommands.Register(&fetchCmd{}, "")
	subcommands.Register(&mergeCmd{}, "")
	subcommands.Register(&extractCmd{}, "")
	subcommands.Register(&lsCmd{}, "")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}
