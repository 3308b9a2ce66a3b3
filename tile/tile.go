// Package tile provides common tile interfaces and types.
package tile

import "context"

// Name identifies a quadtree cell by the quadrant digit chosen at each subdivision
// level, e.g. "21112330". Digits: 0 = left/bottom, 1 = left/top, 2 = right/bottom,
// 3 = right/top.
type Name string

// Valid reports whether the name is non-empty and consists of quadrant digits only.
func (n Name) Valid() bool {
	if len(n) == 0 {
		return false
	}
	for i := 0; i < len(n); i++ {
		if n[i] < '0' || n[i] > '3' {
			return false
		}
	}
	return true
}

// Level returns the number of subdivisions encoded in the name.
func (n Name) Level() int {
	return len(n)
}

// Parent returns the name of the enclosing cell, or an empty name for a single digit.
func (n Name) Parent() Name {
	if len(n) == 0 {
		return n
	}
	return n[:len(n)-1]
}

// Writer defines an interface for writing tiles to a tileset.
type Writer interface {
	// WriteTile writes a single tile to the tileset.
	WriteTile(name Name, tileData []byte) error

	// Finalize completes the writing process: flushes buffers, writes indices.
	// It must be called before closing the Writer.
	Finalize() error
}

type Reader interface {
	// ReadTile reads a single tile from the tileset.
	// It returns the tile data or an error if the tile cannot be read.
	// If the tile does not exist, it returns an empty slice with no error.
	ReadTile(ctx context.Context, name Name) ([]byte, error)
}

type Visitor interface {
	// VisitTiles visits all tiles in the tileset, calling the visitor for each.
	// It returns an error if visiting fails.
	// Order of tiles, upfront cpu and memory consumption are implementation-defined.
	VisitTiles(visitor func(Name, []byte) error) error
}
