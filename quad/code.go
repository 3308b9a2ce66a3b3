package quad

import (
	"math/bits"

	"github.com/eak1mov/go-tilemerge/tile"
	"github.com/google/hilbert"
)

// EncodeCode returns an integer code for the name: cells of one level are numbered along
// a Hilbert curve over the grid, and every level comes after all shorter names.
func EncodeCode(name tile.Name) (uint64, error) {
	g, err := NewGrid(name.Level())
	if err != nil {
		return 0, err
	}
	col, row, err := g.ToGrid(name)
	if err != nil {
		return 0, err
	}

	h, _ := hilbert.NewHilbert(g.Size())
	d, _ := h.MapInverse(col, row)

	tilesCount := (1<<(g.level*2) - 1) / 3
	return uint64(d + tilesCount), nil
}

func DecodeCode(code uint64) (tile.Name, error) {
	level := (bits.Len64(3*code+1) - 1) / 2
	g, err := NewGrid(level)
	if err != nil {
		return "", err
	}
	tilesCount := (1<<(level*2) - 1) / 3

	h, _ := hilbert.NewHilbert(g.Size())
	col, row, err := h.Map(int(code) - tilesCount)
	if err != nil {
		return "", err
	}
	return g.FromGrid(col, row)
}
