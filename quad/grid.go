package quad

import (
	"fmt"
	"math"

	"github.com/eak1mov/go-tilemerge/tile"
	"github.com/paulmach/orb"
)

// Grid maps names with a fixed number of digits to integer (col, row) coordinates,
// with (0, 0) at the top-left cell and rows growing downwards.
type Grid struct {
	level  int
	system System
}

func NewGrid(level int) (Grid, error) {
	if level < 1 || level > 30 {
		return Grid{}, fmt.Errorf("%w: grid level %d", ErrInvalidLevel, level)
	}
	size := math.Ldexp(1, level+1)
	return Grid{
		level:  level,
		system: System{Width: size, Height: size, RootLevel: 1},
	}, nil
}

func (g Grid) Level() int {
	return g.level
}

// Size returns the number of cells along each axis.
func (g Grid) Size() int {
	return 1 << g.level
}

func (g Grid) ToGrid(name tile.Name) (col, row int, err error) {
	if name.Level() != g.level {
		return 0, 0, fmt.Errorf("%w: %q at level %d", ErrGridMismatch, name, g.level)
	}
	p, err := g.system.Decode(name)
	if err != nil {
		return 0, 0, err
	}

	x := (p[0] - 1) / 2
	y := -(p[1] + 1) / 2
	col, row = int(x), int(y)
	if float64(col) != x || float64(row) != y {
		return 0, 0, fmt.Errorf("%w: %q decodes to (%v, %v)", ErrGridMismatch, name, x, y)
	}
	return col, row, nil
}

func (g Grid) FromGrid(col, row int) (tile.Name, error) {
	if col < 0 || row < 0 || col >= g.Size() || row >= g.Size() {
		return "", fmt.Errorf("%w: (%d, %d) at level %d", ErrOutOfGrid, col, row, g.level)
	}
	return g.system.Encode(g.level, orb.Point{float64(col)*2 + 1, -float64(row)*2 - 1})
}

// Range returns every name in the rectangle spanned by two corner cells of the same
// level, inclusive. Names are ordered by ascending row, then ascending column.
func Range(a, b tile.Name) ([]tile.Name, error) {
	if a.Level() != b.Level() {
		return nil, fmt.Errorf("%w: %q and %q", ErrGridMismatch, a, b)
	}
	g, err := NewGrid(a.Level())
	if err != nil {
		return nil, err
	}
	col1, row1, err := g.ToGrid(a)
	if err != nil {
		return nil, err
	}
	col2, row2, err := g.ToGrid(b)
	if err != nil {
		return nil, err
	}

	minCol, maxCol := min(col1, col2), max(col1, col2)
	minRow, maxRow := min(row1, row2), max(row1, row2)

	names := make([]tile.Name, 0, (maxCol-minCol+1)*(maxRow-minRow+1))
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			name, err := g.FromGrid(col, row)
			if err != nil {
				return nil, err
			}
			names = append(names, name)
		}
	}
	return names, nil
}
