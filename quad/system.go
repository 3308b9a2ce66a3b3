// Package quad maps planar positions to quadtree tile names and back.
//
// Tile organization, y grows upwards and the root box hangs below its (X0, Y0) corner:
//
//	(X0,Y0)
//	   +-----+-----+---> x
//	   |  1  |  3  |
//	   +-----+-----+
//	   |  0  |  2  |
//	   +-----+-----+
//	   |
package quad

import (
	"errors"
	"fmt"
	"math"

	"github.com/eak1mov/go-tilemerge/tile"
	"github.com/paulmach/orb"
)

var (
	ErrInvalidLevel = errors.New("quad: invalid level")
	ErrInvalidName  = errors.New("quad: invalid tile name")
	ErrGridMismatch = errors.New("quad: tile name does not match grid level")
	ErrOutOfGrid    = errors.New("quad: grid coordinates out of range")
)

// System is a quadtree rooted at a planar box whose top-left corner is (X0, Y0).
// Encoding at RootLevel yields single digit names, each following level adds a digit.
type System struct {
	X0        float64
	Y0        float64
	Width     float64
	Height    float64
	RootLevel int
}

// Bound is an axis-aligned cell box, (X0, Y0) is the top-left corner so Y1 <= Y0.
type Bound struct {
	X0 float64
	Y0 float64
	X1 float64
	Y1 float64
}

func (b Bound) Orb() orb.Bound {
	return orb.Bound{
		Min: orb.Point{min(b.X0, b.X1), min(b.Y0, b.Y1)},
		Max: orb.Point{max(b.X0, b.X1), max(b.Y0, b.Y1)},
	}
}

// Center returns the middle point of the box.
func (b Bound) Center() orb.Point {
	return orb.Point{(b.X0 + b.X1) / 2, (b.Y0 + b.Y1) / 2}
}

// Cell is a named quadtree cell. Label follows the "L{level}_{name}" convention of the
// upstream tile layout, where the level counts from the root box.
type Cell struct {
	Label string
	Name  tile.Name
	Bound Bound
}

// Encode returns the name of the cell at the given level containing p.
// Points exactly on a midpoint belong to the right/bottom quadrant.
func (s System) Encode(level int, p orb.Point) (tile.Name, error) {
	name, _, err := s.encode(level, p, nil)
	return name, err
}

// EncodeBounds is like Encode but also returns every cell visited from RootLevel down to
// level (ancestors first) and the bounds of the final cell.
func (s System) EncodeBounds(level int, p orb.Point) (tile.Name, []Cell, Bound, error) {
	cells := make([]Cell, 0)
	name, last, err := s.encode(level, p, &cells)
	if err != nil {
		return "", nil, Bound{}, err
	}
	return name, cells, last, nil
}

func (s System) encode(level int, p orb.Point, cells *[]Cell) (tile.Name, Bound, error) {
	if level < s.RootLevel {
		return "", Bound{}, fmt.Errorf("%w: %d is below root level %d", ErrInvalidLevel, level, s.RootLevel)
	}

	x, y := p[0], p[1]
	x0, y0, dx, dy := s.X0, s.Y0, s.Width, s.Height

	name := make([]byte, 0, level-s.RootLevel+1)
	var last Bound
	for l := s.RootLevel; l <= level; l++ {
		dx /= 2
		dy /= 2

		isRight := x >= x0+dx
		isBottom := y <= y0-dy
		name = append(name, quadrant(isRight, isBottom))

		if isRight {
			x0 += dx
		}
		if isBottom {
			y0 -= dy
		}

		last = Bound{X0: x0, Y0: y0, X1: x0 + dx, Y1: y0 - dy}
		if cells != nil {
			*cells = append(*cells, Cell{
				Label: fmt.Sprintf("L%d_%s", l+1, name),
				Name:  tile.Name(name),
				Bound: last,
			})
		}
	}

	return tile.Name(name), last, nil
}

func quadrant(isRight, isBottom bool) byte {
	switch {
	case isRight && isBottom:
		return '2'
	case isRight:
		return '3'
	case isBottom:
		return '0'
	default:
		return '1'
	}
}

// Decode returns the center point of the named cell.
func (s System) Decode(name tile.Name) (orb.Point, error) {
	if !name.Valid() {
		return orb.Point{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	level := name.Level()
	divCount := math.Ldexp(1, level)

	x, y := 0.0, 0.0
	div := divCount
	for i := range level {
		div /= 2
		if i == level-1 {
			// land on the cell center instead of its corner
			x += div / 2
			y -= div / 2
		}

		switch name[i] {
		case '2':
			x += div
			y -= div
		case '3':
			x += div
		case '0':
			y -= div
		}
	}

	return orb.Point{
		s.X0 + s.Width*x/divCount,
		s.Y0 + s.Height*y/divCount,
	}, nil
}

// Level returns the level a name belongs to in this system.
func (s System) Level(name tile.Name) int {
	return name.Level() + s.RootLevel - 1
}

// Cell returns the labelled bounds of the named cell.
func (s System) Cell(name tile.Name) (Cell, error) {
	center, err := s.Decode(name)
	if err != nil {
		return Cell{}, err
	}
	level := s.Level(name)
	_, bound, err := s.encode(level, center, nil)
	if err != nil {
		return Cell{}, err
	}
	return Cell{
		Label: fmt.Sprintf("L%d_%s", level+1, name),
		Name:  name,
		Bound: bound,
	}, nil
}

// Bounds returns the box of the named cell.
func (s System) Bounds(name tile.Name) (Bound, error) {
	cell, err := s.Cell(name)
	return cell.Bound, err
}

// Cover returns the names of all cells at level intersecting the rectangle spanned by
// two corner points, row by row from the top.
func (s System) Cover(level int, topLeft, bottomRight orb.Point) ([]tile.Name, error) {
	a, err := s.Encode(level, topLeft)
	if err != nil {
		return nil, err
	}
	b, err := s.Encode(level, bottomRight)
	if err != nil {
		return nil, err
	}
	return Range(a, b)
}
