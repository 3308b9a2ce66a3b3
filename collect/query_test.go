package collect_test

import (
	"testing"

	"github.com/eak1mov/go-tilemerge/collect"
	"github.com/eak1mov/go-tilemerge/quad"
	"github.com/eak1mov/go-tilemerge/tile"
	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

var square = quad.System{Width: 100, Height: 100, RootLevel: 1}

func TestNames(t *testing.T) {
	names, err := collect.Names(square, 2, orb.Point{0, 0}, orb.Point{100, -100}, nil)
	require.NoError(t, err)
	require.Len(t, names, 16)
	require.Equal(t, tile.Name("11"), names[0])
	require.Equal(t, tile.Name("22"), names[15])

	double := func(p orb.Point) orb.Point { return orb.Point{p[0] * 2, p[1] * 2} }
	projected, err := collect.Names(square, 2, orb.Point{0, 0}, orb.Point{50, -50}, double)
	require.NoError(t, err)
	if diff := cmp.Diff(names, projected); diff != "" {
		t.Errorf("Names mismatch (-want+got):\n%v", diff)
	}
}

func TestFootprints(t *testing.T) {
	half := func(p orb.Point) orb.Point { return orb.Point{p[0] / 2, p[1] / 2} }

	fc, err := collect.Footprints(square, []tile.Name{"1", "22"}, half, map[tile.Name]bool{"22": true})
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	first := fc.Features[0]
	require.Equal(t, orb.Bound{Min: orb.Point{0, -25}, Max: orb.Point{25, 0}}, first.Geometry.Bound())
	require.Equal(t, "1", first.Properties["name"])
	require.Equal(t, "L2_1", first.Properties["label"])
	require.NotContains(t, first.Properties, "missing")

	second := fc.Features[1]
	require.Equal(t, orb.Bound{Min: orb.Point{37.5, -50}, Max: orb.Point{50, -37.5}}, second.Geometry.Bound())
	require.Equal(t, true, second.Properties["missing"])

	_, err = collect.Footprints(square, []tile.Name{"4"}, nil, nil)
	require.Error(t, err)
}
