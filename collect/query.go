package collect

import (
	"github.com/eak1mov/go-tilemerge/quad"
	"github.com/eak1mov/go-tilemerge/tile"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Names returns the tiles at level covering the rectangle spanned by two corners given
// in source coordinates; project maps them into the system plane and may be nil.
func Names(system quad.System, level int, topLeft, bottomRight orb.Point, project orb.Projection) ([]tile.Name, error) {
	if project != nil {
		topLeft, bottomRight = project(topLeft), project(bottomRight)
	}
	return system.Cover(level, topLeft, bottomRight)
}

// Footprints returns the named cells as GeoJSON polygons carrying "name" and "label"
// properties; unproject maps system coordinates back and may be nil. Tiles listed in
// missing get a "missing" property.
func Footprints(system quad.System, names []tile.Name, unproject orb.Projection, missing map[tile.Name]bool) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	for _, name := range names {
		cell, err := system.Cell(name)
		if err != nil {
			return nil, err
		}

		polygon := cell.Bound.Orb().ToPolygon()
		if unproject != nil {
			for _, ring := range polygon {
				for i := range ring {
					ring[i] = unproject(ring[i])
				}
			}
		}

		feature := geojson.NewFeature(polygon)
		feature.Properties["name"] = string(name)
		feature.Properties["label"] = cell.Label
		if missing[name] {
			feature.Properties["missing"] = true
		}
		fc.Append(feature)
	}
	return fc, nil
}
