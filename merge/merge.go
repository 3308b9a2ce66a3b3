// Package merge combines single-tile glTF assets into one GLB with a shared buffer and
// a scene graph positioning every tile relative to a common origin.
package merge

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/eak1mov/go-tilemerge/gltf"
)

var ErrInvalidLatitude = errors.New("merge: invalid reference latitude")

// Job is a single tile to merge. A nil Center marks a tile missing upstream.
type Job struct {
	Key    string
	Asset  []byte
	Center *[3]float64
}

type config struct {
	logger    *slog.Logger
	latitude  float64
	origin    *[3]float64
	generator string
}

type Option func(*config)

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithReferenceLatitude sets the latitude (degrees) of the query origin, which defines
// the rotation of the root node about the up axis. Defaults to 90, no rotation.
func WithReferenceLatitude(latitude float64) Option {
	return func(c *config) { c.latitude = latitude }
}

// WithOrigin fixes the merge origin instead of using the first merged tile's center.
func WithOrigin(origin [3]float64) Option {
	return func(c *config) { c.origin = &origin }
}

func WithGenerator(generator string) Option {
	return func(c *config) { c.generator = generator }
}

// Merge decodes the jobs in order and returns one GLB holding all of them. Jobs without
// a center or with an asset that cannot be read are skipped; if every job is skipped
// the result is a valid asset with an empty root node.
func Merge(jobs []Job, opts ...Option) ([]byte, error) {
	config := config{
		logger:    slog.New(slog.DiscardHandler),
		latitude:  90,
		generator: "go-tilemerge",
	}
	for _, opt := range opts {
		opt(&config)
	}
	if math.IsNaN(config.latitude) || config.latitude < -90 || config.latitude > 90 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLatitude, config.latitude)
	}

	asset := newCombined(config.generator)
	origin := config.origin
	for _, job := range jobs {
		if job.Center == nil {
			config.logger.Debug("tilemerge: skip missing tile", "key", job.Key)
			continue
		}

		tile, err := gltf.ReadTile(job.Asset)
		if err != nil {
			config.logger.Warn("tilemerge: skip tile", "key", job.Key, "err", err)
			continue
		}

		if origin == nil {
			center := *job.Center
			origin = &center
			config.logger.Debug("tilemerge: origin", "key", job.Key, "center", center)
		}

		asset.addTile(job.Key, tile, translation(*job.Center, *origin))
	}

	config.logger.Debug("tilemerge: encode", "tiles", len(asset.children), "jobs", len(jobs), "bytes", len(asset.buffer))
	return asset.encode(rootRotation(config.latitude))
}

// Origin returns the default merge origin: the center of the first job that has one and
// whose asset can be read. It reports false when no job would be merged.
func Origin(jobs []Job) ([3]float64, bool) {
	for _, job := range jobs {
		if job.Center == nil {
			continue
		}
		if _, err := gltf.ReadTile(job.Asset); err == nil {
			return *job.Center, true
		}
	}
	return [3]float64{}, false
}

// translation moves a tile from its z-up center to the y-up merged frame.
func translation(center, origin [3]float64) [3]float64 {
	return [3]float64{
		center[0] - origin[0],
		center[2] - origin[2],
		origin[1] - center[1],
	}
}

// rootRotation returns the unit quaternion (x, y, z, w) rotating the scene about the
// up axis by pi*(90-latitude)/360 radians.
func rootRotation(latitude float64) [4]float64 {
	angle := math.Pi * (90 - latitude) / 360
	sin, cos := math.Sincos(angle / 2)
	return [4]float64{0, sin, 0, cos}
}
