package source

import (
	"context"
	"log/slog"

	"github.com/eak1mov/go-tilemerge/tile"
)

// CacheStore is a tileset that can be read from and written to.
type CacheStore interface {
	tile.Reader
	tile.Writer
}

// Cached is a read-through tile.Reader: tiles missing from the cache are read from the
// upstream reader and stored. Missing upstream tiles are not recorded.
type Cached struct {
	upstream tile.Reader
	cache    CacheStore
	logger   *slog.Logger
}

func NewCached(upstream tile.Reader, cache CacheStore, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cached{upstream, cache, logger}
}

func (c *Cached) ReadTile(ctx context.Context, name tile.Name) ([]byte, error) {
	tileData, err := c.cache.ReadTile(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(tileData) > 0 {
		return tileData, nil
	}

	tileData, err = c.upstream.ReadTile(ctx, name)
	if err != nil || len(tileData) == 0 {
		return tileData, err
	}

	c.logger.Debug("tilemerge: cache store", "name", name, "bytes", len(tileData))
	if err := c.cache.WriteTile(name, tileData); err != nil {
		return nil, err
	}
	return tileData, nil
}
