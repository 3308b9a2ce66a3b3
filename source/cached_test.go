package source_test

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/eak1mov/go-tilemerge/source"
	"github.com/eak1mov/go-tilemerge/tile"
	"github.com/stretchr/testify/require"
)

type countingReader struct {
	tiles map[tile.Name][]byte
	reads atomic.Int32
}

func (r *countingReader) ReadTile(_ context.Context, name tile.Name) ([]byte, error) {
	r.reads.Add(1)
	if tileData, ok := r.tiles[name]; ok {
		return tileData, nil
	}
	return make([]byte, 0), nil
}

func TestCached(t *testing.T) {
	upstream := &countingReader{tiles: map[tile.Name][]byte{"12": []byte("tile12")}}
	cache := source.NewDir(t.TempDir(), newPattern(t))
	reader := source.NewCached(upstream, cache, nil)
	ctx := context.Background()

	for range 3 {
		got, err := reader.ReadTile(ctx, "12")
		require.NoError(t, err)
		require.Equal(t, []byte("tile12"), got)
	}
	require.Equal(t, int32(1), upstream.reads.Load())

	for range 2 {
		got, err := reader.ReadTile(ctx, "33")
		require.NoError(t, err)
		require.Empty(t, got)
	}
	require.Equal(t, int32(3), upstream.reads.Load())

	stored, err := cache.ReadTile(ctx, "12")
	require.NoError(t, err)
	require.Equal(t, []byte("tile12"), stored)
}

func TestCachedSQLite(t *testing.T) {
	upstream := &countingReader{tiles: map[tile.Name][]byte{"0123": []byte("tile0123")}}
	cache, err := source.OpenSQLite(filepath.Join(t.TempDir(), "cache.sqlite"))
	require.NoError(t, err)
	defer cache.Close()

	reader := source.NewCached(upstream, cache, nil)
	for range 2 {
		got, err := reader.ReadTile(context.Background(), "0123")
		require.NoError(t, err)
		require.Equal(t, []byte("tile0123"), got)
	}
	require.Equal(t, int32(1), upstream.reads.Load())
}
