package source_test

import (
	"context"
	"maps"
	"os"
	"path/filepath"
	"testing"

	"github.com/eak1mov/go-tilemerge/source"
	"github.com/eak1mov/go-tilemerge/tile"
	"github.com/google/go-cmp/cmp"
)

func TestDirWriterReader(t *testing.T) {
	rootDir := t.TempDir()
	pattern, err := source.NewPattern(source.DefaultPattern, source.DefaultLevelOffset)
	if err != nil {
		t.Fatalf("NewPattern failed: %v", err)
	}

	tiles := map[tile.Name][]byte{
		"0":        []byte("tile0"),
		"2111":     []byte("tile2111"),
		"21112330": []byte("tile21112330"),
	}

	dir := source.NewDir(rootDir, pattern)
	for name, tileData := range tiles {
		if err := dir.WriteTile(name, tileData); err != nil {
			t.Fatalf("WriteTile failed: %v", err)
		}
	}
	if err := dir.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(rootDir, "Data", "211", "123", "L17_21112330.b3dm")); err != nil {
		t.Errorf("tile file not found: %v", err)
	}
	if err := os.WriteFile(filepath.Join(rootDir, "Data", "readme.txt"), []byte("skip"), 0644); err != nil {
		t.Fatal(err)
	}

	for name, want := range tiles {
		got, err := dir.ReadTile(context.Background(), name)
		if err != nil {
			t.Fatalf("ReadTile failed: %v", err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("ReadTile(%v) mismatch (-want+got):\n%v", name, diff)
		}
	}

	missing, err := dir.ReadTile(context.Background(), "3333")
	if err != nil {
		t.Fatalf("ReadTile failed: %v", err)
	}
	if len(missing) != 0 {
		t.Errorf("ReadTile(missing) = %q, want empty", missing)
	}

	visited := maps.Collect(tile.IterTiles(dir))
	if diff := cmp.Diff(tiles, visited); diff != "" {
		t.Errorf("VisitTiles mismatch (-want+got):\n%v", diff)
	}
}
