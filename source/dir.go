package source

import (
	"context"
	"os"
	"path/filepath"

	"github.com/eak1mov/go-tilemerge/tile"
)

// Dir implements tile.Reader, tile.Writer and tile.Visitor for a tileset stored as
// individual files under a root directory.
type Dir struct {
	rootDir string
	pattern *Pattern
}

func NewDir(rootDir string, pattern *Pattern) *Dir {
	return &Dir{rootDir, pattern}
}

func (d *Dir) path(name tile.Name) string {
	return filepath.Join(d.rootDir, filepath.FromSlash(d.pattern.Format(name)))
}

func (d *Dir) ReadTile(_ context.Context, name tile.Name) ([]byte, error) {
	tileData, err := os.ReadFile(d.path(name))
	if os.IsNotExist(err) {
		return make([]byte, 0), nil
	}
	if err != nil {
		return nil, err
	}
	return tileData, nil
}

func (d *Dir) WriteTile(name tile.Name, tileData []byte) error {
	filePath := d.path(name)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}
	return os.WriteFile(filePath, tileData, 0644)
}

func (d *Dir) Finalize() error {
	return nil
}

func (d *Dir) VisitTiles(visitor func(tile.Name, []byte) error) error {
	return filepath.WalkDir(d.rootDir, func(filePath string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(d.rootDir, filePath)
		if err != nil {
			return err
		}
		name, ok := d.pattern.Parse(filepath.ToSlash(relPath))
		if !ok {
			return nil
		}

		tileData, err := os.ReadFile(filePath)
		if err != nil {
			return err
		}
		return visitor(name, tileData)
	})
}
