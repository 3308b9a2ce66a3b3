package source

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/eak1mov/go-tilemerge/container"
	"github.com/eak1mov/go-tilemerge/quad"
	"github.com/eak1mov/go-tilemerge/tile"
)

// SQLite implements tile.Reader, tile.Writer and tile.Visitor on a single-file tile
// cache. Tiles are keyed by their Hilbert code, so visiting yields them level by level
// in spatially clustered order.
//
// Note: User must properly initialize the sqlite3 library generic driver
// (e.g. import _ "github.com/mattn/go-sqlite3") before using this type.
type SQLite struct {
	db          *sql.DB
	selectStmt  *sql.Stmt
	insertStmt  *sql.Stmt
	compression container.Compression
	logger      *slog.Logger
}

type sqliteConfig struct {
	Metadata    map[string]string
	Compression container.Compression
	Logger      *slog.Logger
}

type SQLiteOption func(*sqliteConfig)

func WithMetadata(metadata map[string]string) SQLiteOption {
	return func(c *sqliteConfig) { c.Metadata = metadata }
}

// WithCompression sets the encoding applied to newly written tiles.
func WithCompression(compression container.Compression) SQLiteOption {
	return func(c *sqliteConfig) { c.Compression = compression }
}

func WithLogger(logger *slog.Logger) SQLiteOption {
	return func(c *sqliteConfig) { c.Logger = logger }
}

// OpenSQLite opens or creates a tile cache at the given file path.
//
// The returned SQLite must be closed after use to release database resources.
func OpenSQLite(filePath string, opts ...SQLiteOption) (*SQLite, error) {
	config := sqliteConfig{
		Compression: container.CompressionNone,
		Logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&config)
	}

	var err error
	db, err := sql.Open("sqlite3", filePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (name TEXT PRIMARY KEY, value TEXT);
		CREATE TABLE IF NOT EXISTS tiles (
			tile_code INTEGER PRIMARY KEY,
			tile_name TEXT NOT NULL,
			tile_data BLOB
		);
	`)
	if err != nil {
		return nil, err
	}

	for k, v := range config.Metadata {
		_, err = db.Exec("INSERT OR REPLACE INTO metadata (name, value) VALUES (?, ?)", k, v)
		if err != nil {
			return nil, err
		}
	}

	selectStmt, err := db.Prepare("SELECT tile_data FROM tiles WHERE tile_code = ?")
	if err != nil {
		return nil, err
	}
	insertStmt, err := db.Prepare("INSERT OR REPLACE INTO tiles (tile_code, tile_name, tile_data) VALUES (?, ?, ?)")
	if err != nil {
		selectStmt.Close()
		return nil, err
	}

	return &SQLite{
		db:          db,
		selectStmt:  selectStmt,
		insertStmt:  insertStmt,
		compression: config.Compression,
		logger:      config.Logger,
	}, nil
}

func (s *SQLite) Close() error {
	return errors.Join(s.selectStmt.Close(), s.insertStmt.Close(), s.db.Close())
}

func (s *SQLite) ReadMetadata() (map[string]string, error) {
	metadata := make(map[string]string)

	rows, err := s.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		metadata[name] = value
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return metadata, nil
}

func (s *SQLite) ReadTile(ctx context.Context, name tile.Name) ([]byte, error) {
	code, err := quad.EncodeCode(name)
	if err != nil {
		return nil, err
	}
	return s.readCode(ctx, code)
}

func (s *SQLite) readCode(ctx context.Context, code uint64) ([]byte, error) {
	var tileData []byte
	if err := s.selectStmt.QueryRowContext(ctx, code).Scan(&tileData); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return make([]byte, 0), nil
		}
		return nil, err
	}

	tileData, _, err := container.Decompress(tileData)
	return tileData, err
}

func (s *SQLite) WriteTile(name tile.Name, tileData []byte) error {
	code, err := quad.EncodeCode(name)
	if err != nil {
		return err
	}

	stored, err := container.Compress(tileData, s.compression)
	if err != nil {
		return err
	}

	_, err = s.insertStmt.Exec(code, string(name), stored)
	return err
}

func (s *SQLite) Finalize() error {
	s.logger.Debug("tilemerge: optimizing cache")
	_, err := s.db.Exec("PRAGMA optimize")
	s.logger.Debug("tilemerge: done!")
	return err
}

// VisitTiles visits tiles in code order. Tile codes are listed upfront and each tile is
// read separately, so the visitor may read from or write to the same cache.
func (s *SQLite) VisitTiles(visitor func(tile.Name, []byte) error) error {
	codes, err := s.codes()
	if err != nil {
		return err
	}

	for _, code := range codes {
		name, err := quad.DecodeCode(code)
		if err != nil {
			return err
		}

		tileData, err := s.readCode(context.Background(), code)
		if err != nil {
			return err
		}
		if len(tileData) == 0 {
			continue // removed while visiting
		}

		if err := visitor(name, tileData); err != nil {
			return err
		}
	}

	return nil
}

func (s *SQLite) codes() ([]uint64, error) {
	rows, err := s.db.Query("SELECT tile_code FROM tiles ORDER BY tile_code")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []uint64
	for rows.Next() {
		var code int64
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, uint64(code))
	}

	return codes, rows.Err()
}
