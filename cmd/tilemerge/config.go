package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/eak1mov/go-tilemerge/quad"
	"github.com/eak1mov/go-tilemerge/source"
	"github.com/eak1mov/go-tilemerge/tile"
	"github.com/goccy/go-json"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

type systemConfig struct {
	X0        float64 `json:"x0"`
	Y0        float64 `json:"y0"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	RootLevel int     `json:"rootLevel"`
}

// config is the JSON configuration file shared by all commands.
type config struct {
	System      systemConfig          `json:"system"`
	Level       int                   `json:"level"`
	Source      string                `json:"source"`
	Pattern     string                `json:"pattern"`
	LevelOffset *int                  `json:"levelOffset"`
	Cache       string                `json:"cache"`
	Projection  string                `json:"projection"`
	Concurrency int                   `json:"concurrency"`
	Retries     *int                  `json:"retries"`
	RetryDelay  string                `json:"retryDelay"`
	Centers     map[string][3]float64 `json:"centers"`
}

// commonFlags are the flags of commands that enumerate tiles of a query rectangle.
type commonFlags struct {
	configPath string
	bbox       string
	level      int
	source     string
	verbose    bool
}

func (c *commonFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", "", "Configuration file path (JSON)")
	f.StringVar(&c.bbox, "bbox", "", "Query rectangle: left,top,right,bottom")
	f.IntVar(&c.level, "level", 0, "Tile level, overrides configuration")
	f.StringVar(&c.source, "source", "", "Tileset URL, directory or .sqlite file, overrides configuration")
	f.BoolVar(&c.verbose, "v", false, "Verbose logging")
}

func (c *commonFlags) load() (*config, error) {
	if c.verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}
	if c.configPath == "" {
		return nil, errors.New("configuration file is required (-config)")
	}
	file, err := os.Open(c.configPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg, err := readConfig(file)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", c.configPath, err)
	}
	if c.level != 0 {
		cfg.Level = c.level
	}
	if c.source != "" {
		cfg.Source = c.source
	}
	return cfg, nil
}

func readConfig(r io.Reader) (*config, error) {
	cfg := &config{}
	if err := json.NewDecoder(r).Decode(cfg); err != nil {
		return nil, err
	}
	if cfg.System.Width <= 0 || cfg.System.Height <= 0 {
		return nil, errors.New("system width and height must be positive")
	}
	if cfg.System.RootLevel == 0 {
		cfg.System.RootLevel = 1
	}
	if cfg.Pattern == "" {
		cfg.Pattern = source.DefaultPattern
	}
	if cfg.LevelOffset == nil {
		offset := source.DefaultLevelOffset
		cfg.LevelOffset = &offset
	}
	switch cfg.Projection {
	case "":
		cfg.Projection = "none"
	case "none", "mercator":
	default:
		return nil, fmt.Errorf("unknown projection %q", cfg.Projection)
	}
	return cfg, nil
}

func (cfg *config) system() quad.System {
	return quad.System{
		X0:        cfg.System.X0,
		Y0:        cfg.System.Y0,
		Width:     cfg.System.Width,
		Height:    cfg.System.Height,
		RootLevel: cfg.System.RootLevel,
	}
}

// projections returns the mapping from query coordinates to the system plane and back.
func (cfg *config) projections() (orb.Projection, orb.Projection) {
	if cfg.Projection == "mercator" {
		return project.WGS84.ToMercator, project.Mercator.ToWGS84
	}
	return nil, nil
}

func (cfg *config) centers() (map[tile.Name][3]float64, error) {
	centers := make(map[tile.Name][3]float64, len(cfg.Centers))
	for key, center := range cfg.Centers {
		name := tile.Name(key)
		if !name.Valid() {
			return nil, fmt.Errorf("%w: center for %q", quad.ErrInvalidName, key)
		}
		centers[name] = center
	}
	return centers, nil
}

func (cfg *config) pattern() (*source.Pattern, error) {
	return source.NewPattern(cfg.Pattern, *cfg.LevelOffset)
}

// openReader returns the reader of the configured source, read through the configured
// cache for remote sources. The returned function releases resources.
func (cfg *config) openReader(logger *slog.Logger) (tile.Reader, func() error, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	nop := func() error { return nil }
	pattern, err := cfg.pattern()
	if err != nil {
		return nil, nil, err
	}

	switch {
	case cfg.Source == "":
		return nil, nil, errors.New("tileset source is not configured")

	case strings.HasSuffix(cfg.Source, ".sqlite"):
		cache, err := source.OpenSQLite(cfg.Source, source.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return cache, cache.Close, nil

	case strings.HasPrefix(cfg.Source, "http://") || strings.HasPrefix(cfg.Source, "https://"):
		opts := []source.HTTPOption{source.WithHTTPLogger(logger)}
		if cfg.Retries != nil {
			opts = append(opts, source.WithRetries(*cfg.Retries))
		}
		if cfg.RetryDelay != "" {
			delay, err := time.ParseDuration(cfg.RetryDelay)
			if err != nil {
				return nil, nil, err
			}
			opts = append(opts, source.WithRetryDelay(delay))
		}
		remote := source.NewHTTP(cfg.Source, pattern, opts...)
		if cfg.Cache == "" {
			return remote, nop, nil
		}

		cache, err := openCache(cfg.Cache, pattern, logger)
		if err != nil {
			return nil, nil, err
		}
		return source.NewCached(remote, cache, logger), cache.close, nil

	default:
		return source.NewDir(cfg.Source, pattern), nop, nil
	}
}

type cacheStore struct {
	source.CacheStore
	close func() error
}

func openCache(path string, pattern *source.Pattern, logger *slog.Logger) (*cacheStore, error) {
	if filepath.Ext(path) == ".sqlite" {
		cache, err := source.OpenSQLite(path, source.WithLogger(logger),
			source.WithMetadata(map[string]string{"pattern": pattern.String()}))
		if err != nil {
			return nil, err
		}
		return &cacheStore{cache, func() error {
			return errors.Join(cache.Finalize(), cache.Close())
		}}, nil
	}
	return &cacheStore{source.NewDir(path, pattern), func() error { return nil }}, nil
}

// parseBBox reads "left,top,right,bottom".
func parseBBox(value string) (orb.Point, orb.Point, error) {
	var coords [4]float64
	if _, err := fmt.Sscanf(value, "%f,%f,%f,%f", &coords[0], &coords[1], &coords[2], &coords[3]); err != nil {
		return orb.Point{}, orb.Point{}, fmt.Errorf("invalid bbox %q: %w", value, err)
	}
	return orb.Point{coords[0], coords[1]}, orb.Point{coords[2], coords[3]}, nil
}
