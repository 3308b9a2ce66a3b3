package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/eak1mov/go-tilemerge/tile"
)

var ErrFetchFailed = errors.New("tilemerge: fetch failed")

// HTTP implements tile.Reader for a tileset published on a web server.
// A 404 response means the tile does not exist; other failures are retried.
type HTTP struct {
	baseURL string
	pattern *Pattern
	client  *http.Client
	retries int
	delay   time.Duration
	logger  *slog.Logger
}

type httpConfig struct {
	Client  *http.Client
	Retries int
	Delay   time.Duration
	Logger  *slog.Logger
}

type HTTPOption func(*httpConfig)

func WithClient(client *http.Client) HTTPOption {
	return func(c *httpConfig) { c.Client = client }
}

// WithRetries sets how many times a failed request is repeated.
func WithRetries(retries int) HTTPOption {
	return func(c *httpConfig) { c.Retries = retries }
}

// WithRetryDelay sets the pause before each repeated request.
func WithRetryDelay(delay time.Duration) HTTPOption {
	return func(c *httpConfig) { c.Delay = delay }
}

func WithHTTPLogger(logger *slog.Logger) HTTPOption {
	return func(c *httpConfig) { c.Logger = logger }
}

func NewHTTP(baseURL string, pattern *Pattern, opts ...HTTPOption) *HTTP {
	config := httpConfig{
		Client:  &http.Client{Timeout: 30 * time.Second},
		Retries: 4,
		Delay:   5 * time.Second,
		Logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		pattern: pattern,
		client:  config.Client,
		retries: max(config.Retries, 0),
		delay:   config.Delay,
		logger:  config.Logger,
	}
}

func (h *HTTP) URL(name tile.Name) string {
	return h.baseURL + "/" + h.pattern.Format(name)
}

func (h *HTTP) ReadTile(ctx context.Context, name tile.Name) ([]byte, error) {
	url := h.URL(name)

	var lastErr error
	for attempt := 0; attempt <= h.retries; attempt++ {
		if attempt > 0 {
			h.logger.Debug("tilemerge: retry", "url", url, "attempt", attempt, "err", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(h.delay):
			}
		}

		tileData, err := h.fetch(ctx, url)
		if err == nil {
			return tileData, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%w: %v after %d attempts: %w", ErrFetchFailed, url, h.retries+1, lastErr)
}

func (h *HTTP) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return make([]byte, 0), nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("status %v", resp.Status)
	}

	return io.ReadAll(resp.Body)
}
