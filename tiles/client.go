// Package tiles fetches, caches and mosaics slippy-map basemap tiles.
package tiles

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"time"

	_ "image/jpeg"
	_ "image/png"
)

// DefaultBaseURL is the public OpenStreetMap tile server.
const DefaultBaseURL = "https://tile.openstreetmap.org"

const userAgent = "thalassa/1.0 (+https://github.com/pmav99/thalassa)"

// Fetcher retrieves a single z/x/y tile.
type Fetcher interface {
	Fetch(ctx context.Context, z, x, y uint32) (image.Image, error)
}

// Client fetches tiles from an XYZ tile server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a tile client. An empty baseURL selects the
// OpenStreetMap tile server.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Fetch downloads and decodes one tile.
func (c *Client) Fetch(ctx context.Context, z, x, y uint32) (image.Image, error) {
	u := fmt.Sprintf("%s/%d/%d/%d.png", c.baseURL, z, x, y)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	// The OSM tile usage policy requires an identifying User-Agent.
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tile request %d/%d/%d: %w", z, x, y, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tile server error: status %d: %s", resp.StatusCode, body)
	}

	img, format, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode tile %d/%d/%d: %w", z, x, y, err)
	}
	c.logger.Debug("fetched tile", "z", z, "x", x, "y", y, "format", format)
	return img, nil
}
