// Package client retrieves the catalog document over HTTP.
// Retrieval never fails from the caller's point of view: an unreachable server,
// a bad status or a garbled document all yield an empty catalog.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sptk-project/sptkdl/internal/catalog"
	"github.com/sptk-project/sptkdl/internal/selector"
)

// maxCatalogSize limits the size of catalog documents read from the network.
const maxCatalogSize = 32 << 20 // 32 MB

// Client fetches the catalog from a URL.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient = &http.Client{Timeout: d} }
}

// New creates a Client for the catalog at url.
func New(url string, opts ...Option) *Client {
	c := &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch performs one GET of the catalog. It never returns nil.
func (c *Client) Fetch(ctx context.Context) *catalog.Catalog {
	cat, err := c.fetch(ctx)
	if err != nil {
		c.logger.Warn("catalog unavailable, using empty catalog", "url", c.url, "error", err)
		return catalog.Empty()
	}
	c.logger.Debug("catalog fetched", "url", c.url, "versions", len(cat.Versions))
	return cat
}

// Load fetches the catalog and installs it into s.
// A failed fetch leaves s in the empty phase.
func (c *Client) Load(ctx context.Context, s *selector.Selector) {
	s.Load(c.Fetch(ctx))
}

func (c *Client) fetch(ctx context.Context) (*catalog.Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var cat catalog.Catalog
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxCatalogSize)).Decode(&cat); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	if cat.Versions == nil {
		cat.Versions = []catalog.VersionEntry{}
	}
	return &cat, nil
}
