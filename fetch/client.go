// Package fetch retrieves quote pages over HTTP
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var (
	// ErrStatus is returned for any non-2xx response
	ErrStatus = errors.New("unexpected status code")
	// ErrUnknownSymbol is returned when the site does not recognise the ticker
	ErrUnknownSymbol = errors.New("unknown symbol")
)

// Fetcher retrieves the raw page at a URL
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Client fetches pages with a browser-like header set
type Client struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	log       zerolog.Logger
}

// NewClient creates a new fetch client
func NewClient(os ...Option) *Client {
	opts := defaultOptions
	for _, o := range os {
		opts = o(opts)
	}

	c := &Client{
		client: &http.Client{
			Timeout: opts.timeout,
		},
		userAgent: opts.userAgent,
		log:       opts.log.With().Str("component", "fetch").Logger(),
	}
	if opts.rate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.rate), 1)
	}
	return c
}

// Fetch performs one GET and returns the decoded body
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br, zstd")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-User", "?1")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Cache-Control", "no-cache")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("fetched page")

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s returned %d", ErrUnknownSymbol, url, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	// Unknown tickers are redirected to the symbol lookup page
	if resp.Request != nil && strings.Contains(resp.Request.URL.Path, "/lookup") {
		return nil, fmt.Errorf("%w: redirected to %s", ErrUnknownSymbol, resp.Request.URL)
	}

	return readBody(resp)
}
