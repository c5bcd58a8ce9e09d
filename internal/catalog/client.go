// Package catalog is the client of the remote storefront data service.
//
// Every read returns the upstream JSON verbatim, so the cache stores it
// without knowing its shape.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/dmitrymomot/tiercache/pkg/cache"
)

const (
	defaultRetries  = 3
	defaultBackoff  = 200 * time.Millisecond
	maxBackoff      = 5 * time.Second
	maxErrorBody    = 4 << 10
	defaultTimeout  = 10 * time.Second
	userAgentHeader = "tiercache-catalog/1"
)

// Config holds the data service connection settings.
type Config struct {
	BaseURL string        `env:"CATALOG_URL" envDefault:"http://localhost:3000"`
	Token   string        `env:"CATALOG_TOKEN"`
	Timeout time.Duration `env:"CATALOG_TIMEOUT" envDefault:"10s"`
}

// Client reads storefront data over HTTP.
type Client struct {
	base    *url.URL
	http    *http.Client
	retries int
	backoff time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The bearer token
// transport is still installed on top of its transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRetries sets how many times a retryable failure is retried.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithBackoff sets the first retry delay. Each retry doubles it.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// New creates a Client for cfg.BaseURL. When cfg.Token is set every request
// carries it as a bearer token.
func New(cfg Config, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: base url %q", ErrInvalidConfig, cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		base:    base,
		http:    &http.Client{Timeout: timeout},
		retries: defaultRetries,
		backoff: defaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}

	transport := c.http.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if cfg.Token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"}),
			Base:   transport,
		}
	}
	hc := *c.http
	hc.Transport = transport
	c.http = &hc

	return c, nil
}

// Get reads path and returns the raw JSON body. Rate limiting and 5xx
// responses are retried with exponential backoff.
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	delay := c.backoff

	var err error
	for attempt := 0; ; attempt++ {
		var body json.RawMessage
		body, err = c.get(ctx, path)
		if err == nil {
			return body, nil
		}

		var httpErr *HTTPError
		if !errors.As(err, &httpErr) || !httpErr.retryable() || attempt >= c.retries {
			return nil, err
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, errors.Join(err, ctx.Err())
		case <-t.C:
		}
		delay = min(delay*2, maxBackoff)
	}
}

func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	target := c.base.String() + "/" + strings.TrimLeft(path, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgentHeader)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: body}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPayload, path)
	}
	return json.RawMessage(body), nil
}

// Fetcher returns a cache fetcher reading path.
func (c *Client) Fetcher(path string) cache.Fetcher[json.RawMessage] {
	return func(ctx context.Context) (json.RawMessage, error) {
		return c.Get(ctx, path)
	}
}

// Healthcheck returns a function that checks the data service answers.
func (c *Client) Healthcheck() func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := c.get(ctx, "/health")
		return err
	}
}
