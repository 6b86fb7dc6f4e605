// Package apiclient is a typed HTTP client for the Living Memory API. Every
// call returns a Result instead of an error: transport failures, non-2xx
// responses and undecodable bodies all become a wire error payload.
package apiclient

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	maxRedirects = 5
	userAgent    = "LivingMemoryClient/1.0"

	// DefaultMaxBodyBytes caps how much of a response body is read.
	DefaultMaxBodyBytes = 10 << 20
)

var (
	errTooManyRedirects = errors.New("too many redirects")
	errBlockedRedirect  = errors.New("redirect to non-http(s) scheme blocked")
)

// Client issues requests against one base address with one Strategy.
type Client struct {
	baseURL  string
	strategy Strategy
	http     *http.Client
	logger   *slog.Logger
	maxBody  int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default transport. The strategy still adapts it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger used for failed calls.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMaxBodyBytes caps the response size read per call.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		c.maxBody = n
	}
}

// New returns a Client rooted at baseURL.
func New(baseURL string, strategy Strategy, opts ...Option) *Client {
	c := &Client{
		baseURL:  baseURL,
		strategy: strategy,
		http:     newHTTPClient(),
		logger:   slog.Default(),
		maxBody:  DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = strategy.HTTPClient(c.http)
	return c
}

// Sub returns a Client whose base address is extended by path. The transport,
// strategy and logger are shared with c.
func (c *Client) Sub(path string) *Client {
	sub := *c
	sub.baseURL = strings.TrimSuffix(c.baseURL, "/") + "/" + strings.TrimPrefix(path, "/")
	return &sub
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxConnsPerHost:     10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
		CheckRedirect: redirectPolicy,
	}
}

// redirectPolicy limits the redirect chain and refuses non-http(s) targets.
func redirectPolicy(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("%w: stopped after %d", errTooManyRedirects, maxRedirects)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("%w: %s", errBlockedRedirect, req.URL.Scheme)
	}
	return nil
}
