// Package httpx is the HTTP client shared by the scraping providers.
package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ratings-aggregator/infrastructure/logger"
)

const (
	defaultTimeout  = 12 * time.Second
	defaultRetryMax = 1
	maxBodyBytes    = 8 << 20
)

var defaultHeaders = map[string]string{
	"Accept-Language":           "en-US,en;q=0.9",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Upgrade-Insecure-Requests": "1",
	"Cache-Control":             "max-age=0",
}

// HTTPStatusError is returned for non-2xx responses other than 404.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// Transport adds browser-like headers and retries replayable requests on
// network errors.
type Transport struct {
	Base      http.RoundTripper
	UserAgent string
	// RetryMax excludes the first attempt.
	RetryMax int
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil
	max := t.RetryMax
	if max < 0 || !canRetry {
		max = 0
	}

	var lastErr error
	for attempt := 0; attempt <= max; attempt++ {
		r := req.Clone(req.Context())
		for k, v := range defaultHeaders {
			if r.Header.Get(k) == "" {
				r.Header.Set(k, v)
			}
		}
		if r.Header.Get("User-Agent") == "" && t.UserAgent != "" {
			r.Header.Set("User-Agent", t.UserAgent)
		}

		resp, err := base.RoundTrip(r)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if req.Context().Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// Client fetches pages for providers.
type Client struct {
	http *http.Client
}

// NewClient builds a client with the given overall timeout and User-Agent.
func NewClient(timeout time.Duration, userAgent string) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		MaxIdleConnsPerHost:   4,
	}
	return &Client{
		http: &http.Client{
			Transport: &Transport{Base: base, UserAgent: strings.TrimSpace(userAgent), RetryMax: defaultRetryMax},
			Timeout:   timeout,
		},
	}
}

// HTTPClient exposes the underlying client for API wrappers.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// GetPage fetches url. A 404 yields (nil, false, nil): the page does not
// exist, which providers treat as "no rating". Other non-2xx statuses return
// *HTTPStatusError.
func (c *Client) GetPage(ctx context.Context, url, provider string) ([]byte, bool, error) {
	logger.GetLogger().WithField("provider", provider).WithField("url", url).Debug("HTTP GET")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		logger.GetLogger().WithField("provider", provider).WithField("url", url).Warn("HTTP GET failed: 404 Not Found")
		return nil, false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.GetLogger().WithField("provider", provider).WithField("url", url).WithField("status", resp.StatusCode).Warn("HTTP GET failed")
		return nil, false, &HTTPStatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", url, err)
	}
	return body, true, nil
}
