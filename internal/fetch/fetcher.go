// Package fetch retrieves pages over HTTP with bounded retries and a
// web-archive fallback for hosts that block or fail.
package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Config controls fetch behavior.
type Config struct {
	UserAgent  string
	Timeout    time.Duration
	PerHost    int
	MaxRetries int
	CacheTTL   time.Duration
	CacheSize  int
}

// Response is the outcome of one HTTP GET, successful or not. Non-2xx
// statuses are responses, not errors; only transport failures error out.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Blocking reports a status that warrants archive fallback rather than retry.
func (r *Response) Blocking() bool {
	return r.StatusCode == http.StatusForbidden || r.StatusCode == http.StatusTooManyRequests
}

// ServerError reports a retryable 5xx status.
func (r *Response) ServerError() bool {
	return r.StatusCode >= 500
}

// Client wraps a Colly collector with retry and caching. Safe for
// concurrent use; each request runs on a clone of the base collector.
type Client struct {
	cfg     Config
	base    *colly.Collector
	backoff backoffPolicy
	cache   *pageCache
	logger  *zap.Logger
}

// NewClient builds a Client from config. A cache is attached only when both
// a TTL and a size are configured.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	// Retries and cacheless repeat scrapes revisit URLs on purpose.
	c.AllowURLRevisit = true
	c.WithTransport(newHTTPTransport())
	if cfg.PerHost > 0 {
		_ = c.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: cfg.PerHost})
	}

	var cache *pageCache
	if cfg.CacheTTL > 0 && cfg.CacheSize > 0 {
		cache = newPageCache(cfg.CacheSize, cfg.CacheTTL)
	}

	return &Client{
		cfg:     cfg,
		base:    c,
		backoff: newBackoffPolicy(),
		cache:   cache,
		logger:  logger,
	}
}

// Get fetches a URL, retrying only server-error responses up to maxRetries
// and returning the final response either way. A transport-level failure on
// the last attempt propagates as an error. A started retry sequence runs to
// exhaustion; ctx bounds each individual request.
func (c *Client) Get(ctx context.Context, rawURL string, maxRetries int) (*Response, error) {
	if c.cache != nil {
		if resp, ok := c.cache.get(rawURL); ok {
			c.logger.Debug("page cache hit", zap.String("url", rawURL))
			return resp, nil
		}
	}

	var resp *Response
	var err error
	for attempt := 0; ; attempt++ {
		resp, err = c.fetchOnce(ctx, rawURL)
		if err != nil {
			if attempt >= maxRetries {
				return nil, err
			}
		} else if !resp.ServerError() || attempt >= maxRetries {
			break
		}
		c.logger.Debug("retrying fetch",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
		time.Sleep(c.backoff.delay(attempt))
	}

	if resp.OK() && c.cache != nil {
		c.cache.set(rawURL, resp)
	}
	return resp, nil
}

func (c *Client) fetchOnce(ctx context.Context, rawURL string) (*Response, error) {
	collector := c.base.Clone()
	if c.cfg.UserAgent != "" {
		collector.UserAgent = c.cfg.UserAgent
	}
	collector.IgnoreRobotsTxt = true
	timeout := c.cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	start := time.Now()
	var result *Response
	var fetchErr error

	collector.OnResponse(func(r *colly.Response) {
		result = &Response{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Header:     cloneHeader(r.Headers),
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		// Colly surfaces non-2xx statuses here; they are still responses.
		if r != nil && r.StatusCode > 0 {
			result = &Response{
				URL:        rawURL,
				StatusCode: r.StatusCode,
				Header:     cloneHeader(r.Headers),
				Body:       append([]byte(nil), r.Body...),
				Duration:   time.Since(start),
			}
			return
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if result != nil {
			return result, nil
		}
		if fetchErr != nil {
			return nil, fmt.Errorf("fetch %s: %w", rawURL, fetchErr)
		}
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
		}
		return nil, fmt.Errorf("fetch %s: no response received", rawURL)
	}
}

func cloneHeader(h *http.Header) http.Header {
	if h == nil {
		return http.Header{}
	}
	return h.Clone()
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
