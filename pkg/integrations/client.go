package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mifi/commonify/pkg/cache"
	"github.com/mifi/commonify/pkg/observability"
)

const (
	defaultRetries    = 3
	defaultRetryDelay = 500 * time.Millisecond
)

// Client provides shared HTTP functionality for registry API clients.
// It handles response caching, retries with backoff, per-host circuit
// breaking and common request headers.
type Client struct {
	http       *http.Client
	cache      cache.Cache
	ttl        time.Duration
	headers    map[string]string
	breakers   *breakers
	retries    uint64
	retryDelay time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRetries sets how many times a retryable failure is retried and the
// initial backoff delay.
func WithRetries(n uint64, delay time.Duration) Option {
	return func(c *Client) {
		c.retries = n
		c.retryDelay = delay
	}
}

// NewClient creates a Client caching responses in c for ttl.
// Headers are applied to all requests made through this client.
// A nil cache disables caching.
func NewClient(c cache.Cache, ttl time.Duration, headers map[string]string, opts ...Option) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	client := &Client{
		http:       NewHTTPClient(),
		cache:      c,
		ttl:        ttl,
		headers:    headers,
		breakers:   newBreakers(),
		retries:    defaultRetries,
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Cached retrieves a value from cache or executes fetch and caches the result.
// If refresh is true, the cache is bypassed and fetch is always called.
// The fetch function should populate v; on success, v is stored in the cache.
// Failed fetches, including not-found, are never cached.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	hooks := observability.Cache()
	keyType, _, _ := strings.Cut(key, ":")

	if !refresh {
		if data, ok, _ := c.cache.Get(ctx, key); ok {
			if err := json.Unmarshal(data, v); err == nil {
				hooks.OnCacheHit(ctx, keyType)
				return nil
			}
		}
	}
	hooks.OnCacheMiss(ctx, keyType)

	if err := c.retry(ctx, fetch); err != nil {
		return err
	}
	if data, err := json.Marshal(v); err == nil {
		if c.cache.Set(ctx, key, data, c.ttl) == nil {
			hooks.OnCacheSet(ctx, keyType, len(data))
		}
	}
	return nil
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
// It uses the client's default headers. Retries are left to the caller
// (usually through [Client.Cached]).
func (c *Client) Get(ctx context.Context, url string, v any) error {
	return c.GetWithHeaders(ctx, url, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
func (c *Client) GetWithHeaders(ctx context.Context, url string, headers map[string]string, v any) error {
	body, err := c.doRequest(ctx, url, headers)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// Download streams the body at url into the writer returned by open,
// retrying transient failures. open is called once per attempt, after the
// response status has been checked, so it should truncate what an earlier
// attempt left behind.
func (c *Client) Download(ctx context.Context, url string, open func() (io.WriteCloser, error)) error {
	return c.retry(ctx, func() error {
		body, err := c.doRequest(ctx, url, nil)
		if err != nil {
			return err
		}
		defer body.Close()

		w, err := open()
		if err != nil {
			return err
		}
		if _, err := io.Copy(w, body); err != nil {
			w.Close()
			return Retryable(fmt.Errorf("%w: download %s: %v", ErrNetwork, url, err))
		}
		return w.Close()
	})
}

// BreakerStates reports the circuit state ("open" or "closed") per host.
func (c *Client) BreakerStates() map[string]string {
	return c.breakers.states()
}

func (c *Client) retry(ctx context.Context, fn func() error) error {
	return Retry(ctx, c.retries, c.retryDelay, fn)
}

func (c *Client) doRequest(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, error) {
	hooks := observability.HTTP()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	host, path := req.URL.Host, req.URL.Path

	_, breaker := c.breakers.get(url)
	if !breaker.Ready() {
		err := fmt.Errorf("%w: circuit open for %s", ErrUpstreamDown, host)
		hooks.OnError(ctx, http.MethodGet, host, path, err)
		return nil, err
	}

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	hooks.OnRequest(ctx, http.MethodGet, host, path)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		breaker.Fail()
		return nil, Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	hooks.OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		if IsRetryable(err) {
			breaker.Fail()
		} else {
			breaker.Success()
		}
		return nil, err
	}
	breaker.Success()
	return resp.Body, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests || code >= 500:
		return Retryable(fmt.Errorf("%w: status %d", ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
