// Package upstream is the typed client for the rail operator REST API.
// It owns transport concerns (timeouts, auth forwarding, status-code
// classification) and the cache-aside read path for reference data, so
// the service layer only ever sees decoded domain types.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trackeasy/railtick/config"
)

// ─── Errors ─────────────────────────────────────────────────

var (
	// ErrTimeout is returned when an upstream call exceeds its deadline.
	// Every timeout is terminal for that attempt; retries are user actions.
	ErrTimeout = errors.New("upstream request timed out")

	// ErrNotFound is returned for upstream 404 responses.
	ErrNotFound = errors.New("upstream resource not found")

	// ErrInvalidResponseShape is returned when a response matches neither
	// the strict nor the lenient schema for its endpoint.
	ErrInvalidResponseShape = errors.New("upstream response has invalid shape")
)

// StatusError reports a non-2xx upstream response. The body is not
// retained; status codes are enough for classification and bodies may
// echo request payloads.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.Code)
}

// ─── Auth forwarding ────────────────────────────────────────

type ctxKey int

const tokenKey ctxKey = iota

// WithAuthToken attaches a bearer token to the context; every upstream
// request issued under that context carries it.
func WithAuthToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

func authToken(ctx context.Context) string {
	if v, ok := ctx.Value(tokenKey).(string); ok {
		return v
	}
	return ""
}

// ─── Client ─────────────────────────────────────────────────

// Client talks to the rail operator API. Reference-data reads go through
// Redis with a fire-and-forget write-back; everything else is a direct
// round trip.
type Client struct {
	baseURL        string
	http           *http.Client
	redis          *redis.Client
	requestTimeout time.Duration
	searchTimeout  time.Duration
	referenceTTL   time.Duration
}

// New creates a client for the given upstream and cache configuration.
func New(cfg config.UpstreamConfig, cacheCfg config.CacheConfig, rdb *redis.Client) *Client {
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		http:           &http.Client{},
		redis:          rdb,
		requestTimeout: cfg.RequestTimeout,
		searchTimeout:  cfg.SearchPageTimeout,
		referenceTTL:   cacheCfg.StationsTTL,
	}
}

// getJSON issues a GET and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, timeout time.Duration, out any) error {
	body, err := c.do(ctx, http.MethodGet, path, query, nil, timeout)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidResponseShape, path, err)
	}
	return nil
}

// postJSON issues a POST with a JSON body; out may be nil for no-body
// responses.
func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("upstream: encode %s: %w", path, err)
	}
	body, err := c.do(ctx, http.MethodPost, path, nil, encoded, c.requestTimeout)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidResponseShape, path, err)
	}
	return nil
}

// do performs one round trip and returns the raw response body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload []byte, timeout time.Duration) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("upstream: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := authToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || reqCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%s %s: %w", method, path, ErrTimeout)
		}
		return nil, fmt.Errorf("upstream: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("upstream: read %s: %w", path, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%s %s: %w", method, path, &StatusError{Code: resp.StatusCode})
	}
	return body, nil
}

// cachedJSON is the cache-aside read path: try Redis, fall back to the
// loader, then write back without blocking on cache errors.
func cachedJSON[T any](ctx context.Context, c *Client, key string, load func() (T, error)) (T, error) {
	var zero T
	if c.redis != nil {
		if raw, err := c.redis.Get(ctx, key).Bytes(); err == nil {
			var cached T
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
			// A corrupt entry is dropped and refetched.
			_ = c.redis.Del(ctx, key).Err()
		}
	}

	value, err := load()
	if err != nil {
		return zero, err
	}

	if c.redis != nil {
		if raw, err := json.Marshal(value); err == nil {
			_ = c.redis.Set(ctx, key, raw, c.referenceTTL).Err()
		}
	}
	return value, nil
}
