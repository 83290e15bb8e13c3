package newsapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/samvad-hq/samvad-newsdesk/pkg/httpclient"
)

// Cache stores successful response bodies keyed by Request.CacheKey.
type Cache interface {
	CachedResponse(key string) ([]byte, bool, error)
	CacheResponse(key string, body []byte) error
}

// Client executes built requests against the upstream API.
type Client struct {
	http  httpclient.Client
	cache Cache
	log   Logger
}

// NewClient wires an HTTP client with an optional response cache.
func NewClient(client httpclient.Client, cache Cache, log Logger) *Client {
	return &Client{http: client, cache: cache, log: ensureLogger(log)}
}

// Do performs req and decodes the reply. An error means no usable response
// arrived (transport failure or a body that is not a JSON object); API-level
// errors come back as a RawResponse without an articles field.
func (c *Client) Do(ctx context.Context, req Request) (RawResponse, error) {
	if c == nil || c.http == nil {
		return nil, fmt.Errorf("newsapi client is not initialized")
	}
	if req.Method != "" && req.Method != http.MethodGet {
		return nil, fmt.Errorf("unsupported method %q", req.Method)
	}

	key := req.CacheKey()
	if raw, ok := c.fromCache(key); ok {
		return raw, nil
	}

	resp, err := c.http.Get(ctx, req.EndpointURL(), req.Query, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", req.Endpoint, err)
	}

	body := resp.Body()
	raw, err := DecodeRaw(body)
	if err != nil {
		return nil, fmt.Errorf("%s returned status %d body: %s: %w", req.Endpoint, resp.StatusCode(), responseSnippet(body), err)
	}

	c.log.DebugObj("newsapi response received", "newsapi_response", map[string]any{
		"request":      key,
		"status":       resp.StatusCode(),
		"has_articles": raw.Has("articles"),
	})

	if raw.Has("articles") && c.cache != nil {
		if err := c.cache.CacheResponse(key, body); err != nil {
			c.log.WarnObj("response cache write failed", "cache_error", map[string]any{
				"request": key,
				"error":   err.Error(),
			})
		}
	}
	return raw, nil
}

func (c *Client) fromCache(key string) (RawResponse, bool) {
	if c.cache == nil {
		return nil, false
	}
	body, ok, err := c.cache.CachedResponse(key)
	if err != nil {
		c.log.WarnObj("response cache read failed", "cache_error", map[string]any{
			"request": key,
			"error":   err.Error(),
		})
		return nil, false
	}
	if !ok {
		return nil, false
	}
	raw, err := DecodeRaw(body)
	if err != nil {
		return nil, false
	}
	c.log.DebugObj("newsapi response served from cache", "newsapi_cache_hit", key)
	return raw, true
}

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
