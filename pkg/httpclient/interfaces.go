package httpclient

import (
	"context"
	"net/url"
)

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
// query may be nil; it is merged into rawURL's existing query string.
type Client interface {
	Get(ctx context.Context, rawURL string, query url.Values, headers map[string]string) (Response, error)
}
