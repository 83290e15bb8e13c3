package newsapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-newsdesk/internal/domain"
)

const (
	DefaultBaseURL = "https://newsapi.org/v2/"

	EndpointTopHeadlines = "top-headlines"
	EndpointEverything   = "everything"

	DefaultCountry      = "us"
	DefaultLanguage     = "en"
	DefaultSortBy       = "publishedAt"
	DefaultSearchWindow = 7 * 24 * time.Hour

	dateLayout = "2006-01-02"
)

var (
	ErrEmptyQuery      = errors.New("search query is empty")
	ErrInvalidPage     = errors.New("page must be >= 1")
	ErrInvalidPageSize = errors.New("page size must be >= 1")
	ErrUnknownMode     = errors.New("unknown fetch mode")
)

// Request is a fully specified upstream call.
type Request struct {
	Method   string
	BaseURL  string
	Endpoint string
	Query    url.Values
}

// EndpointURL joins BaseURL and Endpoint.
func (r Request) EndpointURL() string {
	base := r.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + r.Endpoint
}

// URL returns the endpoint URL with the encoded query string.
func (r Request) URL() string {
	if len(r.Query) == 0 {
		return r.EndpointURL()
	}
	return r.EndpointURL() + "?" + r.Query.Encode()
}

// CacheKey identifies the request without its credential, so it is safe to log and persist.
func (r Request) CacheKey() string {
	q := make(url.Values, len(r.Query))
	for k, v := range r.Query {
		if k == "apiKey" {
			continue
		}
		q[k] = append([]string(nil), v...)
	}
	return r.EndpointURL() + "?" + q.Encode()
}

// Page returns the page query parameter (0 when missing).
func (r Request) Page() int {
	n, _ := strconv.Atoi(r.Query.Get("page"))
	return n
}

// ValidateMode rejects modes that must never reach the builder.
func ValidateMode(mode domain.FetchMode) error {
	switch m := mode.(type) {
	case domain.Headlines:
		return nil
	case domain.Search:
		if strings.TrimSpace(m.Query) == "" {
			return ErrEmptyQuery
		}
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnknownMode, mode)
	}
}

// BuildRequest turns a mode, page and credential into an upstream request.
// It is pure: date defaults are derived from now.
func BuildRequest(baseURL string, mode domain.FetchMode, page, pageSize int, apiKey string, now time.Time) (Request, error) {
	if err := ValidateMode(mode); err != nil {
		return Request{}, err
	}
	if page < 1 {
		return Request{}, ErrInvalidPage
	}
	if pageSize < 1 {
		return Request{}, ErrInvalidPageSize
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}

	q := url.Values{}
	q.Set("apiKey", apiKey)

	req := Request{Method: http.MethodGet, BaseURL: baseURL, Query: q}

	switch m := mode.(type) {
	case domain.Headlines:
		req.Endpoint = EndpointTopHeadlines
		q.Set("country", orDefault(m.Country, DefaultCountry))
		if category := strings.TrimSpace(m.Category); category != "" {
			q.Set("category", category)
		}
	case domain.Search:
		req.Endpoint = EndpointEverything
		from, to := m.From, m.To
		if from.IsZero() {
			from = now.Add(-DefaultSearchWindow)
		}
		if to.IsZero() {
			to = now
		}
		q.Set("q", strings.TrimSpace(m.Query))
		q.Set("from", from.Format(dateLayout))
		q.Set("to", to.Format(dateLayout))
		q.Set("language", orDefault(m.Language, DefaultLanguage))
		q.Set("sortBy", orDefault(m.SortBy, DefaultSortBy))
	}

	q.Set("pageSize", strconv.Itoa(pageSize))
	q.Set("page", strconv.Itoa(page))
	return req, nil
}

// Builder binds BuildRequest to a base URL and clock.
type Builder struct {
	BaseURL string
	Now     func() time.Time
}

// Build builds a request using the builder clock (time.Now when unset).
func (b Builder) Build(mode domain.FetchMode, page, pageSize int, apiKey string) (Request, error) {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	return BuildRequest(b.BaseURL, mode, page, pageSize, apiKey, now())
}

// ParseDate parses a YYYY-MM-DD date as used by the search window.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q (want YYYY-MM-DD): %w", raw, err)
	}
	return t, nil
}

func orDefault(v, fallback string) string {
	if trimmed := strings.TrimSpace(v); trimmed != "" {
		return trimmed
	}
	return fallback
}
