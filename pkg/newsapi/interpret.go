package newsapi

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samvad-hq/samvad-newsdesk/internal/domain"
)

// DefaultErrorMessage is used when a failed response carries no message.
const DefaultErrorMessage = "An unknown error occurred."

// RawResponse is the decoded top-level JSON object of an API reply.
// Field presence, not the HTTP status, decides success.
type RawResponse map[string]json.RawMessage

// DecodeRaw decodes a response body into a RawResponse.
func DecodeRaw(body []byte) (RawResponse, error) {
	var raw RawResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode response body: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("decode response body: not a JSON object")
	}
	return raw, nil
}

// Has reports whether field was present in the response.
func (r RawResponse) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// decodeArticle reads one article leniently: a field that is absent, null or
// of the wrong type is left nil instead of failing the whole page.
func decodeArticle(raw json.RawMessage) domain.Article {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domain.Article{}
	}

	art := domain.Article{
		Title:       optionalString(fields["title"]),
		URL:         optionalString(fields["url"]),
		Description: optionalString(fields["description"]),
		PublishedAt: optionalString(fields["publishedAt"]),
	}

	var source map[string]json.RawMessage
	if err := json.Unmarshal(fields["source"], &source); err == nil {
		art.SourceName = optionalString(source["name"])
	}
	return art
}

func optionalString(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return s
}

// Interpret classifies a raw response as Success or Failure. It never panics.
// Only an articles value that is not an array fails the page.
func Interpret(raw RawResponse) domain.FetchResult {
	rawArticles, ok := raw["articles"]
	if !ok {
		return domain.Failure(failureMessage(raw))
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(rawArticles, &elems); err != nil {
		return domain.Failure(fmt.Sprintf("malformed articles payload: %v", err))
	}

	articles := make([]domain.Article, 0, len(elems))
	for _, e := range elems {
		articles = append(articles, decodeArticle(e))
	}
	return domain.Success(articles, totalResults(raw))
}

func totalResults(raw RawResponse) int {
	v, ok := raw["totalResults"]
	if !ok {
		return 0
	}
	var n float64
	if err := json.Unmarshal(v, &n); err != nil || n < 0 {
		return 0
	}
	return int(n)
}

func failureMessage(raw RawResponse) string {
	v, ok := raw["message"]
	if !ok {
		return DefaultErrorMessage
	}
	var msg string
	if err := json.Unmarshal(v, &msg); err != nil || strings.TrimSpace(msg) == "" {
		return DefaultErrorMessage
	}
	return msg
}
