package domain

import (
	"fmt"
	"time"
)

// Domain contains core models shared by the session, the API client and renderers.

// ModeKind names the API operation a query uses.
type ModeKind string

const (
	ModeHeadlines ModeKind = "headlines"
	ModeSearch    ModeKind = "search"
)

// FetchMode is either Headlines or Search. It is replaced wholesale on every new query.
type FetchMode interface {
	Kind() ModeKind
	isFetchMode()
}

// Headlines selects the top-headlines endpoint.
type Headlines struct {
	Country  string
	Category string
}

func (Headlines) Kind() ModeKind { return ModeHeadlines }
func (Headlines) isFetchMode()   {}

// Search selects the everything endpoint. Zero From/To mean "use the default window".
type Search struct {
	Query    string
	From     time.Time
	To       time.Time
	Language string
	SortBy   string
}

func (Search) Kind() ModeKind { return ModeSearch }
func (Search) isFetchMode()   {}

// Article is a single upstream article. Nil fields were null (or absent) upstream.
type Article struct {
	Title       *string `json:"title"`
	URL         *string `json:"url"`
	Description *string `json:"description"`
	SourceName  *string `json:"sourceName"`
	PublishedAt *string `json:"publishedAt"`
}

func (a Article) DisplayTitle() string       { return text(a.Title) }
func (a Article) DisplayURL() string         { return text(a.URL) }
func (a Article) DisplayDescription() string { return text(a.Description) }
func (a Article) DisplaySource() string      { return text(a.SourceName) }
func (a Article) DisplayPublishedAt() string { return text(a.PublishedAt) }

func text(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// PageState tracks pagination for the active query.
type PageState struct {
	CurrentPage  int `json:"current_page"`
	PageSize     int `json:"page_size"`
	TotalResults int `json:"total_results"`
}

// HasNextPage reports whether another page exists past CurrentPage.
func (p PageState) HasNextPage() bool {
	if p.TotalResults <= 0 || p.PageSize < 1 {
		return false
	}
	return p.CurrentPage*p.PageSize < p.TotalResults
}

// HasPrevPage reports whether CurrentPage can be decremented.
func (p PageState) HasPrevPage() bool {
	return p.CurrentPage > 1
}

// TotalPages returns the number of pages implied by TotalResults (0 when unknown).
func (p PageState) TotalPages() int {
	if p.TotalResults <= 0 || p.PageSize < 1 {
		return 0
	}
	return (p.TotalResults + p.PageSize - 1) / p.PageSize
}

// FetchResult is either a Success (articles + total) or a Failure (message).
type FetchResult struct {
	ok           bool
	Articles     []Article
	TotalResults int
	Message      string
}

// Success builds a successful result.
func Success(articles []Article, totalResults int) FetchResult {
	if totalResults < 0 {
		totalResults = 0
	}
	return FetchResult{ok: true, Articles: articles, TotalResults: totalResults}
}

// Failure builds a failed result carrying a user-facing message.
func Failure(message string) FetchResult {
	return FetchResult{Message: message}
}

// OK reports whether the result is a Success.
func (r FetchResult) OK() bool { return r.ok }

// State is the Fetch Session lifecycle state.
type State string

const (
	StateIdle     State = "idle"
	StateFetching State = "fetching"
	StateReady    State = "ready"
	StateErrored  State = "errored"
)

// Describe returns a short human label for mode.
func Describe(mode FetchMode) string {
	switch m := mode.(type) {
	case Headlines:
		country := m.Country
		if country == "" {
			country = "us"
		}
		if m.Category != "" {
			return fmt.Sprintf("Top headlines (%s, %s)", country, m.Category)
		}
		return fmt.Sprintf("Top headlines (%s)", country)
	case Search:
		return fmt.Sprintf("Search %q", m.Query)
	default:
		return "No query"
	}
}

// Params returns the mode's user-supplied parameters, skipping empty ones.
func Params(mode FetchMode) map[string]string {
	out := map[string]string{}
	put := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	switch m := mode.(type) {
	case Headlines:
		put("country", m.Country)
		put("category", m.Category)
	case Search:
		put("q", m.Query)
		if !m.From.IsZero() {
			put("from", m.From.Format("2006-01-02"))
		}
		if !m.To.IsZero() {
			put("to", m.To.Format("2006-01-02"))
		}
		put("language", m.Language)
		put("sortBy", m.SortBy)
	}
	return out
}
