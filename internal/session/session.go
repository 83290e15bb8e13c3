package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/samvad-hq/samvad-newsdesk/internal/domain"
	"github.com/samvad-hq/samvad-newsdesk/internal/logger"
	"github.com/samvad-hq/samvad-newsdesk/pkg/newsapi"
)

// ErrTransport marks failures where no API response arrived at all.
var ErrTransport = errors.New("network error")

// CredentialStore supplies the API key; it is read once per request build.
type CredentialStore interface {
	APIKey() (string, error)
}

// Renderer receives every Ready/Errored transition. It is called with the
// session lock held and must not call back into the Session.
type Renderer interface {
	Render(result domain.FetchResult, page domain.PageState)
}

// RequestBuilder turns a mode and page into an upstream request.
type RequestBuilder interface {
	Build(mode domain.FetchMode, page, pageSize int, apiKey string) (newsapi.Request, error)
}

// Pending is the handle of an issued request.
type Pending struct {
	Seq     uint64
	Request newsapi.Request
}

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	State  domain.State
	Mode   domain.FetchMode
	Page   domain.PageState
	Result *domain.FetchResult
	Seq    uint64
}

// Options configures a Session. Zero values fall back to defaults.
type Options struct {
	Builder  RequestBuilder
	Renderer Renderer
	Logger   logger.Logger
}

// Session is the paginated fetch state machine: Idle -> Fetching -> Ready | Errored.
// Only the response carrying the latest sequence number is ever applied.
type Session struct {
	mu       sync.Mutex
	creds    CredentialStore
	builder  RequestBuilder
	renderer Renderer
	log      logger.Logger

	state domain.State
	mode  domain.FetchMode
	page  domain.PageState
	last  *domain.FetchResult
	seq   uint64
}

// New builds an idle session.
func New(creds CredentialStore, opts Options) *Session {
	builder := opts.Builder
	if builder == nil {
		builder = newsapi.Builder{BaseURL: newsapi.DefaultBaseURL}
	}
	return &Session{
		creds:    creds,
		builder:  builder,
		renderer: opts.Renderer,
		log:      logger.Ensure(opts.Logger),
		state:    domain.StateIdle,
	}
}

// Validate is the precondition check callers run before StartQuery.
func Validate(mode domain.FetchMode, pageSize int) error {
	if err := newsapi.ValidateMode(mode); err != nil {
		return err
	}
	if pageSize < 1 {
		return newsapi.ErrInvalidPageSize
	}
	return nil
}

// StartQuery replaces the mode, resets pagination and issues page 1.
// Invalid input is rejected before any state changes.
func (s *Session) StartQuery(mode domain.FetchMode, pageSize int) (Pending, error) {
	if err := Validate(mode, pageSize); err != nil {
		return Pending{}, fmt.Errorf("start query: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.build(mode, 1, pageSize)
	if err != nil {
		return Pending{}, fmt.Errorf("start query: %w", err)
	}

	s.mode = mode
	s.page = domain.PageState{CurrentPage: 1, PageSize: pageSize}
	s.last = nil
	p := s.issue(req)

	s.log.InfoObj("query started", "session_query", map[string]any{
		"seq":       p.Seq,
		"mode":      mode.Kind(),
		"page_size": pageSize,
		"request":   req.CacheKey(),
	})
	return p, nil
}

// NextPage issues the following page. It is a no-op (false) without a next page
// or after a failure; Retry or a new query recovers from Errored.
func (s *Session) NextPage() (Pending, bool) {
	return s.navigate(1)
}

// PrevPage issues the previous page. It is a no-op (false) on page 1 or after
// a failure.
func (s *Session) PrevPage() (Pending, bool) {
	return s.navigate(-1)
}

// Retry re-issues the current page, typically after a Failure.
func (s *Session) Retry() (Pending, bool) {
	return s.navigate(0)
}

// navigate moves delta pages from the current position. Navigation is
// allowed while a fetch is in flight; the new request supersedes it.
func (s *Session) navigate(delta int) (Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StateIdle || s.mode == nil {
		return Pending{}, false
	}
	switch {
	case delta != 0 && s.state == domain.StateErrored:
		return Pending{}, false
	case delta > 0 && !s.page.HasNextPage():
		return Pending{}, false
	case delta < 0 && !s.page.HasPrevPage():
		return Pending{}, false
	}

	target := s.page.CurrentPage + delta
	req, err := s.build(s.mode, target, s.page.PageSize)
	if err != nil {
		s.log.ErrorObj("page request build failed", "session_error", map[string]any{
			"page":  target,
			"error": err.Error(),
		})
		return Pending{}, false
	}

	s.page.CurrentPage = target
	p := s.issue(req)
	s.log.DebugObj("page requested", "session_page", map[string]any{
		"seq":  p.Seq,
		"page": target,
	})
	return p, true
}

// OnResponseReceived applies the outcome of request seq. Stale sequence numbers
// are discarded and reported as false. transportErr marks a request that got no
// response at all; it resolves to a Failure so the session never stays Fetching.
func (s *Session) OnResponseReceived(seq uint64, raw newsapi.RawResponse, transportErr error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq || s.state != domain.StateFetching {
		s.log.DebugObj("stale response discarded", "session_stale", map[string]any{
			"seq":     seq,
			"current": s.seq,
		})
		return false
	}

	var result domain.FetchResult
	if transportErr != nil {
		result = TransportFailure(transportErr)
	} else {
		result = newsapi.Interpret(raw)
	}

	if result.OK() {
		s.page.TotalResults = result.TotalResults
		s.state = domain.StateReady
		s.log.InfoObj("fetch complete", "session_result", map[string]any{
			"seq":           seq,
			"page":          s.page.CurrentPage,
			"articles":      len(result.Articles),
			"total_results": result.TotalResults,
		})
	} else {
		s.state = domain.StateErrored
		s.log.WarnObj("fetch failed", "session_result", map[string]any{
			"seq":     seq,
			"page":    s.page.CurrentPage,
			"message": result.Message,
		})
	}
	s.last = &result

	if s.renderer != nil {
		s.renderer.Render(result, s.page)
	}
	return true
}

// Deliver applies a Response produced by Execute.
func (s *Session) Deliver(resp Response) bool {
	return s.OnResponseReceived(resp.Seq, resp.Raw, resp.Err)
}

// HasNextPage reports whether NextPage would issue a request.
func (s *Session) HasNextPage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.navigable() && s.page.HasNextPage()
}

// HasPrevPage reports whether PrevPage would issue a request.
func (s *Session) HasPrevPage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.navigable() && s.page.HasPrevPage()
}

func (s *Session) navigable() bool {
	return s.state != domain.StateIdle && s.state != domain.StateErrored
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{State: s.state, Mode: s.mode, Page: s.page, Seq: s.seq}
	if s.last != nil {
		res := *s.last
		snap.Result = &res
	}
	return snap
}

// TransportFailure converts a transport error into the synthesized Failure.
func TransportFailure(err error) domain.FetchResult {
	if err == nil {
		return domain.Failure(ErrTransport.Error())
	}
	return domain.Failure(fmt.Sprintf("%s: %v", ErrTransport, err))
}

// build must be called with s.mu held.
func (s *Session) build(mode domain.FetchMode, page, pageSize int) (newsapi.Request, error) {
	var apiKey string
	if s.creds != nil {
		key, err := s.creds.APIKey()
		if err != nil {
			return newsapi.Request{}, fmt.Errorf("read api key: %w", err)
		}
		apiKey = key
	}
	return s.builder.Build(mode, page, pageSize, apiKey)
}

// issue must be called with s.mu held.
func (s *Session) issue(req newsapi.Request) Pending {
	s.seq++
	s.state = domain.StateFetching
	return Pending{Seq: s.seq, Request: req}
}
