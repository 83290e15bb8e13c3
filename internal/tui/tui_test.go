package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samvad-hq/samvad-newsdesk/internal/domain"
	"github.com/samvad-hq/samvad-newsdesk/internal/render"
	"github.com/samvad-hq/samvad-newsdesk/internal/session"
	"github.com/samvad-hq/samvad-newsdesk/pkg/newsapi"
	"github.com/samvad-hq/samvad-newsdesk/pkg/preview"
)

type staticCreds struct{ key string }

func (c *staticCreds) APIKey() (string, error) { return c.key, nil }

type scriptedTransport struct {
	body string
	err  error
	reqs []newsapi.Request
}

func (s *scriptedTransport) Do(ctx context.Context, req newsapi.Request) (newsapi.RawResponse, error) {
	s.reqs = append(s.reqs, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return newsapi.DecodeRaw([]byte(s.body))
}

type fakeDesk struct {
	sess      *session.Session
	text      *render.Text
	transport *scriptedTransport
	creds     *staticCreds
	savedPath string
	exportErr error
}

func newFakeDesk(body string) *fakeDesk {
	creds := &staticCreds{key: "k"}
	text := render.NewText()
	return &fakeDesk{
		sess: session.New(creds, session.Options{
			Builder:  newsapi.Builder{BaseURL: "https://news.test/v2/", Now: func() time.Time { return time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC) }},
			Renderer: text,
		}),
		text:      text,
		transport: &scriptedTransport{body: body},
		creds:     creds,
	}
}

func (d *fakeDesk) Session() *session.Session     { return d.sess }
func (d *fakeDesk) Transport() session.Transport  { return d.transport }
func (d *fakeDesk) RequestTimeout() time.Duration { return time.Second }
func (d *fakeDesk) PageSize() int                 { return 5 }
func (d *fakeDesk) Rendered() string              { return d.text.Last() }

func (d *fakeDesk) SaveAPIKey(key string) error {
	d.creds.key = key
	return nil
}

func (d *fakeDesk) SaveToFile(path string) error {
	d.savedPath = path
	return nil
}

func (d *fakeDesk) Export(context.Context) (int, error) {
	if d.exportErr != nil {
		return 0, d.exportErr
	}
	return 2, nil
}

func (d *fakeDesk) Preview(_ context.Context, art domain.Article) (preview.Meta, error) {
	return preview.Meta{URL: art.DisplayURL(), Title: "Preview of " + art.DisplayTitle()}, nil
}

const twoArticles = `{"status":"ok","totalResults":12,"articles":[
 {"source":{"name":"Wire"},"title":"First","url":"https://example.com/1"},
 {"source":{"name":"Wire"},"title":"Second","url":"https://example.com/2"}]}`

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func TestHeadlinesPromptFetchesAndReports(t *testing.T) {
	desk := newFakeDesk(twoArticles)
	m := NewModel(context.Background(), desk)

	m, cmd := press(t, m, runes("h"), runes("gb science"), tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected fetch command")
	}
	if m.Status != "Fetching headlines..." || m.Prompt != PromptNone {
		t.Fatalf("unexpected model after submit: %+v", m)
	}
	if desk.sess.Snapshot().State != domain.StateFetching {
		t.Fatalf("session should be fetching")
	}

	m, _ = press(t, m, cmd())
	if m.Status != "Fetch complete. Total results: 12" || m.StatusErr {
		t.Fatalf("unexpected status %q", m.Status)
	}
	req := desk.transport.reqs[0]
	if req.Query.Get("country") != "gb" || req.Query.Get("category") != "science" {
		t.Fatalf("unexpected query %v", req.Query)
	}
	if view := m.View(); !strings.Contains(view, "1. First") || !strings.Contains(view, "Top headlines (gb, science)") {
		t.Fatalf("view missing results:\n%s", view)
	}
}

func TestSupersededResponseIsIgnored(t *testing.T) {
	desk := newFakeDesk(twoArticles)
	m := NewModel(context.Background(), desk)

	m, first := press(t, m, runes("/"), runes("go"), tea.KeyMsg{Type: tea.KeyEnter})
	m, second := press(t, m, runes("/"), runes("rust"), tea.KeyMsg{Type: tea.KeyEnter})

	stale := first()
	m, _ = press(t, m, stale)
	if m.Status != "Searching news..." {
		t.Fatalf("stale response changed status to %q", m.Status)
	}
	if desk.text.Last() != "" {
		t.Fatalf("stale response was rendered")
	}

	m, _ = press(t, m, second())
	if !strings.HasPrefix(m.Status, "Fetch complete") {
		t.Fatalf("latest response not applied: %q", m.Status)
	}
	if got := desk.sess.Snapshot().Mode.(domain.Search).Query; got != "rust" {
		t.Fatalf("mode = %q want rust", got)
	}
}

func TestEmptySearchIsRejected(t *testing.T) {
	m := NewModel(context.Background(), newFakeDesk(twoArticles))
	m, cmd := press(t, m, runes("/"), tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatalf("empty search must not fetch")
	}
	if m.Status != "Please enter a search query." || !m.StatusErr {
		t.Fatalf("unexpected status %q", m.Status)
	}
}

func TestErrorResponseAndRetry(t *testing.T) {
	desk := newFakeDesk(`{"status":"error","message":"rate limited"}`)
	m := NewModel(context.Background(), desk)

	m, cmd := press(t, m, runes("h"), tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = press(t, m, cmd())
	if m.Status != "Error occurred" || !m.StatusErr {
		t.Fatalf("unexpected status %q", m.Status)
	}
	if !strings.Contains(m.View(), "Error: rate limited") {
		t.Fatalf("view missing error text")
	}

	desk.transport.body = twoArticles
	m, cmd = press(t, m, runes("r"))
	if cmd == nil || m.Status != "Loading page 1..." {
		t.Fatalf("retry not issued, status %q", m.Status)
	}
	m, _ = press(t, m, cmd())
	if m.StatusErr {
		t.Fatalf("retry should succeed, status %q", m.Status)
	}
}

func TestNavigationKeys(t *testing.T) {
	desk := newFakeDesk(twoArticles)
	m := NewModel(context.Background(), desk)

	if _, cmd := press(t, m, runes("n")); cmd != nil {
		t.Fatalf("next page before any query must be a no-op")
	}

	m, cmd := press(t, m, runes("h"), tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = press(t, m, cmd())

	if _, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyLeft}); cmd != nil {
		t.Fatalf("prev page on page 1 must be a no-op")
	}
	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if cmd == nil || m.Status != "Loading page 2..." {
		t.Fatalf("next page not issued, status %q", m.Status)
	}
	m, _ = press(t, m, cmd())
	if desk.sess.Snapshot().Page.CurrentPage != 2 {
		t.Fatalf("expected page 2")
	}
	if !strings.Contains(m.View(), "6. First") {
		t.Fatalf("page 2 numbering should continue from 6:\n%s", m.View())
	}
}

func TestSelectionAndPreview(t *testing.T) {
	desk := newFakeDesk(twoArticles)
	m := NewModel(context.Background(), desk)
	m, cmd := press(t, m, runes("h"), tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = press(t, m, cmd())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown})
	if m.Selected != 1 {
		t.Fatalf("selection should stop at last article, got %d", m.Selected)
	}

	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected preview command")
	}
	m, _ = press(t, m, cmd())
	if m.Preview == nil || m.Preview.Title != "Preview of Second" {
		t.Fatalf("unexpected preview %+v", m.Preview)
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if m.Selected != 0 || m.Preview != nil {
		t.Fatalf("moving selection should clear preview")
	}
}

func TestPreviewForPreviousPageIsDiscarded(t *testing.T) {
	desk := newFakeDesk(twoArticles)
	m := NewModel(context.Background(), desk)
	m, cmd := press(t, m, runes("h"), tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = press(t, m, cmd())

	m, previewOfPage1 := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if previewOfPage1 == nil {
		t.Fatalf("expected preview command")
	}
	late := previewOfPage1()

	desk.transport.body = `{"status":"ok","totalResults":12,"articles":[
 {"source":{"name":"Wire"},"title":"Sixth","url":"https://example.com/6"}]}`
	m, cmd = press(t, m, runes("n"))
	m, _ = press(t, m, cmd())
	if m.Selected != 0 {
		t.Fatalf("selection should reset on a new page, got %d", m.Selected)
	}

	m, _ = press(t, m, late)
	if m.Preview != nil {
		t.Fatalf("preview of page 1 shown for page 2: %+v", m.Preview)
	}
	if m.Status == "Preview loaded." {
		t.Fatalf("late preview changed status")
	}

	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = press(t, m, cmd())
	if m.Preview == nil || m.Preview.URL != "https://example.com/6" {
		t.Fatalf("current preview not applied: %+v", m.Preview)
	}
}

func TestCancelledContextFailsFetch(t *testing.T) {
	desk := newFakeDesk(twoArticles)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewModel(ctx, desk)

	m, cmd := press(t, m, runes("h"), tea.KeyMsg{Type: tea.KeyEnter})
	msg := cmd()
	resp, ok := msg.(ResponseMsg)
	if !ok {
		t.Fatalf("expected ResponseMsg, got %T", msg)
	}
	if !errors.Is(resp.Response.Err, context.Canceled) {
		t.Fatalf("fetch should see the cancelled context, got %v", resp.Response.Err)
	}

	m, _ = press(t, m, resp)
	if m.Status != "Error occurred" || desk.sess.Snapshot().State != domain.StateErrored {
		t.Fatalf("cancelled fetch should leave the session errored, status %q", m.Status)
	}
}

func TestSaveAPIKeyAndExport(t *testing.T) {
	desk := newFakeDesk(twoArticles)
	m := NewModel(context.Background(), desk)

	m, _ = press(t, m, runes("k"), runes("new-key"), tea.KeyMsg{Type: tea.KeyEnter})
	if desk.creds.key != "new-key" || m.Status != "API key saved." {
		t.Fatalf("key not saved: %q status %q", desk.creds.key, m.Status)
	}

	m, _ = press(t, m, runes("w"), tea.KeyMsg{Type: tea.KeyEnter})
	if desk.savedPath != defaultSavePath || m.Status != "Saved to "+defaultSavePath {
		t.Fatalf("save not performed: %q status %q", desk.savedPath, m.Status)
	}

	m, cmd := press(t, m, runes("e"))
	m, _ = press(t, m, cmd())
	if m.Status != "Exported to 2 destination(s)" {
		t.Fatalf("unexpected export status %q", m.Status)
	}

	desk.exportErr = errors.New("sink down")
	m, cmd = press(t, m, runes("e"))
	m, _ = press(t, m, cmd())
	if !m.StatusErr || !strings.Contains(m.Status, "sink down") {
		t.Fatalf("unexpected export failure status %q", m.Status)
	}
}

func TestPromptEditing(t *testing.T) {
	m := NewModel(context.Background(), newFakeDesk(twoArticles))
	m, _ = press(t, m, runes("/"), runes("gox"), tea.KeyMsg{Type: tea.KeyBackspace}, tea.KeyMsg{Type: tea.KeySpace})
	if m.Input != "go " {
		t.Fatalf("unexpected input %q", m.Input)
	}
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if cmd != nil || m.Prompt != PromptNone || m.Input != "" {
		t.Fatalf("esc should close the prompt: %+v", m)
	}
}

func TestParseSearchTokens(t *testing.T) {
	s, err := parseSearch("climate change from:2024-03-01 to:2024-03-05 lang:de sort:relevancy")
	if err != nil {
		t.Fatalf("parseSearch: %v", err)
	}
	if s.Query != "climate change" || s.Language != "de" || s.SortBy != "relevancy" {
		t.Fatalf("unexpected search %+v", s)
	}
	if s.From.Day() != 1 || s.To.Day() != 5 {
		t.Fatalf("dates not parsed: %v %v", s.From, s.To)
	}
	if _, err := parseSearch("go from:yesterday"); err == nil {
		t.Fatalf("expected date error")
	}
	if h := parseHeadlines(" IN  Sports "); h.Country != "in" || h.Category != "sports" {
		t.Fatalf("unexpected headlines %+v", h)
	}
}
