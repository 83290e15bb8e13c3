package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/samvad-hq/samvad-newsdesk/internal/domain"
)

const (
	textNoArticles = "No articles found."
	separator      = "----------------------------------------"
)

// Format renders a result as the plain-text page shown to the user and saved to files.
func Format(result domain.FetchResult, page domain.PageState) string {
	if !result.OK() {
		return "Error: " + result.Message
	}

	var b strings.Builder
	if len(result.Articles) == 0 {
		b.WriteString(textNoArticles)
		b.WriteString("\n")
	}

	offset := (page.CurrentPage - 1) * page.PageSize
	if offset < 0 {
		offset = 0
	}
	for i, art := range result.Articles {
		fmt.Fprintf(&b, "%d. %s\n", offset+i+1, art.DisplayTitle())
		if u := art.DisplayURL(); u != "" {
			fmt.Fprintf(&b, "   %s\n", u)
		}
		fmt.Fprintf(&b, "   Source: %s\n", art.DisplaySource())
		fmt.Fprintf(&b, "   Published: %s\n", art.DisplayPublishedAt())
		fmt.Fprintf(&b, "   Description: %s\n", art.DisplayDescription())
		b.WriteString(separator)
		b.WriteString("\n")
	}

	b.WriteString(Footer(page))
	return b.String()
}

// Footer summarizes the page position.
func Footer(page domain.PageState) string {
	if total := page.TotalPages(); total > 0 {
		return fmt.Sprintf("Page %d of %d · %d results", page.CurrentPage, total, page.TotalResults)
	}
	return fmt.Sprintf("Page %d", page.CurrentPage)
}

// Text keeps the most recent rendering for display and export.
type Text struct {
	mu     sync.RWMutex
	text   string
	result domain.FetchResult
	page   domain.PageState
	count  int
}

// NewText returns an empty Text renderer.
func NewText() *Text { return &Text{} }

// Render implements session.Renderer.
func (t *Text) Render(result domain.FetchResult, page domain.PageState) {
	text := Format(result, page)
	t.mu.Lock()
	t.text = text
	t.result = result
	t.page = page
	t.count++
	t.mu.Unlock()
}

// Last returns the latest plain-text rendering ("" before the first render).
func (t *Text) Last() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.text
}

// LastResult returns the latest rendered result and page, and false before the first render.
func (t *Text) LastResult() (domain.FetchResult, domain.PageState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.result, t.page, t.count > 0
}

// Writer streams every rendering to w, and keeps the latest like Text.
type Writer struct {
	*Text
	mu sync.Mutex
	w  io.Writer
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{Text: NewText(), w: w}
}

// Render implements session.Renderer.
func (w *Writer) Render(result domain.FetchResult, page domain.PageState) {
	w.Text.Render(result, page)
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintln(w.w, w.Text.Last())
}
