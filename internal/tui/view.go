package tui

import (
	"fmt"
	"strings"

	"github.com/samvad-hq/samvad-newsdesk/internal/domain"
	"github.com/samvad-hq/samvad-newsdesk/internal/session"
	"github.com/samvad-hq/samvad-newsdesk/pkg/preview"
)

var promptLabels = map[Prompt]string{
	PromptHeadlines: "Country and category (e.g. \"us science\")",
	PromptSearch:    "Search (e.g. \"climate from:2024-03-01 lang:en sort:relevancy\")",
	PromptAPIKey:    "NewsAPI key",
	PromptSavePath:  "Save to file",
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	snap := m.snapshot()

	b.WriteString(TitleStyle.Render("📰 Samvad Newsdesk"))
	b.WriteString("\n")
	if snap.Mode != nil {
		b.WriteString(InfoStyle.Render(domain.Describe(snap.Mode)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.Prompt != PromptNone {
		b.WriteString(HighlightStyle.Render(promptLabels[m.Prompt]))
		b.WriteString(" ")
		b.WriteString(m.Input)
		b.WriteString("█\n\n")
	}

	body := m.desk.Rendered()
	if body == "" {
		body = "No results yet."
	}
	box := BoxStyle
	if m.Width > 4 {
		box = box.Width(m.Width - 4)
	}
	b.WriteString(box.Render(body))
	b.WriteString("\n")

	if arts := m.articles(); len(arts) > 0 && m.Selected < len(arts) {
		n := (snap.Page.CurrentPage-1)*snap.Page.PageSize + m.Selected + 1
		b.WriteString(InfoStyle.Render(fmt.Sprintf("▶ %d. %s", n, arts[m.Selected].DisplayTitle())))
		b.WriteString("\n")
	}
	if m.Preview != nil {
		b.WriteString(BoxStyle.Render(formatPreview(*m.Preview)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.StatusErr {
		b.WriteString(ErrorStyle.Render(m.Status))
	} else if snap.State == domain.StateFetching {
		b.WriteString(StatusStyle.Render("⏳ " + m.Status))
	} else {
		b.WriteString(StatusStyle.Render(m.Status))
	}
	b.WriteString("\n")

	b.WriteString(InfoStyle.Render(m.helpLine(snap)))
	return b.String()
}

func (m Model) helpLine(snap session.Snapshot) string {
	if m.Prompt != PromptNone {
		return "enter: submit | esc: cancel"
	}
	parts := []string{"h: headlines", "/: search"}
	navigable := snap.State == domain.StateFetching || snap.State == domain.StateReady
	if navigable && snap.Page.HasPrevPage() {
		parts = append(parts, "p: prev")
	}
	if navigable && snap.Page.HasNextPage() {
		parts = append(parts, "n: next")
	}
	if snap.State == domain.StateErrored {
		parts = append(parts, "r: retry")
	}
	parts = append(parts, "↑/↓ enter: preview", "w: save", "e: export", "k: api key", "q: quit")
	return strings.Join(parts, " | ")
}

func formatPreview(meta preview.Meta) string {
	var b strings.Builder
	if meta.SiteName != "" {
		b.WriteString(meta.SiteName)
		b.WriteString("\n")
	}
	b.WriteString(HighlightStyle.Render(meta.Title))
	b.WriteString("\n")
	if meta.Description != "" {
		b.WriteString(meta.Description)
		b.WriteString("\n")
	}
	if meta.ImageURL != "" {
		b.WriteString(InfoStyle.Render("Image: " + meta.ImageURL))
		b.WriteString("\n")
	}
	b.WriteString(InfoStyle.Render(meta.URL))
	return b.String()
}
