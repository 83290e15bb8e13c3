package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samvad-hq/samvad-newsdesk/internal/domain"
	"github.com/samvad-hq/samvad-newsdesk/internal/session"
)

// fetchCmd runs an issued request off the UI loop.
func fetchCmd(ctx context.Context, desk Desk, p session.Pending) tea.Cmd {
	return func() tea.Msg {
		resp := session.Execute(ctx, desk.Transport(), desk.RequestTimeout(), p)
		return ResponseMsg{Response: resp}
	}
}

// exportCmd sends the current page to the configured exporters.
func exportCmd(ctx context.Context, desk Desk) tea.Cmd {
	return func() tea.Msg {
		n, err := desk.Export(ctx)
		return ExportMsg{Delivered: n, Err: err}
	}
}

// previewCmd fetches page metadata for the article at index of the result
// produced by request seq.
func previewCmd(ctx context.Context, desk Desk, seq uint64, index int, art domain.Article) tea.Cmd {
	return func() tea.Msg {
		meta, err := desk.Preview(ctx, art)
		return PreviewMsg{Seq: seq, Index: index, URL: art.DisplayURL(), Meta: meta, Err: err}
	}
}
