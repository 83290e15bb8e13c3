package tui

import (
	"github.com/samvad-hq/samvad-newsdesk/internal/session"
	"github.com/samvad-hq/samvad-newsdesk/pkg/preview"
)

// ResponseMsg carries a completed API request back to Update.
type ResponseMsg struct {
	Response session.Response
}

// ExportMsg reports the outcome of an export to the configured sinks.
type ExportMsg struct {
	Delivered int
	Err       error
}

// PreviewMsg carries the metadata of the selected article. Seq and URL
// identify the result and article it was requested for.
type PreviewMsg struct {
	Seq   uint64
	Index int
	URL   string
	Meta  preview.Meta
	Err   error
}
