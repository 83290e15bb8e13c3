// Package tui is the interactive terminal front end of the news desk.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samvad-hq/samvad-newsdesk/internal/domain"
	"github.com/samvad-hq/samvad-newsdesk/internal/session"
	"github.com/samvad-hq/samvad-newsdesk/pkg/preview"
)

// Desk is the runtime the TUI drives.
type Desk interface {
	Session() *session.Session
	Transport() session.Transport
	RequestTimeout() time.Duration
	PageSize() int
	Rendered() string
	SaveAPIKey(key string) error
	SaveToFile(path string) error
	Export(ctx context.Context) (int, error)
	Preview(ctx context.Context, art domain.Article) (preview.Meta, error)
}

// Prompt is the kind of line input currently open.
type Prompt string

const (
	PromptNone      Prompt = ""
	PromptHeadlines Prompt = "headlines"
	PromptSearch    Prompt = "search"
	PromptAPIKey    Prompt = "api_key"
	PromptSavePath  Prompt = "save_path"
)

const defaultSavePath = "news_results.txt"

// Model is the TUI state. Fetch state itself lives in the session.
type Model struct {
	ctx  context.Context
	desk Desk

	Prompt Prompt
	Input  string

	Status    string
	StatusErr bool

	Selected int
	Preview  *preview.Meta

	Width int
}

// NewModel creates a TUI model around desk. Commands it starts are bound to
// ctx; a nil ctx means context.Background.
func NewModel(ctx context.Context, desk Desk) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	return Model{
		ctx:    ctx,
		desk:   desk,
		Status: "Press 'h' for headlines or '/' to search.",
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) snapshot() session.Snapshot {
	return m.desk.Session().Snapshot()
}

// articles returns the articles of the result on screen.
func (m Model) articles() []domain.Article {
	snap := m.snapshot()
	if snap.Result == nil || !snap.Result.OK() {
		return nil
	}
	return snap.Result.Articles
}

func (m Model) setStatus(msg string) Model {
	m.Status = msg
	m.StatusErr = false
	return m
}

func (m Model) setError(msg string) Model {
	m.Status = msg
	m.StatusErr = true
	return m
}
