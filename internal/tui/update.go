package tui

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samvad-hq/samvad-newsdesk/internal/domain"
	"github.com/samvad-hq/samvad-newsdesk/internal/session"
	"github.com/samvad-hq/samvad-newsdesk/pkg/newsapi"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if m.Prompt != PromptNone {
			return m.handlePromptKey(msg)
		}
		return m.handleKeyPress(msg)
	case ResponseMsg:
		return m.handleResponse(msg)
	case ExportMsg:
		return m.handleExport(msg)
	case PreviewMsg:
		return m.handlePreview(msg)
	}
	return m, nil
}

// handleKeyPress processes keyboard input outside of prompts.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "h":
		return m.openPrompt(PromptHeadlines, ""), nil
	case "/", "s":
		return m.openPrompt(PromptSearch, ""), nil
	case "k":
		return m.openPrompt(PromptAPIKey, ""), nil
	case "w":
		return m.openPrompt(PromptSavePath, defaultSavePath), nil
	case "n", "right":
		return m.navigate(m.desk.Session().NextPage)
	case "p", "left":
		return m.navigate(m.desk.Session().PrevPage)
	case "r":
		return m.navigate(m.desk.Session().Retry)
	case "e":
		m = m.setStatus("Exporting...")
		return m, exportCmd(m.ctx, m.desk)
	case "up":
		if m.Selected > 0 {
			m.Selected--
			m.Preview = nil
		}
	case "down":
		if m.Selected < len(m.articles())-1 {
			m.Selected++
			m.Preview = nil
		}
	case "enter":
		arts := m.articles()
		if m.Selected < len(arts) {
			m = m.setStatus("Loading preview...")
			return m, previewCmd(m.ctx, m.desk, m.snapshot().Seq, m.Selected, arts[m.Selected])
		}
	}
	return m, nil
}

func (m Model) openPrompt(p Prompt, initial string) Model {
	m.Prompt = p
	m.Input = initial
	return m
}

// handlePromptKey edits the open prompt line.
func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.Prompt, m.Input = PromptNone, ""
		return m, nil
	case tea.KeyEnter:
		prompt, input := m.Prompt, m.Input
		m.Prompt, m.Input = PromptNone, ""
		return m.submit(prompt, input)
	case tea.KeyBackspace:
		if r := []rune(m.Input); len(r) > 0 {
			m.Input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.Input += " "
	case tea.KeyRunes:
		m.Input += string(msg.Runes)
	}
	return m, nil
}

func (m Model) submit(prompt Prompt, input string) (tea.Model, tea.Cmd) {
	switch prompt {
	case PromptHeadlines:
		return m.startQuery(parseHeadlines(input), "Fetching headlines...")
	case PromptSearch:
		mode, err := parseSearch(input)
		if err != nil {
			return m.setError(err.Error()), nil
		}
		return m.startQuery(mode, "Searching news...")
	case PromptAPIKey:
		if err := m.desk.SaveAPIKey(input); err != nil {
			return m.setError(err.Error()), nil
		}
		return m.setStatus("API key saved."), nil
	case PromptSavePath:
		if err := m.desk.SaveToFile(input); err != nil {
			return m.setError(err.Error()), nil
		}
		return m.setStatus(fmt.Sprintf("Saved to %s", input)), nil
	}
	return m, nil
}

func (m Model) startQuery(mode domain.FetchMode, status string) (tea.Model, tea.Cmd) {
	p, err := m.desk.Session().StartQuery(mode, m.desk.PageSize())
	if err != nil {
		if errors.Is(err, newsapi.ErrEmptyQuery) {
			return m.setError("Please enter a search query."), nil
		}
		return m.setError(err.Error()), nil
	}
	m.Selected, m.Preview = 0, nil
	return m.setStatus(status), fetchCmd(m.ctx, m.desk, p)
}

func (m Model) navigate(op func() (session.Pending, bool)) (tea.Model, tea.Cmd) {
	p, ok := op()
	if !ok {
		return m, nil
	}
	m = m.setStatus(fmt.Sprintf("Loading page %d...", p.Request.Page()))
	return m, fetchCmd(m.ctx, m.desk, p)
}

// handleResponse applies a completed request; superseded ones change nothing.
func (m Model) handleResponse(msg ResponseMsg) (tea.Model, tea.Cmd) {
	if !m.desk.Session().Deliver(msg.Response) {
		return m, nil
	}
	m.Selected, m.Preview = 0, nil

	snap := m.snapshot()
	if snap.State == domain.StateReady {
		return m.setStatus(fmt.Sprintf("Fetch complete. Total results: %d", snap.Page.TotalResults)), nil
	}
	return m.setError("Error occurred"), nil
}

func (m Model) handleExport(msg ExportMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		return m.setError(fmt.Sprintf("Export failed: %v", msg.Err)), nil
	}
	return m.setStatus(fmt.Sprintf("Exported to %d destination(s)", msg.Delivered)), nil
}

// handlePreview shows metadata only if it still belongs to the selected
// article of the result on screen.
func (m Model) handlePreview(msg PreviewMsg) (tea.Model, tea.Cmd) {
	arts := m.articles()
	if msg.Seq != m.snapshot().Seq || msg.Index != m.Selected || msg.Index >= len(arts) {
		return m, nil
	}
	if arts[msg.Index].DisplayURL() != msg.URL {
		return m, nil
	}
	if msg.Err != nil {
		return m.setError(fmt.Sprintf("Preview failed: %v", msg.Err)), nil
	}
	meta := msg.Meta
	m.Preview = &meta
	return m.setStatus("Preview loaded."), nil
}
