package exporters

import (
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-newsdesk/internal/domain"
)

// Document is the payload exported downstream: one rendered result page.
type Document struct {
	Mode       string            `json:"mode"`
	Label      string            `json:"label"`
	Params     map[string]string `json:"params"`
	Page       domain.PageState  `json:"page"`
	Articles   []domain.Article  `json:"articles"`
	Text       string            `json:"text"`
	ExportedAt time.Time         `json:"exported_at"`
}

// NewDocument constructs a Document for the page currently on screen.
func NewDocument(mode domain.FetchMode, page domain.PageState, articles []domain.Article, text string) Document {
	doc := Document{
		Label:      domain.Describe(mode),
		Params:     domain.Params(mode),
		Page:       page,
		Articles:   articles,
		Text:       text,
		ExportedAt: time.Now().UTC(),
	}
	if mode != nil {
		doc.Mode = string(mode.Kind())
	}
	return doc
}

// BaseName is a filesystem-safe name for the document, without extension.
func (d Document) BaseName() string {
	parts := []string{d.Mode}
	for _, key := range []string{"country", "category", "q"} {
		if v := d.Params[key]; v != "" {
			parts = append(parts, v)
		}
	}
	parts = append(parts, fmt.Sprintf("p%d", d.Page.CurrentPage), d.ExportedAt.Format("20060102T150405Z"))

	name := strings.Join(parts, "-")
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, strings.TrimPrefix(name, "-"))
}
