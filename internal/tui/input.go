package tui

import (
	"fmt"
	"strings"

	"github.com/samvad-hq/samvad-newsdesk/internal/domain"
	"github.com/samvad-hq/samvad-newsdesk/pkg/newsapi"
)

// parseHeadlines reads "country [category]".
func parseHeadlines(input string) domain.Headlines {
	fields := strings.Fields(input)
	var h domain.Headlines
	if len(fields) > 0 {
		h.Country = strings.ToLower(fields[0])
	}
	if len(fields) > 1 {
		h.Category = strings.ToLower(fields[1])
	}
	return h
}

// parseSearch reads a free-text query with optional from:, to:, lang: and
// sort: tokens, e.g. "climate from:2024-03-01 lang:de".
func parseSearch(input string) (domain.Search, error) {
	var (
		s     domain.Search
		terms []string
	)
	for _, field := range strings.Fields(input) {
		key, val, ok := strings.Cut(field, ":")
		if !ok || val == "" {
			terms = append(terms, field)
			continue
		}
		switch strings.ToLower(key) {
		case "from":
			t, err := newsapi.ParseDate(val)
			if err != nil {
				return domain.Search{}, fmt.Errorf("from: %w", err)
			}
			s.From = t
		case "to":
			t, err := newsapi.ParseDate(val)
			if err != nil {
				return domain.Search{}, fmt.Errorf("to: %w", err)
			}
			s.To = t
		case "lang", "language":
			s.Language = val
		case "sort", "sortby":
			s.SortBy = val
		default:
			terms = append(terms, field)
		}
	}
	s.Query = strings.Join(terms, " ")
	return s, nil
}
