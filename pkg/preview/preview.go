// Package preview fetches an article page and extracts its Open Graph metadata.
package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samvad-hq/samvad-newsdesk/pkg/httpclient"
)

const maxHTMLBodyBytes = 1 << 20 // 1 MiB

// ErrNoURL is returned when the article has no link to preview.
var ErrNoURL = errors.New("article has no url")

// Meta is the metadata extracted from an article page.
type Meta struct {
	URL         string
	Title       string
	Description string
	ImageURL    string
	SiteName    string
}

// Previewer fetches article pages through the shared HTTP client.
type Previewer struct {
	client  httpclient.Client
	headers map[string]string
}

// New constructs a Previewer. userAgent may be empty.
func New(client httpclient.Client, userAgent string) *Previewer {
	headers := map[string]string{
		"Accept":          "text/html,application/xhtml+xml",
		"Accept-Language": "en-US,en;q=0.9",
	}
	if userAgent != "" {
		headers["User-Agent"] = userAgent
	}
	return &Previewer{client: client, headers: headers}
}

// Fetch downloads rawURL and parses its metadata.
func (p *Previewer) Fetch(ctx context.Context, rawURL string) (Meta, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Meta{}, ErrNoURL
	}

	resp, err := p.client.Get(ctx, rawURL, nil, p.headers)
	if err != nil {
		return Meta{}, fmt.Errorf("http fetch: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		snippet := strings.TrimSpace(string(resp.Body()))
		if len(snippet) > 1024 {
			snippet = snippet[:1024]
		}
		return Meta{}, fmt.Errorf("status %d body: %s", resp.StatusCode(), snippet)
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}

	meta, err := parseMeta(body)
	if err != nil {
		return Meta{}, err
	}
	meta.URL = rawURL
	meta.ImageURL = resolveURL(meta.ImageURL, rawURL)
	return meta, nil
}

func parseMeta(body []byte) (Meta, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Meta{}, fmt.Errorf("parse html: %w", err)
	}

	extract := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	return Meta{
		Title: firstNonEmpty(
			extract(`meta[property="og:title"]`),
			extract(`meta[name="twitter:title"]`),
			doc.Find("title").First().Text(),
		),
		Description: firstNonEmpty(
			extract(`meta[property="og:description"]`),
			extract(`meta[name="description"]`),
		),
		ImageURL: firstNonEmpty(
			extract(`meta[property="og:image"]`),
			extract(`meta[name="twitter:image"]`),
		),
		SiteName: extract(`meta[property="og:site_name"]`),
	}, nil
}

// resolveURL makes ref absolute against base; unparsable input is returned unchanged.
func resolveURL(ref, base string) string {
	if ref == "" {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
