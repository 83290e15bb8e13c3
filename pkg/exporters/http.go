package exporters

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samvad-hq/samvad-newsdesk/pkg/httpclient"
)

type httpExporter struct {
	id      string
	method  string
	url     string
	headers map[string]string
	client  *resty.Client
	log     Logger
}

func newHTTPExporter(_ context.Context, cfg ExporterConfig, log Logger) (Exporter, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("exporter %q missing http configuration", cfg.ID)
	}

	client := httpclient.NewRestyHTTPClient(httpclient.Options{
		Timeout: time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
	})

	return &httpExporter{
		id:      cfg.ID,
		method:  cfg.HTTP.Method,
		url:     cfg.HTTP.URL,
		headers: cfg.HTTP.Headers,
		client:  client,
		log:     ensureLogger(log),
	}, nil
}

func (h *httpExporter) ID() string   { return h.id }
func (h *httpExporter) Type() string { return TypeHTTP }

func (h *httpExporter) Export(ctx context.Context, doc Document) error {
	req := h.client.R().
		SetContext(ctx).
		SetBody(doc)

	if len(h.headers) > 0 {
		req.SetHeaders(h.headers)
	}
	req.SetHeader("Content-Type", "application/json")

	resp, err := req.Execute(h.method, h.url)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("http response status %d: %s", resp.StatusCode(), bodySnippet(resp.Body()))
	}
	h.log.DebugObj("http exporter delivered document", "exporter_http_delivery", map[string]any{
		"exporter_id": h.id,
		"status":      resp.StatusCode(),
	})
	return nil
}

func bodySnippet(body []byte) string {
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
