package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-newsdesk/internal/config"
	"github.com/samvad-hq/samvad-newsdesk/internal/domain"
)

type fakeNewsAPI struct {
	mu       sync.Mutex
	apiKeys  []string
	requests int
}

func (f *fakeNewsAPI) handler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests++
	f.apiKeys = append(f.apiKeys, r.URL.Query().Get("apiKey"))
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Query().Get("apiKey") == "":
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status":"error","code":"apiKeyMissing","message":"Your API key is missing."}`))
	case strings.HasSuffix(r.URL.Path, "/top-headlines"):
		w.Write([]byte(`{"status":"ok","totalResults":7,"articles":[{"source":{"name":"Wire"},"title":"Headline one","url":"https://example.com/1"}]}`))
	default:
		w.Write([]byte(`{"status":"ok","totalResults":0,"articles":[]}`))
	}
}

func (f *fakeNewsAPI) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.apiKeys...)
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		AppName:        "samvad-newsdesk",
		NewsAPIBaseURL: baseURL,
		PageSize:       5,
		RequestTimeout: 2 * time.Second,
		UserAgent:      "samvad-newsdesk/test",
		StorageType:    "bbolt",
		BBoltPath:      filepath.Join(dir, "desk.db"),
		CacheTTL:       time.Minute,
		StorageCleanup: time.Hour,
		ExportersFile:  filepath.Join(dir, "missing.yaml"),
		ExportDir:      filepath.Join(dir, "exports"),
	}
}

func TestDeskFetchesRendersAndExports(t *testing.T) {
	api := &fakeNewsAPI{}
	srv := httptest.NewServer(http.HandlerFunc(api.handler))
	defer srv.Close()

	cfg := testConfig(t, srv.URL+"/v2/")
	cfg.NewsAPIKey = "env-key"

	var out bytes.Buffer
	desk, err := NewDesk(context.Background(), cfg, nil, Options{Output: &out})
	if err != nil {
		t.Fatalf("NewDesk: %v", err)
	}
	defer desk.Close()

	if _, err := desk.Controller().StartQuery(context.Background(), domain.Headlines{}, desk.PageSize()); err != nil {
		t.Fatalf("StartQuery: %v", err)
	}
	desk.Controller().Wait()

	snap := desk.Session().Snapshot()
	if snap.State != domain.StateReady || snap.Page.TotalResults != 7 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if keys := api.keys(); len(keys) != 1 || keys[0] != "env-key" {
		t.Fatalf("seeded key not sent: %v", keys)
	}
	if !strings.Contains(out.String(), "1. Headline one") || !strings.Contains(desk.Rendered(), "Page 1 of 2") {
		t.Fatalf("unexpected rendering %q", out.String())
	}

	n, err := desk.Export(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("Export n=%d err=%v", n, err)
	}
	entries, err := os.ReadDir(cfg.ExportDir)
	if err != nil || len(entries) != 1 || !strings.HasSuffix(entries[0].Name(), ".txt") {
		t.Fatalf("expected one text export, got %v err=%v", entries, err)
	}

	savePath := filepath.Join(t.TempDir(), "page.txt")
	if err := desk.SaveToFile(savePath); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}
	raw, _ := os.ReadFile(savePath)
	if string(raw) != desk.Rendered() {
		t.Fatalf("saved file differs from rendering")
	}
}

func TestDeskServesRepeatQueriesFromCache(t *testing.T) {
	api := &fakeNewsAPI{}
	srv := httptest.NewServer(http.HandlerFunc(api.handler))
	defer srv.Close()

	cfg := testConfig(t, srv.URL+"/v2/")
	cfg.NewsAPIKey = "k"
	desk, err := NewDesk(context.Background(), cfg, nil, Options{})
	if err != nil {
		t.Fatalf("NewDesk: %v", err)
	}
	defer desk.Close()

	for i := 0; i < 2; i++ {
		if _, err := desk.Controller().StartQuery(context.Background(), domain.Headlines{Country: "gb"}, 5); err != nil {
			t.Fatalf("StartQuery: %v", err)
		}
		desk.Controller().Wait()
	}
	if got := len(api.keys()); got != 1 {
		t.Fatalf("expected one upstream request, got %d", got)
	}
}

func TestDeskSavedKeyIsUsedOnNextRequest(t *testing.T) {
	api := &fakeNewsAPI{}
	srv := httptest.NewServer(http.HandlerFunc(api.handler))
	defer srv.Close()

	cfg := testConfig(t, srv.URL+"/v2/")
	cfg.CacheTTL = 0
	desk, err := NewDesk(context.Background(), cfg, nil, Options{})
	if err != nil {
		t.Fatalf("NewDesk: %v", err)
	}
	defer desk.Close()

	ctrl := desk.Controller()
	if _, err := ctrl.StartQuery(context.Background(), domain.Headlines{}, 5); err != nil {
		t.Fatalf("StartQuery: %v", err)
	}
	ctrl.Wait()

	snap := desk.Session().Snapshot()
	if snap.State != domain.StateErrored || snap.Result.Message != "Your API key is missing." {
		t.Fatalf("expected missing key failure, got %+v", snap.Result)
	}
	if _, err := desk.Export(context.Background()); !errors.Is(err, ErrNotExportable) {
		t.Fatalf("expected ErrNotExportable, got %v", err)
	}

	if err := desk.SaveAPIKey("fresh"); err != nil {
		t.Fatalf("SaveAPIKey: %v", err)
	}
	if !ctrl.Retry(context.Background()) {
		t.Fatalf("retry was not issued")
	}
	ctrl.Wait()

	if keys := api.keys(); len(keys) != 2 || keys[1] != "fresh" {
		t.Fatalf("expected retry with new key, got %v", keys)
	}
	if desk.Session().Snapshot().State != domain.StateReady {
		t.Fatalf("expected ready after retry")
	}
}

func TestDeskSeedDoesNotOverrideSavedKey(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:0/")
	desk, err := NewDesk(context.Background(), cfg, nil, Options{})
	if err != nil {
		t.Fatalf("NewDesk: %v", err)
	}
	if err := desk.SaveAPIKey("saved"); err != nil {
		t.Fatalf("SaveAPIKey: %v", err)
	}
	desk.Close()

	cfg.NewsAPIKey = "env"
	desk, err = NewDesk(context.Background(), cfg, nil, Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer desk.Close()
	if key, _ := desk.APIKey(); key != "saved" {
		t.Fatalf("expected saved key to win, got %q", key)
	}
}

func TestDeskSaveBeforeRender(t *testing.T) {
	desk, err := NewDesk(context.Background(), testConfig(t, "http://127.0.0.1:0/"), nil, Options{})
	if err != nil {
		t.Fatalf("NewDesk: %v", err)
	}
	defer desk.Close()

	if err := desk.SaveToFile(filepath.Join(t.TempDir(), "x.txt")); !errors.Is(err, ErrNothingRendered) {
		t.Fatalf("expected ErrNothingRendered, got %v", err)
	}
	if _, err := desk.Export(context.Background()); !errors.Is(err, ErrNothingRendered) {
		t.Fatalf("expected ErrNothingRendered, got %v", err)
	}
}

func TestDeskRejectsBadExportersFile(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:0/")
	cfg.ExportersFile = filepath.Join(t.TempDir(), "exporters.yaml")
	if err := os.WriteFile(cfg.ExportersFile, []byte("exporters: []\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewDesk(context.Background(), cfg, nil, Options{}); err == nil {
		t.Fatalf("expected error for empty exporters file")
	}
}
