package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/samvad-hq/samvad-newsdesk/internal/config"
	"github.com/samvad-hq/samvad-newsdesk/internal/domain"
	"github.com/samvad-hq/samvad-newsdesk/internal/logger"
	"github.com/samvad-hq/samvad-newsdesk/internal/render"
	"github.com/samvad-hq/samvad-newsdesk/internal/session"
	"github.com/samvad-hq/samvad-newsdesk/internal/storage"
	"github.com/samvad-hq/samvad-newsdesk/pkg/exporters"
	"github.com/samvad-hq/samvad-newsdesk/pkg/httpclient"
	"github.com/samvad-hq/samvad-newsdesk/pkg/newsapi"
	"github.com/samvad-hq/samvad-newsdesk/pkg/preview"
)

var (
	// ErrNothingRendered is returned by save/export before any result was shown.
	ErrNothingRendered = errors.New("no results to save yet")
	// ErrFetchInFlight is returned by export while a page is still loading.
	ErrFetchInFlight = errors.New("a fetch is still in progress")
	// ErrNotExportable is returned when exporting an error result.
	ErrNotExportable = errors.New("only successful results can be exported")
)

// Options customizes desk construction.
type Options struct {
	// Output, when set, receives every rendering as it happens.
	Output io.Writer
	// HTTPClient overrides the resty client used for API and preview calls.
	HTTPClient httpclient.Client
}

// Desk owns the runtime wiring shared by the TUI and the one-shot CLI:
// storage, the API client, the fetch session and the exporters.
type Desk struct {
	cfg        *config.Config
	log        logger.Logger
	store      storage.Store
	client     *newsapi.Client
	text       *render.Text
	session    *session.Session
	controller *session.Controller
	fanout     *exporters.Fanout
	previewer  *preview.Previewer
}

// NewDesk builds a desk runtime from config.
func NewDesk(ctx context.Context, cfg *config.Config, log logger.Logger, opts Options) (*Desk, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		CacheTTL:        cfg.CacheTTL,
		CleanupInterval: cfg.StorageCleanup,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	if err := seedAPIKey(store, cfg.NewsAPIKey, log); err != nil {
		store.Close()
		return nil, err
	}
	log.InfoObj("storage initialized", "storage_meta", map[string]any{
		"type":      cfg.StorageType,
		"path":      cfg.BBoltPath,
		"cache_ttl": cfg.CacheTTL.String(),
	})

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = httpclient.NewRestyClient(httpclient.Options{
			Timeout:   cfg.RequestTimeout,
			UserAgent: cfg.UserAgent,
		})
	}

	var cache newsapi.Cache
	if cfg.CacheTTL > 0 {
		cache = store
	}
	client := newsapi.NewClient(httpClient, cache, log)

	var (
		text     *render.Text
		renderer session.Renderer
	)
	if opts.Output != nil {
		w := render.NewWriter(opts.Output)
		text, renderer = w.Text, w
	} else {
		text = render.NewText()
		renderer = text
	}

	sess := session.New(store, session.Options{
		Builder:  newsapi.Builder{BaseURL: cfg.NewsAPIBaseURL},
		Renderer: renderer,
		Logger:   log,
	})

	fanout, err := buildExporters(ctx, cfg, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Desk{
		cfg:        cfg,
		log:        log,
		store:      store,
		client:     client,
		text:       text,
		session:    sess,
		controller: session.NewController(sess, client, cfg.RequestTimeout, log),
		fanout:     fanout,
		previewer:  preview.New(httpClient, cfg.UserAgent),
	}, nil
}

// seedAPIKey stores the configured key when nothing was saved yet.
func seedAPIKey(store storage.Store, key string, log logger.Logger) error {
	if key == "" {
		return nil
	}
	saved, err := store.APIKey()
	if err != nil {
		return fmt.Errorf("read saved api key: %w", err)
	}
	if saved != "" {
		return nil
	}
	if err := store.SaveAPIKey(key); err != nil {
		return fmt.Errorf("seed api key: %w", err)
	}
	log.InfoObj("api key seeded from environment", "credentials", "newsapi_key")
	return nil
}

// buildExporters loads the exporters file, falling back to a plain-text
// file exporter into export_dir when the file does not exist.
func buildExporters(ctx context.Context, cfg *config.Config, log logger.Logger) (*exporters.Fanout, error) {
	reg, err := exporters.LoadRegistry(cfg.ExportersFile)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		log.DebugObj("exporters file not found; using file exporter", "exporters_meta", map[string]any{
			"file":       cfg.ExportersFile,
			"export_dir": cfg.ExportDir,
		})
		return exporters.NewFanout([]exporters.Exporter{
			exporters.NewFileExporter("default", cfg.ExportDir, exporters.FormatText, log),
		}), nil
	default:
		return nil, fmt.Errorf("load exporters registry: %w", err)
	}

	enabled := reg.Enabled()
	exps, err := exporters.BuildAll(ctx, exporters.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build exporters: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, c := range enabled {
		summaries = append(summaries, map[string]string{"id": c.ID, "type": c.Type})
	}
	log.InfoObj("exporters registry loaded", "exporters_meta", map[string]any{
		"count":     len(summaries),
		"exporters": summaries,
	})
	return exporters.NewFanout(exps), nil
}

// Session returns the fetch session.
func (d *Desk) Session() *session.Session { return d.session }

// Controller returns the asynchronous driver of the session.
func (d *Desk) Controller() *session.Controller { return d.controller }

// Transport returns the API client requests run through.
func (d *Desk) Transport() session.Transport { return d.client }

// RequestTimeout bounds a single request.
func (d *Desk) RequestTimeout() time.Duration { return d.cfg.RequestTimeout }

// PageSize is the configured page size.
func (d *Desk) PageSize() int { return d.cfg.PageSize }

// Rendered returns the latest rendering ("" before the first result).
func (d *Desk) Rendered() string { return d.text.Last() }

// APIKey returns the saved credential.
func (d *Desk) APIKey() (string, error) { return d.store.APIKey() }

// SaveAPIKey persists key; the next request uses it.
func (d *Desk) SaveAPIKey(key string) error {
	if err := d.store.SaveAPIKey(key); err != nil {
		return fmt.Errorf("save api key: %w", err)
	}
	d.log.InfoObj("api key saved", "credentials", map[string]any{"set": key != ""})
	return nil
}

// SaveToFile writes the latest rendering to path.
func (d *Desk) SaveToFile(path string) error {
	text := d.text.Last()
	if text == "" {
		return ErrNothingRendered
	}
	if err := exporters.SaveText(path, text); err != nil {
		return err
	}
	d.log.InfoObj("results saved to file", "save_meta", map[string]any{"path": path})
	return nil
}

// Export sends the current page to every configured exporter and returns how
// many accepted it.
func (d *Desk) Export(ctx context.Context) (int, error) {
	result, page, ok := d.text.LastResult()
	if !ok {
		return 0, ErrNothingRendered
	}
	snap := d.session.Snapshot()
	if snap.State == domain.StateFetching {
		return 0, ErrFetchInFlight
	}
	if !result.OK() {
		return 0, ErrNotExportable
	}

	doc := exporters.NewDocument(snap.Mode, page, result.Articles, d.text.Last())
	n, err := d.fanout.Export(ctx, doc)
	d.log.InfoObj("page exported", "export_meta", map[string]any{
		"page":      page.CurrentPage,
		"delivered": n,
		"exporters": d.fanout.Size(),
	})
	return n, err
}

// Preview fetches metadata for the article's page.
func (d *Desk) Preview(ctx context.Context, art domain.Article) (preview.Meta, error) {
	if d.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.RequestTimeout)
		defer cancel()
	}
	return d.previewer.Fetch(ctx, art.DisplayURL())
}

// Close waits for in-flight requests and releases exporters and storage.
func (d *Desk) Close() error {
	if d == nil {
		return nil
	}
	d.controller.Wait()
	return errors.Join(d.fanout.Close(), d.store.Close())
}
