package exporters

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type fileExporter struct {
	id     string
	dir    string
	format string
	log    Logger
}

func newFileExporter(_ context.Context, cfg ExporterConfig, log Logger) (Exporter, error) {
	if cfg.File == nil {
		return nil, fmt.Errorf("exporter %q missing file configuration", cfg.ID)
	}
	return NewFileExporter(cfg.ID, cfg.File.Dir, cfg.File.Format, log), nil
}

// NewFileExporter writes documents into dir as text or json files.
func NewFileExporter(id, dir, format string, log Logger) Exporter {
	if format == "" {
		format = FormatText
	}
	return &fileExporter{id: id, dir: dir, format: format, log: ensureLogger(log)}
}

func (f *fileExporter) ID() string   { return f.id }
func (f *fileExporter) Type() string { return TypeFile }

func (f *fileExporter) Export(_ context.Context, doc Document) error {
	var (
		data []byte
		ext  string
	)
	switch f.format {
	case FormatJSON:
		raw, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal document: %w", err)
		}
		data, ext = raw, ".json"
	default:
		data, ext = []byte(doc.Text), ".txt"
	}

	path := filepath.Join(f.dir, doc.BaseName()+ext)
	if err := writeFile(path, data); err != nil {
		return err
	}
	f.log.DebugObj("file exporter wrote document", "exporter_file_written", map[string]any{
		"exporter_id": f.id,
		"path":        path,
	})
	return nil
}

// SaveText writes text to path, creating parent directories as needed.
func SaveText(path, text string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("save path is empty")
	}
	return writeFile(path, []byte(text))
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
