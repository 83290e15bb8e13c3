package exporters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Builder creates an Exporter from a config entry.
type Builder func(ctx context.Context, cfg ExporterConfig, log Logger) (Exporter, error)

// Registry maps exporter types to builders.
type Registry interface {
	Register(typ string, builder Builder)
	ExporterFor(ctx context.Context, cfg ExporterConfig, log Logger) (Exporter, error)
}

type registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry returns a registry with optional pre-registered builders.
func NewRegistry(builders map[string]Builder) Registry {
	r := &registry{builders: make(map[string]Builder)}
	for typ, b := range builders {
		r.Register(typ, b)
	}
	return r
}

func (r *registry) Register(typ string, builder Builder) {
	if typ = strings.TrimSpace(strings.ToLower(typ)); typ == "" || builder == nil {
		return
	}
	r.mu.Lock()
	r.builders[typ] = builder
	r.mu.Unlock()
}

func (r *registry) ExporterFor(ctx context.Context, cfg ExporterConfig, log Logger) (Exporter, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("exporter %q has no type configured", cfg.ID)
	}

	r.mu.RLock()
	builder := r.builders[strings.ToLower(cfg.Type)]
	r.mu.RUnlock()

	if builder == nil {
		return nil, fmt.Errorf("no exporter registered for type %q", cfg.Type)
	}
	return builder(ctx, cfg, log)
}

// DefaultRegistry wires up the built-in exporters.
func DefaultRegistry() Registry {
	return NewRegistry(map[string]Builder{
		TypeFile:      newFileExporter,
		TypeHTTP:      newHTTPExporter,
		TypeSQS:       newSQSExporter,
		TypeSNS:       newSNSExporter,
		TypeGCPPubSub: newGCPPubSubExporter,
	})
}

// BuildAll instantiates exporters for cfgs. Exporters built before a failure are closed.
func BuildAll(ctx context.Context, reg Registry, cfgs []ExporterConfig, log Logger) ([]Exporter, error) {
	if reg == nil || len(cfgs) == 0 {
		return nil, nil
	}

	var exps []Exporter
	for _, cfg := range cfgs {
		exp, err := reg.ExporterFor(ctx, cfg, log)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("build exporter %q: %w", cfg.ID, err), NewFanout(exps).Close())
		}
		exps = append(exps, exp)
	}
	return exps, nil
}
