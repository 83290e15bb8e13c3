package storage

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Package storage persists the API credential and caches successful API responses.

// Store is the local persistence backend.
type Store interface {
	Close() error

	// APIKey returns the saved credential ("" when none was saved).
	APIKey() (string, error)
	SaveAPIKey(key string) error

	// CachedResponse returns a cached body for key if present and not expired.
	CachedResponse(key string) ([]byte, bool, error)
	CacheResponse(key string, body []byte) error
}

// Options controls retention characteristics for concrete store implementations.
// A zero CacheTTL disables response caching.
type Options struct {
	CacheTTL        time.Duration
	CleanupInterval time.Duration
}

const defaultCleanupInterval = time.Hour

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return newMemoryStore(Options{}), nil
	case "memory":
		return newMemoryStore(opts), nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.CacheTTL < 0 {
		opts.CacheTTL = 0
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

// memoryStore keeps everything in process memory; nothing survives a restart.
type memoryStore struct {
	mu     sync.Mutex
	apiKey string
	ttl    time.Duration
	cache  map[string]memoryEntry
	now    func() time.Time
}

type memoryEntry struct {
	body    []byte
	expires time.Time
}

func newMemoryStore(opts Options) *memoryStore {
	return &memoryStore{
		ttl:   opts.CacheTTL,
		cache: make(map[string]memoryEntry),
		now:   time.Now,
	}
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) APIKey() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apiKey, nil
}

func (m *memoryStore) SaveAPIKey(key string) error {
	m.mu.Lock()
	m.apiKey = key
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) CachedResponse(key string) ([]byte, bool, error) {
	if m.ttl <= 0 {
		return nil, false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.cache[key]
	if !ok {
		return nil, false, nil
	}
	if !entry.expires.After(m.now()) {
		delete(m.cache, key)
		return nil, false, nil
	}
	return append([]byte(nil), entry.body...), true, nil
}

func (m *memoryStore) CacheResponse(key string, body []byte) error {
	if m.ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	m.cache[key] = memoryEntry{
		body:    append([]byte(nil), body...),
		expires: m.now().Add(m.ttl),
	}
	m.mu.Unlock()
	return nil
}
