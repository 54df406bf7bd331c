package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Entry is a rendered document together with its validator
type Entry struct {
	Body    []byte    `msgpack:"body"`
	ETag    string    `msgpack:"etag"`
	BuiltAt time.Time `msgpack:"built_at"`
}

// BuildFunc renders the JSON body for a document
type BuildFunc func(ctx context.Context) ([]byte, error)

// DocumentCache stores rendered documents in a backend as msgpack envelopes.
// Concurrent misses for the same key share a single build.
type DocumentCache struct {
	backend Cache
	ttl     time.Duration
	logger  *zap.Logger
	group   singleflight.Group
}

// NewDocumentCache wraps a backend; a nil logger discards backend warnings
func NewDocumentCache(backend Cache, ttl time.Duration, logger *zap.Logger) *DocumentCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentCache{backend: backend, ttl: ttl, logger: logger}
}

// CatalogKey is the cache key for the catalog document of a schema fingerprint
func CatalogKey(fingerprint string) string {
	return "catalog:" + fingerprint
}

// Get returns the cached entry for key. Backend failures and undecodable
// entries are logged and reported as misses.
func (d *DocumentCache) Get(ctx context.Context, key string) (*Entry, bool) {
	raw, err := d.backend.Get(ctx, key)
	if err != nil {
		if !IsCacheMiss(err) {
			d.logger.Warn("document cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var entry Entry
	if err := msgpack.Unmarshal(raw, &entry); err != nil {
		d.logger.Warn("document cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &entry, true
}

// Put stores body under key and returns the stored entry
func (d *DocumentCache) Put(ctx context.Context, key string, body []byte) (*Entry, error) {
	entry := &Entry{
		Body:    body,
		ETag:    GenerateETag(body),
		BuiltAt: time.Now().UTC(),
	}

	raw, err := msgpack.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("encode document %s: %w", key, err)
	}
	if err := d.backend.Set(ctx, key, raw, d.ttl); err != nil {
		d.logger.Warn("document cache write failed", zap.String("key", key), zap.Error(err))
	}
	return entry, nil
}

// GetOrBuild returns the cached entry for key, building and storing it on a miss
func (d *DocumentCache) GetOrBuild(ctx context.Context, key string, build BuildFunc) (*Entry, error) {
	if entry, ok := d.Get(ctx, key); ok {
		return entry, nil
	}

	// The flight is shared by every waiting caller, so it must not end with
	// the first caller's request.
	v, err, _ := d.group.Do(key, func() (interface{}, error) {
		flightCtx := context.WithoutCancel(ctx)
		if entry, ok := d.Get(flightCtx, key); ok {
			return entry, nil
		}
		body, err := build(flightCtx)
		if err != nil {
			return nil, err
		}
		return d.Put(flightCtx, key, body)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Entry), nil
}

// Invalidate drops the entry for key
func (d *DocumentCache) Invalidate(ctx context.Context, key string) error {
	return d.backend.Delete(ctx, key)
}
