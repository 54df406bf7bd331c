package commands

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/conduit-lang/metarest/internal/cli/config"
	"github.com/conduit-lang/metarest/internal/logging"
	"github.com/conduit-lang/metarest/internal/metamodel"
	"github.com/conduit-lang/metarest/internal/schema"
	"github.com/conduit-lang/metarest/internal/store"
	"github.com/conduit-lang/metarest/internal/web/cache"
)

// app holds what a command needs; parts are opened on demand
type app struct {
	config       *config.Config
	logger       *zap.Logger
	introspector *metamodel.Introspector
	store        *store.Store
	closers      []func() error
}

// newApp loads configuration and the schema. The store is opened separately
// because catalog-only commands never touch the database.
func newApp(flags *globalFlags) (*app, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	provider, err := schema.NewFileProvider(cfg.Schema)
	if err != nil {
		return nil, err
	}

	a := &app{
		config:       cfg,
		logger:       logger,
		introspector: metamodel.NewIntrospector(provider),
	}
	a.closers = append(a.closers, func() error {
		_ = logger.Sync()
		return nil
	})
	return a, nil
}

func (a *app) catalog(ctx context.Context) (*metamodel.Catalog, error) {
	return a.introspector.Catalog(ctx)
}

func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := store.Open(ctx, a.config.StoreConfig(), a.logger.Named("store"))
	if err != nil {
		return nil, err
	}
	a.store = s
	a.closers = append(a.closers, s.Close)
	return s, nil
}

// documentCache builds the configured catalog document cache, or nil when disabled
func (a *app) documentCache(ctx context.Context) (*cache.DocumentCache, error) {
	var backend cache.Cache
	cfg := cache.CacheConfig{DefaultTTL: a.config.Cache.TTL, Prefix: cache.DefaultCacheConfig().Prefix}

	switch a.config.Cache.Driver {
	case config.CacheNone:
		return nil, nil
	case config.CacheMemory:
		backend = cache.NewMemoryCache(cfg, time.Minute)
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{URL: a.config.Cache.RedisURL, CacheConfig: cfg})
		if err != nil {
			return nil, err
		}
		backend = rc
	default:
		return nil, fmt.Errorf("unknown cache driver %s", a.config.Cache.Driver)
	}

	a.closers = append(a.closers, backend.Close)
	return cache.NewDocumentCache(backend, a.config.Cache.TTL, a.logger.Named("cache")), nil
}

// Close releases everything opened, last opened first
func (a *app) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
