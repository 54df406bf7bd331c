// Package dispatch serves the HTTP surface: the catalog document at the root
// and navigated resource documents everywhere below it.
package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/conduit-lang/metarest/internal/document"
	"github.com/conduit-lang/metarest/internal/metamodel"
	"github.com/conduit-lang/metarest/internal/navigation"
	"github.com/conduit-lang/metarest/internal/store"
	"github.com/conduit-lang/metarest/internal/web/cache"
	webcontext "github.com/conduit-lang/metarest/internal/web/context"
	"github.com/conduit-lang/metarest/internal/web/middleware"
	"github.com/conduit-lang/metarest/internal/web/router"
)

// Session is a request-scoped data provider that must be closed
type Session interface {
	navigation.DataProvider
	Close() error
}

// SessionFunc opens a data session for one request
type SessionFunc func(ctx context.Context) (Session, error)

// StoreSessions opens sessions on a store
func StoreSessions(s *store.Store) SessionFunc {
	return func(ctx context.Context) (Session, error) {
		sess, err := s.Session(ctx)
		if err != nil {
			return nil, err
		}
		return sess, nil
	}
}

// Config configures a Dispatcher
type Config struct {
	// Prefix mounts the routes below a path such as "/api"
	Prefix string
	// MaxDepth bounds navigation field chains; zero means unbounded
	MaxDepth int
	// ShowDetails includes internal error text in 500 responses
	ShowDetails bool
	// CatalogCacheControl is sent with catalog documents
	CatalogCacheControl string
}

// Dispatcher routes requests to the catalog or to navigation
type Dispatcher struct {
	introspector *metamodel.Introspector
	sessions     SessionFunc
	navigator    *navigation.Navigator
	documents    *cache.DocumentCache
	config       Config
	logger       *zap.Logger
}

// New creates a dispatcher. documents may be nil, in which case the catalog
// document is rendered on every request.
func New(introspector *metamodel.Introspector, sessions SessionFunc, documents *cache.DocumentCache, config Config, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		introspector: introspector,
		sessions:     sessions,
		navigator:    navigation.NewNavigator(navigation.Config{MaxDepth: config.MaxDepth}),
		documents:    documents,
		config:       config,
		logger:       logger,
	}
}

// Routes registers the dispatcher on r. Error handlers are installed on the
// root router first so mounted groups inherit them.
func (d *Dispatcher) Routes(r *router.Router) {
	router.SetupDefaultErrorHandlers(r, d.config.ShowDetails)

	r.Group(d.config.Prefix, func(r *router.Router) {
		r.Get("/", d.ServeCatalog).Named("catalog")
		r.Head("/", d.ServeCatalog)
		r.Get("/*", d.ServeResource).Named("resource")
		r.Head("/*", d.ServeResource)
	})
}

// Handler builds a router with the dispatcher's routes behind the given middleware
func (d *Dispatcher) Handler(middlewares ...middleware.Middleware) http.Handler {
	r := router.NewRouter()
	r.Use(middlewares...)
	d.Routes(r)
	return r
}

// ServeCatalog writes the catalog document
func (d *Dispatcher) ServeCatalog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	catalog, err := d.introspector.Catalog(ctx)
	if err != nil {
		d.fail(w, r, err)
		return
	}

	entry, err := d.catalogEntry(ctx, catalog)
	if err != nil {
		d.fail(w, r, err)
		return
	}

	cache.SetCacheHeaders(w, entry.ETag, d.config.CatalogCacheControl)
	if cache.NotModified(r, entry.ETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	d.writeBody(w, r, http.StatusOK, entry.Body)
}

func (d *Dispatcher) catalogEntry(ctx context.Context, catalog *metamodel.Catalog) (*cache.Entry, error) {
	build := func(context.Context) ([]byte, error) {
		return json.Marshal(document.Catalog(catalog))
	}

	if d.documents != nil {
		return d.documents.GetOrBuild(ctx, cache.CatalogKey(catalog.Fingerprint()), build)
	}

	body, err := build(ctx)
	if err != nil {
		return nil, err
	}
	return &cache.Entry{Body: body, ETag: cache.GenerateETag(body), BuiltAt: time.Now().UTC()}, nil
}

// ServeResource navigates the wildcard path and writes the reached value
func (d *Dispatcher) ServeResource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	path, err := navigation.Parse(router.Wildcard(r))
	if err != nil {
		d.fail(w, r, err)
		return
	}

	catalog, err := d.introspector.Catalog(ctx)
	if err != nil {
		d.fail(w, r, err)
		return
	}

	sess, err := d.sessions(ctx)
	if err != nil {
		d.fail(w, r, err)
		return
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			d.log(ctx).Warn("close session", zap.Error(cerr))
		}
	}()

	req := &navigation.Request{
		ID:      webcontext.GetRequestID(ctx),
		Catalog: catalog,
		Data:    sess,
		Logger:  d.log(ctx),
	}

	result, err := d.navigator.Resolve(ctx, req, path)
	if err != nil {
		d.fail(w, r, err)
		return
	}

	doc, err := document.Resource(result.Value)
	if err != nil {
		d.fail(w, r, err)
		return
	}

	body, err := json.Marshal(doc)
	if err != nil {
		d.fail(w, r, err)
		return
	}
	d.writeBody(w, r, http.StatusOK, body)
}

func (d *Dispatcher) writeBody(w http.ResponseWriter, r *http.Request, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(body); err != nil {
		d.log(r.Context()).Debug("write response", zap.Error(err))
	}
}

// log returns the request-scoped logger, falling back to the dispatcher's
func (d *Dispatcher) log(ctx context.Context) *zap.Logger {
	return webcontext.LoggerOr(ctx, d.logger)
}
