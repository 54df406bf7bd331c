package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/metarest/internal/metamodel"
	"github.com/conduit-lang/metarest/internal/navigation"
	"github.com/conduit-lang/metarest/internal/schema"
	"github.com/conduit-lang/metarest/internal/store"
	"github.com/conduit-lang/metarest/internal/web/cache"
	"github.com/conduit-lang/metarest/internal/web/middleware"
)

const movieSchema = `
entity Movie {
  id: int @id
  title: string
  rating: decimal?
  director: Person?
  actors: [Actor]
  location: Address?
}
entity Person { id: string @id  name: string }
entity Actor extends Person { agent: string? }
embeddable Address { city: string }
`

const movieFixtures = `
Person:
  - {id: p1, name: Ada}
Actor:
  - {id: a1, name: Tom}
  - {id: a2, name: Sigourney, agent: Max}
Movie:
  - id: 7
    title: Alien
    director: p1
    actors: [a2, a1]
    location: {city: London}
  - id: 8
    title: Orphan
  - id: 9
    title: Aliens
    director: a2
`

// trackingSessions counts open and closed sessions
type trackingSessions struct {
	open   SessionFunc
	opened atomic.Int32
	closed atomic.Int32
}

type trackedSession struct {
	Session
	owner *trackingSessions
}

func (s *trackedSession) Close() error {
	s.owner.closed.Add(1)
	return s.Session.Close()
}

func (t *trackingSessions) Open(ctx context.Context) (Session, error) {
	sess, err := t.open(ctx)
	if err != nil {
		return nil, err
	}
	t.opened.Add(1)
	return &trackedSession{Session: sess, owner: t}, nil
}

type testServer struct {
	handler  http.Handler
	sessions *trackingSessions
}

func newTestServer(t *testing.T, config Config, documents *cache.DocumentCache) *testServer {
	t.Helper()
	ctx := context.Background()

	introspector := metamodel.NewIntrospector(schema.NewSourceProvider("movies", movieSchema))
	catalog, err := introspector.Catalog(ctx)
	require.NoError(t, err)

	s, err := store.Open(ctx, store.Config{Driver: "sqlite", DSN: ":memory:", MaxOpenConns: 1}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Migrate(ctx, catalog))
	fixtures, err := store.LoadFixtures(strings.NewReader(movieFixtures))
	require.NoError(t, err)
	_, err = s.Seed(ctx, catalog, fixtures)
	require.NoError(t, err)

	sessions := &trackingSessions{open: StoreSessions(s)}
	d := New(introspector, sessions.Open, documents, config, nil)

	return &testServer{
		handler:  d.Handler(middleware.RequestID(nil)),
		sessions: sessions,
	}
}

func (s *testServer) do(t *testing.T, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestServeCatalog(t *testing.T) {
	srv := newTestServer(t, Config{}, nil)

	rec := srv.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("ETag"))

	var doc struct {
		Types []struct {
			Name string `json:"name"`
		} `json:"types"`
		Links []struct {
			Type   string `json:"type"`
			Source string `json:"source"`
			Target string `json:"target"`
		} `json:"links"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))

	var names []string
	for _, typ := range doc.Types {
		names = append(names, typ.Name)
	}
	assert.Equal(t, []string{"Movie", "Person", "Actor", "Address"}, names)
	assert.Contains(t, doc.Links, struct {
		Type   string `json:"type"`
		Source string `json:"source"`
		Target string `json:"target"`
	}{"inheritance", "Actor", "Person"})

	again := srv.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, rec.Body.String(), again.Body.String())
	assert.Equal(t, int32(0), srv.sessions.opened.Load())
}

func TestServeCatalog_NotModified(t *testing.T) {
	srv := newTestServer(t, Config{CatalogCacheControl: "no-cache"}, nil)

	first := srv.do(t, http.MethodGet, "/", nil)
	etag := first.Header().Get("ETag")
	assert.Equal(t, "no-cache", first.Header().Get("Cache-Control"))

	rec := srv.do(t, http.MethodGet, "/", http.Header{"If-None-Match": {etag}})
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestServeCatalog_CachedInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	backend := cache.NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), cache.DefaultCacheConfig())
	t.Cleanup(func() { backend.Close() })

	srv := newTestServer(t, Config{}, cache.NewDocumentCache(backend, time.Minute, nil))

	rec := srv.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "metarest:catalog:"))

	again := srv.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, rec.Header().Get("ETag"), again.Header().Get("ETag"))
	assert.Equal(t, rec.Body.String(), again.Body.String())
}

func TestServeResource(t *testing.T) {
	srv := newTestServer(t, Config{}, nil)

	tests := []struct {
		name string
		path string
		want string
	}{
		{"instance", "/Movie/7", `{"attributes":{"id":7,"title":"Alien","rating":null}}`},
		{"association", "/Movie/7/director", `{"attributes":{"id":"p1","name":"Ada"}}`},
		{"scalar at end of chain", "/Movie/7/director/name", `{"attributes":{"value":"Ada"}}`},
		{"collection", "/Movie/7/actors", `[{"attributes":{"id":"a2","name":"Sigourney","agent":"Max"}},{"attributes":{"id":"a1","name":"Tom","agent":null}}]`},
		{"embedded", "/Movie/7/location/city", `{"attributes":{"value":"London"}}`},
		{"listing includes subtypes", "/Person", `[{"attributes":{"id":"a1","name":"Tom","agent":null}},{"attributes":{"id":"a2","name":"Sigourney","agent":"Max"}},{"attributes":{"id":"p1","name":"Ada"}}]`},
		{"subtype through supertype", "/Person/a2", `{"attributes":{"id":"a2","name":"Sigourney","agent":"Max"}}`},
		{"subtype attribute through supertype", "/Person/a2/agent", `{"attributes":{"value":"Max"}}`},
		{"association to subtype", "/Movie/9/director", `{"attributes":{"id":"a2","name":"Sigourney","agent":"Max"}}`},
		{"subtype attribute through association", "/Movie/9/director/agent", `{"attributes":{"value":"Max"}}`},
		{"inherited attribute", "/Actor/a2/name", `{"attributes":{"value":"Sigourney"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodGet, tt.path, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.JSONEq(t, tt.want, rec.Body.String())
		})
	}

	assert.Equal(t, srv.sessions.opened.Load(), srv.sessions.closed.Load())
}

func TestServeResource_ChainMatchesDirectLookup(t *testing.T) {
	srv := newTestServer(t, Config{}, nil)

	chained := srv.do(t, http.MethodGet, "/Movie/7/director", nil)
	direct := srv.do(t, http.MethodGet, "/Person/p1", nil)

	require.Equal(t, http.StatusOK, chained.Code)
	assert.JSONEq(t, direct.Body.String(), chained.Body.String())
}

func TestServeResource_NotFound(t *testing.T) {
	srv := newTestServer(t, Config{}, nil)

	for _, path := range []string{"/Movie/42", "/Actor/p1", "/Studio/1", "/Address/1", "/Movie/8/director", "/Movie/8/director/name"} {
		rec := srv.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Empty(t, rec.Body.String(), path)
	}

	assert.Equal(t, srv.sessions.opened.Load(), srv.sessions.closed.Load())
}

func TestServeResource_BadRequest(t *testing.T) {
	srv := newTestServer(t, Config{MaxDepth: 3}, nil)

	tests := []struct {
		name     string
		path     string
		code     string
		kind     string
		segment  string
		position float64
	}{
		{"bad identifier", "/Movie/abc", "UNSUPPORTED_CONVERSION", "UnsupportedConversion", "abc", 1},
		{"unknown attribute", "/Movie/7/budget", "ATTRIBUTE_ACCESS_ERROR", "AttributeAccessError", "budget", 2},
		{"read through scalar", "/Movie/7/title/length", "ATTRIBUTE_ACCESS_ERROR", "AttributeAccessError", "length", 3},
		{"read through collection", "/Movie/7/actors/name", "ATTRIBUTE_ACCESS_ERROR", "AttributeAccessError", "name", 3},
		{"trailing separator", "/Movie/7/", "INVALID_PATH", "InvalidPath", "", 2},
		{"too deep", "/Movie/7/director/name/a/b", "INVALID_PATH", "InvalidPath", "b", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodGet, tt.path, nil)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var body struct {
				Error struct {
					Code    string                 `json:"code"`
					Message string                 `json:"message"`
					Details map[string]interface{} `json:"details"`
				} `json:"error"`
				Status int    `json:"status"`
				Path   string `json:"path"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Error.Code)
			assert.NotEmpty(t, body.Error.Message)
			assert.Equal(t, tt.kind, body.Error.Details["kind"])
			assert.Equal(t, tt.segment, body.Error.Details["segment"])
			assert.Equal(t, tt.position, body.Error.Details["position"])
			assert.Equal(t, http.StatusBadRequest, body.Status)
			assert.Equal(t, tt.path, body.Path)
		})
	}

	assert.Equal(t, srv.sessions.opened.Load(), srv.sessions.closed.Load())
}

func TestServeResource_Prefix(t *testing.T) {
	srv := newTestServer(t, Config{Prefix: "/api"}, nil)

	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/api", nil).Code)
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/api/Movie/7", nil).Code)

	rec := srv.do(t, http.MethodGet, "/Movie/7", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestServeResource_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, Config{}, nil)

	rec := srv.do(t, http.MethodPost, "/Movie/7", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Header().Values("Allow"), http.MethodGet)
	assert.Contains(t, rec.Body.String(), "METHOD_NOT_ALLOWED")
}

func TestServeResource_Head(t *testing.T) {
	srv := newTestServer(t, Config{}, nil)

	rec := srv.do(t, http.MethodHead, "/Movie/7", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestServeResource_SessionFailure(t *testing.T) {
	introspector := metamodel.NewIntrospector(schema.NewSourceProvider("movies", movieSchema))
	failing := func(ctx context.Context) (Session, error) {
		return nil, errors.New("pool exhausted")
	}

	d := New(introspector, failing, nil, Config{ShowDetails: true}, nil)
	rec := httptest.NewRecorder()
	d.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/Movie/7", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "pool exhausted")
}

func TestFail_DeadlineExceeded(t *testing.T) {
	d := New(nil, nil, nil, Config{}, nil)
	rec := httptest.NewRecorder()

	d.fail(rec, httptest.NewRequest(http.MethodGet, "/Movie/7", nil), context.DeadlineExceeded)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Contains(t, rec.Body.String(), "TIMEOUT")
}

func TestFail_WrappedNavigationError(t *testing.T) {
	d := New(nil, nil, nil, Config{}, nil)
	rec := httptest.NewRecorder()

	_, err := navigation.Parse("/")
	require.Error(t, err)
	d.fail(rec, httptest.NewRequest(http.MethodGet, "/", nil), err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_PATH")
}
