// Package router wraps chi with the read-only route registration the
// service needs and records registered routes for introspection.
package router

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/conduit-lang/metarest/internal/web/middleware"
)

// Router manages HTTP routing using chi framework
type Router struct {
	mux    chi.Router
	prefix string

	// For introspection and debugging
	registeredRoutes *[]*RouteInfo
}

// Route represents a single registered route
type Route struct {
	Pattern string           // /{type}/{id}
	Method  string           // GET, HEAD
	Handler http.HandlerFunc // Handler function
	Name    string           // Named route for listings

	info *RouteInfo
}

// RouteInfo provides metadata about a route for introspection
type RouteInfo struct {
	Pattern string
	Method  string
	Name    string
}

// NewRouter creates a new Router instance
func NewRouter() *Router {
	routes := make([]*RouteInfo, 0)
	return &Router{
		mux:              chi.NewRouter(),
		registeredRoutes: &routes,
	}
}

// ServeHTTP implements http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Use adds middleware to the router. Middleware must be added before routes.
func (r *Router) Use(middlewares ...middleware.Middleware) {
	for _, m := range middlewares {
		r.mux.Use(m)
	}
}

// Get registers a GET route
func (r *Router) Get(pattern string, handler http.HandlerFunc) *Route {
	return r.addRoute(http.MethodGet, pattern, handler)
}

// Head registers a HEAD route
func (r *Router) Head(pattern string, handler http.HandlerFunc) *Route {
	return r.addRoute(http.MethodHead, pattern, handler)
}

// addRoute registers a route with the given method, pattern, and handler
func (r *Router) addRoute(method, pattern string, handler http.HandlerFunc) *Route {
	r.mux.Method(method, pattern, handler)

	info := &RouteInfo{
		Pattern: joinPattern(r.prefix, pattern),
		Method:  method,
	}
	*r.registeredRoutes = append(*r.registeredRoutes, info)

	return &Route{
		Pattern: pattern,
		Method:  method,
		Handler: handler,
		info:    info,
	}
}

// Group mounts the routes registered by fn under prefix. An empty or "/"
// prefix registers them on the router itself.
func (r *Router) Group(prefix string, fn func(r *Router)) {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		fn(r)
		return
	}
	r.mux.Route(prefix, func(sub chi.Router) {
		fn(&Router{
			mux:              sub,
			prefix:           joinPattern(r.prefix, prefix),
			registeredRoutes: r.registeredRoutes,
		})
	})
}

// Named sets a name for the route
func (route *Route) Named(name string) *Route {
	route.Name = name
	route.info.Name = name
	return route
}

// GetRoutes returns all registered routes for introspection
func (r *Router) GetRoutes() []*RouteInfo {
	out := make([]*RouteInfo, len(*r.registeredRoutes))
	copy(out, *r.registeredRoutes)
	return out
}

// NotFound sets the handler for 404 Not Found
func (r *Router) NotFound(handler http.HandlerFunc) {
	r.mux.NotFound(handler)
}

// MethodNotAllowed sets the handler for 405 Method Not Allowed
func (r *Router) MethodNotAllowed(handler http.HandlerFunc) {
	r.mux.MethodNotAllowed(handler)
}

// Wildcard returns the path matched by a trailing "*" in the route pattern
func Wildcard(req *http.Request) string {
	return chi.URLParam(req, "*")
}

func joinPattern(prefix, pattern string) string {
	if prefix == "" {
		return pattern
	}
	if pattern == "/" {
		return prefix + "/"
	}
	return prefix + pattern
}
