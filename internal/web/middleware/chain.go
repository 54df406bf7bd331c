// Package middleware provides the HTTP middleware stack wrapped around the
// dispatcher: request IDs, request logging, panic recovery, deadlines and CORS.
package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Middleware is a function that wraps an http.Handler
type Middleware func(http.Handler) http.Handler

// Chain represents a composable chain of middleware
type Chain struct {
	middlewares []Middleware
}

// NewChain creates a new middleware chain
func NewChain(middlewares ...Middleware) *Chain {
	return &Chain{middlewares: middlewares}
}

// Use adds a middleware to the chain
func (c *Chain) Use(m Middleware) *Chain {
	c.middlewares = append(c.middlewares, m)
	return c
}

// Middlewares returns the chain in execution order
func (c *Chain) Middlewares() []Middleware {
	out := make([]Middleware, len(c.middlewares))
	copy(out, c.middlewares)
	return out
}

// Then wraps the handler so the first added middleware runs first
func (c *Chain) Then(handler http.Handler) http.Handler {
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		handler = c.middlewares[i](handler)
	}
	return handler
}

// StackConfig selects the standard middleware stack
type StackConfig struct {
	Logger         *zap.Logger
	RequestTimeout time.Duration
	CORSOrigins    []string // CORS is disabled when empty
	LogSkipPaths   []string
}

// Stack builds the standard chain: request ID, recovery, logging, timeout
// and, when origins are configured, CORS.
func Stack(config StackConfig) *Chain {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	chain := NewChain(
		RequestID(logger),
		Recovery(nil),
		LoggingWithConfig(LoggingConfig{SkipPaths: config.LogSkipPaths}),
		Timeout(config.RequestTimeout),
	)
	if len(config.CORSOrigins) > 0 {
		chain.Use(CORS(config.CORSOrigins...))
	}
	return chain
}
