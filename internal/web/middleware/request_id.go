package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	webcontext "github.com/conduit-lang/metarest/internal/web/context"
)

// RequestIDConfig holds configuration for the request ID middleware
type RequestIDConfig struct {
	// HeaderName is the name of the header to read/write the request ID
	HeaderName string
	// Generator is a custom function to generate request IDs
	Generator func() string
	// Logger, when set, is stored in the request context with the request ID attached
	Logger *zap.Logger
}

// DefaultRequestIDConfig returns the default request ID configuration
func DefaultRequestIDConfig() RequestIDConfig {
	return RequestIDConfig{
		HeaderName: "X-Request-ID",
		Generator:  defaultRequestIDGenerator,
	}
}

// RequestID creates a middleware that tags each request with an ID and a
// request-scoped logger carrying it
func RequestID(logger *zap.Logger) Middleware {
	config := DefaultRequestIDConfig()
	config.Logger = logger
	return RequestIDWithConfig(config)
}

// RequestIDWithConfig creates a request ID middleware with custom configuration
func RequestIDWithConfig(config RequestIDConfig) Middleware {
	if config.HeaderName == "" {
		config.HeaderName = "X-Request-ID"
	}
	if config.Generator == nil {
		config.Generator = defaultRequestIDGenerator
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(config.HeaderName)
			if requestID == "" {
				requestID = config.Generator()
			}

			ctx := webcontext.SetRequestID(r.Context(), requestID)
			if config.Logger != nil {
				ctx = webcontext.SetLogger(ctx, config.Logger.With(zap.String("request_id", requestID)))
			}

			w.Header().Set(config.HeaderName, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID extracts the request ID from the context
func GetRequestID(ctx context.Context) string {
	return webcontext.GetRequestID(ctx)
}

// defaultRequestIDGenerator generates a UUID v4 request ID
func defaultRequestIDGenerator() string {
	return uuid.New().String()
}
