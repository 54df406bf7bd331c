package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	webcontext "github.com/conduit-lang/metarest/internal/web/context"
)

// RecoveryConfig holds configuration for the recovery middleware
type RecoveryConfig struct {
	// EnableStackTrace determines whether to log stack traces
	EnableStackTrace bool
	// Logger receives the panic; the request-scoped logger is used when nil
	Logger *zap.Logger
}

// Recovery creates a middleware that turns panics into 500 responses
func Recovery(logger *zap.Logger) Middleware {
	return RecoveryWithConfig(RecoveryConfig{EnableStackTrace: true, Logger: logger})
}

// RecoveryWithConfig creates a recovery middleware with custom configuration
func RecoveryWithConfig(config RecoveryConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}

				logger := config.Logger
				if logger == nil {
					logger = webcontext.Logger(r.Context())
				}
				fields := []zap.Field{
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Error(panicAsError(p)),
				}
				if config.EnableStackTrace {
					fields = append(fields, zap.ByteString("stack", debug.Stack()))
				}
				logger.Error("panic recovered", fields...)

				writeRecoveryResponse(w, r)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// writeRecoveryResponse sends the standard JSON error body
func writeRecoveryResponse(w http.ResponseWriter, r *http.Request) {
	body, _ := json.Marshal(map[string]interface{}{
		"error": map[string]interface{}{
			"code":    "INTERNAL_SERVER_ERROR",
			"message": "An unexpected error occurred",
		},
		"status": http.StatusInternalServerError,
		"path":   r.URL.Path,
		"method": r.Method,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	w.Write(body)
}

func panicAsError(p interface{}) error {
	if err, ok := p.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", p)
}
