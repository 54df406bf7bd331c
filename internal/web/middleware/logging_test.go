package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	webcontext "github.com/conduit-lang/metarest/internal/web/context"
)

func TestLoggingFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("hello"))
	})

	req := httptest.NewRequest(http.MethodGet, "/Movie/7", nil)
	req.Header.Set("User-Agent", "test-agent")
	Logging(zap.New(core))(handler).ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("request").All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["method"] != http.MethodGet {
		t.Errorf("Expected method GET, got %v", fields["method"])
	}
	if fields["path"] != "/Movie/7" {
		t.Errorf("Expected path /Movie/7, got %v", fields["path"])
	}
	if fields["status"] != int64(http.StatusCreated) {
		t.Errorf("Expected status 201, got %v", fields["status"])
	}
	if fields["bytes"] != int64(5) {
		t.Errorf("Expected 5 bytes, got %v", fields["bytes"])
	}
	if fields["user_agent"] != "test-agent" {
		t.Errorf("Expected user agent, got %v", fields["user_agent"])
	}
	if entries[0].Level != zapcore.InfoLevel {
		t.Errorf("Expected info level, got %v", entries[0].Level)
	}
}

func TestLoggingServerErrorLevel(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	Logging(zap.New(core))(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	entries := logs.All()
	if len(entries) != 1 || entries[0].Level != zapcore.ErrorLevel {
		t.Fatalf("Expected one error entry, got %v", entries)
	}
}

func TestLoggingSkipPaths(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	mw := LoggingWithConfig(LoggingConfig{Logger: zap.New(core), SkipPaths: []string{"/health"}})

	mw(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	mw(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/catalog", nil))

	if logs.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", logs.Len())
	}
}

func TestLoggingUsesContextLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(webcontext.SetLogger(req.Context(), zap.New(core)))

	LoggingWithConfig(LoggingConfig{})(handler).ServeHTTP(httptest.NewRecorder(), req)

	if logs.Len() != 1 {
		t.Errorf("Expected 1 entry from context logger, got %d", logs.Len())
	}
}

func TestResponseWriterDefaultStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	rw.Write([]byte("abc"))
	rw.WriteHeader(http.StatusTeapot)

	if rw.statusCode != http.StatusOK {
		t.Errorf("Expected status to stay 200, got %d", rw.statusCode)
	}
	if rw.bytesWritten != 3 {
		t.Errorf("Expected 3 bytes, got %d", rw.bytesWritten)
	}
}
