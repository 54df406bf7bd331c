package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	webcontext "github.com/conduit-lang/metarest/internal/web/context"
)

func TestRequestIDGenerates(t *testing.T) {
	var requestID string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = GetRequestID(r.Context())
	})

	rec := httptest.NewRecorder()
	RequestID(nil)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if requestID == "" {
		t.Fatal("Expected request ID to be generated")
	}
	if _, err := uuid.Parse(requestID); err != nil {
		t.Errorf("Expected UUID request ID, got %q", requestID)
	}
	if rec.Header().Get("X-Request-ID") != requestID {
		t.Errorf("Expected response header %q, got %q", requestID, rec.Header().Get("X-Request-ID"))
	}
}

func TestRequestIDPropagatesIncoming(t *testing.T) {
	var requestID string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = GetRequestID(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "incoming-id")
	rec := httptest.NewRecorder()
	RequestID(nil)(handler).ServeHTTP(rec, req)

	if requestID != "incoming-id" {
		t.Errorf("Expected incoming-id, got %q", requestID)
	}
	if rec.Header().Get("X-Request-ID") != "incoming-id" {
		t.Errorf("Expected header incoming-id, got %q", rec.Header().Get("X-Request-ID"))
	}
}

func TestRequestIDWithConfig(t *testing.T) {
	config := RequestIDConfig{
		HeaderName: "X-Trace-ID",
		Generator:  func() string { return "fixed" },
	}

	rec := httptest.NewRecorder()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	RequestIDWithConfig(config)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Header().Get("X-Trace-ID") != "fixed" {
		t.Errorf("Expected X-Trace-ID fixed, got %q", rec.Header().Get("X-Trace-ID"))
	}
}

func TestRequestIDAttachesLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		webcontext.Logger(r.Context()).Info("inside")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	RequestID(zap.New(core))(handler).ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("inside").All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["request_id"] != "abc" {
		t.Errorf("Expected request_id field abc, got %v", entries[0].ContextMap()["request_id"])
	}
}
