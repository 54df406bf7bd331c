package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func tracing(name string, called *[]string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*called = append(*called, name+"-before")
			next.ServeHTTP(w, r)
			*called = append(*called, name+"-after")
		})
	}
}

func TestNewChain(t *testing.T) {
	chain := NewChain()
	if chain == nil {
		t.Fatal("NewChain returned nil")
	}
	if len(chain.Middlewares()) != 0 {
		t.Errorf("Expected empty chain, got %d middlewares", len(chain.Middlewares()))
	}
}

func TestChainUse(t *testing.T) {
	var called []string
	chain := NewChain()

	result := chain.Use(tracing("m", &called))
	if result != chain {
		t.Error("Use should return the same chain for chaining")
	}
	if len(chain.Middlewares()) != 1 {
		t.Errorf("Expected 1 middleware, got %d", len(chain.Middlewares()))
	}
}

func TestChainThenOrdering(t *testing.T) {
	var called []string

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = append(called, "handler")
	})

	wrapped := NewChain(tracing("m1", &called), tracing("m2", &called)).Then(handler)
	wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	expected := []string{"m1-before", "m2-before", "handler", "m2-after", "m1-after"}
	if len(called) != len(expected) {
		t.Fatalf("Expected %d calls, got %d: %v", len(expected), len(called), called)
	}
	for i, exp := range expected {
		if called[i] != exp {
			t.Errorf("Call %d: expected %s, got %s", i, exp, called[i])
		}
	}
}

func TestChainMiddlewaresIsCopy(t *testing.T) {
	var called []string
	chain := NewChain(tracing("m1", &called))

	list := chain.Middlewares()
	list[0] = nil

	if chain.Middlewares()[0] == nil {
		t.Error("Middlewares should return a copy")
	}
}

func TestStack(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Context().Deadline(); !ok {
			t.Error("Expected request deadline")
		}
		if GetRequestID(r.Context()) == "" {
			t.Error("Expected request ID in context")
		}
		w.WriteHeader(http.StatusOK)
	})

	wrapped := Stack(StackConfig{
		Logger:         zap.New(core),
		RequestTimeout: time.Second,
		CORSOrigins:    []string{"https://example.com"},
	}).Then(handler)

	req := httptest.NewRequest(http.MethodGet, "/catalog", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header")
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://example.com" {
		t.Error("Expected CORS header")
	}
	if logs.FilterMessage("request").Len() != 1 {
		t.Errorf("Expected one request log entry, got %d", logs.FilterMessage("request").Len())
	}
}

func TestStackWithoutCORS(t *testing.T) {
	chain := Stack(StackConfig{})
	if len(chain.Middlewares()) != 4 {
		t.Errorf("Expected 4 middlewares, got %d", len(chain.Middlewares()))
	}
}
