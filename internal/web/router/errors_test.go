package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFoundHandler(t *testing.T) {
	router := NewRouter()
	router.NotFound(NewErrorHandler(true).NotFoundHandler())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nonexistent", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "NOT_FOUND", response.Error.Code)
	assert.Equal(t, http.StatusNotFound, response.Status)
	assert.Equal(t, "/nonexistent", response.Path)
	assert.Equal(t, http.MethodGet, response.Method)
}

func TestMethodNotAllowedHandler(t *testing.T) {
	tests := []struct {
		name        string
		showDetails bool
	}{
		{name: "with details", showDetails: true},
		{name: "without details", showDetails: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter()
			router.MethodNotAllowed(NewErrorHandler(tt.showDetails).MethodNotAllowedHandler())
			router.Get("/movies", func(w http.ResponseWriter, r *http.Request) {})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/movies", nil))

			assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
			assert.Equal(t, []string{"GET", "HEAD"}, w.Header().Values("Allow"))

			var response ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, "METHOD_NOT_ALLOWED", response.Error.Code)
			assert.Contains(t, response.Error.Message, "POST")
			if tt.showDetails {
				assert.NotNil(t, response.Error.Details["allowed_methods"])
			} else {
				assert.Nil(t, response.Error.Details)
			}
		})
	}
}

func TestWriteErrorWithDetails(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/Movie/abc", nil)
	w := httptest.NewRecorder()
	WriteErrorWithDetails(w, req, http.StatusBadRequest, "UNSUPPORTED_CONVERSION", "bad id",
		map[string]interface{}{"segment": "abc"})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "UNSUPPORTED_CONVERSION", response.Error.Code)
	assert.Equal(t, "abc", response.Error.Details["segment"])
	assert.Equal(t, "/Movie/abc", response.Path)
}

func TestWriteErrorWithoutRequest(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, nil, http.StatusBadRequest, "BAD_REQUEST", "nope")

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Empty(t, response.Path)
	assert.Equal(t, http.StatusBadRequest, response.Status)
}

func TestInternalServerError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/Movie/7", nil)

	w := httptest.NewRecorder()
	InternalServerError(w, req, errors.New("db down"), true)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "db down")

	w = httptest.NewRecorder()
	InternalServerError(w, req, errors.New("db down"), false)
	assert.NotContains(t, w.Body.String(), "db down")
}
