package router

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error  ErrorDetail `json:"error"`
	Status int         `json:"status"`
	Path   string      `json:"path,omitempty"`
	Method string      `json:"method,omitempty"`
}

// ErrorDetail contains detailed error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorHandler provides default error handlers
type ErrorHandler struct {
	// Include detailed errors in responses (disable in production)
	ShowDetails bool

	// AllowedMethods is reported in the Allow header of 405 responses
	AllowedMethods []string
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(showDetails bool) *ErrorHandler {
	return &ErrorHandler{
		ShowDetails:    showDetails,
		AllowedMethods: []string{http.MethodGet, http.MethodHead},
	}
}

// NotFoundHandler returns a handler for unmatched routes
func (eh *ErrorHandler) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := ErrorResponse{
			Error: ErrorDetail{
				Code:    "NOT_FOUND",
				Message: "The requested resource was not found",
			},
			Status: http.StatusNotFound,
			Path:   r.URL.Path,
			Method: r.Method,
		}
		writeJSONError(w, http.StatusNotFound, resp)
	}
}

// MethodNotAllowedHandler returns a handler for 405 Method Not Allowed errors
func (eh *ErrorHandler) MethodNotAllowedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := ErrorResponse{
			Error: ErrorDetail{
				Code:    "METHOD_NOT_ALLOWED",
				Message: fmt.Sprintf("Method %s is not allowed; this service is read-only", r.Method),
			},
			Status: http.StatusMethodNotAllowed,
			Path:   r.URL.Path,
			Method: r.Method,
		}

		if eh.ShowDetails {
			resp.Error.Details = map[string]interface{}{
				"allowed_methods": eh.AllowedMethods,
			}
		}

		for _, m := range eh.AllowedMethods {
			w.Header().Add("Allow", m)
		}
		writeJSONError(w, http.StatusMethodNotAllowed, resp)
	}
}

// WriteError writes an error response
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	WriteErrorWithDetails(w, r, status, code, message, nil)
}

// WriteErrorWithDetails writes an error response with additional details
func WriteErrorWithDetails(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}) {
	resp := ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
		Status: status,
	}
	if r != nil {
		resp.Path = r.URL.Path
		resp.Method = r.Method
	}
	writeJSONError(w, status, resp)
}

// InternalServerError writes a 500 response. The error text is included
// only when showDetails is set.
func InternalServerError(w http.ResponseWriter, r *http.Request, err error, showDetails bool) {
	var details map[string]interface{}
	if showDetails && err != nil {
		details = map[string]interface{}{"error": err.Error()}
	}
	WriteErrorWithDetails(w, r, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR",
		"An internal server error occurred", details)
}

// writeJSONError writes a JSON error response
func writeJSONError(w http.ResponseWriter, status int, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp) // Error is logged elsewhere
}

// SetupDefaultErrorHandlers configures the router with default error handlers
func SetupDefaultErrorHandlers(r *Router, showDetails bool) {
	eh := NewErrorHandler(showDetails)
	r.NotFound(eh.NotFoundHandler())
	r.MethodNotAllowed(eh.MethodNotAllowedHandler())
}
