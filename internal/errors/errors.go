// Package errors defines the HTTP error envelope returned by the API server.
//
// Every non-2xx JSON response has the shape
//
//	{"error": {"code": "...", "message": "...", "request_id": "...", "details": {...}}}
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Error codes.
const (
	CodeBadRequest         = "BAD_REQUEST"
	CodeInvalidArgument    = "INVALID_ARGUMENT"
	CodeUnsupportedAsset   = "UNSUPPORTED_ASSET"
	CodeNotFound           = "NOT_FOUND"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

// HTTPErrorResponse is the JSON body of an error response.
type HTTPErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries the error fields.
type ErrorBody struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// HTTPError is an error that knows its HTTP status and API code.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
	Err     error
}

// New creates an HTTPError.
func New(status int, code, message string) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message}
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *HTTPError) Unwrap() error { return e.Err }

// WithDetails attaches structured details.
func (e *HTTPError) WithDetails(details map[string]any) *HTTPError {
	e.Details = details
	return e
}

// WithCause records the underlying error. The cause is not sent to clients.
func (e *HTTPError) WithCause(err error) *HTTPError {
	e.Err = err
	return e
}

// BadRequest returns a 400 INVALID_ARGUMENT error.
func BadRequest(message string) *HTTPError {
	return New(http.StatusBadRequest, CodeInvalidArgument, message)
}

// ServiceUnavailable returns a 503 SERVICE_UNAVAILABLE error.
func ServiceUnavailable(message string) *HTTPError {
	return New(http.StatusServiceUnavailable, CodeServiceUnavailable, message)
}

// Internal returns a 500 INTERNAL_ERROR error.
func Internal(message string) *HTTPError {
	return New(http.StatusInternalServerError, CodeInternal, message)
}

// RespondWithError writes err as a JSON error envelope. Errors that are not
// HTTPErrors become 500 INTERNAL_ERROR with a generic message.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	var he *HTTPError
	if !errors.As(err, &he) {
		he = Internal("internal server error").WithCause(err)
	}
	Write(w, r, he.Status, ErrorBody{Code: he.Code, Message: he.Message, Details: he.Details})
}

// Write sends body with the given status. The request ID is filled in from
// the request context when the body has none.
func Write(w http.ResponseWriter, r *http.Request, status int, body ErrorBody) {
	if body.RequestID == "" && r != nil {
		body.RequestID = chimw.GetReqID(r.Context())
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(HTTPErrorResponse{Error: body})
}

// NotFoundHandler answers unknown routes.
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	Write(w, r, http.StatusNotFound, ErrorBody{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("no route for %s", r.URL.Path),
	})
}

// MethodNotAllowedHandler answers known routes called with the wrong method.
func MethodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	Write(w, r, http.StatusMethodNotAllowed, ErrorBody{
		Code:    CodeMethodNotAllowed,
		Message: fmt.Sprintf("method %s not allowed on %s", r.Method, r.URL.Path),
	})
}
