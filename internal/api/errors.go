package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DefaultErrorMessage is used when the server does not say what went wrong
const DefaultErrorMessage = "Request failed"

// APIError is returned for any non-2xx response
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Message)
}

// errorResponse is the error body shape sent by the backend
type errorResponse struct {
	Message string `json:"message"`
}

func newAPIError(status int, body []byte) *APIError {
	msg := DefaultErrorMessage
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && strings.TrimSpace(errResp.Message) != "" {
		msg = errResp.Message
	}
	return &APIError{Status: status, Message: msg}
}

// StatusOf returns the HTTP status carried by err, or 0 if err is not an APIError
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsForbidden reports whether err is an HTTP 403 from the backend
func IsForbidden(err error) bool {
	return StatusOf(err) == http.StatusForbidden
}

// IsNotFound reports whether err is an HTTP 404 from the backend
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// ValidationError is a client-side input failure detected before any request
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Message returns the most specific user-facing message for err: the server
// provided message, a validation message, or fallback.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != DefaultErrorMessage {
		return apiErr.Message
	}
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return valErr.Message
	}
	return fallback
}
