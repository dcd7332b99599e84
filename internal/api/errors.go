package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sony/gobreaker/v2"

	"github.com/dukerupert/wicket/internal/domain"
)

// fallbackMessage is used when the backend gives no message of its own.
const fallbackMessage = "The store could not complete the request. Please try again."

// ResponseError is a non-2xx answer from the store backend.
// Message is the backend's own "message" field, shown to the user verbatim.
type ResponseError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *ResponseError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("api: %s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

// ErrorCode maps the HTTP status to a domain error code.
func (e *ResponseError) ErrorCode() string {
	switch {
	case e.StatusCode == http.StatusBadRequest, e.StatusCode == http.StatusUnprocessableEntity:
		return domain.EINVALID
	case e.StatusCode == http.StatusUnauthorized:
		return domain.EUNAUTHORIZED
	case e.StatusCode == http.StatusForbidden:
		return domain.EFORBIDDEN
	case e.StatusCode == http.StatusNotFound:
		return domain.ENOTFOUND
	case e.StatusCode == http.StatusConflict:
		return domain.ECONFLICT
	case e.StatusCode >= 500:
		return domain.EUNAVAILABLE
	default:
		return domain.EINVALID
	}
}

// ErrorMessage returns the backend message, or a fallback when it sent none.
func (e *ResponseError) ErrorMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return fallbackMessage
}

// Temporary reports whether repeating the request may succeed.
func (e *ResponseError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var re *ResponseError
	return errors.As(err, &re) && re.StatusCode == http.StatusNotFound
}

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = &domain.Error{
	Code:    domain.EUNAVAILABLE,
	Message: "The store is not responding right now. Please try again shortly.",
}

// parseErrorResponse builds a ResponseError from a failed response body.
// Bodies are {"message": "..."}; anything else is ignored.
func parseErrorResponse(method, path string, statusCode int, body []byte) error {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	json.Unmarshal(body, &payload) // Best effort parse

	msg := strings.TrimSpace(payload.Message)
	if msg == "" {
		msg = strings.TrimSpace(payload.Error)
	}
	return &ResponseError{
		Method:     method,
		Path:       path,
		StatusCode: statusCode,
		Message:    msg,
	}
}

// breakerOpen reports whether err came from the breaker refusing the call.
func breakerOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
