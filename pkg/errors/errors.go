package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors that can occur during a crawl
type ErrorType string

const (
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeHTTPStatus ErrorType = "http_status"
	ErrorTypeRateLimit  ErrorType = "rate_limit"
	ErrorTypeParsing    ErrorType = "parsing"
	ErrorTypeFilesystem ErrorType = "filesystem"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeBrowser    ErrorType = "browser"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// Error represents a crawl error with type information.
// Code carries the HTTP status for ErrorTypeHTTPStatus and is zero otherwise.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error: %s", e.Type, e.Message)
	if e.Code != 0 {
		msg = fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error
func New(errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

// Wrap creates a typed error around an underlying cause
func Wrap(errorType ErrorType, err error, message string) *Error {
	return &Error{Type: errorType, Message: message, Err: err}
}

// NewHTTPStatus creates an error for a non-2xx response
func NewHTTPStatus(statusCode int) *Error {
	errorType := ErrorTypeHTTPStatus
	if statusCode == http.StatusTooManyRequests {
		errorType = ErrorTypeRateLimit
	}
	return &Error{
		Type:    errorType,
		Message: fmt.Sprintf("HTTP %d %s", statusCode, http.StatusText(statusCode)),
		Code:    statusCode,
	}
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown when err is not typed
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

// IsConfig reports whether err is a configuration error
func IsConfig(err error) bool {
	return TypeOf(err) == ErrorTypeConfig
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeTimeout, ErrorTypeRateLimit:
		return true
	case ErrorTypeConfig, ErrorTypeParsing, ErrorTypeFilesystem, ErrorTypeBrowser:
		return false
	default:
		return false
	}
}

// IsRetryableError checks a concrete error, taking the HTTP status into account
func IsRetryableError(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	if e.Type == ErrorTypeHTTPStatus {
		return IsRetryableStatusCode(e.Code)
	}
	return IsRetryable(e.Type)
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 401, 403, 404, 410:
		return false
	default:
		return statusCode >= 500
	}
}
