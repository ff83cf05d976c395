// Package platformerrors carries typed errors across layers so handlers can
// map failures to HTTP status codes without inspecting upstream error strings.
package platformerrors

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ErrorType represents the category of error.
type ErrorType string

const (
	ErrorTypeNotFound      ErrorType = "NOT_FOUND"
	ErrorTypeValidation    ErrorType = "VALIDATION"
	ErrorTypeConflict      ErrorType = "CONFLICT"
	ErrorTypeUnauthorized  ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden     ErrorType = "FORBIDDEN"
	ErrorTypeInternal      ErrorType = "INTERNAL"
	ErrorTypeExternal      ErrorType = "EXTERNAL"
	ErrorTypeTimeout       ErrorType = "TIMEOUT"
	ErrorTypeConfiguration ErrorType = "CONFIGURATION"
	ErrorTypeState         ErrorType = "STATE"
)

// Layer represents the application layer where the error occurred.
type Layer string

const (
	LayerDomain         Layer = "domain"
	LayerHandler        Layer = "handler"
	LayerRoute          Layer = "route"
	LayerInfrastructure Layer = "infrastructure"
)

// PlatformError represents an error with context and metadata.
type PlatformError struct {
	Type      ErrorType
	Message   string
	Err       error
	Layer     Layer
	Timestamp time.Time
}

// Error implements the error interface.
func (e *PlatformError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s][%s] %s: %v", e.Layer, e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s][%s] %s", e.Layer, e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *PlatformError) Unwrap() error {
	return e.Err
}

// New creates a new PlatformError.
func New(layer Layer, errorType ErrorType, message string, err error) *PlatformError {
	return &PlatformError{
		Type:      errorType,
		Message:   message,
		Err:       err,
		Layer:     layer,
		Timestamp: time.Now().UTC(),
	}
}

// NewExternal creates an external (upstream) error at the infrastructure layer.
func NewExternal(message string, err error) *PlatformError {
	return New(LayerInfrastructure, ErrorTypeExternal, message, err)
}

// NewValidation creates a validation error at the route layer.
func NewValidation(message string) *PlatformError {
	return New(LayerRoute, ErrorTypeValidation, message, nil)
}

// GetPlatformError extracts a PlatformError from an error chain, or nil.
func GetPlatformError(err error) *PlatformError {
	var platformErr *PlatformError
	if errors.As(err, &platformErr) {
		return platformErr
	}
	return nil
}

// ErrorTypeToHTTPStatus maps an error type to its HTTP status code.
func ErrorTypeToHTTPStatus(t ErrorType) int {
	switch t {
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeConflict, ErrorTypeState:
		return http.StatusConflict
	case ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case ErrorTypeForbidden:
		return http.StatusForbidden
	case ErrorTypeExternal:
		return http.StatusBadGateway
	case ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	case ErrorTypeConfiguration:
		return http.StatusServiceUnavailable
	case ErrorTypeInternal:
		fallthrough
	default:
		return http.StatusInternalServerError
	}
}

// LogError logs a PlatformError with structured fields.
func LogError(log zerolog.Logger, err *PlatformError) {
	event := log.Error()
	if err.Type == ErrorTypeValidation || err.Type == ErrorTypeNotFound {
		event = log.Warn()
	}
	event.
		Err(err.Err).
		Str("layer", string(err.Layer)).
		Str("type", string(err.Type)).
		Msg(err.Message)
}
