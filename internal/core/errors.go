// Package core provides core types and interfaces for the roast relay.
package core

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error that occurred
type ErrorType string

const (
	// ErrorTypeValidation indicates missing or oversized input (400)
	ErrorTypeValidation ErrorType = "validation_error"
	// ErrorTypePolicy indicates blocked content (403)
	ErrorTypePolicy ErrorType = "policy_error"
	// ErrorTypeUpstream indicates a vendor API returned a non-success status
	ErrorTypeUpstream ErrorType = "upstream_error"
	// ErrorTypeConfiguration indicates a required dependency is not configured (500)
	ErrorTypeConfiguration ErrorType = "configuration_error"
	// ErrorTypeStorage indicates the remote persistence call itself failed (500)
	ErrorTypeStorage ErrorType = "storage_error"
	// ErrorTypeNotFound indicates a not found error (404)
	ErrorTypeNotFound ErrorType = "not_found_error"
	// ErrorTypeInternal is the catch-all (500)
	ErrorTypeInternal ErrorType = "internal_error"
)

// GatewayError is the base error type for all relay errors
type GatewayError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Provider   string    `json:"provider,omitempty"`
	// Original error for debugging (not exposed to clients)
	Err error `json:"-"`
}

// Error implements the error interface
func (e *GatewayError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Provider, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the error unwrapping interface
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *GatewayError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	switch e.Type {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypePolicy:
		return http.StatusForbidden
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ToJSON converts the error to the {error, details?} body returned to clients
func (e *GatewayError) ToJSON() map[string]interface{} {
	body := map[string]interface{}{
		"error": e.Message,
	}
	if e.Details != "" {
		body["details"] = e.Details
	}
	return body
}

// NewValidationError creates a new validation error (400)
func NewValidationError(message string) *GatewayError {
	return &GatewayError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewPolicyError creates a new policy error (403)
func NewPolicyError(message, details string) *GatewayError {
	return &GatewayError{
		Type:       ErrorTypePolicy,
		Message:    message,
		Details:    details,
		StatusCode: http.StatusForbidden,
	}
}

// NewUpstreamError creates an error that carries the vendor's status code and body verbatim.
// Status codes outside the 4xx/5xx range are reported as 502.
func NewUpstreamError(provider string, statusCode int, body []byte, err error) *GatewayError {
	status := statusCode
	if status < 400 || status > 599 {
		status = http.StatusBadGateway
	}
	return &GatewayError{
		Type:       ErrorTypeUpstream,
		Message:    fmt.Sprintf("%s API error: %d", provider, statusCode),
		Details:    string(body),
		StatusCode: status,
		Provider:   provider,
		Err:        err,
	}
}

// NewTransportError creates an upstream error for a call that never produced a response
func NewTransportError(provider string, message string, err error) *GatewayError {
	return &GatewayError{
		Type:       ErrorTypeUpstream,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Provider:   provider,
		Err:        err,
	}
}

// NewConfigurationError creates a new configuration error (500)
func NewConfigurationError(message string) *GatewayError {
	return &GatewayError{
		Type:       ErrorTypeConfiguration,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// NewStorageError creates a new storage error (500)
func NewStorageError(message string, err error) *GatewayError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &GatewayError{
		Type:       ErrorTypeStorage,
		Message:    message,
		Details:    details,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewNotFoundError creates a new not found error (404)
func NewNotFoundError(message string) *GatewayError {
	return &GatewayError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewInternalError creates a catch-all error (500) that keeps the cause's message
func NewInternalError(err error) *GatewayError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &GatewayError{
		Type:       ErrorTypeInternal,
		Message:    "Internal server error",
		Details:    details,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsType reports whether err is a GatewayError of the given type
func IsType(err error, t ErrorType) bool {
	var gatewayErr *GatewayError
	if errors.As(err, &gatewayErr) {
		return gatewayErr.Type == t
	}
	return false
}
